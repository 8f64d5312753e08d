package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/trustblock/trustblock-cli/internal/credentials"
	"github.com/trustblock/trustblock-cli/internal/failures"
)

const (
	directoryPermissionsConstant             = 0o700
	environmentFilePermissionsConstant       = 0o600
	environmentFileTemplateConstant          = "%s=%s\n"
	initializeOperationConstant              = "initialize credentials directory"
	cleanOperationConstant                   = "clean credentials directory"
	missingDirectoryResolverMessageConstant  = "credentials directory resolver not configured"
	logMessageEnvironmentFileCreatedConstant = "credentials file created"
	logMessageEnvironmentFileExistsConstant  = "credentials file already exists"
	logMessageDirectoryRemovedConstant       = "credentials directory removed"
	logMessageDirectoryMissingConstant       = "credentials directory not found"
	logFieldPathConstant                     = "path"
	logFieldAPIKeyProvidedConstant           = "api_key_provided"
)

// DirectoryResolver locates the credentials directory.
type DirectoryResolver interface {
	Directory() (string, error)
}

// InitializeResult reports the outcome of Initialize.
type InitializeResult struct {
	EnvironmentFilePath string
	Created             bool
}

// CleanResult reports the outcome of Clean.
type CleanResult struct {
	Directory string
	Removed   bool
}

// Service manages the credentials directory on disk.
type Service struct {
	resolver DirectoryResolver
	logger   *zap.Logger
}

// NewService constructs a Service.
func NewService(resolver DirectoryResolver, logger *zap.Logger) (*Service, error) {
	if resolver == nil {
		return nil, errors.New(missingDirectoryResolverMessageConstant)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{resolver: resolver, logger: logger}, nil
}

// Initialize creates the directory and writes API_KEY to the dotfile. An existing dotfile is left untouched.
func (service *Service) Initialize(apiKey string) (InitializeResult, error) {
	directory, directoryError := service.resolver.Directory()
	if directoryError != nil {
		return InitializeResult{}, directoryError
	}
	environmentFilePath := filepath.Join(directory, credentials.EnvironmentFileNameConstant)
	result := InitializeResult{EnvironmentFilePath: environmentFilePath}

	if mkdirError := os.MkdirAll(directory, directoryPermissionsConstant); mkdirError != nil {
		return result, failures.New(failures.ErrIO, initializeOperationConstant, mkdirError)
	}

	environmentFile, openError := os.OpenFile(environmentFilePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, environmentFilePermissionsConstant)
	if openError != nil {
		if errors.Is(openError, fs.ErrExist) {
			service.logger.Info(logMessageEnvironmentFileExistsConstant, zap.String(logFieldPathConstant, environmentFilePath))
			return result, nil
		}
		return result, failures.New(failures.ErrIO, initializeOperationConstant, openError)
	}

	trimmedAPIKey := strings.TrimSpace(apiKey)
	_, writeError := fmt.Fprintf(environmentFile, environmentFileTemplateConstant, credentials.APIKeyVariableNameConstant, trimmedAPIKey)
	closeError := environmentFile.Close()
	if writeError != nil {
		return result, failures.New(failures.ErrIO, initializeOperationConstant, writeError)
	}
	if closeError != nil {
		return result, failures.New(failures.ErrIO, initializeOperationConstant, closeError)
	}

	result.Created = true
	service.logger.Info(logMessageEnvironmentFileCreatedConstant,
		zap.String(logFieldPathConstant, environmentFilePath),
		zap.Bool(logFieldAPIKeyProvidedConstant, len(trimmedAPIKey) > 0),
	)
	return result, nil
}

// Clean removes the credentials directory when it exists.
func (service *Service) Clean() (CleanResult, error) {
	directory, directoryError := service.resolver.Directory()
	if directoryError != nil {
		return CleanResult{}, directoryError
	}
	result := CleanResult{Directory: directory}

	if _, statError := os.Stat(directory); statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			service.logger.Info(logMessageDirectoryMissingConstant, zap.String(logFieldPathConstant, directory))
			return result, nil
		}
		return result, failures.New(failures.ErrIO, cleanOperationConstant, statError)
	}

	if removeError := os.RemoveAll(directory); removeError != nil {
		return result, failures.New(failures.ErrIO, cleanOperationConstant, removeError)
	}
	result.Removed = true
	service.logger.Info(logMessageDirectoryRemovedConstant, zap.String(logFieldPathConstant, directory))
	return result, nil
}
