package credentials

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/trustblock/trustblock-cli/internal/failures"
	pathutils "github.com/trustblock/trustblock-cli/internal/utils/path"
)

// Dotfile layout and variable names.
const (
	DefaultDirectoryConstant          = "~/.trustblock"
	EnvironmentFileNameConstant       = ".env"
	APIKeyVariableNameConstant        = "API_KEY"
	WalletKeyVariableNameConstant     = "WALLET_KEY"
	environmentConfigTypeConstant     = "env"
	resolveDirectoryOperationConstant = "resolve credentials directory"
	readDotfileOperationConstant      = "read credentials file"
	resolveAPIKeyOperationConstant    = "resolve API key"
	resolveWalletOperationConstant    = "resolve wallet key"
	missingAPIKeyTemplateConstant     = "no API key supplied: pass --api-key, set %s or run init --api-key"
	missingWalletTemplateConstant     = "no wallet key supplied: pass --private-key or set %s"
	readDotfileTemplateConstant       = "%s: %w"
)

// EnvironmentLookup obtains an environment variable value.
type EnvironmentLookup func(key string) (string, bool)

// Store resolves secrets in the order flag override, process environment, dotfile.
type Store struct {
	directory         string
	homeExpander      *pathutils.HomeExpander
	environmentLookup EnvironmentLookup
}

// NewStore constructs a Store rooted at directory, which may start with a tilde.
func NewStore(directory string, homeExpander *pathutils.HomeExpander, environmentLookup EnvironmentLookup) *Store {
	if len(strings.TrimSpace(directory)) == 0 {
		directory = DefaultDirectoryConstant
	}
	if homeExpander == nil {
		homeExpander = pathutils.NewHomeExpander()
	}
	if environmentLookup == nil {
		environmentLookup = os.LookupEnv
	}
	return &Store{directory: directory, homeExpander: homeExpander, environmentLookup: environmentLookup}
}

// Directory returns the absolute credentials directory. A missing home directory is reported as not found.
func (store *Store) Directory() (string, error) {
	resolvedDirectory, expandError := store.homeExpander.ExpandStrict(store.directory)
	if expandError != nil {
		return "", failures.New(failures.ErrNotFound, resolveDirectoryOperationConstant, expandError)
	}
	return resolvedDirectory, nil
}

// EnvironmentFilePath returns the path of the dotfile.
func (store *Store) EnvironmentFilePath() (string, error) {
	resolvedDirectory, directoryError := store.Directory()
	if directoryError != nil {
		return "", directoryError
	}
	return filepath.Join(resolvedDirectory, EnvironmentFileNameConstant), nil
}

// APIKey resolves the registry credential. A missing key is an authorization failure.
func (store *Store) APIKey(override string) (string, error) {
	value, resolveError := store.resolve(override, APIKeyVariableNameConstant)
	if resolveError != nil {
		return "", resolveError
	}
	if len(value) == 0 {
		return "", failures.Newf(failures.ErrAuthFailure, resolveAPIKeyOperationConstant, missingAPIKeyTemplateConstant, APIKeyVariableNameConstant)
	}
	return value, nil
}

// WalletKey resolves the hex encoded signing key used for anchoring.
func (store *Store) WalletKey(override string) (string, error) {
	value, resolveError := store.resolve(override, WalletKeyVariableNameConstant)
	if resolveError != nil {
		return "", resolveError
	}
	if len(value) == 0 {
		return "", failures.Newf(failures.ErrSigningFailure, resolveWalletOperationConstant, missingWalletTemplateConstant, WalletKeyVariableNameConstant)
	}
	return value, nil
}

func (store *Store) resolve(override string, variableName string) (string, error) {
	if trimmedOverride := strings.TrimSpace(override); len(trimmedOverride) > 0 {
		return trimmedOverride, nil
	}
	if environmentValue, found := store.environmentLookup(variableName); found {
		if trimmedValue := strings.TrimSpace(environmentValue); len(trimmedValue) > 0 {
			return trimmedValue, nil
		}
	}

	dotfileValues, readError := store.readDotfile()
	if readError != nil {
		return "", readError
	}
	return strings.TrimSpace(dotfileValues.GetString(strings.ToLower(variableName))), nil
}

func (store *Store) readDotfile() (*viper.Viper, error) {
	dotfileValues := viper.New()

	environmentFilePath, pathError := store.EnvironmentFilePath()
	if pathError != nil {
		return nil, pathError
	}
	if _, statError := os.Stat(environmentFilePath); statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			return dotfileValues, nil
		}
		return nil, failures.New(failures.ErrIO, readDotfileOperationConstant, fmt.Errorf(readDotfileTemplateConstant, environmentFilePath, statError))
	}

	dotfileValues.SetConfigFile(environmentFilePath)
	dotfileValues.SetConfigType(environmentConfigTypeConstant)
	if readError := dotfileValues.ReadInConfig(); readError != nil {
		return nil, failures.New(failures.ErrIO, readDotfileOperationConstant, fmt.Errorf(readDotfileTemplateConstant, environmentFilePath, readError))
	}
	return dotfileValues, nil
}
