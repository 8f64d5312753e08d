package workspace

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	initCommandUseConstant                 = "init"
	initCommandShortDescriptionConstant    = "Initialize the credentials directory"
	initCommandLongDescriptionConstant     = "init creates the credentials directory and an .env file holding API_KEY. An existing .env file is never overwritten."
	cleanCommandUseConstant                = "clean"
	cleanCommandShortDescriptionConstant   = "Remove the credentials directory"
	cleanCommandLongDescriptionConstant    = "clean deletes the credentials directory together with the stored API and wallet keys."
	flagAPIKeyNameConstant                 = "api-key"
	flagAPIKeyShorthandConstant            = "a"
	flagAPIKeyDescriptionConstant          = "Registry API key written to the .env file"
	environmentFileCreatedTemplateConstant = "Created .env file at %q\n"
	environmentFileExistsTemplateConstant  = ".env file already exists at %q\n"
	directoryRemovedTemplateConstant       = "Removed credentials directory %q\n"
	directoryMissingTemplateConstant       = "No credentials directory found at %q\n"
	initExecutionErrorTemplateConstant     = "init failed: %w"
	cleanExecutionErrorTemplateConstant    = "clean failed: %w"
	missingResolverProviderMessageConstant = "credentials directory provider not configured"
)

var errMissingResolverProvider = errors.New(missingResolverProviderMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// DirectoryResolverProvider supplies the resolver for the configured credentials directory.
type DirectoryResolverProvider func() DirectoryResolver

// InitCommandBuilder assembles the init command.
type InitCommandBuilder struct {
	LoggerProvider            LoggerProvider
	DirectoryResolverProvider DirectoryResolverProvider
}

// Build constructs the init command.
func (builder *InitCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   initCommandUseConstant,
		Short: initCommandShortDescriptionConstant,
		Long:  initCommandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}
	command.Flags().StringP(flagAPIKeyNameConstant, flagAPIKeyShorthandConstant, "", flagAPIKeyDescriptionConstant)
	return command, nil
}

func (builder *InitCommandBuilder) run(command *cobra.Command, arguments []string) error {
	service, serviceError := newServiceFromProviders(builder.DirectoryResolverProvider, builder.LoggerProvider)
	if serviceError != nil {
		return serviceError
	}

	apiKeyValue, _ := command.Flags().GetString(flagAPIKeyNameConstant)
	result, initializeError := service.Initialize(apiKeyValue)
	if initializeError != nil {
		return fmt.Errorf(initExecutionErrorTemplateConstant, initializeError)
	}

	if result.Created {
		fmt.Fprintf(command.OutOrStdout(), environmentFileCreatedTemplateConstant, result.EnvironmentFilePath)
	} else {
		fmt.Fprintf(command.OutOrStdout(), environmentFileExistsTemplateConstant, result.EnvironmentFilePath)
	}
	return nil
}

// CleanCommandBuilder assembles the clean command.
type CleanCommandBuilder struct {
	LoggerProvider            LoggerProvider
	DirectoryResolverProvider DirectoryResolverProvider
}

// Build constructs the clean command.
func (builder *CleanCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   cleanCommandUseConstant,
		Short: cleanCommandShortDescriptionConstant,
		Long:  cleanCommandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}, nil
}

func (builder *CleanCommandBuilder) run(command *cobra.Command, arguments []string) error {
	service, serviceError := newServiceFromProviders(builder.DirectoryResolverProvider, builder.LoggerProvider)
	if serviceError != nil {
		return serviceError
	}

	result, cleanError := service.Clean()
	if cleanError != nil {
		return fmt.Errorf(cleanExecutionErrorTemplateConstant, cleanError)
	}

	if result.Removed {
		fmt.Fprintf(command.OutOrStdout(), directoryRemovedTemplateConstant, result.Directory)
	} else {
		fmt.Fprintf(command.OutOrStdout(), directoryMissingTemplateConstant, result.Directory)
	}
	return nil
}

func newServiceFromProviders(resolverProvider DirectoryResolverProvider, loggerProvider LoggerProvider) (*Service, error) {
	if resolverProvider == nil {
		return nil, errMissingResolverProvider
	}
	return NewService(resolverProvider(), resolveLogger(loggerProvider))
}

func resolveLogger(loggerProvider LoggerProvider) *zap.Logger {
	if loggerProvider == nil {
		return zap.NewNop()
	}
	logger := loggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
