package publishing

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/trustblock/trustblock-cli/internal/anchor"
)

const (
	commandUseConstant                     = "publish-audit"
	commandShortDescriptionConstant        = "Publish an audit to Trustblock"
	commandLongDescriptionConstant         = "publish-audit uploads the audit report, registers the audit with the Trustblock registry and, with --publish-sc, anchors it on every chain its contracts are deployed to."
	commandExecutionErrorTemplateConstant  = "publish-audit failed: %w"
	flagAuditDataNameConstant              = "audit-data"
	flagAuditDataShorthandConstant         = "a"
	flagAuditDataDescriptionConstant       = "Path to the audit data file (JSON or YAML)"
	flagReportPDFNameConstant              = "report-pdf"
	flagReportPDFDescriptionConstant       = "Path to the audit report PDF"
	flagReportURLNameConstant              = "report-url"
	flagReportURLDescriptionConstant       = "URL of a hosted audit report rendered to PDF before upload"
	flagAPIKeyNameConstant                 = "api-key"
	flagAPIKeyDescriptionConstant          = "Trustblock API key (defaults to API_KEY from the environment or .env)"
	flagPrivateKeyNameConstant             = "private-key"
	flagPrivateKeyDescriptionConstant      = "Hex encoded wallet key used to sign anchoring requests (defaults to WALLET_KEY)"
	flagPublishSCNameConstant              = "publish-sc"
	flagPublishSCDescriptionConstant       = "Also anchor the audit on chain through the forwarder relay"
	missingCredentialSourceMessageConstant = "credential source not configured"
	publishedSummaryTemplateConstant       = "Audit published (%s): %s\n"
	reportHashSummaryTemplateConstant      = "Report hash: %s\n"
	projectSummaryTemplateConstant         = "Project: %s\n"
	anchoredSummaryTemplateConstant        = "Anchored on %d chain(s)\n"
)

var errMissingCredentialSource = errors.New(missingCredentialSourceMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the publishing configuration.
type ConfigurationProvider func() Configuration

// CredentialSource resolves the API key and wallet key.
type CredentialSource interface {
	APIKey(override string) (string, error)
	WalletKey(override string) (string, error)
}

// CredentialSourceProvider supplies the credential source.
type CredentialSourceProvider func() CredentialSource

// CommandBuilder assembles the publish-audit command.
type CommandBuilder struct {
	LoggerProvider           LoggerProvider
	ConfigurationProvider    ConfigurationProvider
	CredentialSourceProvider CredentialSourceProvider
	DependenciesFactory      DependenciesFactory
}

// Build constructs the publish-audit command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}

	flags := command.Flags()
	flags.StringP(flagAuditDataNameConstant, flagAuditDataShorthandConstant, "", flagAuditDataDescriptionConstant)
	flags.String(flagReportPDFNameConstant, "", flagReportPDFDescriptionConstant)
	flags.String(flagReportURLNameConstant, "", flagReportURLDescriptionConstant)
	flags.String(flagAPIKeyNameConstant, "", flagAPIKeyDescriptionConstant)
	flags.String(flagPrivateKeyNameConstant, "", flagPrivateKeyDescriptionConstant)
	flags.Bool(flagPublishSCNameConstant, false, flagPublishSCDescriptionConstant)

	if requiredError := command.MarkFlagRequired(flagAuditDataNameConstant); requiredError != nil {
		return nil, requiredError
	}
	command.MarkFlagsMutuallyExclusive(flagReportPDFNameConstant, flagReportURLNameConstant)
	command.MarkFlagsOneRequired(flagReportPDFNameConstant, flagReportURLNameConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	logger := builder.resolveLogger()

	options, optionsError := builder.parseOptions(command)
	if optionsError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, optionsError)
	}

	factory := builder.DependenciesFactory
	if factory == nil {
		factory = NewDependencies
	}
	dependencies, dependenciesError := factory(builder.resolveConfiguration(), logger)
	if dependenciesError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, dependenciesError)
	}

	service, serviceError := NewService(dependencies, logger)
	if serviceError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, serviceError)
	}

	result, runError := service.Run(command.Context(), options)
	if len(result.Publish.Audit.ReportHash) > 0 {
		builder.printSummary(command, result)
	}
	if runError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, runError)
	}
	return nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) (Options, error) {
	if builder.CredentialSourceProvider == nil {
		return Options{}, errMissingCredentialSource
	}
	credentialSource := builder.CredentialSourceProvider()
	if credentialSource == nil {
		return Options{}, errMissingCredentialSource
	}

	flags := command.Flags()
	auditDataPath, _ := flags.GetString(flagAuditDataNameConstant)
	reportPath, _ := flags.GetString(flagReportPDFNameConstant)
	reportURL, _ := flags.GetString(flagReportURLNameConstant)
	apiKeyOverride, _ := flags.GetString(flagAPIKeyNameConstant)
	privateKeyOverride, _ := flags.GetString(flagPrivateKeyNameConstant)
	publishOnChain, _ := flags.GetBool(flagPublishSCNameConstant)

	credential, credentialError := credentialSource.APIKey(apiKeyOverride)
	if credentialError != nil {
		return Options{}, credentialError
	}

	var signingKey *ecdsa.PrivateKey
	if publishOnChain {
		walletKey, walletError := credentialSource.WalletKey(privateKeyOverride)
		if walletError != nil {
			return Options{}, walletError
		}
		parsedKey, parseError := anchor.ParseSigningKey(walletKey)
		if parseError != nil {
			return Options{}, parseError
		}
		signingKey = parsedKey
	}

	return Options{
		AuditDataPath: strings.TrimSpace(auditDataPath),
		ReportPath:    strings.TrimSpace(reportPath),
		ReportURL:     strings.TrimSpace(reportURL),
		Credential:    credential,
		SigningKey:    signingKey,
		Anchor:        publishOnChain,
	}, nil
}

func (builder *CommandBuilder) printSummary(command *cobra.Command, result Result) {
	output := command.OutOrStdout()
	fmt.Fprintf(output, publishedSummaryTemplateConstant, result.Publish.Outcome, result.Publish.Audit.ReportFileURL)
	fmt.Fprintf(output, reportHashSummaryTemplateConstant, result.Publish.Audit.ReportHash)
	fmt.Fprintf(output, projectSummaryTemplateConstant, result.ProjectID)
	if result.Anchored {
		fmt.Fprintf(output, anchoredSummaryTemplateConstant, len(result.Anchor.Results))
	}
}

func (builder *CommandBuilder) resolveConfiguration() Configuration {
	if builder.ConfigurationProvider == nil {
		return Configuration{}
	}
	return builder.ConfigurationProvider()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}

	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}

	return logger
}
