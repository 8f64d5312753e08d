package publishing

import (
	"context"
	"crypto/ecdsa"
	"errors"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/trustblock/trustblock-cli/internal/anchor"
	"github.com/trustblock/trustblock-cli/internal/artifact"
	"github.com/trustblock/trustblock-cli/internal/audit"
	"github.com/trustblock/trustblock-cli/internal/contentstore"
	"github.com/trustblock/trustblock-cli/internal/failures"
	"github.com/trustblock/trustblock-cli/internal/registry"
	"github.com/trustblock/trustblock-cli/internal/ui"
)

const (
	runOperationConstant               = "publish audit"
	missingAuditPathMessageConstant    = "audit data path is required"
	missingSigningKeyMessageConstant   = "a signing key is required to anchor the audit"
	missingDependencyTemplateConstant  = "%s is not configured"
	logMessageRunStartedConstant       = "publication started"
	logMessageRunFinishedConstant      = "publication finished"
	logMessageCleanupFailedConstant    = "rendered report cleanup failed"
	logFieldAuditPathConstant          = "audit_data"
	logFieldReportPathConstant         = "report_pdf"
	logFieldReportURLConstant          = "report_url"
	logFieldAnchorConstant             = "anchor"
	logFieldProjectIdentifierConstant  = "project_id"
	logFieldOutcomeConstant            = "outcome"
	dependencyArtifactResolverConstant = "artifact resolver"
	dependencyUploaderConstant         = "uploader"
	dependencyProjectResolverConstant  = "project resolver"
	dependencyPublisherConstant        = "publisher"
	dependencyAnchorerConstant         = "anchorer"
	logFieldReportHashConstant         = "report_hash"
)

// AuditLoader reads audit data from disk.
type AuditLoader func(path string) (audit.AuditData, error)

// ArtifactResolver produces the validated report file.
type ArtifactResolver interface {
	Resolve(executionContext context.Context, source artifact.Source, credential string) (artifact.Artifact, error)
}

// Uploader stores the report and returns its content identifier.
type Uploader interface {
	Upload(executionContext context.Context, reportArtifact artifact.Artifact, credential string) (contentstore.UploadResult, error)
}

// AuditPublisher submits the audit to the registry.
type AuditPublisher interface {
	Publish(executionContext context.Context, data audit.AuditData, projectID string, reportHash string, reportFileURL string, credential string) (registry.PublishResult, error)
}

// Anchorer records the published audit on chain.
type Anchorer interface {
	Anchor(executionContext context.Context, publishedAudit audit.PublishedAudit, projectName string, reportHash string, signingKey *ecdsa.PrivateKey, credential string) (anchor.Report, error)
}

// ProgressReporter receives stage notifications.
type ProgressReporter interface {
	StageStarted(stage ui.Stage)
	StageCompleted(stage ui.Stage)
	StageFailed(stage ui.Stage, failure error)
}

// Dependencies wires the pipeline collaborators.
type Dependencies struct {
	LoadAuditData    AuditLoader
	ArtifactResolver ArtifactResolver
	Uploader         Uploader
	ProjectResolver  registry.ProjectResolver
	Publisher        AuditPublisher
	Anchorer         Anchorer
	Reporter         ProgressReporter
}

// Options describes one publication run.
type Options struct {
	AuditDataPath string
	ReportPath    string
	ReportURL     string
	Credential    string
	// SigningKey is required when Anchor is set.
	SigningKey *ecdsa.PrivateKey
	Anchor     bool
}

// Result summarizes a completed run.
type Result struct {
	ProjectID string
	Upload    contentstore.UploadResult
	Publish   registry.PublishResult
	Anchor    anchor.Report
	Anchored  bool
}

// Service executes the publication pipeline.
type Service struct {
	dependencies Dependencies
	logger       *zap.Logger
}

// NewService validates the dependencies and constructs a Service.
func NewService(dependencies Dependencies, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dependencies.LoadAuditData == nil {
		dependencies.LoadAuditData = audit.LoadAuditData
	}
	if dependencies.Reporter == nil {
		dependencies.Reporter = ui.NewConsoleProgressReporter(nil)
	}

	required := []struct {
		name    string
		missing bool
	}{
		{name: dependencyArtifactResolverConstant, missing: dependencies.ArtifactResolver == nil},
		{name: dependencyUploaderConstant, missing: dependencies.Uploader == nil},
		{name: dependencyProjectResolverConstant, missing: dependencies.ProjectResolver == nil},
		{name: dependencyPublisherConstant, missing: dependencies.Publisher == nil},
	}
	for _, dependency := range required {
		if dependency.missing {
			return nil, failures.Newf(failures.ErrInvalidInput, runOperationConstant, missingDependencyTemplateConstant, dependency.name)
		}
	}

	return &Service{dependencies: dependencies, logger: logger}, nil
}

// Run loads and validates the audit, then resolves the report, uploads it,
// resolves the project, publishes the audit and optionally anchors it. The
// first failing step ends the run; completed side effects are not undone.
func (service *Service) Run(executionContext context.Context, options Options) (Result, error) {
	if len(options.AuditDataPath) == 0 {
		return Result{}, failures.Newf(failures.ErrInvalidInput, runOperationConstant, missingAuditPathMessageConstant)
	}
	if options.Anchor && options.SigningKey == nil {
		return Result{}, failures.Newf(failures.ErrSigningFailure, runOperationConstant, missingSigningKeyMessageConstant)
	}
	if options.Anchor && service.dependencies.Anchorer == nil {
		return Result{}, failures.Newf(failures.ErrInvalidInput, runOperationConstant, missingDependencyTemplateConstant, dependencyAnchorerConstant)
	}
	source := artifact.Source{Path: options.ReportPath, URL: options.ReportURL}
	if sourceError := source.Validate(); sourceError != nil {
		return Result{}, sourceError
	}

	service.logger.Info(logMessageRunStartedConstant,
		zap.String(logFieldAuditPathConstant, options.AuditDataPath),
		zap.String(logFieldReportPathConstant, options.ReportPath),
		zap.String(logFieldReportURLConstant, options.ReportURL),
		zap.Bool(logFieldAnchorConstant, options.Anchor),
	)

	auditData, loadError := service.dependencies.LoadAuditData(options.AuditDataPath)
	if loadError != nil {
		return Result{}, loadError
	}
	if validationError := auditData.Validate(); validationError != nil {
		return Result{}, validationError
	}

	var result Result
	var cleanupError error
	reporter := service.dependencies.Reporter

	var resolvedArtifact artifact.Artifact
	if stageError := service.runStage(ui.StageArtifact, func() error {
		var resolveError error
		resolvedArtifact, resolveError = service.dependencies.ArtifactResolver.Resolve(executionContext, source, options.Credential)
		return resolveError
	}); stageError != nil {
		return result, stageError
	}

	reporter.StageStarted(ui.StageUpload)
	uploadResult, uploadError := service.dependencies.Uploader.Upload(executionContext, resolvedArtifact, options.Credential)
	switch {
	case uploadError == nil:
	case len(uploadResult.ContentIdentifier) > 0 && errors.Is(uploadError, failures.ErrIO):
		cleanupError = uploadError
		service.logger.Warn(logMessageCleanupFailedConstant, zap.Error(uploadError))
	default:
		reporter.StageFailed(ui.StageUpload, uploadError)
		return result, uploadError
	}
	reporter.StageCompleted(ui.StageUpload)
	result.Upload = uploadResult

	if stageError := service.runStage(ui.StageProject, func() error {
		var resolveError error
		result.ProjectID, resolveError = service.dependencies.ProjectResolver.Resolve(executionContext, auditData.Project, options.Credential)
		return resolveError
	}); stageError != nil {
		return result, multierr.Append(stageError, cleanupError)
	}

	if stageError := service.runStage(ui.StagePublish, func() error {
		var publishError error
		result.Publish, publishError = service.dependencies.Publisher.Publish(executionContext, auditData, result.ProjectID, uploadResult.ContentIdentifier, uploadResult.URL, options.Credential)
		return publishError
	}); stageError != nil {
		return result, multierr.Append(stageError, cleanupError)
	}

	if options.Anchor {
		anchorError := service.runStage(ui.StageAnchor, func() error {
			var stepError error
			result.Anchor, stepError = service.dependencies.Anchorer.Anchor(executionContext, result.Publish.Audit, auditData.Project.Name, uploadResult.ContentIdentifier, options.SigningKey, options.Credential)
			return stepError
		})
		result.Anchored = anchorError == nil
		if anchorError != nil {
			return result, multierr.Append(anchorError, cleanupError)
		}
	}

	service.logger.Info(logMessageRunFinishedConstant,
		zap.String(logFieldProjectIdentifierConstant, result.ProjectID),
		zap.String(logFieldReportHashConstant, uploadResult.ContentIdentifier),
		zap.String(logFieldOutcomeConstant, string(result.Publish.Outcome)),
	)
	return result, cleanupError
}

func (service *Service) runStage(stage ui.Stage, step func() error) error {
	service.dependencies.Reporter.StageStarted(stage)
	if stepError := step(); stepError != nil {
		service.dependencies.Reporter.StageFailed(stage, stepError)
		return stepError
	}
	service.dependencies.Reporter.StageCompleted(stage)
	return nil
}
