package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/trustblock/trustblock-cli/internal/failures"
)

const (
	resolveOperationConstant           = "resolve report artifact"
	renderedFileNameConstant           = "report.pdf"
	createScratchTemplateConstant      = "create scratch directory: %w"
	createRenderedFileTemplateConstant = "create %s: %w"
	closeRenderedFileTemplateConstant  = "close %s: %w"
	logMessageRenderingReportConstant  = "rendering report"
	logMessageReportResolvedConstant   = "report resolved"
	logFieldReportURLConstant          = "report_url"
	logFieldReportPathConstant         = "report_path"
	logFieldRenderedConstant           = "rendered"
)

// DirectoryCreator creates a scratch directory.
type DirectoryCreator func(directory string, pattern string) (string, error)

// Resolver produces a validated report artifact from a Source.
type Resolver struct {
	renderer        Renderer
	validator       Validator
	logger          *zap.Logger
	createDirectory DirectoryCreator
}

// NewResolver constructs a Resolver.
func NewResolver(renderer Renderer, validator Validator, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{renderer: renderer, validator: validator, logger: logger, createDirectory: os.MkdirTemp}
}

// Resolve validates a local report or renders and validates a remote one.
// A rendered report whose validation fails is removed before returning.
func (resolver *Resolver) Resolve(executionContext context.Context, source Source, credential string) (Artifact, error) {
	if sourceError := source.Validate(); sourceError != nil {
		return Artifact{}, sourceError
	}

	if len(source.Path) > 0 {
		if validationError := resolver.validator.Validate(source.Path); validationError != nil {
			return Artifact{}, validationError
		}
		resolver.logger.Debug(logMessageReportResolvedConstant, zap.String(logFieldReportPathConstant, source.Path), zap.Bool(logFieldRenderedConstant, false))
		return Artifact{Path: source.Path}, nil
	}

	resolver.logger.Info(logMessageRenderingReportConstant, zap.String(logFieldReportURLConstant, source.URL))

	scratchDirectory, createError := resolver.createDirectory("", scratchDirectoryPatternConstant)
	if createError != nil {
		return Artifact{}, failures.New(failures.ErrIO, resolveOperationConstant, fmt.Errorf(createScratchTemplateConstant, createError))
	}

	renderedPath := filepath.Join(scratchDirectory, renderedFileNameConstant)
	if renderError := resolver.renderInto(executionContext, source.URL, credential, renderedPath); renderError != nil {
		_ = os.RemoveAll(scratchDirectory)
		return Artifact{}, renderError
	}

	if validationError := resolver.validator.Validate(renderedPath); validationError != nil {
		_ = os.RemoveAll(scratchDirectory)
		return Artifact{}, validationError
	}

	resolver.logger.Debug(logMessageReportResolvedConstant, zap.String(logFieldReportPathConstant, renderedPath), zap.Bool(logFieldRenderedConstant, true))
	return Artifact{Path: renderedPath, Rendered: true, ScratchDirectory: scratchDirectory}, nil
}

func (resolver *Resolver) renderInto(executionContext context.Context, reportURL string, credential string, renderedPath string) error {
	renderedFile, createError := os.Create(renderedPath)
	if createError != nil {
		return failures.New(failures.ErrIO, resolveOperationConstant, fmt.Errorf(createRenderedFileTemplateConstant, renderedPath, createError))
	}

	renderError := resolver.renderer.Render(executionContext, reportURL, credential, renderedFile)
	closeError := renderedFile.Close()
	if renderError != nil {
		return renderError
	}
	if closeError != nil {
		return failures.New(failures.ErrIO, resolveOperationConstant, fmt.Errorf(closeRenderedFileTemplateConstant, renderedPath, closeError))
	}
	return nil
}
