package ui

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/trustblock/trustblock-cli/internal/anchor"
	"github.com/trustblock/trustblock-cli/internal/contentstore"
	"github.com/trustblock/trustblock-cli/internal/failures"
)

// Stage identifies a step of the publication pipeline.
type Stage string

// Pipeline stages in execution order.
const (
	StageArtifact Stage = "resolve report"
	StageUpload   Stage = "upload report"
	StageProject  Stage = "resolve project"
	StagePublish  Stage = "publish audit"
	StageAnchor   Stage = "anchor audit"
)

const (
	stageStartedMessageTemplateConstant   = "Running %s"
	stageCompletedMessageTemplateConstant = "Completed %s"
	stageFailedMessageTemplateConstant    = "%s failed: %s"
	uploadProgressMessageTemplateConstant = "[+] Uploading %s. Finished %d%%"
	uploadCompletedMessageConstant        = "Uploading is done"
	chainAnchoredMessageTemplateConstant  = "Anchored %d of %d chains (%s)"
	chainFailedMessageTemplateConstant    = "Anchoring failed on %s (%d of %d chains processed)"
	unknownFailureMessageConstant         = "unknown error"
	failureKindFieldConstant              = "failure_kind"
)

// ProgressFormatter builds human-readable messages for pipeline events.
type ProgressFormatter struct{}

// BuildStageStartedMessage formats the message for a stage about to run.
func (formatter ProgressFormatter) BuildStageStartedMessage(stage Stage) string {
	return fmt.Sprintf(stageStartedMessageTemplateConstant, stage)
}

// BuildStageCompletedMessage formats the message for a finished stage.
func (formatter ProgressFormatter) BuildStageCompletedMessage(stage Stage) string {
	return fmt.Sprintf(stageCompletedMessageTemplateConstant, stage)
}

// BuildStageFailedMessage formats the message for a failed stage.
func (formatter ProgressFormatter) BuildStageFailedMessage(stage Stage, failure error) string {
	failureMessage := unknownFailureMessageConstant
	if failure != nil {
		failureMessage = strings.TrimSpace(failure.Error())
	}
	return fmt.Sprintf(stageFailedMessageTemplateConstant, stage, failureMessage)
}

// BuildUploadMessage formats an upload progress update.
func (formatter ProgressFormatter) BuildUploadMessage(progress contentstore.Progress) string {
	if progress.Done {
		return uploadCompletedMessageConstant
	}
	return fmt.Sprintf(uploadProgressMessageTemplateConstant, progress.Name, progress.Percentage)
}

// BuildChainMessage formats the chain loop progress.
func (formatter ProgressFormatter) BuildChainMessage(progress anchor.ChainProgress) string {
	if progress.Failed {
		return fmt.Sprintf(chainFailedMessageTemplateConstant, progress.Chain, progress.Completed, progress.Total)
	}
	return fmt.Sprintf(chainAnchoredMessageTemplateConstant, progress.Completed, progress.Total, progress.Chain)
}

// ConsoleProgressReporter renders pipeline events using a zap logger configured for human-readable output.
type ConsoleProgressReporter struct {
	logger    *zap.Logger
	formatter ProgressFormatter
}

// NewConsoleProgressReporter constructs a reporter backed by the provided zap logger.
func NewConsoleProgressReporter(logger *zap.Logger) *ConsoleProgressReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleProgressReporter{logger: logger, formatter: ProgressFormatter{}}
}

// StageStarted logs a stage start notification.
func (reporter *ConsoleProgressReporter) StageStarted(stage Stage) {
	if reporter == nil {
		return
	}
	reporter.logger.Info(reporter.formatter.BuildStageStartedMessage(stage))
}

// StageCompleted logs a stage completion notification.
func (reporter *ConsoleProgressReporter) StageCompleted(stage Stage) {
	if reporter == nil {
		return
	}
	reporter.logger.Info(reporter.formatter.BuildStageCompletedMessage(stage))
}

// StageFailed logs a stage failure.
func (reporter *ConsoleProgressReporter) StageFailed(stage Stage, failure error) {
	if reporter == nil {
		return
	}
	var fields []zap.Field
	if failureKind := failures.KindOf(failure); failureKind != nil {
		fields = append(fields, zap.String(failureKindFieldConstant, failureKind.Error()))
	}
	reporter.logger.Error(reporter.formatter.BuildStageFailedMessage(stage, failure), fields...)
}

// UploadProgressed logs an upload progress update. It matches contentstore.ProgressFunc.
func (reporter *ConsoleProgressReporter) UploadProgressed(progress contentstore.Progress) {
	if reporter == nil {
		return
	}
	reporter.logger.Info(reporter.formatter.BuildUploadMessage(progress))
}

// ChainProgressed logs chain loop progress. It matches anchor.ChainProgressFunc.
func (reporter *ConsoleProgressReporter) ChainProgressed(progress anchor.ChainProgress) {
	if reporter == nil {
		return
	}
	if progress.Failed {
		reporter.logger.Warn(reporter.formatter.BuildChainMessage(progress))
		return
	}
	reporter.logger.Info(reporter.formatter.BuildChainMessage(progress))
}
