package artifact

import (
	"errors"
	"strings"

	"github.com/trustblock/trustblock-cli/internal/failures"
)

const (
	scratchDirectoryPatternConstant = "trustblock-report-*"
	sourceOperationConstant         = "resolve report source"
	sourceMissingMessageConstant    = "either a report path or a report URL is required"
	sourceAmbiguousMessageConstant  = "report path and report URL are mutually exclusive"
)

var (
	// ErrSourceMissing indicates neither a path nor a URL was supplied.
	ErrSourceMissing = errors.New(sourceMissingMessageConstant)
	// ErrSourceAmbiguous indicates both a path and a URL were supplied.
	ErrSourceAmbiguous = errors.New(sourceAmbiguousMessageConstant)
)

// Source identifies the report. Exactly one field must be set.
type Source struct {
	Path string
	URL  string
}

// Validate enforces that exactly one of Path and URL is present.
func (source Source) Validate() error {
	hasPath := len(strings.TrimSpace(source.Path)) > 0
	hasURL := len(strings.TrimSpace(source.URL)) > 0
	switch {
	case hasPath && hasURL:
		return failures.New(failures.ErrInvalidInput, sourceOperationConstant, ErrSourceAmbiguous)
	case !hasPath && !hasURL:
		return failures.New(failures.ErrInvalidInput, sourceOperationConstant, ErrSourceMissing)
	default:
		return nil
	}
}

// Artifact is a validated report file.
type Artifact struct {
	Path string
	// Rendered is true when the resolver produced the file from a report URL.
	Rendered bool
	// ScratchDirectory is the directory the resolver created for a rendered
	// report. It is owned by the pipeline and removed after upload; it is
	// empty for user-supplied files.
	ScratchDirectory string
}
