package registry

import (
	"fmt"
	"strings"

	"github.com/trustblock/trustblock-cli/internal/failures"
)

const (
	resolutionModeOperationConstant       = "select project resolution"
	unsupportedResolutionTemplateConstant = "unsupported project resolution %q (expected slug or search)"
)

// ResolutionMode selects the project resolution protocol.
type ResolutionMode string

// Supported resolution modes.
const (
	ResolutionModeSlug   ResolutionMode = "slug"
	ResolutionModeSearch ResolutionMode = "search"
)

// Configuration lists the registry endpoints.
type Configuration struct {
	AuditEndpoint       string
	ProjectEndpoint     string
	ProjectSlugEndpoint string
}

// ParseResolutionMode normalizes a configured resolution mode. Empty input selects slug lookup.
func ParseResolutionMode(value string) (ResolutionMode, error) {
	switch ResolutionMode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ResolutionModeSlug:
		return ResolutionModeSlug, nil
	case ResolutionModeSearch:
		return ResolutionModeSearch, nil
	default:
		return "", failures.New(failures.ErrInvalidInput, resolutionModeOperationConstant, fmt.Errorf(unsupportedResolutionTemplateConstant, value))
	}
}
