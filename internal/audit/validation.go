package audit

import (
	"fmt"
	"net/mail"
	"net/url"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/multierr"

	"github.com/trustblock/trustblock-cli/internal/failures"
)

const (
	validateAuditDataOperationConstant       = "validate audit data"
	fieldErrorTemplateConstant               = "%s: %s"
	requiredMessageConstant                  = "value required"
	projectNameLengthMessageTemplateConstant = "must be 1 to %d bytes"
	absoluteURLMessageConstant               = "must be an absolute http or https URL"
	emailMessageConstant                     = "must be a valid email address"
	severityCountMessageTemplateConstant     = "must not exceed %d"
	contractsRequiredMessageConstant         = "at least one contract required"
	addressMessageConstant                   = "must be a 20-byte hex address"
	chainMessageTemplateConstant             = "must be one of %s"
	tagMessageConstant                       = "unknown tag"
	httpSchemeConstant                       = "http"
	httpsSchemeConstant                      = "https"
)

// FieldError describes one invalid audit data field.
type FieldError struct {
	Field   string
	Message string
}

// Error describes the invalid field.
func (fieldError FieldError) Error() string {
	return fmt.Sprintf(fieldErrorTemplateConstant, fieldError.Field, fieldError.Message)
}

// Validate checks every field the pipeline relies on and reports all violations at once.
func (data AuditData) Validate() error {
	var violations error

	if len(data.Name) == 0 {
		violations = multierr.Append(violations, FieldError{Field: "name", Message: requiredMessageConstant})
	}

	if len(data.Project.Name) == 0 || len(data.Project.Name) > ProjectNameByteLength {
		violations = multierr.Append(violations, FieldError{Field: "project.name", Message: fmt.Sprintf(projectNameLengthMessageTemplateConstant, ProjectNameByteLength)})
	}

	for _, link := range []struct {
		fieldName string
		value     string
	}{
		{fieldName: "project.links.twitter", value: data.Project.Links.Twitter},
		{fieldName: "project.links.telegram", value: data.Project.Links.Telegram},
		{fieldName: "project.links.github", value: data.Project.Links.GitHub},
		{fieldName: "project.links.website", value: data.Project.Links.Website},
	} {
		if len(link.value) > 0 && !isAbsoluteHTTPURL(link.value) {
			violations = multierr.Append(violations, FieldError{Field: link.fieldName, Message: absoluteURLMessageConstant})
		}
	}

	if len(data.Project.Contact.Email) > 0 {
		if _, parseError := mail.ParseAddress(data.Project.Contact.Email); parseError != nil {
			violations = multierr.Append(violations, FieldError{Field: "project.contact.email", Message: emailMessageConstant})
		}
	}

	violations = multierr.Append(violations, validateSeverityCount("issues.FIXED", data.Issues.Fixed))
	violations = multierr.Append(violations, validateSeverityCount("issues.RISK_ACCEPTED", data.Issues.RiskAccepted))

	if len(data.Contracts) == 0 {
		violations = multierr.Append(violations, FieldError{Field: "contracts", Message: contractsRequiredMessageConstant})
	}
	for contractIndex, contract := range data.Contracts {
		if !contract.Chain.Supported() {
			violations = multierr.Append(violations, FieldError{Field: fmt.Sprintf("contracts[%d].chain", contractIndex), Message: fmt.Sprintf(chainMessageTemplateConstant, describeChains(supportedChains))})
		}
		if !common.IsHexAddress(contract.EVMAddress) {
			violations = multierr.Append(violations, FieldError{Field: fmt.Sprintf("contracts[%d].evmAddress", contractIndex), Message: addressMessageConstant})
		}
	}

	for tagIndex, tag := range data.Tags {
		if !tag.Supported() {
			violations = multierr.Append(violations, FieldError{Field: fmt.Sprintf("tags[%d]", tagIndex), Message: tagMessageConstant})
		}
	}

	if violations != nil {
		return failures.New(failures.ErrInvalidInput, validateAuditDataOperationConstant, violations)
	}
	return nil
}

func validateSeverityCount(fieldPrefix string, count SeverityCount) error {
	var violations error
	for _, tally := range count.bySeverity() {
		if tally.count > MaximumSeverityCount {
			violations = multierr.Append(violations, FieldError{Field: fieldPrefix + "." + string(tally.severity), Message: fmt.Sprintf(severityCountMessageTemplateConstant, MaximumSeverityCount)})
		}
	}
	return violations
}

func isAbsoluteHTTPURL(candidate string) bool {
	parsedURL, parseError := url.Parse(candidate)
	if parseError != nil {
		return false
	}
	return (parsedURL.Scheme == httpSchemeConstant || parsedURL.Scheme == httpsSchemeConstant) && len(parsedURL.Host) > 0
}
