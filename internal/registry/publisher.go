package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/trustblock/trustblock-cli/internal/audit"
	"github.com/trustblock/trustblock-cli/internal/transport"
)

const (
	publishOperationConstant            = "publish audit"
	duplicateReportMessageConstant      = "Report hash is not a unique value."
	duplicateProjectMessageConstant     = "Project domain is not a unique value."
	logMessageAuditPublishedConstant    = "audit published"
	logMessageAuditAlreadyKnownConstant = "audit already published"
	logMessageProjectKnownConstant      = "project domain already registered"
	logFieldReportHashConstant          = "report_hash"
	logFieldOutcomeConstant             = "outcome"
)

// PublishOutcome classifies a successful publish response.
type PublishOutcome string

// Publish outcomes.
const (
	PublishOutcomeCreated              PublishOutcome = "created"
	PublishOutcomeAlreadyPublished     PublishOutcome = "already_published"
	PublishOutcomeProjectAlreadyExists PublishOutcome = "project_already_exists"
)

// PublishResult carries the submitted record and how the registry treated it.
type PublishResult struct {
	Audit   audit.PublishedAudit
	Outcome PublishOutcome
}

// Publisher submits audits to the registry.
type Publisher struct {
	client   HTTPClient
	endpoint string
	logger   *zap.Logger
}

// NewPublisher constructs a Publisher posting to the audit endpoint.
func NewPublisher(client HTTPClient, configuration Configuration, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{client: client, endpoint: configuration.AuditEndpoint, logger: logger}
}

type registryErrorResponse struct {
	Error string `json:"error"`
}

// Publish builds the outbound record and POSTs it. 201 is success. A 400 naming a duplicate
// report hash or project domain is an idempotent success. Every other response fails with its body.
func (publisher *Publisher) Publish(executionContext context.Context, data audit.AuditData, projectID string, reportHash string, reportFileURL string, credential string) (PublishResult, error) {
	publishedAudit := audit.NewPublishedAudit(data, projectID, reportHash, reportFileURL)

	response, requestError := publisher.client.Do(executionContext, transport.Request{
		Operation:  publishOperationConstant,
		Method:     http.MethodPost,
		Endpoint:   publisher.endpoint,
		Credential: credential,
		JSONBody:   publishedAudit,
	})
	if requestError != nil {
		return PublishResult{}, requestError
	}

	switch response.StatusCode {
	case http.StatusCreated:
		publisher.logger.Info(logMessageAuditPublishedConstant, zap.String(logFieldReportHashConstant, reportHash))
		return PublishResult{Audit: publishedAudit, Outcome: PublishOutcomeCreated}, nil
	case http.StatusBadRequest:
		if outcome, duplicate := classifyDuplicate(response.Body); duplicate {
			publisher.logDuplicate(outcome, reportHash)
			return PublishResult{Audit: publishedAudit, Outcome: outcome}, nil
		}
	}

	return PublishResult{}, transport.NewStatusError(publishOperationConstant, publisher.endpoint, response.StatusCode, response.Body)
}

func (publisher *Publisher) logDuplicate(outcome PublishOutcome, reportHash string) {
	message := logMessageAuditAlreadyKnownConstant
	if outcome == PublishOutcomeProjectAlreadyExists {
		message = logMessageProjectKnownConstant
	}
	publisher.logger.Info(message, zap.String(logFieldReportHashConstant, reportHash), zap.String(logFieldOutcomeConstant, string(outcome)))
}

func classifyDuplicate(body []byte) (PublishOutcome, bool) {
	decoded := registryErrorResponse{}
	if json.Unmarshal(body, &decoded) != nil {
		return "", false
	}
	switch strings.TrimSpace(decoded.Error) {
	case duplicateReportMessageConstant:
		return PublishOutcomeAlreadyPublished, true
	case duplicateProjectMessageConstant:
		return PublishOutcomeProjectAlreadyExists, true
	default:
		return "", false
	}
}
