package anchor

import (
	"context"
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/trustblock/trustblock-cli/internal/transport"
)

const submitOperationConstant = "submit forward request"

// WebhookRequest is the relay payload for one signed ForwardRequest.
type WebhookRequest struct {
	Request         ForwardRequest `json:"request"`
	DomainSeparator hexutil.Bytes  `json:"domainSeparator"`
	RequestTypeHash hexutil.Bytes  `json:"requestTypeHash"`
	SuffixData      hexutil.Bytes  `json:"suffixData"`
	Signature       hexutil.Bytes  `json:"signature"`
	Chain           string         `json:"chain"`
}

// NewWebhookRequest wraps a signed request with empty suffix data and the relay network label.
func NewWebhookRequest(signed SignedForwardRequest, networkLabel string) WebhookRequest {
	return WebhookRequest{
		Request:         signed.Request,
		DomainSeparator: signed.DomainSeparator,
		RequestTypeHash: signed.RequestTypeHash,
		SuffixData:      hexutil.Bytes{},
		Signature:       signed.Signature,
		Chain:           networkLabel,
	}
}

// Submitter delivers webhook requests to the relay.
type Submitter interface {
	Submit(executionContext context.Context, request WebhookRequest, credential string) error
}

// HTTPClient is the subset of transport.Client used by the relayer.
type HTTPClient interface {
	Do(executionContext context.Context, request transport.Request) (transport.Response, error)
}

// Relayer posts webhook requests to the forwarder endpoint.
type Relayer struct {
	client   HTTPClient
	endpoint string
}

// NewRelayer constructs a Relayer.
func NewRelayer(client HTTPClient, endpoint string) *Relayer {
	return &Relayer{client: client, endpoint: endpoint}
}

// Submit POSTs the request with the credential header. Any non-2xx status fails with the response body.
func (relayer *Relayer) Submit(executionContext context.Context, request WebhookRequest, credential string) error {
	response, requestError := relayer.client.Do(executionContext, transport.Request{
		Operation:  submitOperationConstant,
		Method:     http.MethodPost,
		Endpoint:   relayer.endpoint,
		Credential: credential,
		JSONBody:   request,
	})
	if requestError != nil {
		return requestError
	}
	if !response.Succeeded() {
		return transport.NewStatusError(submitOperationConstant, relayer.endpoint, response.StatusCode, response.Body)
	}
	return nil
}
