package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/trustblock/trustblock-cli/internal/failures"
	"github.com/trustblock/trustblock-cli/internal/utils"
)

const (
	// CredentialHeaderName carries the registry API key.
	CredentialHeaderName = "x-trustblock-api-key"
	// RequestIdentifierHeaderName carries the per-run correlation identifier.
	RequestIdentifierHeaderName = "x-request-id"

	contentTypeHeaderNameConstant            = "Content-Type"
	acceptHeaderNameConstant                 = "Accept"
	jsonContentTypeConstant                  = "application/json"
	defaultTimeoutConstant                   = 60 * time.Second
	requestBuildErrorTemplateConstant        = "build request for %s: %w"
	requestEncodeErrorTemplateConstant       = "encode request body: %w"
	requestSendErrorTemplateConstant         = "send request to %s: %w"
	responseReadErrorTemplateConstant        = "read response from %s: %w"
	responseDecodeErrorTemplateConstant      = "decode response from %s: %w"
	endpointParseErrorTemplateConstant       = "parse endpoint %q: %w"
	streamCopyErrorTemplateConstant          = "stream response from %s: %w"
	logMessageRequestStartedConstant         = "http request started"
	logMessageRequestCompletedConstant       = "http request completed"
	logFieldOperationConstant                = "operation"
	logFieldMethodConstant                   = "method"
	logFieldEndpointConstant                 = "endpoint"
	logFieldStatusConstant                   = "status"
	logFieldRequestIdentifierConstant        = "request_id"
	logFieldElapsedConstant                  = "elapsed"
	successStatusLowerBoundConstant          = 200
	successStatusUpperBoundExclusiveConstant = 300
)

// Request describes a single HTTP exchange.
type Request struct {
	Operation  string
	Method     string
	Endpoint   string
	Query      url.Values
	Credential string
	Headers    map[string]string
	JSONBody   any
	Body       io.Reader
	// BodySize is sent as Content-Length when positive; otherwise the body is chunked.
	BodySize int64
}

// Response captures the status, headers and body of a completed exchange.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Succeeded reports whether the status is in the 2xx range.
func (response Response) Succeeded() bool {
	return isSuccessStatus(response.StatusCode)
}

// DecodeJSON unmarshals the response body into target.
func (response Response) DecodeJSON(endpoint string, target any) error {
	if decodeError := json.Unmarshal(response.Body, target); decodeError != nil {
		return fmt.Errorf(responseDecodeErrorTemplateConstant, endpoint, decodeError)
	}
	return nil
}

// Client performs credentialed HTTP exchanges.
type Client struct {
	httpClient      *http.Client
	logger          *zap.Logger
	contextAccessor utils.CommandContextAccessor
}

// NewClient constructs a Client. A nil httpClient gets a client with the default timeout.
func NewClient(httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeoutConstant}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{httpClient: httpClient, logger: logger, contextAccessor: utils.NewCommandContextAccessor()}
}

// Do executes the request and returns the buffered response for any HTTP status.
// Only transport level failures are returned as errors.
func (client *Client) Do(executionContext context.Context, request Request) (Response, error) {
	httpResponse, sendError := client.send(executionContext, request)
	if sendError != nil {
		return Response{}, sendError
	}
	defer httpResponse.Body.Close()

	responseBody, readError := io.ReadAll(httpResponse.Body)
	if readError != nil {
		return Response{}, failures.New(failures.ErrUpstreamFailure, request.Operation, fmt.Errorf(responseReadErrorTemplateConstant, request.Endpoint, readError))
	}

	return Response{StatusCode: httpResponse.StatusCode, Header: httpResponse.Header, Body: responseBody}, nil
}

// Stream executes the request and copies a successful body into sink.
// A non-success status is returned as a StatusError.
func (client *Client) Stream(executionContext context.Context, request Request, sink io.Writer) (int64, error) {
	httpResponse, sendError := client.send(executionContext, request)
	if sendError != nil {
		return 0, sendError
	}
	defer httpResponse.Body.Close()

	if !isSuccessStatus(httpResponse.StatusCode) {
		responseBody, _ := io.ReadAll(httpResponse.Body)
		return 0, NewStatusError(request.Operation, request.Endpoint, httpResponse.StatusCode, responseBody)
	}

	copiedBytes, copyError := io.Copy(sink, httpResponse.Body)
	if copyError != nil {
		return copiedBytes, failures.New(failures.ErrIO, request.Operation, fmt.Errorf(streamCopyErrorTemplateConstant, request.Endpoint, copyError))
	}
	return copiedBytes, nil
}

func (client *Client) send(executionContext context.Context, request Request) (*http.Response, error) {
	if executionContext == nil {
		executionContext = context.Background()
	}

	httpRequest, buildError := client.buildRequest(executionContext, request)
	if buildError != nil {
		return nil, failures.New(failures.ErrInvalidInput, request.Operation, buildError)
	}

	requestIdentifier := httpRequest.Header.Get(RequestIdentifierHeaderName)
	client.logger.Debug(
		logMessageRequestStartedConstant,
		zap.String(logFieldOperationConstant, request.Operation),
		zap.String(logFieldMethodConstant, httpRequest.Method),
		zap.String(logFieldEndpointConstant, request.Endpoint),
		zap.String(logFieldRequestIdentifierConstant, requestIdentifier),
	)

	startedAt := time.Now()
	httpResponse, sendError := client.httpClient.Do(httpRequest)
	if sendError != nil {
		return nil, failures.New(failures.ErrUpstreamFailure, request.Operation, fmt.Errorf(requestSendErrorTemplateConstant, request.Endpoint, sendError))
	}

	client.logger.Debug(
		logMessageRequestCompletedConstant,
		zap.String(logFieldOperationConstant, request.Operation),
		zap.String(logFieldEndpointConstant, request.Endpoint),
		zap.Int(logFieldStatusConstant, httpResponse.StatusCode),
		zap.String(logFieldRequestIdentifierConstant, requestIdentifier),
		zap.Duration(logFieldElapsedConstant, time.Since(startedAt)),
	)

	return httpResponse, nil
}

func (client *Client) buildRequest(executionContext context.Context, request Request) (*http.Request, error) {
	targetURL, parseError := url.Parse(request.Endpoint)
	if parseError != nil {
		return nil, fmt.Errorf(endpointParseErrorTemplateConstant, request.Endpoint, parseError)
	}
	if len(request.Query) > 0 {
		mergedQuery := targetURL.Query()
		for queryKey, queryValues := range request.Query {
			for _, queryValue := range queryValues {
				mergedQuery.Add(queryKey, queryValue)
			}
		}
		targetURL.RawQuery = mergedQuery.Encode()
	}

	requestBody := request.Body
	hasJSONBody := request.JSONBody != nil
	if hasJSONBody {
		encodedBody, encodeError := json.Marshal(request.JSONBody)
		if encodeError != nil {
			return nil, fmt.Errorf(requestEncodeErrorTemplateConstant, encodeError)
		}
		requestBody = bytes.NewReader(encodedBody)
	}

	method := strings.ToUpper(strings.TrimSpace(request.Method))
	if len(method) == 0 {
		method = http.MethodGet
	}

	httpRequest, buildError := http.NewRequestWithContext(executionContext, method, targetURL.String(), requestBody)
	if buildError != nil {
		return nil, fmt.Errorf(requestBuildErrorTemplateConstant, request.Endpoint, buildError)
	}

	if !hasJSONBody && request.BodySize > 0 {
		httpRequest.ContentLength = request.BodySize
	}
	if hasJSONBody {
		httpRequest.Header.Set(contentTypeHeaderNameConstant, jsonContentTypeConstant)
		httpRequest.Header.Set(acceptHeaderNameConstant, jsonContentTypeConstant)
	}
	if trimmedCredential := strings.TrimSpace(request.Credential); len(trimmedCredential) > 0 {
		httpRequest.Header.Set(CredentialHeaderName, trimmedCredential)
	}
	if runIdentifier, available := client.contextAccessor.RunIdentifier(executionContext); available {
		httpRequest.Header.Set(RequestIdentifierHeaderName, runIdentifier)
	}
	for headerName, headerValue := range request.Headers {
		httpRequest.Header.Set(headerName, headerValue)
	}

	return httpRequest, nil
}

func isSuccessStatus(statusCode int) bool {
	return statusCode >= successStatusLowerBoundConstant && statusCode < successStatusUpperBoundExclusiveConstant
}
