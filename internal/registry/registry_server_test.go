package registry_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustblock/trustblock-cli/internal/registry"
	"github.com/trustblock/trustblock-cli/internal/transport"
)

const (
	testCredentialConstant      = "api-key-123"
	testAuditPathConstant       = "/api/audit/"
	testProjectPathConstant     = "/api/project/"
	testProjectSlugPathConstant = "/api/project/slug/"
)

type stubbedResponse struct {
	statusCode int
	body       string
}

type capturedCall struct {
	method     string
	path       string
	rawQuery   string
	credential string
	body       string
}

type fakeRegistry struct {
	mutex     sync.Mutex
	responses map[string]stubbedResponse
	calls     []capturedCall
}

func newFakeRegistry(testInstance *testing.T, responses map[string]stubbedResponse) (*fakeRegistry, *httptest.Server) {
	registryState := &fakeRegistry{responses: responses}
	server := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		requestBody, readError := io.ReadAll(request.Body)
		require.NoError(testInstance, readError)

		registryState.mutex.Lock()
		defer registryState.mutex.Unlock()
		registryState.calls = append(registryState.calls, capturedCall{
			method:     request.Method,
			path:       request.URL.Path,
			rawQuery:   request.URL.RawQuery,
			credential: request.Header.Get(transport.CredentialHeaderName),
			body:       string(requestBody),
		})

		response, found := registryState.responses[request.Method+" "+request.URL.Path]
		if !found {
			responseWriter.WriteHeader(http.StatusTeapot)
			return
		}
		responseWriter.WriteHeader(response.statusCode)
		_, _ = io.WriteString(responseWriter, response.body)
	}))
	testInstance.Cleanup(server.Close)
	return registryState, server
}

func (registryState *fakeRegistry) callsTo(method string, path string) []capturedCall {
	registryState.mutex.Lock()
	defer registryState.mutex.Unlock()
	matching := make([]capturedCall, 0)
	for _, call := range registryState.calls {
		if call.method == method && call.path == path {
			matching = append(matching, call)
		}
	}
	return matching
}

func registryConfiguration(server *httptest.Server) registry.Configuration {
	return registry.Configuration{
		AuditEndpoint:       server.URL + testAuditPathConstant,
		ProjectEndpoint:     server.URL + testProjectPathConstant,
		ProjectSlugEndpoint: server.URL + testProjectSlugPathConstant,
	}
}

func registryClient(server *httptest.Server) *transport.Client {
	return transport.NewClient(server.Client(), nil)
}
