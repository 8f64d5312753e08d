package anchor_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"

	"github.com/trustblock/trustblock-cli/internal/anchor"
	"github.com/trustblock/trustblock-cli/internal/failures"
	"github.com/trustblock/trustblock-cli/internal/transport"
)

const (
	testCredentialConstant = "api-key-123"
	testNetworkConstant    = "MUMBAI"
)

func testWebhookRequest() anchor.WebhookRequest {
	return anchor.NewWebhookRequest(anchor.SignedForwardRequest{
		Request:         testForwardRequest(common.HexToAddress(testSignerAddressConstant)),
		DomainSeparator: hexutil.Bytes{0x01},
		RequestTypeHash: hexutil.Bytes{0x02},
		Signature:       hexutil.Bytes{0x03},
	}, testNetworkConstant)
}

func TestWebhookRequestWireFormat(testInstance *testing.T) {
	encoded, marshalError := json.Marshal(testWebhookRequest())
	require.NoError(testInstance, marshalError)

	var decoded map[string]any
	require.NoError(testInstance, json.Unmarshal(encoded, &decoded))

	require.Equal(testInstance, "0x", decoded["suffixData"])
	require.Equal(testInstance, testNetworkConstant, decoded["chain"])
	require.Equal(testInstance, "0x01", decoded["domainSeparator"])
	require.Equal(testInstance, "0x02", decoded["requestTypeHash"])
	require.Equal(testInstance, "0x03", decoded["signature"])

	request, isObject := decoded["request"].(map[string]any)
	require.True(testInstance, isObject)
	require.Equal(testInstance, "0x0", request["value"])
	require.Equal(testInstance, "0x29810", request["gas"])
	require.Equal(testInstance, "0x7", request["nonce"])
	require.Equal(testInstance, "0xdeadbeef", request["data"])
	require.Equal(testInstance, "0x6553ff10", request["validUntilTime"])
	require.Equal(testInstance, strings.ToLower(testSignerAddressConstant), request["from"])
}

func TestRelayerSubmit(testInstance *testing.T) {
	var receivedCredential string
	var receivedBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		receivedCredential = request.Header.Get(transport.CredentialHeaderName)
		receivedBody, _ = io.ReadAll(request.Body)
		responseWriter.WriteHeader(http.StatusOK)
	}))
	testInstance.Cleanup(server.Close)

	relayer := anchor.NewRelayer(transport.NewClient(server.Client(), nil), server.URL)
	require.NoError(testInstance, relayer.Submit(context.Background(), testWebhookRequest(), testCredentialConstant))
	require.Equal(testInstance, testCredentialConstant, receivedCredential)
	require.Contains(testInstance, string(receivedBody), `"chain":"MUMBAI"`)
}

func TestRelayerSubmitFailureCarriesStatusAndBody(testInstance *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		responseWriter.WriteHeader(http.StatusBadGateway)
		_, _ = responseWriter.Write([]byte("relay unavailable"))
	}))
	testInstance.Cleanup(server.Close)

	relayer := anchor.NewRelayer(transport.NewClient(server.Client(), nil), server.URL)
	submitError := relayer.Submit(context.Background(), testWebhookRequest(), testCredentialConstant)
	require.Error(testInstance, submitError)
	require.True(testInstance, errors.Is(submitError, failures.ErrUpstreamFailure))

	var statusError transport.StatusError
	require.True(testInstance, errors.As(submitError, &statusError))
	require.Equal(testInstance, http.StatusBadGateway, statusError.StatusCode)
	require.Contains(testInstance, statusError.Error(), "relay unavailable")
}
