package anchor_test

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/require"

	"github.com/trustblock/trustblock-cli/internal/anchor"
	"github.com/trustblock/trustblock-cli/internal/failures"
)

const (
	forwardRequestSignatureConstant = "ForwardRequest(address from,address to,uint256 value,uint256 gas,uint256 nonce,bytes data,uint256 validUntilTime)"
	testForwarderAddressConstant    = "0x3333333333333333333333333333333333333333"
	testCoreAddressConstant         = "0x4444444444444444444444444444444444444444"
	testSigningKeyConstant          = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testSignerAddressConstant       = "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"
)

func testForwardRequest(from common.Address) anchor.ForwardRequest {
	return anchor.ForwardRequest{
		From:           from,
		To:             common.HexToAddress(testCoreAddressConstant),
		Value:          (*hexutil.Big)(big.NewInt(0)),
		Gas:            (*hexutil.Big)(big.NewInt(170_000)),
		Nonce:          (*hexutil.Big)(big.NewInt(7)),
		Data:           hexutil.Bytes{0xde, 0xad, 0xbe, 0xef},
		ValidUntilTime: (*hexutil.Big)(big.NewInt(1_700_003_600)),
	}
}

func testDomain() anchor.Domain {
	return anchor.Domain{
		Name:              "Trustblock Forwarder",
		Version:           "1",
		ChainID:           big.NewInt(80001),
		VerifyingContract: common.HexToAddress(testForwarderAddressConstant),
	}
}

func TestParseSigningKey(testInstance *testing.T) {
	testCases := []struct {
		name          string
		encodedKey    string
		expectedError bool
	}{
		{name: "plain_hex", encodedKey: testSigningKeyConstant},
		{name: "prefixed_hex", encodedKey: "0x" + testSigningKeyConstant},
		{name: "surrounding_whitespace", encodedKey: " " + testSigningKeyConstant + "\n"},
		{name: "empty", encodedKey: "", expectedError: true},
		{name: "not_hex", encodedKey: "zz", expectedError: true},
		{name: "short", encodedKey: "abcd", expectedError: true},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			privateKey, parseError := anchor.ParseSigningKey(testCase.encodedKey)
			if testCase.expectedError {
				require.Error(testInstance, parseError)
				require.True(testInstance, errors.Is(parseError, failures.ErrSigningFailure))
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, common.HexToAddress(testSignerAddressConstant), anchor.SignerAddress(privateKey))
		})
	}
}

func TestSignForwardRequestRecoversSigner(testInstance *testing.T) {
	privateKey, parseError := anchor.ParseSigningKey(testSigningKeyConstant)
	require.NoError(testInstance, parseError)
	signerAddress := anchor.SignerAddress(privateKey)

	request := testForwardRequest(signerAddress)
	signed, signError := anchor.SignForwardRequest(request, testDomain(), privateKey)
	require.NoError(testInstance, signError)

	require.Len(testInstance, signed.Signature, 65)
	recoveryByte := signed.Signature[64]
	require.True(testInstance, recoveryByte == 27 || recoveryByte == 28)

	digest, _, hashError := apitypes.TypedDataAndHash(anchor.BuildTypedData(request, testDomain()))
	require.NoError(testInstance, hashError)

	normalized := append([]byte(nil), signed.Signature...)
	normalized[64] -= 27
	publicKey, recoverError := crypto.SigToPub(digest, normalized)
	require.NoError(testInstance, recoverError)
	require.Equal(testInstance, signerAddress, crypto.PubkeyToAddress(*publicKey))

	require.Equal(testInstance, hexutil.Bytes(crypto.Keccak256([]byte(forwardRequestSignatureConstant))), signed.RequestTypeHash)
	require.Len(testInstance, signed.DomainSeparator, 32)
	require.Equal(testInstance, request, signed.Request)
}

func TestSignForwardRequestDomainSeparatorDependsOnChain(testInstance *testing.T) {
	privateKey, parseError := anchor.ParseSigningKey(testSigningKeyConstant)
	require.NoError(testInstance, parseError)
	request := testForwardRequest(anchor.SignerAddress(privateKey))

	firstDomain := testDomain()
	secondDomain := testDomain()
	secondDomain.ChainID = big.NewInt(43113)

	firstSigned, firstError := anchor.SignForwardRequest(request, firstDomain, privateKey)
	require.NoError(testInstance, firstError)
	secondSigned, secondError := anchor.SignForwardRequest(request, secondDomain, privateKey)
	require.NoError(testInstance, secondError)

	require.NotEqual(testInstance, firstSigned.DomainSeparator, secondSigned.DomainSeparator)
	require.NotEqual(testInstance, firstSigned.Signature, secondSigned.Signature)
	require.Equal(testInstance, firstSigned.RequestTypeHash, secondSigned.RequestTypeHash)
}
