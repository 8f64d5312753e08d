package anchor

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/trustblock/trustblock-cli/internal/failures"
)

const (
	parseKeyOperationConstant     = "parse signing key"
	signRequestOperationConstant  = "sign forward request"
	hexPrefixConstant             = "0x"
	recoveryIDOffsetConstant      = 27
	recoveryIDIndexConstant       = 64
	emptyKeyMessageConstant       = "signing key is empty"
	hashTypedDataTemplateConstant = "hash typed data: %w"
	domainHashTemplateConstant    = "hash domain: %w"
	signDigestTemplateConstant    = "sign digest: %w"
)

// SignedForwardRequest carries the signature and the hashes the relay needs to verify it.
type SignedForwardRequest struct {
	Request         ForwardRequest
	DomainSeparator hexutil.Bytes
	RequestTypeHash hexutil.Bytes
	Signature       hexutil.Bytes
}

// ParseSigningKey parses a hex encoded secp256k1 private key with or without the 0x prefix.
func ParseSigningKey(encodedKey string) (*ecdsa.PrivateKey, error) {
	trimmedKey := strings.TrimPrefix(strings.TrimSpace(encodedKey), hexPrefixConstant)
	if len(trimmedKey) == 0 {
		return nil, failures.Newf(failures.ErrSigningFailure, parseKeyOperationConstant, emptyKeyMessageConstant)
	}
	privateKey, parseError := crypto.HexToECDSA(trimmedKey)
	if parseError != nil {
		return nil, failures.New(failures.ErrSigningFailure, parseKeyOperationConstant, parseError)
	}
	return privateKey, nil
}

// SignerAddress derives the account address of privateKey.
func SignerAddress(privateKey *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(privateKey.PublicKey)
}

// SignForwardRequest signs the EIP-712 digest of request within domain. The
// recovery byte of the signature is 27 or 28.
func SignForwardRequest(request ForwardRequest, domain Domain, privateKey *ecdsa.PrivateKey) (SignedForwardRequest, error) {
	typedData := BuildTypedData(request, domain)

	digest, _, hashError := apitypes.TypedDataAndHash(typedData)
	if hashError != nil {
		return SignedForwardRequest{}, failures.New(failures.ErrSigningFailure, signRequestOperationConstant, fmt.Errorf(hashTypedDataTemplateConstant, hashError))
	}

	domainSeparator, domainError := typedData.HashStruct(domainTypeNameConstant, typedData.Domain.Map())
	if domainError != nil {
		return SignedForwardRequest{}, failures.New(failures.ErrSigningFailure, signRequestOperationConstant, fmt.Errorf(domainHashTemplateConstant, domainError))
	}

	signature, signError := crypto.Sign(digest, privateKey)
	if signError != nil {
		return SignedForwardRequest{}, failures.New(failures.ErrSigningFailure, signRequestOperationConstant, fmt.Errorf(signDigestTemplateConstant, signError))
	}
	signature[recoveryIDIndexConstant] += recoveryIDOffsetConstant

	return SignedForwardRequest{
		Request:         request,
		DomainSeparator: domainSeparator,
		RequestTypeHash: typedData.TypeHash(forwardRequestTypeNameConstant),
		Signature:       signature,
	}, nil
}
