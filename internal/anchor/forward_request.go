package anchor

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const (
	forwardRequestTypeNameConstant = "ForwardRequest"
	domainTypeNameConstant         = "EIP712Domain"
	addressTypeConstant            = "address"
	uint256TypeConstant            = "uint256"
	bytesTypeConstant              = "bytes"
	stringTypeConstant             = "string"
)

// ForwardRequest is the meta-transaction executed by the forwarder on behalf of From.
type ForwardRequest struct {
	From           common.Address `json:"from"`
	To             common.Address `json:"to"`
	Value          *hexutil.Big   `json:"value"`
	Gas            *hexutil.Big   `json:"gas"`
	Nonce          *hexutil.Big   `json:"nonce"`
	Data           hexutil.Bytes  `json:"data"`
	ValidUntilTime *hexutil.Big   `json:"validUntilTime"`
}

// Domain scopes ForwardRequest signatures to one forwarder deployment.
type Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract common.Address
}

var forwardRequestTypes = apitypes.Types{
	domainTypeNameConstant: {
		{Name: "name", Type: stringTypeConstant},
		{Name: "version", Type: stringTypeConstant},
		{Name: "chainId", Type: uint256TypeConstant},
		{Name: "verifyingContract", Type: addressTypeConstant},
	},
	forwardRequestTypeNameConstant: {
		{Name: "from", Type: addressTypeConstant},
		{Name: "to", Type: addressTypeConstant},
		{Name: "value", Type: uint256TypeConstant},
		{Name: "gas", Type: uint256TypeConstant},
		{Name: "nonce", Type: uint256TypeConstant},
		{Name: "data", Type: bytesTypeConstant},
		{Name: "validUntilTime", Type: uint256TypeConstant},
	},
}

// BuildTypedData renders the request as EIP-712 typed data within domain.
func BuildTypedData(request ForwardRequest, domain Domain) apitypes.TypedData {
	return apitypes.TypedData{
		Types:       forwardRequestTypes,
		PrimaryType: forwardRequestTypeNameConstant,
		Domain: apitypes.TypedDataDomain{
			Name:              domain.Name,
			Version:           domain.Version,
			ChainId:           (*math.HexOrDecimal256)(bigOrZero(domain.ChainID)),
			VerifyingContract: domain.VerifyingContract.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"from":           request.From.Hex(),
			"to":             request.To.Hex(),
			"value":          hexOrDecimal(request.Value),
			"gas":            hexOrDecimal(request.Gas),
			"nonce":          hexOrDecimal(request.Nonce),
			"data":           append(hexutil.Bytes{}, request.Data...),
			"validUntilTime": hexOrDecimal(request.ValidUntilTime),
		},
	}
}

func hexOrDecimal(value *hexutil.Big) *math.HexOrDecimal256 {
	if value == nil {
		return (*math.HexOrDecimal256)(new(big.Int))
	}
	return (*math.HexOrDecimal256)(new(big.Int).Set(value.ToInt()))
}

func bigOrZero(value *big.Int) *big.Int {
	if value == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(value)
}
