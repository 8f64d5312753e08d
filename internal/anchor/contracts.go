package anchor

import (
	"bytes"
	_ "embed"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/trustblock/trustblock-cli/internal/audit"
)

const (
	publishAuditMethodConstant       = "publishAudit"
	getNonceMethodConstant           = "getNonce"
	parseABITemplateConstant         = "parse %s ABI: %w"
	packCallTemplateConstant         = "encode %s call: %w"
	unpackResultTemplateConstant     = "decode %s result: %w"
	unexpectedResultTemplateConstant = "unexpected %s result %v"
	coreContractNameConstant         = "registry core"
	forwarderContractNameConstant    = "forwarder"
)

var (
	//go:embed abi/trustblock_core.json
	coreABIDefinition []byte
	//go:embed abi/trustblock_forwarder.json
	forwarderABIDefinition []byte

	contractABIOnce sync.Once
	coreABI         abi.ABI
	forwarderABI    abi.ABI
	contractABIErr  error
)

func loadContractABIs() error {
	contractABIOnce.Do(func() {
		parsedCore, coreError := abi.JSON(bytes.NewReader(coreABIDefinition))
		if coreError != nil {
			contractABIErr = fmt.Errorf(parseABITemplateConstant, coreContractNameConstant, coreError)
			return
		}
		parsedForwarder, forwarderError := abi.JSON(bytes.NewReader(forwarderABIDefinition))
		if forwarderError != nil {
			contractABIErr = fmt.Errorf(parseABITemplateConstant, forwarderContractNameConstant, forwarderError)
			return
		}
		coreABI = parsedCore
		forwarderABI = parsedForwarder
	})
	return contractABIErr
}

// EncodePublishAuditCall ABI-encodes publishAudit(address[],string,bytes28,bytes4).
func EncodePublishAuditCall(contracts []common.Address, reportHash string, projectName [audit.ProjectNameByteLength]byte, issues [4]byte) ([]byte, error) {
	if loadError := loadContractABIs(); loadError != nil {
		return nil, loadError
	}
	if contracts == nil {
		contracts = []common.Address{}
	}
	callData, packError := coreABI.Pack(publishAuditMethodConstant, contracts, reportHash, projectName, issues)
	if packError != nil {
		return nil, fmt.Errorf(packCallTemplateConstant, publishAuditMethodConstant, packError)
	}
	return callData, nil
}

// BuildPublishAuditPayload encodes the call for the contracts of one chain using the risk-accepted severity histogram.
func BuildPublishAuditPayload(publishedAudit audit.PublishedAudit, chain audit.Chain, projectName string, reportHash string) ([]byte, error) {
	encodedName, nameError := audit.ProjectNameBytes(projectName)
	if nameError != nil {
		return nil, nameError
	}

	chainContracts := audit.ContractsOnChain(publishedAudit.Contracts, chain)
	contractAddresses := make([]common.Address, 0, len(chainContracts))
	for _, contract := range chainContracts {
		contractAddresses = append(contractAddresses, contract.Address())
	}

	return EncodePublishAuditCall(contractAddresses, reportHash, encodedName, audit.PackSeverityBytes(publishedAudit.IssueCount.RiskAccepted))
}

func encodeGetNonceCall(from common.Address) ([]byte, error) {
	if loadError := loadContractABIs(); loadError != nil {
		return nil, loadError
	}
	callData, packError := forwarderABI.Pack(getNonceMethodConstant, from)
	if packError != nil {
		return nil, fmt.Errorf(packCallTemplateConstant, getNonceMethodConstant, packError)
	}
	return callData, nil
}

func decodeGetNonceResult(output []byte) (*big.Int, error) {
	if loadError := loadContractABIs(); loadError != nil {
		return nil, loadError
	}
	values, unpackError := forwarderABI.Unpack(getNonceMethodConstant, output)
	if unpackError != nil {
		return nil, fmt.Errorf(unpackResultTemplateConstant, getNonceMethodConstant, unpackError)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf(unexpectedResultTemplateConstant, getNonceMethodConstant, values)
	}
	nonce, isInteger := values[0].(*big.Int)
	if !isInteger {
		return nil, fmt.Errorf(unexpectedResultTemplateConstant, getNonceMethodConstant, values)
	}
	return nonce, nil
}
