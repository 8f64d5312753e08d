package anchor

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

const (
	dialTemplateConstant          = "dial %s: %w"
	revertReasonTemplateConstant  = "execution reverted: %s"
	revertedWithoutReasonConstant = "execution reverted without a reason"
)

// Call describes a contract call issued by From.
type Call struct {
	From common.Address
	To   common.Address
	Data []byte
}

// ChainClient exposes the chain reads needed to prepare a meta-transaction.
type ChainClient interface {
	ChainID(executionContext context.Context) (*big.Int, error)
	// Simulate executes the call without committing it and reports a revert as an error.
	Simulate(executionContext context.Context, call Call) error
	EstimateGas(executionContext context.Context, call Call) (uint64, error)
	ForwarderNonce(executionContext context.Context, forwarder common.Address, from common.Address) (*big.Int, error)
	Close()
}

// ChainDialer connects to the RPC endpoint of one chain.
type ChainDialer func(executionContext context.Context, rpcURL string) (ChainClient, error)

// EthereumChainClient implements ChainClient over JSON-RPC.
type EthereumChainClient struct {
	client *ethclient.Client
}

// DialEthereum connects an EthereumChainClient to rpcURL.
func DialEthereum(executionContext context.Context, rpcURL string) (ChainClient, error) {
	client, dialError := ethclient.DialContext(executionContext, rpcURL)
	if dialError != nil {
		return nil, fmt.Errorf(dialTemplateConstant, rpcURL, dialError)
	}
	return &EthereumChainClient{client: client}, nil
}

// ChainID returns the chain id reported by the node.
func (chainClient *EthereumChainClient) ChainID(executionContext context.Context) (*big.Int, error) {
	return chainClient.client.ChainID(executionContext)
}

// Simulate runs eth_call against the latest block and decodes revert reasons.
func (chainClient *EthereumChainClient) Simulate(executionContext context.Context, call Call) error {
	_, callError := chainClient.client.CallContract(executionContext, callMessage(call), nil)
	if callError != nil {
		return describeRevert(callError)
	}
	return nil
}

// EstimateGas returns the node's gas estimate for the call.
func (chainClient *EthereumChainClient) EstimateGas(executionContext context.Context, call Call) (uint64, error) {
	estimate, estimateError := chainClient.client.EstimateGas(executionContext, callMessage(call))
	if estimateError != nil {
		return 0, describeRevert(estimateError)
	}
	return estimate, nil
}

// ForwarderNonce reads getNonce(from) from the forwarder contract.
func (chainClient *EthereumChainClient) ForwarderNonce(executionContext context.Context, forwarder common.Address, from common.Address) (*big.Int, error) {
	callData, encodeError := encodeGetNonceCall(from)
	if encodeError != nil {
		return nil, encodeError
	}
	output, callError := chainClient.client.CallContract(executionContext, ethereum.CallMsg{To: &forwarder, Data: callData}, nil)
	if callError != nil {
		return nil, callError
	}
	return decodeGetNonceResult(output)
}

// Close releases the RPC connection.
func (chainClient *EthereumChainClient) Close() {
	chainClient.client.Close()
}

func callMessage(call Call) ethereum.CallMsg {
	target := call.To
	return ethereum.CallMsg{From: call.From, To: &target, Data: call.Data}
}

// describeRevert turns JSON-RPC revert data into a readable reason when the node provides one.
func describeRevert(callError error) error {
	var dataError rpc.DataError
	if !errors.As(callError, &dataError) {
		return callError
	}
	encodedData, isText := dataError.ErrorData().(string)
	if !isText {
		return callError
	}
	revertData, decodeError := hexutil.Decode(encodedData)
	if decodeError != nil || len(revertData) == 0 {
		return errors.New(revertedWithoutReasonConstant)
	}
	reason, unpackError := abi.UnpackRevert(revertData)
	if unpackError != nil {
		return fmt.Errorf(revertReasonTemplateConstant, encodedData)
	}
	return fmt.Errorf(revertReasonTemplateConstant, reason)
}
