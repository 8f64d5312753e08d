package anchor

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/trustblock/trustblock-cli/internal/audit"
	"github.com/trustblock/trustblock-cli/internal/failures"
)

// FailurePolicy controls what happens after one chain fails to anchor.
type FailurePolicy string

// Supported failure policies.
const (
	FailurePolicyFailFast FailurePolicy = "fail-fast"
	FailurePolicyContinue FailurePolicy = "continue"
)

// Stage names the anchoring step that failed.
type Stage string

// Anchoring stages in execution order.
const (
	StageEncode   Stage = "encode"
	StageConnect  Stage = "connect"
	StageSimulate Stage = "simulate"
	StageEstimate Stage = "estimate"
	StageNonce    Stage = "nonce"
	StageSign     Stage = "sign"
	StageRelay    Stage = "relay"
)

const (
	anchorOperationConstant              = "anchor audit"
	unknownFailurePolicyTemplateConstant = "unknown failure policy %q (expected %s or %s)"
	missingEndpointTemplateConstant      = "no RPC endpoint configured for chain %s"
	missingAddressTemplateConstant       = "%s address is not configured"
	missingSigningKeyMessageConstant     = "signing key is required for anchoring"
	chainErrorTemplateConstant           = "anchor %s: %s: %v"
	missingSubmitterMessageConstant      = "relay submitter is not configured"
	coreAddressNameConstant              = "core contract"
	forwarderAddressNameConstant         = "forwarder contract"
	logMessageChainStartedConstant       = "anchoring chain"
	logMessageChainAnchoredConstant      = "chain anchored"
	logMessageChainFailedConstant        = "chain anchoring failed"
	logFieldChainConstant                = "chain"
	logFieldNetworkConstant              = "network"
	logFieldStageConstant                = "stage"
	logFieldGasLimitConstant             = "gas_limit"
	logFieldNonceConstant                = "nonce"
	logFieldChainIdentifierConstant      = "chain_id"
	defaultDomainNameConstant            = "Trustblock Forwarder"
	defaultDomainVersionConstant         = "1"
	defaultValidityWindowConstant        = time.Hour
)

// ParseFailurePolicy parses a policy name; an empty value selects fail-fast.
func ParseFailurePolicy(value string) (FailurePolicy, error) {
	switch FailurePolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", FailurePolicyFailFast:
		return FailurePolicyFailFast, nil
	case FailurePolicyContinue:
		return FailurePolicyContinue, nil
	default:
		return "", failures.Newf(failures.ErrInvalidInput, anchorOperationConstant, unknownFailurePolicyTemplateConstant, value, FailurePolicyFailFast, FailurePolicyContinue)
	}
}

// ChainEndpoint locates the RPC node and relay network of one chain.
type ChainEndpoint struct {
	RPCURL  string `mapstructure:"rpc_url"`
	Network string `mapstructure:"network"`
}

// Configuration describes the contracts and chains used for anchoring.
type Configuration struct {
	CoreAddress      common.Address
	ForwarderAddress common.Address
	DomainName       string
	DomainVersion    string
	ValidityWindow   time.Duration
	FailurePolicy    FailurePolicy
	// Chains is keyed by the lowercase chain name.
	Chains map[string]ChainEndpoint
}

// ChainProgress is reported after each chain attempt.
type ChainProgress struct {
	Chain     audit.Chain
	Completed int
	Total     int
	Failed    bool
}

// ChainProgressFunc receives chain loop progress.
type ChainProgressFunc func(progress ChainProgress)

// ChainResult records the outcome for one chain.
type ChainResult struct {
	Chain    audit.Chain
	Network  string
	GasLimit uint64
	Nonce    *big.Int
	Err      error
}

// Succeeded reports whether the chain was anchored.
func (result ChainResult) Succeeded() bool {
	return result.Err == nil
}

// Report lists the chains attempted during one Anchor call.
type Report struct {
	Results []ChainResult
}

// ChainError describes a failed anchoring stage on one chain.
type ChainError struct {
	Chain audit.Chain
	Stage Stage
	Cause error
}

func (chainError ChainError) Error() string {
	return fmt.Sprintf(chainErrorTemplateConstant, chainError.Chain, chainError.Stage, chainError.Cause)
}

// Unwrap returns the underlying cause.
func (chainError ChainError) Unwrap() error {
	return chainError.Cause
}

// Clock returns the current time.
type Clock func() time.Time

// Orchestrator anchors published audits on every chain they reference.
type Orchestrator struct {
	configuration Configuration
	dialer        ChainDialer
	submitter     Submitter
	clock         Clock
	progress      ChainProgressFunc
	logger        *zap.Logger
}

// OrchestratorOption customizes an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithClock replaces the wall clock used for request expiry.
func WithClock(clock Clock) OrchestratorOption {
	return func(orchestrator *Orchestrator) {
		if clock != nil {
			orchestrator.clock = clock
		}
	}
}

// WithChainProgress registers a progress callback.
func WithChainProgress(progress ChainProgressFunc) OrchestratorOption {
	return func(orchestrator *Orchestrator) {
		orchestrator.progress = progress
	}
}

// NewOrchestrator constructs an Orchestrator. A nil dialer connects with DialEthereum.
func NewOrchestrator(configuration Configuration, dialer ChainDialer, submitter Submitter, logger *zap.Logger, options ...OrchestratorOption) *Orchestrator {
	if dialer == nil {
		dialer = DialEthereum
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(configuration.DomainName) == 0 {
		configuration.DomainName = defaultDomainNameConstant
	}
	if len(configuration.DomainVersion) == 0 {
		configuration.DomainVersion = defaultDomainVersionConstant
	}
	if configuration.ValidityWindow <= 0 {
		configuration.ValidityWindow = defaultValidityWindowConstant
	}
	if len(configuration.FailurePolicy) == 0 {
		configuration.FailurePolicy = FailurePolicyFailFast
	}

	orchestrator := &Orchestrator{
		configuration: configuration,
		dialer:        dialer,
		submitter:     submitter,
		clock:         time.Now,
		logger:        logger,
	}
	for _, option := range options {
		option(orchestrator)
	}
	return orchestrator
}

// Anchor relays one signed publishAudit meta-transaction per chain of the
// published audit, sequentially in the audit's chain order. Under the
// fail-fast policy the first failure stops the loop; under the continue
// policy every chain is attempted and the failures are combined.
func (orchestrator *Orchestrator) Anchor(executionContext context.Context, publishedAudit audit.PublishedAudit, projectName string, reportHash string, signingKey *ecdsa.PrivateKey, credential string) (Report, error) {
	if signingKey == nil {
		return Report{}, failures.Newf(failures.ErrSigningFailure, anchorOperationConstant, missingSigningKeyMessageConstant)
	}
	if configurationError := orchestrator.validateContracts(); configurationError != nil {
		return Report{}, configurationError
	}

	chains := publishedAudit.Chains
	report := Report{Results: make([]ChainResult, 0, len(chains))}
	var combinedError error

	for chainIndex, chain := range chains {
		result := orchestrator.anchorChain(executionContext, publishedAudit, chain, projectName, reportHash, signingKey, credential)
		report.Results = append(report.Results, result)

		if orchestrator.progress != nil {
			orchestrator.progress(ChainProgress{Chain: chain, Completed: chainIndex + 1, Total: len(chains), Failed: !result.Succeeded()})
		}

		if result.Err == nil {
			continue
		}
		if orchestrator.configuration.FailurePolicy != FailurePolicyContinue {
			return report, result.Err
		}
		combinedError = multierr.Append(combinedError, result.Err)
	}

	return report, combinedError
}

func (orchestrator *Orchestrator) validateContracts() error {
	if orchestrator.configuration.CoreAddress == (common.Address{}) {
		return failures.Newf(failures.ErrInvalidInput, anchorOperationConstant, missingAddressTemplateConstant, coreAddressNameConstant)
	}
	if orchestrator.configuration.ForwarderAddress == (common.Address{}) {
		return failures.Newf(failures.ErrInvalidInput, anchorOperationConstant, missingAddressTemplateConstant, forwarderAddressNameConstant)
	}
	return nil
}

func (orchestrator *Orchestrator) anchorChain(executionContext context.Context, publishedAudit audit.PublishedAudit, chain audit.Chain, projectName string, reportHash string, signingKey *ecdsa.PrivateKey, credential string) ChainResult {
	endpoint, networkLabel := orchestrator.endpointFor(chain)
	result := ChainResult{Chain: chain, Network: networkLabel}
	chainLogger := orchestrator.logger.With(zap.String(logFieldChainConstant, chain.String()), zap.String(logFieldNetworkConstant, networkLabel))
	chainLogger.Info(logMessageChainStartedConstant)

	fail := func(stage Stage, cause error) ChainResult {
		result.Err = ChainError{Chain: chain, Stage: stage, Cause: cause}
		chainLogger.Warn(logMessageChainFailedConstant, zap.String(logFieldStageConstant, string(stage)), zap.Error(cause))
		return result
	}

	callData, encodeError := BuildPublishAuditPayload(publishedAudit, chain, projectName, reportHash)
	if encodeError != nil {
		return fail(StageEncode, encodeError)
	}

	if len(endpoint.RPCURL) == 0 {
		return fail(StageConnect, failures.Newf(failures.ErrInvalidInput, anchorOperationConstant, missingEndpointTemplateConstant, chain))
	}
	chainClient, dialError := orchestrator.dialer(executionContext, endpoint.RPCURL)
	if dialError != nil {
		return fail(StageConnect, failures.New(failures.ErrUpstreamFailure, anchorOperationConstant, dialError))
	}
	defer chainClient.Close()

	chainIdentifier, chainIdentifierError := chainClient.ChainID(executionContext)
	if chainIdentifierError != nil {
		return fail(StageConnect, failures.New(failures.ErrUpstreamFailure, anchorOperationConstant, chainIdentifierError))
	}

	signerAddress := SignerAddress(signingKey)
	call := Call{From: signerAddress, To: orchestrator.configuration.CoreAddress, Data: callData}

	if simulateError := chainClient.Simulate(executionContext, call); simulateError != nil {
		return fail(StageSimulate, failures.New(failures.ErrOnChainCallRejected, anchorOperationConstant, simulateError))
	}

	estimate, estimateError := chainClient.EstimateGas(executionContext, call)
	if estimateError != nil {
		return fail(StageEstimate, failures.New(failures.ErrUpstreamFailure, anchorOperationConstant, estimateError))
	}
	result.GasLimit = ComputeGasLimit(estimate)

	nonce, nonceError := chainClient.ForwarderNonce(executionContext, orchestrator.configuration.ForwarderAddress, signerAddress)
	if nonceError != nil {
		return fail(StageNonce, failures.New(failures.ErrUpstreamFailure, anchorOperationConstant, nonceError))
	}
	result.Nonce = nonce

	validUntil := orchestrator.clock().Add(orchestrator.configuration.ValidityWindow).Unix()
	request := ForwardRequest{
		From:           signerAddress,
		To:             orchestrator.configuration.CoreAddress,
		Value:          (*hexutil.Big)(new(big.Int)),
		Gas:            (*hexutil.Big)(new(big.Int).SetUint64(result.GasLimit)),
		Nonce:          (*hexutil.Big)(new(big.Int).Set(nonce)),
		Data:           callData,
		ValidUntilTime: (*hexutil.Big)(big.NewInt(validUntil)),
	}
	domain := Domain{
		Name:              orchestrator.configuration.DomainName,
		Version:           orchestrator.configuration.DomainVersion,
		ChainID:           chainIdentifier,
		VerifyingContract: orchestrator.configuration.ForwarderAddress,
	}

	signedRequest, signError := SignForwardRequest(request, domain, signingKey)
	if signError != nil {
		return fail(StageSign, signError)
	}

	if orchestrator.submitter == nil {
		return fail(StageRelay, failures.Newf(failures.ErrInvalidInput, anchorOperationConstant, missingSubmitterMessageConstant))
	}
	if submitError := orchestrator.submitter.Submit(executionContext, NewWebhookRequest(signedRequest, networkLabel), credential); submitError != nil {
		return fail(StageRelay, submitError)
	}

	chainLogger.Info(logMessageChainAnchoredConstant,
		zap.Uint64(logFieldGasLimitConstant, result.GasLimit),
		zap.String(logFieldNonceConstant, nonce.String()),
		zap.String(logFieldChainIdentifierConstant, chainIdentifier.String()),
	)
	return result
}

func (orchestrator *Orchestrator) endpointFor(chain audit.Chain) (ChainEndpoint, string) {
	endpoint := orchestrator.configuration.Chains[chain.Key()]
	networkLabel := endpoint.Network
	if len(networkLabel) == 0 {
		networkLabel = chain.DefaultNetworkLabel()
	}
	return endpoint, networkLabel
}
