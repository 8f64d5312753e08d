package audit

import (
	"fmt"
	"strings"

	"github.com/trustblock/trustblock-cli/internal/failures"
)

const (
	unknownChainTemplateConstant = "unknown chain %q"
	parseChainOperationConstant  = "parse chain"
)

// Chain identifies a blockchain supported by the registry.
type Chain string

// Supported chains.
const (
	ChainEthereum  Chain = "ETHEREUM"
	ChainPolygon   Chain = "POLYGON"
	ChainBNBChain  Chain = "BNBCHAIN"
	ChainAvalanche Chain = "AVALANCHE"
)

var supportedChains = []Chain{ChainEthereum, ChainPolygon, ChainBNBChain, ChainAvalanche}

var defaultNetworkLabels = map[Chain]string{
	ChainEthereum:  "GOERLI",
	ChainPolygon:   "MUMBAI",
	ChainBNBChain:  "BNBCHAIN_TESTNET",
	ChainAvalanche: "FUJI",
}

// SupportedChains lists the chain catalogue in declaration order.
func SupportedChains() []Chain {
	return append([]Chain(nil), supportedChains...)
}

// ParseChain resolves a chain name case-insensitively.
func ParseChain(value string) (Chain, error) {
	candidate := Chain(strings.ToUpper(strings.TrimSpace(value)))
	if !candidate.Supported() {
		return "", failures.Newf(failures.ErrInvalidInput, parseChainOperationConstant, unknownChainTemplateConstant, value)
	}
	return candidate, nil
}

// Supported reports whether the chain belongs to the catalogue.
func (chain Chain) Supported() bool {
	_, known := defaultNetworkLabels[chain]
	return known
}

// DefaultNetworkLabel returns the relay network label used when configuration does not override it.
func (chain Chain) DefaultNetworkLabel() string {
	return defaultNetworkLabels[chain]
}

// Key returns the lowercase form used for configuration sections.
func (chain Chain) Key() string {
	return strings.ToLower(string(chain))
}

// String returns the canonical chain name.
func (chain Chain) String() string {
	return string(chain)
}

// UnmarshalText normalizes the chain name. Membership is checked by Validate.
func (chain *Chain) UnmarshalText(text []byte) error {
	*chain = Chain(strings.ToUpper(strings.TrimSpace(string(text))))
	return nil
}

// ResolveChains returns the distinct chains referenced by contracts in order of first appearance.
func ResolveChains(contracts []AuditContract) []Chain {
	seenChains := make(map[Chain]struct{}, len(contracts))
	resolvedChains := make([]Chain, 0, len(contracts))
	for _, contract := range contracts {
		if _, seen := seenChains[contract.Chain]; seen {
			continue
		}
		seenChains[contract.Chain] = struct{}{}
		resolvedChains = append(resolvedChains, contract.Chain)
	}
	return resolvedChains
}

// ContractsOnChain returns the contracts deployed on chain, preserving input order.
func ContractsOnChain(contracts []AuditContract, chain Chain) []AuditContract {
	matchingContracts := make([]AuditContract, 0, len(contracts))
	for _, contract := range contracts {
		if contract.Chain == chain {
			matchingContracts = append(matchingContracts, contract)
		}
	}
	return matchingContracts
}

func describeChains(chains []Chain) string {
	names := make([]string, 0, len(chains))
	for _, chain := range chains {
		names = append(names, chain.String())
	}
	return fmt.Sprintf("[%s]", strings.Join(names, ", "))
}
