package cli

import (
	"bytes"
	_ "embed"
)

// defaultConfigurationContent holds the registry, storage, rendering and
// anchoring defaults, including the RPC endpoint and network label per chain.
//
//go:embed default_config.yaml
var defaultConfigurationContent []byte

// EmbeddedDefaultConfiguration returns a copy of the built-in configuration and its format.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	return bytes.Clone(defaultConfigurationContent), configurationTypeConstant
}
