package publishing

import (
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/trustblock/trustblock-cli/internal/anchor"
	"github.com/trustblock/trustblock-cli/internal/contentstore"
	"github.com/trustblock/trustblock-cli/internal/failures"
	"github.com/trustblock/trustblock-cli/internal/registry"
)

// RenderingMode selects how report URLs are turned into PDFs.
type RenderingMode string

// Supported rendering modes.
const (
	RenderingModeRemote   RenderingMode = "remote"
	RenderingModeChromium RenderingMode = "chromium"
)

const (
	configurationOperationConstant       = "read publishing configuration"
	unsupportedRenderingTemplateConstant = "unsupported rendering mode %q (expected remote or chromium)"
	invalidAddressTemplateConstant       = "anchoring.%s is not a valid address: %q"
	coreAddressKeyConstant               = "core_address"
	forwarderAddressKeyConstant          = "forwarder_address"
	defaultHTTPTimeoutConstant           = 60 * time.Second
	defaultRenderingTimeoutConstant      = 120 * time.Second
	defaultUploadTimeoutConstant         = 10 * time.Minute
	defaultBlockSizeConstant             = int64(1 << 20)
	projectResolutionKeyConstant         = "registry.project_resolution"
	httpTimeoutKeyConstant               = "registry.http_timeout"
	uploadTimeoutKeyConstant             = "storage.upload_timeout"
	blockSizeKeyConstant                 = "storage.block_size_bytes"
	renderingTimeoutKeyConstant          = "rendering.timeout"
	renderingModeKeyConstant             = "rendering.mode"
	failurePolicyKeyConstant             = "anchoring.failure_policy"
)

// Configuration groups the settings consumed by publish-audit.
type Configuration struct {
	Registry  RegistryConfiguration  `mapstructure:"registry"`
	Storage   StorageConfiguration   `mapstructure:"storage"`
	Rendering RenderingConfiguration `mapstructure:"rendering"`
	Anchoring AnchoringConfiguration `mapstructure:"anchoring"`
}

// RegistryConfiguration lists the registry and relay endpoints.
type RegistryConfiguration struct {
	AuditEndpoint       string        `mapstructure:"audit_endpoint"`
	ProjectEndpoint     string        `mapstructure:"project_endpoint"`
	ProjectSlugEndpoint string        `mapstructure:"project_slug_endpoint"`
	ForwarderEndpoint   string        `mapstructure:"forwarder_endpoint"`
	ProjectResolution   string        `mapstructure:"project_resolution"`
	HTTPTimeout         time.Duration `mapstructure:"http_timeout"`
}

// StorageConfiguration describes the content store. ChunkSizeBytes bounds each
// uploaded CAR part and BlockSizeBytes the leaves of the report DAG.
type StorageConfiguration struct {
	BootstrapEndpoint string        `mapstructure:"bootstrap_endpoint"`
	UploadEndpoint    string        `mapstructure:"upload_endpoint"`
	GatewaySuffix     string        `mapstructure:"gateway_suffix"`
	Parallelism       int           `mapstructure:"parallelism"`
	ChunkSizeBytes    int64         `mapstructure:"chunk_size_bytes"`
	BlockSizeBytes    int64         `mapstructure:"block_size_bytes"`
	UploadTimeout     time.Duration `mapstructure:"upload_timeout"`
}

// RenderingConfiguration describes report rendering.
type RenderingConfiguration struct {
	Mode     string        `mapstructure:"mode"`
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// AnchoringConfiguration describes the on-chain contracts and chain endpoints.
type AnchoringConfiguration struct {
	CoreAddress      string                          `mapstructure:"core_address"`
	ForwarderAddress string                          `mapstructure:"forwarder_address"`
	DomainName       string                          `mapstructure:"domain_name"`
	DomainVersion    string                          `mapstructure:"domain_version"`
	FailurePolicy    string                          `mapstructure:"failure_policy"`
	ValidityWindow   time.Duration                   `mapstructure:"validity_window"`
	Chains           map[string]anchor.ChainEndpoint `mapstructure:"chains"`
}

// RegistryEndpoints converts the registry section for the registry package.
func (configuration Configuration) RegistryEndpoints() registry.Configuration {
	return registry.Configuration{
		AuditEndpoint:       configuration.Registry.AuditEndpoint,
		ProjectEndpoint:     configuration.Registry.ProjectEndpoint,
		ProjectSlugEndpoint: configuration.Registry.ProjectSlugEndpoint,
	}
}

// StoreConfiguration converts the storage section for the content store client.
func (configuration Configuration) StoreConfiguration() contentstore.Configuration {
	return contentstore.Configuration{
		BootstrapEndpoint: configuration.Storage.BootstrapEndpoint,
		UploadEndpoint:    configuration.Storage.UploadEndpoint,
		GatewaySuffix:     configuration.Storage.GatewaySuffix,
		Parallelism:       configuration.Storage.Parallelism,
		ChunkSizeBytes:    configuration.Storage.ChunkSizeBytes,
		BlockSizeBytes:    configuration.Storage.BlockSizeBytes,
	}
}

// ParseRenderingMode normalizes the rendering mode. Empty input selects remote rendering.
func ParseRenderingMode(value string) (RenderingMode, error) {
	switch RenderingMode(strings.ToLower(strings.TrimSpace(value))) {
	case "", RenderingModeRemote:
		return RenderingModeRemote, nil
	case RenderingModeChromium:
		return RenderingModeChromium, nil
	default:
		return "", failures.Newf(failures.ErrInvalidInput, configurationOperationConstant, unsupportedRenderingTemplateConstant, value)
	}
}

// OrchestratorConfiguration converts the anchoring section. Empty addresses are
// kept as zero values and rejected only when anchoring runs.
func (configuration AnchoringConfiguration) OrchestratorConfiguration() (anchor.Configuration, error) {
	coreAddress, coreError := parseOptionalAddress(coreAddressKeyConstant, configuration.CoreAddress)
	if coreError != nil {
		return anchor.Configuration{}, coreError
	}
	forwarderAddress, forwarderError := parseOptionalAddress(forwarderAddressKeyConstant, configuration.ForwarderAddress)
	if forwarderError != nil {
		return anchor.Configuration{}, forwarderError
	}
	failurePolicy, policyError := anchor.ParseFailurePolicy(configuration.FailurePolicy)
	if policyError != nil {
		return anchor.Configuration{}, policyError
	}

	chains := make(map[string]anchor.ChainEndpoint, len(configuration.Chains))
	for chainName, endpoint := range configuration.Chains {
		chains[strings.ToLower(chainName)] = endpoint
	}

	return anchor.Configuration{
		CoreAddress:      coreAddress,
		ForwarderAddress: forwarderAddress,
		DomainName:       configuration.DomainName,
		DomainVersion:    configuration.DomainVersion,
		ValidityWindow:   configuration.ValidityWindow,
		FailurePolicy:    failurePolicy,
		Chains:           chains,
	}, nil
}

func parseOptionalAddress(key string, value string) (common.Address, error) {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(trimmedValue) {
		return common.Address{}, failures.Newf(failures.ErrInvalidInput, configurationOperationConstant, invalidAddressTemplateConstant, key, value)
	}
	return common.HexToAddress(trimmedValue), nil
}

// DefaultConfigurationValues returns the built-in defaults keyed by configuration path.
func DefaultConfigurationValues() map[string]any {
	return map[string]any{
		projectResolutionKeyConstant: string(registry.ResolutionModeSlug),
		httpTimeoutKeyConstant:       defaultHTTPTimeoutConstant.String(),
		uploadTimeoutKeyConstant:     defaultUploadTimeoutConstant.String(),
		blockSizeKeyConstant:         defaultBlockSizeConstant,
		renderingTimeoutKeyConstant:  defaultRenderingTimeoutConstant.String(),
		renderingModeKeyConstant:     string(RenderingModeRemote),
		failurePolicyKeyConstant:     string(anchor.FailurePolicyFailFast),
	}
}
