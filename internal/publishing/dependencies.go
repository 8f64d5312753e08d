package publishing

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/trustblock/trustblock-cli/internal/anchor"
	"github.com/trustblock/trustblock-cli/internal/artifact"
	"github.com/trustblock/trustblock-cli/internal/contentstore"
	"github.com/trustblock/trustblock-cli/internal/registry"
	"github.com/trustblock/trustblock-cli/internal/transport"
	"github.com/trustblock/trustblock-cli/internal/ui"
)

// DependenciesFactory builds pipeline collaborators from configuration.
type DependenciesFactory func(configuration Configuration, logger *zap.Logger) (Dependencies, error)

// NewDependencies wires the production collaborators: a transport client per
// remote service so each honors its own timeout, the configured renderer and
// project resolution mode, and an orchestrator dialing chains over JSON-RPC.
func NewDependencies(configuration Configuration, logger *zap.Logger) (Dependencies, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	registryClient := newTransportClient(configuration.Registry.HTTPTimeout, defaultHTTPTimeoutConstant, logger)

	renderer, rendererError := newRenderer(configuration.Rendering, logger)
	if rendererError != nil {
		return Dependencies{}, rendererError
	}

	resolutionMode, resolutionError := registry.ParseResolutionMode(configuration.Registry.ProjectResolution)
	if resolutionError != nil {
		return Dependencies{}, resolutionError
	}
	projectResolver, projectResolverError := registry.NewProjectResolver(resolutionMode, registryClient, configuration.RegistryEndpoints(), logger)
	if projectResolverError != nil {
		return Dependencies{}, projectResolverError
	}

	anchorConfiguration, anchorConfigurationError := configuration.Anchoring.OrchestratorConfiguration()
	if anchorConfigurationError != nil {
		return Dependencies{}, anchorConfigurationError
	}

	reporter := ui.NewConsoleProgressReporter(logger)
	relayer := anchor.NewRelayer(registryClient, configuration.Registry.ForwarderEndpoint)

	return Dependencies{
		ArtifactResolver: artifact.NewResolver(renderer, artifact.NewPDFValidator(nil), logger),
		Uploader:         newUploader(configuration, reporter.UploadProgressed, logger),
		ProjectResolver:  projectResolver,
		Publisher:        registry.NewPublisher(registryClient, configuration.RegistryEndpoints(), logger),
		Anchorer:         anchor.NewOrchestrator(anchorConfiguration, anchor.DialEthereum, relayer, logger, anchor.WithChainProgress(reporter.ChainProgressed)),
		Reporter:         reporter,
	}, nil
}

// newTransportClient bounds every exchange of one client by timeout, falling
// back to fallbackTimeout when unset.
func newTransportClient(timeout time.Duration, fallbackTimeout time.Duration, logger *zap.Logger) *transport.Client {
	if timeout <= 0 {
		timeout = fallbackTimeout
	}
	return transport.NewClient(&http.Client{Timeout: timeout}, logger)
}

// newRenderer applies rendering.timeout to whichever renderer is configured.
// Remote rendering gets a dedicated client so the registry timeout does not cut it short.
func newRenderer(rendering RenderingConfiguration, logger *zap.Logger) (artifact.Renderer, error) {
	renderingMode, renderingError := ParseRenderingMode(rendering.Mode)
	if renderingError != nil {
		return nil, renderingError
	}
	if renderingMode == RenderingModeChromium {
		return artifact.NewChromiumRenderer(rendering.Timeout), nil
	}
	renderingClient := newTransportClient(rendering.Timeout, defaultRenderingTimeoutConstant, logger)
	return artifact.NewRemoteRenderer(renderingClient, rendering.Endpoint), nil
}

// newUploader bounds each token exchange and CAR part by storage.upload_timeout.
func newUploader(configuration Configuration, progress contentstore.ProgressFunc, logger *zap.Logger) *contentstore.Client {
	storageClient := newTransportClient(configuration.Storage.UploadTimeout, defaultUploadTimeoutConstant, logger)
	return contentstore.NewClient(storageClient, configuration.StoreConfiguration(), progress, logger)
}
