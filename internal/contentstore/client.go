package contentstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ipfs/go-cid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/trustblock/trustblock-cli/internal/artifact"
	"github.com/trustblock/trustblock-cli/internal/failures"
	"github.com/trustblock/trustblock-cli/internal/transport"
)

const (
	uploadOperationConstant           = "upload report"
	bootstrapOperationConstant        = "exchange upload token"
	cleanupOperationConstant          = "remove rendered report"
	uploadPathSuffixConstant          = "car"
	authorizationHeaderConstant       = "Authorization"
	bearerTemplateConstant            = "Bearer %s"
	nameHeaderConstant                = "X-Name"
	contentTypeHeaderConstant         = "Content-Type"
	carContentTypeConstant            = "application/vnd.ipld.car"
	defaultParallelismConstant        = 2
	defaultChunkSizeConstant          = int64(100 << 20)
	openArtifactTemplateConstant      = "open %s: %w"
	statArtifactTemplateConstant      = "stat %s: %w"
	emptyArtifactTemplateConstant     = "%s is empty"
	packArtifactTemplateConstant      = "pack %s: %w"
	emptyTokenMessageConstant         = "store token exchange returned no token"
	missingIdentifierMessageConstant  = "store returned no content identifier"
	rootMismatchTemplateConstant      = "store acknowledged %s but the report root is %s"
	cleanupTemplateConstant           = "uploaded %s as %s but could not remove %s: %w"
	wrappedCauseTemplateConstant      = "%w: %w"
	logMessageUploadStartedConstant   = "uploading report"
	logMessageUploadCompletedConstant = "report uploaded"
	logMessagePartUploadedConstant    = "CAR part uploaded"
	logFieldPathConstant              = "path"
	logFieldSizeConstant              = "size"
	logFieldPartsConstant             = "parts"
	logFieldBlocksConstant            = "blocks"
	logFieldPartIndexConstant         = "part"
	logFieldContentIdentifierConstant = "cid"
	logFieldURLConstant               = "url"
)

var (
	// ErrUploadAuthFailed indicates the credential could not be exchanged for a store token.
	ErrUploadAuthFailed = errors.New(emptyTokenMessageConstant)
)

// Configuration describes the store endpoints and upload tuning.
type Configuration struct {
	BootstrapEndpoint string
	UploadEndpoint    string
	GatewaySuffix     string
	Parallelism       int
	// ChunkSizeBytes bounds each uploaded CAR part.
	ChunkSizeBytes int64
	// BlockSizeBytes is the leaf size of the report DAG.
	BlockSizeBytes int64
}

// UploadResult identifies the uploaded report.
type UploadResult struct {
	ContentIdentifier string
	URL               string
}

// HTTPClient is the subset of transport.Client used by the store client.
type HTTPClient interface {
	Do(executionContext context.Context, request transport.Request) (transport.Response, error)
}

// Client uploads report artifacts.
type Client struct {
	httpClient    HTTPClient
	configuration Configuration
	progress      ProgressFunc
	logger        *zap.Logger
}

// NewClient constructs a Client. Non-positive parallelism, chunk or block sizes use the defaults.
func NewClient(httpClient HTTPClient, configuration Configuration, progress ProgressFunc, logger *zap.Logger) *Client {
	if configuration.Parallelism <= 0 {
		configuration.Parallelism = defaultParallelismConstant
	}
	if configuration.ChunkSizeBytes <= 0 {
		configuration.ChunkSizeBytes = defaultChunkSizeConstant
	}
	if configuration.BlockSizeBytes <= 0 {
		configuration.BlockSizeBytes = defaultBlockSizeConstant
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{httpClient: httpClient, configuration: configuration, progress: progress, logger: logger}
}

type bootstrapResponse struct {
	APIKey string `json:"apiKey"`
}

type uploadResponse struct {
	ContentIdentifier string `json:"cid"`
}

// Upload stores the report as a content-addressed DAG and returns the root
// identifier of the whole file with its public URL. The DAG is sent as CAR
// parts of at most ChunkSizeBytes, each carrying the same root. The scratch
// directory of a rendered report is removed afterwards; a removal failure is
// returned as an I/O error alongside the populated result.
func (client *Client) Upload(executionContext context.Context, reportArtifact artifact.Artifact, credential string) (UploadResult, error) {
	path := reportArtifact.Path
	reportFile, openError := os.Open(path)
	if openError != nil {
		return UploadResult{}, failures.New(failures.ErrIO, uploadOperationConstant, fmt.Errorf(openArtifactTemplateConstant, path, openError))
	}
	defer reportFile.Close()

	fileInfo, statError := reportFile.Stat()
	if statError != nil {
		return UploadResult{}, failures.New(failures.ErrIO, uploadOperationConstant, fmt.Errorf(statArtifactTemplateConstant, path, statError))
	}
	if fileInfo.Size() == 0 {
		return UploadResult{}, failures.Newf(failures.ErrInvalidInput, uploadOperationConstant, emptyArtifactTemplateConstant, path)
	}

	reportDAG, dagError := buildFileDAG(reportFile, fileInfo.Size(), client.configuration.BlockSizeBytes)
	if dagError != nil {
		return UploadResult{}, failures.New(failures.ErrIO, uploadOperationConstant, fmt.Errorf(packArtifactTemplateConstant, path, dagError))
	}
	parts, splitError := splitCAR(reportDAG, client.configuration.ChunkSizeBytes)
	if splitError != nil {
		return UploadResult{}, failures.New(failures.ErrInvalidInput, uploadOperationConstant, fmt.Errorf(packArtifactTemplateConstant, path, splitError))
	}

	storeToken, tokenError := client.exchangeToken(executionContext, credential)
	if tokenError != nil {
		return UploadResult{}, tokenError
	}

	var transferSize int64
	for _, part := range parts {
		transferSize += part.size
	}
	client.logger.Info(
		logMessageUploadStartedConstant,
		zap.String(logFieldPathConstant, path),
		zap.Int64(logFieldSizeConstant, fileInfo.Size()),
		zap.Int(logFieldBlocksConstant, len(reportDAG.blocks)),
		zap.Int(logFieldPartsConstant, len(parts)),
	)

	fileName := filepath.Base(path)
	tracker := newProgressTracker(fileName, transferSize, client.progress)

	uploadGroup, groupContext := errgroup.WithContext(executionContext)
	uploadGroup.SetLimit(client.configuration.Parallelism)
	for partIndex, part := range parts {
		uploadGroup.Go(func() error {
			partReader := countingReader{reader: part.reader(reportFile), tracker: tracker}
			acknowledgedIdentifier, partError := client.uploadPart(groupContext, storeToken, fileName, partReader, part.size)
			if partError != nil {
				return partError
			}
			if rootError := requireSameRoot(acknowledgedIdentifier, reportDAG.root); rootError != nil {
				return rootError
			}
			client.logger.Debug(logMessagePartUploadedConstant, zap.Int(logFieldPartIndexConstant, partIndex), zap.String(logFieldContentIdentifierConstant, acknowledgedIdentifier))
			return nil
		})
	}
	if waitError := uploadGroup.Wait(); waitError != nil {
		return UploadResult{}, waitError
	}

	rootIdentifier := reportDAG.root.String()
	result := UploadResult{
		ContentIdentifier: rootIdentifier,
		URL:               BuildGatewayURL(rootIdentifier, client.configuration.GatewaySuffix),
	}
	client.logger.Info(logMessageUploadCompletedConstant, zap.String(logFieldContentIdentifierConstant, result.ContentIdentifier), zap.String(logFieldURLConstant, result.URL))

	if len(reportArtifact.ScratchDirectory) > 0 {
		if removeError := os.RemoveAll(reportArtifact.ScratchDirectory); removeError != nil {
			return result, failures.New(failures.ErrIO, cleanupOperationConstant, fmt.Errorf(cleanupTemplateConstant, path, result.ContentIdentifier, reportArtifact.ScratchDirectory, removeError))
		}
	}

	return result, nil
}

// requireSameRoot accepts either CID version of the root as long as the multihash matches.
func requireSameRoot(acknowledgedIdentifier string, root cid.Cid) error {
	acknowledged, decodeError := cid.Decode(acknowledgedIdentifier)
	if decodeError != nil {
		return failures.New(failures.ErrUpstreamFailure, uploadOperationConstant, decodeError)
	}
	if !bytes.Equal(acknowledged.Hash(), root.Hash()) {
		return failures.Newf(failures.ErrUpstreamFailure, uploadOperationConstant, rootMismatchTemplateConstant, acknowledgedIdentifier, root.String())
	}
	return nil
}

func (client *Client) exchangeToken(executionContext context.Context, credential string) (string, error) {
	response, requestError := client.httpClient.Do(executionContext, transport.Request{
		Operation:  bootstrapOperationConstant,
		Method:     http.MethodPost,
		Endpoint:   client.configuration.BootstrapEndpoint,
		Credential: credential,
	})
	if requestError != nil {
		return "", requestError
	}
	if !response.Succeeded() {
		statusError := transport.NewStatusError(bootstrapOperationConstant, client.configuration.BootstrapEndpoint, response.StatusCode, response.Body)
		return "", failures.New(failures.ErrAuthFailure, bootstrapOperationConstant, fmt.Errorf(wrappedCauseTemplateConstant, ErrUploadAuthFailed, statusError))
	}

	decoded := bootstrapResponse{}
	if decodeError := response.DecodeJSON(client.configuration.BootstrapEndpoint, &decoded); decodeError != nil {
		return "", failures.New(failures.ErrAuthFailure, bootstrapOperationConstant, fmt.Errorf(wrappedCauseTemplateConstant, ErrUploadAuthFailed, decodeError))
	}
	if len(strings.TrimSpace(decoded.APIKey)) == 0 {
		return "", failures.New(failures.ErrAuthFailure, bootstrapOperationConstant, ErrUploadAuthFailed)
	}
	return decoded.APIKey, nil
}

func (client *Client) uploadPart(executionContext context.Context, storeToken string, fileName string, part io.Reader, partSize int64) (string, error) {
	uploadEndpoint := strings.TrimSuffix(client.configuration.UploadEndpoint, "/") + "/" + uploadPathSuffixConstant
	response, requestError := client.httpClient.Do(executionContext, transport.Request{
		Operation: uploadOperationConstant,
		Method:    http.MethodPost,
		Endpoint:  uploadEndpoint,
		Headers: map[string]string{
			authorizationHeaderConstant: fmt.Sprintf(bearerTemplateConstant, storeToken),
			nameHeaderConstant:          fileName,
			contentTypeHeaderConstant:   carContentTypeConstant,
		},
		Body:     part,
		BodySize: partSize,
	})
	if requestError != nil {
		return "", requestError
	}
	if !response.Succeeded() {
		return "", transport.NewStatusError(uploadOperationConstant, uploadEndpoint, response.StatusCode, response.Body)
	}

	decoded := uploadResponse{}
	if decodeError := response.DecodeJSON(uploadEndpoint, &decoded); decodeError != nil {
		return "", failures.New(failures.ErrUpstreamFailure, uploadOperationConstant, decodeError)
	}
	if len(decoded.ContentIdentifier) == 0 {
		return "", failures.Newf(failures.ErrUpstreamFailure, uploadOperationConstant, missingIdentifierMessageConstant)
	}
	if validationError := ValidateContentIdentifier(decoded.ContentIdentifier); validationError != nil {
		return "", validationError
	}
	return decoded.ContentIdentifier, nil
}
