package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/trustblock/trustblock-cli/internal/audit"
	"github.com/trustblock/trustblock-cli/internal/failures"
	"github.com/trustblock/trustblock-cli/internal/transport"
)

const (
	deriveSlugOperationConstant      = "derive project slug"
	lookupProjectOperationConstant   = "look up project"
	searchProjectOperationConstant   = "search project"
	createProjectOperationConstant   = "create project"
	searchQueryParameterConstant     = "query"
	hostSeparatorConstant            = "."
	slugSeparatorConstant            = "-"
	websiteRequiredMessageConstant   = "project website is required for slug lookup"
	websiteInvalidTemplateConstant   = "project website %q has no domain"
	identifierDecodeTemplateConstant = "decode project id from %s: %w"
	logMessageProjectFoundConstant   = "project found"
	logMessageProjectCreatedConstant = "project created"
	logFieldProjectIDConstant        = "project_id"
	logFieldProjectNameConstant      = "project_name"
	logFieldSlugConstant             = "slug"
)

// ProjectResolver returns the registry id of a project, creating the project when absent.
type ProjectResolver interface {
	Resolve(executionContext context.Context, project audit.Project, credential string) (string, error)
}

// HTTPClient is the subset of transport.Client used by the registry integrations.
type HTTPClient interface {
	Do(executionContext context.Context, request transport.Request) (transport.Response, error)
}

// NewProjectResolver selects the resolver variant for mode.
func NewProjectResolver(mode ResolutionMode, client HTTPClient, configuration Configuration, logger *zap.Logger) (ProjectResolver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	creator := projectCreator{client: client, endpoint: configuration.ProjectEndpoint, logger: logger}
	switch mode {
	case ResolutionModeSlug, "":
		return &SlugProjectResolver{client: client, endpoint: configuration.ProjectSlugEndpoint, creator: creator, logger: logger}, nil
	case ResolutionModeSearch:
		return &SearchProjectResolver{client: client, endpoint: configuration.ProjectEndpoint, creator: creator, logger: logger}, nil
	default:
		return nil, failures.New(failures.ErrInvalidInput, resolutionModeOperationConstant, fmt.Errorf(unsupportedResolutionTemplateConstant, mode))
	}
}

// DeriveSlug turns a website URL into the registry slug: the host name with dots replaced by hyphens.
func DeriveSlug(website string) (string, error) {
	trimmedWebsite := strings.TrimSpace(website)
	if len(trimmedWebsite) == 0 {
		return "", failures.Newf(failures.ErrInvalidInput, deriveSlugOperationConstant, websiteRequiredMessageConstant)
	}
	parsedWebsite, parseError := url.Parse(trimmedWebsite)
	if parseError != nil {
		return "", failures.New(failures.ErrInvalidInput, deriveSlugOperationConstant, parseError)
	}
	hostName := strings.ToLower(parsedWebsite.Hostname())
	if len(hostName) == 0 {
		return "", failures.Newf(failures.ErrInvalidInput, deriveSlugOperationConstant, websiteInvalidTemplateConstant, website)
	}
	return strings.ReplaceAll(hostName, hostSeparatorConstant, slugSeparatorConstant), nil
}

// SlugProjectResolver looks projects up by the slug derived from their website.
type SlugProjectResolver struct {
	client   HTTPClient
	endpoint string
	creator  projectCreator
	logger   *zap.Logger
}

type slugLookupResponse struct {
	ID json.RawMessage `json:"id"`
}

// Resolve performs GET {slugEndpoint}{slug}: 404 creates the project, 200 returns the body id.
func (resolver *SlugProjectResolver) Resolve(executionContext context.Context, project audit.Project, credential string) (string, error) {
	slug, slugError := DeriveSlug(project.Links.Website)
	if slugError != nil {
		return "", slugError
	}

	lookupEndpoint := resolver.endpoint + slug
	response, requestError := resolver.client.Do(executionContext, transport.Request{
		Operation:  lookupProjectOperationConstant,
		Method:     http.MethodGet,
		Endpoint:   lookupEndpoint,
		Credential: credential,
	})
	if requestError != nil {
		return "", requestError
	}

	switch response.StatusCode {
	case http.StatusNotFound:
		return resolver.creator.create(executionContext, project, credential)
	case http.StatusOK:
		decoded := slugLookupResponse{}
		if decodeError := response.DecodeJSON(lookupEndpoint, &decoded); decodeError != nil {
			return "", failures.New(failures.ErrUpstreamFailure, lookupProjectOperationConstant, decodeError)
		}
		projectID, identifierError := decodeIdentifier(decoded.ID)
		if identifierError != nil {
			return "", failures.New(failures.ErrUpstreamFailure, lookupProjectOperationConstant, fmt.Errorf(identifierDecodeTemplateConstant, lookupEndpoint, identifierError))
		}
		resolver.logger.Info(logMessageProjectFoundConstant, zap.String(logFieldSlugConstant, slug), zap.String(logFieldProjectIDConstant, projectID))
		return projectID, nil
	default:
		return "", transport.NewStatusError(lookupProjectOperationConstant, lookupEndpoint, response.StatusCode, response.Body)
	}
}

// SearchProjectResolver looks projects up by exact name through the search endpoint.
type SearchProjectResolver struct {
	client   HTTPClient
	endpoint string
	creator  projectCreator
	logger   *zap.Logger
}

type searchResponse struct {
	ProjectsFound []searchMatch `json:"projectsFound"`
}

type searchMatch struct {
	ID   json.RawMessage `json:"id"`
	Name string          `json:"name"`
}

// Resolve performs GET {projectEndpoint}?query=name and creates the project when nothing matches the name.
func (resolver *SearchProjectResolver) Resolve(executionContext context.Context, project audit.Project, credential string) (string, error) {
	response, requestError := resolver.client.Do(executionContext, transport.Request{
		Operation:  searchProjectOperationConstant,
		Method:     http.MethodGet,
		Endpoint:   resolver.endpoint,
		Query:      url.Values{searchQueryParameterConstant: []string{project.Name}},
		Credential: credential,
	})
	if requestError != nil {
		return "", requestError
	}
	if response.StatusCode != http.StatusOK {
		return "", transport.NewStatusError(searchProjectOperationConstant, resolver.endpoint, response.StatusCode, response.Body)
	}

	decoded := searchResponse{}
	if decodeError := response.DecodeJSON(resolver.endpoint, &decoded); decodeError != nil {
		return "", failures.New(failures.ErrUpstreamFailure, searchProjectOperationConstant, decodeError)
	}

	for _, match := range decoded.ProjectsFound {
		if match.Name != project.Name {
			continue
		}
		projectID, identifierError := decodeIdentifier(match.ID)
		if identifierError != nil {
			return "", failures.New(failures.ErrUpstreamFailure, searchProjectOperationConstant, fmt.Errorf(identifierDecodeTemplateConstant, resolver.endpoint, identifierError))
		}
		resolver.logger.Info(logMessageProjectFoundConstant, zap.String(logFieldProjectNameConstant, project.Name), zap.String(logFieldProjectIDConstant, projectID))
		return projectID, nil
	}

	return resolver.creator.create(executionContext, project, credential)
}

type projectCreator struct {
	client   HTTPClient
	endpoint string
	logger   *zap.Logger
}

type createProjectResponse struct {
	ID json.RawMessage `json:"id"`
}

// create POSTs the project: 201 yields the id, 401 is an authorization failure, anything else fails.
func (creator projectCreator) create(executionContext context.Context, project audit.Project, credential string) (string, error) {
	project.ID = ""
	response, requestError := creator.client.Do(executionContext, transport.Request{
		Operation:  createProjectOperationConstant,
		Method:     http.MethodPost,
		Endpoint:   creator.endpoint,
		Credential: credential,
		JSONBody:   project,
	})
	if requestError != nil {
		return "", requestError
	}

	switch response.StatusCode {
	case http.StatusCreated:
		decoded := createProjectResponse{}
		if decodeError := response.DecodeJSON(creator.endpoint, &decoded); decodeError != nil {
			return "", failures.New(failures.ErrUpstreamFailure, createProjectOperationConstant, decodeError)
		}
		projectID, identifierError := decodeIdentifier(decoded.ID)
		if identifierError != nil {
			return "", failures.New(failures.ErrUpstreamFailure, createProjectOperationConstant, fmt.Errorf(identifierDecodeTemplateConstant, creator.endpoint, identifierError))
		}
		creator.logger.Info(logMessageProjectCreatedConstant, zap.String(logFieldProjectNameConstant, project.Name), zap.String(logFieldProjectIDConstant, projectID))
		return projectID, nil
	case http.StatusUnauthorized:
		return "", failures.New(failures.ErrAuthFailure, createProjectOperationConstant, transport.NewStatusError(createProjectOperationConstant, creator.endpoint, response.StatusCode, response.Body))
	default:
		statusError := transport.NewStatusError(createProjectOperationConstant, creator.endpoint, response.StatusCode, response.Body)
		return "", failures.New(failures.ErrUpstreamFailure, createProjectOperationConstant, statusError)
	}
}
