package registry_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustblock/trustblock-cli/internal/audit"
	"github.com/trustblock/trustblock-cli/internal/failures"
	"github.com/trustblock/trustblock-cli/internal/registry"
)

func testProject() audit.Project {
	return audit.Project{
		Name:    "Acme",
		Links:   audit.Links{Website: "https://app.acme.example.org/launch", Twitter: "https://twitter.com/acme"},
		Contact: audit.Contact{Email: "security@acme.example.org"},
	}
}

func TestDeriveSlug(testInstance *testing.T) {
	testCases := []struct {
		name         string
		website      string
		expectedSlug string
		expectError  bool
	}{
		{name: "subdomain", website: "https://app.acme.example.org/launch", expectedSlug: "app-acme-example-org"},
		{name: "port_ignored", website: "http://Acme.IO:8443", expectedSlug: "acme-io"},
		{name: "empty", website: "", expectError: true},
		{name: "no_host", website: "acme", expectError: true},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			slug, slugError := registry.DeriveSlug(testCase.website)
			if testCase.expectError {
				require.ErrorIs(testInstance, slugError, failures.ErrInvalidInput)
				return
			}
			require.NoError(testInstance, slugError)
			require.Equal(testInstance, testCase.expectedSlug, slug)
		})
	}
}

func TestParseResolutionMode(testInstance *testing.T) {
	mode, parseError := registry.ParseResolutionMode(" Search ")
	require.NoError(testInstance, parseError)
	require.Equal(testInstance, registry.ResolutionModeSearch, mode)

	mode, parseError = registry.ParseResolutionMode("")
	require.NoError(testInstance, parseError)
	require.Equal(testInstance, registry.ResolutionModeSlug, mode)

	_, parseError = registry.ParseResolutionMode("graph")
	require.ErrorIs(testInstance, parseError, failures.ErrInvalidInput)
}

func TestSlugProjectResolverResolve(testInstance *testing.T) {
	lookupKey := "GET " + testProjectSlugPathConstant + "app-acme-example-org"
	createKey := "POST " + testProjectPathConstant

	testCases := []struct {
		name              string
		responses         map[string]stubbedResponse
		expectedProjectID string
		expectedKind      error
		expectedCreations int
	}{
		{
			name:              "existing_project_string_id",
			responses:         map[string]stubbedResponse{lookupKey: {statusCode: http.StatusOK, body: `{"id":"p-17","name":"Acme"}`}},
			expectedProjectID: "p-17",
		},
		{
			name:              "existing_project_numeric_id",
			responses:         map[string]stubbedResponse{lookupKey: {statusCode: http.StatusOK, body: `{"id":42}`}},
			expectedProjectID: "42",
		},
		{
			name: "unknown_project_is_created_once",
			responses: map[string]stubbedResponse{
				lookupKey: {statusCode: http.StatusNotFound, body: `{"error":"not found"}`},
				createKey: {statusCode: http.StatusCreated, body: `{"id":"p-new"}`},
			},
			expectedProjectID: "p-new",
			expectedCreations: 1,
		},
		{
			name: "create_unauthorized",
			responses: map[string]stubbedResponse{
				lookupKey: {statusCode: http.StatusNotFound},
				createKey: {statusCode: http.StatusUnauthorized, body: `{"error":"bad key"}`},
			},
			expectedKind:      failures.ErrAuthFailure,
			expectedCreations: 1,
		},
		{
			name: "create_rejected",
			responses: map[string]stubbedResponse{
				lookupKey: {statusCode: http.StatusNotFound},
				createKey: {statusCode: http.StatusUnprocessableEntity, body: `{"error":"invalid links"}`},
			},
			expectedKind:      failures.ErrUpstreamFailure,
			expectedCreations: 1,
		},
		{
			name:         "lookup_server_error",
			responses:    map[string]stubbedResponse{lookupKey: {statusCode: http.StatusInternalServerError, body: "boom"}},
			expectedKind: failures.ErrUpstreamFailure,
		},
		{
			name:         "lookup_without_id",
			responses:    map[string]stubbedResponse{lookupKey: {statusCode: http.StatusOK, body: `{"name":"Acme"}`}},
			expectedKind: failures.ErrUpstreamFailure,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			registryState, server := newFakeRegistry(testInstance, testCase.responses)
			resolver, resolverError := registry.NewProjectResolver(registry.ResolutionModeSlug, registryClient(server), registryConfiguration(server), nil)
			require.NoError(testInstance, resolverError)

			projectID, resolveError := resolver.Resolve(context.Background(), testProject(), testCredentialConstant)

			creations := registryState.callsTo("POST", testProjectPathConstant)
			require.Len(testInstance, creations, testCase.expectedCreations)
			for _, creation := range creations {
				require.Equal(testInstance, testCredentialConstant, creation.credential)
				createdProject := map[string]any{}
				require.NoError(testInstance, json.Unmarshal([]byte(creation.body), &createdProject))
				require.Equal(testInstance, "Acme", createdProject["name"])
				require.NotContains(testInstance, createdProject, "id")
			}

			lookups := registryState.callsTo("GET", testProjectSlugPathConstant+"app-acme-example-org")
			require.Len(testInstance, lookups, 1)
			require.Equal(testInstance, testCredentialConstant, lookups[0].credential)

			if testCase.expectedKind != nil {
				require.ErrorIs(testInstance, resolveError, testCase.expectedKind)
				return
			}
			require.NoError(testInstance, resolveError)
			require.Equal(testInstance, testCase.expectedProjectID, projectID)
		})
	}
}

func TestSlugProjectResolverRequiresWebsite(testInstance *testing.T) {
	registryState, server := newFakeRegistry(testInstance, nil)
	resolver, resolverError := registry.NewProjectResolver(registry.ResolutionModeSlug, registryClient(server), registryConfiguration(server), nil)
	require.NoError(testInstance, resolverError)

	project := testProject()
	project.Links.Website = ""
	_, resolveError := resolver.Resolve(context.Background(), project, testCredentialConstant)
	require.ErrorIs(testInstance, resolveError, failures.ErrInvalidInput)
	require.Empty(testInstance, registryState.calls)
}

func TestSearchProjectResolverResolve(testInstance *testing.T) {
	searchKey := "GET " + testProjectPathConstant
	createKey := "POST " + testProjectPathConstant

	testCases := []struct {
		name              string
		responses         map[string]stubbedResponse
		expectedProjectID string
		expectedKind      error
		expectedCreations int
	}{
		{
			name: "exact_match",
			responses: map[string]stubbedResponse{
				searchKey: {statusCode: http.StatusOK, body: `{"projectsFound":[{"id":"p-0","name":"Acme Labs"},{"id":"p-1","name":"Acme"}]}`},
			},
			expectedProjectID: "p-1",
		},
		{
			name: "null_result_creates",
			responses: map[string]stubbedResponse{
				searchKey: {statusCode: http.StatusOK, body: `{"projectsFound":null}`},
				createKey: {statusCode: http.StatusCreated, body: `{"id":"p-new"}`},
			},
			expectedProjectID: "p-new",
			expectedCreations: 1,
		},
		{
			name: "unmatched_result_creates",
			responses: map[string]stubbedResponse{
				searchKey: {statusCode: http.StatusOK, body: `{"projectsFound":[{"id":"p-0","name":"Acme Labs"}]}`},
				createKey: {statusCode: http.StatusCreated, body: `{"id":7}`},
			},
			expectedProjectID: "7",
			expectedCreations: 1,
		},
		{
			name:         "search_unauthorized",
			responses:    map[string]stubbedResponse{searchKey: {statusCode: http.StatusUnauthorized, body: "no key"}},
			expectedKind: failures.ErrAuthFailure,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			registryState, server := newFakeRegistry(testInstance, testCase.responses)
			resolver, resolverError := registry.NewProjectResolver(registry.ResolutionModeSearch, registryClient(server), registryConfiguration(server), nil)
			require.NoError(testInstance, resolverError)

			projectID, resolveError := resolver.Resolve(context.Background(), testProject(), testCredentialConstant)

			searches := registryState.callsTo("GET", testProjectPathConstant)
			require.Len(testInstance, searches, 1)
			require.Equal(testInstance, "query=Acme", searches[0].rawQuery)
			require.Len(testInstance, registryState.callsTo("POST", testProjectPathConstant), testCase.expectedCreations)

			if testCase.expectedKind != nil {
				require.ErrorIs(testInstance, resolveError, testCase.expectedKind)
				return
			}
			require.NoError(testInstance, resolveError)
			require.Equal(testInstance, testCase.expectedProjectID, projectID)
		})
	}
}
