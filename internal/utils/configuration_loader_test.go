package utils_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trustblock/trustblock-cli/internal/utils"
)

const (
	testEnvironmentPrefixConstant       = "TESTTRUSTBLOCK"
	testConfigurationNameConstant       = "config"
	testConfigurationTypeConstant       = "yaml"
	testConfigFileNameConstant          = "config.yaml"
	testEndpointKeyConstant             = "registry.audit_endpoint"
	testEndpointTemplateConstant        = "registry:\n  audit_endpoint: %s\n"
	testDefaultEndpointConstant         = "https://defaults.example.test/api/audit/"
	testEmbeddedEndpointConstant        = "https://embedded.example.test/api/audit/"
	testFileEndpointConstant            = "https://file.example.test/api/audit/"
	testEnvironmentEndpointConstant     = "https://environment.example.test/api/audit/"
	testSearchedEndpointConstant        = "https://searched.example.test/api/audit/"
	testEndpointEnvironmentNameConstant = "TESTTRUSTBLOCK_REGISTRY_AUDIT_ENDPOINT"
)

type endpointConfigurationFixture struct {
	Registry struct {
		AuditEndpoint string `mapstructure:"audit_endpoint"`
	} `mapstructure:"registry"`
}

func TestConfigurationLoaderLayerPrecedence(testInstance *testing.T) {
	testCases := []struct {
		name                string
		embeddedEndpoint    string
		fileEndpoint        string
		environmentEndpoint string
		expectedEndpoint    string
	}{
		{name: "defaults_only", expectedEndpoint: testDefaultEndpointConstant},
		{name: "embedded_over_defaults", embeddedEndpoint: testEmbeddedEndpointConstant, expectedEndpoint: testEmbeddedEndpointConstant},
		{name: "file_over_embedded", embeddedEndpoint: testEmbeddedEndpointConstant, fileEndpoint: testFileEndpointConstant, expectedEndpoint: testFileEndpointConstant},
		{name: "environment_over_file", embeddedEndpoint: testEmbeddedEndpointConstant, fileEndpoint: testFileEndpointConstant, environmentEndpoint: testEnvironmentEndpointConstant, expectedEndpoint: testEnvironmentEndpointConstant},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subTest *testing.T) {
			configurationFilePath := ""
			if len(testCase.fileEndpoint) > 0 {
				configurationFilePath = filepath.Join(subTest.TempDir(), testConfigFileNameConstant)
				require.NoError(subTest, os.WriteFile(configurationFilePath, []byte(fmt.Sprintf(testEndpointTemplateConstant, testCase.fileEndpoint)), 0o600))
			}
			if len(testCase.environmentEndpoint) > 0 {
				subTest.Setenv(testEndpointEnvironmentNameConstant, testCase.environmentEndpoint)
			}

			configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{subTest.TempDir()})
			if len(testCase.embeddedEndpoint) > 0 {
				configurationLoader.SetEmbeddedConfiguration([]byte(fmt.Sprintf(testEndpointTemplateConstant, testCase.embeddedEndpoint)), testConfigurationTypeConstant)
			}

			var loadedConfiguration endpointConfigurationFixture
			metadata, loadError := configurationLoader.LoadConfiguration(configurationFilePath, map[string]any{testEndpointKeyConstant: testDefaultEndpointConstant}, &loadedConfiguration)
			require.NoError(subTest, loadError)
			require.Equal(subTest, testCase.expectedEndpoint, loadedConfiguration.Registry.AuditEndpoint)
			require.Equal(subTest, configurationFilePath, metadata.ConfigFileUsed)
		})
	}
}

func TestConfigurationLoaderSearchPaths(testInstance *testing.T) {
	testCases := []struct {
		name          string
		selectedIndex int
	}{
		{name: "first_search_path", selectedIndex: 0},
		{name: "second_search_path", selectedIndex: 1},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subTest *testing.T) {
			searchPaths := []string{subTest.TempDir(), subTest.TempDir()}
			configurationFilePath := filepath.Join(searchPaths[testCase.selectedIndex], testConfigFileNameConstant)
			require.NoError(subTest, os.WriteFile(configurationFilePath, []byte(fmt.Sprintf(testEndpointTemplateConstant, testSearchedEndpointConstant)), 0o600))

			configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, searchPaths)

			var loadedConfiguration endpointConfigurationFixture
			metadata, loadError := configurationLoader.LoadConfiguration("", map[string]any{testEndpointKeyConstant: testDefaultEndpointConstant}, &loadedConfiguration)
			require.NoError(subTest, loadError)
			require.Equal(subTest, testSearchedEndpointConstant, loadedConfiguration.Registry.AuditEndpoint)
			require.Equal(subTest, configurationFilePath, metadata.ConfigFileUsed)
		})
	}
}

func TestConfigurationLoaderRejectsMissingExplicitFile(testInstance *testing.T) {
	configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, nil)

	var loadedConfiguration endpointConfigurationFixture
	_, loadError := configurationLoader.LoadConfiguration(filepath.Join(testInstance.TempDir(), testConfigFileNameConstant), nil, &loadedConfiguration)
	require.Error(testInstance, loadError)
}

func TestConfigurationLoaderEnvironmentVariableName(testInstance *testing.T) {
	testCases := []struct {
		name             string
		prefix           string
		configurationKey string
		expectedName     string
	}{
		{name: "nested_key", prefix: "TRUSTBLOCK", configurationKey: "anchoring.chains.polygon.rpc_url", expectedName: "TRUSTBLOCK_ANCHORING_CHAINS_POLYGON_RPC_URL"},
		{name: "dashed_key", prefix: "trustblock", configurationKey: "anchoring.failure-policy", expectedName: "TRUSTBLOCK_ANCHORING_FAILURE_POLICY"},
		{name: "no_prefix", prefix: "", configurationKey: "common.log_level", expectedName: "COMMON_LOG_LEVEL"},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subTest *testing.T) {
			configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testCase.prefix, nil)
			require.Equal(subTest, testCase.expectedName, configurationLoader.EnvironmentVariableName(testCase.configurationKey))
		})
	}
}

type typedConfigurationFixture struct {
	Registry typedRegistryFixture `mapstructure:"registry"`
}

type typedRegistryFixture struct {
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	Chains      []string      `mapstructure:"chains"`
}

func TestConfigurationLoaderDecodesTypedValues(testInstance *testing.T) {
	testCases := []struct {
		name                  string
		fileContent           string
		environmentTimeout    string
		expectedTimeout       time.Duration
		expectedChainSequence []string
	}{
		{
			name:                  "file_values_decode",
			fileContent:           "registry:\n  http_timeout: 45s\n  chains: ethereum,polygon\n",
			expectedTimeout:       45 * time.Second,
			expectedChainSequence: []string{"ethereum", "polygon"},
		},
		{
			name:                  "environment_duration_decodes",
			fileContent:           "registry:\n  chains: avalanche\n",
			environmentTimeout:    "2m",
			expectedTimeout:       2 * time.Minute,
			expectedChainSequence: []string{"avalanche"},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subTest *testing.T) {
			configurationFilePath := filepath.Join(subTest.TempDir(), testConfigFileNameConstant)
			require.NoError(subTest, os.WriteFile(configurationFilePath, []byte(testCase.fileContent), 0o600))

			configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, nil)
			if len(testCase.environmentTimeout) > 0 {
				subTest.Setenv(configurationLoader.EnvironmentVariableName("registry.http_timeout"), testCase.environmentTimeout)
			}

			defaultValues := map[string]any{
				"registry.http_timeout": "60s",
				"registry.chains":       "",
			}

			var loadedConfiguration typedConfigurationFixture
			_, loadError := configurationLoader.LoadConfiguration(configurationFilePath, defaultValues, &loadedConfiguration)
			require.NoError(subTest, loadError)
			require.Equal(subTest, testCase.expectedTimeout, loadedConfiguration.Registry.HTTPTimeout)
			require.Equal(subTest, testCase.expectedChainSequence, loadedConfiguration.Registry.Chains)
		})
	}
}
