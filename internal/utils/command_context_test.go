package utils_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustblock/trustblock-cli/internal/utils"
)

const (
	testContextConfigurationPathConstant = "/tmp/trustblock/config.yaml"
	testContextRunIdentifierConstant     = "0d9c7a4e-6a0b-4f5c-9d4e-7c1f2a3b4c5d"
)

func TestCommandContextAccessorRoundTrip(testInstance *testing.T) {
	accessor := utils.NewCommandContextAccessor()

	executionContext := accessor.WithConfigurationFilePath(context.Background(), testContextConfigurationPathConstant)
	executionContext = accessor.WithRunIdentifier(executionContext, testContextRunIdentifierConstant)

	configurationPath, configurationPathAvailable := accessor.ConfigurationFilePath(executionContext)
	require.True(testInstance, configurationPathAvailable)
	require.Equal(testInstance, testContextConfigurationPathConstant, configurationPath)

	runIdentifier, runIdentifierAvailable := accessor.RunIdentifier(executionContext)
	require.True(testInstance, runIdentifierAvailable)
	require.Equal(testInstance, testContextRunIdentifierConstant, runIdentifier)
}

func TestCommandContextAccessorMissingValues(testInstance *testing.T) {
	accessor := utils.NewCommandContextAccessor()

	_, configurationPathAvailable := accessor.ConfigurationFilePath(context.Background())
	require.False(testInstance, configurationPathAvailable)

	_, runIdentifierAvailable := accessor.RunIdentifier(accessor.WithRunIdentifier(context.Background(), ""))
	require.False(testInstance, runIdentifierAvailable)
}

func TestCommandContextAccessorKeepsValuesIndependent(testInstance *testing.T) {
	accessor := utils.NewCommandContextAccessor()

	executionContext := accessor.WithRunIdentifier(context.Background(), testContextRunIdentifierConstant)
	_, configurationPathAvailable := accessor.ConfigurationFilePath(executionContext)
	require.False(testInstance, configurationPathAvailable)

	overriddenContext := accessor.WithRunIdentifier(executionContext, testContextConfigurationPathConstant)
	originalIdentifier, _ := accessor.RunIdentifier(executionContext)
	overriddenIdentifier, _ := accessor.RunIdentifier(overriddenContext)
	require.Equal(testInstance, testContextRunIdentifierConstant, originalIdentifier)
	require.Equal(testInstance, testContextConfigurationPathConstant, overriddenIdentifier)
}
