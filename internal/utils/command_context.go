package utils

import "context"

// commandContextKey identifies one CLI-scoped value stored on a command context.
type commandContextKey int

const (
	configurationFilePathContextKey commandContextKey = iota
	runIdentifierContextKey
)

// CommandContextAccessor stores and reads the values a CLI invocation shares
// with every pipeline stage: the configuration file in use and the run id
// that correlates registry, storage and relayer requests.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor instance.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationFilePath records the configuration file the run was loaded from.
func (accessor CommandContextAccessor) WithConfigurationFilePath(parentContext context.Context, configurationFilePath string) context.Context {
	return withContextString(parentContext, configurationFilePathContextKey, configurationFilePath)
}

// ConfigurationFilePath returns the recorded configuration file, if any.
func (accessor CommandContextAccessor) ConfigurationFilePath(executionContext context.Context) (string, bool) {
	return contextString(executionContext, configurationFilePathContextKey)
}

// WithRunIdentifier records the correlation id shared by every request of one run.
func (accessor CommandContextAccessor) WithRunIdentifier(parentContext context.Context, runIdentifier string) context.Context {
	return withContextString(parentContext, runIdentifierContextKey, runIdentifier)
}

// RunIdentifier returns the recorded correlation id, if any.
func (accessor CommandContextAccessor) RunIdentifier(executionContext context.Context) (string, bool) {
	return contextString(executionContext, runIdentifierContextKey)
}

func withContextString(parentContext context.Context, key commandContextKey, value string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, key, value)
}

// contextString treats an empty stored value as absent.
func contextString(executionContext context.Context, key commandContextKey) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	storedValue, _ := executionContext.Value(key).(string)
	return storedValue, len(storedValue) > 0
}
