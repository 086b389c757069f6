package utils

import "context"

const (
	configurationFilePathContextKeyConstant = commandContextKey("configurationFilePath")
	sessionIdentifierContextKeyConstant     = commandContextKey("sessionIdentifier")
)

type commandContextKey string

// CommandContextAccessor manages values stored in command execution contexts.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor instance.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationFilePath attaches the configuration file path to the provided context.
func (accessor CommandContextAccessor) WithConfigurationFilePath(parentContext context.Context, configurationFilePath string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, configurationFilePathContextKeyConstant, configurationFilePath)
}

// ConfigurationFilePath extracts the configuration file path from the provided context.
func (accessor CommandContextAccessor) ConfigurationFilePath(executionContext context.Context) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	configurationFilePath, configurationFilePathAvailable := executionContext.Value(configurationFilePathContextKeyConstant).(string)
	if !configurationFilePathAvailable {
		return "", false
	}
	return configurationFilePath, true
}

// WithSessionIdentifier attaches the shell session identifier to the provided context.
func (accessor CommandContextAccessor) WithSessionIdentifier(parentContext context.Context, sessionIdentifier string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, sessionIdentifierContextKeyConstant, sessionIdentifier)
}

// SessionIdentifier extracts the shell session identifier from the provided context.
func (accessor CommandContextAccessor) SessionIdentifier(executionContext context.Context) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	sessionIdentifier, sessionIdentifierAvailable := executionContext.Value(sessionIdentifierContextKeyConstant).(string)
	if !sessionIdentifierAvailable || len(sessionIdentifier) == 0 {
		return "", false
	}
	return sessionIdentifier, true
}
