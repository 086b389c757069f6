// Package utils exposes the ambient helpers shared by the minibash command.
//
// ConfigurationLoader layers the embedded defaults, an optional file and
// MINIBASH_ environment overrides through Viper. LoggerFactory builds the
// session logger, and CommandContextAccessor carries the configuration path
// and session identifier through the cobra command context.
package utils
