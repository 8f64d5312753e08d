// Package utils exposes reusable helpers consumed by multiple commands.
//
// It houses the Viper-backed ConfigurationLoader, the zap LoggerFactory, and the
// CommandContextAccessor that carries the configuration file path and the run
// correlation identifier through cobra command contexts.
package utils
