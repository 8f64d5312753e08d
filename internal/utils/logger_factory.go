package utils

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	standardErrorOutputPathConstant      = "stderr"
	jsonZapEncodingStringConstant        = "json"
	consoleZapEncodingStringConstant     = "console"
	unsupportedLogLevelTemplateConstant  = "unsupported log level: %s"
	unsupportedLogFormatTemplateConstant = "unsupported log format: %s"
)

// LogLevel enumerates supported logging granularities.
type LogLevel string

// Supported log levels.
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat enumerates supported logger output encodings.
type LogFormat string

// Supported log formats. Structured emits JSON lines for log collectors;
// console emits aligned, human-readable lines for pipeline progress.
const (
	LogFormatStructured LogFormat = "structured"
	LogFormatConsole    LogFormat = "console"
)

var zapLevelsByLogLevel = map[LogLevel]zapcore.Level{
	LogLevelDebug: zapcore.DebugLevel,
	LogLevelInfo:  zapcore.InfoLevel,
	LogLevelWarn:  zapcore.WarnLevel,
	LogLevelError: zapcore.ErrorLevel,
}

// ParseLogLevel normalizes a configured level and maps it onto zap.
func ParseLogLevel(value LogLevel) (zapcore.Level, error) {
	zapLevel, known := zapLevelsByLogLevel[LogLevel(normalizeLoggerSetting(string(value)))]
	if !known {
		return zapcore.InfoLevel, fmt.Errorf(unsupportedLogLevelTemplateConstant, value)
	}
	return zapLevel, nil
}

// ParseLogFormat normalizes a configured format.
func ParseLogFormat(value LogFormat) (LogFormat, error) {
	switch normalizedFormat := LogFormat(normalizeLoggerSetting(string(value))); normalizedFormat {
	case LogFormatStructured, LogFormatConsole:
		return normalizedFormat, nil
	default:
		return "", fmt.Errorf(unsupportedLogFormatTemplateConstant, value)
	}
}

// LoggerFactory builds zap.Logger instances with consistent configuration.
type LoggerFactory struct{}

// NewLoggerFactory constructs a new logger factory.
func NewLoggerFactory() *LoggerFactory {
	return &LoggerFactory{}
}

// CreateLogger produces a stderr zap.Logger honoring the requested level and
// format. The supplied fields are attached to every entry.
func (factory *LoggerFactory) CreateLogger(requestedLogLevel LogLevel, requestedLogFormat LogFormat, fields ...zap.Field) (*zap.Logger, error) {
	zapLevel, levelError := ParseLogLevel(requestedLogLevel)
	if levelError != nil {
		return nil, levelError
	}
	logFormat, formatError := ParseLogFormat(requestedLogFormat)
	if formatError != nil {
		return nil, formatError
	}

	configuration := zap.NewProductionConfig()
	configuration.Level = zap.NewAtomicLevelAt(zapLevel)
	configuration.OutputPaths = []string{standardErrorOutputPathConstant}
	configuration.ErrorOutputPaths = []string{standardErrorOutputPathConstant}

	switch logFormat {
	case LogFormatConsole:
		configuration.Encoding = consoleZapEncodingStringConstant
		configuration.DisableStacktrace = true
		configuration.DisableCaller = true
		configuration.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		configuration.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	default:
		configuration.Encoding = jsonZapEncodingStringConstant
		configuration.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	}

	return configuration.Build(zap.Fields(fields...))
}

func normalizeLoggerSetting(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
