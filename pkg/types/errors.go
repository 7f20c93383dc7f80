package types

import "fmt"

// ErrorType classifies analysis errors by severity and origin.
type ErrorType int

const (
	// ConfigError is fatal: malformed patterns, missing workspace paths, or
	// an invalid workspace tree abort the run before any parsing begins.
	ConfigError ErrorType = iota
	// ParseError is non-fatal and scoped to one file.
	ParseError
	// ResolutionError covers unresolved specifiers, binaries, and aliases.
	ResolutionError
	// PluginError is non-fatal: the plugin's contribution is dropped for the
	// affected workspace.
	PluginError
	// FileSystemError wraps I/O failures outside configuration validation.
	FileSystemError
)

func (t ErrorType) String() string {
	switch t {
	case ConfigError:
		return "configuration"
	case ParseError:
		return "parse"
	case ResolutionError:
		return "resolution"
	case PluginError:
		return "plugin"
	case FileSystemError:
		return "filesystem"
	default:
		return "unknown"
	}
}

// Fatal reports whether errors of this type abort the run.
func (t ErrorType) Fatal() bool {
	return t == ConfigError || t == FileSystemError
}

// AnalysisError is the structured error type used across the analyzer.
type AnalysisError struct {
	Type    ErrorType
	Message string
	File    string
	Cause   error
}

func (e *AnalysisError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s error: %s: %s", e.Type, e.File, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates a fatal configuration error.
func NewConfigError(message string, cause error) *AnalysisError {
	return &AnalysisError{Type: ConfigError, Message: message, Cause: cause}
}
