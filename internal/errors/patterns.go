package errors

import (
	"fmt"
)

// Pattern helpers for the errors raised by the CLI and the pipeline.

// MissingInputError reports a required CLI input that was not supplied.
func MissingInputError(input, hint string) *StencilError {
	return NewConfigError(ErrCodeMissingInput,
		fmt.Sprintf("missing required %s: %s", input, hint), nil)
}

// MalformedJSONError reports inline JSON handed to a flag that did not parse.
func MalformedJSONError(flagName string, cause error) *StencilError {
	return NewConfigError(ErrCodeMalformedJSON,
		fmt.Sprintf("--%s is not a valid JSON object", flagName), cause)
}

// ConfigurationError reports an invalid configuration value.
func ConfigurationError(setting, message string, value interface{}) *StencilError {
	return NewConfigError(ErrCodeConfigInvalid,
		fmt.Sprintf("invalid configuration for %s: %s (got %v)", setting, message, value), nil)
}

// FileOperationError creates an I/O error for one file task.
func FileOperationError(code, filePath, message string, cause error) *StencilError {
	return NewIOError(code, filePath, message, cause)
}
