package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeConfig ErrorType = "config"
	ErrorTypeData   ErrorType = "data"
	ErrorTypeRender ErrorType = "render"
	ErrorTypeIO     ErrorType = "io"
	ErrorTypeWatch  ErrorType = "watch"
)

// Common error codes.
const (
	ErrCodeConfigInvalid   = "ERR_CONFIG_INVALID"
	ErrCodeMissingInput    = "ERR_MISSING_INPUT"
	ErrCodeMalformedJSON   = "ERR_MALFORMED_JSON"
	ErrCodeNotFound        = "ERR_NOT_FOUND"
	ErrCodeUnparsable      = "ERR_UNPARSABLE"
	ErrCodeRenderFailed    = "ERR_RENDER_FAILED"
	ErrCodeHookFailed      = "ERR_HOOK_FAILED"
	ErrCodeMkdirFailed     = "ERR_MKDIR_FAILED"
	ErrCodeWriteFailed     = "ERR_WRITE_FAILED"
	ErrCodeCopyFailed      = "ERR_COPY_FAILED"
	ErrCodeRemoveFailed    = "ERR_REMOVE_FAILED"
	ErrCodeWatchSubsystem  = "ERR_WATCH_SUBSYSTEM"
	ErrCodeSitemapFailed   = "ERR_SITEMAP_FAILED"
	ErrCodeGlobFailed      = "ERR_GLOB_FAILED"
)

// StencilError is a structured error type with context.
type StencilError struct {
	Type    ErrorType
	Code    string
	Message string
	Cause   error
	// Path is the path as configured or as seen by the pipeline
	Path string
	// ResolvedPath is the absolute form of Path when it differs
	ResolvedPath string
}

// Error implements the error interface.
func (e *StencilError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Path != "" {
		location := e.Path
		if e.ResolvedPath != "" && e.ResolvedPath != e.Path {
			location += fmt.Sprintf(" (%s)", e.ResolvedPath)
		}
		parts = append(parts, location)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *StencilError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *StencilError) Is(target error) bool {
	var t *StencilError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithPath adds path information.
func (e *StencilError) WithPath(path, resolved string) *StencilError {
	e.Path = path
	e.ResolvedPath = resolved

	return e
}

// Error creation functions

// NewConfigError creates a configuration error. Configuration errors are
// fatal to the current invocation.
func NewConfigError(code, message string, cause error) *StencilError {
	return &StencilError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewDataResolutionError creates an error for a bound data file that is
// missing or unparsable.
func NewDataResolutionError(code, path, resolved string, cause error) *StencilError {
	return &StencilError{
		Type:         ErrorTypeData,
		Code:         code,
		Message:      "cannot load injected data",
		Cause:        cause,
		Path:         path,
		ResolvedPath: resolved,
	}
}

// NewRenderError creates a render error for one template.
func NewRenderError(code, template string, cause error) *StencilError {
	return &StencilError{
		Type:    ErrorTypeRender,
		Code:    code,
		Message: "render failed",
		Cause:   cause,
		Path:    template,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, path, message string, cause error) *StencilError {
	return &StencilError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
		Path:    path,
	}
}

// NewWatchError creates a watch subsystem error. It terminates the watch
// session it is raised in.
func NewWatchError(message string, cause error) *StencilError {
	return &StencilError{
		Type:    ErrorTypeWatch,
		Code:    ErrCodeWatchSubsystem,
		Message: message,
		Cause:   cause,
	}
}

// IsType checks if any error in the chain has the specified type.
func IsType(err error, errType ErrorType) bool {
	var te *StencilError
	for err != nil {
		if errors.As(err, &te) {
			if te.Type == errType {
				return true
			}
			err = te.Cause
			continue
		}
		return false
	}

	return false
}

// IsConfigError checks if an error is configuration-related.
func IsConfigError(err error) bool {
	return IsType(err, ErrorTypeConfig)
}

// IsRenderError checks if an error is render-related.
func IsRenderError(err error) bool {
	return IsType(err, ErrorTypeRender)
}

// AsStencilError returns the first StencilError in the chain of err.
func AsStencilError(err error) (*StencilError, bool) {
	var se *StencilError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
