// Package errors provides the structured error kinds of stencil and a
// collector that accumulates per-task failures during a build.
package errors

import (
	"sync"

	"go.uber.org/multierr"
)

// ErrorCollector collects errors reported by concurrent tasks
type ErrorCollector struct {
	err   error
	mutex sync.Mutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{}
}

// AddError adds an error to the collector. Nil errors are ignored.
func (ec *ErrorCollector) AddError(err error) {
	if err == nil {
		return
	}
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.err = multierr.Append(ec.err, err)
}

// Err returns the combined error, or nil when nothing was collected
func (ec *ErrorCollector) Err() error {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	return ec.err
}

// GetAllErrors returns all collected errors in the order they were added
func (ec *ErrorCollector) GetAllErrors() []error {
	return Errors(ec.Err())
}

// HasErrors returns true if there are any errors
func (ec *ErrorCollector) HasErrors() bool {
	return ec.Err() != nil
}

// Errors flattens a combined error into its parts.
func Errors(err error) []error {
	return multierr.Errors(err)
}
