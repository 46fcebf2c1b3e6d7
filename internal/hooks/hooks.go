// Package hooks defines the extension points a build calls into: a
// pre-persist transform of rendered HTML, a post-copy notification and a
// completion callback.
//
// Every hook may be implemented synchronously or asynchronously. Async
// implementations return a channel that the build awaits through the same
// interface method, so callers never branch on the flavour.
package hooks

import (
	"context"
	"fmt"

	"github.com/conneroisu/stencil/internal/types"
)

// BeforeSave transforms rendered output before it is persisted. The returned
// string replaces rendered.
type BeforeSave interface {
	BeforeSave(ctx context.Context, rendered, outputRoot, templatePath string) (string, error)
}

// AfterCopy is called once an asset has been copied to dst.
type AfterCopy interface {
	AfterCopy(ctx context.Context, src, dst string) error
}

// Report is what the completion hook receives
type Report struct {
	// BuildID identifies the build
	BuildID string
	// Sitemap is the newline-joined manifest content, empty when disabled
	Sitemap string
	// Options holds the build options the build ran with
	Options interface{}
	// Details is the full detail list of the build
	Details []types.TemplateDetail
	// Errors lists every task failure of the build
	Errors []error
}

// Done is called once after the render and copy phases of a build,
// including builds with failed tasks.
type Done interface {
	Done(ctx context.Context, report Report) error
}

// Set groups the hooks of one build. Nil members are skipped.
type Set struct {
	BeforeSave BeforeSave
	AfterCopy  AfterCopy
	Done       Done
}

// Result is the value an async hook delivers
type Result struct {
	Value string
	Err   error
}

// Await blocks until ch delivers or ctx is done. A channel closed without a
// value is an error.
func Await(ctx context.Context, ch <-chan Result) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-ch:
		if !ok {
			return "", fmt.Errorf("hook closed its result channel without a value")
		}
		return res.Value, res.Err
	}
}

// AwaitErr blocks until ch delivers or ctx is done. A closed channel means
// success.
func AwaitErr(ctx context.Context, ch <-chan error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-ch:
		return err
	}
}

// BeforeSaveFunc adapts a function to BeforeSave
type BeforeSaveFunc func(ctx context.Context, rendered, outputRoot, templatePath string) (string, error)

// BeforeSave implements BeforeSave
func (f BeforeSaveFunc) BeforeSave(ctx context.Context, rendered, outputRoot, templatePath string) (string, error) {
	return f(ctx, rendered, outputRoot, templatePath)
}

// AsyncBeforeSaveFunc adapts a function delivering its result on a channel
type AsyncBeforeSaveFunc func(ctx context.Context, rendered, outputRoot, templatePath string) <-chan Result

// BeforeSave implements BeforeSave by awaiting the channel
func (f AsyncBeforeSaveFunc) BeforeSave(ctx context.Context, rendered, outputRoot, templatePath string) (string, error) {
	return Await(ctx, f(ctx, rendered, outputRoot, templatePath))
}

// AfterCopyFunc adapts a function to AfterCopy
type AfterCopyFunc func(ctx context.Context, src, dst string) error

// AfterCopy implements AfterCopy
func (f AfterCopyFunc) AfterCopy(ctx context.Context, src, dst string) error {
	return f(ctx, src, dst)
}

// AsyncAfterCopyFunc adapts a function delivering its error on a channel
type AsyncAfterCopyFunc func(ctx context.Context, src, dst string) <-chan error

// AfterCopy implements AfterCopy by awaiting the channel
func (f AsyncAfterCopyFunc) AfterCopy(ctx context.Context, src, dst string) error {
	return AwaitErr(ctx, f(ctx, src, dst))
}

// DoneFunc adapts a function to Done
type DoneFunc func(ctx context.Context, report Report) error

// Done implements Done
func (f DoneFunc) Done(ctx context.Context, report Report) error {
	return f(ctx, report)
}

// Chain runs BeforeSave hooks in order, feeding each the output of the
// previous one. The first failure stops the chain.
type Chain []BeforeSave

// BeforeSave implements BeforeSave
func (c Chain) BeforeSave(ctx context.Context, rendered, outputRoot, templatePath string) (string, error) {
	out := rendered
	for i, hook := range c {
		if hook == nil {
			continue
		}
		var err error
		out, err = hook.BeforeSave(ctx, out, outputRoot, templatePath)
		if err != nil {
			return "", fmt.Errorf("before-save hook %d: %w", i, err)
		}
	}
	return out, nil
}

// Transform names
const (
	TransformNone      = ""
	TransformNormalize = "normalize"
)

// ForTransform returns the built-in BeforeSave hook selected by name, or
// nil for TransformNone.
func ForTransform(name string) (BeforeSave, error) {
	switch name {
	case TransformNone:
		return nil, nil
	case TransformNormalize:
		return HTMLNormalizer{}, nil
	default:
		return nil, fmt.Errorf("unknown html transform %q", name)
	}
}

// WithBeforeSave returns a copy of s with hook run after the existing
// BeforeSave, if any.
func (s Set) WithBeforeSave(hook BeforeSave) Set {
	switch {
	case hook == nil:
	case s.BeforeSave == nil:
		s.BeforeSave = hook
	default:
		s.BeforeSave = Chain{s.BeforeSave, hook}
	}
	return s
}
