package build

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/natefinch/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/stencil/internal/config"
	stencilerrors "github.com/conneroisu/stencil/internal/errors"
	"github.com/conneroisu/stencil/internal/logging"
	"github.com/conneroisu/stencil/internal/paths"
)

// Copier copies static assets into the output tree
type Copier struct {
	Options  config.Options
	Notifier logging.Notifier
	Metrics  *Metrics
}

// NewCopier creates a copier. A nil notifier is replaced by a silent one.
func NewCopier(opts config.Options, notifier logging.Notifier, metrics *Metrics) *Copier {
	if notifier == nil {
		notifier = logging.NopNotifier{}
	}
	return &Copier{Options: opts, Notifier: notifier, Metrics: metrics}
}

// Copy copies src to its mapped location, replacing any existing file, and
// returns the destination. An AfterCopy hook failure does not undo the copy;
// it is reported to the notifier and returned as a hook warning, see
// IsHookWarning.
func (c *Copier) Copy(ctx context.Context, src string) (dst string, err error) {
	start := time.Now()
	dst = paths.MapAsset(src, c.Options.Out)
	if c.Options.NoWrite {
		return dst, nil
	}
	defer func() {
		if !IsHookWarning(err) {
			c.Metrics.ObserveTask(TaskCopy, time.Since(start), err)
		}
	}()

	if err := copyFile(src, dst); err != nil {
		return "", err
	}
	c.Notifier.Copied(ctx, src, dst)

	if hook := c.Options.Hooks.AfterCopy; hook != nil {
		if err := hook.AfterCopy(ctx, src, dst); err != nil {
			warning := stencilerrors.FileOperationError(stencilerrors.ErrCodeHookFailed, src, "after-copy hook failed", err)
			c.Notifier.Error(ctx, warning, src)
			return dst, warning
		}
	}
	return dst, nil
}

// CopyAll copies files in parallel and returns the destinations of the
// successful copies in input order. Failures and hook warnings of every file
// are combined into the returned error.
func (c *Copier) CopyAll(ctx context.Context, files []string) ([]string, error) {
	copied := make([]string, len(files))
	errs := stencilerrors.NewErrorCollector()

	var g errgroup.Group
	g.SetLimit(workers(c.Options))
	for i, src := range files {
		g.Go(func() error {
			dst, err := c.Copy(ctx, src)
			if err != nil {
				errs.AddError(err)
				if !IsHookWarning(err) {
					c.Notifier.Error(ctx, err, src)
					return nil
				}
			}
			copied[i] = dst
			return nil
		})
	}
	_ = g.Wait()

	out := make([]string, 0, len(files))
	for _, dst := range copied {
		if dst != "" {
			out = append(out, dst)
		}
	}
	return out, errs.Err()
}

// Assets globs root+CopyPattern for every root directory of entries and
// returns the non-template files found outside the output root, without
// duplicates.
func (c *Copier) Assets(entries []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, root := range paths.RootDirs(entries) {
		pattern := filepath.ToSlash(root) + c.Options.CopyPattern
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, stencilerrors.NewConfigError(stencilerrors.ErrCodeGlobFailed, "invalid copy pattern "+pattern, err)
		}
		for _, match := range matches {
			if seen[match] || paths.IsTemplate(match, c.Options.Ext) || paths.Within(match, c.Options.Out) {
				continue
			}
			if info, err := os.Stat(match); err != nil || !info.Mode().IsRegular() {
				continue
			}
			seen[match] = true
			out = append(out, match)
		}
	}
	return out, nil
}

// IsHookWarning reports whether err only carries a failed AfterCopy hook
func IsHookWarning(err error) bool {
	se, ok := stencilerrors.AsStencilError(err)
	return ok && se.Type == stencilerrors.ErrorTypeIO && se.Code == stencilerrors.ErrCodeHookFailed
}

// copyFile atomically copies src to dst, keeping the permission of src
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return stencilerrors.FileOperationError(stencilerrors.ErrCodeCopyFailed, src, "cannot open asset", err)
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return stencilerrors.FileOperationError(stencilerrors.ErrCodeCopyFailed, src, "cannot stat asset", err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return stencilerrors.FileOperationError(stencilerrors.ErrCodeMkdirFailed, dst, "cannot create output directory", err)
	}
	if err := atomic.WriteFile(dst, in); err != nil {
		return stencilerrors.FileOperationError(stencilerrors.ErrCodeCopyFailed, src, "cannot copy asset to "+dst, err)
	}
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return stencilerrors.FileOperationError(stencilerrors.ErrCodeCopyFailed, src, "cannot set permissions of "+dst, err)
	}
	return nil
}

func workers(opts config.Options) int {
	if opts.Workers < 1 {
		return 1
	}
	return opts.Workers
}
