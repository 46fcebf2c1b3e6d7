package build

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/stencil/internal/config"
	stencilerrors "github.com/conneroisu/stencil/internal/errors"
	"github.com/conneroisu/stencil/internal/hooks"
	"github.com/conneroisu/stencil/internal/logging"
	"github.com/conneroisu/stencil/internal/renderer"
	"github.com/conneroisu/stencil/internal/types"
)

// Result describes one build
type Result struct {
	ID string
	// Sitemap holds the manifest lines, empty when the sitemap is disabled
	Sitemap []string
	// Rendered lists the output paths written, in detail order
	Rendered []string
	// Copied lists the asset destinations, in glob order
	Copied []string
	// Warnings holds failed AfterCopy hooks; they do not fail the build
	Warnings []error
	// Errors holds every failed task
	Errors   []error
	Duration time.Duration
}

// Err combines the task errors of the build
func (r *Result) Err() error {
	return multierr.Combine(r.Errors...)
}

// Builder drives full builds: sitemap, renders, asset copies and the
// completion hook.
type Builder struct {
	Options  config.Options
	Renderer *Renderer
	Copier   *Copier
	Notifier logging.Notifier
	Logger   logging.Logger
	Metrics  *Metrics
}

// NewBuilder wires a renderer and a copier sharing opts, notifier and metrics.
func NewBuilder(opts config.Options, engine renderer.Engine, notifier logging.Notifier, logger logging.Logger, metrics *Metrics) *Builder {
	if notifier == nil {
		notifier = logging.NopNotifier{}
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Builder{
		Options:  opts,
		Renderer: NewRenderer(engine, opts, notifier, logger, metrics),
		Copier:   NewCopier(opts, notifier, metrics),
		Notifier: notifier,
		Logger:   logger.WithComponent("build"),
		Metrics:  metrics,
	}
}

// Build renders details and copies the assets under the root directories of
// entries. A failing task never stops the others: the returned error is
// non-nil when any task failed and the Result lists every failure.
//
// The sitemap, when enabled, is computed from details and written before any
// render starts. The Done hook runs once after both phases.
func (b *Builder) Build(ctx context.Context, entries []string, details []types.TemplateDetail) (*Result, error) {
	start := time.Now()
	result := &Result{ID: uuid.NewString()}
	logger := b.Logger.With("build_id", result.ID)
	errs := stencilerrors.NewErrorCollector()

	logger.Info(ctx, "build started", "details", len(details), "out", b.Options.Out)

	if b.Options.Sitemap {
		result.Sitemap = b.Renderer.SitemapLines(details, b.Options.SitemapPrefix)
		if !b.Options.NoWrite {
			if p, err := WriteSitemap(b.Options.Out, result.Sitemap); err != nil {
				b.Notifier.Error(ctx, err, filepath.Join(b.Options.Out, SitemapFile))
				errs.AddError(err)
			} else {
				logger.Debug(ctx, "sitemap written", "path", p, "urls", len(result.Sitemap))
			}
		}
	}

	result.Rendered = b.renderAll(ctx, details, errs)

	assets, err := b.Copier.Assets(entries)
	if err != nil {
		errs.AddError(err)
	}
	copied, err := b.Copier.CopyAll(ctx, assets)
	result.Copied = copied
	for _, e := range stencilerrors.Errors(err) {
		if IsHookWarning(e) {
			result.Warnings = append(result.Warnings, e)
		} else {
			errs.AddError(e)
		}
	}

	result.Errors = errs.GetAllErrors()
	if hook := b.Options.Hooks.Done; hook != nil {
		report := hooks.Report{
			BuildID: result.ID,
			Sitemap: strings.Join(result.Sitemap, "\n"),
			Options: b.Options,
			Details: details,
			Errors:  result.Errors,
		}
		if err := hook.Done(ctx, report); err != nil {
			result.Errors = append(result.Errors, err)
		}
	}

	result.Duration = time.Since(start)
	buildErr := result.Err()
	b.Metrics.ObserveBuild(result.Duration, buildErr)
	logger.Info(ctx, "build finished",
		"rendered", len(result.Rendered),
		"copied", len(result.Copied),
		"errors", len(result.Errors),
		"warnings", len(result.Warnings),
		"duration", result.Duration)
	return result, buildErr
}

// renderAll renders details on a bounded pool and returns the output paths
// written, in detail order.
func (b *Builder) renderAll(ctx context.Context, details []types.TemplateDetail, errs *stencilerrors.ErrorCollector) []string {
	written := make([]string, len(details))

	var g errgroup.Group
	g.SetLimit(workers(b.Options))
	for i, detail := range details {
		g.Go(func() error {
			output, err := b.Renderer.Apply(ctx, detail)
			if err != nil {
				b.Notifier.Error(ctx, err, detail.Template)
				errs.AddError(err)
				return nil
			}
			written[i] = output
			return nil
		})
	}
	_ = g.Wait()

	out := make([]string, 0, len(details))
	for _, p := range written {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
