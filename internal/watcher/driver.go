package watcher

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/semaphore"

	"github.com/conneroisu/stencil/internal/build"
	"github.com/conneroisu/stencil/internal/data"
	stencilerrors "github.com/conneroisu/stencil/internal/errors"
	"github.com/conneroisu/stencil/internal/logging"
	"github.com/conneroisu/stencil/internal/paths"
	"github.com/conneroisu/stencil/internal/types"
)

// State is the lifecycle state of a watch session
type State int

const (
	StateInitializing State = iota
	StateWatching
	StateClosed
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateWatching:
		return "watching"
	case StateClosed:
		return "closed"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Driver keeps the output tree in sync with the events of a Source.
type Driver struct {
	Source    Source
	Expansion *data.Expansion
	Renderer  *build.Renderer
	Copier    *build.Copier
	Notifier  logging.Notifier
	Logger    logging.Logger

	queue *keyedQueue
	sem   *semaphore.Weighted

	state     State
	stateMu   sync.RWMutex
	ready     chan struct{}
	readyOnce sync.Once
}

// NewDriver creates a driver running at most workers event handlers at once.
// Renderer and Copier carry the session options.
func NewDriver(source Source, expansion *data.Expansion, renderer *build.Renderer, copier *build.Copier, workers int, notifier logging.Notifier, logger logging.Logger) *Driver {
	if notifier == nil {
		notifier = logging.NopNotifier{}
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if workers < 1 {
		workers = 1
	}
	return &Driver{
		Source:    source,
		Expansion: expansion,
		Renderer:  renderer,
		Copier:    copier,
		Notifier:  notifier,
		Logger:    logger.WithComponent("watch"),
		queue:     newKeyedQueue(),
		sem:       semaphore.NewWeighted(int64(workers)),
		ready:     make(chan struct{}),
	}
}

// State returns the current lifecycle state
func (d *Driver) State() State {
	d.stateMu.RLock()
	defer d.stateMu.RUnlock()
	return d.state
}

func (d *Driver) setState(s State) {
	d.stateMu.Lock()
	d.state = s
	d.stateMu.Unlock()
}

// Ready is closed once the initial scan completed and the session is live
func (d *Driver) Ready() <-chan struct{} {
	return d.ready
}

// Run starts the source and dispatches its events until ctx is cancelled or
// the source fails. Cancellation waits for in-flight handlers and returns
// nil; a source failure returns a watch error.
func (d *Driver) Run(ctx context.Context) error {
	if err := d.Source.Start(ctx); err != nil {
		d.setState(StateClosed)
		return stencilerrors.NewWatchError("cannot start watcher", err)
	}
	defer func() {
		if err := d.Source.Stop(); err != nil {
			d.Logger.Warn(ctx, err, "failed to stop watcher")
		}
	}()

	events := d.Source.Events()
	for {
		select {
		case <-ctx.Done():
			d.queue.Wait()
			d.setState(StateStopped)
			d.Logger.Info(ctx, "watch stopped")
			return nil
		case ev, ok := <-events:
			if !ok {
				return d.close(ctx, stencilerrors.NewWatchError("event stream closed", nil))
			}
			switch ev.Kind {
			case EventReady:
				d.setState(StateWatching)
				d.readyOnce.Do(func() { close(d.ready) })
				d.Logger.Info(ctx, "watching for changes")
			case EventError:
				return d.close(ctx, stencilerrors.NewWatchError("watch subsystem failed", ev.Err))
			default:
				d.enqueue(ctx, ev)
			}
		}
	}
}

func (d *Driver) close(ctx context.Context, err error) error {
	d.queue.Wait()
	d.setState(StateClosed)
	d.Logger.Error(ctx, err, "watch closed")
	return err
}

// enqueue schedules ev behind earlier events it could collide with: events
// for the same path, a directory removal above it, or for a directory
// removal every earlier event in its subtree. Handlers run detached from ctx
// so cancellation lets queued work finish.
func (d *Driver) enqueue(ctx context.Context, ev Event) {
	taskCtx := context.WithoutCancel(ctx)
	d.queue.Push(paths.Canonical(ev.Path), d.scopeOf(ev), func() {
		if err := d.sem.Acquire(taskCtx, 1); err != nil {
			return
		}
		defer d.sem.Release(1)
		_ = d.Handle(taskCtx, ev)
	})
}

// scopeOf returns how much of the output tree handling ev may touch
func (d *Driver) scopeOf(ev Event) scope {
	switch {
	case ev.Kind == EventUnlinkDir:
		return scopeTree
	case paths.IsTemplate(ev.Path, d.Renderer.Options.Ext) && paths.IsPartial(ev.Path):
		return scopeWide
	default:
		return scopePath
	}
}

// Handle applies a single event to the output tree. Failures are reported
// to the notifier and returned.
func (d *Driver) Handle(ctx context.Context, ev Event) error {
	opts := d.Renderer.Options
	d.Logger.Debug(ctx, "event", "kind", ev.Kind.String(), "path", ev.Path)

	switch ev.Kind {
	case EventUnlink:
		output := paths.MapAsset(ev.Path, opts.Out)
		if paths.IsTemplate(ev.Path, opts.Ext) {
			output = paths.MapOutput(ev.Path, opts.Out, opts.Ext)
		}
		return d.remove(ctx, ev.Path, output, os.Remove)
	case EventUnlinkDir:
		return d.remove(ctx, ev.Path, paths.MapAsset(ev.Path, opts.Out), os.RemoveAll)
	case EventAdd, EventChange:
		if !paths.IsTemplate(ev.Path, opts.Ext) {
			_, err := d.Copier.Copy(ctx, ev.Path)
			if err != nil && !build.IsHookWarning(err) {
				d.Notifier.Error(ctx, err, ev.Path)
			}
			return err
		}
		return d.rerender(ctx, ev.Path)
	}
	return nil
}

// Affected returns the details to re-render after path changed: its own
// details, or for a plain partial every detail under the same root. Paths
// outside the known entry set affect nothing.
func (d *Driver) Affected(path string) []types.TemplateDetail {
	if d.Expansion == nil || !d.Expansion.Known(path) {
		return nil
	}
	details := d.Expansion.DetailsFor(path)
	if len(details) == 0 && paths.IsPartial(path) {
		details = d.Expansion.SameRoot(path)
	}
	return details
}

func (d *Driver) rerender(ctx context.Context, path string) error {
	var errs []error
	for _, detail := range d.Affected(path) {
		if _, err := d.Renderer.Apply(ctx, detail); err != nil {
			d.Notifier.Error(ctx, err, detail.Template)
			errs = append(errs, err)
		}
	}
	return multierr.Combine(errs...)
}

func (d *Driver) remove(ctx context.Context, src, output string, rm func(string) error) error {
	if d.Renderer.Options.NoWrite {
		return nil
	}
	start := time.Now()
	err := rm(output)
	if errors.Is(err, os.ErrNotExist) {
		err = nil
	}
	if err != nil {
		err = stencilerrors.FileOperationError(stencilerrors.ErrCodeRemoveFailed, output, "cannot remove output", err)
	}
	d.Renderer.Metrics.ObserveTask(build.TaskRemove, time.Since(start), err)
	if err != nil {
		d.Notifier.Error(ctx, err, src)
		return err
	}
	d.Notifier.Deleted(ctx, src, output)
	return nil
}
