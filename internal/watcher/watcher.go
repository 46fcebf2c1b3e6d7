// Package watcher keeps an output tree in sync with its sources: a
// recursive fsnotify watcher with per-path debouncing feeds a Driver that
// re-renders, re-copies or removes the affected outputs.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/conneroisu/stencil/internal/logging"
	"github.com/conneroisu/stencil/internal/paths"
)

// EventKind represents the type of a source change
type EventKind int

const (
	EventAdd EventKind = iota
	EventChange
	EventUnlink
	EventUnlinkDir
	EventError
	EventReady
)

// String returns the string representation of the EventKind
func (k EventKind) String() string {
	switch k {
	case EventAdd:
		return "add"
	case EventChange:
		return "change"
	case EventUnlink:
		return "unlink"
	case EventUnlinkDir:
		return "unlinkDir"
	case EventError:
		return "error"
	case EventReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Event is one change under a watched root
type Event struct {
	Kind EventKind
	Path string
	// Err is set for EventError
	Err error
}

// FileFilter determines if a path should be watched
type FileFilter func(path string) bool

// Source delivers watch events. FileWatcher is the fsnotify implementation.
type Source interface {
	// Start subscribes to the roots and delivers EventReady once the initial
	// scan is done.
	Start(ctx context.Context) error
	Events() <-chan Event
	Stop() error
}

// FileWatcher watches root directories recursively. Newly created
// directories join the subscription and their files are reported as added.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	roots     []string
	debouncer *Debouncer
	logger    logging.Logger
	filters   []FileFilter
	events    chan Event
	done      chan struct{}
	stopOnce  sync.Once
	// dirs tracks watched directories so removals can be reported as
	// EventUnlinkDir once they are gone from disk
	dirs  map[string]bool
	mutex sync.RWMutex
}

// NewFileWatcher creates a watcher over roots. Bursts of events for one
// path within debounce are coalesced into the latest one.
func NewFileWatcher(roots []string, debounce time.Duration, logger logging.Logger) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	fw := &FileWatcher{
		watcher: watcher,
		roots:   roots,
		logger:  logger.WithComponent("watcher"),
		events:  make(chan Event, 64),
		done:    make(chan struct{}),
		dirs:    make(map[string]bool),
	}
	fw.debouncer = NewDebouncer(debounce, fw.emit)
	return fw, nil
}

// AddFilter adds a path filter. All filters must accept a path for its
// events to be delivered.
func (fw *FileWatcher) AddFilter(filter FileFilter) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.filters = append(fw.filters, filter)
}

// Events returns the event stream
func (fw *FileWatcher) Events() <-chan Event {
	return fw.events
}

// Start subscribes to every root, then starts the event loop and delivers
// EventReady.
func (fw *FileWatcher) Start(ctx context.Context) error {
	for _, root := range fw.roots {
		if _, err := fw.addRecursive(root, false); err != nil {
			return fmt.Errorf("watch %s: %w", root, err)
		}
	}
	go fw.watchLoop(ctx)
	fw.emit(Event{Kind: EventReady})
	return nil
}

// Stop stops the watcher and cleans up resources
func (fw *FileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		close(fw.done)
		fw.debouncer.Stop()
		err = fw.watcher.Close()
	})
	return err
}

// addRecursive subscribes to root and every directory below it. With report
// set, the regular files found are returned so they can be reported as
// added.
func (fw *FileWatcher) addRecursive(root string, report bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !fw.accept(p) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if err := fw.watcher.Add(p); err != nil {
				return err
			}
			fw.mutex.Lock()
			fw.dirs[filepath.Clean(p)] = true
			fw.mutex.Unlock()
			return nil
		}
		if report && d.Type().IsRegular() {
			files = append(files, p)
		}
		return nil
	})
	return files, err
}

func (fw *FileWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-fw.done:
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				fw.emit(Event{Kind: EventError, Err: errors.New("fsnotify event stream closed")})
				return
			}
			fw.handleFsnotifyEvent(event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.emit(Event{Kind: EventError, Err: err})
		}
	}
}

func (fw *FileWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	p := filepath.Clean(event.Name)
	if !fw.accept(p) {
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Lstat(p)
		if err != nil {
			return
		}
		if !info.IsDir() {
			fw.debouncer.Add(Event{Kind: EventAdd, Path: p})
			return
		}
		files, err := fw.addRecursive(p, true)
		if err != nil {
			fw.logger.Warn(context.Background(), err, "cannot watch new directory", "path", p)
		}
		for _, f := range files {
			fw.debouncer.Add(Event{Kind: EventAdd, Path: f})
		}
	case event.Has(fsnotify.Write):
		fw.debouncer.Add(Event{Kind: EventChange, Path: p})
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if fw.forgetDir(p) {
			fw.debouncer.Add(Event{Kind: EventUnlinkDir, Path: p})
			return
		}
		fw.debouncer.Add(Event{Kind: EventUnlink, Path: p})
	}
}

// forgetDir drops p and every directory below it from the known set and
// reports whether p was a watched directory.
func (fw *FileWatcher) forgetDir(p string) bool {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	if !fw.dirs[p] {
		return false
	}
	prefix := p + string(filepath.Separator)
	for dir := range fw.dirs {
		if dir == p || strings.HasPrefix(dir, prefix) {
			delete(fw.dirs, dir)
		}
	}
	return true
}

func (fw *FileWatcher) accept(p string) bool {
	fw.mutex.RLock()
	defer fw.mutex.RUnlock()
	for _, filter := range fw.filters {
		if !filter(p) {
			return false
		}
	}
	return true
}

func (fw *FileWatcher) emit(ev Event) {
	select {
	case fw.events <- ev:
	case <-fw.done:
	}
}

// NoGitFilter skips version control metadata
func NoGitFilter(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".git" {
			return false
		}
	}
	return true
}

// OutsideFilter skips paths at or below dir, such as an output root nested in
// a source root.
func OutsideFilter(dir string) FileFilter {
	return func(path string) bool {
		return !paths.Within(path, dir)
	}
}
