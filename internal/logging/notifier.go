package logging

import (
	"context"
	"sync"
)

// Notifier receives file-level outcomes of builds and watch sessions. The
// pipeline reports through it instead of writing to a fixed stream.
type Notifier interface {
	Created(ctx context.Context, template, output string)
	Copied(ctx context.Context, src, dst string)
	Deleted(ctx context.Context, src, output string)
	Error(ctx context.Context, err error, path string)
}

// LogNotifier reports outcomes through a Logger
type LogNotifier struct {
	logger Logger
}

// NewLogNotifier creates a notifier backed by logger
func NewLogNotifier(logger Logger) *LogNotifier {
	return &LogNotifier{logger: logger.WithComponent("notifier")}
}

func (n *LogNotifier) Created(ctx context.Context, template, output string) {
	n.logger.Info(ctx, "created", "template", template, "output", output)
}

func (n *LogNotifier) Copied(ctx context.Context, src, dst string) {
	n.logger.Info(ctx, "copied", "src", src, "dst", dst)
}

func (n *LogNotifier) Deleted(ctx context.Context, src, output string) {
	n.logger.Info(ctx, "deleted", "src", src, "output", output)
}

func (n *LogNotifier) Error(ctx context.Context, err error, path string) {
	n.logger.Error(ctx, err, "task failed", "path", path)
}

// NopNotifier drops every notification
type NopNotifier struct{}

func (NopNotifier) Created(context.Context, string, string) {}
func (NopNotifier) Copied(context.Context, string, string)  {}
func (NopNotifier) Deleted(context.Context, string, string) {}
func (NopNotifier) Error(context.Context, error, string)    {}

// Notification is one event captured by RecordingNotifier.
type Notification struct {
	Kind string
	From string
	To   string
	Err  error
}

// RecordingNotifier keeps every notification in memory. It is safe for
// concurrent use and is meant for tests and embedding callers.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []Notification
}

func (r *RecordingNotifier) add(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, n)
}

func (r *RecordingNotifier) Created(_ context.Context, template, output string) {
	r.add(Notification{Kind: "created", From: template, To: output})
}

func (r *RecordingNotifier) Copied(_ context.Context, src, dst string) {
	r.add(Notification{Kind: "copied", From: src, To: dst})
}

func (r *RecordingNotifier) Deleted(_ context.Context, src, output string) {
	r.add(Notification{Kind: "deleted", From: src, To: output})
}

func (r *RecordingNotifier) Error(_ context.Context, err error, path string) {
	r.add(Notification{Kind: "error", From: path, Err: err})
}

// Events returns a copy of the notifications received so far
func (r *RecordingNotifier) Events() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many notifications of kind were received
func (r *RecordingNotifier) Count(kind string) int {
	n := 0
	for _, e := range r.Events() {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
