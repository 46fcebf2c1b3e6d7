package watcher

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of events per path. Each path keeps only its
// latest event, delivered once the path has been quiet for the delay.
type Debouncer struct {
	delay   time.Duration
	emit    func(Event)
	pending map[string]*pendingEvent
	stopped bool
	mutex   sync.Mutex
}

type pendingEvent struct {
	event Event
	timer *time.Timer
}

// NewDebouncer creates a debouncer delivering to emit. A zero delay delivers
// every event immediately.
func NewDebouncer(delay time.Duration, emit func(Event)) *Debouncer {
	return &Debouncer{
		delay:   delay,
		emit:    emit,
		pending: make(map[string]*pendingEvent),
	}
}

// Add schedules ev, replacing any pending event for the same path. A pending
// directory removal is not downgraded to a file removal.
func (d *Debouncer) Add(ev Event) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.stopped {
		return
	}
	if d.delay <= 0 {
		d.emit(ev)
		return
	}

	if p, ok := d.pending[ev.Path]; ok {
		if !(p.event.Kind == EventUnlinkDir && ev.Kind == EventUnlink) {
			p.event = ev
		}
		p.timer.Reset(d.delay)
		return
	}
	p := &pendingEvent{event: ev}
	p.timer = time.AfterFunc(d.delay, func() { d.fire(ev.Path, p) })
	d.pending[ev.Path] = p
}

// fire delivers the pending event of path. Delivery happens under the lock so
// a newer event for the same path cannot overtake it.
func (d *Debouncer) fire(path string, p *pendingEvent) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.stopped || d.pending[path] != p {
		return
	}
	delete(d.pending, path)
	d.emit(p.event)
}

// Pending returns the number of paths waiting for delivery
func (d *Debouncer) Pending() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return len(d.pending)
}

// Stop drops every pending event
func (d *Debouncer) Stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.stopped = true
	for path, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, path)
	}
}
