package watcher

import (
	"path/filepath"
	"strings"
	"sync"
)

// scope is the part of the output tree a queued task may touch
type scope int

const (
	// scopePath touches the outputs of its own path only
	scopePath scope = iota
	// scopeTree touches everything at or below its path
	scopeTree
	// scopeWide touches outputs anywhere, such as a partial re-rendering
	// its root
	scopeWide
)

type queuedTask struct {
	key     string
	scope   scope
	run     func()
	started bool
}

// conflicts reports whether a and b must not run at the same time
func conflicts(a, b *queuedTask) bool {
	if a.key == b.key {
		return true
	}
	return covers(a, b) || covers(b, a)
}

// covers reports whether tree task a touches the outputs of b
func covers(a, b *queuedTask) bool {
	if a.scope != scopeTree {
		return false
	}
	return b.scope == scopeWide || under(b.key, a.key)
}

// under reports whether p lies at or below dir
func under(p, dir string) bool {
	return p == dir || strings.HasPrefix(p, strings.TrimSuffix(dir, string(filepath.Separator))+string(filepath.Separator))
}

// keyedQueue runs tasks in push order wherever they conflict and
// concurrently otherwise. Tasks of one key run one after another; a tree
// task waits for every earlier task below its key and holds back every later
// one.
type keyedQueue struct {
	mu      sync.Mutex
	pending []*queuedTask
	wg      sync.WaitGroup
}

func newKeyedQueue() *keyedQueue {
	return &keyedQueue{}
}

// Push queues task behind the pending tasks it conflicts with
func (q *keyedQueue) Push(key string, s scope, task func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.wg.Add(1)
	q.pending = append(q.pending, &queuedTask{key: key, scope: s, run: task})
	q.dispatch()
}

// dispatch starts every pending task no earlier task conflicts with.
// Callers hold mu.
func (q *keyedQueue) dispatch() {
	for i, task := range q.pending {
		if task.started {
			continue
		}
		blocked := false
		for _, earlier := range q.pending[:i] {
			if conflicts(earlier, task) {
				blocked = true
				break
			}
		}
		if !blocked {
			task.started = true
			go q.execute(task)
		}
	}
}

func (q *keyedQueue) execute(task *queuedTask) {
	defer q.wg.Done()
	task.run()

	q.mu.Lock()
	defer q.mu.Unlock()
	for i, t := range q.pending {
		if t == task {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			break
		}
	}
	q.dispatch()
}

// Len returns the number of tasks queued or running
func (q *keyedQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Wait blocks until every queued task has run
func (q *keyedQueue) Wait() {
	q.wg.Wait()
}
