package controller

import "sync"

// Dispatcher runs view work on the goroutine that owns the view.
type Dispatcher interface {
	Async(fn func())
}

// Inline runs every task immediately on the calling goroutine.
type Inline struct{}

// Async runs fn now.
func (Inline) Async(fn func()) { fn() }

// MainQueue is a serial queue drained by one goroutine, standing in for a UI
// main thread. Tasks run in submission order.
type MainQueue struct {
	mu     sync.Mutex
	tasks  chan func()
	closed bool
	done   chan struct{}
}

// NewMainQueue starts the queue goroutine. Call Close to stop it.
func NewMainQueue() *MainQueue {
	q := &MainQueue{
		tasks: make(chan func(), 64),
		done:  make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *MainQueue) run() {
	defer close(q.done)
	for fn := range q.tasks {
		fn()
	}
}

// Async queues fn. Tasks submitted after Close are dropped.
func (q *MainQueue) Async(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.tasks <- fn
}

// Flush blocks until every task queued before the call has run.
func (q *MainQueue) Flush() {
	ran := make(chan struct{})
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.tasks <- func() { close(ran) }
	q.mu.Unlock()
	<-ran
}

// Close drains queued tasks and stops the goroutine.
func (q *MainQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()
	<-q.done
}
