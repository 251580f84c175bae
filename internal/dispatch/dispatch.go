// Package dispatch serializes the work of a single websocket
// connection. Each connection gets its own dispatcher, so one slow or
// failing request delays only that connection's queue.
package dispatch

import (
	"errors"
	"log"
	"sync"
)

var ErrClosed = errors.New("dispatcher is closed")

type Task func()

// Dispatcher runs tasks one at a time, in push order, on a single
// worker goroutine. Push blocks when the backlog is full, which is the
// protocol's back-pressure: the connection's read pump stalls instead
// of piling up unbounded work.
type Dispatcher struct {
	tasks  chan Task
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
}

func New(backlog int) *Dispatcher {
	d := &Dispatcher{
		tasks: make(chan Task, backlog),
		done:  make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for task := range d.tasks {
		d.dispatch(task)
	}
}

// dispatch is the recovery boundary: a panicking task must not take the
// worker down with the rest of the queue.
func (d *Dispatcher) dispatch(task Task) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("dispatch: recovered from task panic: %v", r)
		}
	}()
	task()
}

// Push queues a task, blocking while the backlog is full.
func (d *Dispatcher) Push(task Task) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	d.tasks <- task
	return nil
}

// Close stops accepting tasks and waits for the queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.tasks)
	}
	d.mu.Unlock()
	<-d.done
}
