// Package pool implements the fixed-size worker pool the server dispatches
// connections on. Workers share one task queue; a worker that panics while
// running a task is replaced so the pool's steady-state size never shrinks.
package pool

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/iamNilotpal/simplekv/pkg/errors"
)

// taskQueueDepth bounds the backlog; Spawn blocks once it is reached.
const taskQueueDepth = 1024

// Pool runs submitted tasks on a fixed number of workers.
type Pool struct {
	tasks  chan func()
	log    *zap.SugaredLogger
	wg     sync.WaitGroup
	closed atomic.Bool
}

// New starts a pool with the given number of workers.
func New(size int, log *zap.SugaredLogger) (*Pool, error) {
	if size <= 0 {
		return nil, errors.NewBaseError(
			nil, errors.ErrorCodeInvalidInput, "Pool size must be positive",
		).WithDetail("size", size)
	}

	p := &Pool{tasks: make(chan func(), taskQueueDepth), log: log}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p, nil
}

// Spawn submits a task. It blocks while the queue is full and panics if the
// pool has been closed.
func (p *Pool) Spawn(task func()) {
	if task == nil {
		return
	}
	p.tasks <- task
}

// Close stops accepting tasks, lets the workers drain the queue, and waits
// for them to exit. Safe to call once.
func (p *Pool) Close() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	close(p.tasks)
	p.wg.Wait()
}

// worker runs tasks until the queue is closed and drained. A panicking task
// takes its worker down; the deferred handler starts a replacement which
// inherits the dead worker's slot in the wait group.
func (p *Pool) worker() {
	defer func() {
		if r := recover(); r != nil {
			p.log.Errorw("Worker panicked, starting replacement", "panic", r)
			go p.worker()
			return
		}
		p.wg.Done()
	}()

	for task := range p.tasks {
		task()
	}
}
