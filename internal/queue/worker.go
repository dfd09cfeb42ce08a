// Package queue runs accepted pipeline jobs on a bounded worker pool so the
// HTTP handler that accepts a job never waits for it.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"sync"

	"github.com/codebuildervaibhav/video-docgen/internal/pipeline"
)

// ErrStopped is returned when submitting to a pool that has shut down.
var ErrStopped = errors.New("worker pool stopped")

// WorkerPool dispatches claimed jobs to the pipeline orchestrator.
type WorkerPool struct {
	runs        chan string
	workerCount int
	orch        *pipeline.Orchestrator

	mu     sync.Mutex
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorkerPool creates a pool with workerCount workers and a buffered run
// queue.
func NewWorkerPool(workerCount int, orch *pipeline.Orchestrator) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		runs:        make(chan string, 100),
		workerCount: workerCount,
		orch:        orch,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start launches all workers.
func (wp *WorkerPool) Start() {
	log.Printf("Starting worker pool with %d workers", wp.workerCount)
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop drains no further work and waits for in-flight runs to settle.
// Safe to call more than once. Submissions in flight hold the same lock, so
// the run queue is only closed once no sender can touch it.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if wp.closed {
		wp.mu.Unlock()
		return
	}
	wp.closed = true
	close(wp.runs)
	wp.mu.Unlock()

	wp.cancel()
	wp.wg.Wait()
	log.Println("Worker pool stopped")
}

// Submit atomically claims the job and enqueues its pipeline run. The claim
// rejects unknown ids, already-running jobs and finished jobs before
// anything is queued, so a conflict can never spawn a second run. A stopped
// pool rejects the submission before the job is claimed.
func (wp *WorkerPool) Submit(jobID string) error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.closed {
		return ErrStopped
	}
	if err := wp.orch.Start(jobID); err != nil {
		return err
	}
	wp.runs <- jobID
	log.Printf("Job %s accepted for processing", jobID)
	return nil
}

// worker executes pipeline runs from the queue.
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	log.Printf("Worker %d started", id)

	for jobID := range wp.runs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("Worker %d: PANIC processing job %s: %v\n%s",
						id, jobID, r, string(debug.Stack()))
					wp.orch.Fail(jobID, fmt.Sprintf("worker panic: %v", r))
				}
			}()

			log.Printf("Worker %d: processing job %s", id, jobID)
			if err := wp.orch.Run(wp.ctx, jobID); err != nil {
				log.Printf("Worker %d: job %s ended with error: %v", id, jobID, err)
			}
		}()
	}
}
