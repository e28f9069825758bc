package asset

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gnana997/lesstheme/pkg/util"
)

// ArtifactJob is one artifact to classify.
type ArtifactJob struct {
	Name  string
	JobID int
}

// ArtifactResult is a classified artifact.
type ArtifactResult struct {
	Artifact *Artifact
	JobID    int
}

// ArtifactError is a failed job.
type ArtifactError struct {
	Name  string
	JobID int
	Error error
}

// ProcessFunc classifies one artifact.
type ProcessFunc func(ctx context.Context, name string) (*Artifact, error)

// WorkerPool classifies artifacts in parallel.
//
// **Architecture:**
//   - Buffered job channel feeding numWorkers goroutines
//   - Separate result and error channels
//   - Every artifact is handled by exactly one worker, so per-artifact
//     memos need no cross-worker coordination
//
// **Usage:**
//
//	pool := NewWorkerPool(ctx, 0, process, logger)
//	pool.Start()
//	go func() {
//	    for i, name := range names {
//	        pool.Submit(ArtifactJob{Name: name, JobID: i})
//	    }
//	    pool.FinishSubmitting()
//	}()
//	for range names {
//	    select {
//	    case r := <-pool.Results():
//	    case e := <-pool.Errors():
//	    }
//	}
//	pool.Stop()
type WorkerPool struct {
	numWorkers int
	jobs       chan ArtifactJob
	results    chan ArtifactResult
	errors     chan ArtifactError
	wg         sync.WaitGroup
	process    ProcessFunc
	logger     *slog.Logger

	ctx        context.Context
	cancel     context.CancelFunc
	started    atomic.Bool
	stopped    atomic.Bool
	jobsClosed atomic.Bool

	jobsSubmitted atomic.Int64
	jobsProcessed atomic.Int64
	jobsFailed    atomic.Int64
}

// NewWorkerPool creates a pool bound to ctx. numWorkers 0 uses
// util.GetOptimalPoolSize().
func NewWorkerPool(ctx context.Context, numWorkers int, process ProcessFunc, logger *slog.Logger) *WorkerPool {
	numWorkers = util.GetOptimalPoolSizeWithOverride(numWorkers)
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		numWorkers: numWorkers,
		jobs:       make(chan ArtifactJob, numWorkers*2),
		results:    make(chan ArtifactResult, numWorkers),
		errors:     make(chan ArtifactError, numWorkers),
		process:    process,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start spawns the workers. It must be called before Submit.
func (wp *WorkerPool) Start() {
	if !wp.started.CompareAndSwap(false, true) {
		wp.logger.Warn("WorkerPool already started")
		return
	}

	wp.logger.Debug("starting worker pool", "workers", wp.numWorkers)

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.ctx.Done():
			return
		case job, ok := <-wp.jobs:
			if !ok {
				return
			}
			wp.processJob(id, job)
		}
	}
}

func (wp *WorkerPool) processJob(workerID int, job ArtifactJob) {
	a, err := wp.process(wp.ctx, job.Name)
	if err != nil {
		wp.logger.Debug("artifact failed", "worker_id", workerID, "artifact", job.Name, "error", err)
		wp.jobsFailed.Add(1)
		select {
		case wp.errors <- ArtifactError{Name: job.Name, JobID: job.JobID, Error: err}:
		case <-wp.ctx.Done():
		}
		return
	}

	wp.jobsProcessed.Add(1)
	select {
	case wp.results <- ArtifactResult{Artifact: a, JobID: job.JobID}:
	case <-wp.ctx.Done():
	}
}

// Submit enqueues a job. It blocks while the queue is full.
func (wp *WorkerPool) Submit(job ArtifactJob) error {
	if wp.stopped.Load() {
		return fmt.Errorf("worker pool is stopped")
	}

	wp.jobsSubmitted.Add(1)

	select {
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool cancelled: %w", wp.ctx.Err())
	case wp.jobs <- job:
		return nil
	}
}

// Results returns the results channel.
func (wp *WorkerPool) Results() <-chan ArtifactResult {
	return wp.results
}

// Errors returns the errors channel.
func (wp *WorkerPool) Errors() <-chan ArtifactError {
	return wp.errors
}

// Done is closed when the pool's context ends.
func (wp *WorkerPool) Done() <-chan struct{} {
	return wp.ctx.Done()
}

// FinishSubmitting closes the job queue. Safe to call more than once.
func (wp *WorkerPool) FinishSubmitting() {
	if wp.jobsClosed.CompareAndSwap(false, true) {
		close(wp.jobs)
	}
}

// Stop waits for in-flight jobs and closes the output channels.
// Safe to call more than once.
func (wp *WorkerPool) Stop() {
	if !wp.stopped.CompareAndSwap(false, true) {
		return
	}

	wp.FinishSubmitting()
	wp.cancel()
	wp.wg.Wait()

	close(wp.results)
	close(wp.errors)

	wp.logger.Debug("worker pool stopped",
		"jobs_submitted", wp.jobsSubmitted.Load(),
		"jobs_processed", wp.jobsProcessed.Load(),
		"jobs_failed", wp.jobsFailed.Load())
}

// GetStats returns current worker pool statistics.
func (wp *WorkerPool) GetStats() WorkerPoolStats {
	return WorkerPoolStats{
		NumWorkers:    wp.numWorkers,
		JobsSubmitted: wp.jobsSubmitted.Load(),
		JobsProcessed: wp.jobsProcessed.Load(),
		JobsFailed:    wp.jobsFailed.Load(),
		QueueLength:   len(wp.jobs),
	}
}

// WorkerPoolStats contains statistics about the worker pool.
type WorkerPoolStats struct {
	NumWorkers    int
	JobsSubmitted int64
	JobsProcessed int64
	JobsFailed    int64
	QueueLength   int
}
