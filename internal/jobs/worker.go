package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/autocredit/cartera-api/pkg/logger"
)

// Job is a unit of background work, typically a delinquency refresh that
// should not run on the request path.
type Job func(ctx context.Context) error

// Worker runs background jobs with bounded concurrency and recurring
// schedules. Shutdown cancels the shared context and waits for every
// in-flight job to return.
type Worker struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	slots  chan struct{}
}

// NewWorker creates a worker allowing up to maxConcurrent submitted jobs
func NewWorker(maxConcurrent int) *Worker {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		ctx:    ctx,
		cancel: cancel,
		slots:  make(chan struct{}, maxConcurrent),
	}
}

// Submit runs a job in its own goroutine, blocking the goroutine (not the
// caller) until a concurrency slot frees up.
func (w *Worker) Submit(job Job) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		select {
		case w.slots <- struct{}{}:
			defer func() { <-w.slots }()
		case <-w.ctx.Done():
			return
		}

		w.run("background", job)
	}()
}

// ScheduleEvery runs a job at a fixed interval. The first run happens after
// one interval, not at startup.
func (w *Worker) ScheduleEvery(interval time.Duration, job Job) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-w.ctx.Done():
				return
			case <-ticker.C:
				w.run("scheduled", job)
			}
		}
	}()
}

func (w *Worker) run(kind string, job Job) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panic", "kind", kind, "panic", r)
		}
	}()

	start := time.Now()
	if err := job(w.ctx); err != nil {
		logger.Error("Job failed", "kind", kind, "error", err)
		return
	}
	logger.Debug("Job completed", "kind", kind, "elapsed", time.Since(start))
}

// Shutdown stops the worker and waits for running jobs to finish
func (w *Worker) Shutdown() {
	w.cancel()
	w.wg.Wait()
}
