package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// OrchestratorConfig sizes the worker pool.
type OrchestratorConfig struct {
	Workers         int
	QueueSize       int
	JobTTL          time.Duration
	CleanupInterval time.Duration
	Clock           Clock
}

// Orchestrator queues extraction jobs and runs them on a fixed pool of
// workers.
type Orchestrator struct {
	jobs   *JobStore
	queue  chan *Job
	engine *Engine
	sink   ResultSink
	log    *slog.Logger
	cfg    OrchestratorConfig

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewOrchestrator(cfg OrchestratorConfig, engine *Engine, sink ResultSink, log *slog.Logger) *Orchestrator {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = time.Hour
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		jobs:   NewJobStore(cfg.JobTTL, cfg.Clock),
		queue:  make(chan *Job, cfg.QueueSize),
		engine: engine,
		sink:   sink,
		log:    log,
		cfg:    cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.Workers {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.engine, o.sink, o.log)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(o.cfg.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				if n := o.jobs.Cleanup(); n > 0 {
					o.log.Debug("evicted expired jobs", "count", n)
				}
			}
		}
	}()
}

// Stop cancels running jobs and waits for the workers to exit.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit registers a job for ref and queues it.
func (o *Orchestrator) Submit(ref, filename string) (*Job, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return nil, fmt.Errorf("orchestrator stopped")
	}
	job := o.jobs.NewJob(ref, filename)
	select {
	case o.queue <- job:
		return job, nil
	default:
		job.AddError("job queue is full")
		job.SetStatus(StatusFailed, "queue_full")
		return job, fmt.Errorf("job queue is full (%d)", o.cfg.QueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// CancelJob cancels a queued or running job.
func (o *Orchestrator) CancelJob(id string) bool {
	return o.jobs.Cancel(id)
}

// Jobs lists every tracked job.
func (o *Orchestrator) Jobs() []JobSnapshot {
	return o.jobs.List()
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Engine returns the engine for synchronous runs.
func (o *Orchestrator) Engine() *Engine {
	return o.engine
}
