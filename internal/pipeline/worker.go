package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/sylex/internal/store"
	"github.com/dgallion1/sylex/internal/syllabus"
)

// ResultSink persists a finished extraction.
type ResultSink interface {
	Save(ctx context.Context, rec store.Record) error
}

// Worker processes a single extraction job.
type Worker struct {
	engine *Engine
	sink   ResultSink
	log    *slog.Logger
}

func NewWorker(engine *Engine, sink ResultSink, log *slog.Logger) *Worker {
	if log == nil {
		log = slog.Default()
	}
	return &Worker{engine: engine, sink: sink, log: log}
}

// Process runs the engine for a job and stores the outcome. The sink is
// skipped for failed or cancelled runs.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)

	if job.CancelRequested() {
		job.SetStatus(StatusCancelled, "cancelled")
		return
	}

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	job.bindCancel(cancel)

	res := w.engine.Run(jobCtx, job.Reference, &jobTracker{job: job})
	job.SetResult(&res)
	for _, warn := range res.Warnings {
		job.AddError(warn)
	}

	if !res.Success {
		if res.ErrorKind == syllabus.KindCancelled || job.CancelRequested() {
			log.Info("job cancelled")
			job.SetStatus(StatusCancelled, "cancelled")
			return
		}
		job.AddError(res.Error)
		job.SetStatus(StatusFailed, job.Snapshot().Phase)
		return
	}

	if job.CancelRequested() {
		job.SetStatus(StatusCancelled, "cancelled")
		return
	}

	if w.sink != nil {
		job.SetStatus(StatusStoring, "storing")
		rec := store.Record{
			Document: store.Document{
				ID:        job.DocID,
				Reference: job.Reference,
				Filename:  res.Filename,
				CreatedAt: job.CreatedAt,
			},
			Term:      res.Term,
			TermStart: res.Bounds.Start,
			TermEnd:   res.Bounds.End,
			Degraded:  res.Degraded,
			Warnings:  res.Warnings,
			Data:      res.Parsed,
		}
		// The result is complete; a late cancellation must not lose it.
		if err := w.sink.Save(context.WithoutCancel(ctx), rec); err != nil {
			log.Error("store failed", "error", err)
			job.AddError(fmt.Sprintf("store: %s", err))
			job.SetStatus(StatusFailed, "storing")
			return
		}
	}

	if res.Degraded {
		job.SetStatus(StatusDegraded, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
}

// jobTracker maps engine phases onto job status.
type jobTracker struct {
	job *Job
}

func (t *jobTracker) OnPhase(p Phase) {
	switch p {
	case PhaseFetch, PhaseExtract, PhaseResolve:
		t.job.SetStatus(StatusParsing, string(p))
	case PhaseChunk:
		t.job.SetStatus(StatusChunking, string(p))
	case PhaseGenerate:
		t.job.SetStatus(StatusExtracting, string(p))
	case PhaseMerge, PhaseFinalize:
		t.job.SetStatus(StatusMerging, string(p))
	}
}

func (t *jobTracker) OnChunks(total int) { t.job.SetTotalChunks(total) }

func (t *jobTracker) OnChunkDone(_ int, err error) {
	t.job.ChunkDone(err != nil && !errors.Is(err, context.Canceled))
}
