package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the state of an extraction job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusChunking   JobStatus = "chunking"
	StatusExtracting JobStatus = "extracting"
	StatusMerging    JobStatus = "merging"
	StatusStoring    JobStatus = "storing"
	StatusCompleted  JobStatus = "completed"
	StatusDegraded   JobStatus = "degraded"
	StatusFailed     JobStatus = "failed"
	StatusCancelled  JobStatus = "cancelled"
)

// Terminal reports whether no further transitions happen from s.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusDegraded, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// Job tracks the state of a single syllabus extraction.
type Job struct {
	mu    sync.Mutex
	clock Clock

	ID        string
	DocID     string
	Reference string
	Filename  string

	Status   JobStatus
	Phase    string
	Progress Progress

	CreatedAt time.Time
	UpdatedAt time.Time

	result          *Result
	errors          []string
	cancel          context.CancelFunc
	cancelRequested bool
}

// Progress tracks processing progress.
type Progress struct {
	TotalChunks     int      `json:"total_chunks"`
	ChunksProcessed int      `json:"chunks_processed"`
	ChunksFailed    int      `json:"chunks_failed"`
	Lectures        int      `json:"lectures"`
	Assignments     int      `json:"assignments"`
	Exams           int      `json:"exams"`
	Errors          []string `json:"errors"`
}

// NewJob returns a queued job with fresh job and document IDs.
func NewJob(reference, filename string, clock Clock) *Job {
	if clock == nil {
		clock = SystemClock
	}
	now := clock.Now()
	return &Job{
		clock:     clock,
		ID:        uuid.NewString(),
		DocID:     uuid.NewString(),
		Reference: reference,
		Filename:  filename,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (j *Job) now() time.Time {
	if j.clock == nil {
		return time.Now()
	}
	return j.clock.Now()
}

// SetStatus updates job status atomically. Terminal states are final.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status.Terminal() {
		return
	}
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = j.now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = j.now()
}

// ChunkDone counts one processed chunk.
func (j *Job) ChunkDone(failed bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.ChunksProcessed++
	if failed {
		j.Progress.ChunksFailed++
	}
	j.UpdatedAt = j.now()
}

// SetTotalChunks records total chunk count.
func (j *Job) SetTotalChunks(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalChunks = n
	j.UpdatedAt = j.now()
}

// SetResult stores the engine result and its entry counts.
func (j *Job) SetResult(res *Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = res
	if res != nil && res.Parsed != nil {
		j.Progress.Lectures = len(res.Parsed.Lectures)
		j.Progress.Assignments = len(res.Parsed.Assignments)
		j.Progress.Exams = len(res.Parsed.Exams)
	}
	j.UpdatedAt = j.now()
}

func (j *Job) Result() *Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// bindCancel attaches the cancel func of the job's running context. A
// cancellation requested earlier fires immediately.
func (j *Job) bindCancel(cancel context.CancelFunc) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cancel = cancel
	if j.cancelRequested {
		cancel()
	}
}

// Cancel requests cancellation. A queued job becomes cancelled at once; a
// running job has its context cancelled and the worker records the final
// state. It reports false when the job had already finished.
func (j *Job) Cancel() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status.Terminal() {
		return false
	}
	j.cancelRequested = true
	if j.cancel != nil {
		j.cancel()
	}
	if j.Status == StatusQueued {
		j.Status = StatusCancelled
		j.Phase = "cancelled"
	}
	j.UpdatedAt = j.now()
	return true
}

// CancelRequested reports whether Cancel was called.
func (j *Job) CancelRequested() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cancelRequested
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	DocID     string    `json:"doc_id"`
	Reference string    `json:"reference"`
	Filename  string    `json:"filename"`
	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`
	Progress  Progress  `json:"progress"`
	Result    *Result   `json:"result,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	progress := j.Progress
	progress.Errors = append([]string{}, j.Progress.Errors...)
	return JobSnapshot{
		ID:        j.ID,
		DocID:     j.DocID,
		Reference: j.Reference,
		Filename:  j.Filename,
		Status:    j.Status,
		Phase:     j.Phase,
		Progress:  progress,
		Result:    j.result,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu    sync.Mutex
	jobs  map[string]*Job
	ttl   time.Duration
	clock Clock
}

func NewJobStore(ttl time.Duration, clock Clock) *JobStore {
	if clock == nil {
		clock = SystemClock
	}
	return &JobStore{
		jobs:  make(map[string]*Job),
		ttl:   ttl,
		clock: clock,
	}
}

// NewJob creates a queued job on the store's clock and registers it.
func (s *JobStore) NewJob(reference, filename string) *Job {
	job := NewJob(reference, filename, s.clock)
	s.Put(job)
	return job
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cancel cancels the job with the given ID. It reports whether the job
// exists and was still active.
func (s *JobStore) Cancel(id string) bool {
	job := s.Get(id)
	if job == nil {
		return false
	}
	return job.Cancel()
}

// List returns snapshots of all jobs, oldest first.
func (s *JobStore) List() []JobSnapshot {
	s.mu.Lock()
	jobs := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j)
	}
	s.mu.Unlock()

	out := make([]JobSnapshot, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.Snapshot())
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].CreatedAt.Before(out[b].CreatedAt)
		}
		return out[a].ID < out[b].ID
	})
	return out
}

// Cleanup removes finished jobs not updated within the TTL.
func (s *JobStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	removed := 0
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := job.Status.Terminal() && now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}
