package extract

import (
	"sort"
	"sync"
	"time"

	"github.com/dgallion1/sylex/internal/syllabus"
)

type sample struct {
	timestamp  time.Time
	durationMs int64
	kind       syllabus.Kind // empty on success
}

// StatsSnapshot is a point-in-time aggregate of model call samples.
type StatsSnapshot struct {
	Count    int                   `json:"count"`
	Failed   int                   `json:"failed"`
	ByKind   map[syllabus.Kind]int `json:"failures_by_kind,omitempty"`
	MinMs    int64                 `json:"min_ms"`
	MaxMs    int64                 `json:"max_ms"`
	AvgMs    float64               `json:"avg_ms"`
	P50Ms    float64               `json:"p50_ms"`
	P95Ms    float64               `json:"p95_ms"`
	P99Ms    float64               `json:"p99_ms"`
	WindowMs int64                 `json:"window_ms"`
}

// LLMStats tracks recent model call latencies and failures within a rolling
// window.
type LLMStats struct {
	mu      sync.Mutex
	samples []sample
	maxAge  time.Duration
	now     func() time.Time
}

func NewLLMStats(maxAge time.Duration) *LLMStats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &LLMStats{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
		now:     time.Now,
	}
}

// Record adds one call. kind is empty for a successful call.
func (s *LLMStats) Record(d time.Duration, kind syllabus.Kind) {
	if s == nil {
		return
	}
	durationMs := d.Milliseconds()
	if durationMs < 0 {
		durationMs = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)
	s.samples = append(s.samples, sample{
		timestamp:  now,
		durationMs: durationMs,
		kind:       kind,
	})
}

func (s *LLMStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(s.now())
	snap := StatsSnapshot{WindowMs: s.maxAge.Milliseconds()}
	if len(s.samples) == 0 {
		return snap
	}

	values := make([]int64, 0, len(s.samples))
	var sum int64
	for _, sm := range s.samples {
		values = append(values, sm.durationMs)
		sum += sm.durationMs
		if sm.kind != "" {
			if snap.ByKind == nil {
				snap.ByKind = make(map[syllabus.Kind]int)
			}
			snap.ByKind[sm.kind]++
			snap.Failed++
		}
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	snap.Count = len(values)
	snap.MinMs = values[0]
	snap.MaxMs = values[len(values)-1]
	snap.AvgMs = float64(sum) / float64(len(values))
	snap.P50Ms = percentile(values, 50)
	snap.P95Ms = percentile(values, 95)
	snap.P99Ms = percentile(values, 99)
	return snap
}

func (s *LLMStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	writeIdx := 0
	for _, sm := range s.samples {
		if !sm.timestamp.Before(cutoff) {
			s.samples[writeIdx] = sm
			writeIdx++
		}
	}
	s.samples = s.samples[:writeIdx]
}

func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
