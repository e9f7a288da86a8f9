package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dgallion1/sylex/internal/chunker"
	"github.com/dgallion1/sylex/internal/extract"
	"github.com/dgallion1/sylex/internal/parser"
	"github.com/dgallion1/sylex/internal/storage"
	"github.com/dgallion1/sylex/internal/syllabus"
	"github.com/dgallion1/sylex/internal/term"
)

const previewLen = 500

// Fetcher returns the raw bytes of a referenced document.
type Fetcher interface {
	Fetch(ctx context.Context, ref storage.Reference) ([]byte, error)
}

// StructuredExtractor turns one prompt into schema-conformant data.
type StructuredExtractor interface {
	Available() bool
	Extract(ctx context.Context, system, user string) (*syllabus.Data, error)
}

// Phase names a step of one extraction run.
type Phase string

const (
	PhaseFetch    Phase = "fetch"
	PhaseExtract  Phase = "extract"
	PhaseResolve  Phase = "resolve"
	PhaseChunk    Phase = "chunk"
	PhaseGenerate Phase = "generate"
	PhaseMerge    Phase = "merge"
	PhaseFinalize Phase = "finalize"
)

// Tracker observes a run. All methods are called from the goroutine
// running the engine.
type Tracker interface {
	OnPhase(p Phase)
	OnChunks(total int)
	OnChunkDone(index int, err error)
}

type noopTracker struct{}

func (noopTracker) OnPhase(Phase)         {}
func (noopTracker) OnChunks(int)          {}
func (noopTracker) OnChunkDone(int, error) {}

// Result is the outcome of one run. Exactly one of Parsed and Error is set.
type Result struct {
	Success     bool           `json:"success" yaml:"success"`
	Reference   string         `json:"reference,omitempty" yaml:"reference,omitempty"`
	Filename    string         `json:"filename,omitempty" yaml:"filename,omitempty"`
	TextPreview string         `json:"text_preview,omitempty" yaml:"text_preview,omitempty"`
	Parsed      *syllabus.Data `json:"parsed,omitempty" yaml:"parsed,omitempty"`
	Error       string         `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorKind   syllabus.Kind  `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Degraded    bool           `json:"degraded" yaml:"degraded"`
	Warnings    []string       `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Term        string         `json:"term" yaml:"term"`
	Bounds      term.Bounds    `json:"bounds" yaml:"bounds"`
	Chunks      int            `json:"chunks" yaml:"chunks"`
}

// EngineConfig tunes the engine.
type EngineConfig struct {
	ChunkLimit int
	Parser     parser.Options
}

// Engine runs the syllabus extraction pipeline. It holds no per-run state
// and is safe for concurrent use.
type Engine struct {
	fetch Fetcher
	llm   StructuredExtractor
	cfg   EngineConfig
	log   *slog.Logger
}

func NewEngine(fetch Fetcher, llm StructuredExtractor, cfg EngineConfig, log *slog.Logger) *Engine {
	if cfg.ChunkLimit <= 0 {
		cfg.ChunkLimit = chunker.DefaultLimit
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{fetch: fetch, llm: llm, cfg: cfg, log: log}
}

// Parse runs the pipeline without a tracker.
func (e *Engine) Parse(ctx context.Context, ref string) Result {
	return e.Run(ctx, ref, nil)
}

// Run extracts structured data from the referenced document. Every failure
// is reported in the Result; Run never panics and never retries.
func (e *Engine) Run(ctx context.Context, ref string, tr Tracker) (res Result) {
	if tr == nil {
		tr = noopTracker{}
	}
	res.Reference = ref
	res.Term = term.Term{}.String()
	log := e.log.With("reference", ref)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Error("extraction panicked", "panic", r)
			res.fail(fmt.Errorf("internal error: %v", r))
		}
		if res.Success {
			log.Info("document parsed",
				"chunks", res.Chunks,
				"degraded", res.Degraded,
				"warnings", len(res.Warnings),
				"duration_ms", time.Since(start).Milliseconds())
		} else {
			log.Warn("document failed", "error_kind", res.ErrorKind, "error", res.Error)
		}
	}()

	parsedRef, err := storage.ParseReference(ref)
	if err != nil {
		return res.fail(err)
	}
	res.Filename = parsedRef.Name()

	if err := checkpoint(ctx); err != nil {
		return res.fail(err)
	}
	tr.OnPhase(PhaseFetch)
	data, err := e.fetch.Fetch(ctx, parsedRef)
	if err != nil {
		if ctx.Err() != nil {
			return res.fail(checkpoint(ctx))
		}
		if !errors.Is(err, syllabus.ErrFetchFailed) {
			err = fmt.Errorf("%w: %v", syllabus.ErrFetchFailed, err)
		}
		return res.fail(err)
	}

	if err := checkpoint(ctx); err != nil {
		return res.fail(err)
	}
	tr.OnPhase(PhaseExtract)
	text, err := e.extractText(data, res.Filename)
	if err != nil {
		return res.fail(err)
	}
	res.TextPreview = preview(text)

	if err := checkpoint(ctx); err != nil {
		return res.fail(err)
	}
	tr.OnPhase(PhaseResolve)
	t, _ := term.Detect(text)
	bounds := term.DetectBounds(text, t.Year)
	res.Term = t.String()
	res.Bounds = bounds

	if err := checkpoint(ctx); err != nil {
		return res.fail(err)
	}
	tr.OnPhase(PhaseChunk)
	chunks := chunker.Split(text, e.cfg.ChunkLimit)
	res.Chunks = len(chunks)
	tr.OnChunks(len(chunks))
	log.Debug("chunked document", "chunks", len(chunks), "est_tokens", chunker.EstimateTokens(text))

	tr.OnPhase(PhaseGenerate)
	var outputs []*syllabus.Data
	var lastErr error
	if e.llm == nil || !e.llm.Available() {
		res.degrade()
	} else {
		for _, c := range chunks {
			if err := checkpoint(ctx); err != nil {
				return res.fail(err)
			}
			prompt := extract.BuildUserPrompt(res.Term, bounds.Start, bounds.End, c.Text)
			out, err := e.llm.Extract(ctx, extract.SystemPrompt, prompt)
			tr.OnChunkDone(c.Index, err)
			if err != nil {
				if ctx.Err() != nil {
					return res.fail(checkpoint(ctx))
				}
				if errors.Is(err, syllabus.ErrServiceUnavailable) {
					res.degrade()
					break
				}
				log.Warn("chunk extraction failed", "chunk", c.Index, "pages", fmt.Sprintf("%d-%d", c.PageStart, c.PageEnd), "error", err)
				res.Warnings = append(res.Warnings, fmt.Sprintf("chunk %d: %v", c.Index+1, err))
				lastErr = err
				continue
			}
			outputs = append(outputs, out)
		}
		if len(outputs) == 0 && lastErr != nil && !res.Degraded {
			return res.fail(fmt.Errorf("all chunks failed to parse: %w", lastErr))
		}
	}

	if err := checkpoint(ctx); err != nil {
		return res.fail(err)
	}
	tr.OnPhase(PhaseMerge)
	merged := MergeChunks(outputs)

	tr.OnPhase(PhaseFinalize)
	Finalize(merged, text, t.Year)

	if res.Degraded && nothingFound(merged) {
		return res.fail(fmt.Errorf("%w: no API key configured and pattern extraction found nothing", syllabus.ErrServiceUnavailable))
	}

	res.Success = true
	res.Parsed = merged
	return res
}

func (e *Engine) extractText(data []byte, filename string) (string, error) {
	p, err := parser.Detect(data, filename, e.cfg.Parser)
	if err != nil {
		return "", fmt.Errorf("%w: %v", syllabus.ErrNoUsableText, err)
	}
	tree, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return "", fmt.Errorf("%w: %v", syllabus.ErrNoUsableText, err)
	}
	text := tree.FullText()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: document contains no extractable text", syllabus.ErrNoUsableText)
	}
	return text, nil
}

func (r *Result) fail(err error) Result {
	r.Success = false
	r.Parsed = nil
	r.Error = err.Error()
	r.ErrorKind = syllabus.KindOf(err)
	return *r
}

func (r *Result) degrade() {
	r.Degraded = true
	r.Warnings = append(r.Warnings, "extraction service unavailable: using pattern extraction only")
}

func checkpoint(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", syllabus.ErrCancelled, err)
	}
	return nil
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewLen {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewLen]) + "..."
}

func nothingFound(d *syllabus.Data) bool {
	return len(d.Lectures) == 0 && len(d.Assignments) == 0 && len(d.Exams) == 0 &&
		(d.CourseName == "" || d.CourseName == syllabus.NotListed) &&
		(d.Instructor == "" || d.Instructor == syllabus.NotListed)
}
