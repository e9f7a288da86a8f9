package syllabus

import (
	"context"
	"errors"
)

// Kind is the stable, machine-readable class of an extraction failure.
type Kind string

const (
	KindInvalidReference      Kind = "invalid_reference"
	KindFetchFailed           Kind = "fetch_failed"
	KindNoUsableText          Kind = "no_usable_text"
	KindServiceUnavailable    Kind = "service_unavailable"
	KindChunkExtractionFailed Kind = "chunk_extraction_failed"
	KindMalformedOutput       Kind = "malformed_output"
	KindCancelled             Kind = "cancelled"
	KindInternal              Kind = "internal"
)

var (
	ErrInvalidReference      = errors.New("invalid storage reference")
	ErrFetchFailed           = errors.New("fetch failed")
	ErrNoUsableText          = errors.New("no usable text")
	ErrServiceUnavailable    = errors.New("extraction service unavailable")
	ErrChunkExtractionFailed = errors.New("chunk extraction failed")
	ErrMalformedOutput       = errors.New("malformed extraction output")
	ErrCancelled             = errors.New("cancelled")
)

// KindOf classifies err. Unknown errors are KindInternal; nil is "".
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidReference):
		return KindInvalidReference
	case errors.Is(err, ErrFetchFailed):
		return KindFetchFailed
	case errors.Is(err, ErrNoUsableText):
		return KindNoUsableText
	case errors.Is(err, ErrServiceUnavailable):
		return KindServiceUnavailable
	case errors.Is(err, ErrMalformedOutput):
		return KindMalformedOutput
	case errors.Is(err, ErrChunkExtractionFailed):
		return KindChunkExtractionFailed
	case errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	}
	return KindInternal
}
