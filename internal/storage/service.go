package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"regexp"

	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	_ "github.com/viant/afsc/gs"
	_ "github.com/viant/afsc/s3"

	"github.com/dgallion1/sylex/internal/syllabus"
)

const DefaultMaxBytes int64 = 25 << 20

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Service downloads referenced documents and stores uploads.
type Service struct {
	fs       afs.Service
	baseURL  string
	maxBytes int64
}

// New returns a Service that stores uploads under baseURL and refuses
// objects larger than maxBytes.
func New(baseURL string, maxBytes int64) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Service{fs: afs.New(), baseURL: baseURL, maxBytes: maxBytes}
}

// Fetch downloads the referenced object. Every failure wraps
// syllabus.ErrFetchFailed.
func (s *Service) Fetch(ctx context.Context, ref Reference) ([]byte, error) {
	obj, err := s.fs.Object(ctx, ref.URL())
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %v", syllabus.ErrFetchFailed, ref, err)
	}
	if obj.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", syllabus.ErrFetchFailed, ref)
	}
	if obj.Size() > s.maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", syllabus.ErrFetchFailed, ref, obj.Size(), s.maxBytes)
	}
	data, err := s.fs.Download(ctx, obj)
	if err != nil {
		return nil, fmt.Errorf("%w: download %s: %v", syllabus.ErrFetchFailed, ref, err)
	}
	return data, nil
}

// Put stores data under the upload base URL with a unique prefix and returns
// a reference to it.
func (s *Service) Put(ctx context.Context, name string, data []byte) (Reference, error) {
	if int64(len(data)) > s.maxBytes {
		return Reference{}, fmt.Errorf("upload is %d bytes, limit %d", len(data), s.maxBytes)
	}
	base := unsafeName.ReplaceAllString(path.Base(name), "_")
	if base == "" || base == "." || base == "_" {
		base = "upload"
	}
	target := url.Join(s.baseURL, uuid.NewString()+"-"+base)
	if err := s.fs.Upload(ctx, target, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return Reference{}, fmt.Errorf("upload %s: %w", target, err)
	}
	ref, err := ParseReference(target)
	if err != nil {
		return Reference{}, fmt.Errorf("upload base %q: %w", s.baseURL, err)
	}
	return ref, nil
}
