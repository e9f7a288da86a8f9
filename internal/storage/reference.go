// Package storage resolves syllabus document references and moves their
// bytes through viant/afs.
package storage

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/dgallion1/sylex/internal/syllabus"
)

const gcsPublicHost = "storage.googleapis.com"

// Reference is a validated pointer to one stored object.
type Reference struct {
	Scheme string // gs, s3, file or mem
	Bucket string // empty for file
	Object string // object key; absolute path for file
}

// URL renders the reference in the form afs understands.
func (r Reference) URL() string {
	if r.Scheme == "file" {
		return "file://" + r.Object
	}
	return r.Scheme + "://" + r.Bucket + "/" + r.Object
}

func (r Reference) String() string { return r.URL() }

// Name is the last path element of the object.
func (r Reference) Name() string {
	return path.Base(r.Object)
}

// ParseReference checks a reference string before any I/O. It accepts
// gs://bucket/object, s3://bucket/key, https://storage.googleapis.com/bucket/object
// (rewritten to gs://), file:///abs/path and mem://host/path. Anything else,
// a missing bucket or object, or a directory reference wraps
// syllabus.ErrInvalidReference.
func ParseReference(raw string) (Reference, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Reference{}, fmt.Errorf("%w: empty reference", syllabus.ErrInvalidReference)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Reference{}, fmt.Errorf("%w: %v", syllabus.ErrInvalidReference, err)
	}

	var ref Reference
	switch strings.ToLower(u.Scheme) {
	case "gs", "s3", "mem":
		ref = Reference{Scheme: strings.ToLower(u.Scheme), Bucket: u.Host, Object: strings.TrimPrefix(u.Path, "/")}
	case "https":
		if !strings.EqualFold(u.Host, gcsPublicHost) {
			return Reference{}, fmt.Errorf("%w: unsupported host %q", syllabus.ErrInvalidReference, u.Host)
		}
		bucket, object, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
		ref = Reference{Scheme: "gs", Bucket: bucket, Object: object}
	case "file":
		if u.Host != "" && u.Host != "localhost" {
			return Reference{}, fmt.Errorf("%w: file reference must be absolute: %q", syllabus.ErrInvalidReference, raw)
		}
		if u.Path == "" || strings.HasSuffix(u.Path, "/") {
			return Reference{}, fmt.Errorf("%w: %q is not a file", syllabus.ErrInvalidReference, raw)
		}
		return Reference{Scheme: "file", Object: path.Clean(u.Path)}, nil
	default:
		return Reference{}, fmt.Errorf("%w: unsupported scheme in %q", syllabus.ErrInvalidReference, raw)
	}

	if ref.Bucket == "" {
		return Reference{}, fmt.Errorf("%w: missing bucket in %q", syllabus.ErrInvalidReference, raw)
	}
	if ref.Object == "" || strings.HasSuffix(ref.Object, "/") {
		return Reference{}, fmt.Errorf("%w: missing object in %q", syllabus.ErrInvalidReference, raw)
	}
	return ref, nil
}

// Local reports whether the reference points at the host's own filesystem
// or process memory.
func (r Reference) Local() bool {
	return r.Scheme == "file" || r.Scheme == "mem"
}

// Within reports whether r names an object below the location base, e.g.
// file:///srv/uploads or mem://localhost/uploads. Dot segments in r are
// resolved before comparing.
func (r Reference) Within(base string) bool {
	b, err := ParseReference(strings.TrimRight(base, "/") + "/x")
	if err != nil || b.Scheme != r.Scheme || !strings.EqualFold(b.Bucket, r.Bucket) {
		return false
	}
	dir := path.Dir(b.Object)
	obj := path.Clean(r.Object)
	switch dir {
	case ".":
		return !strings.HasPrefix(obj, "..")
	case "/":
		return strings.HasPrefix(obj, "/")
	}
	return strings.HasPrefix(obj, dir+"/")
}
