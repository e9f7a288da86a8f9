package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/sylex/internal/syllabus"
)

func TestParseReference(t *testing.T) {
	tests := []struct {
		in   string
		want Reference
	}{
		{"gs://course-docs/fall/bio101.pdf", Reference{Scheme: "gs", Bucket: "course-docs", Object: "fall/bio101.pdf"}},
		{"s3://syllabi/chem.docx", Reference{Scheme: "s3", Bucket: "syllabi", Object: "chem.docx"}},
		{"https://storage.googleapis.com/course-docs/a/b.pdf", Reference{Scheme: "gs", Bucket: "course-docs", Object: "a/b.pdf"}},
		{"file:///tmp/syllabus.pdf", Reference{Scheme: "file", Object: "/tmp/syllabus.pdf"}},
		{"mem://localhost/doc.txt", Reference{Scheme: "mem", Bucket: "localhost", Object: "doc.txt"}},
	}
	for _, tt := range tests {
		got, err := ParseReference(tt.in)
		if err != nil {
			t.Errorf("ParseReference(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseReference(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseReference_RewritesPublicGCSURL(t *testing.T) {
	ref, err := ParseReference("https://storage.googleapis.com/b/o.pdf")
	if err != nil {
		t.Fatalf("ParseReference() error = %v", err)
	}
	if ref.URL() != "gs://b/o.pdf" {
		t.Errorf("URL() = %q", ref.URL())
	}
	if ref.Name() != "o.pdf" {
		t.Errorf("Name() = %q", ref.Name())
	}
}

func TestParseReference_Invalid(t *testing.T) {
	for _, in := range []string{
		"",
		"not a url",
		"ftp://host/file.pdf",
		"https://example.com/file.pdf",
		"gs://",
		"gs://bucket",
		"gs://bucket/",
		"s3://bucket/folder/",
		"https://storage.googleapis.com/bucket",
		"file://relative/path.pdf",
		"file:///tmp/dir/",
	} {
		_, err := ParseReference(in)
		if !errors.Is(err, syllabus.ErrInvalidReference) {
			t.Errorf("ParseReference(%q) error = %v, want invalid reference", in, err)
		}
	}
}

func TestReference_Within(t *testing.T) {
	tests := []struct {
		ref  string
		base string
		want bool
	}{
		{"file:///srv/uploads/a.pdf", "file:///srv/uploads", true},
		{"file:///srv/uploads/nested/a.pdf", "file:///srv/uploads/", true},
		{"file:///srv/uploads/../secrets.env", "file:///srv/uploads", false},
		{"file:///srv/uploads-old/a.pdf", "file:///srv/uploads", false},
		{"file:///etc/passwd", "file:///srv/uploads", false},
		{"mem://localhost/uploads/a.txt", "mem://localhost/uploads", true},
		{"mem://localhost/other/a.txt", "mem://localhost/uploads", false},
		{"mem://otherhost/uploads/a.txt", "mem://localhost/uploads", false},
		{"file:///srv/uploads/a.pdf", "mem://localhost/uploads", false},
		{"file:///srv/uploads/a.pdf", "", false},
	}
	for _, tt := range tests {
		ref, err := ParseReference(tt.ref)
		if err != nil {
			t.Fatalf("ParseReference(%q) error = %v", tt.ref, err)
		}
		if got := ref.Within(tt.base); got != tt.want {
			t.Errorf("%q.Within(%q) = %v, want %v", tt.ref, tt.base, got, tt.want)
		}
	}
}

func TestServiceFetch_File(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "syllabus.txt")
	if err := os.WriteFile(p, []byte("Lectures MWF 9:05-9:55a"), 0o644); err != nil {
		t.Fatal(err)
	}
	ref, err := ParseReference("file://" + p)
	if err != nil {
		t.Fatalf("ParseReference() error = %v", err)
	}

	data, err := New("", 0).Fetch(context.Background(), ref)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(data) != "Lectures MWF 9:05-9:55a" {
		t.Errorf("unexpected data %q", data)
	}
}

func TestServiceFetch_Missing(t *testing.T) {
	ref := Reference{Scheme: "file", Object: filepath.Join(t.TempDir(), "absent.pdf")}
	_, err := New("", 0).Fetch(context.Background(), ref)
	if !errors.Is(err, syllabus.ErrFetchFailed) {
		t.Fatalf("expected fetch failure, got %v", err)
	}
}

func TestServiceFetch_TooLarge(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "big.txt")
	if err := os.WriteFile(p, []byte(strings.Repeat("x", 64)), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := New("", 16).Fetch(context.Background(), Reference{Scheme: "file", Object: p})
	if !errors.Is(err, syllabus.ErrFetchFailed) {
		t.Fatalf("expected fetch failure, got %v", err)
	}
}

func TestServicePut_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	svc := New("file://"+dir, 0)

	ref, err := svc.Put(context.Background(), "../My Syllabus.pdf", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if ref.Scheme != "file" || !strings.HasSuffix(ref.Object, "-My_Syllabus.pdf") {
		t.Fatalf("unexpected reference %+v", ref)
	}
	data, err := svc.Fetch(context.Background(), ref)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(data) != "%PDF-1.4" {
		t.Errorf("unexpected data %q", data)
	}
}
