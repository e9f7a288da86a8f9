package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgallion1/sylex/internal/syllabus"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sylex.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecord(id string, created time.Time) Record {
	return Record{
		Document: Document{ID: id, Reference: "file:///tmp/" + id + ".pdf", Filename: id + ".pdf", CreatedAt: created},
		Term:      "Spring 2024",
		TermStart: "2024-01-22",
		TermEnd:   "2024-05-06",
		Warnings:  []string{"chunk 2: malformed output"},
		Data: &syllabus.Data{
			CourseName: "CHEM 2090",
			Summary:    "General chemistry II.",
			Assignments: []syllabus.Assignment{
				{Description: "Problem Set #2", Date: "2024-02-20", TimeDue: syllabus.NotListed, Confidence: 90},
				{Description: "Problem Set #1", Date: "2024-02-06", TimeDue: "23:59", Confidence: 150},
			},
			Exams: []syllabus.Exam{
				{Description: "Prelim 1", Date: "2024-02-12", TimeDue: "19:30", Confidence: 95},
			},
		},
	}
}

func TestSQLite_SaveAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	created := time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC)

	if err := s.Save(ctx, sampleRecord("doc-1", created)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	rec, err := s.Get(ctx, "doc-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.Term != "Spring 2024" || rec.TermStart != "2024-01-22" || rec.TermEnd != "2024-05-06" || rec.Data.CourseName != "CHEM 2090" || !rec.CreatedAt.Equal(created) {
		t.Errorf("unexpected record %+v", rec)
	}
	if len(rec.Warnings) != 1 || len(rec.Data.Assignments) != 2 {
		t.Errorf("unexpected warnings/assignments %+v", rec)
	}

	summary, err := s.Summary(ctx, "doc-1")
	if err != nil || summary != "General chemistry II." {
		t.Errorf("Summary() = %q, %v", summary, err)
	}
}

func TestSQLite_EntriesTypedAndClamped(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.Save(ctx, sampleRecord("doc-1", time.Now())); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	all, err := s.Entries(ctx, "doc-1", "")
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
	if all[0].Description != "Problem Set #1" || all[0].Confidence != 100 {
		t.Errorf("expected earliest entry first with clamped confidence, got %+v", all[0])
	}

	exams, err := s.Entries(ctx, "doc-1", EntryExam)
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	if len(exams) != 1 || exams[0].Type != EntryExam || exams[0].TimeDue != "19:30" {
		t.Errorf("unexpected exams %+v", exams)
	}
}

func TestSQLite_SaveReplacesEntries(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	rec := sampleRecord("doc-1", time.Now())
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	rec.Data.Assignments = rec.Data.Assignments[:1]
	rec.Data.Summary = ""
	rec.Degraded = true
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	entries, err := s.Entries(ctx, "doc-1", EntryAssignment)
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 assignment after replace, got %d", len(entries))
	}
	if _, err := s.Summary(ctx, "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected summary removed, got %v", err)
	}
	got, err := s.Get(ctx, "doc-1")
	if err != nil || !got.Degraded {
		t.Errorf("expected degraded record, got %+v, %v", got, err)
	}
}

func TestSQLite_ListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := s.Save(ctx, sampleRecord(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Save(%s) error = %v", id, err)
		}
	}

	list, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 || list[0].ID != "c" || list[1].ID != "b" {
		t.Fatalf("unexpected listing %+v", list)
	}
	if list[0].CourseName != "CHEM 2090" {
		t.Errorf("unexpected course name %q", list[0].CourseName)
	}
}

func TestSQLite_DeleteCascades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.Save(ctx, sampleRecord("doc-1", time.Now())); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Delete(ctx, "doc-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
	entries, err := s.Entries(ctx, "doc-1", "")
	if err != nil || len(entries) != 0 {
		t.Errorf("expected entries removed, got %+v, %v", entries, err)
	}
	if err := s.Delete(ctx, "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected not found on second delete, got %v", err)
	}
}

func TestOpen_ReopenSkipsAppliedMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sylex.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	defer s.Close()

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 applied migration, got %d", n)
	}
}
