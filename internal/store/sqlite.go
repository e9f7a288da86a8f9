// Package store persists extraction results in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dgallion1/sylex/internal/store/migrations"
	"github.com/dgallion1/sylex/internal/syllabus"
)

var ErrNotFound = errors.New("not found")

// timeLayout sorts lexically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const (
	EntryAssignment = "assignment"
	EntryExam       = "exam"
)

// Document identifies one ingested syllabus file.
type Document struct {
	ID        string    `json:"id"`
	Reference string    `json:"reference"`
	Filename  string    `json:"filename"`
	CreatedAt time.Time `json:"created_at"`
}

// Record is a document together with its extraction result.
type Record struct {
	Document
	Term      string         `json:"term,omitempty"`
	TermStart string         `json:"term_start,omitempty"`
	TermEnd   string         `json:"term_end,omitempty"`
	Degraded  bool           `json:"degraded"`
	Warnings  []string       `json:"warnings,omitempty"`
	Data      *syllabus.Data `json:"data"`
}

// Listing is one row of the result index.
type Listing struct {
	Document
	CourseName string `json:"course_name"`
	Term       string `json:"term,omitempty"`
	Degraded   bool   `json:"degraded"`
}

// Entry is a flattened assignment or exam row.
type Entry struct {
	ID          int64  `json:"id"`
	DocumentID  string `json:"document_id"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Date        string `json:"date"`
	TimeDue     string `json:"time_due"`
	Confidence  int    `json:"confidence"`
}

// SQLite is the result store.
type SQLite struct {
	db   *sql.DB
	path string
}

// Open creates or opens the database at path and applies pending
// migrations.
func Open(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLite{db: db, path: path}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Path() string { return s.path }

func (s *SQLite) migrate(fsys fs.FS) error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
			version, time.Now().UTC().Format(time.RFC3339)); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// Save stores or replaces a record and its flattened entries in one
// transaction.
func (s *SQLite) Save(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return errors.New("save: document id is required")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	data := rec.Data
	if data == nil {
		data = &syllabus.Data{}
	}
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshalling data: %w", err)
	}
	warnings := rec.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return fmt.Errorf("marshalling warnings: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(timeLayout)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (id, reference, filename, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET reference = excluded.reference, filename = excluded.filename
	`, rec.ID, rec.Reference, rec.Filename, rec.CreatedAt.UTC().Format(timeLayout)); err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO syllabi (document_id, course_name, term, term_start, term_end, degraded, warnings, data, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			course_name = excluded.course_name,
			term = excluded.term,
			term_start = excluded.term_start,
			term_end = excluded.term_end,
			degraded = excluded.degraded,
			warnings = excluded.warnings,
			data = excluded.data,
			updated_at = excluded.updated_at
	`, rec.ID, data.CourseName, rec.Term, rec.TermStart, rec.TermEnd, rec.Degraded, string(warningsJSON), string(dataJSON), now); err != nil {
		return fmt.Errorf("saving syllabus: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM summaries WHERE document_id = ?", rec.ID); err != nil {
		return fmt.Errorf("clearing summary: %w", err)
	}
	if summary := strings.TrimSpace(data.Summary); summary != "" && summary != syllabus.NotListed {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO summaries (document_id, summary, confidence) VALUES (?, ?, NULL)",
			rec.ID, summary); err != nil {
			return fmt.Errorf("saving summary: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM entries WHERE document_id = ?", rec.ID); err != nil {
		return fmt.Errorf("clearing entries: %w", err)
	}
	insert := func(typ, desc, date, due string, conf int) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO entries (document_id, type, description, date, time_due, confidence)
			VALUES (?, ?, ?, ?, ?, ?)
		`, rec.ID, typ, desc, date, due, min(max(conf, 0), 100))
		return err
	}
	for _, a := range data.Assignments {
		if err := insert(EntryAssignment, a.Description, a.Date, a.TimeDue, a.Confidence); err != nil {
			return fmt.Errorf("saving assignment: %w", err)
		}
	}
	for _, e := range data.Exams {
		if err := insert(EntryExam, e.Description, e.Date, e.TimeDue, e.Confidence); err != nil {
			return fmt.Errorf("saving exam: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Get loads one record by document ID.
func (s *SQLite) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT d.id, d.reference, d.filename, d.created_at, y.term, y.term_start, y.term_end, y.degraded, y.warnings, y.data
		FROM documents d JOIN syllabi y ON y.document_id = d.id
		WHERE d.id = ?
	`, id)

	var rec Record
	var createdAt, warningsJSON, dataJSON string
	if err := row.Scan(&rec.ID, &rec.Reference, &rec.Filename, &createdAt,
		&rec.Term, &rec.TermStart, &rec.TermEnd, &rec.Degraded, &warningsJSON, &dataJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning record: %w", err)
	}
	rec.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	if err := json.Unmarshal([]byte(warningsJSON), &rec.Warnings); err != nil {
		return nil, fmt.Errorf("unmarshalling warnings: %w", err)
	}
	rec.Data = &syllabus.Data{}
	if err := json.Unmarshal([]byte(dataJSON), rec.Data); err != nil {
		return nil, fmt.Errorf("unmarshalling data: %w", err)
	}
	return &rec, nil
}

// List returns the most recent records first.
func (s *SQLite) List(ctx context.Context, limit int) ([]Listing, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.reference, d.filename, d.created_at, y.course_name, y.term, y.degraded
		FROM documents d JOIN syllabi y ON y.document_id = d.id
		ORDER BY d.created_at DESC, d.id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	out := []Listing{}
	for rows.Next() {
		var l Listing
		var createdAt string
		if err := rows.Scan(&l.ID, &l.Reference, &l.Filename, &createdAt, &l.CourseName, &l.Term, &l.Degraded); err != nil {
			return nil, fmt.Errorf("scanning listing: %w", err)
		}
		l.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		out = append(out, l)
	}
	return out, rows.Err()
}

// Entries returns the flattened rows for a document, optionally filtered by
// type ("assignment" or "exam"), ordered by date.
func (s *SQLite) Entries(ctx context.Context, id, typ string) ([]Entry, error) {
	query := `SELECT id, document_id, type, description, date, time_due, COALESCE(confidence, 0)
		FROM entries WHERE document_id = ?`
	args := []any{id}
	if typ != "" {
		query += " AND type = ?"
		args = append(args, typ)
	}
	query += " ORDER BY date, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.DocumentID, &e.Type, &e.Description, &e.Date, &e.TimeDue, &e.Confidence); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Summary returns the stored course summary for a document.
func (s *SQLite) Summary(ctx context.Context, id string) (string, error) {
	var summary string
	err := s.db.QueryRowContext(ctx, "SELECT summary FROM summaries WHERE document_id = ?", id).Scan(&summary)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading summary: %w", err)
	}
	return summary, nil
}

// Delete removes a document and everything derived from it.
func (s *SQLite) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
