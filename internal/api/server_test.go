package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/sylex/internal/config"
	"github.com/dgallion1/sylex/internal/extract"
	"github.com/dgallion1/sylex/internal/pipeline"
	"github.com/dgallion1/sylex/internal/storage"
	"github.com/dgallion1/sylex/internal/store"
	"github.com/dgallion1/sylex/internal/syllabus"
)

const chemSyllabus = "CHEM 2090 - General Chemistry II\n" +
	"Instructor: Dr. Ana Ruiz\n" +
	"Spring 2024\n" +
	"Lectures: MWF, 9:05-9:55a, in 200 Baker Laboratory\n" +
	"#3 (Due 2/20)\n"

type testEnv struct {
	srv *Server
	dir string
}

func newTestEnv(t *testing.T, persist bool) *testEnv {
	t.Helper()
	dir := t.TempDir()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{Port: "8090", MaxUploadBytes: 1 << 20, UploadBaseURL: "file://" + dir}

	uploads := storage.New("file://"+dir, 0)
	engine := pipeline.NewEngine(uploads, nil, pipeline.EngineConfig{}, log)

	var results *store.SQLite
	var sink pipeline.ResultSink
	if persist {
		db, err := store.Open(filepath.Join(dir, "sylex.db"))
		if err != nil {
			t.Fatalf("open store: %v", err)
		}
		t.Cleanup(func() { db.Close() })
		results, sink = db, db
	}

	orch := pipeline.NewOrchestrator(pipeline.OrchestratorConfig{Workers: 1, QueueSize: 8}, engine, sink, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)

	srv := NewServer(Deps{
		Orchestrator: orch,
		Uploads:      uploads,
		Results:      results,
		Stats:        extract.NewLLMStats(time.Hour),
		Model:        "gpt-4o-mini",
	}, log, cfg)
	return &testEnv{srv: srv, dir: dir}
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.srv.ServeHTTP(w, req)
	return w
}

func (e *testEnv) upload(t *testing.T, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(content))
	mw.Close()
	return e.do(t, http.MethodPost, "/api/parse", &buf, mw.FormDataContentType())
}

func (e *testEnv) waitJob(t *testing.T, id string) pipeline.JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		w := e.do(t, http.MethodGet, "/api/jobs/"+id, nil, "")
		if w.Code != http.StatusOK {
			t.Fatalf("job status: %d %s", w.Code, w.Body.String())
		}
		var snap pipeline.JobSnapshot
		if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
			t.Fatalf("decode job: %v", err)
		}
		if snap.Status.Terminal() {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", id)
	return pipeline.JobSnapshot{}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.do(t, http.MethodGet, "/health", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]any
	decode(t, w, &body)
	if body["status"] != "ok" || body["llm"] != false || body["persistence"] != false {
		t.Errorf("unexpected body %v", body)
	}
}

func TestParse_UploadLifecycle(t *testing.T) {
	env := newTestEnv(t, true)

	w := env.upload(t, "chem.txt", chemSyllabus)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var accepted map[string]string
	decode(t, w, &accepted)
	if accepted["poll_url"] != "/api/jobs/"+accepted["job_id"] {
		t.Errorf("unexpected poll url %q", accepted["poll_url"])
	}
	if !strings.HasPrefix(accepted["reference"], "file://"+env.dir) {
		t.Errorf("upload stored outside base: %q", accepted["reference"])
	}

	snap := env.waitJob(t, accepted["job_id"])
	if snap.Status != pipeline.StatusDegraded {
		t.Fatalf("job status = %q, errors %v", snap.Status, snap.Progress.Errors)
	}
	if snap.Result == nil || snap.Result.Parsed == nil || snap.Result.Parsed.Instructor != "Dr. Ana Ruiz" {
		t.Errorf("unexpected result %+v", snap.Result)
	}

	docID := accepted["doc_id"]
	w = env.do(t, http.MethodGet, "/api/syllabi/"+docID, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get syllabus: %d %s", w.Code, w.Body.String())
	}
	var rec store.Record
	decode(t, w, &rec)
	if rec.Data == nil || rec.Data.CourseName != "CHEM 2090 - General Chemistry II" || !rec.Degraded {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.Term != "Spring 2024" {
		t.Errorf("term = %q", rec.Term)
	}

	w = env.do(t, http.MethodGet, "/api/syllabi", nil, "")
	var list struct {
		Syllabi []store.Listing `json:"syllabi"`
	}
	decode(t, w, &list)
	if len(list.Syllabi) != 1 || list.Syllabi[0].ID != docID {
		t.Errorf("unexpected listing %+v", list.Syllabi)
	}

	w = env.do(t, http.MethodGet, "/api/syllabi/"+docID+"/entries?type=assignment", nil, "")
	var entries struct {
		Entries []store.Entry `json:"entries"`
	}
	decode(t, w, &entries)
	if len(entries.Entries) != 1 || entries.Entries[0].Description != "Problem Set #3" {
		t.Errorf("unexpected entries %+v", entries.Entries)
	}

	w = env.do(t, http.MethodGet, "/api/syllabi/"+docID+"/calendar.ics", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("calendar: %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "BEGIN:VCALENDAR") || !strings.Contains(w.Body.String(), "Problem Set #3") {
		t.Errorf("unexpected feed:\n%s", w.Body.String())
	}

	w = env.do(t, http.MethodDelete, "/api/syllabi/"+docID, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete: %d", w.Code)
	}
	w = env.do(t, http.MethodGet, "/api/syllabi/"+docID, nil, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", w.Code)
	}
}

func TestParse_Reference(t *testing.T) {
	env := newTestEnv(t, false)
	p := filepath.Join(env.dir, "notes.md")
	if err := os.WriteFile(p, []byte("# CS 3110 - Functional Programming\n\nProfessor: Lee\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := env.do(t, http.MethodPost, "/api/parse", strings.NewReader(`{"reference":"file://`+p+`"}`), "application/json")
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var accepted map[string]string
	decode(t, w, &accepted)
	snap := env.waitJob(t, accepted["job_id"])
	if snap.Status != pipeline.StatusDegraded {
		t.Errorf("status = %q, errors %v", snap.Status, snap.Progress.Errors)
	}
	if snap.Filename != "notes.md" {
		t.Errorf("filename = %q", snap.Filename)
	}
}

func TestParse_BadRequests(t *testing.T) {
	env := newTestEnv(t, false)
	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{"reference":`},
		{"unsupported scheme", `{"reference":"ftp://host/a.pdf"}`},
		{"missing object", `{"reference":"gs://bucket/"}`},
		{"empty", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/parse", strings.NewReader(tt.body), "application/json")
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d: %s", w.Code, w.Body.String())
			}
		})
	}

	w := env.upload(t, "setup.exe", "MZ")
	if w.Code != http.StatusBadRequest {
		t.Errorf("unsupported upload status = %d", w.Code)
	}
}

func TestParse_LocalReferenceOutsideUploads(t *testing.T) {
	env := newTestEnv(t, false)
	outside := filepath.Join(t.TempDir(), "server.env")
	if err := os.WriteFile(outside, []byte("OPENAI_API_KEY=sk-live-SECRET123\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, ref := range []string{
		"file://" + outside,
		"file://" + env.dir + "/../" + filepath.Base(filepath.Dir(outside)) + "/server.env",
		"mem://localhost/server.env",
	} {
		for _, path := range []string{"/api/parse", "/api/parse/sync"} {
			w := env.do(t, http.MethodPost, path, strings.NewReader(`{"reference":"`+ref+`"}`), "application/json")
			if w.Code != http.StatusForbidden {
				t.Errorf("%s %s: status = %d", path, ref, w.Code)
			}
			if strings.Contains(w.Body.String(), "SECRET123") {
				t.Errorf("%s %s: response leaked file contents", path, ref)
			}
		}
	}
	if n := len(env.srv.deps.Orchestrator.Jobs()); n != 0 {
		t.Errorf("expected no jobs queued, got %d", n)
	}
}

func TestParse_UploadTooLarge(t *testing.T) {
	env := newTestEnv(t, false)
	env.srv.cfg.MaxUploadBytes = 16
	w := env.upload(t, "big.txt", strings.Repeat("x", 64))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d: %s", w.Code, w.Body.String())
	}
}

func TestParseSync(t *testing.T) {
	env := newTestEnv(t, false)
	p := filepath.Join(env.dir, "chem.txt")
	if err := os.WriteFile(p, []byte(chemSyllabus), 0o644); err != nil {
		t.Fatal(err)
	}

	w := env.do(t, http.MethodPost, "/api/parse/sync", strings.NewReader(`{"reference":"file://`+p+`"}`), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var res pipeline.Result
	decode(t, w, &res)
	if !res.Success || !res.Degraded || res.Parsed == nil || len(res.Parsed.Lectures) != 3 {
		t.Errorf("unexpected result %+v", res)
	}

	w = env.do(t, http.MethodPost, "/api/parse/sync", strings.NewReader(`{"reference":"file://`+env.dir+`/absent.pdf"}`), "application/json")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", w.Code)
	}
	decode(t, w, &res)
	if res.Success || res.ErrorKind != syllabus.KindFetchFailed {
		t.Errorf("unexpected failure %+v", res)
	}
}

func TestJobs_NotFoundAndFinished(t *testing.T) {
	env := newTestEnv(t, false)
	if w := env.do(t, http.MethodGet, "/api/jobs/nope", nil, ""); w.Code != http.StatusNotFound {
		t.Errorf("get status = %d", w.Code)
	}
	if w := env.do(t, http.MethodDelete, "/api/jobs/nope", nil, ""); w.Code != http.StatusNotFound {
		t.Errorf("cancel status = %d", w.Code)
	}

	w := env.upload(t, "chem.txt", chemSyllabus)
	var accepted map[string]string
	decode(t, w, &accepted)
	env.waitJob(t, accepted["job_id"])

	if w := env.do(t, http.MethodDelete, "/api/jobs/"+accepted["job_id"], nil, ""); w.Code != http.StatusConflict {
		t.Errorf("cancel finished status = %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/api/jobs", nil, "")
	var list struct {
		Jobs []pipeline.JobSnapshot `json:"jobs"`
	}
	decode(t, w, &list)
	if len(list.Jobs) != 1 {
		t.Errorf("expected 1 job, got %d", len(list.Jobs))
	}
}

func TestSyllabi_PersistenceDisabled(t *testing.T) {
	env := newTestEnv(t, false)
	for _, path := range []string{"/api/syllabi", "/api/syllabi/x", "/api/syllabi/x/calendar.ics"} {
		if w := env.do(t, http.MethodGet, path, nil, ""); w.Code != http.StatusServiceUnavailable {
			t.Errorf("%s status = %d", path, w.Code)
		}
	}
}

func TestSyllabi_Errors(t *testing.T) {
	env := newTestEnv(t, true)
	if w := env.do(t, http.MethodGet, "/api/syllabi/missing", nil, ""); w.Code != http.StatusNotFound {
		t.Errorf("get status = %d", w.Code)
	}
	if w := env.do(t, http.MethodDelete, "/api/syllabi/missing", nil, ""); w.Code != http.StatusNotFound {
		t.Errorf("delete status = %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/syllabi/missing/entries?type=quiz", nil, ""); w.Code != http.StatusBadRequest {
		t.Errorf("entries status = %d", w.Code)
	}
}

func TestLLMStats(t *testing.T) {
	env := newTestEnv(t, false)
	env.srv.deps.Stats.Record(250*time.Millisecond, "")
	w := env.do(t, http.MethodGet, "/api/stats/llm", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Model string                `json:"model"`
		Stats extract.StatsSnapshot `json:"stats"`
	}
	decode(t, w, &body)
	if body.Model != "gpt-4o-mini" || body.Stats.Count != 1 {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"syllabus.pdf":              "syllabus.pdf",
		"../../etc/passwd":          "passwd",
		`C:\Users\me\Syllabus.docx`: "Syllabus.docx",
		"":                          "unnamed",
		"a..b.txt":                  "a_b.txt",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
