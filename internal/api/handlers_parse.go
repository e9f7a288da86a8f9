package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/sylex/internal/parser"
	"github.com/dgallion1/sylex/internal/storage"
)

type parseRequest struct {
	Reference string `json:"reference"`
}

// handleParse queues an extraction for an uploaded file or a storage
// reference.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var ref, filename string
	if isMultipart(r) {
		var ok bool
		ref, filename, ok = s.storeUpload(w, r)
		if !ok {
			return
		}
	} else {
		parsed, ok := s.decodeReference(w, r)
		if !ok {
			return
		}
		ref, filename = parsed.String(), parsed.Name()
	}

	job, err := s.deps.Orchestrator.Submit(ref, filename)
	if err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	snap := job.Snapshot()
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":    snap.ID,
		"doc_id":    snap.DocID,
		"reference": snap.Reference,
		"status":    snap.Status,
		"poll_url":  fmt.Sprintf("/api/jobs/%s", snap.ID),
	})
}

// handleParseSync runs the engine inline and returns its Result. Nothing is
// persisted.
func (s *Server) handleParseSync(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.decodeReference(w, r)
	if !ok {
		return
	}
	res := s.deps.Orchestrator.Engine().Parse(r.Context(), ref.String())
	status := http.StatusOK
	if !res.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"jobs": s.deps.Orchestrator.Jobs()})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.deps.Orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.deps.Orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	if !s.deps.Orchestrator.CancelJob(jobID) {
		jsonError(w, "job already finished", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// storeUpload reads the multipart "file" field and stores it. It writes the
// error response itself and reports false on failure.
func (s *Server) storeUpload(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return "", "", false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return "", "", false
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return "", "", false
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return "", "", false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return "", "", false
	}

	ref, err := s.deps.Uploads.Put(r.Context(), filename, data)
	if err != nil {
		s.log.Error("upload failed", "filename", filename, "error", err)
		jsonError(w, "failed to store upload", http.StatusInternalServerError)
		return "", "", false
	}
	return ref.String(), filename, true
}

// decodeReference reads {"reference": ...} and validates it before any I/O.
// Local references are only accepted below the upload location.
func (s *Server) decodeReference(w http.ResponseWriter, r *http.Request) (storage.Reference, bool) {
	var req parseRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 64*1024)).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return storage.Reference{}, false
	}
	ref, err := storage.ParseReference(strings.TrimSpace(req.Reference))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return storage.Reference{}, false
	}
	if ref.Local() && !ref.Within(s.cfg.UploadBaseURL) {
		jsonError(w, "local references must point inside the upload location", http.StatusForbidden)
		return storage.Reference{}, false
	}
	return ref, true
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Browsers on Windows may send the full client path.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}

var errNoPersistence = errors.New("persistence is disabled")
