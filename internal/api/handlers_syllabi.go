package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/sylex/internal/calendar"
	"github.com/dgallion1/sylex/internal/store"
)

func (s *Server) handleListSyllabi(w http.ResponseWriter, r *http.Request) {
	if !s.requireResults(w) {
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	list, err := s.deps.Results.List(r.Context(), limit)
	if err != nil {
		jsonError(w, "failed to list syllabi: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []store.Listing{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"syllabi": list})
}

func (s *Server) handleGetSyllabus(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadRecord(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteSyllabus(w http.ResponseWriter, r *http.Request) {
	if !s.requireResults(w) {
		return
	}
	docID := chi.URLParam(r, "docID")
	if err := s.deps.Results.Delete(r.Context(), docID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "syllabus not found", http.StatusNotFound)
			return
		}
		jsonError(w, "failed to delete: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"doc_id": docID, "deleted": true})
}

// handleEntries returns the flattened assignment and exam rows, optionally
// filtered by ?type=assignment|exam.
func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	typ := r.URL.Query().Get("type")
	if typ != "" && typ != store.EntryAssignment && typ != store.EntryExam {
		jsonError(w, "type must be assignment or exam", http.StatusBadRequest)
		return
	}
	rec, ok := s.loadRecord(w, r)
	if !ok {
		return
	}
	docID := rec.ID
	summary, err := s.deps.Results.Summary(r.Context(), docID)
	if errors.Is(err, store.ErrNotFound) {
		summary = ""
	} else if err != nil {
		jsonError(w, "failed to read summary: "+err.Error(), http.StatusInternalServerError)
		return
	}
	entries, err := s.deps.Results.Entries(r.Context(), docID, typ)
	if err != nil {
		jsonError(w, "failed to read entries: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []store.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"doc_id":  docID,
		"summary": summary,
		"entries": entries,
	})
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadRecord(w, r)
	if !ok {
		return
	}
	feed, n := calendar.Export(rec.Data, calendar.Options{
		ID:        rec.ID,
		TermStart: rec.TermStart,
		TermEnd:   rec.TermEnd,
	})
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+rec.ID+`.ics"`)
	w.Header().Set("X-Event-Count", strconv.Itoa(n))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(feed))
}

func (s *Server) loadRecord(w http.ResponseWriter, r *http.Request) (*store.Record, bool) {
	if !s.requireResults(w) {
		return nil, false
	}
	rec, err := s.deps.Results.Get(r.Context(), chi.URLParam(r, "docID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "syllabus not found", http.StatusNotFound)
			return nil, false
		}
		jsonError(w, "failed to load syllabus: "+err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return rec, true
}

func (s *Server) requireResults(w http.ResponseWriter) bool {
	if s.deps.Results == nil {
		jsonError(w, errNoPersistence.Error(), http.StatusServiceUnavailable)
		return false
	}
	return true
}
