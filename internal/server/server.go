// Package server binds the review-session protocol — list_entries,
// get_entry, accept, reject, restore, accept_all_global — to an HTTP
// API: a gorilla/mux router built with a Routes method, request/runtime
// stats via thoas/stats exposed on /stats, and a uniform httpErrLog
// helper for status-code inference.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/segmentio/encoding/json"
	"github.com/thoas/stats"

	"github.com/bet-lab/reference-validator/internal/model"
	"github.com/bet-lab/reference-validator/internal/session"
)

// Server is a thin HTTP binding over one Session: a narrow JSON CRUD
// view, with no interactive front-end of its own.
type Server struct {
	Session *session.Session
	Router  *mux.Router
	Stats   *stats.Stats
}

// New builds a Server over sess with its routes registered.
func New(sess *session.Session) *Server {
	s := &Server{
		Session: sess,
		Router:  mux.NewRouter(),
		Stats:   stats.New(),
	}
	s.Routes()
	return s
}

// Routes registers every endpoint in the review-session protocol table.
func (s *Server) Routes() {
	s.Router.HandleFunc("/api/entries", s.handleListEntries()).Methods(http.MethodGet)
	s.Router.HandleFunc("/api/entry/{key}", s.handleGetEntry()).Methods(http.MethodGet)
	s.Router.HandleFunc("/api/entry/{key}/accept", s.handleAccept()).Methods(http.MethodPost)
	s.Router.HandleFunc("/api/entry/{key}/reject", s.handleReject()).Methods(http.MethodPost)
	s.Router.HandleFunc("/api/entry/{key}/restore", s.handleRestore()).Methods(http.MethodPost)
	s.Router.HandleFunc("/api/accept_all_global", s.handleAcceptAllGlobal()).Methods(http.MethodPost)
	s.Router.HandleFunc("/stats", s.handleStats()).Methods(http.MethodGet)
}

// ServeHTTP turns the server into an http.Handler, measuring every
// request through the stats middleware before dispatching to the
// router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Stats.Handler(s.Router).ServeHTTP(w, r)
}

func (s *Server) handleStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Stats.Data())
	}
}

func (s *Server) handleListEntries() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Session.List())
	}
}

func (s *Server) handleGetEntry() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := mux.Vars(r)["key"]
		result, ok := s.Session.Get(key)
		if !ok {
			httpErrLogStatus(w, errEntryNotFound(key), http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// mutationRequest is the shared JSON shape accept/reject/restore read
// their field list (and, for accept, an optional per-field source
// override) from.
type mutationRequest struct {
	Fields          []model.FieldName                    `json:"fields"`
	Field           model.FieldName                      `json:"field"`
	SelectedSources map[model.FieldName]model.SourceName  `json:"sources"`
}

func (s *Server) handleAccept() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := mux.Vars(r)["key"]
		var req mutationRequest
		if err := decodeJSON(r, &req); err != nil {
			httpErrLogStatus(w, err, http.StatusBadRequest)
			return
		}
		if err := s.Session.Accept(r.Context(), key, req.Fields, req.SelectedSources); err != nil {
			httpErrLog(w, err)
			return
		}
		s.respondWithEntry(w, key)
	}
}

func (s *Server) handleReject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := mux.Vars(r)["key"]
		var req mutationRequest
		if err := decodeJSON(r, &req); err != nil {
			httpErrLogStatus(w, err, http.StatusBadRequest)
			return
		}
		if err := s.Session.Reject(r.Context(), key, req.Fields); err != nil {
			httpErrLog(w, err)
			return
		}
		s.respondWithEntry(w, key)
	}
}

func (s *Server) handleRestore() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := mux.Vars(r)["key"]
		var req mutationRequest
		if err := decodeJSON(r, &req); err != nil {
			httpErrLogStatus(w, err, http.StatusBadRequest)
			return
		}
		if err := s.Session.Restore(r.Context(), key, req.Field); err != nil {
			httpErrLog(w, err)
			return
		}
		s.respondWithEntry(w, key)
	}
}

func (s *Server) handleAcceptAllGlobal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Session.AcceptAllGlobal(r.Context()); err != nil {
			httpErrLog(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.Session.List())
	}
}

// respondWithEntry writes the post-commit state of key's entry, per the
// review-session protocol's "all mutations return the post-commit state
// of the affected entry" contract.
func (s *Server) respondWithEntry(w http.ResponseWriter, key string) {
	result, ok := s.Session.Get(key)
	if !ok {
		httpErrLogStatus(w, errEntryNotFound(key), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func errEntryNotFound(key string) error {
	return fmt.Errorf("server: unknown citekey %q", key)
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("server: decode request: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: encode response: %v", err)
	}
}

// httpErrLogStatus logs the error and writes it with the given status.
func httpErrLogStatus(w http.ResponseWriter, err error, status int) {
	log.Printf("server: failed [%d]: %v", status, err)
	http.Error(w, err.Error(), status)
}

// httpErrLog infers an appropriate status code from the error.
func httpErrLog(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, context.Canceled):
		return
	case strings.Contains(err.Error(), "unknown citekey"):
		status = http.StatusNotFound
	}
	httpErrLogStatus(w, err, status)
}
