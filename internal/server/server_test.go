package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/matryer/is"
	"github.com/segmentio/encoding/json"

	"github.com/bet-lab/reference-validator/internal/merge"
	"github.com/bet-lab/reference-validator/internal/model"
	"github.com/bet-lab/reference-validator/internal/session"
	"github.com/bet-lab/reference-validator/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	is := is.New(t)
	entry := model.Entry{
		CiteKey:   "vaswani2017",
		EntryType: model.Article,
		Fields:    map[string]string{model.FieldTitle: "Attention is All You Need", model.FieldYear: "2016"},
	}
	s := store.New(nil)
	is.NoErr(s.Load([]model.Entry{entry}))

	sources := map[model.SourceName]model.SourceRecord{
		model.SourceCrossref:        {"published-print.date-parts": 2017},
		model.SourceSemanticScholar: {"year": "2017"},
	}
	original := map[model.FieldName]string{model.FieldYear: "2016"}
	result := merge.Merge(entry, nil, sources, original)

	sess := session.New(s, []*model.ValidationResult{result})
	return New(sess)
}

func TestHandleListEntries(t *testing.T) {
	is := is.New(t)
	srv := newTestServer(t)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/entries", nil)
	srv.ServeHTTP(w, r)

	is.Equal(w.Code, http.StatusOK)
	var results []*model.ValidationResult
	is.NoErr(json.Unmarshal(w.Body.Bytes(), &results))
	is.Equal(len(results), 1)
	is.Equal(results[0].EntryKey, "vaswani2017")
}

func TestHandleGetEntryNotFound(t *testing.T) {
	is := is.New(t)
	srv := newTestServer(t)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/entry/nonexistent", nil)
	srv.ServeHTTP(w, r)

	is.Equal(w.Code, http.StatusNotFound)
}

func TestHandleAcceptThenReject(t *testing.T) {
	is := is.New(t)
	srv := newTestServer(t)

	body, err := json.Marshal(mutationRequest{Fields: []model.FieldName{model.FieldYear}})
	is.NoErr(err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/entry/vaswani2017/accept", bytes.NewReader(body))
	srv.ServeHTTP(w, r)
	is.Equal(w.Code, http.StatusOK)

	var accepted model.ValidationResult
	is.NoErr(json.Unmarshal(w.Body.Bytes(), &accepted))
	is.Equal(accepted.NormalizedEntry.Get(model.FieldYear), "2017")

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/api/entry/vaswani2017/reject", bytes.NewReader(body))
	srv.ServeHTTP(w, r)
	is.Equal(w.Code, http.StatusOK)

	var rejected model.ValidationResult
	is.NoErr(json.Unmarshal(w.Body.Bytes(), &rejected))
	is.Equal(rejected.NormalizedEntry.Get(model.FieldYear), "2016")
}

func TestHandleAcceptAllGlobal(t *testing.T) {
	is := is.New(t)
	srv := newTestServer(t)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/accept_all_global", nil)
	srv.ServeHTTP(w, r)

	is.Equal(w.Code, http.StatusOK)
	var results []*model.ValidationResult
	is.NoErr(json.Unmarshal(w.Body.Bytes(), &results))
	is.Equal(len(results[0].FieldsConflict), 0)
}

func TestHandleStats(t *testing.T) {
	is := is.New(t)
	srv := newTestServer(t)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/stats", nil)
	srv.ServeHTTP(w, r)

	is.Equal(w.Code, http.StatusOK)
}
