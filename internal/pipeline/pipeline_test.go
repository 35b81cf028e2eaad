package pipeline

import (
	"context"
	"testing"

	"github.com/bet-lab/reference-validator/internal/adapters"
	"github.com/bet-lab/reference-validator/internal/bibtexio"
	"github.com/bet-lab/reference-validator/internal/model"
	"github.com/bet-lab/reference-validator/internal/orchestrator"
	"github.com/bet-lab/reference-validator/internal/ratelimit"
)

type stubAdapter struct {
	name   model.SourceName
	record model.SourceRecord
}

func (s *stubAdapter) Name() model.SourceName { return s.name }
func (s *stubAdapter) Execute(ctx context.Context, q adapters.Query) (model.SourceRecord, error) {
	return s.record, nil
}

func TestPrepareSnapshotsOriginalValuesBeforeNormalization(t *testing.T) {
	raw := []bibtexio.RawEntry{
		{EntryType: "Article", CiteKey: "k1", Fields: map[string]string{"Author": "Doe, Jane", "year": "2016"}},
	}
	entries, originals := Prepare(raw)
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	snapshot := originals["k1"]
	if snapshot["Author"] != "Doe, Jane" {
		t.Fatalf("expected raw field name preserved in snapshot, got %+v", snapshot)
	}
	if entries[0].Get(model.FieldAuthor) != "Doe, Jane" {
		t.Fatalf("expected normalized entry to alias Author to author, got %+v", entries[0])
	}
}

func TestRunProcessesEveryEntryAndPreservesOrder(t *testing.T) {
	entries := []model.Entry{
		{CiteKey: "b", EntryType: model.Misc, Fields: map[string]string{model.FieldTitle: "A Long Enough Title Here"}},
		{CiteKey: "a", EntryType: model.Misc, Fields: map[string]string{model.FieldTitle: "Another Sufficiently Long Title"}},
	}
	originals := map[string]map[model.FieldName]string{
		"a": {}, "b": {},
	}

	adapterSet := map[model.SourceName]adapters.Adapter{
		model.SourceDBLP: &stubAdapter{name: model.SourceDBLP, record: model.SourceRecord{"title": "x"}},
	}
	o := orchestrator.New(adapterSet, ratelimit.New(1))
	p := New(o, 2)

	results, err := p.Run(context.Background(), entries, originals)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].EntryKey != "b" || results[1].EntryKey != "a" {
		t.Fatalf("expected results to preserve input order, got %q then %q", results[0].EntryKey, results[1].EntryKey)
	}
}
