package compare

import (
	"testing"

	"github.com/bet-lab/reference-validator/internal/model"
)

func TestScenarioD_ConflictingYears(t *testing.T) {
	entry := model.Entry{Fields: map[string]string{model.FieldYear: "2016"}}
	c := Compare(entry, model.SourceCrossref, model.SourceRecord{"published-print.date-parts": 2017})
	got := c.Fields[model.FieldYear]
	if got.Kind != model.KindConflict || got.Local != "2016" || got.API != "2017" {
		t.Fatalf("unexpected classification: %+v", got)
	}
}

func TestScenarioE_CaseOnlyTitleDifferenceIsIdentical(t *testing.T) {
	entry := model.Entry{Fields: map[string]string{model.FieldTitle: "Attention is All You Need"}}
	c := Compare(entry, model.SourceCrossref, model.SourceRecord{"title": "Attention Is All You Need"})
	got := c.Fields[model.FieldTitle]
	if got.Kind != model.KindIdentical {
		t.Fatalf("expected identical after case-insensitive normalization, got %+v", got)
	}
}

func TestScenarioF_MissingPagesBecomesUpdate(t *testing.T) {
	entry := model.Entry{}
	c := Compare(entry, model.SourceCrossref, model.SourceRecord{"page": "770--778"})
	got := c.Fields[model.FieldPages]
	if got.Kind != model.KindMissing || got.API != "770--778" {
		t.Fatalf("expected missing/update for pages, got %+v", got)
	}
}

func TestScenarioF_PagesSeparatorVarianceIsSkipped(t *testing.T) {
	entry := model.Entry{Fields: map[string]string{model.FieldPages: "770-778"}}
	c := Compare(entry, model.SourceCrossref, model.SourceRecord{"page": "770--778"})
	if _, ok := c.Fields[model.FieldPages]; ok {
		t.Fatalf("expected pages to be skipped on separator variance, got %+v", c.Fields[model.FieldPages])
	}
}

func TestTitleMismatchPrefersAPIValue(t *testing.T) {
	entry := model.Entry{Fields: map[string]string{model.FieldTitle: "A Totally Different Title Indeed"}}
	c := Compare(entry, model.SourceCrossref, model.SourceRecord{"title": "Attention Is All You Need"})
	got := c.Fields[model.FieldTitle]
	if got.Kind != model.KindMissing || got.API != "Attention Is All You Need" {
		t.Fatalf("expected api value to win for title mismatch, got %+v", got)
	}
}

func TestShortValuesAreSkipped(t *testing.T) {
	entry := model.Entry{Fields: map[string]string{model.FieldVolume: "3"}}
	c := Compare(entry, model.SourceCrossref, model.SourceRecord{"volume": "30"})
	if _, ok := c.Fields[model.FieldVolume]; ok {
		t.Fatalf("expected short values to be skipped, got %+v", c.Fields[model.FieldVolume])
	}
}

func TestNearDifferenceAboveSimilarityThreshold(t *testing.T) {
	entry := model.Entry{Fields: map[string]string{model.FieldJournal: "Nature Physics"}}
	c := Compare(entry, model.SourceCrossref, model.SourceRecord{"container-title": "Nature Physic"})
	got := c.Fields[model.FieldJournal]
	if got.Kind != model.KindNearDifference {
		t.Fatalf("expected a near-difference for highly similar strings, got %+v", got)
	}
}

func TestUnknownSourceProducesEmptyComparison(t *testing.T) {
	c := Compare(model.Entry{}, model.SourceName("unknown"), model.SourceRecord{"title": "x"})
	if len(c.Fields) != 0 {
		t.Fatalf("expected no classifications for an unmapped source, got %+v", c.Fields)
	}
}

func TestArxivFillsEprintFieldsWhenMissing(t *testing.T) {
	entry := model.Entry{}
	c := Compare(entry, model.SourceArxiv, model.SourceRecord{"arxiv_id": "1706.03762"})
	eprint := c.Fields[model.FieldEprint]
	eprintType := c.Fields[model.FieldEprintType]
	if eprint.Kind != model.KindMissing || eprint.API != "1706.03762" {
		t.Fatalf("unexpected eprint classification: %+v", eprint)
	}
	if eprintType.Kind != model.KindMissing || eprintType.API != "arxiv" {
		t.Fatalf("unexpected eprinttype classification: %+v", eprintType)
	}
}

func TestEntryTypeMappedAgainstLocalEntryType(t *testing.T) {
	entry := model.Entry{EntryType: model.Article, Fields: map[string]string{}}
	c := Compare(entry, model.SourceCrossref, model.SourceRecord{"type": "journal-article"})
	got := c.Fields[model.FieldEntryType]
	if got.Kind != model.KindIdentical {
		t.Fatalf("expected mapped registry type to match local entry type, got %+v", got)
	}
}

func TestEntryTypeConflictWhenMappedTypeDiffers(t *testing.T) {
	entry := model.Entry{EntryType: model.Article, Fields: map[string]string{}}
	c := Compare(entry, model.SourceCrossref, model.SourceRecord{"type": "proceedings-article"})
	got := c.Fields[model.FieldEntryType]
	if got.Kind != model.KindConflict || got.Local != "article" || got.API != "inproceedings" {
		t.Fatalf("expected a conflict between article and inproceedings, got %+v", got)
	}
}

func TestEntryTypeUnmappedRawValueProducesNoCandidate(t *testing.T) {
	entry := model.Entry{EntryType: model.Article, Fields: map[string]string{}}
	c := Compare(entry, model.SourceCrossref, model.SourceRecord{"type": "peer-review"})
	if _, ok := c.Fields[model.FieldEntryType]; ok {
		t.Fatalf("expected no classification for an unmapped raw registry type, got %+v", c.Fields[model.FieldEntryType])
	}
}

func TestJaccardSimilarityIdentical(t *testing.T) {
	if sim := jaccardSimilarity("abc", "abc"); sim != 1 {
		t.Fatalf("expected 1.0 for identical strings, got %v", sim)
	}
}

func TestJaccardSimilarityEmpty(t *testing.T) {
	if sim := jaccardSimilarity("", "abc"); sim != 0 {
		t.Fatalf("expected 0.0 when one side is empty, got %v", sim)
	}
}
