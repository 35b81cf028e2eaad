package merge

import (
	"testing"

	"github.com/bet-lab/reference-validator/internal/model"
)

func TestScenarioD_CrossrefWinsOverSemanticScholar(t *testing.T) {
	entry := model.Entry{CiteKey: "k", EntryType: model.Article, Fields: map[string]string{model.FieldYear: "2016"}}
	sources := map[model.SourceName]model.SourceRecord{
		model.SourceCrossref:        {"published-print.date-parts": 2017},
		model.SourceSemanticScholar: {"year": "2017"},
	}
	result := Merge(entry, nil, sources, nil)

	conflict, ok := result.FieldsConflict[model.FieldYear]
	if !ok || conflict != [2]string{"2016", "2017"} {
		t.Fatalf("expected a year conflict of (2016, 2017), got %+v ok=%v", conflict, ok)
	}
	if result.FieldSources[model.FieldYear] != model.SourceCrossref {
		t.Fatalf("expected crossref to win, got %q", result.FieldSources[model.FieldYear])
	}
	if len(result.FieldSourceOptions[model.FieldYear]) != 1 {
		t.Fatalf("expected semantic scholar's identical value to be deduplicated, got %+v", result.FieldSourceOptions[model.FieldYear])
	}
}

func TestInvariant_ClassificationExclusivity(t *testing.T) {
	entry := model.Entry{CiteKey: "k", Fields: map[string]string{model.FieldTitle: "Attention is All You Need"}}
	sources := map[model.SourceName]model.SourceRecord{
		model.SourceCrossref: {"title": "Attention Is All You Need"},
	}
	result := Merge(entry, nil, sources, nil)

	count := 0
	if _, ok := result.FieldsUpdated[model.FieldTitle]; ok {
		count++
	}
	if _, ok := result.FieldsConflict[model.FieldTitle]; ok {
		count++
	}
	if _, ok := result.FieldsIdentical[model.FieldTitle]; ok {
		count++
	}
	if _, ok := result.FieldsDifferent[model.FieldTitle]; ok {
		count++
	}
	if count != 1 {
		t.Fatalf("expected the title field to land in exactly one classification map, landed in %d", count)
	}
}

func TestInvariant_PriorityStability(t *testing.T) {
	entry := model.Entry{CiteKey: "k"}
	sources := map[model.SourceName]model.SourceRecord{
		model.SourceCrossref: {"container-title": "Nature Physics"},
		model.SourceDBLP:     {"venue": "Nature Phys."},
	}
	result := Merge(entry, nil, sources, nil)

	options := result.FieldSourceOptions[model.FieldJournal]
	if len(options) == 0 {
		t.Fatalf("expected journal source options, got none")
	}
	if result.FieldSources[model.FieldJournal] != options[0] {
		t.Fatalf("winning source %q is not the first option %+v", result.FieldSources[model.FieldJournal], options)
	}
}

func TestScenarioC_ZenodoPublisherField(t *testing.T) {
	entry := model.Entry{CiteKey: "k", EntryType: model.Misc, Fields: map[string]string{model.FieldDOI: "10.5281/zenodo.1234567"}}
	sources := map[model.SourceName]model.SourceRecord{
		model.SourceZenodo: {"publisher": "Zenodo", "doi": "10.5281/zenodo.1234567"},
	}
	result := Merge(entry, nil, sources, nil)
	if result.FieldsUpdated[model.FieldPublisher] != "Zenodo" {
		t.Fatalf("expected publisher=Zenodo to be proposed, got %+v", result.FieldsUpdated)
	}
}

func TestFieldsMissingComesFromLintOnly(t *testing.T) {
	entry := model.Entry{CiteKey: "k", EntryType: model.Article}
	lintMessages := []model.LintMessage{
		{Level: model.LintError, Code: "missing_required", Field: model.FieldAuthor},
		{Level: model.LintWarning, Code: "missing_recommended", Field: model.FieldVolume},
	}
	result := Merge(entry, lintMessages, nil, nil)
	if len(result.FieldsMissing) != 1 || result.FieldsMissing[0] != model.FieldAuthor {
		t.Fatalf("expected fields_missing to contain only author, got %+v", result.FieldsMissing)
	}
}

func TestDOIValidityForArxivDOI(t *testing.T) {
	entry := model.Entry{CiteKey: "k", Fields: map[string]string{model.FieldDOI: "10.48550/arXiv.1706.03762"}}
	sources := map[model.SourceName]model.SourceRecord{
		model.SourceArxiv: {"title": "Attention Is All You Need"},
	}
	result := Merge(entry, nil, sources, nil)
	if !result.HasDOI || !result.DOIValid {
		t.Fatalf("expected arxiv-doi validity confirmed by an arxiv result, got has=%v valid=%v", result.HasDOI, result.DOIValid)
	}
}
