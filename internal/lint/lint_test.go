package lint

import (
	"testing"

	"github.com/bet-lab/reference-validator/internal/model"
)

func hasCode(messages []model.LintMessage, code string) bool {
	for _, m := range messages {
		if m.Code == code {
			return true
		}
	}
	return false
}

func TestArticleMissingRequired(t *testing.T) {
	e := model.Entry{EntryType: model.Article, CiteKey: "k", Fields: map[string]string{
		model.FieldTitle: "X",
	}}
	messages := Lint(e)
	if !hasCode(messages, "missing_required") {
		t.Fatalf("expected missing_required findings, got %+v", messages)
	}
}

func TestArticleVolPagesStrong(t *testing.T) {
	e := model.Entry{EntryType: model.Article, CiteKey: "k", Fields: map[string]string{
		model.FieldAuthor:  "A",
		model.FieldTitle:   "X",
		model.FieldJournal: "J",
		model.FieldYear:    "2020",
	}}
	messages := Lint(e)
	if !hasCode(messages, "missing_vol_pages_strong") {
		t.Fatalf("expected missing_vol_pages_strong, got %+v", messages)
	}
}

func TestArticleVolPagesWeak(t *testing.T) {
	e := model.Entry{EntryType: model.Article, CiteKey: "k", Fields: map[string]string{
		model.FieldAuthor:  "A",
		model.FieldTitle:   "X",
		model.FieldJournal: "J",
		model.FieldYear:    "2020",
		model.FieldVolume:  "3",
	}}
	messages := Lint(e)
	if !hasCode(messages, "missing_vol_pages_weak") {
		t.Fatalf("expected missing_vol_pages_weak, got %+v", messages)
	}
	if hasCode(messages, "missing_vol_pages_strong") {
		t.Fatalf("should not also report strong, got %+v", messages)
	}
}

func TestArticleCompleteHasNoConditionalWarning(t *testing.T) {
	e := model.Entry{EntryType: model.Article, CiteKey: "k", Fields: map[string]string{
		model.FieldAuthor:  "A",
		model.FieldTitle:   "X",
		model.FieldJournal: "J",
		model.FieldYear:    "2020",
		model.FieldVolume:  "3",
		model.FieldPages:   "1-10",
	}}
	messages := Lint(e)
	if hasCode(messages, "missing_vol_pages_weak") || hasCode(messages, "missing_vol_pages_strong") {
		t.Fatalf("expected no vol/pages warning, got %+v", messages)
	}
}

func TestBookRequiresAuthorOrEditor(t *testing.T) {
	e := model.Entry{EntryType: model.Book, CiteKey: "k", Fields: map[string]string{
		model.FieldTitle:     "X",
		model.FieldPublisher: "P",
		model.FieldYear:      "2020",
	}}
	messages := Lint(e)
	if !hasCode(messages, "missing_required_any") {
		t.Fatalf("expected missing_required_any, got %+v", messages)
	}
}

func TestBookWithEditorSatisfiesRequiredAny(t *testing.T) {
	e := model.Entry{EntryType: model.Book, CiteKey: "k", Fields: map[string]string{
		model.FieldEditor:    "E",
		model.FieldTitle:     "X",
		model.FieldPublisher: "P",
		model.FieldYear:      "2020",
	}}
	messages := Lint(e)
	if hasCode(messages, "missing_required_any") {
		t.Fatalf("editor should satisfy the author/editor group, got %+v", messages)
	}
}

func TestInCollectionMissingContext(t *testing.T) {
	e := model.Entry{EntryType: model.InCollection, CiteKey: "k", Fields: map[string]string{
		model.FieldAuthor:    "A",
		model.FieldTitle:     "X",
		model.FieldBooktitle: "B",
		model.FieldPublisher: "P",
		model.FieldYear:      "2020",
	}}
	messages := Lint(e)
	if !hasCode(messages, "missing_context") {
		t.Fatalf("expected missing_context, got %+v", messages)
	}
}

func TestInProceedingsVenueUnstructured(t *testing.T) {
	e := model.Entry{EntryType: model.InProceedings, CiteKey: "k", Fields: map[string]string{
		model.FieldAuthor: "A",
		model.FieldTitle:  "X",
		model.FieldYear:   "2020",
		model.FieldNote:   "Presented at the Widgets Workshop",
	}}
	messages := Lint(e)
	if !hasCode(messages, "missing_required") {
		t.Fatalf("expected missing_required for booktitle, got %+v", messages)
	}
	if !hasCode(messages, "venue_unstructured") {
		t.Fatalf("expected venue_unstructured, got %+v", messages)
	}
}

func TestMiscHasNoRequirements(t *testing.T) {
	e := model.Entry{EntryType: model.Misc, CiteKey: "k"}
	if messages := Lint(e); len(messages) != 0 {
		t.Fatalf("expected no findings for misc, got %+v", messages)
	}
}

func TestAllowedFieldsIncludesCommonOptional(t *testing.T) {
	allowed := AllowedFields(model.Article)
	for _, f := range []model.FieldName{model.FieldAuthor, model.FieldJournal, model.FieldDOI, model.FieldURL} {
		if !allowed[f] {
			t.Fatalf("expected %q to be allowed for article, got %+v", f, allowed)
		}
	}
	if allowed[model.FieldSchool] {
		t.Fatalf("did not expect 'school' to be allowed for article")
	}
}

func TestAllowedFieldsUnknownEntryTypeReturnsNil(t *testing.T) {
	if allowed := AllowedFields(model.EntryType("weird")); allowed != nil {
		t.Fatalf("expected nil for unschemad entry type, got %+v", allowed)
	}
}

func TestUnknownEntryTypeReturnsNil(t *testing.T) {
	e := model.Entry{EntryType: model.EntryType("weird"), CiteKey: "k"}
	if messages := Lint(e); messages != nil {
		t.Fatalf("expected nil for unschemad entry type, got %+v", messages)
	}
}
