// Package lint implements the Schema Linter: a pure function from a
// canonical entry to an ordered list of lint messages, checked against a
// static per-entry-type schema table.
package lint

import (
	"fmt"
	"strings"

	"github.com/bet-lab/reference-validator/internal/model"
)

// schema describes the field requirements for one entry type.
type schema struct {
	required     []model.FieldName
	requiredAny  [][]model.FieldName
	recommended  []model.FieldName
	// optional lists fields this entry type accepts beyond its
	// required/recommended set, so AllowedFields can tell a legitimate
	// optional field (e.g. "doi" on a book) from stray cruft that
	// accumulated in the wire format and should be dropped on commit.
	optional []model.FieldName
}

// commonOptional is the set of fields every entry type accepts
// regardless of its specific schema: cross-referencing and descriptive
// metadata that the comparison and enrichment pipeline populates but
// that a per-type required/recommended table wouldn't otherwise list.
var commonOptional = []model.FieldName{
	model.FieldDOI, model.FieldISSN, model.FieldURL,
	model.FieldEprint, model.FieldEprintType, model.FieldAbstract,
	model.FieldNote, model.FieldAddress,
}

// AllowedFields returns the full set of field names entryType accepts:
// required, required-any, recommended, type-specific optional fields,
// and the fields every entry type accepts. A field not in this set is
// dropped when an entry is committed to the wire format; "citekey" and
// "entrytype" are system keys handled separately by the caller and are
// not part of this set.
func AllowedFields(entryType model.EntryType) map[model.FieldName]bool {
	s, ok := schemas[entryType]
	if !ok {
		return nil
	}
	allowed := make(map[model.FieldName]bool)
	add := func(fields []model.FieldName) {
		for _, f := range fields {
			allowed[f] = true
		}
	}
	add(s.required)
	add(s.recommended)
	add(s.optional)
	add(commonOptional)
	for _, group := range s.requiredAny {
		add(group)
	}
	return allowed
}

var schemas = map[model.EntryType]schema{
	model.Article: {
		required:    []model.FieldName{model.FieldAuthor, model.FieldTitle, model.FieldJournal, model.FieldYear},
		recommended: []model.FieldName{model.FieldVolume, model.FieldPages},
	},
	model.InProceedings: {
		required:    []model.FieldName{model.FieldAuthor, model.FieldTitle, model.FieldBooktitle, model.FieldYear},
		recommended: []model.FieldName{model.FieldPages},
		optional:    []model.FieldName{model.FieldEditor, model.FieldPublisher, model.FieldVolume, model.FieldNumber},
	},
	model.Book: {
		requiredAny: [][]model.FieldName{{model.FieldAuthor, model.FieldEditor}},
		required:    []model.FieldName{model.FieldTitle, model.FieldPublisher, model.FieldYear},
		optional:    []model.FieldName{model.FieldVolume, model.FieldNumber},
	},
	model.InBook: {
		requiredAny: [][]model.FieldName{
			{model.FieldAuthor, model.FieldEditor},
			{model.FieldChapter, model.FieldPages},
		},
		required: []model.FieldName{model.FieldTitle, model.FieldPublisher, model.FieldYear},
		optional: []model.FieldName{model.FieldVolume, model.FieldBooktitle},
	},
	model.InCollection: {
		required:    []model.FieldName{model.FieldAuthor, model.FieldTitle, model.FieldBooktitle, model.FieldPublisher, model.FieldYear},
		recommended: []model.FieldName{model.FieldPages, model.FieldChapter},
		optional:    []model.FieldName{model.FieldEditor, model.FieldVolume},
	},
	model.Proceedings: {
		required: []model.FieldName{model.FieldTitle, model.FieldYear},
		optional: []model.FieldName{model.FieldEditor, model.FieldPublisher, model.FieldVolume},
	},
	model.MastersThesis: {
		required: []model.FieldName{model.FieldAuthor, model.FieldTitle, model.FieldSchool, model.FieldYear},
	},
	model.PhDThesis: {
		required: []model.FieldName{model.FieldAuthor, model.FieldTitle, model.FieldSchool, model.FieldYear},
	},
	model.TechReport: {
		required:    []model.FieldName{model.FieldAuthor, model.FieldTitle, model.FieldInstitution, model.FieldYear},
		recommended: []model.FieldName{model.FieldNumber},
	},
	model.Manual: {
		required: []model.FieldName{model.FieldTitle},
		optional: []model.FieldName{model.FieldAuthor, model.FieldHowPublished},
	},
	model.Booklet: {
		required: []model.FieldName{model.FieldTitle},
		optional: []model.FieldName{model.FieldAuthor, model.FieldHowPublished},
	},
	model.Unpublished: {
		required: []model.FieldName{model.FieldAuthor, model.FieldTitle, model.FieldNote},
	},
	model.Misc: {
		optional: []model.FieldName{model.FieldAuthor, model.FieldHowPublished, model.FieldYear, model.FieldPublisher},
	},
}

var venueKeywords = []string{
	"submitted to", "presented at", "conference", "workshop", "symposium", "proceedings",
}

// Lint runs the schema checks for e.EntryType against e's fields and
// returns the ordered findings: required-field errors first (in schema
// order), then required-any errors, then recommended-field warnings,
// then conditional warnings.
func Lint(e model.Entry) []model.LintMessage {
	s, ok := schemas[e.EntryType]
	if !ok {
		return nil
	}

	var messages []model.LintMessage

	for _, field := range s.required {
		if !e.Has(field) {
			messages = append(messages, model.LintMessage{
				Level:   model.LintError,
				Code:    "missing_required",
				Message: fmt.Sprintf("%q is required for %s entries", field, e.EntryType),
				Field:   field,
			})
		}
	}

	for _, group := range s.requiredAny {
		if !anyPresent(e, group) {
			messages = append(messages, model.LintMessage{
				Level:   model.LintError,
				Code:    "missing_required_any",
				Message: fmt.Sprintf("one of %v is required for %s entries", group, e.EntryType),
			})
		}
	}

	for _, field := range s.recommended {
		if !e.Has(field) {
			messages = append(messages, model.LintMessage{
				Level:   model.LintWarning,
				Code:    "missing_recommended",
				Message: fmt.Sprintf("%q is recommended for %s entries", field, e.EntryType),
				Field:   field,
			})
		}
	}

	messages = append(messages, conditionalMessages(e)...)

	return messages
}

func conditionalMessages(e model.Entry) []model.LintMessage {
	var messages []model.LintMessage

	switch e.EntryType {
	case model.InBook, model.InCollection:
		if !e.Has(model.FieldPages) && !e.Has(model.FieldChapter) {
			messages = append(messages, model.LintMessage{
				Level:   model.LintWarning,
				Code:    "missing_context",
				Message: "neither pages nor chapter is present",
			})
		}
	case model.Article:
		hasVolume := e.Has(model.FieldVolume)
		hasPages := e.Has(model.FieldPages)
		switch {
		case !hasVolume && !hasPages:
			messages = append(messages, model.LintMessage{
				Level:   model.LintWarning,
				Code:    "missing_vol_pages_strong",
				Message: "neither volume nor pages is present",
			})
		case !hasVolume || !hasPages:
			messages = append(messages, model.LintMessage{
				Level:   model.LintWarning,
				Code:    "missing_vol_pages_weak",
				Message: "one of volume or pages is absent",
			})
		}
	case model.InProceedings, model.Proceedings:
		if !e.Has(model.FieldBooktitle) {
			text := strings.ToLower(e.Get(model.FieldNote) + " " + e.Get(model.FieldHowPublished))
			for _, kw := range venueKeywords {
				if strings.Contains(text, kw) {
					messages = append(messages, model.LintMessage{
						Level:   model.LintWarning,
						Code:    "venue_unstructured",
						Message: "venue information appears in free text instead of booktitle",
					})
					break
				}
			}
		}
	}

	return messages
}

func anyPresent(e model.Entry, fields []model.FieldName) bool {
	for _, f := range fields {
		if e.Has(f) {
			return true
		}
	}
	return false
}
