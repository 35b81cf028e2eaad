// Package merge implements the Priority Merger: it reduces the N
// per-source field comparisons for one entry into a single
// ValidationResult, using the fixed source priority order and per-field
// value deduplication.
package merge

import (
	"github.com/bet-lab/reference-validator/internal/compare"
	"github.com/bet-lab/reference-validator/internal/model"
)

// Merge builds the ValidationResult for one entry from its lint
// findings and the per-source records collected by the Enrichment
// Orchestrator. original holds the pre-normalization field snapshot,
// captured once and never mutated afterward, the sole source of truth
// for restore().
func Merge(entry model.Entry, lintMessages []model.LintMessage, sourceRecords map[model.SourceName]model.SourceRecord, original map[model.FieldName]string) *model.ValidationResult {
	result := model.NewValidationResult(entry.CiteKey, entry.EntryType)
	result.NormalizedEntry = entry
	result.LintMessages = lintMessages
	result.OriginalValues = original
	result.AllSourcesData = sourceRecords

	seenNormalizedValues := make(map[model.FieldName]map[string]bool)

	for _, source := range model.PriorityOrder {
		record, ok := sourceRecords[source]
		if !ok {
			continue
		}
		comparison := compare.Compare(entry, source, record)

		for field, classification := range comparison.Fields {
			normalizedValue := compare.NormalizeForComparison(classification.Value(), field)
			if seenNormalizedValues[field] == nil {
				seenNormalizedValues[field] = make(map[string]bool)
			}
			if !seenNormalizedValues[field][normalizedValue] {
				seenNormalizedValues[field][normalizedValue] = true
				result.FieldSourceOptions[field] = append(result.FieldSourceOptions[field], source)
			}

			if _, claimed := result.FieldSources[field]; claimed {
				continue
			}
			result.FieldSources[field] = source
			applyClassification(result, field, classification)
		}
	}

	for _, msg := range lintMessages {
		if msg.Code == "missing_required" && msg.Field != "" {
			result.FieldsMissing = append(result.FieldsMissing, msg.Field)
		}
	}

	populateDOIAndArxivFlags(result, entry, sourceRecords)

	return result
}

func applyClassification(result *model.ValidationResult, field model.FieldName, c model.Classification) {
	switch c.Kind {
	case model.KindMissing:
		result.FieldsUpdated[field] = c.API
	case model.KindConflict:
		result.FieldsConflict[field] = [2]string{c.Local, c.API}
	case model.KindNearDifference:
		result.FieldsDifferent[field] = [2]string{c.Local, c.API}
	case model.KindIdentical:
		result.FieldsIdentical[field] = c.Local
	}
}

func populateDOIAndArxivFlags(result *model.ValidationResult, entry model.Entry, sourceRecords map[model.SourceName]model.SourceRecord) {
	doi := entry.Get(model.FieldDOI)
	if updated, ok := result.FieldsUpdated[model.FieldDOI]; ok && doi == "" {
		doi = updated
	}
	result.HasDOI = doi != ""

	if result.HasDOI {
		if model.IsArxivDOI(doi) {
			_, result.DOIValid = sourceRecords[model.SourceArxiv]
		} else {
			_, fromCrossref := sourceRecords[model.SourceCrossref]
			_, fromDataCite := sourceRecords[model.SourceDataCite]
			_, fromZenodo := sourceRecords[model.SourceZenodo]
			result.DOIValid = fromCrossref || fromDataCite || fromZenodo
		}
	}

	eprint := entry.Get(model.FieldEprint)
	if updated, ok := result.FieldsUpdated[model.FieldEprint]; ok && eprint == "" {
		eprint = updated
	}
	result.HasArxiv = eprint != ""
	if result.HasArxiv {
		_, result.ArxivValid = sourceRecords[model.SourceArxiv]
	}
}
