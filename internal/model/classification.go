package model

// ClassificationKind is the tag of a Classification sum type. Modeling
// the five field outcomes as a tagged variant (rather than five parallel
// maps) keeps the merge and compare logic exhaustive over one type; the
// five-map ValidationResult shape is only a presentation detail for the
// session protocol, filled in by the Priority Merger (internal/merge).
type ClassificationKind int

const (
	KindMissing ClassificationKind = iota
	KindIdentical
	KindNearDifference
	KindConflict
	KindLocalOnly
)

// Classification is the per-field, per-source comparison outcome.
type Classification struct {
	Kind  ClassificationKind
	Local string
	API   string
}

// Value returns the value a caller should offer as the "winning" value
// for this classification, i.e. the value accept() would apply.
func (c Classification) Value() string {
	switch c.Kind {
	case KindMissing, KindConflict, KindNearDifference:
		return c.API
	case KindIdentical:
		return c.Local
	default:
		return c.Local
	}
}

// FieldComparison is the full per-source comparison output for one
// entry: a Classification per field, plus the source that produced it.
type FieldComparison struct {
	Source  SourceName
	Fields  map[FieldName]Classification
}

// ValidationResult is the per-entry outcome of the pipeline: the
// normalized entry, lint findings, and the merged field-by-field
// verdict against all applicable sources.
type ValidationResult struct {
	EntryKey  string
	EntryType EntryType

	NormalizedEntry Entry

	LintMessages []LintMessage

	FieldsMissing   []FieldName
	FieldsUpdated   map[FieldName]string
	FieldsConflict  map[FieldName][2]string // [local, api]
	FieldsIdentical map[FieldName]string
	FieldsDifferent map[FieldName][2]string // [local, api]

	FieldSources       map[FieldName]SourceName
	FieldSourceOptions map[FieldName][]SourceName

	AllSourcesData map[SourceName]SourceRecord

	// OriginalValues is captured before normalization, once, and never
	// mutated during the review session; it is the sole source of truth
	// for restore().
	OriginalValues map[FieldName]string

	HasDOI    bool
	DOIValid  bool
	HasArxiv  bool
	ArxivValid bool
}

// NewValidationResult returns a ValidationResult with all maps
// allocated, ready to be filled in by the Priority Merger.
func NewValidationResult(key string, entryType EntryType) *ValidationResult {
	return &ValidationResult{
		EntryKey:           key,
		EntryType:          entryType,
		FieldsUpdated:      make(map[FieldName]string),
		FieldsConflict:     make(map[FieldName][2]string),
		FieldsIdentical:    make(map[FieldName]string),
		FieldsDifferent:    make(map[FieldName][2]string),
		FieldSources:       make(map[FieldName]SourceName),
		FieldSourceOptions: make(map[FieldName][]SourceName),
		AllSourcesData:     make(map[SourceName]SourceRecord),
		OriginalValues:     make(map[FieldName]string),
	}
}
