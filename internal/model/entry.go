// Package model contains the shared data types that flow through the
// validation pipeline: the canonical entry shape, lint messages, source
// records and the aggregated per-entry validation result.
package model

// EntryType is one of the closed set of BibTeX-style entry types this
// system understands. Unknown raw types are left as-is by the Normalizer;
// the Schema Linter has no schema for them and reports no findings.
type EntryType string

const (
	Article       EntryType = "article"
	Book          EntryType = "book"
	InProceedings EntryType = "inproceedings"
	Proceedings   EntryType = "proceedings"
	InCollection  EntryType = "incollection"
	InBook        EntryType = "inbook"
	TechReport    EntryType = "techreport"
	Manual        EntryType = "manual"
	MastersThesis EntryType = "mastersthesis"
	PhDThesis     EntryType = "phdthesis"
	Booklet       EntryType = "booklet"
	Unpublished   EntryType = "unpublished"
	Misc          EntryType = "misc"
)

// FieldName is a lowercase ASCII field identifier, e.g. "author", "doi".
type FieldName = string

// Canonical field names referenced by name throughout the pipeline, kept
// as constants so a typo doesn't silently create a new field.
const (
	FieldTitle        FieldName = "title"
	FieldAuthor       FieldName = "author"
	FieldEditor       FieldName = "editor"
	FieldYear         FieldName = "year"
	FieldJournal      FieldName = "journal"
	FieldBooktitle    FieldName = "booktitle"
	FieldVolume       FieldName = "volume"
	FieldNumber       FieldName = "number"
	FieldPages        FieldName = "pages"
	FieldChapter      FieldName = "chapter"
	FieldPublisher    FieldName = "publisher"
	FieldDOI          FieldName = "doi"
	FieldISSN         FieldName = "issn"
	FieldURL          FieldName = "url"
	FieldEprint       FieldName = "eprint"
	FieldEprintType   FieldName = "eprinttype"
	FieldAbstract     FieldName = "abstract"
	FieldNote         FieldName = "note"
	FieldHowPublished FieldName = "howpublished"
	FieldSchool       FieldName = "school"
	FieldInstitution  FieldName = "institution"
	FieldAddress      FieldName = "address"
	FieldPMID         FieldName = "pmid"
	FieldPubMed       FieldName = "pubmed"
	FieldEntryType    FieldName = "entrytype"
)

// CanonicalFieldOrder is the field order used when serializing an entry
// back to text. Fields not listed here are appended afterwards, sorted
// by name for determinism, system keys aside.
var CanonicalFieldOrder = []FieldName{
	FieldEntryType, FieldTitle, FieldAuthor, FieldYear, FieldJournal,
	FieldBooktitle, FieldVolume, FieldNumber, FieldPages, FieldPublisher,
	FieldDOI, FieldISSN, FieldURL, FieldEprint, FieldEprintType,
	FieldAbstract,
}

// Entry is a canonical bibliographic record: a typed entry with a unique
// citation key and a free-form field map. LaTeX markup in field values is
// preserved except during normalized comparison.
type Entry struct {
	EntryType EntryType
	CiteKey   string
	Fields    map[FieldName]string
}

// Clone returns a deep copy of the entry so callers can mutate the copy
// without affecting the original (e.g. original_values snapshots).
func (e Entry) Clone() Entry {
	fields := make(map[FieldName]string, len(e.Fields))
	for k, v := range e.Fields {
		fields[k] = v
	}
	return Entry{EntryType: e.EntryType, CiteKey: e.CiteKey, Fields: fields}
}

// Get returns the value of a field, or "" if absent.
func (e Entry) Get(field FieldName) string {
	if e.Fields == nil {
		return ""
	}
	return e.Fields[field]
}

// Has reports whether a field is present and non-empty.
func (e Entry) Has(field FieldName) bool {
	return e.Get(field) != ""
}

// Set assigns a field value, allocating the field map if necessary.
func (e *Entry) Set(field FieldName, value string) {
	if e.Fields == nil {
		e.Fields = make(map[FieldName]string)
	}
	e.Fields[field] = value
}

// Delete removes a field entirely.
func (e *Entry) Delete(field FieldName) {
	delete(e.Fields, field)
}

// LintLevel is the severity of a LintMessage.
type LintLevel string

const (
	LintError   LintLevel = "error"
	LintWarning LintLevel = "warning"
	LintInfo    LintLevel = "info"
)

// LintMessage is one finding from the Schema Linter.
type LintMessage struct {
	Level   LintLevel `json:"level"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
}
