// Package compare implements the Field Comparator: given a canonical
// entry and one source's record, classify every canonical field the
// source speaks to as missing/identical/near-difference/conflict, per a
// per-source field-mapping table and a shared normalization and
// similarity algorithm.
package compare

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bet-lab/reference-validator/internal/model"
)

// htmlEntities is applied after LaTeX-escape normalization.
var htmlEntities = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
)

var latexEscapes = strings.NewReplacer(
	`\&`, "&",
	`\%`, "%",
	`\$`, "$",
	`\#`, "#",
)

var bracesPattern = regexp.MustCompile(`[{}]`)

// NormalizeForComparison strips BibTeX/LaTeX decoration and
// applies field-specific casing/format rules before two values are
// compared for equality.
func NormalizeForComparison(s string, field model.FieldName) string {
	s = bracesPattern.ReplaceAllString(s, "")
	s = latexEscapes.Replace(s)
	s = htmlEntities.Replace(s)
	s = strings.TrimSpace(s)

	switch field {
	case model.FieldTitle, model.FieldAuthor, model.FieldDOI, model.FieldJournal, model.FieldEntryType:
		s = strings.ToLower(s)
	case "issn":
		if idx := strings.Index(s, ","); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
		s = strings.ReplaceAll(s, "-", "")
		s = strings.ToLower(s)
	}
	return s
}

// jaccardSimilarity is the character-set Jaccard similarity |A∩B|/|A∪B|
// used to distinguish a near-difference from a hard conflict.
func jaccardSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	setA := charSet(a)
	setB := charSet(b)

	intersection := 0
	union := make(map[rune]struct{}, len(setA)+len(setB))
	for r := range setA {
		union[r] = struct{}{}
		if _, ok := setB[r]; ok {
			intersection++
		}
	}
	for r := range setB {
		union[r] = struct{}{}
	}
	if len(union) == 0 {
		return 0
	}
	return float64(intersection) / float64(len(union))
}

func charSet(s string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(s))
	for _, r := range s {
		set[r] = struct{}{}
	}
	return set
}

// extractor pulls one canonical field's candidate value out of a source
// record, already shaped by the adapter's Execute.
type extractor func(model.SourceRecord) (string, bool)

func key(k string) extractor {
	return func(r model.SourceRecord) (string, bool) {
		v, ok := r[k]
		if !ok {
			return "", false
		}
		switch t := v.(type) {
		case string:
			return t, t != ""
		case int:
			return strconv.Itoa(t), true
		case fmt.Stringer:
			return t.String(), true
		default:
			return "", false
		}
	}
}

func literal(value string) extractor {
	return func(model.SourceRecord) (string, bool) { return value, true }
}

func yearFromDate(k string) extractor {
	return func(r model.SourceRecord) (string, bool) {
		v, ok := r[k]
		if !ok {
			return "", false
		}
		s, ok := v.(string)
		if !ok || len(s) < 4 {
			return "", false
		}
		return s[:4], true
	}
}

func pagesFromBiblio(r model.SourceRecord) (string, bool) {
	first, ok1 := r["biblio.first_page"].(string)
	last, ok2 := r["biblio.last_page"].(string)
	if !ok1 || first == "" {
		return "", false
	}
	if ok2 && last != "" {
		return fmt.Sprintf("%s--%s", first, last), true
	}
	return first, true
}

// registryTypeMappings maps each source's raw entry-type vocabulary onto
// the canonical BibTeX entry type it corresponds to, so "entrytype" is
// classified against entry.EntryType the same way every other field is
// classified against its BibTeX value, instead of against the source's
// own raw string.
var registryTypeMappings = map[model.SourceName]map[string]model.EntryType{
	model.SourceCrossref: {
		"journal-article":     model.Article,
		"proceedings-article": model.InProceedings,
		"book":                model.Book,
		"monograph":           model.Book,
		"book-chapter":        model.InCollection,
		"report":              model.TechReport,
		"report-series":       model.TechReport,
		"dissertation":        model.PhDThesis,
		"posted-content":      model.Misc,
		"other":               model.Misc,
	},
	model.SourceOpenAlex: {
		"article":      model.Article,
		"book-chapter": model.InCollection,
		"book":         model.Book,
		"dissertation": model.PhDThesis,
		"report":       model.TechReport,
		"paratext":     model.Misc,
		"other":        model.Misc,
	},
	model.SourceDBLP: {
		"Journal Articles":               model.Article,
		"Conference and Workshop Papers":  model.InProceedings,
		"Books and Theses":                model.Book,
		"Parts in Books or Collections":   model.InCollection,
		"Informal Publications":           model.Misc,
	},
}

// entryTypeExtractor reads the source's raw "type" value and maps it
// through that source's registryTypeMappings table; a raw value absent
// from the table yields no candidate rather than a guess.
func entryTypeExtractor(source model.SourceName) extractor {
	return func(r model.SourceRecord) (string, bool) {
		raw, ok := key("type")(r)
		if !ok {
			return "", false
		}
		mapped, ok := registryTypeMappings[source][raw]
		if !ok {
			return "", false
		}
		return string(mapped), true
	}
}

// fieldMappings maps, per source, every canonical field that source can
// speak to onto an extractor over its SourceRecord.
var fieldMappings = map[model.SourceName]map[model.FieldName]extractor{
	model.SourceCrossref: {
		model.FieldTitle:     key("title"),
		model.FieldAuthor:    key("author"),
		model.FieldJournal:   key("container-title"),
		model.FieldYear:      key("published-print.date-parts"),
		model.FieldVolume:    key("volume"),
		model.FieldPages:     key("page"),
		model.FieldDOI:       key("DOI"),
		"issn":               key("ISSN"),
		model.FieldEntryType: entryTypeExtractor(model.SourceCrossref),
	},
	model.SourceArxiv: {
		model.FieldTitle:      key("title"),
		model.FieldAuthor:     key("authors"),
		model.FieldEprint:     key("arxiv_id"),
		model.FieldEprintType: literal("arxiv"),
		model.FieldDOI:        key("doi"),
	},
	model.SourceOpenAlex: {
		model.FieldTitle:     key("title"),
		model.FieldAuthor:    key("authorships"),
		model.FieldJournal:   key("primary_location.source.display_name"),
		model.FieldYear:      key("publication_year"),
		model.FieldDOI:       key("doi"),
		model.FieldVolume:    key("biblio.volume"),
		model.FieldNumber:    key("biblio.issue"),
		model.FieldPages:     pagesFromBiblio,
		model.FieldEntryType: entryTypeExtractor(model.SourceOpenAlex),
	},
	model.SourceDBLP: {
		model.FieldTitle:     key("title"),
		model.FieldAuthor:    key("authors"),
		model.FieldJournal:   key("venue"),
		model.FieldYear:      key("year"),
		model.FieldEntryType: entryTypeExtractor(model.SourceDBLP),
	},
	model.SourceSemanticScholar: {
		model.FieldTitle:   key("title"),
		model.FieldAuthor:  key("authors"),
		model.FieldJournal: key("venue"),
		model.FieldYear:    key("year"),
		model.FieldDOI:     key("doi"),
	},
	model.SourcePubMed: {
		model.FieldTitle:   key("ArticleTitle"),
		model.FieldAuthor:  key("Author"),
		model.FieldJournal: key("Journal.Title"),
		model.FieldYear:    key("PubDate.Year"),
	},
	model.SourceDataCite: {
		model.FieldTitle:     key("titles"),
		model.FieldAuthor:    key("creators"),
		model.FieldYear:      key("publicationYear"),
		model.FieldPublisher: key("publisher"),
		model.FieldDOI:       key("doi"),
	},
	model.SourceZenodo: {
		model.FieldTitle:     key("title"),
		model.FieldAuthor:    key("creators"),
		model.FieldYear:      yearFromDate("publication_date"),
		model.FieldPublisher: key("publisher"),
		model.FieldDOI:       key("doi"),
	},
}

// pagesExemptFields never produce a near-difference or conflict: a
// value that is not equal after normalization is skipped, since format
// variance is too high to judge similarity. Missing/update and identical
// outcomes are still produced.
var pagesExemptFields = map[model.FieldName]bool{model.FieldPages: true}

// apiWinsOnMismatch are fields where, on a non-matching normalized
// comparison, the API value is taken as the update rather than flagged
// as a conflict: case/form variation is common and the source is
// trusted over local formatting quirks.
var apiWinsOnMismatch = map[model.FieldName]bool{model.FieldAuthor: true, model.FieldTitle: true}

const similarityThreshold = 0.7
const shortValueThreshold = 3

// Compare produces the per-field classification of entry against one
// source's record.
func Compare(entry model.Entry, source model.SourceName, record model.SourceRecord) model.FieldComparison {
	result := model.FieldComparison{Source: source, Fields: make(map[model.FieldName]model.Classification)}

	mapping, ok := fieldMappings[source]
	if !ok || record == nil {
		return result
	}

	for field, extract := range mapping {
		apiValue, ok := extract(record)
		if !ok || apiValue == "" || apiValue == "[]" {
			continue
		}
		localValue := entry.Get(field)
		if field == model.FieldEntryType {
			localValue = string(entry.EntryType)
		}
		if c, ok := classify(field, localValue, apiValue); ok {
			result.Fields[field] = c
		}
	}

	return result
}

// classify returns the field's classification and true, or false if the
// field must be skipped entirely (pages format variance, or values too
// short to judge) — a skip means this source contributes nothing for
// this field, distinct from LocalOnly (source genuinely lacks a value).
func classify(field model.FieldName, local, api string) (model.Classification, bool) {
	localNorm := NormalizeForComparison(local, field)
	apiNorm := NormalizeForComparison(api, field)

	switch {
	case local == "":
		return model.Classification{Kind: model.KindMissing, API: api}, true
	case localNorm == apiNorm:
		return model.Classification{Kind: model.KindIdentical, Local: local}, true
	case pagesExemptFields[field]:
		return model.Classification{}, false
	case len(local) <= shortValueThreshold || len(api) <= shortValueThreshold:
		return model.Classification{}, false
	case apiWinsOnMismatch[field]:
		return model.Classification{Kind: model.KindMissing, API: api}, true
	default:
		if jaccardSimilarity(localNorm, apiNorm) > similarityThreshold {
			return model.Classification{Kind: model.KindNearDifference, Local: local, API: api}, true
		}
		return model.Classification{Kind: model.KindConflict, Local: local, API: api}, true
	}
}
