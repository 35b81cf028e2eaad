package model

import "regexp"

var (
	arxivDOIPattern = regexp.MustCompile(`(?i)^10\.48550/ARXIV\.`)
	zenodoDOIPrefix = regexp.MustCompile(`^10\.5281/`)
)

// SourceName identifies one of the eight external bibliographic
// registries this system cross-checks entries against.
type SourceName string

const (
	SourceCrossref        SourceName = "crossref"
	SourceArxiv           SourceName = "arxiv"
	SourceOpenAlex        SourceName = "openalex"
	SourceDBLP            SourceName = "dblp"
	SourceSemanticScholar SourceName = "semantic_scholar"
	SourcePubMed          SourceName = "pubmed"
	SourceDataCite        SourceName = "datacite"
	SourceZenodo          SourceName = "zenodo"
)

// PriorityOrder is the fixed, high-to-low priority list used by the
// Priority Merger to decide which source wins a field when several
// sources supply a value for it.
var PriorityOrder = []SourceName{
	SourceCrossref,
	SourceArxiv,
	SourceZenodo,
	SourceDBLP,
	SourceDataCite,
	SourcePubMed,
	SourceSemanticScholar,
	SourceOpenAlex,
}

// SourceRecord is the normalized, language-neutral view of one external
// registry's response for one entry. Keys are the source's native field
// names; the Field Comparator owns the mapping from these to canonical
// bibliographic fields.
type SourceRecord map[string]any

// Identifiers is the result of the Identifier Extractor: the DOI, arXiv
// ID and PubMed ID recoverable from a canonical entry's fields.
type Identifiers struct {
	DOI    string
	ArXiv  string
	PMID   string
}

// IsArxivDOI reports whether doi is a DataCite-minted arXiv DOI
// (10.48550/arXiv.*), which routes to the arXiv adapter rather than
// Crossref.
func IsArxivDOI(doi string) bool {
	return arxivDOIPattern.MatchString(doi)
}

// IsZenodoDOI reports whether doi carries the Zenodo registrant prefix.
func IsZenodoDOI(doi string) bool {
	return zenodoDOIPrefix.MatchString(doi)
}
