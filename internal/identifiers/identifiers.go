// Package identifiers extracts the cross-referencing identifiers
// (DOI, arXiv ID, PubMed ID) that drive source-adapter query planning
// from a canonical entry's fields.
package identifiers

import (
	"regexp"
	"strings"

	"github.com/bet-lab/reference-validator/internal/model"
)

var (
	noteArxivPattern   = regexp.MustCompile(`(?i)arxiv:\s*(\d{4}\.\d{4,5}(?:v\d+)?)`)
	doiArxivPattern    = regexp.MustCompile(`(?i)10\.48550/ARXIV\.(\d{4}\.\d{4,5}(?:v\d+)?)`)
	eprintArxivPattern = regexp.MustCompile(`^(\d{4}\.\d{4,5})(?:v\d+)?$`)
	versionSuffix      = regexp.MustCompile(`v\d+$`)
)

// Extract returns the identifiers recoverable from a canonical entry's
// fields, per the fixed pattern catalogue: arXiv ID from note, then doi,
// then eprint (first match wins); DOI straight from the normalized doi
// field; PMID from pmid or pubmed.
func Extract(e model.Entry) model.Identifiers {
	return model.Identifiers{
		DOI:   e.Get(model.FieldDOI),
		ArXiv: extractArxiv(e),
		PMID:  extractPMID(e),
	}
}

func extractArxiv(e model.Entry) string {
	if m := noteArxivPattern.FindStringSubmatch(e.Get(model.FieldNote)); m != nil {
		return stripVersion(m[1])
	}
	if m := doiArxivPattern.FindStringSubmatch(e.Get(model.FieldDOI)); m != nil {
		return stripVersion(m[1])
	}
	if m := eprintArxivPattern.FindStringSubmatch(strings.TrimSpace(e.Get(model.FieldEprint))); m != nil {
		return stripVersion(m[1])
	}
	return ""
}

func stripVersion(id string) string {
	return versionSuffix.ReplaceAllString(id, "")
}

func extractPMID(e model.Entry) string {
	if v := e.Get(model.FieldPMID); v != "" {
		return v
	}
	return e.Get(model.FieldPubMed)
}
