package identifiers

import (
	"testing"

	"github.com/bet-lab/reference-validator/internal/model"
)

func entry(fields map[string]string) model.Entry {
	return model.Entry{EntryType: model.Misc, CiteKey: "k", Fields: fields}
}

func TestArxivFromNoteTakesPriority(t *testing.T) {
	ids := Extract(entry(map[string]string{
		"note":   "arXiv: 1706.03762v2",
		"eprint": "1801.00001",
	}))
	if ids.ArXiv != "1706.03762" {
		t.Fatalf("expected note-derived id with version stripped, got %q", ids.ArXiv)
	}
}

func TestArxivFromDOI(t *testing.T) {
	ids := Extract(entry(map[string]string{
		"doi": "10.48550/arXiv.1706.03762",
	}))
	if ids.ArXiv != "1706.03762" {
		t.Fatalf("expected doi-derived arxiv id, got %q", ids.ArXiv)
	}
}

func TestArxivFromEprint(t *testing.T) {
	ids := Extract(entry(map[string]string{
		"eprint": "1706.03762",
	}))
	if ids.ArXiv != "1706.03762" {
		t.Fatalf("expected eprint-derived arxiv id, got %q", ids.ArXiv)
	}
}

func TestNoArxivWhenNothingMatches(t *testing.T) {
	ids := Extract(entry(map[string]string{"eprint": "not-an-id"}))
	if ids.ArXiv != "" {
		t.Fatalf("expected empty arxiv id, got %q", ids.ArXiv)
	}
}

func TestDOIPassthrough(t *testing.T) {
	ids := Extract(entry(map[string]string{"doi": "10.1038/nphys1170"}))
	if ids.DOI != "10.1038/nphys1170" {
		t.Fatalf("unexpected doi: %q", ids.DOI)
	}
}

func TestPMIDPrefersPMIDField(t *testing.T) {
	ids := Extract(entry(map[string]string{"pmid": "12345", "pubmed": "67890"}))
	if ids.PMID != "12345" {
		t.Fatalf("expected pmid field to win, got %q", ids.PMID)
	}
}

func TestPMIDFallsBackToPubmedField(t *testing.T) {
	ids := Extract(entry(map[string]string{"pubmed": "67890"}))
	if ids.PMID != "67890" {
		t.Fatalf("expected pubmed fallback, got %q", ids.PMID)
	}
}
