package bibtexio

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bet-lab/reference-validator/internal/model"
)

func TestDecodeString(t *testing.T) {
	var cases = []struct {
		desc     string
		input    string
		expected []RawEntry
	}{
		{
			desc:  "single article",
			input: `@article{attn2017, title = {Attention Is All You Need}, year = {2017}}`,
			expected: []RawEntry{
				{
					EntryType:  "article",
					CiteKey:    "attn2017",
					Fields:     map[string]string{"title": "Attention Is All You Need", "year": "2017"},
					FieldOrder: []string{"title", "year"},
				},
			},
		},
		{
			desc: "nested braces in title",
			input: `@misc{k1,
				title = {{GPU}-accelerated training},
			}`,
			expected: []RawEntry{
				{
					EntryType:  "misc",
					CiteKey:    "k1",
					Fields:     map[string]string{"title": "{GPU}-accelerated training"},
					FieldOrder: []string{"title"},
				},
			},
		},
		{
			desc:  "quoted value",
			input: `@misc{k2, note = "arXiv: 1706.03762"}`,
			expected: []RawEntry{
				{
					EntryType:  "misc",
					CiteKey:    "k2",
					Fields:     map[string]string{"note": "arXiv: 1706.03762"},
					FieldOrder: []string{"note"},
				},
			},
		},
		{
			desc: "two entries with a comment between",
			input: `@misc{a, title = {A}}
			% comment line
			@misc{b, title = {B}}`,
			expected: []RawEntry{
				{EntryType: "misc", CiteKey: "a", Fields: map[string]string{"title": "A"}, FieldOrder: []string{"title"}},
				{EntryType: "misc", CiteKey: "b", Fields: map[string]string{"title": "B"}, FieldOrder: []string{"title"}},
			},
		},
	}
	for _, c := range cases {
		got, err := DecodeString(c.input)
		if err != nil {
			t.Fatalf("[%s] unexpected error: %v", c.desc, err)
		}
		if diff := cmp.Diff(c.expected, got); diff != "" {
			t.Fatalf("[%s] mismatch (-want +got):\n%s", c.desc, diff)
		}
	}
}

func TestEncodeCanonicalOrder(t *testing.T) {
	entry := model.Entry{
		EntryType: model.Article,
		CiteKey:   "attn2017",
		Fields: map[string]string{
			model.FieldAbstract: "we propose a new architecture",
			model.FieldTitle:    "Attention Is All You Need",
			model.FieldYear:     "2017",
			"zzz_custom":        "value",
		},
	}
	var buf bytes.Buffer
	if err := Encode(&buf, []model.Entry{entry}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	wantOrder := []string{"title", "year", "abstract", "zzz_custom"}
	lastIdx := -1
	for _, field := range wantOrder {
		idx := bytes.Index(buf.Bytes(), []byte(field+" = {"))
		if idx < 0 {
			t.Fatalf("field %q missing from output:\n%s", field, out)
		}
		if idx <= lastIdx {
			t.Fatalf("field %q out of canonical order in output:\n%s", field, out)
		}
		lastIdx = idx
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("@article{attn2017,\n")) {
		t.Fatalf("unexpected header: %s", out)
	}
}

func TestFilterAllowedFieldsDropsDisallowed(t *testing.T) {
	entry := model.Entry{
		EntryType: model.Article,
		CiteKey:   "attn2017",
		Fields: map[string]string{
			model.FieldTitle:  "Attention Is All You Need",
			model.FieldYear:   "2017",
			model.FieldSchool: "stray field from a thesis-shaped source",
		},
	}
	filtered := FilterAllowedFields([]model.Entry{entry})
	if len(filtered) != 1 {
		t.Fatalf("expected one entry, got %d", len(filtered))
	}
	if filtered[0].Has(model.FieldSchool) {
		t.Fatalf("expected 'school' to be dropped for an article, got %+v", filtered[0].Fields)
	}
	if !filtered[0].Has(model.FieldTitle) || !filtered[0].Has(model.FieldYear) {
		t.Fatalf("expected allowed fields to survive, got %+v", filtered[0].Fields)
	}
	if entry.Has(model.FieldSchool) == false {
		t.Fatalf("expected FilterAllowedFields to operate on a copy, leaving the original entry untouched")
	}
}
