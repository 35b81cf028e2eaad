// Package bibtexio is a reader and writer for the specific wire format
// this system consumes and produces,
//
//	@<type>{<citekey>, <field> = {<value>}, ...}
//
// It deliberately does not implement general BibTeX: no @string macros,
// no brace-depth string concatenation. Between entries, only
// whitespace and %-to-end-of-line comments are skipped.
// Normalization and schema validation, the actual core of this system,
// operate on its output.
package bibtexio

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/icholy/replace"
	"golang.org/x/text/transform"

	"github.com/bet-lab/reference-validator/internal/lint"
	"github.com/bet-lab/reference-validator/internal/model"
)

// typographicSanitizer folds the Unicode punctuation registries commonly
// hand back in titles and names (curly quotes, en/em dashes) down to the
// plain ASCII BibTeX expects, so a file round-tripped through this
// package never grows characters a stock LaTeX toolchain chokes on.
var typographicSanitizer = transform.Chain(
	replace.String("‘", "'"),
	replace.String("’", "'"),
	replace.String("“", `"`),
	replace.String("”", `"`),
	replace.String("–", "-"),
	replace.String("—", "--"),
)

func sanitizeValue(value string) string {
	out, _, err := transform.String(typographicSanitizer, value)
	if err != nil {
		return value
	}
	return out
}

// RawEntry is an entry as read from the wire format, before the
// Normalizer has touched it: field names and the entry type string are
// preserved verbatim (including aliases and case) for the Normalizer to
// interpret.
type RawEntry struct {
	EntryType string
	CiteKey   string
	Fields    map[string]string
	// FieldOrder preserves the order fields appeared in the source file,
	// used only for diagnostics; serialization always uses the canonical
	// order.
	FieldOrder []string
}

// Decode reads zero or more entries from r.
func Decode(r io.Reader) ([]RawEntry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("bibtexio: read: %w", err)
	}
	s := newScanner(string(data))
	var entries []RawEntry
	for {
		s.skipWhitespaceAndComments()
		if s.atEOF() {
			break
		}
		entry, err := s.scanEntry()
		if err != nil {
			return entries, fmt.Errorf("bibtexio: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// DecodeString is a convenience wrapper around Decode for in-memory
// fixtures and tests.
func DecodeString(s string) ([]RawEntry, error) {
	return Decode(strings.NewReader(s))
}

type scanner struct {
	s   string
	pos int
}

func newScanner(s string) *scanner { return &scanner{s: s} }

func (s *scanner) atEOF() bool { return s.pos >= len(s.s) }

func (s *scanner) peek() byte {
	if s.atEOF() {
		return 0
	}
	return s.s[s.pos]
}

func (s *scanner) skipWhitespaceAndComments() {
	for !s.atEOF() {
		c := s.peek()
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			s.pos++
		case c == '%':
			for !s.atEOF() && s.peek() != '\n' {
				s.pos++
			}
		default:
			return
		}
	}
}

func (s *scanner) scanEntry() (RawEntry, error) {
	if s.peek() != '@' {
		return RawEntry{}, fmt.Errorf("expected '@' at offset %d", s.pos)
	}
	s.pos++
	entryType := s.scanIdent()
	s.skipWhitespaceAndComments()
	if s.peek() != '{' {
		return RawEntry{}, fmt.Errorf("expected '{' after entry type at offset %d", s.pos)
	}
	s.pos++
	s.skipWhitespaceAndComments()
	citekey := s.scanUntilAny(",}")
	citekey = strings.TrimSpace(citekey)

	entry := RawEntry{
		EntryType: strings.ToLower(strings.TrimSpace(entryType)),
		CiteKey:   citekey,
		Fields:    make(map[string]string),
	}

	for {
		s.skipWhitespaceAndComments()
		if s.atEOF() {
			return entry, fmt.Errorf("unterminated entry %q", citekey)
		}
		if s.peek() == ',' {
			s.pos++
			s.skipWhitespaceAndComments()
		}
		if s.peek() == '}' {
			s.pos++
			return entry, nil
		}
		name := s.scanIdent()
		s.skipWhitespaceAndComments()
		if s.peek() != '=' {
			return entry, fmt.Errorf("expected '=' after field %q in entry %q", name, citekey)
		}
		s.pos++
		s.skipWhitespaceAndComments()
		value, err := s.scanValue()
		if err != nil {
			return entry, fmt.Errorf("entry %q field %q: %w", citekey, name, err)
		}
		name = strings.ToLower(strings.TrimSpace(name))
		entry.Fields[name] = value
		entry.FieldOrder = append(entry.FieldOrder, name)
	}
}

func (s *scanner) scanIdent() string {
	start := s.pos
	for !s.atEOF() {
		c := s.peek()
		if c == '=' || c == '{' || c == '}' || c == ',' || c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			break
		}
		s.pos++
	}
	return s.s[start:s.pos]
}

func (s *scanner) scanUntilAny(chars string) string {
	start := s.pos
	for !s.atEOF() && !strings.ContainsRune(chars, rune(s.peek())) {
		s.pos++
	}
	return s.s[start:s.pos]
}

// scanValue scans a brace-delimited `{...}`, quote-delimited `"..."`, or
// bare (numeric) field value, tracking brace depth so nested braces
// inside a value (common in titles, e.g. "{GPU}-accelerated") survive
// unescaped.
func (s *scanner) scanValue() (string, error) {
	switch s.peek() {
	case '{':
		s.pos++
		depth := 1
		start := s.pos
		for !s.atEOF() && depth > 0 {
			switch s.peek() {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					value := s.s[start:s.pos]
					s.pos++
					return value, nil
				}
			}
			s.pos++
		}
		return "", fmt.Errorf("unterminated brace value")
	case '"':
		s.pos++
		start := s.pos
		for !s.atEOF() && s.peek() != '"' {
			s.pos++
		}
		if s.atEOF() {
			return "", fmt.Errorf("unterminated quoted value")
		}
		value := s.s[start:s.pos]
		s.pos++
		return value, nil
	default:
		value := strings.TrimSpace(s.scanUntilAny(",}"))
		return value, nil
	}
}

// FilterAllowedFields drops, from a copy of each entry, every field
// outside its entry-type's allowed set (internal/lint.AllowedFields).
// System keys (citekey, entrytype) are never field-map entries and so
// always survive. An entry whose type has no known schema is returned
// unfiltered: there is nothing to drop it against.
func FilterAllowedFields(entries []model.Entry) []model.Entry {
	out := make([]model.Entry, len(entries))
	for i, e := range entries {
		allowed := lint.AllowedFields(e.EntryType)
		if allowed == nil {
			out[i] = e
			continue
		}
		filtered := e.Clone()
		for field := range filtered.Fields {
			if !allowed[field] {
				filtered.Delete(field)
			}
		}
		out[i] = filtered
	}
	return out
}

// Encode writes entries in canonical field order with one-tab
// indentation. It writes every field present on the entry as given;
// callers that must honor the entry-type's allowed-field set (e.g. the
// CLI's final commit) should run entries through FilterAllowedFields
// first.
func Encode(w io.Writer, entries []model.Entry) error {
	bw := bufio.NewWriter(w)
	for i, entry := range entries {
		if err := encodeEntry(bw, entry); err != nil {
			return err
		}
		if i < len(entries)-1 {
			if _, err := bw.WriteString("\n"); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

func encodeEntry(w *bufio.Writer, entry model.Entry) error {
	if _, err := fmt.Fprintf(w, "@%s{%s,\n", entry.EntryType, entry.CiteKey); err != nil {
		return err
	}

	written := make(map[string]bool, len(entry.Fields))
	for _, field := range model.CanonicalFieldOrder {
		if field == model.FieldEntryType {
			continue
		}
		value, ok := entry.Fields[field]
		if !ok || value == "" {
			continue
		}
		if err := writeField(w, field, value); err != nil {
			return err
		}
		written[field] = true
	}

	var rest []string
	for field := range entry.Fields {
		if !written[field] {
			rest = append(rest, field)
		}
	}
	sort.Strings(rest)
	for _, field := range rest {
		if entry.Fields[field] == "" {
			continue
		}
		if err := writeField(w, field, entry.Fields[field]); err != nil {
			return err
		}
	}

	_, err := w.WriteString("}\n")
	return err
}

func writeField(w *bufio.Writer, name, value string) error {
	_, err := fmt.Fprintf(w, "\t%s = {%s},\n", name, sanitizeValue(value))
	return err
}
