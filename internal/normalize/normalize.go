// Package normalize rewrites a raw BibTeX-shaped entry into the
// canonical shape every downstream component consumes: field aliases
// resolved, entry type aliases resolved, identifiers cleaned up, and
// misc entries promoted to a more specific type where the evidence
// supports it.
package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"

	"github.com/bet-lab/reference-validator/internal/bibtexio"
	"github.com/bet-lab/reference-validator/internal/model"
)

var doiURLPattern = regexp.MustCompile(`(?i)^https?://(dx\.)?doi\.org/(10\..+)$`)

var fieldAliases = map[model.FieldName]model.FieldName{
	"journaltitle": model.FieldJournal,
	"location":     model.FieldAddress,
	"date":         model.FieldYear,
}

var typeAliases = map[string]model.EntryType{
	"conference": model.InProceedings,
	"online":     model.Misc,
	"report":     model.TechReport,
}

// Normalize applies the transformation pipeline described in the
// Normalizer component design, in order: field aliasing, type aliasing,
// identifier cleanup, then type promotion.
func Normalize(raw bibtexio.RawEntry) model.Entry {
	entry := model.Entry{
		EntryType: model.EntryType(strings.ToLower(raw.EntryType)),
		CiteKey:   raw.CiteKey,
		Fields:    make(map[model.FieldName]string, len(raw.Fields)),
	}
	for k, v := range raw.Fields {
		entry.Fields[strings.ToLower(k)] = v
	}

	aliasFields(&entry)
	aliasType(&entry)
	cleanupIdentifiers(&entry)
	promoteType(&entry)

	return entry
}

// aliasFields implements step 1: extended-schema field names are mapped
// onto their base-schema equivalent, but only when the target is absent,
// so an entry that already has both never loses data silently.
func aliasFields(e *model.Entry) {
	if !e.Has(model.FieldJournal) {
		if v, ok := e.Fields["journaltitle"]; ok {
			e.Set(model.FieldJournal, v)
		}
	}
	if !e.Has(model.FieldAddress) {
		if v, ok := e.Fields["location"]; ok {
			e.Set(model.FieldAddress, v)
		}
	}
	if !e.Has(model.FieldYear) {
		if v, ok := e.Fields["date"]; ok {
			if year, ok := extractYear(v); ok {
				e.Set(model.FieldYear, year)
			}
			// Extraction failure is silent: the date field simply
			// contributes nothing to "year".
		}
	}
}

var fourDigitYear = regexp.MustCompile(`\d{4}`)

// extractYear pulls a four-digit year out of a free-form date string.
// dateparse reads the date formats it recognizes; anything it cannot
// parse (seasons, ranges, "circa", etc. all show up in the corpus) falls
// back to the first four-digit group in the string.
func extractYear(date string) (string, bool) {
	if t, err := dateparse.ParseAny(date); err == nil && t.Year() > 0 {
		return strconv.Itoa(t.Year()), true
	}
	if m := fourDigitYear.FindString(date); m != "" {
		return m, true
	}
	return "", false
}

// aliasType implements step 2: a small set of type aliases are resolved
// before type promotion has a chance to run.
func aliasType(e *model.Entry) {
	if alias, ok := typeAliases[string(e.EntryType)]; ok {
		e.EntryType = alias
	}
}

// cleanupIdentifiers implements step 3: DOI/URL cross-lifting and
// prefix/suffix stripping.
func cleanupIdentifiers(e *model.Entry) {
	doi := e.Get(model.FieldDOI)
	url := e.Get(model.FieldURL)

	if doi == "" && url != "" {
		if m := doiURLPattern.FindStringSubmatch(url); m != nil {
			doi = m[2]
			e.Delete(model.FieldURL)
			url = ""
		}
	}

	if doi != "" {
		doi = stripDOIPrefixes(doi)
		doi = strings.TrimRight(doi, ".,")
		e.Set(model.FieldDOI, doi)
	}

	if url != "" && doi != "" {
		if m := doiURLPattern.FindStringSubmatch(url); m != nil && strings.EqualFold(m[2], doi) {
			e.Delete(model.FieldURL)
		}
	}
}

var doiPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"doi:",
}

func stripDOIPrefixes(doi string) string {
	for _, prefix := range doiPrefixes {
		if strings.HasPrefix(strings.ToLower(doi), prefix) {
			return doi[len(prefix):]
		}
	}
	return doi
}

// promoteType implements step 4: entries still typed "misc" after type
// aliasing are reclassified when the fields present strongly imply a
// more specific type. Zenodo DOIs are a deliberate exception: they stay
// misc, since Zenodo hosts software and dataset releases alongside
// papers and the DOI alone doesn't disambiguate.
func promoteType(e *model.Entry) {
	if e.EntryType != model.Misc {
		return
	}

	title := strings.ToLower(e.Get(model.FieldTitle))
	hasEditor := e.Has(model.FieldEditor)
	hasAuthor := e.Has(model.FieldAuthor)
	hasBooktitle := e.Has(model.FieldBooktitle)
	doi := e.Get(model.FieldDOI)

	switch {
	case strings.Contains(title, "proceedings") && hasEditor && !hasAuthor:
		e.EntryType = model.Proceedings
	case hasBooktitle:
		e.EntryType = model.InProceedings
	case doi != "" && !model.IsArxivDOI(doi) && !model.IsZenodoDOI(doi):
		if e.Has(model.FieldJournal) {
			e.EntryType = model.Article
		} else {
			e.EntryType = model.InProceedings
		}
	}
}
