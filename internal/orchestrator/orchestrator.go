// Package orchestrator builds a per-entry query plan across the eight
// source adapters, dispatches it concurrently, and performs a single
// recursive round of identifier discovery, per the nested-concurrency
// design: the orchestrator is itself one task inside the outer worker
// pool, and its own fan-out is a bounded structured-concurrency scope
// that always awaits its children before returning.
package orchestrator

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/bet-lab/reference-validator/internal/adapters"
	"github.com/bet-lab/reference-validator/internal/identifiers"
	"github.com/bet-lab/reference-validator/internal/model"
	"github.com/bet-lab/reference-validator/internal/ratelimit"
)

// minTitleLength is the threshold below which a title is considered too
// short to usefully drive a text search.
const minTitleLength = 10

// Orchestrator dispatches the adapter set for one entry at a time.
type Orchestrator struct {
	adapters map[model.SourceName]adapters.Adapter
	limiter  *ratelimit.Limiter
}

// New builds an Orchestrator over the given adapter set, keyed by
// source name, gated through limiter.
func New(adapterSet map[model.SourceName]adapters.Adapter, limiter *ratelimit.Limiter) *Orchestrator {
	return &Orchestrator{adapters: adapterSet, limiter: limiter}
}

// Enrich runs the full query plan for one entry: a first round from
// known identifiers, then at most one recursive round if new
// identifiers were discovered. It returns every source's result keyed by
// source name; sources that produced no result are simply absent from
// the map.
func (o *Orchestrator) Enrich(ctx context.Context, entry model.Entry) (map[model.SourceName]model.SourceRecord, error) {
	ids := identifiers.Extract(entry)
	results := make(map[model.SourceName]model.SourceRecord)

	firstRound := o.plan(entry, ids, results)
	if err := o.dispatch(ctx, firstRound, results); err != nil {
		return results, err
	}

	recursive := o.recursivePlan(entry, ids, results)
	if len(recursive) > 0 {
		if err := o.dispatch(ctx, recursive, results); err != nil {
			return results, err
		}
	}

	return results, nil
}

// plan builds the first-round query set from known identifiers.
func (o *Orchestrator) plan(entry model.Entry, ids model.Identifiers, already map[model.SourceName]model.SourceRecord) map[model.SourceName]adapters.Query {
	plan := make(map[model.SourceName]adapters.Query)

	if ids.DOI != "" && !model.IsArxivDOI(ids.DOI) {
		plan[model.SourceCrossref] = adapters.Query{DOI: ids.DOI}
		if model.IsZenodoDOI(ids.DOI) {
			plan[model.SourceZenodo] = adapters.Query{DOI: ids.DOI}
		}
		plan[model.SourceDataCite] = adapters.Query{DOI: ids.DOI}
		plan[model.SourceOpenAlex] = adapters.Query{DOI: ids.DOI}
	}

	if ids.ArXiv != "" {
		plan[model.SourceArxiv] = adapters.Query{ArxivID: ids.ArXiv}
	}

	title := entry.Get(model.FieldTitle)
	if len(title) > minTitleLength {
		plan[model.SourceDBLP] = adapters.Query{Title: title, Author: entry.Get(model.FieldAuthor)}
		plan[model.SourceSemanticScholar] = adapters.Query{Title: title, DOI: ids.DOI}
		if ids.DOI == "" {
			if _, scheduled := plan[model.SourceOpenAlex]; !scheduled {
				plan[model.SourceOpenAlex] = adapters.Query{Title: title}
			}
		}
	}

	if ids.PMID != "" {
		plan[model.SourcePubMed] = adapters.Query{PMID: ids.PMID}
	}

	return plan
}

// recursivePlan scans the first round's results for a DOI or arXiv ID
// candidate and, if one is found, schedules whatever adapters weren't
// already fetched for it. At most one recursive round ever runs; this
// function is only ever called once per Enrich.
func (o *Orchestrator) recursivePlan(entry model.Entry, ids model.Identifiers, results map[model.SourceName]model.SourceRecord) map[model.SourceName]adapters.Query {
	plan := make(map[model.SourceName]adapters.Query)

	if ids.DOI == "" {
		if doi := discoverDOI(results); doi != "" {
			if _, ok := results[model.SourceCrossref]; !ok && !model.IsArxivDOI(doi) {
				plan[model.SourceCrossref] = adapters.Query{DOI: doi}
			}
			if model.IsZenodoDOI(doi) {
				if _, ok := results[model.SourceZenodo]; !ok {
					plan[model.SourceZenodo] = adapters.Query{DOI: doi}
				}
			}
			if _, ok := results[model.SourceDataCite]; !ok {
				plan[model.SourceDataCite] = adapters.Query{DOI: doi}
			}
			if _, ok := results[model.SourceOpenAlex]; !ok {
				plan[model.SourceOpenAlex] = adapters.Query{DOI: doi}
			}
		}
	}

	if ids.ArXiv == "" {
		if _, ok := results[model.SourceArxiv]; !ok {
			if arxivID := discoverArxiv(results); arxivID != "" {
				plan[model.SourceArxiv] = adapters.Query{ArxivID: arxivID}
			}
		}
	}

	return plan
}

// discoverDOI scans {DBLP, Semantic Scholar, OpenAlex, PubMed} in that
// order, the first non-empty candidate winning.
func discoverDOI(results map[model.SourceName]model.SourceRecord) string {
	for _, source := range []model.SourceName{model.SourceDBLP, model.SourceSemanticScholar, model.SourceOpenAlex, model.SourcePubMed} {
		record, ok := results[source]
		if !ok {
			continue
		}
		if v, ok := record["doi"].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// discoverArxiv scans {DBLP, Semantic Scholar, OpenAlex, Crossref} in
// that order for an arXiv candidate: an "externalIds.ArXiv" value, or an
// arXiv DOI stored under the lowercase "doi" key. Eprint and URL fields
// are not examined.
func discoverArxiv(results map[model.SourceName]model.SourceRecord) string {
	for _, source := range []model.SourceName{model.SourceDBLP, model.SourceSemanticScholar, model.SourceOpenAlex, model.SourceCrossref} {
		record, ok := results[source]
		if !ok {
			continue
		}
		if v, ok := record["externalIds.ArXiv"].(string); ok && v != "" {
			return v
		}
		if doi, ok := record["doi"].(string); ok && model.IsArxivDOI(doi) {
			if id := strings.TrimPrefix(strings.ToUpper(doi), "10.48550/ARXIV."); id != "" {
				return strings.ToLower(id)
			}
		}
	}
	return ""
}

// dispatch runs every query in plan concurrently under the rate
// limiter, on a structured-concurrency scope that awaits every child
// before returning; it never returns a per-adapter error since all
// adapters already swallow their own failures; only cancellation
// propagates.
func (o *Orchestrator) dispatch(ctx context.Context, plan map[model.SourceName]adapters.Query, results map[model.SourceName]model.SourceRecord) error {
	if len(plan) == 0 {
		return nil
	}

	type outcome struct {
		source model.SourceName
		record model.SourceRecord
	}
	outcomes := make(chan outcome, len(plan))

	g, gctx := errgroup.WithContext(ctx)
	for source, query := range plan {
		source, query := source, query
		adapter, ok := o.adapters[source]
		if !ok {
			continue
		}
		g.Go(func() error {
			var record model.SourceRecord
			err := o.limiter.Do(gctx, source, func() error {
				var execErr error
				record, execErr = adapter.Execute(gctx, query)
				return execErr
			})
			if err != nil {
				return err
			}
			outcomes <- outcome{source: source, record: record}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	close(outcomes)

	for out := range outcomes {
		if out.record != nil {
			results[out.source] = out.record
		}
	}
	return nil
}
