// Package pipeline wires the leaf components — Normalizer, Schema
// Linter, Identifier Extractor, Enrichment Orchestrator, Field
// Comparator and Priority Merger — into the bounded worker pool that
// processes one loaded bibliography end to end.
package pipeline

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bet-lab/reference-validator/internal/adapters"
	"github.com/bet-lab/reference-validator/internal/bibtexio"
	"github.com/bet-lab/reference-validator/internal/cache"
	"github.com/bet-lab/reference-validator/internal/lint"
	"github.com/bet-lab/reference-validator/internal/logging"
	"github.com/bet-lab/reference-validator/internal/merge"
	"github.com/bet-lab/reference-validator/internal/model"
	"github.com/bet-lab/reference-validator/internal/normalize"
	"github.com/bet-lab/reference-validator/internal/orchestrator"
	"github.com/bet-lab/reference-validator/internal/ratelimit"
)

// DefaultWorkers is the default bound on concurrently-processed
// entries.
const DefaultWorkers = 30

// Pipeline runs every loaded entry through normalization, linting,
// enrichment, comparison and merging.
type Pipeline struct {
	orchestrator *orchestrator.Orchestrator
	workers      int
}

// New builds a Pipeline from a fully configured Enrichment
// Orchestrator and a worker bound (<= 0 falls back to DefaultWorkers).
func New(o *orchestrator.Orchestrator, workers int) *Pipeline {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Pipeline{orchestrator: o, workers: workers}
}

// NewOrchestrator builds the default Enrichment Orchestrator, wiring
// all eight adapters behind a shared HTTP client, a response cache, and
// the per-source rate limiter. cacheTTL and cacheCleanupInterval of <= 0
// fall back to the cache package's own defaults.
func NewOrchestrator(product, contactEmail string, rateDelay, cacheTTL, cacheCleanupInterval time.Duration) *orchestrator.Orchestrator {
	client := adapters.NewClient(product, contactEmail)
	limiter := ratelimit.New(rateDelay)
	responseCache := cache.NewWithTTL(cacheTTL, cacheCleanupInterval)

	wrap := func(a adapters.Adapter) adapters.Adapter {
		return &adapters.CachingAdapter{Adapter: a, Cache: responseCache}
	}

	adapterSet := map[model.SourceName]adapters.Adapter{
		model.SourceCrossref:        wrap(&adapters.Crossref{Client: client}),
		model.SourceArxiv:           wrap(&adapters.Arxiv{Client: client}),
		model.SourceOpenAlex:        wrap(&adapters.OpenAlex{Client: client}),
		model.SourceDBLP:            wrap(&adapters.DBLP{Client: client}),
		model.SourceSemanticScholar: wrap(&adapters.SemanticScholar{Client: client}),
		model.SourcePubMed:          wrap(&adapters.PubMed{Client: client}),
		model.SourceDataCite:        wrap(&adapters.DataCite{Client: client}),
		model.SourceZenodo:          wrap(&adapters.Zenodo{Client: client}),
	}
	return orchestrator.New(adapterSet, limiter)
}

// Prepare turns raw wire-format entries into normalized entries, and
// returns the pre-normalization field snapshot for each citekey — the
// sole source of truth Session.Restore reverts to.
func Prepare(raw []bibtexio.RawEntry) ([]model.Entry, map[string]map[model.FieldName]string) {
	entries := make([]model.Entry, 0, len(raw))
	originals := make(map[string]map[model.FieldName]string, len(raw))
	for _, r := range raw {
		snapshot := make(map[model.FieldName]string, len(r.Fields))
		for k, v := range r.Fields {
			snapshot[k] = v
		}
		entry := normalize.Normalize(r)
		originals[entry.CiteKey] = snapshot
		entries = append(entries, entry)
	}
	return entries, originals
}

// Run processes every entry concurrently, bounded by p.workers, and
// returns results in the same order as entries.
func (p *Pipeline) Run(ctx context.Context, entries []model.Entry, originals map[string]map[model.FieldName]string) ([]*model.ValidationResult, error) {
	results := make([]*model.ValidationResult, len(entries))
	sem := make(chan struct{}, p.workers)
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-sem }()

			result, err := p.processOne(gctx, entry, originals[entry.CiteKey])
			if err != nil {
				return err
			}
			mu.Lock()
			results[i] = result
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Pipeline) processOne(ctx context.Context, entry model.Entry, original map[model.FieldName]string) (*model.ValidationResult, error) {
	lintMessages := lint.Lint(entry)
	sourceRecords, err := p.orchestrator.Enrich(ctx, entry)
	if err != nil {
		return nil, err
	}
	result := merge.Merge(entry, lintMessages, sourceRecords, original)
	logging.Entry(entry.CiteKey, len(result.LintMessages), len(result.FieldsUpdated), len(result.FieldsConflict))
	return result, nil
}
