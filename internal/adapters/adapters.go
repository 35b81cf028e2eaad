// Package adapters implements the eight external-registry source
// adapters (Crossref, arXiv, OpenAlex, DBLP, Semantic Scholar, PubMed,
// DataCite, Zenodo) behind a single capability interface, per the
// adapter-polymorphism design: execute a planned query and hand back a
// normalized SourceRecord. No adapter ever propagates a transport error;
// all of them resolve to "no result" on failure.
package adapters

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bet-lab/reference-validator/internal/logging"
	"github.com/bet-lab/reference-validator/internal/model"
)

// Timeout is the fixed per-request deadline; a timeout produces "no
// result" without retry, per the orchestrator's retry policy.
const Timeout = 10 * time.Second

// QueryKind distinguishes the two query shapes an adapter can be asked
// to execute.
type QueryKind int

const (
	QueryByIdentifier QueryKind = iota
	QueryByText
)

// Query is the typed request an Orchestrator hands to Execute, built by
// the orchestrator's query plan from an entry's canonical fields and
// extracted identifiers.
type Query struct {
	Kind QueryKind

	DOI     string
	ArxivID string
	PMID    string

	Title  string
	Author string
}

// String renders a Query as a stable cache key component.
func (q Query) String() string {
	return fmt.Sprintf("doi=%s&arxiv=%s&pmid=%s&title=%s&author=%s", q.DOI, q.ArxivID, q.PMID, q.Title, q.Author)
}

// ResponseCache is the subset of internal/cache.Cache a CachingAdapter
// needs; declared here so adapters never imports the cache package's
// go-cache dependency directly.
type ResponseCache interface {
	Get(source model.SourceName, query string) (model.SourceRecord, bool)
	Set(source model.SourceName, query string, record model.SourceRecord)
}

// CachingAdapter decorates an Adapter with a response cache, so
// repeated queries for the same source and query across a run (or a
// re-run over an overlapping bibliography) skip the network entirely.
type CachingAdapter struct {
	Adapter Adapter
	Cache   ResponseCache
}

func (c *CachingAdapter) Name() model.SourceName { return c.Adapter.Name() }

func (c *CachingAdapter) Execute(ctx context.Context, q Query) (model.SourceRecord, error) {
	key := q.String()
	if record, ok := c.Cache.Get(c.Adapter.Name(), key); ok {
		return record, nil
	}
	record, err := c.Adapter.Execute(ctx, q)
	if err != nil {
		return nil, err
	}
	if record != nil {
		c.Cache.Set(c.Adapter.Name(), key, record)
	}
	return record, nil
}

// Adapter is the shared capability set every source adapter implements:
// name its source, and execute a Query, issuing the request and mapping
// the raw response onto a normalized SourceRecord. Which adapters apply
// to an entry is decided by the orchestrator's plan; Execute returns
// (nil, nil) when the Query lacks the key it needs.
type Adapter interface {
	Name() model.SourceName
	Execute(ctx context.Context, q Query) (model.SourceRecord, error)
}

// Client is the shared HTTP collaborator every adapter embeds: a fixed
// timeout, a contact-email User-Agent (registries ask for one so they
// can reach an operator instead of blocking an anonymous client), and a
// uniform 200/404/other classification.
type Client struct {
	HTTP      *http.Client
	UserAgent string
}

// NewClient builds a Client with the fixed adapter timeout and a
// User-Agent built from product name and contact email.
func NewClient(product, contactEmail string) *Client {
	return &Client{
		HTTP:      &http.Client{Timeout: Timeout},
		UserAgent: fmt.Sprintf("%s (mailto:%s)", product, contactEmail),
	}
}

// errNotFound signals a 404; callers treat it identically to any other
// "no result" outcome, but it is never logged as a warning.
var errNotFound = fmt.Errorf("adapters: not found")

// get performs an HTTPS GET and classifies the response per the
// documented contract: 200 returns the body, 404 returns errNotFound,
// anything else returns a warning-worthy error. Transport errors
// (timeouts, DNS, refused connections) are also warning-worthy.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("adapters: transport: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("adapters: read body: %w", err)
		}
		return body, nil
	case http.StatusNotFound:
		return nil, errNotFound
	default:
		return nil, fmt.Errorf("adapters: unexpected status %d from %s", resp.StatusCode, url)
	}
}

// Fetch wraps get with the adapter contract: not-found and transport or
// malformed-response errors both resolve to (nil, nil); only
// context cancellation propagates, so the orchestrator's errgroup can
// still honor a shutdown signal.
func Fetch(ctx context.Context, source model.SourceName, do func() ([]byte, error), parse func([]byte) (model.SourceRecord, error)) (model.SourceRecord, error) {
	body, err := do()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err == errNotFound {
			return nil, nil
		}
		logging.Warn("adapters: %s: %v", source, err)
		return nil, nil
	}
	record, err := parse(body)
	if err != nil {
		logging.Warn("adapters: %s: malformed response: %v", source, err)
		return nil, nil
	}
	return record, nil
}
