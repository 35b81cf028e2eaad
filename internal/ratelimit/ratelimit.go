// Package ratelimit gates outbound requests to each external registry
// behind a per-source policy, so that one slow or strict source never
// stalls the others and none is hammered past what it tolerates.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bet-lab/reference-validator/internal/model"
)

// DefaultDelay is the fixed inter-request delay applied to every source
// that doesn't get its own policy.
const DefaultDelay = 1 * time.Second

// ArxivDelay is the fixed delay arXiv's serial gate holds in addition to
// mutual exclusion, set well above the other sources' default because
// arXiv's own terms of use ask for it explicitly.
const ArxivDelay = 5 * time.Second

// Limiter gates outbound requests per source. The zero value is not
// usable; construct with New.
type Limiter struct {
	delay time.Duration

	mu       sync.Mutex
	limiters map[model.SourceName]*rate.Limiter

	arxivMu sync.Mutex
}

// New builds a Limiter applying delay between consecutive requests on
// the same source, except for arXiv which additionally gets a strict
// serial gate (New's delay argument does not change the arXiv policy;
// arXiv always waits ArxivDelay inside its own mutex).
func New(delay time.Duration) *Limiter {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Limiter{
		delay:    delay,
		limiters: make(map[model.SourceName]*rate.Limiter),
	}
}

// Wait blocks until source is clear to issue its next request, or ctx is
// done. It does not hold arXiv's serial gate past its own return; callers
// that actually issue the request should use Do instead, which keeps the
// gate held across the request itself.
func (l *Limiter) Wait(ctx context.Context, source model.SourceName) error {
	if source == model.SourceArxiv {
		l.arxivMu.Lock()
		defer l.arxivMu.Unlock()
		return l.waitArxivDelay(ctx, source)
	}
	return l.limiterFor(source, l.delay).Wait(ctx)
}

// Do blocks until source is clear, then calls fn. For arXiv, fn runs
// inside the same critical section as the delay itself, so the
// mutual-exclusion gate covers the actual outbound request and not just
// the inter-request sleep; concurrent workers can never overlap two
// in-flight arXiv calls. Other sources only wait their rate limiter
// before calling fn, since they don't require serial access.
func (l *Limiter) Do(ctx context.Context, source model.SourceName, fn func() error) error {
	if source == model.SourceArxiv {
		l.arxivMu.Lock()
		defer l.arxivMu.Unlock()
		if err := l.waitArxivDelay(ctx, source); err != nil {
			return err
		}
		return fn()
	}
	if err := l.limiterFor(source, l.delay).Wait(ctx); err != nil {
		return err
	}
	return fn()
}

// waitArxivDelay waits out the rate limiter and the fixed ArxivDelay;
// callers must hold arxivMu.
func (l *Limiter) waitArxivDelay(ctx context.Context, source model.SourceName) error {
	if err := l.limiterFor(source, ArxivDelay).Wait(ctx); err != nil {
		return err
	}
	select {
	case <-time.After(ArxivDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Limiter) limiterFor(source model.SourceName, delay time.Duration) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[source]
	if !ok {
		lim = rate.NewLimiter(rate.Every(delay), 1)
		l.limiters[source] = lim
	}
	return lim
}
