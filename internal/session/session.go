// Package session implements the review-session protocol: accept,
// reject, restore and accept-all-global, committing decisions back to
// the Record Store and keeping each entry's ValidationResult in sync
// without re-fetching from any external source.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/bet-lab/reference-validator/internal/compare"
	"github.com/bet-lab/reference-validator/internal/merge"
	"github.com/bet-lab/reference-validator/internal/model"
	"github.com/bet-lab/reference-validator/internal/store"
)

// Session holds one review pass over a loaded Store: the merged
// ValidationResult per entry, recomputed in place as decisions land.
type Session struct {
	mu      sync.Mutex
	store   *store.Store
	results map[string]*model.ValidationResult
	order   []string
}

// New builds a Session from the already-enriched-and-merged results of
// a pipeline run, keyed by citekey.
func New(s *store.Store, results []*model.ValidationResult) *Session {
	sess := &Session{store: s, results: make(map[string]*model.ValidationResult, len(results))}
	for _, r := range results {
		sess.results[r.EntryKey] = r
		sess.order = append(sess.order, r.EntryKey)
	}
	return sess
}

// List returns every entry's ValidationResult in load order.
func (s *Session) List() []*model.ValidationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.ValidationResult, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.results[key])
	}
	return out
}

// Get returns one entry's current ValidationResult.
func (s *Session) Get(citeKey string) (*model.ValidationResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[citeKey]
	return r, ok
}

// Accept applies the proposed value for each named field to the entry
// and commits it to the Record Store. If selectedSources names a source
// for a field and that source is present in AllSourcesData, the field's
// value is recomputed from that source's record rather than taken from
// the Priority Merger's default winner; the source need not be listed in
// FieldSourceOptions.
func (s *Session) Accept(ctx context.Context, citeKey string, fields []model.FieldName, selectedSources map[model.FieldName]model.SourceName) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, ok := s.results[citeKey]
	if !ok {
		return fmt.Errorf("session: unknown citekey %q", citeKey)
	}

	err := s.store.Commit(ctx, citeKey, func(entry *model.Entry) {
		for _, field := range fields {
			value, ok := s.resolveValue(result, field, selectedSources)
			if !ok {
				continue
			}
			entry.Set(field, value)
			result.NormalizedEntry.Set(field, value)
		}
	})
	if err != nil {
		return err
	}

	for _, field := range fields {
		delete(result.FieldsUpdated, field)
		delete(result.FieldsConflict, field)
		delete(result.FieldsDifferent, field)
	}
	return nil
}

// resolveValue picks the value Accept should write for field, honoring
// an explicit source override when one names a valid option.
func (s *Session) resolveValue(result *model.ValidationResult, field model.FieldName, selectedSources map[model.FieldName]model.SourceName) (string, bool) {
	if source, overridden := selectedSources[field]; overridden {
		if record, ok := result.AllSourcesData[source]; ok {
			if classification, ok := compare.Compare(result.NormalizedEntry, source, record).Fields[field]; ok {
				return classification.Value(), true
			}
		}
	}

	if v, ok := result.FieldsUpdated[field]; ok {
		return v, true
	}
	if v, ok := result.FieldsConflict[field]; ok {
		return v[1], true
	}
	if v, ok := result.FieldsDifferent[field]; ok {
		return v[1], true
	}
	if v, ok := result.FieldsIdentical[field]; ok {
		return v, true
	}
	return "", false
}

// Reject restores each listed field to its pre-session OriginalValues
// snapshot (deleting it if it was absent originally), commits that to
// the Record Store, and removes the field from the pending
// classification maps so list_entries no longer flags it as
// outstanding.
func (s *Session) Reject(ctx context.Context, citeKey string, fields []model.FieldName) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, ok := s.results[citeKey]
	if !ok {
		return fmt.Errorf("session: unknown citekey %q", citeKey)
	}

	err := s.store.Commit(ctx, citeKey, func(entry *model.Entry) {
		for _, field := range fields {
			if original, hadOriginal := result.OriginalValues[field]; hadOriginal && original != "" {
				entry.Set(field, original)
				result.NormalizedEntry.Set(field, original)
			} else {
				entry.Delete(field)
				result.NormalizedEntry.Delete(field)
			}
		}
	})
	if err != nil {
		return err
	}

	for _, field := range fields {
		delete(result.FieldsUpdated, field)
		delete(result.FieldsConflict, field)
		delete(result.FieldsDifferent, field)
	}
	return nil
}

// Restore reverts field to its OriginalValues snapshot, commits that to
// the Record Store, and re-runs the Priority Merger against the cached
// AllSourcesData so the field's classification reflects the restored
// value without any network re-fetch. This is the sole path that
// guarantees restore completeness: original values are captured once,
// before normalization, and never mutated by any other operation.
func (s *Session) Restore(ctx context.Context, citeKey string, field model.FieldName) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, ok := s.results[citeKey]
	if !ok {
		return fmt.Errorf("session: unknown citekey %q", citeKey)
	}
	original, hadOriginal := result.OriginalValues[field]

	if err := s.store.Commit(ctx, citeKey, func(entry *model.Entry) {
		if hadOriginal && original != "" {
			entry.Set(field, original)
		} else {
			entry.Delete(field)
		}
	}); err != nil {
		return err
	}

	if hadOriginal && original != "" {
		result.NormalizedEntry.Set(field, original)
	} else {
		result.NormalizedEntry.Delete(field)
	}

	recomputed := merge.Merge(result.NormalizedEntry, result.LintMessages, result.AllSourcesData, result.OriginalValues)
	s.results[citeKey] = recomputed
	return nil
}

// AcceptAllGlobal accepts every pending field across every entry in the
// session, using each field's default Priority Merger winner.
func (s *Session) AcceptAllGlobal(ctx context.Context) error {
	s.mu.Lock()
	citeKeys := make([]string, len(s.order))
	copy(citeKeys, s.order)
	s.mu.Unlock()

	for _, citeKey := range citeKeys {
		s.mu.Lock()
		result, ok := s.results[citeKey]
		if !ok {
			s.mu.Unlock()
			continue
		}
		fields := pendingFields(result)
		s.mu.Unlock()

		if len(fields) == 0 {
			continue
		}
		if err := s.Accept(ctx, citeKey, fields, nil); err != nil {
			return fmt.Errorf("session: accept-all-global: %q: %w", citeKey, err)
		}
	}
	return nil
}

func pendingFields(result *model.ValidationResult) []model.FieldName {
	seen := make(map[model.FieldName]bool)
	var fields []model.FieldName
	add := func(f model.FieldName) {
		if !seen[f] {
			seen[f] = true
			fields = append(fields, f)
		}
	}
	for f := range result.FieldsUpdated {
		add(f)
	}
	for f := range result.FieldsConflict {
		add(f)
	}
	for f := range result.FieldsDifferent {
		add(f)
	}
	return fields
}
