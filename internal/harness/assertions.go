package harness

import (
	"context"
	"fmt"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/studiodesk/internal/doc"
	"github.com/roach88/studiodesk/internal/query"
)

func (h *Harness) assert(ctx context.Context, a Assertion, trace []TraceEvent) error {
	switch a.Type {
	case AssertTraceContains:
		return assertTraceContains(trace, a.Intent, a.Payload)
	case AssertTraceOrder:
		return assertTraceOrder(trace, a.Intents)
	case AssertTraceCount:
		return assertTraceCount(trace, a.Intent, a.Count)
	case AssertFinalState:
		return h.assertFinalState(ctx, a.Collection, a.Where, a.Expect)
	case AssertRecordCount:
		return h.assertRecordCount(ctx, a.Collection, a.Where, a.Count)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

// assertTraceContains checks that some step resolved to intent. When
// payload is set, that step's payload must contain it.
func assertTraceContains(trace []TraceEvent, intentName string, payload map[string]any) error {
	var want map[string]any
	if payload != nil {
		want = doc.NormalizeRecord(payload)
	}
	seen := false
	for _, ev := range trace {
		if ev.Intent != intentName {
			continue
		}
		seen = true
		if want == nil || containsSubset(ev.Payload, want) {
			return nil
		}
	}
	if seen {
		return fmt.Errorf("intent %s found but no payload contains %v", intentName, want)
	}
	return fmt.Errorf("intent %s not found in trace", intentName)
}

// assertTraceOrder checks that the intents appear in order. Other steps
// may appear between them.
func assertTraceOrder(trace []TraceEvent, intents []string) error {
	next := 0
	for _, ev := range trace {
		if next < len(intents) && ev.Intent == intents[next] {
			next++
		}
	}
	if next < len(intents) {
		return fmt.Errorf("expected intent order %v, stopped at %s (index %d)", intents, intents[next], next)
	}
	return nil
}

// assertTraceCount checks that intent was resolved exactly count times.
func assertTraceCount(trace []TraceEvent, intentName string, count int) error {
	actual := 0
	for _, ev := range trace {
		if ev.Intent == intentName {
			actual++
		}
	}
	if actual != count {
		return fmt.Errorf("expected %d occurrences of %s, got %d", count, intentName, actual)
	}
	return nil
}

// assertFinalState checks that exactly one record in collection matches
// where and that it contains expect.
func (h *Harness) assertFinalState(ctx context.Context, collection string, where, expect map[string]any) error {
	recs, err := h.find(ctx, collection, where)
	if err != nil {
		return err
	}
	if len(recs) != 1 {
		return fmt.Errorf("expected exactly one %s record matching %v, got %d", collection, where, len(recs))
	}
	got, err := plain(recs[0])
	if err != nil {
		return err
	}
	want := doc.NormalizeRecord(expect)
	if !containsSubset(got, want) {
		return fmt.Errorf("%s record mismatch (-want +got):\n%s", collection, cmp.Diff(map[string]any(want), got))
	}
	return nil
}

// assertRecordCount checks how many records in collection match where.
func (h *Harness) assertRecordCount(ctx context.Context, collection string, where map[string]any, count int) error {
	recs, err := h.find(ctx, collection, where)
	if err != nil {
		return err
	}
	if len(recs) != count {
		return fmt.Errorf("expected %d %s records matching %v, got %d", count, collection, where, len(recs))
	}
	return nil
}

func (h *Harness) find(ctx context.Context, collection string, where map[string]any) ([]doc.Record, error) {
	preds := make([]query.Predicate, 0, len(where))
	for _, field := range doc.SortedKeys(where) {
		preds = append(preds, query.Eq{Field: field, Value: doc.Normalize(where[field])})
	}
	recs, err := h.store.FindMany(ctx, collection, query.All(preds...))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	return recs, nil
}
