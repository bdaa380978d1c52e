package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/studiodesk/internal/app"
	"github.com/roach88/studiodesk/internal/config"
	"github.com/roach88/studiodesk/internal/doc"
	"github.com/roach88/studiodesk/internal/domain"
	"github.com/roach88/studiodesk/internal/fulfillment"
	"github.com/roach88/studiodesk/internal/seed"
	"github.com/roach88/studiodesk/internal/store"
	"github.com/roach88/studiodesk/internal/store/memstore"
	"github.com/roach88/studiodesk/internal/testutil"
)

// Order and enquiry ids minted during a run are ORD0001, ORD0002, ...
// and ENQ0001, ... so traces are reproducible.
const (
	OrderIDPrefix   = "ORD"
	EnquiryIDPrefix = "ENQ"
)

// Harness runs one scenario against a fresh in-memory store.
type Harness struct {
	app    *app.App
	store  store.Gateway
	clock  *testutil.Clock
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Seed a fresh in-memory store from the scenario fixtures
//  2. Assemble both engines with the scenario clock and policy
//  3. Send each step's prompt through the router and record the trace
//  4. Check step expectations, then assertions against trace and store
//
// Expectation and assertion failures are reported in Result.Errors; the
// returned error is reserved for setup failures.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	h, err := newHarness(ctx, scenario)
	if err != nil {
		return nil, err
	}
	defer h.app.Close()

	result := NewResult()
	for i, step := range scenario.Steps {
		ev, err := h.step(ctx, int64(i+1), step)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		result.AddTrace(ev)
		checkExpect(result, i, step.Expect, ev)
	}

	for i, assertion := range scenario.Assertions {
		if err := h.assert(ctx, assertion, result.Trace); err != nil {
			result.AddError(fmt.Sprintf("assertion %d (%s): %v", i, assertion.Type, err))
		}
	}
	return result, nil
}

func newHarness(ctx context.Context, scenario *Scenario) (*Harness, error) {
	now, err := time.Parse(domain.TimeLayout, scenario.Now)
	if err != nil {
		return nil, fmt.Errorf("parse now: %w", err)
	}
	fixtures, err := scenarioFixtures(scenario)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := testutil.NewClock(now)
	gw := memstore.New()
	if _, err := seed.Apply(ctx, gw, fixtures, now, logger); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}

	cfg := config.Default()
	cfg.Store.Driver = config.DriverMemory
	if scenario.PaymentPolicy != "" {
		cfg.Payments.Policy = scenario.PaymentPolicy
	}
	ff := fulfillment.NewLocal(
		fulfillment.WithOrderIDs(fulfillment.NewSequenceGenerator(OrderIDPrefix)),
		fulfillment.WithEnquiryIDs(fulfillment.NewSequenceGenerator(EnquiryIDPrefix)),
		fulfillment.WithClock(clock.Now),
		fulfillment.WithLogger(logger),
	)
	a, err := app.New(ctx, cfg,
		app.WithGateway(gw),
		app.WithClock(clock.Now),
		app.WithLogger(logger),
		app.WithFulfillment(ff),
	)
	if err != nil {
		gw.Close()
		return nil, fmt.Errorf("assemble: %w", err)
	}
	return &Harness{app: a, store: gw, clock: clock, logger: logger}, nil
}

// scenarioFixtures merges the seed fixtures with the inline ones.
func scenarioFixtures(scenario *Scenario) (seed.Fixtures, error) {
	var (
		base seed.Fixtures
		err  error
	)
	switch scenario.Seed {
	case "":
		base = seed.Fixtures{}
	case SeedDefault:
		base, err = seed.Default()
	default:
		base, err = seed.Load(scenario.Seed)
	}
	if err != nil {
		return nil, fmt.Errorf("load seed: %w", err)
	}
	inline, err := seed.FromMap(scenario.Fixtures)
	if err != nil {
		return nil, fmt.Errorf("inline fixtures: %w", err)
	}
	return base.Merge(inline), nil
}

func (h *Harness) step(ctx context.Context, seq int64, step Step) (TraceEvent, error) {
	res, err := h.app.Router.Handle(ctx, step.Agent, step.Prompt)
	if err != nil {
		return TraceEvent{}, err
	}
	payload, err := plain(res.Payload())
	if err != nil {
		return TraceEvent{}, fmt.Errorf("payload: %w", err)
	}
	h.logger.Debug("step handled", "seq", seq, "agent", step.Agent, "intent", res.Intent, "kind", res.Kind)
	return TraceEvent{
		Seq:     seq,
		Agent:   step.Agent,
		Prompt:  step.Prompt,
		Intent:  res.Intent,
		Kind:    string(res.Kind),
		Payload: payload,
	}, nil
}

// plain converts a payload to the values a client decodes from the
// wire, so that 3500.0 and 3500 compare equal and typed slices become
// []any.
func plain(payload map[string]any) (map[string]any, error) {
	data, err := doc.MarshalCanonical(payload)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return map[string]any(doc.NormalizeRecord(out)), nil
}

func checkExpect(result *Result, index int, expect *Expect, ev TraceEvent) {
	if expect == nil {
		return
	}
	if expect.Kind != "" && expect.Kind != ev.Kind {
		result.AddError(fmt.Sprintf("step %d: expected kind %q, got %q", index, expect.Kind, ev.Kind))
	}
	if expect.Intent != "" && expect.Intent != ev.Intent {
		result.AddError(fmt.Sprintf("step %d: expected intent %q, got %q", index, expect.Intent, ev.Intent))
	}
	if expect.Payload != nil {
		want := doc.NormalizeRecord(expect.Payload)
		if !containsSubset(ev.Payload, want) {
			result.AddError(fmt.Sprintf("step %d: payload mismatch (-want +got):\n%s",
				index, cmp.Diff(map[string]any(want), ev.Payload)))
		}
	}
}

// containsSubset reports whether every field of want appears in got with
// an equal value. Nested objects match as subsets too; lists must match
// element for element.
func containsSubset(got, want map[string]any) bool {
	for k, w := range want {
		g, ok := got[k]
		if !ok || !valuesMatch(g, w) {
			return false
		}
	}
	return true
}

func valuesMatch(got, want any) bool {
	if wf, ok := doc.ToFloat(want); ok {
		gf, ok := doc.ToFloat(got)
		return ok && gf == wf
	}
	switch w := want.(type) {
	case doc.Record:
		return containsSubset(asMap(got), w)
	case map[string]any:
		return containsSubset(asMap(got), w)
	case []any:
		g, ok := got.([]any)
		if !ok || len(g) != len(w) {
			return false
		}
		for i := range w {
			if !valuesMatch(g[i], w[i]) {
				return false
			}
		}
		return true
	default:
		return got == want
	}
}

func asMap(v any) map[string]any {
	switch m := v.(type) {
	case doc.Record:
		return m
	case map[string]any:
		return m
	default:
		return nil
	}
}
