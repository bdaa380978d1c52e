// Package router dispatches prompts to the named agent engine and records
// the outcome.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/roach88/studiodesk/internal/intent"
	"github.com/roach88/studiodesk/internal/metrics"
)

// Agent names.
const (
	AgentSupport   = "support"
	AgentDashboard = "dashboard"
)

// ErrUnknownAgent is returned for an agent name with no engine.
var ErrUnknownAgent = errors.New("unknown agent")

// Engine handles prompts for one agent.
type Engine interface {
	Handle(ctx context.Context, prompt string) intent.Result
	Intents() []string
}

// Router owns the agent engines.
type Router struct {
	engines map[string]Engine
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Router.
type Option func(*Router)

// WithMetrics records every prompt on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) { r.logger = logger }
}

// New creates a Router for the given engines keyed by agent name.
func New(engines map[string]Engine, opts ...Option) *Router {
	r := &Router{
		engines: engines,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Agents lists the agent names in sorted order.
func (r *Router) Agents() []string {
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Handle routes prompt to agent.
func (r *Router) Handle(ctx context.Context, agent, prompt string) (intent.Result, error) {
	engine, ok := r.engines[agent]
	if !ok {
		return intent.Result{}, fmt.Errorf("%w: %q", ErrUnknownAgent, agent)
	}

	start := r.now()
	res := engine.Handle(ctx, prompt)
	elapsed := r.now().Sub(start)

	if r.metrics != nil {
		r.metrics.ObservePrompt(agent, res.Intent, string(res.Kind), elapsed)
	}
	r.logger.Debug("prompt handled",
		"agent", agent,
		"intent", res.Intent,
		"kind", string(res.Kind),
		"elapsed", elapsed,
	)
	return res, nil
}
