package intent

import (
	"context"
	"fmt"
	"log/slog"
)

// Handler executes one intent. It returns the success payload, or an error
// that Dispatch classifies with Fail.
type Handler func(ctx context.Context, p Prompt) (map[string]any, error)

// Route binds an intent to its matcher and handler.
type Route struct {
	Intent string

	// Action names the work for collaborator-failure messages, e.g.
	// "creating the order".
	Action string

	When   Matcher
	Handle Handler
}

// Table is an ordered rule list. Order is load-bearing.
type Table struct {
	Routes []Route

	// Unrecognized is the message returned when no route matches.
	Unrecognized string
}

// Match returns the first route accepting the normalized prompt.
func (t Table) Match(normalized string) (Route, bool) {
	for _, r := range t.Routes {
		if r.When(normalized) {
			return r, true
		}
	}
	return Route{}, false
}

// Intents lists route intents in priority order.
func (t Table) Intents() []string {
	out := make([]string, len(t.Routes))
	for i, r := range t.Routes {
		out[i] = r.Intent
	}
	return out
}

// Dispatch runs the first matching route. A panicking handler is
// recovered and reported as a collaborator failure of the route's action.
func (t Table) Dispatch(ctx context.Context, raw string, logger *slog.Logger) (res Result) {
	if logger == nil {
		logger = slog.Default()
	}
	p := NewPrompt(raw)

	route, ok := t.Match(p.Normalized)
	if !ok {
		logger.Debug("prompt not recognized", "prompt", p.Text)
		return Unrecognized(t.Unrecognized)
	}

	defer func() {
		if r := recover(); r != nil {
			res = Collaborator(route.Action, fmt.Errorf("panic: %v", r))
			res.Intent = route.Intent
			logger.Error("handler panicked", "intent", route.Intent, "panic", r)
		}
	}()

	data, err := route.Handle(ctx, p)
	if err != nil {
		res = Fail(route.Action, err)
	} else {
		res = OK(data)
	}
	res.Intent = route.Intent

	switch res.Kind {
	case KindCollaborator:
		logger.Warn("handler failed", "intent", route.Intent, "error", res.Err)
	case KindOK:
		logger.Debug("handled prompt", "intent", route.Intent)
	default:
		logger.Debug("handler declined", "intent", route.Intent, "kind", string(res.Kind), "message", res.Message)
	}
	return res
}
