// Package analytics is the dashboard query engine: revenue, client,
// service and attendance metrics computed over the record store.
//
// Every handler is a pure read. Repeating a prompt against an unchanged
// store yields an identical payload.
package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/studiodesk/internal/domain"
	"github.com/roach88/studiodesk/internal/intent"
	"github.com/roach88/studiodesk/internal/store"
)

// Intent names, in dispatch priority order.
const (
	IntentTotalRevenue         = "total_revenue"
	IntentOutstandingDues      = "outstanding_dues"
	IntentInactiveClients      = "inactive_clients"
	IntentBirthdayReminders    = "birthday_reminders"
	IntentNewClients           = "new_clients"
	IntentEnrollmentTrends     = "enrollment_trends"
	IntentTopServices          = "top_services"
	IntentCompletionRates      = "completion_rates"
	IntentAttendancePercentage = "attendance_percentage"
	IntentDropOffRate          = "drop_off_rate"
)

const msgUnrecognized = "Query not recognized for dashboard agent."

// Engine handles dashboard prompts. Safe for concurrent use.
type Engine struct {
	store    store.Gateway
	logger   *slog.Logger
	now      func() time.Time
	payments domain.PaymentPolicy
	table    intent.Table
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger (default slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithClock sets the time source for "today" and "this month"
// (default time.Now).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithPaymentPolicy sets how multiple payments for one order combine in
// outstanding dues (default domain.PaymentSingle).
func WithPaymentPolicy(p domain.PaymentPolicy) Option {
	return func(e *Engine) { e.payments = p }
}

// New creates a dashboard engine over gw.
func New(gw store.Gateway, opts ...Option) *Engine {
	e := &Engine{
		store:    gw,
		logger:   slog.Default(),
		now:      time.Now,
		payments: domain.PaymentSingle,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("agent", "dashboard")
	e.table = intent.Table{
		Routes: []intent.Route{
			{Intent: IntentTotalRevenue, Action: "computing total revenue", When: intent.Has("revenue"), Handle: e.totalRevenue},
			{Intent: IntentOutstandingDues, Action: "computing outstanding dues", When: intent.AnyOf("outstanding payments", "outstanding dues"), Handle: e.outstandingDues},
			{Intent: IntentInactiveClients, Action: "counting inactive clients", When: intent.Has("inactive clients"), Handle: e.inactiveClients},
			{Intent: IntentBirthdayReminders, Action: "finding birthdays", When: intent.Has("birthday"), Handle: e.birthdayReminders},
			{Intent: IntentNewClients, Action: "counting new clients", When: intent.Has("new clients"), Handle: e.newClients},
			{Intent: IntentEnrollmentTrends, Action: "computing enrollment trends", When: intent.Has("enrollment trends"), Handle: e.enrollmentTrends},
			{Intent: IntentTopServices, Action: "ranking services", When: intent.AnyOf("top service", "highest enrollment"), Handle: e.topServices},
			{Intent: IntentCompletionRates, Action: "listing completion rates", When: intent.Has("completion rate"), Handle: e.completionRates},
			{Intent: IntentAttendancePercentage, Action: "computing attendance", When: intent.AllOf("attendance", "percentage"), Handle: e.attendancePercentage},
			{Intent: IntentDropOffRate, Action: "computing drop-off", When: intent.Has("drop-off"), Handle: e.dropOffRate},
		},
		Unrecognized: msgUnrecognized,
	}
	return e
}

// Handle classifies prompt and runs the matching handler.
func (e *Engine) Handle(ctx context.Context, prompt string) intent.Result {
	return e.table.Dispatch(ctx, prompt, e.logger)
}

// Intents lists the engine's intents in priority order.
func (e *Engine) Intents() []string {
	return e.table.Intents()
}
