// Package support is the client-facing query engine: order creation and
// lookup, payment dues, class discovery, client search and enquiries.
package support

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/studiodesk/internal/domain"
	"github.com/roach88/studiodesk/internal/fulfillment"
	"github.com/roach88/studiodesk/internal/intent"
	"github.com/roach88/studiodesk/internal/store"
)

// Intent names, in dispatch priority order.
const (
	IntentCreateOrder    = "create_order"
	IntentOrderStatus    = "order_status"
	IntentPaymentDue     = "payment_due"
	IntentListClasses    = "list_classes"
	IntentCreateEnquiry  = "create_enquiry"
	IntentSearchClient   = "search_client"
	IntentClientOrders   = "client_orders"
	IntentOrdersByStatus = "orders_by_status"
	IntentFilterClasses  = "filter_classes"
)

// Engine handles support prompts. It holds only immutable configuration
// and is safe for concurrent use.
type Engine struct {
	store    store.Gateway
	fulfill  fulfillment.Client
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

// WithClock sets the time source used for "upcoming" (default time.Now).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithPaymentPolicy sets how multiple payments for one order combine
// (default domain.PaymentSingle).
func WithPaymentPolicy(p domain.PaymentPolicy) Option {
	return func(e *Engine) { e.payments = p }
}

// New creates a support engine over a store and a fulfillment client.
func New(gw store.Gateway, ff fulfillment.Client, opts ...Option) *Engine {
	e := &Engine{
		store:    gw,
		fulfill:  ff,
		logger:   slog.Default(),
		now:      time.Now,
		payments: domain.PaymentSingle,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("agent", "support")
	e.table = e.routes()
	return e
}

// routes is the dispatch table. Order is load-bearing: a prompt that
// mentions both "create an order" and "payment due" creates an order.
func (e *Engine) routes() intent.Table {
	return intent.Table{
		Routes: []intent.Route{
			{Intent: IntentCreateOrder, Action: actionCreateOrder, When: intent.Has("create an order"), Handle: e.createOrder},
			{Intent: IntentOrderStatus, Action: actionOrderStatus, When: intent.Has("has order"), Handle: e.orderStatus},
			{Intent: IntentPaymentDue, Action: actionPaymentDue, When: intent.AllOf("payment", "due"), Handle: e.paymentDue},
			{Intent: IntentListClasses, Action: actionListClasses, When: intent.AnyOf("available classes", "this week"), Handle: e.listClasses},
			{Intent: IntentCreateEnquiry, Action: actionCreateEnquiry, When: intent.Has("create enquiry"), Handle: e.createEnquiry},
			{Intent: IntentSearchClient, Action: actionSearchClient, When: intent.Has("search client"), Handle: e.searchClient},
			{Intent: IntentClientOrders, Action: actionClientOrders, When: intent.Has("orders for client"), Handle: e.clientOrders},
			{Intent: IntentOrdersByStatus, Action: actionOrdersByStatus, When: intent.AnyOf("orders with status", "paid orders", "pending orders"), Handle: e.ordersByStatus},
			{Intent: IntentFilterClasses, Action: actionFilterClasses, When: intent.AnyOf("filter classes", "classes by instructor"), Handle: e.filterClasses},
		},
		Unrecognized: msgUnrecognized,
	}
}

// Handle classifies prompt and runs the matching handler.
func (e *Engine) Handle(ctx context.Context, prompt string) intent.Result {
	return e.table.Dispatch(ctx, prompt, e.logger)
}

// Intents lists the engine's intents in priority order.
func (e *Engine) Intents() []string {
	return e.table.Intents()
}
