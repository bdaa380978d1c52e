// Package fulfillment is the External Fulfillment Client: the authority
// that mints new orders and enquiries before they are persisted.
package fulfillment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/roach88/studiodesk/internal/domain"
)

// ErrInvalidRequest is returned for requests missing a required field.
var ErrInvalidRequest = errors.New("invalid fulfillment request")

// Client mints new domain records. Implementations assign identifiers and
// creation timestamps; callers persist the result.
type Client interface {
	// CreateOrder mints a pending order for clientID.
	CreateOrder(ctx context.Context, clientID, serviceName string) (domain.Order, error)

	// CreateEnquiry mints a new enquiry. Every field may be empty.
	CreateEnquiry(ctx context.Context, name, email, phone string) (domain.Enquiry, error)
}

// Local mints records in process.
type Local struct {
	orderIDs   IDGenerator
	enquiryIDs IDGenerator
	now        func() time.Time
	logger     *slog.Logger
}

var _ Client = (*Local)(nil)

// Option configures a Local client.
type Option func(*Local)

// WithOrderIDs sets the order id generator (default UUIDv7).
func WithOrderIDs(g IDGenerator) Option {
	return func(l *Local) { l.orderIDs = g }
}

// WithEnquiryIDs sets the enquiry id generator (default UUIDv7).
func WithEnquiryIDs(g IDGenerator) Option {
	return func(l *Local) { l.enquiryIDs = g }
}

// WithClock sets the source of creation timestamps (default time.Now).
func WithClock(now func() time.Time) Option {
	return func(l *Local) { l.now = now }
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(l *Local) { l.logger = logger }
}

// NewLocal creates a Local client.
func NewLocal(opts ...Option) *Local {
	l := &Local{
		orderIDs:   UUIDv7Generator{},
		enquiryIDs: UUIDv7Generator{},
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CreateOrder mints a pending order.
func (l *Local) CreateOrder(ctx context.Context, clientID, serviceName string) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}
	if clientID == "" {
		return domain.Order{}, errors.Join(ErrInvalidRequest, errors.New("client id is required"))
	}

	order := domain.Order{
		OrderID:     l.orderIDs.Generate(),
		ClientID:    clientID,
		ServiceName: serviceName,
		Status:      domain.StatusPending,
		CreatedAt:   l.now().Format(domain.TimeLayout),
	}
	l.logger.Debug("minted order", "order_id", order.OrderID, "client_id", clientID)
	return order, nil
}

// CreateEnquiry mints a new enquiry.
func (l *Local) CreateEnquiry(ctx context.Context, name, email, phone string) (domain.Enquiry, error) {
	if err := ctx.Err(); err != nil {
		return domain.Enquiry{}, err
	}

	enq := domain.Enquiry{
		EnquiryID:  l.enquiryIDs.Generate(),
		ClientName: name,
		Email:      email,
		Phone:      phone,
		Status:     domain.StatusNew,
		CreatedAt:  l.now().Format(domain.TimeLayout),
	}
	l.logger.Debug("minted enquiry", "enquiry_id", enq.EnquiryID)
	return enq, nil
}
