package support

import (
	"context"
	"fmt"

	"github.com/roach88/studiodesk/internal/domain"
	"github.com/roach88/studiodesk/internal/extract"
	"github.com/roach88/studiodesk/internal/intent"
	"github.com/roach88/studiodesk/internal/query"
	"github.com/roach88/studiodesk/internal/store"
)

// createOrder: find the client by name, mint the order, persist it.
func (e *Engine) createOrder(ctx context.Context, p intent.Prompt) (map[string]any, error) {
	service, clientName, err := extract.OrderRequest(p.Text)
	if err != nil {
		return nil, intent.MissingParameter(err, msgInvalidOrderRequest)
	}

	client, err := e.store.FindOne(ctx, domain.Clients, query.Contains{Field: domain.FieldName, Substring: clientName})
	if store.IsNotFound(err) {
		return nil, intent.NotFoundf(msgNoClientNamed, clientName)
	}
	if err != nil {
		return nil, err
	}

	order, err := e.fulfill.CreateOrder(ctx, client.ID(), service)
	if err != nil {
		return nil, err
	}
	if _, err := e.store.Insert(ctx, domain.Orders, order.Record()); err != nil {
		// The fulfillment side already holds the order; nothing compensates.
		e.logger.Warn("order minted but not persisted", "order_id", order.OrderID, "error", err)
		return nil, err
	}

	return map[string]any{
		"message":  fmt.Sprintf(msgOrderCreated, clientName, service),
		"order_id": order.OrderID,
	}, nil
}

func (e *Engine) orderStatus(ctx context.Context, p intent.Prompt) (map[string]any, error) {
	orderID, err := extract.OrderID(p.Text)
	if err != nil {
		return nil, intent.MissingParameter(err, msgStatusNeedsOrderID)
	}

	order, err := e.store.FindOne(ctx, domain.Orders, query.Eq{Field: domain.FieldOrderID, Value: orderID})
	if store.IsNotFound(err) {
		return nil, intent.NotFoundf(msgNoOrderWithID, orderID)
	}
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"message": fmt.Sprintf(msgOrderStatus, orderID, order.String(domain.FieldStatus)),
	}, nil
}

// paymentDue reports max(amount - paid, 0). Without a payment record the
// paid amount is 0.
func (e *Engine) paymentDue(ctx context.Context, p intent.Prompt) (map[string]any, error) {
	orderID, err := extract.OrderID(p.Text)
	if err != nil {
		return nil, intent.MissingParameter(err, msgDueNeedsOrderID)
	}

	order, err := e.store.FindOne(ctx, domain.Orders, query.Eq{Field: domain.FieldOrderID, Value: orderID})
	if store.IsNotFound(err) {
		return nil, intent.NotFoundf(msgOrderNotFound)
	}
	if err != nil {
		return nil, err
	}

	paid, err := e.amountPaid(ctx, orderID)
	if err != nil {
		return nil, err
	}

	amount := order.Float(domain.FieldAmount)
	return map[string]any{
		"order_id":     orderID,
		"total_amount": amount,
		"amount_paid":  paid,
		"due_amount":   max(amount-paid, 0),
	}, nil
}

// amountPaid applies the payment policy: the first stored payment, or the
// sum of all of them.
func (e *Engine) amountPaid(ctx context.Context, orderID string) (float64, error) {
	filter := query.Eq{Field: domain.FieldOrderID, Value: orderID}

	if e.payments == domain.PaymentSum {
		payments, err := e.store.FindMany(ctx, domain.Payments, filter)
		if err != nil {
			return 0, err
		}
		var total float64
		for _, pay := range payments {
			total += pay.Float(domain.FieldPaid)
		}
		return total, nil
	}

	payment, err := e.store.FindOne(ctx, domain.Payments, filter)
	if store.IsNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return payment.Float(domain.FieldPaid), nil
}

// listClasses returns classes starting now or later.
func (e *Engine) listClasses(ctx context.Context, _ intent.Prompt) (map[string]any, error) {
	now := e.now().Format(domain.TimeLayout)

	classes, err := e.store.FindMany(ctx, domain.Classes, query.Gte{Field: domain.FieldStartTime, Value: now})
	if err != nil {
		return nil, err
	}
	return map[string]any{"upcoming_classes": classes}, nil
}

// filterClasses narrows classes by instructor substring and status
// keyword. Both are optional; no match is an empty list.
func (e *Engine) filterClasses(ctx context.Context, p intent.Prompt) (map[string]any, error) {
	var preds []query.Predicate
	if name, ok := extract.Instructor(p.Text); ok {
		preds = append(preds, query.Contains{Field: domain.FieldInstructor, Substring: name})
	}
	if status, ok := extract.ClassStatus(p.Normalized); ok {
		preds = append(preds, query.Eq{Field: domain.FieldStatus, Value: status})
	}

	classes, err := e.store.FindMany(ctx, domain.Classes, query.All(preds...))
	if err != nil {
		return nil, err
	}
	return map[string]any{"filtered_classes": classes}, nil
}

// createEnquiry mints and persists an enquiry. An empty name is accepted.
func (e *Engine) createEnquiry(ctx context.Context, p intent.Prompt) (map[string]any, error) {
	req := extract.EnquiryRequest(p.Text)

	enq, err := e.fulfill.CreateEnquiry(ctx, req.Name, req.Email, req.Phone)
	if err != nil {
		return nil, err
	}
	if _, err := e.store.Insert(ctx, domain.Enquiries, enq.Record()); err != nil {
		e.logger.Warn("enquiry minted but not persisted", "enquiry_id", enq.EnquiryID, "error", err)
		return nil, err
	}

	return map[string]any{
		"message":    fmt.Sprintf(msgEnquiryCreated, req.Name),
		"enquiry_id": enq.EnquiryID,
	}, nil
}

func (e *Engine) searchClient(ctx context.Context, p intent.Prompt) (map[string]any, error) {
	field, value, err := extract.FieldValue(p.Text)
	if err != nil {
		return nil, intent.MissingParameter(err, msgSearchNeedsField)
	}

	client, err := e.store.FindOne(ctx, domain.Clients, query.Contains{Field: field, Substring: value})
	if store.IsNotFound(err) {
		return nil, intent.NotFoundf(msgNoClientWith, field, value)
	}
	if err != nil {
		return nil, err
	}
	return map[string]any{"client": client}, nil
}

// clientOrders joins a client found by name to its orders. A client with
// no orders yields an empty list.
func (e *Engine) clientOrders(ctx context.Context, p intent.Prompt) (map[string]any, error) {
	name, err := extract.ClientName(p.Text)
	if err != nil {
		return nil, intent.MissingParameter(err, msgNeedClientName)
	}

	client, err := e.store.FindOne(ctx, domain.Clients, query.Contains{Field: domain.FieldName, Substring: name})
	if store.IsNotFound(err) {
		return nil, intent.NotFoundf(msgNoClientNamed, name)
	}
	if err != nil {
		return nil, err
	}

	orders, err := e.store.FindMany(ctx, domain.Orders, query.Eq{Field: domain.FieldClientID, Value: client.ID()})
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"client_name": name,
		"orders":      orders,
	}, nil
}

func (e *Engine) ordersByStatus(ctx context.Context, p intent.Prompt) (map[string]any, error) {
	status, err := extract.OrderStatus(p.Normalized)
	if err != nil {
		return nil, intent.MissingParameter(err, msgNeedOrderStatus)
	}

	orders, err := e.store.FindMany(ctx, domain.Orders, query.Eq{Field: domain.FieldStatus, Value: status})
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"status": status,
		"orders": orders,
	}, nil
}
