// Package domain names the collections, fields and statuses of the studio
// data model, and the typed records minted by the fulfillment client.
//
// Every entity is persisted as a schemaless record; the constants here are
// the only shared vocabulary between the engines, the gateways and the
// seed fixtures.
package domain

import (
	"fmt"

	"github.com/roach88/studiodesk/internal/doc"
)

// Collection names.
const (
	Clients    = "clients"
	Orders     = "orders"
	Payments   = "payments"
	Classes    = "classes"
	Courses    = "courses"
	Attendance = "attendance"
	Enquiries  = "enquiries"
)

// AllCollections lists every collection in seeding order.
var AllCollections = []string{Clients, Orders, Payments, Classes, Courses, Attendance, Enquiries}

// TimeLayout is the canonical textual form of timestamps. Values in this
// layout sort lexically in time order.
const TimeLayout = doc.TimeLayout

// DateLayout is the canonical textual form of calendar dates.
const DateLayout = "2006-01-02"

// Status values.
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusNew       = "new"
	StatusOpen      = "open"
	StatusClosed    = "closed"
)

// Field names shared by more than one component.
const (
	FieldID             = doc.IDField
	FieldName           = "name"
	FieldEmail          = "email"
	FieldPhone          = "phone"
	FieldStatus         = "status"
	FieldDOB            = "dob"
	FieldCreatedAt      = "created_at"
	FieldOrderID        = "order_id"
	FieldClientID       = "client_id"
	FieldServiceName    = "service_name"
	FieldAmount         = "amount"
	FieldPaymentID      = "payment_id"
	FieldPaid           = "paid"
	FieldTitle          = "title"
	FieldStartTime      = "start_time"
	FieldInstructor     = "instructor"
	FieldCompletionRate = "completion_rate"
	FieldClass          = "class"
	FieldPresent        = "present"
	FieldEnquiryID      = "enquiry_id"
	FieldClientName     = "client_name"
)

// Order is an order as minted by the fulfillment client.
type Order struct {
	OrderID     string
	ClientID    string
	ServiceName string
	Status      string
	Amount      float64
	CreatedAt   string
}

// Record converts the order to its stored form.
func (o Order) Record() doc.Record {
	return doc.Record{
		FieldOrderID:     o.OrderID,
		FieldClientID:    o.ClientID,
		FieldServiceName: o.ServiceName,
		FieldStatus:      o.Status,
		FieldAmount:      o.Amount,
		FieldCreatedAt:   o.CreatedAt,
	}
}

// Enquiry is a client enquiry as minted by the fulfillment client.
type Enquiry struct {
	EnquiryID  string
	ClientName string
	Email      string
	Phone      string
	Status     string
	CreatedAt  string
}

// Record converts the enquiry to its stored form.
func (e Enquiry) Record() doc.Record {
	return doc.Record{
		FieldEnquiryID:  e.EnquiryID,
		FieldClientName: e.ClientName,
		FieldEmail:      e.Email,
		FieldPhone:      e.Phone,
		FieldStatus:     e.Status,
		FieldCreatedAt:  e.CreatedAt,
	}
}

// PaymentPolicy decides how several payments recorded against one order
// are combined.
type PaymentPolicy string

const (
	// PaymentSingle uses one payment per order: the payment-due lookup takes
	// the first stored match and the outstanding-dues join keeps the last
	// one seen for each order.
	PaymentSingle PaymentPolicy = "single"

	// PaymentSum adds up every payment recorded for an order.
	PaymentSum PaymentPolicy = "sum"
)

// ParsePaymentPolicy validates a policy name. The empty string selects
// PaymentSingle.
func ParsePaymentPolicy(s string) (PaymentPolicy, error) {
	switch PaymentPolicy(s) {
	case "", PaymentSingle:
		return PaymentSingle, nil
	case PaymentSum:
		return PaymentSum, nil
	default:
		return "", fmt.Errorf("unknown payment policy %q (want %q or %q)", s, PaymentSingle, PaymentSum)
	}
}
