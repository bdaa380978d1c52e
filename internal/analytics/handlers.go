package analytics

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/studiodesk/internal/doc"
	"github.com/roach88/studiodesk/internal/domain"
	"github.com/roach88/studiodesk/internal/extract"
	"github.com/roach88/studiodesk/internal/intent"
	"github.com/roach88/studiodesk/internal/query"
)

const (
	countField = "count"
	totalField = "total"

	// topServicesLimit bounds the top services ranking.
	topServicesLimit = 3

	// dropOffThreshold is the absence count marking a client at risk.
	dropOffThreshold = 2
)

// totalRevenue sums every payment. An empty collection is 0.
func (e *Engine) totalRevenue(ctx context.Context, _ intent.Prompt) (map[string]any, error) {
	rows, err := e.store.Aggregate(ctx, domain.Payments, query.Pipeline{
		query.Group{Sum: domain.FieldPaid, Into: totalField},
	})
	if err != nil {
		return nil, err
	}

	var total any = int64(0)
	if len(rows) > 0 {
		total = rows[0][totalField]
	}
	return map[string]any{"total_revenue": total}, nil
}

// outstandingDues joins orders to payments in memory and folds
// max(amount - paid, 0) over the orders.
func (e *Engine) outstandingDues(ctx context.Context, _ intent.Prompt) (map[string]any, error) {
	var orders, payments []doc.Record

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = e.store.FindMany(gctx, domain.Orders, nil)
		return err
	})
	g.Go(func() error {
		var err error
		payments, err = e.store.FindMany(gctx, domain.Payments, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	paid := e.paidByOrder(payments)
	var dues float64
	for _, order := range orders {
		amount := order.Float(domain.FieldAmount)
		if p := paid[order.String(domain.FieldOrderID)]; p < amount {
			dues += amount - p
		}
	}
	return map[string]any{"outstanding_dues": dues}, nil
}

// paidByOrder maps order_id to the paid amount. Under PaymentSingle the
// last payment seen for an order replaces earlier ones.
func (e *Engine) paidByOrder(payments []doc.Record) map[string]float64 {
	paid := make(map[string]float64, len(payments))
	for _, p := range payments {
		id := p.String(domain.FieldOrderID)
		if e.payments == domain.PaymentSum {
			paid[id] += p.Float(domain.FieldPaid)
		} else {
			paid[id] = p.Float(domain.FieldPaid)
		}
	}
	return paid
}

func (e *Engine) inactiveClients(ctx context.Context, _ intent.Prompt) (map[string]any, error) {
	clients, err := e.store.FindMany(ctx, domain.Clients, query.Eq{Field: domain.FieldStatus, Value: domain.StatusInactive})
	if err != nil {
		return nil, err
	}
	return map[string]any{"inactive_clients": len(clients)}, nil
}

// birthdayReminders matches dob values ending in "-MM-DD" of today.
// Dates stored in any other layout never match.
func (e *Engine) birthdayReminders(ctx context.Context, _ intent.Prompt) (map[string]any, error) {
	today := e.now()
	suffix := fmt.Sprintf("-%02d-%02d", int(today.Month()), today.Day())

	clients, err := e.store.FindMany(ctx, domain.Clients, query.HasSuffix{Field: domain.FieldDOB, Suffix: suffix})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(clients))
	for _, c := range clients {
		names = append(names, c.String(domain.FieldName))
	}
	return map[string]any{"birthdays_today": names}, nil
}

// newClients counts clients created on or after the first of the month.
func (e *Engine) newClients(ctx context.Context, _ intent.Prompt) (map[string]any, error) {
	today := e.now()
	firstOfMonth := fmt.Sprintf("%04d-%02d-01", today.Year(), int(today.Month()))

	clients, err := e.store.FindMany(ctx, domain.Clients, query.Gte{Field: domain.FieldCreatedAt, Value: firstOfMonth})
	if err != nil {
		return nil, err
	}
	return map[string]any{"new_clients": len(clients)}, nil
}

func enrollmentPipeline() query.Pipeline {
	return query.Pipeline{
		query.Group{By: domain.FieldServiceName, Into: countField},
		query.Sort{By: countField, Descending: true},
	}
}

func (e *Engine) enrollmentTrends(ctx context.Context, _ intent.Prompt) (map[string]any, error) {
	rows, err := e.store.Aggregate(ctx, domain.Orders, enrollmentPipeline())
	if err != nil {
		return nil, err
	}
	return map[string]any{"enrollment_trends": rows}, nil
}

func (e *Engine) topServices(ctx context.Context, _ intent.Prompt) (map[string]any, error) {
	pl := append(enrollmentPipeline(), query.Limit{N: topServicesLimit})

	rows, err := e.store.Aggregate(ctx, domain.Orders, pl)
	if err != nil {
		return nil, err
	}
	return map[string]any{"top_services": rows}, nil
}

// completionRates lists each course with its rate; a missing rate is 0.
func (e *Engine) completionRates(ctx context.Context, _ intent.Prompt) (map[string]any, error) {
	courses, err := e.store.FindMany(ctx, domain.Courses, nil)
	if err != nil {
		return nil, err
	}

	rates := make([]doc.Record, 0, len(courses))
	for _, c := range courses {
		var rate any = int64(0)
		if v, ok := c[domain.FieldCompletionRate]; ok && v != nil {
			rate = v
		}
		rates = append(rates, doc.Record{
			"course":                   c.String(domain.FieldTitle),
			domain.FieldCompletionRate: rate,
		})
	}
	return map[string]any{"completion_rates": rates}, nil
}

// attendancePercentage is round(100 * present / total, 2) over the
// attendance records whose class contains the named class. No records
// yields 0.
func (e *Engine) attendancePercentage(ctx context.Context, p intent.Prompt) (map[string]any, error) {
	class, err := extract.ClassName(p.Text)
	if err != nil {
		return nil, intent.MissingParameter(err, "Class name not specified")
	}

	records, err := e.store.FindMany(ctx, domain.Attendance, query.Contains{Field: domain.FieldClass, Substring: class})
	if err != nil {
		return nil, err
	}

	var present int
	for _, r := range records {
		if v, ok := r.Bool(domain.FieldPresent); ok && v {
			present++
		}
	}
	return map[string]any{
		"class":                 class,
		"attendance_percentage": percentage(present, len(records)),
	}, nil
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*100*100) / 100
}

// dropOffRate counts clients with at least dropOffThreshold recorded
// absences. Only an explicit present == false is an absence.
func (e *Engine) dropOffRate(ctx context.Context, _ intent.Prompt) (map[string]any, error) {
	records, err := e.store.FindMany(ctx, domain.Attendance, nil)
	if err != nil {
		return nil, err
	}

	absences := map[string]int{}
	for _, r := range records {
		if v, ok := r.Bool(domain.FieldPresent); ok && !v {
			absences[r.String(domain.FieldClientID)]++
		}
	}

	var count int
	for _, n := range absences {
		if n >= dropOffThreshold {
			count++
		}
	}
	return map[string]any{"drop_off_count": count}, nil
}
