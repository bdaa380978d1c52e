package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/studiodesk/internal/analytics"
	"github.com/roach88/studiodesk/internal/doc"
	"github.com/roach88/studiodesk/internal/domain"
	"github.com/roach88/studiodesk/internal/fulfillment"
	"github.com/roach88/studiodesk/internal/store/memstore"
	"github.com/roach88/studiodesk/internal/support"
	"github.com/roach88/studiodesk/internal/testutil"
)

var now = testutil.Date(2026, time.March, 10, 9, 30)

func TestParse(t *testing.T) {
	f, err := Parse([]byte(`
clients:
  - _id: c001
    name: Priya
    age: 30
orders:
  - order_id: ORD1
    amount: 2500.5
    paid: true
`))
	require.NoError(t, err)
	assert.Equal(t, Fixtures{
		"clients": {{"_id": "c001", "name": "Priya", "age": int64(30)}},
		"orders":  {{"order_id": "ORD1", "amount": 2500.5, "paid": true}},
	}, f)
}

func TestParse_Rejects(t *testing.T) {
	_, err := Parse([]byte("customers:\n  - name: x\n"))
	assert.ErrorContains(t, err, `unknown collection "customers"`)

	_, err = Parse([]byte("clients: [\n"))
	assert.ErrorContains(t, err, "parse fixtures")
}

func TestResolve(t *testing.T) {
	f := Fixtures{"classes": {{
		"now":      "@now",
		"later":    "@now+3d",
		"earlier":  "@now-2d",
		"today":    "@date",
		"lastweek": "@date-7d",
		"dob":      "@dob:1990",
		"plain":    "Yoga",
		"number":   int64(4),
	}}}

	got, err := f.Resolve(now)
	require.NoError(t, err)
	assert.Equal(t, doc.Record{
		"now":      "2026-03-10T09:30:00",
		"later":    "2026-03-13T09:30:00",
		"earlier":  "2026-03-08T09:30:00",
		"today":    "2026-03-10",
		"lastweek": "2026-03-03",
		"dob":      "1990-03-10",
		"plain":    "Yoga",
		"number":   int64(4),
	}, got["classes"][0])

	// The input is untouched.
	assert.Equal(t, "@now", f["classes"][0]["now"])
}

func TestResolve_UnknownToken(t *testing.T) {
	_, err := Fixtures{"clients": {{"dob": "@yesterday"}}}.Resolve(now)
	assert.ErrorContains(t, err, `clients[0].dob: unknown relative value "@yesterday"`)
}

func TestApply_IsRepeatable(t *testing.T) {
	f, err := Default()
	require.NoError(t, err)
	gw := memstore.New()
	ctx := context.Background()

	first, err := Apply(ctx, gw, f, now, nil)
	require.NoError(t, err)
	second, err := Apply(ctx, gw, f, now, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	for collection, n := range first {
		recs, err := gw.FindMany(ctx, collection, nil)
		require.NoError(t, err)
		assert.Len(t, recs, n, collection)
	}
	assert.Equal(t, 4, first[domain.Clients])
	assert.Equal(t, 7, first[domain.Attendance])
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enquiries:\n  - enquiry_id: E1\n"), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, f[domain.Enquiries], 1)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDefaultFixtures_DriveBothEngines(t *testing.T) {
	f, err := Default()
	require.NoError(t, err)
	gw := memstore.New()
	ctx := context.Background()
	_, err = Apply(ctx, gw, f, now, nil)
	require.NoError(t, err)

	clock := func() time.Time { return now }
	dash := analytics.New(gw, analytics.WithClock(clock))
	sup := support.New(gw, fulfillment.NewLocal(), support.WithClock(clock))

	assert.Equal(t, map[string]any{"total_revenue": int64(5300)}, dash.Handle(ctx, "total revenue").Payload())
	assert.Equal(t, map[string]any{"outstanding_dues": 4500.0}, dash.Handle(ctx, "outstanding dues").Payload())
	assert.Equal(t, map[string]any{"inactive_clients": 1}, dash.Handle(ctx, "inactive clients").Payload())
	assert.Equal(t, map[string]any{"birthdays_today": []string{"Priya Sharma"}}, dash.Handle(ctx, "birthday").Payload())
	assert.Equal(t, map[string]any{"drop_off_count": 2}, dash.Handle(ctx, "drop-off").Payload())
	assert.Equal(t, map[string]any{"class": "Yoga Beginner", "attendance_percentage": 75.0},
		dash.Handle(ctx, "attendance percentage for Yoga Beginner").Payload())

	assert.Equal(t, map[string]any{"message": "Order ORD001 status: pending"}, sup.Handle(ctx, "has order ORD001 been paid").Payload())
	upcoming := sup.Handle(ctx, "available classes").Data["upcoming_classes"].([]doc.Record)
	assert.Len(t, upcoming, 2)
}

func TestMerge(t *testing.T) {
	a := Fixtures{"clients": {{"name": "A"}}}
	b := Fixtures{"clients": {{"name": "B"}}, "orders": {{"order_id": "O1"}}}

	got := a.Merge(b)
	assert.Equal(t, Fixtures{
		"clients": {{"name": "A"}, {"name": "B"}},
		"orders":  {{"order_id": "O1"}},
	}, got)
	assert.Len(t, a["clients"], 1)
}
