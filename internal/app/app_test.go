package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/studiodesk/internal/config"
	"github.com/roach88/studiodesk/internal/doc"
	"github.com/roach88/studiodesk/internal/router"
	"github.com/roach88/studiodesk/internal/store/memstore"
	"github.com/roach88/studiodesk/internal/testutil"
)

func TestNew_SQLite(t *testing.T) {
	cfg := config.Default()
	cfg.Store.SQLitePath = filepath.Join(t.TempDir(), "studio.db")

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	res, err := a.Router.Handle(context.Background(), router.AgentDashboard, "total revenue")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"total_revenue": int64(0)}, res.Payload())
}

func TestNew_SharesPaymentPolicy(t *testing.T) {
	gw := memstore.New()
	ctx := context.Background()
	for _, rec := range []doc.Record{
		{"order_id": "O1", "paid": 1000},
		{"order_id": "O1", "paid": 500},
	} {
		_, err := gw.Insert(ctx, "payments", rec)
		require.NoError(t, err)
	}
	_, err := gw.Insert(ctx, "orders", doc.Record{"order_id": "O1", "amount": 3000})
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Payments.Policy = "sum"
	a, err := New(ctx, cfg, WithGateway(gw))
	require.NoError(t, err)

	res, err := a.Router.Handle(ctx, router.AgentSupport, "payment due for order O1")
	require.NoError(t, err)
	assert.Equal(t, 1500.0, res.Data["due_amount"])

	res, err = a.Router.Handle(ctx, router.AgentDashboard, "outstanding dues")
	require.NoError(t, err)
	assert.Equal(t, 1500.0, res.Data["outstanding_dues"])
}

func TestNew_ClockReachesEngines(t *testing.T) {
	gw := memstore.New()
	_, err := gw.Insert(context.Background(), "clients", doc.Record{"name": "Priya", "dob": "1990-12-25"})
	require.NoError(t, err)

	clock := testutil.NewClock(testutil.Date(2026, time.December, 25, 8, 0))
	a, err := New(context.Background(), config.Default(), WithGateway(gw), WithClock(clock.Now))
	require.NoError(t, err)

	res := a.Dashboard.Handle(context.Background(), "birthday")
	assert.Equal(t, []string{"Priya"}, res.Data["birthdays_today"])
}

func TestNew_BadPolicy(t *testing.T) {
	cfg := config.Default()
	cfg.Payments.Policy = "avg"
	_, err := New(context.Background(), cfg, WithGateway(memstore.New()))
	assert.Error(t, err)
}

func TestOpenStore(t *testing.T) {
	gw, err := OpenStore(context.Background(), config.StoreConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &memstore.Store{}, gw)

	_, err = OpenStore(context.Background(), config.StoreConfig{Driver: "redis"})
	assert.ErrorIs(t, err, ErrUnknownDriver)
}
