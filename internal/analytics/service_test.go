package analytics

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	calls  atomic.Int64
	totals Totals
	counts Counts
}

func (f *fakeRepo) Totals(context.Context) (Totals, error) {
	f.calls.Add(1)
	return f.totals, nil
}

func (f *fakeRepo) Counts(context.Context) (Counts, error) {
	return f.counts, nil
}

func newTestService(t *testing.T, repo *fakeRepo) (*Service, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cache := NewCache(rdb)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, cache, logger), cache
}

func TestDashboardDerivesProfit(t *testing.T) {
	repo := &fakeRepo{
		totals: Totals{Revenue: 10000, GoodsCost: 7200, ShippingCost: 800},
		counts: Counts{Orders: 12, PendingVerification: 3, Customers: 9, ActiveProducts: 40},
	}
	svc, _ := newTestService(t, repo)

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2000.0, d.TotalProfit)
	require.InDelta(t, 20.0, d.ProfitPercent, 0.001)
	require.Equal(t, int64(12), d.Orders)
	require.Equal(t, int64(3), d.PendingVerification)
}

func TestDashboardServesFromCache(t *testing.T) {
	repo := &fakeRepo{totals: Totals{Revenue: 500}}
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	first, err := svc.Dashboard(ctx)
	require.NoError(t, err)

	// Aggregates change underneath, but the cache still answers.
	repo.totals = Totals{Revenue: 9999}
	second, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	require.Equal(t, first.TotalRevenue, second.TotalRevenue)
	require.Equal(t, int64(1), repo.calls.Load())
}

func TestDashboardBumpInvalidates(t *testing.T) {
	repo := &fakeRepo{totals: Totals{Revenue: 500}}
	svc, cache := newTestService(t, repo)
	ctx := context.Background()

	_, err := svc.Dashboard(ctx)
	require.NoError(t, err)

	repo.totals = Totals{Revenue: 1500}
	require.NoError(t, cache.Bump(ctx))

	d, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	require.Equal(t, 1500.0, d.TotalRevenue)
	require.Equal(t, int64(2), repo.calls.Load())
}
