package analytics

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"
)

// Dashboard is the admin overview snapshot.
type Dashboard struct {
	TotalRevenue        float64 `json:"total_revenue"`
	TotalGoodsCost      float64 `json:"total_goods_cost"`
	TotalShippingCost   float64 `json:"total_shipping_cost"`
	TotalProfit         float64 `json:"total_profit"`
	ProfitPercent       float64 `json:"profit_percent"`
	Orders              int64   `json:"orders"`
	PendingVerification int64   `json:"pending_verification"`
	Customers           int64   `json:"customers"`
	ActiveProducts      int64   `json:"active_products"`
}

// Service serves the dashboard through the versioned cache. Concurrent cache
// misses collapse into a single database pass via singleflight.
type Service struct {
	repo   Repository
	cache  *Cache
	logger *slog.Logger
	group  singleflight.Group
}

// NewService builds Service.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

// Dashboard returns the current snapshot, computing it on a cache miss.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	if s.cache != nil {
		var cached Dashboard
		ok, err := s.cache.Fetch(ctx, &cached)
		if err != nil {
			s.logger.Warn("dashboard cache read failed", slog.Any("error", err))
		} else if ok {
			return &cached, nil
		}
	}

	v, err, _ := s.group.Do("dashboard", func() (interface{}, error) {
		return s.compute(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Dashboard), nil
}

func (s *Service) compute(ctx context.Context) (*Dashboard, error) {
	totals, err := s.repo.Totals(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.Counts(ctx)
	if err != nil {
		return nil, err
	}

	profit := totals.Revenue - totals.GoodsCost - totals.ShippingCost
	var percent float64
	if totals.Revenue > 0 {
		percent = profit / totals.Revenue * 100
	}
	d := &Dashboard{
		TotalRevenue:        totals.Revenue,
		TotalGoodsCost:      totals.GoodsCost,
		TotalShippingCost:   totals.ShippingCost,
		TotalProfit:         profit,
		ProfitPercent:       percent,
		Orders:              counts.Orders,
		PendingVerification: counts.PendingVerification,
		Customers:           counts.Customers,
		ActiveProducts:      counts.ActiveProducts,
	}
	if s.cache != nil {
		if err := s.cache.Store(ctx, d); err != nil {
			s.logger.Warn("dashboard cache write failed", slog.Any("error", err))
		}
	}
	return d, nil
}
