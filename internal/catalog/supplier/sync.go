package supplier

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nexcartbd/nexcart/internal/catalog"
)

// ProviderName identifies the upstream feed in supplier references.
const ProviderName = "nexsupply"

// Feed is the paginated source the syncer walks.
type Feed interface {
	FetchPage(ctx context.Context, page int) ([]Product, bool, error)
}

// Store is the slice of the catalogue repository the syncer needs.
type Store interface {
	GetBySupplierID(ctx context.Context, provider, apiID string) (*catalog.Product, error)
	Create(ctx context.Context, p catalog.Product) (int64, error)
	Update(ctx context.Context, p catalog.Product) error
}

// Result summarises one sync run.
type Result struct {
	RunID   string
	Created int
	Updated int
	Failed  int
}

// Syncer imports the supplier feed into the local catalogue. Sell prices are
// derived from the supplier's buy price through the configured pricing policy,
// never copied from the feed.
type Syncer struct {
	feed    Feed
	store   Store
	pricing catalog.PricingPolicy
	logger  *slog.Logger
}

// NewSyncer builds a Syncer.
func NewSyncer(feed Feed, store Store, pricing catalog.PricingPolicy, logger *slog.Logger) *Syncer {
	return &Syncer{feed: feed, store: store, pricing: pricing, logger: logger}
}

// Run walks the full feed, upserting by supplier product id. A single bad
// product is counted and skipped; a failed page fetch aborts the run.
func (s *Syncer) Run(ctx context.Context) (Result, error) {
	res := Result{RunID: uuid.NewString()}
	s.logger.Info("supplier sync started", slog.String("run_id", res.RunID))

	for page := 1; ; page++ {
		products, hasMore, err := s.feed.FetchPage(ctx, page)
		if err != nil {
			s.logger.Error("supplier sync aborted",
				slog.String("run_id", res.RunID), slog.Int("page", page), slog.Any("error", err))
			return res, err
		}

		for _, sp := range products {
			if err := s.upsert(ctx, sp, &res); err != nil {
				res.Failed++
				s.logger.Warn("supplier product skipped",
					slog.String("run_id", res.RunID),
					slog.String("supplier_product_id", sp.APIID),
					slog.Any("error", err))
			}
		}
		if !hasMore {
			break
		}
	}

	s.logger.Info("supplier sync finished",
		slog.String("run_id", res.RunID),
		slog.Int("created", res.Created),
		slog.Int("updated", res.Updated),
		slog.Int("failed", res.Failed))
	return res, nil
}

func (s *Syncer) upsert(ctx context.Context, sp Product, res *Result) error {
	// The supplier's sale price, when set, is what we actually pay.
	buyPrice := sp.Price
	if sp.SalePrice > 0 {
		buyPrice = sp.SalePrice
	}
	sellPrice := s.pricing.SellPrice(buyPrice)
	if sellPrice <= 0 {
		return catalog.ErrInvalidPrice
	}

	existing, err := s.store.GetBySupplierID(ctx, ProviderName, sp.APIID)
	switch {
	case err == nil:
		existing.TitleEN = sp.Title
		existing.DescriptionEN = sp.Description
		existing.BuyPrice = buyPrice
		existing.Price = sellPrice
		existing.Stock = sp.Stock
		existing.Images = sp.Images
		existing.Colors = sp.Colors
		existing.Sizes = sp.Sizes
		if err := s.store.Update(ctx, *existing); err != nil {
			return err
		}
		res.Updated++
		return nil
	case errors.Is(err, catalog.ErrNotFound):
		p := catalog.Product{
			Code:          sp.Code,
			TitleEN:       sp.Title,
			Slug:          catalog.Slugify(sp.Title),
			DescriptionEN: sp.Description,
			BuyPrice:      buyPrice,
			Price:         sellPrice,
			Stock:         sp.Stock,
			Images:        sp.Images,
			Colors:        sp.Colors,
			Sizes:         sp.Sizes,
			Status:        catalog.ProductStatusActive,
			SupplierRef: &catalog.SupplierRef{
				Provider:     ProviderName,
				ProductAPIID: sp.APIID,
				OriginalLink: sp.OriginalLink,
			},
		}
		if err := catalog.ValidateProduct(p); err != nil {
			return err
		}
		if _, err := s.store.Create(ctx, p); err != nil {
			return err
		}
		res.Created++
		return nil
	default:
		return err
	}
}
