package catalog

import (
	"context"
	"fmt"
	"log/slog"
)

// Service coordinates catalogue management.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService builds Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create validates and persists a new product.
func (s *Service) Create(ctx context.Context, p Product) (*Product, error) {
	if p.Status == "" {
		p.Status = ProductStatusActive
	}
	if p.Slug == "" {
		p.Slug = Slugify(p.TitleEN)
	}
	if err := ValidateProduct(p); err != nil {
		return nil, err
	}

	id, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id, true)
}

// Update replaces the editable fields of an existing product. Snapshotted
// order items are unaffected: they carry their own copies of price and cost.
func (s *Service) Update(ctx context.Context, id int64, p Product) (*Product, error) {
	existing, err := s.repo.Get(ctx, id, true)
	if err != nil {
		return nil, err
	}

	p.ID = existing.ID
	p.Code = existing.Code
	if p.Slug == "" {
		p.Slug = Slugify(p.TitleEN)
	}
	if p.Status == "" {
		p.Status = existing.Status
	}
	if err := ValidateProduct(p); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id, true)
}

// Archive hides a product from new orders while keeping it referenceable
// from historical order items.
func (s *Service) Archive(ctx context.Context, id int64) error {
	if err := s.repo.SetStatus(ctx, id, ProductStatusArchived); err != nil {
		return fmt.Errorf("archive product %d: %w", id, err)
	}
	s.logger.Info("product archived", slog.Int64("product_id", id))
	return nil
}

// Delete soft-deletes a product.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.SoftDelete(ctx, id)
}

// Get returns a single product.
func (s *Service) Get(ctx context.Context, id int64, includeArchived bool) (*Product, error) {
	return s.repo.Get(ctx, id, includeArchived)
}

// List returns a catalogue page.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Product, int, error) {
	return s.repo.List(ctx, req)
}
