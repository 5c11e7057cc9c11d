package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/errors"
)

type Repository interface {
	List(ctx context.Context) ([]domain.Product, error)
	FindByID(ctx context.Context, id uint) (*domain.Product, error)
	FindByName(ctx context.Context, name string) (*domain.Product, error)
	FindByIDs(ctx context.Context, ids []uint) ([]domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id uint) error
}

type NewItemRepository interface {
	ListActive(ctx context.Context) ([]domain.NewItem, error)
}

// ProductInput is used for both create and partial update; nil fields are left unchanged on update.
type ProductInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Image       *string
}

type CatalogService struct {
	repo     Repository
	newItems NewItemRepository
	logger   *zap.Logger
}

func NewCatalogService(repo Repository, newItems NewItemRepository, logger *zap.Logger) *CatalogService {
	return &CatalogService{repo: repo, newItems: newItems, logger: logger}
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.NewInternalError("listing products", err)
	}
	return products, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*domain.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if _, ok := errors.IsNotFoundError(err); ok {
			return nil, err
		}
		return nil, errors.NewInternalError("loading product", err)
	}
	return p, nil
}

// ProductsByID resolves a set of ids into a lookup map. Missing ids are
// simply absent from the result.
func (s *CatalogService) ProductsByID(ctx context.Context, ids []uint) (map[uint]domain.Product, error) {
	found, err := s.repo.FindByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, errors.NewInternalError("loading products", err)
	}

	byID := make(map[uint]domain.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	return byID, nil
}

// SearchProducts returns the products found for ids and, in request order,
// the ids that matched nothing.
func (s *CatalogService) SearchProducts(ctx context.Context, ids []uint) ([]domain.Product, []uint, error) {
	byID, err := s.ProductsByID(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	found := make([]domain.Product, 0, len(byID))
	notFound := []uint{}
	for _, id := range uniqueIDs(ids) {
		if p, ok := byID[id]; ok {
			found = append(found, p)
			continue
		}
		notFound = append(notFound, id)
	}
	return found, notFound, nil
}

func (s *CatalogService) ListNewItems(ctx context.Context) ([]domain.NewItem, error) {
	items, err := s.newItems.ListActive(ctx)
	if err != nil {
		return nil, errors.NewInternalError("listing new items", err)
	}
	return items, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	var details []errors.ValidationDetail
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		details = append(details, errors.ValidationDetail{Field: "name", Message: "name is required"})
	}
	if in.Price == nil {
		details = append(details, errors.ValidationDetail{Field: "price", Message: "price is required"})
	}
	details = append(details, validateProductInput(in)...)
	if len(details) > 0 {
		return nil, errors.NewValidationError("invalid product", details...)
	}

	p := &domain.Product{Name: strings.TrimSpace(*in.Name), Price: *in.Price, Image: in.Image}
	if in.Description != nil {
		p.Description = *in.Description
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, errors.NewInternalError("creating product", err)
	}
	s.logger.Info("product created", zap.Uint("productId", p.ID), zap.String("name", p.Name))

	return s.GetProduct(ctx, p.ID)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, in ProductInput) (*domain.Product, error) {
	if details := validateProductInput(in); len(details) > 0 {
		return nil, errors.NewValidationError("invalid product", details...)
	}

	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Image != nil {
		p.Image = in.Image
	}

	if err := s.repo.Update(ctx, p); err != nil {
		if _, ok := errors.IsNotFoundError(err); ok {
			return nil, err
		}
		return nil, errors.NewInternalError("updating product", err)
	}

	return s.GetProduct(ctx, id)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if _, ok := errors.IsNotFoundError(err); ok {
			return err
		}
		return errors.NewInternalError("deleting product", err)
	}
	s.logger.Info("product deleted", zap.Uint("productId", id))
	return nil
}

func validateProductInput(in ProductInput) []errors.ValidationDetail {
	var details []errors.ValidationDetail
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		details = append(details, errors.ValidationDetail{Field: "name", Message: "name must not be blank"})
	}
	if in.Name != nil && len(*in.Name) > 200 {
		details = append(details, errors.ValidationDetail{Field: "name", Message: "name must be at most 200 characters"})
	}
	if in.Price != nil && in.Price.IsNegative() {
		details = append(details, errors.ValidationDetail{Field: "price", Message: "price must be non-negative"})
	}
	return details
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
