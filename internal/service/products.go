package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"tillpos/backend/internal/domain"
)

const (
	autocompleteMinChars = 2
	autocompleteLimit    = 10
)

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if _, err := s.authorize(ctx, CapSell); err != nil {
		return nil, err
	}
	return s.repo.ListProducts(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	if _, err := s.authorize(ctx, CapSell); err != nil {
		return nil, err
	}
	return s.repo.GetProduct(ctx, id)
}

// SearchProducts matches term case-insensitively against name, SKU,
// barcode and category. An empty term returns nothing.
func (s *Service) SearchProducts(ctx context.Context, term string) ([]domain.Product, error) {
	if _, err := s.authorize(ctx, CapSell); err != nil {
		return nil, err
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return []domain.Product{}, nil
	}
	return s.repo.SearchProducts(ctx, term, 0)
}

// Autocomplete is the type-ahead variant of SearchProducts: terms shorter
// than two characters return nothing and results are capped at ten.
func (s *Service) Autocomplete(ctx context.Context, term string) ([]domain.Product, error) {
	if _, err := s.authorize(ctx, CapSell); err != nil {
		return nil, err
	}
	term = strings.TrimSpace(term)
	if len([]rune(term)) < autocompleteMinChars {
		return []domain.Product{}, nil
	}
	return s.repo.SearchProducts(ctx, term, autocompleteLimit)
}

func (s *Service) CreateProduct(ctx context.Context, input domain.ProductInput) (domain.Product, error) {
	if _, err := s.authorize(ctx, CapManageProducts); err != nil {
		return domain.Product{}, err
	}

	product, err := s.productFromInput(input)
	if err != nil {
		return domain.Product{}, err
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_create", "product", strconv.FormatInt(created.ID, 10),
		fmt.Sprintf("name=%s,price=%s,qty=%d", created.Name, created.Price.StringFixed(2), created.Quantity))
	return *created, nil
}

// UpdateProduct replaces every editable field. It is also the manual stock
// adjustment path.
func (s *Service) UpdateProduct(ctx context.Context, id int64, input domain.ProductInput) (domain.Product, error) {
	if _, err := s.authorize(ctx, CapManageProducts); err != nil {
		return domain.Product{}, err
	}

	existing, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if input.LowStockThreshold == nil {
		threshold := existing.LowStockThreshold
		input.LowStockThreshold = &threshold
	}

	product, err := s.productFromInput(input)
	if err != nil {
		return domain.Product{}, err
	}
	product.ID = id

	updated, err := s.repo.UpdateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_update", "product", strconv.FormatInt(id, 10),
		fmt.Sprintf("price=%s->%s,qty=%d->%d", existing.Price.StringFixed(2), updated.Price.StringFixed(2), existing.Quantity, updated.Quantity))
	return *updated, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if _, err := s.authorize(ctx, CapManageProducts); err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "product_delete", "product", strconv.FormatInt(id, 10), "")
	return nil
}

func (s *Service) productFromInput(input domain.ProductInput) (domain.Product, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Category = strings.TrimSpace(input.Category)
	input.Barcode = strings.TrimSpace(input.Barcode)
	input.SKU = strings.TrimSpace(input.SKU)

	verr, err := s.collectValidation(input)
	if err != nil {
		return domain.Product{}, err
	}
	if !input.Price.IsPositive() {
		verr.Fields = append(verr.Fields, domain.FieldError{Field: "price", Message: "must be greater than 0"})
	}
	if len(verr.Fields) > 0 {
		return domain.Product{}, verr
	}

	threshold := s.lowStockThreshold
	if input.LowStockThreshold != nil {
		threshold = *input.LowStockThreshold
	}
	return domain.Product{
		Name:              input.Name,
		Price:             input.Price.Round(2),
		Quantity:          input.Quantity,
		Category:          input.Category,
		Barcode:           input.Barcode,
		SKU:               input.SKU,
		LowStockThreshold: threshold,
		TaxExempt:         input.TaxExempt,
	}, nil
}
