package service

import (
	"context"
	"fmt"
	"strconv"

	"tillpos/backend/internal/domain"
)

// ListQuickAccess always returns all ten positions; empty slots carry no
// product.
func (s *Service) ListQuickAccess(ctx context.Context) ([]domain.QuickAccessSlot, error) {
	if _, err := s.authorize(ctx, CapSell); err != nil {
		return nil, err
	}
	return s.repo.ListQuickAccess(ctx)
}

// SetQuickAccess points position at productID, overwriting whatever was
// there.
func (s *Service) SetQuickAccess(ctx context.Context, position int, productID int64) ([]domain.QuickAccessSlot, error) {
	if _, err := s.authorize(ctx, CapManageQuickAccess); err != nil {
		return nil, err
	}
	if err := validPosition(position); err != nil {
		return nil, err
	}
	if err := s.repo.UpsertQuickAccess(ctx, position, productID); err != nil {
		return nil, err
	}
	s.logAudit(ctx, "quick_access_set", "quick_access", strconv.Itoa(position), fmt.Sprintf("product=%d", productID))
	return s.repo.ListQuickAccess(ctx)
}

func (s *Service) ClearQuickAccess(ctx context.Context, position int) ([]domain.QuickAccessSlot, error) {
	if _, err := s.authorize(ctx, CapManageQuickAccess); err != nil {
		return nil, err
	}
	if err := validPosition(position); err != nil {
		return nil, err
	}
	if err := s.repo.DeleteQuickAccess(ctx, position); err != nil {
		return nil, err
	}
	s.logAudit(ctx, "quick_access_clear", "quick_access", strconv.Itoa(position), "")
	return s.repo.ListQuickAccess(ctx)
}

func validPosition(position int) error {
	if position < domain.QuickAccessMinPosition || position > domain.QuickAccessMaxPosition {
		return domain.NewValidationError("position",
			fmt.Sprintf("must be between %d and %d", domain.QuickAccessMinPosition, domain.QuickAccessMaxPosition))
	}
	return nil
}
