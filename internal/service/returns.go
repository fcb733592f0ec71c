package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"go.uber.org/zap"

	"tillpos/backend/internal/domain"
	"tillpos/backend/internal/store"
)

// ReturnableItems lists the lines of a sale with the quantity already
// returned and the quantity still returnable.
func (s *Service) ReturnableItems(ctx context.Context, transactionID int64) ([]domain.ReturnableItem, error) {
	if _, err := s.authorize(ctx, CapProcessReturns); err != nil {
		return nil, err
	}
	original, err := s.repo.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if original.IsReturn {
		return nil, fmt.Errorf("transaction %d is itself a return: %w", transactionID, store.ErrInvalidInput)
	}
	returned, err := s.repo.GetReturnedQuantities(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	items := make([]domain.ReturnableItem, 0, len(original.Items))
	for _, item := range original.Items {
		items = append(items, domain.ReturnableItem{
			Item:       item,
			Returned:   returned[item.ID],
			Returnable: max(item.Quantity-returned[item.ID], 0),
		})
	}
	return items, nil
}

// ProcessReturn records a reversing transaction for the requested item
// quantities and restocks inventory lines, all in one commit. Lines with a
// zero quantity are ignored; if nothing remains the call fails with
// domain.ErrNothingToReturn.
func (s *Service) ProcessReturn(ctx context.Context, transactionID int64, req domain.ReturnRequest) (*domain.Transaction, error) {
	actor, err := s.authorize(ctx, CapProcessReturns)
	if err != nil {
		return nil, err
	}

	original, err := s.repo.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if original.IsReturn {
		return nil, fmt.Errorf("transaction %d is itself a return: %w", transactionID, store.ErrInvalidInput)
	}

	sold := make(map[int64]domain.TransactionItem, len(original.Items))
	for _, item := range original.Items {
		sold[item.ID] = item
	}

	lines := make([]domain.TransactionItem, 0, len(req.Items))
	for _, itemID := range slices.Sorted(maps.Keys(req.Items)) {
		qty := req.Items[itemID]
		field := "items." + strconv.FormatInt(itemID, 10)
		if qty < 0 {
			return nil, domain.NewValidationError(field, "must be at least 0")
		}
		if qty == 0 {
			continue
		}
		source, ok := sold[itemID]
		if !ok {
			return nil, domain.NewValidationError(field, "is not part of this transaction")
		}
		if qty > source.Quantity {
			return nil, &domain.OverReturnError{
				ItemID:     itemID,
				ItemName:   source.DisplayName(),
				Requested:  qty,
				Returnable: source.Quantity,
			}
		}
		id := itemID
		lines = append(lines, domain.TransactionItem{
			ProductID:          source.ProductID,
			CustomName:         source.CustomName,
			IsCustomProduct:    source.IsCustomProduct,
			Quantity:           qty,
			PriceAtTimeOfSale:  source.PriceAtTimeOfSale,
			ReturnedFromItemID: &id,
		})
	}
	if len(lines) == 0 {
		return nil, domain.ErrNothingToReturn
	}

	origID := original.ID
	created, err := s.repo.CreateReturn(ctx, domain.Transaction{
		CreatedAt:             s.now(),
		UserID:                actor.UserID,
		Username:              actor.Username,
		PaymentMethod:         original.PaymentMethod,
		OriginalTransactionID: &origID,
		Items:                 lines,
	})
	if err != nil {
		if errors.Is(err, domain.ErrOverReturn) || errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidInput) {
			return nil, err
		}
		s.logger.Error("return commit failed",
			zap.Int64("original_transaction_id", origID), zap.String("user", actor.Username), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrTransactionFailed, err)
	}

	s.logAudit(ctx, "return", "transaction", strconv.FormatInt(created.ID, 10),
		fmt.Sprintf("original=%d,total=%s,lines=%d", origID, created.TotalAmount.StringFixed(2), len(created.Items)))
	return created, nil
}
