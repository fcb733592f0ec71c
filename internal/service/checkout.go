package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"tillpos/backend/internal/domain"
)

// Checkout turns the acting user's cart into a committed sale.
//
// Totals are computed from the session cart with the configured tax rate.
// Stock is re-checked and decremented inside the store's commit; when any
// line is short the whole sale is refused and the cart is left as it was.
// On success the cart is cleared and the new transaction id is remembered
// for the dashboard.
func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.Receipt, error) {
	actor, err := s.authorize(ctx, CapSell)
	if err != nil {
		return domain.Receipt{}, err
	}

	req.PaymentMethod = strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if req.PaymentMethod == "" {
		req.PaymentMethod = domain.PaymentCash
	}
	if req.PaymentMethod != domain.PaymentCash && req.PaymentMethod != domain.PaymentCard {
		return domain.Receipt{}, domain.NewValidationError("payment_method", "must be one of: cash card")
	}
	if req.Discount.IsNegative() {
		return domain.Receipt{}, domain.NewValidationError("discount_amount", "must be at least 0")
	}
	if req.AmountTendered.IsNegative() {
		return domain.Receipt{}, domain.NewValidationError("amount_tendered", "must be at least 0")
	}

	sess, err := s.loadSession(ctx, actor)
	if err != nil {
		return domain.Receipt{}, err
	}
	if sess.Cart.IsEmpty() {
		return domain.Receipt{}, domain.ErrEmptyCart
	}

	taxEnabled := sess.TaxApplied
	if req.ApplyTax != nil {
		taxEnabled = *req.ApplyTax
	}
	totals := sess.Cart.Totals(taxEnabled, s.taxRate, req.Discount)
	if totals.Final.IsNegative() {
		return domain.Receipt{}, domain.NewValidationError("discount_amount", "cannot exceed the total")
	}

	tendered := req.AmountTendered.Round(2)
	if req.PaymentMethod == domain.PaymentCard && tendered.IsZero() {
		tendered = totals.Final
	}
	if tendered.LessThan(totals.Final) {
		return domain.Receipt{}, fmt.Errorf("%w: due %s, tendered %s",
			domain.ErrInsufficientPayment, totals.Final.StringFixed(2), tendered.StringFixed(2))
	}

	items := make([]domain.TransactionItem, 0, len(sess.Cart.Lines))
	for _, line := range sess.Cart.Lines {
		item := domain.TransactionItem{
			Quantity:          line.Quantity,
			PriceAtTimeOfSale: line.Price,
		}
		if line.IsCustomProduct || line.ProductID == nil {
			item.IsCustomProduct = true
			item.CustomName = line.Name
		} else {
			id := *line.ProductID
			item.ProductID = &id
		}
		items = append(items, item)
	}

	change := tendered.Sub(totals.Final)
	created, err := s.repo.CreateSale(ctx, domain.Transaction{
		CreatedAt:      s.now(),
		UserID:         actor.UserID,
		Username:       actor.Username,
		PaymentMethod:  req.PaymentMethod,
		Subtotal:       totals.Subtotal,
		TaxAmount:      totals.Tax,
		TaxApplied:     taxEnabled,
		DiscountAmount: totals.Discount,
		TotalAmount:    totals.Final,
		AmountTendered: tendered,
		ChangeDue:      change,
		Items:          items,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			return domain.Receipt{}, err
		}
		s.logger.Error("checkout commit failed", zap.String("user", actor.Username), zap.Error(err))
		return domain.Receipt{}, fmt.Errorf("%w: %v", domain.ErrTransactionFailed, err)
	}

	// The sale is committed from here on. A cart that could not be cleared
	// is reported on the receipt so the client does not submit it again.
	sess.Cart.Clear()
	sess.LastTransactionID = created.ID
	cleared := true
	if err := s.sessions.Save(ctx, sessionKey(actor), sess); err != nil {
		s.logger.Warn("clearing cart after checkout failed, retrying",
			zap.Int64("transaction_id", created.ID), zap.String("user", actor.Username), zap.Error(err))
		if err := s.sessions.Save(ctx, sessionKey(actor), sess); err != nil {
			cleared = false
			s.logger.Error("failed to clear cart after checkout",
				zap.Int64("transaction_id", created.ID), zap.String("user", actor.Username), zap.Error(err))
		}
	}

	s.logAudit(ctx, "checkout", "transaction", strconv.FormatInt(created.ID, 10),
		fmt.Sprintf("total=%s,payment=%s,discount=%s,tax=%s,lines=%d",
			created.TotalAmount.StringFixed(2), created.PaymentMethod, created.DiscountAmount.StringFixed(2),
			created.TaxAmount.StringFixed(2), len(created.Items)))

	return domain.Receipt{Transaction: *created, Tendered: tendered, Change: change, CartCleared: &cleared}, nil
}

func (s *Service) GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error) {
	if _, err := s.authorize(ctx, CapSell); err != nil {
		return nil, err
	}
	return s.repo.GetTransaction(ctx, id)
}

// GetReceipt rebuilds the receipt of a stored transaction.
func (s *Service) GetReceipt(ctx context.Context, id int64) (domain.Receipt, error) {
	tx, err := s.GetTransaction(ctx, id)
	if err != nil {
		return domain.Receipt{}, err
	}
	return domain.Receipt{Transaction: *tx, Tendered: tx.AmountTendered, Change: tx.ChangeDue}, nil
}
