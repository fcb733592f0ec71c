package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"tillpos/backend/internal/cart"
	"tillpos/backend/internal/domain"
	"tillpos/backend/internal/session"
	"tillpos/backend/internal/store"
)

type CartView struct {
	Lines          []cart.Line     `json:"lines"`
	Totals         cart.Totals     `json:"totals"`
	ItemCount      int             `json:"item_count"`
	TaxApplied     bool            `json:"tax_applied"`
	TaxRatePercent decimal.Decimal `json:"tax_rate_percent"`
}

func (s *Service) viewOf(sess *session.Session) CartView {
	lines := sess.Cart.Lines
	if lines == nil {
		lines = []cart.Line{}
	}
	return CartView{
		Lines:          lines,
		Totals:         sess.Cart.Totals(sess.TaxApplied, s.taxRate, decimal.Zero),
		ItemCount:      sess.Cart.ItemCount(),
		TaxApplied:     sess.TaxApplied,
		TaxRatePercent: s.taxRate,
	}
}

func (s *Service) loadSession(ctx context.Context, actor domain.Actor) (*session.Session, error) {
	sess, err := s.sessions.Load(ctx, sessionKey(actor))
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

// mutateCart loads the acting user's session, applies fn and saves the
// whole session back. Nothing is saved when fn fails.
func (s *Service) mutateCart(ctx context.Context, fn func(sess *session.Session) error) (CartView, error) {
	actor, err := s.authorize(ctx, CapSell)
	if err != nil {
		return CartView{}, err
	}
	sess, err := s.loadSession(ctx, actor)
	if err != nil {
		return CartView{}, err
	}
	if err := fn(sess); err != nil {
		return CartView{}, err
	}
	if err := s.sessions.Save(ctx, sessionKey(actor), sess); err != nil {
		return CartView{}, fmt.Errorf("save session: %w", err)
	}
	return s.viewOf(sess), nil
}

func (s *Service) GetCart(ctx context.Context) (CartView, error) {
	actor, err := s.authorize(ctx, CapSell)
	if err != nil {
		return CartView{}, err
	}
	sess, err := s.loadSession(ctx, actor)
	if err != nil {
		return CartView{}, err
	}
	return s.viewOf(sess), nil
}

// AddToCart adds quantity units of an inventory product. Out-of-stock
// products are rejected; the stock ceiling itself is enforced at checkout.
func (s *Service) AddToCart(ctx context.Context, productID int64, quantity int, customPrice *decimal.Decimal) (CartView, error) {
	return s.mutateCart(ctx, func(sess *session.Session) error {
		product, err := s.repo.GetProduct(ctx, productID)
		if err != nil {
			return err
		}
		return addProduct(sess, *product, quantity, customPrice)
	})
}

// AddByCode adds the product whose barcode or SKU equals code exactly.
func (s *Service) AddByCode(ctx context.Context, code string, quantity int) (CartView, error) {
	return s.mutateCart(ctx, func(sess *session.Session) error {
		product, err := s.repo.FindProductByCode(ctx, code)
		if err != nil {
			return err
		}
		return addProduct(sess, *product, quantity, nil)
	})
}

func (s *Service) AddFromQuickAccess(ctx context.Context, position int) (CartView, error) {
	return s.mutateCart(ctx, func(sess *session.Session) error {
		slots, err := s.repo.ListQuickAccess(ctx)
		if err != nil {
			return err
		}
		for _, slot := range slots {
			if slot.Position == position && slot.Product != nil {
				return addProduct(sess, *slot.Product, 1, nil)
			}
		}
		return fmt.Errorf("quick access position %d: %w", position, store.ErrNotFound)
	})
}

func (s *Service) AddCustomItem(ctx context.Context, name string, price decimal.Decimal, quantity int) (CartView, error) {
	return s.mutateCart(ctx, func(sess *session.Session) error {
		_, err := sess.Cart.AddCustom(name, price.Round(2), quantity)
		return err
	})
}

// UpdateCartQuantity sets a line's quantity against current stock. Zero or
// less removes the line.
func (s *Service) UpdateCartQuantity(ctx context.Context, ref string, quantity int) (CartView, error) {
	return s.mutateCart(ctx, func(sess *session.Session) error {
		available := 0
		if line, ok := sess.Cart.Find(ref); ok && !cart.IsCustomRef(ref) && line.ProductID != nil && quantity > 0 {
			product, err := s.repo.GetProduct(ctx, *line.ProductID)
			if err != nil {
				return err
			}
			available = product.Quantity
		}
		return sess.Cart.UpdateQuantity(ref, quantity, available)
	})
}

func (s *Service) UpdateCartPrice(ctx context.Context, ref string, price decimal.Decimal) (CartView, error) {
	return s.mutateCart(ctx, func(sess *session.Session) error {
		return sess.Cart.UpdatePrice(ref, price.Round(2))
	})
}

func (s *Service) RemoveFromCart(ctx context.Context, ref string) (CartView, error) {
	return s.mutateCart(ctx, func(sess *session.Session) error {
		if !sess.Cart.Remove(ref) {
			return fmt.Errorf("cart line %s: %w", ref, cart.ErrLineNotFound)
		}
		return nil
	})
}

func (s *Service) ClearCart(ctx context.Context) (CartView, error) {
	return s.mutateCart(ctx, func(sess *session.Session) error {
		sess.Cart.Clear()
		return nil
	})
}

// SetTaxApplied flips the session's tax toggle used by the cart totals and
// by checkout when the request does not override it.
func (s *Service) SetTaxApplied(ctx context.Context, enabled bool) (CartView, error) {
	return s.mutateCart(ctx, func(sess *session.Session) error {
		sess.TaxApplied = enabled
		return nil
	})
}

func addProduct(sess *session.Session, product domain.Product, quantity int, customPrice *decimal.Decimal) error {
	if product.Quantity <= 0 {
		return &domain.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Available:   product.Quantity,
			Requested:   quantity,
		}
	}
	if customPrice != nil {
		rounded := customPrice.Round(2)
		customPrice = &rounded
	}
	return sess.Cart.Add(product, quantity, customPrice)
}
