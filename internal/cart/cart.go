// Package cart holds the pending line items of one till session.
//
// A Cart is a plain value: it is loaded from the session store, mutated
// through the methods below and saved back whole.
package cart

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"tillpos/backend/internal/domain"
)

const customRefPrefix = "custom_"

var hundred = decimal.NewFromInt(100)

var ErrLineNotFound = errors.New("cart line not found")

type Line struct {
	Ref             string           `json:"ref"`
	ProductID       *int64           `json:"product_id,omitempty"`
	Name            string           `json:"name"`
	Price           decimal.Decimal  `json:"price"`
	OriginalPrice   *decimal.Decimal `json:"original_price,omitempty"`
	Quantity        int              `json:"quantity"`
	IsCustomPrice   bool             `json:"is_custom_price"`
	IsCustomProduct bool             `json:"is_custom_product"`
}

func (l Line) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Cart struct {
	Lines         []Line `json:"lines"`
	NextCustomSeq int    `json:"next_custom_seq"`
}

type Totals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	TaxApplied bool            `json:"tax_applied"`
	Total      decimal.Decimal `json:"total"`
	Discount   decimal.Decimal `json:"discount"`
	Final      decimal.Decimal `json:"final"`
}

// ProductRef is the line reference used for an inventory product.
func ProductRef(productID int64) string {
	return strconv.FormatInt(productID, 10)
}

func IsCustomRef(ref string) bool {
	return strings.HasPrefix(ref, customRefPrefix)
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Lines) == 0
}

func (c *Cart) Find(ref string) (Line, bool) {
	idx := c.indexOf(ref)
	if idx < 0 {
		return Line{}, false
	}
	return c.Lines[idx], true
}

// Add puts quantity units of product in the cart. An existing line is
// incremented in place; a non-nil customPrice replaces its price.
func (c *Cart) Add(product domain.Product, quantity int, customPrice *decimal.Decimal) error {
	if quantity < 1 {
		return domain.NewValidationError("quantity", "must be at least 1")
	}
	if customPrice != nil && customPrice.IsNegative() {
		return domain.ErrInvalidPrice
	}

	ref := ProductRef(product.ID)
	if idx := c.indexOf(ref); idx >= 0 {
		line := &c.Lines[idx]
		line.Quantity += quantity
		if customPrice != nil {
			line.setPrice(*customPrice)
		}
		return nil
	}

	id := product.ID
	line := Line{
		Ref:       ref,
		ProductID: &id,
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  quantity,
	}
	if customPrice != nil {
		line.setPrice(*customPrice)
	}
	c.Lines = append(c.Lines, line)
	return nil
}

// AddCustom appends an ad hoc product that is not tracked in inventory.
func (c *Cart) AddCustom(name string, price decimal.Decimal, quantity int) (Line, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Line{}, domain.NewValidationError("name", "is required")
	}
	if !price.IsPositive() {
		return Line{}, domain.NewValidationError("price", "must be greater than 0")
	}
	if quantity < 1 {
		return Line{}, domain.NewValidationError("quantity", "must be at least 1")
	}

	line := Line{
		Ref:             fmt.Sprintf("%s%d", customRefPrefix, c.NextCustomSeq),
		Name:            name,
		Price:           price,
		Quantity:        quantity,
		IsCustomProduct: true,
	}
	c.NextCustomSeq++
	c.Lines = append(c.Lines, line)
	return line, nil
}

// UpdateQuantity sets the quantity of a line. A quantity of zero or less
// removes the line. available is the stock on hand for inventory lines and
// is ignored for custom lines.
func (c *Cart) UpdateQuantity(ref string, quantity int, available int) error {
	idx := c.indexOf(ref)
	if quantity <= 0 {
		if idx >= 0 {
			c.removeAt(idx)
		}
		return nil
	}
	if idx < 0 {
		return fmt.Errorf("cart line %s: %w", ref, ErrLineNotFound)
	}

	line := &c.Lines[idx]
	if !line.IsCustomProduct && quantity > available {
		var productID int64
		if line.ProductID != nil {
			productID = *line.ProductID
		}
		return &domain.InsufficientStockError{
			ProductID:   productID,
			ProductName: line.Name,
			Available:   available,
			Requested:   quantity,
		}
	}
	line.Quantity = quantity
	return nil
}

func (c *Cart) UpdatePrice(ref string, price decimal.Decimal) error {
	if price.IsNegative() {
		return domain.ErrInvalidPrice
	}
	idx := c.indexOf(ref)
	if idx < 0 {
		return fmt.Errorf("cart line %s: %w", ref, ErrLineNotFound)
	}
	c.Lines[idx].setPrice(price)
	return nil
}

func (c *Cart) Remove(ref string) bool {
	idx := c.indexOf(ref)
	if idx < 0 {
		return false
	}
	c.removeAt(idx)
	return true
}

func (c *Cart) Clear() {
	c.Lines = nil
	c.NextCustomSeq = 0
}

func (c *Cart) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for _, line := range c.Lines {
		subtotal = subtotal.Add(line.Total())
	}
	return subtotal
}

func (c *Cart) ItemCount() int {
	count := 0
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}

// Totals applies the flat tax rate to the whole subtotal, then the discount.
// Tax-exempt products are taxed like any other line.
func (c *Cart) Totals(taxEnabled bool, ratePercent decimal.Decimal, discount decimal.Decimal) Totals {
	return ComputeTotals(c.Subtotal(), taxEnabled, ratePercent, discount)
}

// ComputeTotals works in cents: the discount and the tax are rounded before
// they are applied, so Final always equals Subtotal + Tax - Discount.
func ComputeTotals(subtotal decimal.Decimal, taxEnabled bool, ratePercent decimal.Decimal, discount decimal.Decimal) Totals {
	discount = discount.Round(2)
	tax := decimal.Zero
	if taxEnabled {
		tax = subtotal.Mul(ratePercent).Div(hundred).Round(2)
	}
	total := subtotal.Add(tax).Round(2)
	final := total.Sub(discount).Round(2)
	return Totals{
		Subtotal:   subtotal.Round(2),
		Tax:        tax,
		TaxApplied: taxEnabled,
		Total:      total,
		Discount:   discount,
		Final:      final,
	}
}

func (c *Cart) indexOf(ref string) int {
	for i, line := range c.Lines {
		if line.Ref == ref {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(idx int) {
	c.Lines = append(c.Lines[:idx], c.Lines[idx+1:]...)
}

func (l *Line) setPrice(price decimal.Decimal) {
	if !l.IsCustomPrice {
		original := l.Price
		l.OriginalPrice = &original
	}
	l.Price = price
	l.IsCustomPrice = true
}
