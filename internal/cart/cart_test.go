package cart

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpos/backend/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func product(id int64, price string, qty int) domain.Product {
	return domain.Product{ID: id, Name: "Product " + ProductRef(id), Price: dec(price), Quantity: qty}
}

func TestAddMergesLinesByProduct(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(product(1, "2.00", 10), 2, nil))
	require.NoError(t, c.Add(product(1, "2.00", 10), 3, nil))

	require.Len(t, c.Lines, 1)
	assert.Equal(t, 5, c.Lines[0].Quantity)
	assert.False(t, c.Lines[0].IsCustomPrice)
}

func TestAddWithCustomPriceOverwritesLastWriteWins(t *testing.T) {
	var c Cart
	first := dec("1.50")
	second := dec("1.25")
	require.NoError(t, c.Add(product(1, "2.00", 10), 1, &first))
	require.NoError(t, c.Add(product(1, "2.00", 10), 1, &second))

	line, ok := c.Find("1")
	require.True(t, ok)
	assert.True(t, line.Price.Equal(second), "price %s", line.Price)
	assert.Equal(t, 2, line.Quantity)
	require.NotNil(t, line.OriginalPrice)
	assert.True(t, line.OriginalPrice.Equal(dec("2.00")))
}

func TestAddRejectsNegativeCustomPrice(t *testing.T) {
	var c Cart
	negative := dec("-1")
	err := c.Add(product(1, "2.00", 10), 1, &negative)
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)
	assert.True(t, c.IsEmpty())
}

func TestUpdateQuantityRemovesOnZeroOrLess(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(product(1, "2.00", 10), 2, nil))

	require.NoError(t, c.UpdateQuantity("1", 0, 10))
	assert.True(t, c.IsEmpty())

	require.NoError(t, c.Add(product(2, "1.00", 10), 2, nil))
	require.NoError(t, c.UpdateQuantity("2", -4, 10))
	assert.True(t, c.IsEmpty())
}

func TestUpdateQuantityAboveStockLeavesCartUnchanged(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(product(1, "2.00", 3), 2, nil))

	err := c.UpdateQuantity("1", 4, 3)
	require.Error(t, err)

	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 3, stockErr.Available)
	assert.Equal(t, int64(1), stockErr.ProductID)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 2, c.Lines[0].Quantity)
}

func TestUpdateQuantityUnknownLine(t *testing.T) {
	var c Cart
	err := c.UpdateQuantity("99", 2, 10)
	assert.ErrorIs(t, err, ErrLineNotFound)
}

func TestUpdatePriceKeepsFirstOriginalPrice(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(product(1, "2.00", 10), 1, nil))

	require.NoError(t, c.UpdatePrice("1", dec("1.80")))
	require.NoError(t, c.UpdatePrice("1", dec("1.60")))

	line, _ := c.Find("1")
	assert.True(t, line.Price.Equal(dec("1.60")))
	require.NotNil(t, line.OriginalPrice)
	assert.True(t, line.OriginalPrice.Equal(dec("2.00")))
	assert.True(t, line.IsCustomPrice)

	assert.ErrorIs(t, c.UpdatePrice("1", dec("-0.01")), domain.ErrInvalidPrice)
	line, _ = c.Find("1")
	assert.True(t, line.Price.Equal(dec("1.60")))
}

func TestAddCustomUsesUniqueRefs(t *testing.T) {
	var c Cart
	first, err := c.AddCustom("Gift Wrap", dec("1.00"), 1)
	require.NoError(t, err)
	second, err := c.AddCustom("Bag", dec("0.10"), 1)
	require.NoError(t, err)

	assert.Equal(t, "custom_0", first.Ref)
	assert.Equal(t, "custom_1", second.Ref)
	assert.True(t, IsCustomRef(first.Ref))

	c.Remove(first.Ref)
	third, err := c.AddCustom("Card", dec("2.00"), 1)
	require.NoError(t, err)
	assert.NotEqual(t, second.Ref, third.Ref)

	_, err = c.AddCustom("", dec("1.00"), 1)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = c.AddCustom("Free", dec("0"), 1)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTotalsGiftWrapScenario(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(product(1, "2.00", 10), 3, nil))
	_, err := c.AddCustom("Gift Wrap", dec("1.00"), 1)
	require.NoError(t, err)

	totals := c.Totals(true, dec("13"), decimal.Zero)
	assert.Equal(t, "7", totals.Subtotal.String())
	assert.Equal(t, "0.91", totals.Tax.String())
	assert.Equal(t, "7.91", totals.Total.String())
	assert.Equal(t, "7.91", totals.Final.String())
	assert.Equal(t, "2.09", dec("10.00").Sub(totals.Final).String())
}

func TestTotalsWithoutTaxAndWithDiscount(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(product(1, "3.35", 10), 3, nil))

	totals := c.Totals(false, dec("13"), dec("0.05"))
	assert.True(t, totals.Tax.IsZero())
	assert.Equal(t, "10.05", totals.Total.String())
	assert.Equal(t, "10", totals.Final.String())
	assert.True(t, totals.Final.Equal(totals.Subtotal.Add(totals.Tax).Sub(totals.Discount)))
}

func TestTotalsRoundDiscountBeforeSubtracting(t *testing.T) {
	totals := ComputeTotals(dec("7.91"), false, dec("13"), dec("0.005"))
	assert.Equal(t, "0.01", totals.Discount.StringFixed(2))
	assert.Equal(t, "7.90", totals.Final.StringFixed(2))
	assert.True(t, totals.Final.Equal(totals.Subtotal.Add(totals.Tax).Sub(totals.Discount)))
}

func TestTotalsRoundTaxBeforeAddingIt(t *testing.T) {
	totals := ComputeTotals(dec("0.35"), true, dec("13"), decimal.Zero)
	// 0.35 * 0.13 = 0.0455
	assert.Equal(t, "0.05", totals.Tax.String())
	assert.Equal(t, "0.4", totals.Total.String())
}

func TestClearEmptiesCart(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(product(1, "2.00", 10), 1, nil))
	_, _ = c.AddCustom("Gift Wrap", dec("1.00"), 1)
	assert.Equal(t, 2, c.ItemCount())

	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.True(t, c.Subtotal().IsZero())
}
