package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tillpos/backend/internal/cart"
	"tillpos/backend/internal/domain"
	"tillpos/backend/internal/session"
	"tillpos/backend/internal/store"
	"tillpos/backend/internal/store/memory"
)

var (
	managerActor = domain.Actor{UserID: 1, Username: "admin", Role: domain.RoleManager}
	cashierActor = domain.Actor{UserID: 2, Username: "cashier", Role: domain.RoleCashier}
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return New(memory.NewSeeded(), session.NewMemoryStore(0), zap.NewNop(), Options{
		TaxRatePercent: decimal.NewFromInt(13),
	})
}

func asCashier() context.Context { return WithActor(context.Background(), cashierActor) }
func asManager() context.Context { return WithActor(context.Background(), managerActor) }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func createProduct(t *testing.T, svc *Service, name string, price string, qty int) domain.Product {
	t.Helper()
	p, err := svc.CreateProduct(asManager(), domain.ProductInput{Name: name, Price: dec(price), Quantity: qty, Category: "Test"})
	require.NoError(t, err)
	return p
}

func TestCheckoutMixedCartWithTax(t *testing.T) {
	svc := newTestService(t)
	ctx := asCashier()
	tea := createProduct(t, svc, "Tea", "2.00", 10)

	_, err := svc.AddToCart(ctx, tea.ID, 1, nil)
	require.NoError(t, err)
	_, err = svc.AddCustomItem(ctx, "Gift Wrap", dec("5.00"), 1)
	require.NoError(t, err)
	view, err := svc.SetTaxApplied(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, "7.91", view.Totals.Final.StringFixed(2))

	receipt, err := svc.Checkout(ctx, domain.CheckoutRequest{PaymentMethod: "cash", AmountTendered: dec("10.00")})
	require.NoError(t, err)

	tx := receipt.Transaction
	assert.Equal(t, "7.00", tx.Subtotal.StringFixed(2))
	assert.Equal(t, "0.91", tx.TaxAmount.StringFixed(2))
	assert.Equal(t, "7.91", tx.TotalAmount.StringFixed(2))
	assert.Equal(t, "2.09", receipt.Change.StringFixed(2))
	require.Len(t, tx.Items, 2)
	assert.True(t, tx.Items[1].IsCustomProduct)
	assert.Equal(t, "Gift Wrap", tx.Items[1].CustomName)

	after, err := svc.GetProduct(ctx, tea.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, after.Quantity)

	cartView, err := svc.GetCart(ctx)
	require.NoError(t, err)
	assert.Empty(t, cartView.Lines)
	assert.True(t, cartView.TaxApplied)
}

func TestCheckoutRequestOverridesTaxToggle(t *testing.T) {
	svc := newTestService(t)
	ctx := asCashier()

	_, err := svc.AddToCart(ctx, 1, 1, nil)
	require.NoError(t, err)

	off := false
	receipt, err := svc.Checkout(ctx, domain.CheckoutRequest{PaymentMethod: "card", ApplyTax: &off})
	require.NoError(t, err)
	assert.True(t, receipt.Transaction.TaxAmount.IsZero())
	assert.Equal(t, "2.99", receipt.Tendered.StringFixed(2))
	assert.True(t, receipt.Change.IsZero())
}

func TestCheckoutInsufficientStockLeavesEverythingUntouched(t *testing.T) {
	svc := newTestService(t)
	ctx := asCashier()
	scarce := createProduct(t, svc, "Scarce", "1.00", 2)

	_, err := svc.AddToCart(ctx, scarce.ID, 5, nil)
	require.NoError(t, err)

	_, err = svc.Checkout(ctx, domain.CheckoutRequest{PaymentMethod: "cash", AmountTendered: dec("100")})
	require.Error(t, err)
	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 2, stockErr.Available)

	product, err := svc.GetProduct(ctx, scarce.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, product.Quantity)

	report, err := svc.SalesReport(asManager(), nil, nil)
	require.NoError(t, err)
	assert.Zero(t, report.SaleCount)

	view, err := svc.GetCart(ctx)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 5, view.Lines[0].Quantity)
}

func TestCheckoutEmptyCart(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Checkout(asCashier(), domain.CheckoutRequest{PaymentMethod: "cash", AmountTendered: dec("5")})
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
}

func TestCheckoutInsufficientPaymentKeepsCart(t *testing.T) {
	svc := newTestService(t)
	ctx := asCashier()

	_, err := svc.AddToCart(ctx, 8, 2, nil)
	require.NoError(t, err)

	_, err = svc.Checkout(ctx, domain.CheckoutRequest{PaymentMethod: "cash", AmountTendered: dec("5.00")})
	assert.ErrorIs(t, err, domain.ErrInsufficientPayment)

	view, err := svc.GetCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, view.ItemCount)
}

func TestCheckoutRejectsDiscountAboveTotal(t *testing.T) {
	svc := newTestService(t)
	ctx := asCashier()

	_, err := svc.AddToCart(ctx, 5, 1, nil)
	require.NoError(t, err)

	_, err = svc.Checkout(ctx, domain.CheckoutRequest{PaymentMethod: "cash", AmountTendered: dec("5"), Discount: dec("1.50")})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCheckoutRoundsSubCentDiscount(t *testing.T) {
	svc := newTestService(t)
	ctx := asCashier()
	item := createProduct(t, svc, "Lamp", "7.91", 5)

	_, err := svc.AddToCart(ctx, item.ID, 1, nil)
	require.NoError(t, err)

	receipt, err := svc.Checkout(ctx, domain.CheckoutRequest{PaymentMethod: "cash", AmountTendered: dec("10"), Discount: dec("0.005")})
	require.NoError(t, err)

	tx := receipt.Transaction
	assert.Equal(t, "0.01", tx.DiscountAmount.StringFixed(2))
	assert.Equal(t, "7.90", tx.TotalAmount.StringFixed(2))
	assert.True(t, tx.TotalAmount.Equal(tx.Subtotal.Add(tx.TaxAmount).Sub(tx.DiscountAmount)))
	assert.Equal(t, "2.10", receipt.Change.StringFixed(2))
}

// failingSaleStore refuses every sale commit.
type failingSaleStore struct {
	*memory.Store
}

func (failingSaleStore) CreateSale(context.Context, domain.Transaction) (*domain.Transaction, error) {
	return nil, errors.New("connection reset by peer")
}

func TestCheckoutCommitFailureKeepsCartAndStock(t *testing.T) {
	repo := failingSaleStore{Store: memory.NewSeeded()}
	svc := New(repo, session.NewMemoryStore(0), zap.NewNop(), Options{TaxRatePercent: decimal.NewFromInt(13)})
	ctx := asCashier()

	before, err := svc.GetProduct(ctx, 1)
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, 1, 2, nil)
	require.NoError(t, err)

	_, err = svc.Checkout(ctx, domain.CheckoutRequest{PaymentMethod: "cash", AmountTendered: dec("10")})
	require.ErrorIs(t, err, domain.ErrTransactionFailed)

	view, err := svc.GetCart(ctx)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 2, view.Lines[0].Quantity)

	after, err := svc.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, before.Quantity, after.Quantity)

	report, err := svc.SalesReport(asManager(), nil, nil)
	require.NoError(t, err)
	assert.Zero(t, report.SaleCount)
}

// flakySessions fails the next failSaves calls to Save.
type flakySessions struct {
	*session.MemoryStore
	failSaves int
}

func (f *flakySessions) Save(ctx context.Context, key string, sess *session.Session) error {
	if f.failSaves > 0 {
		f.failSaves--
		return errors.New("redis: connection pool timeout")
	}
	return f.MemoryStore.Save(ctx, key, sess)
}

func TestCheckoutRetriesClearingCart(t *testing.T) {
	sessions := &flakySessions{MemoryStore: session.NewMemoryStore(0)}
	svc := New(memory.NewSeeded(), sessions, zap.NewNop(), Options{TaxRatePercent: decimal.NewFromInt(13)})
	ctx := asCashier()

	_, err := svc.AddToCart(ctx, 1, 1, nil)
	require.NoError(t, err)
	sessions.failSaves = 1

	receipt, err := svc.Checkout(ctx, domain.CheckoutRequest{PaymentMethod: "cash", AmountTendered: dec("5")})
	require.NoError(t, err)
	require.NotNil(t, receipt.CartCleared)
	assert.True(t, *receipt.CartCleared)

	view, err := svc.GetCart(ctx)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
}

func TestCheckoutReportsCartNotCleared(t *testing.T) {
	sessions := &flakySessions{MemoryStore: session.NewMemoryStore(0)}
	svc := New(memory.NewSeeded(), sessions, zap.NewNop(), Options{TaxRatePercent: decimal.NewFromInt(13)})
	ctx := asCashier()

	_, err := svc.AddToCart(ctx, 1, 1, nil)
	require.NoError(t, err)
	sessions.failSaves = 2

	receipt, err := svc.Checkout(ctx, domain.CheckoutRequest{PaymentMethod: "cash", AmountTendered: dec("5")})
	require.NoError(t, err)
	require.NotNil(t, receipt.CartCleared)
	assert.False(t, *receipt.CartCleared)

	stored, err := svc.GetReceipt(ctx, receipt.Transaction.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.CartCleared)
}

func TestSalePriceIsFrozenAfterProductEdit(t *testing.T) {
	svc := newTestService(t)
	ctx := asCashier()

	_, err := svc.AddToCart(ctx, 1, 1, nil)
	require.NoError(t, err)
	receipt, err := svc.Checkout(ctx, domain.CheckoutRequest{PaymentMethod: "cash", AmountTendered: dec("3")})
	require.NoError(t, err)

	milk, err := svc.GetProduct(ctx, 1)
	require.NoError(t, err)
	_, err = svc.UpdateProduct(asManager(), 1, domain.ProductInput{
		Name: milk.Name, Price: dec("9.99"), Quantity: milk.Quantity, Category: milk.Category,
		Barcode: milk.Barcode, SKU: milk.SKU,
	})
	require.NoError(t, err)

	stored, err := svc.GetTransaction(ctx, receipt.Transaction.ID)
	require.NoError(t, err)
	assert.Equal(t, "2.99", stored.Items[0].PriceAtTimeOfSale.StringFixed(2))
}

func TestCartCustomPriceAndQuantityRules(t *testing.T) {
	svc := newTestService(t)
	ctx := asCashier()

	_, err := svc.AddToCart(ctx, 2, 1, nil)
	require.NoError(t, err)

	view, err := svc.UpdateCartPrice(ctx, cart.ProductRef(2), dec("1.50"))
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.True(t, view.Lines[0].IsCustomPrice)
	assert.Equal(t, "1.99", view.Lines[0].OriginalPrice.StringFixed(2))

	_, err = svc.UpdateCartPrice(ctx, cart.ProductRef(2), dec("-1"))
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	_, err = svc.UpdateCartQuantity(ctx, cart.ProductRef(2), 16)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	view, err = svc.UpdateCartQuantity(ctx, cart.ProductRef(2), 0)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)

	_, err = svc.RemoveFromCart(ctx, "custom_9")
	assert.ErrorIs(t, err, cart.ErrLineNotFound)
}

func TestAddToCartRejectsOutOfStockProduct(t *testing.T) {
	svc := newTestService(t)
	empty := createProduct(t, svc, "Sold Out", "1.00", 0)

	_, err := svc.AddToCart(asCashier(), empty.ID, 1, nil)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestAddByCodeAndQuickAccess(t *testing.T) {
	svc := newTestService(t)
	ctx := asCashier()

	view, err := svc.AddByCode(ctx, "BEV003", 1)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, "Coffee", view.Lines[0].Name)

	view, err = svc.AddFromQuickAccess(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, view.Lines, 2)

	_, err = svc.ClearQuickAccess(asManager(), 2)
	require.NoError(t, err)
	_, err = svc.AddFromQuickAccess(ctx, 2)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.SetQuickAccess(asManager(), 11, 1)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.SetQuickAccess(ctx, 2, 1)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestReturnsAreCumulative(t *testing.T) {
	svc := newTestService(t)
	ctx := asCashier()

	_, err := svc.AddToCart(ctx, 1, 3, nil)
	require.NoError(t, err)
	receipt, err := svc.Checkout(ctx, domain.CheckoutRequest{PaymentMethod: "cash", AmountTendered: dec("20")})
	require.NoError(t, err)
	itemID := receipt.Transaction.Items[0].ID

	ret, err := svc.ProcessReturn(ctx, receipt.Transaction.ID, domain.ReturnRequest{Items: map[int64]int{itemID: 2}})
	require.NoError(t, err)
	assert.True(t, ret.IsReturn)
	assert.Equal(t, "5.98", ret.TotalAmount.StringFixed(2))

	milk, err := svc.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 19, milk.Quantity)

	_, err = svc.ProcessReturn(ctx, receipt.Transaction.ID, domain.ReturnRequest{Items: map[int64]int{itemID: 2}})
	var over *domain.OverReturnError
	require.True(t, errors.As(err, &over))
	assert.Equal(t, 1, over.Returnable)

	items, err := svc.ReturnableItems(ctx, receipt.Transaction.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Returned)
	assert.Equal(t, 1, items[0].Returnable)

	_, err = svc.ProcessReturn(ctx, ret.ID, domain.ReturnRequest{Items: map[int64]int{ret.Items[0].ID: 1}})
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestReturnValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := asCashier()

	_, err := svc.AddToCart(ctx, 4, 1, nil)
	require.NoError(t, err)
	receipt, err := svc.Checkout(ctx, domain.CheckoutRequest{PaymentMethod: "cash", AmountTendered: dec("2")})
	require.NoError(t, err)
	itemID := receipt.Transaction.Items[0].ID

	_, err = svc.ProcessReturn(ctx, receipt.Transaction.ID, domain.ReturnRequest{Items: map[int64]int{itemID: 0}})
	assert.ErrorIs(t, err, domain.ErrNothingToReturn)

	_, err = svc.ProcessReturn(ctx, receipt.Transaction.ID, domain.ReturnRequest{Items: map[int64]int{itemID: 2}})
	assert.ErrorIs(t, err, domain.ErrOverReturn)

	_, err = svc.ProcessReturn(ctx, receipt.Transaction.ID, domain.ReturnRequest{Items: map[int64]int{itemID + 100: 1}})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.ProcessReturn(ctx, 9999, domain.ReturnRequest{Items: map[int64]int{itemID: 1}})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCashierCannotUseManagerOperations(t *testing.T) {
	svc := newTestService(t)
	ctx := asCashier()

	_, err := svc.CreateProduct(ctx, domain.ProductInput{Name: "X", Price: dec("1")})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = svc.SalesReport(ctx, nil, nil)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = svc.ListUsers(ctx)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = svc.ListDailyReports(ctx, "", "")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.GetCart(context.Background())
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCreateProductValidation(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateProduct(asManager(), domain.ProductInput{Name: "", Price: dec("0"), Quantity: -1})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	fields := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"name", "quantity", "price"}, fields)
}

func TestSearchAndAutocomplete(t *testing.T) {
	svc := newTestService(t)
	ctx := asCashier()

	results, err := svc.SearchProducts(ctx, "dairy")
	require.NoError(t, err)
	assert.Len(t, results, 3)

	results, err = svc.Autocomplete(ctx, "c")
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = svc.Autocomplete(ctx, "co")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.LessOrEqual(t, len(results), 10)
}

func TestDashboardShowsLastSaleAndLowStock(t *testing.T) {
	svc := newTestService(t)
	createProduct(t, svc, "Nearly Gone", "1.00", 1)

	dash, err := svc.Dashboard(asCashier())
	require.NoError(t, err)
	assert.Empty(t, dash.LowStock)
	assert.Nil(t, dash.LastTransaction)

	_, err = svc.AddToCart(asCashier(), 3, 1, nil)
	require.NoError(t, err)
	receipt, err := svc.Checkout(asCashier(), domain.CheckoutRequest{PaymentMethod: "card"})
	require.NoError(t, err)

	dash, err = svc.Dashboard(asCashier())
	require.NoError(t, err)
	require.NotNil(t, dash.LastTransaction)
	assert.Equal(t, receipt.Transaction.ID, dash.LastTransaction.ID)

	dash, err = svc.Dashboard(asManager())
	require.NoError(t, err)
	require.Len(t, dash.LowStock, 1)
	assert.Equal(t, "Nearly Gone", dash.LowStock[0].Name)
}

func TestSalesReportNetsReturns(t *testing.T) {
	svc := newTestService(t)
	ctx := asCashier()

	_, err := svc.AddToCart(ctx, 5, 2, nil)
	require.NoError(t, err)
	receipt, err := svc.Checkout(ctx, domain.CheckoutRequest{PaymentMethod: "cash", AmountTendered: dec("2")})
	require.NoError(t, err)
	_, err = svc.ProcessReturn(ctx, receipt.Transaction.ID, domain.ReturnRequest{Items: map[int64]int{receipt.Transaction.Items[0].ID: 1}})
	require.NoError(t, err)

	report, err := svc.SalesReport(asManager(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.SaleCount)
	assert.Equal(t, 1, report.ReturnCount)
	assert.Equal(t, "1.98", report.TotalSales.StringFixed(2))
	assert.Equal(t, "0.99", report.TotalReturns.StringFixed(2))
	assert.Equal(t, "0.99", report.NetSales.StringFixed(2))
}

func TestDailyReportSummaryWithSubRecords(t *testing.T) {
	svc := newTestService(t)
	ctx := asManager()

	view, err := svc.CreateDailyReport(ctx, domain.DailyReportInput{
		Date:               "2026-03-14",
		OpeningCashBalance: dec("200"),
		ClosingCashBalance: dec("455"),
		CashSales:          dec("300"),
		CardSales:          dec("150"),
		LotterySales:       dec("50"),
		LotteryPayouts:     dec("20"),
		LotteryCommission:  dec("3"),
		RestockingCosts:    dec("40"),
		CashDeposits:       dec("30"),
	})
	require.NoError(t, err)
	assert.Equal(t, "admin", view.Report.CreatedBy)
	assert.Equal(t, "500.00", view.Summary.TotalSales.StringFixed(2))
	assert.Equal(t, "33.00", view.Summary.NetLottery.StringFixed(2))
	assert.Equal(t, "460.00", view.Summary.ExpectedClosingCash.StringFixed(2))
	assert.Equal(t, "-5.00", view.Summary.CashVariance.StringFixed(2))

	view, err = svc.AddCashTransaction(ctx, view.Report.ID, domain.CashTransactionInput{
		Type: "Expense", Amount: dec("5"), Description: "cleaning supplies",
	})
	require.NoError(t, err)
	require.Len(t, view.Report.CashTransactions, 1)
	assert.True(t, view.Summary.CashVariance.IsZero())

	view, err = svc.AddLotteryTransaction(ctx, view.Report.ID, domain.LotteryTransactionInput{
		Type: "payout", Amount: dec("10"), TicketNumber: "T-1", CommissionRate: dec("5"),
	})
	require.NoError(t, err)
	require.Len(t, view.Report.LotteryTransactions, 1)

	view, err = svc.DeleteCashTransaction(ctx, view.Report.ID, view.Report.CashTransactions[0].ID)
	require.NoError(t, err)
	assert.Empty(t, view.Report.CashTransactions)

	_, err = svc.CreateDailyReport(ctx, domain.DailyReportInput{Date: "2026-03-14"})
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = svc.CreateDailyReport(ctx, domain.DailyReportInput{Date: "14/03/2026"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	list, err := svc.ListDailyReports(ctx, "2026-03-01", "2026-03-31")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDailyReportRejectsNegativeAmounts(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateDailyReport(asManager(), domain.DailyReportInput{Date: "2026-03-15", CashSales: dec("-1")})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "cash_sales", verr.Fields[0].Field)
}

func TestUserManagement(t *testing.T) {
	svc := newTestService(t)
	ctx := asManager()

	created, err := svc.CreateUser(ctx, domain.UserInput{Username: "night", Password: "secret1", Role: "cashier"})
	require.NoError(t, err)

	actor, err := svc.Authenticate(context.Background(), "night", "secret1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, actor.UserID)
	assert.Equal(t, domain.RoleCashier, actor.Role)

	_, err = svc.Authenticate(context.Background(), "night", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(context.Background(), "nobody", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.CreateUser(ctx, domain.UserInput{Username: "night", Password: "secret2", Role: "cashier"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.CreateUser(ctx, domain.UserInput{Username: "no pass", Role: "cashier"})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 2)

	_, err = svc.UpdateUser(ctx, created.ID, domain.UserInput{Username: "night", Role: "manager"})
	require.NoError(t, err)
	actor, err = svc.Authenticate(context.Background(), "night", "secret1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, actor.Role)

	err = svc.DeleteUser(ctx, managerActor.UserID)
	assert.ErrorIs(t, err, domain.ErrValidation)
	require.NoError(t, svc.DeleteUser(ctx, created.ID))
}

func TestDeleteUserDropsSession(t *testing.T) {
	sessions := session.NewMemoryStore(0)
	svc := New(memory.NewSeeded(), sessions, zap.NewNop(), Options{})

	created, err := svc.CreateUser(asManager(), domain.UserInput{Username: "temp", Password: "secret1", Role: "cashier"})
	require.NoError(t, err)
	temp := domain.Actor{UserID: created.ID, Username: "temp", Role: domain.RoleCashier}

	_, err = svc.AddToCart(WithActor(context.Background(), temp), 1, 1, nil)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(asManager(), created.ID))

	sess, err := sessions.Load(context.Background(), sessionKey(temp))
	require.NoError(t, err)
	assert.True(t, sess.Cart.IsEmpty())
}

func TestMutationsAreAudited(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.AddToCart(asCashier(), 1, 1, nil)
	require.NoError(t, err)
	_, err = svc.Checkout(asCashier(), domain.CheckoutRequest{PaymentMethod: "card"})
	require.NoError(t, err)

	logs, err := svc.ListAuditLogs(asManager(), "", 0)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	assert.Equal(t, "checkout", logs[0].Action)
	assert.Equal(t, "cashier", logs[0].ActorUsername)
}
