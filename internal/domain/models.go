package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleCashier = "cashier"
	RoleManager = "manager"
)

const (
	PaymentCash = "cash"
	PaymentCard = "card"
)

const (
	LotterySale   = "sale"
	LotteryPayout = "payout"
)

const (
	CashDeposit    = "deposit"
	CashWithdrawal = "withdrawal"
	CashExpense    = "expense"
)

const (
	QuickAccessMinPosition = 1
	QuickAccessMaxPosition = 10
)

type Product struct {
	ID                int64           `json:"id" db:"id"`
	Name              string          `json:"name" db:"name"`
	Price             decimal.Decimal `json:"price" db:"price"`
	Quantity          int             `json:"quantity" db:"quantity"`
	Category          string          `json:"category" db:"category"`
	Barcode           string          `json:"barcode,omitempty" db:"barcode"`
	SKU               string          `json:"sku,omitempty" db:"sku"`
	LowStockThreshold int             `json:"low_stock_threshold" db:"low_stock_threshold"`
	TaxExempt         bool            `json:"tax_exempt" db:"tax_exempt"`
}

func (p Product) IsLowStock() bool {
	return p.Quantity <= p.LowStockThreshold
}

type ProductInput struct {
	Name              string          `json:"name" validate:"required,max=100"`
	Price             decimal.Decimal `json:"price"`
	Quantity          int             `json:"quantity" validate:"gte=0"`
	Category          string          `json:"category" validate:"max=50"`
	Barcode           string          `json:"barcode" validate:"max=50"`
	SKU               string          `json:"sku" validate:"max=50"`
	LowStockThreshold *int            `json:"low_stock_threshold,omitempty" validate:"omitempty,gte=0"`
	TaxExempt         bool            `json:"tax_exempt"`
}

type Transaction struct {
	ID                    int64             `json:"id"`
	CreatedAt             time.Time         `json:"created_at"`
	UserID                int64             `json:"user_id"`
	Username              string            `json:"username,omitempty"`
	PaymentMethod         string            `json:"payment_method"`
	Subtotal              decimal.Decimal   `json:"subtotal"`
	TaxAmount             decimal.Decimal   `json:"tax_amount"`
	TaxApplied            bool              `json:"tax_applied"`
	DiscountAmount        decimal.Decimal   `json:"discount_amount"`
	TotalAmount           decimal.Decimal   `json:"total_amount"`
	AmountTendered        decimal.Decimal   `json:"amount_tendered"`
	ChangeDue             decimal.Decimal   `json:"change_due"`
	IsReturn              bool              `json:"is_return"`
	OriginalTransactionID *int64            `json:"original_transaction_id,omitempty"`
	Items                 []TransactionItem `json:"items"`
}

type TransactionItem struct {
	ID                 int64           `json:"id"`
	TransactionID      int64           `json:"transaction_id"`
	ProductID          *int64          `json:"product_id"`
	CustomName         string          `json:"custom_name,omitempty"`
	IsCustomProduct    bool            `json:"is_custom_product"`
	Quantity           int             `json:"quantity"`
	PriceAtTimeOfSale  decimal.Decimal `json:"price_at_time_of_sale"`
	ReturnedFromItemID *int64          `json:"returned_from_item_id,omitempty"`
	ProductName        string          `json:"product_name,omitempty"`
}

func (i TransactionItem) LineTotal() decimal.Decimal {
	return i.PriceAtTimeOfSale.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i TransactionItem) DisplayName() string {
	if i.IsCustomProduct || i.ProductID == nil {
		return i.CustomName
	}
	if i.ProductName != "" {
		return i.ProductName
	}
	return i.CustomName
}

type TransactionFilter struct {
	From           *time.Time
	To             *time.Time
	IncludeReturns bool
	OnlyReturns    bool
	UserID         int64
	Limit          int
}

type CheckoutRequest struct {
	PaymentMethod  string          `json:"payment_method"`
	AmountTendered decimal.Decimal `json:"amount_tendered"`
	Discount       decimal.Decimal `json:"discount_amount"`
	ApplyTax       *bool           `json:"apply_tax,omitempty"`
}

type Receipt struct {
	Transaction Transaction     `json:"transaction"`
	Tendered    decimal.Decimal `json:"amount_tendered"`
	Change      decimal.Decimal `json:"change"`
	// CartCleared is set by checkout only. False means the sale committed
	// but the session still holds its lines.
	CartCleared *bool `json:"cart_cleared,omitempty"`
}

type ReturnRequest struct {
	Items map[int64]int `json:"items"`
}

// ReturnableItem is one line of a sale with what can still be returned.
type ReturnableItem struct {
	Item       TransactionItem `json:"item"`
	Returned   int             `json:"returned"`
	Returnable int             `json:"returnable"`
}

type QuickAccessSlot struct {
	Position  int      `json:"position"`
	ProductID *int64   `json:"product_id"`
	Product   *Product `json:"product,omitempty"`
}

type DailyReport struct {
	ID                    int64                `json:"id" db:"id"`
	ReportDate            time.Time            `json:"report_date" db:"report_date"`
	OpeningCashBalance    decimal.Decimal      `json:"opening_cash_balance" db:"opening_cash_balance"`
	ClosingCashBalance    decimal.Decimal      `json:"closing_cash_balance" db:"closing_cash_balance"`
	CashSales             decimal.Decimal      `json:"cash_sales" db:"cash_sales"`
	CardSales             decimal.Decimal      `json:"card_sales" db:"card_sales"`
	LotterySales          decimal.Decimal      `json:"lottery_sales" db:"lottery_sales"`
	ConfectionerySales    decimal.Decimal      `json:"confectionery_sales" db:"confectionery_sales"`
	TobaccoSales          decimal.Decimal      `json:"tobacco_sales" db:"tobacco_sales"`
	LotteryPayouts        decimal.Decimal      `json:"lottery_payouts" db:"lottery_payouts"`
	LotteryCommission     decimal.Decimal      `json:"lottery_commission" db:"lottery_commission"`
	RestockingCosts       decimal.Decimal      `json:"restocking_costs" db:"restocking_costs"`
	MiscellaneousExpenses decimal.Decimal      `json:"miscellaneous_expenses" db:"miscellaneous_expenses"`
	CashDeposits          decimal.Decimal      `json:"cash_deposits" db:"cash_deposits"`
	Notes                 string               `json:"notes" db:"notes"`
	CreatedBy             string               `json:"created_by" db:"created_by"`
	CreatedAt             time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time            `json:"updated_at" db:"updated_at"`
	LotteryTransactions   []LotteryTransaction `json:"lottery_transactions" db:"-"`
	CashTransactions      []CashTransaction    `json:"cash_transactions" db:"-"`
}

type DailyReportInput struct {
	Date                  string          `json:"date" validate:"required,datetime=2006-01-02"`
	OpeningCashBalance    decimal.Decimal `json:"opening_cash_balance"`
	ClosingCashBalance    decimal.Decimal `json:"closing_cash_balance"`
	CashSales             decimal.Decimal `json:"cash_sales"`
	CardSales             decimal.Decimal `json:"card_sales"`
	LotterySales          decimal.Decimal `json:"lottery_sales"`
	ConfectionerySales    decimal.Decimal `json:"confectionery_sales"`
	TobaccoSales          decimal.Decimal `json:"tobacco_sales"`
	LotteryPayouts        decimal.Decimal `json:"lottery_payouts"`
	LotteryCommission     decimal.Decimal `json:"lottery_commission"`
	RestockingCosts       decimal.Decimal `json:"restocking_costs"`
	MiscellaneousExpenses decimal.Decimal `json:"miscellaneous_expenses"`
	CashDeposits          decimal.Decimal `json:"cash_deposits"`
	Notes                 string          `json:"notes" validate:"max=2000"`
}

type DailyReportSummary struct {
	TotalSales          decimal.Decimal `json:"total_sales"`
	NetLottery          decimal.Decimal `json:"net_lottery"`
	ExpectedClosingCash decimal.Decimal `json:"expected_closing_cash"`
	CashVariance        decimal.Decimal `json:"cash_variance"`
}

type DailyReportView struct {
	Report  DailyReport        `json:"report"`
	Summary DailyReportSummary `json:"summary"`
}

type LotteryTransaction struct {
	ID             int64           `json:"id" db:"id"`
	DailyReportID  int64           `json:"daily_report_id" db:"daily_report_id"`
	Type           string          `json:"transaction_type" db:"transaction_type"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	TicketNumber   string          `json:"ticket_number,omitempty" db:"ticket_number"`
	CommissionRate decimal.Decimal `json:"commission_rate" db:"commission_rate"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

type LotteryTransactionInput struct {
	Type           string          `json:"transaction_type" validate:"required,oneof=sale payout"`
	Amount         decimal.Decimal `json:"amount"`
	TicketNumber   string          `json:"ticket_number" validate:"max=50"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
}

type CashTransaction struct {
	ID            int64           `json:"id" db:"id"`
	DailyReportID int64           `json:"daily_report_id" db:"daily_report_id"`
	Type          string          `json:"transaction_type" db:"transaction_type"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Description   string          `json:"description" db:"description"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

type CashTransactionInput struct {
	Type        string          `json:"transaction_type" validate:"required,oneof=deposit withdrawal expense"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"required,max=200"`
}

type SalesReport struct {
	From         *time.Time      `json:"from,omitempty"`
	To           *time.Time      `json:"to,omitempty"`
	Transactions []Transaction   `json:"transactions"`
	TotalSales   decimal.Decimal `json:"total_sales"`
	TotalReturns decimal.Decimal `json:"total_returns"`
	NetSales     decimal.Decimal `json:"net_sales"`
	SaleCount    int             `json:"sale_count"`
	ReturnCount  int             `json:"return_count"`
}

type InventoryReportLine struct {
	Product    Product         `json:"product"`
	StockValue decimal.Decimal `json:"stock_value"`
	LowStock   bool            `json:"low_stock"`
}

type InventoryReport struct {
	Lines         []InventoryReportLine `json:"lines"`
	TotalUnits    int                   `json:"total_units"`
	TotalValue    decimal.Decimal       `json:"total_value"`
	LowStockCount int                   `json:"low_stock_count"`
}

type Dashboard struct {
	LowStock        []Product    `json:"low_stock"`
	LastTransaction *Transaction `json:"last_transaction,omitempty"`
	CartLines       int          `json:"cart_lines"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	UserID   int64
	Username string
	Role     string
}

type UserAccount struct {
	ID        int64     `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Password  string    `json:"-" db:"password_hash"`
	Role      string    `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type UserInput struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"omitempty,min=6"`
	Role     string `json:"role" validate:"required,oneof=cashier manager"`
}

type AuditLog struct {
	ID            int64     `json:"id" db:"id"`
	ActorUsername string    `json:"actor_username" db:"actor_username"`
	ActorRole     string    `json:"actor_role" db:"actor_role"`
	Action        string    `json:"action" db:"action"`
	EntityType    string    `json:"entity_type" db:"entity_type"`
	EntityID      string    `json:"entity_id" db:"entity_id"`
	Detail        string    `json:"detail" db:"detail"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
