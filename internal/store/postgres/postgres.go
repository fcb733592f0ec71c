package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"tillpos/backend/internal/domain"
	"tillpos/backend/internal/store"
)

const productColumns = `id, name, price, quantity, category,
	COALESCE(barcode, '') AS barcode, COALESCE(sku, '') AS sku,
	low_stock_threshold, tax_exempt`

const transactionSelect = `
	SELECT t.id, t.created_at, t.user_id, COALESCE(u.username, '') AS username,
		t.payment_method, t.subtotal, t.tax_amount, t.tax_applied, t.discount_amount,
		t.total_amount, t.amount_tendered, t.change_due, t.is_return, t.original_transaction_id
	FROM transactions t
	LEFT JOIN users u ON u.id = t.user_id`

const dailyReportColumns = `id, report_date, opening_cash_balance, closing_cash_balance,
	cash_sales, card_sales, lottery_sales, confectionery_sales, tobacco_sales,
	lottery_payouts, lottery_commission, restocking_costs, miscellaneous_expenses,
	cash_deposits, notes, created_by, created_at, updated_at`

type Store struct {
	db *sqlx.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sqlx.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Seed inserts the demo users when the users table is empty, and the
// starter catalogue plus quick access slots when products is empty.
func (s *Store) Seed(ctx context.Context, logger *zap.Logger) error {
	var userCount int
	if err := s.db.GetContext(ctx, &userCount, `SELECT count(*) FROM users`); err != nil {
		return err
	}
	if userCount == 0 {
		seeds, usingDefaults := store.SeedUsers()
		if usingDefaults {
			logger.Warn("seeding default dev credentials; set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override")
		}
		for _, u := range seeds {
			hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			if _, err := s.CreateUser(ctx, domain.UserAccount{Username: u.Username, Password: string(hash), Role: u.Role}); err != nil {
				return fmt.Errorf("seed user %s: %w", u.Username, err)
			}
		}
		logger.Info("seeded users", zap.Int("count", len(seeds)))
	}

	var productCount int
	if err := s.db.GetContext(ctx, &productCount, `SELECT count(*) FROM products`); err != nil {
		return err
	}
	if productCount > 0 {
		return nil
	}
	for i, p := range store.SeedProducts() {
		created, err := s.CreateProduct(ctx, p)
		if err != nil {
			return fmt.Errorf("seed product %s: %w", p.Name, err)
		}
		if i < domain.QuickAccessMaxPosition {
			if err := s.UpsertQuickAccess(ctx, i+1, created.ID); err != nil {
				return err
			}
		}
	}
	logger.Info("seeded starter catalogue")
	return nil
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products := make([]domain.Product, 0, 64)
	err := s.db.SelectContext(ctx, &products, `SELECT `+productColumns+` FROM products ORDER BY name, id`)
	return products, err
}

func (s *Store) SearchProducts(ctx context.Context, term string, limit int) ([]domain.Product, error) {
	pattern := "%" + escapeLike(strings.TrimSpace(term)) + "%"
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE name ILIKE $1 OR sku ILIKE $1 OR barcode ILIKE $1 OR category ILIKE $1
		ORDER BY name, id`
	args := []any{pattern}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	products := make([]domain.Product, 0, 16)
	err := s.db.SelectContext(ctx, &products, query, args...)
	return products, err
}

func (s *Store) ListLowStockProducts(ctx context.Context) ([]domain.Product, error) {
	products := make([]domain.Product, 0, 16)
	err := s.db.SelectContext(ctx, &products, `
		SELECT `+productColumns+`
		FROM products
		WHERE quantity <= low_stock_threshold
		ORDER BY quantity, name`)
	return products, err
}

func (s *Store) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var product domain.Product
	err := s.db.GetContext(ctx, &product, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

func (s *Store) FindProductByCode(ctx context.Context, code string) (*domain.Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, store.ErrNotFound
	}
	var product domain.Product
	err := s.db.GetContext(ctx, &product, `
		SELECT `+productColumns+`
		FROM products
		WHERE barcode = $1 OR sku = $1
		ORDER BY id
		LIMIT 1`, code)
	if err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || !product.Price.IsPositive() || product.Quantity < 0 {
		return nil, store.ErrInvalidInput
	}

	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO products (name, price, quantity, category, barcode, sku, low_stock_threshold, tax_exempt)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`, product.Name, product.Price, product.Quantity, product.Category,
		nullIfEmpty(product.Barcode), nullIfEmpty(product.SKU), product.LowStockThreshold, product.TaxExempt,
	).Scan(&product.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || !product.Price.IsPositive() || product.Quantity < 0 {
		return nil, store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, price = $3, quantity = $4, category = $5, barcode = $6, sku = $7,
			low_stock_threshold = $8, tax_exempt = $9
		WHERE id = $1
	`, product.ID, product.Name, product.Price, product.Quantity, product.Category,
		nullIfEmpty(product.Barcode), nullIfEmpty(product.SKU), product.LowStockThreshold, product.TaxExempt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	if err := expectAffected(res); err != nil {
		return nil, err
	}

	updated := product
	return &updated, nil
}

// DeleteProduct fails with store.ErrConflict once any transaction line
// references the product. Quick access slots pointing at it cascade.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrConflict
		}
		return err
	}
	return expectAffected(res)
}

type lockedProduct struct {
	ID       int64  `db:"id"`
	Name     string `db:"name"`
	Quantity int    `db:"quantity"`
}

func (s *Store) CreateSale(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	if len(tx.Items) == 0 || tx.IsReturn {
		return nil, store.ErrInvalidInput
	}

	requested := make(map[int64]int, len(tx.Items))
	for _, item := range tx.Items {
		if item.Quantity < 1 {
			return nil, store.ErrInvalidInput
		}
		if item.ProductID == nil {
			if strings.TrimSpace(item.CustomName) == "" {
				return nil, store.ErrInvalidInput
			}
			continue
		}
		requested[*item.ProductID] += item.Quantity
	}

	pgTx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	if len(requested) > 0 {
		ids := make([]int64, 0, len(requested))
		for id := range requested {
			ids = append(ids, id)
		}
		slices.Sort(ids)

		locked := make([]lockedProduct, 0, len(ids))
		if err := pgTx.SelectContext(ctx, &locked, `
			SELECT id, name, quantity
			FROM products
			WHERE id = ANY($1)
			ORDER BY id
			FOR UPDATE
		`, ids); err != nil {
			return nil, err
		}
		if len(locked) != len(ids) {
			return nil, store.ErrNotFound
		}

		for _, product := range locked {
			if product.Quantity < requested[product.ID] {
				return nil, &domain.InsufficientStockError{
					ProductID:   product.ID,
					ProductName: product.Name,
					Available:   product.Quantity,
					Requested:   requested[product.ID],
				}
			}
		}
		for _, product := range locked {
			if _, err := pgTx.ExecContext(ctx, `
				UPDATE products SET quantity = quantity - $1 WHERE id = $2
			`, requested[product.ID], product.ID); err != nil {
				return nil, err
			}
		}
	}

	id, err := insertTransaction(ctx, pgTx, tx)
	if err != nil {
		return nil, err
	}
	for _, item := range tx.Items {
		item.IsCustomProduct = item.ProductID == nil
		if err := insertItem(ctx, pgTx, id, item); err != nil {
			return nil, err
		}
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}
	return s.GetTransaction(ctx, id)
}

type soldItem struct {
	ID                int64           `db:"id"`
	ProductID         sql.NullInt64   `db:"product_id"`
	Name              string          `db:"name"`
	CustomName        string          `db:"custom_name"`
	IsCustomProduct   bool            `db:"is_custom_product"`
	Quantity          int             `db:"quantity"`
	PriceAtTimeOfSale decimal.Decimal `db:"price_at_time_of_sale"`
}

type returnedQty struct {
	ItemID   int64 `db:"item_id"`
	Quantity int   `db:"quantity"`
}

func (s *Store) CreateReturn(ctx context.Context, ret domain.Transaction) (*domain.Transaction, error) {
	if ret.OriginalTransactionID == nil || len(ret.Items) == 0 {
		return nil, store.ErrInvalidInput
	}

	pgTx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	var originalIsReturn bool
	err = pgTx.GetContext(ctx, &originalIsReturn, `
		SELECT is_return FROM transactions WHERE id = $1 FOR UPDATE
	`, *ret.OriginalTransactionID)
	if err != nil {
		return nil, notFound(err)
	}
	if originalIsReturn {
		return nil, store.ErrInvalidInput
	}

	items := make([]soldItem, 0, 8)
	if err := pgTx.SelectContext(ctx, &items, `
		SELECT i.id, i.product_id, COALESCE(p.name, i.custom_name) AS name, i.custom_name,
			i.is_custom_product, i.quantity, i.price_at_time_of_sale
		FROM transaction_items i
		LEFT JOIN products p ON p.id = i.product_id
		WHERE i.transaction_id = $1
	`, *ret.OriginalTransactionID); err != nil {
		return nil, err
	}
	sold := make(map[int64]soldItem, len(items))
	for _, item := range items {
		sold[item.ID] = item
	}

	returned, err := returnedQuantities(ctx, pgTx, *ret.OriginalTransactionID)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	restock := make(map[int64]int)
	for i := range ret.Items {
		line := &ret.Items[i]
		if line.ReturnedFromItemID == nil || line.Quantity < 1 {
			return nil, store.ErrInvalidInput
		}
		source, ok := sold[*line.ReturnedFromItemID]
		if !ok {
			return nil, store.ErrInvalidInput
		}
		remaining := source.Quantity - returned[source.ID]
		if line.Quantity > remaining {
			return nil, &domain.OverReturnError{
				ItemID:     source.ID,
				ItemName:   source.Name,
				Requested:  line.Quantity,
				Returnable: remaining,
			}
		}
		returned[source.ID] += line.Quantity

		line.ProductID = nullInt64Ptr(source.ProductID)
		line.CustomName = source.CustomName
		line.IsCustomProduct = source.IsCustomProduct
		line.PriceAtTimeOfSale = source.PriceAtTimeOfSale
		total = total.Add(line.LineTotal())
		if source.ProductID.Valid {
			restock[source.ProductID.Int64] += line.Quantity
		}
	}

	ret.IsReturn = true
	ret.Subtotal = total
	ret.TotalAmount = total
	id, err := insertTransaction(ctx, pgTx, ret)
	if err != nil {
		return nil, err
	}
	for _, line := range ret.Items {
		if err := insertItem(ctx, pgTx, id, line); err != nil {
			return nil, err
		}
	}

	productIDs := make([]int64, 0, len(restock))
	for productID := range restock {
		productIDs = append(productIDs, productID)
	}
	slices.Sort(productIDs)
	for _, productID := range productIDs {
		if _, err := pgTx.ExecContext(ctx, `
			UPDATE products SET quantity = quantity + $1 WHERE id = $2
		`, restock[productID], productID); err != nil {
			return nil, err
		}
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}
	return s.GetTransaction(ctx, id)
}

func insertTransaction(ctx context.Context, pgTx *sqlx.Tx, tx domain.Transaction) (int64, error) {
	createdAt := tx.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	var id int64
	err := pgTx.QueryRowxContext(ctx, `
		INSERT INTO transactions (
			created_at, user_id, payment_method, subtotal, tax_amount, tax_applied,
			discount_amount, total_amount, amount_tendered, change_due, is_return, original_transaction_id
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id
	`, createdAt, tx.UserID, tx.PaymentMethod, tx.Subtotal, tx.TaxAmount, tx.TaxApplied,
		tx.DiscountAmount, tx.TotalAmount, tx.AmountTendered, tx.ChangeDue, tx.IsReturn,
		nullInt64(tx.OriginalTransactionID),
	).Scan(&id)
	if err != nil && isForeignKeyViolation(err) {
		return 0, store.ErrInvalidInput
	}
	return id, err
}

func insertItem(ctx context.Context, pgTx *sqlx.Tx, transactionID int64, item domain.TransactionItem) error {
	_, err := pgTx.ExecContext(ctx, `
		INSERT INTO transaction_items (
			transaction_id, product_id, custom_name, is_custom_product, quantity,
			price_at_time_of_sale, returned_from_item_id
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, transactionID, nullInt64(item.ProductID), item.CustomName, item.IsCustomProduct, item.Quantity,
		item.PriceAtTimeOfSale, nullInt64(item.ReturnedFromItemID))
	return err
}

type transactionRow struct {
	ID                    int64           `db:"id"`
	CreatedAt             time.Time       `db:"created_at"`
	UserID                int64           `db:"user_id"`
	Username              string          `db:"username"`
	PaymentMethod         string          `db:"payment_method"`
	Subtotal              decimal.Decimal `db:"subtotal"`
	TaxAmount             decimal.Decimal `db:"tax_amount"`
	TaxApplied            bool            `db:"tax_applied"`
	DiscountAmount        decimal.Decimal `db:"discount_amount"`
	TotalAmount           decimal.Decimal `db:"total_amount"`
	AmountTendered        decimal.Decimal `db:"amount_tendered"`
	ChangeDue             decimal.Decimal `db:"change_due"`
	IsReturn              bool            `db:"is_return"`
	OriginalTransactionID sql.NullInt64   `db:"original_transaction_id"`
}

func (r transactionRow) toDomain() domain.Transaction {
	return domain.Transaction{
		ID:                    r.ID,
		CreatedAt:             r.CreatedAt.UTC(),
		UserID:                r.UserID,
		Username:              r.Username,
		PaymentMethod:         r.PaymentMethod,
		Subtotal:              r.Subtotal,
		TaxAmount:             r.TaxAmount,
		TaxApplied:            r.TaxApplied,
		DiscountAmount:        r.DiscountAmount,
		TotalAmount:           r.TotalAmount,
		AmountTendered:        r.AmountTendered,
		ChangeDue:             r.ChangeDue,
		IsReturn:              r.IsReturn,
		OriginalTransactionID: nullInt64Ptr(r.OriginalTransactionID),
		Items:                 []domain.TransactionItem{},
	}
}

type itemRow struct {
	ID                 int64           `db:"id"`
	TransactionID      int64           `db:"transaction_id"`
	ProductID          sql.NullInt64   `db:"product_id"`
	CustomName         string          `db:"custom_name"`
	IsCustomProduct    bool            `db:"is_custom_product"`
	Quantity           int             `db:"quantity"`
	PriceAtTimeOfSale  decimal.Decimal `db:"price_at_time_of_sale"`
	ReturnedFromItemID sql.NullInt64   `db:"returned_from_item_id"`
	ProductName        string          `db:"product_name"`
}

func (r itemRow) toDomain() domain.TransactionItem {
	return domain.TransactionItem{
		ID:                 r.ID,
		TransactionID:      r.TransactionID,
		ProductID:          nullInt64Ptr(r.ProductID),
		CustomName:         r.CustomName,
		IsCustomProduct:    r.IsCustomProduct,
		Quantity:           r.Quantity,
		PriceAtTimeOfSale:  r.PriceAtTimeOfSale,
		ReturnedFromItemID: nullInt64Ptr(r.ReturnedFromItemID),
		ProductName:        r.ProductName,
	}
}

func (s *Store) GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error) {
	var row transactionRow
	if err := s.db.GetContext(ctx, &row, transactionSelect+` WHERE t.id = $1`, id); err != nil {
		return nil, notFound(err)
	}
	txs := []domain.Transaction{row.toDomain()}
	if err := s.attachItems(ctx, txs); err != nil {
		return nil, err
	}
	return &txs[0], nil
}

func (s *Store) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	clauses := make([]string, 0, 4)
	args := make([]any, 0, 4)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	switch {
	case filter.OnlyReturns:
		clauses = append(clauses, "t.is_return = true")
	case !filter.IncludeReturns:
		clauses = append(clauses, "t.is_return = false")
	}
	if filter.UserID != 0 {
		clauses = append(clauses, "t.user_id = "+arg(filter.UserID))
	}
	if filter.From != nil {
		clauses = append(clauses, "t.created_at >= "+arg(*filter.From))
	}
	if filter.To != nil {
		clauses = append(clauses, "t.created_at < "+arg(*filter.To))
	}

	query := transactionSelect
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY t.created_at DESC, t.id DESC"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}

	rows := make([]transactionRow, 0, 32)
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	txs := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		txs = append(txs, row.toDomain())
	}
	if err := s.attachItems(ctx, txs); err != nil {
		return nil, err
	}
	return txs, nil
}

func (s *Store) attachItems(ctx context.Context, txs []domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(txs))
	index := make(map[int64]int, len(txs))
	for i, tx := range txs {
		ids = append(ids, tx.ID)
		index[tx.ID] = i
	}

	rows := make([]itemRow, 0, len(txs)*2)
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT i.id, i.transaction_id, i.product_id, i.custom_name, i.is_custom_product,
			i.quantity, i.price_at_time_of_sale, i.returned_from_item_id,
			COALESCE(p.name, i.custom_name) AS product_name
		FROM transaction_items i
		LEFT JOIN products p ON p.id = i.product_id
		WHERE i.transaction_id = ANY($1)
		ORDER BY i.id
	`, ids); err != nil {
		return err
	}
	for _, row := range rows {
		i := index[row.TransactionID]
		txs[i].Items = append(txs[i].Items, row.toDomain())
	}
	return nil
}

func (s *Store) GetReturnedQuantities(ctx context.Context, transactionID int64) (map[int64]int, error) {
	return returnedQuantities(ctx, s.db, transactionID)
}

func returnedQuantities(ctx context.Context, q sqlx.QueryerContext, transactionID int64) (map[int64]int, error) {
	rows := make([]returnedQty, 0, 8)
	if err := sqlx.SelectContext(ctx, q, &rows, `
		SELECT i.returned_from_item_id AS item_id, SUM(i.quantity) AS quantity
		FROM transaction_items i
		JOIN transactions t ON t.id = i.transaction_id
		WHERE t.is_return = true AND t.original_transaction_id = $1 AND i.returned_from_item_id IS NOT NULL
		GROUP BY i.returned_from_item_id
	`, transactionID); err != nil {
		return nil, err
	}
	returned := make(map[int64]int, len(rows))
	for _, row := range rows {
		returned[row.ItemID] = row.Quantity
	}
	return returned, nil
}

type quickAccessRow struct {
	Position int `db:"position"`
	domain.Product
}

func (s *Store) ListQuickAccess(ctx context.Context) ([]domain.QuickAccessSlot, error) {
	rows := make([]quickAccessRow, 0, domain.QuickAccessMaxPosition)
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT q.position, p.id, p.name, p.price, p.quantity, p.category,
			COALESCE(p.barcode, '') AS barcode, COALESCE(p.sku, '') AS sku,
			p.low_stock_threshold, p.tax_exempt
		FROM quick_access q
		JOIN products p ON p.id = q.product_id
		ORDER BY q.position
	`); err != nil {
		return nil, err
	}

	byPosition := make(map[int]domain.Product, len(rows))
	for _, row := range rows {
		byPosition[row.Position] = row.Product
	}
	slots := make([]domain.QuickAccessSlot, 0, domain.QuickAccessMaxPosition)
	for position := domain.QuickAccessMinPosition; position <= domain.QuickAccessMaxPosition; position++ {
		slot := domain.QuickAccessSlot{Position: position}
		if product, ok := byPosition[position]; ok {
			id := product.ID
			slot.ProductID = &id
			slot.Product = &product
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func (s *Store) UpsertQuickAccess(ctx context.Context, position int, productID int64) error {
	if position < domain.QuickAccessMinPosition || position > domain.QuickAccessMaxPosition {
		return store.ErrInvalidInput
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO quick_access (position, product_id)
		VALUES ($1, $2)
		ON CONFLICT (position) DO UPDATE SET product_id = EXCLUDED.product_id
	`, position, productID)
	if err != nil && isForeignKeyViolation(err) {
		return store.ErrNotFound
	}
	return err
}

func (s *Store) DeleteQuickAccess(ctx context.Context, position int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM quick_access WHERE position = $1`, position)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (s *Store) CreateDailyReport(ctx context.Context, report domain.DailyReport) (*domain.DailyReport, error) {
	report.ReportDate = dateOnly(report.ReportDate)
	rows, err := s.db.NamedQueryContext(ctx, `
		INSERT INTO daily_reports (
			report_date, opening_cash_balance, closing_cash_balance, cash_sales, card_sales,
			lottery_sales, confectionery_sales, tobacco_sales, lottery_payouts, lottery_commission,
			restocking_costs, miscellaneous_expenses, cash_deposits, notes, created_by
		)
		VALUES (
			:report_date, :opening_cash_balance, :closing_cash_balance, :cash_sales, :card_sales,
			:lottery_sales, :confectionery_sales, :tobacco_sales, :lottery_payouts, :lottery_commission,
			:restocking_costs, :miscellaneous_expenses, :cash_deposits, :notes, :created_by
		)
		RETURNING id
	`, report)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	defer rows.Close()

	var id int64
	if rows.Next() {
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	return s.GetDailyReport(ctx, id)
}

func (s *Store) UpdateDailyReport(ctx context.Context, report domain.DailyReport) (*domain.DailyReport, error) {
	report.ReportDate = dateOnly(report.ReportDate)
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE daily_reports
		SET report_date = :report_date, opening_cash_balance = :opening_cash_balance,
			closing_cash_balance = :closing_cash_balance, cash_sales = :cash_sales,
			card_sales = :card_sales, lottery_sales = :lottery_sales,
			confectionery_sales = :confectionery_sales, tobacco_sales = :tobacco_sales,
			lottery_payouts = :lottery_payouts, lottery_commission = :lottery_commission,
			restocking_costs = :restocking_costs, miscellaneous_expenses = :miscellaneous_expenses,
			cash_deposits = :cash_deposits, notes = :notes, updated_at = now()
		WHERE id = :id
	`, report)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	if err := expectAffected(res); err != nil {
		return nil, err
	}
	return s.GetDailyReport(ctx, report.ID)
}

func (s *Store) GetDailyReport(ctx context.Context, id int64) (*domain.DailyReport, error) {
	var report domain.DailyReport
	if err := s.db.GetContext(ctx, &report, `SELECT `+dailyReportColumns+` FROM daily_reports WHERE id = $1`, id); err != nil {
		return nil, notFound(err)
	}
	reports := []domain.DailyReport{report}
	if err := s.attachEntries(ctx, reports); err != nil {
		return nil, err
	}
	return &reports[0], nil
}

func (s *Store) ListDailyReports(ctx context.Context, from time.Time, to time.Time) ([]domain.DailyReport, error) {
	reports := make([]domain.DailyReport, 0, 31)
	if err := s.db.SelectContext(ctx, &reports, `
		SELECT `+dailyReportColumns+`
		FROM daily_reports
		WHERE report_date BETWEEN $1 AND $2
		ORDER BY report_date DESC
	`, dateOnly(from), dateOnly(to)); err != nil {
		return nil, err
	}
	if err := s.attachEntries(ctx, reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *Store) attachEntries(ctx context.Context, reports []domain.DailyReport) error {
	if len(reports) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(reports))
	index := make(map[int64]int, len(reports))
	for i := range reports {
		reports[i].ReportDate = dateOnly(reports[i].ReportDate)
		reports[i].LotteryTransactions = []domain.LotteryTransaction{}
		reports[i].CashTransactions = []domain.CashTransaction{}
		ids = append(ids, reports[i].ID)
		index[reports[i].ID] = i
	}

	lottery := make([]domain.LotteryTransaction, 0, 16)
	if err := s.db.SelectContext(ctx, &lottery, `
		SELECT id, daily_report_id, transaction_type, amount, ticket_number, commission_rate, created_at
		FROM lottery_transactions
		WHERE daily_report_id = ANY($1)
		ORDER BY created_at, id
	`, ids); err != nil {
		return err
	}
	for _, entry := range lottery {
		i := index[entry.DailyReportID]
		reports[i].LotteryTransactions = append(reports[i].LotteryTransactions, entry)
	}

	cash := make([]domain.CashTransaction, 0, 16)
	if err := s.db.SelectContext(ctx, &cash, `
		SELECT id, daily_report_id, transaction_type, amount, description, created_at
		FROM cash_transactions
		WHERE daily_report_id = ANY($1)
		ORDER BY created_at, id
	`, ids); err != nil {
		return err
	}
	for _, entry := range cash {
		i := index[entry.DailyReportID]
		reports[i].CashTransactions = append(reports[i].CashTransactions, entry)
	}
	return nil
}

func (s *Store) DeleteDailyReport(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM daily_reports WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (s *Store) AddLotteryTransaction(ctx context.Context, entry domain.LotteryTransaction) (*domain.LotteryTransaction, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO lottery_transactions (daily_report_id, transaction_type, amount, ticket_number, commission_rate, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id
	`, entry.DailyReportID, entry.Type, entry.Amount, entry.TicketNumber, entry.CommissionRate, entry.CreatedAt).Scan(&entry.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (s *Store) DeleteLotteryTransaction(ctx context.Context, reportID int64, entryID int64) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM lottery_transactions WHERE id = $1 AND daily_report_id = $2
	`, entryID, reportID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (s *Store) AddCashTransaction(ctx context.Context, entry domain.CashTransaction) (*domain.CashTransaction, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO cash_transactions (daily_report_id, transaction_type, amount, description, created_at)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id
	`, entry.DailyReportID, entry.Type, entry.Amount, entry.Description, entry.CreatedAt).Scan(&entry.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (s *Store) DeleteCashTransaction(ctx context.Context, reportID int64, entryID int64) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM cash_transactions WHERE id = $1 AND daily_report_id = $2
	`, entryID, reportID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) (*domain.UserAccount, error) {
	if user.Username == "" || user.Password == "" {
		return nil, store.ErrInvalidInput
	}
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO users (username, password_hash, role)
		VALUES ($1,$2,$3)
		RETURNING id, created_at
	`, user.Username, user.Password, user.Role).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	return &user, nil
}

// UpdateUser keeps the stored password hash when user.Password is empty.
func (s *Store) UpdateUser(ctx context.Context, user domain.UserAccount) (*domain.UserAccount, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET username = $2, role = $3, password_hash = COALESCE($4, password_hash)
		WHERE id = $1
	`, user.ID, user.Username, user.Role, nullIfEmpty(user.Password))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	if err := expectAffected(res); err != nil {
		return nil, err
	}
	return s.GetUser(ctx, user.ID)
}

func (s *Store) GetUser(ctx context.Context, id int64) (*domain.UserAccount, error) {
	var user domain.UserAccount
	if err := s.db.GetContext(ctx, &user, `
		SELECT id, username, password_hash, role, created_at FROM users WHERE id = $1
	`, id); err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error) {
	var user domain.UserAccount
	if err := s.db.GetContext(ctx, &user, `
		SELECT id, username, password_hash, role, created_at FROM users WHERE username = $1
	`, username); err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	users := make([]domain.UserAccount, 0, 16)
	err := s.db.SelectContext(ctx, &users, `
		SELECT id, username, password_hash, role, created_at FROM users ORDER BY username
	`)
	return users, err
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrConflict
		}
		return err
	}
	return expectAffected(res)
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO audit_logs (actor_username, actor_role, action, entity_type, entity_id, detail, created_at)
		VALUES (:actor_username, :actor_role, :action, :entity_type, :entity_id, :detail, :created_at)
	`, entry)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}
	logs := make([]domain.AuditLog, 0, limit)
	err := s.db.SelectContext(ctx, &logs, `
		SELECT id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, from, to, limit)
	return logs, err
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func expectAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return pgCode(err) == "23505"
}

func isForeignKeyViolation(err error) bool {
	return pgCode(err) == "23503"
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullInt64(val *int64) any {
	if val == nil {
		return nil
	}
	return *val
}

func nullInt64Ptr(val sql.NullInt64) *int64 {
	if !val.Valid {
		return nil
	}
	v := val.Int64
	return &v
}
