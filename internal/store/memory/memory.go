package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"tillpos/backend/internal/domain"
	"tillpos/backend/internal/store"
)

type Store struct {
	mu           sync.RWMutex
	seq          map[string]int64
	products     map[int64]domain.Product
	transactions map[int64]*domain.Transaction
	quickAccess  map[int]int64
	dailyReports map[int64]*domain.DailyReport
	users        map[int64]domain.UserAccount
	auditLogs    []domain.AuditLog
}

func New() *Store {
	return &Store{
		seq:          make(map[string]int64),
		products:     make(map[int64]domain.Product),
		transactions: make(map[int64]*domain.Transaction),
		quickAccess:  make(map[int]int64),
		dailyReports: make(map[int64]*domain.DailyReport),
		users:        make(map[int64]domain.UserAccount),
		auditLogs:    make([]domain.AuditLog, 0, 128),
	}
}

func (s *Store) seedUsers() {
	seeds, usingDefaults := store.SeedUsers()
	if usingDefaults {
		zap.L().Warn("memory store is using default dev credentials; set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override")
	}

	now := time.Now().UTC()
	for _, u := range seeds {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			zap.L().Fatal("failed to hash seed password", zap.String("username", u.Username), zap.Error(err))
		}
		id := s.nextID("user")
		s.users[id] = domain.UserAccount{
			ID:        id,
			Username:  u.Username,
			Password:  string(hash),
			Role:      u.Role,
			CreatedAt: now,
		}
	}
}

// NewSeeded returns a store with demo users, the starter catalogue and all
// ten quick access slots filled.
func NewSeeded() *Store {
	s := New()
	s.seedUsers()

	for i, p := range store.SeedProducts() {
		p.ID = s.nextID("product")
		s.products[p.ID] = p
		if i < domain.QuickAccessMaxPosition {
			s.quickAccess[i+1] = p.ID
		}
	}
	return s
}

func (s *Store) nextID(kind string) int64 {
	s.seq[kind]++
	return s.seq[kind]
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	sortProducts(products)
	return products, nil
}

func (s *Store) SearchProducts(_ context.Context, term string, limit int) ([]domain.Product, error) {
	needle := strings.ToLower(strings.TrimSpace(term))

	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0)
	for _, p := range s.products {
		if needle == "" ||
			strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.SKU), needle) ||
			strings.Contains(strings.ToLower(p.Barcode), needle) ||
			strings.Contains(strings.ToLower(p.Category), needle) {
			products = append(products, p)
		}
	}
	sortProducts(products)
	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}
	return products, nil
}

func (s *Store) ListLowStockProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0)
	for _, p := range s.products {
		if p.IsLowStock() {
			products = append(products, p)
		}
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		if c := cmp.Compare(a.Quantity, b.Quantity); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return products, nil
}

func (s *Store) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &product, nil
}

func (s *Store) FindProductByCode(_ context.Context, code string) (*domain.Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, store.ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.Barcode == code || p.SKU == code {
			found := p
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || !product.Price.IsPositive() || product.Quantity < 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.codeTakenLocked(product, 0) {
		return nil, store.ErrConflict
	}
	product.ID = s.nextID("product")
	s.products[product.ID] = product
	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || !product.Price.IsPositive() || product.Quantity < 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[product.ID]; !ok {
		return nil, store.ErrNotFound
	}
	if s.codeTakenLocked(product, product.ID) {
		return nil, store.ErrConflict
	}
	s.products[product.ID] = product
	updated := product
	return &updated, nil
}

func (s *Store) DeleteProduct(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return store.ErrNotFound
	}
	for _, tx := range s.transactions {
		for _, item := range tx.Items {
			if item.ProductID != nil && *item.ProductID == id {
				return store.ErrConflict
			}
		}
	}
	for position, productID := range s.quickAccess {
		if productID == id {
			delete(s.quickAccess, position)
		}
	}
	delete(s.products, id)
	return nil
}

func (s *Store) codeTakenLocked(product domain.Product, exceptID int64) bool {
	for id, existing := range s.products {
		if id == exceptID {
			continue
		}
		if product.Barcode != "" && existing.Barcode == product.Barcode {
			return true
		}
		if product.SKU != "" && existing.SKU == product.SKU {
			return true
		}
	}
	return false
}

func (s *Store) CreateSale(_ context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	if len(tx.Items) == 0 || tx.IsReturn {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

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

	// Validate every line before touching stock so a failure leaves nothing behind.
	for _, item := range tx.Items {
		if item.ProductID == nil {
			continue
		}
		product, ok := s.products[*item.ProductID]
		if !ok {
			return nil, store.ErrNotFound
		}
		if product.Quantity < requested[product.ID] {
			return nil, &domain.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Available:   product.Quantity,
				Requested:   requested[product.ID],
			}
		}
	}

	for productID, qty := range requested {
		product := s.products[productID]
		product.Quantity -= qty
		s.products[productID] = product
	}

	tx.ID = s.nextID("transaction")
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	for i := range tx.Items {
		tx.Items[i].ID = s.nextID("transaction_item")
		tx.Items[i].TransactionID = tx.ID
		if tx.Items[i].ProductID == nil {
			tx.Items[i].IsCustomProduct = true
		}
	}
	s.transactions[tx.ID] = cloneTransaction(&tx)
	return s.withProductNamesLocked(s.transactions[tx.ID]), nil
}

func (s *Store) CreateReturn(_ context.Context, ret domain.Transaction) (*domain.Transaction, error) {
	if ret.OriginalTransactionID == nil || len(ret.Items) == 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.transactions[*ret.OriginalTransactionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if original.IsReturn {
		return nil, store.ErrInvalidInput
	}

	sold := make(map[int64]domain.TransactionItem, len(original.Items))
	for _, item := range original.Items {
		sold[item.ID] = item
	}
	returned := s.returnedQuantitiesLocked(original.ID)

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
				ItemName:   s.itemNameLocked(source),
				Requested:  line.Quantity,
				Returnable: remaining,
			}
		}
		returned[source.ID] += line.Quantity

		line.ProductID = source.ProductID
		line.CustomName = source.CustomName
		line.IsCustomProduct = source.IsCustomProduct
		line.PriceAtTimeOfSale = source.PriceAtTimeOfSale
		total = total.Add(line.LineTotal())
		if source.ProductID != nil {
			restock[*source.ProductID] += line.Quantity
		}
	}

	for productID, qty := range restock {
		if product, ok := s.products[productID]; ok {
			product.Quantity += qty
			s.products[productID] = product
		}
	}

	ret.ID = s.nextID("transaction")
	ret.IsReturn = true
	ret.Subtotal = total
	ret.TotalAmount = total
	if ret.CreatedAt.IsZero() {
		ret.CreatedAt = time.Now().UTC()
	}
	for i := range ret.Items {
		ret.Items[i].ID = s.nextID("transaction_item")
		ret.Items[i].TransactionID = ret.ID
	}
	s.transactions[ret.ID] = cloneTransaction(&ret)
	return s.withProductNamesLocked(s.transactions[ret.ID]), nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.withProductNamesLocked(tx), nil
}

func (s *Store) ListTransactions(_ context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Transaction, 0)
	for _, tx := range s.transactions {
		if filter.OnlyReturns && !tx.IsReturn {
			continue
		}
		if !filter.IncludeReturns && !filter.OnlyReturns && tx.IsReturn {
			continue
		}
		if filter.UserID != 0 && tx.UserID != filter.UserID {
			continue
		}
		if filter.From != nil && tx.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !tx.CreatedAt.Before(*filter.To) {
			continue
		}
		result = append(result, *s.withProductNamesLocked(tx))
	}
	slices.SortFunc(result, func(a, b domain.Transaction) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (s *Store) GetReturnedQuantities(_ context.Context, transactionID int64) (map[int64]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.returnedQuantitiesLocked(transactionID), nil
}

func (s *Store) returnedQuantitiesLocked(transactionID int64) map[int64]int {
	returned := make(map[int64]int)
	for _, tx := range s.transactions {
		if !tx.IsReturn || tx.OriginalTransactionID == nil || *tx.OriginalTransactionID != transactionID {
			continue
		}
		for _, item := range tx.Items {
			if item.ReturnedFromItemID != nil {
				returned[*item.ReturnedFromItemID] += item.Quantity
			}
		}
	}
	return returned
}

func (s *Store) ListQuickAccess(_ context.Context) ([]domain.QuickAccessSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slots := make([]domain.QuickAccessSlot, 0, domain.QuickAccessMaxPosition)
	for position := domain.QuickAccessMinPosition; position <= domain.QuickAccessMaxPosition; position++ {
		slot := domain.QuickAccessSlot{Position: position}
		if productID, ok := s.quickAccess[position]; ok {
			if product, exists := s.products[productID]; exists {
				id := productID
				slot.ProductID = &id
				slot.Product = &product
			}
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func (s *Store) UpsertQuickAccess(_ context.Context, position int, productID int64) error {
	if position < domain.QuickAccessMinPosition || position > domain.QuickAccessMaxPosition {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[productID]; !ok {
		return store.ErrNotFound
	}
	s.quickAccess[position] = productID
	return nil
}

func (s *Store) DeleteQuickAccess(_ context.Context, position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.quickAccess[position]; !ok {
		return store.ErrNotFound
	}
	delete(s.quickAccess, position)
	return nil
}

func (s *Store) CreateDailyReport(_ context.Context, report domain.DailyReport) (*domain.DailyReport, error) {
	report.ReportDate = dateOnly(report.ReportDate)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reportDateTakenLocked(report.ReportDate, 0) {
		return nil, store.ErrConflict
	}
	now := time.Now().UTC()
	report.ID = s.nextID("daily_report")
	report.CreatedAt = now
	report.UpdatedAt = now
	report.LotteryTransactions = nil
	report.CashTransactions = nil
	s.dailyReports[report.ID] = cloneDailyReport(&report)
	return cloneDailyReport(&report), nil
}

func (s *Store) UpdateDailyReport(_ context.Context, report domain.DailyReport) (*domain.DailyReport, error) {
	report.ReportDate = dateOnly(report.ReportDate)

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.dailyReports[report.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if s.reportDateTakenLocked(report.ReportDate, report.ID) {
		return nil, store.ErrConflict
	}
	report.CreatedAt = existing.CreatedAt
	report.CreatedBy = existing.CreatedBy
	report.UpdatedAt = time.Now().UTC()
	report.LotteryTransactions = existing.LotteryTransactions
	report.CashTransactions = existing.CashTransactions
	s.dailyReports[report.ID] = cloneDailyReport(&report)
	return cloneDailyReport(&report), nil
}

func (s *Store) GetDailyReport(_ context.Context, id int64) (*domain.DailyReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.dailyReports[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneDailyReport(report), nil
}

func (s *Store) ListDailyReports(_ context.Context, from time.Time, to time.Time) ([]domain.DailyReport, error) {
	from = dateOnly(from)
	to = dateOnly(to)

	s.mu.RLock()
	defer s.mu.RUnlock()

	reports := make([]domain.DailyReport, 0)
	for _, report := range s.dailyReports {
		if report.ReportDate.Before(from) || report.ReportDate.After(to) {
			continue
		}
		reports = append(reports, *cloneDailyReport(report))
	}
	slices.SortFunc(reports, func(a, b domain.DailyReport) int {
		return b.ReportDate.Compare(a.ReportDate)
	})
	return reports, nil
}

func (s *Store) DeleteDailyReport(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.dailyReports[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.dailyReports, id)
	return nil
}

func (s *Store) AddLotteryTransaction(_ context.Context, entry domain.LotteryTransaction) (*domain.LotteryTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, ok := s.dailyReports[entry.DailyReportID]
	if !ok {
		return nil, store.ErrNotFound
	}
	entry.ID = s.nextID("lottery_transaction")
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	report.LotteryTransactions = append(report.LotteryTransactions, entry)
	report.UpdatedAt = time.Now().UTC()
	return &entry, nil
}

func (s *Store) DeleteLotteryTransaction(_ context.Context, reportID int64, entryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, ok := s.dailyReports[reportID]
	if !ok {
		return store.ErrNotFound
	}
	idx := slices.IndexFunc(report.LotteryTransactions, func(e domain.LotteryTransaction) bool { return e.ID == entryID })
	if idx < 0 {
		return store.ErrNotFound
	}
	report.LotteryTransactions = slices.Delete(report.LotteryTransactions, idx, idx+1)
	return nil
}

func (s *Store) AddCashTransaction(_ context.Context, entry domain.CashTransaction) (*domain.CashTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, ok := s.dailyReports[entry.DailyReportID]
	if !ok {
		return nil, store.ErrNotFound
	}
	entry.ID = s.nextID("cash_transaction")
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	report.CashTransactions = append(report.CashTransactions, entry)
	report.UpdatedAt = time.Now().UTC()
	return &entry, nil
}

func (s *Store) DeleteCashTransaction(_ context.Context, reportID int64, entryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, ok := s.dailyReports[reportID]
	if !ok {
		return store.ErrNotFound
	}
	idx := slices.IndexFunc(report.CashTransactions, func(e domain.CashTransaction) bool { return e.ID == entryID })
	if idx < 0 {
		return store.ErrNotFound
	}
	report.CashTransactions = slices.Delete(report.CashTransactions, idx, idx+1)
	return nil
}

func (s *Store) reportDateTakenLocked(date time.Time, exceptID int64) bool {
	for id, report := range s.dailyReports {
		if id != exceptID && report.ReportDate.Equal(date) {
			return true
		}
	}
	return false
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) (*domain.UserAccount, error) {
	if user.Username == "" || user.Password == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.usernameTakenLocked(user.Username, 0) {
		return nil, store.ErrConflict
	}
	user.ID = s.nextID("user")
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.users[user.ID] = user
	created := user
	return &created, nil
}

// UpdateUser keeps the stored password hash when user.Password is empty.
func (s *Store) UpdateUser(_ context.Context, user domain.UserAccount) (*domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if s.usernameTakenLocked(user.Username, user.ID) {
		return nil, store.ErrConflict
	}
	if user.Password == "" {
		user.Password = existing.Password
	}
	user.CreatedAt = existing.CreatedAt
	s.users[user.ID] = user
	updated := user
	return &updated, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &user, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			found := user
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return cmp.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return store.ErrNotFound
	}
	for _, tx := range s.transactions {
		if tx.UserID == id {
			return store.ErrConflict
		}
	}
	delete(s.users, id)
	return nil
}

func (s *Store) usernameTakenLocked(username string, exceptID int64) bool {
	for id, user := range s.users {
		if id != exceptID && user.Username == username {
			return true
		}
	}
	return false
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = s.nextID("audit_log")
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 100
	}
	logs := make([]domain.AuditLog, 0, limit)
	for i := len(s.auditLogs) - 1; i >= 0 && len(logs) < limit; i-- {
		entry := s.auditLogs[i]
		if entry.CreatedAt.Before(from) || !entry.CreatedAt.Before(to) {
			continue
		}
		logs = append(logs, entry)
	}
	return logs, nil
}

func (s *Store) withProductNamesLocked(src *domain.Transaction) *domain.Transaction {
	tx := cloneTransaction(src)
	for i := range tx.Items {
		tx.Items[i].ProductName = s.itemNameLocked(tx.Items[i])
	}
	return tx
}

func (s *Store) itemNameLocked(item domain.TransactionItem) string {
	if item.ProductID != nil {
		if product, ok := s.products[*item.ProductID]; ok {
			return product.Name
		}
	}
	return item.CustomName
}

func sortProducts(products []domain.Product) {
	slices.SortFunc(products, func(a, b domain.Product) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func cloneTransaction(src *domain.Transaction) *domain.Transaction {
	if src == nil {
		return nil
	}
	dst := *src
	dst.Items = make([]domain.TransactionItem, len(src.Items))
	copy(dst.Items, src.Items)
	if src.OriginalTransactionID != nil {
		id := *src.OriginalTransactionID
		dst.OriginalTransactionID = &id
	}
	return &dst
}

func cloneDailyReport(src *domain.DailyReport) *domain.DailyReport {
	dst := *src
	dst.LotteryTransactions = slices.Clone(src.LotteryTransactions)
	dst.CashTransactions = slices.Clone(src.CashTransactions)
	if dst.LotteryTransactions == nil {
		dst.LotteryTransactions = []domain.LotteryTransaction{}
	}
	if dst.CashTransactions == nil {
		dst.CashTransactions = []domain.CashTransaction{}
	}
	return &dst
}
