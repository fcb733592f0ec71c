package store

import (
	"context"
	"errors"
	"time"

	"tillpos/backend/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)

type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	SearchProducts(ctx context.Context, term string, limit int) ([]domain.Product, error)
	ListLowStockProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	FindProductByCode(ctx context.Context, code string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	// CreateSale decrements stock for every inventory line and stores the
	// transaction in one commit. A line that cannot be fulfilled aborts the
	// whole sale with *domain.InsufficientStockError.
	CreateSale(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error)
	// CreateReturn stores a reversing transaction and restocks its lines in
	// one commit. Each line's ReturnedFromItemID must belong to the original
	// transaction; requesting more than is still returnable fails with
	// *domain.OverReturnError.
	CreateReturn(ctx context.Context, ret domain.Transaction) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error)
	GetReturnedQuantities(ctx context.Context, transactionID int64) (map[int64]int, error)

	ListQuickAccess(ctx context.Context) ([]domain.QuickAccessSlot, error)
	UpsertQuickAccess(ctx context.Context, position int, productID int64) error
	DeleteQuickAccess(ctx context.Context, position int) error

	CreateDailyReport(ctx context.Context, report domain.DailyReport) (*domain.DailyReport, error)
	UpdateDailyReport(ctx context.Context, report domain.DailyReport) (*domain.DailyReport, error)
	GetDailyReport(ctx context.Context, id int64) (*domain.DailyReport, error)
	ListDailyReports(ctx context.Context, from time.Time, to time.Time) ([]domain.DailyReport, error)
	DeleteDailyReport(ctx context.Context, id int64) error
	AddLotteryTransaction(ctx context.Context, entry domain.LotteryTransaction) (*domain.LotteryTransaction, error)
	DeleteLotteryTransaction(ctx context.Context, reportID int64, entryID int64) error
	AddCashTransaction(ctx context.Context, entry domain.CashTransaction) (*domain.CashTransaction, error)
	DeleteCashTransaction(ctx context.Context, reportID int64, entryID int64) error

	CreateUser(ctx context.Context, user domain.UserAccount) (*domain.UserAccount, error)
	UpdateUser(ctx context.Context, user domain.UserAccount) (*domain.UserAccount, error)
	GetUser(ctx context.Context, id int64) (*domain.UserAccount, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error)
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	DeleteUser(ctx context.Context, id int64) error

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)
}
