package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tillpos/backend/internal/domain"
	"tillpos/backend/internal/store"
)

// SalesReport lists sales and returns in [from, to). Either bound may be
// nil. Return totals are reported separately and subtracted for net sales.
func (s *Service) SalesReport(ctx context.Context, from *time.Time, to *time.Time) (domain.SalesReport, error) {
	if _, err := s.authorize(ctx, CapViewReports); err != nil {
		return domain.SalesReport{}, err
	}
	if from != nil && to != nil && !from.Before(*to) {
		return domain.SalesReport{}, domain.NewValidationError("to", "must be after from")
	}

	txs, err := s.repo.ListTransactions(ctx, domain.TransactionFilter{From: from, To: to, IncludeReturns: true})
	if err != nil {
		return domain.SalesReport{}, err
	}

	report := domain.SalesReport{
		From:         from,
		To:           to,
		Transactions: make([]domain.Transaction, 0, len(txs)),
		TotalSales:   decimal.Zero,
		TotalReturns: decimal.Zero,
	}
	for _, tx := range txs {
		if tx.IsReturn {
			report.TotalReturns = report.TotalReturns.Add(tx.TotalAmount)
			report.ReturnCount++
			continue
		}
		report.Transactions = append(report.Transactions, tx)
		report.TotalSales = report.TotalSales.Add(tx.TotalAmount)
		report.SaleCount++
	}
	report.NetSales = report.TotalSales.Sub(report.TotalReturns)
	return report, nil
}

func (s *Service) InventoryReport(ctx context.Context) (domain.InventoryReport, error) {
	if _, err := s.authorize(ctx, CapViewReports); err != nil {
		return domain.InventoryReport{}, err
	}

	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.InventoryReport{}, err
	}

	report := domain.InventoryReport{
		Lines:      make([]domain.InventoryReportLine, 0, len(products)),
		TotalValue: decimal.Zero,
	}
	for _, p := range products {
		value := p.Price.Mul(decimal.NewFromInt(int64(p.Quantity)))
		line := domain.InventoryReportLine{Product: p, StockValue: value, LowStock: p.IsLowStock()}
		report.Lines = append(report.Lines, line)
		report.TotalUnits += p.Quantity
		report.TotalValue = report.TotalValue.Add(value)
		if line.LowStock {
			report.LowStockCount++
		}
	}
	return report, nil
}

// Dashboard shows low-stock products to managers and, while the cart is
// empty, the user's most recent sale.
func (s *Service) Dashboard(ctx context.Context) (domain.Dashboard, error) {
	actor, err := s.authorize(ctx, CapSell)
	if err != nil {
		return domain.Dashboard{}, err
	}

	dash := domain.Dashboard{LowStock: []domain.Product{}}
	if Can(actor.Role, CapViewReports) {
		low, err := s.repo.ListLowStockProducts(ctx)
		if err != nil {
			return domain.Dashboard{}, err
		}
		dash.LowStock = low
	}

	sess, err := s.loadSession(ctx, actor)
	if err != nil {
		return domain.Dashboard{}, err
	}
	dash.CartLines = len(sess.Cart.Lines)
	if sess.Cart.IsEmpty() && sess.LastTransactionID != 0 {
		last, err := s.repo.GetTransaction(ctx, sess.LastTransactionID)
		switch {
		case err == nil:
			dash.LastTransaction = last
		case errors.Is(err, store.ErrNotFound):
		default:
			s.logger.Warn("failed to load last transaction", zap.Int64("transaction_id", sess.LastTransactionID), zap.Error(err))
		}
	}
	return dash, nil
}
