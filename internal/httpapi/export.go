package httpapi

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"tillpos/backend/internal/domain"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func writeSalesReportCSV(w io.Writer, report domain.SalesReport) error {
	cw := csv.NewWriter(w)
	rows := [][]string{{"transaction_id", "created_at", "cashier", "payment_method", "items", "subtotal", "tax", "discount", "total"}}
	for _, tx := range report.Transactions {
		units := 0
		for _, item := range tx.Items {
			units += item.Quantity
		}
		rows = append(rows, []string{
			strconv.FormatInt(tx.ID, 10),
			tx.CreatedAt.UTC().Format(time.RFC3339),
			tx.Username,
			tx.PaymentMethod,
			strconv.Itoa(units),
			money(tx.Subtotal),
			money(tx.TaxAmount),
			money(tx.DiscountAmount),
			money(tx.TotalAmount),
		})
	}
	rows = append(rows,
		[]string{},
		[]string{"total_sales", money(report.TotalSales)},
		[]string{"total_returns", money(report.TotalReturns)},
		[]string{"net_sales", money(report.NetSales)},
		[]string{"sale_count", strconv.Itoa(report.SaleCount)},
		[]string{"return_count", strconv.Itoa(report.ReturnCount)},
	)
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

var dailyReportColumns = []string{
	"date", "opening_cash_balance", "closing_cash_balance", "cash_sales", "card_sales",
	"lottery_sales", "confectionery_sales", "tobacco_sales", "lottery_payouts", "lottery_commission",
	"restocking_costs", "miscellaneous_expenses", "cash_deposits",
	"total_sales", "net_lottery", "expected_closing_cash", "cash_variance", "created_by", "notes",
}

func dailyReportRow(view domain.DailyReportView) []string {
	r, s := view.Report, view.Summary
	return []string{
		r.ReportDate.Format(time.DateOnly),
		money(r.OpeningCashBalance),
		money(r.ClosingCashBalance),
		money(r.CashSales),
		money(r.CardSales),
		money(r.LotterySales),
		money(r.ConfectionerySales),
		money(r.TobaccoSales),
		money(r.LotteryPayouts),
		money(r.LotteryCommission),
		money(r.RestockingCosts),
		money(r.MiscellaneousExpenses),
		money(r.CashDeposits),
		money(s.TotalSales),
		money(s.NetLottery),
		money(s.ExpectedClosingCash),
		money(s.CashVariance),
		r.CreatedBy,
		r.Notes,
	}
}

// writeDailyReportsCSV writes one row per report.
func writeDailyReportsCSV(w io.Writer, views []domain.DailyReportView) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(dailyReportColumns); err != nil {
		return err
	}
	for _, view := range views {
		if err := cw.Write(dailyReportRow(view)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeDailyReportCSV writes a single report as section,key,value rows
// followed by its lottery and cash entries.
func writeDailyReportCSV(w io.Writer, view domain.DailyReportView) error {
	cw := csv.NewWriter(w)
	rows := [][]string{{"section", "key", "value"}}
	for i, value := range dailyReportRow(view) {
		rows = append(rows, []string{"report", dailyReportColumns[i], value})
	}
	for _, entry := range view.Report.LotteryTransactions {
		rows = append(rows, []string{
			"lottery",
			entry.Type + ":" + entry.TicketNumber,
			money(entry.Amount),
		})
	}
	for _, entry := range view.Report.CashTransactions {
		rows = append(rows, []string{
			"cash",
			entry.Type + ":" + entry.Description,
			money(entry.Amount),
		})
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
