package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tillpos/backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Summarize derives the reconciliation figures of a daily report.
//
// Expected closing cash starts from the opening float, adds cash takings
// and lottery sales, subtracts lottery payouts, restocking, miscellaneous
// expenses and bank deposits, then applies the report's cash sub-records.
func Summarize(r domain.DailyReport) domain.DailyReportSummary {
	totalSales := r.CashSales.Add(r.CardSales).Add(r.LotterySales)
	netLottery := r.LotterySales.Sub(r.LotteryPayouts).Add(r.LotteryCommission)

	expected := r.OpeningCashBalance.
		Add(r.CashSales).
		Add(r.LotterySales).
		Sub(r.LotteryPayouts).
		Sub(r.RestockingCosts).
		Sub(r.MiscellaneousExpenses).
		Sub(r.CashDeposits)
	for _, entry := range r.CashTransactions {
		switch entry.Type {
		case domain.CashDeposit:
			expected = expected.Add(entry.Amount)
		case domain.CashWithdrawal, domain.CashExpense:
			expected = expected.Sub(entry.Amount)
		}
	}

	return domain.DailyReportSummary{
		TotalSales:          totalSales.Round(2),
		NetLottery:          netLottery.Round(2),
		ExpectedClosingCash: expected.Round(2),
		CashVariance:        r.ClosingCashBalance.Sub(expected).Round(2),
	}
}

func viewOfReport(r domain.DailyReport) domain.DailyReportView {
	return domain.DailyReportView{Report: r, Summary: Summarize(r)}
}

func (s *Service) ListDailyReports(ctx context.Context, from string, to string) ([]domain.DailyReportView, error) {
	if _, err := s.authorize(ctx, CapManageDailyReport); err != nil {
		return nil, err
	}

	end := s.now()
	if strings.TrimSpace(to) != "" {
		parsed, err := time.Parse(time.DateOnly, to)
		if err != nil {
			return nil, domain.NewValidationError("to", "must be a date in 2006-01-02 format")
		}
		end = parsed
	}
	start := end.AddDate(0, 0, -30)
	if strings.TrimSpace(from) != "" {
		parsed, err := time.Parse(time.DateOnly, from)
		if err != nil {
			return nil, domain.NewValidationError("from", "must be a date in 2006-01-02 format")
		}
		start = parsed
	}
	if start.After(end) {
		return nil, domain.NewValidationError("from", "must not be after to")
	}

	reports, err := s.repo.ListDailyReports(ctx, start, end)
	if err != nil {
		return nil, err
	}
	views := make([]domain.DailyReportView, 0, len(reports))
	for _, r := range reports {
		views = append(views, viewOfReport(r))
	}
	return views, nil
}

func (s *Service) GetDailyReport(ctx context.Context, id int64) (domain.DailyReportView, error) {
	if _, err := s.authorize(ctx, CapManageDailyReport); err != nil {
		return domain.DailyReportView{}, err
	}
	report, err := s.repo.GetDailyReport(ctx, id)
	if err != nil {
		return domain.DailyReportView{}, err
	}
	return viewOfReport(*report), nil
}

func (s *Service) CreateDailyReport(ctx context.Context, input domain.DailyReportInput) (domain.DailyReportView, error) {
	actor, err := s.authorize(ctx, CapManageDailyReport)
	if err != nil {
		return domain.DailyReportView{}, err
	}
	report, err := s.reportFromInput(input)
	if err != nil {
		return domain.DailyReportView{}, err
	}
	report.CreatedBy = actor.Username

	created, err := s.repo.CreateDailyReport(ctx, report)
	if err != nil {
		return domain.DailyReportView{}, err
	}
	s.logAudit(ctx, "daily_report_create", "daily_report", strconv.FormatInt(created.ID, 10), "date="+input.Date)
	return viewOfReport(*created), nil
}

func (s *Service) UpdateDailyReport(ctx context.Context, id int64, input domain.DailyReportInput) (domain.DailyReportView, error) {
	if _, err := s.authorize(ctx, CapManageDailyReport); err != nil {
		return domain.DailyReportView{}, err
	}
	report, err := s.reportFromInput(input)
	if err != nil {
		return domain.DailyReportView{}, err
	}
	report.ID = id

	updated, err := s.repo.UpdateDailyReport(ctx, report)
	if err != nil {
		return domain.DailyReportView{}, err
	}
	s.logAudit(ctx, "daily_report_update", "daily_report", strconv.FormatInt(id, 10), "date="+input.Date)
	return viewOfReport(*updated), nil
}

func (s *Service) DeleteDailyReport(ctx context.Context, id int64) error {
	if _, err := s.authorize(ctx, CapManageDailyReport); err != nil {
		return err
	}
	if err := s.repo.DeleteDailyReport(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "daily_report_delete", "daily_report", strconv.FormatInt(id, 10), "")
	return nil
}

func (s *Service) AddLotteryTransaction(ctx context.Context, reportID int64, input domain.LotteryTransactionInput) (domain.DailyReportView, error) {
	if _, err := s.authorize(ctx, CapManageDailyReport); err != nil {
		return domain.DailyReportView{}, err
	}
	input.Type = strings.ToLower(strings.TrimSpace(input.Type))
	input.TicketNumber = strings.TrimSpace(input.TicketNumber)

	verr, err := s.collectValidation(input)
	if err != nil {
		return domain.DailyReportView{}, err
	}
	nonNegative(verr, map[string]decimal.Decimal{"amount": input.Amount, "commission_rate": input.CommissionRate})
	if input.CommissionRate.GreaterThan(hundred) {
		verr.Fields = append(verr.Fields, domain.FieldError{Field: "commission_rate", Message: "must be at most 100"})
	}
	if len(verr.Fields) > 0 {
		return domain.DailyReportView{}, verr
	}

	entry, err := s.repo.AddLotteryTransaction(ctx, domain.LotteryTransaction{
		DailyReportID:  reportID,
		Type:           input.Type,
		Amount:         input.Amount.Round(2),
		TicketNumber:   input.TicketNumber,
		CommissionRate: input.CommissionRate.Round(2),
		CreatedAt:      s.now(),
	})
	if err != nil {
		return domain.DailyReportView{}, err
	}
	s.logAudit(ctx, "lottery_add", "daily_report", strconv.FormatInt(reportID, 10),
		fmt.Sprintf("entry=%d,type=%s,amount=%s", entry.ID, entry.Type, entry.Amount.StringFixed(2)))
	return s.GetDailyReport(ctx, reportID)
}

func (s *Service) DeleteLotteryTransaction(ctx context.Context, reportID int64, entryID int64) (domain.DailyReportView, error) {
	if _, err := s.authorize(ctx, CapManageDailyReport); err != nil {
		return domain.DailyReportView{}, err
	}
	if err := s.repo.DeleteLotteryTransaction(ctx, reportID, entryID); err != nil {
		return domain.DailyReportView{}, err
	}
	s.logAudit(ctx, "lottery_delete", "daily_report", strconv.FormatInt(reportID, 10), fmt.Sprintf("entry=%d", entryID))
	return s.GetDailyReport(ctx, reportID)
}

func (s *Service) AddCashTransaction(ctx context.Context, reportID int64, input domain.CashTransactionInput) (domain.DailyReportView, error) {
	if _, err := s.authorize(ctx, CapManageDailyReport); err != nil {
		return domain.DailyReportView{}, err
	}
	input.Type = strings.ToLower(strings.TrimSpace(input.Type))
	input.Description = strings.TrimSpace(input.Description)

	verr, err := s.collectValidation(input)
	if err != nil {
		return domain.DailyReportView{}, err
	}
	nonNegative(verr, map[string]decimal.Decimal{"amount": input.Amount})
	if len(verr.Fields) > 0 {
		return domain.DailyReportView{}, verr
	}

	entry, err := s.repo.AddCashTransaction(ctx, domain.CashTransaction{
		DailyReportID: reportID,
		Type:          input.Type,
		Amount:        input.Amount.Round(2),
		Description:   input.Description,
		CreatedAt:     s.now(),
	})
	if err != nil {
		return domain.DailyReportView{}, err
	}
	s.logAudit(ctx, "cash_add", "daily_report", strconv.FormatInt(reportID, 10),
		fmt.Sprintf("entry=%d,type=%s,amount=%s", entry.ID, entry.Type, entry.Amount.StringFixed(2)))
	return s.GetDailyReport(ctx, reportID)
}

func (s *Service) DeleteCashTransaction(ctx context.Context, reportID int64, entryID int64) (domain.DailyReportView, error) {
	if _, err := s.authorize(ctx, CapManageDailyReport); err != nil {
		return domain.DailyReportView{}, err
	}
	if err := s.repo.DeleteCashTransaction(ctx, reportID, entryID); err != nil {
		return domain.DailyReportView{}, err
	}
	s.logAudit(ctx, "cash_delete", "daily_report", strconv.FormatInt(reportID, 10), fmt.Sprintf("entry=%d", entryID))
	return s.GetDailyReport(ctx, reportID)
}

func (s *Service) reportFromInput(input domain.DailyReportInput) (domain.DailyReport, error) {
	input.Date = strings.TrimSpace(input.Date)
	input.Notes = strings.TrimSpace(input.Notes)

	verr, err := s.collectValidation(input)
	if err != nil {
		return domain.DailyReport{}, err
	}
	nonNegative(verr, map[string]decimal.Decimal{
		"opening_cash_balance":   input.OpeningCashBalance,
		"closing_cash_balance":   input.ClosingCashBalance,
		"cash_sales":             input.CashSales,
		"card_sales":             input.CardSales,
		"lottery_sales":          input.LotterySales,
		"confectionery_sales":    input.ConfectionerySales,
		"tobacco_sales":          input.TobaccoSales,
		"lottery_payouts":        input.LotteryPayouts,
		"lottery_commission":     input.LotteryCommission,
		"restocking_costs":       input.RestockingCosts,
		"miscellaneous_expenses": input.MiscellaneousExpenses,
		"cash_deposits":          input.CashDeposits,
	})
	if len(verr.Fields) > 0 {
		return domain.DailyReport{}, verr
	}

	date, err := time.Parse(time.DateOnly, input.Date)
	if err != nil {
		return domain.DailyReport{}, domain.NewValidationError("date", "must be a date in 2006-01-02 format")
	}
	return domain.DailyReport{
		ReportDate:            date,
		OpeningCashBalance:    input.OpeningCashBalance.Round(2),
		ClosingCashBalance:    input.ClosingCashBalance.Round(2),
		CashSales:             input.CashSales.Round(2),
		CardSales:             input.CardSales.Round(2),
		LotterySales:          input.LotterySales.Round(2),
		ConfectionerySales:    input.ConfectionerySales.Round(2),
		TobaccoSales:          input.TobaccoSales.Round(2),
		LotteryPayouts:        input.LotteryPayouts.Round(2),
		LotteryCommission:     input.LotteryCommission.Round(2),
		RestockingCosts:       input.RestockingCosts.Round(2),
		MiscellaneousExpenses: input.MiscellaneousExpenses.Round(2),
		CashDeposits:          input.CashDeposits.Round(2),
		Notes:                 input.Notes,
	}, nil
}

// collectValidation runs tag validation and always returns a non-nil
// *domain.ValidationError for callers to append manual checks to.
func (s *Service) collectValidation(v any) (*domain.ValidationError, error) {
	err := s.validateStruct(v)
	if err == nil {
		return &domain.ValidationError{}, nil
	}
	verr, ok := err.(*domain.ValidationError)
	if !ok {
		return nil, err
	}
	return verr, nil
}
