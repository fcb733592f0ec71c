package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tillpos/backend/internal/domain"
)

const csvContentType = "text/csv; charset=utf-8"

// dateRange reads ?from= and ?to= as inclusive calendar days and returns
// the half-open interval the store expects.
func dateRange(c *gin.Context) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if raw := c.Query("from"); raw != "" {
		day, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return nil, nil, domain.NewValidationError("from", "must be a date in 2006-01-02 format")
		}
		from = &day
	}
	if raw := c.Query("to"); raw != "" {
		day, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return nil, nil, domain.NewValidationError("to", "must be a date in 2006-01-02 format")
		}
		next := day.AddDate(0, 0, 1)
		to = &next
	}
	return from, to, nil
}

func sendCSV(c *gin.Context, filename string, write func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, csvContentType, buf.Bytes())
}

func (a *API) handleSalesReport(c *gin.Context) {
	from, to, err := dateRange(c)
	if err != nil {
		writeError(c, err)
		return
	}
	report, err := a.service.SalesReport(c.Request.Context(), from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	if c.Query("format") == "csv" {
		sendCSV(c, "sales-report.csv", func(buf *bytes.Buffer) error {
			return writeSalesReportCSV(buf, report)
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

func (a *API) handleInventoryReport(c *gin.Context) {
	report, err := a.service.InventoryReport(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

func (a *API) handleListDailyReports(c *gin.Context) {
	views, err := a.service.ListDailyReports(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": views})
}

func (a *API) handleExportDailyReports(c *gin.Context) {
	views, err := a.service.ListDailyReports(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		writeError(c, err)
		return
	}
	sendCSV(c, "daily-reports.csv", func(buf *bytes.Buffer) error {
		return writeDailyReportsCSV(buf, views)
	})
}

func (a *API) handleGetDailyReport(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := a.service.GetDailyReport(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": view})
}

func (a *API) handleExportDailyReport(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := a.service.GetDailyReport(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	filename := "daily-report-" + view.Report.ReportDate.Format(time.DateOnly) + ".csv"
	sendCSV(c, filename, func(buf *bytes.Buffer) error {
		return writeDailyReportCSV(buf, view)
	})
}

func (a *API) handleCreateDailyReport(c *gin.Context) {
	var input domain.DailyReportInput
	if !bindJSON(c, &input) {
		return
	}
	view, err := a.service.CreateDailyReport(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"report": view})
}

func (a *API) handleUpdateDailyReport(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input domain.DailyReportInput
	if !bindJSON(c, &input) {
		return
	}
	view, err := a.service.UpdateDailyReport(c.Request.Context(), id, input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": view})
}

func (a *API) handleDeleteDailyReport(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := a.service.DeleteDailyReport(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) handleAddLotteryTransaction(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input domain.LotteryTransactionInput
	if !bindJSON(c, &input) {
		return
	}
	view, err := a.service.AddLotteryTransaction(c.Request.Context(), id, input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"report": view})
}

func (a *API) handleDeleteLotteryTransaction(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	entryID, ok := pathID(c, "entryID")
	if !ok {
		return
	}
	view, err := a.service.DeleteLotteryTransaction(c.Request.Context(), id, entryID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": view})
}

func (a *API) handleAddCashTransaction(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input domain.CashTransactionInput
	if !bindJSON(c, &input) {
		return
	}
	view, err := a.service.AddCashTransaction(c.Request.Context(), id, input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"report": view})
}

func (a *API) handleDeleteCashTransaction(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	entryID, ok := pathID(c, "entryID")
	if !ok {
		return
	}
	view, err := a.service.DeleteCashTransaction(c.Request.Context(), id, entryID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": view})
}

func (a *API) handleListUsers(c *gin.Context) {
	users, err := a.service.ListUsers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (a *API) handleCreateUser(c *gin.Context) {
	var input domain.UserInput
	if !bindJSON(c, &input) {
		return
	}
	user, err := a.service.CreateUser(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

func (a *API) handleUpdateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input domain.UserInput
	if !bindJSON(c, &input) {
		return
	}
	user, err := a.service.UpdateUser(c.Request.Context(), id, input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (a *API) handleDeleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := a.service.DeleteUser(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) handleAuditLogs(c *gin.Context) {
	limit := parsePositiveLimit(c.Query("limit"), 100, 500)
	logs, err := a.service.ListAuditLogs(c.Request.Context(), c.Query("date"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audit_logs": logs})
}
