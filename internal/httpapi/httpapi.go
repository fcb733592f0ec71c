package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	limitermemory "github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"

	"tillpos/backend/internal/cart"
	"tillpos/backend/internal/domain"
	"tillpos/backend/internal/service"
	"tillpos/backend/internal/store"
	"tillpos/backend/internal/xid"
)

const (
	maxBodyBytes = 1 << 20
	actorKey     = "actor"
	loggerKey    = "logger"
)

type Options struct {
	AllowedOrigin string
	// LoginRateLimit uses the limiter format, e.g. "5-M" for five per minute.
	LoginRateLimit string
}

type API struct {
	service       *service.Service
	auth          *AuthManager
	logger        *zap.Logger
	allowedOrigin string
	loginLimiter  *limiter.Limiter
}

func New(svc *service.Service, auth *AuthManager, logger *zap.Logger, opts Options) (*API, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(opts.LoginRateLimit) == "" {
		opts.LoginRateLimit = "5-M"
	}
	rate, err := limiter.NewRateFromFormatted(opts.LoginRateLimit)
	if err != nil {
		return nil, fmt.Errorf("parse login rate limit %q: %w", opts.LoginRateLimit, err)
	}

	return &API{
		service:       svc,
		auth:          auth,
		logger:        logger.Named("http"),
		allowedOrigin: strings.TrimSpace(opts.AllowedOrigin),
		loginLimiter:  limiter.New(limitermemory.NewStore(), rate),
	}, nil
}

func (a *API) Handler() http.Handler {
	r := gin.New()
	_ = r.SetTrustedProxies(nil)
	r.HandleMethodNotAllowed = true

	r.Use(
		a.withRequestLogger(),
		gin.CustomRecovery(a.recoverPanic),
		securityHeaders(),
		cors.New(a.corsConfig()),
		limitBody(maxBodyBytes),
	)
	r.NoRoute(func(c *gin.Context) {
		abortWithError(c, http.StatusNotFound, errors.New("route not found"))
	})
	r.NoMethod(func(c *gin.Context) {
		abortWithError(c, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	})

	r.GET("/healthz", a.handleHealth)

	v1 := r.Group("/api/v1")
	v1.POST("/auth/login", rateLimit(a.loginLimiter), a.handleLogin)

	authed := v1.Group("", a.requireAuth())
	authed.GET("/dashboard", a.handleDashboard)

	products := authed.Group("/products")
	products.GET("", a.handleListProducts)
	products.POST("", a.handleCreateProduct)
	products.GET("/search", a.handleSearchProducts)
	products.GET("/autocomplete", a.handleAutocomplete)
	products.GET("/:id", a.handleGetProduct)
	products.PUT("/:id", a.handleUpdateProduct)
	products.DELETE("/:id", a.handleDeleteProduct)

	cartRoutes := authed.Group("/cart")
	cartRoutes.GET("", a.handleGetCart)
	cartRoutes.DELETE("", a.handleClearCart)
	cartRoutes.POST("/items", a.handleAddToCart)
	cartRoutes.POST("/items/custom", a.handleAddCustomItem)
	cartRoutes.POST("/items/code", a.handleAddByCode)
	cartRoutes.POST("/items/:ref/quantity", a.handleUpdateCartQuantity)
	cartRoutes.POST("/items/:ref/price", a.handleUpdateCartPrice)
	cartRoutes.DELETE("/items/:ref", a.handleRemoveFromCart)
	cartRoutes.POST("/tax", a.handleSetTax)

	authed.POST("/checkout", a.handleCheckout)
	authed.GET("/transactions/:id", a.handleGetTransaction)
	authed.GET("/transactions/:id/receipt", a.handleGetReceipt)
	authed.GET("/returns/:id", a.handleReturnableItems)
	authed.POST("/returns/:id", a.handleProcessReturn)

	quick := authed.Group("/quick-access")
	quick.GET("", a.handleListQuickAccess)
	quick.PUT("/:position", a.handleSetQuickAccess)
	quick.DELETE("/:position", a.handleClearQuickAccess)
	quick.POST("/:position/cart", a.handleAddFromQuickAccess)

	authed.GET("/reports/sales", a.handleSalesReport)
	authed.GET("/reports/inventory", a.handleInventoryReport)

	daily := authed.Group("/daily-reports")
	daily.GET("", a.handleListDailyReports)
	daily.POST("", a.handleCreateDailyReport)
	daily.GET("/export.csv", a.handleExportDailyReports)
	daily.GET("/:id", a.handleGetDailyReport)
	daily.PUT("/:id", a.handleUpdateDailyReport)
	daily.DELETE("/:id", a.handleDeleteDailyReport)
	daily.GET("/:id/export.csv", a.handleExportDailyReport)
	daily.POST("/:id/lottery", a.handleAddLotteryTransaction)
	daily.DELETE("/:id/lottery/:entryID", a.handleDeleteLotteryTransaction)
	daily.POST("/:id/cash", a.handleAddCashTransaction)
	daily.DELETE("/:id/cash/:entryID", a.handleDeleteCashTransaction)

	users := authed.Group("/users")
	users.GET("", a.handleListUsers)
	users.POST("", a.handleCreateUser)
	users.PUT("/:id", a.handleUpdateUser)
	users.DELETE("/:id", a.handleDeleteUser)

	authed.GET("/audit-logs", a.handleAuditLogs)

	return r
}

func (a *API) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "Origin"},
		ExposeHeaders: []string{"Content-Length", "Content-Type", "Content-Disposition", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if a.allowedOrigin == "" || a.allowedOrigin == "*" {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = []string{a.allowedOrigin}
	cfg.AllowCredentials = true
	return cfg
}

// withRequestLogger tags each request with an id and a child logger, then
// logs the outcome once the handler chain returns.
func (a *API) withRequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader("X-Request-ID")
		if !xid.Valid("req", requestID) {
			requestID = xid.New("req")
		}

		logger := a.logger.With(
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		c.Header("X-Request-ID", requestID)
		c.Set(loggerKey, logger)

		c.Next()

		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if actor, ok := c.Get(actorKey); ok {
			fields = append(fields, zap.String("user", actor.(domain.Actor).Username))
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("request completed", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("request completed", fields...)
		default:
			logger.Info("request completed", fields...)
		}
	}
}

func (a *API) recoverPanic(c *gin.Context, recovered any) {
	requestLogger(c).Error("panic in handler", zap.Any("panic", recovered), zap.Stack("stack"))
	abortWithError(c, http.StatusInternalServerError, errors.New("panic"))
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}

func limitBody(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

func requestLogger(c *gin.Context) *zap.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if logger, ok := v.(*zap.Logger); ok {
			return logger
		}
	}
	return zap.L()
}

func (a *API) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

// bindJSON decodes the body into dest and writes the error response itself
// when it cannot.
func bindJSON(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			abortWithError(c, http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds %d bytes", maxErr.Limit))
			return false
		}
		abortWithError(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		abortWithError(c, http.StatusBadRequest, fmt.Errorf("%s must be a positive integer", name))
		return 0, false
	}
	return id, true
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	if parsed, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && parsed > 0 {
		limit = parsed
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

// statusFor maps service and store errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, store.ErrNotFound), errors.Is(err, cart.ErrLineNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrOverReturn):
		return http.StatusConflict
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrInsufficientPayment),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrNothingToReturn),
		errors.Is(err, store.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{"error": err.Error()}

	var verr *domain.ValidationError
	var stockErr *domain.InsufficientStockError
	var overErr *domain.OverReturnError
	switch {
	case status >= http.StatusInternalServerError:
		requestLogger(c).Error("request failed", zap.Error(err))
		body["error"] = "internal server error"
		if errors.Is(err, domain.ErrTransactionFailed) {
			body["error"] = domain.ErrTransactionFailed.Error()
		}
	case errors.As(err, &verr):
		body["error"] = domain.ErrValidation.Error()
		body["fields"] = verr.Fields
	case errors.As(err, &stockErr):
		body["product_id"] = stockErr.ProductID
		body["available"] = stockErr.Available
		body["requested"] = stockErr.Requested
	case errors.As(err, &overErr):
		body["item_id"] = overErr.ItemID
		body["returnable"] = overErr.Returnable
	}
	c.AbortWithStatusJSON(status, body)
}

func abortWithError(c *gin.Context, status int, err error) {
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		requestLogger(c).Error("request failed", zap.Int("status", status), zap.Error(err))
		msg = "internal server error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
