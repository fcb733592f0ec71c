package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"tillpos/backend/internal/domain"
)

type addToCartRequest struct {
	ProductID   int64            `json:"product_id" binding:"required"`
	Quantity    int              `json:"quantity"`
	CustomPrice *decimal.Decimal `json:"custom_price"`
}

type addByCodeRequest struct {
	Code     string `json:"code" binding:"required"`
	Quantity int    `json:"quantity"`
}

type addCustomItemRequest struct {
	Name     string          `json:"name" binding:"required"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type priceRequest struct {
	Price decimal.Decimal `json:"price"`
}

type taxRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type quickAccessRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
}

// quantityOrOne treats an omitted quantity on add requests as one unit.
func quantityOrOne(q int) int {
	if q == 0 {
		return 1
	}
	return q
}

func (a *API) handleDashboard(c *gin.Context) {
	dash, err := a.service.Dashboard(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dashboard": dash})
}

func (a *API) handleListProducts(c *gin.Context) {
	products, err := a.service.ListProducts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (a *API) handleSearchProducts(c *gin.Context) {
	products, err := a.service.SearchProducts(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (a *API) handleAutocomplete(c *gin.Context) {
	products, err := a.service.Autocomplete(c.Request.Context(), c.Query("term"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (a *API) handleGetProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	product, err := a.service.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

func (a *API) handleCreateProduct(c *gin.Context) {
	var input domain.ProductInput
	if !bindJSON(c, &input) {
		return
	}
	product, err := a.service.CreateProduct(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": product})
}

func (a *API) handleUpdateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input domain.ProductInput
	if !bindJSON(c, &input) {
		return
	}
	product, err := a.service.UpdateProduct(c.Request.Context(), id, input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

func (a *API) handleDeleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := a.service.DeleteProduct(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) handleGetCart(c *gin.Context) {
	view, err := a.service.GetCart(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": view})
}

func (a *API) handleClearCart(c *gin.Context) {
	view, err := a.service.ClearCart(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": view})
}

func (a *API) handleAddToCart(c *gin.Context) {
	var req addToCartRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := a.service.AddToCart(c.Request.Context(), req.ProductID, quantityOrOne(req.Quantity), req.CustomPrice)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": view})
}

func (a *API) handleAddByCode(c *gin.Context) {
	var req addByCodeRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := a.service.AddByCode(c.Request.Context(), req.Code, quantityOrOne(req.Quantity))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": view})
}

func (a *API) handleAddCustomItem(c *gin.Context) {
	var req addCustomItemRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := a.service.AddCustomItem(c.Request.Context(), req.Name, req.Price, quantityOrOne(req.Quantity))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": view})
}

func (a *API) handleUpdateCartQuantity(c *gin.Context) {
	var req quantityRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := a.service.UpdateCartQuantity(c.Request.Context(), c.Param("ref"), req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": view})
}

func (a *API) handleUpdateCartPrice(c *gin.Context) {
	var req priceRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := a.service.UpdateCartPrice(c.Request.Context(), c.Param("ref"), req.Price)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": view})
}

func (a *API) handleRemoveFromCart(c *gin.Context) {
	view, err := a.service.RemoveFromCart(c.Request.Context(), c.Param("ref"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": view})
}

func (a *API) handleSetTax(c *gin.Context) {
	var req taxRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := a.service.SetTaxApplied(c.Request.Context(), *req.Enabled)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": view})
}

func (a *API) handleCheckout(c *gin.Context) {
	var req domain.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}
	receipt, err := a.service.Checkout(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"receipt": receipt})
}

func (a *API) handleGetTransaction(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tx, err := a.service.GetTransaction(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

func (a *API) handleGetReceipt(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	receipt, err := a.service.GetReceipt(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipt": receipt})
}

func (a *API) handleReturnableItems(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	items, err := a.service.ReturnableItems(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction_id": id, "items": items})
}

func (a *API) handleProcessReturn(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req domain.ReturnRequest
	if !bindJSON(c, &req) {
		return
	}
	tx, err := a.service.ProcessReturn(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transaction": tx})
}

func (a *API) handleListQuickAccess(c *gin.Context) {
	slots, err := a.service.ListQuickAccess(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

func (a *API) handleSetQuickAccess(c *gin.Context) {
	position, ok := pathPosition(c)
	if !ok {
		return
	}
	var req quickAccessRequest
	if !bindJSON(c, &req) {
		return
	}
	slots, err := a.service.SetQuickAccess(c.Request.Context(), position, req.ProductID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

func (a *API) handleClearQuickAccess(c *gin.Context) {
	position, ok := pathPosition(c)
	if !ok {
		return
	}
	slots, err := a.service.ClearQuickAccess(c.Request.Context(), position)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

func (a *API) handleAddFromQuickAccess(c *gin.Context) {
	position, ok := pathPosition(c)
	if !ok {
		return
	}
	view, err := a.service.AddFromQuickAccess(c.Request.Context(), position)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": view})
}

// pathPosition parses the slot number; range checks are the service's.
func pathPosition(c *gin.Context) (int, bool) {
	position, err := strconv.Atoi(c.Param("position"))
	if err != nil {
		writeError(c, domain.NewValidationError("position", "must be a number"))
		return 0, false
	}
	return position, true
}
