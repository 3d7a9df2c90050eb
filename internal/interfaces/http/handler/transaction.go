package handler

import (
	"github.com/fpm2025/finance-tracker/internal/application/ledger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransactionHandler handles ledger transaction HTTP requests
type TransactionHandler struct {
	BaseHandler
	transactionService *ledger.TransactionService
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(transactionService *ledger.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

// CreateTransaction godoc
// @ID           createTransaction
// @Summary      Record a transaction
// @Description  Record an income or expense transaction against a wallet
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        request body ledger.CreateTransactionRequest true "Transaction data"
// @Success      201 {object} APIResponse[ledger.TransactionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /ledger/transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	var req ledger.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.transactionService.CreateTransaction(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// UpdateTransaction godoc
// @ID           updateTransaction
// @Summary      Update a transaction
// @Description  Modify amount, type, category or date of a recorded transaction
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        id path string true "Transaction ID" format(uuid)
// @Param        request body ledger.UpdateTransactionRequest true "Updated transaction data"
// @Success      200 {object} APIResponse[ledger.TransactionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /ledger/transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID")
		return
	}

	var req ledger.UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.transactionService.UpdateTransaction(c.Request.Context(), userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// DeleteTransaction godoc
// @ID           deleteTransaction
// @Summary      Delete a transaction
// @Description  Delete a transaction and queue the reversal of its effects
// @Tags         ledger
// @Produce      json
// @Param        id path string true "Transaction ID" format(uuid)
// @Success      204 "No Content"
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /ledger/transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID")
		return
	}

	if err := h.transactionService.DeleteTransaction(c.Request.Context(), userID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// GetTransaction godoc
// @ID           getTransaction
// @Summary      Get a transaction by ID
// @Tags         ledger
// @Produce      json
// @Param        id path string true "Transaction ID" format(uuid)
// @Success      200 {object} APIResponse[ledger.TransactionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /ledger/transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID")
		return
	}

	resp, err := h.transactionService.GetTransaction(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// ListTransactions godoc
// @ID           listTransactions
// @Summary      List transactions
// @Description  Get a paginated transaction list with wallet, category, type and date filters
// @Tags         ledger
// @Produce      json
// @Param        wallet_id query string false "Filter by wallet" format(uuid)
// @Param        category_id query string false "Filter by category" format(uuid)
// @Param        type query string false "Filter by type" Enums(INCOME, EXPENSE)
// @Param        from_date query string false "Start date (YYYY-MM-DD)"
// @Param        to_date query string false "End date (YYYY-MM-DD)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]ledger.TransactionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /ledger/transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	var filter ledger.TransactionListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}

	transactions, total, err := h.transactionService.ListTransactions(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, transactions, total, filter.Page, filter.PageSize)
}

// RegisterRoutes registers all ledger transaction routes
func (h *TransactionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	transactions := rg.Group("/ledger/transactions")
	{
		transactions.GET("", h.ListTransactions)
		transactions.GET("/:id", h.GetTransaction)
		transactions.POST("", h.CreateTransaction)
		transactions.PUT("/:id", h.UpdateTransaction)
		transactions.DELETE("/:id", h.DeleteTransaction)
	}
}
