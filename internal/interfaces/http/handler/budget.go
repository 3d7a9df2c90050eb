package handler

import (
	"github.com/fpm2025/finance-tracker/internal/application/budget"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BudgetHandler handles budget and budget alert HTTP requests
type BudgetHandler struct {
	BaseHandler
	budgetService *budget.BudgetService
}

// NewBudgetHandler creates a new budget handler
func NewBudgetHandler(budgetService *budget.BudgetService) *BudgetHandler {
	return &BudgetHandler{
		budgetService: budgetService,
	}
}

// CreateBudget godoc
// @ID           createBudget
// @Summary      Create a budget
// @Description  Create a budget; the spent counter is seeded from expenses already inside the budget window
// @Tags         budgets
// @Accept       json
// @Produce      json
// @Param        request body budget.CreateBudgetRequest true "Budget data"
// @Success      201 {object} APIResponse[budget.BudgetResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /budgets [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	var req budget.CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.budgetService.CreateBudget(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// UpdateBudget godoc
// @ID           updateBudget
// @Summary      Update a budget definition
// @Tags         budgets
// @Accept       json
// @Produce      json
// @Param        id path string true "Budget ID" format(uuid)
// @Param        request body budget.UpdateBudgetRequest true "Updated budget data"
// @Success      200 {object} APIResponse[budget.BudgetResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /budgets/{id} [put]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid budget ID")
		return
	}

	var req budget.UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.budgetService.UpdateBudget(c.Request.Context(), userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// DeactivateBudget godoc
// @ID           deactivateBudget
// @Summary      Deactivate a budget
// @Description  Deactivate a budget so it stops tracking spending. Deactivation is terminal.
// @Tags         budgets
// @Produce      json
// @Param        id path string true "Budget ID" format(uuid)
// @Success      204 "No Content"
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /budgets/{id} [delete]
func (h *BudgetHandler) DeactivateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid budget ID")
		return
	}

	if err := h.budgetService.DeactivateBudget(c.Request.Context(), userID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// GetBudget godoc
// @ID           getBudget
// @Summary      Get a budget by ID
// @Tags         budgets
// @Produce      json
// @Param        id path string true "Budget ID" format(uuid)
// @Success      200 {object} APIResponse[budget.BudgetResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /budgets/{id} [get]
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid budget ID")
		return
	}

	resp, err := h.budgetService.GetBudget(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// ListBudgets godoc
// @ID           listBudgets
// @Summary      List budgets
// @Tags         budgets
// @Produce      json
// @Param        category_id query string false "Filter by category" format(uuid)
// @Param        wallet_id query string false "Filter by wallet" format(uuid)
// @Param        period query string false "Filter by period" Enums(DAILY, WEEKLY, MONTHLY, QUARTERLY, YEARLY, CUSTOM)
// @Param        active_only query bool false "Only active budgets"
// @Success      200 {object} APIResponse[[]budget.BudgetResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /budgets [get]
func (h *BudgetHandler) ListBudgets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	var filter budget.BudgetListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	budgets, err := h.budgetService.ListBudgets(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, budgets)
}

// GetBudgetStatus godoc
// @ID           getBudgetStatus
// @Summary      Get budget status with pacing figures
// @Description  Returns the budget together with days remaining, daily average and projected total
// @Tags         budgets
// @Produce      json
// @Param        id path string true "Budget ID" format(uuid)
// @Success      200 {object} APIResponse[budget.BudgetStatusResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /budgets/{id}/status [get]
func (h *BudgetHandler) GetBudgetStatus(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid budget ID")
		return
	}

	resp, err := h.budgetService.GetBudgetStatus(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// RecalculateSpending godoc
// @ID           recalculateBudgetSpending
// @Summary      Recalculate budget spending from the ledger
// @Description  Overwrite the spent counter with the recomputed expense total and report the drift
// @Tags         budgets
// @Produce      json
// @Param        id path string true "Budget ID" format(uuid)
// @Success      200 {object} APIResponse[budget.RecalculateResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /budgets/{id}/recalculate [post]
func (h *BudgetHandler) RecalculateSpending(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid budget ID")
		return
	}

	resp, err := h.budgetService.RecalculateSpending(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// UnreadAlerts godoc
// @ID           listUnreadAlerts
// @Summary      List unread budget alerts
// @Tags         alerts
// @Produce      json
// @Success      200 {object} APIResponse[[]budget.AlertResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /alerts/unread [get]
func (h *BudgetHandler) UnreadAlerts(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	alerts, err := h.budgetService.UnreadAlerts(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, alerts)
}

// MarkAlertRead godoc
// @ID           markAlertRead
// @Summary      Mark a budget alert as read
// @Tags         alerts
// @Produce      json
// @Param        id path string true "Alert ID" format(uuid)
// @Success      204 "No Content"
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /alerts/{id}/read [post]
func (h *BudgetHandler) MarkAlertRead(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid alert ID")
		return
	}

	if err := h.budgetService.MarkAlertRead(c.Request.Context(), userID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// RegisterRoutes registers all budget and alert routes
func (h *BudgetHandler) RegisterRoutes(rg *gin.RouterGroup) {
	budgets := rg.Group("/budgets")
	{
		budgets.GET("", h.ListBudgets)
		budgets.GET("/:id", h.GetBudget)
		budgets.GET("/:id/status", h.GetBudgetStatus)
		budgets.POST("", h.CreateBudget)
		budgets.PUT("/:id", h.UpdateBudget)
		budgets.DELETE("/:id", h.DeactivateBudget)
		budgets.POST("/:id/recalculate", h.RecalculateSpending)
	}

	alerts := rg.Group("/alerts")
	{
		alerts.GET("/unread", h.UnreadAlerts)
		alerts.POST("/:id/read", h.MarkAlertRead)
	}
}
