package handler

import (
	"github.com/fpm2025/finance-tracker/internal/application/wallet"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles wallet HTTP requests
type WalletHandler struct {
	BaseHandler
	walletService *wallet.WalletService
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(walletService *wallet.WalletService) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
	}
}

// CreateWallet godoc
// @ID           createWallet
// @Summary      Create a wallet
// @Description  Create a wallet with an opening balance
// @Tags         wallets
// @Accept       json
// @Produce      json
// @Param        request body wallet.CreateWalletRequest true "Wallet data"
// @Success      201 {object} APIResponse[wallet.WalletResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /wallets [post]
func (h *WalletHandler) CreateWallet(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	var req wallet.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.walletService.CreateWallet(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// UpdateWallet godoc
// @ID           updateWallet
// @Summary      Rename a wallet
// @Tags         wallets
// @Accept       json
// @Produce      json
// @Param        id path string true "Wallet ID" format(uuid)
// @Param        request body wallet.UpdateWalletRequest true "Updated wallet data"
// @Success      200 {object} APIResponse[wallet.WalletResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /wallets/{id} [put]
func (h *WalletHandler) UpdateWallet(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid wallet ID")
		return
	}

	var req wallet.UpdateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.walletService.UpdateWallet(c.Request.Context(), userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// DeactivateWallet godoc
// @ID           deactivateWallet
// @Summary      Deactivate a wallet
// @Description  Deactivate a wallet so it no longer accepts transactions
// @Tags         wallets
// @Produce      json
// @Param        id path string true "Wallet ID" format(uuid)
// @Success      204 "No Content"
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /wallets/{id} [delete]
func (h *WalletHandler) DeactivateWallet(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid wallet ID")
		return
	}

	if err := h.walletService.DeactivateWallet(c.Request.Context(), userID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// GetWallet godoc
// @ID           getWallet
// @Summary      Get a wallet by ID
// @Tags         wallets
// @Produce      json
// @Param        id path string true "Wallet ID" format(uuid)
// @Success      200 {object} APIResponse[wallet.WalletResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /wallets/{id} [get]
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid wallet ID")
		return
	}

	resp, err := h.walletService.GetWallet(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// ListWallets godoc
// @ID           listWallets
// @Summary      List wallets
// @Tags         wallets
// @Produce      json
// @Param        type query string false "Filter by type" Enums(CASH, BANK, CREDIT_CARD, SAVINGS)
// @Param        active_only query bool false "Only active wallets"
// @Success      200 {object} APIResponse[[]wallet.WalletResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /wallets [get]
func (h *WalletHandler) ListWallets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	var filter wallet.WalletListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	wallets, err := h.walletService.ListWallets(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, wallets)
}

// GetTotalBalance godoc
// @ID           getTotalBalance
// @Summary      Get the total balance across active wallets
// @Tags         wallets
// @Produce      json
// @Success      200 {object} APIResponse[wallet.TotalBalanceResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /wallets/total-balance [get]
func (h *WalletHandler) GetTotalBalance(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	resp, err := h.walletService.GetTotalBalance(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// RecomputeBalance godoc
// @ID           recomputeWalletBalance
// @Summary      Recompute a wallet balance from the ledger
// @Description  Overwrite the wallet balance projection with the sum of its transactions and report the drift
// @Tags         wallets
// @Produce      json
// @Param        id path string true "Wallet ID" format(uuid)
// @Success      200 {object} APIResponse[wallet.RecomputeResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /wallets/{id}/recompute [post]
func (h *WalletHandler) RecomputeBalance(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid wallet ID")
		return
	}

	resp, err := h.walletService.RecomputeBalance(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// RegisterRoutes registers all wallet routes
func (h *WalletHandler) RegisterRoutes(rg *gin.RouterGroup) {
	wallets := rg.Group("/wallets")
	{
		wallets.GET("", h.ListWallets)
		wallets.GET("/total-balance", h.GetTotalBalance)
		wallets.GET("/:id", h.GetWallet)
		wallets.POST("", h.CreateWallet)
		wallets.PUT("/:id", h.UpdateWallet)
		wallets.DELETE("/:id", h.DeactivateWallet)
		wallets.POST("/:id/recompute", h.RecomputeBalance)
	}
}
