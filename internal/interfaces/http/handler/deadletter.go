package handler

import (
	"time"

	"github.com/fpm2025/finance-tracker/internal/application/event"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DeadLetterHandler handles consumer dead letter HTTP requests
type DeadLetterHandler struct {
	BaseHandler
	deadLetterService *event.DeadLetterService
}

// NewDeadLetterHandler creates a new dead letter handler
func NewDeadLetterHandler(deadLetterService *event.DeadLetterService) *DeadLetterHandler {
	return &DeadLetterHandler{
		deadLetterService: deadLetterService,
	}
}

// List godoc
// @ID           listDeadLetters
// @Summary      List dead letter entries
// @Description  Get a paginated list of events parked after exhausting consumer retries
// @Tags         deadletters
// @Produce      json
// @Param        consumer_group query string false "Narrow to one consumer group"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[event.DeadLetterListResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /system/deadletters [get]
func (h *DeadLetterHandler) List(c *gin.Context) {
	var filter event.DeadLetterFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	result, err := h.deadLetterService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// GetEntry godoc
// @ID           getDeadLetter
// @Summary      Get a dead letter entry by ID
// @Description  Retrieve a single dead letter entry including its payload
// @Tags         deadletters
// @Produce      json
// @Param        id path string true "Dead Letter ID" format(uuid)
// @Success      200 {object} APIResponse[event.DeadLetterDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /system/deadletters/{id} [get]
func (h *DeadLetterHandler) GetEntry(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid entry ID")
		return
	}

	entry, err := h.deadLetterService.GetEntry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entry)
}

// Replay godoc
// @ID           replayDeadLetter
// @Summary      Replay a dead letter entry
// @Description  Republish the parked event to its consumer group
// @Tags         deadletters
// @Accept       json
// @Produce      json
// @Param        id path string true "Dead Letter ID" format(uuid)
// @Success      200 {object} APIResponse[event.DeadLetterDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /system/deadletters/{id}/replay [post]
func (h *DeadLetterHandler) Replay(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid entry ID")
		return
	}

	entry, err := h.deadLetterService.Replay(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entry)
}

// ReplayAll godoc
// @ID           replayAllDeadLetters
// @Summary      Replay all dead letter entries
// @Description  Republish every parked event, optionally narrowed to one consumer group
// @Tags         deadletters
// @Accept       json
// @Produce      json
// @Param        consumer_group query string false "Narrow to one consumer group"
// @Success      200 {object} APIResponse[RetryAllResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /system/deadletters/replay-all [post]
func (h *DeadLetterHandler) ReplayAll(c *gin.Context) {
	consumerGroup := c.Query("consumer_group")

	count, err := h.deadLetterService.ReplayAll(c.Request.Context(), consumerGroup)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, RetryAllResponse{Count: count})
}

// GetStats godoc
// @ID           getDeadLetterStats
// @Summary      Get dead letter statistics
// @Description  Dead entry counts per consumer group
// @Tags         deadletters
// @Produce      json
// @Success      200 {object} APIResponse[event.DeadLetterStatsDTO]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /system/deadletters/stats [get]
func (h *DeadLetterHandler) GetStats(c *gin.Context) {
	stats, err := h.deadLetterService.GetStats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}

// CleanupResolved godoc
// @ID           cleanupResolvedDeadLetters
// @Summary      Delete old resolved dead letter entries
// @Tags         deadletters
// @Accept       json
// @Produce      json
// @Param        older_than_days query int false "Minimum age in days" default(30)
// @Success      200 {object} APIResponse[CountData]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /system/deadletters/cleanup [post]
func (h *DeadLetterHandler) CleanupResolved(c *gin.Context) {
	days := 30
	if raw := c.Query("older_than_days"); raw != "" {
		var req struct {
			OlderThanDays int `form:"older_than_days" binding:"min=1"`
		}
		if err := c.ShouldBindQuery(&req); err != nil {
			h.BadRequest(c, "Invalid query parameters")
			return
		}
		days = req.OlderThanDays
	}

	removed, err := h.deadLetterService.CleanupResolved(c.Request.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, CountData{Count: removed})
}

// RegisterRoutes registers all dead letter routes
func (h *DeadLetterHandler) RegisterRoutes(rg *gin.RouterGroup) {
	deadletters := rg.Group("/system/deadletters")
	{
		deadletters.GET("", h.List)
		deadletters.GET("/stats", h.GetStats)
		deadletters.GET("/:id", h.GetEntry)
		deadletters.POST("/:id/replay", h.Replay)
		deadletters.POST("/replay-all", h.ReplayAll)
		deadletters.POST("/cleanup", h.CleanupResolved)
	}
}
