package handler

import (
	"github.com/fpm2025/finance-tracker/internal/application/category"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CategoryHandler handles transaction category HTTP requests
type CategoryHandler struct {
	BaseHandler
	categoryService *category.CategoryService
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categoryService *category.CategoryService) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
	}
}

// CreateCategory godoc
// @ID           createCategory
// @Summary      Create a category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Param        request body category.CreateCategoryRequest true "Category data"
// @Success      201 {object} APIResponse[category.CategoryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /ledger/categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	var req category.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.categoryService.CreateCategory(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// UpdateCategory godoc
// @ID           updateCategory
// @Summary      Rename a category
// @Description  Rename a user-owned category. System defaults cannot be edited.
// @Tags         categories
// @Accept       json
// @Produce      json
// @Param        id path string true "Category ID" format(uuid)
// @Param        request body category.UpdateCategoryRequest true "Updated category data"
// @Success      200 {object} APIResponse[category.CategoryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /ledger/categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid category ID")
		return
	}

	var req category.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.categoryService.UpdateCategory(c.Request.Context(), userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// DeleteCategory godoc
// @ID           deleteCategory
// @Summary      Delete a category
// @Tags         categories
// @Produce      json
// @Param        id path string true "Category ID" format(uuid)
// @Success      204 "No Content"
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /ledger/categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid category ID")
		return
	}

	if err := h.categoryService.DeleteCategory(c.Request.Context(), userID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// GetCategory godoc
// @ID           getCategory
// @Summary      Get a category by ID
// @Tags         categories
// @Produce      json
// @Param        id path string true "Category ID" format(uuid)
// @Success      200 {object} APIResponse[category.CategoryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /ledger/categories/{id} [get]
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid category ID")
		return
	}

	resp, err := h.categoryService.GetCategory(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// ListCategories godoc
// @ID           listCategories
// @Summary      List categories
// @Description  Returns system default categories plus the user's own
// @Tags         categories
// @Produce      json
// @Success      200 {object} APIResponse[[]category.CategoryResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /ledger/categories [get]
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	categories, err := h.categoryService.ListCategories(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, categories)
}

// RegisterRoutes registers all category routes
func (h *CategoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	categories := rg.Group("/ledger/categories")
	{
		categories.GET("", h.ListCategories)
		categories.GET("/:id", h.GetCategory)
		categories.POST("", h.CreateCategory)
		categories.PUT("/:id", h.UpdateCategory)
		categories.DELETE("/:id", h.DeleteCategory)
	}
}
