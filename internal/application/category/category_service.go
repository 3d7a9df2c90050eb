package category

import (
	"context"
	"time"

	"github.com/fpm2025/finance-tracker/internal/domain/category"
	"github.com/fpm2025/finance-tracker/internal/domain/shared"
	"github.com/google/uuid"
)

// CategoryService manages transaction categories
type CategoryService struct {
	categories category.CategoryRepository
}

// NewCategoryService creates a new category service
func NewCategoryService(categories category.CategoryRepository) *CategoryService {
	return &CategoryService{categories: categories}
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Icon      string    `json:"icon,omitempty"`
	Color     string    `json:"color,omitempty"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateCategoryRequest represents a request to create a category
type CreateCategoryRequest struct {
	Name  string `json:"name" binding:"required"`
	Type  string `json:"type" binding:"required,oneof=INCOME EXPENSE"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// UpdateCategoryRequest represents a request to rename a category
type UpdateCategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateCategory creates a user-owned category
func (s *CategoryService) CreateCategory(ctx context.Context, userID uuid.UUID, req CreateCategoryRequest) (*CategoryResponse, error) {
	c, err := category.NewCategory(userID, req.Name, category.CategoryType(req.Type), req.Icon, req.Color)
	if err != nil {
		return nil, err
	}

	if err := s.categories.Save(ctx, c); err != nil {
		return nil, err
	}

	return toCategoryResponse(c), nil
}

// UpdateCategory renames a user-owned category. System defaults are
// shared and cannot be edited.
func (s *CategoryService) UpdateCategory(ctx context.Context, userID, id uuid.UUID, req UpdateCategoryRequest) (*CategoryResponse, error) {
	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID == nil || *c.UserID != userID {
		return nil, shared.ErrNotFound
	}

	if err := c.Rename(req.Name); err != nil {
		return nil, err
	}

	if err := s.categories.Save(ctx, c); err != nil {
		return nil, err
	}

	return toCategoryResponse(c), nil
}

// DeleteCategory removes a user-owned category
func (s *CategoryService) DeleteCategory(ctx context.Context, userID, id uuid.UUID) error {
	return s.categories.Delete(ctx, userID, id)
}

// ListCategories returns system defaults plus the user's own categories
func (s *CategoryService) ListCategories(ctx context.Context, userID uuid.UUID) ([]CategoryResponse, error) {
	categories, err := s.categories.FindAllForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]CategoryResponse, len(categories))
	for i := range categories {
		responses[i] = *toCategoryResponse(&categories[i])
	}
	return responses, nil
}

// GetCategory returns a single category visible to the user
func (s *CategoryService) GetCategory(ctx context.Context, userID, id uuid.UUID) (*CategoryResponse, error) {
	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.VisibleTo(userID) {
		return nil, shared.ErrNotFound
	}
	return toCategoryResponse(c), nil
}

func toCategoryResponse(c *category.Category) *CategoryResponse {
	return &CategoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		Type:      string(c.Type),
		Icon:      c.Icon,
		Color:     c.Color,
		IsDefault: c.UserID == nil,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
