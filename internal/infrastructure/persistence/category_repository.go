package persistence

import (
	"context"
	"errors"

	"github.com/fpm2025/finance-tracker/internal/domain/category"
	"github.com/fpm2025/finance-tracker/internal/domain/shared"
	"github.com/fpm2025/finance-tracker/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCategoryRepository implements CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindByID finds a category by its ID
func (r *GormCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*category.Category, error) {
	var model models.CategoryModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForUser returns system defaults plus the user's own categories
func (r *GormCategoryRepository) FindAllForUser(ctx context.Context, userID uuid.UUID) ([]category.Category, error) {
	var categoryModels []models.CategoryModel
	if err := r.db.WithContext(ctx).
		Where("user_id IS NULL OR user_id = ?", userID).
		Order("name ASC").
		Find(&categoryModels).Error; err != nil {
		return nil, err
	}
	categories := make([]category.Category, len(categoryModels))
	for i, model := range categoryModels {
		categories[i] = *model.ToDomain()
	}
	return categories, nil
}

// Save creates or updates a category
func (r *GormCategoryRepository) Save(ctx context.Context, c *category.Category) error {
	model := models.CategoryModelFromDomain(c)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete removes a user-owned category. System defaults have a NULL user ID
// and never match the scope, so they cannot be deleted through here.
func (r *GormCategoryRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.CategoryModel{}, "user_id = ? AND id = ?", userID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
