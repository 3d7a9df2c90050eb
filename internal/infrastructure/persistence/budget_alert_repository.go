package persistence

import (
	"context"
	"time"

	"github.com/fpm2025/finance-tracker/internal/domain/budget"
	"github.com/fpm2025/finance-tracker/internal/domain/shared"
	"github.com/fpm2025/finance-tracker/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBudgetAlertRepository implements BudgetAlertRepository using GORM
type GormBudgetAlertRepository struct {
	db *gorm.DB
}

// NewGormBudgetAlertRepository creates a new GormBudgetAlertRepository
func NewGormBudgetAlertRepository(db *gorm.DB) *GormBudgetAlertRepository {
	return &GormBudgetAlertRepository{db: db}
}

// Save persists an alert. Alerts are immutable once raised apart from the
// read flag, so this is a plain insert.
func (r *GormBudgetAlertRepository) Save(ctx context.Context, alert *budget.BudgetAlert) error {
	model := &models.BudgetAlertModel{}
	model.FromDomain(alert)
	return r.db.WithContext(ctx).Create(model).Error
}

// ExistsRecent reports whether an alert of the given type was sent for the
// budget after the given time
func (r *GormBudgetAlertRepository) ExistsRecent(ctx context.Context, budgetID uuid.UUID, alertType budget.AlertType, since time.Time) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.BudgetAlertModel{}).
		Where("budget_id = ? AND alert_type = ? AND sent_at > ?", budgetID, alertType, since).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByBudget returns all alerts for a budget, newest first
func (r *GormBudgetAlertRepository) FindByBudget(ctx context.Context, budgetID uuid.UUID) ([]budget.BudgetAlert, error) {
	var alertModels []models.BudgetAlertModel
	if err := r.db.WithContext(ctx).
		Where("budget_id = ?", budgetID).
		Order("sent_at DESC").
		Find(&alertModels).Error; err != nil {
		return nil, err
	}
	alerts := make([]budget.BudgetAlert, len(alertModels))
	for i, model := range alertModels {
		alerts[i] = *model.ToDomain()
	}
	return alerts, nil
}

// FindUnreadForUser returns unread alerts for a user, newest first
func (r *GormBudgetAlertRepository) FindUnreadForUser(ctx context.Context, userID uuid.UUID) ([]budget.BudgetAlert, error) {
	var alertModels []models.BudgetAlertModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_read = ?", userID, false).
		Order("sent_at DESC").
		Find(&alertModels).Error; err != nil {
		return nil, err
	}
	alerts := make([]budget.BudgetAlert, len(alertModels))
	for i, model := range alertModels {
		alerts[i] = *model.ToDomain()
	}
	return alerts, nil
}

// MarkRead marks an alert as read for a user
func (r *GormBudgetAlertRepository) MarkRead(ctx context.Context, userID, alertID uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.BudgetAlertModel{}).
		Where("user_id = ? AND id = ?", userID, alertID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
