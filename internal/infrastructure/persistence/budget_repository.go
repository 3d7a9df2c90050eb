package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fpm2025/finance-tracker/internal/domain/budget"
	"github.com/fpm2025/finance-tracker/internal/domain/shared"
	"github.com/fpm2025/finance-tracker/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBudgetRepository implements BudgetRepository using GORM
type GormBudgetRepository struct {
	db *gorm.DB
}

// NewGormBudgetRepository creates a new GormBudgetRepository
func NewGormBudgetRepository(db *gorm.DB) *GormBudgetRepository {
	return &GormBudgetRepository{db: db}
}

// FindByID finds a budget by its ID
func (r *GormBudgetRepository) FindByID(ctx context.Context, id uuid.UUID) (*budget.Budget, error) {
	var model models.BudgetModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUser finds a budget by ID scoped to a user
func (r *GormBudgetRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*budget.Budget, error) {
	var model models.BudgetModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForUser finds all budgets for a user with filtering
func (r *GormBudgetRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter budget.BudgetFilter) ([]budget.Budget, error) {
	var budgetModels []models.BudgetModel
	query := r.db.WithContext(ctx).Model(&models.BudgetModel{}).
		Where("user_id = ?", userID)
	query = r.applyFilter(query, filter)

	if err := query.Find(&budgetModels).Error; err != nil {
		return nil, err
	}
	budgets := make([]budget.Budget, len(budgetModels))
	for i, model := range budgetModels {
		budgets[i] = *model.ToDomain()
	}
	return budgets, nil
}

// FindActiveForUser finds active budgets for a user
func (r *GormBudgetRepository) FindActiveForUser(ctx context.Context, userID uuid.UUID) ([]budget.Budget, error) {
	var budgetModels []models.BudgetModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("start_date DESC").
		Find(&budgetModels).Error; err != nil {
		return nil, err
	}
	budgets := make([]budget.Budget, len(budgetModels))
	for i, model := range budgetModels {
		budgets[i] = *model.ToDomain()
	}
	return budgets, nil
}

// FindMatching finds active budgets of a user whose scope and date window
// contain the given expense coordinates. A NULL category or wallet scope
// matches any category or wallet.
func (r *GormBudgetRepository) FindMatching(ctx context.Context, userID, categoryID, walletID uuid.UUID, date time.Time) ([]budget.Budget, error) {
	var budgetModels []models.BudgetModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Where("(category_id IS NULL OR category_id = ?)", categoryID).
		Where("(wallet_id IS NULL OR wallet_id = ?)", walletID).
		Where("start_date <= ?", date).
		Where("(end_date IS NULL OR end_date >= ?)", startOfDay(date)).
		Find(&budgetModels).Error; err != nil {
		return nil, err
	}

	budgets := make([]budget.Budget, 0, len(budgetModels))
	for _, model := range budgetModels {
		b := model.ToDomain()
		// The SQL window is a coarse cut; the domain check settles the
		// end-of-day boundary.
		if b.Matches(categoryID, walletID, date) {
			budgets = append(budgets, *b)
		}
	}
	return budgets, nil
}

// Save creates or updates a budget
func (r *GormBudgetRepository) Save(ctx context.Context, b *budget.Budget) error {
	model := models.BudgetModelFromDomain(b)
	return r.db.WithContext(ctx).Save(model).Error
}

// ApplySpendDelta adjusts a budget's spent amount for a single event. The
// applied-event marker, the spent update, the alert check and the alert
// insert share one transaction, with the budget row locked. The per-budget
// marker key lets one event touch several budgets independently.
func (r *GormBudgetRepository) ApplySpendDelta(ctx context.Context, budgetID, eventID uuid.UUID, delta decimal.Decimal) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		marker := models.BudgetAppliedEventModel{
			BudgetID:  budgetID,
			EventID:   eventID,
			Delta:     delta,
			AppliedAt: time.Now(),
		}
		if err := tx.Create(&marker).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.ErrAlreadyExists
			}
			return err
		}

		var model models.BudgetModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&model, "id = ?", budgetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		b := model.ToDomain()
		b.AdjustSpent(delta)

		if err := tx.Model(&models.BudgetModel{}).
			Where("id = ?", budgetID).
			Updates(map[string]interface{}{
				"current_spent": b.CurrentSpent,
				"updated_at":    b.UpdatedAt,
			}).Error; err != nil {
			return err
		}

		return r.raiseAlertIfDue(ctx, tx, b)
	})
}

// OverwriteSpent replaces a budget's spent amount with a recomputed total
// and re-runs the alert check
func (r *GormBudgetRepository) OverwriteSpent(ctx context.Context, budgetID uuid.UUID, total decimal.Decimal) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.BudgetModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&model, "id = ?", budgetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		b := model.ToDomain()
		b.OverwriteSpent(total)

		if err := tx.Model(&models.BudgetModel{}).
			Where("id = ?", budgetID).
			Updates(map[string]interface{}{
				"current_spent": b.CurrentSpent,
				"updated_at":    b.UpdatedAt,
			}).Error; err != nil {
			return err
		}

		return r.raiseAlertIfDue(ctx, tx, b)
	})
}

// raiseAlertIfDue inserts an alert for the budget's current state unless an
// alert of the same type already fired within the dedup window. Runs inside
// the caller's transaction so the alert lands atomically with the spend
// update.
func (r *GormBudgetRepository) raiseAlertIfDue(ctx context.Context, tx *gorm.DB, b *budget.Budget) error {
	alert := budget.NewBudgetAlert(b)
	if alert == nil {
		return nil
	}

	alerts := NewGormBudgetAlertRepository(tx)
	recent, err := alerts.ExistsRecent(ctx, b.ID, alert.AlertType, alert.SentAt.Add(-budget.AlertDedupWindow))
	if err != nil {
		return err
	}
	if recent {
		return nil
	}
	return alerts.Save(ctx, alert)
}

// applyFilter applies filter conditions to query
func (r *GormBudgetRepository) applyFilter(query *gorm.DB, filter budget.BudgetFilter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("(name ILIKE ? OR description ILIKE ?)", searchPattern, searchPattern)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.WalletID != nil {
		query = query.Where("wallet_id = ?", *filter.WalletID)
	}
	if filter.Period != nil {
		query = query.Where("period = ?", *filter.Period)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	// Apply sorting with whitelist validation to prevent SQL injection
	sortField := ValidateSortField(filter.OrderBy, BudgetSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", sortField, sortOrder))

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		offset := (filter.Page - 1) * filter.PageSize
		if offset > 0 {
			query = query.Offset(offset)
		}
	}

	return query
}

func startOfDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}
