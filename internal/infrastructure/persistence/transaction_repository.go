package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fpm2025/finance-tracker/internal/domain/ledger"
	"github.com/fpm2025/finance-tracker/internal/domain/shared"
	"github.com/fpm2025/finance-tracker/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormTransactionRepository implements TransactionRepository using GORM.
// Writes go through a database transaction that also appends the aggregate's
// pending domain events to the outbox, so a committed row always has its
// events queued and a rolled-back row leaves none behind.
type GormTransactionRepository struct {
	db     *gorm.DB
	outbox shared.OutboxEventSaver
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB, outbox shared.OutboxEventSaver) *GormTransactionRepository {
	return &GormTransactionRepository{db: db, outbox: outbox}
}

// FindByID finds a transaction by its ID
func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	var model models.TransactionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUser finds a transaction by ID scoped to a user
func (r *GormTransactionRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*ledger.Transaction, error) {
	var model models.TransactionModel
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

// FindAllForUser finds all transactions for a user with filtering
func (r *GormTransactionRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter ledger.TransactionFilter) ([]ledger.Transaction, error) {
	var txModels []models.TransactionModel
	query := r.db.WithContext(ctx).Model(&models.TransactionModel{}).
		Where("user_id = ?", userID)
	query = r.applyFilter(query, filter)

	if err := query.Find(&txModels).Error; err != nil {
		return nil, err
	}
	transactions := make([]ledger.Transaction, len(txModels))
	for i, model := range txModels {
		transactions[i] = *model.ToDomain()
	}
	return transactions, nil
}

// CountForUser counts transactions for a user with optional filters
func (r *GormTransactionRepository) CountForUser(ctx context.Context, userID uuid.UUID, filter ledger.TransactionFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.TransactionModel{}).
		Where("user_id = ?", userID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a transaction and appends its pending events to
// the outbox atomically
func (r *GormTransactionRepository) Save(ctx context.Context, t *ledger.Transaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.TransactionModelFromDomain(t)
		if err := tx.Save(model).Error; err != nil {
			return err
		}
		if err := r.outbox.SaveEvents(ctx, tx, t.GetDomainEvents()...); err != nil {
			return err
		}
		t.ClearDomainEvents()
		return nil
	})
}

// Delete removes a transaction and appends its pending events to the outbox
// atomically
func (r *GormTransactionRepository) Delete(ctx context.Context, t *ledger.Transaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.TransactionModel{}, "id = ?", t.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		if err := r.outbox.SaveEvents(ctx, tx, t.GetDomainEvents()...); err != nil {
			return err
		}
		t.ClearDomainEvents()
		return nil
	})
}

// SumByWallet returns the signed sum (income minus expense) of all
// transactions for a wallet
func (r *GormTransactionRepository) SumByWallet(ctx context.Context, walletID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).Model(&models.TransactionModel{}).
		Select("COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE -amount END), 0) as total", ledger.TransactionTypeIncome).
		Where("wallet_id = ?", walletID).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// SumExpensesForPeriod returns total expenses for a user within a date
// range, optionally narrowed to a category and/or wallet
func (r *GormTransactionRepository) SumExpensesForPeriod(ctx context.Context, userID uuid.UUID, categoryID, walletID *uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	query := r.db.WithContext(ctx).Model(&models.TransactionModel{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("user_id = ? AND type = ?", userID, ledger.TransactionTypeExpense).
		Where("transaction_date >= ? AND transaction_date <= ?", from, to)
	if categoryID != nil {
		query = query.Where("category_id = ?", *categoryID)
	}
	if walletID != nil {
		query = query.Where("wallet_id = ?", *walletID)
	}

	if err := query.Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// applyFilter applies filter conditions to query
func (r *GormTransactionRepository) applyFilter(query *gorm.DB, filter ledger.TransactionFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	// Apply sorting with whitelist validation to prevent SQL injection
	sortField := ValidateSortField(filter.OrderBy, TransactionSortFields, "transaction_date")
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

// applyFilterWithoutPagination applies filter conditions without pagination
func (r *GormTransactionRepository) applyFilterWithoutPagination(query *gorm.DB, filter ledger.TransactionFilter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("description ILIKE ?", "%"+filter.Search+"%")
	}
	if filter.WalletID != nil {
		query = query.Where("wallet_id = ?", *filter.WalletID)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.FromDate != nil {
		query = query.Where("transaction_date >= ?", filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("transaction_date <= ?", filter.ToDate)
	}
	if filter.MinAmount != nil {
		query = query.Where("amount >= ?", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		query = query.Where("amount <= ?", *filter.MaxAmount)
	}

	return query
}
