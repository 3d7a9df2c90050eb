package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fpm2025/finance-tracker/internal/domain/shared"
	"github.com/fpm2025/finance-tracker/internal/domain/wallet"
	"github.com/fpm2025/finance-tracker/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormWalletRepository implements WalletRepository using GORM
type GormWalletRepository struct {
	db *gorm.DB
}

// NewGormWalletRepository creates a new GormWalletRepository
func NewGormWalletRepository(db *gorm.DB) *GormWalletRepository {
	return &GormWalletRepository{db: db}
}

// FindByID finds a wallet by its ID
func (r *GormWalletRepository) FindByID(ctx context.Context, id uuid.UUID) (*wallet.Wallet, error) {
	var model models.WalletModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUser finds a wallet by ID scoped to a user
func (r *GormWalletRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*wallet.Wallet, error) {
	var model models.WalletModel
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

// FindAllForUser finds all wallets for a user with filtering
func (r *GormWalletRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter wallet.WalletFilter) ([]wallet.Wallet, error) {
	var walletModels []models.WalletModel
	query := r.db.WithContext(ctx).Model(&models.WalletModel{}).
		Where("user_id = ?", userID)
	query = r.applyFilter(query, filter)

	if err := query.Find(&walletModels).Error; err != nil {
		return nil, err
	}
	wallets := make([]wallet.Wallet, len(walletModels))
	for i, model := range walletModels {
		wallets[i] = *model.ToDomain()
	}
	return wallets, nil
}

// Save creates or updates a wallet
func (r *GormWalletRepository) Save(ctx context.Context, w *wallet.Wallet) error {
	model := models.WalletModelFromDomain(w)
	return r.db.WithContext(ctx).Save(model).Error
}

// ApplyBalanceDelta applies a signed balance adjustment for a single event.
// The applied-event marker, the balance check and the balance write all
// happen in one transaction, with the wallet row locked, so concurrent
// deliveries serialize and a replayed event hits the unique marker first.
func (r *GormWalletRepository) ApplyBalanceDelta(ctx context.Context, walletID, eventID uuid.UUID, delta decimal.Decimal) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		marker := models.WalletAppliedEventModel{
			EventID:   eventID,
			WalletID:  walletID,
			Delta:     delta,
			AppliedAt: time.Now(),
		}
		if err := tx.Create(&marker).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.ErrAlreadyExists
			}
			return err
		}

		var model models.WalletModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&model, "id = ?", walletID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		w := model.ToDomain()
		if err := w.ApplyDelta(delta); err != nil {
			return err
		}

		return tx.Model(&models.WalletModel{}).
			Where("id = ?", walletID).
			Updates(map[string]interface{}{
				"balance":    w.Balance,
				"updated_at": w.UpdatedAt,
			}).Error
	})
}

// OverwriteBalance replaces the wallet balance with a recomputed value
func (r *GormWalletRepository) OverwriteBalance(ctx context.Context, walletID uuid.UUID, balance decimal.Decimal) error {
	result := r.db.WithContext(ctx).Model(&models.WalletModel{}).
		Where("id = ?", walletID).
		Updates(map[string]interface{}{
			"balance":    balance,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// TotalBalanceForUser sums the balances of all active wallets of a user
func (r *GormWalletRepository) TotalBalanceForUser(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).Model(&models.WalletModel{}).
		Select("COALESCE(SUM(balance), 0) as total").
		Where("user_id = ? AND is_active = ?", userID, true).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// applyFilter applies filter conditions to query
func (r *GormWalletRepository) applyFilter(query *gorm.DB, filter wallet.WalletFilter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	// Apply sorting with whitelist validation to prevent SQL injection
	sortField := ValidateSortField(filter.OrderBy, WalletSortFields, "created_at")
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
