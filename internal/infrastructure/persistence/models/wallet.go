package models

import (
	"time"

	"github.com/fpm2025/finance-tracker/internal/domain/shared/valueobject"
	"github.com/fpm2025/finance-tracker/internal/domain/wallet"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletModel is the persistence model for the Wallet aggregate root.
type WalletModel struct {
	UserAggregateModel
	Name     string               `gorm:"type:varchar(100);not null"`
	Type     wallet.WalletType    `gorm:"type:varchar(20);not null"`
	Currency valueobject.Currency `gorm:"type:varchar(3);not null;default:'USD'"`
	Balance  decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	IsActive bool                 `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (WalletModel) TableName() string {
	return "wallets"
}

// ToDomain converts the persistence model to a domain Wallet entity.
func (m *WalletModel) ToDomain() *wallet.Wallet {
	return &wallet.Wallet{
		UserAggregateRoot: m.ToDomainUserAggregateRoot(),
		Name:              m.Name,
		Type:              m.Type,
		Currency:          m.Currency,
		Balance:           m.Balance,
		IsActive:          m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain Wallet entity.
func (m *WalletModel) FromDomain(w *wallet.Wallet) {
	m.FromDomainUserAggregateRoot(w.UserAggregateRoot)
	m.Name = w.Name
	m.Type = w.Type
	m.Currency = w.Currency
	m.Balance = w.Balance
	m.IsActive = w.IsActive
}

// WalletModelFromDomain creates a new persistence model from a domain Wallet.
func WalletModelFromDomain(w *wallet.Wallet) *WalletModel {
	m := &WalletModel{}
	m.FromDomain(w)
	return m
}

// WalletAppliedEventModel records event IDs whose balance delta has been
// applied to a wallet. The unique event ID makes replayed deliveries no-ops
// even after the idempotency cache entry has expired.
type WalletAppliedEventModel struct {
	EventID   uuid.UUID       `gorm:"type:uuid;primaryKey"`
	WalletID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Delta     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	AppliedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (WalletAppliedEventModel) TableName() string {
	return "wallet_applied_events"
}
