package models

import (
	"time"

	"github.com/fpm2025/finance-tracker/internal/domain/ledger"
	"github.com/fpm2025/finance-tracker/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionModel is the persistence model for the Transaction aggregate root.
type TransactionModel struct {
	UserAggregateModel
	WalletID        uuid.UUID              `gorm:"type:uuid;not null;index:idx_transactions_wallet_date,priority:1"`
	CategoryID      uuid.UUID              `gorm:"type:uuid;not null;index"`
	Type            ledger.TransactionType `gorm:"type:varchar(10);not null;index"`
	Amount          decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	Currency        valueobject.Currency   `gorm:"type:varchar(3);not null;default:'USD'"`
	Description     string                 `gorm:"type:varchar(500)"`
	TransactionDate time.Time              `gorm:"not null;index:idx_transactions_wallet_date,priority:2"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToDomain converts the persistence model to a domain Transaction entity.
func (m *TransactionModel) ToDomain() *ledger.Transaction {
	return &ledger.Transaction{
		UserAggregateRoot: m.ToDomainUserAggregateRoot(),
		WalletID:          m.WalletID,
		CategoryID:        m.CategoryID,
		Type:              m.Type,
		Amount:            m.Amount,
		Currency:          m.Currency,
		Description:       m.Description,
		TransactionDate:   m.TransactionDate,
	}
}

// FromDomain populates the persistence model from a domain Transaction entity.
func (m *TransactionModel) FromDomain(t *ledger.Transaction) {
	m.FromDomainUserAggregateRoot(t.UserAggregateRoot)
	m.WalletID = t.WalletID
	m.CategoryID = t.CategoryID
	m.Type = t.Type
	m.Amount = t.Amount
	m.Currency = t.Currency
	m.Description = t.Description
	m.TransactionDate = t.TransactionDate
}

// TransactionModelFromDomain creates a new persistence model from a domain Transaction.
func TransactionModelFromDomain(t *ledger.Transaction) *TransactionModel {
	m := &TransactionModel{}
	m.FromDomain(t)
	return m
}
