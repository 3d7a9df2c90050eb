package models

import (
	"time"

	"github.com/fpm2025/finance-tracker/internal/domain/budget"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BudgetModel is the persistence model for the Budget aggregate root.
type BudgetModel struct {
	UserAggregateModel
	Name            string              `gorm:"type:varchar(100);not null"`
	Description     string              `gorm:"type:varchar(500)"`
	CategoryID      *uuid.UUID          `gorm:"type:uuid;index"`
	WalletID        *uuid.UUID          `gorm:"type:uuid;index"`
	AmountLimit     decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	Period          budget.BudgetPeriod `gorm:"type:varchar(20);not null"`
	StartDate       time.Time           `gorm:"not null;index"`
	EndDate         *time.Time          `gorm:"index"`
	AlertThreshold  decimal.Decimal     `gorm:"type:decimal(5,2);not null;default:80"`
	CurrentSpent    decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	RolloverEnabled bool                `gorm:"not null;default:false"`
	IsActive        bool                `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (BudgetModel) TableName() string {
	return "budgets"
}

// ToDomain converts the persistence model to a domain Budget entity.
func (m *BudgetModel) ToDomain() *budget.Budget {
	return &budget.Budget{
		UserAggregateRoot: m.ToDomainUserAggregateRoot(),
		Name:              m.Name,
		Description:       m.Description,
		CategoryID:        m.CategoryID,
		WalletID:          m.WalletID,
		AmountLimit:       m.AmountLimit,
		Period:            m.Period,
		StartDate:         m.StartDate,
		EndDate:           m.EndDate,
		AlertThreshold:    m.AlertThreshold,
		CurrentSpent:      m.CurrentSpent,
		RolloverEnabled:   m.RolloverEnabled,
		IsActive:          m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain Budget entity.
func (m *BudgetModel) FromDomain(b *budget.Budget) {
	m.FromDomainUserAggregateRoot(b.UserAggregateRoot)
	m.Name = b.Name
	m.Description = b.Description
	m.CategoryID = b.CategoryID
	m.WalletID = b.WalletID
	m.AmountLimit = b.AmountLimit
	m.Period = b.Period
	m.StartDate = b.StartDate
	m.EndDate = b.EndDate
	m.AlertThreshold = b.AlertThreshold
	m.CurrentSpent = b.CurrentSpent
	m.RolloverEnabled = b.RolloverEnabled
	m.IsActive = b.IsActive
}

// BudgetModelFromDomain creates a new persistence model from a domain Budget.
func BudgetModelFromDomain(b *budget.Budget) *BudgetModel {
	m := &BudgetModel{}
	m.FromDomain(b)
	return m
}

// BudgetAlertModel is the persistence model for budget alerts.
type BudgetAlertModel struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey"`
	BudgetID       uuid.UUID        `gorm:"type:uuid;not null;index:idx_alerts_budget_type_sent,priority:1"`
	UserID         uuid.UUID        `gorm:"type:uuid;not null;index"`
	AlertType      budget.AlertType `gorm:"type:varchar(30);not null;index:idx_alerts_budget_type_sent,priority:2"`
	Message        string           `gorm:"type:varchar(500);not null"`
	PercentageUsed decimal.Decimal  `gorm:"type:decimal(8,2);not null"`
	AmountOver     *decimal.Decimal `gorm:"type:decimal(18,4)"`
	IsRead         bool             `gorm:"not null;index"`
	SentAt         time.Time        `gorm:"not null;index:idx_alerts_budget_type_sent,priority:3"`
}

// TableName returns the table name for GORM
func (BudgetAlertModel) TableName() string {
	return "budget_alerts"
}

// ToDomain converts the persistence model to a domain BudgetAlert.
func (m *BudgetAlertModel) ToDomain() *budget.BudgetAlert {
	return &budget.BudgetAlert{
		ID:             m.ID,
		BudgetID:       m.BudgetID,
		UserID:         m.UserID,
		AlertType:      m.AlertType,
		Message:        m.Message,
		PercentageUsed: m.PercentageUsed,
		AmountOver:     m.AmountOver,
		IsRead:         m.IsRead,
		SentAt:         m.SentAt,
	}
}

// FromDomain populates the persistence model from a domain BudgetAlert.
func (m *BudgetAlertModel) FromDomain(a *budget.BudgetAlert) {
	m.ID = a.ID
	m.BudgetID = a.BudgetID
	m.UserID = a.UserID
	m.AlertType = a.AlertType
	m.Message = a.Message
	m.PercentageUsed = a.PercentageUsed
	m.AmountOver = a.AmountOver
	m.IsRead = a.IsRead
	m.SentAt = a.SentAt
}

// BudgetAppliedEventModel records event IDs whose expense delta has been
// applied to a budget. One event can legitimately touch several budgets, so
// the key is (budget, event).
type BudgetAppliedEventModel struct {
	BudgetID  uuid.UUID       `gorm:"type:uuid;primaryKey"`
	EventID   uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Delta     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	AppliedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BudgetAppliedEventModel) TableName() string {
	return "budget_applied_events"
}
