package budget

import (
	"time"

	"github.com/fpm2025/finance-tracker/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BudgetStatus is a derived view of how a budget is doing. It is computed
// on read from the spent amount, never stored.
type BudgetStatus string

const (
	StatusInactive   BudgetStatus = "INACTIVE"
	StatusOverBudget BudgetStatus = "OVER_BUDGET"
	StatusCritical   BudgetStatus = "CRITICAL"
	StatusWarning    BudgetStatus = "WARNING"
	StatusOnTrack    BudgetStatus = "ON_TRACK"
)

// DefaultAlertThreshold is the percentage at which a budget starts warning
var DefaultAlertThreshold = decimal.NewFromInt(80)

// criticalThreshold is the usage percentage that escalates WARNING to CRITICAL
var criticalThreshold = decimal.NewFromInt(95)

// Budget caps spending for a slice of a user's expenses. A nil CategoryID
// means the budget covers every category; a nil WalletID covers every
// wallet. CurrentSpent is maintained incrementally by the spend engine from
// transaction events.
type Budget struct {
	shared.UserAggregateRoot
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	CategoryID      *uuid.UUID      `json:"category_id"`
	WalletID        *uuid.UUID      `json:"wallet_id"`
	AmountLimit     decimal.Decimal `json:"amount_limit"`
	Period          BudgetPeriod    `json:"period"`
	StartDate       time.Time       `json:"start_date"`
	EndDate         *time.Time      `json:"end_date"`
	AlertThreshold  decimal.Decimal `json:"alert_threshold"`
	CurrentSpent    decimal.Decimal `json:"current_spent"`
	RolloverEnabled bool            `json:"rollover_enabled"`
	IsActive        bool            `json:"is_active"`
}

// NewBudget creates a new budget. For non-CUSTOM periods the end date is
// derived from the period; CUSTOM requires an explicit end date after the
// start date.
func NewBudget(
	userID uuid.UUID,
	name string,
	description string,
	categoryID *uuid.UUID,
	walletID *uuid.UUID,
	amountLimit decimal.Decimal,
	period BudgetPeriod,
	startDate time.Time,
	endDate *time.Time,
	alertThreshold *decimal.Decimal,
) (*Budget, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Budget name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_NAME", "Budget name cannot exceed 100 characters")
	}
	if len(description) > 500 {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 500 characters")
	}
	if amountLimit.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_LIMIT", "Amount limit must be positive")
	}
	if !period.IsValid() {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Budget period is not valid")
	}
	if startDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Start date is required")
	}

	if period == PeriodCustom {
		if endDate == nil {
			return nil, shared.NewDomainError("INVALID_DATE", "Custom period requires an end date")
		}
		if endDate.Before(startDate) {
			return nil, shared.NewDomainError("INVALID_DATE", "End date must not be before start date")
		}
	} else {
		endDate = period.EndDate(startDate)
	}

	threshold := DefaultAlertThreshold
	if alertThreshold != nil {
		if alertThreshold.LessThanOrEqual(decimal.Zero) || alertThreshold.GreaterThan(decimal.NewFromInt(100)) {
			return nil, shared.NewDomainError("INVALID_THRESHOLD", "Alert threshold must be between 0 and 100")
		}
		threshold = *alertThreshold
	}

	return &Budget{
		UserAggregateRoot: shared.NewUserAggregateRoot(userID),
		Name:              name,
		Description:       description,
		CategoryID:        categoryID,
		WalletID:          walletID,
		AmountLimit:       amountLimit,
		Period:            period,
		StartDate:         startDate,
		EndDate:           endDate,
		AlertThreshold:    threshold,
		CurrentSpent:      decimal.Zero,
		IsActive:          true,
	}, nil
}

// RemainingAmount returns the limit minus what has been spent
func (b *Budget) RemainingAmount() decimal.Decimal {
	return b.AmountLimit.Sub(b.CurrentSpent)
}

// UsagePercentage returns spent over limit as a percentage. The division is
// carried at four decimal places with half-up rounding before scaling, so
// 79.995% of the limit reports as 80%. A zero limit reports zero usage.
func (b *Budget) UsagePercentage() decimal.Decimal {
	if b.AmountLimit.IsZero() {
		return decimal.Zero
	}
	return b.CurrentSpent.DivRound(b.AmountLimit, 4).Mul(decimal.NewFromInt(100))
}

// IsOverBudget returns true when spending strictly exceeds the limit
func (b *Budget) IsOverBudget() bool {
	return b.CurrentSpent.GreaterThan(b.AmountLimit)
}

// ShouldAlert returns true when usage has reached the alert threshold
func (b *Budget) ShouldAlert() bool {
	return b.IsActive && b.UsagePercentage().GreaterThanOrEqual(b.AlertThreshold)
}

// Status derives the budget's health from its current spend
func (b *Budget) Status() BudgetStatus {
	if !b.IsActive {
		return StatusInactive
	}
	if b.IsOverBudget() {
		return StatusOverBudget
	}
	pct := b.UsagePercentage()
	if pct.GreaterThanOrEqual(criticalThreshold) {
		return StatusCritical
	}
	if pct.GreaterThanOrEqual(b.AlertThreshold) {
		return StatusWarning
	}
	return StatusOnTrack
}

// Matches reports whether an expense with the given category, wallet and
// date falls under this budget. Nil scope fields match everything.
func (b *Budget) Matches(categoryID, walletID uuid.UUID, date time.Time) bool {
	if !b.IsActive {
		return false
	}
	if b.CategoryID != nil && *b.CategoryID != categoryID {
		return false
	}
	if b.WalletID != nil && *b.WalletID != walletID {
		return false
	}
	if date.Before(b.StartDate) {
		return false
	}
	if b.EndDate != nil && date.After(endOfDay(*b.EndDate)) {
		return false
	}
	return true
}

// IsCurrentPeriod reports whether today falls inside the budget window
func (b *Budget) IsCurrentPeriod() bool {
	today := time.Now()
	if today.Before(b.StartDate) {
		return false
	}
	return b.EndDate == nil || !today.After(endOfDay(*b.EndDate))
}

// AdjustSpent applies a signed spending adjustment. Reversals can never
// push the spent amount below zero.
func (b *Budget) AdjustSpent(delta decimal.Decimal) {
	next := b.CurrentSpent.Add(delta)
	if next.IsNegative() {
		next = decimal.Zero
	}
	b.CurrentSpent = next
	b.UpdatedAt = time.Now()
}

// OverwriteSpent replaces the spent amount with a recomputed total
func (b *Budget) OverwriteSpent(total decimal.Decimal) {
	if total.IsNegative() {
		total = decimal.Zero
	}
	b.CurrentSpent = total
	b.UpdatedAt = time.Now()
}

// Update changes the budget definition. The spent amount is untouched; use
// recalculation when the scope changes materially.
func (b *Budget) Update(
	name string,
	description string,
	amountLimit decimal.Decimal,
	alertThreshold decimal.Decimal,
) error {
	if !b.IsActive {
		return shared.ErrInvalidState
	}
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Budget name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Budget name cannot exceed 100 characters")
	}
	if amountLimit.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_LIMIT", "Amount limit must be positive")
	}
	if alertThreshold.LessThanOrEqual(decimal.Zero) || alertThreshold.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_THRESHOLD", "Alert threshold must be between 0 and 100")
	}

	b.Name = name
	b.Description = description
	b.AmountLimit = amountLimit
	b.AlertThreshold = alertThreshold
	b.UpdatedAt = time.Now()
	return nil
}

// Deactivate disables the budget. INACTIVE is terminal.
func (b *Budget) Deactivate() error {
	if !b.IsActive {
		return shared.ErrInvalidState
	}
	b.IsActive = false
	b.UpdatedAt = time.Now()
	return nil
}

func endOfDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), d.Location())
}
