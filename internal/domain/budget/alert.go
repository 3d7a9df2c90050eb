package budget

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AlertType identifies why an alert was raised
type AlertType string

const (
	AlertTypeOverBudget       AlertType = "OVER_BUDGET"
	AlertTypeThresholdReached AlertType = "THRESHOLD_REACHED"
)

// AlertDedupWindow suppresses repeat alerts of the same type for a budget.
// An alert fires at most once per type per budget within this window.
const AlertDedupWindow = 24 * time.Hour

// BudgetAlert is a notification produced by the spend engine when a budget
// crosses its threshold or its limit
type BudgetAlert struct {
	ID             uuid.UUID
	BudgetID       uuid.UUID
	UserID         uuid.UUID
	AlertType      AlertType
	Message        string
	PercentageUsed decimal.Decimal
	AmountOver     *decimal.Decimal
	IsRead         bool
	SentAt         time.Time
}

// NewBudgetAlert builds the alert for a budget's current state. Returns nil
// when the budget has nothing to alert about.
func NewBudgetAlert(b *Budget) *BudgetAlert {
	if !b.ShouldAlert() {
		return nil
	}

	alert := &BudgetAlert{
		ID:             uuid.New(),
		BudgetID:       b.ID,
		UserID:         b.UserID,
		PercentageUsed: b.UsagePercentage(),
		SentAt:         time.Now(),
	}

	if b.IsOverBudget() {
		over := b.CurrentSpent.Sub(b.AmountLimit)
		alert.AlertType = AlertTypeOverBudget
		alert.AmountOver = &over
		alert.Message = fmt.Sprintf("Budget '%s' exceeded! Spent: $%s of $%s limit",
			b.Name, b.CurrentSpent.StringFixed(2), b.AmountLimit.StringFixed(2))
	} else {
		alert.AlertType = AlertTypeThresholdReached
		alert.Message = fmt.Sprintf("Budget '%s' reached %s%% threshold! Spent: $%s of $%s",
			b.Name, b.UsagePercentage().StringFixed(0), b.CurrentSpent.StringFixed(2), b.AmountLimit.StringFixed(2))
	}

	return alert
}

// MarkRead marks the alert as read
func (a *BudgetAlert) MarkRead() {
	a.IsRead = true
}
