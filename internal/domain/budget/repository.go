package budget

import (
	"context"
	"time"

	"github.com/fpm2025/finance-tracker/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BudgetFilter defines filtering options for budget queries
type BudgetFilter struct {
	shared.Filter
	CategoryID *uuid.UUID    // Filter by category scope
	WalletID   *uuid.UUID    // Filter by wallet scope
	Period     *BudgetPeriod // Filter by period kind
	ActiveOnly bool          // Only include active budgets
}

// BudgetRepository defines the interface for budget persistence
type BudgetRepository interface {
	// FindByID finds a budget by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Budget, error)

	// FindByIDForUser finds a budget by ID scoped to a user
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*Budget, error)

	// FindAllForUser finds all budgets for a user with filtering
	FindAllForUser(ctx context.Context, userID uuid.UUID, filter BudgetFilter) ([]Budget, error)

	// FindActiveForUser finds active budgets for a user
	FindActiveForUser(ctx context.Context, userID uuid.UUID) ([]Budget, error)

	// FindMatching finds active budgets of a user whose scope and date window
	// contain the given expense coordinates
	FindMatching(ctx context.Context, userID, categoryID, walletID uuid.UUID, date time.Time) ([]Budget, error)

	// Save creates or updates a budget
	Save(ctx context.Context, b *Budget) error

	// ApplySpendDelta atomically adjusts a budget's spent amount for a single
	// event, recording the event ID with a uniqueness guarantee in the same
	// transaction, running the alert check, and inserting the alert when the
	// dedup window allows. Returns shared.ErrAlreadyExists when the event was
	// applied to this budget before and shared.ErrNotFound for an unknown
	// budget.
	ApplySpendDelta(ctx context.Context, budgetID, eventID uuid.UUID, delta decimal.Decimal) error

	// OverwriteSpent replaces a budget's spent amount with a recomputed total
	// and re-runs the alert check
	OverwriteSpent(ctx context.Context, budgetID uuid.UUID, total decimal.Decimal) error
}

// BudgetAlertRepository defines persistence for budget alerts
type BudgetAlertRepository interface {
	// Save persists an alert
	Save(ctx context.Context, alert *BudgetAlert) error

	// ExistsRecent reports whether an alert of the given type was sent for
	// the budget after the given time
	ExistsRecent(ctx context.Context, budgetID uuid.UUID, alertType AlertType, since time.Time) (bool, error)

	// FindByBudget returns all alerts for a budget, newest first
	FindByBudget(ctx context.Context, budgetID uuid.UUID) ([]BudgetAlert, error)

	// FindUnreadForUser returns unread alerts for a user, newest first
	FindUnreadForUser(ctx context.Context, userID uuid.UUID) ([]BudgetAlert, error)

	// MarkRead marks an alert as read for a user
	MarkRead(ctx context.Context, userID, alertID uuid.UUID) error
}
