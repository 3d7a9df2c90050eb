package budget

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fpm2025/finance-tracker/internal/domain/budget"
	"github.com/fpm2025/finance-tracker/internal/domain/ledger"
	"github.com/fpm2025/finance-tracker/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ConsumerGroupEngine is the consumer group name of the budget spend engine
const ConsumerGroupEngine = "budget-engine"

// spendAdjustment is one expense-side effect of a transaction event,
// targeted at the budgets matching a category
type spendAdjustment struct {
	categoryID uuid.UUID
	delta      decimal.Decimal
}

// BudgetSpendHandler maintains budget spend counters from the transaction
// event stream. Only the expense side of an event matters here; income-only
// events are acked without touching any budget.
//
// Each matched budget is adjusted in its own database transaction with a
// per-budget applied-event marker, so a failure on one budget neither rolls
// back its siblings nor makes their replay double-count.
type BudgetSpendHandler struct {
	budgets budget.BudgetRepository
	logger  *zap.Logger
}

// NewBudgetSpendHandler creates a new BudgetSpendHandler
func NewBudgetSpendHandler(budgets budget.BudgetRepository, logger *zap.Logger) *BudgetSpendHandler {
	return &BudgetSpendHandler{
		budgets: budgets,
		logger:  logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *BudgetSpendHandler) EventTypes() []string {
	return []string{
		ledger.EventTypeTransactionCreated,
		ledger.EventTypeTransactionUpdated,
		ledger.EventTypeTransactionDeleted,
	}
}

// Handle applies the expense-side effects of the event to every matching budget
func (h *BudgetSpendHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	adjustments, walletID, date, err := deriveAdjustments(event)
	if err != nil {
		h.logger.Error("unexpected event type for budget spend",
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
		)
		return err
	}
	if len(adjustments) == 0 {
		h.logger.Debug("event has no expense effect, skipping",
			zap.String("event_id", event.EventID().String()),
			zap.String("event_type", event.EventType()),
		)
		return nil
	}

	// A budget with a match-all scope can be hit by both sides of a
	// category move, but the applied-event marker admits one application
	// per budget per event, so the deltas are netted per budget first.
	deltas := make(map[uuid.UUID]decimal.Decimal)
	for _, adj := range adjustments {
		matching, err := h.budgets.FindMatching(ctx, event.UserID(), adj.categoryID, walletID, date)
		if err != nil {
			return fmt.Errorf("resolve budgets for category %s: %w", adj.categoryID, err)
		}
		for i := range matching {
			deltas[matching[i].ID] = deltas[matching[i].ID].Add(adj.delta)
		}
	}

	var errs []error
	for budgetID, delta := range deltas {
		if delta.IsZero() {
			continue
		}
		err := h.budgets.ApplySpendDelta(ctx, budgetID, event.EventID(), delta)
		if errors.Is(err, shared.ErrAlreadyExists) {
			h.logger.Info("spend delta already applied to budget, skipping",
				zap.String("event_id", event.EventID().String()),
				zap.String("budget_id", budgetID.String()),
			)
			continue
		}
		if err != nil {
			h.logger.Error("failed to apply spend delta",
				zap.String("event_id", event.EventID().String()),
				zap.String("budget_id", budgetID.String()),
				zap.String("delta", delta.String()),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("budget %s: %w", budgetID, err))
			continue
		}
		h.logger.Info("applied spend delta",
			zap.String("event_id", event.EventID().String()),
			zap.String("budget_id", budgetID.String()),
			zap.String("delta", delta.String()),
		)
	}
	return errors.Join(errs...)
}

// deriveAdjustments maps an event to its expense-side spend adjustments.
// An update that moves a transaction between categories produces two: the
// old category's budgets get the reversal, the new category's the addition.
func deriveAdjustments(event shared.DomainEvent) ([]spendAdjustment, uuid.UUID, time.Time, error) {
	switch e := event.(type) {
	case *ledger.TransactionCreatedEvent:
		if e.Type != ledger.TransactionTypeExpense {
			return nil, e.WalletID, e.TransactionDate, nil
		}
		return []spendAdjustment{{categoryID: e.CategoryID, delta: e.Amount}}, e.WalletID, e.TransactionDate, nil

	case *ledger.TransactionDeletedEvent:
		if e.Type != ledger.TransactionTypeExpense {
			return nil, e.WalletID, e.TransactionDate, nil
		}
		return []spendAdjustment{{categoryID: e.CategoryID, delta: e.Amount.Neg()}}, e.WalletID, e.TransactionDate, nil

	case *ledger.TransactionUpdatedEvent:
		oldExpense := decimal.Zero
		if e.OldType == ledger.TransactionTypeExpense {
			oldExpense = e.OldAmount
		}
		newExpense := decimal.Zero
		if e.NewType == ledger.TransactionTypeExpense {
			newExpense = e.NewAmount
		}

		if e.OldCategoryID == e.NewCategoryID {
			net := newExpense.Sub(oldExpense)
			if net.IsZero() {
				return nil, e.WalletID, e.TransactionDate, nil
			}
			return []spendAdjustment{{categoryID: e.NewCategoryID, delta: net}}, e.WalletID, e.TransactionDate, nil
		}

		adjustments := make([]spendAdjustment, 0, 2)
		if !oldExpense.IsZero() {
			adjustments = append(adjustments, spendAdjustment{categoryID: e.OldCategoryID, delta: oldExpense.Neg()})
		}
		if !newExpense.IsZero() {
			adjustments = append(adjustments, spendAdjustment{categoryID: e.NewCategoryID, delta: newExpense})
		}
		return adjustments, e.WalletID, e.TransactionDate, nil

	default:
		return nil, uuid.Nil, time.Time{}, fmt.Errorf("unexpected event type: %s", event.EventType())
	}
}
