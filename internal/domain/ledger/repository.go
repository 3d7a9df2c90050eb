package ledger

import (
	"context"
	"time"

	"github.com/fpm2025/finance-tracker/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionFilter defines filtering options for transaction queries
type TransactionFilter struct {
	shared.Filter
	WalletID   *uuid.UUID       // Filter by wallet
	CategoryID *uuid.UUID       // Filter by category
	Type       *TransactionType // Filter by INCOME/EXPENSE
	FromDate   *time.Time       // Filter by transaction date range start
	ToDate     *time.Time       // Filter by transaction date range end
	MinAmount  *decimal.Decimal // Filter by minimum amount
	MaxAmount  *decimal.Decimal // Filter by maximum amount
}

// TransactionRepository defines the interface for transaction persistence.
// Save and Delete accept the pending domain events of the aggregate and must
// write them to the outbox within the same database transaction.
type TransactionRepository interface {
	// FindByID finds a transaction by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// FindByIDForUser finds a transaction by ID scoped to a user
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*Transaction, error)

	// FindAllForUser finds all transactions for a user with filtering
	FindAllForUser(ctx context.Context, userID uuid.UUID, filter TransactionFilter) ([]Transaction, error)

	// CountForUser counts transactions for a user with optional filters
	CountForUser(ctx context.Context, userID uuid.UUID, filter TransactionFilter) (int64, error)

	// Save creates or updates a transaction and appends its pending events
	// to the outbox atomically
	Save(ctx context.Context, tx *Transaction) error

	// Delete removes a transaction and appends its pending events to the
	// outbox atomically
	Delete(ctx context.Context, tx *Transaction) error

	// SumByWallet returns the signed sum (income minus expense) of all
	// transactions for a wallet
	SumByWallet(ctx context.Context, walletID uuid.UUID) (decimal.Decimal, error)

	// SumExpensesForPeriod returns total expenses for a user within a date
	// range, optionally narrowed to a category and/or wallet
	SumExpensesForPeriod(ctx context.Context, userID uuid.UUID, categoryID, walletID *uuid.UUID, from, to time.Time) (decimal.Decimal, error)
}
