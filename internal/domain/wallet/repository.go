package wallet

import (
	"context"

	"github.com/fpm2025/finance-tracker/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletFilter defines filtering options for wallet queries
type WalletFilter struct {
	shared.Filter
	Type       *WalletType // Filter by wallet type
	ActiveOnly bool        // Only include active wallets
}

// WalletRepository defines the interface for wallet persistence
type WalletRepository interface {
	// FindByID finds a wallet by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Wallet, error)

	// FindByIDForUser finds a wallet by ID scoped to a user
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*Wallet, error)

	// FindAllForUser finds all wallets for a user with filtering
	FindAllForUser(ctx context.Context, userID uuid.UUID, filter WalletFilter) ([]Wallet, error)

	// Save creates or updates a wallet
	Save(ctx context.Context, w *Wallet) error

	// ApplyBalanceDelta atomically applies a signed balance adjustment for a
	// single event. The event ID is recorded in the same transaction with a
	// uniqueness guarantee, so replaying the event is a no-op. Returns
	// shared.ErrAlreadyExists when the event was applied before,
	// shared.ErrInsufficientBalance when the adjustment would drive the
	// balance negative, and shared.ErrNotFound for an unknown wallet.
	ApplyBalanceDelta(ctx context.Context, walletID, eventID uuid.UUID, delta decimal.Decimal) error

	// OverwriteBalance replaces the wallet balance with a recomputed value
	OverwriteBalance(ctx context.Context, walletID uuid.UUID, balance decimal.Decimal) error

	// TotalBalanceForUser sums the balances of all active wallets of a user
	TotalBalanceForUser(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
}
