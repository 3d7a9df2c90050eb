package wallet

import (
	"time"

	"github.com/fpm2025/finance-tracker/internal/domain/shared"
	"github.com/fpm2025/finance-tracker/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletType represents the kind of account a wallet models
type WalletType string

const (
	WalletTypeCash       WalletType = "CASH"
	WalletTypeBank       WalletType = "BANK"
	WalletTypeCreditCard WalletType = "CREDIT_CARD"
	WalletTypeSavings    WalletType = "SAVINGS"
)

// IsValid checks if the type is a valid WalletType
func (t WalletType) IsValid() bool {
	switch t {
	case WalletTypeCash, WalletTypeBank, WalletTypeCreditCard, WalletTypeSavings:
		return true
	}
	return false
}

// String returns the string representation of WalletType
func (t WalletType) String() string {
	return string(t)
}

// Wallet represents a user's money account. Its balance is a projection of
// the transaction event stream: the reconciler applies signed deltas as
// events arrive, and RecomputeBalance can rebuild it from history.
type Wallet struct {
	shared.UserAggregateRoot
	Name     string               `json:"name"`
	Type     WalletType           `json:"type"`
	Currency valueobject.Currency `json:"currency"`
	Balance  decimal.Decimal      `json:"balance"`
	IsActive bool                 `json:"is_active"`
}

// NewWallet creates a new wallet with the given opening balance
func NewWallet(userID uuid.UUID, name string, walletType WalletType, currency valueobject.Currency, openingBalance decimal.Decimal) (*Wallet, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Wallet name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_NAME", "Wallet name cannot exceed 100 characters")
	}
	if !walletType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TYPE", "Wallet type is not valid")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	if openingBalance.IsNegative() {
		return nil, shared.NewDomainError("INVALID_BALANCE", "Opening balance cannot be negative")
	}

	return &Wallet{
		UserAggregateRoot: shared.NewUserAggregateRoot(userID),
		Name:              name,
		Type:              walletType,
		Currency:          currency,
		Balance:           openingBalance,
		IsActive:          true,
	}, nil
}

// ApplyDelta applies a signed balance adjustment. A withdrawal that would
// drive the balance negative is rejected without changing any state.
func (w *Wallet) ApplyDelta(delta decimal.Decimal) error {
	if !w.IsActive {
		return shared.ErrInvalidState
	}
	next := w.Balance.Add(delta)
	if delta.IsNegative() && next.IsNegative() {
		return shared.ErrInsufficientBalance
	}
	w.Balance = next
	w.UpdatedAt = time.Now()
	return nil
}

// SetBalance overwrites the balance. Used by the recompute path only, where
// the new value is derived from the full transaction history.
func (w *Wallet) SetBalance(balance decimal.Decimal) {
	w.Balance = balance
	w.UpdatedAt = time.Now()
}

// Rename changes the wallet name
func (w *Wallet) Rename(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Wallet name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Wallet name cannot exceed 100 characters")
	}
	w.Name = name
	w.UpdatedAt = time.Now()
	return nil
}

// Deactivate disables the wallet. Deactivated wallets reject new deltas.
func (w *Wallet) Deactivate() error {
	if !w.IsActive {
		return shared.ErrInvalidState
	}
	w.IsActive = false
	w.UpdatedAt = time.Now()
	return nil
}

// GetBalanceMoney returns the balance as Money
func (w *Wallet) GetBalanceMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(w.Balance, w.Currency)
	return m
}
