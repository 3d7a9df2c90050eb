package ledger

import (
	"time"

	"github.com/fpm2025/finance-tracker/internal/domain/shared"
	"github.com/fpm2025/finance-tracker/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the direction of a transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// IsValid checks if the type is a valid TransactionType
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// Sign returns +1 for income and -1 for expense
func (t TransactionType) Sign() decimal.Decimal {
	if t == TransactionTypeIncome {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(-1)
}

// Transaction represents a single income or expense entry in a wallet.
// It is the sole producer of the transaction.* event stream that drives
// wallet balances and budget spend downstream.
type Transaction struct {
	shared.UserAggregateRoot
	WalletID        uuid.UUID            `json:"wallet_id"`
	CategoryID      uuid.UUID            `json:"category_id"`
	Type            TransactionType      `json:"type"`
	Amount          decimal.Decimal      `json:"amount"`
	Currency        valueobject.Currency `json:"currency"`
	Description     string               `json:"description"`
	TransactionDate time.Time            `json:"transaction_date"`
}

// NewTransaction creates a new transaction and records its creation event
func NewTransaction(
	userID uuid.UUID,
	walletID uuid.UUID,
	categoryID uuid.UUID,
	txType TransactionType,
	amount valueobject.Money,
	description string,
	transactionDate time.Time,
) (*Transaction, error) {
	if walletID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WALLET", "Wallet ID cannot be empty")
	}
	if categoryID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Category ID cannot be empty")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TYPE", "Transaction type must be INCOME or EXPENSE")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if len(description) > 500 {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 500 characters")
	}
	if transactionDate.IsZero() {
		transactionDate = time.Now()
	}

	tx := &Transaction{
		UserAggregateRoot: shared.NewUserAggregateRoot(userID),
		WalletID:          walletID,
		CategoryID:        categoryID,
		Type:              txType,
		Amount:            amount.Amount(),
		Currency:          amount.Currency(),
		Description:       description,
		TransactionDate:   transactionDate,
	}

	tx.AddDomainEvent(NewTransactionCreatedEvent(tx))

	return tx, nil
}

// Update changes the mutable fields and records an update event carrying
// both the previous and the new state, so consumers can reverse the old
// effect before applying the new one.
func (t *Transaction) Update(
	categoryID uuid.UUID,
	txType TransactionType,
	amount valueobject.Money,
	description string,
	transactionDate time.Time,
) error {
	if categoryID == uuid.Nil {
		return shared.NewDomainError("INVALID_CATEGORY", "Category ID cannot be empty")
	}
	if !txType.IsValid() {
		return shared.NewDomainError("INVALID_TYPE", "Transaction type must be INCOME or EXPENSE")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if len(description) > 500 {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 500 characters")
	}

	prev := snapshot{
		CategoryID: t.CategoryID,
		Type:       t.Type,
		Amount:     t.Amount,
	}

	t.CategoryID = categoryID
	t.Type = txType
	t.Amount = amount.Amount()
	t.Currency = amount.Currency()
	t.Description = description
	if !transactionDate.IsZero() {
		t.TransactionDate = transactionDate
	}
	t.UpdatedAt = time.Now()

	t.AddDomainEvent(NewTransactionUpdatedEvent(t, prev))

	return nil
}

// MarkDeleted records the deletion event. The row itself is removed by the
// repository in the same transaction that saves the event.
func (t *Transaction) MarkDeleted() {
	t.AddDomainEvent(NewTransactionDeletedEvent(t))
}

// BalanceDelta returns the signed effect of this transaction on its wallet
func (t *Transaction) BalanceDelta() decimal.Decimal {
	return t.Amount.Mul(t.Type.Sign())
}

// GetAmountMoney returns amount as Money
func (t *Transaction) GetAmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(t.Amount, t.Currency)
	return m
}

// IsExpense returns true for expense transactions
func (t *Transaction) IsExpense() bool {
	return t.Type == TransactionTypeExpense
}

// snapshot captures the fields of a transaction that affect downstream
// consumers, taken before an update is applied
type snapshot struct {
	CategoryID uuid.UUID
	Type       TransactionType
	Amount     decimal.Decimal
}
