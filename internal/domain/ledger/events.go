package ledger

import (
	"time"

	"github.com/fpm2025/finance-tracker/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type names double as routing keys on the wire
const (
	EventTypeTransactionCreated = "transaction.created"
	EventTypeTransactionUpdated = "transaction.updated"
	EventTypeTransactionDeleted = "transaction.deleted"
)

// AggregateTypeTransaction is the aggregate type name used in event envelopes
const AggregateTypeTransaction = "Transaction"

// TransactionUpdatedSchemaVersion is the current schema version of
// transaction.updated. Version 1 named the previous-state fields
// previous_category_id, previous_type and previous_amount; version 2 renamed
// them to the old_* form. Stored v1 payloads are upgraded on deserialization.
const TransactionUpdatedSchemaVersion = 2

// TransactionEvent is implemented by all transaction.* events. BalanceDelta
// returns the signed net effect on the wallet balance, so every consumer
// derives deltas from one place.
type TransactionEvent interface {
	shared.DomainEvent
	TransactionWalletID() uuid.UUID
	BalanceDelta() decimal.Decimal
}

// TransactionCreatedEvent is raised when a new transaction is recorded
type TransactionCreatedEvent struct {
	shared.BaseDomainEvent
	TransactionID   uuid.UUID       `json:"transaction_id"`
	WalletID        uuid.UUID       `json:"wallet_id"`
	CategoryID      uuid.UUID       `json:"category_id"`
	Type            TransactionType `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionDate time.Time       `json:"transaction_date"`
}

// EventType returns the event type name
func (e *TransactionCreatedEvent) EventType() string {
	return EventTypeTransactionCreated
}

// TransactionWalletID returns the wallet affected by this event
func (e *TransactionCreatedEvent) TransactionWalletID() uuid.UUID {
	return e.WalletID
}

// BalanceDelta returns the signed effect on the wallet balance
func (e *TransactionCreatedEvent) BalanceDelta() decimal.Decimal {
	return e.Amount.Mul(e.Type.Sign())
}

// NewTransactionCreatedEvent creates a new TransactionCreatedEvent
func NewTransactionCreatedEvent(tx *Transaction) *TransactionCreatedEvent {
	return &TransactionCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionCreated, AggregateTypeTransaction, tx.ID, tx.UserID),
		TransactionID:   tx.ID,
		WalletID:        tx.WalletID,
		CategoryID:      tx.CategoryID,
		Type:            tx.Type,
		Amount:          tx.Amount,
		TransactionDate: tx.TransactionDate,
	}
}

// TransactionUpdatedEvent is raised when a transaction is modified. It
// carries both the previous and the new state so consumers can reverse the
// old effect and apply the new one as a single net adjustment.
type TransactionUpdatedEvent struct {
	shared.BaseDomainEvent
	TransactionID   uuid.UUID       `json:"transaction_id"`
	WalletID        uuid.UUID       `json:"wallet_id"`
	OldCategoryID   uuid.UUID       `json:"old_category_id"`
	NewCategoryID   uuid.UUID       `json:"new_category_id"`
	OldType         TransactionType `json:"old_type"`
	NewType         TransactionType `json:"new_type"`
	OldAmount       decimal.Decimal `json:"old_amount"`
	NewAmount       decimal.Decimal `json:"new_amount"`
	TransactionDate time.Time       `json:"transaction_date"`
}

// EventType returns the event type name
func (e *TransactionUpdatedEvent) EventType() string {
	return EventTypeTransactionUpdated
}

// TransactionWalletID returns the wallet affected by this event
func (e *TransactionUpdatedEvent) TransactionWalletID() uuid.UUID {
	return e.WalletID
}

// BalanceDelta returns the net adjustment: the new effect minus the old one
func (e *TransactionUpdatedEvent) BalanceDelta() decimal.Decimal {
	oldDelta := e.OldAmount.Mul(e.OldType.Sign())
	newDelta := e.NewAmount.Mul(e.NewType.Sign())
	return newDelta.Sub(oldDelta)
}

// NewTransactionUpdatedEvent creates a new TransactionUpdatedEvent
func NewTransactionUpdatedEvent(tx *Transaction, prev snapshot) *TransactionUpdatedEvent {
	return &TransactionUpdatedEvent{
		BaseDomainEvent: shared.NewVersionedBaseDomainEvent(EventTypeTransactionUpdated, AggregateTypeTransaction, tx.ID, tx.UserID, TransactionUpdatedSchemaVersion),
		TransactionID:   tx.ID,
		WalletID:        tx.WalletID,
		OldCategoryID:   prev.CategoryID,
		NewCategoryID:   tx.CategoryID,
		OldType:         prev.Type,
		NewType:         tx.Type,
		OldAmount:       prev.Amount,
		NewAmount:       tx.Amount,
		TransactionDate: tx.TransactionDate,
	}
}

// TransactionDeletedEvent is raised when a transaction is removed
type TransactionDeletedEvent struct {
	shared.BaseDomainEvent
	TransactionID   uuid.UUID       `json:"transaction_id"`
	WalletID        uuid.UUID       `json:"wallet_id"`
	CategoryID      uuid.UUID       `json:"category_id"`
	Type            TransactionType `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionDate time.Time       `json:"transaction_date"`
}

// EventType returns the event type name
func (e *TransactionDeletedEvent) EventType() string {
	return EventTypeTransactionDeleted
}

// TransactionWalletID returns the wallet affected by this event
func (e *TransactionDeletedEvent) TransactionWalletID() uuid.UUID {
	return e.WalletID
}

// BalanceDelta returns the reversal of the original effect
func (e *TransactionDeletedEvent) BalanceDelta() decimal.Decimal {
	return e.Amount.Mul(e.Type.Sign()).Neg()
}

// NewTransactionDeletedEvent creates a new TransactionDeletedEvent
func NewTransactionDeletedEvent(tx *Transaction) *TransactionDeletedEvent {
	return &TransactionDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionDeleted, AggregateTypeTransaction, tx.ID, tx.UserID),
		TransactionID:   tx.ID,
		WalletID:        tx.WalletID,
		CategoryID:      tx.CategoryID,
		Type:            tx.Type,
		Amount:          tx.Amount,
		TransactionDate: tx.TransactionDate,
	}
}
