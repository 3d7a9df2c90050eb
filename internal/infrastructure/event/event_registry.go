package event

import (
	"github.com/fpm2025/finance-tracker/internal/domain/ledger"
)

// RegisterAllEvents registers all domain event types with the serializer.
// This is required for the OutboxProcessor and the dead letter replay path
// to deserialize events from their stored payloads.
//
// transaction.updated carries a schema history: v1 payloads named the
// previous-state fields previous_*, renamed to old_* in v2. The upgrader
// keeps entries written before the rename replayable.
func RegisterAllEvents(serializer *EventSerializer) error {
	serializer.Register(ledger.EventTypeTransactionCreated, &ledger.TransactionCreatedEvent{})
	serializer.Register(ledger.EventTypeTransactionDeleted, &ledger.TransactionDeletedEvent{})

	return serializer.RegisterVersioned(
		ledger.EventTypeTransactionUpdated,
		&ledger.TransactionUpdatedEvent{},
		ledger.TransactionUpdatedSchemaVersion,
		RenameFieldsUpgrader(1, map[string]string{
			"previous_category_id": "old_category_id",
			"previous_type":        "old_type",
			"previous_amount":      "old_amount",
		}),
	)
}
