package shared

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DeadLetterStatus represents the lifecycle of a consumer dead letter
type DeadLetterStatus string

const (
	DeadLetterStatusDead      DeadLetterStatus = "DEAD"
	DeadLetterStatusReplaying DeadLetterStatus = "REPLAYING"
	DeadLetterStatusResolved  DeadLetterStatus = "RESOLVED"
)

// DeadLetterEntry captures an event a consumer could not process. Unlike an
// outbox entry, which tracks delivery from the producer side, a dead letter
// is parked on the consumer side together with the reason, so an operator
// can inspect and replay it after fixing the underlying cause.
type DeadLetterEntry struct {
	ID            uuid.UUID
	ConsumerGroup string
	UserID        uuid.UUID
	EventID       uuid.UUID
	EventType     string
	AggregateID   uuid.UUID
	AggregateType string
	Payload       []byte
	Reason        string
	Attempts      int
	Status        DeadLetterStatus
	ResolvedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewDeadLetterEntry parks a failed event for the given consumer group
func NewDeadLetterEntry(consumerGroup string, event DomainEvent, payload []byte, reason string, attempts int) *DeadLetterEntry {
	now := time.Now()
	return &DeadLetterEntry{
		ID:            uuid.New(),
		ConsumerGroup: consumerGroup,
		UserID:        event.UserID(),
		EventID:       event.EventID(),
		EventType:     event.EventType(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		Payload:       payload,
		Reason:        reason,
		Attempts:      attempts,
		Status:        DeadLetterStatusDead,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// MarkReplaying marks the entry as currently being replayed
func (e *DeadLetterEntry) MarkReplaying() error {
	if e.Status != DeadLetterStatusDead {
		return errors.New("can only replay dead entries")
	}
	e.Status = DeadLetterStatusReplaying
	e.UpdatedAt = time.Now()
	return nil
}

// MarkResolved marks the entry as successfully replayed
func (e *DeadLetterEntry) MarkResolved() {
	now := time.Now()
	e.Status = DeadLetterStatusResolved
	e.ResolvedAt = &now
	e.UpdatedAt = now
}

// MarkDeadAgain returns a replaying entry to the dead state after a failed replay
func (e *DeadLetterEntry) MarkDeadAgain(reason string) {
	e.Status = DeadLetterStatusDead
	e.Reason = reason
	e.Attempts++
	e.UpdatedAt = time.Now()
}

// DeadLetterRepository defines persistence for consumer dead letters
type DeadLetterRepository interface {
	// Save persists a dead letter entry
	Save(ctx context.Context, entry *DeadLetterEntry) error
	// FindByID retrieves a single entry by ID
	FindByID(ctx context.Context, id uuid.UUID) (*DeadLetterEntry, error)
	// FindDead retrieves dead entries, optionally filtered by consumer group
	FindDead(ctx context.Context, consumerGroup string, page, pageSize int) ([]*DeadLetterEntry, int64, error)
	// Update updates an existing entry
	Update(ctx context.Context, entry *DeadLetterEntry) error
	// CountByGroup returns the number of dead entries per consumer group
	CountByGroup(ctx context.Context) (map[string]int64, error)
	// DeleteResolvedOlderThan removes resolved entries older than the given time
	DeleteResolvedOlderThan(ctx context.Context, before time.Time) (int64, error)
}
