package models

import (
	"time"

	"github.com/fpm2025/finance-tracker/internal/domain/shared"
	"github.com/google/uuid"
)

// DeadLetterEntryModel is the persistence model for consumer-side dead letters.
// Each consumer group parks its own copy of an unprocessable event here.
type DeadLetterEntryModel struct {
	ID            uuid.UUID               `gorm:"type:uuid;primaryKey"`
	ConsumerGroup string                  `gorm:"type:varchar(100);not null;index:idx_deadletter_group_status,priority:1;uniqueIndex:idx_deadletter_group_event,priority:1"`
	UserID        uuid.UUID               `gorm:"type:uuid;not null;index"`
	EventID       uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex:idx_deadletter_group_event,priority:2"`
	EventType     string                  `gorm:"type:varchar(255);not null"`
	AggregateID   uuid.UUID               `gorm:"type:uuid;not null"`
	AggregateType string                  `gorm:"type:varchar(255);not null"`
	Payload       []byte                  `gorm:"type:jsonb"`
	Reason        string                  `gorm:"type:text;not null"`
	Attempts      int                     `gorm:"default:0"`
	Status        shared.DeadLetterStatus `gorm:"type:varchar(20);default:DEAD;index:idx_deadletter_group_status,priority:2"`
	ResolvedAt    *time.Time
	CreatedAt     time.Time `gorm:"not null;default:now()"`
	UpdatedAt     time.Time `gorm:"not null;default:now()"`
}

// TableName returns the table name for GORM
func (DeadLetterEntryModel) TableName() string {
	return "dead_letter_entries"
}

// ToDomain converts the persistence model to a domain DeadLetterEntry
func (m *DeadLetterEntryModel) ToDomain() *shared.DeadLetterEntry {
	return &shared.DeadLetterEntry{
		ID:            m.ID,
		ConsumerGroup: m.ConsumerGroup,
		UserID:        m.UserID,
		EventID:       m.EventID,
		EventType:     m.EventType,
		AggregateID:   m.AggregateID,
		AggregateType: m.AggregateType,
		Payload:       m.Payload,
		Reason:        m.Reason,
		Attempts:      m.Attempts,
		Status:        m.Status,
		ResolvedAt:    m.ResolvedAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain DeadLetterEntry
func (m *DeadLetterEntryModel) FromDomain(e *shared.DeadLetterEntry) {
	m.ID = e.ID
	m.ConsumerGroup = e.ConsumerGroup
	m.UserID = e.UserID
	m.EventID = e.EventID
	m.EventType = e.EventType
	m.AggregateID = e.AggregateID
	m.AggregateType = e.AggregateType
	m.Payload = e.Payload
	m.Reason = e.Reason
	m.Attempts = e.Attempts
	m.Status = e.Status
	m.ResolvedAt = e.ResolvedAt
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}
