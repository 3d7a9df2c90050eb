package event

import (
	"context"
	"time"

	"github.com/fpm2025/finance-tracker/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventDeserializer rebuilds a domain event from a stored payload
type EventDeserializer interface {
	Deserialize(eventType string, data []byte) (shared.DomainEvent, error)
}

// DeadLetterService manages consumer-side dead letters: events a handler
// gave up on after exhausting retries or hitting a semantic violation.
// Replaying dispatches the stored payload straight to the owning consumer's
// handler, not through the bus: the bus route is wrapped in delivery dedup
// whose key is still set from the failed delivery, which would ack the replay
// as a duplicate without running it, and the bus swallows handler errors so
// the outcome could not be reported either. The durable applied-event markers
// still make a replay of an already-applied event a no-op.
type DeadLetterService struct {
	repo         shared.DeadLetterRepository
	deserializer EventDeserializer
	consumers    map[string]shared.EventHandler
	logger       *zap.Logger
}

// NewDeadLetterService creates a new dead letter service
func NewDeadLetterService(
	repo shared.DeadLetterRepository,
	deserializer EventDeserializer,
	logger *zap.Logger,
) *DeadLetterService {
	return &DeadLetterService{
		repo:         repo,
		deserializer: deserializer,
		consumers:    make(map[string]shared.EventHandler),
		logger:       logger,
	}
}

// RegisterConsumer binds a consumer group name to the handler its dead
// letters replay into. Register the bare handler, not its retry or dedup
// wrappers, so the replay outcome is the handler's real result.
func (s *DeadLetterService) RegisterConsumer(group string, handler shared.EventHandler) {
	s.consumers[group] = handler
}

// DeadLetterDTO represents a dead letter entry data transfer object
type DeadLetterDTO struct {
	ID            uuid.UUID  `json:"id"`
	ConsumerGroup string     `json:"consumer_group"`
	UserID        uuid.UUID  `json:"user_id"`
	EventID       uuid.UUID  `json:"event_id"`
	EventType     string     `json:"event_type"`
	AggregateID   uuid.UUID  `json:"aggregate_id"`
	AggregateType string     `json:"aggregate_type"`
	Payload       string     `json:"payload,omitempty"`
	Reason        string     `json:"reason"`
	Attempts      int        `json:"attempts"`
	Status        string     `json:"status"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// DeadLetterFilter represents filter for querying dead letters
type DeadLetterFilter struct {
	ConsumerGroup string `form:"consumer_group"`
	Page          int    `form:"page,omitempty" binding:"omitempty,min=1"`
	PageSize      int    `form:"page_size,omitempty" binding:"omitempty,min=1,max=100"`
}

// DeadLetterListResult represents paginated dead letter list result
type DeadLetterListResult struct {
	Entries    []DeadLetterDTO `json:"entries"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

// DeadLetterStatsDTO reports dead entry counts per consumer group
type DeadLetterStatsDTO struct {
	ByGroup map[string]int64 `json:"by_group"`
	Total   int64            `json:"total"`
}

// List retrieves dead entries with pagination, optionally narrowed to one
// consumer group
func (s *DeadLetterService) List(ctx context.Context, filter DeadLetterFilter) (*DeadLetterListResult, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	entries, total, err := s.repo.FindDead(ctx, filter.ConsumerGroup, page, pageSize)
	if err != nil {
		s.logger.Error("Failed to find dead letter entries", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to retrieve dead letter entries")
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	entryDTOs := make([]DeadLetterDTO, len(entries))
	for i, entry := range entries {
		entryDTOs[i] = toDeadLetterDTO(entry, false)
	}

	return &DeadLetterListResult{
		Entries:    entryDTOs,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// GetEntry retrieves a single dead letter entry, payload included
func (s *DeadLetterService) GetEntry(ctx context.Context, id uuid.UUID) (*DeadLetterDTO, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to find dead letter entry", zap.Error(err), zap.String("id", id.String()))
		return nil, shared.NewDomainError("ENTRY_NOT_FOUND", "Dead letter entry not found")
	}

	dto := toDeadLetterDTO(entry, true)
	return &dto, nil
}

// Replay re-runs one dead letter against its consumer's handler. On success
// the entry is resolved; on failure it goes back to DEAD with the new reason.
func (s *DeadLetterService) Replay(ctx context.Context, id uuid.UUID) (*DeadLetterDTO, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to find dead letter entry", zap.Error(err), zap.String("id", id.String()))
		return nil, shared.NewDomainError("ENTRY_NOT_FOUND", "Dead letter entry not found")
	}

	if err := s.replayEntry(ctx, entry); err != nil {
		return nil, err
	}

	dto := toDeadLetterDTO(entry, false)
	return &dto, nil
}

// ReplayAll re-dispatches every dead entry, optionally narrowed to one
// consumer group. Returns how many entries were resolved.
func (s *DeadLetterService) ReplayAll(ctx context.Context, consumerGroup string) (int64, error) {
	var resolved int64
	pageSize := 100

	for {
		// Always page 1: every resolved entry leaves the DEAD result set
		entries, _, err := s.repo.FindDead(ctx, consumerGroup, 1, pageSize)
		if err != nil {
			s.logger.Error("Failed to find dead letter entries", zap.Error(err))
			return resolved, shared.NewDomainError("INTERNAL_ERROR", "Failed to retrieve dead letter entries")
		}
		if len(entries) == 0 {
			break
		}

		progressed := false
		for _, entry := range entries {
			if err := s.replayEntry(ctx, entry); err != nil {
				continue
			}
			resolved++
			progressed = true
		}

		// Entries that failed again stay DEAD; stop once a full page
		// makes no progress instead of spinning on them
		if !progressed {
			break
		}
	}

	s.logger.Info("Replayed dead letter entries",
		zap.String("consumer_group", consumerGroup),
		zap.Int64("resolved", resolved),
	)
	return resolved, nil
}

// GetStats returns dead entry counts per consumer group
func (s *DeadLetterService) GetStats(ctx context.Context) (*DeadLetterStatsDTO, error) {
	counts, err := s.repo.CountByGroup(ctx)
	if err != nil {
		s.logger.Error("Failed to get dead letter stats", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to get dead letter stats")
	}

	var total int64
	for _, count := range counts {
		total += count
	}

	return &DeadLetterStatsDTO{
		ByGroup: counts,
		Total:   total,
	}, nil
}

// CleanupResolved removes resolved entries older than the given age
func (s *DeadLetterService) CleanupResolved(ctx context.Context, olderThan time.Duration) (int64, error) {
	removed, err := s.repo.DeleteResolvedOlderThan(ctx, time.Now().Add(-olderThan))
	if err != nil {
		s.logger.Error("Failed to clean up resolved dead letters", zap.Error(err))
		return 0, shared.NewDomainError("INTERNAL_ERROR", "Failed to clean up resolved dead letters")
	}
	return removed, nil
}

// replayEntry runs the replay state machine for one entry
func (s *DeadLetterService) replayEntry(ctx context.Context, entry *shared.DeadLetterEntry) error {
	handler, ok := s.consumers[entry.ConsumerGroup]
	if !ok {
		return shared.NewDomainError("UNKNOWN_CONSUMER_GROUP", "No consumer registered for group "+entry.ConsumerGroup)
	}

	if err := entry.MarkReplaying(); err != nil {
		return shared.NewDomainError("INVALID_STATUS", err.Error())
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		s.logger.Error("Failed to update dead letter entry", zap.Error(err), zap.String("id", entry.ID.String()))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to update entry")
	}

	domainEvent, err := s.deserializer.Deserialize(entry.EventType, entry.Payload)
	if err == nil {
		err = handler.Handle(ctx, domainEvent)
	}

	if err != nil {
		s.logger.Warn("Dead letter replay failed",
			zap.String("id", entry.ID.String()),
			zap.String("event_type", entry.EventType),
			zap.Error(err),
		)
		entry.MarkDeadAgain(err.Error())
		if updateErr := s.repo.Update(ctx, entry); updateErr != nil {
			s.logger.Error("Failed to update dead letter entry", zap.Error(updateErr), zap.String("id", entry.ID.String()))
		}
		return shared.NewDomainError("REPLAY_FAILED", err.Error())
	}

	entry.MarkResolved()
	if err := s.repo.Update(ctx, entry); err != nil {
		s.logger.Error("Failed to update dead letter entry", zap.Error(err), zap.String("id", entry.ID.String()))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to update entry")
	}

	s.logger.Info("Dead letter entry replayed",
		zap.String("id", entry.ID.String()),
		zap.String("event_type", entry.EventType),
		zap.String("consumer_group", entry.ConsumerGroup),
	)
	return nil
}

// toDeadLetterDTO converts a domain DeadLetterEntry to its DTO. The payload
// is only included on detail views.
func toDeadLetterDTO(entry *shared.DeadLetterEntry, includePayload bool) DeadLetterDTO {
	dto := DeadLetterDTO{
		ID:            entry.ID,
		ConsumerGroup: entry.ConsumerGroup,
		UserID:        entry.UserID,
		EventID:       entry.EventID,
		EventType:     entry.EventType,
		AggregateID:   entry.AggregateID,
		AggregateType: entry.AggregateType,
		Reason:        entry.Reason,
		Attempts:      entry.Attempts,
		Status:        string(entry.Status),
		ResolvedAt:    entry.ResolvedAt,
		CreatedAt:     entry.CreatedAt,
		UpdatedAt:     entry.UpdatedAt,
	}
	if includePayload {
		dto.Payload = string(entry.Payload)
	}
	return dto
}
