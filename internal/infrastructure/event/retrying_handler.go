package event

import (
	"context"
	"errors"
	"time"

	"github.com/fpm2025/finance-tracker/internal/domain/shared"
	"go.uber.org/zap"
)

// RetryConfig controls the retry behavior of a RetryingHandler
type RetryConfig struct {
	// MaxAttempts is the total number of delivery attempts (first try included)
	MaxAttempts int

	// InitialBackoff is the delay before the first retry, doubled on each
	// subsequent retry
	InitialBackoff time.Duration

	// MaxBackoff caps the delay between retries
	MaxBackoff time.Duration
}

// DefaultRetryConfig returns default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
	}
}

// permanentErrorCodes are domain error codes that no amount of retrying can
// fix. A withdrawal that would overdraw the wallet is still an overdraw on
// the third attempt.
var permanentErrorCodes = map[string]struct{}{
	"INSUFFICIENT_BALANCE": {},
	"NOT_FOUND":            {},
	"INVALID_STATE":        {},
	"CATEGORY_MISMATCH":    {},
}

// isPermanent reports whether the error is a domain violation that should be
// dead-lettered immediately instead of retried.
func isPermanent(err error) bool {
	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	_, ok := permanentErrorCodes[domainErr.Code]
	return ok
}

// RetryingHandler wraps an EventHandler with a bounded retry budget and
// consumer-side dead-lettering. Transient failures are retried with
// exponential backoff; domain violations and exhausted retries are recorded
// as dead letter entries for the wrapping consumer group and acknowledged,
// so one poison event cannot stall the stream behind it.
type RetryingHandler struct {
	handler     shared.EventHandler
	group       string
	deadLetters shared.DeadLetterRepository
	serializer  *EventSerializer
	config      RetryConfig
	logger      *zap.Logger
}

// RetryingHandlerOption is a functional option for RetryingHandler
type RetryingHandlerOption func(*RetryingHandler)

// WithRetryConfig sets the retry configuration
func WithRetryConfig(config RetryConfig) RetryingHandlerOption {
	return func(h *RetryingHandler) {
		h.config = config
	}
}

// NewRetryingHandler creates a new retrying handler wrapper
func NewRetryingHandler(
	handler shared.EventHandler,
	group string,
	deadLetters shared.DeadLetterRepository,
	serializer *EventSerializer,
	logger *zap.Logger,
	opts ...RetryingHandlerOption,
) *RetryingHandler {
	h := &RetryingHandler{
		handler:     handler,
		group:       group,
		deadLetters: deadLetters,
		serializer:  serializer,
		config:      DefaultRetryConfig(),
		logger:      logger,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// EventTypes returns the event types this handler is interested in
func (h *RetryingHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle delivers the event to the wrapped handler, retrying transient
// failures up to the configured budget. Returns nil once the event is either
// processed or dead-lettered; a non-nil error means the event could not even
// be recorded as dead and should be redelivered.
func (h *RetryingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	backoff := h.config.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= h.config.MaxAttempts; attempt++ {
		lastErr = h.handler.Handle(ctx, event)
		if lastErr == nil {
			return nil
		}

		if isPermanent(lastErr) {
			h.logger.Warn("event rejected by handler, dead-lettering",
				zap.String("consumer_group", h.group),
				zap.String("event_id", event.EventID().String()),
				zap.String("event_type", event.EventType()),
				zap.Int("attempt", attempt),
				zap.Error(lastErr),
			)
			return h.deadLetter(ctx, event, lastErr, attempt)
		}

		if attempt == h.config.MaxAttempts {
			break
		}

		h.logger.Warn("event handler failed, retrying",
			zap.String("consumer_group", h.group),
			zap.String("event_id", event.EventID().String()),
			zap.String("event_type", event.EventType()),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(lastErr),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > h.config.MaxBackoff {
			backoff = h.config.MaxBackoff
		}
	}

	h.logger.Error("event handler exhausted retries, dead-lettering",
		zap.String("consumer_group", h.group),
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
		zap.Int("attempts", h.config.MaxAttempts),
		zap.Error(lastErr),
	)
	return h.deadLetter(ctx, event, lastErr, h.config.MaxAttempts)
}

// deadLetter records the failed event for later inspection and replay
func (h *RetryingHandler) deadLetter(ctx context.Context, event shared.DomainEvent, cause error, attempts int) error {
	payload, err := h.serializer.Serialize(event)
	if err != nil {
		// Without a payload the entry cannot be replayed, but losing the
		// failure record entirely is worse. Store what we have.
		h.logger.Error("failed to serialize event for dead letter",
			zap.String("event_id", event.EventID().String()),
			zap.Error(err),
		)
		payload = nil
	}

	entry := shared.NewDeadLetterEntry(h.group, event, payload, cause.Error(), attempts)
	if err := h.deadLetters.Save(ctx, entry); err != nil {
		h.logger.Error("failed to save dead letter entry",
			zap.String("consumer_group", h.group),
			zap.String("event_id", event.EventID().String()),
			zap.Error(err),
		)
		return err
	}

	return nil
}

// GetWrappedHandler returns the underlying handler (useful for testing)
func (h *RetryingHandler) GetWrappedHandler() shared.EventHandler {
	return h.handler
}

// Ensure RetryingHandler implements EventHandler
var _ shared.EventHandler = (*RetryingHandler)(nil)
