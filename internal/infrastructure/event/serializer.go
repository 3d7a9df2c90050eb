package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/fpm2025/finance-tracker/internal/domain/shared"
)

// registeredEvent holds the codec state for one event type: the Go type the
// payload unmarshals into, the current schema version, and the upgrader chain
// that lifts older payloads to it.
type registeredEvent struct {
	goType         reflect.Type
	currentVersion int
	upgraders      map[int]EventUpgrader // source version -> upgrader to the next
}

// EventSerializer handles JSON serialization/deserialization of domain events.
// Stored payloads outlive schema changes, so deserialization is version-aware:
// a payload written at an older schema version is upgraded through the
// registered upgrader chain before it is unmarshaled. Event types without a
// schema history register at version 1 with no upgraders.
type EventSerializer struct {
	mu       sync.RWMutex
	registry map[string]*registeredEvent
}

// NewEventSerializer creates a new event serializer
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{
		registry: make(map[string]*registeredEvent),
	}
}

// Register registers an event type at schema version 1 with no upgraders.
// The eventType should match what EventType() returns on the event.
func (s *EventSerializer) Register(eventType string, eventInstance shared.DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.registry[eventType] = &registeredEvent{
		goType:         instanceType(eventInstance),
		currentVersion: 1,
		upgraders:      make(map[int]EventUpgrader),
	}
}

// RegisterVersioned registers an event type whose schema has evolved. The
// upgrader chain must be sequential and complete: one upgrader per version
// from 1 up to currentVersion, each producing the next version.
func (s *EventSerializer) RegisterVersioned(
	eventType string,
	eventInstance shared.DomainEvent,
	currentVersion int,
	upgraders ...EventUpgrader,
) error {
	upgraderMap := make(map[int]EventUpgrader)
	for _, u := range upgraders {
		if u.TargetVersion() != u.SourceVersion()+1 {
			return fmt.Errorf("upgrader must be sequential: got %d -> %d", u.SourceVersion(), u.TargetVersion())
		}
		upgraderMap[u.SourceVersion()] = u
	}
	for v := 1; v < currentVersion; v++ {
		if _, ok := upgraderMap[v]; !ok {
			return fmt.Errorf("missing upgrader for version %d -> %d for event type %s", v, v+1, eventType)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.registry[eventType] = &registeredEvent{
		goType:         instanceType(eventInstance),
		currentVersion: currentVersion,
		upgraders:      upgraderMap,
	}
	return nil
}

// Serialize serializes a domain event to JSON bytes
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	return json.Marshal(event)
}

// Deserialize deserializes JSON bytes to a domain event. Payloads written at
// an older schema version are upgraded to the current version first.
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	reg, ok := s.registry[eventType]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	payload := data
	for v := ExtractVersion(data); v < reg.currentVersion; v++ {
		upgrader, ok := reg.upgraders[v]
		if !ok {
			return nil, fmt.Errorf("missing upgrader for version %d -> %d for event type %s", v, v+1, eventType)
		}
		upgraded, err := upgrader.Upgrade(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to upgrade %s from v%d to v%d: %w", eventType, v, v+1, err)
		}
		payload = upgraded
	}

	// Create new instance of the registered type
	eventPtr := reflect.New(reg.goType).Interface()

	if err := json.Unmarshal(payload, eventPtr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	event, ok := eventPtr.(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("deserialized object does not implement DomainEvent")
	}

	return event, nil
}

// CurrentVersion returns the current schema version for an event type
func (s *EventSerializer) CurrentVersion(eventType string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg, ok := s.registry[eventType]
	if !ok {
		return 0, false
	}
	return reg.currentVersion, true
}

// IsRegistered checks if an event type is registered
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.registry[eventType]
	return ok
}

// RegisteredTypes returns all registered event types
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := make([]string, 0, len(s.registry))
	for t := range s.registry {
		types = append(types, t)
	}
	return types
}

func instanceType(eventInstance shared.DomainEvent) reflect.Type {
	t := reflect.TypeOf(eventInstance)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
