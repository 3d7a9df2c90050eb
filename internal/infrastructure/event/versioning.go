package event

import (
	"encoding/json"
	"fmt"
)

// EventUpgrader transforms a stored event payload from one schema version to
// the next. Each upgrader handles a single transition (e.g. v1 -> v2); the
// serializer chains them when a payload is more than one version behind.
type EventUpgrader interface {
	// SourceVersion returns the version this upgrader reads from
	SourceVersion() int
	// TargetVersion returns the version this upgrader produces
	TargetVersion() int
	// Upgrade transforms the raw JSON payload from source to target version
	Upgrade(payload []byte) ([]byte, error)
}

// eventVersionInfo extracts the version field from raw event JSON
type eventVersionInfo struct {
	SchemaVersion int `json:"schema_version"`
}

// ExtractVersion extracts the schema version from raw event JSON.
// Payloads written before versioning carry no field and count as version 1.
func ExtractVersion(payload []byte) int {
	var info eventVersionInfo
	if err := json.Unmarshal(payload, &info); err != nil {
		return 1
	}
	if info.SchemaVersion == 0 {
		return 1
	}
	return info.SchemaVersion
}

// BaseEventUpgrader implements EventUpgrader by unmarshaling the payload to a
// map, applying a transform, and marshaling it back with the target version
// stamped in.
type BaseEventUpgrader struct {
	sourceVersion int
	targetVersion int
	transformFunc func(data map[string]any) (map[string]any, error)
}

// NewBaseEventUpgrader creates a new base event upgrader
func NewBaseEventUpgrader(source, target int, transform func(data map[string]any) (map[string]any, error)) *BaseEventUpgrader {
	return &BaseEventUpgrader{
		sourceVersion: source,
		targetVersion: target,
		transformFunc: transform,
	}
}

// SourceVersion returns the source version
func (u *BaseEventUpgrader) SourceVersion() int {
	return u.sourceVersion
}

// TargetVersion returns the target version
func (u *BaseEventUpgrader) TargetVersion() int {
	return u.targetVersion
}

// Upgrade transforms the payload from source to target version
func (u *BaseEventUpgrader) Upgrade(payload []byte) ([]byte, error) {
	var data map[string]any
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	transformed, err := u.transformFunc(data)
	if err != nil {
		return nil, fmt.Errorf("transform failed: %w", err)
	}

	transformed["schema_version"] = u.targetVersion

	result, err := json.Marshal(transformed)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transformed payload: %w", err)
	}

	return result, nil
}

// RenameFieldsUpgrader creates an upgrader that renames payload fields.
// Fields absent from the payload are left alone.
func RenameFieldsUpgrader(source int, renames map[string]string) *BaseEventUpgrader {
	return NewBaseEventUpgrader(source, source+1, func(data map[string]any) (map[string]any, error) {
		for oldName, newName := range renames {
			if val, ok := data[oldName]; ok {
				data[newName] = val
				delete(data, oldName)
			}
		}
		return data, nil
	})
}

// Ensure BaseEventUpgrader implements EventUpgrader
var _ EventUpgrader = (*BaseEventUpgrader)(nil)
