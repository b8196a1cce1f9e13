package audit

import (
	"fmt"
	"time"
)

// Event is a single append-only audit log entry. Once stored it is never
// updated or deleted.
type Event struct {
	ID        string         `json:"id" bson:"_id"`
	TenantID  string         `json:"tenant_id,omitempty" bson:"tenant_id,omitempty"`
	Action    string         `json:"action" bson:"action"`
	Entity    string         `json:"entity" bson:"entity"`
	EntityID  string         `json:"entity_id" bson:"entity_id"`
	Details   map[string]any `json:"details,omitempty" bson:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty" bson:"request_id,omitempty"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
}

// Validate checks if the event has all required fields
func (e *Event) Validate() error {
	if e.Action == "" {
		return fmt.Errorf("%w: action is required", ErrEventValidation)
	}
	if e.Entity == "" {
		return fmt.Errorf("%w: entity is required", ErrEventValidation)
	}
	return nil
}

// EventOption applies configuration to an Event during creation.
type EventOption func(*Event)

// WithTenant sets the tenant the event belongs to. Empty ids are ignored so
// system-level events stay tenantless.
func WithTenant(tenantID string) EventOption {
	return func(e *Event) {
		if tenantID != "" {
			e.TenantID = tenantID
		}
	}
}

// WithEntity sets the entity type and id the action was applied to.
func WithEntity(entity, id string) EventOption {
	return func(e *Event) {
		e.Entity = entity
		e.EntityID = id
	}
}

// WithDetail adds a single key to the event details.
func WithDetail(key string, value any) EventOption {
	return func(e *Event) {
		if e.Details == nil {
			e.Details = make(map[string]any)
		}
		e.Details[key] = value
	}
}
