package entity

import (
	"reflect"
	"time"
)

const AggregateTypeUser = "User"

// DomainEvent is an immutable record of a state change, timestamped at
// construction and buffered on the aggregate until committed.
type DomainEvent interface {
	EventName() string
	EventVersion() string
	AggregateID() string
	OccurredAt() time.Time
	EventPayload() map[string]any
}

// Envelope is the canonical serialized form of a domain event.
type Envelope struct {
	EventName     string         `json:"eventName"`
	EventVersion  string         `json:"eventVersion"`
	AggregateID   string         `json:"aggregateId"`
	AggregateType string         `json:"aggregateType"`
	Payload       map[string]any `json:"payload"`
	OccurredAt    time.Time      `json:"occurredAt"`
}

func EnvelopeOf(e DomainEvent) Envelope {
	return Envelope{
		EventName:     e.EventName(),
		EventVersion:  e.EventVersion(),
		AggregateID:   e.AggregateID(),
		AggregateType: AggregateTypeUser,
		Payload:       e.EventPayload(),
		OccurredAt:    e.OccurredAt(),
	}
}

// UserCreatedEvent records the initial state of a new user.
type UserCreatedEvent struct {
	User       UserSnapshot
	occurredAt time.Time
}

func NewUserCreatedEvent(user UserSnapshot) *UserCreatedEvent {
	return &UserCreatedEvent{User: user, occurredAt: time.Now().UTC()}
}

func (e *UserCreatedEvent) EventName() string     { return "user.created" }
func (e *UserCreatedEvent) EventVersion() string  { return "1.0.0" }
func (e *UserCreatedEvent) AggregateID() string   { return e.User.ID }
func (e *UserCreatedEvent) OccurredAt() time.Time { return e.occurredAt }

func (e *UserCreatedEvent) EventPayload() map[string]any {
	return map[string]any{
		"userId":      e.User.ID,
		"email":       e.User.Email,
		"name":        e.User.Name,
		"phone":       e.User.Phone,
		"preferences": e.User.Preferences,
		"createdAt":   e.User.CreatedAt,
		"isActive":    e.User.IsActive,
	}
}

// Change describes one field of a profile diff.
type Change struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// UserUpdatedEvent carries before/after snapshots and a computed diff over
// the audited fields.
type UserUpdatedEvent struct {
	Previous   UserSnapshot
	Current    UserSnapshot
	occurredAt time.Time
}

func NewUserUpdatedEvent(previous, current UserSnapshot) *UserUpdatedEvent {
	return &UserUpdatedEvent{Previous: previous, Current: current, occurredAt: time.Now().UTC()}
}

func (e *UserUpdatedEvent) EventName() string     { return "user.updated" }
func (e *UserUpdatedEvent) EventVersion() string  { return "1.0.0" }
func (e *UserUpdatedEvent) AggregateID() string   { return e.Current.ID }
func (e *UserUpdatedEvent) OccurredAt() time.Time { return e.occurredAt }

// Changes diffs the audited fields: email, name, phone, preferences.
func (e *UserUpdatedEvent) Changes() map[string]Change {
	changes := make(map[string]Change)
	prev := map[string]any{
		"email":       e.Previous.Email,
		"name":        e.Previous.Name,
		"phone":       e.Previous.Phone,
		"preferences": e.Previous.Preferences,
	}
	curr := map[string]any{
		"email":       e.Current.Email,
		"name":        e.Current.Name,
		"phone":       e.Current.Phone,
		"preferences": e.Current.Preferences,
	}
	for _, field := range []string{"email", "name", "phone", "preferences"} {
		if !reflect.DeepEqual(prev[field], curr[field]) {
			changes[field] = Change{From: prev[field], To: curr[field]}
		}
	}
	return changes
}

func (e *UserUpdatedEvent) EventPayload() map[string]any {
	return map[string]any{
		"userId": e.Current.ID,
		"previousState": map[string]any{
			"email":       e.Previous.Email,
			"name":        e.Previous.Name,
			"phone":       e.Previous.Phone,
			"preferences": e.Previous.Preferences,
			"updatedAt":   e.Previous.UpdatedAt,
		},
		"currentState": map[string]any{
			"email":       e.Current.Email,
			"name":        e.Current.Name,
			"phone":       e.Current.Phone,
			"preferences": e.Current.Preferences,
			"updatedAt":   e.Current.UpdatedAt,
		},
		"changes": e.Changes(),
	}
}

// UserDeletedEvent records a soft delete (deactivation).
type UserDeletedEvent struct {
	UserID     string
	Email      string
	occurredAt time.Time
}

func NewUserDeletedEvent(userID, email string) *UserDeletedEvent {
	return &UserDeletedEvent{UserID: userID, Email: email, occurredAt: time.Now().UTC()}
}

func (e *UserDeletedEvent) EventName() string     { return "user.deleted" }
func (e *UserDeletedEvent) EventVersion() string  { return "1.0.0" }
func (e *UserDeletedEvent) AggregateID() string   { return e.UserID }
func (e *UserDeletedEvent) OccurredAt() time.Time { return e.occurredAt }

func (e *UserDeletedEvent) EventPayload() map[string]any {
	return map[string]any{
		"userId":    e.UserID,
		"email":     e.Email,
		"deletedAt": e.occurredAt,
	}
}
