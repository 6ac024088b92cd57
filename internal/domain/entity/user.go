package entity

import (
	"regexp"
	"strings"
	"time"

	"github.com/tablebook/user-service/pkg/apperr"
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^\+?[\d\s\-()]{10,}$`)
)

// User is the aggregate root for the user domain. State is only mutated
// through business methods; each state change appends a domain event to the
// pending buffer until the caller marks them committed.
type User struct {
	id           string
	email        string
	passwordHash string
	name         string
	phone        string
	preferences  UserPreferences
	createdAt    time.Time
	updatedAt    time.Time
	isActive     bool

	pending []DomainEvent
}

// UserSnapshot is the flattened projection of the aggregate used for event
// payloads and persistence mapping. It never carries the password hash.
type UserSnapshot struct {
	ID          string              `json:"id"`
	Email       string              `json:"email"`
	Name        string              `json:"name"`
	Phone       string              `json:"phone"`
	Preferences PreferencesSnapshot `json:"preferences"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
	IsActive    bool                `json:"isActive"`
}

// NewUser is the factory for fresh users; it is the only path that emits a
// UserCreatedEvent. A nil preferences pointer falls back to the defaults.
func NewUser(id, email, passwordHash, name, phone string, preferences *UserPreferences) *User {
	prefs := DefaultPreferences()
	if preferences != nil {
		prefs = *preferences
	}
	now := time.Now().UTC()
	u := &User{
		id:           id,
		email:        email,
		passwordHash: passwordHash,
		name:         name,
		phone:        phone,
		preferences:  prefs,
		createdAt:    now,
		updatedAt:    now,
		isActive:     true,
	}
	u.apply(NewUserCreatedEvent(u.Snapshot()))
	return u
}

// RestoreUser rehydrates an aggregate from storage without emitting events.
func RestoreUser(snapshot UserSnapshot, passwordHash string) (*User, error) {
	prefs, err := NewUserPreferences(snapshot.Preferences)
	if err != nil {
		return nil, err
	}
	return &User{
		id:           snapshot.ID,
		email:        snapshot.Email,
		passwordHash: passwordHash,
		name:         snapshot.Name,
		phone:        snapshot.Phone,
		preferences:  prefs,
		createdAt:    snapshot.CreatedAt,
		updatedAt:    snapshot.UpdatedAt,
		isActive:     snapshot.IsActive,
	}, nil
}

// UpdateProfile validates and replaces the mutable profile fields, then
// emits a UserUpdatedEvent with before/after snapshots.
func (u *User) UpdateProfile(name, phone string, preferences *UserPreferences) error {
	if strings.TrimSpace(name) == "" {
		return apperr.Validation("name cannot be empty")
	}
	if !phoneRe.MatchString(phone) {
		return apperr.Validation("invalid phone number")
	}

	previous := u.Snapshot()
	u.name = name
	u.phone = phone
	if preferences != nil {
		u.preferences = *preferences
	}
	u.updatedAt = time.Now().UTC()

	u.apply(NewUserUpdatedEvent(previous, u.Snapshot()))
	return nil
}

// UpdatePreferences swaps the preference value object without auditing the
// change as a profile update.
func (u *User) UpdatePreferences(preferences UserPreferences) {
	u.preferences = preferences
	u.updatedAt = time.Now().UTC()
}

func (u *User) ChangeEmail(newEmail string) error {
	if !emailRe.MatchString(newEmail) {
		return apperr.Validation("invalid email format")
	}

	previous := u.Snapshot()
	u.email = newEmail
	u.updatedAt = time.Now().UTC()

	u.apply(NewUserUpdatedEvent(previous, u.Snapshot()))
	return nil
}

// ChangePassword replaces the stored hash. Password changes are deliberately
// excluded from the change-audit event stream.
func (u *User) ChangePassword(newPasswordHash string) {
	u.passwordHash = newPasswordHash
	u.updatedAt = time.Now().UTC()
}

// Deactivate soft-deletes the user. Deactivating twice is an invariant
// violation.
func (u *User) Deactivate() error {
	if !u.isActive {
		return apperr.Validation("user is already deactivated")
	}
	u.isActive = false
	u.updatedAt = time.Now().UTC()

	u.apply(NewUserDeletedEvent(u.id, u.email))
	return nil
}

// Activate is idempotent and emits no event.
func (u *User) Activate() {
	u.isActive = true
	u.updatedAt = time.Now().UTC()
}

func (u *User) ID() string                    { return u.id }
func (u *User) Email() string                 { return u.email }
func (u *User) PasswordHash() string          { return u.passwordHash }
func (u *User) Name() string                  { return u.name }
func (u *User) Phone() string                 { return u.phone }
func (u *User) Preferences() UserPreferences  { return u.preferences }
func (u *User) CreatedAt() time.Time          { return u.createdAt }
func (u *User) UpdatedAt() time.Time          { return u.updatedAt }
func (u *User) IsActive() bool                { return u.isActive }

// Snapshot flattens the aggregate's current state.
func (u *User) Snapshot() UserSnapshot {
	return UserSnapshot{
		ID:          u.id,
		Email:       u.email,
		Name:        u.name,
		Phone:       u.phone,
		Preferences: u.preferences.Snapshot(),
		CreatedAt:   u.createdAt,
		UpdatedAt:   u.updatedAt,
		IsActive:    u.isActive,
	}
}

// PendingEvents returns the uncommitted events in emission order.
func (u *User) PendingEvents() []DomainEvent {
	return append([]DomainEvent(nil), u.pending...)
}

// MarkEventsCommitted clears the pending buffer.
func (u *User) MarkEventsCommitted() { u.pending = nil }

func (u *User) apply(e DomainEvent) { u.pending = append(u.pending, e) }
