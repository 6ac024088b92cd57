package entity

import (
	"reflect"
	"strings"

	"github.com/tablebook/user-service/pkg/apperr"
)

// PriceRange bounds what a user is willing to spend.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// NotificationSettings toggles delivery channels.
type NotificationSettings struct {
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
	Push  bool `json:"push"`
}

// PreferencesSnapshot is the plain projection of UserPreferences. Its JSON
// shape is a compatibility surface; key names must not change.
type PreferencesSnapshot struct {
	CuisineTypes        []string             `json:"cuisineTypes"`
	DietaryRestrictions []string             `json:"dietaryRestrictions"`
	PriceRange          PriceRange           `json:"priceRange"`
	PreferredLocations  []string             `json:"preferredLocations"`
	Notifications       NotificationSettings `json:"notifications"`
	Language            string               `json:"language"`
	Timezone            string               `json:"timezone"`
}

// PreferencesPatch is a partially-specified preference payload. Nil or empty
// fields fall back to the documented defaults, matching how clients may omit
// any subset of keys.
type PreferencesPatch struct {
	CuisineTypes        []string              `json:"cuisineTypes"`
	DietaryRestrictions []string              `json:"dietaryRestrictions"`
	PriceRange          *PriceRange           `json:"priceRange"`
	PreferredLocations  []string              `json:"preferredLocations"`
	Notifications       *NotificationSettings `json:"notifications"`
	Language            string                `json:"language"`
	Timezone            string                `json:"timezone"`
}

// UserPreferences is an immutable value object. Every mutator returns a new
// instance; equality is structural.
type UserPreferences struct {
	props PreferencesSnapshot
}

// NewUserPreferences validates and builds a value object from a full snapshot.
func NewUserPreferences(props PreferencesSnapshot) (UserPreferences, error) {
	if props.PriceRange.Min < 0 {
		return UserPreferences{}, apperr.Validation("minimum price cannot be negative")
	}
	if props.PriceRange.Max < props.PriceRange.Min {
		return UserPreferences{}, apperr.Validation("maximum price cannot be less than minimum price")
	}
	if strings.TrimSpace(props.Language) == "" {
		return UserPreferences{}, apperr.Validation("language cannot be empty")
	}
	if strings.TrimSpace(props.Timezone) == "" {
		return UserPreferences{}, apperr.Validation("timezone cannot be empty")
	}
	return UserPreferences{props: copySnapshot(props)}, nil
}

// DefaultPreferences returns the documented default instance.
func DefaultPreferences() UserPreferences {
	return UserPreferences{props: PreferencesSnapshot{
		CuisineTypes:        []string{},
		DietaryRestrictions: []string{},
		PriceRange:          PriceRange{Min: 0, Max: 1000},
		PreferredLocations:  []string{},
		Notifications:       NotificationSettings{Email: true, SMS: false, Push: true},
		Language:            "en",
		Timezone:            "UTC",
	}}
}

// PreferencesFromPatch fills the gaps of a partial payload with defaults and
// validates the result.
func PreferencesFromPatch(p PreferencesPatch) (UserPreferences, error) {
	def := DefaultPreferences().props
	snap := PreferencesSnapshot{
		CuisineTypes:        p.CuisineTypes,
		DietaryRestrictions: p.DietaryRestrictions,
		PreferredLocations:  p.PreferredLocations,
		PriceRange:          def.PriceRange,
		Notifications:       def.Notifications,
		Language:            p.Language,
		Timezone:            p.Timezone,
	}
	if snap.CuisineTypes == nil {
		snap.CuisineTypes = []string{}
	}
	if snap.DietaryRestrictions == nil {
		snap.DietaryRestrictions = []string{}
	}
	if snap.PreferredLocations == nil {
		snap.PreferredLocations = []string{}
	}
	if p.PriceRange != nil {
		snap.PriceRange = *p.PriceRange
	}
	if p.Notifications != nil {
		snap.Notifications = *p.Notifications
	}
	if snap.Language == "" {
		snap.Language = def.Language
	}
	if snap.Timezone == "" {
		snap.Timezone = def.Timezone
	}
	return NewUserPreferences(snap)
}

// Getters return copies so the value object stays immutable.

func (p UserPreferences) CuisineTypes() []string {
	return append([]string(nil), p.props.CuisineTypes...)
}

func (p UserPreferences) DietaryRestrictions() []string {
	return append([]string(nil), p.props.DietaryRestrictions...)
}

func (p UserPreferences) PriceRange() PriceRange { return p.props.PriceRange }

func (p UserPreferences) PreferredLocations() []string {
	return append([]string(nil), p.props.PreferredLocations...)
}

func (p UserPreferences) Notifications() NotificationSettings { return p.props.Notifications }

func (p UserPreferences) Language() string { return p.props.Language }

func (p UserPreferences) Timezone() string { return p.props.Timezone }

// WithCuisineType returns a copy with the cuisine added; adding an existing
// entry is a no-op.
func (p UserPreferences) WithCuisineType(cuisineType string) UserPreferences {
	if contains(p.props.CuisineTypes, cuisineType) {
		return p
	}
	next := copySnapshot(p.props)
	next.CuisineTypes = append(next.CuisineTypes, cuisineType)
	return UserPreferences{props: next}
}

func (p UserPreferences) WithoutCuisineType(cuisineType string) UserPreferences {
	next := copySnapshot(p.props)
	next.CuisineTypes = remove(next.CuisineTypes, cuisineType)
	return UserPreferences{props: next}
}

func (p UserPreferences) WithDietaryRestriction(restriction string) UserPreferences {
	if contains(p.props.DietaryRestrictions, restriction) {
		return p
	}
	next := copySnapshot(p.props)
	next.DietaryRestrictions = append(next.DietaryRestrictions, restriction)
	return UserPreferences{props: next}
}

func (p UserPreferences) WithoutDietaryRestriction(restriction string) UserPreferences {
	next := copySnapshot(p.props)
	next.DietaryRestrictions = remove(next.DietaryRestrictions, restriction)
	return UserPreferences{props: next}
}

func (p UserPreferences) WithPriceRange(min, max float64) (UserPreferences, error) {
	next := copySnapshot(p.props)
	next.PriceRange = PriceRange{Min: min, Max: max}
	return NewUserPreferences(next)
}

func (p UserPreferences) WithNotifications(n NotificationSettings) UserPreferences {
	next := copySnapshot(p.props)
	next.Notifications = n
	return UserPreferences{props: next}
}

func (p UserPreferences) WithLanguage(language string) (UserPreferences, error) {
	next := copySnapshot(p.props)
	next.Language = language
	return NewUserPreferences(next)
}

func (p UserPreferences) WithTimezone(timezone string) (UserPreferences, error) {
	next := copySnapshot(p.props)
	next.Timezone = timezone
	return NewUserPreferences(next)
}

// Equal reports structural equality.
func (p UserPreferences) Equal(other UserPreferences) bool {
	return reflect.DeepEqual(p.props, other.props)
}

// Snapshot returns a deep copy of the plain projection.
func (p UserPreferences) Snapshot() PreferencesSnapshot {
	return copySnapshot(p.props)
}

func copySnapshot(s PreferencesSnapshot) PreferencesSnapshot {
	out := s
	out.CuisineTypes = append([]string{}, s.CuisineTypes...)
	out.DietaryRestrictions = append([]string{}, s.DietaryRestrictions...)
	out.PreferredLocations = append([]string{}, s.PreferredLocations...)
	return out
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func remove(xs []string, x string) []string {
	out := xs[:0]
	for _, v := range xs {
		if v != x {
			out = append(out, v)
		}
	}
	return out
}
