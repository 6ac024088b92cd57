package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultPreferences(t *testing.T) {
	p := DefaultPreferences()

	require.Empty(t, p.CuisineTypes())
	require.NotNil(t, p.CuisineTypes())
	require.Empty(t, p.DietaryRestrictions())
	require.Empty(t, p.PreferredLocations())
	require.Equal(t, PriceRange{Min: 0, Max: 1000}, p.PriceRange())
	require.Equal(t, NotificationSettings{Email: true, SMS: false, Push: true}, p.Notifications())
	require.Equal(t, "en", p.Language())
	require.Equal(t, "UTC", p.Timezone())
}

func TestNewUserPreferencesValidation(t *testing.T) {
	base := DefaultPreferences().Snapshot()

	neg := base
	neg.PriceRange = PriceRange{Min: -1, Max: 100}
	_, err := NewUserPreferences(neg)
	require.EqualError(t, err, "minimum price cannot be negative")

	inverted := base
	inverted.PriceRange = PriceRange{Min: 50, Max: 10}
	_, err = NewUserPreferences(inverted)
	require.EqualError(t, err, "maximum price cannot be less than minimum price")

	noLang := base
	noLang.Language = "  "
	_, err = NewUserPreferences(noLang)
	require.EqualError(t, err, "language cannot be empty")

	noTZ := base
	noTZ.Timezone = ""
	_, err = NewUserPreferences(noTZ)
	require.EqualError(t, err, "timezone cannot be empty")

	// Min == Max is a valid degenerate range.
	flat := base
	flat.PriceRange = PriceRange{Min: 25, Max: 25}
	_, err = NewUserPreferences(flat)
	require.NoError(t, err)
}

func TestPreferencesFromPatchFillsDefaults(t *testing.T) {
	p, err := PreferencesFromPatch(PreferencesPatch{
		CuisineTypes: []string{"thai"},
		Language:     "de",
	})
	require.NoError(t, err)

	require.Equal(t, []string{"thai"}, p.CuisineTypes())
	require.Equal(t, "de", p.Language())
	require.Equal(t, "UTC", p.Timezone())
	require.Equal(t, PriceRange{Min: 0, Max: 1000}, p.PriceRange())
	require.Equal(t, NotificationSettings{Email: true, SMS: false, Push: true}, p.Notifications())
	require.NotNil(t, p.DietaryRestrictions())
	require.NotNil(t, p.PreferredLocations())
}

func TestPreferencesFromPatchValidates(t *testing.T) {
	_, err := PreferencesFromPatch(PreferencesPatch{
		PriceRange: &PriceRange{Min: 100, Max: 10},
	})
	require.Error(t, err)
}

func TestWithCuisineType(t *testing.T) {
	p := DefaultPreferences()
	p2 := p.WithCuisineType("sushi")

	require.Empty(t, p.CuisineTypes())
	require.Equal(t, []string{"sushi"}, p2.CuisineTypes())

	// Duplicate add is a no-op.
	p3 := p2.WithCuisineType("sushi")
	require.Equal(t, []string{"sushi"}, p3.CuisineTypes())

	p4 := p3.WithoutCuisineType("sushi")
	require.Empty(t, p4.CuisineTypes())
	require.Equal(t, []string{"sushi"}, p3.CuisineTypes())
}

func TestWithDietaryRestriction(t *testing.T) {
	p := DefaultPreferences().WithDietaryRestriction("vegan")
	require.Equal(t, []string{"vegan"}, p.DietaryRestrictions())

	p2 := p.WithoutDietaryRestriction("vegan")
	require.Empty(t, p2.DietaryRestrictions())
	p3 := p2.WithoutDietaryRestriction("missing")
	require.Empty(t, p3.DietaryRestrictions())
}

func TestWithPriceRange(t *testing.T) {
	p, err := DefaultPreferences().WithPriceRange(20, 80)
	require.NoError(t, err)
	require.Equal(t, PriceRange{Min: 20, Max: 80}, p.PriceRange())

	_, err = p.WithPriceRange(80, 20)
	require.Error(t, err)
}

func TestWithLanguageAndTimezone(t *testing.T) {
	p, err := DefaultPreferences().WithLanguage("es")
	require.NoError(t, err)
	require.Equal(t, "es", p.Language())

	_, err = p.WithLanguage("")
	require.Error(t, err)

	p2, err := p.WithTimezone("America/New_York")
	require.NoError(t, err)
	require.Equal(t, "America/New_York", p2.Timezone())
	require.Equal(t, "es", p2.Language())
}

func TestEqual(t *testing.T) {
	a := DefaultPreferences()
	b := DefaultPreferences()
	require.True(t, a.Equal(b))

	c := b.WithCuisineType("bbq")
	require.False(t, a.Equal(c))
}

func TestGettersReturnCopies(t *testing.T) {
	p := DefaultPreferences().WithCuisineType("ramen")
	got := p.CuisineTypes()
	got[0] = "mutated"
	require.Equal(t, []string{"ramen"}, p.CuisineTypes())
}

func TestSnapshotJSONShape(t *testing.T) {
	b, err := json.Marshal(DefaultPreferences().Snapshot())
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	for _, key := range []string{"cuisineTypes", "dietaryRestrictions", "priceRange", "preferredLocations", "notifications", "language", "timezone"} {
		require.Contains(t, m, key)
	}
	// Empty collections serialize as [], not null.
	require.Equal(t, []any{}, m["cuisineTypes"])
}
