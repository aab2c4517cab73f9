package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "serengeti-migration-safari", Slugify("Serengeti Migration Safari"))
	assert.Equal(t, "kili--climb", Slugify("Kili & Climb"))
	assert.Equal(t, "zanzibar_beach-5", Slugify("Zanzibar_Beach 5!"))
}

func TestCanTransitionIsPermissive(t *testing.T) {
	for _, from := range BookingStatuses {
		for _, to := range BookingStatuses {
			assert.True(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.False(t, CanTransition(BookingStatusPending, "archived"))
	assert.False(t, BookingStatus("archived").Valid())
}

func TestTravelerCountsPriced(t *testing.T) {
	assert.Equal(t, 5, TravelerCounts{Adults: 3, Children: 2, Infants: 4}.Priced())
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleMarketing.Valid())
	assert.False(t, Role("root").Valid())
}

func TestAccountJSONHidesPasswordHash(t *testing.T) {
	raw, err := json.Marshal(Account{ID: "a1", Email: "x@example.com", PasswordHash: "secret"})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
}

func TestMoneyMarshalsAsNumber(t *testing.T) {
	raw, err := json.Marshal(Discount{Type: DiscountGroup, Amount: decimal.RequireFromString("500.5")})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"amount":500.5`)
}

func TestPreferencesApplyIsShallow(t *testing.T) {
	prefs := DefaultPreferences()
	lang := "sw"
	prefs.Apply(PreferencesPatch{Language: &lang})
	assert.Equal(t, "sw", prefs.Language)
	assert.Equal(t, "USD", prefs.Currency)
	assert.True(t, prefs.Notifications.Email)

	prefs.Apply(PreferencesPatch{Notifications: &NotificationPreferences{SMS: true}})
	assert.False(t, prefs.Notifications.Email)
	assert.True(t, prefs.Notifications.SMS)
}

func TestProfileApplyKeepsNotes(t *testing.T) {
	profile := Profile{Nationality: "TZ", Notes: []CustomerNote{{Note: "vip"}}}
	avatar := "https://cdn.example/a.png"
	profile.Apply(ProfilePatch{Avatar: &avatar})
	assert.Equal(t, "TZ", profile.Nationality)
	assert.Equal(t, avatar, profile.Avatar)
	assert.Len(t, profile.Notes, 1)
}

func TestDateAcceptsCalendarAndTimestamp(t *testing.T) {
	var traveler Traveler
	require.NoError(t, json.Unmarshal([]byte(`{"firstName":"Amina","dateOfBirth":"1990-01-01","passportExpiry":"2031-05-20T00:00:00Z"}`), &traveler))
	require.NotNil(t, traveler.DateOfBirth)
	assert.Equal(t, time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), traveler.DateOfBirth.Time)
	assert.Equal(t, time.Date(2031, 5, 20, 0, 0, 0, 0, time.UTC), traveler.PassportExpiry.Time)

	var patch ProfilePatch
	require.NoError(t, json.Unmarshal([]byte(`{"dateOfBirth":"1985-07-14"}`), &patch))
	assert.Equal(t, 1985, patch.DateOfBirth.Year())

	var availability Availability
	require.NoError(t, json.Unmarshal([]byte(`{"departureDates":["2030-07-01","2030-08-01T06:00:00+03:00"],"blackoutDates":null}`), &availability))
	assert.Len(t, availability.DepartureDates, 2)

	assert.Error(t, json.Unmarshal([]byte(`{"dateOfBirth":"first of May"}`), &traveler))
	assert.Error(t, json.Unmarshal([]byte(`{"dateOfBirth":19900101}`), &traveler))
}

func TestDateMarshalsAsUTCTimestamp(t *testing.T) {
	d := NewDate(time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC))
	raw, err := json.Marshal(Traveler{FirstName: "Amina", DateOfBirth: &d})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"dateOfBirth":"1990-01-01T00:00:00Z"`)
}
