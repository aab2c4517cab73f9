package domain

import "time"

// Role identifies what an account may do.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleManager   Role = "manager"
	RoleAgent     Role = "agent"
	RoleCustomer  Role = "customer"
	RoleHR        Role = "hr"
	RoleFinance   Role = "finance"
	RoleMarketing Role = "marketing"
)

// Roles lists every known role.
var Roles = []Role{RoleAdmin, RoleManager, RoleAgent, RoleCustomer, RoleHR, RoleFinance, RoleMarketing}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Account is a user of the portal, customer or staff.
type Account struct {
	ID            string      `json:"id"`
	FirstName     string      `json:"firstName"`
	LastName      string      `json:"lastName"`
	Email         string      `json:"email"`
	PasswordHash  string      `json:"-"`
	Role          Role        `json:"role"`
	Phone         string      `json:"phone,omitempty"`
	Country       string      `json:"country,omitempty"`
	IsActive      bool        `json:"isActive"`
	EmailVerified bool        `json:"emailVerified"`
	Preferences   Preferences `json:"preferences"`
	Profile       Profile     `json:"profile"`
	LastLogin     *time.Time  `json:"lastLogin,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// FullName joins first and last name.
func (a *Account) FullName() string {
	if a.LastName == "" {
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

// Preferences holds locale and notification toggles.
type Preferences struct {
	Language      string                  `json:"language"`
	Currency      string                  `json:"currency"`
	Notifications NotificationPreferences `json:"notifications"`
}

// NotificationPreferences toggles delivery channels.
type NotificationPreferences struct {
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
}

// DefaultPreferences returns the preferences of a freshly registered account.
func DefaultPreferences() Preferences {
	return Preferences{
		Language: "en",
		Currency: DefaultCurrency,
		Notifications: NotificationPreferences{
			Email: true,
			SMS:   false,
		},
	}
}

// Profile carries personal details and CRM notes.
type Profile struct {
	Avatar           string            `json:"avatar,omitempty"`
	DateOfBirth      *Date             `json:"dateOfBirth,omitempty"`
	Nationality      string            `json:"nationality,omitempty"`
	PassportNumber   string            `json:"passportNumber,omitempty"`
	EmergencyContact *EmergencyContact `json:"emergencyContact,omitempty"`
	Notes            []CustomerNote    `json:"notes,omitempty"`
}

// EmergencyContact is shared by profiles and travelers.
type EmergencyContact struct {
	Name         string `json:"name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Relationship string `json:"relationship,omitempty"`
}

// CustomerNote is a CRM annotation on a customer profile.
type CustomerNote struct {
	Note    string    `json:"note"`
	Type    string    `json:"type"`
	AddedBy string    `json:"addedBy"`
	Date    time.Time `json:"date"`
}

// RoleStat is the per-role active/inactive breakdown.
type RoleStat struct {
	Role     Role `json:"role"`
	Total    int  `json:"count"`
	Active   int  `json:"active"`
	Inactive int  `json:"inactive"`
}

// PreferencesPatch carries the preference keys a caller supplied. Absent keys
// keep their current value.
type PreferencesPatch struct {
	Language      *string                  `json:"language"`
	Currency      *string                  `json:"currency"`
	Notifications *NotificationPreferences `json:"notifications"`
}

// Apply merges the patch into p one key deep.
func (p *Preferences) Apply(patch PreferencesPatch) {
	if patch.Language != nil {
		p.Language = *patch.Language
	}
	if patch.Currency != nil {
		p.Currency = *patch.Currency
	}
	if patch.Notifications != nil {
		p.Notifications = *patch.Notifications
	}
}

// ProfilePatch carries the profile keys a caller supplied. Notes are managed
// through the CRM and cannot be patched.
type ProfilePatch struct {
	Avatar           *string           `json:"avatar"`
	DateOfBirth      *Date             `json:"dateOfBirth"`
	Nationality      *string           `json:"nationality"`
	PassportNumber   *string           `json:"passportNumber"`
	EmergencyContact *EmergencyContact `json:"emergencyContact"`
}

// Apply merges the patch into p one key deep.
func (p *Profile) Apply(patch ProfilePatch) {
	if patch.Avatar != nil {
		p.Avatar = *patch.Avatar
	}
	if patch.DateOfBirth != nil {
		p.DateOfBirth = patch.DateOfBirth
	}
	if patch.Nationality != nil {
		p.Nationality = *patch.Nationality
	}
	if patch.PassportNumber != nil {
		p.PassportNumber = *patch.PassportNumber
	}
	if patch.EmergencyContact != nil {
		p.EmergencyContact = patch.EmergencyContact
	}
}
