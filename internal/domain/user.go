package domain

import "time"

// Account is the credential state of a user: either Guest or Registered.
type Account interface {
	isAccount()
}

// Guest accounts were minted from a service request and cannot log in.
type Guest struct{}

// Registered accounts carry a one-way password credential.
type Registered struct {
	Credential string
}

func (Guest) isAccount()      {}
func (Registered) isAccount() {}

// Profile holds the citizen identity fields shared by registration and request intake.
// Empty MiddleName and Phone are stored as NULL.
type Profile struct {
	FirstName  string
	MiddleName string
	LastName   string
	NationalID string
	Phone      string
	Email      string
}

// User is one citizen record.
type User struct {
	ID        int64
	Profile   Profile
	Account   Account
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewGuest returns an inactive user without a credential.
func NewGuest(profile Profile) *User {
	return &User{Profile: profile, Account: Guest{}, Active: false}
}

// NewRegistered returns an active user holding credential.
func NewRegistered(profile Profile, credential string) *User {
	return &User{Profile: profile, Account: Registered{Credential: credential}, Active: true}
}

// AccountFromCredential maps the nullable storage column onto the Account variant.
func AccountFromCredential(credential *string) Account {
	if credential == nil || *credential == "" {
		return Guest{}
	}
	return Registered{Credential: *credential}
}

// Credential returns the stored hash and whether the user is registered.
func (u *User) Credential() (string, bool) {
	if reg, ok := u.Account.(Registered); ok {
		return reg.Credential, true
	}
	return "", false
}

// IsGuest reports whether the user has never registered.
func (u *User) IsGuest() bool {
	_, registered := u.Credential()
	return !registered
}

// PublicProfile is the sanitized view returned to clients. It never includes the credential.
type PublicProfile struct {
	FirstName  string `json:"firstName"`
	MiddleName string `json:"middleName,omitempty"`
	LastName   string `json:"lastName"`
	NationalID string `json:"nationalId"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email"`
}

// Public strips everything but the identity fields.
func (u *User) Public() PublicProfile {
	return PublicProfile{
		FirstName:  u.Profile.FirstName,
		MiddleName: u.Profile.MiddleName,
		LastName:   u.Profile.LastName,
		NationalID: u.Profile.NationalID,
		Phone:      u.Profile.Phone,
		Email:      u.Profile.Email,
	}
}
