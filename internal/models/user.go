package models

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"
)

// User is an account mirrored from the hosted auth service. Passwords never reach the local catalog.
type User struct {
	base
	email string
	name  string
}

// NewUser creates a user with the current time as created/updated timestamps.
func NewUser(sequence int, email, name string) *User {
	return &User{base: newBase(sequence), email: strings.TrimSpace(email), name: strings.TrimSpace(name)}
}

func (u *User) Email() string { return u.email }
func (u *User) Name() string  { return u.name }

func (u *User) SetEmail(email string) { u.email = strings.TrimSpace(email) }
func (u *User) SetName(name string)   { u.name = strings.TrimSpace(name) }

func (u *User) Validate() error {
	if u.email == "" {
		return fmt.Errorf("email is required")
	}
	if _, err := mail.ParseAddress(u.email); err != nil {
		return fmt.Errorf("invalid email %q", u.email)
	}
	if u.name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// UserRecord is the wire shape of a user.
type UserRecord struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (u *User) MarshalJSON() ([]byte, error) {
	return json.Marshal(UserRecord{ID: u.id, Email: u.email, Name: u.name})
}
