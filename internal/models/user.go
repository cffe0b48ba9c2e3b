package models

import (
	"fmt"
	"strings"
)

// User is the account record exposed by the auth collaborator.
type User struct {
	entity
	username  string
	email     string
	firstName string
	lastName  string
	avatarURL string
	bio       string
}

// NewUser creates a [User] with the given sequence, username and email.
func NewUser(sequence int, username, email string) *User {
	return &User{
		entity:   newEntity(sequence),
		username: strings.TrimSpace(username),
		email:    strings.TrimSpace(email),
	}
}

func (u *User) Username() string  { return u.username }
func (u *User) Email() string     { return u.email }
func (u *User) FirstName() string { return u.firstName }
func (u *User) LastName() string  { return u.lastName }
func (u *User) AvatarURL() string { return u.avatarURL }
func (u *User) Bio() string       { return u.bio }

// SetProfile replaces the optional profile fields.
func (u *User) SetProfile(firstName, lastName, avatarURL, bio string) {
	u.firstName = firstName
	u.lastName = lastName
	u.avatarURL = avatarURL
	u.bio = bio
}

// DisplayName prefers the full name and falls back to the username.
func (u *User) DisplayName() string {
	if full := strings.TrimSpace(u.firstName + " " + u.lastName); full != "" {
		return full
	}
	return u.username
}

// Validate checks required fields.
func (u *User) Validate() error {
	if u.id == "" {
		return fmt.Errorf("user id is required")
	}
	if u.username == "" {
		return fmt.Errorf("username is required")
	}
	if u.email != "" && !strings.Contains(u.email, "@") {
		return fmt.Errorf("invalid email: %s", u.email)
	}
	return nil
}
