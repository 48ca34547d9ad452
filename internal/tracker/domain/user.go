// Package domain holds the tracker entities and their validation rules.
package domain

import (
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/forgewatch/forgewatch/internal/platform/errors"
	"github.com/forgewatch/forgewatch/internal/platform/id"
)

// Role describes what a user is allowed to manage.
type Role string

const (
	// RoleContributor is the default role for tracked contributors.
	RoleContributor Role = "contributor"
	// RoleProjectLead can manage contributors and support contacts.
	RoleProjectLead Role = "project_lead"
)

// ParseRole validates a role value, defaulting empty input to contributor.
func ParseRole(value string) (Role, error) {
	switch Role(strings.TrimSpace(value)) {
	case "":
		return RoleContributor, nil
	case RoleContributor:
		return RoleContributor, nil
	case RoleProjectLead:
		return RoleProjectLead, nil
	default:
		return "", apperrors.WithMetadata(apperrors.CodeUserRoleInvalid, "unknown role", map[string]string{"role": value})
	}
}

// User is an account identified by email.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	Admin        bool
	CreatedAt    time.Time
}

// NewUser creates an active, non-admin user with a hashed password.
func NewUser(email, password string, role Role) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return User{}, apperrors.Wrap(apperrors.CodeUserEmailInvalid, "invalid email format", err)
	}
	if role == "" {
		role = RoleContributor
	}
	if role != RoleContributor && role != RoleProjectLead {
		return User{}, apperrors.New(apperrors.CodeUserRoleInvalid, "unknown role")
	}

	user := User{
		ID:        id.New(),
		Email:     email,
		Role:      role,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := user.SetPassword(password); err != nil {
		return User{}, err
	}
	return user, nil
}

// NewAdmin creates a user with the admin flag set.
func NewAdmin(email, password string, role Role) (User, error) {
	user, err := NewUser(email, password, role)
	if err != nil {
		return User{}, err
	}
	user.Admin = true
	user.Active = true
	return user, nil
}

// SetPassword replaces the stored bcrypt hash.
func (u *User) SetPassword(password string) error {
	if password == "" {
		return apperrors.New(apperrors.CodeUserPasswordEmpty, "password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether password matches the stored hash.
func (u User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// IsProjectLead reports whether the user manages contributors and support.
func (u User) IsProjectLead() bool {
	return u.Role == RoleProjectLead
}

// IsStaff reports whether the user may sign in to the admin app.
func (u User) IsStaff() bool {
	return u.Admin
}
