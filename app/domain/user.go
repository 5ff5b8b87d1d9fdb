package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UserRole represents the role of a user
type UserRole string

const (
	UserRoleUser   UserRole = "user"
	UserRoleEditor UserRole = "editor"
	UserRoleAdmin  UserRole = "admin"
)

// ParseUserRole parses a role name. The empty string is the default role.
func ParseUserRole(s string) (UserRole, error) {
	switch UserRole(s) {
	case "":
		return UserRoleUser, nil
	case UserRoleUser, UserRoleEditor, UserRoleAdmin:
		return UserRole(s), nil
	default:
		return "", fmt.Errorf("unknown user role: %q", s)
	}
}

// User represents a user in the system
type User struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username" validate:"required,username"`
	Email       string    `json:"email" validate:"required,email"`
	DisplayName string    `json:"display_name" validate:"required,min=3,max=100"`
	Active      bool      `json:"active"`
	Role        UserRole  `json:"role" validate:"required,user_role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewUser creates an active user with the default role
func NewUser(username, email, displayName string, now time.Time) *User {
	return &User{
		ID:          uuid.New(),
		Username:    username,
		Email:       email,
		DisplayName: displayName,
		Active:      true,
		Role:        UserRoleUser,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// GetID implements Entity
func (u *User) GetID() uuid.UUID { return u.ID }

// Validate implements Entity
func (u *User) Validate() error { return validate(u) }

// CreateUserInput is the payload for creating a user
type CreateUserInput struct {
	Username    string    `json:"username" validate:"required,username"`
	Email       string    `json:"email" validate:"required,email"`
	DisplayName string    `json:"display_name" validate:"required,min=3,max=100"`
	Role        *UserRole `json:"role,omitempty" validate:"omitempty,user_role"`
	Active      *bool     `json:"active,omitempty"`
}

// UpdateUserInput is the payload for a partial user update
type UpdateUserInput struct {
	Email       *string   `json:"email,omitempty" validate:"omitempty,email"`
	DisplayName *string   `json:"display_name,omitempty" validate:"omitempty,min=3,max=100"`
	Role        *UserRole `json:"role,omitempty" validate:"omitempty,user_role"`
	Active      *bool     `json:"active,omitempty"`
}

// Apply copies every set field onto user and bumps UpdatedAt.
func (in UpdateUserInput) Apply(user *User, now time.Time) {
	if in.Email != nil {
		user.Email = *in.Email
	}
	if in.DisplayName != nil {
		user.DisplayName = *in.DisplayName
	}
	if in.Role != nil {
		user.Role = *in.Role
	}
	if in.Active != nil {
		user.Active = *in.Active
	}
	user.UpdatedAt = now
}

// UserFilter narrows a user listing. Nil fields match everything.
type UserFilter struct {
	Role   *UserRole
	Active *bool
}

// Matches reports whether u passes the filter.
func (f UserFilter) Matches(u *User) bool {
	if f.Role != nil && u.Role != *f.Role {
		return false
	}
	if f.Active != nil && u.Active != *f.Active {
		return false
	}
	return true
}
