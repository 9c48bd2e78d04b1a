// Package user provides domain logic for audit service users.
package user

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chiragkoyande/audit-project/internal/domain/shared"
)

// Domain-specific errors for user package.
var (
	ErrInvalidEmail    = errors.New("invalid email format")
	ErrEmailTooLong    = errors.New("email exceeds 255 characters")
	ErrEmptyFullName   = errors.New("full name cannot be empty")
	ErrFullNameTooLong = errors.New("full name exceeds 255 characters")
	ErrInvalidRole     = errors.New("role must be one of admin, auditor, viewer")
	ErrInactive        = errors.New("user account is inactive")
	ErrNoPassword      = errors.New("user has no password set")
)

const (
	maxEmailLength    = 255
	maxFullNameLength = 255
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Role is the coarse access level of a user.
type Role string

// Supported roles.
const (
	RoleAdmin   Role = "admin"
	RoleAuditor Role = "auditor"
	RoleViewer  Role = "viewer"
)

// ParseRole validates a role name. Empty input yields the viewer role.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case "", RoleViewer:
		return RoleViewer, nil
	case RoleAuditor:
		return RoleAuditor, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", ErrInvalidRole
	}
}

// User is the aggregate root for the user domain.
type User struct {
	id           uuid.UUID
	email        string
	fullName     string
	passwordHash string
	role         Role
	isActive     bool
	createdAt    time.Time
	updatedAt    time.Time
}

// NewUser creates a new active User with validation.
func NewUser(email, fullName string, role Role) (*User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	fullName, err = validateFullName(fullName)
	if err != nil {
		return nil, err
	}
	if role == "" {
		role = RoleViewer
	}
	if _, err := ParseRole(string(role)); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &User{
		id:        uuid.New(),
		email:     email,
		fullName:  fullName,
		role:      role,
		isActive:  true,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructUser reconstructs a User entity from persistence data.
func ReconstructUser(
	id uuid.UUID,
	email, fullName, passwordHash string,
	role Role,
	isActive bool,
	createdAt, updatedAt time.Time,
) *User {
	return &User{
		id:           id,
		email:        email,
		fullName:     fullName,
		passwordHash: passwordHash,
		role:         role,
		isActive:     isActive,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// ID returns the user identifier.
func (u *User) ID() uuid.UUID { return u.id }

// Email returns the email address.
func (u *User) Email() string { return u.email }

// FullName returns the display name.
func (u *User) FullName() string { return u.fullName }

// PasswordHash returns the password hash, empty when no password is set.
func (u *User) PasswordHash() string { return u.passwordHash }

// Role returns the access role.
func (u *User) Role() Role { return u.role }

// IsActive returns whether the user is active.
func (u *User) IsActive() bool { return u.isActive }

// CreatedAt returns the creation time.
func (u *User) CreatedAt() time.Time { return u.createdAt }

// UpdatedAt returns the last modification time.
func (u *User) UpdatedAt() time.Time { return u.updatedAt }

// =============================================================================
// Domain Behavior Methods
// =============================================================================

// CanLogin checks if the user can authenticate with a password.
func (u *User) CanLogin() error {
	if !u.isActive {
		return ErrInactive
	}
	if u.passwordHash == "" {
		return ErrNoPassword
	}
	return nil
}

// UpdateProfile changes the display name.
func (u *User) UpdateProfile(fullName string) error {
	name, err := validateFullName(fullName)
	if err != nil {
		return err
	}
	u.fullName = name
	u.touch()
	return nil
}

// ChangeRole updates the user's role.
func (u *User) ChangeRole(role Role) error {
	if _, err := ParseRole(string(role)); err != nil || role == "" {
		return ErrInvalidRole
	}
	u.role = role
	u.touch()
	return nil
}

// SetPasswordHash stores a new password hash.
func (u *User) SetPasswordHash(hash string) {
	u.passwordHash = hash
	u.touch()
}

// Deactivate disables the account.
func (u *User) Deactivate() error {
	if !u.isActive {
		return shared.ErrConflict
	}
	u.isActive = false
	u.touch()
	return nil
}

// Activate re-enables the account.
func (u *User) Activate() {
	u.isActive = true
	u.touch()
}

// ToMap returns the dictionary form exposed to API clients.
func (u *User) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"id":         u.id.String(),
		"email":      u.email,
		"full_name":  u.fullName,
		"role":       string(u.role),
		"created_at": u.createdAt.Format(time.RFC3339),
		"is_active":  u.isActive,
	}
}

func (u *User) touch() {
	u.updatedAt = time.Now().UTC()
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(email) > maxEmailLength {
		return "", ErrEmailTooLong
	}
	if !emailRegex.MatchString(email) {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func validateFullName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyFullName
	}
	if len(name) > maxFullNameLength {
		return "", ErrFullNameTooLong
	}
	return name, nil
}
