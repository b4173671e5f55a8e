package user

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rentwheel/service-rental/internal/common/apperror"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

// Role represents what a user may do in the marketplace.
type Role string

const (
	RoleUser  Role = "user"
	RoleOwner Role = "owner"
)

// IsValid returns true if the role is recognized.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleOwner
}

// User is the aggregate root for a registered account.
type User struct {
	id           uuid.UUID
	name         string
	email        string
	passwordHash string
	role         Role
	imageURL     string
	createdAt    time.Time
	updatedAt    time.Time
}

// ValidateRegistration checks the raw registration input before hashing.
func ValidateRegistration(name, email, password string) error {
	if strings.TrimSpace(name) == "" {
		return apperror.NewValidationError("name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperror.NewValidationError("a valid email is required")
	}
	if len(password) < MinPasswordLength {
		return apperror.NewValidationError("password must be at least 8 characters")
	}
	return nil
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewUser creates a user with the default role.
func NewUser(name, email, passwordHash string) (*User, error) {
	if passwordHash == "" {
		return nil, apperror.NewValidationError("password hash is required")
	}
	now := time.Now().UTC()
	return &User{
		id:           uuid.New(),
		name:         strings.TrimSpace(name),
		email:        NormalizeEmail(email),
		passwordHash: passwordHash,
		role:         RoleUser,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Reconstruct rebuilds a User from persistence.
func Reconstruct(id uuid.UUID, name, email, passwordHash string, role Role, imageURL string, createdAt, updatedAt time.Time) *User {
	return &User{
		id:           id,
		name:         name,
		email:        email,
		passwordHash: passwordHash,
		role:         role,
		imageURL:     imageURL,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// Getters.
func (u *User) ID() uuid.UUID        { return u.id }
func (u *User) Name() string         { return u.name }
func (u *User) Email() string        { return u.email }
func (u *User) PasswordHash() string { return u.passwordHash }
func (u *User) Role() Role           { return u.role }
func (u *User) ImageURL() string     { return u.imageURL }
func (u *User) CreatedAt() time.Time { return u.createdAt }
func (u *User) UpdatedAt() time.Time { return u.updatedAt }

// PromoteToOwner lets the user list cars.
func (u *User) PromoteToOwner() {
	u.role = RoleOwner
	u.updatedAt = time.Now().UTC()
}

// SetImage replaces the profile image URL; an empty url removes it.
func (u *User) SetImage(url string) {
	u.imageURL = url
	u.updatedAt = time.Now().UTC()
}
