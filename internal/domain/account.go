package domain

import (
	"time"

	"github.com/google/uuid"
)

// Roles an account can hold. There is no role table; the set is closed and
// enforced by a check constraint in the accounts schema.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ValidRole reports whether role is one of the assignable roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

// Account is the persisted identity aggregate. Verified means the owner proved
// control of the email (or came through a trusted bootstrap/federated path);
// Active is the administrative enable flag.
type Account struct {
	AccountID    uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Verified     bool
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OneTimeCode is a short-lived secret bound to an email address.
// At most one live code exists per email; a new issuance replaces the old one.
type OneTimeCode struct {
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the code's validity window has passed.
// Expired records are treated as absent even if still physically stored.
func (c OneTimeCode) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

// LoginAttempt records an authentication outcome for audit purposes.
type LoginAttempt struct {
	ID            int64
	AccountID     *uuid.UUID
	AttemptAt     time.Time
	IPAddress     string
	Status        string
	FailureReason string
	UserAgent     string
}
