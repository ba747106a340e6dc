package ports

import (
	"context"
	"time"

	"github.com/lumengallery/auth-service/internal/domain"
)

// OneTimeCodeStore persists short-lived email verification codes.
// Put replaces any live code for the same email, so at most one code is
// valid per address at any moment.
type OneTimeCodeStore interface {
	Put(ctx context.Context, email string, code domain.OneTimeCode, ttl time.Duration) error
	Get(ctx context.Context, email string) (*domain.OneTimeCode, error)
	Delete(ctx context.Context, email string) error
}

// OIDCAuthState stores state data between authorize and callback.
// This preserves anti-CSRF checks across the provider redirect.
type OIDCAuthState struct {
	Provider    string    `json:"provider"`
	RedirectURI string    `json:"redirect_uri"`
	Nonce       string    `json:"nonce"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// OIDCStateStore manages temporary federated-login authorization state.
type OIDCStateStore interface {
	Put(ctx context.Context, state string, value OIDCAuthState, ttl time.Duration) error
	Get(ctx context.Context, state string) (*OIDCAuthState, error)
	Delete(ctx context.Context, state string) error
}
