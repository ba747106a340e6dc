package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type AuthClaims struct {
	AccountID uuid.UUID `json:"account_id"`
	Role      string    `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type TokenSigner interface {
	Sign(claims AuthClaims) (string, error)
	ParseAndValidate(token string) (AuthClaims, error)
}

type OIDCVerifier interface {
	BuildAuthorizeURL(ctx context.Context, redirectURI, state, nonce string) (string, error)
	ExchangeCode(ctx context.Context, code, redirectURI, nonce string) (OIDCIdentity, error)
}

type OIDCIdentity struct {
	Provider      string
	ProviderSub   string
	Email         string
	EmailVerified bool
	Name          string
}
