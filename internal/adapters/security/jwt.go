package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lumengallery/auth-service/internal/domain"
	"github.com/lumengallery/auth-service/internal/ports"
)

// JWTSigner implements HS256 token signing/parsing for session tokens.
// The secret is injected at construction so the application layer never
// touches process environment.
type JWTSigner struct {
	secret []byte
}

// NewJWTSigner builds a signer from the configured signing secret.
func NewJWTSigner(secret string) (*JWTSigner, error) {
	if secret == "" {
		return nil, errors.New("jwt signing secret is required")
	}
	return &JWTSigner{secret: []byte(secret)}, nil
}

type authJWTClaims struct {
	AccountID string `json:"account_id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

func (s *JWTSigner) Sign(claims ports.AuthClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, authJWTClaims{
		AccountID: claims.AccountID.String(),
		Role:      claims.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	})
	return token.SignedString(s.secret)
}

// ParseAndValidate checks signature and structure. Expiry is reported as
// domain.ErrTokenExpired; every other failure collapses into
// domain.ErrUnauthorized so callers cannot distinguish why a token was rejected.
func (s *JWTSigner) ParseAndValidate(raw string) (ports.AuthClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &authJWTClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30*time.Second))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ports.AuthClaims{}, domain.ErrTokenExpired
		}
		return ports.AuthClaims{}, domain.ErrUnauthorized
	}
	claims, ok := parsed.Claims.(*authJWTClaims)
	if !ok || !parsed.Valid {
		return ports.AuthClaims{}, domain.ErrUnauthorized
	}

	accountID, err := uuid.Parse(claims.AccountID)
	if err != nil {
		return ports.AuthClaims{}, domain.ErrUnauthorized
	}
	// iat stays optional; exp is enforced above.
	if claims.ExpiresAt == nil {
		return ports.AuthClaims{}, domain.ErrUnauthorized
	}

	out := ports.AuthClaims{
		AccountID: accountID,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	return out, nil
}
