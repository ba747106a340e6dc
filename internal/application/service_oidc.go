package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lumengallery/auth-service/internal/domain"
	"github.com/lumengallery/auth-service/internal/ports"
)

const federatedStateTTL = 10 * time.Minute

// FederatedAuthorize starts a Google sign-in. It stores anti-CSRF state and
// returns the provider URL the client should be redirected to.
func (s *Service) FederatedAuthorize(ctx context.Context, redirectURI string) (string, error) {
	if s.oidcVerifier == nil {
		return "", fmt.Errorf("%w: federated login is not configured", domain.ErrInvalidInput)
	}
	if _, err := url.ParseRequestURI(redirectURI); err != nil {
		return "", fmt.Errorf("%w: invalid redirect_uri", domain.ErrInvalidInput)
	}

	state := randomHex(16)
	nonce := randomHex(16)
	now := s.nowFn()
	if err := s.oidcState.Put(ctx, state, ports.OIDCAuthState{
		Provider:    "google",
		RedirectURI: redirectURI,
		Nonce:       nonce,
		CreatedAt:   now,
		ExpiresAt:   now.Add(federatedStateTTL),
	}, federatedStateTTL); err != nil {
		return "", err
	}

	authorizeURL, err := s.oidcVerifier.BuildAuthorizeURL(ctx, redirectURI, state, nonce)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return authorizeURL, nil
}

// FederatedCallback completes a Google sign-in. The provider-asserted email
// stands in for the one-time-code proof, so a first-time account is created
// verified and active. The issued token uses the longer federated TTL, and
// the caller is sent back to the web client with the token in the query.
func (s *Service) FederatedCallback(ctx context.Context, code, state string) (string, error) {
	if s.oidcVerifier == nil {
		return "", fmt.Errorf("%w: federated login is not configured", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(code) == "" || strings.TrimSpace(state) == "" {
		return "", fmt.Errorf("%w: code and state are required", domain.ErrInvalidInput)
	}

	authState, err := s.oidcState.Get(ctx, state)
	if err != nil {
		return "", err
	}
	if authState == nil || authState.ExpiresAt.Before(s.nowFn()) {
		return "", domain.ErrUnauthorized
	}
	_ = s.oidcState.Delete(ctx, state)

	identity, err := s.oidcVerifier.ExchangeCode(ctx, code, authState.RedirectURI, authState.Nonce)
	if err != nil {
		return "", domain.ErrUnauthorized
	}
	if identity.ProviderSub == "" || !identity.EmailVerified {
		return "", domain.ErrUnauthorized
	}
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if email == "" {
		return "", domain.ErrUnauthorized
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		name := strings.TrimSpace(identity.Name)
		if name == "" {
			name = email
		}
		created, createErr := s.createFederatedAccount(ctx, name, email)
		if createErr != nil {
			return "", createErr
		}
		account = created
	}

	now := s.nowFn()
	token, err := s.tokenSigner.Sign(ports.AuthClaims{
		AccountID: account.AccountID,
		Role:      account.Role,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.FederatedTokenTTL),
	})
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return strings.TrimRight(s.cfg.ClientURL, "/") + "/oauth-success?token=" + url.QueryEscape(token), nil
}

func (s *Service) createFederatedAccount(ctx context.Context, name, email string) (domain.Account, error) {
	now := s.nowFn()
	payload, _ := json.Marshal(map[string]any{
		"email":     email,
		"role":      s.cfg.DefaultRole,
		"federated": true,
	})
	event := ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    eventTypeAccountRegistered,
		PartitionKey: email,
		Payload:      payload,
		OccurredAt:   now,
	}
	return s.accounts.CreateWithOutboxTx(ctx, ports.CreateAccountTxParams{
		Name:            name,
		Email:           email,
		PasswordHash:    "",
		Role:            s.cfg.DefaultRole,
		Verified:        true,
		Active:          true,
		RegisteredAtUTC: now,
	}, event)
}

func randomHex(bytesLen int) string {
	raw := make([]byte, bytesLen)
	_, _ = rand.Read(raw)
	return hex.EncodeToString(raw)
}
