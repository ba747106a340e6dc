package application

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lumengallery/auth-service/internal/domain"
	"github.com/lumengallery/auth-service/internal/ports"
)

type Service struct {
	cfg           Config
	accounts      ports.AccountRepository
	loginAttempts ports.LoginAttemptRepository
	outbox        ports.OutboxRepository
	codes         ports.OneTimeCodeStore
	oidcState     ports.OIDCStateStore
	oidcVerifier  ports.OIDCVerifier
	notifier      ports.Notifier
	hasher        ports.PasswordHasher
	tokenSigner   ports.TokenSigner
	nowFn         func() time.Time
}

type Dependencies struct {
	Config        Config
	Accounts      ports.AccountRepository
	LoginAttempts ports.LoginAttemptRepository
	Outbox        ports.OutboxRepository
	Codes         ports.OneTimeCodeStore
	OIDCState     ports.OIDCStateStore
	OIDCVerifier  ports.OIDCVerifier
	Notifier      ports.Notifier
	Hasher        ports.PasswordHasher
	TokenSigner   ports.TokenSigner
}

func NewService(deps Dependencies) *Service {
	return &Service{
		cfg:           deps.Config,
		accounts:      deps.Accounts,
		loginAttempts: deps.LoginAttempts,
		outbox:        deps.Outbox,
		codes:         deps.Codes,
		oidcState:     deps.OIDCState,
		oidcVerifier:  deps.OIDCVerifier,
		notifier:      deps.Notifier,
		hasher:        deps.Hasher,
		tokenSigner:   deps.TokenSigner,
		nowFn:         func() time.Time { return time.Now().UTC() },
	}
}

// StartRegistration begins the verified-registration flow. The account is not
// persisted yet; the caller re-submits name/password together with the code.
// Conflict is checked before any code is issued so duplicate registrations
// never trigger a mail send.
func (s *Service) StartRegistration(ctx context.Context, req RegisterRequest) error {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return err
	}
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if err := domain.ValidatePassword(req.Password); err != nil {
		return err
	}

	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return fmt.Errorf("%w: email already registered", domain.ErrConflict)
	}

	return s.IssueCode(ctx, email)
}

// CompleteRegistration consumes the one-time code and, on success, creates
// the account as verified and active. A duplicate that appeared between start
// and complete is still rejected; the code is already spent at that point,
// which matches the single-use contract.
func (s *Service) CompleteRegistration(ctx context.Context, req CompleteRegistrationRequest) (AccountView, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return AccountView{}, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return AccountView{}, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if err := domain.ValidatePassword(req.Password); err != nil {
		return AccountView{}, err
	}

	if err := s.VerifyCode(ctx, email, req.OTP); err != nil {
		return AccountView{}, err
	}

	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return AccountView{}, fmt.Errorf("%w: email already registered", domain.ErrConflict)
	}

	account, err := s.createAccount(ctx, strings.TrimSpace(req.Name), email, req.Password, s.cfg.DefaultRole)
	if err != nil {
		return AccountView{}, err
	}
	return toAccountView(account), nil
}

// BootstrapAdmin creates an admin account without an OTP round-trip.
// The capability is gated by a configured secret; a mismatch is reported as
// unauthorized without revealing whether the path is enabled at all.
func (s *Service) BootstrapAdmin(ctx context.Context, req BootstrapAdminRequest) (AccountView, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return AccountView{}, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return AccountView{}, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if err := domain.ValidatePassword(req.Password); err != nil {
		return AccountView{}, err
	}

	if s.cfg.AdminBootstrapCode == "" ||
		subtle.ConstantTimeCompare([]byte(req.AdminCode), []byte(s.cfg.AdminBootstrapCode)) != 1 {
		return AccountView{}, domain.ErrUnauthorized
	}

	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return AccountView{}, fmt.Errorf("%w: email already registered", domain.ErrConflict)
	}

	account, err := s.createAccount(ctx, strings.TrimSpace(req.Name), email, req.Password, domain.RoleAdmin)
	if err != nil {
		return AccountView{}, err
	}
	return toAccountView(account), nil
}

// Login authenticates a local account and issues a signed session token.
// Unknown email, unverified account, and wrong password all collapse into
// the same invalid-credentials error. Login gates on verified only; the
// active flag is not consulted here (see DESIGN.md).
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return LoginResponse{}, err
	}
	if req.Password == "" {
		return LoginResponse{}, fmt.Errorf("%w: password is required", domain.ErrInvalidInput)
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		s.recordFailure(ctx, nil, req, "ACCOUNT_NOT_FOUND")
		return LoginResponse{}, domain.ErrInvalidCredentials
	}
	if !account.Verified {
		s.recordFailure(ctx, &account.AccountID, req, "NOT_VERIFIED")
		return LoginResponse{}, domain.ErrInvalidCredentials
	}
	if err := s.hasher.Compare(account.PasswordHash, req.Password); err != nil {
		s.recordFailure(ctx, &account.AccountID, req, "INVALID_PASSWORD")
		return LoginResponse{}, domain.ErrInvalidCredentials
	}

	now := s.nowFn()
	s.recordAttempt(ctx, domain.LoginAttempt{
		AccountID: &account.AccountID,
		AttemptAt: now,
		IPAddress: req.IPAddress,
		Status:    "SUCCESS",
		UserAgent: req.UserAgent,
	})

	token, err := s.tokenSigner.Sign(ports.AuthClaims{
		AccountID: account.AccountID,
		Role:      account.Role,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.TokenTTL),
	})
	if err != nil {
		return LoginResponse{}, fmt.Errorf("sign token: %w", err)
	}

	return LoginResponse{
		Token:     token,
		ExpiresIn: int64(s.cfg.TokenTTL.Seconds()),
		Account:   toAccountView(account),
	}, nil
}

// ForgotPassword issues a password-recovery code. Unlike registration this
// path requires an existing account and says so; the recovery surface keeps
// the original not-found contract rather than an anti-enumeration silence.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	if _, err := s.accounts.GetByEmail(ctx, normalized); err != nil {
		return err
	}
	return s.IssueCode(ctx, normalized)
}

// ResetPassword consumes a recovery code and overwrites the password hash.
func (s *Service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return err
	}
	if err := domain.ValidatePassword(req.NewPassword); err != nil {
		return err
	}

	if err := s.VerifyCode(ctx, email, req.OTP); err != nil {
		return err
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	passwordHash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	now := s.nowFn()
	if err := s.accounts.UpdatePassword(ctx, account.AccountID, passwordHash, now); err != nil {
		return err
	}

	payload, _ := json.Marshal(map[string]any{
		"account_id": account.AccountID,
		"reset_at":   now,
	})
	_ = s.outbox.Enqueue(ctx, ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    eventTypePasswordReset,
		PartitionKey: account.AccountID.String(),
		Payload:      payload,
		OccurredAt:   now,
	})
	return nil
}

// ValidateToken checks a bearer token and returns its claims. Expired tokens
// are distinguished from otherwise invalid ones so the boundary can report
// TOKEN_EXPIRED. Validation is pure; no account lookup happens here, so
// tokens issued before a deactivation stay valid until natural expiry.
func (s *Service) ValidateToken(_ context.Context, token string) (ports.AuthClaims, error) {
	claims, err := s.tokenSigner.ParseAndValidate(token)
	if err != nil {
		return ports.AuthClaims{}, err
	}
	return claims, nil
}

func (s *Service) createAccount(ctx context.Context, name, email, password, role string) (domain.Account, error) {
	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return domain.Account{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.nowFn()
	payload, _ := json.Marshal(map[string]any{
		"email":         email,
		"role":          role,
		"registered_at": now,
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
		PasswordHash:    passwordHash,
		Role:            role,
		Verified:        true,
		Active:          true,
		RegisteredAtUTC: now,
	}, event)
}

func (s *Service) recordFailure(ctx context.Context, accountID *uuid.UUID, req LoginRequest, reason string) {
	s.recordAttempt(ctx, domain.LoginAttempt{
		AccountID:     accountID,
		AttemptAt:     s.nowFn(),
		IPAddress:     req.IPAddress,
		Status:        "FAILED",
		FailureReason: reason,
		UserAgent:     req.UserAgent,
	})
}

// recordAttempt persists an audit row. The login outcome does not depend on
// the audit write, so a failed insert is logged and swallowed.
func (s *Service) recordAttempt(ctx context.Context, attempt domain.LoginAttempt) {
	if err := s.loginAttempts.Insert(ctx, attempt); err != nil {
		slog.Default().WarnContext(ctx, "failed to persist login attempt",
			"layer", "application",
			"operation", "record_login_attempt",
			"error", err)
	}
}

func normalizeEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(trimmed); err != nil {
		return "", fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}
	return trimmed, nil
}

func randomDigits(size int) string {
	if size <= 0 {
		size = 6
	}
	max := 1
	for i := 0; i < size; i++ {
		max *= 10
	}
	nRaw := make([]byte, 4)
	_, _ = rand.Read(nRaw)
	n := int(nRaw[0])<<24 | int(nRaw[1])<<16 | int(nRaw[2])<<8 | int(nRaw[3])
	if n < 0 {
		n = -n
	}
	return fmt.Sprintf("%0*d", size, n%max)
}
