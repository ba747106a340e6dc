package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lumengallery/auth-service/internal/application"
	"github.com/lumengallery/auth-service/internal/domain"
	"github.com/lumengallery/auth-service/internal/ports"
)

func newTestRouter(t *testing.T) (http.Handler, *routerFixture) {
	t.Helper()

	accounts := &stubAccounts{
		byEmail: map[string]domain.Account{},
		byID:    map[uuid.UUID]domain.Account{},
	}
	signer := &stubSigner{tokens: map[string]ports.AuthClaims{}}
	notifier := &stubNotifier{}
	codes := &stubCodes{items: map[string]domain.OneTimeCode{}}

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			DefaultRole: "user",
			TokenTTL:    time.Hour,
			OTPTTL:      10 * time.Minute,
		},
		Accounts:      accounts,
		LoginAttempts: &stubAttempts{},
		Outbox:        &stubOutbox{},
		Codes:         codes,
		OIDCState:     &stubStates{},
		Notifier:      notifier,
		Hasher:        &stubHasher{},
		TokenSigner:   signer,
	})

	fx := &routerFixture{accounts: accounts, signer: signer, notifier: notifier, codes: codes}
	return NewRouter(NewHandler(svc)), fx
}

type routerFixture struct {
	accounts *stubAccounts
	signer   *stubSigner
	notifier *stubNotifier
	codes    *stubCodes
}

func (fx *routerFixture) seedAccount(email, role string) domain.Account {
	a := domain.Account{
		AccountID:    uuid.New(),
		Name:         "Seeded",
		Email:        email,
		PasswordHash: "hash:SecurePass123",
		Role:         role,
		Verified:     true,
		Active:       true,
	}
	fx.accounts.byEmail[email] = a
	fx.accounts.byID[a.AccountID] = a
	return a
}

func (fx *routerFixture) tokenFor(a domain.Account) string {
	token, _ := fx.signer.Sign(ports.AuthClaims{AccountID: a.AccountID, Role: a.Role})
	return token
}

func doJSON(t *testing.T, router http.Handler, method, path, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error payload: %v (%s)", err, rec.Body.String())
	}
	return payload.Code
}

func TestRegisterDispatchesCode(t *testing.T) {
	t.Parallel()

	router, fx := newTestRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/auth/register",
		`{"name":"Ada","email":"ada@example.com","password":"SecurePass123"}`, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(fx.notifier.sent) != 1 {
		t.Fatalf("expected one dispatched code")
	}
}

func TestRegisterDuplicateEmailReturnsConflict(t *testing.T) {
	t.Parallel()

	router, fx := newTestRouter(t)
	fx.seedAccount("ada@example.com", "user")

	rec := doJSON(t, router, http.MethodPost, "/auth/register",
		`{"name":"Ada","email":"ada@example.com","password":"SecurePass123"}`, "")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := errorCode(t, rec); got != "CONFLICT" {
		t.Fatalf("expected CONFLICT code, got %s", got)
	}
	if len(fx.notifier.sent) != 0 {
		t.Fatalf("duplicate register must not dispatch mail")
	}
}

func TestRegisterRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/auth/register",
		`{"name":"Ada","email":"ada@example.com","password":"SecurePass123","extra":true}`, "")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}
	if got := errorCode(t, rec); got != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR code, got %s", got)
	}
}

func TestLoginReturnsEnvelopeWithToken(t *testing.T) {
	t.Parallel()

	router, fx := newTestRouter(t)
	fx.seedAccount("ada@example.com", "user")

	rec := doJSON(t, router, http.MethodPost, "/auth/login",
		`{"email":"ada@example.com","password":"SecurePass123"}`, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Status string `json:"status"`
		Data   struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Status != "success" || payload.Data.Token == "" {
		t.Fatalf("unexpected envelope: %s", rec.Body.String())
	}
}

func TestLoginWrongPasswordReturnsInvalidCredentials(t *testing.T) {
	t.Parallel()

	router, fx := newTestRouter(t)
	fx.seedAccount("ada@example.com", "user")

	rec := doJSON(t, router, http.MethodPost, "/auth/login",
		`{"email":"ada@example.com","password":"WrongPass123"}`, "")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := errorCode(t, rec); got != "INVALID_CREDENTIALS" {
		t.Fatalf("expected INVALID_CREDENTIALS code, got %s", got)
	}
}

func TestAdminRoutesRequireBearer(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/admin/users", "", "")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAdminRoutesRejectNonAdminRole(t *testing.T) {
	t.Parallel()

	router, fx := newTestRouter(t)
	user := fx.seedAccount("user@example.com", "user")

	rec := doJSON(t, router, http.MethodGet, "/admin/users", "", fx.tokenFor(user))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if got := errorCode(t, rec); got != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN code, got %s", got)
	}
}

func TestAdminListUsersWithAdminToken(t *testing.T) {
	t.Parallel()

	router, fx := newTestRouter(t)
	admin := fx.seedAccount("admin@example.com", "admin")

	rec := doJSON(t, router, http.MethodGet, "/admin/users", "", fx.tokenFor(admin))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAdminToggleActiveBadUUID(t *testing.T) {
	t.Parallel()

	router, fx := newTestRouter(t)
	admin := fx.seedAccount("admin@example.com", "admin")

	rec := doJSON(t, router, http.MethodPatch, "/admin/users/not-a-uuid/toggle-active", "", fx.tokenFor(admin))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", rec.Code)
	}
}

func TestAdminToggleActiveUnknownAccount(t *testing.T) {
	t.Parallel()

	router, fx := newTestRouter(t)
	admin := fx.seedAccount("admin@example.com", "admin")

	rec := doJSON(t, router, http.MethodPatch, "/admin/users/"+uuid.NewString()+"/toggle-active", "", fx.tokenFor(admin))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, router, http.MethodGet, path, "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestRequestIDPropagation(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "req-42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-Id"); got != "req-42" {
		t.Fatalf("expected request id passthrough, got %q", got)
	}
}

type stubAccounts struct {
	byEmail map[string]domain.Account
	byID    map[uuid.UUID]domain.Account
}

func (s *stubAccounts) CreateWithOutboxTx(_ context.Context, params ports.CreateAccountTxParams, _ ports.OutboxEvent) (domain.Account, error) {
	if _, ok := s.byEmail[params.Email]; ok {
		return domain.Account{}, domain.ErrConflict
	}
	a := domain.Account{
		AccountID:    uuid.New(),
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
		Verified:     params.Verified,
		Active:       params.Active,
		CreatedAt:    params.RegisteredAtUTC,
		UpdatedAt:    params.RegisteredAtUTC,
	}
	s.byEmail[a.Email] = a
	s.byID[a.AccountID] = a
	return a, nil
}

func (s *stubAccounts) GetByEmail(_ context.Context, email string) (domain.Account, error) {
	a, ok := s.byEmail[email]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	return a, nil
}

func (s *stubAccounts) GetByID(_ context.Context, accountID uuid.UUID) (domain.Account, error) {
	a, ok := s.byID[accountID]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	return a, nil
}

func (s *stubAccounts) List(context.Context, int, int) ([]domain.Account, error) {
	out := make([]domain.Account, 0, len(s.byID))
	for _, a := range s.byID {
		out = append(out, a)
	}
	return out, nil
}

func (s *stubAccounts) Update(_ context.Context, accountID uuid.UUID, update ports.AccountUpdate, updatedAt time.Time) (domain.Account, error) {
	a, ok := s.byID[accountID]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	if update.Name != nil {
		a.Name = *update.Name
	}
	if update.Email != nil {
		a.Email = *update.Email
	}
	if update.Role != nil {
		a.Role = *update.Role
	}
	a.UpdatedAt = updatedAt
	s.byID[accountID] = a
	s.byEmail[a.Email] = a
	return a, nil
}

func (s *stubAccounts) UpdatePassword(_ context.Context, accountID uuid.UUID, passwordHash string, updatedAt time.Time) error {
	a, ok := s.byID[accountID]
	if !ok {
		return domain.ErrNotFound
	}
	a.PasswordHash = passwordHash
	a.UpdatedAt = updatedAt
	s.byID[accountID] = a
	s.byEmail[a.Email] = a
	return nil
}

func (s *stubAccounts) SetActive(_ context.Context, accountID uuid.UUID, active bool, updatedAt time.Time) error {
	a, ok := s.byID[accountID]
	if !ok {
		return domain.ErrNotFound
	}
	a.Active = active
	a.UpdatedAt = updatedAt
	s.byID[accountID] = a
	return nil
}

func (s *stubAccounts) SetVerified(_ context.Context, accountID uuid.UUID, verified bool, updatedAt time.Time) error {
	a, ok := s.byID[accountID]
	if !ok {
		return domain.ErrNotFound
	}
	a.Verified = verified
	a.UpdatedAt = updatedAt
	s.byID[accountID] = a
	return nil
}

type stubAttempts struct{}

func (s *stubAttempts) Insert(context.Context, domain.LoginAttempt) error { return nil }
func (s *stubAttempts) ListByAccount(context.Context, uuid.UUID, int, int) ([]domain.LoginAttempt, error) {
	return nil, nil
}

type stubOutbox struct{}

func (s *stubOutbox) Enqueue(context.Context, ports.OutboxEvent) error { return nil }
func (s *stubOutbox) ClaimUnpublished(context.Context, int, string, time.Time) ([]ports.OutboxRecord, error) {
	return nil, nil
}
func (s *stubOutbox) MarkPublished(context.Context, uuid.UUID, string, time.Time) error { return nil }
func (s *stubOutbox) MarkFailed(context.Context, uuid.UUID, string, string, time.Time) error {
	return nil
}
func (s *stubOutbox) MarkDeadLettered(context.Context, uuid.UUID, string, string, time.Time) error {
	return nil
}

type stubCodes struct {
	items map[string]domain.OneTimeCode
}

func (s *stubCodes) Put(_ context.Context, email string, code domain.OneTimeCode, _ time.Duration) error {
	s.items[email] = code
	return nil
}

func (s *stubCodes) Get(_ context.Context, email string) (*domain.OneTimeCode, error) {
	code, ok := s.items[email]
	if !ok {
		return nil, nil
	}
	cp := code
	return &cp, nil
}

func (s *stubCodes) Delete(_ context.Context, email string) error {
	delete(s.items, email)
	return nil
}

type stubStates struct{}

func (s *stubStates) Put(context.Context, string, ports.OIDCAuthState, time.Duration) error {
	return nil
}
func (s *stubStates) Get(context.Context, string) (*ports.OIDCAuthState, error) { return nil, nil }
func (s *stubStates) Delete(context.Context, string) error                      { return nil }

type stubNotifier struct {
	sent []string
}

func (s *stubNotifier) Send(_ context.Context, to, _, _ string) error {
	s.sent = append(s.sent, to)
	return nil
}

type stubHasher struct{}

func (s *stubHasher) Hash(password string) (string, error) { return "hash:" + password, nil }

func (s *stubHasher) Compare(hash, password string) error {
	if hash != "hash:"+password {
		return errors.New("hash mismatch")
	}
	return nil
}

type stubSigner struct {
	tokens map[string]ports.AuthClaims
}

func (s *stubSigner) Sign(claims ports.AuthClaims) (string, error) {
	token := uuid.NewString()
	s.tokens[token] = claims
	return token, nil
}

func (s *stubSigner) ParseAndValidate(token string) (ports.AuthClaims, error) {
	claims, ok := s.tokens[token]
	if !ok {
		return ports.AuthClaims{}, domain.ErrUnauthorized
	}
	return claims, nil
}
