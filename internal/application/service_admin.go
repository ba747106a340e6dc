package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lumengallery/auth-service/internal/domain"
	"github.com/lumengallery/auth-service/internal/ports"
)

// ListAccounts returns a page of accounts for the admin surface.
func (s *Service) ListAccounts(ctx context.Context, page, limit int) ([]AccountView, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	accounts, err := s.accounts.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	result := make([]AccountView, 0, len(accounts))
	for _, a := range accounts {
		result = append(result, toAccountView(a))
	}
	return result, nil
}

// UpdateAccount applies admin profile edits. A role change is recorded as a
// domain event; a new email must still be well formed and unique.
func (s *Service) UpdateAccount(ctx context.Context, accountID uuid.UUID, req UpdateAccountRequest) (AccountView, error) {
	update := ports.AccountUpdate{}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return AccountView{}, fmt.Errorf("%w: name cannot be empty", domain.ErrInvalidInput)
		}
		update.Name = &name
	}
	if req.Email != nil {
		email, err := normalizeEmail(*req.Email)
		if err != nil {
			return AccountView{}, err
		}
		if existing, err := s.accounts.GetByEmail(ctx, email); err == nil && existing.AccountID != accountID {
			return AccountView{}, fmt.Errorf("%w: email already registered", domain.ErrConflict)
		}
		update.Email = &email
	}
	if req.Role != nil {
		role := strings.ToLower(strings.TrimSpace(*req.Role))
		if !domain.ValidRole(role) {
			return AccountView{}, fmt.Errorf("%w: unknown role", domain.ErrInvalidInput)
		}
		update.Role = &role
	}

	before, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return AccountView{}, err
	}

	now := s.nowFn()
	account, err := s.accounts.Update(ctx, accountID, update, now)
	if err != nil {
		return AccountView{}, err
	}

	if update.Role != nil && before.Role != account.Role {
		payload, _ := json.Marshal(map[string]any{
			"account_id": accountID,
			"old_role":   before.Role,
			"new_role":   account.Role,
			"changed_at": now,
		})
		_ = s.outbox.Enqueue(ctx, ports.OutboxEvent{
			EventID:      uuid.New(),
			EventType:    eventTypeRoleChanged,
			PartitionKey: accountID.String(),
			Payload:      payload,
			OccurredAt:   now,
		})
	}
	return toAccountView(account), nil
}

// ToggleActive flips the active flag. Each call flips; two calls restore the
// original value.
func (s *Service) ToggleActive(ctx context.Context, accountID uuid.UUID) (AccountView, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return AccountView{}, err
	}
	now := s.nowFn()
	next := !account.Active
	if err := s.accounts.SetActive(ctx, accountID, next, now); err != nil {
		return AccountView{}, err
	}
	account.Active = next
	account.UpdatedAt = now

	s.enqueueToggleEvent(ctx, eventTypeActiveToggled, accountID, next, now)
	return toAccountView(account), nil
}

// ToggleVerified flips the verified flag.
func (s *Service) ToggleVerified(ctx context.Context, accountID uuid.UUID) (AccountView, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return AccountView{}, err
	}
	now := s.nowFn()
	next := !account.Verified
	if err := s.accounts.SetVerified(ctx, accountID, next, now); err != nil {
		return AccountView{}, err
	}
	account.Verified = next
	account.UpdatedAt = now

	s.enqueueToggleEvent(ctx, eventTypeVerifiedToggled, accountID, next, now)
	return toAccountView(account), nil
}

// ListLoginHistory returns the audit trail of login attempts for an account.
func (s *Service) ListLoginHistory(ctx context.Context, accountID uuid.UUID, q LoginHistoryQuery) ([]LoginHistoryItem, error) {
	if _, err := s.accounts.GetByID(ctx, accountID); err != nil {
		return nil, err
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}

	attempts, err := s.loginAttempts.ListByAccount(ctx, accountID, q.Limit, (q.Page-1)*q.Limit)
	if err != nil {
		return nil, err
	}
	result := make([]LoginHistoryItem, 0, len(attempts))
	for _, attempt := range attempts {
		result = append(result, LoginHistoryItem{
			ID:            attempt.ID,
			Timestamp:     attempt.AttemptAt,
			Status:        attempt.Status,
			FailureReason: attempt.FailureReason,
			IPAddress:     attempt.IPAddress,
			UserAgent:     attempt.UserAgent,
		})
	}
	return result, nil
}

func (s *Service) enqueueToggleEvent(ctx context.Context, eventType string, accountID uuid.UUID, value bool, now time.Time) {
	payload, _ := json.Marshal(map[string]any{
		"account_id": accountID,
		"value":      value,
		"changed_at": now,
	})
	_ = s.outbox.Enqueue(ctx, ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    eventType,
		PartitionKey: accountID.String(),
		Payload:      payload,
		OccurredAt:   now,
	})
}
