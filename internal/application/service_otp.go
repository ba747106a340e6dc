package application

import (
	"context"
	"fmt"

	"github.com/lumengallery/auth-service/internal/domain"
)

const codeDigits = 6

// IssueCode replaces any live code for email with a fresh one and dispatches
// it. The store write settles before the send, so a delivery failure leaves
// the new code valid; the caller sees ErrDelivery and may retry the send by
// requesting another code.
func (s *Service) IssueCode(ctx context.Context, email string) error {
	now := s.nowFn()
	code := domain.OneTimeCode{
		Email:     email,
		Code:      randomDigits(codeDigits),
		ExpiresAt: now.Add(s.cfg.OTPTTL),
	}
	if err := s.codes.Put(ctx, email, code, s.cfg.OTPTTL); err != nil {
		return fmt.Errorf("store one-time code: %w", err)
	}

	body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.",
		code.Code, int(s.cfg.OTPTTL.Minutes()))
	if err := s.notifier.Send(ctx, email, "Your verification code", body); err != nil {
		return err
	}
	return nil
}

// VerifyCode consumes the stored code for email. Missing, expired, and
// mismatched codes all return the same error; a successful verification
// deletes the record, so repeating the same pair fails.
func (s *Service) VerifyCode(ctx context.Context, email, code string) error {
	stored, err := s.codes.Get(ctx, email)
	if err != nil {
		return fmt.Errorf("load one-time code: %w", err)
	}
	if stored == nil {
		return domain.ErrInvalidCode
	}
	if stored.Expired(s.nowFn()) {
		_ = s.codes.Delete(ctx, email)
		return domain.ErrInvalidCode
	}
	if stored.Code != code || code == "" {
		return domain.ErrInvalidCode
	}
	if err := s.codes.Delete(ctx, email); err != nil {
		return fmt.Errorf("consume one-time code: %w", err)
	}
	return nil
}

// SendCode is the standalone code-dispatch operation. It only requires a
// well-formed address; no account has to exist yet.
func (s *Service) SendCode(ctx context.Context, email string) error {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	return s.IssueCode(ctx, normalized)
}

// CheckCode verifies a standalone code without side effects beyond the
// single-use consumption.
func (s *Service) CheckCode(ctx context.Context, email, code string) error {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	return s.VerifyCode(ctx, normalized, code)
}
