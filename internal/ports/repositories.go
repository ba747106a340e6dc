package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lumengallery/auth-service/internal/domain"
)

// CreateAccountTxParams captures atomic account-creation inputs.
// It carries outbox metadata so registration stays durable and replay-safe.
type CreateAccountTxParams struct {
	Name            string
	Email           string
	PasswordHash    string
	Role            string
	Verified        bool
	Active          bool
	RegisteredAtUTC time.Time
}

// AccountUpdate lists the mutable profile fields for admin edits.
// Nil pointer means "leave unchanged".
type AccountUpdate struct {
	Name  *string
	Email *string
	Role  *string
}

// AccountRepository defines persistence operations for accounts.
// The transactional create method exists to enforce account+outbox consistency.
type AccountRepository interface {
	CreateWithOutboxTx(ctx context.Context, params CreateAccountTxParams, outboxEvent OutboxEvent) (domain.Account, error)
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	GetByID(ctx context.Context, accountID uuid.UUID) (domain.Account, error)
	List(ctx context.Context, limit, offset int) ([]domain.Account, error)
	Update(ctx context.Context, accountID uuid.UUID, update AccountUpdate, updatedAt time.Time) (domain.Account, error)
	UpdatePassword(ctx context.Context, accountID uuid.UUID, passwordHash string, updatedAt time.Time) error
	SetActive(ctx context.Context, accountID uuid.UUID, active bool, updatedAt time.Time) error
	SetVerified(ctx context.Context, accountID uuid.UUID, verified bool, updatedAt time.Time) error
}

// LoginAttemptRepository stores login outcomes used by the admin history endpoint.
type LoginAttemptRepository interface {
	Insert(ctx context.Context, attempt domain.LoginAttempt) error
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.LoginAttempt, error)
}

// OutboxEvent is the write-side event payload prior to storage.
// It is adapter-neutral to keep application code independent of broker specifics.
type OutboxEvent struct {
	EventID      uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	OccurredAt   time.Time
}

// OutboxRecord represents durable outbox state, including retry/error metadata.
type OutboxRecord struct {
	OutboxID       uuid.UUID
	EventType      string
	PartitionKey   string
	Payload        []byte
	RetryCount     int
	LastError      *string
	CreatedAt      time.Time
	PublishedAt    *time.Time
	LastErrorAt    *time.Time
	ClaimToken     *string
	ClaimUntil     *time.Time
	DeadLetteredAt *time.Time
}

// OutboxRepository controls publish-retry workflow for domain events.
// This explicit contract enables transactional outbox patterns without leaking DB details.
type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	ClaimUnpublished(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, claimToken string, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
	MarkDeadLettered(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
}
