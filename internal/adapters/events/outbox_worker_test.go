package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lumengallery/auth-service/internal/ports"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type fakeOutboxRepo struct {
	mu           sync.Mutex
	pending      []ports.OutboxRecord
	published    []uuid.UUID
	failed       []uuid.UUID
	deadLettered []uuid.UUID
}

func (f *fakeOutboxRepo) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, ports.OutboxRecord{
		OutboxID:  event.EventID,
		EventType: event.EventType,
		Payload:   event.Payload,
	})
	return nil
}

func (f *fakeOutboxRepo) ClaimUnpublished(_ context.Context, limit int, _ string, _ time.Time) ([]ports.OutboxRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > len(f.pending) {
		limit = len(f.pending)
	}
	out := make([]ports.OutboxRecord, limit)
	copy(out, f.pending[:limit])
	f.pending = f.pending[limit:]
	return out, nil
}

func (f *fakeOutboxRepo) MarkPublished(_ context.Context, outboxID uuid.UUID, _ string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, outboxID)
	return nil
}

func (f *fakeOutboxRepo) MarkFailed(_ context.Context, outboxID uuid.UUID, _, _ string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, outboxID)
	return nil
}

func (f *fakeOutboxRepo) MarkDeadLettered(_ context.Context, outboxID uuid.UUID, _, _ string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deadLettered = append(f.deadLettered, outboxID)
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	failWith error
	events   []string
}

func (p *fakePublisher) Publish(_ context.Context, eventType string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWith != nil {
		return p.failWith
	}
	p.events = append(p.events, eventType)
	return nil
}

func pendingRecord(eventType string, retryCount int) ports.OutboxRecord {
	return ports.OutboxRecord{
		OutboxID:   uuid.New(),
		EventType:  eventType,
		Payload:    []byte(`{}`),
		RetryCount: retryCount,
	}
}

func TestWorkerSettingsDefaults(t *testing.T) {
	t.Parallel()

	s := WorkerSettings{}.withDefaults()
	if s.PollInterval != 2*time.Second || s.BatchSize != 100 || s.ClaimTTL != 30*time.Second || s.MaxRetries != 5 {
		t.Fatalf("unexpected defaults: %+v", s)
	}
}

func TestPublishBatchMarksPublished(t *testing.T) {
	t.Parallel()

	repo := &fakeOutboxRepo{pending: []ports.OutboxRecord{
		pendingRecord("account.registered", 0),
		pendingRecord("password.reset", 0),
	}}
	pub := &fakePublisher{}
	w := NewOutboxWorker(discardLogger(), repo, pub, WorkerSettings{})

	claimed, err := w.publishBatch(context.Background())
	if err != nil {
		t.Fatalf("publish batch: %v", err)
	}
	if claimed != 2 {
		t.Fatalf("expected 2 claimed, got %d", claimed)
	}
	if len(repo.published) != 2 || len(repo.failed) != 0 || len(repo.deadLettered) != 0 {
		t.Fatalf("unexpected outcomes: %+v", repo)
	}
	if len(pub.events) != 2 || pub.events[0] != "account.registered" {
		t.Fatalf("unexpected published events: %v", pub.events)
	}
}

func TestPublishBatchRetriesThenDeadLetters(t *testing.T) {
	t.Parallel()

	fresh := pendingRecord("account.role_changed", 0)
	exhausted := pendingRecord("account.role_changed", 2)
	repo := &fakeOutboxRepo{pending: []ports.OutboxRecord{fresh, exhausted}}
	pub := &fakePublisher{failWith: errors.New("broker down")}
	w := NewOutboxWorker(discardLogger(), repo, pub, WorkerSettings{MaxRetries: 3})

	if _, err := w.publishBatch(context.Background()); err != nil {
		t.Fatalf("publish batch: %v", err)
	}
	if len(repo.failed) != 1 || repo.failed[0] != fresh.OutboxID {
		t.Fatalf("expected fresh record scheduled for retry, got %v", repo.failed)
	}
	if len(repo.deadLettered) != 1 || repo.deadLettered[0] != exhausted.OutboxID {
		t.Fatalf("expected exhausted record dead-lettered, got %v", repo.deadLettered)
	}
	if len(repo.published) != 0 {
		t.Fatalf("nothing should publish while the broker is down")
	}
}

func TestDrainClearsBacklogInOnePass(t *testing.T) {
	t.Parallel()

	repo := &fakeOutboxRepo{}
	for i := 0; i < 5; i++ {
		repo.pending = append(repo.pending, pendingRecord("account.registered", 0))
	}
	pub := &fakePublisher{}
	w := NewOutboxWorker(discardLogger(), repo, pub, WorkerSettings{BatchSize: 2})

	if err := w.drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(repo.published) != 5 {
		t.Fatalf("expected full backlog published, got %d", len(repo.published))
	}
	if len(repo.pending) != 0 {
		t.Fatalf("expected empty outbox, %d left", len(repo.pending))
	}
}
