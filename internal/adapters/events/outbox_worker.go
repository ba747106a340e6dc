package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lumengallery/auth-service/internal/ports"
)

// WorkerSettings control the outbox drain loop. Zero values fall back to
// the service defaults so a partially filled config still runs.
type WorkerSettings struct {
	PollInterval time.Duration
	BatchSize    int
	ClaimTTL     time.Duration
	MaxRetries   int
}

func (s WorkerSettings) withDefaults() WorkerSettings {
	if s.PollInterval <= 0 {
		s.PollInterval = 2 * time.Second
	}
	if s.BatchSize <= 0 {
		s.BatchSize = 100
	}
	if s.ClaimTTL <= 0 {
		s.ClaimTTL = 30 * time.Second
	}
	if s.MaxRetries <= 0 {
		s.MaxRetries = 5
	}
	return s
}

// OutboxWorker drains the auth outbox rows written by the registration and
// password flows and hands each record to the publisher. Rows are claimed
// under a lease so a crashed worker releases its batch after ClaimTTL.
type OutboxWorker struct {
	logger    *slog.Logger
	outbox    ports.OutboxRepository
	publisher ports.EventPublisher
	settings  WorkerSettings
}

func NewOutboxWorker(logger *slog.Logger, outbox ports.OutboxRepository, publisher ports.EventPublisher, settings WorkerSettings) *OutboxWorker {
	return &OutboxWorker{
		logger:    logger,
		outbox:    outbox,
		publisher: publisher,
		settings:  settings.withDefaults(),
	}
}

// Run drains the outbox on every tick until the context is cancelled.
func (w *OutboxWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.settings.PollInterval)
	defer ticker.Stop()

	for {
		if err := w.drain(ctx); err != nil {
			w.logger.ErrorContext(ctx, "outbox drain failed",
				"module", "events",
				"layer", "adapter",
				"operation", "drain_outbox",
				"outcome", "failure",
				"error", err,
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// drain claims batches until the outbox comes back short, so a backlog
// clears without waiting one poll interval per batch.
func (w *OutboxWorker) drain(ctx context.Context) error {
	for {
		claimed, err := w.publishBatch(ctx)
		if err != nil || claimed < w.settings.BatchSize {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

func (w *OutboxWorker) publishBatch(ctx context.Context) (int, error) {
	lease := uuid.NewString()
	records, err := w.outbox.ClaimUnpublished(ctx, w.settings.BatchSize, lease, time.Now().UTC().Add(w.settings.ClaimTTL))
	if err != nil {
		return 0, err
	}

	var published, retried, deadLettered int
	for _, rec := range records {
		now := time.Now().UTC()
		err := w.publisher.Publish(ctx, rec.EventType, rec.Payload)
		switch {
		case err == nil:
			published++
			_ = w.outbox.MarkPublished(ctx, rec.OutboxID, lease, now)
		case rec.RetryCount+1 >= w.settings.MaxRetries:
			deadLettered++
			w.logger.ErrorContext(ctx, "outbox record dead-lettered",
				"module", "events",
				"layer", "adapter",
				"operation", "publish_event",
				"outcome", "failure",
				"outbox_id", rec.OutboxID,
				"event_type", rec.EventType,
				"retries", rec.RetryCount+1,
				"error", err,
			)
			_ = w.outbox.MarkDeadLettered(ctx, rec.OutboxID, lease, err.Error(), now)
		default:
			retried++
			w.logger.WarnContext(ctx, "outbox publish failed, will retry",
				"module", "events",
				"layer", "adapter",
				"operation", "publish_event",
				"outcome", "failure",
				"outbox_id", rec.OutboxID,
				"event_type", rec.EventType,
				"retries", rec.RetryCount+1,
				"error", err,
			)
			_ = w.outbox.MarkFailed(ctx, rec.OutboxID, lease, err.Error(), now)
		}
	}

	if len(records) > 0 {
		w.logger.InfoContext(ctx, "outbox batch drained",
			"module", "events",
			"layer", "adapter",
			"operation", "drain_outbox",
			"outcome", "success",
			"claimed", len(records),
			"published", published,
			"retried", retried,
			"dead_lettered", deadLettered,
		)
	}
	return len(records), nil
}
