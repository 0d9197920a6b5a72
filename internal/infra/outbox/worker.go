package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Producer publishes a claimed job to the message broker.
type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Worker drains the store onto a Kafka topic. Polling plus claim/ack keeps
// delivery at-least-once; jobs that fail to publish are retried with the
// configured backoff schedule.
type Worker struct {
	Store    Store
	Producer Producer
	Topic    string
	Interval time.Duration
	Backoff  []time.Duration
	ID       string
	Logger   *slog.Logger
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Store == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessOnce(ctx); err != nil {
				return err
			}
		}
	}
}

// ProcessOnce claims at most one pending record and publishes it.
func (w *Worker) ProcessOnce(ctx context.Context) error {
	rec, err := w.Store.Claim(ctx, w.ID)
	if err != nil || rec == nil {
		return err
	}
	headers := map[string]string{
		"content-type": "application/json",
		"job-kind":     rec.Kind,
	}
	if err := w.Producer.Publish(ctx, w.Topic, rec.Key, rec.Payload, headers); err != nil {
		if w.Logger != nil {
			w.Logger.Warn("notification publish failed", "job_id", rec.ID, "attempts", rec.Attempts, "error", err)
		}
		return w.Store.MarkFailed(ctx, rec.ID, time.Now().Add(w.nextRetry(rec.Attempts)), err.Error())
	}
	return w.Store.MarkSent(ctx, rec.ID)
}

func (w *Worker) nextRetry(attempts int) time.Duration {
	if len(w.Backoff) == 0 {
		return time.Second
	}
	if attempts >= len(w.Backoff) {
		return w.Backoff[len(w.Backoff)-1]
	}
	return w.Backoff[attempts]
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}
