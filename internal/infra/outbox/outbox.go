package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"stayhub/internal/app/notify"
)

var (
	ErrWorkerNotConfigured = errors.New("outbox: store and producer required")
)

// Record is one queued notification job awaiting publication.
type Record struct {
	ID        string
	Kind      string
	Key       string
	Payload   []byte
	CreatedAt time.Time
	Attempts  int
	NotBefore time.Time
	LastError string
}

// Store persists queued jobs. Claim hands out at most one pending record per
// call and marks it in-flight for the claiming worker; redelivery after a
// crash gives the pipeline its at-least-once property.
type Store interface {
	Add(ctx context.Context, rec Record) error
	Claim(ctx context.Context, workerID string) (*Record, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, retryAt time.Time, reason string) error
}

// Dispatcher enqueues notification jobs into the store; the request path
// returns as soon as the record is accepted.
type Dispatcher struct {
	Store Store
}

func (d Dispatcher) Submit(ctx context.Context, job notify.Job) error {
	if d.Store == nil {
		return ErrWorkerNotConfigured
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.Store.Add(ctx, Record{
		ID:        job.ID,
		Kind:      string(job.Kind),
		Key:       job.Recipient,
		Payload:   payload,
		CreatedAt: job.CreatedAt,
	})
}

var _ notify.Dispatcher = Dispatcher{}
