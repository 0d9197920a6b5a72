package notify

import (
	"context"
	"time"
)

// Kind identifies an email template.
type Kind string

const (
	KindBookingCreated      Kind = "booking.created"
	KindBookingConfirmed    Kind = "booking.confirmed"
	KindPaymentConfirmation Kind = "payment.confirmation"
	KindPaymentFailed       Kind = "payment.failed"
)

// Job describes one notification to deliver: a template kind, the recipient
// address and the structured context the template renders from.
type Job struct {
	ID        string            `json:"id"`
	Kind      Kind              `json:"kind"`
	Recipient string            `json:"recipient"`
	Context   map[string]string `json:"context"`
	CreatedAt time.Time         `json:"created_at"`
}

// Dispatcher accepts notification jobs for asynchronous, at-least-once
// delivery. Submit returns once the job is enqueued; callers never observe
// delivery, and ordering between two jobs is not guaranteed.
type Dispatcher interface {
	Submit(ctx context.Context, job Job) error
}

// DedupeStore records that a keyed side effect already happened. SetIfAbsent
// returns true exactly once per key, which reconciliation uses to keep
// webhook replays from re-sending terminal-status emails. Release forgets a
// key whose side effect turned out not to happen, so a later replay gets
// another chance at it.
type DedupeStore interface {
	SetIfAbsent(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// NopDispatcher drops jobs; used where notifications are irrelevant.
type NopDispatcher struct{}

func (NopDispatcher) Submit(ctx context.Context, job Job) error { return nil }
