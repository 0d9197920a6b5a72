package payments

import (
	"context"
	"errors"
	"strings"
	"time"

	"stayhub/internal/domain/booking"
	"stayhub/internal/domain/shared/money"
	"stayhub/internal/domain/user"
)

var (
	ErrNotFound         = errors.New("payments: not found")
	ErrTxRefRequired    = errors.New("payments: transaction reference required")
	ErrInvalidAmount    = errors.New("payments: amount must be positive")
	ErrBookingRequired  = errors.New("payments: booking id required")
	ErrDuplicateTxRef   = errors.New("payments: transaction reference already used")
	ErrConcurrentUpdate = errors.New("payments: concurrent update detected")
)

type PaymentID string

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
	StatusReversed  Status = "reversed"
)

// providerStatusTable maps the gateway's status vocabulary to the local enum.
// Anything absent falls through to pending.
var providerStatusTable = map[string]Status{
	"success":          StatusCompleted,
	"failed/cancelled": StatusFailed,
	"failed":           StatusFailed,
	"refunded":         StatusRefunded,
	"reversed":         StatusReversed,
}

// MapProviderStatus resolves a provider-reported status through the lookup
// table, defaulting to pending for unknown vocabulary.
func MapProviderStatus(provider string) Status {
	if s, ok := providerStatusTable[strings.ToLower(strings.TrimSpace(provider))]; ok {
		return s
	}
	return StatusPending
}

// Terminal reports whether the status is an end state of the payment.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusRefunded, StatusReversed:
		return true
	}
	return false
}

type Payment struct {
	ID        PaymentID
	BookingID booking.BookingID
	UserID    user.ID
	Amount    money.Money
	Status    Status
	// TxRef is assigned locally before the checkout session exists so the
	// booking can be correlated across initiate/verify/webhook calls.
	TxRef string
	// ProviderTxID is the gateway's own identifier, known only after the
	// transaction concludes.
	ProviderTxID string
	Method       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64
}

type Repository interface {
	ByID(ctx context.Context, id PaymentID) (*Payment, error)
	ByTxRef(ctx context.Context, txRef string) (*Payment, error)
	// Save persists the payment with a compare-and-set on Version so
	// concurrent webhook and polling updates cannot be lost.
	Save(ctx context.Context, p *Payment) error
	ListByUser(ctx context.Context, userID user.ID) ([]*Payment, error)
}

type CreateParams struct {
	ID        PaymentID
	BookingID booking.BookingID
	UserID    user.ID
	Amount    money.Money
	TxRef     string
	Method    string
	CreatedAt time.Time
}

func NewPayment(params CreateParams) (*Payment, error) {
	if strings.TrimSpace(string(params.BookingID)) == "" {
		return nil, ErrBookingRequired
	}
	if !params.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if strings.TrimSpace(params.TxRef) == "" {
		return nil, ErrTxRefRequired
	}
	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &Payment{
		ID:        params.ID,
		BookingID: params.BookingID,
		UserID:    params.UserID,
		Amount:    params.Amount,
		Status:    StatusPending,
		TxRef:     params.TxRef,
		Method:    params.Method,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ApplyProviderStatus maps the provider status through the lookup table and
// records the provider transaction id. It returns the resulting local status
// and whether anything actually changed, which webhook replays use to skip
// duplicate side effects.
func (p *Payment) ApplyProviderStatus(providerStatus, providerTxID string, now time.Time) (Status, bool) {
	mapped := MapProviderStatus(providerStatus)
	changed := false
	if p.Status != mapped {
		p.Status = mapped
		changed = true
	}
	if providerTxID != "" && p.ProviderTxID != providerTxID {
		p.ProviderTxID = providerTxID
		changed = true
	}
	if changed {
		if now.IsZero() {
			now = time.Now()
		}
		p.UpdatedAt = now.UTC()
	}
	return mapped, changed
}

// Successful reports whether the payment concluded successfully.
func (p *Payment) Successful() bool {
	return p.Status == StatusCompleted
}
