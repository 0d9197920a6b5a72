package booking

import (
	"context"
	"errors"
	"time"

	"stayhub/internal/domain/listings"
	"stayhub/internal/domain/shared/daterange"
	"stayhub/internal/domain/shared/money"
	"stayhub/internal/domain/user"
)

var (
	ErrNotFound       = errors.New("booking: not found")
	ErrGuestRequired  = errors.New("booking: guest id required")
	ErrInvalidNights  = errors.New("booking: stay must cover at least one night")
	ErrNotAvailable   = errors.New("booking: property is not available for the selected dates")
	ErrOnlyHost       = errors.New("booking: only the host can confirm bookings")
	ErrNotParticipant = errors.New("booking: only the guest or the host can cancel")
)

type BookingID string

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
)

// Blocking reports whether a booking in this status still occupies its dates.
// Cancelled and rejected bookings release the range.
func (s Status) Blocking() bool {
	return s != StatusCancelled && s != StatusRejected
}

type Booking struct {
	ID        BookingID
	ListingID listings.ListingID
	GuestID   user.ID
	Range     daterange.DateRange
	Total     money.Money
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	// LockListing serializes concurrent booking creations on one listing for
	// the rest of the surrounding unit of work. Backends whose unit already
	// serializes the whole store make this a no-op; transactional backends
	// must guarantee that of two units locking the same listing at most one
	// commits, the other failing with a conflict the caller can retry on.
	LockListing(ctx context.Context, listingID listings.ListingID) error
	// HasOverlapping reports whether a blocking booking exists for the listing
	// whose range intersects dr. It must see uncommitted writes of the
	// surrounding unit of work so check-then-insert stays race free.
	HasOverlapping(ctx context.Context, listingID listings.ListingID, dr daterange.DateRange) (bool, error)
	ListByGuest(ctx context.Context, guestID user.ID) ([]*Booking, error)
	ListByListing(ctx context.Context, listingID listings.ListingID) ([]*Booking, error)
	ListByHost(ctx context.Context, hostID user.ID) ([]*Booking, error)
}

type CreateParams struct {
	ID        BookingID
	Listing   *listings.Listing
	GuestID   user.ID
	Range     daterange.DateRange
	CreatedAt time.Time
}

// NewBooking derives the total price from the listing's nightly rate and
// starts the lifecycle in pending.
func NewBooking(params CreateParams) (*Booking, error) {
	if params.Listing == nil {
		return nil, listings.ErrNotFound
	}
	if params.GuestID == "" {
		return nil, ErrGuestRequired
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	nights := params.Range.Nights()
	if nights < 1 {
		return nil, ErrInvalidNights
	}
	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &Booking{
		ID:        params.ID,
		ListingID: params.Listing.ID,
		GuestID:   params.GuestID,
		Range:     params.Range,
		Total:     params.Listing.Nightly.Multiply(int64(nights)),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Confirm moves the booking to confirmed. Only the listing host may do this;
// the source state is deliberately not checked — confirming an already
// cancelled booking is accepted, matching the shipped behaviour.
func (b *Booking) Confirm(actor user.ID, host user.ID, now time.Time) error {
	if actor != host {
		return ErrOnlyHost
	}
	b.Status = StatusConfirmed
	b.touch(now)
	return nil
}

// Cancel moves the booking to cancelled from any state. Either the guest or
// the listing host may cancel.
func (b *Booking) Cancel(actor user.ID, host user.ID, now time.Time) error {
	if actor != b.GuestID && actor != host {
		return ErrNotParticipant
	}
	b.Status = StatusCancelled
	b.touch(now)
	return nil
}

// Nights returns the stay length in whole nights.
func (b *Booking) Nights() int {
	return b.Range.Nights()
}

func (b *Booking) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	b.UpdatedAt = now.UTC()
}
