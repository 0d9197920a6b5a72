package memory

import (
	"context"
	"errors"
	"sync"

	"stayhub/internal/app/uow"
	domainbooking "stayhub/internal/domain/booking"
	domainlistings "stayhub/internal/domain/listings"
	domainmessages "stayhub/internal/domain/messages"
	domainpayments "stayhub/internal/domain/payments"
	domainreviews "stayhub/internal/domain/reviews"
	domainuser "stayhub/internal/domain/user"
)

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Factory wires in-memory repositories into a unit-of-work boundary. A single
// store-wide mutex is held from Begin until Commit or Rollback, so the
// availability check and the booking insert of one request cannot interleave
// with another request's.
type Factory struct {
	UsersRepo    domainuser.Repository
	ListingsRepo domainlistings.Repository
	BookingsRepo domainbooking.Repository
	PaymentsRepo domainpayments.Repository
	ReviewsRepo  domainreviews.Repository
	MessagesRepo domainmessages.Repository

	mu sync.Mutex
}

// NewFactory builds a factory over fresh empty repositories.
func NewFactory() *Factory {
	listings := NewListingRepository()
	return &Factory{
		UsersRepo:    NewUserRepository(),
		ListingsRepo: listings,
		BookingsRepo: NewBookingRepository().WithListings(listings),
		PaymentsRepo: NewPaymentRepository(),
		ReviewsRepo:  NewReviewRepository(),
		MessagesRepo: NewMessageRepository(),
	}
}

// Begin acquires the store lock and returns a unit over the shared
// repositories. The lock is released exactly once, by the first Commit or
// Rollback call.
func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.UsersRepo == nil || f.ListingsRepo == nil || f.BookingsRepo == nil ||
		f.PaymentsRepo == nil || f.ReviewsRepo == nil || f.MessagesRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	f.mu.Lock()
	return &Unit{factory: f}, nil
}

// Unit is a uow.UnitOfWork backed by the factory's in-memory stores. Writes
// apply immediately; Commit and Rollback only close the lock boundary, so a
// failed operation is not undone. The tradeoff is acceptable for tests and
// single-node development runs.
type Unit struct {
	factory *Factory
	done    bool
}

func (u *Unit) Users() domainuser.Repository        { return u.factory.UsersRepo }
func (u *Unit) Listings() domainlistings.Repository { return u.factory.ListingsRepo }
func (u *Unit) Bookings() domainbooking.Repository  { return u.factory.BookingsRepo }
func (u *Unit) Payments() domainpayments.Repository { return u.factory.PaymentsRepo }
func (u *Unit) Reviews() domainreviews.Repository   { return u.factory.ReviewsRepo }
func (u *Unit) Messages() domainmessages.Repository { return u.factory.MessagesRepo }

func (u *Unit) Commit(ctx context.Context) error {
	u.release()
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.release()
	return nil
}

func (u *Unit) release() {
	if u.done {
		return
	}
	u.done = true
	u.factory.mu.Unlock()
}

var _ uow.Factory = (*Factory)(nil)
var _ uow.UnitOfWork = (*Unit)(nil)
