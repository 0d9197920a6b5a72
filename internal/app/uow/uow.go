package uow

import (
	"context"

	domainbooking "stayhub/internal/domain/booking"
	domainlistings "stayhub/internal/domain/listings"
	domainmessages "stayhub/internal/domain/messages"
	domainpayments "stayhub/internal/domain/payments"
	domainreviews "stayhub/internal/domain/reviews"
	domainuser "stayhub/internal/domain/user"
)

// UnitOfWork coordinates repositories inside a transaction boundary. The
// availability check and the booking insert run inside one unit so two
// concurrent requests cannot both observe a free range and both commit.
type UnitOfWork interface {
	Users() domainuser.Repository
	Listings() domainlistings.Repository
	Bookings() domainbooking.Repository
	Payments() domainpayments.Repository
	Reviews() domainreviews.Repository
	Messages() domainmessages.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Factory starts unit of work instances.
type Factory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
