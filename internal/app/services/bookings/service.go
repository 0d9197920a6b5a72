package bookings

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"stayhub/internal/app/notify"
	"stayhub/internal/app/uow"
	domainbooking "stayhub/internal/domain/booking"
	domainlistings "stayhub/internal/domain/listings"
	"stayhub/internal/domain/shared/daterange"
	domainuser "stayhub/internal/domain/user"
)

// createRetries bounds unit re-runs when two creations race on one listing
// and the transaction loses the write conflict.
const createRetries = 3

// Service drives the booking lifecycle: create gated by the availability
// check, host-only confirm and guest-or-host cancel.
type Service struct {
	UoW      uow.Factory
	Notifier notify.Dispatcher
	Logger   *slog.Logger
}

type CreateParams struct {
	ListingID domainlistings.ListingID
	GuestID   domainuser.ID
	Start     time.Time
	End       time.Time
}

// Create validates the range, checks availability and inserts the booking in
// one unit of work, then enqueues the booking-created email after commit.
func (s *Service) Create(ctx context.Context, params CreateParams) (*domainbooking.Booking, error) {
	dr, err := daterange.New(params.Start, params.End)
	if err != nil {
		return nil, err
	}
	var (
		created *domainbooking.Booking
		guest   *domainuser.User
		listing *domainlistings.Listing
	)
	for attempt := 0; ; attempt++ {
		err = uow.Run(ctx, s.UoW, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) error {
			listing, err = unit.Listings().ByID(ctx, params.ListingID)
			if err != nil {
				return err
			}
			guest, err = unit.Users().ByID(ctx, params.GuestID)
			if err != nil {
				return err
			}
			if err := unit.Bookings().LockListing(ctx, listing.ID); err != nil {
				return err
			}
			taken, err := unit.Bookings().HasOverlapping(ctx, listing.ID, dr)
			if err != nil {
				return err
			}
			if taken {
				return domainbooking.ErrNotAvailable
			}
			booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
				ID:        domainbooking.BookingID(uuid.NewString()),
				Listing:   listing,
				GuestID:   params.GuestID,
				Range:     dr,
				CreatedAt: time.Now(),
			})
			if err != nil {
				return err
			}
			if err := unit.Bookings().Save(ctx, booking); err != nil {
				return err
			}
			created = booking
			return nil
		})
		if err == nil {
			break
		}
		// a lost write conflict re-runs the whole unit; the retry sees the
		// winner's booking and reports the range as taken
		if errors.Is(err, uow.ErrTxConflict) && attempt < createRetries {
			continue
		}
		return nil, err
	}
	s.submit(ctx, notify.Job{
		ID:        uuid.NewString(),
		Kind:      notify.KindBookingCreated,
		Recipient: guest.Email,
		Context: map[string]string{
			"guest_name": guest.FullName(),
			"property":   listing.Name,
			"location":   listing.Location,
			"start_date": created.Range.Start.Format("2006-01-02"),
			"end_date":   created.Range.End.Format("2006-01-02"),
			"total":      created.Total.DecimalString(),
			"currency":   created.Total.Currency,
		},
		CreatedAt: time.Now().UTC(),
	})
	if s.Logger != nil {
		s.Logger.Info("booking created",
			"booking_id", created.ID,
			"listing_id", created.ListingID,
			"nights", created.Nights(),
			"total", created.Total.Amount,
		)
	}
	return created, nil
}

// Confirm transitions the booking to confirmed; only the listing host may.
func (s *Service) Confirm(ctx context.Context, actor domainuser.ID, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var (
		updated *domainbooking.Booking
		guest   *domainuser.User
		listing *domainlistings.Listing
	)
	err := uow.Run(ctx, s.UoW, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) error {
		booking, err := unit.Bookings().ByID(ctx, id)
		if err != nil {
			return err
		}
		listing, err = unit.Listings().ByID(ctx, booking.ListingID)
		if err != nil {
			return err
		}
		if err := booking.Confirm(actor, listing.HostID, time.Now()); err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, booking); err != nil {
			return err
		}
		guest, err = unit.Users().ByID(ctx, booking.GuestID)
		if err != nil {
			return err
		}
		updated = booking
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.submit(ctx, notify.Job{
		ID:        uuid.NewString(),
		Kind:      notify.KindBookingConfirmed,
		Recipient: guest.Email,
		Context: map[string]string{
			"guest_name": guest.FullName(),
			"property":   listing.Name,
			"location":   listing.Location,
			"start_date": updated.Range.Start.Format("2006-01-02"),
			"end_date":   updated.Range.End.Format("2006-01-02"),
			"total":      updated.Total.DecimalString(),
			"currency":   updated.Total.Currency,
		},
		CreatedAt: time.Now().UTC(),
	})
	return updated, nil
}

// Cancel transitions the booking to cancelled; either participant may, from
// any source state.
func (s *Service) Cancel(ctx context.Context, actor domainuser.ID, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var updated *domainbooking.Booking
	err := uow.Run(ctx, s.UoW, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) error {
		booking, err := unit.Bookings().ByID(ctx, id)
		if err != nil {
			return err
		}
		listing, err := unit.Listings().ByID(ctx, booking.ListingID)
		if err != nil {
			return err
		}
		if err := booking.Cancel(actor, listing.HostID, time.Now()); err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, booking); err != nil {
			return err
		}
		updated = booking
		return nil
	})
	return updated, err
}

// Get returns a booking visible to the actor: its guest or the listing host.
func (s *Service) Get(ctx context.Context, actor domainuser.ID, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var result *domainbooking.Booking
	err := uow.Run(ctx, s.UoW, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		booking, err := unit.Bookings().ByID(ctx, id)
		if err != nil {
			return err
		}
		listing, err := unit.Listings().ByID(ctx, booking.ListingID)
		if err != nil {
			return err
		}
		if actor != booking.GuestID && !listing.OwnedBy(actor) {
			return domainbooking.ErrNotFound
		}
		result = booking
		return nil
	})
	return result, err
}

// Visible lists bookings where the actor is either the guest or the host.
func (s *Service) Visible(ctx context.Context, actor domainuser.ID) ([]*domainbooking.Booking, error) {
	var result []*domainbooking.Booking
	err := uow.Run(ctx, s.UoW, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		asGuest, err := unit.Bookings().ListByGuest(ctx, actor)
		if err != nil {
			return err
		}
		asHost, err := unit.Bookings().ListByHost(ctx, actor)
		if err != nil {
			return err
		}
		seen := make(map[domainbooking.BookingID]bool, len(asGuest))
		for _, b := range asGuest {
			seen[b.ID] = true
			result = append(result, b)
		}
		for _, b := range asHost {
			if !seen[b.ID] {
				result = append(result, b)
			}
		}
		return nil
	})
	return result, err
}

func (s *Service) MyBookings(ctx context.Context, guestID domainuser.ID) ([]*domainbooking.Booking, error) {
	var result []*domainbooking.Booking
	err := uow.Run(ctx, s.UoW, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		var err error
		result, err = unit.Bookings().ListByGuest(ctx, guestID)
		return err
	})
	return result, err
}

func (s *Service) HostingBookings(ctx context.Context, hostID domainuser.ID) ([]*domainbooking.Booking, error) {
	var result []*domainbooking.Booking
	err := uow.Run(ctx, s.UoW, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		var err error
		result, err = unit.Bookings().ListByHost(ctx, hostID)
		return err
	})
	return result, err
}

// IsAvailable answers the availability question without mutating anything.
func (s *Service) IsAvailable(ctx context.Context, listingID domainlistings.ListingID, start, end time.Time) (bool, error) {
	dr, err := daterange.New(start, end)
	if err != nil {
		return false, err
	}
	available := false
	err = uow.Run(ctx, s.UoW, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		taken, err := unit.Bookings().HasOverlapping(ctx, listingID, dr)
		if err != nil {
			return err
		}
		available = !taken
		return nil
	})
	return available, err
}

// submit hands the job to the dispatcher; delivery failures never surface to
// the request path.
func (s *Service) submit(ctx context.Context, job notify.Job) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Submit(ctx, job); err != nil && s.Logger != nil {
		s.Logger.Error("notification submit failed", "kind", job.Kind, "error", err)
	}
}
