package listings

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"stayhub/internal/app/uow"
	domainbooking "stayhub/internal/domain/booking"
	domainlistings "stayhub/internal/domain/listings"
	domainreviews "stayhub/internal/domain/reviews"
	"stayhub/internal/domain/shared/money"
	domainuser "stayhub/internal/domain/user"
)

// Service owns the listing catalog: CRUD scoped to the host, search with
// price/location filters, and per-listing reviews.
type Service struct {
	UoW    uow.Factory
	Logger *slog.Logger
}

type CreateParams struct {
	HostID      domainuser.ID
	Name        string
	Description string
	Location    string
	Nightly     money.Money
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*domainlistings.Listing, error) {
	var created *domainlistings.Listing
	err := uow.Run(ctx, s.UoW, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) error {
		listing, err := domainlistings.NewListing(domainlistings.CreateParams{
			ID:          domainlistings.ListingID(uuid.NewString()),
			HostID:      params.HostID,
			Name:        params.Name,
			Description: params.Description,
			Location:    params.Location,
			Nightly:     params.Nightly,
			CreatedAt:   time.Now(),
		})
		if err != nil {
			return err
		}
		if err := unit.Listings().Save(ctx, listing); err != nil {
			return err
		}
		created = listing
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("listing created", "listing_id", created.ID, "host_id", created.HostID)
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var listing *domainlistings.Listing
	err := uow.Run(ctx, s.UoW, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		var err error
		listing, err = unit.Listings().ByID(ctx, id)
		return err
	})
	return listing, err
}

func (s *Service) Update(ctx context.Context, actor domainuser.ID, id domainlistings.ListingID, params domainlistings.UpdateParams) (*domainlistings.Listing, error) {
	var updated *domainlistings.Listing
	err := uow.Run(ctx, s.UoW, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) error {
		listing, err := unit.Listings().ByID(ctx, id)
		if err != nil {
			return err
		}
		if !listing.OwnedBy(actor) {
			return domainbooking.ErrOnlyHost
		}
		if err := listing.Apply(params, time.Now()); err != nil {
			return err
		}
		if err := unit.Listings().Save(ctx, listing); err != nil {
			return err
		}
		updated = listing
		return nil
	})
	return updated, err
}

func (s *Service) Delete(ctx context.Context, actor domainuser.ID, id domainlistings.ListingID) error {
	return uow.Run(ctx, s.UoW, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) error {
		listing, err := unit.Listings().ByID(ctx, id)
		if err != nil {
			return err
		}
		if !listing.OwnedBy(actor) {
			return domainbooking.ErrOnlyHost
		}
		return unit.Listings().Delete(ctx, id)
	})
}

func (s *Service) Search(ctx context.Context, params domainlistings.SearchParams) ([]*domainlistings.Listing, error) {
	var result []*domainlistings.Listing
	err := uow.Run(ctx, s.UoW, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		var err error
		result, err = unit.Listings().Search(ctx, params.Normalized())
		return err
	})
	return result, err
}

func (s *Service) ByHost(ctx context.Context, hostID domainuser.ID) ([]*domainlistings.Listing, error) {
	var result []*domainlistings.Listing
	err := uow.Run(ctx, s.UoW, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		var err error
		result, err = unit.Listings().ByHost(ctx, hostID)
		return err
	})
	return result, err
}

// ListingBookings returns every booking for a listing; host only.
func (s *Service) ListingBookings(ctx context.Context, actor domainuser.ID, id domainlistings.ListingID) ([]*domainbooking.Booking, error) {
	var result []*domainbooking.Booking
	err := uow.Run(ctx, s.UoW, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		listing, err := unit.Listings().ByID(ctx, id)
		if err != nil {
			return err
		}
		if !listing.OwnedBy(actor) {
			return domainbooking.ErrOnlyHost
		}
		result, err = unit.Bookings().ListByListing(ctx, id)
		return err
	})
	return result, err
}

func (s *Service) Reviews(ctx context.Context, id domainlistings.ListingID) ([]*domainreviews.Review, error) {
	var result []*domainreviews.Review
	err := uow.Run(ctx, s.UoW, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		if _, err := unit.Listings().ByID(ctx, id); err != nil {
			return err
		}
		var err error
		result, err = unit.Reviews().ByListing(ctx, id)
		return err
	})
	return result, err
}

type AddReviewParams struct {
	ListingID domainlistings.ListingID
	AuthorID  domainuser.ID
	Rating    int
	Comment   string
}

// AddReview enforces the one-review-per-(listing, author) rule.
func (s *Service) AddReview(ctx context.Context, params AddReviewParams) (*domainreviews.Review, error) {
	var created *domainreviews.Review
	err := uow.Run(ctx, s.UoW, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) error {
		if _, err := unit.Listings().ByID(ctx, params.ListingID); err != nil {
			return err
		}
		existing, err := unit.Reviews().ByListingAndAuthor(ctx, params.ListingID, params.AuthorID)
		if err != nil && !errors.Is(err, domainreviews.ErrNotFound) {
			return err
		}
		if existing != nil {
			return domainreviews.ErrAlreadyReviewed
		}
		review, err := domainreviews.NewReview(domainreviews.CreateParams{
			ID:        domainreviews.ReviewID(uuid.NewString()),
			ListingID: params.ListingID,
			AuthorID:  params.AuthorID,
			Rating:    params.Rating,
			Comment:   params.Comment,
			CreatedAt: time.Now(),
		})
		if err != nil {
			return err
		}
		if err := unit.Reviews().Save(ctx, review); err != nil {
			return err
		}
		created = review
		return nil
	})
	return created, err
}
