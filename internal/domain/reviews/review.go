package reviews

import (
	"context"
	"errors"
	"strings"
	"time"

	"stayhub/internal/domain/listings"
	"stayhub/internal/domain/user"
)

var (
	ErrNotFound        = errors.New("reviews: not found")
	ErrInvalidRating   = errors.New("reviews: rating must be between 1 and 5")
	ErrCommentRequired = errors.New("reviews: comment is required")
	ErrAlreadyReviewed = errors.New("reviews: author already reviewed this listing")
)

type ReviewID string

type Review struct {
	ID        ReviewID
	ListingID listings.ListingID
	AuthorID  user.ID
	Rating    int
	Comment   string
	CreatedAt time.Time
}

type Repository interface {
	ByListing(ctx context.Context, listingID listings.ListingID) ([]*Review, error)
	// ByListingAndAuthor backs the one-review-per-guest rule.
	ByListingAndAuthor(ctx context.Context, listingID listings.ListingID, authorID user.ID) (*Review, error)
	Save(ctx context.Context, review *Review) error
}

type CreateParams struct {
	ID        ReviewID
	ListingID listings.ListingID
	AuthorID  user.ID
	Rating    int
	Comment   string
	CreatedAt time.Time
}

func NewReview(params CreateParams) (*Review, error) {
	if params.Rating < 1 || params.Rating > 5 {
		return nil, ErrInvalidRating
	}
	comment := strings.TrimSpace(params.Comment)
	if comment == "" {
		return nil, ErrCommentRequired
	}
	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	return &Review{
		ID:        params.ID,
		ListingID: params.ListingID,
		AuthorID:  params.AuthorID,
		Rating:    params.Rating,
		Comment:   comment,
		CreatedAt: now.UTC(),
	}, nil
}

// AverageRating computes the mean rating of a listing's reviews, zero when
// there are none.
func AverageRating(items []*Review) float64 {
	if len(items) == 0 {
		return 0
	}
	sum := 0
	for _, r := range items {
		sum += r.Rating
	}
	return float64(sum) / float64(len(items))
}
