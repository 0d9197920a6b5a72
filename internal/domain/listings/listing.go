package listings

import (
	"context"
	"errors"
	"strings"
	"time"

	"stayhub/internal/domain/shared/money"
	"stayhub/internal/domain/user"
)

var (
	ErrIDRequired       = errors.New("listings: id is required")
	ErrHostRequired     = errors.New("listings: host is required")
	ErrNameRequired     = errors.New("listings: name is required")
	ErrLocationRequired = errors.New("listings: location is required")
	ErrInvalidPrice     = errors.New("listings: price per night must be positive")
	ErrNotFound         = errors.New("listings: not found")
)

type ListingID string

type Listing struct {
	ID          ListingID
	HostID      user.ID
	Name        string
	Description string
	Location    string
	Nightly     money.Money
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
	Delete(ctx context.Context, id ListingID) error
	Search(ctx context.Context, params SearchParams) ([]*Listing, error)
	ByHost(ctx context.Context, hostID user.ID) ([]*Listing, error)
}

type CreateParams struct {
	ID          ListingID
	HostID      user.ID
	Name        string
	Description string
	Location    string
	Nightly     money.Money
	CreatedAt   time.Time
}

func NewListing(params CreateParams) (*Listing, error) {
	id := strings.TrimSpace(string(params.ID))
	if id == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.HostID)) == "" {
		return nil, ErrHostRequired
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	location := strings.TrimSpace(params.Location)
	if location == "" {
		return nil, ErrLocationRequired
	}
	if !params.Nightly.IsPositive() {
		return nil, ErrInvalidPrice
	}
	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &Listing{
		ID:          ListingID(id),
		HostID:      params.HostID,
		Name:        name,
		Description: strings.TrimSpace(params.Description),
		Location:    location,
		Nightly:     params.Nightly,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// OwnedBy reports whether the given user is the listing host.
func (l *Listing) OwnedBy(id user.ID) bool {
	return l.HostID == id
}

type UpdateParams struct {
	Name        *string
	Description *string
	Location    *string
	Nightly     *money.Money
}

// Apply updates the mutable fields; nil pointers leave the field unchanged.
func (l *Listing) Apply(params UpdateParams, now time.Time) error {
	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		if name == "" {
			return ErrNameRequired
		}
		l.Name = name
	}
	if params.Description != nil {
		l.Description = strings.TrimSpace(*params.Description)
	}
	if params.Location != nil {
		location := strings.TrimSpace(*params.Location)
		if location == "" {
			return ErrLocationRequired
		}
		l.Location = location
	}
	if params.Nightly != nil {
		if !params.Nightly.IsPositive() {
			return ErrInvalidPrice
		}
		l.Nightly = *params.Nightly
	}
	if now.IsZero() {
		now = time.Now()
	}
	l.UpdatedAt = now.UTC()
	return nil
}
