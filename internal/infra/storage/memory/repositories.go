package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	domainbooking "stayhub/internal/domain/booking"
	domainlistings "stayhub/internal/domain/listings"
	domainmessages "stayhub/internal/domain/messages"
	domainreviews "stayhub/internal/domain/reviews"
	"stayhub/internal/domain/shared/daterange"
	domainuser "stayhub/internal/domain/user"
)

// ListingRepository is an in-memory implementation for tests and local runs.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]*domainlistings.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{
		items: make(map[domainlistings.ListingID]*domainlistings.Listing),
	}
}

// ByID returns a listing or domainlistings.ErrNotFound.
func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.items[id]
	if !ok {
		return nil, domainlistings.ErrNotFound
	}
	return cloneListing(listing), nil
}

// Save stores/updates a listing entry.
func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[listing.ID] = cloneListing(listing)
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, id domainlistings.ListingID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainlistings.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// Search returns listings that satisfy the provided filters, sorted and paged.
func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) ([]*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	opts := params.Normalized()
	matches := make([]*domainlistings.Listing, 0, len(r.items))
	for _, listing := range r.items {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if opts.Location != "" && !strings.Contains(strings.ToLower(listing.Location), strings.ToLower(opts.Location)) {
			continue
		}
		if opts.MinPrice > 0 && listing.Nightly.Amount < opts.MinPrice {
			continue
		}
		if opts.MaxPrice > 0 && listing.Nightly.Amount > opts.MaxPrice {
			continue
		}
		if !listing.MatchesQuery(opts.Query) {
			continue
		}
		matches = append(matches, listing)
	}

	sort.Slice(matches, func(i, j int) bool {
		less := false
		switch opts.SortBy {
		case domainlistings.SortByPrice:
			if matches[i].Nightly.Amount == matches[j].Nightly.Amount {
				less = matches[i].Name < matches[j].Name
			} else {
				less = matches[i].Nightly.Amount < matches[j].Nightly.Amount
			}
		case domainlistings.SortByName:
			less = matches[i].Name < matches[j].Name
		default:
			if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
				less = matches[i].Name < matches[j].Name
			} else {
				less = matches[i].CreatedAt.Before(matches[j].CreatedAt)
			}
		}
		if opts.SortDesc {
			return !less
		}
		return less
	})

	total := len(matches)
	start := opts.Offset
	if start > total {
		start = total
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}

	page := make([]*domainlistings.Listing, 0, end-start)
	for _, listing := range matches[start:end] {
		page = append(page, cloneListing(listing))
	}
	return page, nil
}

func (r *ListingRepository) ByHost(ctx context.Context, hostID domainuser.ID) ([]*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainlistings.Listing, 0)
	for _, listing := range r.items {
		if listing.HostID == hostID {
			matches = append(matches, cloneListing(listing))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func cloneListing(l *domainlistings.Listing) *domainlistings.Listing {
	if l == nil {
		return nil
	}
	copyListing := *l
	return &copyListing
}

// HostIndex resolves which listings a host owns. The memory store has no
// joins, so BookingRepository.ListByHost consults the listing store through
// this view.
type HostIndex interface {
	ByHost(ctx context.Context, hostID domainuser.ID) ([]*domainlistings.Listing, error)
}

// BookingRepository stores bookings in memory.
type BookingRepository struct {
	mu       sync.RWMutex
	items    map[domainbooking.BookingID]*domainbooking.Booking
	listings HostIndex
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

// WithListings wires the listing store used by ListByHost.
func (r *BookingRepository) WithListings(index HostIndex) *BookingRepository {
	r.listings = index
	return r
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	booking, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	return cloneBooking(booking), nil
}

func (r *BookingRepository) Save(ctx context.Context, booking *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking.Version++
	r.items[booking.ID] = cloneBooking(booking)
	return nil
}

// LockListing is a no-op: the factory's store-wide lock already serializes
// every unit of work, so no finer-grained fencing is needed.
func (r *BookingRepository) LockListing(ctx context.Context, listingID domainlistings.ListingID) error {
	return nil
}

// HasOverlapping scans blocking bookings of the listing for a range
// intersection.
func (r *BookingRepository) HasOverlapping(ctx context.Context, listingID domainlistings.ListingID, dr daterange.DateRange) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, booking := range r.items {
		if booking.ListingID != listingID {
			continue
		}
		if !booking.Status.Blocking() {
			continue
		}
		if booking.Range.Overlaps(dr) {
			return true, nil
		}
	}
	return false, nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID domainuser.ID) ([]*domainbooking.Booking, error) {
	return r.list(func(b *domainbooking.Booking) bool { return b.GuestID == guestID })
}

func (r *BookingRepository) ListByListing(ctx context.Context, listingID domainlistings.ListingID) ([]*domainbooking.Booking, error) {
	return r.list(func(b *domainbooking.Booking) bool { return b.ListingID == listingID })
}

func (r *BookingRepository) ListByHost(ctx context.Context, hostID domainuser.ID) ([]*domainbooking.Booking, error) {
	if r.listings == nil {
		return []*domainbooking.Booking{}, nil
	}
	owned, err := r.listings.ByHost(ctx, hostID)
	if err != nil {
		return nil, err
	}
	ownedIDs := make(map[domainlistings.ListingID]struct{}, len(owned))
	for _, listing := range owned {
		ownedIDs[listing.ID] = struct{}{}
	}
	return r.list(func(b *domainbooking.Booking) bool {
		_, ok := ownedIDs[b.ListingID]
		return ok
	})
}

func (r *BookingRepository) list(match func(*domainbooking.Booking) bool) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, booking := range r.items {
		if match(booking) {
			matches = append(matches, cloneBooking(booking))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	if b == nil {
		return nil
	}
	copyBooking := *b
	return &copyBooking
}

// ReviewRepository is a lightweight in-memory review store.
type ReviewRepository struct {
	mu    sync.RWMutex
	items map[string]*domainreviews.Review
}

func NewReviewRepository() *ReviewRepository {
	return &ReviewRepository{items: make(map[string]*domainreviews.Review)}
}

func (r *ReviewRepository) ByListing(ctx context.Context, listingID domainlistings.ListingID) ([]*domainreviews.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainreviews.Review, 0)
	for _, review := range r.items {
		if review.ListingID == listingID {
			copyReview := *review
			matches = append(matches, &copyReview)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func (r *ReviewRepository) ByListingAndAuthor(ctx context.Context, listingID domainlistings.ListingID, authorID domainuser.ID) (*domainreviews.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if review, ok := r.items[reviewKey(listingID, authorID)]; ok {
		copyReview := *review
		return &copyReview, nil
	}
	return nil, domainreviews.ErrNotFound
}

func (r *ReviewRepository) Save(ctx context.Context, review *domainreviews.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copyReview := *review
	r.items[reviewKey(review.ListingID, review.AuthorID)] = &copyReview
	return nil
}

func reviewKey(listingID domainlistings.ListingID, authorID domainuser.ID) string {
	return string(listingID) + ":" + string(authorID)
}

// MessageRepository stores direct messages in memory.
type MessageRepository struct {
	mu    sync.RWMutex
	items []*domainmessages.Message
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{}
}

func (r *MessageRepository) Save(ctx context.Context, msg *domainmessages.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copyMsg := *msg
	r.items = append(r.items, &copyMsg)
	return nil
}

func (r *MessageRepository) ListByParticipant(ctx context.Context, userID domainuser.ID) ([]*domainmessages.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainmessages.Message, 0)
	for _, msg := range r.items {
		if msg.SenderID == userID || msg.RecipientID == userID {
			copyMsg := *msg
			matches = append(matches, &copyMsg)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].SentAt.After(matches[j].SentAt)
	})
	return matches, nil
}

var _ domainlistings.Repository = (*ListingRepository)(nil)
var _ domainbooking.Repository = (*BookingRepository)(nil)
var _ domainreviews.Repository = (*ReviewRepository)(nil)
var _ domainmessages.Repository = (*MessageRepository)(nil)
