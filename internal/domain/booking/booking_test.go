package booking

import (
	"errors"
	"testing"
	"time"

	"stayhub/internal/domain/listings"
	"stayhub/internal/domain/shared/daterange"
	"stayhub/internal/domain/shared/money"
	"stayhub/internal/domain/user"
)

func testListing(t *testing.T) *listings.Listing {
	t.Helper()
	listing, err := listings.NewListing(listings.CreateParams{
		ID:       "listing-1",
		HostID:   "host-1",
		Name:     "Lakeside Cabin",
		Location: "Bahir Dar",
		Nightly:  money.Must(10000, "ETB"),
	})
	if err != nil {
		t.Fatal(err)
	}
	return listing
}

func testRange(t *testing.T, startDay, endDay int) daterange.DateRange {
	t.Helper()
	dr, err := daterange.New(
		time.Date(2025, 12, startDay, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 12, endDay, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatal(err)
	}
	return dr
}

func TestNewBookingDerivesTotal(t *testing.T) {
	b, err := NewBooking(CreateParams{
		ID:      "booking-1",
		Listing: testListing(t),
		GuestID: "guest-1",
		Range:   testRange(t, 1, 5),
	})
	if err != nil {
		t.Fatal(err)
	}
	if b.Status != StatusPending {
		t.Errorf("status = %s, want pending", b.Status)
	}
	if b.Total.Amount != 40000 {
		t.Errorf("total = %d, want 40000 (4 nights x 100.00)", b.Total.Amount)
	}
	if b.Nights() != 4 {
		t.Errorf("nights = %d, want 4", b.Nights())
	}
}

func TestNewBookingValidation(t *testing.T) {
	listing := testListing(t)
	if _, err := NewBooking(CreateParams{ID: "b", Listing: listing, Range: testRange(t, 1, 2)}); !errors.Is(err, ErrGuestRequired) {
		t.Errorf("missing guest: err = %v, want %v", err, ErrGuestRequired)
	}
	if _, err := NewBooking(CreateParams{ID: "b", GuestID: "g", Range: testRange(t, 1, 2)}); !errors.Is(err, listings.ErrNotFound) {
		t.Errorf("missing listing: err = %v, want %v", err, listings.ErrNotFound)
	}
	if _, err := NewBooking(CreateParams{ID: "b", Listing: listing, GuestID: "g"}); !errors.Is(err, daterange.ErrInvalidRange) {
		t.Errorf("missing range: err = %v, want %v", err, daterange.ErrInvalidRange)
	}
}

func TestConfirm(t *testing.T) {
	host := user.ID("host-1")
	b, err := NewBooking(CreateParams{
		ID:      "booking-1",
		Listing: testListing(t),
		GuestID: "guest-1",
		Range:   testRange(t, 1, 5),
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := b.Confirm("guest-1", host, time.Now()); !errors.Is(err, ErrOnlyHost) {
		t.Fatalf("guest confirm: err = %v, want %v", err, ErrOnlyHost)
	}
	if err := b.Confirm(host, host, time.Now()); err != nil {
		t.Fatalf("host confirm failed: %v", err)
	}
	if b.Status != StatusConfirmed {
		t.Fatalf("status = %s, want confirmed", b.Status)
	}

	// confirm is not gated on the current state
	if err := b.Cancel("guest-1", host, time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := b.Confirm(host, host, time.Now()); err != nil {
		t.Fatalf("re-confirm after cancel failed: %v", err)
	}
	if b.Status != StatusConfirmed {
		t.Fatalf("status = %s, want confirmed", b.Status)
	}
}

func TestCancel(t *testing.T) {
	host := user.ID("host-1")
	b, err := NewBooking(CreateParams{
		ID:      "booking-1",
		Listing: testListing(t),
		GuestID: "guest-1",
		Range:   testRange(t, 1, 5),
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := b.Cancel("stranger", host, time.Now()); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("stranger cancel: err = %v, want %v", err, ErrNotParticipant)
	}
	if err := b.Cancel("guest-1", host, time.Now()); err != nil {
		t.Fatalf("guest cancel failed: %v", err)
	}
	if b.Status != StatusCancelled {
		t.Fatalf("status = %s, want cancelled", b.Status)
	}
}

func TestStatusBlocking(t *testing.T) {
	blocking := []Status{StatusPending, StatusConfirmed, StatusCompleted}
	for _, s := range blocking {
		if !s.Blocking() {
			t.Errorf("%s should block the date range", s)
		}
	}
	for _, s := range []Status{StatusCancelled, StatusRejected} {
		if s.Blocking() {
			t.Errorf("%s should release the date range", s)
		}
	}
}
