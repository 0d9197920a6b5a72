package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domainlistings "stayhub/internal/domain/listings"
	domainpayments "stayhub/internal/domain/payments"
	"stayhub/internal/domain/shared/money"
)

func seedListings(t *testing.T, repo *ListingRepository) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := []struct {
		id       string
		name     string
		location string
		nightly  int64
	}{
		{"l-1", "Lakeside Cabin", "Bahir Dar", 10000},
		{"l-2", "City Apartment", "Addis Ababa", 25000},
		{"l-3", "Garden Studio", "Addis Ababa", 15000},
	}
	for i, row := range rows {
		listing, err := domainlistings.NewListing(domainlistings.CreateParams{
			ID:        domainlistings.ListingID(row.id),
			HostID:    "host-1",
			Name:      row.name,
			Location:  row.location,
			Nightly:   money.Must(row.nightly, "ETB"),
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, listing))
	}
}

func TestListingSearchFilters(t *testing.T) {
	repo := NewListingRepository()
	seedListings(t, repo)
	ctx := context.Background()

	results, err := repo.Search(ctx, domainlistings.SearchParams{Location: "addis"})
	require.NoError(t, err)
	require.Len(t, results, 2)

	results, err = repo.Search(ctx, domainlistings.SearchParams{MinPrice: 12000, MaxPrice: 20000})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "Garden Studio", results[0].Name)

	results, err = repo.Search(ctx, domainlistings.SearchParams{Query: "cabin"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "Lakeside Cabin", results[0].Name)
}

func TestListingSearchSortAndPaging(t *testing.T) {
	repo := NewListingRepository()
	seedListings(t, repo)
	ctx := context.Background()

	results, err := repo.Search(ctx, domainlistings.SearchParams{SortBy: domainlistings.SortByPrice})
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, int64(10000), results[0].Nightly.Amount)
	require.Equal(t, int64(25000), results[2].Nightly.Amount)

	// default ordering is newest first
	results, err = repo.Search(ctx, domainlistings.SearchParams{})
	require.NoError(t, err)
	require.Equal(t, "Garden Studio", results[0].Name)

	results, err = repo.Search(ctx, domainlistings.SearchParams{SortBy: domainlistings.SortByPrice, Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, int64(15000), results[0].Nightly.Amount)
}

func TestListingSearchReturnsClones(t *testing.T) {
	repo := NewListingRepository()
	seedListings(t, repo)
	ctx := context.Background()

	results, err := repo.Search(ctx, domainlistings.SearchParams{Query: "cabin"})
	require.NoError(t, err)
	results[0].Name = "Mutated"

	again, err := repo.ByID(ctx, results[0].ID)
	require.NoError(t, err)
	require.Equal(t, "Lakeside Cabin", again.Name)
}

func TestPaymentSaveVersioning(t *testing.T) {
	repo := NewPaymentRepository()
	ctx := context.Background()

	payment, err := domainpayments.NewPayment(domainpayments.CreateParams{
		ID:        "pay-1",
		BookingID: "booking-1",
		UserID:    "guest-1",
		Amount:    money.Must(40000, "ETB"),
		TxRef:     "booking-booking-1-deadbeef",
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, payment))
	require.Equal(t, int64(1), payment.Version)

	// a second insert under the same tx_ref is rejected
	dup, err := domainpayments.NewPayment(domainpayments.CreateParams{
		ID:        "pay-2",
		BookingID: "booking-1",
		UserID:    "guest-1",
		Amount:    money.Must(40000, "ETB"),
		TxRef:     "booking-booking-1-deadbeef",
	})
	require.NoError(t, err)
	require.ErrorIs(t, repo.Save(ctx, dup), domainpayments.ErrDuplicateTxRef)

	// a stale version loses the compare-and-set
	stale := *payment
	stale.Version = 0
	require.ErrorIs(t, repo.Save(ctx, &stale), domainpayments.ErrConcurrentUpdate)

	require.NoError(t, repo.Save(ctx, payment))
	require.Equal(t, int64(2), payment.Version)
}
