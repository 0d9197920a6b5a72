package bookings

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"stayhub/internal/app/notify"
	domainbooking "stayhub/internal/domain/booking"
	domainlistings "stayhub/internal/domain/listings"
	"stayhub/internal/domain/shared/money"
	domainuser "stayhub/internal/domain/user"
	"stayhub/internal/infra/storage/memory"
)

type captureDispatcher struct {
	mu   sync.Mutex
	jobs []notify.Job
}

func (d *captureDispatcher) Submit(ctx context.Context, job notify.Job) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs = append(d.jobs, job)
	return nil
}

func (d *captureDispatcher) byKind(kind notify.Kind) []notify.Job {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []notify.Job
	for _, j := range d.jobs {
		if j.Kind == kind {
			out = append(out, j)
		}
	}
	return out
}

type fixture struct {
	svc      *Service
	notifier *captureDispatcher
	factory  *memory.Factory
	host     *domainuser.User
	guest    *domainuser.User
	listing  *domainlistings.Listing
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	factory := memory.NewFactory()
	notifier := &captureDispatcher{}
	svc := &Service{UoW: factory, Notifier: notifier}

	ctx := context.Background()
	host, err := domainuser.NewUser(domainuser.CreateParams{
		ID: "host-1", Email: "host@example.com", FirstName: "Hana", LastName: "Tesfaye", PasswordHash: "x",
	})
	require.NoError(t, err)
	require.NoError(t, factory.UsersRepo.Save(ctx, host))

	guest, err := domainuser.NewUser(domainuser.CreateParams{
		ID: "guest-1", Email: "guest@example.com", FirstName: "Dawit", LastName: "Abebe", PasswordHash: "x",
	})
	require.NoError(t, err)
	require.NoError(t, factory.UsersRepo.Save(ctx, guest))

	other, err := domainuser.NewUser(domainuser.CreateParams{
		ID: "guest-2", Email: "other@example.com", FirstName: "Sara", LastName: "Bekele", PasswordHash: "x",
	})
	require.NoError(t, err)
	require.NoError(t, factory.UsersRepo.Save(ctx, other))

	listing, err := domainlistings.NewListing(domainlistings.CreateParams{
		ID:       "listing-1",
		HostID:   host.ID,
		Name:     "Lakeside Cabin",
		Location: "Bahir Dar",
		Nightly:  money.Must(10000, "ETB"),
	})
	require.NoError(t, err)
	require.NoError(t, factory.ListingsRepo.Save(ctx, listing))

	return &fixture{svc: svc, notifier: notifier, factory: factory, host: host, guest: guest, listing: listing}
}

func date(d int) time.Time {
	return time.Date(2025, 12, d, 0, 0, 0, 0, time.UTC)
}

func TestCreateBooking(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	booking, err := fx.svc.Create(ctx, CreateParams{
		ListingID: fx.listing.ID,
		GuestID:   fx.guest.ID,
		Start:     date(1),
		End:       date(5),
	})
	require.NoError(t, err)
	require.Equal(t, domainbooking.StatusPending, booking.Status)
	require.Equal(t, int64(40000), booking.Total.Amount)

	jobs := fx.notifier.byKind(notify.KindBookingCreated)
	require.Len(t, jobs, 1)
	require.Equal(t, fx.guest.Email, jobs[0].Recipient)
	require.Equal(t, "Lakeside Cabin", jobs[0].Context["property"])
	require.Equal(t, "2025-12-01", jobs[0].Context["start_date"])
}

func TestCreateBookingOverlapRejected(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.svc.Create(ctx, CreateParams{
		ListingID: fx.listing.ID, GuestID: fx.guest.ID, Start: date(1), End: date(5),
	})
	require.NoError(t, err)

	// 2025-12-03..06 intersects 2025-12-01..05
	_, err = fx.svc.Create(ctx, CreateParams{
		ListingID: fx.listing.ID, GuestID: "guest-2", Start: date(3), End: date(6),
	})
	require.ErrorIs(t, err, domainbooking.ErrNotAvailable)

	// back-to-back checkout day is free
	_, err = fx.svc.Create(ctx, CreateParams{
		ListingID: fx.listing.ID, GuestID: "guest-2", Start: date(5), End: date(8),
	})
	require.NoError(t, err)
}

func TestCreateBookingConcurrentOverlap(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	// two guests race for the same dates; the unit of work must let exactly
	// one through
	const racers = 8
	guests := []domainuser.ID{fx.guest.ID, "guest-2"}
	errs := make([]error, racers)
	var start, done sync.WaitGroup
	start.Add(1)
	done.Add(racers)
	for i := 0; i < racers; i++ {
		go func(i int) {
			defer done.Done()
			start.Wait()
			_, errs[i] = fx.svc.Create(ctx, CreateParams{
				ListingID: fx.listing.ID,
				GuestID:   guests[i%len(guests)],
				Start:     date(1),
				End:       date(5),
			})
		}(i)
	}
	start.Done()
	done.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, domainbooking.ErrNotAvailable)
	}
	require.Equal(t, 1, succeeded)

	persisted, err := fx.factory.BookingsRepo.ListByListing(ctx, fx.listing.ID)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
}

func TestCreateBookingUnknownGuestPersistsNothing(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.svc.Create(ctx, CreateParams{
		ListingID: fx.listing.ID,
		GuestID:   "nobody",
		Start:     date(1),
		End:       date(5),
	})
	require.ErrorIs(t, err, domainuser.ErrNotFound)

	persisted, err := fx.factory.BookingsRepo.ListByListing(ctx, fx.listing.ID)
	require.NoError(t, err)
	require.Empty(t, persisted)
	require.Empty(t, fx.notifier.jobs)
}

func TestCancelReleasesDates(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	first, err := fx.svc.Create(ctx, CreateParams{
		ListingID: fx.listing.ID, GuestID: fx.guest.ID, Start: date(1), End: date(5),
	})
	require.NoError(t, err)

	_, err = fx.svc.Cancel(ctx, fx.guest.ID, first.ID)
	require.NoError(t, err)

	// the cancelled booking no longer blocks the range
	_, err = fx.svc.Create(ctx, CreateParams{
		ListingID: fx.listing.ID, GuestID: "guest-2", Start: date(1), End: date(5),
	})
	require.NoError(t, err)
}

func TestConfirmHostOnly(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	booking, err := fx.svc.Create(ctx, CreateParams{
		ListingID: fx.listing.ID, GuestID: fx.guest.ID, Start: date(1), End: date(5),
	})
	require.NoError(t, err)

	_, err = fx.svc.Confirm(ctx, fx.guest.ID, booking.ID)
	require.ErrorIs(t, err, domainbooking.ErrOnlyHost)

	confirmed, err := fx.svc.Confirm(ctx, fx.host.ID, booking.ID)
	require.NoError(t, err)
	require.Equal(t, domainbooking.StatusConfirmed, confirmed.Status)

	jobs := fx.notifier.byKind(notify.KindBookingConfirmed)
	require.Len(t, jobs, 1)
}

func TestGetVisibility(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	booking, err := fx.svc.Create(ctx, CreateParams{
		ListingID: fx.listing.ID, GuestID: fx.guest.ID, Start: date(1), End: date(5),
	})
	require.NoError(t, err)

	_, err = fx.svc.Get(ctx, fx.guest.ID, booking.ID)
	require.NoError(t, err)
	_, err = fx.svc.Get(ctx, fx.host.ID, booking.ID)
	require.NoError(t, err)
	_, err = fx.svc.Get(ctx, "stranger", booking.ID)
	require.ErrorIs(t, err, domainbooking.ErrNotFound)
}

func TestIsAvailable(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	ok, err := fx.svc.IsAvailable(ctx, fx.listing.ID, date(1), date(5))
	require.NoError(t, err)
	require.True(t, ok)

	_, err = fx.svc.Create(ctx, CreateParams{
		ListingID: fx.listing.ID, GuestID: fx.guest.ID, Start: date(1), End: date(5),
	})
	require.NoError(t, err)

	ok, err = fx.svc.IsAvailable(ctx, fx.listing.ID, date(2), date(4))
	require.NoError(t, err)
	require.False(t, ok)
}
