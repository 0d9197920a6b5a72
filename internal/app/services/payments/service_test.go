package payments

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"stayhub/internal/app/notify"
	domainbooking "stayhub/internal/domain/booking"
	domainlistings "stayhub/internal/domain/listings"
	domainpayments "stayhub/internal/domain/payments"
	"stayhub/internal/domain/shared/daterange"
	"stayhub/internal/domain/shared/money"
	domainuser "stayhub/internal/domain/user"
	"stayhub/internal/infra/storage/memory"
)

type fakeGateway struct {
	mu           sync.Mutex
	verifyStatus string
	verifyRef    string
	initSeen     []InitializeRequest
}

func (g *fakeGateway) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.initSeen = append(g.initSeen, req)
	return &InitializeResult{
		CheckoutURL: "https://checkout.test/" + req.TxRef,
		Message:     "Hosted Link",
	}, nil
}

func (g *fakeGateway) Verify(ctx context.Context, txRef string) (*VerifyResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return &VerifyResult{Status: g.verifyStatus, Reference: g.verifyRef}, nil
}

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

func (d *captureDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.jobs)
}

type fixture struct {
	svc      *Service
	gateway  *fakeGateway
	notifier *captureDispatcher
	factory  *memory.Factory
	booking  *domainbooking.Booking
	guest    *domainuser.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	factory := memory.NewFactory()
	gateway := &fakeGateway{verifyStatus: "success", verifyRef: "ref-1"}
	notifier := &captureDispatcher{}

	guest, err := domainuser.NewUser(domainuser.CreateParams{
		ID: "guest-1", Email: "guest@example.com", FirstName: "Dawit", LastName: "Abebe", PasswordHash: "x",
	})
	require.NoError(t, err)
	require.NoError(t, factory.UsersRepo.Save(ctx, guest))

	listing, err := domainlistings.NewListing(domainlistings.CreateParams{
		ID:       "listing-1",
		HostID:   "host-1",
		Name:     "Lakeside Cabin",
		Location: "Bahir Dar",
		Nightly:  money.Must(10000, "ETB"),
	})
	require.NoError(t, err)
	require.NoError(t, factory.ListingsRepo.Save(ctx, listing))

	dr, err := daterange.New(
		time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 5, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:      "booking-1",
		Listing: listing,
		GuestID: guest.ID,
		Range:   dr,
	})
	require.NoError(t, err)
	require.NoError(t, factory.BookingsRepo.Save(ctx, booking))

	svc := &Service{
		UoW:      factory,
		Gateway:  gateway,
		Notifier: notifier,
		Dedupe:   memory.NewDedupeStore(),
		Currency: "ETB",
	}
	return &fixture{svc: svc, gateway: gateway, notifier: notifier, factory: factory, booking: booking, guest: guest}
}

func TestInitiate(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	result, err := fx.svc.Initiate(ctx, InitiateParams{
		BookingID: fx.booking.ID,
		UserID:    fx.guest.ID,
		ReturnURL: "https://app.test/done",
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(result.TxRef, "booking-booking-1-"), "tx_ref = %s", result.TxRef)
	require.Equal(t, "https://checkout.test/"+result.TxRef, result.CheckoutURL)
	require.Equal(t, domainpayments.StatusPending, result.Payment.Status)
	require.Equal(t, int64(40000), result.Payment.Amount.Amount)

	require.Len(t, fx.gateway.initSeen, 1)
	require.Equal(t, "400.00", fx.gateway.initSeen[0].Amount.DecimalString())
	require.Equal(t, fx.guest.Email, fx.gateway.initSeen[0].Email)

	stored, err := fx.factory.PaymentsRepo.ByTxRef(ctx, result.TxRef)
	require.NoError(t, err)
	require.Equal(t, domainpayments.StatusPending, stored.Status)
}

func TestInitiateExplicitAmount(t *testing.T) {
	fx := newFixture(t)

	result, err := fx.svc.Initiate(context.Background(), InitiateParams{
		BookingID: fx.booking.ID,
		UserID:    fx.guest.ID,
		Amount:    12550,
	})
	require.NoError(t, err)
	require.Equal(t, int64(12550), result.Payment.Amount.Amount)
}

func TestHandleWebhook(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	initiated, err := fx.svc.Initiate(ctx, InitiateParams{
		BookingID: fx.booking.ID,
		UserID:    fx.guest.ID,
	})
	require.NoError(t, err)

	result, err := fx.svc.HandleWebhook(ctx, WebhookPayload{
		TxRef:     initiated.TxRef,
		Status:    "success",
		Reference: "ref-1",
	})
	require.NoError(t, err)
	require.Equal(t, domainpayments.StatusCompleted, result.PaymentStatus)

	stored, err := fx.factory.PaymentsRepo.ByTxRef(ctx, initiated.TxRef)
	require.NoError(t, err)
	require.Equal(t, domainpayments.StatusCompleted, stored.Status)
	require.Equal(t, "ref-1", stored.ProviderTxID)

	require.Equal(t, 1, fx.notifier.count())
	job := fx.notifier.jobs[0]
	require.Equal(t, notify.KindPaymentConfirmation, job.Kind)
	require.Equal(t, fx.guest.Email, job.Recipient)
	require.Equal(t, "400.00", job.Context["amount"])

	// replayed delivery neither flips state nor re-sends the email
	replay, err := fx.svc.HandleWebhook(ctx, WebhookPayload{
		TxRef:     initiated.TxRef,
		Status:    "success",
		Reference: "ref-1",
	})
	require.NoError(t, err)
	require.Equal(t, domainpayments.StatusCompleted, replay.PaymentStatus)
	require.Equal(t, 1, fx.notifier.count())
}

type flakyDispatcher struct {
	inner    *captureDispatcher
	failures int
}

func (d *flakyDispatcher) Submit(ctx context.Context, job notify.Job) error {
	if d.failures > 0 {
		d.failures--
		return errors.New("outbox unavailable")
	}
	return d.inner.Submit(ctx, job)
}

func TestHandleWebhookRedeliveryAfterEnqueueFailure(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	flaky := &flakyDispatcher{inner: fx.notifier, failures: 1}
	fx.svc.Notifier = flaky

	initiated, err := fx.svc.Initiate(ctx, InitiateParams{BookingID: fx.booking.ID, UserID: fx.guest.ID})
	require.NoError(t, err)

	payload := WebhookPayload{TxRef: initiated.TxRef, Status: "success", Reference: "ref-1"}

	// the enqueue fails; the dedupe key must not stay recorded
	_, err = fx.svc.HandleWebhook(ctx, payload)
	require.NoError(t, err)
	require.Equal(t, 0, fx.notifier.count())

	// the provider redelivers and the email goes out this time
	_, err = fx.svc.HandleWebhook(ctx, payload)
	require.NoError(t, err)
	require.Equal(t, 1, fx.notifier.count())

	// further redeliveries stay suppressed
	_, err = fx.svc.HandleWebhook(ctx, payload)
	require.NoError(t, err)
	require.Equal(t, 1, fx.notifier.count())
}

func TestHandleWebhookFailedStatus(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.gateway.verifyStatus = "failed"

	initiated, err := fx.svc.Initiate(ctx, InitiateParams{BookingID: fx.booking.ID, UserID: fx.guest.ID})
	require.NoError(t, err)

	result, err := fx.svc.HandleWebhook(ctx, WebhookPayload{
		TxRef:  initiated.TxRef,
		Status: "failed/cancelled",
	})
	require.NoError(t, err)
	require.Equal(t, domainpayments.StatusFailed, result.PaymentStatus)

	require.Equal(t, 1, fx.notifier.count())
	require.Equal(t, notify.KindPaymentFailed, fx.notifier.jobs[0].Kind)
}

func TestHandleWebhookUnknownStatusStaysPending(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	initiated, err := fx.svc.Initiate(ctx, InitiateParams{BookingID: fx.booking.ID, UserID: fx.guest.ID})
	require.NoError(t, err)

	result, err := fx.svc.HandleWebhook(ctx, WebhookPayload{
		TxRef:  initiated.TxRef,
		Status: "processing",
	})
	require.NoError(t, err)
	require.Equal(t, domainpayments.StatusPending, result.PaymentStatus)
	require.Equal(t, 0, fx.notifier.count())
}

func TestHandleWebhookMalformed(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.svc.HandleWebhook(ctx, WebhookPayload{Status: "success"})
	require.ErrorIs(t, err, ErrMalformedWebhook)

	_, err = fx.svc.HandleWebhook(ctx, WebhookPayload{TxRef: "booking-x-1"})
	require.ErrorIs(t, err, ErrMalformedWebhook)
}

func TestHandleWebhookUnknownTxRef(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.HandleWebhook(context.Background(), WebhookPayload{
		TxRef:  "booking-nope-00000000",
		Status: "success",
	})
	require.ErrorIs(t, err, domainpayments.ErrNotFound)
}

func TestGetOwnerOnly(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	initiated, err := fx.svc.Initiate(ctx, InitiateParams{BookingID: fx.booking.ID, UserID: fx.guest.ID})
	require.NoError(t, err)

	_, err = fx.svc.Get(ctx, fx.guest.ID, initiated.Payment.ID)
	require.NoError(t, err)

	_, err = fx.svc.Get(ctx, "stranger", initiated.Payment.ID)
	require.ErrorIs(t, err, ErrNotOwner)
}
