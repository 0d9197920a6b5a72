package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"stayhub/internal/app/notify"
	"stayhub/internal/app/uow"
	domainbooking "stayhub/internal/domain/booking"
	domainpayments "stayhub/internal/domain/payments"
	"stayhub/internal/domain/shared/money"
	domainuser "stayhub/internal/domain/user"
)

var (
	ErrMalformedWebhook = errors.New("payments: malformed webhook payload")
	ErrNotOwner         = errors.New("payments: not the payment owner")
)

// casRetries bounds reload-and-reapply attempts when a webhook and a status
// poll race on the same payment row.
const casRetries = 3

// Service initiates checkout sessions and reconciles provider callbacks into
// local payment state.
type Service struct {
	UoW      uow.Factory
	Gateway  Gateway
	Notifier notify.Dispatcher
	Dedupe   notify.DedupeStore
	Currency string
	Logger   *slog.Logger
}

type InitiateParams struct {
	BookingID   domainbooking.BookingID
	UserID      domainuser.ID
	Amount      int64 // minor units; zero means "use the booking total"
	Method      string
	CallbackURL string
	ReturnURL   string
}

type InitiateResult struct {
	Payment     *domainpayments.Payment
	CheckoutURL string
	TxRef       string
	Data        map[string]any
	Message     string
}

// Initiate creates the payment row with a locally generated tx_ref, then asks
// the gateway for a checkout session. The tx_ref exists before the provider
// knows about the transaction so all later callbacks can be correlated.
func (s *Service) Initiate(ctx context.Context, params InitiateParams) (*InitiateResult, error) {
	var (
		payment *domainpayments.Payment
		guest   *domainuser.User
		title   string
		desc    string
	)
	err := uow.Run(ctx, s.UoW, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) error {
		booking, err := unit.Bookings().ByID(ctx, params.BookingID)
		if err != nil {
			return err
		}
		listing, err := unit.Listings().ByID(ctx, booking.ListingID)
		if err != nil {
			return err
		}
		guest, err = unit.Users().ByID(ctx, params.UserID)
		if err != nil {
			return err
		}
		amount := booking.Total
		if params.Amount > 0 {
			amount, err = money.New(params.Amount, s.currency())
			if err != nil {
				return err
			}
		}
		txRef := newTxRef(booking.ID)
		payment, err = domainpayments.NewPayment(domainpayments.CreateParams{
			ID:        domainpayments.PaymentID(uuid.NewString()),
			BookingID: booking.ID,
			UserID:    params.UserID,
			Amount:    amount,
			TxRef:     txRef,
			Method:    params.Method,
			CreatedAt: time.Now(),
		})
		if err != nil {
			return err
		}
		if err := unit.Payments().Save(ctx, payment); err != nil {
			return err
		}
		title = "Booking Payment - " + listing.Name
		desc = fmt.Sprintf("Payment for booking from %s to %s",
			booking.Range.Start.Format("2006-01-02"), booking.Range.End.Format("2006-01-02"))
		return nil
	})
	if err != nil {
		return nil, err
	}

	res, err := s.Gateway.Initialize(ctx, InitializeRequest{
		Amount:      payment.Amount,
		Email:       guest.Email,
		FirstName:   guest.FirstName,
		LastName:    guest.LastName,
		Phone:       guest.Phone,
		TxRef:       payment.TxRef,
		CallbackURL: params.CallbackURL,
		ReturnURL:   params.ReturnURL,
		Title:       title,
		Description: desc,
	})
	if err != nil {
		if s.Logger != nil {
			s.Logger.Error("payment initialization failed", "tx_ref", payment.TxRef, "error", err)
		}
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("payment initialized", "booking_id", payment.BookingID, "tx_ref", payment.TxRef)
	}
	return &InitiateResult{
		Payment:     payment,
		CheckoutURL: res.CheckoutURL,
		TxRef:       payment.TxRef,
		Data:        res.Data,
		Message:     res.Message,
	}, nil
}

type StatusResult struct {
	LocalStatus  domainpayments.Status
	Verification *VerifyResult
}

// Status verifies the transaction with the provider and reports the local
// payment state alongside.
func (s *Service) Status(ctx context.Context, txRef string) (*StatusResult, error) {
	verification, err := s.Gateway.Verify(ctx, txRef)
	if err != nil {
		return nil, err
	}
	var payment *domainpayments.Payment
	err = uow.Run(ctx, s.UoW, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		payment, err = unit.Payments().ByTxRef(ctx, txRef)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &StatusResult{LocalStatus: payment.Status, Verification: verification}, nil
}

type WebhookPayload struct {
	TxRef     string `json:"tx_ref"`
	Status    string `json:"status"`
	Reference string `json:"reference"`
}

type WebhookResult struct {
	TxRef         string
	PaymentStatus domainpayments.Status
	Verification  *VerifyResult
}

// HandleWebhook reconciles a provider callback: the asserted status is
// re-verified against the provider, mapped through the status table and
// applied with a compare-and-set. Terminal transitions dispatch exactly one
// notification even when the provider redelivers the webhook.
func (s *Service) HandleWebhook(ctx context.Context, payload WebhookPayload) (*WebhookResult, error) {
	txRef := strings.TrimSpace(payload.TxRef)
	if txRef == "" || strings.TrimSpace(payload.Status) == "" {
		return nil, ErrMalformedWebhook
	}

	// The asserted status is re-checked with the provider before anything
	// is recorded. Verification trouble is logged and the payload status
	// still drives reconciliation.
	verification, err := s.Gateway.Verify(ctx, txRef)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("webhook verification failed", "tx_ref", txRef, "error", err)
		}
		verification = &VerifyResult{Status: "error", Message: err.Error()}
	}

	var (
		payment *domainpayments.Payment
		mapped  domainpayments.Status
	)
	for attempt := 0; ; attempt++ {
		err = uow.Run(ctx, s.UoW, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) error {
			payment, err = unit.Payments().ByTxRef(ctx, txRef)
			if err != nil {
				return err
			}
			var changed bool
			mapped, changed = payment.ApplyProviderStatus(payload.Status, payload.Reference, time.Now())
			if !changed {
				return nil
			}
			return unit.Payments().Save(ctx, payment)
		})
		if err == nil {
			break
		}
		if errors.Is(err, domainpayments.ErrConcurrentUpdate) && attempt < casRetries {
			continue
		}
		return nil, err
	}

	s.dispatchOnce(ctx, payment, mapped)

	return &WebhookResult{TxRef: txRef, PaymentStatus: mapped, Verification: verification}, nil
}

// dispatchOnce sends the terminal-status email at most once per
// (tx_ref, status), guarding against at-least-once webhook delivery.
func (s *Service) dispatchOnce(ctx context.Context, payment *domainpayments.Payment, status domainpayments.Status) {
	var kind notify.Kind
	switch status {
	case domainpayments.StatusCompleted:
		kind = notify.KindPaymentConfirmation
	case domainpayments.StatusFailed:
		kind = notify.KindPaymentFailed
	default:
		return
	}
	if s.Notifier == nil {
		return
	}
	key := dedupeKey(payment.TxRef, status)
	if s.Dedupe != nil {
		first, err := s.Dedupe.SetIfAbsent(ctx, key)
		if err != nil {
			if s.Logger != nil {
				s.Logger.Error("notification dedupe check failed", "tx_ref", payment.TxRef, "error", err)
			}
			return
		}
		if !first {
			return
		}
	}
	var guest *domainuser.User
	err := uow.Run(ctx, s.UoW, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		var err error
		guest, err = unit.Users().ByID(ctx, payment.UserID)
		return err
	})
	if err != nil || guest == nil {
		// the key must not stay burned when the email never left, or the
		// provider's redelivery would be suppressed for nothing
		s.releaseDedupe(ctx, key)
		if s.Logger != nil {
			s.Logger.Error("notification recipient lookup failed", "tx_ref", payment.TxRef, "error", err)
		}
		return
	}
	job := notify.Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		Recipient: guest.Email,
		Context: map[string]string{
			"guest_name":     guest.FullName(),
			"booking_id":     string(payment.BookingID),
			"amount":         payment.Amount.DecimalString(),
			"currency":       payment.Amount.Currency,
			"transaction_id": payment.ProviderTxID,
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Notifier.Submit(ctx, job); err != nil {
		s.releaseDedupe(ctx, key)
		if s.Logger != nil {
			s.Logger.Error("notification submit failed", "kind", kind, "tx_ref", payment.TxRef, "error", err)
		}
	}
}

func (s *Service) releaseDedupe(ctx context.Context, key string) {
	if s.Dedupe == nil {
		return
	}
	if err := s.Dedupe.Release(ctx, key); err != nil && s.Logger != nil {
		s.Logger.Error("notification dedupe release failed", "key", key, "error", err)
	}
}

func (s *Service) ListByUser(ctx context.Context, userID domainuser.ID) ([]*domainpayments.Payment, error) {
	var result []*domainpayments.Payment
	err := uow.Run(ctx, s.UoW, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		var err error
		result, err = unit.Payments().ListByUser(ctx, userID)
		return err
	})
	return result, err
}

// Get returns a payment only to its owner.
func (s *Service) Get(ctx context.Context, actor domainuser.ID, id domainpayments.PaymentID) (*domainpayments.Payment, error) {
	var result *domainpayments.Payment
	err := uow.Run(ctx, s.UoW, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		payment, err := unit.Payments().ByID(ctx, id)
		if err != nil {
			return err
		}
		if payment.UserID != actor {
			return ErrNotOwner
		}
		result = payment
		return nil
	})
	return result, err
}

func (s *Service) currency() string {
	if s.Currency == "" {
		return "ETB"
	}
	return s.Currency
}

func newTxRef(bookingID domainbooking.BookingID) string {
	return fmt.Sprintf("booking-%s-%s", bookingID, strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func dedupeKey(txRef string, status domainpayments.Status) string {
	return "payment-notify|" + txRef + "|" + string(status)
}
