package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/require"

	"stayhub/internal/app/notify"
)

type recordingSender struct {
	to      string
	subject string
	body    string
	err     error
	calls   int
}

func (s *recordingSender) Send(ctx context.Context, to, subject, body string) error {
	s.calls++
	s.to = to
	s.subject = subject
	s.body = body
	return s.err
}

func TestRenderPaymentConfirmation(t *testing.T) {
	subject, body, err := render(notify.Job{
		Kind: notify.KindPaymentConfirmation,
		Context: map[string]string{
			"guest_name":     "Dawit Abebe",
			"booking_id":     "booking-1",
			"amount":         "400.00",
			"currency":       "ETB",
			"transaction_id": "APq3Rr2WnM",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "Payment Confirmation - Booking #booking-1", subject)
	require.Contains(t, body, "Dear Dawit Abebe,")
	require.Contains(t, body, "Amount paid: ETB 400.00")
	require.Contains(t, body, "Transaction ID: APq3Rr2WnM")
}

func TestRenderUnknownKind(t *testing.T) {
	_, _, err := render(notify.Job{Kind: notify.Kind("listing.liked")})
	require.Error(t, err)
}

func TestHandleSendsEmail(t *testing.T) {
	sender := &recordingSender{}
	handler := Handler{Sender: sender}

	payload, err := json.Marshal(notify.Job{
		ID:        "job-1",
		Kind:      notify.KindBookingConfirmed,
		Recipient: "guest@example.com",
		Context: map[string]string{
			"guest_name": "Dawit Abebe",
			"property":   "Lakeside Cabin",
			"location":   "Bahir Dar",
			"start_date": "2025-12-01",
			"end_date":   "2025-12-05",
			"currency":   "ETB",
			"total":      "400.00",
		},
	})
	require.NoError(t, err)

	err = handler.Handle(context.Background(), &sarama.ConsumerMessage{Topic: "stayhub.notify", Value: payload})
	require.NoError(t, err)
	require.Equal(t, 1, sender.calls)
	require.Equal(t, "guest@example.com", sender.to)
	require.Equal(t, "Booking Confirmed - Lakeside Cabin", sender.subject)
	require.Contains(t, sender.body, "confirmed by the host")
}

func TestHandleAcksMalformedJob(t *testing.T) {
	sender := &recordingSender{}
	handler := Handler{Sender: sender}

	err := handler.Handle(context.Background(), &sarama.ConsumerMessage{Value: []byte("{not json")})
	require.NoError(t, err)
	require.Zero(t, sender.calls)
}

func TestHandleReturnsSendFailureForRedelivery(t *testing.T) {
	sender := &recordingSender{err: errors.New("relay down")}
	handler := Handler{Sender: sender}

	payload, err := json.Marshal(notify.Job{
		ID:        "job-2",
		Kind:      notify.KindPaymentFailed,
		Recipient: "guest@example.com",
		Context:   map[string]string{"guest_name": "Dawit", "booking_id": "b1", "amount": "400.00", "currency": "ETB"},
	})
	require.NoError(t, err)

	err = handler.Handle(context.Background(), &sarama.ConsumerMessage{Value: payload})
	require.Error(t, err)
}
