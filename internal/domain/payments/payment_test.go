package payments

import (
	"testing"
	"time"

	"stayhub/internal/domain/shared/money"
)

func TestMapProviderStatus(t *testing.T) {
	tests := []struct {
		provider string
		want     Status
	}{
		{"success", StatusCompleted},
		{"SUCCESS", StatusCompleted},
		{" success ", StatusCompleted},
		{"failed", StatusFailed},
		{"failed/cancelled", StatusFailed},
		{"refunded", StatusRefunded},
		{"reversed", StatusReversed},
		{"processing", StatusPending},
		{"", StatusPending},
		{"anything-else", StatusPending},
	}
	for _, tc := range tests {
		if got := MapProviderStatus(tc.provider); got != tc.want {
			t.Errorf("MapProviderStatus(%q) = %s, want %s", tc.provider, got, tc.want)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusFailed, StatusRefunded, StatusReversed} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	if StatusPending.Terminal() {
		t.Error("pending should not be terminal")
	}
}

func newTestPayment(t *testing.T) *Payment {
	t.Helper()
	p, err := NewPayment(CreateParams{
		ID:        "pay-1",
		BookingID: "booking-1",
		UserID:    "guest-1",
		Amount:    money.Must(40000, "ETB"),
		TxRef:     "booking-booking-1-abcd1234",
	})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestApplyProviderStatus(t *testing.T) {
	p := newTestPayment(t)
	now := time.Now()

	status, changed := p.ApplyProviderStatus("success", "ref-1", now)
	if status != StatusCompleted || !changed {
		t.Fatalf("first apply = (%s, %v), want (completed, true)", status, changed)
	}
	if p.ProviderTxID != "ref-1" {
		t.Fatalf("provider tx id = %q, want ref-1", p.ProviderTxID)
	}

	// replay with the same payload changes nothing
	status, changed = p.ApplyProviderStatus("success", "ref-1", now.Add(time.Minute))
	if status != StatusCompleted || changed {
		t.Fatalf("replay = (%s, %v), want (completed, false)", status, changed)
	}

	// a later different status is still applied
	status, changed = p.ApplyProviderStatus("refunded", "ref-1", now.Add(2*time.Minute))
	if status != StatusRefunded || !changed {
		t.Fatalf("refund apply = (%s, %v), want (refunded, true)", status, changed)
	}
}

func TestNewPaymentValidation(t *testing.T) {
	if _, err := NewPayment(CreateParams{BookingID: "b", Amount: money.Must(1, "ETB"), TxRef: "t"}); err != nil {
		t.Fatalf("valid payment rejected: %v", err)
	}
	if _, err := NewPayment(CreateParams{Amount: money.Must(1, "ETB"), TxRef: "t"}); err != ErrBookingRequired {
		t.Errorf("missing booking: err = %v, want %v", err, ErrBookingRequired)
	}
	if _, err := NewPayment(CreateParams{BookingID: "b", TxRef: "t"}); err != ErrInvalidAmount {
		t.Errorf("zero amount: err = %v, want %v", err, ErrInvalidAmount)
	}
	if _, err := NewPayment(CreateParams{BookingID: "b", Amount: money.Must(1, "ETB")}); err != ErrTxRefRequired {
		t.Errorf("missing tx_ref: err = %v, want %v", err, ErrTxRefRequired)
	}
}
