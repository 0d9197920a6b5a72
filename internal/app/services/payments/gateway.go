package payments

import (
	"context"
	"errors"
	"fmt"

	"stayhub/internal/domain/shared/money"
)

// ErrGateway wraps every transport, timeout and non-2xx failure from the
// payment provider; callers map it to an upstream-failure response.
var ErrGateway = errors.New("payments: gateway error")

// GatewayError carries the provider-facing failure detail. The detail is for
// server-side logs only; handlers return a safe generic message.
type GatewayError struct {
	Op     string
	Detail string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payments: gateway %s failed: %s", e.Op, e.Detail)
}

func (e *GatewayError) Unwrap() error { return ErrGateway }

// InitializeRequest is the provider-agnostic payment-intent: amount, payer
// identity, the locally generated tx_ref and the redirect URLs.
type InitializeRequest struct {
	Amount      money.Money
	Email       string
	FirstName   string
	LastName    string
	Phone       string
	TxRef       string
	CallbackURL string
	ReturnURL   string
	Title       string
	Description string
}

// InitializeResult carries the checkout redirect target plus the raw provider
// payload for the API response.
type InitializeResult struct {
	CheckoutURL string
	Message     string
	Data        map[string]any
}

// VerifyResult is the provider's view of a transaction queried by tx_ref.
type VerifyResult struct {
	Status    string
	Reference string
	Message   string
	Data      map[string]any
}

// Gateway abstracts the external payment provider. Implementations perform a
// single bounded-timeout attempt per call and surface failures as
// *GatewayError rather than panicking.
type Gateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error)
	Verify(ctx context.Context, txRef string) (*VerifyResult, error)
}
