package chapa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"stayhub/internal/app/services/payments"
	"stayhub/internal/domain/shared/money"
)

func TestInitialize(t *testing.T) {
	var got initializeBody
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/transaction/initialize", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(map[string]any{
			"message": "Hosted Link",
			"status":  "success",
			"data": map[string]any{
				"checkout_url": "https://checkout.chapa.co/checkout/payment/abc123",
			},
		})
	}))
	defer server.Close()

	client := NewClient(Config{SecretKey: "sk-test", BaseURL: server.URL}, nil)
	result, err := client.Initialize(context.Background(), payments.InitializeRequest{
		Amount:      money.Must(35050, "ETB"),
		Email:       "guest@example.com",
		FirstName:   "Dawit",
		LastName:    "Abebe",
		Phone:       "0911000000",
		TxRef:       "booking-b1-deadbeef",
		CallbackURL: "https://api.test/api/v1/payments/webhook",
		ReturnURL:   "https://app.test/done",
		Title:       "Booking Payment - Lakeside Cabin",
	})
	require.NoError(t, err)

	require.Equal(t, "350.50", got.Amount)
	require.Equal(t, "ETB", got.Currency)
	require.Equal(t, "booking-b1-deadbeef", got.TxRef)
	require.Equal(t, "https://api.test/api/v1/payments/webhook", got.CallbackURL)
	require.Equal(t, "Booking Payment - Lakeside Cabin", got.Customization["title"])

	require.Equal(t, "https://checkout.chapa.co/checkout/payment/abc123", result.CheckoutURL)
	require.Equal(t, "Hosted Link", result.Message)
}

func TestVerify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/transaction/verify/booking-b1-deadbeef", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]any{
			"message": "Payment details",
			"status":  "success",
			"data": map[string]any{
				"status":    "success",
				"reference": "APq3Rr2WnM",
			},
		})
	}))
	defer server.Close()

	client := NewClient(Config{SecretKey: "sk-test", BaseURL: server.URL}, nil)
	result, err := client.Verify(context.Background(), "booking-b1-deadbeef")
	require.NoError(t, err)
	require.Equal(t, "success", result.Status)
	require.Equal(t, "APq3Rr2WnM", result.Reference)
}

func TestErrorStatusWrapsGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Invalid API Key","status":"failed"}`))
	}))
	defer server.Close()

	client := NewClient(Config{SecretKey: "bad", BaseURL: server.URL}, nil)

	_, err := client.Verify(context.Background(), "booking-b1-deadbeef")
	require.ErrorIs(t, err, payments.ErrGateway)
	var gatewayErr *payments.GatewayError
	require.ErrorAs(t, err, &gatewayErr)
	require.Equal(t, "verify", gatewayErr.Op)

	_, err = client.Initialize(context.Background(), payments.InitializeRequest{
		Amount: money.Must(1000, "ETB"),
		TxRef:  "booking-b1-deadbeef",
	})
	require.ErrorIs(t, err, payments.ErrGateway)
}

func TestBaseURLDefaultsAndTrim(t *testing.T) {
	client := NewClient(Config{SecretKey: "sk-test"}, nil)
	require.Equal(t, "https://api.chapa.co/v1", client.cfg.BaseURL)

	client = NewClient(Config{SecretKey: "sk-test", BaseURL: "https://example.test/v1/"}, nil)
	require.Equal(t, "https://example.test/v1", client.cfg.BaseURL)
}
