package chapa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stayhub/internal/app/services/payments"
)

const defaultTimeout = 30 * time.Second

// Config carries the provider credentials and endpoint; injected at
// construction so nothing reads process-wide state.
type Config struct {
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
}

// Client talks to the Chapa transaction API. Each call is a single attempt
// bounded by the configured timeout; retry policy belongs to the caller.
type Client struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.chapa.co/v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type initializeBody struct {
	Amount        string            `json:"amount"`
	Currency      string            `json:"currency"`
	Email         string            `json:"email"`
	FirstName     string            `json:"first_name"`
	LastName      string            `json:"last_name"`
	PhoneNumber   string            `json:"phone_number"`
	TxRef         string            `json:"tx_ref"`
	CallbackURL   string            `json:"callback_url"`
	ReturnURL     string            `json:"return_url"`
	Customization map[string]string `json:"customization,omitempty"`
}

type apiEnvelope struct {
	Message string         `json:"message"`
	Status  string         `json:"status"`
	Data    map[string]any `json:"data"`
}

// Initialize creates a checkout session for the given payment intent.
func (c *Client) Initialize(ctx context.Context, req payments.InitializeRequest) (*payments.InitializeResult, error) {
	body := initializeBody{
		Amount:      req.Amount.DecimalString(),
		Currency:    req.Amount.Currency,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.Phone,
		TxRef:       req.TxRef,
		CallbackURL: req.CallbackURL,
		ReturnURL:   req.ReturnURL,
		Customization: map[string]string{
			"title":       req.Title,
			"description": req.Description,
		},
	}
	var envelope apiEnvelope
	if err := c.post(ctx, "/transaction/initialize", body, &envelope); err != nil {
		c.logError("initialize", req.TxRef, err)
		return nil, &payments.GatewayError{Op: "initialize", Detail: err.Error()}
	}
	checkout, _ := envelope.Data["checkout_url"].(string)
	c.logInfo("payment initialized", req.TxRef)
	return &payments.InitializeResult{
		CheckoutURL: checkout,
		Message:     envelope.Message,
		Data:        envelope.Data,
	}, nil
}

// Verify queries the provider for the current state of a transaction by its
// locally assigned reference.
func (c *Client) Verify(ctx context.Context, txRef string) (*payments.VerifyResult, error) {
	var envelope apiEnvelope
	if err := c.get(ctx, "/transaction/verify/"+url.PathEscape(txRef), &envelope); err != nil {
		c.logError("verify", txRef, err)
		return nil, &payments.GatewayError{Op: "verify", Detail: err.Error()}
	}
	status, _ := envelope.Data["status"].(string)
	reference, _ := envelope.Data["reference"].(string)
	return &payments.VerifyResult{
		Status:    status,
		Reference: reference,
		Message:   envelope.Message,
		Data:      envelope.Data,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out *apiEnvelope) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	return c.do(request, out)
}

func (c *Client) get(ctx context.Context, path string, out *apiEnvelope) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(request, out)
}

func (c *Client) do(request *http.Request, out *apiEnvelope) error {
	request.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)

	resp, err := c.client.Do(request)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("chapa returned status %d: %s", resp.StatusCode, string(snippet))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("chapa response decode failed: %w", err)
	}
	return nil
}

func (c *Client) logError(op, txRef string, err error) {
	if c.logger == nil {
		return
	}
	c.logger.Error("chapa "+op+" failed", "tx_ref", txRef, "error", err)
}

func (c *Client) logInfo(msg, txRef string) {
	if c.logger == nil {
		return
	}
	c.logger.Info(msg, "tx_ref", txRef)
}

var _ payments.Gateway = (*Client)(nil)
