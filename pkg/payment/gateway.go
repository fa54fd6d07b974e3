package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/carelink/telehealth-api/pkg/circuitbreaker"
)

// Gateway initiates payment transactions and returns the redirect URL the
// client must open to complete payment.
type Gateway interface {
	InitializeTransaction(ctx context.Context, req *InitializeRequest) (*InitializeResponse, error)
}

type InitializeRequest struct {
	Email     string `json:"email"`
	Amount    string `json:"amount"`
	Reference string `json:"reference"`
	Currency  string `json:"currency,omitempty"`
}

type InitializeResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type Config struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

type httpGateway struct {
	cfg    Config
	client *http.Client
	cb     *circuitbreaker.CircuitBreaker
}

func NewHTTPGateway(cfg Config) Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &httpGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "payment-gateway",
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		}),
	}
}

type initializeEnvelope struct {
	Status  bool               `json:"status"`
	Message string             `json:"message"`
	Data    InitializeResponse `json:"data"`
}

func (g *httpGateway) InitializeTransaction(ctx context.Context, req *InitializeRequest) (*InitializeResponse, error) {
	var out *InitializeResponse

	err := g.cb.Execute(func() error {
		body, err := json.Marshal(req)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/transaction/initialize", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+g.cfg.SecretKey)
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := g.client.Do(httpReq)
		if err != nil {
			return fmt.Errorf("failed to call payment gateway: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("payment gateway returned status %d", resp.StatusCode)
		}

		var envelope initializeEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return fmt.Errorf("failed to decode gateway response: %w", err)
		}
		if !envelope.Status {
			return fmt.Errorf("payment gateway rejected transaction: %s", envelope.Message)
		}
		if envelope.Data.AuthorizationURL == "" {
			return fmt.Errorf("payment gateway returned no authorization URL")
		}

		out = &envelope.Data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
