package bex

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cashflow/bkm-gateway/internal/core"
	"github.com/cashflow/bkm-gateway/internal/port/output"
)

const (
	endpointLogin  = "/merchant/login"
	endpointTicket = "/merchant/ticket?type=payment"
	endpointNonce  = "/merchant/nonce"

	resultOK       = "ok"
	defaultTimeout = 30 * time.Second
)

// ClientConfig configures the gateway client
type ClientConfig struct {
	BaseURL    string
	JsURL      string
	MerchantID string
	PrivateKey *rsa.PrivateKey
	Timeout    time.Duration
}

// Client is a secondary adapter that implements the Gateway output port over HTTP
type Client struct {
	baseURL    string
	jsURL      string
	merchantID string
	privateKey *rsa.PrivateKey
	httpClient *http.Client
}

// NewClient creates a new gateway client
func NewClient(cfg ClientConfig) output.Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		jsURL:      cfg.JsURL,
		merchantID: cfg.MerchantID,
		privateKey: cfg.PrivateKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	Result  string          `json:"result"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type loginRequest struct {
	ID        string `json:"id"`
	Signature string `json:"signature"`
}

type loginData struct {
	Token string `json:"token"`
}

type ticketRequest struct {
	Amount         string `json:"amount"`
	OrderID        string `json:"orderId"`
	CampaignCode   string `json:"campaignCode,omitempty"`
	InstallmentURL string `json:"installmentUrl"`
	NonceURL       string `json:"nonceUrl"`
}

// Login signs the merchant id and exchanges it for a connection token
func (c *Client) Login(ctx context.Context) (string, error) {
	signature, err := signSHA256RSA(c.merchantID, c.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign merchant id: %w", err)
	}

	var data loginData
	if err := c.post(ctx, endpointLogin, "", loginRequest{ID: c.merchantID, Signature: signature}, &data); err != nil {
		return "", err
	}
	if data.Token == "" {
		return "", fmt.Errorf("gateway login returned an empty token")
	}
	return data.Token, nil
}

// OneTimeTicket issues a payment ticket
func (c *Client) OneTimeTicket(ctx context.Context, token string, req core.TicketRequest) (*core.Ticket, error) {
	body := ticketRequest{
		Amount:         req.Amount.WireString(),
		OrderID:        req.OrderID,
		CampaignCode:   req.CampaignCode,
		InstallmentURL: req.InstallmentURL,
		NonceURL:       req.NonceURL,
	}

	var ticket core.Ticket
	if err := c.post(ctx, endpointTicket, token, body, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// SendNonceResponse answers a nonce callback
func (c *Client) SendNonceResponse(ctx context.Context, token string, resp core.NonceResponse) error {
	return c.post(ctx, endpointNonce, token, resp, nil)
}

// BaseJsURL returns the checkout script URL
func (c *Client) BaseJsURL() string {
	return c.jsURL
}

func (c *Client) post(ctx context.Context, endpoint, token string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read gateway response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway request %s returned status %d", endpoint, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}
	if env.Result != resultOK {
		return fmt.Errorf("gateway request %s rejected: %s", endpoint, env.Message)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode gateway data: %w", err)
		}
	}
	return nil
}
