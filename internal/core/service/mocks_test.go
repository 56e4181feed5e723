package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cashflow/bkm-gateway/internal/core"
)

// stubEncryptor is deterministic: the ciphertext is the config's JSON behind a prefix
type stubEncryptor struct {
	calls int
	err   error
}

func (e *stubEncryptor) Encrypt(config core.BankConfig) (string, error) {
	e.calls++
	if e.err != nil {
		return "", e.err
	}
	raw, err := json.Marshal(config)
	if err != nil {
		return "", err
	}
	return "enc:" + string(raw), nil
}

type stubVerifier struct {
	valid map[string]string
}

func (v stubVerifier) Verify(identifier, signature string) bool {
	want, ok := v.valid[identifier]
	return ok && want == signature
}

type fakeGateway struct {
	mu            sync.Mutex
	loginErr      error
	ticketErr     error
	nonceErr      error
	tickets       []core.TicketRequest
	nonceReplies  []core.NonceResponse
	tokensOnNonce []string
}

func (g *fakeGateway) Login(ctx context.Context) (string, error) {
	if g.loginErr != nil {
		return "", g.loginErr
	}
	return "conn-token", nil
}

func (g *fakeGateway) OneTimeTicket(ctx context.Context, token string, req core.TicketRequest) (*core.Ticket, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ticketErr != nil {
		return nil, g.ticketErr
	}
	g.tickets = append(g.tickets, req)
	return &core.Ticket{ID: "ticket-1", Path: "/path/1", Token: token}, nil
}

func (g *fakeGateway) SendNonceResponse(ctx context.Context, token string, resp core.NonceResponse) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.nonceErr != nil {
		return g.nonceErr
	}
	g.nonceReplies = append(g.nonceReplies, resp)
	g.tokensOnNonce = append(g.tokensOnNonce, token)
	return nil
}

func (g *fakeGateway) BaseJsURL() string {
	return "https://js.example/bex.js"
}

type fakeMessaging struct {
	published []core.Nonce
	err       error
}

func (m *fakeMessaging) PublishNonce(nonce core.Nonce) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, nonce)
	return nil
}

func (m *fakeMessaging) Close() error { return nil }

type memReceipts struct {
	byTicket map[string]*core.NonceReceipt
	released []string
}

func newMemReceipts() *memReceipts {
	return &memReceipts{byTicket: make(map[string]*core.NonceReceipt)}
}

func answered(receipt *core.NonceReceipt) bool {
	return receipt.Status == core.NonceStatusConfirmed || receipt.Status == core.NonceStatusRejected
}

func (r *memReceipts) Claim(nonce core.Nonce) (*core.NonceReceipt, error) {
	receipt, ok := r.byTicket[nonce.TicketID]
	if !ok {
		receipt = &core.NonceReceipt{ID: uuid.New(), TicketID: nonce.TicketID, OrderID: nonce.OrderID, Path: nonce.Path, Status: core.NonceStatusPending}
		r.byTicket[nonce.TicketID] = receipt
	}
	switch {
	case answered(receipt):
		return nil, core.ErrNonceAlreadyProcessed
	case receipt.Status == core.NonceStatusProcessing:
		return nil, core.ErrNonceInProgress
	}
	now := time.Now()
	receipt.Status = core.NonceStatusProcessing
	receipt.ClaimedAt = &now
	return receipt, nil
}

func (r *memReceipts) Release(ticketID string) error {
	receipt, ok := r.byTicket[ticketID]
	if !ok {
		return errors.New("nonce receipt not found")
	}
	r.released = append(r.released, ticketID)
	if receipt.Status == core.NonceStatusProcessing {
		receipt.Status = core.NonceStatusPending
		receipt.ClaimedAt = nil
	}
	return nil
}

func (r *memReceipts) Complete(ticketID string, status core.NonceStatus, message string) error {
	receipt, ok := r.byTicket[ticketID]
	if !ok {
		return errors.New("nonce receipt not found")
	}
	if answered(receipt) {
		return core.ErrNonceAlreadyProcessed
	}
	receipt.Status = status
	receipt.Message = message
	receipt.ClaimedAt = nil
	return nil
}
