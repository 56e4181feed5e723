package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cashflow/bkm-gateway/internal/core"
	"github.com/cashflow/bkm-gateway/internal/port/input"
	"github.com/cashflow/bkm-gateway/internal/port/output"
)

// CallbackURLs are the merchant endpoints the gateway calls during checkout
type CallbackURLs struct {
	InstallmentURL string
	NonceURL       string
}

// CheckoutServiceImpl implements the CheckoutService input port
type CheckoutServiceImpl struct {
	gateway   output.Gateway
	nonceMsg  output.NonceMessaging
	callbacks CallbackURLs
	logger    *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	gateway output.Gateway,
	nonceMsg output.NonceMessaging,
	callbacks CallbackURLs,
	logger *zap.Logger,
) input.CheckoutService {
	return &CheckoutServiceImpl{
		gateway:   gateway,
		nonceMsg:  nonceMsg,
		callbacks: callbacks,
		logger:    logger,
	}
}

// InitTicket issues a one-time ticket for an order
func (s *CheckoutServiceImpl) InitTicket(ctx context.Context, req input.InitTicketRequest) (*core.Ticket, error) {
	req.OrderID = strings.TrimSpace(req.OrderID)
	if req.OrderID == "" {
		return nil, fmt.Errorf("%w: order id is required", core.ErrInvalidRequest)
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be greater than zero", core.ErrMalformedAmount)
	}

	token, err := s.gateway.Login(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to login to gateway: %w", err)
	}

	ticket, err := s.gateway.OneTimeTicket(ctx, token, core.TicketRequest{
		OrderID:        req.OrderID,
		Amount:         amount,
		CampaignCode:   req.CampaignCode,
		InstallmentURL: s.callbacks.InstallmentURL,
		NonceURL:       s.callbacks.NonceURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	s.logger.Info("ticket created",
		zap.String("order_id", req.OrderID),
		zap.String("ticket_id", ticket.ID),
		zap.String("amount", amount.String()),
	)
	return ticket, nil
}

// ReceiveNonce validates a nonce callback and queues it for the worker
func (s *CheckoutServiceImpl) ReceiveNonce(nonce core.Nonce) error {
	if nonce.TicketID == "" || nonce.Path == "" || nonce.Token == "" {
		return fmt.Errorf("%w: ticketId, path and token are required", core.ErrInvalidRequest)
	}

	if err := s.nonceMsg.PublishNonce(nonce); err != nil {
		return fmt.Errorf("failed to queue nonce: %w", err)
	}
	return nil
}

// BexJsURL returns the gateway's checkout script URL
func (s *CheckoutServiceImpl) BexJsURL() string {
	return s.gateway.BaseJsURL()
}
