package input

import (
	"context"

	"github.com/cashflow/bkm-gateway/internal/core"
)

// CheckoutService is an input port for ticket issuance and nonce intake
type CheckoutService interface {
	// InitTicket issues a one-time payment ticket at the gateway
	InitTicket(ctx context.Context, req InitTicketRequest) (*core.Ticket, error)

	// ReceiveNonce queues a nonce for asynchronous confirmation
	ReceiveNonce(nonce core.Nonce) error

	// BexJsURL returns the gateway's checkout script URL
	BexJsURL() string
}

// InitTicketRequest represents the merchant's request for a ticket
type InitTicketRequest struct {
	OrderID      string
	Amount       string
	CampaignCode string
}
