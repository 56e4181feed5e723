package output

import (
	"context"

	"github.com/cashflow/bkm-gateway/internal/core"
)

// Gateway is an output port for the payment gateway's merchant service
type Gateway interface {
	// Login returns a connection token for subsequent calls
	Login(ctx context.Context) (string, error)

	// OneTimeTicket issues a payment ticket
	OneTimeTicket(ctx context.Context, token string, req core.TicketRequest) (*core.Ticket, error)

	// SendNonceResponse answers a nonce callback
	SendNonceResponse(ctx context.Context, token string, resp core.NonceResponse) error

	// BaseJsURL returns the checkout script URL for the configured environment
	BaseJsURL() string
}
