package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cashflow/bkm-gateway/internal/core"
	"github.com/cashflow/bkm-gateway/internal/core/service"
	"github.com/cashflow/bkm-gateway/internal/port/input"
)

var testCallbacks = service.CallbackURLs{
	InstallmentURL: "https://merchant.example/bkm/installments",
	NonceURL:       "https://merchant.example/bkm/nonce",
}

func TestInitTicket(t *testing.T) {
	gateway := &fakeGateway{}
	svc := service.NewCheckoutService(gateway, &fakeMessaging{}, testCallbacks, zap.NewNop())

	ticket, err := svc.InitTicket(context.Background(), input.InitTicketRequest{
		OrderID: "123456", Amount: "5000,13", CampaignCode: "my campaign",
	})
	require.NoError(t, err)
	assert.Equal(t, "ticket-1", ticket.ID)
	assert.Equal(t, "conn-token", ticket.Token)

	require.Len(t, gateway.tickets, 1)
	sent := gateway.tickets[0]
	assert.Equal(t, "123456", sent.OrderID)
	assert.Equal(t, core.Amount(500013), sent.Amount)
	assert.Equal(t, "my campaign", sent.CampaignCode)
	assert.Equal(t, testCallbacks.InstallmentURL, sent.InstallmentURL)
	assert.Equal(t, testCallbacks.NonceURL, sent.NonceURL)
}

func TestInitTicketValidation(t *testing.T) {
	svc := service.NewCheckoutService(&fakeGateway{}, &fakeMessaging{}, testCallbacks, zap.NewNop())

	_, err := svc.InitTicket(context.Background(), input.InitTicketRequest{Amount: "10,00"})
	assert.ErrorIs(t, err, core.ErrInvalidRequest)

	_, err = svc.InitTicket(context.Background(), input.InitTicketRequest{OrderID: "1", Amount: "x"})
	assert.ErrorIs(t, err, core.ErrMalformedAmount)

	_, err = svc.InitTicket(context.Background(), input.InitTicketRequest{OrderID: "1", Amount: "0,00"})
	assert.ErrorIs(t, err, core.ErrMalformedAmount)
}

func TestInitTicketGatewayFailure(t *testing.T) {
	loginFails := service.NewCheckoutService(&fakeGateway{loginErr: errors.New("down")}, &fakeMessaging{}, testCallbacks, zap.NewNop())
	_, err := loginFails.InitTicket(context.Background(), input.InitTicketRequest{OrderID: "1", Amount: "10,00"})
	assert.Error(t, err)

	ticketFails := service.NewCheckoutService(&fakeGateway{ticketErr: errors.New("rejected")}, &fakeMessaging{}, testCallbacks, zap.NewNop())
	_, err = ticketFails.InitTicket(context.Background(), input.InitTicketRequest{OrderID: "1", Amount: "10,00"})
	assert.Error(t, err)
}

func TestReceiveNonce(t *testing.T) {
	msg := &fakeMessaging{}
	svc := service.NewCheckoutService(&fakeGateway{}, msg, testCallbacks, zap.NewNop())

	nonce := core.Nonce{TicketID: "t1", Path: "/p", Token: "n1", OrderID: "o1", Signature: "s"}
	require.NoError(t, svc.ReceiveNonce(nonce))
	require.Len(t, msg.published, 1)
	assert.Equal(t, nonce, msg.published[0])

	assert.ErrorIs(t, svc.ReceiveNonce(core.Nonce{Path: "/p", Token: "n1"}), core.ErrInvalidRequest)
	assert.Len(t, msg.published, 1)

	failing := service.NewCheckoutService(&fakeGateway{}, &fakeMessaging{err: errors.New("closed")}, testCallbacks, zap.NewNop())
	assert.Error(t, failing.ReceiveNonce(nonce))
}

func TestBexJsURL(t *testing.T) {
	svc := service.NewCheckoutService(&fakeGateway{}, &fakeMessaging{}, testCallbacks, zap.NewNop())
	assert.Equal(t, "https://js.example/bex.js", svc.BexJsURL())
}
