package input

import (
	"github.com/cashflow/bkm-gateway/internal/core"
)

// InstallmentService is an input port for the gateway's installment callback
type InstallmentService interface {
	// Installments verifies the request signature and computes the offers
	Installments(req InstallmentRequest) (core.InstallmentOffer, error)
}

// InstallmentRequest is the installment query sent by the gateway
type InstallmentRequest struct {
	Pairs       []core.BinBankPair
	TicketID    string
	TotalAmount string
	Signature   string
}
