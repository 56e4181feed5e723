package output

import (
	"github.com/cashflow/bkm-gateway/internal/core"
)

// NonceReceiptRepository is an output port for nonce receipt persistence
type NonceReceiptRepository interface {
	// Claim marks the nonce's ticket as processing, creating the receipt if needed.
	// Returns core.ErrNonceAlreadyProcessed if the ticket was already answered and
	// core.ErrNonceInProgress while another worker holds an unexpired claim.
	Claim(nonce core.Nonce) (*core.NonceReceipt, error)

	// Release hands a processing receipt back to pending so a redelivery can claim it
	Release(ticketID string) error

	// Complete atomically moves a pending receipt to a terminal status
	// Uses SELECT FOR UPDATE to prevent concurrent completion
	Complete(ticketID string, status core.NonceStatus, message string) error
}
