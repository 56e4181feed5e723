package core

import (
	"time"

	"github.com/google/uuid"
)

// NonceStatus represents how a gateway nonce was answered
type NonceStatus string

const (
	NonceStatusPending    NonceStatus = "PENDING"
	NonceStatusProcessing NonceStatus = "PROCESSING"
	NonceStatusConfirmed  NonceStatus = "CONFIRMED"
	NonceStatusRejected   NonceStatus = "REJECTED"
)

// TicketRequest describes a one-time payment ticket to be issued by the gateway
type TicketRequest struct {
	OrderID        string
	Amount         Amount
	CampaignCode   string
	InstallmentURL string
	NonceURL       string
}

// Ticket is the one-time ticket returned by the gateway
type Ticket struct {
	ID    string `json:"id"`
	Path  string `json:"path"`
	Token string `json:"token"`
}

// Nonce is the gateway callback asking the merchant to confirm a checkout
type Nonce struct {
	TicketID  string
	Path      string
	Token     string
	OrderID   string
	Signature string
}

// NonceResponse is the merchant's answer to a nonce
type NonceResponse struct {
	ID      string `json:"id"`
	Nonce   string `json:"nonce"`
	Result  bool   `json:"result"`
	Message string `json:"message,omitempty"`
}

// NonceReceipt records how a ticket's nonce was handled
type NonceReceipt struct {
	ID        uuid.UUID
	TicketID  string
	OrderID   string
	Path      string
	Status    NonceStatus
	Message   string
	ClaimedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
