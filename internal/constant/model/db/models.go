package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NonceStatus represents how a gateway nonce was answered
type NonceStatus string

const (
	NonceStatusPending    NonceStatus = "PENDING"
	NonceStatusProcessing NonceStatus = "PROCESSING"
	NonceStatusConfirmed  NonceStatus = "CONFIRMED"
	NonceStatusRejected   NonceStatus = "REJECTED"
)

// NonceReceipt records a gateway nonce in the database
type NonceReceipt struct {
	ID        uuid.UUID   `gorm:"type:uuid;primary_key" json:"id"`
	TicketID  string      `gorm:"type:varchar(255);not null;uniqueIndex" json:"ticket_id"`
	OrderID   string      `gorm:"type:varchar(255);index" json:"order_id"`
	Path      string      `gorm:"type:varchar(512)" json:"path"`
	Status    NonceStatus `gorm:"type:varchar(20);not null" json:"status"`
	Message   string      `gorm:"type:varchar(255)" json:"message"`
	ClaimedAt *time.Time  `json:"claimed_at,omitempty"`
	CreatedAt time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (NonceReceipt) TableName() string {
	return "nonce_receipts"
}

// BeforeCreate is a GORM hook that runs before creating a record
func (r *NonceReceipt) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	now := time.Now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = now
	}
	return nil
}

// BeforeUpdate is a GORM hook that runs before updating a record
func (r *NonceReceipt) BeforeUpdate(tx *gorm.DB) error {
	r.UpdatedAt = time.Now()
	return nil
}

// IsTerminal checks if the nonce was already answered
func (r *NonceReceipt) IsTerminal() bool {
	return r.Status == NonceStatusConfirmed || r.Status == NonceStatusRejected
}
