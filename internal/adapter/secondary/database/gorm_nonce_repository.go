package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/cashflow/bkm-gateway/internal/constant/model/db"
	"github.com/cashflow/bkm-gateway/internal/core"
	"github.com/cashflow/bkm-gateway/internal/port/output"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClaimLease is how long a worker owns a processing receipt before another worker may take it over
const ClaimLease = 2 * time.Minute

// GormNonceReceiptRepository is a secondary adapter that implements NonceReceiptRepository output port
type GormNonceReceiptRepository struct {
	gormDB *gorm.DB
	lease  time.Duration
	now    func() time.Time
}

// NewGormNonceReceiptRepository creates a new GORM nonce receipt repository
func NewGormNonceReceiptRepository(gormDB *gorm.DB) output.NonceReceiptRepository {
	return &GormNonceReceiptRepository{gormDB: gormDB, lease: ClaimLease, now: time.Now}
}

// toCore converts db.NonceReceipt to core.NonceReceipt
func toCore(r *db.NonceReceipt) *core.NonceReceipt {
	return &core.NonceReceipt{
		ID:        r.ID,
		TicketID:  r.TicketID,
		OrderID:   r.OrderID,
		Path:      r.Path,
		Status:    core.NonceStatus(r.Status),
		Message:   r.Message,
		ClaimedAt: r.ClaimedAt,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// claimDecision reports whether a locked receipt may be claimed at now.
// A processing receipt whose lease ran out belongs to a worker that died mid-flight.
func claimDecision(r *db.NonceReceipt, now time.Time, lease time.Duration) error {
	switch {
	case r.IsTerminal():
		return fmt.Errorf("%w: ticket %s is %s", core.ErrNonceAlreadyProcessed, r.TicketID, r.Status)
	case r.Status == db.NonceStatusProcessing && r.ClaimedAt != nil && now.Before(r.ClaimedAt.Add(lease)):
		return fmt.Errorf("%w: ticket %s claimed at %s", core.ErrNonceInProgress, r.TicketID, r.ClaimedAt.Format(time.RFC3339))
	}
	return nil
}

// Claim inserts a pending receipt for the ticket unless one exists, locks it and marks it processing
func (r *GormNonceReceiptRepository) Claim(nonce core.Nonce) (*core.NonceReceipt, error) {
	var claimed *core.NonceReceipt
	err := r.gormDB.Transaction(func(tx *gorm.DB) error {
		pending := db.NonceReceipt{
			TicketID: nonce.TicketID,
			OrderID:  nonce.OrderID,
			Path:     nonce.Path,
			Status:   db.NonceStatusPending,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "ticket_id"}},
			DoNothing: true,
		}).Create(&pending).Error; err != nil {
			return fmt.Errorf("failed to create nonce receipt: %w", err)
		}

		var dbReceipt db.NonceReceipt
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("ticket_id = ?", nonce.TicketID).
			First(&dbReceipt).Error; err != nil {
			return fmt.Errorf("failed to lock nonce receipt: %w", err)
		}

		now := r.now()
		if err := claimDecision(&dbReceipt, now, r.lease); err != nil {
			return err
		}

		dbReceipt.Status = db.NonceStatusProcessing
		dbReceipt.ClaimedAt = &now
		if err := tx.Save(&dbReceipt).Error; err != nil {
			return fmt.Errorf("failed to mark nonce receipt processing: %w", err)
		}
		claimed = toCore(&dbReceipt)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// Release moves a processing receipt back to PENDING so the next delivery can claim it at once
func (r *GormNonceReceiptRepository) Release(ticketID string) error {
	result := r.gormDB.Model(&db.NonceReceipt{}).
		Where("ticket_id = ? AND status = ?", ticketID, db.NonceStatusProcessing).
		Updates(map[string]interface{}{
			"status":     db.NonceStatusPending,
			"claimed_at": nil,
			"updated_at": r.now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to release nonce receipt: %w", result.Error)
	}
	return nil
}

// Complete atomically answers a receipt that is not yet terminal
// Uses SELECT FOR UPDATE to prevent concurrent completion
func (r *GormNonceReceiptRepository) Complete(ticketID string, status core.NonceStatus, message string) error {
	return r.gormDB.Transaction(func(tx *gorm.DB) error {
		var dbReceipt db.NonceReceipt

		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("ticket_id = ?", ticketID).
			First(&dbReceipt).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("nonce receipt not found for ticket %s", ticketID)
			}
			return fmt.Errorf("failed to lock nonce receipt: %w", err)
		}

		if dbReceipt.IsTerminal() {
			return fmt.Errorf("%w: ticket %s is %s", core.ErrNonceAlreadyProcessed, ticketID, dbReceipt.Status)
		}

		dbReceipt.Status = db.NonceStatus(status)
		dbReceipt.Message = message
		dbReceipt.ClaimedAt = nil

		if err := tx.Save(&dbReceipt).Error; err != nil {
			return fmt.Errorf("failed to update nonce receipt: %w", err)
		}
		return nil
	})
}
