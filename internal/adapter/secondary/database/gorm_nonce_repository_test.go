package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cashflow/bkm-gateway/internal/constant/model/db"
	"github.com/cashflow/bkm-gateway/internal/core"
)

func TestClaimDecision(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-30 * time.Second)
	stale := now.Add(-ClaimLease - time.Second)

	tests := []struct {
		name    string
		receipt db.NonceReceipt
		wantErr error
	}{
		{name: "fresh pending row", receipt: db.NonceReceipt{TicketID: "t1", Status: db.NonceStatusPending}},
		{name: "held by another worker", receipt: db.NonceReceipt{TicketID: "t1", Status: db.NonceStatusProcessing, ClaimedAt: &recent}, wantErr: core.ErrNonceInProgress},
		{name: "lease expired", receipt: db.NonceReceipt{TicketID: "t1", Status: db.NonceStatusProcessing, ClaimedAt: &stale}},
		{name: "processing without claim time", receipt: db.NonceReceipt{TicketID: "t1", Status: db.NonceStatusProcessing}},
		{name: "confirmed", receipt: db.NonceReceipt{TicketID: "t1", Status: db.NonceStatusConfirmed}, wantErr: core.ErrNonceAlreadyProcessed},
		{name: "rejected", receipt: db.NonceReceipt{TicketID: "t1", Status: db.NonceStatusRejected}, wantErr: core.ErrNonceAlreadyProcessed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := claimDecision(&tt.receipt, now, ClaimLease)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClaimDecisionLeaseBoundary(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	claimedAt := now.Add(-ClaimLease)
	receipt := db.NonceReceipt{TicketID: "t1", Status: db.NonceStatusProcessing, ClaimedAt: &claimedAt}

	assert.NoError(t, claimDecision(&receipt, now, ClaimLease))
	assert.ErrorIs(t, claimDecision(&receipt, now.Add(-time.Nanosecond), ClaimLease), core.ErrNonceInProgress)
}
