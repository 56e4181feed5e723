package service

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cashflow/bkm-gateway/internal/core"
	"github.com/cashflow/bkm-gateway/internal/port/input"
	"github.com/cashflow/bkm-gateway/internal/port/output"
)

// InstallmentServiceImpl implements the InstallmentService input port
type InstallmentServiceImpl struct {
	verifier output.SignatureVerifier
	planner  *InstallmentPlanner
	logger   *zap.Logger
}

// NewInstallmentService creates a new installment service
func NewInstallmentService(
	verifier output.SignatureVerifier,
	planner *InstallmentPlanner,
	logger *zap.Logger,
) input.InstallmentService {
	return &InstallmentServiceImpl{
		verifier: verifier,
		planner:  planner,
		logger:   logger,
	}
}

// Installments verifies the gateway signature over the ticket id, then computes the offers
func (s *InstallmentServiceImpl) Installments(req input.InstallmentRequest) (core.InstallmentOffer, error) {
	if len(req.Pairs) == 0 || req.TicketID == "" || req.TotalAmount == "" {
		return nil, fmt.Errorf("%w: bin, ticketId and totalAmount are required", core.ErrInvalidRequest)
	}
	if !s.verifier.Verify(req.TicketID, req.Signature) {
		return nil, fmt.Errorf("%w: ticket %s", core.ErrSignatureVerification, req.TicketID)
	}

	offer, err := s.planner.ComputeOffers(req.TotalAmount, req.Pairs)
	if err != nil {
		s.logger.Warn("installments could not be calculated",
			zap.String("ticket_id", req.TicketID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to compute installments: %w", err)
	}

	s.logger.Info("installments calculated",
		zap.String("ticket_id", req.TicketID),
		zap.Int("bins", len(offer)),
	)
	return offer, nil
}
