package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cashflow/bkm-gateway/internal/core"
	"github.com/cashflow/bkm-gateway/internal/port/output"
)

const signatureFailedMessage = "Signature verification failed"

// NonceProcessor answers queued nonces at the gateway
type NonceProcessor struct {
	receipts output.NonceReceiptRepository
	verifier output.SignatureVerifier
	gateway  output.Gateway
	logger   *zap.Logger
}

// NewNonceProcessor creates a new nonce processor
func NewNonceProcessor(
	receipts output.NonceReceiptRepository,
	verifier output.SignatureVerifier,
	gateway output.Gateway,
	logger *zap.Logger,
) *NonceProcessor {
	return &NonceProcessor{
		receipts: receipts,
		verifier: verifier,
		gateway:  gateway,
		logger:   logger,
	}
}

// ProcessNonce verifies the nonce signature and sends the result to the gateway.
// The processing is idempotent - a ticket is answered at most once.
func (p *NonceProcessor) ProcessNonce(ctx context.Context, nonce core.Nonce) error {
	receipt, err := p.receipts.Claim(nonce)
	if err != nil {
		return fmt.Errorf("failed to claim nonce: %w", err)
	}

	response := core.NonceResponse{
		ID:     receipt.Path,
		Nonce:  nonce.Token,
		Result: p.verifier.Verify(receipt.TicketID, nonce.Signature),
	}
	status := core.NonceStatusConfirmed
	if !response.Result {
		response.Message = signatureFailedMessage
		status = core.NonceStatusRejected
		p.logger.Warn("nonce signature rejected",
			zap.String("receipt_id", receipt.ID.String()),
			zap.String("ticket_id", receipt.TicketID),
			zap.String("order_id", receipt.OrderID),
		)
	}

	if err := p.answer(ctx, response); err != nil {
		if releaseErr := p.receipts.Release(receipt.TicketID); releaseErr != nil {
			p.logger.Error("failed to release nonce claim",
				zap.String("receipt_id", receipt.ID.String()),
				zap.String("ticket_id", receipt.TicketID),
				zap.Error(releaseErr),
			)
		}
		return err
	}

	if err := p.receipts.Complete(receipt.TicketID, status, response.Message); err != nil {
		return fmt.Errorf("failed to complete nonce: %w", err)
	}

	p.logger.Info("nonce answered",
		zap.String("receipt_id", receipt.ID.String()),
		zap.String("ticket_id", receipt.TicketID),
		zap.String("order_id", receipt.OrderID),
		zap.String("status", string(status)),
	)
	return nil
}

func (p *NonceProcessor) answer(ctx context.Context, response core.NonceResponse) error {
	token, err := p.gateway.Login(ctx)
	if err != nil {
		return fmt.Errorf("failed to login to gateway: %w", err)
	}
	if err := p.gateway.SendNonceResponse(ctx, token, response); err != nil {
		return fmt.Errorf("failed to send nonce response: %w", err)
	}
	return nil
}
