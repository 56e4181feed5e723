package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/cashflow/bkm-gateway/internal/core"
	"github.com/cashflow/bkm-gateway/internal/port/input"
)

const (
	statusOK    = "ok"
	statusError = "error"

	msgInvalidInstallmentRequest = "RequestBody fields cannot be null or signature verification failed"
	msgInstallmentsFailed        = "Installments could not be calculated"
)

// BKMHandler is a primary adapter (HTTP handler) for the gateway's checkout flow
type BKMHandler struct {
	checkoutService    input.CheckoutService
	installmentService input.InstallmentService
	logger             *zap.Logger
}

// NewBKMHandler creates a new BKM handler
func NewBKMHandler(
	checkoutService input.CheckoutService,
	installmentService input.InstallmentService,
	logger *zap.Logger,
) *BKMHandler {
	return &BKMHandler{
		checkoutService:    checkoutService,
		installmentService: installmentService,
		logger:             logger,
	}
}

// Register mounts the handler's routes on g
func (h *BKMHandler) Register(g *echo.Group) {
	g.GET("", h.Index)
	g.GET("/ticket", h.InitTicket)
	g.POST("/nonce", h.Nonce)
	g.POST("/installments", h.Installments)
}

// IndexResponse carries the checkout script URL for the merchant page
type IndexResponse struct {
	BexJsURL string `json:"bexJsUrl"`
}

// NonceRequest represents the gateway's nonce callback
type NonceRequest struct {
	TicketID  string `json:"ticketId"`
	Path      string `json:"path"`
	Token     string `json:"token"`
	OrderID   string `json:"orderId"`
	Signature string `json:"signature"`
}

// NonceReceivedResponse acknowledges a nonce callback
type NonceReceivedResponse struct {
	Result string `json:"result"`
	Data   string `json:"data"`
}

// InstallmentRequest represents the gateway's installment query.
// Bin is either a single "bin@bankCode" string or a list of them.
type InstallmentRequest struct {
	Bin         interface{} `json:"bin"`
	TicketID    string      `json:"ticketId"`
	TotalAmount string      `json:"totalAmount"`
	Signature   string      `json:"signature"`
}

// InstallmentDTO is one installment option in the HTTP response
type InstallmentDTO struct {
	NumberOfInstallment string `json:"numberOfInstallment"`
	InstallmentAmount   string `json:"installmentAmount"`
	TotalAmount         string `json:"totalAmount"`
	VposConfig          string `json:"vposConfig"`
}

// InstallmentsResponse represents the HTTP response for an installment query
type InstallmentsResponse struct {
	Installments map[string][]InstallmentDTO `json:"installments"`
	Status       string                      `json:"status"`
	Error        string                      `json:"error"`
}

// ErrorResponse is the generic error body
type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Index returns the gateway checkout script URL
func (h *BKMHandler) Index(c echo.Context) error {
	return c.JSON(http.StatusOK, IndexResponse{BexJsURL: h.checkoutService.BexJsURL()})
}

// InitTicket issues a one-time payment ticket
func (h *BKMHandler) InitTicket(c echo.Context) error {
	req := input.InitTicketRequest{
		OrderID:      c.QueryParam("orderId"),
		Amount:       c.QueryParam("amount"),
		CampaignCode: c.QueryParam("campaignCode"),
	}

	ticket, err := h.checkoutService.InitTicket(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, core.ErrInvalidRequest) || errors.Is(err, core.ErrMalformedAmount) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Status: statusError,
				Error:  "orderId and a valid amount are required",
			})
		}
		h.logger.Error("ticket creation failed", zap.String("order_id", req.OrderID), zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Status: statusError,
			Error:  "Failed to create ticket",
		})
	}

	return c.JSON(http.StatusOK, ticket)
}

// Nonce accepts the gateway's nonce callback and queues it for confirmation
func (h *BKMHandler) Nonce(c echo.Context) error {
	var req NonceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Status: statusError,
			Error:  "Invalid request body",
		})
	}

	err := h.checkoutService.ReceiveNonce(core.Nonce{
		TicketID:  req.TicketID,
		Path:      req.Path,
		Token:     req.Token,
		OrderID:   req.OrderID,
		Signature: req.Signature,
	})
	if err != nil {
		if errors.Is(err, core.ErrInvalidRequest) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Status: statusError,
				Error:  "ticketId, path and token are required",
			})
		}
		h.logger.Error("nonce intake failed", zap.String("ticket_id", req.TicketID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Status: statusError,
			Error:  "Failed to receive nonce",
		})
	}

	return c.JSON(http.StatusOK, NonceReceivedResponse{Result: statusOK, Data: statusOK})
}

// Installments answers the gateway's installment query.
// The gateway reads the body, so failures are reported with status 200 and an error field.
func (h *BKMHandler) Installments(c echo.Context) error {
	var req InstallmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusOK, installmentsError(msgInvalidInstallmentRequest))
	}

	pairs, err := parseBins(req.Bin)
	if err != nil {
		return c.JSON(http.StatusOK, installmentsError(msgInvalidInstallmentRequest))
	}

	offer, err := h.installmentService.Installments(input.InstallmentRequest{
		Pairs:       pairs,
		TicketID:    req.TicketID,
		TotalAmount: req.TotalAmount,
		Signature:   req.Signature,
	})
	if err != nil {
		if errors.Is(err, core.ErrInvalidRequest) || errors.Is(err, core.ErrSignatureVerification) {
			return c.JSON(http.StatusOK, installmentsError(msgInvalidInstallmentRequest))
		}
		return c.JSON(http.StatusOK, installmentsError(msgInstallmentsFailed))
	}

	return c.JSON(http.StatusOK, InstallmentsResponse{
		Installments: toInstallmentDTOs(offer),
		Status:       statusOK,
		Error:        "",
	})
}

func parseBins(raw interface{}) ([]core.BinBankPair, error) {
	if raw == nil {
		return nil, core.ErrInvalidRequest
	}
	entries, err := cast.ToStringSliceE(raw)
	if err != nil {
		return nil, core.ErrInvalidRequest
	}

	pairs := make([]core.BinBankPair, 0, len(entries))
	for _, entry := range entries {
		pair, err := core.ParseBinBankPair(entry)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

func toInstallmentDTOs(offer core.InstallmentOffer) map[string][]InstallmentDTO {
	out := make(map[string][]InstallmentDTO, len(offer))
	for bin, options := range offer {
		dtos := make([]InstallmentDTO, 0, len(options))
		for _, o := range options {
			dtos = append(dtos, InstallmentDTO{
				NumberOfInstallment: strconv.Itoa(o.NumberOfInstallment),
				InstallmentAmount:   o.InstallmentAmount,
				TotalAmount:         o.TotalAmount,
				VposConfig:          o.VposConfig,
			})
		}
		out[bin] = dtos
	}
	return out
}

func installmentsError(message string) InstallmentsResponse {
	return InstallmentsResponse{Status: statusError, Error: message}
}
