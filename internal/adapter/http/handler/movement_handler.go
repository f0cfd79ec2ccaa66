package handler

import (
	"time"

	"core-banking-ledger/internal/adapter/http/dto"
	"core-banking-ledger/internal/core/ports"
	"core-banking-ledger/pkg/apperror"
	"core-banking-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementHandler handles funds-movement endpoints. Amount and id fields
// arrive pre-validated by the binding tags, so the parse calls below cannot
// fail on well-formed requests.
type MovementHandler struct {
	movementSvc ports.MovementService
	authCodes   ports.AuthCodeStore
	demoCodes   bool
}

// NewMovementHandler creates a new MovementHandler. demoCodes controls
// whether /transfers/external/authorize returns the code in the response
// body; a real deployment delivers it out of band.
func NewMovementHandler(movementSvc ports.MovementService, authCodes ports.AuthCodeStore, demoCodes bool) *MovementHandler {
	return &MovementHandler{movementSvc: movementSvc, authCodes: authCodes, demoCodes: demoCodes}
}

// Deposit handles POST /api/v1/deposits.
func (h *MovementHandler) Deposit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.movementSvc.Deposit(c.Request.Context(), ports.DepositRequest{
		UserID:    userID,
		AccountID: uuid.MustParse(req.AccountID),
		Amount:    decimal.RequireFromString(req.Amount),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toMovementResponse(result))
}

// Withdraw handles POST /api/v1/withdrawals.
func (h *MovementHandler) Withdraw(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.movementSvc.Withdraw(c.Request.Context(), ports.WithdrawRequest{
		UserID:    userID,
		AccountID: uuid.MustParse(req.AccountID),
		Amount:    decimal.RequireFromString(req.Amount),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toMovementResponse(result))
}

// TransferInternal handles POST /api/v1/transfers/internal.
func (h *MovementHandler) TransferInternal(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.InternalTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.movementSvc.TransferInternal(c.Request.Context(), ports.InternalTransferRequest{
		UserID:        userID,
		FromAccountID: uuid.MustParse(req.FromAccountID),
		ToAccountID:   uuid.MustParse(req.ToAccountID),
		Amount:        decimal.RequireFromString(req.Amount),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toMovementResponse(result))
}

// AuthorizeExternal handles POST /api/v1/transfers/external/authorize.
func (h *MovementHandler) AuthorizeExternal(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	code, expiresAt, err := h.authCodes.Issue(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}

	resp := dto.AuthorizeTransferResponse{ExpiresAt: expiresAt.Unix()}
	if h.demoCodes {
		resp.Code = code
	}
	response.Created(c, resp)
}

// TransferExternal handles POST /api/v1/transfers/external.
func (h *MovementHandler) TransferExternal(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.ExternalTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.movementSvc.TransferExternal(c.Request.Context(), ports.ExternalTransferRequest{
		UserID:            userID,
		FromAccountID:     uuid.MustParse(req.FromAccountID),
		BeneficiaryID:     uuid.MustParse(req.BeneficiaryID),
		Amount:            decimal.RequireFromString(req.Amount),
		AuthorizationCode: req.AuthorizationCode,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toMovementResponse(result))
}

// TransferByEmail handles POST /api/v1/transfers/email.
func (h *MovementHandler) TransferByEmail(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.EmailTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.movementSvc.TransferByEmail(c.Request.Context(), ports.EmailTransferRequest{
		UserID:         userID,
		RecipientEmail: req.RecipientEmail,
		Amount:         decimal.RequireFromString(req.Amount),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toMovementResponse(result))
}

// toMovementResponse converts a movement result to DTO.
func toMovementResponse(r *ports.MovementResult) dto.MovementResponse {
	return dto.MovementResponse{
		EntryID:    r.Entry.ID.String(),
		AccountID:  r.Entry.AccountID.String(),
		Kind:       string(r.Entry.Kind),
		Amount:     r.Entry.Amount.StringFixed(2),
		NewBalance: r.NewBalance.StringFixed(2),
		CreatedAt:  r.Entry.CreatedAt.Format(time.RFC3339),
	}
}
