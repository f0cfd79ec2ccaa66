package handler

import (
	"time"

	"core-banking-ledger/internal/adapter/http/dto"
	"core-banking-ledger/internal/core/domain"
	"core-banking-ledger/internal/core/ports"
	"core-banking-ledger/pkg/apperror"
	"core-banking-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// BeneficiaryHandler handles the external-payee directory endpoints.
type BeneficiaryHandler struct {
	benefSvc ports.BeneficiaryService
}

// NewBeneficiaryHandler creates a new BeneficiaryHandler.
func NewBeneficiaryHandler(benefSvc ports.BeneficiaryService) *BeneficiaryHandler {
	return &BeneficiaryHandler{benefSvc: benefSvc}
}

// Add handles POST /api/v1/beneficiaries.
func (h *BeneficiaryHandler) Add(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.BeneficiaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	b, err := h.benefSvc.Add(c.Request.Context(), userID, req.AccountNumber, req.Nickname)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toBeneficiaryResponse(b))
}

// List handles GET /api/v1/beneficiaries.
func (h *BeneficiaryHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	items, err := h.benefSvc.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.BeneficiaryResponse, 0, len(items))
	for i := range items {
		out = append(out, toBeneficiaryResponse(&items[i]))
	}
	response.OK(c, out)
}

func toBeneficiaryResponse(b *domain.Beneficiary) dto.BeneficiaryResponse {
	return dto.BeneficiaryResponse{
		ID:            b.ID.String(),
		AccountNumber: b.AccountNumber,
		Nickname:      b.Nickname,
		CreatedAt:     b.CreatedAt.Format(time.RFC3339),
	}
}
