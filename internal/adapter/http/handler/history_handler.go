package handler

import (
	"strconv"
	"time"

	"core-banking-ledger/internal/adapter/http/dto"
	"core-banking-ledger/internal/core/domain"
	"core-banking-ledger/internal/core/ports"
	"core-banking-ledger/pkg/apperror"
	"core-banking-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HistoryHandler handles ledger read endpoints.
type HistoryHandler struct {
	historySvc ports.HistoryService
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(historySvc ports.HistoryService) *HistoryHandler {
	return &HistoryHandler{historySvc: historySvc}
}

// ForAccount handles GET /api/v1/accounts/:id/transactions.
func (h *HistoryHandler) ForAccount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid account id"))
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			response.Error(c, apperror.Validation("invalid limit"))
			return
		}
	}

	entries, err := h.historySvc.ForAccount(c.Request.Context(), userID, accountID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toEntryResponses(entries))
}

// ForUser handles GET /api/v1/transactions.
func (h *HistoryHandler) ForUser(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	from, err := parseTimeParam(c.Query("from"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid 'from' timestamp"))
		return
	}
	to, err := parseTimeParam(c.Query("to"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid 'to' timestamp"))
		return
	}

	entries, err := h.historySvc.ForUser(c.Request.Context(), userID, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toEntryResponses(entries))
}

func parseTimeParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func toEntryResponses(entries []domain.LedgerEntry) []dto.LedgerEntryResponse {
	out := make([]dto.LedgerEntryResponse, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		resp := dto.LedgerEntryResponse{
			ID:           e.ID.String(),
			AccountID:    e.AccountID.String(),
			Kind:         string(e.Kind),
			Amount:       e.Amount.StringFixed(2),
			SignedAmount: e.SignedEffect().StringFixed(2),
			CreatedAt:    e.CreatedAt.Format(time.RFC3339),
		}
		if e.CounterpartyUserID != nil {
			s := e.CounterpartyUserID.String()
			resp.CounterpartyUserID = &s
		}
		if e.CounterpartyAccountID != nil {
			s := e.CounterpartyAccountID.String()
			resp.CounterpartyAccountID = &s
		}
		out = append(out, resp)
	}
	return out
}
