package rest

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/minerva/erp/internal/domain/finance"
	"github.com/minerva/erp/pkg/auth"
	"github.com/minerva/erp/pkg/models"
)

// FinanceService splits lancamentos across cost centers
type FinanceService interface {
	Preview(valor float64, itens []finance.RateioItem) finance.Rateio
	ListLancamentos(ctx context.Context, req models.QueryRequest) ([]finance.Lancamento, error)
	Classify(ctx context.Context, lancamentoID string, itens []finance.RateioItem, user *auth.UserSession) (*finance.Rateio, error)
}

type FinanceHandler struct {
	svc FinanceService
}

func NewFinanceHandler(svc FinanceService) *FinanceHandler {
	return &FinanceHandler{svc: svc}
}

// RateioPreviewRequest is the body of POST /api/financeiro/rateio/preview
type RateioPreviewRequest struct {
	Valor float64              `json:"valor"`
	Itens []finance.RateioItem `json:"itens"`
}

// ClassifyRequest is the body of POST /api/financeiro/lancamentos/:id/classificar
type ClassifyRequest struct {
	Itens []finance.RateioItem `json:"itens" binding:"required"`
}

// PreviewRateio handles POST /api/financeiro/rateio/preview
func (h *FinanceHandler) PreviewRateio(c *gin.Context) {
	var req RateioPreviewRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleGetEnvelope(c, "rateio", func() (interface{}, error) {
		return h.svc.Preview(req.Valor, req.Itens), nil
	})
}

// ListLancamentos handles GET /api/financeiro/lancamentos
func (h *FinanceHandler) ListLancamentos(c *gin.Context) {
	req, ok := QueryRequestFromContext(c)
	if !ok {
		return
	}
	HandleGetEnvelope(c, "lancamentos", func() (interface{}, error) {
		return h.svc.ListLancamentos(c.Request.Context(), req)
	})
}

// Classify handles POST /api/financeiro/lancamentos/:id/classificar
func (h *FinanceHandler) Classify(c *gin.Context) {
	user, ok := RequireUser(c)
	if !ok {
		return
	}
	var req ClassifyRequest
	if !BindJSON(c, &req) {
		return
	}
	HandleGetEnvelope(c, "rateio", func() (interface{}, error) {
		return h.svc.Classify(c.Request.Context(), c.Param("id"), req.Itens, user)
	})
}
