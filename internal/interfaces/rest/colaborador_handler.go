package rest

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/minerva/erp/internal/domain/costs"
	"github.com/minerva/erp/pkg/utils"
)

// ColaboradorService exposes collaborators and their cost
type ColaboradorService interface {
	List(ctx context.Context, activeOnly bool) ([]costs.Colaborador, error)
	Get(ctx context.Context, id string) (*costs.Colaborador, error)
	Custo(ctx context.Context, id string) (*costs.Custo, error)
}

type ColaboradorHandler struct {
	svc ColaboradorService
}

func NewColaboradorHandler(svc ColaboradorService) *ColaboradorHandler {
	return &ColaboradorHandler{svc: svc}
}

// List handles GET /api/colaboradores?ativos=true
func (h *ColaboradorHandler) List(c *gin.Context) {
	activeOnly := utils.ToBool(c.DefaultQuery("ativos", "true"))
	HandleGetEnvelope(c, "colaboradores", func() (interface{}, error) {
		return h.svc.List(c.Request.Context(), activeOnly)
	})
}

// Get handles GET /api/colaboradores/:id
func (h *ColaboradorHandler) Get(c *gin.Context) {
	HandleGetEnvelope(c, "colaborador", func() (interface{}, error) {
		return h.svc.Get(c.Request.Context(), c.Param("id"))
	})
}

// Custo handles GET /api/colaboradores/:id/custo
func (h *ColaboradorHandler) Custo(c *gin.Context) {
	HandleGetEnvelope(c, "custo", func() (interface{}, error) {
		return h.svc.Custo(c.Request.Context(), c.Param("id"))
	})
}
