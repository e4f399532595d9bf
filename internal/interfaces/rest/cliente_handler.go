package rest

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/minerva/erp/pkg/auth"
	"github.com/minerva/erp/pkg/models"
)

// ClienteService manages clientes
type ClienteService interface {
	List(ctx context.Context, req models.QueryRequest) ([]models.SObject, error)
	Get(ctx context.Context, id string) (models.SObject, error)
	Create(ctx context.Context, data models.SObject, user *auth.UserSession) (models.SObject, error)
	Update(ctx context.Context, id string, data models.SObject) (models.SObject, error)
	Delete(ctx context.Context, id string) error
}

type ClienteHandler struct {
	svc ClienteService
}

func NewClienteHandler(svc ClienteService) *ClienteHandler {
	return &ClienteHandler{svc: svc}
}

// List handles GET /api/clientes
func (h *ClienteHandler) List(c *gin.Context) {
	req, ok := QueryRequestFromContext(c)
	if !ok {
		return
	}
	HandleGetEnvelope(c, "clientes", func() (interface{}, error) {
		return h.svc.List(c.Request.Context(), req)
	})
}

// Get handles GET /api/clientes/:id
func (h *ClienteHandler) Get(c *gin.Context) {
	HandleGetEnvelope(c, "cliente", func() (interface{}, error) {
		return h.svc.Get(c.Request.Context(), c.Param("id"))
	})
}

// Create handles POST /api/clientes
func (h *ClienteHandler) Create(c *gin.Context) {
	user, ok := RequireUser(c)
	if !ok {
		return
	}
	var data models.SObject
	if !BindJSON(c, &data) {
		return
	}
	HandleCreateEnvelope(c, "cliente", "Cliente created successfully", func() (interface{}, error) {
		return h.svc.Create(c.Request.Context(), data, user)
	})
}

// Update handles PATCH /api/clientes/:id
func (h *ClienteHandler) Update(c *gin.Context) {
	var data models.SObject
	if !BindJSON(c, &data) {
		return
	}
	HandleUpdateEnvelope(c, "cliente", "Cliente updated successfully", func() (interface{}, error) {
		return h.svc.Update(c.Request.Context(), c.Param("id"), data)
	})
}

// Delete handles DELETE /api/clientes/:id
func (h *ClienteHandler) Delete(c *gin.Context) {
	HandleDeleteEnvelope(c, "Cliente deleted successfully", func() error {
		return h.svc.Delete(c.Request.Context(), c.Param("id"))
	})
}
