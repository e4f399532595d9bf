package rest

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/minerva/erp/internal/application/services"
	"github.com/minerva/erp/internal/domain/workflow"
	"github.com/minerva/erp/pkg/auth"
	"github.com/minerva/erp/pkg/errors"
)

// WizardService drives OS wizard sessions
type WizardService interface {
	ListDefinitions() []*workflow.Definition
	GetDefinition(osType string) (*workflow.Definition, error)
	Start(ctx context.Context, osType string, user *auth.UserSession) (*services.SessionView, error)
	Open(ctx context.Context, osID string, user *auth.UserSession) (*services.SessionView, error)
	Get(sessionID string, user *auth.UserSession) (*services.SessionView, error)
	ListSessions(user *auth.UserSession) []*services.SessionView
	Close(ctx context.Context, sessionID string, user *auth.UserSession) error
	SetStepData(sessionID string, step int, payload workflow.Payload, user *auth.UserSession) (*services.SessionView, error)
	Next(ctx context.Context, sessionID string, user *auth.UserSession) (*services.SessionView, error)
	SaveDraft(ctx context.Context, sessionID string, user *auth.UserSession) (*services.SessionView, error)
	Prev(sessionID string, user *auth.UserSession) (*services.SessionView, error)
	JumpTo(sessionID string, step int, user *auth.UserSession) (*services.SessionView, error)
	ReturnToActive(sessionID string, user *auth.UserSession) (*services.SessionView, error)
}

type WorkflowHandler struct {
	svc WizardService
}

func NewWorkflowHandler(svc WizardService) *WorkflowHandler {
	return &WorkflowHandler{svc: svc}
}

// StartWizardRequest opens a wizard for a new OS of os_type or an existing OS by os_id
type StartWizardRequest struct {
	OSType string `json:"os_type"`
	OSID   string `json:"os_id"`
}

// ListDefinitions handles GET /api/workflows
func (h *WorkflowHandler) ListDefinitions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"workflows": h.svc.ListDefinitions()})
}

// GetDefinition handles GET /api/workflows/:osType
func (h *WorkflowHandler) GetDefinition(c *gin.Context) {
	osType := strings.ToUpper(c.Param("osType"))
	HandleGetEnvelope(c, "workflow", func() (interface{}, error) {
		return h.svc.GetDefinition(osType)
	})
}

// StartWizard handles POST /api/wizards
func (h *WorkflowHandler) StartWizard(c *gin.Context) {
	user, ok := RequireUser(c)
	if !ok {
		return
	}

	var req StartWizardRequest
	if !BindJSON(c, &req) {
		return
	}

	req.OSType = strings.TrimSpace(req.OSType)
	req.OSID = strings.TrimSpace(req.OSID)
	if (req.OSType == "") == (req.OSID == "") {
		RespondAppError(c, errors.NewValidationError("body", "exactly one of os_type or os_id is required"))
		return
	}

	HandleCreateEnvelope(c, "wizard", "Wizard opened", func() (interface{}, error) {
		if req.OSID != "" {
			return h.svc.Open(c.Request.Context(), req.OSID, user)
		}
		return h.svc.Start(c.Request.Context(), strings.ToUpper(req.OSType), user)
	})
}

// ListWizards handles GET /api/wizards
func (h *WorkflowHandler) ListWizards(c *gin.Context) {
	user, ok := RequireUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"wizards": h.svc.ListSessions(user)})
}

// GetWizard handles GET /api/wizards/:sessionId
func (h *WorkflowHandler) GetWizard(c *gin.Context) {
	h.withSession(c, func(id string, user *auth.UserSession) (*services.SessionView, error) {
		return h.svc.Get(id, user)
	})
}

// SetStepData handles PUT /api/wizards/:sessionId/steps/:step
func (h *WorkflowHandler) SetStepData(c *gin.Context) {
	step, ok := IntParam(c, "step")
	if !ok {
		return
	}
	var payload workflow.Payload
	if !BindJSON(c, &payload) {
		return
	}
	h.withSession(c, func(id string, user *auth.UserSession) (*services.SessionView, error) {
		return h.svc.SetStepData(id, step, payload, user)
	})
}

// SaveDraft handles POST /api/wizards/:sessionId/draft
func (h *WorkflowHandler) SaveDraft(c *gin.Context) {
	h.withSession(c, func(id string, user *auth.UserSession) (*services.SessionView, error) {
		return h.svc.SaveDraft(c.Request.Context(), id, user)
	})
}

// Next handles POST /api/wizards/:sessionId/next
func (h *WorkflowHandler) Next(c *gin.Context) {
	h.withSession(c, func(id string, user *auth.UserSession) (*services.SessionView, error) {
		return h.svc.Next(c.Request.Context(), id, user)
	})
}

// Prev handles POST /api/wizards/:sessionId/prev
func (h *WorkflowHandler) Prev(c *gin.Context) {
	h.withSession(c, func(id string, user *auth.UserSession) (*services.SessionView, error) {
		return h.svc.Prev(id, user)
	})
}

// JumpTo handles POST /api/wizards/:sessionId/jump/:step
func (h *WorkflowHandler) JumpTo(c *gin.Context) {
	step, ok := IntParam(c, "step")
	if !ok {
		return
	}
	h.withSession(c, func(id string, user *auth.UserSession) (*services.SessionView, error) {
		return h.svc.JumpTo(id, step, user)
	})
}

// ReturnToActive handles POST /api/wizards/:sessionId/return
func (h *WorkflowHandler) ReturnToActive(c *gin.Context) {
	h.withSession(c, func(id string, user *auth.UserSession) (*services.SessionView, error) {
		return h.svc.ReturnToActive(id, user)
	})
}

// CloseWizard handles DELETE /api/wizards/:sessionId
func (h *WorkflowHandler) CloseWizard(c *gin.Context) {
	user, ok := RequireUser(c)
	if !ok {
		return
	}
	HandleDeleteEnvelope(c, "Wizard closed", func() error {
		return h.svc.Close(c.Request.Context(), c.Param("sessionId"), user)
	})
}

func (h *WorkflowHandler) withSession(c *gin.Context, action func(id string, user *auth.UserSession) (*services.SessionView, error)) {
	user, ok := RequireUser(c)
	if !ok {
		return
	}
	HandleGetEnvelope(c, "wizard", func() (interface{}, error) {
		return action(c.Param("sessionId"), user)
	})
}
