package rest

import (
	"github.com/gin-gonic/gin"
)

// Handlers groups every REST handler mounted under /api
type Handlers struct {
	Auth          *AuthHandler
	Workflow      *WorkflowHandler
	Finance       *FinanceHandler
	Colaboradores *ColaboradorHandler
	Calendar      *CalendarHandler
	Clientes      *ClienteHandler
}

// RegisterRoutes mounts the API. requireAuth guards everything but login,
// requireManager additionally guards user registration and classification.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, requireAuth, requireManager gin.HandlerFunc) {
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", h.Auth.Login)
		authGroup.GET("/me", requireAuth, h.Auth.GetMe)
		authGroup.POST("/change-password", requireAuth, h.Auth.ChangePassword)
		authGroup.POST("/register", requireAuth, requireManager, h.Auth.Register)
	}

	protected := api.Group("")
	protected.Use(requireAuth)

	workflows := protected.Group("/workflows")
	{
		workflows.GET("", h.Workflow.ListDefinitions)
		workflows.GET("/:osType", h.Workflow.GetDefinition)
	}

	wizards := protected.Group("/wizards")
	{
		wizards.POST("", h.Workflow.StartWizard)
		wizards.GET("", h.Workflow.ListWizards)
		wizards.GET("/:sessionId", h.Workflow.GetWizard)
		wizards.DELETE("/:sessionId", h.Workflow.CloseWizard)
		wizards.PUT("/:sessionId/steps/:step", h.Workflow.SetStepData)
		wizards.POST("/:sessionId/draft", h.Workflow.SaveDraft)
		wizards.POST("/:sessionId/next", h.Workflow.Next)
		wizards.POST("/:sessionId/prev", h.Workflow.Prev)
		wizards.POST("/:sessionId/jump/:step", h.Workflow.JumpTo)
		wizards.POST("/:sessionId/return", h.Workflow.ReturnToActive)
	}

	financeiro := protected.Group("/financeiro")
	{
		financeiro.POST("/rateio/preview", h.Finance.PreviewRateio)
		financeiro.GET("/lancamentos", h.Finance.ListLancamentos)
		financeiro.POST("/lancamentos/:id/classificar", requireManager, h.Finance.Classify)
	}

	colaboradores := protected.Group("/colaboradores")
	{
		colaboradores.GET("", h.Colaboradores.List)
		colaboradores.GET("/:id", h.Colaboradores.Get)
		colaboradores.GET("/:id/custo", h.Colaboradores.Custo)
	}

	calendario := protected.Group("/calendario")
	{
		calendario.GET("/semana", h.Calendar.Week)
		calendario.GET("/mes", h.Calendar.Month)
		calendario.GET("/dia/:data", h.Calendar.Day)
	}

	clientes := protected.Group("/clientes")
	{
		clientes.GET("", h.Clientes.List)
		clientes.POST("", h.Clientes.Create)
		clientes.GET("/:id", h.Clientes.Get)
		clientes.PATCH("/:id", h.Clientes.Update)
		clientes.DELETE("/:id", h.Clientes.Delete)
	}
}
