package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/minerva/erp/internal/application/services"
	"github.com/minerva/erp/internal/bootstrap"
	"github.com/minerva/erp/internal/config"
	"github.com/minerva/erp/internal/infrastructure/database"
	"github.com/minerva/erp/internal/interfaces/middleware"
	"github.com/minerva/erp/internal/interfaces/rest"
	"github.com/minerva/erp/pkg/auth"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	auth.Configure(cfg.JWT.Secret, cfg.JWT.TTL)
	gin.SetMode(cfg.Mode)

	// Initialize database connection
	db, err := database.GetInstance(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("✅ Database connection established")

	ctx := context.Background()
	if err := bootstrap.InitializeSchema(ctx, db.DB()); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	svcMgr := services.NewServiceManager(db, cfg)
	log.Println("🔧 Service manager initialized")

	if err := bootstrap.InitializeWorkflows(svcMgr.Registry, svcMgr.Engine); err != nil {
		log.Fatalf("Failed to load workflow definitions: %v", err)
	}

	if err := bootstrap.EnsureAdminUser(ctx, svcMgr.Users, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		log.Printf("⚠️  Warning: Failed to create admin user: %v", err)
	}

	if err := svcMgr.StartBackgroundJobs(); err != nil {
		log.Fatalf("Failed to start background jobs: %v", err)
	}

	router := gin.Default()

	// CORS middleware - Allow credentials from any origin
	router.Use(middleware.Cors())

	router.GET("/health", func(c *gin.Context) {
		if err := svcMgr.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"sessions": svcMgr.Workflow.SessionCount(),
		})
	})

	rest.RegisterRoutes(router.Group("/api"), rest.Handlers{
		Auth:          rest.NewAuthHandler(svcMgr.Auth),
		Workflow:      rest.NewWorkflowHandler(svcMgr.Workflow),
		Finance:       rest.NewFinanceHandler(svcMgr.Finance),
		Colaboradores: rest.NewColaboradorHandler(svcMgr.Colaboradores),
		Calendar:      rest.NewCalendarHandler(svcMgr.Calendar),
		Clientes:      rest.NewClienteHandler(svcMgr.Clientes),
	}, middleware.RequireAuth(), middleware.RequireManager())

	port := cfg.Port
	log.Printf("🚀 Minerva ERP listening on :%s", port)
	log.Printf("🔐 Auth API:       http://localhost:%s/api/auth", port)
	log.Printf("🧭 Wizard API:     http://localhost:%s/api/wizards", port)
	log.Printf("💚 Health check:   http://localhost:%s/health", port)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	svcMgr.StopBackgroundJobs()
	log.Println("🛑 Scheduler stopped")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	if err := db.Close(); err != nil {
		log.Printf("⚠️  Failed to close database: %v", err)
	}
	log.Println("Server exiting")
}
