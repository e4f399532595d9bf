package services

import (
	"context"
	"log"
	"time"

	"github.com/minerva/erp/internal/config"
	"github.com/minerva/erp/internal/domain/calendar"
	"github.com/minerva/erp/internal/domain/workflow"
	"github.com/minerva/erp/internal/infrastructure/database"
	"github.com/minerva/erp/internal/infrastructure/persistence"
	"github.com/minerva/erp/pkg/expression"
)

const sweepJobName = "wizard-session-sweep"

// ServiceManager orchestrates all services with dependency injection
type ServiceManager struct {
	db  *database.Connection
	cfg *config.Config

	// Shared infrastructure
	TxManager *persistence.TransactionManager
	Records   *persistence.RecordRepository
	Users     *persistence.UserRepository
	Orders    *persistence.OSRepository
	EventBus  *EventBus
	Metrics   *Metrics
	Engine    *expression.Engine
	Registry  *workflow.Registry

	// Domain services
	Workflow      *WorkflowService
	Finance       *FinanceService
	Colaboradores *ColaboradorService
	Calendar      *CalendarService
	Clientes      *ClienteService
	Auth          *AuthService
	Scheduler     *SchedulerService
	Activity      *ActivityLog
}

// NewServiceManager creates a new service manager with all dependencies wired.
// Workflow definitions are registered separately into Registry.
func NewServiceManager(db *database.Connection, cfg *config.Config) *ServiceManager {
	sm := &ServiceManager{
		db:  db,
		cfg: cfg,
	}

	sqlDB := db.DB()
	sm.TxManager = persistence.NewTransactionManager(sqlDB)
	sm.Records = persistence.NewRecordRepository(sqlDB)
	sm.Users = persistence.NewUserRepository(sqlDB)
	sm.Orders = persistence.NewOSRepository(sqlDB)
	sm.EventBus = NewEventBus()
	sm.Metrics = NewMetrics()
	sm.Engine = expression.NewEngine()
	sm.Registry = workflow.NewRegistry()

	sm.Workflow = NewWorkflowService(sm.Registry, sm.Engine, sm.Orders, sm.EventBus, sm.Metrics)
	sm.Finance = NewFinanceService(sm.Records, sm.TxManager, sm.EventBus)
	sm.Colaboradores = NewColaboradorService(sm.Records)
	sm.Calendar = NewCalendarService(sm.Records, calendar.Config{
		StartHour: cfg.Calendar.StartHour,
		EndHour:   cfg.Calendar.EndHour,
		Capacity:  cfg.Calendar.Capacity,
		Location:  cfg.Location(),
	})
	sm.Clientes = NewClienteService(sm.Records, sm.Engine, sm.EventBus)
	sm.Auth = NewAuthService(sm.Users)
	sm.Scheduler = NewSchedulerService(cfg.Location())

	sm.Activity = NewActivityLog(sm.Metrics)
	sm.Activity.Register(sm.EventBus)

	return sm
}

// StartBackgroundJobs schedules the idle wizard sweep and starts the scheduler.
func (sm *ServiceManager) StartBackgroundJobs() error {
	maxIdle := sm.cfg.Session.MaxIdle
	err := sm.Scheduler.AddJob(sweepJobName, sm.cfg.Session.SweepCron, func(ctx context.Context) error {
		sm.Workflow.SweepIdle(ctx, maxIdle)
		return nil
	})
	if err != nil {
		return err
	}
	sm.Scheduler.Start()
	log.Printf("⏰ Idle wizard sessions close after %v (%s)", maxIdle, sm.cfg.Session.SweepCron)
	return nil
}

// StopBackgroundJobs stops the scheduler gracefully.
func (sm *ServiceManager) StopBackgroundJobs() {
	sm.Scheduler.Stop()
}

// Ping checks the database connection.
func (sm *ServiceManager) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sm.db.Ping(ctx)
}
