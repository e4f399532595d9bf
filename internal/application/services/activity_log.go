package services

import (
	"context"
	"log"

	"github.com/minerva/erp/internal/domain/events"
	"github.com/minerva/erp/internal/domain/ports"
)

// activityEvents are the lifecycle events written to the activity log.
var activityEvents = []events.EventType{
	events.OSCreated,
	events.WorkflowCompleted,
	events.SessionClosed,
	events.LancamentoClassified,
	events.RecordCreated,
	events.RecordDeleted,
}

// ActivityLog writes an audit line and counts every lifecycle event.
type ActivityLog struct {
	metrics *Metrics
}

func NewActivityLog(metrics *Metrics) *ActivityLog {
	return &ActivityLog{metrics: metrics}
}

// Register subscribes the log to the publisher. The returned func removes
// every subscription.
func (a *ActivityLog) Register(bus ports.EventPublisher) func() {
	unsubscribers := make([]func(), 0, len(activityEvents))
	for _, eventType := range activityEvents {
		evtType := eventType
		unsubscribers = append(unsubscribers, bus.Subscribe(evtType, func(ctx context.Context, payload interface{}) error {
			a.handle(ctx, evtType, payload)
			return nil
		}))
	}

	log.Printf("✅ ActivityLog: Registered handlers for %d events", len(activityEvents))
	return func() {
		for _, unsubscribe := range unsubscribers {
			unsubscribe()
		}
	}
}

func (a *ActivityLog) handle(ctx context.Context, eventType events.EventType, payload interface{}) {
	subject := ""
	switch p := payload.(type) {
	case events.OSCreatedPayload:
		log.Printf("📋 [%s] %s %s (%s) by %s", eventType, p.OSType, p.Codigo, p.OSID, p.UserID)
		subject = p.OSType
	case events.RecordPayload:
		log.Printf("📋 [%s] %s/%s", eventType, p.Table, p.RecordID)
		subject = p.Table
	case map[string]interface{}:
		log.Printf("📋 [%s] session %v on %v (%v) by %v", eventType, p["session_id"], p["os_type"], p["os_id"], p["user_id"])
		subject, _ = p["os_type"].(string)
	default:
		log.Printf("📋 [%s] %v", eventType, payload)
	}

	if a.metrics != nil {
		a.metrics.RecordActivity(ctx, eventType, subject)
	}
}
