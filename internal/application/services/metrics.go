package services

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/minerva/erp/internal/domain/events"
)

const meterName = "github.com/minerva/erp"

// Metrics holds the OTel instruments shared by the services. Without a
// configured MeterProvider the global meter hands out noop instruments.
type Metrics struct {
	stepSaves    metric.Int64Counter
	saveDuration metric.Float64Histogram
	sessions     metric.Int64UpDownCounter
	activity     metric.Int64Counter
}

// NewMetrics creates instruments on the global MeterProvider.
func NewMetrics() *Metrics {
	return NewMetricsWithMeter(otel.Meter(meterName))
}

// NewMetricsWithMeter creates instruments on the provided meter.
func NewMetricsWithMeter(meter metric.Meter) *Metrics {
	stepSaves, _ := meter.Int64Counter(
		"minerva.workflow.step_saves",
		metric.WithDescription("Step writes issued by wizard sessions"),
		metric.WithUnit("{save}"),
	)
	saveDuration, _ := meter.Float64Histogram(
		"minerva.workflow.save_duration",
		metric.WithDescription("Duration of step writes in seconds"),
		metric.WithUnit("s"),
	)
	sessions, _ := meter.Int64UpDownCounter(
		"minerva.wizard.sessions",
		metric.WithDescription("Open wizard sessions"),
		metric.WithUnit("{session}"),
	)

	activity, _ := meter.Int64Counter(
		"minerva.activity.events",
		metric.WithDescription("Lifecycle events seen by the activity log"),
		metric.WithUnit("{event}"),
	)

	return &Metrics{
		stepSaves:    stepSaves,
		saveDuration: saveDuration,
		sessions:     sessions,
		activity:     activity,
	}
}

// RecordSave records one step write.
func (m *Metrics) RecordSave(ctx context.Context, osType string, draft bool, started time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("os_type", osType),
		attribute.String("draft", strconv.FormatBool(draft)),
		attribute.String("status", status),
	)
	m.stepSaves.Add(ctx, 1, attrs)
	m.saveDuration.Record(ctx, time.Since(started).Seconds(), attrs)
}

// SessionOpened and SessionClosed track live wizard sessions.
func (m *Metrics) SessionOpened(ctx context.Context, osType string) {
	m.sessions.Add(ctx, 1, metric.WithAttributes(attribute.String("os_type", osType)))
}

func (m *Metrics) SessionClosed(ctx context.Context, osType string) {
	m.sessions.Add(ctx, -1, metric.WithAttributes(attribute.String("os_type", osType)))
}

// RecordActivity counts one lifecycle event. subject is the OS type or table.
func (m *Metrics) RecordActivity(ctx context.Context, eventType events.EventType, subject string) {
	m.activity.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", eventType.String()),
		attribute.String("subject", subject),
	))
}
