package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	MeterName = "github.com/thomas-vilte/changelens"

	metricCyclesTotal        = "changelens.cycles.total"
	metricCycleDuration      = "changelens.cycle.duration.seconds"
	metricClassifierCalls    = "changelens.classifier.calls.total"
	metricClassifierDuration = "changelens.classifier.duration.seconds"
	metricRequestsTotal      = "changelens.requests.total"
	metricCoalescedTotal     = "changelens.requests.coalesced.total"

	attrOutcome  = "outcome"
	attrCategory = "category"
	attrStatus   = "status"
	attrTrigger  = "trigger"
)

// Model calls take seconds to minutes.
var durationBucketBoundaries = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}

// Metrics records scheduler and classifier activity. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	cyclesTotal        metric.Int64Counter
	cycleDuration      metric.Float64Histogram
	classifierCalls    metric.Int64Counter
	classifierDuration metric.Float64Histogram
	requestsTotal      metric.Int64Counter
	coalescedTotal     metric.Int64Counter
}

func NewMetrics(mt metric.Meter) (*Metrics, error) {
	b := newMetricBuilder(mt)

	m := &Metrics{
		cyclesTotal:        b.counter(metricCyclesTotal, "Classification cycles by outcome", "{cycle}"),
		cycleDuration:      b.histogram(metricCycleDuration, "Classification cycle duration in seconds", "s", durationBucketBoundaries...),
		classifierCalls:    b.counter(metricClassifierCalls, "Classifier calls by category and status", "{call}"),
		classifierDuration: b.histogram(metricClassifierDuration, "Classifier call duration in seconds", "s", durationBucketBoundaries...),
		requestsTotal:      b.counter(metricRequestsTotal, "Cycle requests by trigger", "{request}"),
		coalescedTotal:     b.counter(metricCoalescedTotal, "Requests folded into a pending rerun", "{request}"),
	}

	if b.err != nil {
		return nil, b.err
	}
	return m, nil
}

func (m *Metrics) ObserveCycle(ctx context.Context, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(attrOutcome, outcome))
	m.cyclesTotal.Add(ctx, 1, attrs)
	m.cycleDuration.Record(ctx, d.Seconds(), attrs)
}

func (m *Metrics) ObserveRequest(ctx context.Context, source string, coalesced bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(attrTrigger, source))
	m.requestsTotal.Add(ctx, 1, attrs)
	if coalesced {
		m.coalescedTotal.Add(ctx, 1, attrs)
	}
}

func (m *Metrics) ObserveClassifierCall(ctx context.Context, category string, status string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrCategory, category),
		attribute.String(attrStatus, status),
	)
	m.classifierCalls.Add(ctx, 1, attrs)
	m.classifierDuration.Record(ctx, d.Seconds(), attrs)
}
