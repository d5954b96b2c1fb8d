package api

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	reportsTracerName  = "trelliq-api/api"
	reportsSpanName    = "reports.request"
	reportsEventName   = "reports.request.metrics"
	reportsEventDomain = "trelliq"
	reportsRoute       = "/api/reports"
)

// reportRequestMetrics collects per-request timings for the report endpoint
// and emits them both as a structured log entry and as a span event.
type reportRequestMetrics struct {
	logger *log.Logger
	span   trace.Span
	start  time.Time

	authDuration   time.Duration
	fetchDuration  time.Duration
	buildDuration  time.Duration
	encodeDuration time.Duration
	rowsGenerated  int
	uniqueTasks    int
	collaborators  int
	errorStage     string
}

func newReportRequestMetrics(ctx context.Context, logger *log.Logger) (*reportRequestMetrics, context.Context) {
	tracer := otel.GetTracerProvider().Tracer(reportsTracerName)
	spanCtx, span := tracer.Start(ctx, reportsSpanName, trace.WithSpanKind(trace.SpanKindServer))
	span.SetAttributes(attribute.String("http.route", reportsRoute))

	return &reportRequestMetrics{
		logger: logger,
		span:   span,
		start:  time.Now(),
	}, spanCtx
}

func (m *reportRequestMetrics) ObserveAuth(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.authDuration = duration
}

func (m *reportRequestMetrics) ObserveFetch(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.fetchDuration = duration
}

func (m *reportRequestMetrics) ObserveBuild(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.buildDuration = duration
}

func (m *reportRequestMetrics) ObserveEncode(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.encodeDuration = duration
}

func (m *reportRequestMetrics) SetRowsGenerated(count int) {
	if count < 0 {
		count = 0
	}
	m.rowsGenerated = count
}

func (m *reportRequestMetrics) SetUniqueTasks(count int) {
	if count < 0 {
		count = 0
	}
	m.uniqueTasks = count
}

func (m *reportRequestMetrics) SetCollaborators(count int) {
	if count < 0 {
		count = 0
	}
	m.collaborators = count
}

func (m *reportRequestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

// Log finishes the span and emits a single observability event carrying the
// request timings. It must be called exactly once per request.
func (m *reportRequestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}

	severityText, severityNumber := severityForStatus(status, err)

	attrs := []attribute.KeyValue{
		attribute.String("http.route", reportsRoute),
		attribute.Int("http.status_code", status),
		attribute.Float64("trelliq.reports.total_ms", durationToMillis(time.Since(m.start))),
		attribute.Int("trelliq.reports.rows_generated", m.rowsGenerated),
		attribute.Int("trelliq.reports.unique_tasks", m.uniqueTasks),
		attribute.Int("trelliq.reports.collaborators", m.collaborators),
	}
	if m.authDuration > 0 {
		attrs = append(attrs, attribute.Float64("trelliq.reports.auth_ms", durationToMillis(m.authDuration)))
	}
	if m.fetchDuration > 0 {
		attrs = append(attrs, attribute.Float64("trelliq.reports.fetch_ms", durationToMillis(m.fetchDuration)))
	}
	if m.buildDuration > 0 {
		attrs = append(attrs, attribute.Float64("trelliq.reports.build_ms", durationToMillis(m.buildDuration)))
	}
	if m.encodeDuration > 0 {
		attrs = append(attrs, attribute.Float64("trelliq.reports.encode_ms", durationToMillis(m.encodeDuration)))
	}
	if m.errorStage != "" {
		attrs = append(attrs, attribute.String("trelliq.reports.error_stage", m.errorStage))
	}
	if err != nil {
		attrs = append(attrs, attribute.String("error.message", err.Error()))
	}

	eventAttrs := append([]attribute.KeyValue{
		attribute.String("event.name", reportsEventName),
		attribute.String("event.domain", reportsEventDomain),
		attribute.String("severity_text", severityText),
		attribute.Int("severity_number", severityNumber),
	}, attrs...)

	if m.span != nil {
		m.span.SetAttributes(attrs...)
		m.span.AddEvent("observability.event", trace.WithAttributes(eventAttrs...))
		if err != nil || status >= 500 {
			desc := "request failed"
			if err != nil {
				desc = err.Error()
			}
			m.span.SetStatus(codes.Error, desc)
		} else {
			m.span.SetStatus(codes.Ok, "")
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}

	attrMap := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		attrMap[string(kv.Key)] = kv.Value.AsInterface()
	}

	fields := log.Fields{
		"event.name":      reportsEventName,
		"event.domain":    reportsEventDomain,
		"severity_text":   severityText,
		"severity_number": severityNumber,
		"attributes":      attrMap,
	}
	if m.span != nil {
		sc := m.span.SpanContext()
		if sc.HasTraceID() {
			fields["trace_id"] = sc.TraceID().String()
		}
		if sc.HasSpanID() {
			fields["span_id"] = sc.SpanID().String()
		}
	}
	if err != nil {
		fields["error"] = err.Error()
	}

	m.logger.WithFields(fields).Info("observability.event")
}

func severityForStatus(status int, err error) (string, int) {
	switch {
	case err != nil || status >= 500:
		return "ERROR", 17
	case status >= 400:
		return "WARN", 13
	default:
		return "INFO", 9
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
