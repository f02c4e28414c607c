package api

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName        = "kanban-board/api"
	boardEventName    = "kanban.board.operation"
	boardEventDomain  = "kanban.board"
	observabilityName = "observability.event"
)

// operationMetrics records one board operation as a span and a structured
// log line.
type operationMetrics struct {
	logger    *log.Logger
	span      trace.Span
	start     time.Time
	operation string
	version   uint64
	count     int
}

func newOperationMetrics(ctx context.Context, logger *log.Logger, operation string) (*operationMetrics, context.Context) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "board."+operation,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("graphql.operation", operation)),
	)
	return &operationMetrics{
		logger:    logger,
		span:      span,
		start:     time.Now(),
		operation: operation,
	}, ctx
}

func (m *operationMetrics) SetVersion(v uint64) { m.version = v }

// SetCount records how many items a query returned.
func (m *operationMetrics) SetCount(n int) {
	if n < 0 {
		n = 0
	}
	m.count = n
}

// Log ends the span. status is the operation result code; err is a failure
// that never produced one.
func (m *operationMetrics) Log(status int, err error) {
	if m == nil {
		return
	}
	if err != nil && status == 0 {
		status = http.StatusInternalServerError
	}
	severityText, severityNumber := severityForStatus(status, err)
	totalMS := durationToMillis(time.Since(m.start))

	attrs := []attribute.KeyValue{
		attribute.String("graphql.operation", m.operation),
		attribute.Int("kanban.board.status_code", status),
		attribute.Float64("kanban.board.total_ms", totalMS),
		attribute.Int64("kanban.board.version", int64(m.version)),
	}
	if m.count > 0 {
		attrs = append(attrs, attribute.Int("kanban.board.items", m.count))
	}
	if err != nil {
		attrs = append(attrs, attribute.String("error.message", err.Error()))
	}

	if m.span != nil {
		m.span.SetAttributes(attrs...)
		eventAttrs := append([]attribute.KeyValue{
			attribute.String("event.name", boardEventName),
			attribute.String("event.domain", boardEventDomain),
			attribute.String("severity_text", severityText),
			attribute.Int("severity_number", severityNumber),
		}, attrs...)
		m.span.AddEvent(observabilityName, trace.WithAttributes(eventAttrs...))
		if err != nil || status >= http.StatusInternalServerError {
			desc := http.StatusText(status)
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
	logged := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		logged[string(kv.Key)] = kv.Value.AsInterface()
	}
	fields := log.Fields{
		"event.name":      boardEventName,
		"event.domain":    boardEventDomain,
		"attributes":      logged,
		"severity_text":   severityText,
		"severity_number": severityNumber,
	}
	if m.span != nil {
		if sc := m.span.SpanContext(); sc.IsValid() {
			fields["trace_id"] = sc.TraceID().String()
			fields["span_id"] = sc.SpanID().String()
		}
	}
	entry := m.logger.WithFields(fields)
	switch severityText {
	case "ERROR":
		entry.Error(observabilityName)
	case "WARN":
		entry.Warn(observabilityName)
	default:
		entry.Info(observabilityName)
	}
}

// severityForStatus maps a result code to OpenTelemetry log severity.
func severityForStatus(status int, err error) (string, int) {
	switch {
	case err != nil || status >= http.StatusInternalServerError:
		return "ERROR", 17
	case status >= http.StatusBadRequest:
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
