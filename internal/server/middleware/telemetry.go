package middleware

import (
	"log"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "report-api/internal/server/middleware"

// statusRecorder captures the response status for span and metric attributes.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Telemetry returns middleware that records one span plus request count and
// duration metrics per request, using the global otel providers.
func Telemetry() func(http.Handler) http.Handler {
	tracer := otel.Tracer(instrumentationName)
	meter := otel.Meter(instrumentationName)

	requests, err := meter.Int64Counter("http.server.requests",
		metric.WithDescription("Number of HTTP requests handled"))
	if err != nil {
		log.Printf("telemetry: request counter: %v", err)
	}
	duration, err := meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		log.Printf("telemetry: duration histogram: %v", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.route", r.URL.Path),
				))
			defer span.End()

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r.WithContext(ctx))
			elapsed := time.Since(start).Seconds()

			span.SetAttributes(attribute.Int("http.status_code", rec.status))
			attrs := metric.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.Int("http.status_code", rec.status),
			)
			if requests != nil {
				requests.Add(ctx, 1, attrs)
			}
			if duration != nil {
				duration.Record(ctx, elapsed, attrs)
			}
		})
	}
}
