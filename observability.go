// Copyright 2025 The Starlite Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package starlite

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Recorder observes the request lifecycle around the dispatched handler
// chain. RequestStart may return a derived context (e.g. carrying a span) and
// an opaque state value passed back to RequestEnd. The pattern given to
// RequestEnd is the registered route template, not the concrete request path,
// so cardinality stays bounded.
type Recorder interface {
	RequestStart(ctx context.Context, r *http.Request) (context.Context, any)
	RequestEnd(ctx context.Context, state any, status int, pattern string, duration time.Duration)
}

const otelScope = "github.com/ekeric13/starlite"

// OTelRecorder emits a server span per request plus request count and
// duration instruments through the global OpenTelemetry providers. With no
// SDK installed everything is a no-op.
type OTelRecorder struct {
	tracer   trace.Tracer
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

// NewOTelRecorder builds a recorder on the global tracer and meter providers.
func NewOTelRecorder() *OTelRecorder {
	meter := otel.Meter(otelScope)

	requests, _ := meter.Int64Counter("http.server.request.count",
		metric.WithDescription("Number of dispatched requests."),
	)
	duration, _ := meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("Request handling duration."),
		metric.WithUnit("s"),
	)

	return &OTelRecorder{
		tracer:   otel.Tracer(otelScope),
		requests: requests,
		duration: duration,
	}
}

// otelSpanState carries the open span plus the request method so the span
// can be renamed once the low-cardinality route pattern is known.
type otelSpanState struct {
	span   trace.Span
	method string
}

// RequestStart opens the server span. The span starts out named by method
// only; the raw URL path is an attribute, never the span name, since the
// route pattern is not known until dispatch completes.
func (o *OTelRecorder) RequestStart(ctx context.Context, r *http.Request) (context.Context, any) {
	ctx, span := o.tracer.Start(ctx, r.Method,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.request.method", r.Method),
			attribute.String("url.path", r.URL.Path),
		),
	)
	return ctx, otelSpanState{span: span, method: r.Method}
}

// RequestEnd records the instruments, renames the span to "METHOD pattern"
// and closes it.
func (o *OTelRecorder) RequestEnd(ctx context.Context, state any, status int, pattern string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("http.route", pattern),
		attribute.Int("http.response.status_code", status),
	)
	o.requests.Add(ctx, 1, attrs)
	o.duration.Record(ctx, duration.Seconds(), attrs)

	st, ok := state.(otelSpanState)
	if !ok {
		return
	}
	st.span.SetName(st.method + " " + pattern)
	st.span.SetAttributes(
		attribute.String("http.route", pattern),
		attribute.Int("http.response.status_code", status),
	)
	if status >= http.StatusInternalServerError {
		st.span.SetStatus(codes.Error, http.StatusText(status))
	}
	st.span.End()
}

// PrometheusRecorder collects per-route request counts and latency histograms
// into its own registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPrometheusRecorder builds a recorder with a fresh registry.
//
// Example:
//
//	rec := starlite.NewPrometheusRecorder()
//	app := starlite.MustNew(starlite.WithObservability(rec))
//	app.Any("/metrics", rec.Handler())
func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &PrometheusRecorder{
		registry: registry,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Number of dispatched requests.",
		}, []string{"method", "path", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request handling duration.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// RequestStart remembers the method for RequestEnd.
func (p *PrometheusRecorder) RequestStart(ctx context.Context, r *http.Request) (context.Context, any) {
	return ctx, r.Method
}

// RequestEnd records the request against its route pattern.
func (p *PrometheusRecorder) RequestEnd(ctx context.Context, state any, status int, pattern string, duration time.Duration) {
	method, _ := state.(string)
	p.requests.WithLabelValues(method, pattern, strconv.Itoa(status)).Inc()
	p.duration.WithLabelValues(method, pattern).Observe(duration.Seconds())
}
