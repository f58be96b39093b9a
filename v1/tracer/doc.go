// Package tracer provides distributed tracing functionality using OpenTelemetry.
//
// The tracer package wraps an OpenTelemetry TracerProvider behind a small API
// for creating spans, recording errors, setting attributes and propagating
// W3C trace context across service boundaries. The qdrant client opens one
// span per request through it and forwards the trace context as HTTP headers.
//
// Basic Usage:
//
//	import (
//		"github.com/Aleph-Alpha/qdrant-http/v1/logger"
//		"github.com/Aleph-Alpha/qdrant-http/v1/tracer"
//	)
//
//	log := logger.NewLoggerClient(logger.Config{Level: "info"})
//
//	tracerClient, err := tracer.NewClient(tracer.Config{
//		ServiceName:  "my-service",
//		AppEnv:       "development",
//		EnableExport: true,
//	}, log)
//
//	ctx, span := tracerClient.StartSpan(ctx, "process-request")
//	defer span.End()
//
//	tracerClient.SetAttributes(span, map[string]interface{}{"collection": "docs"})
//
// Cross-service propagation:
//
//	headers := tracerClient.GetCarrier(ctx)
//	for k, v := range headers {
//		req.Header.Set(k, v)
//	}
//
// Configuration via environment:
//
//	TRACER_SERVICE_NAME=search
//	APP_ENV=production
//	TRACER_ENABLE_EXPORT=true
//	TRACER_ENDPOINT=http://otel-collector:4318
package tracer
