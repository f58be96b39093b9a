// Package logger is a thin zap wrapper with the call shape used across this
// module: a message, an optional error and optional field maps.
//
//	log := logger.NewLoggerClient(logger.Config{Level: "info", ServiceName: "search"})
//	log.Info("[Qdrant] client configured", nil, map[string]interface{}{
//		"endpoint": "http://localhost:6333",
//	})
//
// Entries are JSON with ISO8601 timestamps and a "service" field. The
// *WithContext variants add trace_id and span_id of the active span when
// Config.EnableTracing is set, which ties each qdrant request log line to its
// span.
//
// The qdrant package does not import *Logger directly in its API; it declares
// the four methods it needs and *Logger satisfies them.
//
// # FX Module Integration
//
//	app := fx.New(
//		logger.FXModule, // provides *logger.Logger, syncs on stop
//		fx.Provide(func() logger.Config {
//			return logger.Config{Level: "debug", EnableTracing: true}
//		}),
//	)
//
// # Configuration
//
//	ZAP_LOGGER_LEVEL=debug          # debug, info, warning or error
//	LOGGER_SERVICE_NAME=search
//	LOGGER_ENABLE_TRACING=true
//
// Tests build a logger around an observer core with NewFromZap, or use
// NewNop.
package logger
