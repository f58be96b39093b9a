package tracer

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/qdrant-http/v1/logger"
)

// FXModule provides a Uber FX module that configures distributed tracing for your application.
//
// The module:
// 1. Provides the tracer client built from a tracer.Config and the *logger.Logger
// 2. Registers a shutdown hook that flushes pending spans
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    tracer.FXModule,
//	    fx.Provide(func() tracer.Config { return tracer.Config{ServiceName: "search"} }),
//	)
var FXModule = fx.Module("tracer",
	fx.Provide(
		func(cfg Config, log *logger.Logger) (*Tracer, error) {
			return NewClient(cfg, log)
		},
	),
	fx.Invoke(RegisterTracerLifecycle),
)

// RegisterTracerLifecycle shuts the tracer provider down when the
// application stops, flushing spans still buffered for export.
func RegisterTracerLifecycle(lc fx.Lifecycle, tracer *Tracer) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if tracer.tracer == nil {
				return nil
			}
			tracer.logger.Info("shutting down tracer", nil, nil)
			return tracer.Shutdown(ctx)
		},
	})
}
