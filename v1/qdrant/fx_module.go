package qdrant

import (
	"context"
	"sync"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/qdrant-http/v1/logger"
	"github.com/Aleph-Alpha/qdrant-http/v1/metrics"
	"github.com/Aleph-Alpha/qdrant-http/v1/tracer"
)

// FXModule defines the Fx module for the Qdrant REST client.
//
// The module:
//  1. Provides the NewQdrantClient factory function to the dependency injection container.
//  2. Invokes RegisterQdrantLifecycle to log startup and release connections on stop.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    qdrant.FXModule,
//	    fx.Provide(func() *qdrant.Config { return qdrant.DefaultConfig() }),
//	)
//
// Dependencies required by this module:
// - A *qdrant.Config instance must be available in the dependency injection container.
// - *logger.Logger, *metrics.Metrics and *tracer.Tracer are used when present.
var FXModule = fx.Module("qdrant",
	fx.Provide(
		NewQdrantClient,
	),
	fx.Invoke(RegisterQdrantLifecycle),
)

// QdrantParams defines dependencies needed to construct the Qdrant client.
type QdrantParams struct {
	fx.In
	Config  *Config
	Logger  *logger.Logger   `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
	Tracer  *tracer.Tracer   `optional:"true"`
}

// RegisterQdrantLifecycle handles startup/shutdown of the Qdrant client.
func RegisterQdrantLifecycle(lc fx.Lifecycle, client *QdrantClient) {
	var once sync.Once

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			client.logger.Info("[Qdrant] client started", nil, map[string]interface{}{"endpoint": client.baseURL})
			return nil
		},
		OnStop: func(ctx context.Context) error {
			var err error
			once.Do(func() {
				err = client.Close()
				client.logger.Info("[Qdrant] client closed", nil, nil)
			})
			return err
		},
	})
}
