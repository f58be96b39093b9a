// Package metrics exposes Prometheus metrics for services that talk to Qdrant.
//
// Every Metrics value owns its own registry, wrapped so that each series
// carries a constant service="<ServiceName>" label. Two request metrics are
// registered up front and fed by the qdrant client through its
// MetricsRecorder interface:
//
//   - qdrant_requests_total{operation, status}: status is success, invalid or error
//   - qdrant_request_duration_seconds{operation}
//
// "invalid" counts requests rejected locally by validation; they never reach
// the server.
//
// # Direct Usage
//
//	m := metrics.NewMetrics(metrics.Config{Address: ":9090", ServiceName: "search"})
//	go m.Server.ListenAndServe()
//
//	client, _ := qdrant.New(cfg, qdrant.WithMetrics(m))
//
// # FX Module Integration
//
//	app := fx.New(
//		logger.FXModule,
//		metrics.FXModule, // provides *metrics.Metrics and serves /metrics
//		qdrant.FXModule,  // picks *metrics.Metrics up when present
//		fx.Provide(
//			func() metrics.Config { return metrics.Config{ServiceName: "search"} },
//			func() *qdrant.Config { return qdrant.DefaultConfig() },
//		),
//	)
//
// # Configuration
//
//	METRICS_ADDRESS=:9090
//	METRICS_ENABLE_DEFAULT_COLLECTORS=true   # Go runtime, process and build info
//	METRICS_NAMESPACE=search                 # prefix for every metric name
//	METRICS_SERVICE_NAME=search-api
//
// Additional collectors can be registered with CreateCounter, CreateHistogram
// and CreateGauge; they share the service label. Keep label values bounded.
package metrics
