/*
Package monitoring provides Prometheus metrics for the agent.

Collectors live on a dedicated registry (not the global default) so several
servers or tests can coexist in one process. The registry is exposed at
GET /metrics.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(func(d time.Duration) {
		metrics.RecordStep("navigate", true, d)
	})
	defer timer.Stop()

A nil *Metrics is valid and records nothing.
*/
package monitoring
