/*
Package observability provides Prometheus metrics for node calls.

Metrics attach to the engine through lifecycle hooks:

	m := observability.NewMetrics(prometheus.DefaultRegisterer)
	eng, err := lathe.New(lathe.WithLifecycleHooks(m.Hooks()))

The HTTP server exposes the collected values on /metrics.
*/
package observability
