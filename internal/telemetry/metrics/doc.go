/*
Package metrics implements Prometheus-based metrics collection for the
tracer's own pipeline: span volume, filter drops, scope lifecycle, and
egress health.

Expose the registry via the standard Prometheus endpoint:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package metrics
