/*
Package observability turns engine lifecycle hooks into Prometheus metrics.

Metrics registers its collectors on a prometheus.Registerer and exposes a
domain.LifecycleHooks value; Combine fans one set of hooks out to several
consumers, so metrics and structured logging can observe the same run.
*/
package observability
