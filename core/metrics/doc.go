// Package metrics defines the sinks recording solve runs. Sinks like the
// Prometheus and InfluxDB ones in infra/metrics are built from config
// through a registry and combined with NewMultiSink when several are
// configured. A collector feeds them from the run event bus.
package metrics
