package metrics

import "github.com/kilianp07/tecsched/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr is where the /metrics endpoint listens; empty disables it.
	PrometheusAddr string `json:"prometheus_addr"`
}
