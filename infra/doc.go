// Package infra contains technical adapters: the bundled solver strategies,
// the Badger instance cache, Prometheus and InfluxDB metric sinks, the MQTT
// run notifier and the Sentry monitor. These packages should depend only on
// the interfaces defined in the core packages.
package infra
