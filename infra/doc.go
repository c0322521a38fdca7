// Package infra groups the adapters that connect a simulation run to the
// outside world: the zerolog logger, the Prometheus, InfluxDB, MQTT and
// community KPI metrics sinks, and the Sentry error reporter. Adapters
// implement interfaces from the core packages and register themselves by
// name, so the simulation never imports them directly.
package infra
