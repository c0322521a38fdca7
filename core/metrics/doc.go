// Package metrics defines the sinks that observe a simulation run. Sinks like
// PromSink, InfluxSink and the MQTT telemetry publisher record hourly
// community totals and, when they implement RunRecorder, the run summary.
// The factory helpers return a MultiSink automatically when multiple sinks are
// configured.
package metrics
