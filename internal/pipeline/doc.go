// Package pipeline runs the sensor's repeating cycle: a scan phase that
// feeds advertisements from a source through the processor into the
// registry, followed by a report phase that drains the registry to sinks.
//
// A heartbeat fires on its own interval during either phase. Prometheus
// metrics and running totals are kept for the status API.
package pipeline
