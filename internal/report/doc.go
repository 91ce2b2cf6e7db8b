// Package report drains the device registry once per cycle and writes what
// changed to the configured output channels.
//
// Every record with an unreported update produces one Detection, written
// to each DetectionSink in registry slot order. The compact channel (a
// mesh radio or its MQTT bridge) gets short human-readable lines instead,
// gated by a single Throttle for the whole channel: when several devices
// update inside one interval, only the first gets a compact report.
package report
