// Package alias stores operator-assigned display names for drones.
//
// Aliases are keyed by BLE address and persisted in SQLite. Store keeps an
// in-memory copy so the report path can attach names without touching the
// database on every cycle.
package alias
