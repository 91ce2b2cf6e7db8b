package database

import "errors"

var (
	// ErrNoPath is returned by Open when no database path is configured.
	ErrNoPath = errors.New("database: path is required")

	// ErrMigrationNotFound is returned when an applied migration has no
	// matching file in the embedded filesystem.
	ErrMigrationNotFound = errors.New("database: migration not found")
)
