// Package database provides SQLite connectivity for the sensor.
//
// The only persistent state is operator-assigned drone aliases; the device
// registry itself is deliberately in memory. This package manages:
//   - Database connection with WAL mode for concurrent API reads
//   - Embedded, versioned schema migrations
//   - Connection lifecycle and health checks
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files live in the top-level migrations package and are named
// YYYYMMDD_HHMMSS_description.up.sql with a matching .down.sql.
package database
