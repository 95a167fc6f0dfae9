// Package database provides SQLite connectivity for the counter service.
//
// It opens the database file with WAL mode and a busy timeout, and applies
// the embedded schema migrations that create the counter state and history
// tables used by the state store.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{
//	    Path:        cfg.Database.Path,
//	    WALMode:     cfg.Database.WALMode,
//	    BusyTimeout: cfg.Database.BusyTimeout,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migrations are additive: new columns must be nullable or carry a default,
// and every .up.sql file has a matching .down.sql file.
package database
