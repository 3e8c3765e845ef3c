// Package database handles database connections and schema inspection.
//
// It wraps GORM to configure MySQL (production) or SQLite (local runs and
// tests) connections from the application's configuration.
//
// # Connect
//
// Connect opens the configured driver, applies timeouts and pool limits and
// pings the server. SQLite ":memory:" databases are pinned to a single
// connection because every connection would otherwise see its own database.
//
// # Schema Inspection
//
// GetTableColumns lists a table's columns on either dialect; MissingColumns
// is what the SQL data model uses to validate a configured preference table.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	missing, err := database.MissingColumns(db, "taste_preferences", "user_id", "item_id", "preference")
package database
