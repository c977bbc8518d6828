// Package store provides the durable inventory of robot controllers and the log of finished backups.
// Both live in a single SQLite database (pure-go modernc driver, WAL mode) accessed through sqlx.
// The robots table has an explicit, versioned column list. When the stored schema version differs
// from the current one the table is recreated from scratch, there is no migration path.
package store
