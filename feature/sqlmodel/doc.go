// Package sqlmodel implements the preference data model over a relational
// table of (user, item, preference) rows.
//
// # Reads
//
// Users streams the whole table ordered by user through rows.UserIterator, so
// memory stays bounded by the largest single user. Items streams the distinct
// item column. Point lookups and counts are single queries. Every read goes to
// the database; Refresh is a no-op.
//
// # Writes
//
// SetPreference is an upsert on the (user, item) primary key and
// RemovePreference a plain delete. Keys and values are validated before any
// statement is sent.
//
// # Errors
//
// Driver failures are wrapped in *model.BackendError naming the operation.
// Cursors are closed on every exit path, including early loop exits.
//
// # Schema
//
// EnsureSchema creates the table when absent; ValidateSchema reports missing
// columns using the core/database inspector.
package sqlmodel
