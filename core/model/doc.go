// Package model defines the preference data model shared by every backend.
//
// # Entities
//
// A User holds one Preference per Item. Items compare by ID only and may
// carry a title. Preferences hold a finite value and, for dated sources, a
// timestamp. Users are immutable once built; NewUser sorts preferences by
// item and stamps them with the user ID.
//
// # DataModel
//
// DataModel is the public contract: enumerate and fetch users and items,
// fetch preferences for an item, count, mutate and refresh. Implementations
// live in feature/sqlmodel (database), feature/filemodel (reloading file
// cache) and feature/bulk (static corpus import). Snapshot is the in-memory
// implementation the cache and bulk backends publish.
//
// # Errors
//
// Failures are classified with errors.Is against ErrNotFound,
// ErrInvalidArgument, ErrUnsupported, ErrBackend and ErrExhausted.
// BackendError carries the underlying cause; ParseError names the offending
// input location.
package model
