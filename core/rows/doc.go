// Package rows turns backend row cursors into users and items.
//
// # Cursor
//
// A Cursor is a forward-only handle over (user, item, value) rows: a
// database result set, a file line reader or an in-memory slice. Peeker adds
// a one-row pushback buffer so grouping can look ahead on any of them.
//
// # Iterators
//
// UserIterator groups contiguous rows that share a user ID into one User,
// lazily. Rows must arrive sorted by user ID; the iterator does not re-sort.
// ItemIterator yields one Item per row. Both own their cursor and release it
// exactly once.
//
// GroupAll is the in-memory alternative for sources that are not sorted.
package rows
