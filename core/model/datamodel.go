package model

import (
	"context"
	"iter"
)

// DataModel is the contract every preference backend implements.
//
// Enumerations are lazy and single pass: each call to Users or Items starts a
// fresh pass over the backend, and breaking out of the range loop releases
// whatever the pass holds open. Errors met while iterating are yielded
// alongside a nil element and end the sequence.
type DataModel interface {
	// Users enumerates every user with their preferences.
	Users(ctx context.Context) iter.Seq2[*User, error]
	// User returns one user or ErrNotFound.
	User(ctx context.Context, id string) (*User, error)
	// Items enumerates every item that has at least one preference.
	Items(ctx context.Context) iter.Seq2[Item, error]
	// Item returns one item or ErrNotFound. With assumeExists the lookup is
	// skipped and the item is built from id, which may yield an item that
	// does not exist.
	Item(ctx context.Context, id string, assumeExists bool) (Item, error)
	// PreferencesForItem returns every preference expressed for itemID,
	// ordered by user ID.
	PreferencesForItem(ctx context.Context, itemID string) ([]Preference, error)
	// NumUsers counts distinct users.
	NumUsers(ctx context.Context) (int, error)
	// NumItems counts distinct items.
	NumItems(ctx context.Context) (int, error)
	// SetPreference inserts or overwrites the preference for (userID, itemID).
	SetPreference(ctx context.Context, userID, itemID string, value float64) error
	// RemovePreference deletes the preference for (userID, itemID).
	RemovePreference(ctx context.Context, userID, itemID string) error
	// Refresh asks the model to pick up external changes.
	Refresh(ctx context.Context) error
}

// ValidateKeys fails with ErrInvalidArgument when either key is empty.
func ValidateKeys(userID, itemID string) error {
	if userID == "" || itemID == "" {
		return &argError{"user and item ids must not be empty"}
	}
	return nil
}

// ValidatePreference checks keys and value of a mutation before any I/O.
func ValidatePreference(userID, itemID string, value float64) error {
	if err := ValidateKeys(userID, itemID); err != nil {
		return err
	}
	if !IsFinite(value) {
		return &argError{"preference value must be finite"}
	}
	return nil
}

type argError struct{ msg string }

func (e *argError) Error() string        { return "invalid argument: " + e.msg }
func (e *argError) Is(target error) bool { return target == ErrInvalidArgument }

// Collect drains a sequence into a slice, stopping at the first error.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for v, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}
