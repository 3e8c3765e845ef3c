package model

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"
)

// Snapshot is an immutable in-memory DataModel built once from a set of users.
// It is safe for concurrent use without locking. Mutations fail with
// ErrUnsupported and Refresh does nothing.
type Snapshot struct {
	users        []*User
	userMap      map[string]*User
	items        []Item
	itemMap      map[string]Item
	prefsForItem map[string][]Preference
}

var _ DataModel = (*Snapshot)(nil)

// NewSnapshot indexes users by ID, collects their items and groups their
// preferences per item. A later user with a duplicate ID replaces an earlier one.
func NewSnapshot(users []*User) *Snapshot {
	s := &Snapshot{
		userMap:      make(map[string]*User, len(users)),
		itemMap:      make(map[string]Item),
		prefsForItem: make(map[string][]Preference),
	}
	for _, u := range users {
		if u == nil {
			continue
		}
		s.userMap[u.ID()] = u
	}

	s.users = make([]*User, 0, len(s.userMap))
	for _, u := range s.userMap {
		s.users = append(s.users, u)
		for _, p := range u.prefs {
			if _, ok := s.itemMap[p.Item.ID]; !ok {
				s.itemMap[p.Item.ID] = p.Item
			}
			s.prefsForItem[p.Item.ID] = append(s.prefsForItem[p.Item.ID], p)
		}
	}
	slices.SortFunc(s.users, func(a, b *User) int { return a.Compare(b) })

	s.items = make([]Item, 0, len(s.itemMap))
	for _, it := range s.itemMap {
		s.items = append(s.items, it)
	}
	slices.SortFunc(s.items, func(a, b Item) int { return a.Compare(b) })

	for id, prefs := range s.prefsForItem {
		slices.SortFunc(prefs, func(a, b Preference) int { return strings.Compare(a.UserID, b.UserID) })
		s.prefsForItem[id] = prefs
	}
	return s
}

// Users yields users in ID order.
func (s *Snapshot) Users(ctx context.Context) iter.Seq2[*User, error] {
	return func(yield func(*User, error) bool) {
		for _, u := range s.users {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !yield(u, nil) {
				return
			}
		}
	}
}

// User returns the user with id or ErrNotFound.
func (s *Snapshot) User(_ context.Context, id string) (*User, error) {
	u, ok := s.userMap[id]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", id, ErrNotFound)
	}
	return u, nil
}

// Items yields items in ID order.
func (s *Snapshot) Items(ctx context.Context) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		for _, it := range s.items {
			if err := ctx.Err(); err != nil {
				yield(Item{}, err)
				return
			}
			if !yield(it, nil) {
				return
			}
		}
	}
}

// Item returns the indexed item. With assumeExists an unknown id still
// yields an item built from the key.
func (s *Snapshot) Item(_ context.Context, id string, assumeExists bool) (Item, error) {
	if it, ok := s.itemMap[id]; ok {
		return it, nil
	}
	if assumeExists {
		return NewItem(id), nil
	}
	return Item{}, fmt.Errorf("item %q: %w", id, ErrNotFound)
}

// PreferencesForItem returns a copy of the item's preferences ordered by user.
// An unknown item yields an empty list.
func (s *Snapshot) PreferencesForItem(_ context.Context, itemID string) ([]Preference, error) {
	return slices.Clone(s.prefsForItem[itemID]), nil
}

// NumUsers returns the number of users.
func (s *Snapshot) NumUsers(context.Context) (int, error) { return len(s.users), nil }

// NumItems returns the number of items.
func (s *Snapshot) NumItems(context.Context) (int, error) { return len(s.items), nil }

// SetPreference is not supported.
func (s *Snapshot) SetPreference(context.Context, string, string, float64) error {
	return ErrUnsupported
}

// RemovePreference is not supported.
func (s *Snapshot) RemovePreference(context.Context, string, string) error {
	return ErrUnsupported
}

// Refresh does nothing; a snapshot never changes.
func (s *Snapshot) Refresh(context.Context) error { return nil }

// Len returns the number of users without a context.
func (s *Snapshot) Len() int { return len(s.users) }
