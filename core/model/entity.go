package model

import (
	"fmt"
	"iter"
	"math"
	"slices"
	"strings"
	"time"
)

// Item is something that can be rated.
// Equality and ordering depend on ID only.
type Item struct {
	ID string `json:"id"`
	// Title is optional display metadata.
	Title string `json:"title,omitempty"`
	// Recommendable is false for items that may be rated but never recommended.
	Recommendable bool `json:"recommendable"`
}

// NewItem returns a recommendable item without metadata.
func NewItem(id string) Item {
	return Item{ID: id, Recommendable: true}
}

// Equal reports whether both items share the same ID.
func (i Item) Equal(o Item) bool { return i.ID == o.ID }

// Compare orders items by ID.
func (i Item) Compare(o Item) int { return strings.Compare(i.ID, o.ID) }

func (i Item) String() string { return "Item[id:" + i.ID + "]" }

// Preference associates a user, an item and a value.
type Preference struct {
	// UserID is empty until the owning User is built.
	UserID string    `json:"user_id"`
	Item   Item      `json:"item"`
	Value  float64   `json:"value"`
	// Timestamp is zero when the source carries no date.
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// NewPreference validates and builds a preference.
func NewPreference(userID string, item Item, value float64) (Preference, error) {
	if item.ID == "" {
		return Preference{}, fmt.Errorf("%w: preference without item", ErrInvalidArgument)
	}
	if !IsFinite(value) {
		return Preference{}, fmt.Errorf("%w: preference value %v", ErrInvalidArgument, value)
	}
	return Preference{UserID: userID, Item: item, Value: value}, nil
}

func (p Preference) String() string {
	return fmt.Sprintf("Preference[user:%s, item:%s, value:%v]", p.UserID, p.Item.ID, p.Value)
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// User holds one preference per item. It is immutable once built.
type User struct {
	id     string
	prefs  []Preference
	byItem map[string]int
}

// NewUser builds a user from prefs. Each preference is stamped with id and the
// list is sorted by item ID. When an item appears more than once the last
// value wins.
func NewUser(id string, prefs []Preference) (*User, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrInvalidArgument)
	}
	byItem := make(map[string]int, len(prefs))
	out := make([]Preference, 0, len(prefs))
	for _, p := range prefs {
		if p.Item.ID == "" {
			return nil, fmt.Errorf("%w: user %s has a preference without item", ErrInvalidArgument, id)
		}
		if !IsFinite(p.Value) {
			return nil, fmt.Errorf("%w: user %s item %s value %v", ErrInvalidArgument, id, p.Item.ID, p.Value)
		}
		p.UserID = id
		if idx, ok := byItem[p.Item.ID]; ok {
			out[idx] = p
			continue
		}
		byItem[p.Item.ID] = len(out)
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Preference) int { return a.Item.Compare(b.Item) })
	for i, p := range out {
		byItem[p.Item.ID] = i
	}
	return &User{id: id, prefs: out, byItem: byItem}, nil
}

// ID returns the user key.
func (u *User) ID() string { return u.id }

// Len returns the number of preferences.
func (u *User) Len() int { return len(u.prefs) }

// Preferences returns a copy of the preferences sorted by item ID.
func (u *User) Preferences() []Preference {
	return slices.Clone(u.prefs)
}

// All iterates the preferences in item order without copying.
func (u *User) All() iter.Seq[Preference] {
	return func(yield func(Preference) bool) {
		for _, p := range u.prefs {
			if !yield(p) {
				return
			}
		}
	}
}

// PreferenceFor returns the preference for itemID, if any.
func (u *User) PreferenceFor(itemID string) (Preference, bool) {
	idx, ok := u.byItem[itemID]
	if !ok {
		return Preference{}, false
	}
	return u.prefs[idx], true
}

// Compare orders users by ID.
func (u *User) Compare(o *User) int { return strings.Compare(u.id, o.id) }

func (u *User) String() string { return "User[id:" + u.id + "]" }
