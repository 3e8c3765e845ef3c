package model

// Factory supplies the constructors backends use to turn raw keys and values
// into entities. Nil fields fall back to NewUser, NewItem and NewPreference,
// so the zero value is ready to use.
//
// Backends accept a Factory at construction; use it to attach metadata to
// items, normalize keys, or reject values a deployment does not allow.
type Factory struct {
	User       func(id string, prefs []Preference) (*User, error)
	Item       func(id string) Item
	Preference func(userID string, item Item, value float64) (Preference, error)
}

// BuildUser builds a user.
func (f Factory) BuildUser(id string, prefs []Preference) (*User, error) {
	if f.User != nil {
		return f.User(id, prefs)
	}
	return NewUser(id, prefs)
}

// BuildItem builds an item from its key.
func (f Factory) BuildItem(id string) Item {
	if f.Item != nil {
		return f.Item(id)
	}
	return NewItem(id)
}

// BuildPreference builds a preference. userID may be empty.
func (f Factory) BuildPreference(userID string, item Item, value float64) (Preference, error) {
	if f.Preference != nil {
		return f.Preference(userID, item, value)
	}
	return NewPreference(userID, item, value)
}
