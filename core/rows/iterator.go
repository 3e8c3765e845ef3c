package rows

import (
	"errors"
	"io"
	"iter"

	"prefmodel/core/model"

	"go.uber.org/zap"
)

// UserIterator turns a cursor whose rows are sorted by user ID into a lazy
// sequence of users, holding only one user's rows in memory at a time.
//
// The iterator owns the cursor. It closes it exactly once: when HasNext
// finds no more rows, when a read fails, or when Close is called.
//
// A backend failure closes the cursor, is logged, and makes HasNext report
// false. The failure itself is returned by Next if it happened there and is
// always available from Err, so callers can tell exhaustion from failure.
type UserIterator struct {
	cur     *Peeker
	factory model.Factory
	logger  *zap.Logger
	err     error
}

// NewUserIterator groups the rows of c into users built with f.
func NewUserIterator(c Cursor, f model.Factory, logger *zap.Logger) *UserIterator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserIterator{cur: NewPeeker(c), factory: f, logger: logger}
}

// HasNext reports whether another user can be produced. It does not consume
// input, so repeated calls are idempotent.
func (it *UserIterator) HasNext() bool {
	if it.cur.Closed() {
		return false
	}
	if _, err := it.cur.Peek(); err != nil {
		if errors.Is(err, io.EOF) {
			it.release()
		} else {
			it.fail(err)
		}
		return false
	}
	return true
}

// Next reads the rows of the next user. Rows are accumulated while their user
// ID matches the first row's; the first row of the following user is pushed
// back for the next call.
func (it *UserIterator) Next() (*model.User, error) {
	if it.cur.Closed() {
		return nil, model.ErrExhausted
	}
	first, err := it.cur.Next()
	if errors.Is(err, io.EOF) {
		return nil, model.ErrExhausted
	}
	if err != nil {
		it.fail(err)
		return nil, err
	}

	userID := first.UserID
	var prefs []model.Preference
	r := first
	for {
		if r.UserID != userID {
			it.cur.Unread(r)
			break
		}
		p, err := buildPreference(it.factory, r)
		if err != nil {
			it.fail(err)
			return nil, err
		}
		prefs = append(prefs, p)

		r, err = it.cur.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			it.fail(err)
			return nil, err
		}
	}

	u, err := it.factory.BuildUser(userID, prefs)
	if err != nil {
		it.fail(err)
		return nil, err
	}
	return u, nil
}

// Remove is not supported.
func (it *UserIterator) Remove() error { return model.ErrUnsupported }

// Err returns the failure that ended iteration, if any.
func (it *UserIterator) Err() error { return it.err }

// Close releases the cursor early. Safe to call more than once.
func (it *UserIterator) Close() error {
	it.release()
	return nil
}

// All adapts the iterator to a range-over-func sequence that yields the
// failure, if any, as its final element. Breaking out of the loop closes
// the cursor.
func (it *UserIterator) All() iter.Seq2[*model.User, error] {
	return func(yield func(*model.User, error) bool) {
		defer it.release()
		for it.HasNext() {
			u, err := it.Next()
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(u, nil) {
				return
			}
		}
		if it.err != nil {
			yield(nil, it.err)
		}
	}
}

func (it *UserIterator) fail(err error) {
	it.err = err
	it.logger.Warn("Exception while iterating over users", zap.Error(err))
	it.release()
}

func (it *UserIterator) release() {
	if it.cur.Closed() {
		return
	}
	if err := it.cur.Close(); err != nil {
		it.logger.Warn("Failed to release user cursor", zap.Error(err))
	}
}

// ItemIterator produces one item per row, without grouping.
// It follows the same ownership and error rules as UserIterator.
type ItemIterator struct {
	cur     *Peeker
	factory model.Factory
	logger  *zap.Logger
	err     error
}

// NewItemIterator returns an iterator building items from the ItemID of each row.
func NewItemIterator(c Cursor, f model.Factory, logger *zap.Logger) *ItemIterator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ItemIterator{cur: NewPeeker(c), factory: f, logger: logger}
}

// HasNext reports whether another item can be produced.
func (it *ItemIterator) HasNext() bool {
	if it.cur.Closed() {
		return false
	}
	if _, err := it.cur.Peek(); err != nil {
		if errors.Is(err, io.EOF) {
			it.release()
		} else {
			it.fail(err)
		}
		return false
	}
	return true
}

// Next returns the item of the next row.
func (it *ItemIterator) Next() (model.Item, error) {
	if it.cur.Closed() {
		return model.Item{}, model.ErrExhausted
	}
	r, err := it.cur.Next()
	if errors.Is(err, io.EOF) {
		return model.Item{}, model.ErrExhausted
	}
	if err != nil {
		it.fail(err)
		return model.Item{}, err
	}
	return it.factory.BuildItem(r.ItemID), nil
}

// Remove is not supported.
func (it *ItemIterator) Remove() error { return model.ErrUnsupported }

// Err returns the failure that ended iteration, if any.
func (it *ItemIterator) Err() error { return it.err }

// Close releases the cursor early.
func (it *ItemIterator) Close() error {
	it.release()
	return nil
}

// All adapts the iterator to a range-over-func sequence.
func (it *ItemIterator) All() iter.Seq2[model.Item, error] {
	return func(yield func(model.Item, error) bool) {
		defer it.release()
		for it.HasNext() {
			item, err := it.Next()
			if err != nil {
				yield(model.Item{}, err)
				return
			}
			if !yield(item, nil) {
				return
			}
		}
		if it.err != nil {
			yield(model.Item{}, it.err)
		}
	}
}

func (it *ItemIterator) fail(err error) {
	it.err = err
	it.logger.Warn("Exception while iterating over items", zap.Error(err))
	it.release()
}

func (it *ItemIterator) release() {
	if it.cur.Closed() {
		return
	}
	if err := it.cur.Close(); err != nil {
		it.logger.Warn("Failed to release item cursor", zap.Error(err))
	}
}

func buildPreference(f model.Factory, r Row) (model.Preference, error) {
	p, err := f.BuildPreference("", f.BuildItem(r.ItemID), r.Value)
	if err != nil {
		return model.Preference{}, err
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = r.Timestamp
	}
	return p, nil
}
