package rows

import (
	"io"
	"time"
)

// Row is one raw (user, item, value) record read from a backend.
// Item enumeration cursors only fill ItemID.
type Row struct {
	UserID    string
	ItemID    string
	Value     float64
	Timestamp time.Time
}

// Cursor is a forward-only read handle over backend rows.
// Next returns io.EOF once no rows remain. Close releases the backend resource.
type Cursor interface {
	Next() (Row, error)
	Close() error
}

// Peeker adds a one-row pushback buffer to any Cursor so grouping can look
// ahead without relying on positional seeks. Close is idempotent.
type Peeker struct {
	cur    Cursor
	buf    Row
	has    bool
	eof    bool
	closed bool
}

// NewPeeker wraps c.
func NewPeeker(c Cursor) *Peeker {
	return &Peeker{cur: c}
}

// Next returns the pushed-back row if there is one, otherwise reads from the cursor.
func (p *Peeker) Next() (Row, error) {
	if p.has {
		p.has = false
		return p.buf, nil
	}
	if p.closed || p.eof {
		return Row{}, io.EOF
	}
	r, err := p.cur.Next()
	if err == io.EOF {
		p.eof = true
	}
	return r, err
}

// Peek returns the next row without consuming it.
func (p *Peeker) Peek() (Row, error) {
	r, err := p.Next()
	if err != nil {
		return Row{}, err
	}
	p.Unread(r)
	return r, nil
}

// Unread pushes r back. Only one row can be held; a second Unread replaces it.
func (p *Peeker) Unread(r Row) {
	p.buf = r
	p.has = true
}

// Close releases the underlying cursor once. Later calls return nil.
func (p *Peeker) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	p.has = false
	return p.cur.Close()
}

// Closed reports whether Close has run.
func (p *Peeker) Closed() bool { return p.closed }

// SliceCursor serves rows from memory.
type SliceCursor struct {
	rows   []Row
	pos    int
	closed int
}

// NewSliceCursor returns a cursor over rows.
func NewSliceCursor(rows []Row) *SliceCursor {
	return &SliceCursor{rows: rows}
}

// Next returns the next row or io.EOF.
func (c *SliceCursor) Next() (Row, error) {
	if c.pos >= len(c.rows) {
		return Row{}, io.EOF
	}
	r := c.rows[c.pos]
	c.pos++
	return r, nil
}

// Close records the call; it never fails.
func (c *SliceCursor) Close() error {
	c.closed++
	return nil
}

// CloseCount reports how many times Close was called.
func (c *SliceCursor) CloseCount() int { return c.closed }
