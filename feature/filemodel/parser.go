package filemodel

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"prefmodel/core/model"
	"prefmodel/core/rows"
)

const maxLineSize = 1 << 20

// lineCursor reads "<user>,<item>,<value>" records. The first empty line ends
// the data. Keys are taken verbatim; only the value is trimmed.
type lineCursor struct {
	src     io.ReadCloser
	scanner *bufio.Scanner
	name    string
	line    int
	done    bool
}

func newLineCursor(name string, src io.ReadCloser) *lineCursor {
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &lineCursor{src: src, scanner: sc, name: name}
}

func (c *lineCursor) Next() (rows.Row, error) {
	if c.done {
		return rows.Row{}, io.EOF
	}
	if !c.scanner.Scan() {
		c.done = true
		if err := c.scanner.Err(); err != nil {
			return rows.Row{}, err
		}
		return rows.Row{}, io.EOF
	}
	c.line++
	text := strings.TrimSuffix(c.scanner.Text(), "\r")
	if text == "" {
		c.done = true
		return rows.Row{}, io.EOF
	}
	r, err := parseLine(text)
	if err != nil {
		return rows.Row{}, &model.ParseError{Source: c.name, Line: c.line, Err: err}
	}
	return r, nil
}

func (c *lineCursor) Close() error {
	return c.src.Close()
}

var errFieldCount = errors.New("expected <user>,<item>,<value>")

func parseLine(line string) (rows.Row, error) {
	userID, rest, ok := strings.Cut(line, ",")
	if !ok {
		return rows.Row{}, errFieldCount
	}
	itemID, raw, ok := strings.Cut(rest, ",")
	if !ok {
		return rows.Row{}, errFieldCount
	}
	if userID == "" || itemID == "" {
		return rows.Row{}, errors.New("empty user or item id")
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return rows.Row{}, fmt.Errorf("bad preference value %q", raw)
	}
	if !model.IsFinite(value) {
		return rows.Row{}, fmt.Errorf("preference value %q is not finite", raw)
	}
	return rows.Row{UserID: userID, ItemID: itemID, Value: value}, nil
}
