package sqlmodel

import (
	"database/sql"
	"fmt"
	"io"

	"prefmodel/core/rows"
	"prefmodel/core/utils"
)

// sqlCursor adapts *sql.Rows to rows.Cursor. scan decodes the current row.
type sqlCursor struct {
	rs   *sql.Rows
	scan func(*sql.Rows) (rows.Row, error)
}

func (c *sqlCursor) Next() (rows.Row, error) {
	if !c.rs.Next() {
		if err := c.rs.Err(); err != nil {
			return rows.Row{}, err
		}
		return rows.Row{}, io.EOF
	}
	return c.scan(c.rs)
}

func (c *sqlCursor) Close() error {
	return c.rs.Close()
}

// scanPreference reads (item, preference, user) rows.
func scanPreference(rs *sql.Rows) (rows.Row, error) {
	var item, value, user any
	if err := rs.Scan(&item, &value, &user); err != nil {
		return rows.Row{}, err
	}
	v, err := utils.ToFloat(value)
	if err != nil {
		return rows.Row{}, fmt.Errorf("preference for item %v: %w", item, err)
	}
	return rows.Row{UserID: utils.ToString(user), ItemID: utils.ToString(item), Value: v}, nil
}

// scanItem reads single-column item rows.
func scanItem(rs *sql.Rows) (rows.Row, error) {
	var item any
	if err := rs.Scan(&item); err != nil {
		return rows.Row{}, err
	}
	return rows.Row{ItemID: utils.ToString(item)}, nil
}
