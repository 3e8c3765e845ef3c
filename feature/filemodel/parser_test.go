package filemodel

import (
	"io"
	"strings"
	"testing"

	"prefmodel/core/model"
	"prefmodel/core/rows"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    rows.Row
		wantErr bool
	}{
		{name: "plain", line: "u1,i1,3.5", want: rows.Row{UserID: "u1", ItemID: "i1", Value: 3.5}},
		{name: "keys keep spaces", line: " u1,i1 , 2", want: rows.Row{UserID: " u1", ItemID: "i1 ", Value: 2}},
		{name: "negative", line: "u1,i1,-1", want: rows.Row{UserID: "u1", ItemID: "i1", Value: -1}},
		{name: "one comma", line: "u1,i1", wantErr: true},
		{name: "no comma", line: "u1", wantErr: true},
		{name: "extra field", line: "u1,i1,3,4", wantErr: true},
		{name: "empty user", line: ",i1,3", wantErr: true},
		{name: "not a number", line: "u1,i1,high", wantErr: true},
		{name: "NaN", line: "u1,i1,NaN", wantErr: true},
		{name: "infinite", line: "u1,i1,+Inf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type closeCounter struct {
	io.Reader
	closes int
}

func (c *closeCounter) Close() error {
	c.closes++
	return nil
}

func TestLineCursor(t *testing.T) {
	src := &closeCounter{Reader: strings.NewReader("u1,i1,1\r\nu1,i2,x\n")}
	c := newLineCursor("prefs.csv", src)

	r, err := c.Next()
	require.NoError(t, err)
	assert.Equal(t, "i1", r.ItemID)

	_, err = c.Next()
	var pe *model.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "prefs.csv", pe.Source)
	assert.Equal(t, 2, pe.Line)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)

	_, err = c.Next()
	assert.ErrorIs(t, err, io.EOF)

	require.NoError(t, c.Close())
	assert.Equal(t, 1, src.closes)
}
