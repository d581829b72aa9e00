package dataset

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

var (
	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("missing column")
	// ErrColumnKind is returned when a column is accessed with the wrong type.
	ErrColumnKind = errors.New("unexpected column kind")
	// ErrLength is returned when a column length does not match the frame.
	ErrLength = errors.New("column length mismatch")
)

// Kind is the declared type of a column.
type Kind int

const (
	KindString Kind = iota
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindFloat:
		return "float"
	default:
		return "unknown"
	}
}

type column struct {
	kind    Kind
	strings []string
	floats  []float64
}

func (c *column) clone() *column {
	out := &column{kind: c.kind}
	if c.strings != nil {
		out.strings = append([]string(nil), c.strings...)
	}
	if c.floats != nil {
		out.floats = append([]float64(nil), c.floats...)
	}
	return out
}

// Frame is a table of named, typed columns of equal length. Missing numeric
// values are stored as NaN.
type Frame struct {
	names []string
	cols  map[string]*column
	rows  int
}

// New returns an empty frame with the given number of rows.
func New(rows int) *Frame {
	return &Frame{cols: make(map[string]*column), rows: rows}
}

func (f *Frame) Len() int { return f.rows }

// Names returns the column names in insertion order.
func (f *Frame) Names() []string {
	return append([]string(nil), f.names...)
}

func (f *Frame) Has(name string) bool {
	_, ok := f.cols[name]
	return ok
}

// Require returns ErrMissingColumn naming the first absent column.
func (f *Frame) Require(names ...string) error {
	for _, name := range names {
		if !f.Has(name) {
			return fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
	}
	return nil
}

func (f *Frame) Kind(name string) (Kind, error) {
	c, ok := f.cols[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}
	return c.kind, nil
}

// Strings returns the backing slice of a string column.
func (f *Frame) Strings(name string) ([]string, error) {
	c, ok := f.cols[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}
	if c.kind != KindString {
		return nil, fmt.Errorf("%w: %q is %s", ErrColumnKind, name, c.kind)
	}
	return c.strings, nil
}

// Floats returns the backing slice of a numeric column.
func (f *Frame) Floats(name string) ([]float64, error) {
	c, ok := f.cols[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}
	if c.kind != KindFloat {
		return nil, fmt.Errorf("%w: %q is %s", ErrColumnKind, name, c.kind)
	}
	return c.floats, nil
}

// Text returns every value of a column rendered as a string. Numeric values
// use the shortest decimal form, so 100 renders as "100".
func (f *Frame) Text(name string) ([]string, error) {
	c, ok := f.cols[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}
	if c.kind == KindString {
		return append([]string(nil), c.strings...), nil
	}
	out := make([]string, len(c.floats))
	for i, v := range c.floats {
		out[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return out, nil
}

// SetStrings adds or replaces a string column.
func (f *Frame) SetStrings(name string, values []string) error {
	if len(values) != f.rows {
		return fmt.Errorf("%w: %q has %d values, frame has %d rows", ErrLength, name, len(values), f.rows)
	}
	f.set(name, &column{kind: KindString, strings: values})
	return nil
}

// SetFloats adds or replaces a numeric column.
func (f *Frame) SetFloats(name string, values []float64) error {
	if len(values) != f.rows {
		return fmt.Errorf("%w: %q has %d values, frame has %d rows", ErrLength, name, len(values), f.rows)
	}
	f.set(name, &column{kind: KindFloat, floats: values})
	return nil
}

func (f *Frame) mustSetStrings(name string, values []string) {
	if err := f.SetStrings(name, values); err != nil {
		panic(err)
	}
}

func (f *Frame) mustSetFloats(name string, values []float64) {
	if err := f.SetFloats(name, values); err != nil {
		panic(err)
	}
}

func (f *Frame) set(name string, c *column) {
	if _, ok := f.cols[name]; !ok {
		f.names = append(f.names, name)
	}
	f.cols[name] = c
}

// Drop removes the named columns. Nothing is removed when any of them is absent.
func (f *Frame) Drop(names ...string) error {
	if err := f.Require(names...); err != nil {
		return err
	}

	drop := make(map[string]struct{}, len(names))
	for _, name := range names {
		drop[name] = struct{}{}
		delete(f.cols, name)
	}

	kept := f.names[:0]
	for _, name := range f.names {
		if _, ok := drop[name]; !ok {
			kept = append(kept, name)
		}
	}
	f.names = kept

	return nil
}

// Filter returns a new frame holding the rows where keep is true.
func (f *Frame) Filter(keep []bool) *Frame {
	idx := make([]int, 0, len(keep))
	for i, k := range keep {
		if k {
			idx = append(idx, i)
		}
	}
	return f.Take(idx)
}

// Take returns a new frame holding the given rows in the given order.
func (f *Frame) Take(idx []int) *Frame {
	out := New(len(idx))
	for _, name := range f.names {
		c := f.cols[name]
		nc := &column{kind: c.kind}
		switch c.kind {
		case KindString:
			nc.strings = make([]string, len(idx))
			for i, j := range idx {
				nc.strings[i] = c.strings[j]
			}
		case KindFloat:
			nc.floats = make([]float64, len(idx))
			for i, j := range idx {
				nc.floats[i] = c.floats[j]
			}
		}
		out.set(name, nc)
	}
	return out
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	out := New(f.rows)
	for _, name := range f.names {
		out.set(name, f.cols[name].clone())
	}
	return out
}

// NumericColumns returns the names of numeric columns in lexicographic order.
func (f *Frame) NumericColumns() []string {
	var out []string
	for name, c := range f.cols {
		if c.kind == KindFloat {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Matrix assembles the given numeric columns into row-major feature vectors.
func (f *Frame) Matrix(cols []string) ([][]float64, error) {
	data := make([][]float64, len(cols))
	for j, name := range cols {
		values, err := f.Floats(name)
		if err != nil {
			return nil, err
		}
		data[j] = values
	}

	out := make([][]float64, f.rows)
	for i := range out {
		row := make([]float64, len(cols))
		for j := range cols {
			row[j] = data[j][i]
		}
		out[i] = row
	}
	return out, nil
}
