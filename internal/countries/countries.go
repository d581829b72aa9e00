// Package countries resolves ISO 3166-1 alpha-2 codes to canonical short
// country names using a reference table.
package countries

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gocarina/gocsv"
)

// ErrUnknownCountryCode is returned for values that are neither a known code
// nor a canonical name.
var ErrUnknownCountryCode = errors.New("unknown country code")

//go:embed countries.csv
var embedded []byte

type entry struct {
	Code string `csv:"code"`
	Name string `csv:"name"`
}

// Table maps country codes to names.
type Table struct {
	byCode map[string]string
	names  map[string]struct{}
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the built-in reference table.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Load(bytes.NewReader(embedded))
		if err != nil {
			panic(fmt.Sprintf("embedded country table: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

// Load reads a code,name CSV table.
func Load(r io.Reader) (*Table, error) {
	var entries []entry
	if err := gocsv.Unmarshal(r, &entries); err != nil {
		return nil, fmt.Errorf("parse country table: %w", err)
	}

	t := &Table{
		byCode: make(map[string]string, len(entries)),
		names:  make(map[string]struct{}, len(entries)),
	}
	for i, e := range entries {
		code := strings.ToUpper(strings.TrimSpace(e.Code))
		name := strings.TrimSpace(e.Name)
		if code == "" || name == "" {
			return nil, fmt.Errorf("country table row %d: code and name are required", i+1)
		}
		t.byCode[code] = name
		t.names[name] = struct{}{}
	}

	if len(t.byCode) == 0 {
		return nil, errors.New("country table is empty")
	}

	return t, nil
}

func (t *Table) Len() int { return len(t.byCode) }

// Name resolves a code (case-insensitive) to its canonical name. A value that
// already is a canonical name is returned unchanged.
func (t *Table) Name(value string) (string, error) {
	v := strings.TrimSpace(value)
	if name, ok := t.byCode[strings.ToUpper(v)]; ok {
		return name, nil
	}
	if _, ok := t.names[v]; ok {
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCountryCode, value)
}
