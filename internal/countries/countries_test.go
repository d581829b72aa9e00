package countries

import (
	"errors"
	"strings"
	"testing"
)

func TestDefaultTable(t *testing.T) {
	t.Parallel()

	table := Default()
	if table.Len() < 200 {
		t.Fatalf("expected a full reference table, got %d entries", table.Len())
	}

	tests := []struct {
		in   string
		want string
	}{
		{in: "US", want: "United States"},
		{in: "gb", want: "United Kingdom"},
		{in: " DE ", want: "Germany"},
		{in: "IN", want: "India"},
		{in: "United States", want: "United States"},
	}

	for _, tt := range tests {
		got, err := table.Name(tt.in)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("%q: expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestUnknownCode(t *testing.T) {
	t.Parallel()

	_, err := Default().Name("ZZ")
	if !errors.Is(err, ErrUnknownCountryCode) {
		t.Fatalf("expected ErrUnknownCountryCode, got %v", err)
	}
}

func TestLoadCustomTable(t *testing.T) {
	t.Parallel()

	table, err := Load(strings.NewReader("code,name\nus,USA\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	got, err := table.Name("US")
	if err != nil || got != "USA" {
		t.Fatalf("expected USA, got %q (%v)", got, err)
	}

	if _, err := Load(strings.NewReader("code,name\n")); err == nil {
		t.Fatalf("expected an error for an empty table")
	}
}
