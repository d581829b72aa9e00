package outliers

import (
	"errors"
	"math"
	"testing"

	"github.com/spigell/salary-predictor/internal/dataset"
)

func frameOf(t *testing.T, columns map[string][]float64) *dataset.Frame {
	t.Helper()

	rows := -1
	for _, values := range columns {
		rows = len(values)
		break
	}
	if rows < 0 {
		rows = 0
	}

	f := dataset.New(rows)
	for name, values := range columns {
		if err := f.SetFloats(name, values); err != nil {
			t.Fatalf("set %q: %v", name, err)
		}
	}
	return f
}

func TestQuantileInterpolates(t *testing.T) {
	t.Parallel()

	sorted := []float64{10, 50, 1000}
	if got := Quantile(sorted, 0.25); got != 30 {
		t.Fatalf("expected Q1 30, got %v", got)
	}
	if got := Quantile(sorted, 0.75); got != 525 {
		t.Fatalf("expected Q3 525, got %v", got)
	}
	if got := Quantile([]float64{7}, 0.75); got != 7 {
		t.Fatalf("expected single value, got %v", got)
	}
}

func TestRemoveIQR(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		columns map[string][]float64
		column  string
		left    int
	}{
		{
			name:    "wide spread keeps every row",
			columns: map[string][]float64{"numeric_column": {10, 1000, 50}},
			column:  "numeric_column",
			left:    3,
		},
		{
			name:    "no outliers",
			columns: map[string][]float64{"numeric_column": {10, 20, 30}},
			column:  "numeric_column",
			left:    3,
		},
		{
			name:    "single far value is dropped",
			columns: map[string][]float64{"salary_in_usd": {10, 20, 30, 40, 1000}},
			column:  "salary_in_usd",
			left:    4,
		},
		{
			name:    "constant column keeps the equal rows",
			columns: map[string][]float64{"numeric_column": {5, 5, 5}},
			column:  "numeric_column",
			left:    3,
		},
		{
			name:    "empty input",
			columns: map[string][]float64{"numeric_column": {}},
			column:  "numeric_column",
			left:    0,
		},
		{
			name: "all numeric columns shrink sequentially",
			columns: map[string][]float64{
				"a": {1, 2, 3, 4, 100, 2},
				"b": {10, 20, 30, 40, 20, 5000},
			},
			left: 4,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := frameOf(t, tt.columns)
			initial := f.Len()

			out, dropped, err := RemoveIQR(f, tt.column, DefaultMultiplier)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.Len() != tt.left {
				t.Fatalf("expected %d rows left, got %d", tt.left, out.Len())
			}
			if dropped != initial-tt.left {
				t.Fatalf("expected %d dropped, got %d", initial-tt.left, dropped)
			}
		})
	}
}

func TestRemoveIQRIsIdempotent(t *testing.T) {
	t.Parallel()

	f := frameOf(t, map[string][]float64{"salary_in_usd": {10, 20, 30, 40, 1000}})

	once, _, err := RemoveIQR(f, "salary_in_usd", DefaultMultiplier)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}

	twice, dropped, err := RemoveIQR(once, "salary_in_usd", DefaultMultiplier)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if dropped != 0 || twice.Len() != once.Len() {
		t.Fatalf("second pass dropped %d rows", dropped)
	}
}

func TestRemoveIQRRepeatsUntilStable(t *testing.T) {
	t.Parallel()

	// A single pass drops 1; the narrower fences then exclude 14.
	f := frameOf(t, map[string][]float64{"x": {47, 32, 39, 36, 26, 1, 14, 33, 40}})

	once, dropped, err := RemoveIQR(f, "x", DefaultMultiplier)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if once.Len() != 7 || dropped != 2 {
		t.Fatalf("expected 7 rows left and 2 dropped, got %d left and %d dropped", once.Len(), dropped)
	}

	values, _ := once.Floats("x")
	for _, v := range values {
		if v == 1 || v == 14 {
			t.Fatalf("expected %v to be removed, got %v", v, values)
		}
	}

	twice, dropped, err := RemoveIQR(once, "x", DefaultMultiplier)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if dropped != 0 || twice.Len() != once.Len() {
		t.Fatalf("second call dropped %d rows", dropped)
	}
}

func TestRemoveIQRDropsNaN(t *testing.T) {
	t.Parallel()

	f := frameOf(t, map[string][]float64{"x": {1, 2, math.NaN(), 3}})
	out, dropped, err := RemoveIQR(f, "x", DefaultMultiplier)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 3 || dropped != 1 {
		t.Fatalf("expected the NaN row dropped, got %d rows", out.Len())
	}
}

func TestRemoveIQRMissingColumn(t *testing.T) {
	t.Parallel()

	f := frameOf(t, map[string][]float64{"x": {1, 2}})
	if _, _, err := RemoveIQR(f, "y", DefaultMultiplier); !errors.Is(err, dataset.ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}
