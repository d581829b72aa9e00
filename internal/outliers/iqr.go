// Package outliers removes rows whose numeric values fall outside
// interquartile-range bounds.
package outliers

import (
	"math"
	"sort"

	"github.com/spigell/salary-predictor/internal/dataset"
)

// DefaultMultiplier is the conventional Tukey fence width.
const DefaultMultiplier = 1.5

// Bounds is the closed interval a value must fall in to be kept.
type Bounds struct {
	Lower float64
	Upper float64
}

func (b Bounds) Contains(v float64) bool { return v >= b.Lower && v <= b.Upper }

// RemoveIQR keeps the rows whose value lies within
// [Q1 - multiplier*IQR, Q3 + multiplier*IQR]. An empty column name filters on
// every numeric column in lexicographic order, each pass working on the rows
// left by the previous one. Passes repeat until one drops nothing, so filtering
// the result again removes no rows. It returns the filtered frame and the
// number of dropped rows.
func RemoveIQR(f *dataset.Frame, column string, multiplier float64) (*dataset.Frame, int, error) {
	columns := f.NumericColumns()
	if column != "" {
		if _, err := f.Floats(column); err != nil {
			return nil, 0, err
		}
		columns = []string{column}
	}

	initial := f.Len()
	for {
		before := f.Len()
		next, err := filterPass(f, columns, multiplier)
		if err != nil {
			return nil, 0, err
		}
		f = next
		if f.Len() == before || f.Len() == 0 {
			break
		}
	}

	return f, initial - f.Len(), nil
}

func filterPass(f *dataset.Frame, columns []string, multiplier float64) (*dataset.Frame, error) {
	for _, name := range columns {
		if f.Len() == 0 {
			break
		}

		values, err := f.Floats(name)
		if err != nil {
			return nil, err
		}

		bounds := IQRBounds(values, multiplier)
		keep := make([]bool, len(values))
		for i, v := range values {
			keep[i] = bounds.Contains(v)
		}
		f = f.Filter(keep)
	}
	return f, nil
}

// IQRBounds computes the fences over the non-NaN values. Without any such
// value the bounds are NaN and contain nothing.
func IQRBounds(values []float64, multiplier float64) Bounds {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return Bounds{Lower: math.NaN(), Upper: math.NaN()}
	}
	sort.Float64s(sorted)

	q1 := Quantile(sorted, 0.25)
	q3 := Quantile(sorted, 0.75)
	iqr := q3 - q1

	return Bounds{Lower: q1 - multiplier*iqr, Upper: q3 + multiplier*iqr}
}

// Quantile returns the p-quantile of ascending sorted values, interpolating
// linearly between the two closest ranks.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}

	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}
