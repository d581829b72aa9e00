// Package labelenc maps categorical column values to integer codes that stay
// fixed between training and serving.
package labelenc

import (
	"fmt"
	"sort"

	"github.com/spigell/salary-predictor/internal/dataset"
)

// Unseen is the code assigned to values that were not present at fit time.
const Unseen = -1

// Encoder assigns codes 0..k-1 to the sorted distinct values it was fitted on.
type Encoder struct {
	Classes []string `json:"classes"`
}

// Fit builds an encoder from the distinct values.
func Fit(values []string) *Encoder {
	seen := make(map[string]struct{}, len(values))
	classes := make([]string, 0)
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		classes = append(classes, v)
	}
	sort.Strings(classes)

	return &Encoder{Classes: classes}
}

// Code returns the code for value, or Unseen.
func (e *Encoder) Code(value string) int {
	i := sort.SearchStrings(e.Classes, value)
	if i < len(e.Classes) && e.Classes[i] == value {
		return i
	}
	return Unseen
}

// Transform encodes values.
func (e *Encoder) Transform(values []string) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(e.Code(v))
	}
	return out
}

// Set holds one encoder per categorical column. It is persisted as a JSON
// object keyed by column name.
type Set map[string]*Encoder

// FitTransform fits an encoder for every column and replaces the column with
// its numeric codes.
func FitTransform(f *dataset.Frame, columns []string) (Set, error) {
	set := make(Set, len(columns))
	for _, column := range columns {
		values, err := f.Text(column)
		if err != nil {
			return nil, err
		}
		set[column] = Fit(values)
	}

	if err := set.Transform(f, columns); err != nil {
		return nil, err
	}
	return set, nil
}

// Transform replaces every column with its codes using the fitted encoders.
// The frame is left untouched when an encoder or column is missing.
func (s Set) Transform(f *dataset.Frame, columns []string) error {
	encoded := make([][]float64, len(columns))
	for i, column := range columns {
		enc, ok := s[column]
		if !ok {
			return fmt.Errorf("no label encoder for column %q", column)
		}
		values, err := f.Text(column)
		if err != nil {
			return err
		}
		encoded[i] = enc.Transform(values)
	}

	for i, column := range columns {
		if err := f.SetFloats(column, encoded[i]); err != nil {
			return err
		}
	}
	return nil
}
