// Package normalize rewrites raw categorical codes into the labels the
// feature engine and the model are trained on.
package normalize

import (
	"fmt"

	"github.com/spigell/salary-predictor/internal/dataset"
)

// CountryLookup resolves a country code or name to its canonical name.
type CountryLookup interface {
	Name(value string) (string, error)
}

// Fixed code->label dictionaries. remote_ratio keys are the decimal text of
// the ratio.
var (
	ExperienceLevels = map[string]string{"EN": "Entry Level", "MI": "Mid Level", "EX": "Expert Level", "SE": "Senior Level"}
	EmploymentTypes  = map[string]string{"PT": "Part Time", "FT": "Full Time", "CT": "Contractual", "FL": "Freelance"}
	CompanySizes     = map[string]string{"M": "Medium", "L": "Large", "S": "Small"}
	RemoteRatios     = map[string]string{"100": "Fully Remote", "0": "Non Remote Work", "50": "Partially Remote"}
)

// DefaultDropColumns are removed before modeling.
var DefaultDropColumns = []string{dataset.ColSalaryCurrency, dataset.ColSalary}

// ConvertCountryCodes replaces country codes in both fields with canonical
// names. The frame is left untouched when any value cannot be resolved.
func ConvertCountryCodes(f *dataset.Frame, lookup CountryLookup, residenceField, locationField string) error {
	converted := make(map[string][]string, 2)
	for _, field := range []string{residenceField, locationField} {
		values, err := f.Strings(field)
		if err != nil {
			return err
		}

		out := make([]string, len(values))
		for i, v := range values {
			name, err := lookup.Name(v)
			if err != nil {
				return fmt.Errorf("%s row %d: %w", field, i, err)
			}
			out[i] = name
		}
		converted[field] = out
	}

	for field, values := range converted {
		if err := f.SetStrings(field, values); err != nil {
			return err
		}
	}
	return nil
}

// ExpandAbbreviations relabels experience level, employment type, company
// size and remote ratio. Codes without a label are kept as they are.
func ExpandAbbreviations(f *dataset.Frame) error {
	dictionaries := []struct {
		column string
		labels map[string]string
	}{
		{dataset.ColExperienceLevel, ExperienceLevels},
		{dataset.ColEmploymentType, EmploymentTypes},
		{dataset.ColCompanySize, CompanySizes},
		{dataset.ColRemoteRatio, RemoteRatios},
	}

	if err := f.Require(dataset.ColExperienceLevel, dataset.ColEmploymentType, dataset.ColCompanySize, dataset.ColRemoteRatio); err != nil {
		return err
	}

	for _, d := range dictionaries {
		values, err := f.Text(d.column)
		if err != nil {
			return err
		}
		for i, v := range values {
			if label, ok := d.labels[v]; ok {
				values[i] = label
			}
		}
		if err := f.SetStrings(d.column, values); err != nil {
			return err
		}
	}
	return nil
}

// DropColumns removes the given columns, DefaultDropColumns when none are
// given. Absent columns fail the call unless listed as optional.
func DropColumns(f *dataset.Frame, columns []string, optional ...string) error {
	if columns == nil {
		columns = DefaultDropColumns
	}

	skip := make(map[string]struct{}, len(optional))
	for _, name := range optional {
		skip[name] = struct{}{}
	}

	present := make([]string, 0, len(columns))
	for _, name := range columns {
		if f.Has(name) {
			present = append(present, name)
			continue
		}
		if _, ok := skip[name]; !ok {
			return fmt.Errorf("drop: %w: %q", dataset.ErrMissingColumn, name)
		}
	}

	return f.Drop(present...)
}
