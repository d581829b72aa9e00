package features

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/spigell/salary-predictor/internal/artifact"
	"github.com/spigell/salary-predictor/internal/dataset"
)

// AddSalaryDensity writes the z-score of each salary within its group to
// outputField. The group field may be a string column or a numeric one.
// Groups with fewer than two salaries or zero spread get 0, as do rows whose
// group key is NaN.
func AddSalaryDensity(f *dataset.Frame, salaryField, groupField, outputField string) error {
	if err := f.Require(salaryField, groupField); err != nil {
		return err
	}
	salaries, err := f.Floats(salaryField)
	if err != nil {
		return err
	}
	keys, err := groupKeys(f, groupField)
	if err != nil {
		return err
	}

	type moments struct{ mean, std float64 }
	groupStats := make(map[string]moments)
	for key, values := range groupValues(keys, salaries) {
		if key == nanKey || len(values) < 2 {
			continue
		}
		mean, err := stats.Mean(values)
		if err != nil {
			continue
		}
		std, err := stats.StandardDeviationSample(values)
		if err != nil || std == 0 || math.IsNaN(std) {
			continue
		}
		groupStats[key] = moments{mean: mean, std: std}
	}

	out := make([]float64, len(salaries))
	for i, key := range keys {
		m, ok := groupStats[key]
		if !ok {
			continue
		}
		z := (salaries[i] - m.mean) / m.std
		if math.IsNaN(z) || math.IsInf(z, 0) {
			continue
		}
		out[i] = z
	}
	return f.SetFloats(outputField, out)
}

const nanKey = "\x00nan"

func groupKeys(f *dataset.Frame, field string) ([]string, error) {
	kind, err := f.Kind(field)
	if err != nil {
		return nil, err
	}
	if kind == dataset.KindString {
		return f.Strings(field)
	}

	values, err := f.Floats(field)
	if err != nil {
		return nil, err
	}
	keys, err := f.Text(field)
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		if math.IsNaN(v) {
			keys[i] = nanKey
		}
	}
	return keys, nil
}

// DensityTable maps a job title to its mean salary density over the training
// set. It is persisted as a JSON object.
type DensityTable map[string]float64

// Lookup returns the density of a job title, or 0 when the title is unseen.
func (t DensityTable) Lookup(job string) float64 {
	return t[job]
}

// BuildDensityTable averages densityField per job title.
func BuildDensityTable(f *dataset.Frame, jobField, densityField string) (DensityTable, error) {
	if err := f.Require(jobField, densityField); err != nil {
		return nil, err
	}
	jobs, err := f.Text(jobField)
	if err != nil {
		return nil, err
	}
	density, err := f.Floats(densityField)
	if err != nil {
		return nil, err
	}

	table := make(DensityTable)
	for job, values := range groupValues(jobs, density) {
		mean, err := stats.Mean(values)
		if err != nil {
			continue
		}
		table[job] = mean
	}
	return table, nil
}

// SaveSalaryDensityByJob builds the density table and persists it at path.
func SaveSalaryDensityByJob(f *dataset.Frame, jobField, densityField string, store *artifact.Store, path string) (DensityTable, error) {
	table, err := BuildDensityTable(f, jobField, densityField)
	if err != nil {
		return nil, err
	}
	if err := store.Save(path, table); err != nil {
		return nil, fmt.Errorf("save density table: %w", err)
	}
	return table, nil
}

// LoadDensityTable reads a persisted density table. Errors match
// artifact.ErrMissing or artifact.ErrLoad.
func LoadDensityTable(store *artifact.Store, path string) (DensityTable, error) {
	var table DensityTable
	if _, err := store.Load(path, &table); err != nil {
		return nil, fmt.Errorf("load density table: %w", err)
	}
	if table == nil {
		table = DensityTable{}
	}
	return table, nil
}

// MapJobDensityFromTable writes salary_density from an already loaded table.
func MapJobDensityFromTable(f *dataset.Frame, jobField string, table DensityTable) error {
	jobs, err := f.Text(jobField)
	if err != nil {
		return err
	}

	out := make([]float64, len(jobs))
	for i, job := range jobs {
		out[i] = table.Lookup(job)
	}
	return f.SetFloats(dataset.ColSalaryDensity, out)
}

// MapJobDensity loads the density table at path and applies it.
func MapJobDensity(f *dataset.Frame, jobField string, store *artifact.Store, path string) error {
	table, err := LoadDensityTable(store, path)
	if err != nil {
		return err
	}
	return MapJobDensityFromTable(f, jobField, table)
}
