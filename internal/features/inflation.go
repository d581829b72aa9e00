package features

import (
	"github.com/spigell/salary-predictor/internal/dataset"
)

const (
	// DefaultBaseYear is the year salaries are expressed in after adjustment.
	DefaultBaseYear = 2024
	// USResidence selects the US inflation table.
	USResidence = "United States"
)

// Yearly inflation rates. Years outside the tables contribute 0%.
var (
	USInflationRates     = map[int]float64{2019: 0.0181, 2020: 0.0123, 2021: 0.0470, 2022: 0.065, 2023: 0.034}
	GlobalInflationRates = map[int]float64{2019: 0.0219, 2020: 0.0192, 2021: 0.0350, 2022: 0.088, 2023: 0.070}
)

// InflationIndex compounds the yearly rates from year up to, but excluding,
// baseYear. It is 1 when year >= baseYear.
func InflationIndex(year int, residence string, baseYear int) float64 {
	rates := GlobalInflationRates
	if residence == USResidence {
		rates = USInflationRates
	}

	index := 1.0
	for y := year; y < baseYear; y++ {
		index *= 1 + rates[y]
	}
	return index
}

// AddInflationIndex writes inflation_index for every row.
func AddInflationIndex(f *dataset.Frame, yearField, residenceField string, baseYear int) error {
	if err := f.Require(yearField, residenceField); err != nil {
		return err
	}
	years, err := f.Floats(yearField)
	if err != nil {
		return err
	}
	residence, err := f.Strings(residenceField)
	if err != nil {
		return err
	}

	out := make([]float64, len(years))
	for i, year := range years {
		out[i] = InflationIndex(int(year), residence[i], baseYear)
	}
	return f.SetFloats(dataset.ColInflationIndex, out)
}

// AddInflationAdjustedSalary writes salary_adjusted = salary * inflation_index.
// AddInflationIndex must run first.
func AddInflationAdjustedSalary(f *dataset.Frame, salaryField string) error {
	if err := f.Require(salaryField, dataset.ColInflationIndex); err != nil {
		return err
	}
	salaries, err := f.Floats(salaryField)
	if err != nil {
		return err
	}
	index, err := f.Floats(dataset.ColInflationIndex)
	if err != nil {
		return err
	}

	out := make([]float64, len(salaries))
	for i := range salaries {
		out[i] = salaries[i] * index[i]
	}
	return f.SetFloats(dataset.ColSalaryAdjusted, out)
}
