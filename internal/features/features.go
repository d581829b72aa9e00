// Package features derives the engineered columns the salary model is
// trained on.
package features

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/spigell/salary-predictor/internal/dataset"
)

// FeatureColumns is the ordered model input.
var FeatureColumns = []string{
	dataset.ColExperienceLevel,
	dataset.ColEmploymentType,
	dataset.ColJobTitle,
	dataset.ColEmployeeResidence,
	dataset.ColRemoteRatio,
	dataset.ColCompanyLocation,
	dataset.ColCompanySize,
	dataset.ColWorkYear,
	dataset.ColYearsOfExperience,
	dataset.ColIsLocalEmployee,
	dataset.ColInflationIndex,
	dataset.ColSalaryDensity,
}

// CategoricalColumns are label-encoded before they reach the model.
var CategoricalColumns = FeatureColumns[:7:7]

var experienceYears = map[string]int{
	"Entry Level":  1,
	"Mid Level":    4,
	"Expert Level": 8,
	"Senior Level": 10,
}

// MapExperienceLevel returns the approximate years of experience for an
// expanded experience label. ok is false for any other label.
func MapExperienceLevel(label string) (years int, ok bool) {
	years, ok = experienceYears[label]
	return years, ok
}

// AddYearsOfExperience writes years_of_experience. Unknown levels become NaN.
func AddYearsOfExperience(f *dataset.Frame, levelField string) error {
	levels, err := f.Strings(levelField)
	if err != nil {
		return err
	}

	out := make([]float64, len(levels))
	for i, level := range levels {
		if years, ok := MapExperienceLevel(level); ok {
			out[i] = float64(years)
		} else {
			out[i] = math.NaN()
		}
	}
	return f.SetFloats(dataset.ColYearsOfExperience, out)
}

// AddLocalEmployeeFlag writes is_local_employee: 1 when residence and
// location are equal, 0 otherwise.
func AddLocalEmployeeFlag(f *dataset.Frame, residenceField, locationField string) error {
	if err := f.Require(residenceField, locationField); err != nil {
		return err
	}
	residence, err := f.Text(residenceField)
	if err != nil {
		return err
	}
	location, err := f.Text(locationField)
	if err != nil {
		return err
	}

	out := make([]float64, len(residence))
	for i := range residence {
		if residence[i] == location[i] {
			out[i] = 1
		}
	}
	return f.SetFloats(dataset.ColIsLocalEmployee, out)
}

// AddJobTitleFrequency writes job_title_frequency, the number of rows sharing
// the row's job title.
func AddJobTitleFrequency(f *dataset.Frame, jobField string) error {
	jobs, err := f.Text(jobField)
	if err != nil {
		return err
	}

	counts := make(map[string]int, len(jobs))
	for _, job := range jobs {
		counts[job]++
	}

	out := make([]float64, len(jobs))
	for i, job := range jobs {
		out[i] = float64(counts[job])
	}
	return f.SetFloats(dataset.ColJobTitleFrequency, out)
}

// AddAvgSalaryByJob writes avg_salary_by_job, the mean salary of the row's
// job title rounded half to even.
func AddAvgSalaryByJob(f *dataset.Frame, salaryField, jobField string) error {
	if err := f.Require(salaryField, jobField); err != nil {
		return err
	}
	salaries, err := f.Floats(salaryField)
	if err != nil {
		return err
	}
	jobs, err := f.Text(jobField)
	if err != nil {
		return err
	}

	groups := groupValues(jobs, salaries)
	means := make(map[string]float64, len(groups))
	for job, values := range groups {
		mean, err := stats.Mean(values)
		if err != nil {
			mean = math.NaN()
		}
		means[job] = math.RoundToEven(mean)
	}

	out := make([]float64, len(jobs))
	for i, job := range jobs {
		out[i] = means[job]
	}
	return f.SetFloats(dataset.ColAvgSalaryByJob, out)
}

// groupValues collects the non-NaN values per key.
func groupValues(keys []string, values []float64) map[string]stats.Float64Data {
	groups := make(map[string]stats.Float64Data)
	for i, key := range keys {
		if math.IsNaN(values[i]) {
			continue
		}
		groups[key] = append(groups[key], values[i])
	}
	return groups
}
