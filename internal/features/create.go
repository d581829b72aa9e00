package features

import (
	"github.com/spigell/salary-predictor/internal/artifact"
	"github.com/spigell/salary-predictor/internal/dataset"
)

// Options tunes CreateFeatures.
type Options struct {
	// BaseYear defaults to DefaultBaseYear.
	BaseYear int
}

func (o Options) baseYear() int {
	if o.BaseYear == 0 {
		return DefaultBaseYear
	}
	return o.BaseYear
}

// CreateFeatures derives years_of_experience, is_local_employee,
// inflation_index and salary_density, in that order. Density always comes
// from the table, never from the batch itself.
func CreateFeatures(f *dataset.Frame, table DensityTable, opts Options) error {
	if err := AddYearsOfExperience(f, dataset.ColExperienceLevel); err != nil {
		return err
	}
	if err := AddLocalEmployeeFlag(f, dataset.ColEmployeeResidence, dataset.ColCompanyLocation); err != nil {
		return err
	}
	if err := AddInflationIndex(f, dataset.ColWorkYear, dataset.ColEmployeeResidence, opts.baseYear()); err != nil {
		return err
	}
	return MapJobDensityFromTable(f, dataset.ColJobTitle, table)
}

// CreateFeaturesFromPath loads the density table at path and runs
// CreateFeatures. Nothing is derived when the table cannot be loaded.
func CreateFeaturesFromPath(f *dataset.Frame, store *artifact.Store, path string, opts Options) error {
	table, err := LoadDensityTable(store, path)
	if err != nil {
		return err
	}
	return CreateFeatures(f, table, opts)
}
