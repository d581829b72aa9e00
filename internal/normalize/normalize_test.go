package normalize

import (
	"errors"
	"reflect"
	"testing"

	"github.com/spigell/salary-predictor/internal/countries"
	"github.com/spigell/salary-predictor/internal/dataset"
)

func sampleFrame() *dataset.Frame {
	return dataset.FromRecords([]dataset.Record{
		{WorkYear: 2023, ExperienceLevel: "EN", EmploymentType: "PT", JobTitle: "Analyst", Salary: 50000, SalaryCurrency: "USD", SalaryInUSD: 50000, EmployeeResidence: "US", RemoteRatio: 100, CompanyLocation: "GB", CompanySize: "M"},
		{WorkYear: 2022, ExperienceLevel: "MI", EmploymentType: "FT", JobTitle: "Engineer", Salary: 60000, SalaryCurrency: "INR", SalaryInUSD: 720, EmployeeResidence: "IN", RemoteRatio: 50, CompanyLocation: "JP", CompanySize: "L"},
		{WorkYear: 2021, ExperienceLevel: "EX", EmploymentType: "CT", JobTitle: "Lead", Salary: 70000, SalaryCurrency: "EUR", SalaryInUSD: 75000, EmployeeResidence: "FR", RemoteRatio: 0, CompanyLocation: "DE", CompanySize: "S"},
	}, dataset.WithRawSalary(), dataset.WithTarget())
}

func column(t *testing.T, f *dataset.Frame, name string) []string {
	t.Helper()
	values, err := f.Strings(name)
	if err != nil {
		t.Fatalf("column %q: %v", name, err)
	}
	return values
}

func TestConvertCountryCodes(t *testing.T) {
	t.Parallel()

	f := sampleFrame()
	if err := ConvertCountryCodes(f, countries.Default(), dataset.ColEmployeeResidence, dataset.ColCompanyLocation); err != nil {
		t.Fatalf("convert: %v", err)
	}

	if got := column(t, f, dataset.ColEmployeeResidence); !reflect.DeepEqual(got, []string{"United States", "India", "France"}) {
		t.Fatalf("unexpected residences: %v", got)
	}
	if got := column(t, f, dataset.ColCompanyLocation); !reflect.DeepEqual(got, []string{"United Kingdom", "Japan", "Germany"}) {
		t.Fatalf("unexpected locations: %v", got)
	}
}

func TestConvertCountryCodesUnknownIsSurfaced(t *testing.T) {
	t.Parallel()

	f := dataset.FromRecords([]dataset.Record{
		{WorkYear: 2023, EmployeeResidence: "US", CompanyLocation: "XX"},
	})

	err := ConvertCountryCodes(f, countries.Default(), dataset.ColEmployeeResidence, dataset.ColCompanyLocation)
	if !errors.Is(err, countries.ErrUnknownCountryCode) {
		t.Fatalf("expected ErrUnknownCountryCode, got %v", err)
	}

	// nothing is half-converted
	if got := column(t, f, dataset.ColEmployeeResidence); got[0] != "US" {
		t.Fatalf("residence must stay untouched on failure, got %q", got[0])
	}
}

func TestConvertCountryCodesMissingColumn(t *testing.T) {
	t.Parallel()

	err := ConvertCountryCodes(sampleFrame(), countries.Default(), "residence", dataset.ColCompanyLocation)
	if !errors.Is(err, dataset.ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestExpandAbbreviations(t *testing.T) {
	t.Parallel()

	f := sampleFrame()
	if err := ExpandAbbreviations(f); err != nil {
		t.Fatalf("expand: %v", err)
	}

	checks := map[string][]string{
		dataset.ColExperienceLevel: {"Entry Level", "Mid Level", "Expert Level"},
		dataset.ColEmploymentType:  {"Part Time", "Full Time", "Contractual"},
		dataset.ColCompanySize:     {"Medium", "Large", "Small"},
		dataset.ColRemoteRatio:     {"Fully Remote", "Partially Remote", "Non Remote Work"},
	}
	for name, want := range checks {
		if got := column(t, f, name); !reflect.DeepEqual(got, want) {
			t.Fatalf("%s: expected %v, got %v", name, want, got)
		}
	}
}

func TestExpandAbbreviationsKeepsUnmappedCodes(t *testing.T) {
	t.Parallel()

	f := dataset.FromRecords([]dataset.Record{
		{ExperienceLevel: "XX", EmploymentType: "Full Time", CompanySize: "XL", RemoteRatio: 25},
	})
	if err := ExpandAbbreviations(f); err != nil {
		t.Fatalf("expand: %v", err)
	}

	if got := column(t, f, dataset.ColExperienceLevel)[0]; got != "XX" {
		t.Fatalf("expected unmapped code to stay, got %q", got)
	}
	if got := column(t, f, dataset.ColEmploymentType)[0]; got != "Full Time" {
		t.Fatalf("expected label to stay, got %q", got)
	}
	if got := column(t, f, dataset.ColRemoteRatio)[0]; got != "25" {
		t.Fatalf("expected unmapped ratio to stay as text, got %q", got)
	}
}

func TestDropColumns(t *testing.T) {
	t.Parallel()

	f := sampleFrame()
	if err := DropColumns(f, nil); err != nil {
		t.Fatalf("drop defaults: %v", err)
	}
	if f.Has(dataset.ColSalary) || f.Has(dataset.ColSalaryCurrency) {
		t.Fatalf("default columns still present: %v", f.Names())
	}

	if err := DropColumns(f, []string{dataset.ColSalary}); !errors.Is(err, dataset.ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}

	if err := DropColumns(f, []string{dataset.ColSalary}, dataset.ColSalary); err != nil {
		t.Fatalf("optional column must not fail: %v", err)
	}
}
