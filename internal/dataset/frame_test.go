package dataset

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func sampleRecords() []Record {
	return []Record{
		{WorkYear: 2023, ExperienceLevel: "SE", EmploymentType: "FT", JobTitle: "Data Scientist", Salary: 80000, SalaryCurrency: "EUR", SalaryInUSD: 85847, EmployeeResidence: "ES", RemoteRatio: 100, CompanyLocation: "ES", CompanySize: "L"},
		{WorkYear: 2022, ExperienceLevel: "MI", EmploymentType: "CT", JobTitle: "ML Engineer", Salary: 30000, SalaryCurrency: "USD", SalaryInUSD: 30000, EmployeeResidence: "US", RemoteRatio: 100, CompanyLocation: "US", CompanySize: "S"},
		{WorkYear: 2021, ExperienceLevel: "EN", EmploymentType: "PT", JobTitle: "Analyst", Salary: 25500, SalaryCurrency: "USD", SalaryInUSD: 25500, EmployeeResidence: "IN", RemoteRatio: 0, CompanyLocation: "US", CompanySize: "M"},
	}
}

func TestFromRecordsOptionalColumns(t *testing.T) {
	t.Parallel()

	bare := FromRecords(sampleRecords())
	for _, name := range []string{ColSalary, ColSalaryCurrency, ColSalaryInUSD} {
		if bare.Has(name) {
			t.Fatalf("expected %q to be absent without options", name)
		}
	}

	full := FromRecords(sampleRecords(), WithRawSalary(), WithTarget())
	if err := full.Require(ColSalary, ColSalaryCurrency, ColSalaryInUSD); err != nil {
		t.Fatalf("expected salary columns: %v", err)
	}

	years, err := full.Floats(ColWorkYear)
	if err != nil {
		t.Fatalf("work year: %v", err)
	}
	if !reflect.DeepEqual(years, []float64{2023, 2022, 2021}) {
		t.Fatalf("unexpected work years: %v", years)
	}
}

func TestColumnAccessErrors(t *testing.T) {
	t.Parallel()

	f := FromRecords(sampleRecords())

	if _, err := f.Floats("nope"); !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
	if _, err := f.Floats(ColJobTitle); !errors.Is(err, ErrColumnKind) {
		t.Fatalf("expected ErrColumnKind, got %v", err)
	}
	if err := f.SetFloats("short", []float64{1}); !errors.Is(err, ErrLength) {
		t.Fatalf("expected ErrLength, got %v", err)
	}
}

func TestDropIsAllOrNothing(t *testing.T) {
	t.Parallel()

	f := FromRecords(sampleRecords(), WithRawSalary())

	if err := f.Drop(ColSalary, "missing"); !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
	if !f.Has(ColSalary) {
		t.Fatalf("salary must survive a failed drop")
	}

	if err := f.Drop(ColSalary, ColSalaryCurrency); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if f.Has(ColSalary) || f.Has(ColSalaryCurrency) {
		t.Fatalf("columns still present: %v", f.Names())
	}
}

func TestFilterAndTake(t *testing.T) {
	t.Parallel()

	f := FromRecords(sampleRecords())
	filtered := f.Filter([]bool{true, false, true})
	if filtered.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", filtered.Len())
	}

	titles, _ := filtered.Strings(ColJobTitle)
	if !reflect.DeepEqual(titles, []string{"Data Scientist", "Analyst"}) {
		t.Fatalf("unexpected titles: %v", titles)
	}

	// the source frame is untouched
	original, _ := f.Strings(ColJobTitle)
	if len(original) != 3 {
		t.Fatalf("source frame changed: %v", original)
	}
}

func TestNumericColumnsAreSorted(t *testing.T) {
	t.Parallel()

	f := FromRecords(sampleRecords(), WithRawSalary(), WithTarget())
	got := f.NumericColumns()
	want := []string{ColRemoteRatio, ColSalary, ColSalaryInUSD, ColWorkYear}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestTextRendersNumbers(t *testing.T) {
	t.Parallel()

	f := FromRecords(sampleRecords())
	got, err := f.Text(ColRemoteRatio)
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"100", "100", "0"}) {
		t.Fatalf("unexpected text: %v", got)
	}
}

func TestMatrix(t *testing.T) {
	t.Parallel()

	f := New(2)
	_ = f.SetFloats("a", []float64{1, 2})
	_ = f.SetFloats("b", []float64{3, math.NaN()})

	m, err := f.Matrix([]string{"b", "a"})
	if err != nil {
		t.Fatalf("matrix: %v", err)
	}
	if m[0][0] != 3 || m[0][1] != 1 || m[1][1] != 2 || !math.IsNaN(m[1][0]) {
		t.Fatalf("unexpected matrix: %v", m)
	}

	if _, err := f.Matrix([]string{"a", "c"}); !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestTrainTestSplit(t *testing.T) {
	t.Parallel()

	f := New(10)
	ids := make([]float64, 10)
	for i := range ids {
		ids[i] = float64(i)
	}
	_ = f.SetFloats("id", ids)

	train, test, err := TrainTestSplit(f, 0.2, 42)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if train.Len() != 8 || test.Len() != 2 {
		t.Fatalf("expected 8/2 split, got %d/%d", train.Len(), test.Len())
	}

	again, _, _ := TrainTestSplit(f, 0.2, 42)
	a, _ := train.Floats("id")
	b, _ := again.Floats("id")
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("split is not deterministic: %v vs %v", a, b)
	}

	if _, _, err := TrainTestSplit(f, 1.5, 42); err == nil {
		t.Fatalf("expected an error for an invalid ratio")
	}
}
