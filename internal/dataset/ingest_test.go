package dataset

import (
	"errors"
	"strings"
	"testing"
)

const sampleCSV = `,work_year,experience_level,employment_type,job_title,salary,salary_currency,salary_in_usd,employee_residence,remote_ratio,company_location,company_size
0,2023,SE,FT,Principal Data Scientist,80000,EUR,85847,ES,100,ES,L
1,2023,MI,CT,ML Engineer,30000,USD,30000,US,100,US,S
`

func TestReadCSV(t *testing.T) {
	t.Parallel()

	records, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.JobTitle != "Principal Data Scientist" || first.SalaryInUSD != 85847 || first.RemoteRatio != 100 {
		t.Fatalf("unexpected first record: %+v", first)
	}
}

func TestDecodeRecords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     map[string]any
		wantErr error
	}{
		{
			name: "valid payload with weakly typed numbers",
			raw: map[string]any{
				"work_year": 2023.0, "experience_level": "EN", "employment_type": "FT",
				"job_title": "Data Analyst", "employee_residence": "US", "remote_ratio": "50",
				"company_location": "US", "company_size": "M",
			},
		},
		{
			name: "missing job title",
			raw: map[string]any{
				"work_year": 2023, "experience_level": "EN", "employment_type": "FT",
				"employee_residence": "US", "remote_ratio": 0, "company_location": "US", "company_size": "M",
			},
			wantErr: ErrMissingColumn,
		},
		{
			name: "unknown field",
			raw: map[string]any{
				"work_year": 2023, "experience_level": "EN", "employment_type": "FT", "job_title": "Analyst",
				"employee_residence": "US", "remote_ratio": 0, "company_location": "US", "company_size": "M",
				"favourite_colour": "blue",
			},
			wantErr: ErrInvalidRecord,
		},
		{
			name: "remote ratio out of range",
			raw: map[string]any{
				"work_year": 2023, "experience_level": "EN", "employment_type": "FT", "job_title": "Analyst",
				"employee_residence": "US", "remote_ratio": 150, "company_location": "US", "company_size": "M",
			},
			wantErr: ErrInvalidRecord,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			records, err := DecodeRecords([]map[string]any{tt.raw})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if records[0].RemoteRatio != 50 || records[0].WorkYear != 2023 {
				t.Fatalf("unexpected record: %+v", records[0])
			}
		})
	}
}
