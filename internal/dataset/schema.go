// Package dataset holds the fixed job-salary schema and the columnar Frame the
// pipeline stages operate on.
package dataset

// Raw columns of a job-salary observation.
const (
	ColWorkYear          = "work_year"
	ColExperienceLevel   = "experience_level"
	ColEmploymentType    = "employment_type"
	ColJobTitle          = "job_title"
	ColSalary            = "salary"
	ColSalaryCurrency    = "salary_currency"
	ColSalaryInUSD       = "salary_in_usd"
	ColEmployeeResidence = "employee_residence"
	ColRemoteRatio       = "remote_ratio"
	ColCompanyLocation   = "company_location"
	ColCompanySize       = "company_size"
)

// Derived feature columns.
const (
	ColYearsOfExperience         = "years_of_experience"
	ColIsLocalEmployee           = "is_local_employee"
	ColInflationIndex            = "inflation_index"
	ColSalaryAdjusted            = "salary_adjusted"
	ColSalaryDensity             = "salary_density"
	ColSalaryDensityByExperience = "salary_density_by_experience"
	ColJobTitleFrequency         = "job_title_frequency"
	ColAvgSalaryByJob            = "avg_salary_by_job"
)

// Record is one raw job-salary observation as it arrives from the training
// CSV or a prediction request.
type Record struct {
	WorkYear          int     `csv:"work_year" json:"work_year" mapstructure:"work_year" validate:"required,gte=1900,lte=2100"`
	ExperienceLevel   string  `csv:"experience_level" json:"experience_level" mapstructure:"experience_level" validate:"required"`
	EmploymentType    string  `csv:"employment_type" json:"employment_type" mapstructure:"employment_type" validate:"required"`
	JobTitle          string  `csv:"job_title" json:"job_title" mapstructure:"job_title" validate:"required"`
	Salary            float64 `csv:"salary" json:"salary,omitempty" mapstructure:"salary" validate:"gte=0"`
	SalaryCurrency    string  `csv:"salary_currency" json:"salary_currency,omitempty" mapstructure:"salary_currency"`
	SalaryInUSD       float64 `csv:"salary_in_usd" json:"salary_in_usd,omitempty" mapstructure:"salary_in_usd" validate:"gte=0"`
	EmployeeResidence string  `csv:"employee_residence" json:"employee_residence" mapstructure:"employee_residence" validate:"required"`
	RemoteRatio       int     `csv:"remote_ratio" json:"remote_ratio" mapstructure:"remote_ratio" validate:"gte=0,lte=100"`
	CompanyLocation   string  `csv:"company_location" json:"company_location" mapstructure:"company_location" validate:"required"`
	CompanySize       string  `csv:"company_size" json:"company_size" mapstructure:"company_size" validate:"required"`
}

type buildOptions struct {
	rawSalary bool
	target    bool
}

// Option configures which optional salary columns FromRecords materializes.
type Option func(*buildOptions)

// WithRawSalary keeps the local-currency salary and its currency code.
// Training reads them from the CSV only to drop them before modeling.
func WithRawSalary() Option { return func(o *buildOptions) { o.rawSalary = true } }

// WithTarget keeps salary_in_usd, the regression target.
func WithTarget() Option { return func(o *buildOptions) { o.target = true } }

// FromRecords builds a Frame from typed records. The records are not modified.
func FromRecords(records []Record, opts ...Option) *Frame {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	n := len(records)
	var (
		workYear    = make([]float64, n)
		experience  = make([]string, n)
		employment  = make([]string, n)
		jobTitle    = make([]string, n)
		salary      = make([]float64, n)
		currency    = make([]string, n)
		salaryUSD   = make([]float64, n)
		residence   = make([]string, n)
		remoteRatio = make([]float64, n)
		location    = make([]string, n)
		size        = make([]string, n)
	)

	for i, r := range records {
		workYear[i] = float64(r.WorkYear)
		experience[i] = r.ExperienceLevel
		employment[i] = r.EmploymentType
		jobTitle[i] = r.JobTitle
		salary[i] = r.Salary
		currency[i] = r.SalaryCurrency
		salaryUSD[i] = r.SalaryInUSD
		residence[i] = r.EmployeeResidence
		remoteRatio[i] = float64(r.RemoteRatio)
		location[i] = r.CompanyLocation
		size[i] = r.CompanySize
	}

	f := New(n)
	f.mustSetFloats(ColWorkYear, workYear)
	f.mustSetStrings(ColExperienceLevel, experience)
	f.mustSetStrings(ColEmploymentType, employment)
	f.mustSetStrings(ColJobTitle, jobTitle)
	if o.rawSalary {
		f.mustSetFloats(ColSalary, salary)
		f.mustSetStrings(ColSalaryCurrency, currency)
	}
	if o.target {
		f.mustSetFloats(ColSalaryInUSD, salaryUSD)
	}
	f.mustSetStrings(ColEmployeeResidence, residence)
	f.mustSetFloats(ColRemoteRatio, remoteRatio)
	f.mustSetStrings(ColCompanyLocation, location)
	f.mustSetStrings(ColCompanySize, size)

	return f
}
