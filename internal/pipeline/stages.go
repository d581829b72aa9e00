package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/salary-predictor/internal/dataset"
	"github.com/spigell/salary-predictor/internal/features"
	"github.com/spigell/salary-predictor/internal/logger"
	"github.com/spigell/salary-predictor/internal/normalize"
	"github.com/spigell/salary-predictor/internal/outliers"
)

// Stage names.
const (
	StageConvertCountries    = "convert_countries"
	StageExpandAbbreviations = "expand_abbreviations"
	StageDropColumns         = "drop_columns"
	StageRemoveOutliers      = "remove_outliers"
	StageCreateFeatures      = "create_features"
)

// toggle carries the enabled state every stage shares.
type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

type countriesStage struct {
	toggle
	residence string
	location  string
}

// NewConvertCountries replaces residence and location codes with country names.
func NewConvertCountries() Stage {
	return &countriesStage{residence: dataset.ColEmployeeResidence, location: dataset.ColCompanyLocation}
}

func (s *countriesStage) Name() string { return StageConvertCountries }

func (s *countriesStage) Apply(_ context.Context, deps Deps, f *dataset.Frame) (*dataset.Frame, Step, error) {
	if deps.Countries == nil {
		return f, Step{}, fmt.Errorf("country lookup is required")
	}
	if err := normalize.ConvertCountryCodes(f, deps.Countries, s.residence, s.location); err != nil {
		return f, Step{}, err
	}
	return f, unchanged(f), nil
}

func (s *countriesStage) Status() Status {
	return Status{
		Name:    s.Name(),
		Enabled: s.IsEnabled(),
		Reason:  s.reason,
		Details: map[string]string{"fields": s.residence + "," + s.location},
	}
}

type abbreviationsStage struct {
	toggle
}

// NewExpandAbbreviations relabels the coded categorical columns.
func NewExpandAbbreviations() Stage {
	return &abbreviationsStage{}
}

func (s *abbreviationsStage) Name() string { return StageExpandAbbreviations }

func (s *abbreviationsStage) Apply(_ context.Context, _ Deps, f *dataset.Frame) (*dataset.Frame, Step, error) {
	if err := normalize.ExpandAbbreviations(f); err != nil {
		return f, Step{}, err
	}
	return f, unchanged(f), nil
}

type dropStage struct {
	toggle
	columns  []string
	optional bool
}

// NewDropColumns removes columns before modeling. A nil list drops the
// default salary fields. When optional is set absent columns are skipped.
func NewDropColumns(columns []string, optional bool) Stage {
	if columns == nil {
		columns = normalize.DefaultDropColumns
	}
	return &dropStage{columns: append([]string(nil), columns...), optional: optional}
}

func (s *dropStage) Name() string { return StageDropColumns }

func (s *dropStage) Apply(_ context.Context, deps Deps, f *dataset.Frame) (*dataset.Frame, Step, error) {
	var optional []string
	if s.optional {
		optional = s.columns
	}
	if err := normalize.DropColumns(f, s.columns, optional...); err != nil {
		return f, Step{}, err
	}

	logger.WithFields(deps.Logger).Debug("columns dropped", zap.Strings(logger.FieldColumn, s.columns))
	return f, unchanged(f), nil
}

func (s *dropStage) Status() Status {
	return Status{
		Name:    s.Name(),
		Enabled: s.IsEnabled(),
		Reason:  s.reason,
		Details: map[string]string{
			"columns":  strings.Join(s.columns, ","),
			"optional": strconv.FormatBool(s.optional),
		},
	}
}

type outliersStage struct {
	toggle
	column     string
	multiplier float64
}

// NewRemoveOutliers drops rows outside the IQR fences of column, or of every
// numeric column when column is empty.
func NewRemoveOutliers(column string, multiplier float64) Stage {
	if multiplier <= 0 {
		multiplier = outliers.DefaultMultiplier
	}
	return &outliersStage{column: column, multiplier: multiplier}
}

func (s *outliersStage) Name() string { return StageRemoveOutliers }

func (s *outliersStage) Apply(_ context.Context, deps Deps, f *dataset.Frame) (*dataset.Frame, Step, error) {
	initial := f.Len()
	out, dropped, err := outliers.RemoveIQR(f, s.column, s.multiplier)
	if err != nil {
		return f, Step{}, err
	}

	if dropped > 0 {
		logger.WithFields(deps.Logger).Debug("outliers removed",
			zap.String(logger.FieldColumn, s.column),
			zap.Int("rows_left", out.Len()),
		)
	}
	return out, Step{Initial: initial, Dropped: dropped, Left: out.Len()}, nil
}

func (s *outliersStage) Status() Status {
	column := s.column
	if column == "" {
		column = "all numeric"
	}
	return Status{
		Name:    s.Name(),
		Enabled: s.IsEnabled(),
		Reason:  s.reason,
		Details: map[string]string{
			"column":     column,
			"multiplier": strconv.FormatFloat(s.multiplier, 'f', -1, 64),
		},
	}
}

type featuresStage struct {
	toggle
	table features.DensityTable
	path  string
	opts  features.Options
}

// NewCreateFeatures derives the model features using an already loaded
// density table.
func NewCreateFeatures(table features.DensityTable, opts features.Options) Stage {
	return &featuresStage{table: table, opts: opts}
}

// NewCreateFeaturesFromPath derives the model features after loading the
// density table at path from Deps.Store.
func NewCreateFeaturesFromPath(path string, opts features.Options) Stage {
	return &featuresStage{path: path, opts: opts}
}

func (s *featuresStage) Name() string { return StageCreateFeatures }

func (s *featuresStage) Apply(_ context.Context, deps Deps, f *dataset.Frame) (*dataset.Frame, Step, error) {
	var err error
	if s.table != nil {
		err = features.CreateFeatures(f, s.table, s.opts)
	} else {
		if deps.Store == nil {
			return f, Step{}, fmt.Errorf("artifact store is required to load %s", s.path)
		}
		err = features.CreateFeaturesFromPath(f, deps.Store, s.path, s.opts)
	}
	if err != nil {
		return f, Step{}, err
	}
	return f, unchanged(f), nil
}

func (s *featuresStage) Status() Status {
	details := map[string]string{}
	if s.path != "" {
		details["density"] = s.path
	} else {
		details["density_titles"] = strconv.Itoa(len(s.table))
	}
	return Status{Name: s.Name(), Enabled: s.IsEnabled(), Reason: s.reason, Details: details}
}

// PreprocessOptions selects the preprocessing behaviour.
type PreprocessOptions struct {
	DropColumns       []string
	OutlierColumn     string
	OutlierMultiplier float64
	// Serving skips outlier removal and tolerates absent dropped columns.
	Serving bool
}

// Preprocess returns the ordered normalization stages. Training adds outlier
// removal at the end.
func Preprocess(opts PreprocessOptions) []Stage {
	stages := []Stage{
		NewConvertCountries(),
		NewExpandAbbreviations(),
		NewDropColumns(opts.DropColumns, opts.Serving),
	}
	if !opts.Serving {
		stages = append(stages, NewRemoveOutliers(opts.OutlierColumn, opts.OutlierMultiplier))
	}
	return stages
}
