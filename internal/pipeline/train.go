package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/salary-predictor/internal/artifact"
	"github.com/spigell/salary-predictor/internal/dataset"
	"github.com/spigell/salary-predictor/internal/features"
	"github.com/spigell/salary-predictor/internal/gbm"
	"github.com/spigell/salary-predictor/internal/labelenc"
	"github.com/spigell/salary-predictor/internal/logger"
	"github.com/spigell/salary-predictor/internal/metrics"
	"github.com/spigell/salary-predictor/internal/training"
)

// TrainInput configures a full training run.
type TrainInput struct {
	Records    []dataset.Record
	Preprocess PreprocessOptions
	Features   features.Options

	TestRatio float64
	SplitSeed int64

	Params gbm.Params
	Rounds int

	// Tune runs a random search and trains the final model with the best
	// configuration found.
	Tune   bool
	Search training.SearchOptions
}

// TrainOutput holds everything a training run produces.
type TrainOutput struct {
	RunID     string
	Booster   *gbm.Booster
	Encoders  labelenc.Set
	Density   features.DensityTable
	Params    gbm.Params
	Report    metrics.Report
	Search    *training.SearchResult
	TrainRows int
	TestRows  int
}

// Save persists the model, the encoders and the density table.
func (o *TrainOutput) Save(store *artifact.Store, paths artifact.Paths) error {
	if err := store.Save(paths.Density, o.Density); err != nil {
		return fmt.Errorf("save density table: %w", err)
	}
	if err := store.Save(paths.Encoders, o.Encoders); err != nil {
		return fmt.Errorf("save encoders: %w", err)
	}
	return o.Booster.Save(store, paths.Model)
}

// ErrTooFewRows is returned when preprocessing leaves nothing to split.
var ErrTooFewRows = errors.New("not enough rows to train")

// Train preprocesses the records, splits them, derives features with a
// density table computed on the training split only, encodes categoricals,
// optionally tunes, and fits the final model.
func Train(ctx context.Context, deps Deps, in TrainInput) (*TrainOutput, error) {
	runID := uuid.NewString()
	log := logger.WithRun(deps.Logger, runID, "")
	deps.Logger = log

	frame := dataset.FromRecords(in.Records, dataset.WithRawSalary(), dataset.WithTarget())
	frame, err := Run(ctx, deps, Preprocess(in.Preprocess), frame)
	if err != nil {
		return nil, fmt.Errorf("preprocess: %w", err)
	}
	if frame.Len() < 2 {
		return nil, fmt.Errorf("%w: %d rows after preprocessing", ErrTooFewRows, frame.Len())
	}

	encoders := make(labelenc.Set, len(features.CategoricalColumns))
	for _, column := range features.CategoricalColumns {
		values, err := frame.Text(column)
		if err != nil {
			return nil, err
		}
		encoders[column] = labelenc.Fit(values)
	}

	trainFrame, testFrame, err := dataset.TrainTestSplit(frame, in.TestRatio, in.SplitSeed)
	if err != nil {
		return nil, err
	}

	if err := features.AddSalaryDensity(trainFrame, dataset.ColSalaryInUSD, dataset.ColJobTitle, dataset.ColSalaryDensity); err != nil {
		return nil, fmt.Errorf("salary density: %w", err)
	}
	table, err := features.BuildDensityTable(trainFrame, dataset.ColJobTitle, dataset.ColSalaryDensity)
	if err != nil {
		return nil, fmt.Errorf("density table: %w", err)
	}
	log.Info("density table built", zap.Int("job_titles", len(table)))

	featureStages := []Stage{NewCreateFeatures(table, in.Features)}
	trainSet, err := modelInput(ctx, deps, featureStages, encoders, trainFrame)
	if err != nil {
		return nil, fmt.Errorf("train split: %w", err)
	}
	testSet, err := modelInput(ctx, deps, featureStages, encoders, testFrame)
	if err != nil {
		return nil, fmt.Errorf("test split: %w", err)
	}

	params := in.Params
	out := &TrainOutput{
		RunID:     runID,
		Encoders:  encoders,
		Density:   table,
		TrainRows: trainFrame.Len(),
		TestRows:  testFrame.Len(),
	}

	if in.Tune {
		search := in.Search
		if search.Base == nil {
			search.Base = &params
		}
		if search.Logger == nil {
			search.Logger = log
		}
		result, err := training.RandomSearch(ctx, trainSet, testSet, search)
		if err != nil {
			return nil, fmt.Errorf("random search: %w", err)
		}
		params = result.Best
		out.Search = result
	}

	res, err := training.TrainAndPredict(trainSet, testSet, params, in.Rounds)
	if err != nil {
		return nil, err
	}

	report, err := metrics.Regression(testSet.Y, res.Predictions)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	res.Booster.FeatureNames = append([]string(nil), features.FeatureColumns...)
	res.Booster.Metadata = gbm.Metadata{RunID: runID, CreatedAt: time.Now().UTC()}

	out.Booster = res.Booster
	out.Params = params
	out.Report = report

	log.Info("model trained",
		append([]zap.Field{
			zap.Int("train_rows", out.TrainRows),
			zap.Int("test_rows", out.TestRows),
			zap.Int("best_iteration", res.Booster.BestIteration),
		}, report.Fields()...)...,
	)

	return out, nil
}

// modelInput runs the feature stages on f, encodes the categorical columns
// and assembles the model matrix and target.
func modelInput(ctx context.Context, deps Deps, stages []Stage, encoders labelenc.Set, f *dataset.Frame) (gbm.Dataset, error) {
	f, err := Run(ctx, deps, stages, f)
	if err != nil {
		return gbm.Dataset{}, err
	}
	if err := encoders.Transform(f, features.CategoricalColumns); err != nil {
		return gbm.Dataset{}, err
	}

	x, err := f.Matrix(features.FeatureColumns)
	if err != nil {
		return gbm.Dataset{}, err
	}
	y, err := f.Floats(dataset.ColSalaryInUSD)
	if err != nil {
		return gbm.Dataset{}, err
	}
	return gbm.Dataset{X: x, Y: append([]float64(nil), y...)}, nil
}
