package training

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"go.uber.org/zap"

	"github.com/spigell/salary-predictor/internal/gbm"
	"github.com/spigell/salary-predictor/internal/logger"
)

// DefaultIterations is the number of sampled configurations.
const DefaultIterations = 20

// ErrNoTrials is returned when no trial produced a finite RMSE.
var ErrNoTrials = errors.New("random search found no usable configuration")

// Grid holds the candidate values of every tuned hyperparameter.
type Grid struct {
	LearningRate    []float64 `json:"learning_rate" mapstructure:"learning_rate"`
	NumLeaves       []int     `json:"num_leaves" mapstructure:"num_leaves"`
	MaxDepth        []int     `json:"max_depth" mapstructure:"max_depth"`
	FeatureFraction []float64 `json:"feature_fraction" mapstructure:"feature_fraction"`
	BaggingFraction []float64 `json:"bagging_fraction" mapstructure:"bagging_fraction"`
	BaggingFreq     []int     `json:"bagging_freq" mapstructure:"bagging_freq"`
	LambdaL1        []float64 `json:"lambda_l1" mapstructure:"lambda_l1"`
	LambdaL2        []float64 `json:"lambda_l2" mapstructure:"lambda_l2"`
}

// DefaultGrid returns the standard search space.
func DefaultGrid() Grid {
	return Grid{
		LearningRate:    []float64{0.01, 0.05, 0.1, 0.2},
		NumLeaves:       []int{15, 31, 63, 127},
		MaxDepth:        []int{-1, 5, 10, 15},
		FeatureFraction: []float64{0.6, 0.7, 0.8, 0.9},
		BaggingFraction: []float64{0.6, 0.7, 0.8, 0.9},
		BaggingFreq:     []int{1, 5, 10},
		LambdaL1:        []float64{0.0, 0.1, 0.5, 1.0},
		LambdaL2:        []float64{0.0, 0.1, 0.5, 1.0},
	}
}

// Validate checks that every dimension has at least one candidate.
func (g Grid) Validate() error {
	sizes := map[string]int{
		"learning_rate":    len(g.LearningRate),
		"num_leaves":       len(g.NumLeaves),
		"max_depth":        len(g.MaxDepth),
		"feature_fraction": len(g.FeatureFraction),
		"bagging_fraction": len(g.BaggingFraction),
		"bagging_freq":     len(g.BaggingFreq),
		"lambda_l1":        len(g.LambdaL1),
		"lambda_l2":        len(g.LambdaL2),
	}
	for _, name := range []string{"learning_rate", "num_leaves", "max_depth", "feature_fraction", "bagging_fraction", "bagging_freq", "lambda_l1", "lambda_l2"} {
		if sizes[name] == 0 {
			return fmt.Errorf("grid dimension %q has no candidates", name)
		}
	}
	return nil
}

// Draw picks one candidate per dimension, always in the same order, on top of
// base.
func (g Grid) Draw(rng *rand.Rand, base gbm.Params) gbm.Params {
	p := base
	p.LearningRate = g.LearningRate[rng.Intn(len(g.LearningRate))]
	p.NumLeaves = g.NumLeaves[rng.Intn(len(g.NumLeaves))]
	p.MaxDepth = g.MaxDepth[rng.Intn(len(g.MaxDepth))]
	p.FeatureFraction = g.FeatureFraction[rng.Intn(len(g.FeatureFraction))]
	p.BaggingFraction = g.BaggingFraction[rng.Intn(len(g.BaggingFraction))]
	p.BaggingFreq = g.BaggingFreq[rng.Intn(len(g.BaggingFreq))]
	p.LambdaL1 = g.LambdaL1[rng.Intn(len(g.LambdaL1))]
	p.LambdaL2 = g.LambdaL2[rng.Intn(len(g.LambdaL2))]
	return p
}

// Trial is one evaluated configuration.
type Trial struct {
	Index  int
	Params gbm.Params
	RMSE   float64
	// Best is set when the trial improved on every earlier one.
	Best bool
}

// SearchOptions configures RandomSearch. Zero values fall back to defaults.
type SearchOptions struct {
	Iterations int
	Seed       int64
	Rounds     int
	Grid       *Grid
	// Base provides the fixed parameters; its Seed is replaced by Seed.
	Base    *gbm.Params
	OnTrial func(Trial)
	Logger  *zap.Logger
}

// SearchResult is the outcome of RandomSearch.
type SearchResult struct {
	Best     gbm.Params
	BestRMSE float64
	Trials   []Trial
}

// RandomSearch trains one model per sampled configuration, sequentially, and
// keeps the one with the lowest held-out RMSE. Ties keep the earlier trial.
// Every draw comes from a single source seeded with opts.Seed. ctx is checked
// between trials.
func RandomSearch(ctx context.Context, train, test gbm.Dataset, opts SearchOptions) (*SearchResult, error) {
	iterations := opts.Iterations
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	grid := DefaultGrid()
	if opts.Grid != nil {
		grid = *opts.Grid
	}
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	base := gbm.DefaultParams()
	if opts.Base != nil {
		base = *opts.Base
	}
	base.Seed = opts.Seed

	log := logger.WithFields(opts.Logger)
	rng := rand.New(rand.NewSource(opts.Seed))

	result := &SearchResult{BestRMSE: math.Inf(1)}
	found := false

	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		params := grid.Draw(rng, base)
		res, err := TrainAndPredict(train, test, params, opts.Rounds)
		if err != nil {
			return nil, fmt.Errorf("trial %d: %w", i+1, err)
		}

		trial := Trial{Index: i + 1, Params: params, RMSE: res.RMSE}
		if res.RMSE < result.BestRMSE {
			result.BestRMSE = res.RMSE
			result.Best = params
			trial.Best = true
			found = true
		}
		result.Trials = append(result.Trials, trial)

		log.Info("search trial evaluated",
			zap.Int(logger.FieldIteration, trial.Index),
			zap.Int("iterations", iterations),
			zap.Float64("rmse", trial.RMSE),
			zap.Bool("best", trial.Best),
			zap.Any("params", params),
		)
		if opts.OnTrial != nil {
			opts.OnTrial(trial)
		}
	}

	if !found {
		return nil, ErrNoTrials
	}

	log.Info("search finished", zap.Float64("best_rmse", result.BestRMSE), zap.Any("best_params", result.Best))
	return result, nil
}
