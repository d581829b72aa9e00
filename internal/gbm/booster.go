// Package gbm trains gradient-boosted regression trees and evaluates them.
package gbm

import (
	"errors"
	"fmt"
	"time"

	"github.com/spigell/salary-predictor/internal/artifact"
)

// ErrFeatureCount is returned when a feature vector does not match the model.
var ErrFeatureCount = errors.New("feature count mismatch")

// Metadata describes the run that produced a booster.
type Metadata struct {
	RunID     string    `json:"run_id,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Booster is a trained additive tree ensemble.
type Booster struct {
	Params       Params    `json:"params"`
	InitScore    float64   `json:"init_score"`
	Trees        []Tree    `json:"trees"`
	NumFeatures  int       `json:"num_features"`
	FeatureNames []string  `json:"feature_names,omitempty"`
	// BestIteration is the 1-based number of trees with the lowest validation
	// RMSE, or 0 when training had no validation set.
	BestIteration int       `json:"best_iteration"`
	ValidRMSE     []float64 `json:"valid_rmse,omitempty"`
	Metadata      Metadata  `json:"metadata"`
}

// NumTrees is the number of boosting rounds the booster holds.
func (b *Booster) NumTrees() int { return len(b.Trees) }

func (b *Booster) trees(numIteration int) []Tree {
	if numIteration <= 0 || numIteration > len(b.Trees) {
		return b.Trees
	}
	return b.Trees[:numIteration]
}

// PredictOne evaluates the first numIteration trees on x. numIteration <= 0
// uses every tree.
func (b *Booster) PredictOne(x []float64, numIteration int) (float64, error) {
	if len(x) != b.NumFeatures {
		return 0, fmt.Errorf("%w: got %d, model expects %d", ErrFeatureCount, len(x), b.NumFeatures)
	}

	out := b.InitScore
	for i := range b.trees(numIteration) {
		out += b.Trees[i].Evaluate(x)
	}
	return out, nil
}

// Predict evaluates every row of x.
func (b *Booster) Predict(x [][]float64, numIteration int) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		v, err := b.PredictOne(row, numIteration)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// PredictBest evaluates every row using BestIteration trees.
func (b *Booster) PredictBest(x [][]float64) ([]float64, error) {
	return b.Predict(x, b.BestIteration)
}

// Save persists the booster at path.
func (b *Booster) Save(store *artifact.Store, path string) error {
	if err := store.Save(path, b); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}

// Load reads a booster persisted with Save. Errors match artifact.ErrMissing
// or artifact.ErrLoad.
func Load(store *artifact.Store, path string) (*Booster, error) {
	var b Booster
	if _, err := store.Load(path, &b); err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	if len(b.Trees) == 0 || b.NumFeatures <= 0 {
		return nil, fmt.Errorf("load model: %w: %s holds no trees", artifact.ErrLoad, path)
	}
	for i := range b.Trees {
		if err := b.Trees[i].validate(b.NumFeatures); err != nil {
			return nil, fmt.Errorf("load model: %w: %s: tree %d: %v", artifact.ErrLoad, path, i, err)
		}
	}
	return &b, nil
}
