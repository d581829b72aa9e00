package gbm

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// ErrDataset is returned for unusable training or validation data.
var ErrDataset = errors.New("invalid dataset")

// Dataset is a dense feature matrix with one label per row. Missing feature
// values are NaN.
type Dataset struct {
	X [][]float64
	Y []float64
}

func (d Dataset) validate(features int) error {
	if len(d.X) != len(d.Y) {
		return fmt.Errorf("%w: %d rows, %d labels", ErrDataset, len(d.X), len(d.Y))
	}
	for i, row := range d.X {
		if len(row) != features {
			return fmt.Errorf("%w: row %d has %d features, expected %d", ErrDataset, i, len(row), features)
		}
	}
	for i, y := range d.Y {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return fmt.Errorf("%w: label %d is not finite", ErrDataset, i)
		}
	}
	return nil
}

// Train fits rounds trees on the squared loss. valid is only monitored: its
// RMSE is recorded after every round and the best round becomes
// BestIteration. All sampling draws from one source seeded with params.Seed.
func Train(params Params, train Dataset, valid *Dataset, rounds int) (*Booster, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if rounds < 1 {
		return nil, fmt.Errorf("rounds must be at least 1, got %d", rounds)
	}
	if len(train.X) == 0 {
		return nil, fmt.Errorf("%w: no training rows", ErrDataset)
	}

	features := len(train.X[0])
	if err := train.validate(features); err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	if valid != nil && len(valid.Y) == 0 {
		valid = nil
	}
	if valid != nil {
		if err := valid.validate(features); err != nil {
			return nil, fmt.Errorf("valid: %w", err)
		}
	}

	n := len(train.Y)
	var init float64
	for _, y := range train.Y {
		init += y
	}
	init /= float64(n)

	b := &Booster{Params: params, InitScore: init, NumFeatures: features}

	pred := filled(n, init)
	var validPred []float64
	if valid != nil {
		validPred = filled(len(valid.Y), init)
	}

	rng := rand.New(rand.NewSource(params.Seed))
	grad := make([]float64, n)
	bag := allRows(n)
	bestRMSE := math.Inf(1)

	for iter := 0; iter < rounds; iter++ {
		if params.BaggingFreq > 0 && params.BaggingFraction < 1 && iter%params.BaggingFreq == 0 {
			bag = sample(rng, n, params.BaggingFraction)
		}
		featureSet := allRows(features)
		if params.FeatureFraction < 1 {
			featureSet = sample(rng, features, params.FeatureFraction)
		}

		for i := range grad {
			grad[i] = pred[i] - train.Y[i]
		}

		g := &grower{params: params, x: train.X, grad: grad, features: featureSet}
		tree := g.grow(bag)
		b.Trees = append(b.Trees, tree)

		for i, row := range train.X {
			pred[i] += tree.Evaluate(row)
		}

		if valid == nil {
			continue
		}
		var sq float64
		for i, row := range valid.X {
			validPred[i] += tree.Evaluate(row)
			d := validPred[i] - valid.Y[i]
			sq += d * d
		}
		rmse := math.Sqrt(sq / float64(len(valid.Y)))
		b.ValidRMSE = append(b.ValidRMSE, rmse)
		if rmse < bestRMSE {
			bestRMSE = rmse
			b.BestIteration = iter + 1
		}
	}

	return b, nil
}

func filled(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func allRows(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// sample draws round(fraction*n) distinct indices, at least one, in
// ascending order.
func sample(rng *rand.Rand, n int, fraction float64) []int {
	k := int(float64(n)*fraction + 0.5)
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	out := rng.Perm(n)[:k]
	sort.Ints(out)
	return out
}
