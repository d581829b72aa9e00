// Package training fits boosted-tree regressors and tunes their
// hyperparameters by random search.
package training

import (
	"fmt"

	"github.com/spigell/salary-predictor/internal/gbm"
	"github.com/spigell/salary-predictor/internal/metrics"
)

// DefaultRounds is the number of boosting rounds per model.
const DefaultRounds = 100

// Result is a fitted model together with its held-out predictions.
type Result struct {
	Booster     *gbm.Booster
	Predictions []float64
	RMSE        float64
}

// TrainAndPredict fits a model on train, monitoring test as a validation set
// only, and predicts test with the best validation iteration.
func TrainAndPredict(train, test gbm.Dataset, params gbm.Params, rounds int) (*Result, error) {
	if rounds <= 0 {
		rounds = DefaultRounds
	}

	booster, err := gbm.Train(params, train, &test, rounds)
	if err != nil {
		return nil, fmt.Errorf("train model: %w", err)
	}

	preds, err := booster.PredictBest(test.X)
	if err != nil {
		return nil, fmt.Errorf("predict held-out set: %w", err)
	}

	rmse, err := metrics.RMSE(test.Y, preds)
	if err != nil {
		return nil, fmt.Errorf("evaluate held-out set: %w", err)
	}

	return &Result{Booster: booster, Predictions: preds, RMSE: rmse}, nil
}
