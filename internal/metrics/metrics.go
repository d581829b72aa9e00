// Package metrics computes regression quality metrics.
package metrics

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/montanaflynn/stats"
	"go.uber.org/zap"
)

// ErrInput is returned for empty or mismatched inputs.
var ErrInput = errors.New("invalid metric input")

// Report holds the metrics of one true/predicted pair set. MAPE and SMAPE are
// percentages.
type Report struct {
	RMSE  float64 `json:"rmse" csv:"rmse"`
	MAE   float64 `json:"mae" csv:"mae"`
	R2    float64 `json:"r2" csv:"r2"`
	MAPE  float64 `json:"mape" csv:"mape"`
	SMAPE float64 `json:"smape" csv:"smape"`
}

// Regression compares yTrue with yPred.
//
// R2 is NaN when yTrue has no variance. MAPE is +Inf when some true value is
// zero and its prediction is not. 0/0 terms of MAPE and SMAPE count as zero.
func Regression(yTrue, yPred []float64) (Report, error) {
	if len(yTrue) == 0 {
		return Report{}, fmt.Errorf("%w: no values", ErrInput)
	}
	if len(yTrue) != len(yPred) {
		return Report{}, fmt.Errorf("%w: %d true values, %d predictions", ErrInput, len(yTrue), len(yPred))
	}

	n := len(yTrue)
	squared := make(stats.Float64Data, n)
	absolute := make(stats.Float64Data, n)
	relative := make(stats.Float64Data, n)
	symmetric := make(stats.Float64Data, n)

	for i := range yTrue {
		diff := yTrue[i] - yPred[i]
		absDiff := math.Abs(diff)

		squared[i] = diff * diff
		absolute[i] = absDiff
		relative[i] = ratio(absDiff, math.Abs(yTrue[i]))
		symmetric[i] = ratio(2*absDiff, math.Abs(yTrue[i])+math.Abs(yPred[i]))
	}

	mse, _ := stats.Mean(squared)
	mae, _ := stats.Mean(absolute)
	mape, _ := stats.Mean(relative)
	smape, _ := stats.Mean(symmetric)

	return Report{
		RMSE:  math.Sqrt(mse),
		MAE:   mae,
		R2:    r2(yTrue, squared),
		MAPE:  mape * 100,
		SMAPE: smape * 100,
	}, nil
}

func ratio(num, den float64) float64 {
	if num == 0 {
		return 0
	}
	if den == 0 {
		return math.Inf(1)
	}
	return num / den
}

func r2(yTrue []float64, squared stats.Float64Data) float64 {
	mean, _ := stats.Mean(yTrue)
	var ssTot float64
	for _, y := range yTrue {
		ssTot += (y - mean) * (y - mean)
	}
	if ssTot == 0 {
		return math.NaN()
	}
	ssRes, _ := stats.Sum(squared)
	return 1 - ssRes/ssTot
}

// RMSE is the root mean squared error alone.
func RMSE(yTrue, yPred []float64) (float64, error) {
	r, err := Regression(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return r.RMSE, nil
}

// Fields renders the report as log fields.
func (r Report) Fields() []zap.Field {
	return []zap.Field{
		zap.Float64("rmse", r.RMSE),
		zap.Float64("mae", r.MAE),
		zap.Float64("r2", r.R2),
		zap.Float64("mape", r.MAPE),
		zap.Float64("smape", r.SMAPE),
	}
}

// Rows renders the report as a header row followed by one row per metric.
func (r Report) Rows() [][]string {
	format := func(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }
	return [][]string{
		{"Metric", "Value"},
		{"RMSE", format(r.RMSE)},
		{"MAE", format(r.MAE)},
		{"R^2", format(r.R2)},
		{"MAPE (%)", format(r.MAPE)},
		{"SMAPE (%)", format(r.SMAPE)},
	}
}
