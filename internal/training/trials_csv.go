package training

import (
	"io"

	"github.com/gocarina/gocsv"
)

type trialRow struct {
	Iteration       int     `csv:"iteration"`
	RMSE            float64 `csv:"rmse"`
	Best            bool    `csv:"best"`
	LearningRate    float64 `csv:"learning_rate"`
	NumLeaves       int     `csv:"num_leaves"`
	MaxDepth        int     `csv:"max_depth"`
	FeatureFraction float64 `csv:"feature_fraction"`
	BaggingFraction float64 `csv:"bagging_fraction"`
	BaggingFreq     int     `csv:"bagging_freq"`
	LambdaL1        float64 `csv:"lambda_l1"`
	LambdaL2        float64 `csv:"lambda_l2"`
	Seed            int64   `csv:"seed"`
}

// WriteTrialsCSV writes one row per trial with its sampled parameters.
func WriteTrialsCSV(w io.Writer, trials []Trial) error {
	rows := make([]*trialRow, 0, len(trials))
	for _, t := range trials {
		rows = append(rows, &trialRow{
			Iteration:       t.Index,
			RMSE:            t.RMSE,
			Best:            t.Best,
			LearningRate:    t.Params.LearningRate,
			NumLeaves:       t.Params.NumLeaves,
			MaxDepth:        t.Params.MaxDepth,
			FeatureFraction: t.Params.FeatureFraction,
			BaggingFraction: t.Params.BaggingFraction,
			BaggingFreq:     t.Params.BaggingFreq,
			LambdaL1:        t.Params.LambdaL1,
			LambdaL2:        t.Params.LambdaL2,
			Seed:            t.Params.Seed,
		})
	}
	return gocsv.Marshal(rows, w)
}
