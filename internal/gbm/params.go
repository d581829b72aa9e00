package gbm

import (
	"errors"
	"fmt"
)

// Params configures training. Field names follow the usual gradient boosting
// parameter names so configurations can be shared with other tools.
type Params struct {
	Objective           string  `json:"objective" mapstructure:"objective"`
	Metric              string  `json:"metric" mapstructure:"metric"`
	BoostingType        string  `json:"boosting_type" mapstructure:"boosting_type"`
	Seed                int64   `json:"seed" mapstructure:"seed"`
	LearningRate        float64 `json:"learning_rate" mapstructure:"learning_rate"`
	NumLeaves           int     `json:"num_leaves" mapstructure:"num_leaves"`
	MaxDepth            int     `json:"max_depth" mapstructure:"max_depth"`
	FeatureFraction     float64 `json:"feature_fraction" mapstructure:"feature_fraction"`
	BaggingFraction     float64 `json:"bagging_fraction" mapstructure:"bagging_fraction"`
	BaggingFreq         int     `json:"bagging_freq" mapstructure:"bagging_freq"`
	LambdaL1            float64 `json:"lambda_l1" mapstructure:"lambda_l1"`
	LambdaL2            float64 `json:"lambda_l2" mapstructure:"lambda_l2"`
	MinDataInLeaf       int     `json:"min_data_in_leaf" mapstructure:"min_data_in_leaf"`
	MinSumHessianInLeaf float64 `json:"min_sum_hessian_in_leaf" mapstructure:"min_sum_hessian_in_leaf"`
}

const (
	ObjectiveRegression = "regression"
	MetricRMSE          = "rmse"
	BoostingGBDT        = "gbdt"
)

// DefaultParams returns the fixed configuration used when no search runs.
func DefaultParams() Params {
	return Params{
		Objective:           ObjectiveRegression,
		Metric:              MetricRMSE,
		BoostingType:        BoostingGBDT,
		Seed:                42,
		LearningRate:        0.1,
		NumLeaves:           31,
		MaxDepth:            -1,
		FeatureFraction:     0.9,
		BaggingFraction:     0.8,
		BaggingFreq:         5,
		MinDataInLeaf:       20,
		MinSumHessianInLeaf: 1e-3,
	}
}

// Validate reports the first invalid field.
func (p Params) Validate() error {
	var errs []error
	if p.Objective != ObjectiveRegression {
		errs = append(errs, fmt.Errorf("unsupported objective %q", p.Objective))
	}
	if p.Metric != MetricRMSE {
		errs = append(errs, fmt.Errorf("unsupported metric %q", p.Metric))
	}
	if p.BoostingType != BoostingGBDT {
		errs = append(errs, fmt.Errorf("unsupported boosting type %q", p.BoostingType))
	}
	if p.LearningRate <= 0 {
		errs = append(errs, fmt.Errorf("learning_rate must be positive, got %v", p.LearningRate))
	}
	if p.NumLeaves < 2 {
		errs = append(errs, fmt.Errorf("num_leaves must be at least 2, got %d", p.NumLeaves))
	}
	if p.FeatureFraction <= 0 || p.FeatureFraction > 1 {
		errs = append(errs, fmt.Errorf("feature_fraction must be in (0, 1], got %v", p.FeatureFraction))
	}
	if p.BaggingFraction <= 0 || p.BaggingFraction > 1 {
		errs = append(errs, fmt.Errorf("bagging_fraction must be in (0, 1], got %v", p.BaggingFraction))
	}
	if p.BaggingFreq < 0 {
		errs = append(errs, fmt.Errorf("bagging_freq must not be negative, got %d", p.BaggingFreq))
	}
	if p.LambdaL1 < 0 || p.LambdaL2 < 0 {
		errs = append(errs, fmt.Errorf("lambda_l1 and lambda_l2 must not be negative"))
	}
	if p.MinDataInLeaf < 1 {
		errs = append(errs, fmt.Errorf("min_data_in_leaf must be at least 1, got %d", p.MinDataInLeaf))
	}
	if p.MinSumHessianInLeaf < 0 {
		errs = append(errs, fmt.Errorf("min_sum_hessian_in_leaf must not be negative"))
	}
	return errors.Join(errs...)
}

// maxDepthLimited reports whether MaxDepth bounds tree depth. Non-positive
// values mean unlimited.
func (p Params) maxDepthLimited() bool { return p.MaxDepth > 0 }
