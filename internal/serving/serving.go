// Package serving turns raw records into salary predictions with the
// artifacts of a training run.
package serving

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/salary-predictor/internal/artifact"
	"github.com/spigell/salary-predictor/internal/dataset"
	"github.com/spigell/salary-predictor/internal/features"
	"github.com/spigell/salary-predictor/internal/gbm"
	"github.com/spigell/salary-predictor/internal/labelenc"
	"github.com/spigell/salary-predictor/internal/logger"
	"github.com/spigell/salary-predictor/internal/normalize"
	"github.com/spigell/salary-predictor/internal/pipeline"
)

// ErrNoReloader is returned by Reload when the predictor has no loader.
var ErrNoReloader = errors.New("artifact reload is not configured")

// Artifacts are the read-only outputs of a training run.
type Artifacts struct {
	Booster  *gbm.Booster
	Encoders labelenc.Set
	Density  features.DensityTable
}

// Validate checks that every artifact is present and matches the feature set.
func (a *Artifacts) Validate() error {
	if a == nil || a.Booster == nil {
		return errors.New("model is missing")
	}
	if a.Density == nil {
		return errors.New("density table is missing")
	}
	for _, column := range features.CategoricalColumns {
		if enc, ok := a.Encoders[column]; !ok || enc == nil {
			return fmt.Errorf("label encoder for %q is missing", column)
		}
	}
	if a.Booster.NumFeatures != len(features.FeatureColumns) {
		return fmt.Errorf("model expects %d features, pipeline produces %d", a.Booster.NumFeatures, len(features.FeatureColumns))
	}
	return nil
}

// Loader reads a complete artifact set.
type Loader interface {
	Load(ctx context.Context) (*Artifacts, error)
}

// StoreLoader loads artifacts from a store.
type StoreLoader struct {
	Store *artifact.Store
	Paths artifact.Paths
}

// Load reads the model, the encoders and the density table. Any missing or
// corrupt artifact fails the whole load.
func (l StoreLoader) Load(_ context.Context) (*Artifacts, error) {
	booster, err := gbm.Load(l.Store, l.Paths.Model)
	if err != nil {
		return nil, err
	}

	var encoders labelenc.Set
	if _, err := l.Store.Load(l.Paths.Encoders, &encoders); err != nil {
		return nil, fmt.Errorf("load encoders: %w", err)
	}

	density, err := features.LoadDensityTable(l.Store, l.Paths.Density)
	if err != nil {
		return nil, err
	}

	a := &Artifacts{Booster: booster, Encoders: encoders, Density: density}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", artifact.ErrLoad, err)
	}
	return a, nil
}

// Config wires a Predictor.
type Config struct {
	Artifacts *Artifacts
	Loader    Loader
	Countries normalize.CountryLookup
	Features  features.Options
	Logger    *zap.Logger
}

// Predictor serves predictions. Predict and Reload are safe for concurrent
// use; a prediction sees either the old or the new artifact set, never a mix.
type Predictor struct {
	mu        sync.RWMutex
	artifacts *Artifacts

	loader    Loader
	countries normalize.CountryLookup
	opts      features.Options
	logger    *zap.Logger
}

// New returns a predictor using the injected artifacts.
func New(cfg Config) (*Predictor, error) {
	if err := cfg.Artifacts.Validate(); err != nil {
		return nil, err
	}
	if cfg.Countries == nil {
		return nil, errors.New("country lookup is required")
	}
	return &Predictor{
		artifacts: cfg.Artifacts,
		loader:    cfg.Loader,
		countries: cfg.Countries,
		opts:      cfg.Features,
		logger:    logger.WithFields(cfg.Logger),
	}, nil
}

// Current returns the artifact set in use.
func (p *Predictor) Current() *Artifacts {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.artifacts
}

// Predict returns one prediction per record, in input order. Any failure
// fails the whole batch.
func (p *Predictor) Predict(ctx context.Context, records []dataset.Record) ([]float64, error) {
	if len(records) == 0 {
		return []float64{}, nil
	}

	a := p.Current()

	stages := append(
		pipeline.Preprocess(pipeline.PreprocessOptions{Serving: true}),
		pipeline.NewCreateFeatures(a.Density, p.opts),
	)
	deps := pipeline.Deps{Logger: p.logger, Countries: p.countries}

	frame, err := pipeline.Run(ctx, deps, stages, dataset.FromRecords(records))
	if err != nil {
		return nil, err
	}
	if err := a.Encoders.Transform(frame, features.CategoricalColumns); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	x, err := frame.Matrix(features.FeatureColumns)
	if err != nil {
		return nil, err
	}
	return a.Booster.PredictBest(x)
}

// Reload loads a fresh artifact set and swaps it in. The current set stays in
// use when loading fails.
func (p *Predictor) Reload(ctx context.Context) error {
	if p.loader == nil {
		return ErrNoReloader
	}

	a, err := p.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("reload artifacts: %w", err)
	}
	if err := a.Validate(); err != nil {
		return fmt.Errorf("reload artifacts: %w", err)
	}

	p.mu.Lock()
	p.artifacts = a
	p.mu.Unlock()

	p.logger.Info("artifacts reloaded", logger.RunFields(a.Booster.Metadata.RunID, "")...)
	return nil
}
