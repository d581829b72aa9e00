// Package pipeline runs the ordered table transformations shared by training
// and serving.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/salary-predictor/internal/artifact"
	"github.com/spigell/salary-predictor/internal/dataset"
	"github.com/spigell/salary-predictor/internal/logger"
	"github.com/spigell/salary-predictor/internal/normalize"
)

// Stage is a single transformation applied to a frame.
type Stage interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Apply(ctx context.Context, deps Deps, f *dataset.Frame) (*dataset.Frame, Step, error)
}

// Deps aggregates dependencies shared across all stages.
type Deps struct {
	Logger    *zap.Logger
	Countries normalize.CountryLookup
	Store     *artifact.Store
}

// Step describes the row counts around one stage.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

func unchanged(f *dataset.Frame) Step {
	return Step{Initial: f.Len(), Left: f.Len()}
}

// Status represents runtime information about a stage.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

type statusProvider interface {
	Status() Status
}

// DisableByName marks the stage with the provided name as disabled while
// keeping it in the list.
func DisableByName(stages []Stage, name, reason string) {
	for _, stage := range stages {
		if stage.Name() == name {
			stage.Disable(reason)
		}
	}
}

// Run applies the enabled stages in order. A failing stage aborts the run and
// its error is prefixed with the stage name.
func Run(ctx context.Context, deps Deps, stages []Stage, f *dataset.Frame) (*dataset.Frame, error) {
	log := logger.WithFields(deps.Logger)

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !stage.IsEnabled() {
			log.Debug("stage disabled", zap.String(logger.FieldStage, stage.Name()))
			continue
		}

		next, info, err := stage.Apply(ctx, deps, f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", stage.Name(), err)
		}

		log.Info("pipeline stage",
			zap.String(logger.FieldStage, stage.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		f = next
	}

	return f, nil
}

// Describe returns status entries for the provided stages.
func Describe(stages []Stage) []Status {
	statuses := make([]Status, 0, len(stages))
	for _, stage := range stages {
		if reporter, ok := stage.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    stage.Name(),
			Enabled: stage.IsEnabled(),
		})
	}
	return statuses
}
