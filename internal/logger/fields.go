package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldStage is the structured log field key for a pipeline stage name.
	FieldStage = "stage"
	// FieldColumn is the structured log field key for a table column.
	FieldColumn = "column"
	// FieldArtifact is the structured log field key for a persisted artifact path.
	FieldArtifact = "artifact"
	// FieldRunID is the structured log field key for a training run identifier.
	FieldRunID = "run_id"
	// FieldIteration is the structured log field key for a tuning iteration.
	FieldIteration = "iteration"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// If the logger is nil or no fields are supplied, the input logger is returned
// unchanged, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// RunFields returns the fields identifying a training run and the artifact it writes.
// Empty values are ignored to keep log entries compact when information is missing.
func RunFields(runID, artifact string) []zap.Field {
	return StringFields(
		StringField{Key: FieldRunID, Value: runID},
		StringField{Key: FieldArtifact, Value: artifact},
	)
}

// WithRun attaches the run fields to the provided logger.
// If the logger is nil, a no-op logger is created to avoid panics.
func WithRun(logger *zap.Logger, runID, artifact string) *zap.Logger {
	return WithFields(logger, RunFields(runID, artifact)...)
}
