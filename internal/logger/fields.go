package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldStage is the structured log field key for the pipeline stage name.
	FieldStage = "stage"
	// FieldRunID is the structured log field key for the pipeline run identifier.
	FieldRunID = "run_id"
	// FieldSite is the structured log field key for a job board site.
	FieldSite = "site"
	// FieldProvider is the structured log field key for the AI provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the AI model identifier.
	FieldModel = "ai_model"
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

// WithFields attaches the provided fields to the logger.
// A nil logger is replaced with a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// StageFields returns the fields identifying a pipeline stage within a run.
func StageFields(stage, runID string) []zap.Field {
	return StringFields(
		StringField{Key: FieldStage, Value: stage},
		StringField{Key: FieldRunID, Value: runID},
	)
}

// WithProvider attaches the AI provider and model to the logger.
func WithProvider(logger *zap.Logger, provider, model string) *zap.Logger {
	fields := StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
	return WithFields(logger, fields...)
}
