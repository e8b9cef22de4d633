package logger

import (
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/skillgap/internal/scoring"
)

const (
	// FieldProvider is the structured log field key for the embedding provider name.
	FieldProvider = "embedding_provider"
	// FieldModel is the structured log field key for the embedding model identifier.
	FieldModel = "embedding_model"
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

// WithFields attaches fields to logger, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// CommonFields describes the embedding provider and model. Empty values are dropped.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

func WithCommonFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, CommonFields(provider, model)...)
}

// ScoreFields flattens a fit result for logging. A nil result yields no fields.
func ScoreFields(fit *scoring.FitResult) []zap.Field {
	if fit == nil {
		return nil
	}

	return []zap.Field{
		zap.Float64("fit_score", fit.FitScore),
		zap.Strings("matched_required", fit.Matched),
		zap.Strings("missing_required", fit.Missing),
		zap.Bool("role_match", fit.RoleMatch),
		zap.Int("years_candidate", fit.YearsCandidate),
		zap.Int("years_required", fit.YearsRequired),
	}
}
