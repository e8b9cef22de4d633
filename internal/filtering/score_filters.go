package filtering

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/skillgap/internal/ranking"
)

const noThresholdMsg = "threshold is not set"

type thresholdFilter struct {
	name      string
	threshold float64
	enabled   bool
	reason    string
	logger    *zap.Logger

	// score returns the entry score and whether the entry has one at all.
	score func(*ranking.Entry) (float64, bool)
}

// NewMinimumFit creates a filter that drops entries below the fit score threshold.
// A non-positive threshold disables it.
func NewMinimumFit(threshold float64, logger *zap.Logger) Filter {
	return newThreshold("minimum_fit", threshold, logger, func(e *ranking.Entry) (float64, bool) {
		if e.Fit == nil {
			return 0, true
		}
		return e.Fit.FitScore, true
	})
}

// NewMinimumSemantic creates a filter that drops entries below the semantic
// score threshold. Entries without a semantic score are kept.
func NewMinimumSemantic(threshold float64, logger *zap.Logger) Filter {
	return newThreshold("minimum_semantic", threshold, logger, func(e *ranking.Entry) (float64, bool) {
		if e.Semantic == nil {
			return 0, false
		}
		return e.Semantic.SemanticScore, true
	})
}

func newThreshold(name string, threshold float64, logger *zap.Logger, score func(*ranking.Entry) (float64, bool)) *thresholdFilter {
	if logger == nil {
		logger = zap.NewNop()
	}

	f := &thresholdFilter{
		name:      name,
		threshold: threshold,
		enabled:   threshold > 0,
		logger:    logger,
		score:     score,
	}
	if !f.enabled {
		f.reason = noThresholdMsg
	}
	return f
}

func (f *thresholdFilter) Name() string { return f.name }

func (f *thresholdFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *thresholdFilter) IsEnabled() bool { return f.enabled }

func (f *thresholdFilter) Validate() error {
	if math.IsNaN(f.threshold) || f.threshold < 0 || f.threshold > 1 {
		return fmt.Errorf("threshold %v is outside [0, 1]", f.threshold)
	}
	return nil
}

func (f *thresholdFilter) Apply(_ context.Context, entries *ranking.Entries) (*ranking.Entries, Step, error) {
	initial := entries.Len()

	dropped := entries.Drop(func(e *ranking.Entry) bool {
		score, ok := f.score(e)
		return ok && score < f.threshold
	})
	if len(dropped) > 0 {
		f.logger.Info("excluding documents below threshold",
			zap.String("filter", f.name),
			zap.Float64("threshold", f.threshold),
			zap.Strings("excluded_documents", dropped),
			zap.Int("documents_left", entries.Len()),
		)
	}

	return entries, Step{Initial: initial, Dropped: len(dropped), Left: entries.Len()}, nil
}

func (f *thresholdFilter) Status() Status {
	return Status{
		Name:    f.name,
		Enabled: f.enabled,
		Reason:  f.reason,
		Details: map[string]string{"threshold": strconv.FormatFloat(f.threshold, 'f', -1, 64)},
	}
}
