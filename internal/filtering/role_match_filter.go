package filtering

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/skillgap/internal/ranking"
)

type roleMatchFilter struct {
	enabled bool
	reason  string
	logger  *zap.Logger
}

// NewRoleMatch creates a filter that keeps only entries whose role matches the resume.
func NewRoleMatch(enabled bool, logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &roleMatchFilter{enabled: enabled, logger: logger}
	if !enabled {
		f.reason = "role match is not required"
	}
	return f
}

func (f *roleMatchFilter) Name() string { return "role_match" }

func (f *roleMatchFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *roleMatchFilter) IsEnabled() bool { return f.enabled }

func (f *roleMatchFilter) Validate() error { return nil }

func (f *roleMatchFilter) Apply(_ context.Context, entries *ranking.Entries) (*ranking.Entries, Step, error) {
	initial := entries.Len()

	dropped := entries.Drop(func(e *ranking.Entry) bool {
		return e.Fit == nil || !e.Fit.RoleMatch
	})
	if len(dropped) > 0 {
		f.logger.Info("excluding documents with a different role",
			zap.Strings("excluded_documents", dropped),
			zap.Int("documents_left", entries.Len()),
		)
	}

	return entries, Step{Initial: initial, Dropped: len(dropped), Left: entries.Len()}, nil
}

func (f *roleMatchFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.enabled, Reason: f.reason}
}
