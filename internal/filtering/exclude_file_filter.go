package filtering

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/skillgap/internal/documents"
	"github.com/spigell/skillgap/internal/ranking"
)

type excludeFileFilter struct {
	path   string
	logger *zap.Logger
}

// NewExcludeFile creates a filter that removes entries listed in an exclude file.
func NewExcludeFile(path string, logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &excludeFileFilter{path: strings.TrimSpace(path), logger: logger}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(string) {}

func (f *excludeFileFilter) IsEnabled() bool { return true }

func (f *excludeFileFilter) Validate() error { return nil }

func (f *excludeFileFilter) Apply(_ context.Context, entries *ranking.Entries) (*ranking.Entries, Step, error) {
	initial := entries.Len()
	if f.path == "" {
		return entries, Step{Initial: initial, Dropped: 0, Left: entries.Len()}, nil
	}

	excluded, err := documents.ReadExcludedFile(f.path)
	if err != nil {
		return entries, Step{}, fmt.Errorf("getting excluded documents from file: %w", err)
	}

	removed := entries.Exclude(excluded.IDs())
	if len(removed) > 0 {
		f.logger.Info("excluding documents based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_documents", removed),
			zap.Int("documents_left", entries.Len()),
		)
	}

	return entries, Step{Initial: initial, Dropped: len(removed), Left: entries.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}
