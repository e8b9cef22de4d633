package ranking

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/skillgap/internal/documents"
	"github.com/spigell/skillgap/internal/logger"
	"github.com/spigell/skillgap/internal/scoring"
	"github.com/spigell/skillgap/internal/semantic"
	"github.com/spigell/skillgap/internal/signals"
	"github.com/spigell/skillgap/internal/skills"
	"github.com/spigell/skillgap/internal/taxonomy"
)

type Ranker struct {
	scorer   *scoring.Scorer
	semantic *semantic.Scorer
	taxonomy *taxonomy.Taxonomy
	logger   *zap.Logger
}

// New builds a ranker. semanticScorer may be nil to skip semantic scoring.
func New(scorer *scoring.Scorer, semanticScorer *semantic.Scorer, taxo *taxonomy.Taxonomy, log *zap.Logger) *Ranker {
	if scorer == nil {
		scorer = scoring.Default()
	}
	if taxo == nil {
		taxo = taxonomy.Empty()
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Ranker{
		scorer:   scorer,
		semantic: semanticScorer,
		taxonomy: taxo,
		logger:   log,
	}
}

// Rank scores resume against every job and returns the entries sorted best first.
// Semantic failures are recorded on the entry and do not stop ranking.
func (r *Ranker) Rank(ctx context.Context, resume *documents.Document, jobs *documents.Documents) (*Entries, error) {
	if resume == nil {
		return nil, errors.New("resume is required")
	}

	profile := scoring.Analyze(resume.Text, r.taxonomy)
	resumeSkills := skills.NewSet(profile.Skills...)

	r.logger.Info("resume analyzed",
		zap.String("resume", resume.ID),
		zap.String("role", profile.Role.String()),
		zap.Int("years", profile.Years),
		zap.Strings("skills", profile.Skills),
	)

	entries := &Entries{Items: make([]*Entry, 0, jobs.Len())}
	for _, job := range jobs.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		jobProfile := scoring.Analyze(job.Text, r.taxonomy)
		fit := r.scorer.ComputeFit(
			resumeSkills,
			skills.NewSet(jobProfile.Skills...),
			signals.RoleMatch(profile.Role, jobProfile.Role),
			profile.Years,
			jobProfile.Years,
		)

		entry := &Entry{
			ID:     job.ID,
			Name:   job.Name,
			Path:   job.Path,
			Role:   jobProfile.Role,
			Skills: jobProfile.Skills,
			Fit:    fit,
		}

		if r.semantic != nil {
			res, err := r.semantic.Score(ctx, resume.Text, job.Text)
			switch {
			case ctx.Err() != nil:
				return nil, fmt.Errorf("semantic scoring %s: %w", job.ID, ctx.Err())
			case err != nil:
				r.logger.Warn("semantic scoring failed", zap.String("id", job.ID), zap.Error(err))
				entry.SemanticError = err.Error()
			default:
				entry.Semantic = res
			}
		}

		r.logger.Debug("job scored", append(logger.ScoreFields(fit), zap.String("id", job.ID))...)
		entries.Items = append(entries.Items, entry)
	}

	entries.Sort()
	return entries, nil
}
