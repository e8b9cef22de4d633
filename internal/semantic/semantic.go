// Package semantic scores how close two documents are in embedding space and
// reports which required skills the resume covers.
package semantic

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/spigell/skillgap/internal/embedding"
	"github.com/spigell/skillgap/internal/scoring"
	"github.com/spigell/skillgap/internal/skills"
	"github.com/spigell/skillgap/internal/taxonomy"
)

// Result is the semantic comparison of a resume against a job description.
type Result struct {
	SemanticScore float64  `json:"semantic_score"`
	Matched       []string `json:"matched_required"`
	Missing       []string `json:"missing_required"`
}

// Scorer embeds both documents with the same embedder.
type Scorer struct {
	embedder embedding.Embedder
	taxonomy *taxonomy.Taxonomy
}

// NewScorer wraps embedder so blank documents never reach the provider.
func NewScorer(embedder embedding.Embedder, taxo *taxonomy.Taxonomy) (*Scorer, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if taxo == nil {
		taxo = taxonomy.Empty()
	}

	return &Scorer{embedder: embedding.NewGuard(embedder), taxonomy: taxo}, nil
}

// Score embeds both texts and compares them. Embedding failures are returned
// unchanged in meaning; a failed call never yields a score.
func (s *Scorer) Score(ctx context.Context, resumeText, jobText string) (*Result, error) {
	resumeVec, err := s.embedder.Embed(ctx, resumeText)
	if err != nil {
		return nil, fmt.Errorf("embed resume: %w", err)
	}

	jobVec, err := s.embedder.Embed(ctx, jobText)
	if err != nil {
		return nil, fmt.Errorf("embed job description: %w", err)
	}

	resumeSkills := skills.ExtractSet(resumeText, s.taxonomy)
	required := skills.ExtractSet(jobText, s.taxonomy)

	return &Result{
		SemanticScore: Normalize(CosineSimilarity(resumeVec, jobVec)),
		Matched:       resumeSkills.Intersect(required).Sorted(),
		Missing:       required.Difference(resumeSkills).Sorted(),
	}, nil
}

// CosineSimilarity returns 0 for vectors of different lengths or with a zero norm.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(cos) {
		return 0
	}

	return cos
}

// Normalize maps a cosine in [-1, 1] to [0, 1], clamps and rounds to three decimals.
func Normalize(cos float64) float64 {
	if math.IsNaN(cos) {
		cos = 0
	}

	v := (cos + 1) / 2
	v = math.Max(0, math.Min(1, v))

	return scoring.Round(v)
}
