// Package scoring combines skill coverage, experience and role signals into a
// bounded fit score.
package scoring

import (
	"errors"
	"fmt"
	"math"

	"github.com/spigell/skillgap/internal/skills"
)

const (
	// DefaultSkillsWeight is the share of the score driven by skill coverage.
	DefaultSkillsWeight = 0.6
	// DefaultExperienceWeight is the share driven by the experience term.
	DefaultExperienceWeight = 0.25
	// DefaultRoleWeight is the share driven by the role match.
	DefaultRoleWeight = 0.15
	// DefaultExperienceScale is the logistic scale, in years, of the experience term.
	DefaultExperienceScale = 2.0

	// NeutralExperience is used when no experience is required.
	NeutralExperience = 0.5

	weightsTolerance = 1e-9
	precision        = 1000
)

// ErrInvalidWeights is returned for weights that are negative or do not sum to 1.
var ErrInvalidWeights = errors.New("invalid scoring weights")

// Weights are the relative contributions of each signal. They must sum to 1.
type Weights struct {
	Skills     float64 `mapstructure:"skills" json:"skills"`
	Experience float64 `mapstructure:"experience" json:"experience"`
	Role       float64 `mapstructure:"role" json:"role"`
}

// DefaultWeights returns the 0.6/0.25/0.15 split.
func DefaultWeights() Weights {
	return Weights{
		Skills:     DefaultSkillsWeight,
		Experience: DefaultExperienceWeight,
		Role:       DefaultRoleWeight,
	}
}

func (w Weights) Validate() error {
	for name, v := range map[string]float64{"skills": w.Skills, "experience": w.Experience, "role": w.Role} {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return fmt.Errorf("%w: %s weight %v is outside [0, 1]", ErrInvalidWeights, name, v)
		}
	}

	if sum := w.Skills + w.Experience + w.Role; math.Abs(sum-1) > weightsTolerance {
		return fmt.Errorf("%w: weights sum to %v, expected 1", ErrInvalidWeights, sum)
	}

	return nil
}

// FitResult is the outcome of comparing a resume against a job description.
type FitResult struct {
	FitScore       float64  `json:"fit_score"`
	Matched        []string `json:"matched_required"`
	Missing        []string `json:"missing_required"`
	RoleMatch      bool     `json:"role_match"`
	YearsCandidate int      `json:"years_candidate"`
	YearsRequired  int      `json:"years_required"`
}

// Scorer computes fit results with a fixed set of weights.
// It holds no mutable state and is safe for concurrent use.
type Scorer struct {
	weights Weights
	scale   float64
}

// NewScorer validates weights and the experience scale.
func NewScorer(weights Weights, experienceScale float64) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}

	if experienceScale <= 0 || math.IsNaN(experienceScale) || math.IsInf(experienceScale, 0) {
		return nil, fmt.Errorf("experience scale must be positive, got %v", experienceScale)
	}

	return &Scorer{weights: weights, scale: experienceScale}, nil
}

// Default returns a scorer with the default weights and scale.
func Default() *Scorer {
	return &Scorer{weights: DefaultWeights(), scale: DefaultExperienceScale}
}

func (s *Scorer) Weights() Weights {
	return s.weights
}

// ComputeFit scores resumeSkills against required. Inputs are trusted:
// years are expected to be non-negative.
func (s *Scorer) ComputeFit(resumeSkills, required skills.Set, roleMatch bool, yearsCandidate, yearsRequired int) *FitResult {
	matched := resumeSkills.Intersect(required)
	missing := required.Difference(resumeSkills)

	roleTerm := 0.0
	if roleMatch {
		roleTerm = 1.0
	}

	fit := s.weights.Skills*Coverage(matched.Len(), required.Len()) +
		s.weights.Experience*ExperienceTerm(yearsCandidate, yearsRequired, s.scale) +
		s.weights.Role*roleTerm

	return &FitResult{
		FitScore:       Round(fit),
		Matched:        matched.Sorted(),
		Missing:        missing.Sorted(),
		RoleMatch:      roleMatch,
		YearsCandidate: yearsCandidate,
		YearsRequired:  yearsRequired,
	}
}

// ComputeFit scores with the default weights.
func ComputeFit(resumeSkills, required skills.Set, roleMatch bool, yearsCandidate, yearsRequired int) *FitResult {
	return Default().ComputeFit(resumeSkills, required, roleMatch, yearsCandidate, yearsRequired)
}

// Coverage is matched/required with the denominator floored at 1,
// so nothing required means zero coverage.
func Coverage(matched, required int) float64 {
	return float64(matched) / math.Max(1, float64(required))
}

// ExperienceTerm is a logistic of the years delta centered at 0.5.
// With nothing required it is exactly NeutralExperience.
func ExperienceTerm(yearsCandidate, yearsRequired int, scale float64) float64 {
	if yearsRequired <= 0 {
		return NeutralExperience
	}

	delta := float64(yearsCandidate - yearsRequired)
	return 1 / (1 + math.Exp(-delta/scale))
}

// Round rounds v to three decimals.
func Round(v float64) float64 {
	return math.Round(v*precision) / precision
}
