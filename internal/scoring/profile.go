package scoring

import (
	"github.com/spigell/skillgap/internal/signals"
	"github.com/spigell/skillgap/internal/skills"
	"github.com/spigell/skillgap/internal/taxonomy"
)

// Profile holds the signals extracted from one document.
type Profile struct {
	Skills []string     `json:"skills"`
	Role   signals.Role `json:"role"`
	Years  int          `json:"years"`
}

// Analyze extracts skills, role and years from text.
func Analyze(text string, taxo *taxonomy.Taxonomy) Profile {
	return Profile{
		Skills: skills.Extract(text, taxo),
		Role:   signals.PredictRole(text),
		Years:  signals.GuessYears(text),
	}
}

// ScorePair analyzes both documents and scores the resume against the job.
func (s *Scorer) ScorePair(resumeText, jobText string, taxo *taxonomy.Taxonomy) *FitResult {
	resume := Analyze(resumeText, taxo)
	job := Analyze(jobText, taxo)

	return s.ComputeFit(
		skills.NewSet(resume.Skills...),
		skills.NewSet(job.Skills...),
		signals.RoleMatch(resume.Role, job.Role),
		resume.Years,
		job.Years,
	)
}
