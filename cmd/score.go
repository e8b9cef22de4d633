package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/skillgap/internal/documents"
	"github.com/spigell/skillgap/internal/logger"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a resume against a job description",
}

var scorePairCmd = &cobra.Command{
	Use:   "pair <resume> <job-description>",
	Short: "Rule-based fit score from skills, role and years of experience",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		scorePair(cmd, args)
	},
}

var scoreSemanticCmd = &cobra.Command{
	Use:   "semantic <resume> <job-description>",
	Short: "Embedding similarity score with matched and missing skills",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		scoreSemantic(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.AddCommand(scorePairCmd, scoreSemanticCmd)
}

func loadPair(rt *runtime, cmd *cobra.Command, args []string) (*documents.Document, *documents.Document) {
	resume, err := documents.LoadFile(cmd.Context(), args[0])
	if err != nil {
		rt.logger.Fatal("loading resume", zap.Error(err))
	}

	job, err := documents.LoadFile(cmd.Context(), args[1])
	if err != nil {
		rt.logger.Fatal("loading job description", zap.Error(err))
	}

	return resume, job
}

func scorePair(cmd *cobra.Command, args []string) {
	rt := newRuntime(cmd.Context(), false)
	resume, job := loadPair(rt, cmd, args)

	fit := rt.scorer.ScorePair(resume.Text, job.Text, rt.taxonomy)
	rt.logger.Info("pair scored", logger.ScoreFields(fit)...)

	if err := printJSON(cmd.OutOrStdout(), fit); err != nil {
		rt.logger.Fatal("printing result", zap.Error(err))
	}
}

func scoreSemantic(cmd *cobra.Command, args []string) {
	rt := newRuntime(cmd.Context(), true)

	scorer := rt.semanticScorer()
	if scorer == nil {
		rt.logger.Fatal("semantic scoring needs an embedder", zap.String("hint", "set embedding.provider to hashing or gemini"))
	}

	resume, job := loadPair(rt, cmd, args)

	result, err := scorer.Score(cmd.Context(), resume.Text, job.Text)
	if err != nil {
		rt.logger.Fatal("semantic scoring failed", zap.Error(err))
	}

	rt.logger.Info("pair scored", zap.Float64("semantic_score", result.SemanticScore))

	if err := printJSON(cmd.OutOrStdout(), result); err != nil {
		rt.logger.Fatal("printing result", zap.Error(err))
	}
}
