package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/skillgap/internal/mining"
)

var mineCmd = &cobra.Command{
	Use:   "mine <dir>...",
	Short: "Count frequent phrases in resumes and job descriptions to grow the taxonomy",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mine(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(mineCmd)

	mineCmd.Flags().Int("min-freq", mining.DefaultMinFrequency, "keep phrases seen at least this many times")
	mineCmd.Flags().StringP("output", "o", mining.DefaultOutput, "csv file to write")
}

func mine(cmd *cobra.Command, dirs []string) {
	_, logger := setup()

	minFreq, _ := cmd.Flags().GetInt("min-freq")
	output, _ := cmd.Flags().GetString("output")

	counter, err := mining.MineDirs(cmd.Context(), dirs, logger)
	if err != nil {
		logger.Fatal("mining phrases", zap.Error(err))
	}

	phrases := counter.Frequent(minFreq)
	if err := mining.WriteFile(output, phrases); err != nil {
		logger.Fatal("writing phrases", zap.Error(err))
	}

	logger.Info("phrases written",
		zap.String("output", output),
		zap.Int("documents", counter.Documents()),
		zap.Int("phrases", len(phrases)),
	)
}
