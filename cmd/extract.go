package cmd

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/skillgap/internal/documents"
	"github.com/spigell/skillgap/internal/scoring"
	"github.com/spigell/skillgap/internal/skills"
)

type extraction struct {
	scoring.Profile
	Highlights []skills.Match `json:"highlights,omitempty"`
}

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract skills, role and years of experience from a document",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		extract(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().String("text", "", "text to analyze instead of a file")
	extractCmd.Flags().Bool("highlight", false, "include the matched alias and its positions for every skill")
}

func extract(cmd *cobra.Command, args []string) {
	rt := newRuntime(cmd.Context(), false)

	text, err := inputText(cmd.Context(), cmd, args)
	if err != nil {
		rt.logger.Fatal("reading input", zap.Error(err))
	}

	out := extraction{Profile: scoring.Analyze(text, rt.taxonomy)}
	if highlight, _ := cmd.Flags().GetBool("highlight"); highlight {
		out.Highlights = skills.Highlight(text, rt.taxonomy)
	}

	rt.logger.Info("document analyzed",
		zap.Int("skills", len(out.Skills)),
		zap.Stringer("role", out.Role),
		zap.Int("years", out.Years),
	)

	if err := printJSON(cmd.OutOrStdout(), out); err != nil {
		rt.logger.Fatal("printing result", zap.Error(err))
	}
}

// inputText takes --text when given, otherwise the file argument.
func inputText(ctx context.Context, cmd *cobra.Command, args []string) (string, error) {
	if text, _ := cmd.Flags().GetString("text"); strings.TrimSpace(text) != "" {
		return text, nil
	}
	if len(args) == 0 {
		return "", errors.New("either a file argument or --text is required")
	}

	doc, err := documents.LoadFile(ctx, args[0])
	if err != nil {
		return "", err
	}
	return doc.Text, nil
}
