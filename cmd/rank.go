package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/skillgap/internal/documents"
	"github.com/spigell/skillgap/internal/filtering"
	"github.com/spigell/skillgap/internal/ranking"
)

const (
	PromptReportByRole        = "Report by role"
	PromptRankingToFile       = "Dump ranking to file"
	PromptAppendToExcludeFile = "Append all documents to exclude file"
	PromptExit                = "Exit"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Proceed?",
	Items: []string{PromptReportByRole, PromptRankingToFile, PromptAppendToExcludeFile, PromptExit},
}

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank every job description in a directory against a resume",
	Run: func(cmd *cobra.Command, _ []string) {
		rank(cmd)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().StringP("resume", "r", "", "resume file (.txt, .docx or .pdf)")
	rankCmd.Flags().StringP("jobs", "J", "", "directory with job descriptions")
	rankCmd.Flags().BoolP("auto-approve", "y", false, "print the report and exit without asking")
	rankCmd.Flags().StringP("exclude-file", "e", "", "special file with documents to exclude. Default is unset.")
	rankCmd.Flags().Float64("minimum-fit-score", 0, "drop job descriptions below this fit score")
	rankCmd.Flags().Bool("require-role-match", false, "drop job descriptions for another role")

	rankCmd.MarkFlagRequired("resume")
	rankCmd.MarkFlagRequired("jobs")

	viper.BindPFlag("rank.exclude-file", rankCmd.Flags().Lookup("exclude-file"))
	viper.BindPFlag("rank.minimum-fit-score", rankCmd.Flags().Lookup("minimum-fit-score"))
	viper.BindPFlag("rank.require-role-match", rankCmd.Flags().Lookup("require-role-match"))
}

func rank(cmd *cobra.Command) {
	ctx := cmd.Context()
	rt := newRuntime(ctx, true)
	logger := rt.logger

	logger.Info("starting the ranking", zap.String("version", version))

	resumePath, _ := cmd.Flags().GetString("resume")
	jobsDir, _ := cmd.Flags().GetString("jobs")

	resume, err := documents.LoadFile(ctx, resumePath)
	if err != nil {
		logger.Fatal("loading resume", zap.Error(err))
	}

	jobs, err := documents.LoadDir(ctx, jobsDir, logger)
	if err != nil {
		logger.Fatal("loading job descriptions", zap.Error(err))
	}

	logger.Info("getting job descriptions", zap.Int("count", jobs.Len()))

	if jobs.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no job descriptions found"))
		return
	}

	ranker := ranking.New(rt.scorer, rt.semanticScorer(), rt.taxonomy, logger)

	entries, err := ranker.Rank(ctx, resume, jobs)
	if err != nil {
		logger.Fatal("ranking failed", zap.Error(err))
	}

	filters := prepareFilters(rt.config.Rank, rt.embedder != nil, logger)

	entries, err = filters.RunFilters(ctx, entries)
	if err != nil {
		logger.Fatal("filtering failed", zap.Error(err))
	}

	if entries.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no job descriptions left after filters"))
		return
	}

	autoApprove, _ := cmd.Flags().GetBool("auto-approve")
	if autoApprove {
		if err := handleAction(cmd, PromptReportByRole, rt, entries); err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		logger.Info("current list of job descriptions", zap.Int("count", entries.Len()))

		if err := handleAction(cmd, action, rt, entries); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(cmd *cobra.Command, action string, rt *runtime, entries *ranking.Entries) error {
	logger := rt.logger

	switch action {
	case PromptReportByRole:
		pretty, _ := json.MarshalIndent(entries.ReportByRole(), "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
		logger.Info("report printed", zap.Int("documents count", entries.Len()))
		return nil
	case PromptRankingToFile:
		filename, err := entries.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptAppendToExcludeFile:
		return appendToExcludeFile(rt, entries)
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func appendToExcludeFile(rt *runtime, entries *ranking.Entries) error {
	excludeFile := ""
	if rt.config.Rank != nil {
		excludeFile = strings.TrimSpace(rt.config.Rank.ExcludeFile)
	}
	if excludeFile == "" {
		rt.logger.Warn("exclude file is not configured", zap.String("hint", "set rank.exclude-file or pass --exclude-file"))
		return nil
	}

	excluded, err := documents.ReadExcludedFile(excludeFile)
	if err != nil {
		return err
	}

	excluded.Append(entries.ToExcluded(time.Now()))

	if err := excluded.ToFile(excludeFile); err != nil {
		return err
	}

	rt.logger.Info("appended to exclude file", zap.String("filename", excludeFile))

	entries.Exclude(excluded.IDs())
	if entries.Len() == 0 {
		return errExit
	}
	return nil
}

func prepareFilters(cfg *RankConfig, withSemantic bool, logger *zap.Logger) *filtering.Filtering {
	if cfg == nil {
		cfg = &RankConfig{}
	}

	f := filtering.New([]filtering.Filter{
		filtering.NewExcludeFile(cfg.ExcludeFile, logger),
		filtering.NewRoleMatch(cfg.RequireRoleMatch, logger),
		filtering.NewMinimumFit(cfg.MinimumFitScore, logger),
		filtering.NewMinimumSemantic(cfg.MinimumSemanticScore, logger),
	}, logger)

	if !withSemantic {
		f.DisableByName("minimum_semantic", "semantic scoring is disabled")
	}

	for _, status := range f.Describe() {
		logger.Debug("filter configured",
			zap.String("filter", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}

	return f
}
