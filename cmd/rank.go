package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/hyresense/internal/analysis"
	"github.com/spigell/hyresense/internal/filtering"
	"github.com/spigell/hyresense/internal/logger"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Analyze several candidates for a job post and print the best matches",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return rank(cmd)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().String("job", "", "job post id")
	rankCmd.Flags().StringSlice("candidates", nil, "candidate profile ids")
	rankCmd.Flags().IntP("limit", "l", 10, "maximum number of matches to print, 0 prints all")
	rankCmd.Flags().StringP("exclude-file", "e", "", "file with candidate ids to skip, overrides screening.exclude-file")

	rankCmd.MarkFlagRequired("job")
	rankCmd.MarkFlagRequired("candidates")
}

func rank(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	d, err := newDeps(ctx, true)
	if err != nil {
		return err
	}
	defer d.Close()

	jobID, _ := cmd.Flags().GetString("job")
	candidateIDs, _ := cmd.Flags().GetStringSlice("candidates")
	limit, _ := cmd.Flags().GetInt("limit")

	job, err := d.source.Job(ctx, jobID)
	if err != nil {
		return err
	}

	candidates := make([]analysis.Candidate, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		c, err := d.resolveCandidate(ctx, id, "")
		if err != nil {
			d.logger.Warn("skipping candidate", zap.String(logger.FieldCandidateID, id), zap.Error(err))
			continue
		}
		candidates = append(candidates, c)
	}

	excludeFile, _ := cmd.Flags().GetString("exclude-file")
	if excludeFile == "" && d.config.Screening != nil {
		excludeFile = d.config.Screening.ExcludeFile
	}

	screened, err := filtering.Run(ctx, filtering.Deps{Logger: d.logger},
		[]filtering.Filter{
			filtering.NewMissingProfile(),
			filtering.NewInactiveJob(),
			filtering.NewExcludeFile(excludeFile),
		},
		job, candidates)
	if err != nil {
		return fmt.Errorf("screening candidates: %w", err)
	}

	for _, dropped := range screened.Dropped {
		req := analysis.Request{Job: job, Candidate: dropped.Candidate.Profile, Resume: dropped.Candidate.Resume}
		if _, err := d.analyzer.Skip(ctx, req, dropped.Reason); err != nil {
			d.logger.Warn("recording skipped analysis", zap.String(logger.FieldCandidateID, dropped.Candidate.Profile.ID), zap.Error(err))
		}
	}

	top := d.analyzer.TopMatches(ctx, job, screened.Kept, limit)
	d.logger.Info("ranking finished",
		zap.String(logger.FieldJobID, jobID),
		zap.Int("candidates", len(candidateIDs)),
		zap.Int("skipped", len(screened.Dropped)),
		zap.Int("matches", len(top)),
	)

	return printJSON(cmd.OutOrStdout(), top)
}
