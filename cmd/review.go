package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/hyresense/internal/analysis"
	"github.com/spigell/hyresense/internal/logger"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Record a human review of a stored analysis",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return review(cmd)
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().String("job", "", "job post id")
	reviewCmd.Flags().String("candidate", "", "candidate profile id")
	reviewCmd.Flags().Bool("reviewed", true, "mark the analysis as reviewed by a human")
	reviewCmd.Flags().Bool("override", false, "mark the analysis as overridden by a human decision")
	reviewCmd.Flags().String("remarks", "", "human remarks")

	reviewCmd.MarkFlagRequired("job")
	reviewCmd.MarkFlagRequired("candidate")
}

func review(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	d, err := newDeps(ctx, false)
	if err != nil {
		return err
	}
	defer d.Close()

	jobID, _ := cmd.Flags().GetString("job")
	candidateID, _ := cmd.Flags().GetString("candidate")
	reviewed, _ := cmd.Flags().GetBool("reviewed")
	override, _ := cmd.Flags().GetBool("override")
	remarks, _ := cmd.Flags().GetString("remarks")

	err = d.store.SaveReview(ctx, jobID, candidateID, analysis.Review{
		ReviewedByHuman: reviewed,
		HumanOverride:   override,
		HumanRemarks:    remarks,
	})
	if err != nil {
		return err
	}

	d.logger.Info("review saved", logger.PairFields(jobID, candidateID)...)

	record, err := d.store.Get(ctx, jobID, candidateID)
	if err != nil {
		d.logger.Warn("reading updated analysis", zap.Error(err))
		return nil
	}
	return printJSON(cmd.OutOrStdout(), record)
}
