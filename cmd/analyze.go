package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/hyresense/internal/analysis"
)

var errCancelled = errors.New("cancelled by user")

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze how well a candidate fits a job post",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return analyze(cmd)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().String("job", "", "job post id")
	analyzeCmd.Flags().String("candidate", "", "candidate profile id")
	analyzeCmd.Flags().String("resume", "", "resume id (default is the candidate's default resume)")
	analyzeCmd.Flags().BoolP("force", "f", false, "analyze again even if a completed analysis exists")
	analyzeCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation before replacing a completed analysis")

	analyzeCmd.MarkFlagRequired("job")
	analyzeCmd.MarkFlagRequired("candidate")
}

func analyze(cmd *cobra.Command) error {
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
	candidateID, _ := cmd.Flags().GetString("candidate")
	resumeID, _ := cmd.Flags().GetString("resume")
	force, _ := cmd.Flags().GetBool("force")
	yes, _ := cmd.Flags().GetBool("yes")

	req, err := d.resolveRequest(ctx, jobID, candidateID, resumeID)
	if err != nil {
		return err
	}

	var record *analysis.Record
	if force {
		if err := confirmReplace(ctx, d, jobID, candidateID, yes); err != nil {
			return err
		}
		record, err = d.analyzer.Analyze(ctx, req)
	} else {
		record, err = d.analyzer.AnalyzeIfAbsent(ctx, req)
	}

	if record != nil {
		if perr := printJSON(cmd.OutOrStdout(), record); perr != nil {
			return perr
		}
	}
	return err
}

// confirmReplace asks before a completed analysis is replaced.
func confirmReplace(ctx context.Context, d *deps, jobID, candidateID string, yes bool) error {
	existing, err := d.store.Get(ctx, jobID, candidateID)
	if errors.Is(err, analysis.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.Status != analysis.StatusCompleted || yes {
		return nil
	}

	d.logger.Info("completed analysis exists",
		zap.String("record_id", existing.ID),
		zap.Float64("fit_score", existing.Score()),
		zap.Time("analyzed_at", derefTime(existing)),
	)

	prompt := promptui.Prompt{
		Label:     fmt.Sprintf("Replace analysis %s", existing.ID),
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return errCancelled
		}
		return err
	}

	return nil
}

func derefTime(r *analysis.Record) time.Time {
	if r == nil || r.AnalyzedAt == nil {
		return time.Time{}
	}
	return *r.AnalyzedAt
}
