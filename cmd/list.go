package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/spigell/hyresense/internal/analysis"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print stored analyses of a job, a candidate or with a given status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return list(cmd)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().String("job", "", "list analyses of a job post, best fit first")
	listCmd.Flags().String("candidate", "", "list analyses of a candidate, newest first")
	listCmd.Flags().String("status", "", "list analyses with status (pending, completed, failed, skipped)")

	listCmd.MarkFlagsMutuallyExclusive("job", "candidate", "status")
	listCmd.MarkFlagsOneRequired("job", "candidate", "status")
}

func list(cmd *cobra.Command) error {
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
	status, _ := cmd.Flags().GetString("status")

	var records []*analysis.Record
	switch {
	case jobID != "":
		records, err = d.store.ListByJob(ctx, jobID)
	case candidateID != "":
		records, err = d.store.ListByCandidate(ctx, candidateID)
	default:
		if !validStatus(analysis.Status(status)) {
			return errors.New("invalid status: " + status)
		}
		records, err = d.store.ListByStatus(ctx, analysis.Status(status))
	}
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), records)
}

func validStatus(s analysis.Status) bool {
	switch s {
	case analysis.StatusPending, analysis.StatusCompleted, analysis.StatusFailed, analysis.StatusSkipped:
		return true
	}
	return false
}
