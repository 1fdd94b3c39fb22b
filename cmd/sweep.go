package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/hyresense/internal/analysis"
	"github.com/spigell/hyresense/internal/logger"
)

// defaultPendingAfter is well past a full run of attempts with their timeouts and backoff.
const defaultPendingAfter = 10 * time.Minute

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Re-run failed and stuck analyses, once or on a schedule",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return sweep(cmd)
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().String("schedule", "", "cron spec, overrides sweep.schedule (e.g. \"@every 30m\")")
	sweepCmd.Flags().Bool("once", false, "run a single sweep and exit")
}

func sweep(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := newDeps(ctx, true)
	if err != nil {
		return err
	}
	defer d.Close()

	if once, _ := cmd.Flags().GetBool("once"); once {
		return sweepOnce(ctx, d)
	}

	schedule, _ := cmd.Flags().GetString("schedule")
	if schedule == "" && d.config.Sweep != nil {
		schedule = d.config.Sweep.Schedule
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, func() {
		if err := sweepOnce(ctx, d); err != nil {
			d.logger.Error("sweep failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	d.logger.Info("sweeper started", zap.String("schedule", schedule))
	c.Start()

	<-ctx.Done()
	d.logger.Info("stopping sweeper")
	<-c.Stop().Done()

	return nil
}

// sweepOnce re-analyses every pair whose last analysis failed, and pairs left pending
// longer than sweep.pending-after by a process that died mid-analysis.
func sweepOnce(ctx context.Context, d *deps) error {
	failed, err := d.store.ListByStatus(ctx, analysis.StatusFailed)
	if err != nil {
		return err
	}

	pending, err := d.store.ListByStatus(ctx, analysis.StatusPending)
	if err != nil {
		return err
	}

	pendingAfter := defaultPendingAfter
	if d.config.Sweep != nil && d.config.Sweep.PendingAfter > 0 {
		pendingAfter = d.config.Sweep.PendingAfter
	}
	stale := stalePending(pending, time.Now(), pendingAfter)

	d.logger.Info("sweeping analyses", zap.Int("failed", len(failed)), zap.Int("stale_pending", len(stale)))

	recovered := 0
	for _, r := range append(failed, stale...) {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		log := logger.WithPair(d.logger, r.JobID, r.CandidateID)

		req, err := d.resolveRequest(ctx, r.JobID, r.CandidateID, r.ResumeID)
		if err != nil {
			log.Warn("cannot load analysis inputs", zap.Error(err))
			continue
		}

		record, err := d.analyzer.Analyze(ctx, req)
		if err != nil {
			log.Warn("analysis still failing", zap.Error(err))
			continue
		}
		if record.Status == analysis.StatusCompleted {
			recovered++
		}
	}

	d.logger.Info("sweep finished",
		zap.Int("failed", len(failed)),
		zap.Int("stale_pending", len(stale)),
		zap.Int("recovered", recovered),
	)
	return nil
}

// stalePending keeps pending records not updated within age of now.
func stalePending(records []*analysis.Record, now time.Time, age time.Duration) []*analysis.Record {
	var out []*analysis.Record
	for _, r := range records {
		if r.Status == analysis.StatusPending && now.Sub(r.UpdatedAt) >= age {
			out = append(out, r)
		}
	}
	return out
}
