package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hyresense/internal/jobboard"
	"github.com/spigell/hyresense/internal/logger"
)

// Gateway sends one prompt to the model, retrying internally.
type Gateway interface {
	Invoke(ctx context.Context, system, prompt string) (string, error)
	Model() string
}

// Repository persists analysis records. Save upserts on the (job, candidate) pair.
type Repository interface {
	Save(ctx context.Context, record *Record) error
	// Get returns ErrRecordNotFound when the pair was never analysed.
	Get(ctx context.Context, jobID, candidateID string) (*Record, error)
}

// Request is one job/candidate pair to analyse. Resume is optional.
type Request struct {
	Job       *jobboard.Job
	Candidate *jobboard.Profile
	Resume    *jobboard.Resume
}

func (r Request) validate() error {
	switch {
	case r.Job == nil:
		return &ValidationError{Field: "job", Reason: "is required"}
	case r.Candidate == nil:
		return &ValidationError{Field: "candidate", Reason: "is required"}
	case strings.TrimSpace(r.Job.Title) == "":
		return &ValidationError{Field: "job.title", Reason: "must not be empty"}
	case strings.TrimSpace(r.Job.Description) == "":
		return &ValidationError{Field: "job.description", Reason: "must not be empty"}
	}
	return nil
}

func (r Request) resumeID() string {
	if r.Resume == nil {
		return ""
	}
	return r.Resume.ID
}

// Analyzer runs the fit analysis pipeline and keeps the record of every pair up to date.
type Analyzer struct {
	gateway     Gateway
	repo        Repository
	limits      Limits
	concurrency int
	now         func() time.Time
	logger      *zap.Logger
}

// Option customizes an Analyzer.
type Option func(*Analyzer)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLimits sets prompt truncation limits.
func WithLimits(limits Limits) Option {
	return func(a *Analyzer) {
		a.limits = limits.withDefaults()
	}
}

// WithConcurrency sets how many candidates a batch analyses at once.
func WithConcurrency(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// New creates an analyzer.
func New(gateway Gateway, repo Repository, log *zap.Logger, opts ...Option) (*Analyzer, error) {
	if gateway == nil {
		return nil, errors.New("gateway is required")
	}
	if repo == nil {
		return nil, errors.New("repository is required")
	}

	a := &Analyzer{
		gateway:     gateway,
		repo:        repo,
		limits:      DefaultLimits(),
		concurrency: 1,
		now:         time.Now,
		logger:      logger.WithFields(log),
	}
	for _, opt := range opts {
		opt(a)
	}

	return a, nil
}

// Analyze runs the pipeline for one pair and always leaves a terminal record behind.
// On a pipeline failure the failed record is returned together with the error.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Record, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	start := a.now()
	log := logger.WithPair(a.logger, req.Job.ID, req.Candidate.ID)

	record, err := a.begin(ctx, req, start)
	if err != nil {
		return nil, err
	}

	log.Info("starting analysis", zap.String("record_id", record.ID), zap.String("resume_id", record.ResumeID))

	resp, err := a.run(ctx, req, log)
	finished := a.now()
	if err != nil {
		record.fail(err, finished, finished.Sub(start))

		// the failed state is stored even when the caller gave up
		if saveErr := a.repo.Save(context.WithoutCancel(ctx), record); saveErr != nil {
			log.Error("persisting failed analysis", zap.Error(saveErr))
			return nil, errors.Join(err, fmt.Errorf("save failed record: %w", saveErr))
		}

		log.Error("analysis failed", zap.Error(err), zap.Int("duration_seconds", record.DurationSeconds))
		return record, err
	}

	// the model already answered, so the result is kept even when the caller gave up
	saveCtx := context.WithoutCancel(ctx)

	record.complete(resp, finished, finished.Sub(start))
	if err := a.repo.Save(saveCtx, record); err != nil {
		err = fmt.Errorf("save completed record: %w", err)
		record.fail(err, finished, finished.Sub(start))

		// the pair must not stay pending
		if saveErr := a.repo.Save(saveCtx, record); saveErr != nil {
			log.Error("persisting failed analysis", zap.Error(saveErr))
			return nil, errors.Join(err, fmt.Errorf("save failed record: %w", saveErr))
		}

		log.Error("analysis failed", zap.Error(err), zap.Int("duration_seconds", record.DurationSeconds))
		return record, err
	}

	log.Info("analysis completed",
		zap.Float64("fit_score", resp.FitScore),
		zap.String("fit_level", string(resp.FitLevel)),
		zap.Int("duration_seconds", record.DurationSeconds),
	)

	return record, nil
}

// AnalyzeIfAbsent returns the completed record of the pair unchanged when there is one.
func (a *Analyzer) AnalyzeIfAbsent(ctx context.Context, req Request) (*Record, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	existing, err := a.repo.Get(ctx, req.Job.ID, req.Candidate.ID)
	switch {
	case err == nil && existing.Status == StatusCompleted:
		logger.WithPair(a.logger, req.Job.ID, req.Candidate.ID).Debug("reusing completed analysis", zap.String("record_id", existing.ID))
		return existing, nil
	case err != nil && !errors.Is(err, ErrRecordNotFound):
		return nil, fmt.Errorf("lookup existing analysis: %w", err)
	}

	return a.Analyze(ctx, req)
}

// Skip records that the pair was screened out before analysis. A completed record is left as is.
func (a *Analyzer) Skip(ctx context.Context, req Request, reason string) (*Record, error) {
	if req.Job == nil {
		return nil, &ValidationError{Field: "job", Reason: "is required"}
	}
	if req.Candidate == nil {
		return nil, &ValidationError{Field: "candidate", Reason: "is required"}
	}

	now := a.now()
	record := newRecord(req.Job.ID, req.Candidate.ID, req.resumeID(), a.gateway.Model(), now)

	existing, err := a.repo.Get(ctx, req.Job.ID, req.Candidate.ID)
	switch {
	case err == nil && existing.Status == StatusCompleted:
		return existing, nil
	case err == nil:
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
		record.Review = existing.Review
	case !errors.Is(err, ErrRecordNotFound):
		return nil, fmt.Errorf("lookup existing analysis: %w", err)
	}

	record.Status = StatusSkipped
	record.Remarks = reason
	if err := a.repo.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("save skipped record: %w", err)
	}

	logger.WithPair(a.logger, req.Job.ID, req.Candidate.ID).Info("analysis skipped", zap.String("reason", reason))
	return record, nil
}

// begin stores a pending record, reusing the identity and review of an earlier one.
func (a *Analyzer) begin(ctx context.Context, req Request, now time.Time) (*Record, error) {
	record := newRecord(req.Job.ID, req.Candidate.ID, req.resumeID(), a.gateway.Model(), now)

	existing, err := a.repo.Get(ctx, req.Job.ID, req.Candidate.ID)
	switch {
	case err == nil:
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
		record.Review = existing.Review
	case !errors.Is(err, ErrRecordNotFound):
		return nil, fmt.Errorf("lookup existing analysis: %w", err)
	}

	if err := a.repo.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("save pending record: %w", err)
	}

	return record, nil
}

func (a *Analyzer) run(ctx context.Context, req Request, log *zap.Logger) (*FitResponse, error) {
	prompt, err := BuildPrompt(
		AssembleJob(req.Job),
		AssembleProfile(req.Candidate, req.Resume, a.limits),
		AssembleResume(req.Resume, a.limits),
	)
	if err != nil {
		return nil, err
	}

	raw, err := a.gateway.Invoke(ctx, SystemInstruction, prompt)
	if err != nil {
		return nil, err
	}

	cleaned := Normalize(raw)
	resp, err := Parse(cleaned)
	if err != nil {
		log.Debug("rejected model response", zap.String("cleaned", cleaned))
		return nil, err
	}

	return resp, nil
}
