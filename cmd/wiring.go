package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hyresense/internal/ai"
	"github.com/spigell/hyresense/internal/ai/gemini"
	"github.com/spigell/hyresense/internal/ai/openai"
	"github.com/spigell/hyresense/internal/analysis"
	"github.com/spigell/hyresense/internal/jobboard"
	"github.com/spigell/hyresense/internal/logger"
	"github.com/spigell/hyresense/internal/secrets"
	"github.com/spigell/hyresense/internal/store"
)

// deps holds everything a command may need. Fields are filled lazily by the setup helpers.
type deps struct {
	config   *Config
	logger   *zap.Logger
	store    store.Store
	source   jobboard.Source
	analyzer *analysis.Analyzer
}

func (d *deps) Close() {
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			d.logger.Warn("closing store", zap.Error(err))
		}
	}
	_ = d.logger.Sync()
}

// newDeps builds the logger, config and store. withAnalyzer adds the job source and the model pipeline.
func newDeps(ctx context.Context, withAnalyzer bool) (*deps, error) {
	lg, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		return nil, fmt.Errorf("getting a config: %w", err)
	}
	if config == nil {
		return nil, errors.New("config is required")
	}

	lg.Debug("starting", zap.String("app", app), zap.String("version", version))

	s, err := store.Open(ctx, config.Storage, lg)
	if err != nil {
		return nil, fmt.Errorf("opening %s storage: %w", config.Storage.Driver, err)
	}

	d := &deps{config: config, logger: lg, store: s}
	if !withAnalyzer {
		return d, nil
	}

	if d.source, err = newSource(config.Source, lg); err != nil {
		d.Close()
		return nil, err
	}

	if d.analyzer, err = newAnalyzer(ctx, config, s, lg); err != nil {
		d.Close()
		return nil, err
	}

	return d, nil
}

func newSource(cfg *SourceConfig, lg *zap.Logger) (jobboard.Source, error) {
	if cfg == nil {
		return nil, errors.New("source is not configured: set source.catalog-file or source.api-url")
	}

	if file := strings.TrimSpace(cfg.CatalogFile); file != "" {
		return jobboard.LoadFile(file)
	}

	if cfg.APIURL == "" {
		return nil, errors.New("source is not configured: set source.catalog-file or source.api-url")
	}

	token := ""
	if cfg.TokenFile != "" || cfg.Token != "" {
		var err error
		token, err = secrets.Load(secrets.Source{
			Name:  "job board token",
			File:  cfg.TokenFile,
			Value: cfg.Token,
		})
		if err != nil {
			return nil, err
		}
	}

	return jobboard.NewClient(cfg.APIURL, token, lg.With(zap.String("component", "jobboard"))), nil
}

func newAnalyzer(ctx context.Context, config *Config, repo analysis.Repository, lg *zap.Logger) (*analysis.Analyzer, error) {
	cfg := config.AI
	if cfg == nil {
		return nil, errors.New("ai section is required")
	}

	client, err := newCompleter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	gateway, err := ai.NewGateway(client, ai.Options{
		MaxAttempts:       cfg.MaxAttempts,
		Backoff:           cfg.Backoff,
		AttemptTimeout:    cfg.AttemptTimeout,
		Temperature:       &cfg.Temperature,
		MaxOutputTokens:   cfg.MaxOutputTokens,
		RequestsPerMinute: cfg.RequestsPerMinute,
		MaxLogLength:      cfg.MaxLogLength,
	}, lg)
	if err != nil {
		return nil, err
	}

	opts := []analysis.Option{}
	if a := config.Analysis; a != nil {
		opts = append(opts,
			analysis.WithConcurrency(a.Concurrency),
			analysis.WithLimits(analysis.Limits{MaxSkills: a.MaxSkills, MaxEntries: a.MaxEntries}),
		)
	}

	return analysis.New(gateway, repo, lg.With(logger.CommonFields(client.Provider(), client.Model())...), opts...)
}

func newCompleter(ctx context.Context, cfg *AIConfig) (ai.Completer, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))

	switch provider {
	case "", gemini.Provider:
		key, err := loadAPIKey("gemini api key", cfg.Gemini, "GEMINI_API_KEY")
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
		}
		return gemini.NewClient(ctx, key, cfg.Model)
	case openai.Provider:
		key, err := loadAPIKey("openai api key", cfg.OpenAI, "OPENAI_API_KEY")
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.openai.api-key-file or OPENAI_API_KEY)", err)
		}
		baseURL := ""
		if cfg.OpenAI != nil {
			baseURL = cfg.OpenAI.BaseURL
		}
		return openai.NewClient(key, baseURL, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}

func loadAPIKey(name string, cfg *ProviderConfig, env string) (string, error) {
	src := secrets.Source{Name: name, Env: env}
	if cfg != nil {
		src.File = cfg.APIKeyFile
		src.Value = cfg.APIKey
	}
	return secrets.Load(src)
}

// resolveRequest loads the job, the candidate and either the given or the default resume.
func (d *deps) resolveRequest(ctx context.Context, jobID, candidateID, resumeID string) (analysis.Request, error) {
	job, err := d.source.Job(ctx, jobID)
	if err != nil {
		return analysis.Request{}, err
	}

	c, err := d.resolveCandidate(ctx, candidateID, resumeID)
	if err != nil {
		return analysis.Request{}, err
	}

	return analysis.Request{Job: job, Candidate: c.Profile, Resume: c.Resume}, nil
}

// resolveCandidate falls back to the default resume. A candidate without one is analysed without a resume.
func (d *deps) resolveCandidate(ctx context.Context, candidateID, resumeID string) (analysis.Candidate, error) {
	profile, err := d.source.Profile(ctx, candidateID)
	if err != nil {
		return analysis.Candidate{}, err
	}

	if resumeID != "" {
		resume, err := d.source.Resume(ctx, resumeID)
		if err != nil {
			return analysis.Candidate{}, err
		}
		return analysis.Candidate{Profile: profile, Resume: resume}, nil
	}

	resume, err := d.source.DefaultResume(ctx, candidateID)
	if err != nil {
		d.logger.Warn("could not fetch default resume", zap.String(logger.FieldCandidateID, candidateID), zap.Error(err))
		resume = nil
	}

	return analysis.Candidate{Profile: profile, Resume: resume}, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
