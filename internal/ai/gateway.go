package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/hyresense/internal/logger"
	"github.com/spigell/hyresense/internal/utils"
)

const (
	DefaultMaxAttempts     = 3
	DefaultBackoff         = time.Second
	DefaultAttemptTimeout  = 60 * time.Second
	DefaultTemperature     = 0.3
	DefaultMaxOutputTokens = 2000
	defaultMaxLogLength    = 200
)

// Options tune the retry policy of a Gateway. Zero values fall back to defaults.
type Options struct {
	MaxAttempts    int
	Backoff        time.Duration
	AttemptTimeout time.Duration
	// Temperature is sent as is, 0 included. Nil or a negative value uses DefaultTemperature.
	Temperature       *float32
	MaxOutputTokens   int
	RequestsPerMinute int
	MaxLogLength      int
}

// Gateway wraps a Completer with retry, exponential backoff, a per-attempt timeout and an optional rate limit.
type Gateway struct {
	client      Completer
	opts        Options
	temperature float32
	limiter     *rate.Limiter
	logger      *zap.Logger

	// wait is swapped in tests to avoid real sleeping.
	wait func(ctx context.Context, d time.Duration) error
}

// NewGateway creates a gateway around the provided client.
func NewGateway(client Completer, opts Options, log *zap.Logger) (*Gateway, error) {
	if client == nil {
		return nil, errors.New("llm client is required")
	}

	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultBackoff
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = DefaultAttemptTimeout
	}
	temperature := float32(DefaultTemperature)
	if opts.Temperature != nil && *opts.Temperature >= 0 {
		temperature = *opts.Temperature
	}
	if opts.MaxOutputTokens <= 0 {
		opts.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if opts.MaxLogLength <= 0 {
		opts.MaxLogLength = defaultMaxLogLength
	}

	g := &Gateway{
		client:      client,
		opts:        opts,
		temperature: temperature,
		logger:      logger.WithFields(log, logger.CommonFields(client.Provider(), client.Model())...),
		wait:        utils.WaitFor,
	}

	if opts.RequestsPerMinute > 0 {
		g.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}

	return g, nil
}

// SetWaitFunc replaces the function used to wait between attempts.
func (g *Gateway) SetWaitFunc(wait func(ctx context.Context, d time.Duration) error) {
	if wait != nil {
		g.wait = wait
	}
}

// Model returns the model identifier of the underlying client.
func (g *Gateway) Model() string {
	if g == nil || g.client == nil {
		return ""
	}
	return g.client.Model()
}

// Invoke sends the prompt and returns the raw model text. It fails with *GatewayError after the last attempt.
func (g *Gateway) Invoke(ctx context.Context, system, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("prompt must not be empty")
	}

	req := Request{
		System:          system,
		Prompt:          prompt,
		Temperature:     g.temperature,
		MaxOutputTokens: g.opts.MaxOutputTokens,
	}

	g.logger.Debug("llm request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(utils.OneLine(prompt), g.opts.MaxLogLength)),
	)

	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= g.opts.MaxAttempts; attempt++ {
		attempts = attempt

		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return "", &GatewayError{Attempts: attempt - 1, Err: fmt.Errorf("rate limiter: %w", err)}
			}
		}

		text, err := g.attempt(ctx, req)
		if err == nil {
			g.logger.Debug("llm response",
				zap.Int("attempt", attempt),
				zap.Int("response_length", utf8.RuneCountInString(text)),
				zap.String("response_preview", utils.TruncateForLog(text, g.opts.MaxLogLength)),
			)
			return text, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", &GatewayError{Attempts: attempt, Err: errors.Join(err, ctx.Err())}
		}

		if IsPermanent(err) {
			g.logger.Warn("llm call failed permanently", zap.Int("attempt", attempt), zap.Error(err))
			break
		}

		if attempt == g.opts.MaxAttempts {
			break
		}

		delay := g.opts.Backoff << (attempt - 1)
		g.logger.Warn("llm call failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", g.opts.MaxAttempts),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)

		if err := g.wait(ctx, delay); err != nil {
			return "", &GatewayError{Attempts: attempt, Err: errors.Join(lastErr, err)}
		}
	}

	g.logger.Error("llm call exhausted", zap.Int("attempts", attempts), zap.Error(lastErr))

	return "", &GatewayError{Attempts: attempts, Err: lastErr}
}

func (g *Gateway) attempt(ctx context.Context, req Request) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, g.opts.AttemptTimeout)
	defer cancel()

	text, err := g.client.Complete(attemptCtx, req)
	if err != nil {
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return "", fmt.Errorf("attempt timed out after %s: %w", g.opts.AttemptTimeout, err)
		}
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}

	return text, nil
}
