// Package agent wraps the metered generative-AI text service behind a
// cooldown and a preference-ordered model ladder, and turns its raw
// responses into search-query batches.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"AutoQFM/logger"
)

var (
	// ErrQuotaExceeded is a rate-limit signal from the provider (HTTP 429).
	ErrQuotaExceeded = errors.New("ai quota exceeded")
	// ErrModelNotFound means the requested model is unavailable (HTTP 404).
	ErrModelNotFound = errors.New("ai model not found")
	// ErrAIUnavailable means every model in the ladder was exhausted.
	ErrAIUnavailable = errors.New("ai service unavailable")
)

// TextService is a single text-generation call against one model.
type TextService interface {
	Generate(ctx context.Context, model string, prompt string) (string, error)
}

// Clock abstracts time so cooldown and backoff are testable.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// GatewayConfig tunes the cooldown and retry ladder.
type GatewayConfig struct {
	Models      []string // Preference order
	Cooldown    time.Duration
	MaxRetries  int
	BaseBackoff time.Duration
}

// Gateway serializes access to the text service. One instance per process;
// the cooldown timestamp lives on the instance, not in a global.
type Gateway struct {
	svc         TextService
	models      []string
	cooldown    time.Duration
	maxRetries  int
	baseBackoff time.Duration
	clock       Clock

	mu       sync.Mutex
	lastCall time.Time
}

// NewGateway creates a Gateway. A nil clock defaults to the wall clock.
func NewGateway(svc TextService, cfg GatewayConfig, clock Clock) *Gateway {
	if clock == nil {
		clock = realClock{}
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 2 * time.Minute
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = time.Second
	}
	return &Gateway{
		svc:         svc,
		models:      cfg.Models,
		cooldown:    cfg.Cooldown,
		maxRetries:  cfg.MaxRetries,
		baseBackoff: cfg.BaseBackoff,
		clock:       clock,
	}
}

// ShouldUseAI reports whether the cooldown since the last call has elapsed.
func (g *Gateway) ShouldUseAI() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.lastCall.IsZero() {
		return true
	}
	return g.clock.Now().Sub(g.lastCall) >= g.cooldown
}

// Generate walks the model ladder. Quota errors are retried with
// exponential backoff within one model; once the preferred model is
// confirmed reachable but throttled, the gateway fails fast instead of
// silently degrading to a weaker model. A missing model advances the
// ladder immediately.
func (g *Gateway) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.lastCall = g.clock.Now()
	g.mu.Unlock()

	for _, m := range g.models {
		out, err := g.generateWithModel(ctx, m, prompt)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, ErrModelNotFound) {
			logger.Warn("ai model unavailable, advancing ladder", logger.String("model", m))
			continue
		}
		if errors.Is(err, ErrQuotaExceeded) {
			logger.Warn("ai model throttled after retries, failing fast", logger.String("model", m))
			return "", fmt.Errorf("model %s throttled: %w", m, ErrAIUnavailable)
		}
		logger.Warn("ai model attempt aborted",
			logger.String("model", m),
			logger.ErrorField(err))
		continue
	}

	return "", ErrAIUnavailable
}

// generateWithModel retries a single model on quota signals only.
func (g *Gateway) generateWithModel(ctx context.Context, model, prompt string) (string, error) {
	for attempt := 0; attempt < g.maxRetries; attempt++ {
		out, err := g.svc.Generate(ctx, model, prompt)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, ErrQuotaExceeded) {
			return "", err
		}
		if attempt == g.maxRetries-1 {
			return "", err
		}

		backoff := g.baseBackoff * time.Duration(1<<attempt)
		logger.Debug("ai quota hit, backing off",
			logger.String("model", model),
			logger.Int("attempt", attempt+1),
			logger.Duration("backoff", backoff))
		g.clock.Sleep(backoff)
	}
	return "", ErrQuotaExceeded
}
