package enrich

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/vanhalal/halal-cli/internal/model"
	"github.com/vanhalal/halal-cli/internal/resilience"
	"github.com/vanhalal/halal-cli/internal/store"
)

// OrchestratorConfig tunes the enrichment run.
type OrchestratorConfig struct {
	ModelID        string
	Workers        int
	BatchSize      int
	RequestsPerSec float64
	MenuTimeout    time.Duration
	MaxAttempts    int
}

func (c OrchestratorConfig) withDefaults() OrchestratorConfig {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.RequestsPerSec <= 0 {
		c.RequestsPerSec = 2
	}
	if c.MenuTimeout <= 0 {
		c.MenuTimeout = 90 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 2
	}
	return c
}

// Report summarizes one enrichment run.
type Report struct {
	Selected  int
	Tagged    int64
	CacheHits int64
	Fallbacks int64
}

// Orchestrator drives bulk enrichment: it selects untagged menu variants,
// fans them out across a bounded worker pool behind a shared rate limiter,
// and guarantees every selected variant ends the run with a tag row, real
// or fallback.
type Orchestrator struct {
	store   store.Store
	cache   *Cache
	cfg     OrchestratorConfig
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewOrchestrator(s store.Store, cache *Cache, cfg OrchestratorConfig, logger *zap.Logger) *Orchestrator {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.L()
	}
	return &Orchestrator{
		store:   s,
		cache:   cache,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		logger:  logger,
	}
}

// Run enriches up to limit untagged menus (0 = no limit beyond the store's
// own cap) and returns a run report. Individual menu failures never abort
// the run.
func (o *Orchestrator) Run(ctx context.Context, limit int) (Report, error) {
	menus, err := o.store.ListMenusMissingTags(ctx, o.cfg.ModelID, limit)
	if err != nil {
		return Report{}, eris.Wrap(err, "enrich: select untagged menus")
	}

	report := Report{Selected: len(menus)}
	if len(menus) == 0 {
		o.logger.Info("no menus need tagging", zap.String("model", o.cfg.ModelID))
		return report, nil
	}

	o.logger.Info("starting enrichment run",
		zap.String("model", o.cfg.ModelID),
		zap.Int("menus", len(menus)),
		zap.Int("workers", o.cfg.Workers))

	// One sequential request warms the shared prompt cache before the
	// workers fan out. A priming failure is not fatal; workers just pay
	// the cache write themselves.
	if err := o.cache.Prime(ctx); err != nil {
		o.logger.Warn("prompt cache priming failed", zap.Error(err))
	}

	for start := 0; start < len(menus); start += o.cfg.BatchSize {
		end := start + o.cfg.BatchSize
		if end > len(menus) {
			end = len(menus)
		}
		if err := o.runBatch(ctx, menus[start:end], &report); err != nil {
			return report, err
		}
	}

	o.logger.Info("enrichment run complete",
		zap.Int("selected", report.Selected),
		zap.Int64("tagged", report.Tagged),
		zap.Int64("cache_hits", report.CacheHits),
		zap.Int64("fallbacks", report.Fallbacks))
	return report, nil
}

func (o *Orchestrator) runBatch(ctx context.Context, menus []model.MenuVariant, report *Report) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Workers)

	for _, m := range menus {
		menu := m
		g.Go(func() error {
			return o.enrichOne(gctx, menu, report)
		})
	}
	return g.Wait()
}

func (o *Orchestrator) enrichOne(ctx context.Context, menu model.MenuVariant, report *Report) error {
	if strings.TrimSpace(menu.RawText) == "" {
		o.logger.Warn("menu has no text, storing uncertain fallback",
			zap.String("menu_id", menu.ID),
			zap.String("title", menu.Title))
		if _, err := o.cache.StoreFallback(ctx, menu, o.cfg.ModelID); err != nil {
			return err
		}
		atomic.AddInt64(&report.Fallbacks, 1)
		return nil
	}

	if err := o.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "enrich: rate limit wait")
	}

	retryCfg := resilience.RetryConfig{
		MaxAttempts: o.cfg.MaxAttempts,
		ShouldRetry: func(err error) bool {
			// Parse failures are retryable: the model may emit valid
			// JSON on the next attempt.
			return resilience.IsTransient(err) || isParseFailure(err)
		},
		OnRetry: resilience.RetryLogger("anthropic", "tag_menu"),
	}

	type outcome struct {
		tags *model.MenuTagSet
		hit  bool
	}
	res, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (outcome, error) {
		tagCtx, cancel := context.WithTimeout(ctx, o.cfg.MenuTimeout)
		defer cancel()
		tags, hit, err := o.cache.GetOrEnrich(tagCtx, menu, o.cfg.ModelID)
		return outcome{tags: tags, hit: hit}, err
	})
	if err != nil {
		if ctx.Err() != nil {
			return eris.Wrap(err, "enrich: run cancelled")
		}
		// Budget exhausted: record the fallback row and keep the batch
		// moving.
		o.logger.Warn("enrichment failed, storing uncertain fallback",
			zap.String("menu_id", menu.ID),
			zap.String("title", menu.Title),
			zap.Error(err))
		if _, ferr := o.cache.StoreFallback(ctx, menu, o.cfg.ModelID); ferr != nil {
			return ferr
		}
		atomic.AddInt64(&report.Fallbacks, 1)
		return nil
	}

	if res.hit {
		atomic.AddInt64(&report.CacheHits, 1)
	} else {
		atomic.AddInt64(&report.Tagged, 1)
	}
	return nil
}

func isParseFailure(err error) bool {
	return errors.Is(err, ErrParseFailure)
}
