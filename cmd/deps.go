package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/meditrek/internal/cache"
	"github.com/sells-group/meditrek/internal/config"
	"github.com/sells-group/meditrek/internal/dispatch"
	"github.com/sells-group/meditrek/internal/recommend"
	"github.com/sells-group/meditrek/internal/resilience"
	"github.com/sells-group/meditrek/internal/store"
	"github.com/sells-group/meditrek/pkg/anthropic"
	"github.com/sells-group/meditrek/pkg/perplexity"
)

// newBackend builds the configured text-generation backend.
func newBackend(c *config.Config) (dispatch.Backend, error) {
	switch c.Backend.Provider {
	case config.ProviderPerplexity, "":
		return dispatch.PerplexityBackend{
			Client: perplexity.NewClient(c.Perplexity.Key,
				perplexity.WithBaseURL(c.Perplexity.BaseURL),
				perplexity.WithModel(c.Perplexity.Model),
			),
		}, nil
	case config.ProviderAnthropic:
		return dispatch.AnthropicBackend{
			Client:    anthropic.NewClient(c.Anthropic.Key),
			Model:     c.Anthropic.Model,
			MaxTokens: c.Anthropic.MaxTokens,
		}, nil
	default:
		return nil, eris.Errorf("unsupported backend provider: %s", c.Backend.Provider)
	}
}

// newDispatcher wraps backend with the configured retry, cache, rate limit
// and circuit breaker settings.
func newDispatcher(c *config.Config, backend dispatch.Backend) (*dispatch.Dispatcher, error) {
	backoff, err := resilience.BackoffFromConfig(
		c.Dispatch.Backoff,
		c.Dispatch.InitialBackoffMs,
		c.Dispatch.MaxBackoffMs,
		c.Dispatch.Multiplier,
		c.Dispatch.Jitter,
	)
	if err != nil {
		return nil, err
	}

	name := c.Backend.Provider
	if name == "" {
		name = config.ProviderPerplexity
	}

	var breaker *resilience.CircuitBreaker
	if c.Dispatch.BreakerThreshold > 0 {
		bcfg := resilience.FromCircuitConfig(c.Dispatch.BreakerThreshold, c.Dispatch.BreakerResetSecs)
		bcfg.OnStateChange = func(from, to resilience.CircuitState) {
			zap.L().Warn("dispatch: circuit breaker state change",
				zap.String("backend", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		}
		breaker = resilience.NewCircuitBreaker(bcfg)
	}

	return dispatch.New(backend, dispatch.Config{
		Name:         name,
		CacheTTL:     c.Dispatch.CacheTTL(),
		DisableCache: !c.Dispatch.CacheEnabled,
		Backoff:      backoff,
		RatePerSec:   c.Dispatch.RatePerSec,
		Breaker:      breaker,
	}), nil
}

// dispatchOptions maps config onto per-query options. A configured
// max_retries of 0 means no retries.
func dispatchOptions(c *config.Config) dispatch.Options {
	retries := c.Dispatch.MaxRetries
	if retries == 0 {
		retries = -1
	}
	return dispatch.Options{
		MaxRetries:     retries,
		Timeout:        c.Dispatch.Timeout(),
		MaxPromptChars: c.Backend.MaxPromptChars,
	}
}

// initStore opens the history store. It returns nil when history is disabled.
func initStore(ctx context.Context, c *config.Config) (store.Store, error) {
	return store.Open(ctx, c.Store.Driver, c.Store.DatabaseURL, &store.PoolConfig{
		MaxConns: c.Store.MaxConns,
		MinConns: c.Store.MinConns,
	})
}

// newService wires the recommendation service.
func newService(c *config.Config, d recommend.Sender, st store.Store) *recommend.Service {
	return recommend.New(d, st, recommend.Config{
		MedicationLimit:   c.Parse.MedicationLimit,
		CombinedListLimit: c.Parse.CombinedListLimit,
		SplitListLimit:    c.Parse.SplitListLimit,
		Dispatch:          dispatchOptions(c),
	})
}

// app bundles the long-lived components a command needs.
type app struct {
	dispatcher *dispatch.Dispatcher
	store      store.Store
	service    *recommend.Service
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			zap.L().Warn("close store", zap.Error(err))
		}
	}
}

// initApp builds the backend, dispatcher, store and service from cfg.
func initApp(ctx context.Context, c *config.Config) (*app, error) {
	backend, err := newBackend(c)
	if err != nil {
		return nil, err
	}
	d, err := newDispatcher(c, backend)
	if err != nil {
		return nil, err
	}
	st, err := initStore(ctx, c)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	return &app{
		dispatcher: d,
		store:      st,
		service:    newService(c, d, st),
	}, nil
}

// sweepReport summarizes one sweep run.
type sweepReport struct {
	Purged  int
	Deleted int
	Cache   cache.Stats
}

// sweep purges expired cache entries and consultations older than retention.
func sweep(ctx context.Context, d *dispatch.Dispatcher, st store.Store, retention time.Duration, now time.Time) (sweepReport, error) {
	var r sweepReport
	r.Purged = d.PurgeCache()
	r.Cache = d.CacheStats()
	if st != nil && retention > 0 {
		deleted, err := st.DeleteOlderThan(ctx, now.Add(-retention))
		if err != nil {
			return r, eris.Wrap(err, "sweep consultations")
		}
		r.Deleted = deleted
	}
	return r, nil
}
