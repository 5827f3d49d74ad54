// Package dispatch sends prompts to a text-generation backend with a
// per-attempt timeout, retry with backoff, and a TTL response cache.
package dispatch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/sells-group/meditrek/internal/cache"
	"github.com/sells-group/meditrek/internal/resilience"
)

// Defaults applied to zero-valued Options fields.
const (
	DefaultMaxRetries = 2
	DefaultTimeout    = 15 * time.Second
)

// truncationSuffix is appended to prompts cut at MaxPromptChars.
const truncationSuffix = "..."

// Backend turns a prompt into free text.
type Backend interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Options tune a single Send.
type Options struct {
	// MaxRetries is the number of retries after the first attempt. Zero
	// uses DefaultMaxRetries; a negative value disables retries.
	MaxRetries int
	// Timeout bounds each attempt. Zero uses DefaultTimeout.
	Timeout time.Duration
	// MaxPromptChars truncates longer prompts to that many characters plus
	// "...". Zero means unlimited.
	MaxPromptChars int
	// SkipCache forces a backend call. The fresh result is still cached.
	SkipCache bool
}

func (o Options) withDefaults() Options {
	switch {
	case o.MaxRetries == 0:
		o.MaxRetries = DefaultMaxRetries
	case o.MaxRetries < 0:
		o.MaxRetries = 0
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// Config configures a Dispatcher.
type Config struct {
	// Name labels logs and metrics.
	Name string
	// CacheTTL is the response cache lifetime. Zero uses cache.DefaultTTL.
	CacheTTL time.Duration
	// DisableCache turns the response cache off.
	DisableCache bool
	// Backoff computes retry waits. Nil uses resilience.DefaultBackoff.
	Backoff resilience.BackoffFunc
	// RatePerSec caps outbound calls. Zero means unlimited.
	RatePerSec float64
	// Breaker optionally guards the backend.
	Breaker *resilience.CircuitBreaker
	// Now overrides the cache clock.
	Now func() time.Time
}

// Dispatcher sends prompts to one backend. It is safe for concurrent use.
type Dispatcher struct {
	backend Backend
	name    string
	backoff resilience.BackoffFunc
	breaker *resilience.CircuitBreaker
	limiter *rate.Limiter
	cache   *cache.TTL[string]
	group   singleflight.Group

	mu      sync.Mutex
	flights map[string]*flight
}

// flight is the context a shared outbound call runs on. It is cancelled once
// every caller waiting on the call has returned.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// New creates a Dispatcher for backend.
func New(backend Backend, cfg Config) *Dispatcher {
	d := &Dispatcher{
		backend: backend,
		name:    cfg.Name,
		backoff: cfg.Backoff,
		breaker: cfg.Breaker,
		flights: make(map[string]*flight),
	}
	if d.name == "" {
		d.name = "backend"
	}
	if d.backoff == nil {
		d.backoff = resilience.DefaultBackoff()
	}
	if cfg.RatePerSec > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1)
	}
	if !cfg.DisableCache {
		d.cache = cache.NewWithClock[string](cfg.CacheTTL, cfg.Now)
	}
	return d
}

// Send returns the backend's completion for prompt. A cached completion for
// the same prompt is returned without a call while it is fresh. Concurrent
// Sends of the same prompt share one outbound call.
//
// Backend failures are returned as *BackendError, matching one of
// ErrBackendUnavailable, ErrBackendRejected or ErrEmptyCompletion.
func (d *Dispatcher) Send(ctx context.Context, prompt string, opts Options) (string, error) {
	opts = opts.withDefaults()
	prompt = Truncate(strings.TrimSpace(prompt), opts.MaxPromptChars)
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	key := cache.Key(prompt)
	log := zap.L().With(zap.String("backend", d.name), zap.String("prompt_key", key[:12]))

	if d.cache != nil && !opts.SkipCache {
		if text, age, ok := d.cache.GetWithAge(key); ok {
			cacheLookups.WithLabelValues("hit").Inc()
			requestsTotal.WithLabelValues(d.name, "cache_hit").Inc()
			log.Debug("dispatch: cache hit", zap.Duration("age", age))
			return text, nil
		}
		cacheLookups.WithLabelValues("miss").Inc()
	}

	if err := ctx.Err(); err != nil {
		return "", &BackendError{Kind: ErrBackendUnavailable, Err: err}
	}

	start := time.Now()
	f := d.join(ctx, key)
	defer d.leave(key, f)

	ch := d.group.DoChan(key, func() (any, error) {
		return d.call(f.ctx, prompt, opts)
	})

	var (
		v      any
		err    error
		shared bool
	)
	select {
	case res := <-ch:
		v, err, shared = res.Val, res.Err, res.Shared
	case <-ctx.Done():
		err = &BackendError{Kind: ErrBackendUnavailable, Err: ctx.Err()}
	}
	elapsed := time.Since(start)
	requestDuration.WithLabelValues(d.name).Observe(elapsed.Seconds())

	if err != nil {
		requestsTotal.WithLabelValues(d.name, outcome(err)).Inc()
		log.Warn("dispatch: send failed", zap.Error(err), zap.Duration("elapsed", elapsed), zap.Bool("shared", shared))
		return "", err
	}

	text := v.(string)
	requestsTotal.WithLabelValues(d.name, "ok").Inc()
	log.Info("dispatch: completion received",
		zap.Int("prompt_chars", utf8.RuneCountInString(prompt)),
		zap.Int("response_bytes", len(text)),
		zap.Duration("elapsed", elapsed),
		zap.Bool("shared", shared),
	)
	return text, nil
}

// join registers the caller on the flight for key, starting one if needed.
// The flight keeps ctx's values but not its cancellation.
func (d *Dispatcher) join(ctx context.Context, key string) *flight {
	d.mu.Lock()
	defer d.mu.Unlock()

	f, ok := d.flights[key]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		d.flights[key] = f
	}
	f.waiters++
	return f
}

// leave drops the caller from f. The last caller out cancels the shared call
// and forgets it so a later Send starts a fresh one.
func (d *Dispatcher) leave(key string, f *flight) {
	d.mu.Lock()
	defer d.mu.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if d.flights[key] == f {
		delete(d.flights, key)
		d.group.Forget(key)
	}
}

func (d *Dispatcher) call(ctx context.Context, prompt string, opts Options) (string, error) {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return "", &BackendError{Kind: ErrBackendUnavailable, Err: err}
		}
	}

	attempts := 0
	retry := resilience.RetryConfig{
		MaxRetries: opts.MaxRetries,
		Backoff:    d.backoff,
		OnRetry: func(n int, err error) {
			retriesTotal.WithLabelValues(d.name).Inc()
			resilience.RetryLogger(d.name)(n, err)
		},
	}

	text, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (string, error) {
		attempts++
		return resilience.ExecuteVal(ctx, d.breaker, func(ctx context.Context) (string, error) {
			return d.attempt(ctx, prompt, opts.Timeout)
		})
	})
	if err != nil {
		return "", classify(err, attempts)
	}

	responseBytes.WithLabelValues(d.name).Observe(float64(len(text)))
	if d.cache != nil {
		d.cache.Set(cache.Key(prompt), text)
	}
	return text, nil
}

func (d *Dispatcher) attempt(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	text, err := d.backend.Complete(actx, prompt)
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyCompletion
	}

	result := "ok"
	if err != nil {
		result = "error"
	}
	attemptDuration.WithLabelValues(d.name, result).Observe(time.Since(start).Seconds())
	return text, err
}

// classify maps a raw failure onto the dispatcher's error kinds.
func classify(err error, attempts int) error {
	var be *BackendError
	if errors.As(err, &be) {
		return err
	}
	if errors.Is(err, ErrEmptyCompletion) {
		return &BackendError{Kind: ErrEmptyCompletion, Attempts: attempts, Err: err}
	}
	if code, ok := resilience.StatusCode(err); ok {
		return &BackendError{Kind: ErrBackendRejected, StatusCode: code, Attempts: attempts, Err: err}
	}
	return &BackendError{Kind: ErrBackendUnavailable, Attempts: attempts, Err: err}
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrBackendRejected):
		return "rejected"
	case errors.Is(err, ErrEmptyCompletion):
		return "empty"
	default:
		return "unavailable"
	}
}

// PurgeCache drops expired cache entries and returns how many were removed.
func (d *Dispatcher) PurgeCache() int {
	if d == nil || d.cache == nil {
		return 0
	}
	return d.cache.Purge()
}

// CacheStats reports response cache activity. The zero value is returned
// when caching is disabled.
func (d *Dispatcher) CacheStats() cache.Stats {
	if d == nil || d.cache == nil {
		return cache.Stats{}
	}
	return d.cache.Stats()
}

// Truncate cuts s to maxChars characters and appends "...". A non-positive
// maxChars leaves s unchanged.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxChars]) + truncationSuffix
}
