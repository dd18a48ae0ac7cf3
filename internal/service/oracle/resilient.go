package oracle

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"promptforge/internal/domain"
	domainoracle "promptforge/internal/domain/services/oracle"
)

// ResilientConfig tunes the resilience wrapper. Zero values fall back to the
// defaults below.
type ResilientConfig struct {
	Timeout          time.Duration // per-attempt timeout
	Attempts         uint          // total attempts per Complete call
	BaseDelay        time.Duration // first backoff delay
	FailureThreshold int           // consecutive failures before the circuit opens
	Cooldown         time.Duration // how long the circuit stays open
}

const (
	defaultTimeout          = 30 * time.Second
	defaultAttempts         = 3
	defaultBaseDelay        = 500 * time.Millisecond
	defaultFailureThreshold = 5
	defaultCooldown         = 30 * time.Second
)

// Resilient wraps an oracle provider with the resilience contract: per-call
// timeout, retries with exponential backoff (honoring server retry-after
// hints), and a consecutive-failure circuit breaker that fails fast for a
// cooldown window before allowing a single probing attempt.
type Resilient struct {
	inner     domainoracle.Oracle
	timeout   time.Duration
	attempts  uint
	baseDelay time.Duration
	breaker   *circuitBreaker
	logger    *slog.Logger
}

// NewResilient wraps the given provider.
func NewResilient(inner domainoracle.Oracle, cfg ResilientConfig, logger *slog.Logger) *Resilient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = defaultAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaultBaseDelay
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = defaultFailureThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = defaultCooldown
	}

	return &Resilient{
		inner:     inner,
		timeout:   cfg.Timeout,
		attempts:  cfg.Attempts,
		baseDelay: cfg.BaseDelay,
		breaker: &circuitBreaker{
			threshold: cfg.FailureThreshold,
			cooldown:  cfg.Cooldown,
			now:       time.Now,
		},
		logger: logger,
	}
}

// Name returns the wrapped provider's name.
func (r *Resilient) Name() string { return r.inner.Name() }

// SupportsModel delegates to the wrapped provider.
func (r *Resilient) SupportsModel(model string) bool { return r.inner.SupportsModel(model) }

// Complete calls the wrapped provider under the resilience contract.
func (r *Resilient) Complete(ctx context.Context, req *domainoracle.CompletionRequest) (*domainoracle.CompletionResponse, error) {
	if err := r.breaker.Allow(); err != nil {
		return nil, err
	}

	var resp *domainoracle.CompletionResponse
	err := retry.Do(
		func() error {
			callCtx, cancel := context.WithTimeout(ctx, r.timeout)
			defer cancel()

			out, err := r.inner.Complete(callCtx, req)
			if err != nil {
				return r.classify(ctx, callCtx, err)
			}
			resp = out
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.LastErrorOnly(true),
		retry.Delay(r.baseDelay),
		retry.RetryIf(func(err error) bool {
			var oerr *domain.OracleError
			return errors.As(err, &oerr) && oerr.Retryable()
		}),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			// A server-provided retry-after hint overrides backoff
			var oerr *domain.OracleError
			if errors.As(err, &oerr) && oerr.RetryAfter > 0 {
				return oerr.RetryAfter
			}
			return retry.BackOffDelay(n, err, config)
		}),
		retry.OnRetry(func(n uint, err error) {
			r.logger.Warn("oracle call failed, retrying",
				"provider", r.inner.Name(),
				"attempt", n+1,
				"error", err,
			)
		}),
	)

	r.breaker.Record(err == nil)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// classify normalizes provider failures that escaped the provider's own
// error mapping. An expired per-attempt deadline with a live outer context
// is an oracle timeout; outer cancellation propagates untouched.
func (r *Resilient) classify(outer, call context.Context, err error) error {
	var oerr *domain.OracleError
	if errors.As(err, &oerr) {
		return err
	}
	if outer.Err() != nil {
		return outer.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) || call.Err() == context.DeadlineExceeded {
		return &domain.OracleError{Kind: domain.OracleTimeout, Message: "oracle call exceeded timeout", Err: err}
	}
	return &domain.OracleError{Kind: domain.OracleServerError, Message: "oracle call failed", Err: err}
}

// circuitBreaker opens after a threshold of consecutive failures, fails fast
// for a cooldown window, then admits a single probe.
type circuitBreaker struct {
	mu        sync.Mutex
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	consecutive int
	openedAt    time.Time
	probing     bool
}

// Allow reports whether a call may proceed.
func (b *circuitBreaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.consecutive < b.threshold {
		return nil
	}
	if b.now().Sub(b.openedAt) < b.cooldown {
		return &domain.OracleError{
			Kind:    domain.OracleServerError,
			Message: "circuit open: failing fast until cooldown elapses",
		}
	}
	if b.probing {
		return &domain.OracleError{
			Kind:    domain.OracleServerError,
			Message: "circuit half-open: probe already in flight",
		}
	}
	b.probing = true
	return nil
}

// Record observes the outcome of an admitted call.
func (b *circuitBreaker) Record(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false
	if ok {
		b.consecutive = 0
		return
	}
	b.consecutive++
	if b.consecutive >= b.threshold {
		b.openedAt = b.now()
	}
}
