package rpc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gethRpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog/log"
	config "github.com/tokenlens/burnwatch/configs"
	"github.com/tokenlens/burnwatch/internal/common"
	"github.com/tokenlens/burnwatch/internal/metrics"
)

const (
	DEFAULT_MAX_RETRIES      = 5
	DEFAULT_RETRY_BASE_DELAY = 500 * time.Millisecond
	DEFAULT_CALL_TIMEOUT     = 10 * time.Second
	DEFAULT_INTER_CALL_DELAY = 150 * time.Millisecond
)

// rateLimitPatterns match provider error messages that signal throttling
// without an explicit 429 status.
var rateLimitPatterns = []string{
	"rate limit",
	"rate-limit",
	"too many requests",
	"429",
	"request limit exceeded",
	"throttle",
	"capacity exceeded",
}

// Retrier applies the single retry policy every ChainReader call goes
// through: per-call timeout, exponential backoff on rate-limit signals and
// a fixed inter-call delay to stay under provider RPS ceilings when called
// in a tight loop.
type Retrier struct {
	maxAttempts int
	baseDelay   time.Duration
	callTimeout time.Duration
	callDelay   time.Duration
	sleep       func(time.Duration)
}

func NewRetrier(cfg *config.RPCConfig) *Retrier {
	r := &Retrier{
		maxAttempts: cfg.MaxRetries,
		baseDelay:   time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond,
		callTimeout: time.Duration(cfg.CallTimeoutMs) * time.Millisecond,
		callDelay:   time.Duration(cfg.CallDelayMs) * time.Millisecond,
		sleep:       time.Sleep,
	}
	if r.maxAttempts <= 0 {
		r.maxAttempts = DEFAULT_MAX_RETRIES
	}
	if r.baseDelay <= 0 {
		r.baseDelay = DEFAULT_RETRY_BASE_DELAY
	}
	if r.callTimeout <= 0 {
		r.callTimeout = DEFAULT_CALL_TIMEOUT
	}
	if r.callDelay <= 0 {
		r.callDelay = DEFAULT_INTER_CALL_DELAY
	}
	return r
}

// Do runs call until it succeeds, fails with a non-retryable error, or the
// attempt budget is spent. Exhaustion maps to ErrUpstreamUnavailable.
func (r *Retrier) Do(ctx context.Context, operation string, call func(context.Context) error) error {
	defer r.sleep(r.callDelay)

	var lastErr error
	delay := r.baseDelay
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		metrics.RPCCalls.WithLabelValues(operation).Inc()

		callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
		lastErr = call(callCtx)
		cancel()

		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !isRetryable(lastErr) {
			return lastErr
		}

		metrics.RPCRetries.Inc()
		log.Warn().
			Err(lastErr).
			Str("operation", operation).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Msg("Retrying rate-limited RPC call")

		if attempt < r.maxAttempts {
			r.sleep(delay)
			delay *= 2
		}
	}

	metrics.RPCExhaustedRetries.Inc()
	return fmt.Errorf("%s failed after %d attempts: %w: %v", operation, r.maxAttempts, common.ErrUpstreamUnavailable, lastErr)
}

func isRetryable(err error) bool {
	// A per-call timeout is treated like a throttled call and retried.
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return isRateLimited(err)
}

func isRateLimited(err error) bool {
	var httpErr gethRpc.HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == 429 {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range rateLimitPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
