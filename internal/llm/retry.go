package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jonathan/recruiter-insight/internal/observability"
	"go.uber.org/zap"
)

// RetryClass decides how a failed attempt is retried.
type RetryClass int

const (
	// RetryFixed waits the configured fixed delay before the next attempt.
	RetryFixed RetryClass = iota
	// RetryBackoff waits RateLimitBaseDelay * 2^attempt.
	RetryBackoff
	// Fatal stops retrying immediately.
	Fatal
)

func (c RetryClass) String() string {
	switch c {
	case RetryBackoff:
		return "rate_limit"
	case Fatal:
		return "fatal"
	default:
		return "fixed"
	}
}

var rateLimitMarkers = []string{"rate_limit", "rate limit", "resource_exhausted", "resource exhausted"}

// Classify maps a provider error to its retry class. Rate-limit failures
// back off exponentially; cancellation and client errors other than 408 and
// 429 are fatal; everything else retries after the fixed delay.
func Classify(err error) RetryClass {
	if err == nil {
		return RetryFixed
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Fatal
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if statusErr.RateLimited() {
			return RetryBackoff
		}
		if statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 &&
			statusErr.StatusCode != http.StatusRequestTimeout {
			return Fatal
		}
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(msg, marker) {
			return RetryBackoff
		}
	}
	return RetryFixed
}

// classifiedBackOff picks the wait after each failure from the class of the
// most recent error and stops once the attempt budget is spent.
type classifiedBackOff struct {
	maxAttempts int
	fixed       time.Duration
	base        time.Duration

	failures int
	class    RetryClass
}

func (b *classifiedBackOff) Reset() {
	b.failures = 0
	b.class = RetryFixed
}

func (b *classifiedBackOff) NextBackOff() time.Duration {
	b.failures++
	if b.failures >= b.maxAttempts {
		return backoff.Stop
	}
	if b.class == RetryBackoff {
		return b.base * time.Duration(1<<(b.failures-1))
	}
	return b.fixed
}

// RetryingClient wraps a single-attempt provider client with bounded retry,
// metrics, and token-usage logging.
type RetryingClient struct {
	inner  Client
	config *Config
	usage  *UsageLog
}

// NewRetryingClient wraps inner. A nil usage log disables usage recording.
func NewRetryingClient(inner Client, config *Config, usage *UsageLog) *RetryingClient {
	if config == nil {
		config = DefaultConfig()
	}
	return &RetryingClient{inner: inner, config: config, usage: usage}
}

// Call runs the request with at most config.MaxRetries attempts. Exhausted
// or fatal failures are returned as *TransportError.
func (c *RetryingClient) Call(ctx context.Context, req Request) (*Response, error) {
	provider := string(c.config.Provider)
	operation := req.Operation
	if operation == "" {
		operation = "unspecified"
	}
	maxAttempts := max(c.config.MaxRetries, 1)

	b := &classifiedBackOff{
		maxAttempts: maxAttempts,
		fixed:       c.config.RetryDelay,
		base:        c.config.RateLimitBaseDelay,
	}

	attempts := 0
	var resp *Response
	var lastClass RetryClass
	op := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		attempts++
		zap.S().Infow("LLM call started",
			"provider", provider, "operation", operation,
			"attempt", attempts, "max_attempts", maxAttempts)

		start := time.Now()
		r, err := c.inner.Call(ctx, req)
		observability.LLMRequestDuration.WithLabelValues(provider, operation).Observe(time.Since(start).Seconds())
		if err == nil {
			resp = r
			return nil
		}

		lastClass = Classify(err)
		b.class = lastClass
		if lastClass == Fatal {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		observability.LLMRetriesTotal.WithLabelValues(provider, lastClass.String()).Inc()
		zap.S().Warnw("LLM call failed, retrying",
			"provider", provider, "operation", operation,
			"class", lastClass.String(), "wait", wait, "error", err)
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		observability.LLMRequestsTotal.WithLabelValues(provider, operation, "failure").Inc()
		zap.S().Errorw("LLM call failed",
			"provider", provider, "operation", operation,
			"attempts", attempts, "error", err)
		return nil, &TransportError{
			Provider:    c.config.Provider,
			Attempts:    attempts,
			RateLimited: Classify(err) == RetryBackoff,
			Cause:       err,
		}
	}

	observability.LLMRequestsTotal.WithLabelValues(provider, operation, "success").Inc()
	if resp.Model == "" {
		resp.Model = c.config.Model
	}
	if resp.Usage != nil {
		observability.LLMTokensTotal.WithLabelValues(provider, "prompt").Add(float64(resp.Usage.PromptTokens))
		observability.LLMTokensTotal.WithLabelValues(provider, "completion").Add(float64(resp.Usage.CompletionTokens))
		zap.S().Infow("LLM call succeeded",
			"provider", provider, "operation", operation,
			"response_chars", len([]rune(resp.Text)),
			"prompt_tokens", resp.Usage.PromptTokens,
			"completion_tokens", resp.Usage.CompletionTokens,
			"total_tokens", resp.Usage.TotalTokens)
	} else {
		zap.S().Infow("LLM call succeeded",
			"provider", provider, "operation", operation,
			"response_chars", len([]rune(resp.Text)))
	}

	if c.usage != nil {
		if err := c.usage.Record(ctx, req, resp); err != nil {
			zap.S().Debugw("failed to write token usage", "error", err)
		}
	}
	return resp, nil
}

// Close closes the wrapped client
func (c *RetryingClient) Close() error {
	return c.inner.Close()
}
