// Retry wrapper for chat completions with exponential backoff
package llm

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"math"
	"time"
)

// ChatCompleter is anything that can perform a chat completion. All clients
// in pkg/providers implement it.
type ChatCompleter interface {
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// RetryConfig controls the retry behavior of RetryChatCompletion.
type RetryConfig struct {
	// MaxRetries is the number of retry attempts after the first request.
	MaxRetries int
	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration
	// MaxDelay caps the backoff delay.
	MaxDelay time.Duration
	// BackoffFactor multiplies the delay after each attempt.
	BackoffFactor float64
	// Jitter randomizes each delay by up to 25% to avoid thundering herds.
	Jitter bool
	// RetryOnStatusCodes lists the HTTP status codes worth retrying.
	RetryOnStatusCodes []int
}

// DefaultRetryConfig retries three times with 1s base delay, doubling each
// attempt, on rate limits and transient server errors.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:         3,
		BaseDelay:          time.Second,
		MaxDelay:           30 * time.Second,
		BackoffFactor:      2.0,
		Jitter:             true,
		RetryOnStatusCodes: []int{429, 500, 502, 503},
	}
}

type retryClient struct {
	inner  ChatCompleter
	config RetryConfig
}

// RetryChatCompletion wraps a client with retries. With no config the
// defaults apply.
func RetryChatCompletion(inner ChatCompleter, config ...RetryConfig) ChatCompleter {
	cfg := DefaultRetryConfig()
	if len(config) > 0 {
		cfg = config[0]
		if cfg.MaxRetries <= 0 {
			cfg.MaxRetries = 3
		}
		if cfg.BaseDelay <= 0 {
			cfg.BaseDelay = time.Second
		}
		if cfg.BackoffFactor <= 1 {
			cfg.BackoffFactor = 2.0
		}
		if len(cfg.RetryOnStatusCodes) == 0 {
			cfg.RetryOnStatusCodes = []int{429, 500, 502, 503}
		}
	}
	return &retryClient{inner: inner, config: cfg}
}

func (r *retryClient) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.delayFor(attempt)):
			}
		}

		resp, err := r.inner.ChatCompletion(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !r.isRetryable(err) {
			return nil, err
		}
	}

	return nil, lastErr
}

func (r *retryClient) isRetryable(err error) bool {
	llmErr, ok := err.(*Error)
	if !ok {
		// Unclassified errors are treated as transient network failures.
		return true
	}
	for _, code := range r.config.RetryOnStatusCodes {
		if llmErr.StatusCode == code {
			return true
		}
	}
	return false
}

func (r *retryClient) delayFor(attempt int) time.Duration {
	delay := float64(r.config.BaseDelay) * math.Pow(r.config.BackoffFactor, float64(attempt-1))
	if r.config.MaxDelay > 0 && delay > float64(r.config.MaxDelay) {
		delay = float64(r.config.MaxDelay)
	}
	if r.config.Jitter {
		delay *= 0.75 + 0.5*secureRandomFloat64()
	}
	return time.Duration(delay)
}

// secureRandomFloat64 returns a random float64 in [0, 1).
func secureRandomFloat64() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0.5
	}
	return float64(binary.BigEndian.Uint64(buf[:])) / float64(^uint64(0))
}
