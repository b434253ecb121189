package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedCompleter struct {
	calls     int
	responses []func() (*ChatResponse, error)
}

func (s *scriptedCompleter) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	idx := s.calls
	s.calls++
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	return s.responses[idx]()
}

func okResponse() (*ChatResponse, error) {
	return &ChatResponse{
		Choices: []Choice{{Message: NewTextMessage(RoleAssistant, "ok"), FinishReason: FinishReasonStop}},
	}, nil
}

func rateLimited() (*ChatResponse, error) {
	return nil, &Error{Code: "rate_limit", Message: "slow down", Type: "rate_limit_error", StatusCode: 429}
}

func badRequest() (*ChatResponse, error) {
	return nil, &Error{Code: "invalid_request", Message: "bad input", Type: "validation_error", StatusCode: 400}
}

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:         3,
		BaseDelay:          time.Millisecond,
		BackoffFactor:      2.0,
		RetryOnStatusCodes: []int{429, 500, 502, 503},
	}
}

func TestRetryChatCompletion_SucceedsAfterRetry(t *testing.T) {
	inner := &scriptedCompleter{responses: []func() (*ChatResponse, error){
		rateLimited,
		rateLimited,
		okResponse,
	}}

	client := RetryChatCompletion(inner, fastRetryConfig())
	resp, err := client.ChatCompletion(context.Background(), ChatRequest{})

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.GetText())
	assert.Equal(t, 3, inner.calls)
}

func TestRetryChatCompletion_NonRetryableFailsFast(t *testing.T) {
	inner := &scriptedCompleter{responses: []func() (*ChatResponse, error){badRequest}}

	client := RetryChatCompletion(inner, fastRetryConfig())
	_, err := client.ChatCompletion(context.Background(), ChatRequest{})

	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestRetryChatCompletion_ExhaustsRetries(t *testing.T) {
	inner := &scriptedCompleter{responses: []func() (*ChatResponse, error){rateLimited}}

	client := RetryChatCompletion(inner, fastRetryConfig())
	_, err := client.ChatCompletion(context.Background(), ChatRequest{})

	require.Error(t, err)
	assert.Equal(t, 4, inner.calls) // initial attempt + 3 retries

	var llmErr *Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, 429, llmErr.StatusCode)
}

func TestRetryChatCompletion_ContextCancelled(t *testing.T) {
	inner := &scriptedCompleter{responses: []func() (*ChatResponse, error){rateLimited}}

	cfg := fastRetryConfig()
	cfg.BaseDelay = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := RetryChatCompletion(inner, cfg)
	_, err := client.ChatCompletion(ctx, ChatRequest{})

	require.ErrorIs(t, err, context.Canceled)
}
