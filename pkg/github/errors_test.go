package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-github/v66/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastRetryConfig makes retry loops effectively instant for tests.
func fastRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:    3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
		Jitter:        0,
	}
}

func apiError(status int, message string, apiErrors ...github.Error) *github.ErrorResponse {
	return &github.ErrorResponse{
		Response: &http.Response{
			StatusCode: status,
			Request:    &http.Request{},
		},
		Message: message,
		Errors:  apiErrors,
	}
}

func TestErrorFormatting(t *testing.T) {
	withResource := &Error{
		Type:     ErrorTypeAuth,
		Message:  "invalid token",
		Resource: "repository org/app",
	}
	assert.Equal(t, "authentication error for repository org/app: invalid token", withResource.Error())

	withoutResource := &Error{
		Type:    ErrorTypeValidation,
		Message: "validation failed",
	}
	assert.Equal(t, "validation error: validation failed", withoutResource.Error())
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewError(ErrorTypeUnknown, "wrapped", cause)
	assert.ErrorIs(t, err, cause)
}

func TestNewErrorRetryability(t *testing.T) {
	assert.True(t, NewError(ErrorTypeRateLimit, "m", nil).IsRetryable())
	assert.True(t, NewError(ErrorTypeNetwork, "m", nil).IsRetryable())
	assert.False(t, NewError(ErrorTypeAuth, "m", nil).IsRetryable())
	assert.False(t, NewError(ErrorTypeValidation, "m", nil).IsRetryable())
	assert.False(t, NewAuthError("m", nil).IsRetryable())
}

func TestWrapErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		resource  string
		wantType  ErrorType
		retryable bool
	}{
		{
			name:      "unauthorized",
			err:       apiError(http.StatusUnauthorized, "Bad credentials"),
			resource:  "token validation",
			wantType:  ErrorTypeAuth,
			retryable: false,
		},
		{
			name:      "forbidden rate limit",
			err:       apiError(http.StatusForbidden, "API rate limit exceeded for user"),
			resource:  "labels of repository org/app",
			wantType:  ErrorTypeRateLimit,
			retryable: true,
		},
		{
			name:      "forbidden permissions",
			err:       apiError(http.StatusForbidden, "Must have admin rights"),
			resource:  "label \"bug\" in repository org/app",
			wantType:  ErrorTypePermission,
			retryable: false,
		},
		{
			name:      "not found",
			err:       apiError(http.StatusNotFound, "Not Found"),
			resource:  "label \"bug\" in repository org/app",
			wantType:  ErrorTypeNotFound,
			retryable: false,
		},
		{
			name:      "conflict",
			err:       apiError(http.StatusConflict, "Conflict"),
			resource:  "label \"bug\" in repository org/app",
			wantType:  ErrorTypeConflict,
			retryable: false,
		},
		{
			name:      "unprocessable",
			err:       apiError(http.StatusUnprocessableEntity, "Validation Failed", github.Error{Field: "color", Code: "invalid"}),
			resource:  "label \"bug\" in repository org/app",
			wantType:  ErrorTypeValidation,
			retryable: false,
		},
		{
			name:      "server error",
			err:       apiError(http.StatusInternalServerError, "boom"),
			resource:  "labels of repository org/app",
			wantType:  ErrorTypeNetwork,
			retryable: true,
		},
		{
			name:      "bad gateway",
			err:       apiError(http.StatusBadGateway, "bad gateway"),
			resource:  "labels of repository org/app",
			wantType:  ErrorTypeNetwork,
			retryable: true,
		},
		{
			name: "primary rate limit",
			err: &github.RateLimitError{
				Rate: github.Rate{Reset: github.Timestamp{Time: time.Now().Add(time.Minute)}},
			},
			resource:  "labels of repository org/app",
			wantType:  ErrorTypeRateLimit,
			retryable: true,
		},
		{
			name:      "secondary rate limit",
			err:       &github.AbuseRateLimitError{},
			resource:  "labels of repository org/app",
			wantType:  ErrorTypeRateLimit,
			retryable: true,
		},
		{
			name:      "connection refused",
			err:       errors.New("dial tcp 140.82.121.6:443: connection refused"),
			resource:  "labels of repository org/app",
			wantType:  ErrorTypeNetwork,
			retryable: true,
		},
		{
			name:      "unknown",
			err:       errors.New("something odd"),
			resource:  "labels of repository org/app",
			wantType:  ErrorTypeUnknown,
			retryable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := WrapError(tt.err, tt.resource)
			require.NotNil(t, wrapped)
			assert.Equal(t, tt.wantType, wrapped.Type)
			assert.Equal(t, tt.retryable, wrapped.Retryable)
			assert.Equal(t, tt.resource, wrapped.Resource)
		})
	}
}

func TestWrapErrorNil(t *testing.T) {
	assert.Nil(t, WrapError(nil, "anything"))
}

func TestWrapErrorKeepsClassification(t *testing.T) {
	original := NewError(ErrorTypeRateLimit, "slow down", nil)

	wrapped := WrapError(original, "labels of repository org/app")
	assert.Same(t, original, wrapped)
	assert.Equal(t, "labels of repository org/app", wrapped.Resource)

	// A resource set earlier wins
	again := WrapError(wrapped, "other resource")
	assert.Equal(t, "labels of repository org/app", again.Resource)
}

func TestWrapErrorValidationDetails(t *testing.T) {
	wrapped := WrapError(
		apiError(http.StatusUnprocessableEntity, "Validation Failed",
			github.Error{Field: "color", Code: "invalid"},
			github.Error{Message: "name too long"},
		),
		"label \"bug\" in repository org/app",
	)
	assert.Contains(t, wrapped.Message, "color: invalid")
	assert.Contains(t, wrapped.Message, "name too long")
}

func TestWrapErrorNotFoundMessages(t *testing.T) {
	labelErr := WrapError(apiError(http.StatusNotFound, "Not Found"), "label \"bug\" in repository org/app")
	assert.Contains(t, labelErr.Message, "label not found")

	repoErr := WrapError(apiError(http.StatusNotFound, "Not Found"), "labels of repository org/app")
	assert.Contains(t, repoErr.Message, "repository not found")
}

func TestIsRetryableAndIsType(t *testing.T) {
	err := NewError(ErrorTypeNetwork, "flaky", nil)

	assert.True(t, IsRetryable(err))
	assert.True(t, IsType(err, ErrorTypeNetwork))
	assert.False(t, IsType(err, ErrorTypeAuth))

	// Classification survives fmt.Errorf wrapping
	wrapped := fmt.Errorf("outer: %w", err)
	assert.True(t, IsRetryable(wrapped))
	assert.True(t, IsType(wrapped, ErrorTypeNetwork))

	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsType(errors.New("plain"), ErrorTypeNetwork))
	assert.False(t, IsRetryable(nil))
}

func TestWithRetrySucceedsFirstTry(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return nil
	}, fastRetryConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryRecoversFromRetryable(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return NewError(ErrorTypeNetwork, "flaky", nil)
		}
		return nil
	}, fastRetryConfig())
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryFailsFastOnNonRetryable(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return NewError(ErrorTypeValidation, "bad input", nil)
	}, fastRetryConfig())
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, IsType(err, ErrorTypeValidation))
}

func TestWithRetryFailsFastOnUnclassifiedError(t *testing.T) {
	calls := 0
	plain := errors.New("not ours")
	err := WithRetry(context.Background(), func() error {
		calls++
		return plain
	}, fastRetryConfig())
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, plain)
}

func TestWithRetryExhaustsRetries(t *testing.T) {
	cfg := fastRetryConfig()
	cfg.MaxRetries = 2

	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return NewError(ErrorTypeNetwork, "always down", nil)
	}, cfg)
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "operation failed after 2 retries")
	assert.True(t, IsType(err, ErrorTypeNetwork))
}

func TestWithRetryStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := WithRetry(ctx, func() error {
		calls++
		return NewError(ErrorTypeNetwork, "flaky", nil)
	}, fastRetryConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestWithRetryNilConfigUsesDefaults(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.InitialDelay)
	assert.Equal(t, 30*time.Second, cfg.MaxDelay)
	assert.Equal(t, 2.0, cfg.BackoffFactor)
}
