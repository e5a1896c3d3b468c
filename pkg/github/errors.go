package github

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
)

// ErrorType represents different categories of GitHub API errors
type ErrorType string

const (
	ErrorTypeAuth       ErrorType = "authentication"
	ErrorTypePermission ErrorType = "permission"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeRateLimit  ErrorType = "rate_limit"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeUnknown    ErrorType = "unknown"
)

// Error is a structured error from GitHub operations. Retryable drives the
// retry loop; Resource names what the failing call was touching.
type Error struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Cause     error     `json:"-"`
	Resource  string    `json:"resource,omitempty"`
	Retryable bool      `json:"retryable"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s error for %s: %s", e.Type, e.Resource, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable returns whether the error is retryable
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewError creates an Error with the retryability implied by its type.
func NewError(errorType ErrorType, message string, cause error) *Error {
	return &Error{
		Type:      errorType,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryableErrorType(errorType),
	}
}

// NewAuthError builds a non-retryable authentication error.
func NewAuthError(message string, cause error) *Error {
	return NewError(ErrorTypeAuth, message, cause)
}

// IsRetryable reports whether err carries a retryable classification.
func IsRetryable(err error) bool {
	var ghErr *Error
	if errors.As(err, &ghErr) {
		return ghErr.Retryable
	}
	return false
}

// IsType reports whether err is classified as the given type.
func IsType(err error, errorType ErrorType) bool {
	var ghErr *Error
	if errors.As(err, &ghErr) {
		return ghErr.Type == errorType
	}
	return false
}

// WrapError wraps a GitHub API error into our structured error type
func WrapError(err error, resource string) *Error {
	if err == nil {
		return nil
	}

	// If it's already classified, keep it
	var ghErr *Error
	if errors.As(err, &ghErr) {
		if ghErr.Resource == "" {
			ghErr.Resource = resource
		}
		return ghErr
	}

	// Handle GitHub API errors
	var apiErr *github.ErrorResponse
	if errors.As(err, &apiErr) {
		return parseAPIError(apiErr, resource)
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return &Error{
			Type:      ErrorTypeRateLimit,
			Message:   fmt.Sprintf("rate limit exceeded, resets at %v", rateErr.Rate.Reset.Time),
			Cause:     err,
			Resource:  resource,
			Retryable: true,
		}
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return &Error{
			Type:      ErrorTypeRateLimit,
			Message:   "secondary rate limit hit, slow down",
			Cause:     err,
			Resource:  resource,
			Retryable: true,
		}
	}

	// Handle network/connection errors
	if isNetworkError(err) {
		return &Error{
			Type:      ErrorTypeNetwork,
			Message:   "network error, check your connection and try again",
			Cause:     err,
			Resource:  resource,
			Retryable: true,
		}
	}

	return &Error{
		Type:      ErrorTypeUnknown,
		Message:   err.Error(),
		Cause:     err,
		Resource:  resource,
		Retryable: false,
	}
}

// parseAPIError maps GitHub API error responses onto the taxonomy
func parseAPIError(apiErr *github.ErrorResponse, resource string) *Error {
	baseErr := &Error{
		Resource: resource,
		Cause:    apiErr,
	}

	switch apiErr.Response.StatusCode {
	case http.StatusUnauthorized:
		baseErr.Type = ErrorTypeAuth
		baseErr.Message = "authentication failed, check your GitHub token"
		baseErr.Retryable = false

		if strings.Contains(apiErr.Message, "token") {
			baseErr.Message = "invalid or expired GitHub token, update GITHUB_TOKEN or the configuration"
		}

	case http.StatusForbidden:
		if strings.Contains(strings.ToLower(apiErr.Message), "rate limit") {
			baseErr.Type = ErrorTypeRateLimit
			baseErr.Message = "GitHub API rate limit exceeded, wait before retrying"
			baseErr.Retryable = true
		} else {
			baseErr.Type = ErrorTypePermission
			baseErr.Message = "insufficient permissions, the token may be missing the repo scope"
			baseErr.Retryable = false
		}

	case http.StatusNotFound:
		baseErr.Type = ErrorTypeNotFound
		baseErr.Retryable = false

		if strings.Contains(resource, "label") {
			baseErr.Message = "label not found, it may have been renamed or deleted concurrently"
		} else if strings.Contains(resource, "repository") {
			baseErr.Message = "repository not found, check the slug and your access permissions"
		} else {
			baseErr.Message = "resource not found"
		}

	case http.StatusConflict:
		baseErr.Type = ErrorTypeConflict
		baseErr.Message = "resource conflict"
		baseErr.Retryable = false

	case http.StatusUnprocessableEntity:
		baseErr.Type = ErrorTypeValidation
		baseErr.Message = "validation failed"
		baseErr.Retryable = false

		if len(apiErr.Errors) > 0 {
			var details []string
			for _, e := range apiErr.Errors {
				if e.Field != "" {
					details = append(details, fmt.Sprintf("%s: %s", e.Field, e.Code))
				} else {
					details = append(details, e.Message)
				}
			}
			baseErr.Message = fmt.Sprintf("validation failed: %s", strings.Join(details, "; "))
		}

	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		baseErr.Type = ErrorTypeNetwork
		baseErr.Message = "GitHub API is temporarily unavailable, try again later"
		baseErr.Retryable = true

	default:
		baseErr.Type = ErrorTypeUnknown
		baseErr.Message = apiErr.Message
		baseErr.Retryable = apiErr.Response.StatusCode >= 500
	}

	return baseErr
}

// isNetworkError checks if an error is a network-related error
func isNetworkError(err error) bool {
	errStr := strings.ToLower(err.Error())
	networkKeywords := []string{
		"connection refused",
		"connection reset",
		"connection timeout",
		"network is unreachable",
		"no such host",
		"timeout",
		"dial tcp",
		"i/o timeout",
	}

	for _, keyword := range networkKeywords {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}

// isRetryableErrorType determines if an error type is generally retryable
func isRetryableErrorType(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeRateLimit, ErrorTypeNetwork:
		return true
	default:
		return false
	}
}

// RetryConfig defines configuration for retry logic
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	Jitter        float64 // 0..1 fraction of the delay randomized
}

// DefaultRetryConfig returns a default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:    3,
		InitialDelay:  time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        0.1,
	}
}

// RetryableOperation represents an operation that can be retried
type RetryableOperation func() error

// WithRetry executes an operation with exponential backoff. Only errors
// classified as retryable are retried; context cancellation stops the loop.
func WithRetry(ctx context.Context, operation RetryableOperation, config *RetryConfig) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error
	delay := config.InitialDelay

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, jittered(delay, config.Jitter)); err != nil {
				return err
			}

			delay = time.Duration(float64(delay) * config.BackoffFactor)
			if delay > config.MaxDelay {
				delay = config.MaxDelay
			}
		}

		err := operation()
		if err == nil {
			return nil
		}

		lastErr = err

		var ghErr *Error
		if !errors.As(err, &ghErr) {
			return err
		}
		if !ghErr.IsRetryable() {
			return err
		}

		// Rate limit errors carry a reset instant worth waiting for
		if ghErr.Type == ErrorTypeRateLimit {
			var rateErr *github.RateLimitError
			if errors.As(ghErr.Cause, &rateErr) {
				waitTime := time.Until(rateErr.Rate.Reset.Time)
				if waitTime > 0 && waitTime < 5*time.Minute {
					if err := sleepContext(ctx, waitTime); err != nil {
						return err
					}
				}
			}
		}
	}

	return fmt.Errorf("operation failed after %d retries: %w", config.MaxRetries, lastErr)
}

func jittered(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 {
		return d
	}
	spread := float64(d) * fraction
	return d + time.Duration((rand.Float64()*2-1)*spread)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
