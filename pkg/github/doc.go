// Package github talks to the GitHub REST API for labelsync. It wraps
// go-github behind a small APIClient interface, classifies API failures
// into a typed error taxonomy with retryability, and provides the retry
// loop and rate limiter the replication engine runs its calls through.
//
// The package includes:
// - APIClient interface for the label and repository operations
// - Client, the go-github backed implementation
// - Error taxonomy with retryable classification and WithRetry
// - RateLimiter for pacing calls across many repositories
// - AuthManager for token resolution and validation
package github
