// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bqrest

import (
	"context"
	"log/slog"
	"math"
	"slices"
	"time"

	"cloud.google.com/go/bqrest/internal"
	"cloud.google.com/go/bqrest/internal/trace"
	gax "github.com/googleapis/gax-go/v2"
)

// Reasons the service attaches to transient failures.
const (
	ReasonRateLimitExceeded = "rateLimitExceeded"
	ReasonBackendError      = "backendError"
)

const (
	defaultMaxRetries = 5
	maxBackoffExp     = 5
)

// RetryPolicy decides whether and how often a failed idempotent call is
// attempted again.
type RetryPolicy struct {
	// MaxRetries is the number of attempts made after the first one. Zero
	// disables retries.
	MaxRetries int

	// Reasons lists the error reasons that may be retried. A failure is
	// retried only when every reason it carries is in this list.
	Reasons []string

	// Backoff returns the pause before retry number attempt, counting from
	// zero. When nil, DefaultBackoff is used.
	Backoff func(attempt int) time.Duration
}

// DefaultRetryPolicy retries rateLimitExceeded and backendError failures up to
// five times with DefaultBackoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: defaultMaxRetries,
		Reasons:    []string{ReasonRateLimitExceeded, ReasonBackendError},
		Backoff:    DefaultBackoff,
	}
}

// DefaultBackoff waits 2^attempt seconds, capped at 32 seconds.
func DefaultBackoff(attempt int) time.Duration {
	attempt = min(max(attempt, 0), maxBackoffExp)
	return time.Duration(1<<uint(attempt)) * time.Second
}

// ExponentialBackoff returns a backoff function that waits bo.Initial before
// the first retry and multiplies the wait by bo.Multiplier after each one, up
// to bo.Max. Unlike gax.Backoff.Pause it adds no jitter and keeps no state,
// so one function may serve concurrent calls. Zero fields take gax's
// defaults.
func ExponentialBackoff(bo gax.Backoff) func(attempt int) time.Duration {
	initial, maxPause, mult := bo.Initial, bo.Max, bo.Multiplier
	if initial == 0 {
		initial = time.Second
	}
	if maxPause == 0 {
		maxPause = 30 * time.Second
	}
	if mult < 1 {
		mult = 2
	}
	return func(attempt int) time.Duration {
		d := float64(initial) * math.Pow(mult, float64(max(attempt, 0)))
		if d > float64(maxPause) {
			return maxPause
		}
		return time.Duration(d)
	}
}

func (p RetryPolicy) pause(attempt int) time.Duration {
	if p.Backoff == nil {
		return DefaultBackoff(attempt)
	}
	return p.Backoff(attempt)
}

// retryable reports whether err carries at least one reason and every reason
// is in p.Reasons.
func (p RetryPolicy) retryable(err error) bool {
	reasons := RetryableReasons(err)
	if len(reasons) == 0 {
		return false
	}
	for _, r := range reasons {
		if !slices.Contains(p.Reasons, r) {
			return false
		}
	}
	return true
}

// RetryableReasons returns the reason codes of a service error, taken from
// its structured error items or, when those are missing, from the JSON
// response body. It returns nil for errors that are not *googleapi.Error.
func RetryableReasons(err error) []string {
	return internal.ErrorReasons(err)
}

// Retryer runs service calls under a RetryPolicy.
type Retryer struct {
	policy RetryPolicy
	logger *slog.Logger
}

// NewRetryer returns a Retryer for p. A nil logger discards retry logs.
func NewRetryer(p RetryPolicy, logger *slog.Logger) *Retryer {
	if logger == nil {
		logger = slog.New(discardHandler{})
	}
	return &Retryer{policy: p, logger: logger}
}

// Policy returns the retry policy.
func (r *Retryer) Policy() RetryPolicy { return r.policy }

// Execute runs call. A call that is not idempotent runs exactly once. An
// idempotent call that fails with retryable reasons is attempted again after
// the policy's backoff, up to MaxRetries more times. Execute returns nil on
// the first success, otherwise the last error from call unchanged. If ctx is
// done while waiting, the returned error also matches ctx.Err() under
// errors.Is.
func (r *Retryer) Execute(ctx context.Context, idempotent bool, call func() error) error {
	if !idempotent {
		return call()
	}
	p := r.policy
	return internal.Retry(ctx, p.pause, func(attempt int) (bool, error) {
		err := call()
		if err == nil {
			return true, nil
		}
		if attempt >= p.MaxRetries || !p.retryable(err) {
			return true, err
		}
		reasons := RetryableReasons(err)
		r.logger.DebugContext(ctx, "retrying BigQuery request",
			"attempt", attempt+1, "reasons", reasons)
		trace.RetryEvent(ctx, attempt+1, reasons)
		return false, err
	})
}

// discardHandler drops every record.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
