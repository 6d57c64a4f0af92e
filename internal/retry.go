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

package internal

import (
	"context"
	"fmt"
	"time"

	gax "github.com/googleapis/gax-go/v2"
)

// Retry calls f repeatedly until f's first return value is true, sleeping
// between calls for the duration pause returns. The attempt number passed to
// f and pause starts at zero and counts the calls made so far.
//
// When f asks to stop, Retry returns f's error unchanged. When the context is
// done during a pause, Retry returns an error that reports ctx.Err() and
// unwraps to the last error returned by f.
func Retry(ctx context.Context, pause func(attempt int) time.Duration, f func(attempt int) (stop bool, err error)) error {
	return retry(ctx, pause, f, gax.Sleep)
}

func retry(ctx context.Context, pause func(attempt int) time.Duration, f func(attempt int) (stop bool, err error),
	sleep func(context.Context, time.Duration) error) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		stop, err := f(attempt)
		if stop {
			return err
		}
		if err != nil {
			lastErr = err
		}
		if ctxErr := sleep(ctx, pause(attempt)); ctxErr != nil {
			if lastErr != nil {
				return wrappedCallErr{ctxErr: ctxErr, wrappedErr: lastErr}
			}
			return ctxErr
		}
	}
}

// BackoffPause adapts a gax.Backoff to the pause function taken by Retry.
// The returned function is stateful and must not be shared between calls
// to Retry.
func BackoffPause(bo gax.Backoff) func(int) time.Duration {
	return func(int) time.Duration { return bo.Pause() }
}

// wrappedCallErr reports both the context error and the error from the
// service.
type wrappedCallErr struct {
	ctxErr     error
	wrappedErr error
}

func (e wrappedCallErr) Error() string {
	return fmt.Sprintf("retry failed with %v; last error: %v", e.ctxErr, e.wrappedErr)
}

func (e wrappedCallErr) Unwrap() error {
	return e.wrappedErr
}

// Is allows errors.Is to match the error from the call as well as context
// sentinel errors.
func (e wrappedCallErr) Is(err error) bool {
	return e.ctxErr == err || e.wrappedErr == err
}
