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
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/option/internaloption"
)

// type for collecting custom ClientOption values.
type customClientConfig struct {
	maxRetries *int
	reasons    []string
	backoff    func(attempt int) time.Duration
	location   string
}

type customClientOption interface {
	option.ClientOption
	ApplyCustomClientOpt(*customClientConfig)
}

func newCustomClientConfig(opts ...option.ClientOption) *customClientConfig {
	conf := &customClientConfig{}
	for _, opt := range opts {
		if cOpt, ok := opt.(customClientOption); ok {
			cOpt.ApplyCustomClientOpt(conf)
		}
	}
	return conf
}

// retryPolicy overlays the configured values on DefaultRetryPolicy.
func (c *customClientConfig) retryPolicy() RetryPolicy {
	p := DefaultRetryPolicy()
	if c.maxRetries != nil {
		p.MaxRetries = *c.maxRetries
	}
	if c.reasons != nil {
		p.Reasons = c.reasons
	}
	if c.backoff != nil {
		p.Backoff = c.backoff
	}
	return p
}

// WithMaxRetries is a ClientOption that sets how many times a failed
// idempotent request is retried. The default is 5; zero disables retries.
//
// Example usage:
//
//	client, err := bqrest.NewClient(ctx, projectID,
//	    bqrest.WithMaxRetries(3),
//	)
func WithMaxRetries(maxRetries int) option.ClientOption {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &applierMaxRetries{maxRetries: maxRetries}
}

type applierMaxRetries struct {
	internaloption.EmbeddableAdapter
	maxRetries int
}

func (s *applierMaxRetries) ApplyCustomClientOpt(c *customClientConfig) {
	c.maxRetries = &s.maxRetries
}

// WithRetryReasons is a ClientOption that replaces the error reasons that
// make a request retryable. The default is rateLimitExceeded and
// backendError.
func WithRetryReasons(reasons ...string) option.ClientOption {
	return &applierRetryReasons{reasons: append([]string{}, reasons...)}
}

type applierRetryReasons struct {
	internaloption.EmbeddableAdapter
	reasons []string
}

func (s *applierRetryReasons) ApplyCustomClientOpt(c *customClientConfig) {
	c.reasons = s.reasons
}

// WithBackoffFunc is a ClientOption that sets the pause before each retry.
// See DefaultBackoff and ExponentialBackoff.
func WithBackoffFunc(backoff func(attempt int) time.Duration) option.ClientOption {
	return &applierBackoff{backoff: backoff}
}

type applierBackoff struct {
	internaloption.EmbeddableAdapter
	backoff func(attempt int) time.Duration
}

func (s *applierBackoff) ApplyCustomClientOpt(c *customClientConfig) {
	c.backoff = s.backoff
}

// WithDefaultLocation is a ClientOption that sets Client.Location.
func WithDefaultLocation(location string) option.ClientOption {
	return &applierLocation{location: location}
}

type applierLocation struct {
	internaloption.EmbeddableAdapter
	location string
}

func (s *applierLocation) ApplyCustomClientOpt(c *customClientConfig) {
	c.location = s.location
}
