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
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"cloud.google.com/go/bqrest/internal/detect"
	"cloud.google.com/go/bqrest/internal/trace"
	"cloud.google.com/go/bqrest/internal/version"
	"github.com/googleapis/gax-go/v2/internallog"
	bq "google.golang.org/api/bigquery/v2"
	"google.golang.org/api/option"
	"google.golang.org/api/option/internaloption"
)

const (
	// Scope is the Oauth2 scope for the service.
	// For relevant BigQuery scopes, see:
	// https://developers.google.com/identity/protocols/googlescopes#bigqueryv2
	Scope           = "https://www.googleapis.com/auth/bigquery"
	userAgentPrefix = "gcloud-golang-bqrest"
)

var xGoogHeader = fmt.Sprintf("gl-go/%s gccl/%s", version.Go(), version.Repo)

func setClientHeader(headers http.Header) {
	headers.Set("x-goog-api-client", xGoogHeader)
}

// Client may be used to perform BigQuery operations.
type Client struct {
	// Location, if set, will be used as the default location for all subsequent
	// dataset creation and job operations. A location specified directly in one of
	// those operations will override this value.
	Location string

	projectID string
	bqs       *bq.Service
	retry     *Retryer
	logger    *slog.Logger
}

// DetectProjectID is a sentinel value that instructs NewClient to detect the
// project ID. It is given in place of the projectID argument. NewClient will
// use the GOOGLE_CLOUD_PROJECT environment variable or the project ID of the
// default credentials
// (https://developers.google.com/accounts/docs/application-default-credentials).
const DetectProjectID = detect.ProjectIDSentinel

// NewClient constructs a new Client which can perform BigQuery operations.
// Operations performed via the client are billed to the specified GCP project.
//
// If the project ID is set to DetectProjectID, NewClient will attempt to detect
// the project ID from the environment.
func NewClient(ctx context.Context, projectID string, opts ...option.ClientOption) (*Client, error) {
	o := []option.ClientOption{
		option.WithScopes(Scope),
		option.WithUserAgent(fmt.Sprintf("%s/%s", userAgentPrefix, version.Repo)),
	}
	o = append(o, opts...)
	bqs, err := bq.NewService(ctx, o...)
	if err != nil {
		return nil, fmt.Errorf("bqrest: constructing client: %w", err)
	}

	projectID, err = detect.ProjectID(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("bqrest: %w", err)
	}

	conf := newCustomClientConfig(opts...)
	logger := internallog.New(internaloption.GetLogger(opts))
	c := &Client{
		Location:  conf.location,
		projectID: projectID,
		bqs:       bqs,
		retry:     NewRetryer(conf.retryPolicy(), logger),
		logger:    logger,
	}
	return c, nil
}

// Project returns the project ID or number for this instance of the client, which may have
// either been explicitly specified or autodetected.
func (c *Client) Project() string {
	return c.projectID
}

// Close closes any resources held by the client.
// Close should be called when the client is no longer needed.
// It need not be called at program exit.
func (c *Client) Close() error {
	return nil
}

// SetRetry replaces the retry policy used by all subsequent operations of
// the client.
func (c *Client) SetRetry(p RetryPolicy) {
	c.retry = NewRetryer(p, c.logger)
}

// call runs f in a span named spanName under the client's retry policy.
// Only idempotent calls are retried.
func (c *Client) call(ctx context.Context, spanName string, idempotent bool, f func(ctx context.Context) error) (err error) {
	ctx = trace.StartSpan(ctx, spanName, trace.ProjectKey.String(c.projectID))
	defer func() { trace.EndSpan(ctx, err) }()
	return c.retry.Execute(ctx, idempotent, func() error { return f(ctx) })
}

// Calls the Jobs.Insert RPC and returns a Job.
func (c *Client) insertJob(ctx context.Context, job *bq.Job) (*Job, error) {
	var res *bq.Job
	// A job with a client-generated ID can be retried; the presence of the
	// ID makes the insert operation idempotent.
	idempotent := job.JobReference != nil && job.JobReference.JobId != ""
	err := c.call(ctx, "bqrest.jobs.insert", idempotent, func(ctx context.Context) (err error) {
		call := c.bqs.Jobs.Insert(c.projectID, job).Context(ctx)
		setClientHeader(call.Header())
		res, err = call.Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	j, err := bqToJob(res, c)
	if err != nil {
		return nil, err
	}
	c.logger.DebugContext(ctx, "inserted BigQuery job", "job", j.jobID, "location", j.location)
	return j, nil
}

// Convert a number of milliseconds since the Unix epoch to a time.Time.
// Treat an input of zero specially: convert it to the zero time,
// rather than the start of the epoch.
func unixMillisToTime(m int64) time.Time {
	if m == 0 {
		return time.Time{}
	}
	return time.Unix(0, m*1e6)
}
