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

// Package trace wraps OpenTelemetry spans around BigQuery REST calls.
package trace

import (
	"context"
	"errors"

	"cloud.google.com/go/bqrest/internal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/googleapi"
)

const tracerName = "cloud.google.com/go/bqrest"

// Attribute keys recorded on spans and retry events.
const (
	ProjectKey    = attribute.Key("bigquery.project")
	AttemptKey    = attribute.Key("bigquery.retry.attempt")
	ReasonsKey    = attribute.Key("bigquery.error.reasons")
	StatusCodeKey = attribute.Key("http.response.status_code")
)

// StartSpan starts a client span for the REST method name and returns a
// context carrying it.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) context.Context {
	ctx, _ = otel.Tracer(tracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...))
	return ctx
}

// EndSpan ends the span in ctx. A service error also records its HTTP
// status and error reasons.
func EndSpan(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			span.SetAttributes(StatusCodeKey.Int(apiErr.Code))
			if reasons := internal.ErrorReasons(err); len(reasons) > 0 {
				span.SetAttributes(ReasonsKey.StringSlice(reasons))
			}
		}
		span.RecordError(err)
		span.SetStatus(toStatus(err))
	}
	span.End()
}

// RetryEvent records that a failed attempt will be retried.
func RetryEvent(ctx context.Context, attempt int, reasons []string) {
	trace.SpanFromContext(ctx).AddEvent("retry", trace.WithAttributes(
		AttemptKey.Int(attempt),
		ReasonsKey.StringSlice(reasons),
	))
}

// toStatus prefers the service's message over the full error text.
func toStatus(err error) (codes.Code, string) {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return codes.Error, apiErr.Message
	}
	return codes.Error, err.Error()
}
