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

package trace

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"cloud.google.com/go/bqrest/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel/attribute"
	otcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/googleapi"
)

// attrMap flattens attributes for comparison; attribute.Value has
// unexported fields.
func attrMap(kvs []attribute.KeyValue) map[string]interface{} {
	m := map[string]interface{}{}
	for _, kv := range kvs {
		m[string(kv.Key)] = kv.Value.AsInterface()
	}
	return m
}

func TestSpanLifecycle(t *testing.T) {
	ctx := context.Background()
	rec := testutil.NewSpanRecorder(t)

	ctx = StartSpan(ctx, "bqrest.tabledata.list", ProjectKey.String("proj"))
	RetryEvent(ctx, 1, []string{"backendError"})
	err := &googleapi.Error{
		Code:    http.StatusServiceUnavailable,
		Message: "backend unavailable",
		Errors:  []googleapi.ErrorItem{{Reason: "backendError"}},
	}
	EndSpan(ctx, err)

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	span := spans[0]
	if got, want := span.Name(), "bqrest.tabledata.list"; got != want {
		t.Errorf("name: got %s, want %s", got, want)
	}
	if got, want := span.SpanKind(), trace.SpanKindClient; got != want {
		t.Errorf("kind: got %v, want %v", got, want)
	}
	if got, want := span.Status().Code, otcodes.Error; got != want {
		t.Errorf("status code: got %v, want %v", got, want)
	}
	if got, want := span.Status().Description, "backend unavailable"; got != want {
		t.Errorf("status description: got %q, want %q", got, want)
	}
	wantAttrs := map[string]interface{}{
		"bigquery.project":          "proj",
		"http.response.status_code": int64(503),
		"bigquery.error.reasons":    []string{"backendError"},
	}
	if diff := cmp.Diff(wantAttrs, attrMap(span.Attributes())); diff != "" {
		t.Errorf("span attributes mismatch (-want +got):\n%s", diff)
	}
	if len(span.Events()) != 2 {
		t.Fatalf("got %d events, want 2", len(span.Events()))
	}
	if got, want := span.Events()[0].Name, "retry"; got != want {
		t.Errorf("event name: got %q, want %q", got, want)
	}
	wantEvent := map[string]interface{}{
		"bigquery.retry.attempt": int64(1),
		"bigquery.error.reasons": []string{"backendError"},
	}
	if diff := cmp.Diff(wantEvent, attrMap(span.Events()[0].Attributes)); diff != "" {
		t.Errorf("event attributes mismatch (-want +got):\n%s", diff)
	}
	if got, want := span.Events()[1].Name, "exception"; got != want {
		t.Errorf("event name: got %q, want %q", got, want)
	}
}

func TestEndSpanReasonsFromBody(t *testing.T) {
	rec := testutil.NewSpanRecorder(t)
	err := &googleapi.Error{
		Code: http.StatusForbidden,
		Body: `{"error":{"code":403,"errors":[{"reason":"rateLimitExceeded"}]}}`,
	}
	EndSpan(StartSpan(context.Background(), "bqrest.jobs.get"), err)
	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	want := map[string]interface{}{
		"http.response.status_code": int64(403),
		"bigquery.error.reasons":    []string{"rateLimitExceeded"},
	}
	if diff := cmp.Diff(want, attrMap(spans[0].Attributes())); diff != "" {
		t.Errorf("span attributes mismatch (-want +got):\n%s", diff)
	}
}

func TestEndSpanOK(t *testing.T) {
	ctx := context.Background()
	rec := testutil.NewSpanRecorder(t)

	EndSpan(StartSpan(ctx, "bqrest.datasets.get"), nil)
	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if got := spans[0].Status().Code; got != otcodes.Unset {
		t.Errorf("status code: got %v, want Unset", got)
	}
	if len(spans[0].Events()) != 0 {
		t.Errorf("got events %v, want none", spans[0].Events())
	}
}

func TestToStatus(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want string
	}{
		{errors.New("some random error"), "some random error"},
		{&googleapi.Error{Code: http.StatusConflict, Message: "already exists"}, "already exists"},
		{
			// Wrapped service errors still report the service message.
			errors.Join(errors.New("insert"), &googleapi.Error{Code: http.StatusForbidden, Message: "quota"}),
			"quota",
		},
	} {
		code, got := toStatus(tc.err)
		if code != otcodes.Error {
			t.Errorf("%v: got code %v, want Error", tc.err, code)
		}
		if got != tc.want {
			t.Errorf("%v: got %q, want %q", tc.err, got, tc.want)
		}
	}
}
