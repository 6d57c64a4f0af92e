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

// Package testutil contains helper functions for writing tests.
package testutil

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// SpanRecorder captures the spans ended while a test runs.
type SpanRecorder struct {
	rec *tracetest.SpanRecorder
}

// NewSpanRecorder installs an always-sampling global TracerProvider that
// records into the returned SpanRecorder. The previous provider is
// restored when t finishes.
func NewSpanRecorder(t testing.TB) *SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(rec),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		tp.Shutdown(context.Background())
	})
	return &SpanRecorder{rec: rec}
}

// Ended returns the ended spans in end order.
func (r *SpanRecorder) Ended() []sdktrace.ReadOnlySpan {
	return r.rec.Ended()
}

// Names returns the names of the ended spans in end order.
func (r *SpanRecorder) Names() []string {
	var names []string
	for _, s := range r.rec.Ended() {
		names = append(names, s.Name())
	}
	return names
}
