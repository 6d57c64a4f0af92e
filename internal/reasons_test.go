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
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/api/googleapi"
)

func TestErrorReasons(t *testing.T) {
	for _, test := range []struct {
		err  error
		want []string
	}{
		{nil, nil},
		{errors.New("boom"), nil},
		{&googleapi.Error{Code: 500}, nil},
		{
			&googleapi.Error{Errors: []googleapi.ErrorItem{{Reason: "backendError"}, {Reason: "invalid"}}},
			[]string{"backendError", "invalid"},
		},
		{
			&googleapi.Error{Body: `{"error":{"errors":[{"reason":"rateLimitExceeded"}]}}`},
			[]string{"rateLimitExceeded"},
		},
		{
			// Structured items win over the body.
			&googleapi.Error{
				Errors: []googleapi.ErrorItem{{Reason: "internalError"}},
				Body:   `{"error":{"errors":[{"reason":"backendError"}]}}`,
			},
			[]string{"internalError"},
		},
		{&googleapi.Error{Body: "<html>bad gateway</html>"}, nil},
		{
			fmt.Errorf("wrapped: %w", &googleapi.Error{Errors: []googleapi.ErrorItem{{Reason: "backendError"}}}),
			[]string{"backendError"},
		},
	} {
		got := ErrorReasons(test.err)
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("ErrorReasons(%v) mismatch (-want +got):\n%s", test.err, diff)
		}
	}
}
