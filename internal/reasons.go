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
	"encoding/json"
	"errors"

	"google.golang.org/api/googleapi"
)

// ErrorReasons returns the reason codes of the *googleapi.Error in err's
// chain, taken from its structured error items or, when those are missing,
// from the JSON response body. It returns nil for other errors and for
// bodies that do not parse.
func ErrorReasons(err error) []string {
	var e *googleapi.Error
	if !errors.As(err, &e) {
		return nil
	}
	if len(e.Errors) > 0 {
		reasons := make([]string, len(e.Errors))
		for i, item := range e.Errors {
			reasons[i] = item.Reason
		}
		return reasons
	}
	if e.Body == "" {
		return nil
	}
	var body struct {
		Error struct {
			Errors []struct {
				Reason string `json:"reason"`
			} `json:"errors"`
		} `json:"error"`
	}
	if json.Unmarshal([]byte(e.Body), &body) != nil {
		return nil
	}
	var reasons []string
	for _, item := range body.Error.Errors {
		reasons = append(reasons, item.Reason)
	}
	return reasons
}
