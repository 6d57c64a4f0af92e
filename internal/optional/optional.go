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

// Package optional provides the field types of the metadata update
// structs. A nil field leaves the server-side value unchanged.
package optional

import "fmt"

type (
	// String is either a string or nil.
	String interface{}

	// Duration is either a time.Duration or nil.
	Duration interface{}
)

// To returns v as a T. It panics if v is nil or holds another type.
func To[T any](v interface{}) T {
	x, ok := v.(T)
	if !ok {
		panic(fmt.Sprintf("optional: value should be %T, got %T", x, v))
	}
	return x
}
