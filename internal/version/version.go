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

// Package version reports the versions sent in the x-goog-api-client header.
package version

import (
	"runtime"
	"strings"
)

// Repo is the current version of this module.
const Repo = "0.1.0"

// Go returns the Go runtime version without the "go" prefix. Development
// builds, which have no release version, report "devel".
func Go() string {
	v := runtime.Version()
	if !strings.HasPrefix(v, "go") {
		return "devel"
	}
	v = strings.TrimPrefix(v, "go")
	if i := strings.IndexAny(v, " +"); i >= 0 {
		v = v[:i]
	}
	return v
}
