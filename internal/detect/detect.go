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

// Package detect resolves the project a client should bill against.
package detect

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/transport"
)

// ProjectIDSentinel asks ProjectID to look the project up from the environment.
const ProjectIDSentinel = "*detect-project-id*"

// EmulatorHostEnvVar names the variable that points clients at a local
// BigQuery emulator.
const EmulatorHostEnvVar = "BIGQUERY_EMULATOR_HOST"

const emulatedProjectID = "emulated-project"

// credsFn is replaced in tests.
var credsFn = func(ctx context.Context, opts ...option.ClientOption) (*google.Credentials, error) {
	return transport.Creds(ctx, opts...)
}

// ProjectID returns projectID unless it is ProjectIDSentinel, in which case it
// looks, in order, at:
//  1. the GOOGLE_CLOUD_PROJECT environment variable
//  2. the project of the Application Default Credentials
//  3. a fixed project name when EmulatorHostEnvVar is set
func ProjectID(ctx context.Context, projectID string, opts ...option.ClientOption) (string, error) {
	if projectID != ProjectIDSentinel {
		return projectID, nil
	}
	if id := os.Getenv("GOOGLE_CLOUD_PROJECT"); id != "" {
		return id, nil
	}
	creds, err := credsFn(ctx, opts...)
	if err != nil {
		if os.Getenv(EmulatorHostEnvVar) != "" {
			return emulatedProjectID, nil
		}
		return "", fmt.Errorf("fetching creds: %w", err)
	}
	if creds.ProjectID == "" && os.Getenv(EmulatorHostEnvVar) != "" {
		return emulatedProjectID, nil
	}
	if creds.ProjectID == "" {
		return "", errors.New("unable to detect projectID, please refer to docs for DetectProjectID")
	}
	return creds.ProjectID, nil
}
