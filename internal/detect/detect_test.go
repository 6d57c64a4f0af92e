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

package detect

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

func TestProjectID(t *testing.T) {
	ctx := context.Background()
	origCreds := credsFn
	t.Cleanup(func() { credsFn = origCreds })

	tests := []struct {
		name      string
		projectID string
		env       map[string]string
		creds     *google.Credentials
		credsErr  error
		want      string
		wantErr   bool
	}{
		{
			name:      "explicit project",
			projectID: "my-project",
			want:      "my-project",
		},
		{
			name:      "environment variable",
			projectID: ProjectIDSentinel,
			env:       map[string]string{"GOOGLE_CLOUD_PROJECT": "env-project"},
			want:      "env-project",
		},
		{
			name:      "default credentials",
			projectID: ProjectIDSentinel,
			creds:     &google.Credentials{ProjectID: "adc-project"},
			want:      "adc-project",
		},
		{
			name:      "emulator without credentials",
			projectID: ProjectIDSentinel,
			env:       map[string]string{EmulatorHostEnvVar: "localhost:9050"},
			credsErr:  errors.New("no credentials"),
			want:      emulatedProjectID,
		},
		{
			name:      "credentials without project",
			projectID: ProjectIDSentinel,
			creds:     &google.Credentials{},
			wantErr:   true,
		},
		{
			name:      "no credentials",
			projectID: ProjectIDSentinel,
			credsErr:  errors.New("no credentials"),
			wantErr:   true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("GOOGLE_CLOUD_PROJECT", "")
			t.Setenv(EmulatorHostEnvVar, "")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			credsFn = func(context.Context, ...option.ClientOption) (*google.Credentials, error) {
				return tc.creds, tc.credsErr
			}
			got, err := ProjectID(ctx, tc.projectID)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("got %q, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}
