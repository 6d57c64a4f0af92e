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

	bq "google.golang.org/api/bigquery/v2"
)

// LoadConfig holds the configuration for a load job.
type LoadConfig struct {
	// Src is the source from which data will be loaded.
	Src *GCSReference

	// Dst is the table into which the data will be loaded.
	Dst *Table

	// CreateDisposition specifies the circumstances under which the destination table will be created.
	// The default is CreateIfNeeded.
	CreateDisposition TableCreateDisposition

	// WriteDisposition specifies how existing data in the destination table is treated.
	// The default is WriteAppend.
	WriteDisposition TableWriteDisposition

	// The labels associated with this job.
	Labels map[string]string
}

func (l *LoadConfig) toBQ() (*bq.JobConfiguration, error) {
	load := &bq.JobConfigurationLoad{
		CreateDisposition: string(l.CreateDisposition),
		WriteDisposition:  string(l.WriteDisposition),
		DestinationTable:  l.Dst.toBQ(),
		SourceUris:        append([]string{}, l.Src.URIs...),
		SourceFormat:      string(l.Src.SourceFormat),
		FieldDelimiter:    l.Src.FieldDelimiter,
		SkipLeadingRows:   l.Src.SkipLeadingRows,
		Autodetect:        l.Src.AutoDetect,
	}
	if l.Src.Schema != nil {
		if err := l.Src.Schema.Validate(); err != nil {
			return nil, err
		}
		load.Schema = l.Src.Schema.toBQ()
	}
	return &bq.JobConfiguration{
		Labels: l.Labels,
		Load:   load,
	}, nil
}

// A Loader loads data from Google Cloud Storage into a BigQuery table.
type Loader struct {
	JobIDConfig
	LoadConfig
	c *Client
}

// LoaderFrom returns a Loader which can be used to load data into a BigQuery table.
// The returned Loader may optionally be further configured before its Run method is called.
func (t *Table) LoaderFrom(src *GCSReference) *Loader {
	return &Loader{
		c: t.c,
		LoadConfig: LoadConfig{
			Src: src,
			Dst: t,
		},
	}
}

// Run initiates a load job.
func (l *Loader) Run(ctx context.Context) (*Job, error) {
	job, err := l.newJob()
	if err != nil {
		return nil, err
	}
	return l.c.insertJob(ctx, job)
}

func (l *Loader) newJob() (*bq.Job, error) {
	config, err := l.LoadConfig.toBQ()
	if err != nil {
		return nil, err
	}
	return &bq.Job{
		JobReference:  l.JobIDConfig.createJobRef(l.c),
		Configuration: config,
	}, nil
}
