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
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bqrest/internal"
	"github.com/google/uuid"
	gax "github.com/googleapis/gax-go/v2"
	bq "google.golang.org/api/bigquery/v2"
	"google.golang.org/api/iterator"
)

// jobPollBackoff paces Job.Wait and the wait for query results.
var jobPollBackoff = gax.Backoff{
	Initial:    time.Second,
	Max:        60 * time.Second,
	Multiplier: 2,
}

// A Job represents an operation which has been submitted to BigQuery for processing.
type Job struct {
	c          *Client
	projectID  string
	jobID      string
	location   string
	email      string
	config     *bq.JobConfiguration
	lastStatus *JobStatus
}

// JobFromID creates a Job which refers to an existing BigQuery job. The job
// need not have been created by this client.
//
// For jobs whose location is other than "US" or "EU", set Client.Location or
// use JobFromIDLocation.
func (c *Client) JobFromID(ctx context.Context, id string) (*Job, error) {
	return c.JobFromProject(ctx, c.projectID, id, c.Location)
}

// JobFromIDLocation creates a Job which refers to an existing BigQuery job in
// the given location.
func (c *Client) JobFromIDLocation(ctx context.Context, id, location string) (*Job, error) {
	return c.JobFromProject(ctx, c.projectID, id, location)
}

// JobFromProject creates a Job which refers to an existing BigQuery job in
// another project.
func (c *Client) JobFromProject(ctx context.Context, projectID, jobID, location string) (*Job, error) {
	bqjob, err := c.getJobInternal(ctx, projectID, jobID, location)
	if err != nil {
		return nil, err
	}
	return bqToJob(bqjob, c)
}

func (c *Client) getJobInternal(ctx context.Context, projectID, jobID, location string) (*bq.Job, error) {
	var job *bq.Job
	err := c.call(ctx, "bqrest.jobs.get", true, func(ctx context.Context) (err error) {
		call := c.bqs.Jobs.Get(projectID, jobID).Context(ctx)
		if location != "" {
			call = call.Location(location)
		}
		setClientHeader(call.Header())
		job, err = call.Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// ProjectID returns the job's associated project.
func (j *Job) ProjectID() string {
	return j.projectID
}

// ID returns the job's ID.
func (j *Job) ID() string {
	return j.jobID
}

// Location returns the job's location.
func (j *Job) Location() string {
	return j.location
}

// Email returns the email of the job's creator.
func (j *Job) Email() string {
	return j.email
}

// IsQuery reports whether the job runs a query.
func (j *Job) IsQuery() bool {
	return j.config != nil && j.config.Query != nil
}

// LastStatus returns the most recently retrieved status of the job. The status is
// retrieved when a new job is created, or when JobFromID or Job.Status is called.
// Call Job.Status to get the most up-to-date information about a job.
func (j *Job) LastStatus() *JobStatus {
	return j.lastStatus
}

// State is one of a sequence of states that a Job progresses through as it is processed.
type State int

const (
	// StateUnspecified is the default JobIterator state.
	StateUnspecified State = iota
	// Pending is a state that describes that the job is pending.
	Pending
	// Running is a state that describes that the job is running.
	Running
	// Done is a state that describes that the job is done.
	Done
)

func (s State) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Running:
		return "RUNNING"
	case Done:
		return "DONE"
	}
	return "STATE_UNSPECIFIED"
}

var stateMap = map[string]State{"": StateUnspecified, "PENDING": Pending, "RUNNING": Running, "DONE": Done}

// JobStatus contains the current State of a job, and errors encountered while processing that job.
type JobStatus struct {
	State State

	err error

	// All errors encountered during the running of the job.
	// Not all Errors are fatal, so errors here do not necessarily mean that the job has completed or was unsuccessful.
	Errors []*Error

	// Statistics about the job.
	Statistics *JobStatistics
}

// Done reports whether the job has completed.
// After Done returns true, the Err method will return an error if the job completed unsuccessfully.
func (s *JobStatus) Done() bool {
	return s.State == Done
}

// Err returns the error that caused the job to complete unsuccessfully (if any).
func (s *JobStatus) Err() error {
	return s.err
}

// JobStatistics contains statistics about a job.
type JobStatistics struct {
	CreationTime        time.Time
	StartTime           time.Time
	EndTime             time.Time
	TotalBytesProcessed int64
	// For query jobs, whether the results came from the cache.
	CacheHit bool
}

func bqToJobStatistics(s *bq.JobStatistics) *JobStatistics {
	if s == nil {
		return nil
	}
	js := &JobStatistics{
		CreationTime:        unixMillisToTime(s.CreationTime),
		StartTime:           unixMillisToTime(s.StartTime),
		EndTime:             unixMillisToTime(s.EndTime),
		TotalBytesProcessed: s.TotalBytesProcessed,
	}
	if s.Query != nil {
		js.CacheHit = s.Query.CacheHit
	}
	return js
}

func bqToJobStatus(s *bq.JobStatus) (*JobStatus, error) {
	js := &JobStatus{}
	if s == nil {
		return js, nil
	}
	state, ok := stateMap[s.State]
	if !ok {
		return nil, fmt.Errorf("bqrest: unexpected job state: %q", s.State)
	}
	js.State = state
	if s.ErrorResult != nil {
		js.err = bqToError(s.ErrorResult)
	}
	for _, ep := range s.Errors {
		js.Errors = append(js.Errors, bqToError(ep))
	}
	return js, nil
}

// Status retrieves the current status of the job from BigQuery. It fails if the Status could not be determined.
func (j *Job) Status(ctx context.Context) (*JobStatus, error) {
	bqjob, err := j.c.getJobInternal(ctx, j.projectID, j.jobID, j.location)
	if err != nil {
		return nil, err
	}
	if err := j.setFromBQ(bqjob); err != nil {
		return nil, err
	}
	return j.lastStatus, nil
}

// Cancel requests that a job be cancelled. This method returns without waiting for
// cancellation to take effect. To check whether the job has terminated, use Job.Status.
// Cancelled jobs may still incur costs.
func (j *Job) Cancel(ctx context.Context) error {
	return j.c.call(ctx, "bqrest.jobs.cancel", true, func(ctx context.Context) error {
		call := j.c.bqs.Jobs.Cancel(j.projectID, j.jobID).
			Location(j.location).
			Fields(). // We don't need any of the response data.
			Context(ctx)
		setClientHeader(call.Header())
		_, err := call.Do()
		return err
	})
}

// Wait blocks until the job or the context is done. It returns the final status
// of the job.
// If an error occurs while retrieving the status, Wait returns that error. But
// Wait returns nil if the status was retrieved successfully, even if
// status.Err() != nil. So callers must check both errors. See the example.
func (j *Job) Wait(ctx context.Context) (*JobStatus, error) {
	var js *JobStatus
	err := internal.Retry(ctx, internal.BackoffPause(jobPollBackoff), func(int) (stop bool, err error) {
		js, err = j.Status(ctx)
		if err != nil {
			return true, err
		}
		return js.Done(), nil
	})
	if err != nil {
		return nil, err
	}
	j.c.logger.DebugContext(ctx, "BigQuery job done", "job", j.jobID, "failed", js.Err() != nil)
	return js, nil
}

// Read fetches the results of a query job. It waits for the query to finish.
// Read returns an error for jobs that do not run a query.
func (j *Job) Read(ctx context.Context) (*RowIterator, error) {
	if !j.IsQuery() {
		return nil, errors.New("bqrest: cannot read from a non-query job")
	}
	if j.config.DryRun {
		return nil, errors.New("bqrest: cannot read from a dry-run query job")
	}
	return newRowIterator(ctx, j.fetchQueryResults), nil
}

// fetchQueryResults waits for the query to complete and then returns one
// page of its results.
func (j *Job) fetchQueryResults(ctx context.Context, it *RowIterator, pageSize int, pageToken string) (*fetchPageResult, error) {
	var res *bq.GetQueryResultsResponse
	err := internal.Retry(ctx, internal.BackoffPause(jobPollBackoff), func(int) (bool, error) {
		err := j.c.call(ctx, "bqrest.jobs.getQueryResults", true, func(ctx context.Context) (err error) {
			call := j.c.bqs.Jobs.GetQueryResults(j.projectID, j.jobID).Location(j.location).Context(ctx)
			setClientHeader(call.Header())
			if pageToken != "" {
				call = call.PageToken(pageToken)
			} else {
				call = call.StartIndex(it.StartIndex)
			}
			if pageSize > 0 {
				call = call.MaxResults(int64(pageSize))
			}
			res, err = call.Do()
			return err
		})
		if err != nil {
			return true, err
		}
		return res.JobComplete, nil
	})
	if err != nil {
		return nil, err
	}
	schema := bqToSchema(res.Schema)
	rows, err := DecodeRows(res.Rows, schema)
	if err != nil {
		return nil, err
	}
	return &fetchPageResult{
		pageToken: res.PageToken,
		rows:      rows,
		totalRows: uint64(res.TotalRows),
		schema:    schema,
	}, nil
}

func (j *Job) setFromBQ(q *bq.Job) error {
	st, err := bqToJobStatus(q.Status)
	if err != nil {
		return err
	}
	st.Statistics = bqToJobStatistics(q.Statistics)
	j.lastStatus = st
	if q.Configuration != nil {
		j.config = q.Configuration
	}
	j.email = q.UserEmail
	return nil
}

func bqToJob(q *bq.Job, c *Client) (*Job, error) {
	if q.JobReference == nil {
		return nil, errors.New("bqrest: job response has no job reference")
	}
	j := &Job{
		c:         c,
		projectID: q.JobReference.ProjectId,
		jobID:     q.JobReference.JobId,
		location:  q.JobReference.Location,
	}
	if err := j.setFromBQ(q); err != nil {
		return nil, err
	}
	return j, nil
}

// JobIDConfig describes how to create an ID for a job.
type JobIDConfig struct {
	// JobID is the ID to use for the job. If empty, a random job ID will be generated.
	JobID string

	// If AddJobIDSuffix is true, then a random string will be appended to JobID.
	AddJobIDSuffix bool

	// Location is the location for the job.
	Location string

	// ProjectID is the Google Cloud project associated with the job.
	ProjectID string
}

// randomIDFn is replaced in tests.
var randomIDFn = uuid.NewString

// createJobRef creates a JobReference with a client-generated ID so that
// the insert can be retried.
func (j *JobIDConfig) createJobRef(c *Client) *bq.JobReference {
	projectID := j.ProjectID
	if projectID == "" { // Use Client.ProjectID as a default.
		projectID = c.projectID
	}
	loc := j.Location
	if loc == "" { // Use Client.Location as a default.
		loc = c.Location
	}
	jr := &bq.JobReference{ProjectId: projectID, Location: loc}
	switch {
	case j.JobID == "":
		jr.JobId = "job_" + randomIDFn()
	case j.AddJobIDSuffix:
		jr.JobId = j.JobID + "-" + randomIDFn()
	default:
		jr.JobId = j.JobID
	}
	return jr
}

// JobIterator iterates over jobs in a project.
type JobIterator struct {
	ProjectID       string    // Project ID of the jobs to list. Default is the client's project.
	AllUsers        bool      // Whether to list jobs owned by all users in the project, or just the current caller.
	State           State     // List only jobs in the given state. Defaults to all states.
	MinCreationTime time.Time // List only jobs created after this time.

	ctx      context.Context
	c        *Client
	pageInfo *iterator.PageInfo
	nextFunc func() error
	items    []*Job
}

// PageInfo is a getter for the JobIterator's PageInfo.
func (it *JobIterator) PageInfo() *iterator.PageInfo { return it.pageInfo }

// Next returns the next Job. Its second return value is iterator.Done if
// there are no more results. Once Next returns Done, all subsequent calls will
// return Done.
func (it *JobIterator) Next() (*Job, error) {
	if err := it.nextFunc(); err != nil {
		return nil, err
	}
	item := it.items[0]
	it.items = it.items[1:]
	return item, nil
}

// Jobs lists jobs within a project.
func (c *Client) Jobs(ctx context.Context) *JobIterator {
	it := &JobIterator{
		ctx:       ctx,
		c:         c,
		ProjectID: c.projectID,
	}
	it.pageInfo, it.nextFunc = iterator.NewPageInfo(
		it.fetch,
		func() int { return len(it.items) },
		func() interface{} { b := it.items; it.items = nil; return b })
	return it
}

func (it *JobIterator) fetch(pageSize int, pageToken string) (string, error) {
	var res *bq.JobList
	err := it.c.call(it.ctx, "bqrest.jobs.list", true, func(ctx context.Context) (err error) {
		call := it.c.bqs.Jobs.List(it.ProjectID).
			Projection("full").
			AllUsers(it.AllUsers).
			Context(ctx)
		setClientHeader(call.Header())
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		if pageSize > 0 {
			call = call.MaxResults(int64(pageSize))
		}
		if it.State != StateUnspecified {
			call = call.StateFilter(strings.ToLower(it.State.String()))
		}
		if !it.MinCreationTime.IsZero() {
			call = call.MinCreationTime(uint64(it.MinCreationTime.UnixNano() / 1e6))
		}
		res, err = call.Do()
		return err
	})
	if err != nil {
		return "", err
	}
	for _, j := range res.Jobs {
		job, err := convertListedJob(j, it.c)
		if err != nil {
			return "", err
		}
		it.items = append(it.items, job)
	}
	return res.NextPageToken, nil
}

func convertListedJob(j *bq.JobListJobs, c *Client) (*Job, error) {
	return bqToJob(&bq.Job{
		JobReference:  j.JobReference,
		Configuration: j.Configuration,
		Status:        j.Status,
		Statistics:    j.Statistics,
		UserEmail:     j.UserEmail,
	}, c)
}
