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

/*
Package bqrest provides a client for the BigQuery REST API.

The following assumes a basic familiarity with BigQuery concepts.
See https://cloud.google.com/bigquery/docs.

# Creating a Client

To start working with this package, create a client:

	ctx := context.Background()
	client, err := bqrest.NewClient(ctx, projectID)
	if err != nil {
		// TODO: Handle error.
	}

# Values

Cells, query parameters and inserted fields are all represented by Value,
a closed set of types such as IntValue, TimestampValue, ArrayValue and
StructValue. ValueOf converts ordinary Go values. DecodeRows turns the rows
of a tabledata.list or jobs.getQueryResults response into StructValues,
EncodeParam turns a Value into a query parameter and EncodeRowForInsert
turns a row into the JSON object used by streaming inserts.

# Querying

To query existing tables, create a Query and call its Read method:

	q := client.Query(`
	    SELECT year, SUM(number) AS total
	    FROM bigquery-public-data.usa_names.usa_1910_2013
	    WHERE name = @name
	    GROUP BY year
	    ORDER BY year
	`)
	q.Parameters = []bqrest.QueryParameter{{Name: "name", Value: "William"}}
	it, err := q.Read(ctx)
	if err != nil {
		// TODO: Handle error.
	}

Then iterate through the resulting rows:

	for {
		row, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			// TODO: Handle error.
		}
		total, _ := row.Get("total")
		fmt.Println(total)
	}

# Inserting

Rows can be streamed into a table with an Inserter:

	ins := client.Dataset("my_dataset").Table("my_table").Inserter()
	row := bqrest.StructValue{
		{Name: "name", Value: bqrest.StringValue("n1")},
		{Name: "count", Value: bqrest.IntValue(7)},
	}
	if err := ins.Put(ctx, row); err != nil {
		// TODO: Handle error.
	}

Each row carries an insert ID, derived from its content unless the
ValueSaver supplies one, so that BigQuery can de-duplicate a retried
request.

# Retries

Idempotent requests (reads, job insertion with a client-generated job ID,
streaming inserts, cancellation and updates guarded by an ETag) are retried
when every error reason the service reports is retryable. By default these
are rateLimitExceeded and backendError, with up to five retries waiting 1s,
2s, 4s, 8s and 16s. Use WithMaxRetries, WithRetryReasons and WithBackoffFunc,
or Client.SetRetry, to change that. Other requests are sent exactly once.

# Errors

Errors from the service are *googleapi.Error values and can be inspected
with errors.As. Rows rejected by a streaming insert are reported in a
PutMultiError. Cells that do not parse as their column type produce a
*DecodeError.
*/
package bqrest // import "cloud.google.com/go/bqrest"
