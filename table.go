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
	"time"

	"cloud.google.com/go/bqrest/internal/optional"
	"golang.org/x/sync/errgroup"
	bq "google.golang.org/api/bigquery/v2"
)

// A Table is a reference to a BigQuery table.
type Table struct {
	// ProjectID, DatasetID and TableID may be omitted if the Table is the destination for a query.
	// In this case the result will be stored in an ephemeral table.
	ProjectID string
	DatasetID string
	// TableID must contain only letters (a-z, A-Z), numbers (0-9), or underscores (_).
	// The maximum length is 1,024 characters.
	TableID string

	c *Client
}

// TableMetadata contains information about a BigQuery table.
type TableMetadata struct {
	// The following fields can be set when creating a table.

	// The user-friendly name for the table.
	Name string

	// The user-friendly description of the table.
	Description string

	// The table schema. If provided on create, ViewQuery must be empty.
	Schema Schema

	// If non-empty, this table is a view and ViewQuery is its GoogleSQL text.
	ViewQuery string

	// The time when this table expires. If set, this table will expire at the
	// specified time. Expired tables will be deleted and their storage
	// reclaimed. The zero value is ignored.
	ExpirationTime time.Time

	// User-provided labels.
	Labels map[string]string

	// All the fields below are read-only.

	FullID           string // An opaque ID uniquely identifying the table.
	Type             TableType
	CreationTime     time.Time
	LastModifiedTime time.Time

	// The size of the table in bytes.
	// This does not include data that is being buffered during a streaming insert.
	NumBytes int64

	// The number of rows of data in this table.
	// This does not include data that is being buffered during a streaming insert.
	NumRows uint64

	// The geographic location of the table.
	Location string

	// ETag is the ETag obtained when reading metadata. Pass it to Table.Update to
	// ensure that the metadata hasn't changed since it was read.
	ETag string
}

// TableType is the type of table.
type TableType string

const (
	// RegularTable is a regular table.
	RegularTable TableType = "TABLE"
	// ViewTable is a table type describing that the table is a logical view.
	ViewTable TableType = "VIEW"
	// ExternalTable is a table type describing that the table is an external
	// table (also known as a federated data source).
	ExternalTable TableType = "EXTERNAL"
)

// TableCreateDisposition specifies the circumstances under which destination table will be created.
// Default is CreateIfNeeded.
type TableCreateDisposition string

const (
	// CreateIfNeeded will create the table if it does not already exist.
	// Tables are created atomically on successful completion of a job.
	CreateIfNeeded TableCreateDisposition = "CREATE_IF_NEEDED"

	// CreateNever ensures the table must already exist and will not be
	// automatically created.
	CreateNever TableCreateDisposition = "CREATE_NEVER"
)

// TableWriteDisposition specifies how existing data in a destination table is treated.
// Default is WriteAppend.
type TableWriteDisposition string

const (
	// WriteAppend will append to any existing data in the destination table.
	// Data is appended atomically on successful completion of a job.
	WriteAppend TableWriteDisposition = "WRITE_APPEND"

	// WriteTruncate overrides the existing data in the destination table.
	// Data is overwritten atomically on successful completion of a job.
	WriteTruncate TableWriteDisposition = "WRITE_TRUNCATE"

	// WriteEmpty fails writes if the destination table already contains data.
	WriteEmpty TableWriteDisposition = "WRITE_EMPTY"
)

// FullyQualifiedName returns the ID of the table in projectID:datasetID.tableID format.
func (t *Table) FullyQualifiedName() string {
	return fmt.Sprintf("%s:%s.%s", t.ProjectID, t.DatasetID, t.TableID)
}

// implicitTable reports whether Table is an empty placeholder, which signifies that a new table should be created with an auto-generated Table ID.
func (t *Table) implicitTable() bool {
	return t.ProjectID == "" && t.DatasetID == "" && t.TableID == ""
}

func (t *Table) toBQ() *bq.TableReference {
	return &bq.TableReference{
		ProjectId: t.ProjectID,
		DatasetId: t.DatasetID,
		TableId:   t.TableID,
	}
}

func bqToTable(tr *bq.TableReference, c *Client) *Table {
	if tr == nil {
		return nil
	}
	return &Table{
		ProjectID: tr.ProjectId,
		DatasetID: tr.DatasetId,
		TableID:   tr.TableId,
		c:         c,
	}
}

// Create creates a table in the BigQuery service.
// Pass in a TableMetadata value to configure the table.
// If tm.View.Query is non-empty, the created table will be of type VIEW.
// If no ExpirationTime is specified, the table will never expire.
// After table creation, a view can be modified only if its table was initially created
// with a view.
func (t *Table) Create(ctx context.Context, tm *TableMetadata) error {
	table, err := tm.toBQ()
	if err != nil {
		return err
	}
	table.TableReference = t.toBQ()
	// Not idempotent: a retry after a lost response would report a conflict.
	return t.c.call(ctx, "bqrest.tables.insert", false, func(ctx context.Context) error {
		req := t.c.bqs.Tables.Insert(t.ProjectID, t.DatasetID, table).Context(ctx)
		setClientHeader(req.Header())
		_, err := req.Do()
		return err
	})
}

func (tm *TableMetadata) toBQ() (*bq.Table, error) {
	t := &bq.Table{}
	if tm == nil {
		return t, nil
	}
	if tm.Schema != nil && tm.ViewQuery != "" {
		return nil, errors.New("bqrest: provide Schema or ViewQuery, not both")
	}
	if tm.Schema != nil {
		if err := tm.Schema.Validate(); err != nil {
			return nil, err
		}
		t.Schema = tm.Schema.toBQ()
	}
	t.FriendlyName = tm.Name
	t.Description = tm.Description
	t.Labels = tm.Labels
	if tm.ViewQuery != "" {
		t.View = &bq.ViewDefinition{Query: tm.ViewQuery}
		t.View.UseLegacySql = false
		t.View.ForceSendFields = append(t.View.ForceSendFields, "UseLegacySql")
	}
	if !tm.ExpirationTime.IsZero() {
		t.ExpirationTime = tm.ExpirationTime.UnixNano() / 1e6
	}
	if tm.FullID != "" {
		return nil, errors.New("bqrest: TableMetadata.FullID is not writable")
	}
	if tm.Type != "" {
		return nil, errors.New("bqrest: TableMetadata.Type is not writable")
	}
	if !tm.CreationTime.IsZero() {
		return nil, errors.New("bqrest: TableMetadata.CreationTime is not writable")
	}
	if !tm.LastModifiedTime.IsZero() {
		return nil, errors.New("bqrest: TableMetadata.LastModifiedTime is not writable")
	}
	if tm.NumBytes != 0 {
		return nil, errors.New("bqrest: TableMetadata.NumBytes is not writable")
	}
	if tm.NumRows != 0 {
		return nil, errors.New("bqrest: TableMetadata.NumRows is not writable")
	}
	if tm.ETag != "" {
		return nil, errors.New("bqrest: TableMetadata.ETag is not writable")
	}
	return t, nil
}

// Metadata fetches the metadata for the table.
func (t *Table) Metadata(ctx context.Context) (*TableMetadata, error) {
	var table *bq.Table
	err := t.c.call(ctx, "bqrest.tables.get", true, func(ctx context.Context) (err error) {
		req := t.c.bqs.Tables.Get(t.ProjectID, t.DatasetID, t.TableID).Context(ctx)
		setClientHeader(req.Header())
		table, err = req.Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return bqToTableMetadata(table), nil
}

func bqToTableMetadata(t *bq.Table) *TableMetadata {
	md := &TableMetadata{
		Description:      t.Description,
		Name:             t.FriendlyName,
		Type:             TableType(t.Type),
		FullID:           t.Id,
		Labels:           t.Labels,
		NumBytes:         t.NumBytes,
		NumRows:          t.NumRows,
		ExpirationTime:   unixMillisToTime(t.ExpirationTime),
		CreationTime:     unixMillisToTime(t.CreationTime),
		LastModifiedTime: unixMillisToTime(int64(t.LastModifiedTime)),
		Schema:           bqToSchema(t.Schema),
		Location:         t.Location,
		ETag:             t.Etag,
	}
	if t.View != nil {
		md.ViewQuery = t.View.Query
	}
	return md
}

// Delete deletes the table.
func (t *Table) Delete(ctx context.Context) error {
	// Not idempotent: a retry after a lost response would report not found.
	return t.c.call(ctx, "bqrest.tables.delete", false, func(ctx context.Context) error {
		call := t.c.bqs.Tables.Delete(t.ProjectID, t.DatasetID, t.TableID).Context(ctx)
		setClientHeader(call.Header())
		return call.Do()
	})
}

// TableMetadataToUpdate is used when updating a table's metadata.
// Only non-nil fields will be updated.
type TableMetadataToUpdate struct {
	// The user-friendly description of this table.
	Description optional.String

	// The user-friendly name for this table.
	Name optional.String

	// The table's schema.
	// When updating a schema, you can add columns but not remove them.
	Schema Schema

	// The time when this table expires. To remove a table's expiration,
	// set ExpirationTime to NeverExpire. The zero value is ignored.
	ExpirationTime time.Time

	setLabels    map[string]string
	deleteLabels map[string]bool
}

// NeverExpire is a sentinel value used to remove a table's expiration time.
var NeverExpire = time.Time{}.Add(-1)

// SetLabel causes a label to be added or modified when tm is used
// in a call to Table.Update.
func (tm *TableMetadataToUpdate) SetLabel(name, value string) {
	if tm.setLabels == nil {
		tm.setLabels = map[string]string{}
	}
	tm.setLabels[name] = value
}

// DeleteLabel causes a label to be deleted when tm is used in a
// call to Table.Update.
func (tm *TableMetadataToUpdate) DeleteLabel(name string) {
	if tm.deleteLabels == nil {
		tm.deleteLabels = map[string]bool{}
	}
	tm.deleteLabels[name] = true
}

func (tm *TableMetadataToUpdate) toBQ() (*bq.Table, error) {
	t := &bq.Table{}
	forceSend := func(field string) {
		t.ForceSendFields = append(t.ForceSendFields, field)
	}

	if tm.Description != nil {
		t.Description = optional.To[string](tm.Description)
		forceSend("Description")
	}
	if tm.Name != nil {
		t.FriendlyName = optional.To[string](tm.Name)
		forceSend("FriendlyName")
	}
	if tm.Schema != nil {
		if err := tm.Schema.Validate(); err != nil {
			return nil, err
		}
		t.Schema = tm.Schema.toBQ()
		forceSend("Schema")
	}
	if tm.ExpirationTime == NeverExpire {
		t.NullFields = append(t.NullFields, "ExpirationTime")
	} else if !tm.ExpirationTime.IsZero() {
		t.ExpirationTime = tm.ExpirationTime.UnixNano() / 1e6
		forceSend("ExpirationTime")
	}
	if tm.setLabels != nil || tm.deleteLabels != nil {
		t.Labels = map[string]string{}
		for k, v := range tm.setLabels {
			t.Labels[k] = v
		}
		if len(t.Labels) == 0 && len(tm.deleteLabels) > 0 {
			forceSend("Labels")
		}
		for l := range tm.deleteLabels {
			t.NullFields = append(t.NullFields, "Labels."+l)
		}
	}
	return t, nil
}

// Update modifies specific Table metadata fields.
// To perform a read-modify-write that protects against intervening reads,
// set the etag argument to the TableMetadata.ETag field from the read.
// Pass the empty string for etag for a "blind write" that will always succeed.
// Only an update guarded by an etag is retried.
func (t *Table) Update(ctx context.Context, tm TableMetadataToUpdate, etag string) (*TableMetadata, error) {
	bqt, err := tm.toBQ()
	if err != nil {
		return nil, err
	}
	var res *bq.Table
	err = t.c.call(ctx, "bqrest.tables.patch", etag != "", func(ctx context.Context) (err error) {
		call := t.c.bqs.Tables.Patch(t.ProjectID, t.DatasetID, t.TableID, bqt).Context(ctx)
		setClientHeader(call.Header())
		if etag != "" {
			call.Header().Set("If-Match", etag)
		}
		res, err = call.Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return bqToTableMetadata(res), nil
}

// Read fetches the contents of the table.
func (t *Table) Read(ctx context.Context) *RowIterator {
	return newRowIterator(ctx, t.fetchPage)
}

// fetchPage reads one page of table data. On the first page it fetches the
// table's schema concurrently with the data.
func (t *Table) fetchPage(ctx context.Context, it *RowIterator, pageSize int, pageToken string) (*fetchPageResult, error) {
	schema := it.Schema
	var res *bq.TableDataList
	g, gctx := errgroup.WithContext(ctx)
	if schema == nil {
		g.Go(func() error {
			md, err := t.Metadata(gctx)
			if err != nil {
				return err
			}
			schema = md.Schema
			return nil
		})
	}
	g.Go(func() error {
		return t.c.call(gctx, "bqrest.tabledata.list", true, func(ctx context.Context) (err error) {
			call := t.c.bqs.Tabledata.List(t.ProjectID, t.DatasetID, t.TableID).Context(ctx)
			setClientHeader(call.Header())
			if pageToken != "" {
				call.PageToken(pageToken)
			} else {
				call.StartIndex(it.StartIndex)
			}
			if pageSize > 0 {
				call.MaxResults(int64(pageSize))
			}
			res, err = call.Do()
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
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
