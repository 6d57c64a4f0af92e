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
	"crypto/md5"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	bq "google.golang.org/api/bigquery/v2"
)

// A ValueSaver returns a row to be inserted by Inserter.Put.
type ValueSaver interface {
	// Save returns a row to be inserted into a BigQuery table.
	//
	// If insertID is non-empty, BigQuery will use it to de-duplicate
	// insertions of this row on a best-effort basis. When insertID is
	// empty the Inserter derives one from the row's content.
	Save() (row StructValue, insertID string, err error)
}

// StructSaver implements ValueSaver for a StructValue with an optional
// InsertID.
type StructSaver struct {
	Row StructValue

	// If non-empty, BigQuery will use InsertID to de-duplicate insertions
	// of this row on a best-effort basis.
	InsertID string
}

// Save implements ValueSaver.
func (ss *StructSaver) Save() (StructValue, string, error) {
	return ss.Row, ss.InsertID, nil
}

// An Inserter does streaming inserts into a BigQuery table.
// It is safe for concurrent use.
type Inserter struct {
	t *Table

	// SkipInvalidRows causes rows containing invalid data to be silently
	// ignored. The default value is false, which causes the entire request to
	// fail if there is an attempt to insert an invalid row.
	SkipInvalidRows bool

	// IgnoreUnknownValues causes values not matching the schema to be ignored.
	// The default value is false, which causes records containing such values
	// to be treated as invalid records.
	IgnoreUnknownValues bool
}

// Inserter returns an Inserter that can be used to append rows to t.
// The returned Inserter may optionally be further configured before its Put method is called.
func (t *Table) Inserter() *Inserter {
	return &Inserter{t: t}
}

// Put uploads one or more rows to the BigQuery service.
//
// src may be one of:
//   - a StructValue
//   - a []StructValue
//   - a ValueSaver
//   - a []ValueSaver
//
// Every row is sent with an insert ID, so Put retries like any idempotent
// call. Rows the service rejects are reported in a PutMultiError.
func (u *Inserter) Put(ctx context.Context, src interface{}) error {
	savers, err := valueSavers(src)
	if err != nil {
		return err
	}
	return u.putMulti(ctx, savers)
}

func valueSavers(src interface{}) ([]ValueSaver, error) {
	switch src := src.(type) {
	case StructValue:
		return []ValueSaver{&StructSaver{Row: src}}, nil
	case []StructValue:
		savers := make([]ValueSaver, len(src))
		for i, row := range src {
			savers[i] = &StructSaver{Row: row}
		}
		return savers, nil
	case ValueSaver:
		return []ValueSaver{src}, nil
	case []ValueSaver:
		return src, nil
	case nil:
		return nil, errors.New("bqrest: nil passed to Inserter.Put")
	}
	return nil, fmt.Errorf("bqrest: %T cannot be passed to Inserter.Put", src)
}

func (u *Inserter) putMulti(ctx context.Context, src []ValueSaver) error {
	req, err := u.newInsertRequest(src)
	if err != nil {
		return err
	}
	if req == nil {
		return nil
	}
	var res *bq.TableDataInsertAllResponse
	t := u.t
	t.c.logger.DebugContext(ctx, "inserting rows", "table", t.FullyQualifiedName(), "rows", len(req.Rows))
	err = t.c.call(ctx, "bqrest.tabledata.insertAll", true, func(ctx context.Context) (err error) {
		call := t.c.bqs.Tabledata.InsertAll(t.ProjectID, t.DatasetID, t.TableID, req).Context(ctx)
		setClientHeader(call.Header())
		res, err = call.Do()
		return err
	})
	if err != nil {
		return err
	}
	return handleInsertErrors(res.InsertErrors, req.Rows)
}

func (u *Inserter) newInsertRequest(savers []ValueSaver) (*bq.TableDataInsertAllRequest, error) {
	if len(savers) == 0 { // If there are no rows, do nothing.
		return nil, nil
	}
	req := &bq.TableDataInsertAllRequest{
		SkipInvalidRows:     u.SkipInvalidRows,
		IgnoreUnknownValues: u.IgnoreUnknownValues,
	}
	for _, saver := range savers {
		row, insertID, err := saver.Save()
		if err != nil {
			return nil, err
		}
		m, err := EncodeRowForInsert(row)
		if err != nil {
			return nil, err
		}
		if insertID == "" {
			insertID, err = contentInsertID(m)
			if err != nil {
				return nil, err
			}
		}
		req.Rows = append(req.Rows, &bq.TableDataInsertAllRequestRows{
			InsertId: insertID,
			Json:     m,
		})
	}
	return req, nil
}

// contentInsertID derives a row's insert ID from the MD5 digest of its JSON
// encoding, so that resending the same row is de-duplicated.
func contentInsertID(m map[string]bq.JsonValue) (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	sum := md5.Sum(b)
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}

func handleInsertErrors(ierrs []*bq.TableDataInsertAllResponseInsertErrors, rows []*bq.TableDataInsertAllRequestRows) error {
	if len(ierrs) == 0 {
		return nil
	}
	var errs PutMultiError
	for _, e := range ierrs {
		if int(e.Index) >= len(rows) {
			return fmt.Errorf("internal error: unexpected row index: %v", e.Index)
		}
		rie := RowInsertionError{
			InsertID: rows[e.Index].InsertId,
			RowIndex: int(e.Index),
		}
		for _, errp := range e.Errors {
			rie.Errors = append(rie.Errors, bqToError(errp))
		}
		errs = append(errs, rie)
	}
	return errs
}

// EncodeRowForInsert converts a row to the JSON object tabledata.insertAll
// expects. DATETIME, DATE, TIMESTAMP and TIME values become strings in the
// formats query parameters use, BYTES become base64, arrays and structs are
// converted recursively and NULLs become JSON null. Other values keep their
// natural JSON encoding.
func EncodeRowForInsert(row StructValue) (map[string]bq.JsonValue, error) {
	m := make(map[string]bq.JsonValue, len(row))
	for _, f := range row {
		if _, ok := m[f.Name]; ok {
			return nil, &DuplicateFieldError{Name: f.Name}
		}
		v, err := encodeJSONValue(f.Value)
		if err != nil {
			return nil, fmt.Errorf("bqrest: field %q: %w", f.Name, err)
		}
		m[f.Name] = v
	}
	return m, nil
}

var errNilReader = errors.New("ReaderValue has a nil reader")

func encodeJSONValue(v Value) (bq.JsonValue, error) {
	switch v := v.(type) {
	case nil, NullValue, TypedNull:
		return nil, nil
	case StringValue:
		return string(v), nil
	case IntValue:
		return int64(v), nil
	case FloatValue:
		return float64(v), nil
	case BoolValue:
		return bool(v), nil
	case BytesValue:
		return base64.StdEncoding.EncodeToString(v), nil
	case ReaderValue:
		if v.R == nil {
			return nil, errNilReader
		}
		b, err := readFromStart(v.R)
		if err != nil {
			return nil, err
		}
		return base64.StdEncoding.EncodeToString(b), nil
	case DateValue:
		return civil.Date(v).String(), nil
	case DateTimeValue:
		return formatDateTime(civil.DateTime(v)), nil
	case TimeValue:
		return string(v), nil
	case TimestampValue:
		return time.Time(v).Format(timestampFormat), nil
	case ArrayValue:
		arr := make([]bq.JsonValue, len(v))
		for i, e := range v {
			ev, err := encodeJSONValue(e)
			if err != nil {
				return nil, err
			}
			arr[i] = ev
		}
		return arr, nil
	case StructValue:
		return EncodeRowForInsert(v)
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}
