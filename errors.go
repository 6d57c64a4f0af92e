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
	"errors"
	"fmt"
	"strings"

	bq "google.golang.org/api/bigquery/v2"
)

// An Error contains detailed information about a failed bigquery operation.
// Detailed description of possible Reasons can be found here:
// https://cloud.google.com/bigquery/troubleshooting-errors.
type Error struct {
	// Mirrors bq.ErrorProto, but drops DebugInfo
	Location, Message, Reason string
}

func (e Error) Error() string {
	return fmt.Sprintf("{Location: %q; Message: %q; Reason: %q}", e.Location, e.Message, e.Reason)
}

func bqToError(ep *bq.ErrorProto) *Error {
	if ep == nil {
		return nil
	}
	return &Error{
		Location: ep.Location,
		Message:  ep.Message,
		Reason:   ep.Reason,
	}
}

// A MultiError contains multiple related errors.
type MultiError []error

func (m MultiError) Error() string {
	switch len(m) {
	case 0:
		return "(0 errors)"
	case 1:
		return m[0].Error()
	case 2:
		return m[0].Error() + " (and 1 other error)"
	}
	return fmt.Sprintf("%s (and %d other errors)", m[0].Error(), len(m)-1)
}

// RowInsertionError contains all errors that occurred when attempting to insert a row.
type RowInsertionError struct {
	InsertID string // The InsertID associated with the affected row.
	RowIndex int    // The 0-based index of the affected row in the batch of rows being inserted.
	Errors   MultiError
}

func (e *RowInsertionError) Error() string {
	errFmt := "insertion of row [insertID: %q; insertIndex: %v] failed with error: %s"
	return fmt.Sprintf(errFmt, e.InsertID, e.RowIndex, e.Errors.Error())
}

// PutMultiError contains an error for each row which was not successfully inserted
// into a BigQuery table.
type PutMultiError []RowInsertionError

func (pme PutMultiError) errorDetails() string {
	size := len(pme)
	ellipsis := ""
	if size == 0 {
		return ""
	} else if size > 3 {
		size = 3
		ellipsis = ", ..."
	}

	es := make([]string, size)
	for i, e := range pme {
		if i >= size {
			break
		}
		es[i] = e.Error()
	}

	return fmt.Sprintf(" (%s%s)", strings.Join(es, ", "), ellipsis)
}

func (pme PutMultiError) Error() string {
	plural := "s"
	if len(pme) == 1 {
		plural = ""
	}

	return fmt.Sprintf("%v row insertion%s failed%s", len(pme), plural, pme.errorDetails())
}

// DecodeError reports a cell that could not be converted to its column's
// declared type, or a row whose shape does not match its schema.
type DecodeError struct {
	Field string      // Column name; empty for a row-level mismatch.
	Type  FieldType   // Declared type of the column.
	Value interface{} // The offending wire value.
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("bqrest: decoding row: %v", e.Err)
	}
	return fmt.Sprintf("bqrest: decoding %s field %q from %#v: %v", e.Type, e.Field, e.Value, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// UnsupportedParameterTypeError is returned when a value cannot be sent as a
// query parameter, including an untyped NULL.
type UnsupportedParameterTypeError struct {
	Value interface{}
}

func (e *UnsupportedParameterTypeError) Error() string {
	if _, ok := e.Value.(NullValue); ok || e.Value == nil {
		return "bqrest: untyped NULL cannot be a query parameter; use TypedNull"
	}
	return fmt.Sprintf("bqrest: unsupported query parameter type %T", e.Value)
}

// DuplicateFieldError is returned when a StructValue being encoded as a
// query parameter or an insert row names the same field twice.
type DuplicateFieldError struct {
	Name string
}

func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("bqrest: struct field %q appears more than once", e.Name)
}

// ErrEmptyArrayParameter is returned for an ARRAY parameter with no elements,
// whose element type cannot be inferred.
var ErrEmptyArrayParameter = errors.New("bqrest: cannot infer the element type of an empty array parameter")

// MixedArrayParameterError is returned when the elements of an ARRAY
// parameter do not share one type.
type MixedArrayParameterError struct {
	Index int    // Index of the first element whose type differs.
	Want  string // Parameter type of element 0.
	Got   string // Parameter type of element Index.
}

func (e *MixedArrayParameterError) Error() string {
	return fmt.Sprintf("bqrest: array parameter element %d has type %s, want %s", e.Index, e.Got, e.Want)
}
