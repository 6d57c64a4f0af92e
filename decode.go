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
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	bq "google.golang.org/api/bigquery/v2"
)

// Accepts either 'T' or ' ' between date and time; see parseDateTime.
const dateTimeParseLayout = "2006-01-02T15:04:05.999999999"

// DecodeRows converts rows returned by tabledata.list or
// jobs.getQueryResults into StructValues ordered by schema.
func DecodeRows(rows []*bq.TableRow, schema Schema) ([]StructValue, error) {
	out := make([]StructValue, 0, len(rows))
	for _, r := range rows {
		row, err := DecodeRow(r, schema)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

// DecodeRow converts one row. The row must have exactly one cell per schema
// field.
func DecodeRow(r *bq.TableRow, schema Schema) (StructValue, error) {
	var cells []*bq.TableCell
	if r != nil {
		cells = r.F
	}
	return decodeCells(cells, schema)
}

func decodeCells(cells []*bq.TableCell, schema Schema) (StructValue, error) {
	if len(cells) != len(schema) {
		return nil, &DecodeError{
			Value: len(cells),
			Err:   fmt.Errorf("row has %d cells but schema has %d fields", len(cells), len(schema)),
		}
	}
	row := make(StructValue, len(schema))
	for i, fs := range schema {
		var v interface{}
		if cells[i] != nil {
			v = cells[i].V
		}
		val, err := DecodeValue(v, fs)
		if err != nil {
			return nil, err
		}
		row[i] = StructField{Name: fs.Name, Value: val}
	}
	return row, nil
}

// DecodeValue converts the JSON value of a single cell to a Value of the
// field's type. Repeated fields arrive as lists of {"v": x} cells and records
// as {"f": [...]} objects; both are decoded recursively. Types this package
// does not know are returned as StringValue.
func DecodeValue(v interface{}, fs *FieldSchema) (Value, error) {
	switch v := v.(type) {
	case nil:
		return NullValue{}, nil
	case []interface{}:
		arr := make(ArrayValue, 0, len(v))
		for _, e := range v {
			ev, err := DecodeValue(cellValue(e), fs)
			if err != nil {
				return nil, err
			}
			arr = append(arr, ev)
		}
		return arr, nil
	case map[string]interface{}:
		if len(v) == 0 {
			return NullValue{}, nil
		}
		cells, err := recordCells(v)
		if err != nil {
			return nil, decodeErr(fs, v, err)
		}
		return decodeCells(cells, fs.Schema)
	case string:
		return decodeScalar(v, fs)
	default:
		return nil, decodeErr(fs, v, fmt.Errorf("unexpected JSON value of type %T", v))
	}
}

// cellValue unwraps a {"v": x} cell.
func cellValue(e interface{}) interface{} {
	if m, ok := e.(map[string]interface{}); ok {
		if v, ok := m["v"]; ok {
			return v
		}
	}
	return e
}

var errNoRecordFields = errors.New(`record has no "f" list`)

func recordCells(m map[string]interface{}) ([]*bq.TableCell, error) {
	raw, ok := m["f"]
	if !ok {
		return nil, errNoRecordFields
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf(`record "f" is %T, want a list`, raw)
	}
	cells := make([]*bq.TableCell, len(list))
	for i, c := range list {
		cells[i] = &bq.TableCell{V: cellValue(c)}
	}
	return cells, nil
}

func decodeScalar(s string, fs *FieldSchema) (Value, error) {
	switch fs.Type.canonical() {
	case StringFieldType:
		return StringValue(s), nil
	case IntegerFieldType:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, decodeErr(fs, s, err)
		}
		return IntValue(i), nil
	case FloatFieldType:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, decodeErr(fs, s, err)
		}
		return FloatValue(f), nil
	case BooleanFieldType:
		switch s {
		case "true":
			return BoolValue(true), nil
		case "false":
			return BoolValue(false), nil
		}
		return NullValue{}, nil
	case BytesFieldType:
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, decodeErr(fs, s, err)
		}
		return BytesValue(b), nil
	case TimestampFieldType:
		t, err := parseTimestamp(s)
		if err != nil {
			return nil, decodeErr(fs, s, err)
		}
		return TimestampValue(t), nil
	case DateFieldType:
		d, err := civil.ParseDate(s)
		if err != nil {
			return nil, decodeErr(fs, s, err)
		}
		return DateValue(d), nil
	case DateTimeFieldType:
		dt, err := parseDateTime(s)
		if err != nil {
			return nil, decodeErr(fs, s, err)
		}
		return DateTimeValue(dt), nil
	case TimeFieldType:
		return TimeValue(s), nil
	default:
		// NUMERIC, BIGNUMERIC, GEOGRAPHY, JSON and types added to the
		// service later keep their wire text.
		return StringValue(s), nil
	}
}

func decodeErr(fs *FieldSchema, v interface{}, err error) *DecodeError {
	return &DecodeError{Field: fs.Name, Type: fs.Type, Value: v, Err: err}
}

// parseTimestamp converts epoch seconds, possibly fractional or in exponent
// form such as "1.6094592E9", to a UTC time without going through float64.
func parseTimestamp(s string) (time.Time, error) {
	if s == "" || strings.TrimLeft(s, "0123456789+-.eE") != "" {
		return time.Time{}, fmt.Errorf("invalid epoch seconds %q", s)
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid epoch seconds %q", s)
	}
	sec, rem := new(big.Int).DivMod(r.Num(), r.Denom(), new(big.Int))
	if !sec.IsInt64() {
		return time.Time{}, fmt.Errorf("epoch seconds %q out of range", s)
	}
	nsec := rem.Mul(rem, big.NewInt(int64(time.Second)))
	nsec.Quo(nsec, r.Denom())
	return time.Unix(sec.Int64(), nsec.Int64()).UTC(), nil
}

func parseDateTime(s string) (civil.DateTime, error) {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		s = s[:i] + "T" + s[i+1:]
	}
	t, err := time.ParseInLocation(dateTimeParseLayout, s, time.UTC)
	if err != nil {
		return civil.DateTime{}, err
	}
	return civil.DateTimeOf(t), nil
}
