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
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/go-cmp/cmp"
	bq "google.golang.org/api/bigquery/v2"
)

// valueCmp compares Values; TimestampValue has no Equal method of its own.
var valueCmp = cmp.Comparer(func(a, b TimestampValue) bool {
	return time.Time(a).Equal(time.Time(b))
})

func cells(vs ...interface{}) *bq.TableRow {
	row := &bq.TableRow{}
	for _, v := range vs {
		row.F = append(row.F, &bq.TableCell{V: v})
	}
	return row
}

func vcell(v interface{}) map[string]interface{} {
	return map[string]interface{}{"v": v}
}

func record(vs ...interface{}) map[string]interface{} {
	var f []interface{}
	for _, v := range vs {
		f = append(f, vcell(v))
	}
	return map[string]interface{}{"f": f}
}

func TestDecodeScalars(t *testing.T) {
	schema := Schema{
		{Name: "s", Type: StringFieldType},
		{Name: "i", Type: IntegerFieldType},
		{Name: "f", Type: FloatFieldType},
		{Name: "b", Type: BooleanFieldType},
		{Name: "by", Type: BytesFieldType},
		{Name: "ts", Type: TimestampFieldType},
		{Name: "d", Type: DateFieldType},
		{Name: "t", Type: TimeFieldType},
		{Name: "dt", Type: DateTimeFieldType},
		{Name: "n", Type: NumericFieldType},
		{Name: "g", Type: GeographyFieldType},
		{Name: "i64", Type: "INT64"},
		{Name: "future", Type: "SOME_NEW_TYPE"},
	}
	row := cells("a", "42", "3.5", "true", "Zm9v", "1.6094592E9", "2021-01-01",
		"12:34:56.789", "2021-01-01 12:00:00.5", "123.456", "POINT(1 2)", "-7", "opaque")
	got, err := DecodeRow(row, schema)
	if err != nil {
		t.Fatal(err)
	}
	want := StructValue{
		{Name: "s", Value: StringValue("a")},
		{Name: "i", Value: IntValue(42)},
		{Name: "f", Value: FloatValue(3.5)},
		{Name: "b", Value: BoolValue(true)},
		{Name: "by", Value: BytesValue("foo")},
		{Name: "ts", Value: TimestampValue(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC))},
		{Name: "d", Value: DateValue(civil.Date{Year: 2021, Month: 1, Day: 1})},
		{Name: "t", Value: TimeValue("12:34:56.789")},
		{Name: "dt", Value: DateTimeValue(civil.DateTime{
			Date: civil.Date{Year: 2021, Month: 1, Day: 1},
			Time: civil.Time{Hour: 12, Nanosecond: 500000000},
		})},
		{Name: "n", Value: StringValue("123.456")},
		{Name: "g", Value: StringValue("POINT(1 2)")},
		{Name: "i64", Value: IntValue(-7)},
		{Name: "future", Value: StringValue("opaque")},
	}
	if diff := cmp.Diff(want, got, valueCmp); diff != "" {
		t.Errorf("DecodeRow mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeNulls(t *testing.T) {
	schema := Schema{
		{Name: "i", Type: IntegerFieldType},
		{Name: "b", Type: BooleanFieldType},
		{Name: "r", Type: RecordFieldType, Schema: Schema{{Name: "x", Type: IntegerFieldType}}},
		{Name: "odd", Type: BooleanFieldType},
	}
	got, err := DecodeRow(cells(nil, nil, map[string]interface{}{}, "maybe"), schema)
	if err != nil {
		t.Fatal(err)
	}
	want := StructValue{
		{Name: "i", Value: NullValue{}},
		{Name: "b", Value: NullValue{}},
		{Name: "r", Value: NullValue{}},
		{Name: "odd", Value: NullValue{}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DecodeRow mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeNestedAndRepeated(t *testing.T) {
	schema := Schema{
		{Name: "tags", Type: StringFieldType, Repeated: true},
		{Name: "rec", Type: RecordFieldType, Schema: Schema{
			{Name: "a", Type: IntegerFieldType},
			{Name: "b", Type: StringFieldType, Repeated: true},
		}},
		{Name: "recs", Type: RecordFieldType, Repeated: true, Schema: Schema{
			{Name: "x", Type: IntegerFieldType},
		}},
		{Name: "empty", Type: IntegerFieldType, Repeated: true},
	}
	row := cells(
		[]interface{}{vcell("x"), vcell("y")},
		record("1", []interface{}{vcell("p"), vcell("q")}),
		[]interface{}{vcell(record("7")), vcell(record("8"))},
		[]interface{}{},
	)
	got, err := DecodeRow(row, schema)
	if err != nil {
		t.Fatal(err)
	}
	want := StructValue{
		{Name: "tags", Value: ArrayValue{StringValue("x"), StringValue("y")}},
		{Name: "rec", Value: StructValue{
			{Name: "a", Value: IntValue(1)},
			{Name: "b", Value: ArrayValue{StringValue("p"), StringValue("q")}},
		}},
		{Name: "recs", Value: ArrayValue{
			StructValue{{Name: "x", Value: IntValue(7)}},
			StructValue{{Name: "x", Value: IntValue(8)}},
		}},
		{Name: "empty", Value: ArrayValue{}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DecodeRow mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRows(t *testing.T) {
	schema := Schema{{Name: "n", Type: IntegerFieldType}}
	got, err := DecodeRows([]*bq.TableRow{cells("1"), cells("2")}, schema)
	if err != nil {
		t.Fatal(err)
	}
	want := []StructValue{
		{{Name: "n", Value: IntValue(1)}},
		{{Name: "n", Value: IntValue(2)}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DecodeRows mismatch (-want +got):\n%s", diff)
	}
	got, err = DecodeRows(nil, schema)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %d rows, want 0", len(got))
	}
}

func TestDecodeErrors(t *testing.T) {
	for _, test := range []struct {
		desc      string
		row       *bq.TableRow
		schema    Schema
		wantField string
	}{
		{
			desc:   "too few cells",
			row:    cells("1"),
			schema: Schema{{Name: "a", Type: IntegerFieldType}, {Name: "b", Type: IntegerFieldType}},
		},
		{
			desc:   "too many cells",
			row:    cells("1", "2"),
			schema: Schema{{Name: "a", Type: IntegerFieldType}},
		},
		{
			desc: "nested record arity",
			row:  cells(record("1", "2")),
			schema: Schema{{Name: "r", Type: RecordFieldType, Schema: Schema{
				{Name: "x", Type: IntegerFieldType},
			}}},
		},
		{
			desc:      "bad integer",
			row:       cells("abc"),
			schema:    Schema{{Name: "i", Type: IntegerFieldType}},
			wantField: "i",
		},
		{
			desc:      "bad float",
			row:       cells("1.2.3"),
			schema:    Schema{{Name: "f", Type: FloatFieldType}},
			wantField: "f",
		},
		{
			desc:      "bad base64",
			row:       cells("!!"),
			schema:    Schema{{Name: "by", Type: BytesFieldType}},
			wantField: "by",
		},
		{
			desc:      "bad timestamp",
			row:       cells("yesterday"),
			schema:    Schema{{Name: "ts", Type: TimestampFieldType}},
			wantField: "ts",
		},
		{
			desc:      "bad date",
			row:       cells("2021-13-01"),
			schema:    Schema{{Name: "d", Type: DateFieldType}},
			wantField: "d",
		},
		{
			desc:      "bad datetime",
			row:       cells("2021-01-01X00:00:00"),
			schema:    Schema{{Name: "dt", Type: DateTimeFieldType}},
			wantField: "dt",
		},
		{
			desc:      "record without fields",
			row:       cells(map[string]interface{}{"g": 1}),
			schema:    Schema{{Name: "r", Type: RecordFieldType, Schema: Schema{{Name: "x", Type: IntegerFieldType}}}},
			wantField: "r",
		},
		{
			desc:      "number instead of string",
			row:       cells(float64(3)),
			schema:    Schema{{Name: "i", Type: IntegerFieldType}},
			wantField: "i",
		},
	} {
		_, err := DecodeRow(test.row, test.schema)
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Errorf("%s: got %v, want *DecodeError", test.desc, err)
			continue
		}
		if de.Field != test.wantField {
			t.Errorf("%s: got field %q, want %q", test.desc, de.Field, test.wantField)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	for _, test := range []struct {
		in   string
		want time.Time
	}{
		{"0", time.Unix(0, 0)},
		{"1.5", time.Unix(1, 500000000)},
		{"-1.5", time.Unix(-2, 500000000)},
		{"1609459200", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"1.6094592E9", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"1609459200.123456", time.Date(2021, 1, 1, 0, 0, 0, 123456000, time.UTC)},
		{"1.609459200123456E9", time.Date(2021, 1, 1, 0, 0, 0, 123456000, time.UTC)},
	} {
		got, err := parseTimestamp(test.in)
		if err != nil {
			t.Errorf("%s: %v", test.in, err)
			continue
		}
		if !got.Equal(test.want) {
			t.Errorf("%s: got %v, want %v", test.in, got, test.want)
		}
		if got.Location() != time.UTC {
			t.Errorf("%s: got location %v, want UTC", test.in, got.Location())
		}
	}
	for _, bad := range []string{"", "abc", "1e400", "0x10", "1_000", "1/2", " 1", "Inf"} {
		if _, err := parseTimestamp(bad); err == nil {
			t.Errorf("%q: got nil error, want error", bad)
		}
	}
}

func TestParseDateTime(t *testing.T) {
	want := civil.DateTime{
		Date: civil.Date{Year: 2021, Month: 3, Day: 4},
		Time: civil.Time{Hour: 5, Minute: 6, Second: 7, Nanosecond: 1000},
	}
	for _, in := range []string{"2021-03-04T05:06:07.000001", "2021-03-04 05:06:07.000001"} {
		got, err := parseDateTime(in)
		if err != nil {
			t.Errorf("%s: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("%s: got %v, want %v", in, got, want)
		}
	}
}
