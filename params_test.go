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
	"bytes"
	"errors"
	"math"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	bq "google.golang.org/api/bigquery/v2"
)

var scalarTests = []struct {
	val      Value
	wantType *bq.QueryParameterType
	want     string
}{
	{IntValue(0), int64ParamType, "0"},
	{IntValue(42), int64ParamType, "42"},
	{FloatValue(3.14), float64ParamType, "3.14"},
	{FloatValue(3.14159e-87), float64ParamType, "3.14159e-87"},
	{FloatValue(math.NaN()), float64ParamType, "NaN"},
	{BoolValue(true), boolParamType, "true"},
	{BoolValue(false), boolParamType, "false"},
	{StringValue("string"), stringParamType, "string"},
	{StringValue("日本語\n"), stringParamType, "日本語\n"},
	{BytesValue("foo"), bytesParamType, "Zm9v"}, // base64 encoding of "foo"
	{ReaderValue{R: bytes.NewReader([]byte("foo"))}, bytesParamType, "Zm9v"},
	{DateValue(civil.Date{Year: 2016, Month: 3, Day: 20}), dateParamType, "2016-03-20"},
	{TimeValue("04:05:06.789"), timeParamType, "04:05:06.789"},
	{
		DateTimeValue(civil.DateTime{
			Date: civil.Date{Year: 2016, Month: 3, Day: 20},
			Time: civil.Time{Hour: 4, Minute: 5, Second: 6, Nanosecond: 789000},
		}),
		dateTimeParamType, "2016-03-20 04:05:06.000789",
	},
	{
		TimestampValue(time.Date(2016, 3, 20, 4, 22, 9, 5000, time.FixedZone("neg1-2", -3720))),
		timestampParamType, "2016-03-20 04:22:09.000005-01:02",
	},
	{
		TimestampValue(time.Date(2001, 12, 19, 23, 59, 59, 0, time.UTC)),
		timestampParamType, "2001-12-19 23:59:59.000000+00:00",
	},
}

func TestEncodeParamScalar(t *testing.T) {
	for _, test := range scalarTests {
		gotType, gotVal, err := EncodeParam(test.val)
		if err != nil {
			t.Errorf("%v: got %v, want nil", test.val, err)
			continue
		}
		if !sameParamType(gotType, test.wantType) {
			t.Errorf("%v: got type %s, want %s", test.val, paramTypeString(gotType), paramTypeString(test.wantType))
		}
		if gotVal.ArrayValues != nil {
			t.Errorf("%v, ArrayValues: got %v, expected nil", test.val, gotVal.ArrayValues)
		}
		if gotVal.StructValues != nil {
			t.Errorf("%v, StructValues: got %v, expected nil", test.val, gotVal.StructValues)
		}
		if gotVal.Value != test.want {
			t.Errorf("%v: got %q, want %q", test.val, gotVal.Value, test.want)
		}
	}
}

func TestEncodeParamReaderRewinds(t *testing.T) {
	r := bytes.NewReader([]byte("foo"))
	v := ReaderValue{R: r}
	for i := 0; i < 2; i++ {
		_, pv, err := EncodeParam(v)
		if err != nil {
			t.Fatal(err)
		}
		if pv.Value != "Zm9v" {
			t.Errorf("encoding %d: got %q, want %q", i, pv.Value, "Zm9v")
		}
	}
}

func TestEncodeParamArray(t *testing.T) {
	gotType, gotVal, err := EncodeParam(ArrayValue{IntValue(1), IntValue(2)})
	if err != nil {
		t.Fatal(err)
	}
	wantType := &bq.QueryParameterType{Type: "ARRAY", ArrayType: int64ParamType}
	wantVal := &bq.QueryParameterValue{ArrayValues: []*bq.QueryParameterValue{{Value: "1"}, {Value: "2"}}}
	if diff := cmp.Diff(wantType, gotType); diff != "" {
		t.Errorf("type mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantVal, gotVal); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeParamArrayErrors(t *testing.T) {
	if _, _, err := EncodeParam(ArrayValue{}); !errors.Is(err, ErrEmptyArrayParameter) {
		t.Errorf("empty array: got %v, want ErrEmptyArrayParameter", err)
	}
	_, _, err := EncodeParam(ArrayValue{IntValue(1), StringValue("a")})
	var mixed *MixedArrayParameterError
	if !errors.As(err, &mixed) {
		t.Fatalf("mixed array: got %v, want *MixedArrayParameterError", err)
	}
	if diff := cmp.Diff(&MixedArrayParameterError{Index: 1, Want: "INT64", Got: "STRING"}, mixed); diff != "" {
		t.Errorf("mixed array error mismatch (-want +got):\n%s", diff)
	}
	_, _, err = EncodeParam(ArrayValue{
		StructValue{{Name: "a", Value: IntValue(1)}},
		StructValue{{Name: "b", Value: IntValue(1)}},
	})
	if !errors.As(err, &mixed) {
		t.Errorf("structs with different fields: got %v, want *MixedArrayParameterError", err)
	}
}

func TestEncodeParamStruct(t *testing.T) {
	v := StructValue{
		{Name: "a", Value: IntValue(1)},
		{Name: "b", Value: ArrayValue{StringValue("x"), StringValue("y")}},
		{Name: "c", Value: StructValue{{Name: "d", Value: BoolValue(true)}}},
	}
	gotType, gotVal, err := EncodeParam(v)
	if err != nil {
		t.Fatal(err)
	}
	wantType := &bq.QueryParameterType{
		Type: "STRUCT",
		StructTypes: []*bq.QueryParameterTypeStructTypes{
			{Name: "a", Type: int64ParamType},
			{Name: "b", Type: &bq.QueryParameterType{Type: "ARRAY", ArrayType: stringParamType}},
			{Name: "c", Type: &bq.QueryParameterType{
				Type:        "STRUCT",
				StructTypes: []*bq.QueryParameterTypeStructTypes{{Name: "d", Type: boolParamType}},
			}},
		},
	}
	wantVal := &bq.QueryParameterValue{
		StructValues: map[string]bq.QueryParameterValue{
			"a": {Value: "1"},
			"b": {ArrayValues: []*bq.QueryParameterValue{{Value: "x"}, {Value: "y"}}},
			"c": {StructValues: map[string]bq.QueryParameterValue{"d": {Value: "true"}}},
		},
	}
	if diff := cmp.Diff(wantType, gotType); diff != "" {
		t.Errorf("type mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantVal, gotVal); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeParamStructDuplicateField(t *testing.T) {
	_, _, err := EncodeParam(StructValue{
		{Name: "a", Value: IntValue(1)},
		{Name: "a", Value: StringValue("x")},
	})
	var dup *DuplicateFieldError
	if !errors.As(err, &dup) {
		t.Fatalf("got %v, want *DuplicateFieldError", err)
	}
	if diff := cmp.Diff(&DuplicateFieldError{Name: "a"}, dup); diff != "" {
		t.Errorf("error mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, test := range []struct {
		val Value
		typ FieldType
	}{
		{IntValue(0), IntegerFieldType},
		{IntValue(math.MinInt64), IntegerFieldType},
		{IntValue(math.MaxInt64), IntegerFieldType},
		{FloatValue(3.14), FloatFieldType},
		{FloatValue(1e300), FloatFieldType},
		{FloatValue(-5e-324), FloatFieldType},
		{FloatValue(math.Inf(1)), FloatFieldType},
		{FloatValue(math.Inf(-1)), FloatFieldType},
		{FloatValue(math.NaN()), FloatFieldType},
		{BoolValue(true), BooleanFieldType},
		{BoolValue(false), BooleanFieldType},
		{StringValue(""), StringFieldType},
		{StringValue("日本語\n"), StringFieldType},
	} {
		_, pv, err := EncodeParam(test.val)
		if err != nil {
			t.Errorf("EncodeParam(%v): %v", test.val, err)
			continue
		}
		got, err := DecodeValue(pv.Value, &FieldSchema{Name: "x", Type: test.typ})
		if err != nil {
			t.Errorf("DecodeValue(%q): %v", pv.Value, err)
			continue
		}
		if f, ok := test.val.(FloatValue); ok && math.IsNaN(float64(f)) {
			if g, ok := got.(FloatValue); !ok || !math.IsNaN(float64(g)) {
				t.Errorf("round trip of NaN: got %#v", got)
			}
			continue
		}
		if !cmp.Equal(test.val, got) {
			t.Errorf("round trip of %#v: got %#v", test.val, got)
		}
	}
}

func TestEncodeParamNull(t *testing.T) {
	gotType, gotVal, err := EncodeParam(TypedNull{Type: Int64ParamType})
	if err != nil {
		t.Fatal(err)
	}
	if gotType.Type != "INT64" {
		t.Errorf("got type %q, want INT64", gotType.Type)
	}
	if diff := cmp.Diff(&bq.QueryParameterValue{NullFields: []string{"Value"}}, gotVal); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}

	for _, v := range []Value{NullValue{}, nil, TypedNull{}, ReaderValue{}, ArrayValue{NullValue{}}} {
		_, _, err := EncodeParam(v)
		var ue *UnsupportedParameterTypeError
		if !errors.As(err, &ue) {
			t.Errorf("%#v: got %v, want *UnsupportedParameterTypeError", v, err)
		}
	}
}

func TestBQParameters(t *testing.T) {
	mode, params, err := bqParameters([]QueryParameter{
		{Name: "n", Value: 1},
		{Name: "s", Value: "x"},
		{Name: "d", Value: civil.Date{Year: 2020, Month: 1, Day: 2}},
		{Name: "null", Value: TypedNull{Type: StringParamType}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if mode != "NAMED" {
		t.Errorf("mode: got %q, want NAMED", mode)
	}
	want := []*bq.QueryParameter{
		{Name: "n", ParameterType: int64ParamType, ParameterValue: &bq.QueryParameterValue{Value: "1"}},
		{Name: "s", ParameterType: stringParamType, ParameterValue: &bq.QueryParameterValue{Value: "x"}},
		{Name: "d", ParameterType: dateParamType, ParameterValue: &bq.QueryParameterValue{Value: "2020-01-02"}},
		{
			Name:           "null",
			ParameterType:  &bq.QueryParameterType{Type: "STRING"},
			ParameterValue: &bq.QueryParameterValue{NullFields: []string{"Value"}},
		},
	}
	if diff := cmp.Diff(want, params, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}

	mode, _, err = bqParameters([]QueryParameter{{Value: 1}, {Value: []string{"a"}}})
	if err != nil {
		t.Fatal(err)
	}
	if mode != "POSITIONAL" {
		t.Errorf("mode: got %q, want POSITIONAL", mode)
	}

	if _, _, err := bqParameters([]QueryParameter{{Name: "a", Value: 1}, {Value: 2}}); err != errMixedParameterModes {
		t.Errorf("mixed modes: got %v, want %v", err, errMixedParameterModes)
	}
	if _, _, err := bqParameters([]QueryParameter{{Value: nil}}); err == nil {
		t.Error("untyped null: got nil error")
	}
}
