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
	"fmt"
	"io"
	"reflect"
	"sort"
	"time"

	"cloud.google.com/go/civil"
)

// Value is a single BigQuery value: a decoded table cell, a query parameter,
// or a field of a row being inserted. The implementations are the types in
// this file and the set is closed.
type Value interface {
	isValue()
}

// NullValue is SQL NULL.
type NullValue struct{}

// StringValue holds STRING, NUMERIC, BIGNUMERIC, GEOGRAPHY and JSON cells.
type StringValue string

// IntValue holds an INTEGER (INT64).
type IntValue int64

// FloatValue holds a FLOAT (FLOAT64).
type FloatValue float64

// BoolValue holds a BOOLEAN.
type BoolValue bool

// BytesValue holds BYTES.
type BytesValue []byte

// ReaderValue is BYTES supplied as a stream. It is read from the start each
// time it is encoded.
type ReaderValue struct {
	R io.ReadSeeker
}

// DateValue holds a DATE.
type DateValue civil.Date

// DateTimeValue holds a DATETIME, a calendar date and wall clock time with no
// time zone.
type DateTimeValue civil.DateTime

// TimeValue holds a TIME of day exactly as the service printed it, for
// example "12:34:56.789".
type TimeValue string

// TimestampValue holds a TIMESTAMP, an absolute instant.
type TimestampValue time.Time

// ArrayValue holds the elements of a REPEATED field or an ARRAY parameter.
type ArrayValue []Value

// StructValue holds a RECORD or STRUCT as an ordered list of named fields.
// Decoded rows are StructValues whose field order follows the schema.
type StructValue []StructField

// StructField is one named member of a StructValue.
type StructField struct {
	Name  string
	Value Value
}

// TypedNull is a NULL query parameter of a declared type, for example
// TypedNull{Type: Int64ParamType}.
type TypedNull struct {
	Type ParamType
}

func (NullValue) isValue()      {}
func (StringValue) isValue()    {}
func (IntValue) isValue()       {}
func (FloatValue) isValue()     {}
func (BoolValue) isValue()      {}
func (BytesValue) isValue()     {}
func (ReaderValue) isValue()    {}
func (DateValue) isValue()      {}
func (DateTimeValue) isValue()  {}
func (TimeValue) isValue()      {}
func (TimestampValue) isValue() {}
func (ArrayValue) isValue()     {}
func (StructValue) isValue()    {}
func (TypedNull) isValue()      {}

// Get returns the value of the first field called name.
func (s StructValue) Get(name string) (Value, bool) {
	for _, f := range s {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Names returns the field names in order.
func (s StructValue) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// Map returns the fields as a map of plain Go values, as produced by
// Interface.
func (s StructValue) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(s))
	for _, f := range s {
		m[f.Name] = Interface(f.Value)
	}
	return m
}

// String implements fmt.Stringer.
func (d DateValue) String() string { return civil.Date(d).String() }

// String implements fmt.Stringer.
func (dt DateTimeValue) String() string { return civil.DateTime(dt).String() }

// String implements fmt.Stringer.
func (t TimestampValue) String() string { return time.Time(t).String() }

// Interface converts v to the plain Go value it wraps: nil for NULL, int64,
// float64, bool, string, []byte, civil.Date, civil.DateTime, time.Time,
// []interface{} for arrays and map[string]interface{} for structs. TIME
// values stay strings.
func Interface(v Value) interface{} {
	switch v := v.(type) {
	case nil, NullValue, TypedNull:
		return nil
	case StringValue:
		return string(v)
	case IntValue:
		return int64(v)
	case FloatValue:
		return float64(v)
	case BoolValue:
		return bool(v)
	case BytesValue:
		return []byte(v)
	case ReaderValue:
		return v.R
	case DateValue:
		return civil.Date(v)
	case DateTimeValue:
		return civil.DateTime(v)
	case TimeValue:
		return string(v)
	case TimestampValue:
		return time.Time(v)
	case ArrayValue:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = Interface(e)
		}
		return out
	case StructValue:
		return v.Map()
	default:
		panic(fmt.Sprintf("bqrest: unknown Value type %T", v))
	}
}

// ValueOf converts a plain Go value to a Value. It accepts nil, every Value
// implementation, bool, the signed integer types, the unsigned integer types
// narrower than 64 bits, float32, float64, string, []byte, io.ReadSeeker,
// time.Time, civil.Date, civil.DateTime, civil.Time,
// map[string]interface{} (converted to a StructValue with sorted field names)
// and slices or arrays of any of these.
func ValueOf(x interface{}) (Value, error) {
	switch x := x.(type) {
	case nil:
		return NullValue{}, nil
	case Value:
		return x, nil
	case bool:
		return BoolValue(x), nil
	case int:
		return IntValue(x), nil
	case int8:
		return IntValue(x), nil
	case int16:
		return IntValue(x), nil
	case int32:
		return IntValue(x), nil
	case int64:
		return IntValue(x), nil
	case uint8:
		return IntValue(x), nil
	case uint16:
		return IntValue(x), nil
	case uint32:
		return IntValue(x), nil
	case float32:
		return FloatValue(x), nil
	case float64:
		return FloatValue(x), nil
	case string:
		return StringValue(x), nil
	case []byte:
		return BytesValue(x), nil
	case time.Time:
		return TimestampValue(x), nil
	case civil.Date:
		return DateValue(x), nil
	case civil.DateTime:
		return DateTimeValue(x), nil
	case civil.Time:
		return TimeValue(x.String()), nil
	case io.ReadSeeker:
		return ReaderValue{R: x}, nil
	case map[string]interface{}:
		names := make([]string, 0, len(x))
		for k := range x {
			names = append(names, k)
		}
		sort.Strings(names)
		sv := make(StructValue, len(names))
		for i, k := range names {
			v, err := ValueOf(x[k])
			if err != nil {
				return nil, err
			}
			sv[i] = StructField{Name: k, Value: v}
		}
		return sv, nil
	}
	rv := reflect.ValueOf(x)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		av := make(ArrayValue, rv.Len())
		for i := range av {
			v, err := ValueOf(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			av[i] = v
		}
		return av, nil
	}
	return nil, &UnsupportedParameterTypeError{Value: x}
}
