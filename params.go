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
	"io"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	bq "google.golang.org/api/bigquery/v2"
)

const (
	timestampFormat = "2006-01-02 15:04:05.000000-07:00"
	dateTimeFormat  = "2006-01-02 15:04:05.000000"
)

// ParamType is the type of a query parameter, as named by GoogleSQL.
type ParamType string

const (
	Int64ParamType      ParamType = "INT64"
	Float64ParamType    ParamType = "FLOAT64"
	BoolParamType       ParamType = "BOOL"
	StringParamType     ParamType = "STRING"
	BytesParamType      ParamType = "BYTES"
	DateParamType       ParamType = "DATE"
	DateTimeParamType   ParamType = "DATETIME"
	TimeParamType       ParamType = "TIME"
	TimestampParamType  ParamType = "TIMESTAMP"
	NumericParamType    ParamType = "NUMERIC"
	BigNumericParamType ParamType = "BIGNUMERIC"
	GeographyParamType  ParamType = "GEOGRAPHY"
	JSONParamType       ParamType = "JSON"
)

var (
	int64ParamType     = &bq.QueryParameterType{Type: string(Int64ParamType)}
	float64ParamType   = &bq.QueryParameterType{Type: string(Float64ParamType)}
	boolParamType      = &bq.QueryParameterType{Type: string(BoolParamType)}
	stringParamType    = &bq.QueryParameterType{Type: string(StringParamType)}
	bytesParamType     = &bq.QueryParameterType{Type: string(BytesParamType)}
	dateParamType      = &bq.QueryParameterType{Type: string(DateParamType)}
	dateTimeParamType  = &bq.QueryParameterType{Type: string(DateTimeParamType)}
	timeParamType      = &bq.QueryParameterType{Type: string(TimeParamType)}
	timestampParamType = &bq.QueryParameterType{Type: string(TimestampParamType)}
)

// A QueryParameter is a parameter to a query.
type QueryParameter struct {
	// Name is used for named parameter mode.
	// It must match the name in the query case-insensitively.
	Name string

	// Value is the value of the parameter. It may be a Value or any Go value
	// accepted by ValueOf. Use TypedNull to send NULL.
	Value interface{}
}

func (p QueryParameter) toBQ() (*bq.QueryParameter, error) {
	v, err := ValueOf(p.Value)
	if err != nil {
		return nil, err
	}
	pt, pv, err := EncodeParam(v)
	if err != nil {
		return nil, err
	}
	return &bq.QueryParameter{
		Name:           p.Name,
		ParameterValue: pv,
		ParameterType:  pt,
	}, nil
}

var errMixedParameterModes = errors.New("bqrest: query parameters must be all named or all positional")

// bqParameters returns the parameter mode and the encoded parameters.
func bqParameters(params []QueryParameter) (string, []*bq.QueryParameter, error) {
	if len(params) == 0 {
		return "", nil, nil
	}
	named := params[0].Name != ""
	out := make([]*bq.QueryParameter, len(params))
	for i, p := range params {
		if (p.Name != "") != named {
			return "", nil, errMixedParameterModes
		}
		qp, err := p.toBQ()
		if err != nil {
			return "", nil, err
		}
		out[i] = qp
	}
	if named {
		return "NAMED", out, nil
	}
	return "POSITIONAL", out, nil
}

// EncodeParam converts v to the type and value halves of a query parameter.
// Scalars are sent as strings. Arrays take their element type from the first
// element and must be non-empty and homogeneous. An untyped NULL is rejected;
// use TypedNull instead.
func EncodeParam(v Value) (*bq.QueryParameterType, *bq.QueryParameterValue, error) {
	switch v := v.(type) {
	case BoolValue:
		return boolParamType, &bq.QueryParameterValue{Value: strconv.FormatBool(bool(v))}, nil
	case IntValue:
		return int64ParamType, &bq.QueryParameterValue{Value: strconv.FormatInt(int64(v), 10)}, nil
	case FloatValue:
		return float64ParamType, &bq.QueryParameterValue{Value: strconv.FormatFloat(float64(v), 'g', -1, 64)}, nil
	case StringValue:
		return stringParamType, &bq.QueryParameterValue{Value: string(v)}, nil
	case BytesValue:
		return bytesParamType, &bq.QueryParameterValue{Value: base64.StdEncoding.EncodeToString(v)}, nil
	case ReaderValue:
		if v.R == nil {
			break
		}
		b, err := readFromStart(v.R)
		if err != nil {
			return nil, nil, err
		}
		return bytesParamType, &bq.QueryParameterValue{Value: base64.StdEncoding.EncodeToString(b)}, nil
	case DateValue:
		return dateParamType, &bq.QueryParameterValue{Value: civil.Date(v).String()}, nil
	case DateTimeValue:
		return dateTimeParamType, &bq.QueryParameterValue{Value: formatDateTime(civil.DateTime(v))}, nil
	case TimeValue:
		return timeParamType, &bq.QueryParameterValue{Value: string(v)}, nil
	case TimestampValue:
		return timestampParamType, &bq.QueryParameterValue{Value: time.Time(v).Format(timestampFormat)}, nil
	case ArrayValue:
		return encodeArrayParam(v)
	case StructValue:
		return encodeStructParam(v)
	case TypedNull:
		if v.Type == "" {
			break
		}
		return &bq.QueryParameterType{Type: string(v.Type)}, &bq.QueryParameterValue{NullFields: []string{"Value"}}, nil
	}
	return nil, nil, &UnsupportedParameterTypeError{Value: v}
}

func encodeArrayParam(v ArrayValue) (*bq.QueryParameterType, *bq.QueryParameterValue, error) {
	if len(v) == 0 {
		return nil, nil, ErrEmptyArrayParameter
	}
	var elemType *bq.QueryParameterType
	vals := make([]*bq.QueryParameterValue, len(v))
	for i, e := range v {
		et, ev, err := EncodeParam(e)
		if err != nil {
			return nil, nil, err
		}
		if i == 0 {
			elemType = et
		} else if !sameParamType(elemType, et) {
			return nil, nil, &MixedArrayParameterError{Index: i, Want: paramTypeString(elemType), Got: paramTypeString(et)}
		}
		vals[i] = ev
	}
	return &bq.QueryParameterType{Type: "ARRAY", ArrayType: elemType},
		&bq.QueryParameterValue{ArrayValues: vals}, nil
}

func encodeStructParam(v StructValue) (*bq.QueryParameterType, *bq.QueryParameterValue, error) {
	typ := &bq.QueryParameterType{Type: "STRUCT"}
	val := &bq.QueryParameterValue{StructValues: make(map[string]bq.QueryParameterValue, len(v))}
	for _, f := range v {
		if _, ok := val.StructValues[f.Name]; ok {
			return nil, nil, &DuplicateFieldError{Name: f.Name}
		}
		ft, fv, err := EncodeParam(f.Value)
		if err != nil {
			return nil, nil, err
		}
		typ.StructTypes = append(typ.StructTypes, &bq.QueryParameterTypeStructTypes{Name: f.Name, Type: ft})
		val.StructValues[f.Name] = *fv
	}
	return typ, val, nil
}

func sameParamType(a, b *bq.QueryParameterType) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type != b.Type || !sameParamType(a.ArrayType, b.ArrayType) || len(a.StructTypes) != len(b.StructTypes) {
		return false
	}
	for i, st := range a.StructTypes {
		if st.Name != b.StructTypes[i].Name || !sameParamType(st.Type, b.StructTypes[i].Type) {
			return false
		}
	}
	return true
}

func paramTypeString(t *bq.QueryParameterType) string {
	switch {
	case t == nil:
		return ""
	case t.ArrayType != nil:
		return "ARRAY<" + paramTypeString(t.ArrayType) + ">"
	case len(t.StructTypes) > 0:
		s := "STRUCT<"
		for i, st := range t.StructTypes {
			if i > 0 {
				s += ", "
			}
			s += st.Name + " " + paramTypeString(st.Type)
		}
		return s + ">"
	}
	return t.Type
}

func formatDateTime(dt civil.DateTime) string {
	return dt.In(time.UTC).Format(dateTimeFormat)
}

func readFromStart(r io.ReadSeeker) ([]byte, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
