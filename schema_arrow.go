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
	"github.com/apache/arrow-go/v18/arrow"
)

// Default decimal shapes used when a field leaves Precision unset.
const (
	numericPrecision    = 38
	numericScale        = 9
	bigNumericPrecision = 76
	bigNumericScale     = 38
)

// ArrowSchema converts s to the Arrow schema the BigQuery Storage API uses
// for the same table. It returns nil for a nil schema.
func (s Schema) ArrowSchema() *arrow.Schema {
	if s == nil {
		return nil
	}
	return arrow.NewSchema(arrowFields(s), nil)
}

func arrowFields(s Schema) []arrow.Field {
	fields := make([]arrow.Field, 0, len(s))
	for _, f := range s {
		fields = append(fields, arrow.Field{
			Name:     f.Name,
			Type:     arrowType(f),
			Nullable: !f.Required && !f.Repeated,
		})
	}
	return fields
}

// based on BigQuery Storage API conversion
// https://cloud.google.com/bigquery/docs/reference/storage#arrow_schema_details
func arrowType(f *FieldSchema) arrow.DataType {
	var base arrow.DataType
	switch f.Type.canonical() {
	case BytesFieldType:
		base = arrow.BinaryTypes.Binary
	case IntegerFieldType:
		base = arrow.PrimitiveTypes.Int64
	case FloatFieldType:
		base = arrow.PrimitiveTypes.Float64
	case BooleanFieldType:
		base = arrow.FixedWidthTypes.Boolean
	case TimestampFieldType:
		base = &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}
	case DateFieldType:
		base = arrow.FixedWidthTypes.Date32
	case TimeFieldType:
		base = arrow.FixedWidthTypes.Time64us
	case DateTimeFieldType:
		base = &arrow.TimestampType{Unit: arrow.Microsecond}
	case NumericFieldType:
		p, s := decimalShape(f, numericPrecision, numericScale)
		base = &arrow.Decimal128Type{Precision: p, Scale: s}
	case BigNumericFieldType:
		p, s := decimalShape(f, bigNumericPrecision, bigNumericScale)
		base = &arrow.Decimal256Type{Precision: p, Scale: s}
	case RecordFieldType:
		base = arrow.StructOf(arrowFields(f.Schema)...)
	default:
		// STRING, GEOGRAPHY, JSON and anything newer travel as text.
		base = arrow.BinaryTypes.String
	}
	if f.Repeated {
		return arrow.ListOf(base)
	}
	return base
}

func decimalShape(f *FieldSchema, precision, scale int32) (int32, int32) {
	if f.Precision == 0 {
		return precision, scale
	}
	return int32(f.Precision), int32(f.Scale)
}
