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

	bq "google.golang.org/api/bigquery/v2"
)

// FieldType is the type of field.
type FieldType string

const (
	// StringFieldType is a string field type.
	StringFieldType FieldType = "STRING"
	// BytesFieldType is a bytes field type.
	BytesFieldType FieldType = "BYTES"
	// IntegerFieldType is a integer field type.
	IntegerFieldType FieldType = "INTEGER"
	// FloatFieldType is a float field type.
	FloatFieldType FieldType = "FLOAT"
	// BooleanFieldType is a boolean field type.
	BooleanFieldType FieldType = "BOOLEAN"
	// TimestampFieldType is a timestamp field type.
	TimestampFieldType FieldType = "TIMESTAMP"
	// RecordFieldType is a record field type. It is used for columns with
	// nested data.
	RecordFieldType FieldType = "RECORD"
	// DateFieldType is a date field type.
	DateFieldType FieldType = "DATE"
	// TimeFieldType is a time field type.
	TimeFieldType FieldType = "TIME"
	// DateTimeFieldType is a datetime field type.
	DateTimeFieldType FieldType = "DATETIME"
	// NumericFieldType is a decimal field type with 38 digits of precision.
	NumericFieldType FieldType = "NUMERIC"
	// BigNumericFieldType is a decimal field type with 76 digits of precision.
	BigNumericFieldType FieldType = "BIGNUMERIC"
	// GeographyFieldType holds a set of points on the Earth's surface in
	// Well Known Text format.
	GeographyFieldType FieldType = "GEOGRAPHY"
	// JSONFieldType is a representation of a json object.
	JSONFieldType FieldType = "JSON"
)

// Standard SQL names the service may report in place of the legacy ones.
var fieldTypeAliases = map[FieldType]FieldType{
	"INT64":   IntegerFieldType,
	"FLOAT64": FloatFieldType,
	"BOOL":    BooleanFieldType,
	"STRUCT":  RecordFieldType,
}

func (ft FieldType) canonical() FieldType {
	if c, ok := fieldTypeAliases[ft]; ok {
		return c
	}
	return ft
}

// FieldSchema describes a single column.
type FieldSchema struct {
	// The field name.
	// Must contain only letters (a-z, A-Z), numbers (0-9), or underscores (_),
	// and must start with a letter or underscore.
	// The maximum length is 128 characters.
	Name string

	// A description of the field. The maximum length is 16,384 characters.
	Description string

	// Whether the field may contain multiple values.
	Repeated bool
	// Whether the field is required. Ignored if Repeated is true.
	Required bool

	// The field data type. If Type is Record, then this field contains a
	// nested schema, which is described by Schema.
	Type FieldType

	// Describes the nested schema if Type is set to Record.
	Schema Schema

	// Precision and Scale of NUMERIC and BIGNUMERIC fields. Zero means the
	// service default.
	Precision int64
	Scale     int64
}

// Schema describes the fields in a table or query result.
type Schema []*FieldSchema

// Relax returns a version of the schema where no fields are marked
// as Required.
func (s Schema) Relax() Schema {
	var out Schema
	for _, v := range s {
		relaxed := &FieldSchema{
			Name:        v.Name,
			Description: v.Description,
			Repeated:    v.Repeated,
			Type:        v.Type,
			Schema:      v.Schema.Relax(),
			Precision:   v.Precision,
			Scale:       v.Scale,
		}
		out = append(out, relaxed)
	}
	return out
}

// Validate reports the first structural problem in the schema: an unnamed
// field, a name used twice at the same level, or a RECORD without children.
func (s Schema) Validate() error {
	seen := make(map[string]bool, len(s))
	for i, f := range s {
		if f == nil {
			return fmt.Errorf("bqrest: schema field %d is nil", i)
		}
		if f.Name == "" {
			return fmt.Errorf("bqrest: schema field %d has no name", i)
		}
		if seen[f.Name] {
			return fmt.Errorf("bqrest: duplicate schema field %q", f.Name)
		}
		seen[f.Name] = true
		if f.Type.canonical() == RecordFieldType {
			if len(f.Schema) == 0 {
				return fmt.Errorf("bqrest: record field %q has no nested fields", f.Name)
			}
			if err := f.Schema.Validate(); err != nil {
				return fmt.Errorf("%w (in %q)", err, f.Name)
			}
		}
	}
	return nil
}

func (fs *FieldSchema) toBQ() *bq.TableFieldSchema {
	tfs := &bq.TableFieldSchema{
		Description: fs.Description,
		Name:        fs.Name,
		Type:        string(fs.Type),
		Precision:   fs.Precision,
		Scale:       fs.Scale,
	}

	if fs.Repeated {
		tfs.Mode = "REPEATED"
	} else if fs.Required {
		tfs.Mode = "REQUIRED"
	} // else leave as default, which is interpreted as NULLABLE.

	for _, f := range fs.Schema {
		tfs.Fields = append(tfs.Fields, f.toBQ())
	}
	return tfs
}

func (s Schema) toBQ() *bq.TableSchema {
	var fields []*bq.TableFieldSchema
	for _, f := range s {
		fields = append(fields, f.toBQ())
	}
	return &bq.TableSchema{Fields: fields}
}

func bqToFieldSchema(tfs *bq.TableFieldSchema) *FieldSchema {
	fs := &FieldSchema{
		Description: tfs.Description,
		Name:        tfs.Name,
		Repeated:    tfs.Mode == "REPEATED",
		Required:    tfs.Mode == "REQUIRED",
		Type:        FieldType(tfs.Type),
		Precision:   tfs.Precision,
		Scale:       tfs.Scale,
	}

	for _, f := range tfs.Fields {
		fs.Schema = append(fs.Schema, bqToFieldSchema(f))
	}
	return fs
}

func bqToSchema(ts *bq.TableSchema) Schema {
	if ts == nil {
		return nil
	}
	var rs Schema
	for _, s := range ts.Fields {
		rs = append(rs, bqToFieldSchema(s))
	}
	return rs
}
