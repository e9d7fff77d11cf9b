// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package dbxpull

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Table is an in-memory tabular structure with named columns and ordered
// rows, backed by an Arrow record. Callers must Release it when done.
type Table struct {
	record arrow.Record
}

// NewTable builds a Table from raw rows and column names, inferring each
// column's Arrow type from its first non-nil value. Every row must have
// exactly one value per column; a mismatch fails with a StatusConversion
// error.
func NewTable(rows [][]any, columns []string) (*Table, error) {
	fields := make([]arrow.Field, len(columns))
	for i, name := range columns {
		fields[i] = arrow.Field{Name: name, Type: inferColumnType(rows, i), Nullable: true}
	}
	return newTable(memory.DefaultAllocator, arrow.NewSchema(fields, nil), rows)
}

func newTable(alloc memory.Allocator, schema *arrow.Schema, rows [][]any) (*Table, error) {
	for i, row := range rows {
		if len(row) != schema.NumFields() {
			return nil, errorf(StatusConversion,
				"row %d has %d values, expected %d columns", i, len(row), schema.NumFields())
		}
	}

	bldr := array.NewRecordBuilder(alloc, schema)
	defer bldr.Release()
	bldr.Reserve(len(rows))

	for rowIdx, row := range rows {
		for colIdx, value := range row {
			fieldBldr := bldr.Field(colIdx)
			if value == nil {
				fieldBldr.AppendNull()
				continue
			}
			if err := appendValue(fieldBldr, value, schema.Field(colIdx).Type); err != nil {
				return nil, wrapError(err, StatusConversion,
					"failed to append value at row %d, column %q", rowIdx, schema.Field(colIdx).Name)
			}
		}
	}

	return &Table{record: bldr.NewRecord()}, nil
}

// NumRows returns the number of rows in the table.
func (t *Table) NumRows() int64 { return t.record.NumRows() }

// NumCols returns the number of columns in the table.
func (t *Table) NumCols() int64 { return t.record.NumCols() }

// Schema returns the table's Arrow schema.
func (t *Table) Schema() *arrow.Schema { return t.record.Schema() }

// Record returns the backing Arrow record. The record stays owned by the
// table; retain it to keep it alive past Release.
func (t *Table) Record() arrow.Record { return t.record }

// ColumnNames returns the ordered column names.
func (t *Table) ColumnNames() []string {
	names := make([]string, t.record.Schema().NumFields())
	for i, f := range t.record.Schema().Fields() {
		names[i] = f.Name
	}
	return names
}

// Column returns the column with the given name, or false if absent.
func (t *Table) Column(name string) (arrow.Array, bool) {
	indices := t.record.Schema().FieldIndices(name)
	if len(indices) == 0 {
		return nil, false
	}
	return t.record.Column(indices[0]), true
}

// Head returns a new Table holding at most n leading rows, sharing column
// storage with the receiver. The caller must Release it independently.
func (t *Table) Head(n int) *Table {
	end := int64(n)
	if end > t.record.NumRows() {
		end = t.record.NumRows()
	}
	return &Table{record: t.record.NewSlice(0, end)}
}

// Equal reports whether two tables have identical schemas and values.
func (t *Table) Equal(other *Table) bool {
	return array.RecordEqual(t.record, other.record)
}

// Release frees the table's Arrow buffers. The table must not be used
// afterwards.
func (t *Table) Release() {
	if t.record != nil {
		t.record.Release()
		t.record = nil
	}
}

func schemaFromColumnTypes(colTypes []*sql.ColumnType) *arrow.Schema {
	fields := make([]arrow.Field, len(colTypes))
	for i, ct := range colTypes {
		precision, scale, hasDecimal := ct.DecimalSize()
		fields[i] = arrow.Field{
			Name:     ct.Name(),
			Type:     arrowTypeForDatabaseType(ct.DatabaseTypeName(), precision, scale, hasDecimal),
			Nullable: true,
		}
	}
	return arrow.NewSchema(fields, nil)
}

// arrowTypeForDatabaseType maps a Databricks SQL type name to an Arrow type.
// Unknown types fall back to string.
func arrowTypeForDatabaseType(dbType string, precision, scale int64, hasDecimal bool) arrow.DataType {
	switch dbType {
	case "BOOLEAN":
		return arrow.FixedWidthTypes.Boolean
	case "TINYINT":
		return arrow.PrimitiveTypes.Int8
	case "SMALLINT":
		return arrow.PrimitiveTypes.Int16
	case "INT", "INTEGER":
		return arrow.PrimitiveTypes.Int32
	case "BIGINT":
		return arrow.PrimitiveTypes.Int64
	case "FLOAT":
		return arrow.PrimitiveTypes.Float32
	case "DOUBLE":
		return arrow.PrimitiveTypes.Float64
	case "STRING", "VARCHAR", "CHAR":
		return arrow.BinaryTypes.String
	case "BINARY":
		return arrow.BinaryTypes.Binary
	case "TIMESTAMP", "TIMESTAMP_NTZ":
		return arrow.FixedWidthTypes.Timestamp_us
	case "DATE":
		return arrow.FixedWidthTypes.Date32
	case "DECIMAL":
		if !hasDecimal {
			precision, scale = 38, 0
		}
		return &arrow.Decimal128Type{Precision: int32(precision), Scale: int32(scale)}
	default:
		return arrow.BinaryTypes.String
	}
}

func inferColumnType(rows [][]any, col int) arrow.DataType {
	for _, row := range rows {
		if col >= len(row) || row[col] == nil {
			continue
		}
		switch row[col].(type) {
		case bool:
			return arrow.FixedWidthTypes.Boolean
		case int, int8, int16, int32, int64:
			return arrow.PrimitiveTypes.Int64
		case float32, float64:
			return arrow.PrimitiveTypes.Float64
		case []byte:
			return arrow.BinaryTypes.Binary
		case time.Time:
			return arrow.FixedWidthTypes.Timestamp_us
		default:
			return arrow.BinaryTypes.String
		}
	}
	return arrow.BinaryTypes.String
}

// appendValue appends one Go value to the builder for the given Arrow type.
// Numeric widths are converted tolerantly; the driver may scan an integer
// column as a wider Go type than the declared SQL type.
func appendValue(bldr array.Builder, value any, dt arrow.DataType) error {
	switch dt.ID() {
	case arrow.BOOL:
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
		bldr.(*array.BooleanBuilder).Append(b)
	case arrow.INT8:
		i, ok := asInt64(value)
		if !ok {
			return fmt.Errorf("expected integer, got %T", value)
		}
		bldr.(*array.Int8Builder).Append(int8(i))
	case arrow.INT16:
		i, ok := asInt64(value)
		if !ok {
			return fmt.Errorf("expected integer, got %T", value)
		}
		bldr.(*array.Int16Builder).Append(int16(i))
	case arrow.INT32:
		i, ok := asInt64(value)
		if !ok {
			return fmt.Errorf("expected integer, got %T", value)
		}
		bldr.(*array.Int32Builder).Append(int32(i))
	case arrow.INT64:
		i, ok := asInt64(value)
		if !ok {
			return fmt.Errorf("expected integer, got %T", value)
		}
		bldr.(*array.Int64Builder).Append(i)
	case arrow.FLOAT32:
		f, ok := asFloat64(value)
		if !ok {
			return fmt.Errorf("expected float, got %T", value)
		}
		bldr.(*array.Float32Builder).Append(float32(f))
	case arrow.FLOAT64:
		f, ok := asFloat64(value)
		if !ok {
			return fmt.Errorf("expected float, got %T", value)
		}
		bldr.(*array.Float64Builder).Append(f)
	case arrow.STRING:
		if s, ok := value.(string); ok {
			bldr.(*array.StringBuilder).Append(s)
		} else {
			bldr.(*array.StringBuilder).Append(fmt.Sprintf("%v", value))
		}
	case arrow.BINARY:
		b, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("expected []byte, got %T", value)
		}
		bldr.(*array.BinaryBuilder).Append(b)
	case arrow.DATE32:
		ts, ok := value.(time.Time)
		if !ok {
			return fmt.Errorf("expected time.Time, got %T", value)
		}
		bldr.(*array.Date32Builder).Append(arrow.Date32FromTime(ts))
	case arrow.TIMESTAMP:
		ts, ok := value.(time.Time)
		if !ok {
			return fmt.Errorf("expected time.Time, got %T", value)
		}
		bldr.(*array.TimestampBuilder).Append(arrow.Timestamp(ts.UnixMicro()))
	case arrow.DECIMAL128:
		decType := dt.(*arrow.Decimal128Type)
		s, ok := value.(string)
		if !ok {
			if f, isFloat := asFloat64(value); isFloat {
				s = strconv.FormatFloat(f, 'f', -1, 64)
			} else {
				return fmt.Errorf("expected decimal string, got %T", value)
			}
		}
		num, err := decimal128.FromString(s, decType.Precision, decType.Scale)
		if err != nil {
			return fmt.Errorf("invalid decimal %q: %w", s, err)
		}
		bldr.(*array.Decimal128Builder).Append(num)
	default:
		return fmt.Errorf("unsupported column type %s", dt)
	}
	return nil
}

func asInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float32:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

func asFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
