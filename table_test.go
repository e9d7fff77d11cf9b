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
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTableFromRows(t *testing.T) {
	tbl, err := NewTable([][]any{{1, "a"}, {2, "b"}}, []string{"id", "name"})
	require.NoError(t, err)
	defer tbl.Release()

	assert.EqualValues(t, 2, tbl.NumRows())
	assert.EqualValues(t, 2, tbl.NumCols())
	assert.Equal(t, []string{"id", "name"}, tbl.ColumnNames())

	ids, ok := tbl.Column("id")
	require.True(t, ok)
	assert.Equal(t, int64(1), ids.(*array.Int64).Value(0))
	assert.Equal(t, int64(2), ids.(*array.Int64).Value(1))

	names, ok := tbl.Column("name")
	require.True(t, ok)
	assert.Equal(t, "a", names.(*array.String).Value(0))
	assert.Equal(t, "b", names.(*array.String).Value(1))

	_, ok = tbl.Column("missing")
	assert.False(t, ok)
}

func TestNewTableWidthMismatch(t *testing.T) {
	_, err := NewTable([][]any{{1, "a"}, {2}}, []string{"id", "name"})
	var dbxErr Error
	require.ErrorAs(t, err, &dbxErr)
	assert.Equal(t, StatusConversion, dbxErr.Code)
}

func TestNewTableEmpty(t *testing.T) {
	tbl, err := NewTable(nil, []string{"id", "name"})
	require.NoError(t, err)
	defer tbl.Release()

	assert.EqualValues(t, 0, tbl.NumRows())
	assert.Equal(t, []string{"id", "name"}, tbl.ColumnNames())
}

func TestNewTableNullValues(t *testing.T) {
	tbl, err := NewTable([][]any{{1, nil}, {nil, "b"}}, []string{"id", "name"})
	require.NoError(t, err)
	defer tbl.Release()

	ids, _ := tbl.Column("id")
	assert.False(t, ids.IsNull(0))
	assert.True(t, ids.IsNull(1))

	names, _ := tbl.Column("name")
	assert.True(t, names.IsNull(0))
	assert.False(t, names.IsNull(1))
}

func TestTableHead(t *testing.T) {
	tbl, err := NewTable([][]any{{1}, {2}, {3}, {4}, {5}}, []string{"n"})
	require.NoError(t, err)
	defer tbl.Release()

	head := tbl.Head(2)
	defer head.Release()
	assert.EqualValues(t, 2, head.NumRows())

	all := tbl.Head(10)
	defer all.Release()
	assert.EqualValues(t, 5, all.NumRows())
}

func TestTableEqual(t *testing.T) {
	a, err := NewTable([][]any{{1, "a"}}, []string{"id", "name"})
	require.NoError(t, err)
	defer a.Release()

	b, err := NewTable([][]any{{1, "a"}}, []string{"id", "name"})
	require.NoError(t, err)
	defer b.Release()

	c, err := NewTable([][]any{{2, "b"}}, []string{"id", "name"})
	require.NoError(t, err)
	defer c.Release()

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestArrowTypeForDatabaseType(t *testing.T) {
	tests := []struct {
		dbType string
		want   arrow.DataType
	}{
		{"BOOLEAN", arrow.FixedWidthTypes.Boolean},
		{"TINYINT", arrow.PrimitiveTypes.Int8},
		{"SMALLINT", arrow.PrimitiveTypes.Int16},
		{"INT", arrow.PrimitiveTypes.Int32},
		{"BIGINT", arrow.PrimitiveTypes.Int64},
		{"FLOAT", arrow.PrimitiveTypes.Float32},
		{"DOUBLE", arrow.PrimitiveTypes.Float64},
		{"STRING", arrow.BinaryTypes.String},
		{"BINARY", arrow.BinaryTypes.Binary},
		{"TIMESTAMP", arrow.FixedWidthTypes.Timestamp_us},
		{"DATE", arrow.FixedWidthTypes.Date32},
		{"MAP", arrow.BinaryTypes.String}, // unknown types fall back to string
	}
	for _, tt := range tests {
		t.Run(tt.dbType, func(t *testing.T) {
			assert.True(t, arrow.TypeEqual(tt.want, arrowTypeForDatabaseType(tt.dbType, 0, 0, false)))
		})
	}

	dec := arrowTypeForDatabaseType("DECIMAL", 10, 2, true)
	require.IsType(t, &arrow.Decimal128Type{}, dec)
	assert.Equal(t, int32(10), dec.(*arrow.Decimal128Type).Precision)
	assert.Equal(t, int32(2), dec.(*arrow.Decimal128Type).Scale)
}

func TestNewTableTemporalAndDecimal(t *testing.T) {
	alloc := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer alloc.AssertSize(t, 0)

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "ts", Type: arrow.FixedWidthTypes.Timestamp_us, Nullable: true},
		{Name: "d", Type: arrow.FixedWidthTypes.Date32, Nullable: true},
		{Name: "amount", Type: &arrow.Decimal128Type{Precision: 10, Scale: 2}, Nullable: true},
	}, nil)

	when := time.Date(2024, 7, 1, 12, 30, 0, 0, time.UTC)
	tbl, err := newTable(alloc, schema, [][]any{{when, when, "123.45"}})
	require.NoError(t, err)
	defer tbl.Release()

	require.EqualValues(t, 1, tbl.NumRows())
	ts, _ := tbl.Column("ts")
	assert.Equal(t, arrow.Timestamp(when.UnixMicro()), ts.(*array.Timestamp).Value(0))
	d, _ := tbl.Column("d")
	assert.Equal(t, arrow.Date32FromTime(when), d.(*array.Date32).Value(0))
}

func TestNewTableTypeMismatch(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	}, nil)

	_, err := newTable(memory.DefaultAllocator, schema, [][]any{{"not a number"}})
	var dbxErr Error
	require.ErrorAs(t, err, &dbxErr)
	assert.Equal(t, StatusConversion, dbxErr.Code)
}
