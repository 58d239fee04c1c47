package models

import (
	"encoding/json"
	"fmt"
)

// ColumnType is the type inferred for a table column from its values.
type ColumnType string

const (
	ColumnInt    ColumnType = "int64"
	ColumnFloat  ColumnType = "float64"
	ColumnString ColumnType = "string"
	ColumnBool   ColumnType = "bool"
	// ColumnObject holds mixed or nested values.
	ColumnObject ColumnType = "object"
)

// Column is one named, typed column. Mask[i] is true when row i had no value.
type Column struct {
	Name   string
	Type   ColumnType
	Values []Value
	Mask   []bool
}

func (c *Column) Len() int { return len(c.Values) }

// Floats returns a numeric column as float64. Masked cells read as zero.
func (c *Column) Floats() ([]float64, error) {
	if c.Type != ColumnInt && c.Type != ColumnFloat {
		return nil, fmt.Errorf("column %s: type %s is not numeric", c.Name, c.Type)
	}
	out := make([]float64, len(c.Values))
	for i, v := range c.Values {
		if c.Mask[i] {
			continue
		}
		f, _ := v.Float()
		out[i] = f
	}
	return out, nil
}

// Table is an ordered collection of typed columns of equal length.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// NewTable builds a table from rows. Column order is the first-seen order of
// keys in order; keys absent from order are appended sorted.
func NewTable(order []string, rows []Object) *Table {
	b := NewTableBuilder()
	for _, r := range rows {
		b.AddRow(order, r)
	}
	return b.Build()
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return t.rows
}

func (t *Table) Columns() []*Column {
	if t == nil {
		return nil
	}
	return t.columns
}

func (t *Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns()))
	for _, c := range t.Columns() {
		names = append(names, c.Name)
	}
	return names
}

func (t *Table) Column(name string) (*Column, bool) {
	if t == nil {
		return nil, false
	}
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// Row returns row i as an object; masked cells are left out.
func (t *Table) Row(i int) Object {
	row := make(Object, len(t.columns))
	for _, c := range t.columns {
		if !c.Mask[i] {
			row[c.Name] = c.Values[i]
		}
	}
	return row
}

func (t *Table) Rows() []Object {
	out := make([]Object, t.Len())
	for i := range out {
		out[i] = t.Row(i)
	}
	return out
}

// MarshalJSON encodes the table as an array of row objects.
func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Rows())
}

// TableBuilder accumulates rows and infers column types on Build.
type TableBuilder struct {
	names []string
	cells map[string][]Value
	set   map[string][]bool
	rows  int
}

func NewTableBuilder() *TableBuilder {
	return &TableBuilder{
		cells: make(map[string][]Value),
		set:   make(map[string][]bool),
	}
}

// AddRow appends a row. keys gives the row's key order; fields of row that
// keys does not mention are still added.
func (b *TableBuilder) AddRow(keys []string, row Object) {
	seen := make(map[string]bool, len(row))
	for _, k := range keys {
		if v, ok := row[k]; ok && !seen[k] {
			seen[k] = true
			b.put(k, v)
		}
	}
	for _, k := range row.Keys() {
		if !seen[k] {
			b.put(k, row[k])
		}
	}
	b.rows++
	for _, name := range b.names {
		if len(b.cells[name]) < b.rows {
			b.cells[name] = append(b.cells[name], Null())
			b.set[name] = append(b.set[name], false)
		}
	}
}

func (b *TableBuilder) put(name string, v Value) {
	if _, ok := b.cells[name]; !ok {
		b.names = append(b.names, name)
		b.cells[name] = make([]Value, b.rows, b.rows+1)
		b.set[name] = make([]bool, b.rows, b.rows+1)
	}
	b.cells[name] = append(b.cells[name], v)
	b.set[name] = append(b.set[name], !v.IsNull())
}

func (b *TableBuilder) Build() *Table {
	t := &Table{index: make(map[string]int, len(b.names)), rows: b.rows}
	for i, name := range b.names {
		values := b.cells[name]
		mask := make([]bool, len(values))
		for j, ok := range b.set[name] {
			mask[j] = !ok
		}
		t.columns = append(t.columns, &Column{
			Name:   name,
			Type:   inferType(values, mask),
			Values: values,
			Mask:   mask,
		})
		t.index[name] = i
	}
	return t
}

func inferType(values []Value, mask []bool) ColumnType {
	var typ ColumnType
	for i, v := range values {
		if mask[i] {
			continue
		}
		var cur ColumnType
		switch v.Kind() {
		case KindInt:
			cur = ColumnInt
		case KindFloat:
			cur = ColumnFloat
		case KindString:
			cur = ColumnString
		case KindBool:
			cur = ColumnBool
		default:
			return ColumnObject
		}
		switch {
		case typ == "":
			typ = cur
		case typ == cur:
		case (typ == ColumnInt && cur == ColumnFloat) || (typ == ColumnFloat && cur == ColumnInt):
			typ = ColumnFloat
		default:
			return ColumnObject
		}
	}
	if typ == "" {
		return ColumnObject
	}
	return typ
}
