package value

import (
	"math"
)

// Value is an immutable tagged union over the types that can cross the
// Go/Ruby boundary. The zero Value is null.
type Value struct {
	items   []Value
	entries []Entry
	table   *Table
	rows    [][]Value
	str     string
	cplx    complex128
	num     float64
	i       int64
	stop    int64
	b       bool
	kind    Kind
}

// Entry is one key/value pair of a map. Maps keep insertion order.
type Entry struct {
	Key   string
	Value Value
}

// Column is one named column of a table.
type Column struct {
	Name   string
	Values []Value
}

// Table is column-oriented tabular data with a separate row index.
type Table struct {
	Columns []Column
	Index   []Value
}

// NumRows returns the row count implied by the index.
func (t *Table) NumRows() int {
	return len(t.Index)
}

// Column returns the named column.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Ragged reports whether any column length differs from the index length.
func (t *Table) Ragged() bool {
	for _, c := range t.Columns {
		if len(c.Values) != len(t.Index) {
			return true
		}
	}
	return false
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Int returns an integer value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float returns a float value. NaN and infinities are kept as is.
func Float(v float64) Value { return Value{kind: KindFloat, num: v} }

// Complex returns a complex value.
func Complex(v complex128) Value { return Value{kind: KindComplex, cplx: v} }

// Str returns a string value.
func Str(v string) Value { return Value{kind: KindString, str: v} }

// Range returns the integer range [start, stop).
func Range(start, stop int64) Value {
	if stop < start {
		stop = start
	}
	return Value{kind: KindRange, i: start, stop: stop}
}

// List returns an ordered sequence.
func List(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindList, items: items}
}

// Set returns a set. Duplicates are dropped, first occurrence wins.
func Set(items ...Value) Value {
	uniq := make([]Value, 0, len(items))
outer:
	for _, it := range items {
		for _, seen := range uniq {
			if Equal(it, seen) {
				continue outer
			}
		}
		uniq = append(uniq, it)
	}
	return Value{kind: KindSet, items: uniq}
}

// Map returns a mapping. A repeated key replaces the earlier value in place.
func Map(entries ...Entry) Value {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		replaced := false
		for i := range out {
			if out[i].Key == e.Key {
				out[i].Value = e.Value
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, e)
		}
	}
	return Value{kind: KindMap, entries: out}
}

// Pair is shorthand for an Entry literal.
func Pair(key string, v Value) Entry {
	return Entry{Key: key, Value: v}
}

// NewTable returns a table. A nil index defaults to 0..n-1 where n is the
// length of the first column.
func NewTable(columns []Column, index []Value) Value {
	if index == nil {
		n := 0
		if len(columns) > 0 {
			n = len(columns[0].Values)
		}
		index = make([]Value, n)
		for i := range index {
			index[i] = Int(int64(i))
		}
	}
	if columns == nil {
		columns = []Column{}
	}
	return Value{kind: KindTable, table: &Table{Columns: columns, Index: index}}
}

// Matrix returns a matrix of the given rows.
func Matrix(rows [][]Value) Value {
	if rows == nil {
		rows = [][]Value{}
	}
	return Value{kind: KindMatrix, rows: rows}
}

// Opaque wraps a value that has no Ruby representation. desc is a short
// human-readable description used in the placeholder literal.
func Opaque(desc string) Value {
	return Value{kind: KindOpaque, str: desc}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsNaN reports whether v is a NaN float.
func (v Value) IsNaN() bool { return v.kind == KindFloat && math.IsNaN(v.num) }

// Bool returns the boolean payload.
func (v Value) Bool() bool { return v.b }

// Int returns the integer payload.
func (v Value) Int() int64 { return v.i }

// Float returns the float payload.
func (v Value) Float() float64 { return v.num }

// Complex returns the complex payload.
func (v Value) Complex() complex128 { return v.cplx }

// Str returns the string payload, or the description of an opaque value.
func (v Value) Str() string { return v.str }

// Bounds returns start and exclusive stop of a range.
func (v Value) Bounds() (start, stop int64) { return v.i, v.stop }

// MaxRangeItems bounds how many elements Items expands a range into.
const MaxRangeItems = 1 << 20

// Span returns the number of integers in a range, or 0 for other kinds.
// It covers the full int64 span without overflow.
func (v Value) Span() uint64 {
	if v.kind != KindRange {
		return 0
	}
	return uint64(v.stop) - uint64(v.i)
}

// Items returns the elements of a list or set, or the expanded elements of a
// range. A range longer than MaxRangeItems yields nil; check Span first.
func (v Value) Items() []Value {
	if v.kind == KindRange {
		span := v.Span()
		if span > MaxRangeItems {
			return nil
		}
		out := make([]Value, 0, int(span))
		for n := v.i; n < v.stop; n++ {
			out = append(out, Int(n))
		}
		return out
	}
	return v.items
}

// Entries returns the pairs of a map in insertion order.
func (v Value) Entries() []Entry { return v.entries }

// Get looks up a key in a map.
func (v Value) Get(key string) (Value, bool) {
	for _, e := range v.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Table returns the table payload, or nil.
func (v Value) Table() *Table { return v.table }

// Rows returns the rows of a matrix.
func (v Value) Rows() [][]Value { return v.rows }

// Len returns the element count of a composite, or 0 for scalars. Range
// lengths beyond int saturate at math.MaxInt.
func (v Value) Len() int {
	switch v.kind {
	case KindList, KindSet:
		return len(v.items)
	case KindMap:
		return len(v.entries)
	case KindRange:
		if span := v.Span(); span <= math.MaxInt {
			return int(span)
		}
		return math.MaxInt
	case KindTable:
		return v.table.NumRows()
	case KindMatrix:
		return len(v.rows)
	case KindString:
		return len(v.str)
	default:
		return 0
	}
}
