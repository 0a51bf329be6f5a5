package value

import "math"

// Equal reports structural equality. NaN equals NaN; an int never equals a
// float. Sets and maps compare without regard to order, lists and table
// columns element-wise.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}

	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindFloat:
		return floatEqual(a.num, b.num)
	case KindComplex:
		return floatEqual(real(a.cplx), real(b.cplx)) && floatEqual(imag(a.cplx), imag(b.cplx))
	case KindString, KindOpaque:
		return a.str == b.str
	case KindRange:
		return a.i == b.i && a.stop == b.stop
	case KindList:
		return sliceEqual(a.items, b.items)
	case KindSet:
		if len(a.items) != len(b.items) {
			return false
		}
		for _, x := range a.items {
			if !contains(b.items, x) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.entries) != len(b.entries) {
			return false
		}
		for _, e := range a.entries {
			other, ok := b.Get(e.Key)
			if !ok || !Equal(e.Value, other) {
				return false
			}
		}
		return true
	case KindTable:
		return tableEqual(a.table, b.table)
	case KindMatrix:
		if len(a.rows) != len(b.rows) {
			return false
		}
		for i := range a.rows {
			if !sliceEqual(a.rows[i], b.rows[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func floatEqual(x, y float64) bool {
	if math.IsNaN(x) || math.IsNaN(y) {
		return math.IsNaN(x) && math.IsNaN(y)
	}
	return x == y
}

func sliceEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func contains(items []Value, v Value) bool {
	for _, it := range items {
		if Equal(it, v) {
			return true
		}
	}
	return false
}

func tableEqual(a, b *Table) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.Columns) != len(b.Columns) || !sliceEqual(a.Index, b.Index) {
		return false
	}
	for i := range a.Columns {
		if a.Columns[i].Name != b.Columns[i].Name {
			return false
		}
		if !sliceEqual(a.Columns[i].Values, b.Columns[i].Values) {
			return false
		}
	}
	return true
}
