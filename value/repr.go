package value

import (
	"math"
	"strconv"
	"strings"
)

// String renders v for display. It is not a Ruby literal; use the literal
// package for that.
func (v Value) String() string {
	var b strings.Builder
	writeRepr(&b, v)
	return b.String()
}

// ShortRepr renders v truncated to limit runes, ending in "..." when cut.
func ShortRepr(v Value, limit int) string {
	s := v.String()
	r := []rune(s)
	if limit <= 3 || len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}

func writeRepr(b *strings.Builder, v Value) {
	switch v.kind {
	case KindNull:
		b.WriteString("nil")
	case KindBool:
		b.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		b.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		b.WriteString(formatFloat(v.num))
	case KindComplex:
		b.WriteByte('(')
		b.WriteString(formatFloat(real(v.cplx)))
		im := imag(v.cplx)
		if im >= 0 || math.IsNaN(im) {
			b.WriteByte('+')
		}
		b.WriteString(formatFloat(im))
		b.WriteString("i)")
	case KindString:
		b.WriteString(strconv.Quote(v.str))
	case KindRange:
		b.WriteString("range(")
		b.WriteString(strconv.FormatInt(v.i, 10))
		b.WriteString(", ")
		b.WriteString(strconv.FormatInt(v.stop, 10))
		b.WriteByte(')')
	case KindList:
		b.WriteByte('[')
		writeItems(b, v.items)
		b.WriteByte(']')
	case KindSet:
		b.WriteString("set{")
		writeItems(b, v.items)
		b.WriteByte('}')
	case KindMap:
		b.WriteByte('{')
		for i, e := range v.entries {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.Quote(e.Key))
			b.WriteString(": ")
			writeRepr(b, e.Value)
		}
		b.WriteByte('}')
	case KindTable:
		t := v.table
		b.WriteString("table(")
		b.WriteString(strconv.Itoa(t.NumRows()))
		b.WriteByte('x')
		b.WriteString(strconv.Itoa(len(t.Columns)))
		b.WriteString("){")
		for i, c := range t.Columns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.Quote(c.Name))
			b.WriteString(": [")
			writeItems(b, c.Values)
			b.WriteByte(']')
		}
		b.WriteByte('}')
	case KindMatrix:
		b.WriteString("matrix[")
		for i, row := range v.rows {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteByte('[')
			writeItems(b, row)
			b.WriteByte(']')
		}
		b.WriteByte(']')
	case KindOpaque:
		b.WriteByte('<')
		b.WriteString(v.str)
		b.WriteByte('>')
	default:
		b.WriteString("<unknown>")
	}
}

func writeItems(b *strings.Builder, items []Value) {
	for i, it := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		writeRepr(b, it)
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
