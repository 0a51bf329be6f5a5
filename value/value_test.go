package value

import (
	"math"
	"strings"
	"testing"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindNull, "null"},
		{KindBool, "bool"},
		{KindRange, "range"},
		{KindTable, "table"},
		{KindOpaque, "opaque"},
		{Kind(200), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestZeroValueIsNull(t *testing.T) {
	var v Value
	if !v.IsNull() || v.Kind() != KindNull {
		t.Errorf("zero Value kind = %v, want null", v.Kind())
	}
}

func TestEqual(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"null", Null(), Null(), true},
		{"bool", Bool(true), Bool(true), true},
		{"bool differs", Bool(true), Bool(false), false},
		{"int vs float", Int(1), Float(1), false},
		{"nan", Float(nan), Float(nan), true},
		{"nan vs number", Float(nan), Float(1), false},
		{"complex nan", Complex(complex(nan, 1)), Complex(complex(nan, 1)), true},
		{"string", Str(`1"23`), Str(`1"23`), true},
		{"range", Range(0, 5), Range(0, 5), true},
		{"range vs list", Range(0, 2), List(Int(0), Int(1)), false},
		{"list order", List(Int(1), Int(2)), List(Int(2), Int(1)), false},
		{"set order", Set(Int(1), Str("3")), Set(Str("3"), Int(1)), true},
		{"map order", Map(Pair("a", Int(1)), Pair("b", Int(2))), Map(Pair("b", Int(2)), Pair("a", Int(1))), true},
		{"map value", Map(Pair("a", Int(1))), Map(Pair("a", Int(2))), false},
		{"map key", Map(Pair("a", Int(1))), Map(Pair("b", Int(1))), false},
		{"empty list vs set", List(), Set(), false},
		{"matrix", Matrix([][]Value{{Int(1)}, {Int(2)}}), Matrix([][]Value{{Int(1)}, {Int(2)}}), true},
		{"matrix shape", Matrix([][]Value{{Int(1), Int(2)}}), Matrix([][]Value{{Int(1)}, {Int(2)}}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestTableEqual(t *testing.T) {
	mk := func(name string) Value {
		return NewTable([]Column{{Name: name, Values: []Value{Int(1), Int(2)}}}, nil)
	}
	if !Equal(mk("a"), mk("a")) {
		t.Error("identical tables should be equal")
	}
	if Equal(mk("a"), mk("b")) {
		t.Error("tables with different column names should differ")
	}
}

func TestSetDeduplicates(t *testing.T) {
	s := Set(Int(1), Int(1), Str("1"), Float(math.NaN()), Float(math.NaN()))
	if s.Len() != 3 {
		t.Errorf("Set len = %d, want 3 (%v)", s.Len(), s)
	}
}

func TestMapRepeatedKeyReplaces(t *testing.T) {
	m := Map(Pair("a", Int(1)), Pair("b", Int(2)), Pair("a", Int(3)))
	if m.Len() != 2 {
		t.Fatalf("Len = %d, want 2", m.Len())
	}
	if m.Entries()[0].Key != "a" {
		t.Errorf("first key = %q, want a", m.Entries()[0].Key)
	}
	if v, _ := m.Get("a"); v.Int() != 3 {
		t.Errorf("a = %v, want 3", v)
	}
}

func TestRange(t *testing.T) {
	r := Range(2, 5)
	start, stop := r.Bounds()
	if start != 2 || stop != 5 || r.Len() != 3 {
		t.Errorf("Range(2,5) = %d..%d len %d", start, stop, r.Len())
	}
	if got := List(r.Items()...); !Equal(got, List(Int(2), Int(3), Int(4))) {
		t.Errorf("Items = %v", got)
	}
	if Range(5, 1).Len() != 0 {
		t.Error("inverted range should be empty")
	}
}

func TestRange_WideSpans(t *testing.T) {
	full := Range(math.MinInt64, math.MaxInt64)
	if got := full.Span(); got != math.MaxUint64 {
		t.Errorf("Span = %d, want %d", got, uint64(math.MaxUint64))
	}
	if got := full.Len(); got != math.MaxInt {
		t.Errorf("Len = %d, want saturation at MaxInt", got)
	}
	if full.Items() != nil {
		t.Error("full-span range should not expand")
	}

	over := Range(0, MaxRangeItems+1)
	if over.Items() != nil {
		t.Error("range over MaxRangeItems should not expand")
	}
	if got := len(Range(0, MaxRangeItems).Items()); got != MaxRangeItems {
		t.Errorf("range at the limit expanded to %d items", got)
	}
	if Int(3).Span() != 0 {
		t.Error("Span of a non-range should be 0")
	}
}

func TestNewTableDefaultIndex(t *testing.T) {
	tv := NewTable([]Column{{Name: "x", Values: []Value{Str("a"), Str("b"), Str("c")}}}, nil)
	tab := tv.Table()
	if tab.NumRows() != 3 || tab.Ragged() {
		t.Fatalf("rows = %d ragged = %v", tab.NumRows(), tab.Ragged())
	}
	if !Equal(List(tab.Index...), List(Int(0), Int(1), Int(2))) {
		t.Errorf("index = %v", tab.Index)
	}
	if _, ok := tab.Column("x"); !ok {
		t.Error("column x missing")
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Null(), "nil"},
		{Float(3), "3.0"},
		{Float(math.Inf(-1)), "-Inf"},
		{Complex(complex(1, -2)), "(1.0-2.0i)"},
		{List(Int(1), Str("3")), `[1, "3"]`},
		{Map(Pair("a", Bool(true))), `{"a": true}`},
		{Set(Int(1)), "set{1}"},
		{Range(0, 3), "range(0, 3)"},
		{Opaque("chan int"), "<chan int>"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestShortRepr(t *testing.T) {
	long := Str(strings.Repeat("a", 100))
	got := ShortRepr(long, 20)
	if len([]rune(got)) != 20 || !strings.HasSuffix(got, "...") {
		t.Errorf("ShortRepr = %q", got)
	}
	if ShortRepr(Int(1), 20) != "1" {
		t.Error("short values are not truncated")
	}
}

func TestFromGo(t *testing.T) {
	type point struct{ X, Y int }
	ch := make(chan int)

	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Null()},
		{"bool", true, Bool(true)},
		{"int8", int8(-3), Int(-3)},
		{"uint32", uint32(7), Int(7)},
		{"float32", float32(0.5), Float(0.5)},
		{"complex64", complex64(complex(1, 2)), Complex(complex(1, 2))},
		{"string", `1"23`, Str(`1"23`)},
		{"slice any", []any{1, 2, "3"}, List(Int(1), Int(2), Str("3"))},
		{"typed slice", []bool{true, false}, List(Bool(true), Bool(false))},
		{"nil slice", []int(nil), Null()},
		{"map sorted", map[string]any{"b": 2, "a": 1}, Map(Pair("a", Int(1)), Pair("b", Int(2)))},
		{"int keys", map[int]string{2: "x"}, Map(Pair("2", Str("x")))},
		{"set", map[string]struct{}{"y": {}, "x": {}}, Set(Str("x"), Str("y"))},
		{"pointer", func() *int { n := 4; return &n }(), Int(4)},
		{"nil pointer", (*int)(nil), Null()},
		{"matrix", [][]float64{{1, 2}, {3, 4}}, Matrix([][]Value{{Float(1), Float(2)}, {Float(3), Float(4)}})},
		{"value", Range(0, 2), Range(0, 2)},
		{"nested", map[string]any{"a": map[string]any{"b": 123}, "c": true},
			Map(Pair("a", Map(Pair("b", Int(123)))), Pair("c", Bool(true)))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromGo(tt.in); !Equal(got, tt.want) {
				t.Errorf("FromGo(%#v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if got := FromGo(point{1, 2}); got.Kind() != KindOpaque || !strings.Contains(got.Str(), "point") {
		t.Errorf("struct = %v, want opaque", got)
	}
	if got := FromGo(ch); got.Kind() != KindOpaque {
		t.Errorf("chan = %v, want opaque", got)
	}
	if got := FromGo(strings.Repeat("x", 10)); got.Kind() != KindString {
		t.Errorf("string = %v", got)
	}
	long := FromGo(struct{ S string }{strings.Repeat("x", 100)})
	if n := len([]rune(long.Str())); n > DescLimit {
		t.Errorf("description length %d exceeds %d", n, DescLimit)
	}
}

func TestScope(t *testing.T) {
	s := NewScope()
	s.Set("b", Int(1))
	s.Set("a", Int(2))
	s.Set("b", Int(3))

	if got := strings.Join(s.Names(), ","); got != "b,a" {
		t.Errorf("Names = %s, want b,a", got)
	}
	if v, ok := s.Get("b"); !ok || v.Int() != 3 {
		t.Errorf("Get(b) = %v, %v", v, ok)
	}

	s.Delete("b")
	s.Delete("missing")
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
	if _, ok := s.Get("b"); ok {
		t.Error("b should be gone")
	}
}
