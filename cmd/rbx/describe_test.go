package main

import (
	"testing"

	"github.com/wippyai/rubybridge/value"
)

func TestWitTypeStr(t *testing.T) {
	tests := []struct {
		name string
		in   value.Value
		want string
	}{
		{"null", value.Null(), "nil"},
		{"bool", value.Bool(true), "bool"},
		{"int", value.Int(1), "s64"},
		{"float", value.Float(1.5), "f64"},
		{"string", value.Str("x"), "string"},
		{"complex", value.Complex(1 + 2i), "tuple<f64, f64>"},
		{"range", value.Range(0, 3), "range"},
		{"int list", value.List(value.Int(1), value.Int(2)), "list<s64>"},
		{"mixed list", value.List(value.Int(1), value.Str("a")), "list<any>"},
		{"empty list", value.List(), "list<any>"},
		{"set", value.Set(value.Str("a")), "list<string>"},
		{"map", value.Map(value.Pair("a", value.Float(1))), "list<tuple<string, f64>>"},
		{"nested", value.List(value.List(value.Bool(true))), "list<list<bool>>"},
		{
			"table",
			value.NewTable([]value.Column{
				{Name: "a", Values: []value.Value{value.Int(1)}},
				{Name: "b", Values: []value.Value{value.Str("x")}},
			}, nil),
			"record { a: list<s64>, b: list<string> }",
		},
		{"matrix", value.Matrix([][]value.Value{{value.Float(1), value.Float(2)}}), "list<list<f64>>"},
		{"opaque", value.Opaque("chan int"), "opaque"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := witTypeStr(witType(tt.in)); got != tt.want {
				t.Errorf("witTypeStr(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
