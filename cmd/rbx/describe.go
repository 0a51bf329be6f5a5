package main

import (
	"fmt"
	"strings"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/rubybridge/value"
)

func named(name string, kind wit.TypeDefKind) *wit.TypeDef {
	return &wit.TypeDef{Name: &name, Kind: kind}
}

// witType describes the shape of v as a WIT type. Heterogeneous
// collections get the named type "any".
func witType(v value.Value) wit.Type {
	switch v.Kind() {
	case value.KindNull:
		return named("nil", &wit.Option{Type: wit.Bool{}})
	case value.KindBool:
		return wit.Bool{}
	case value.KindInt:
		return wit.S64{}
	case value.KindFloat:
		return wit.F64{}
	case value.KindComplex:
		return &wit.TypeDef{Kind: &wit.Tuple{Types: []wit.Type{wit.F64{}, wit.F64{}}}}
	case value.KindString:
		return wit.String{}
	case value.KindRange:
		return named("range", &wit.Record{Fields: []wit.Field{
			{Name: "start", Type: wit.S64{}},
			{Name: "stop", Type: wit.S64{}},
		}})
	case value.KindList, value.KindSet:
		return &wit.TypeDef{Kind: &wit.List{Type: elemType(v.Items())}}
	case value.KindMap:
		vals := make([]value.Value, 0, v.Len())
		for _, e := range v.Entries() {
			vals = append(vals, e.Value)
		}
		pair := &wit.TypeDef{Kind: &wit.Tuple{Types: []wit.Type{wit.String{}, elemType(vals)}}}
		return &wit.TypeDef{Kind: &wit.List{Type: pair}}
	case value.KindTable:
		t := v.Table()
		fields := make([]wit.Field, 0, len(t.Columns))
		for _, c := range t.Columns {
			fields = append(fields, wit.Field{
				Name: c.Name,
				Type: &wit.TypeDef{Kind: &wit.List{Type: elemType(c.Values)}},
			})
		}
		return &wit.TypeDef{Kind: &wit.Record{Fields: fields}}
	case value.KindMatrix:
		var cells []value.Value
		for _, r := range v.Rows() {
			cells = append(cells, r...)
		}
		row := &wit.TypeDef{Kind: &wit.List{Type: elemType(cells)}}
		return &wit.TypeDef{Kind: &wit.List{Type: row}}
	case value.KindOpaque:
		return named("opaque", &wit.Resource{})
	}
	return named("any", &wit.Variant{})
}

// elemType is the common element type of vs, or "any".
func elemType(vs []value.Value) wit.Type {
	if len(vs) == 0 {
		return named("any", &wit.Variant{})
	}
	first := witType(vs[0])
	want := witTypeStr(first)
	for _, v := range vs[1:] {
		if witTypeStr(witType(v)) != want {
			return named("any", &wit.Variant{})
		}
	}
	return first
}

func witTypeStr(t wit.Type) string {
	switch v := t.(type) {
	case wit.Bool:
		return "bool"
	case wit.S64:
		return "s64"
	case wit.F64:
		return "f64"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		if v.Name != nil {
			return *v.Name
		}
		switch k := v.Kind.(type) {
		case *wit.List:
			return "list<" + witTypeStr(k.Type) + ">"
		case *wit.Option:
			return "option<" + witTypeStr(k.Type) + ">"
		case *wit.Tuple:
			parts := make([]string, len(k.Types))
			for i, e := range k.Types {
				parts[i] = witTypeStr(e)
			}
			return "tuple<" + strings.Join(parts, ", ") + ">"
		case *wit.Record:
			parts := make([]string, len(k.Fields))
			for i, f := range k.Fields {
				parts[i] = f.Name + ": " + witTypeStr(f.Type)
			}
			return "record { " + strings.Join(parts, ", ") + " }"
		}
		return "typedef"
	default:
		return fmt.Sprintf("%T", t)
	}
}
