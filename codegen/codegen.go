// Package codegen renders a namespace of values as Go source, so data pulled
// from Ruby can be checked into a Go program as fixtures.
package codegen

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/dave/jennifer/jen"

	"github.com/wippyai/rubybridge/errors"
	"github.com/wippyai/rubybridge/value"
)

const valuePkg = "github.com/wippyai/rubybridge/value"

// Generate returns a Go file in package pkg declaring one exported variable
// per scope entry and a Scope function rebuilding the namespace.
func Generate(pkg string, scope *value.Scope) ([]byte, error) {
	if !isIdent(pkg) {
		return nil, errors.InvalidInput(errors.PhaseConfig, strconv.Quote(pkg)+" is not a valid package name")
	}

	if scope == nil {
		scope = value.NewScope()
	}

	f := jen.NewFile(pkg)
	f.ImportName(valuePkg, "value")
	f.HeaderComment("Code generated by rbx; DO NOT EDIT.")

	names := scope.Names()
	idents := identifiers(names)

	if len(names) > 0 {
		f.Comment("Values pulled from the Ruby session.")
		f.Var().DefsFunc(func(g *jen.Group) {
			for _, n := range names {
				v, _ := scope.Get(n)
				g.Id(idents[n]).Op("=").Add(expr(v))
			}
		})
		f.Line()
	}

	f.Comment("Scope returns a namespace holding the values under their Ruby names.")
	f.Func().Id("Scope").Params().Op("*").Qual(valuePkg, "Scope").BlockFunc(func(g *jen.Group) {
		g.Id("s").Op(":=").Qual(valuePkg, "NewScope").Call()
		for _, n := range names {
			g.Id("s").Dot("Set").Call(jen.Lit(n), jen.Id(idents[n]))
		}
		g.Return(jen.Id("s"))
	})

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, errors.Wrap(errors.PhaseEncode, errors.KindInvalidData, err, "render Go source")
	}
	return buf.Bytes(), nil
}

// expr builds the constructor expression for v.
func expr(v value.Value) *jen.Statement {
	q := func(name string) *jen.Statement { return jen.Qual(valuePkg, name) }

	switch v.Kind() {
	case value.KindNull:
		return q("Null").Call()
	case value.KindBool:
		return q("Bool").Call(jen.Lit(v.Bool()))
	case value.KindInt:
		return q("Int").Call(intLit(v.Int()))
	case value.KindFloat:
		return q("Float").Call(floatExpr(v.Float()))
	case value.KindComplex:
		c := v.Complex()
		return q("Complex").Call(jen.Complex(floatExpr(real(c)), floatExpr(imag(c))))
	case value.KindString:
		return q("Str").Call(jen.Lit(v.Str()))
	case value.KindRange:
		start, stop := v.Bounds()
		return q("Range").Call(intLit(start), intLit(stop))
	case value.KindList:
		return q("List").CallFunc(items(v.Items()))
	case value.KindSet:
		return q("Set").CallFunc(items(v.Items()))
	case value.KindMap:
		return q("Map").CallFunc(func(g *jen.Group) {
			for _, e := range v.Entries() {
				g.Line().Add(q("Pair").Call(jen.Lit(e.Key), expr(e.Value)))
			}
		})
	case value.KindTable:
		t := v.Table()
		cols := jen.Index().Qual(valuePkg, "Column").ValuesFunc(func(g *jen.Group) {
			for _, c := range t.Columns {
				g.Line().Values(jen.Dict{
					jen.Id("Name"):   jen.Lit(c.Name),
					jen.Id("Values"): valueSlice(c.Values),
				})
			}
		})
		return q("NewTable").Call(cols, valueSlice(t.Index))
	case value.KindMatrix:
		rows := jen.Index().Index().Qual(valuePkg, "Value").ValuesFunc(func(g *jen.Group) {
			for _, r := range v.Rows() {
				g.ValuesFunc(func(rg *jen.Group) {
					for _, c := range r {
						rg.Add(expr(c))
					}
				})
			}
		})
		return q("Matrix").Call(rows)
	case value.KindOpaque:
		return q("Opaque").Call(jen.Lit(v.Str()))
	}
	return q("Null").Call()
}

func items(vs []value.Value) func(*jen.Group) {
	return func(g *jen.Group) {
		for _, it := range vs {
			if it.Kind().IsScalar() {
				g.Add(expr(it))
			} else {
				g.Line().Add(expr(it))
			}
		}
	}
}

func valueSlice(vs []value.Value) *jen.Statement {
	return jen.Index().Qual(valuePkg, "Value").ValuesFunc(items(vs))
}

// intLit renders n as an untyped constant.
func intLit(n int64) *jen.Statement {
	return jen.Op(strconv.FormatInt(n, 10))
}

func floatExpr(f float64) *jen.Statement {
	switch {
	case math.IsNaN(f):
		return jen.Qual("math", "NaN").Call()
	case math.IsInf(f, 1):
		return jen.Qual("math", "Inf").Call(jen.Lit(1))
	case math.IsInf(f, -1):
		return jen.Qual("math", "Inf").Call(jen.Lit(-1))
	case f == 0 && math.Signbit(f):
		return jen.Qual("math", "Copysign").Call(jen.Lit(0.0), jen.Lit(-1.0))
	}
	return jen.Lit(f)
}

// identifiers maps Ruby names to distinct exported Go identifiers:
// num_var becomes NumVar.
func identifiers(names []string) map[string]string {
	out := make(map[string]string, len(names))
	used := map[string]bool{"Scope": true}
	for _, n := range names {
		id := camel(n)
		base := id
		for i := 2; used[id]; i++ {
			id = base + strconv.Itoa(i)
		}
		used[id] = true
		out[n] = id
	}
	return out
}

func camel(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	id := b.String()
	if id == "" || !unicode.IsLetter([]rune(id)[0]) {
		id = "V" + id
	}
	return id
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r != '_' && !unicode.IsLetter(r) && (i == 0 || !unicode.IsDigit(r)) {
			return false
		}
	}
	return true
}
