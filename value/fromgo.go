package value

import (
	"fmt"
	"math"
	"reflect"
	"sort"
)

// DescLimit bounds the description carried by opaque values.
const DescLimit = 40

// FromGo converts a native Go value. Values with no Ruby counterpart become
// Opaque with a short description instead of failing.
func FromGo(x any) Value {
	switch v := x.(type) {
	case nil:
		return Null()
	case Value:
		return v
	case bool:
		return Bool(v)
	case int:
		return Int(int64(v))
	case int64:
		return Int(v)
	case float64:
		return Float(v)
	case string:
		return Str(v)
	case complex128:
		return Complex(v)
	case [][]float64:
		rows := make([][]Value, len(v))
		for i, r := range v {
			rows[i] = make([]Value, len(r))
			for j, f := range r {
				rows[i][j] = Float(f)
			}
		}
		return Matrix(rows)
	}
	return fromReflect(reflect.ValueOf(x))
}

func fromReflect(rv reflect.Value) Value {
	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return Float(float64(u))
		}
		return Int(int64(u))
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float())
	case reflect.Complex64, reflect.Complex128:
		return Complex(rv.Complex())
	case reflect.String:
		return Str(rv.String())
	case reflect.Slice:
		if rv.IsNil() {
			return Null()
		}
		fallthrough
	case reflect.Array:
		items := make([]Value, rv.Len())
		for i := range items {
			items[i] = FromGo(rv.Index(i).Interface())
		}
		return List(items...)
	case reflect.Map:
		if rv.IsNil() {
			return Null()
		}
		return fromMap(rv)
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null()
		}
		return FromGo(rv.Elem().Interface())
	case reflect.Invalid:
		return Null()
	}
	return Opaque(describe(rv))
}

// fromMap converts map[K]struct{} to a set and every other map to a
// mapping with stringified keys in sorted order.
func fromMap(rv reflect.Value) Value {
	keys := rv.MapKeys()
	type kv struct {
		key string
		k   reflect.Value
	}
	sorted := make([]kv, len(keys))
	for i, k := range keys {
		sorted[i] = kv{key: fmt.Sprint(k.Interface()), k: k}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].key < sorted[j].key })

	if et := rv.Type().Elem(); et.Kind() == reflect.Struct && et.NumField() == 0 {
		items := make([]Value, len(sorted))
		for i, s := range sorted {
			items[i] = FromGo(s.k.Interface())
		}
		return Set(items...)
	}

	entries := make([]Entry, len(sorted))
	for i, s := range sorted {
		entries[i] = Entry{Key: s.key, Value: FromGo(rv.MapIndex(s.k).Interface())}
	}
	return Map(entries...)
}

func describe(rv reflect.Value) string {
	var s string
	if rv.CanInterface() {
		s = fmt.Sprintf("%T %v", rv.Interface(), rv.Interface())
	} else {
		s = rv.Type().String()
	}
	r := []rune(s)
	if len(r) > DescLimit {
		return string(r[:DescLimit-3]) + "..."
	}
	return s
}
