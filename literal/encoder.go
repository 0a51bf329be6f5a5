package literal

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/wippyai/rubybridge/errors"
	"github.com/wippyai/rubybridge/value"
)

// UnsupportedPrefix starts the placeholder string for values with no Ruby form.
const UnsupportedPrefix = "Unsupported datatype "

// WarnFunc receives one errors.KindDegraded error per lossy conversion.
type WarnFunc func(*errors.Error)

// Encoder renders values as Ruby literals. It holds no per-call state and
// is safe for concurrent use.
type Encoder struct {
	logger *zap.Logger
	warn   WarnFunc
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithLogger logs degradations at warn level.
func WithLogger(l *zap.Logger) Option {
	return func(e *Encoder) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithWarnFunc registers a hook for degradations.
func WithWarnFunc(f WarnFunc) Option {
	return func(e *Encoder) {
		e.warn = f
	}
}

func NewEncoder(opts ...Option) *Encoder {
	e := &Encoder{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEncoder = NewEncoder()

// Encode renders v with a silent encoder.
func Encode(v value.Value) string {
	return defaultEncoder.Encode(v)
}

// Encode renders v as a Ruby literal. It never fails.
func (e *Encoder) Encode(v value.Value) string {
	return e.EncodeNamed("", v)
}

// EncodeNamed renders v; name prefixes the path of any reported degradation.
func (e *Encoder) EncodeNamed(name string, v value.Value) string {
	b := getBuf()
	defer putBuf(b)

	var path []string
	if name != "" {
		path = []string{name}
	}
	e.write(b, v, path)
	return b.String()
}

func (e *Encoder) write(b *bytes.Buffer, v value.Value, path []string) {
	switch v.Kind() {
	case value.KindBool:
		if v.Bool() {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}

	case value.KindFloat:
		writeFloat(b, v.Float())

	case value.KindInt:
		b.WriteString(strconv.FormatInt(v.Int(), 10))

	case value.KindString:
		writeString(b, v.Str())

	case value.KindComplex:
		c := v.Complex()
		b.WriteString("Complex(")
		writeFloat(b, real(c))
		b.WriteString(", ")
		writeFloat(b, imag(c))
		b.WriteByte(')')

	case value.KindRange:
		start, stop := v.Bounds()
		b.WriteByte('(')
		b.WriteString(strconv.FormatInt(start, 10))
		b.WriteString("...")
		b.WriteString(strconv.FormatInt(stop, 10))
		b.WriteByte(')')

	case value.KindList:
		b.WriteByte('[')
		e.writeItems(b, v.Items(), path)
		b.WriteByte(']')

	case value.KindNull:
		b.WriteString("nil")

	case value.KindMap:
		b.WriteByte('{')
		for i, ent := range v.Entries() {
			if i > 0 {
				b.WriteString(", ")
			}
			writeString(b, ent.Key)
			b.WriteString(" => ")
			e.write(b, ent.Value, appendPath(path, ent.Key))
		}
		b.WriteByte('}')

	case value.KindSet:
		b.WriteString("Set[")
		e.writeItems(b, v.Items(), path)
		b.WriteByte(']')

	case value.KindTable:
		e.writeTable(b, v, path)

	case value.KindMatrix:
		e.writeMatrix(b, v, path)

	case value.KindOpaque:
		e.unsupported(b, v.Str(), path)

	default:
		e.unsupported(b, v.Kind().String(), path)
	}
}

func (e *Encoder) writeItems(b *bytes.Buffer, items []value.Value, path []string) {
	for i, it := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		e.write(b, it, appendPath(path, "["+strconv.Itoa(i)+"]"))
	}
}

func (e *Encoder) writeTable(b *bytes.Buffer, v value.Value, path []string) {
	t := v.Table()
	if t == nil || t.Ragged() {
		e.unsupported(b, value.ShortRepr(v, value.DescLimit), path)
		return
	}

	b.WriteString("Daru::DataFrame.new({")
	for i, col := range t.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		writeString(b, col.Name)
		b.WriteString(" => [")
		cells := col.Values
		colPath := appendPath(path, col.Name)
		if !homogeneous(cells) {
			cells = stringify(cells)
			e.degrade(colPath, "column with mixed types converted to string")
		}
		e.writeItems(b, cells, colPath)
		b.WriteByte(']')
	}
	b.WriteString("}, order: [")
	for i, col := range t.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		writeString(b, col.Name)
	}
	b.WriteString("], index: [")
	e.writeItems(b, t.Index, appendPath(path, "index"))
	b.WriteString("])")
}

func (e *Encoder) writeMatrix(b *bytes.Buffer, v value.Value, path []string) {
	rows := v.Rows()
	for _, row := range rows {
		if len(row) != len(rows[0]) {
			e.unsupported(b, value.ShortRepr(v, value.DescLimit), path)
			return
		}
		for _, cell := range row {
			if !cell.Kind().IsNumeric() {
				e.unsupported(b, value.ShortRepr(v, value.DescLimit), path)
				return
			}
		}
	}

	b.WriteString("Matrix[")
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('[')
		e.writeItems(b, row, path)
		b.WriteByte(']')
	}
	b.WriteByte(']')
}

func (e *Encoder) unsupported(b *bytes.Buffer, desc string, path []string) {
	writeString(b, UnsupportedPrefix+desc)
	e.degrade(path, "unsupported datatype "+desc)
}

func (e *Encoder) degrade(path []string, detail string) {
	err := errors.Degraded(path, detail)
	e.logger.Warn("lossy conversion",
		zap.String("path", strings.Join(path, ".")),
		zap.String("detail", detail))
	if e.warn != nil {
		e.warn(err)
	}
}

func appendPath(path []string, elem string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = elem
	return out
}

// homogeneous reports whether the non-null cells share one kind. Ints and
// floats count as one numeric kind.
func homogeneous(cells []value.Value) bool {
	first := value.KindNull
	for _, c := range cells {
		k := c.Kind()
		if k == value.KindNull {
			continue
		}
		if k == value.KindInt {
			k = value.KindFloat
		}
		if first == value.KindNull {
			first = k
			continue
		}
		if k != first {
			return false
		}
	}
	return true
}

func stringify(cells []value.Value) []value.Value {
	out := make([]value.Value, len(cells))
	for i, c := range cells {
		switch c.Kind() {
		case value.KindNull, value.KindString:
			out[i] = c
		default:
			out[i] = value.Str(c.String())
		}
	}
	return out
}

func writeFloat(b *bytes.Buffer, f float64) {
	switch {
	case math.IsNaN(f):
		b.WriteString("Float::NAN")
		return
	case math.IsInf(f, 1):
		b.WriteString("Float::INFINITY")
		return
	case math.IsInf(f, -1):
		b.WriteString("-Float::INFINITY")
		return
	}

	// Ruby reads a Float only with digits on both sides of the dot.
	s := strconv.FormatFloat(f, 'g', -1, 64)
	mant, exp, hasExp := strings.Cut(s, "e")
	b.WriteString(mant)
	if !strings.Contains(mant, ".") {
		b.WriteString(".0")
	}
	if hasExp {
		b.WriteByte('e')
		b.WriteString(exp)
	}
}

const hexDigits = "0123456789abcdef"

// writeString emits a double-quoted Ruby string. '#' is always escaped so
// no interpolation can occur. Control bytes without a named escape, and
// invalid UTF-8 bytes, are written as \xNN.
func writeString(b *bytes.Buffer, s string) {
	b.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			writeHexByte(b, s[i])
			i++
			continue
		}
		i += size

		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '#':
			b.WriteString(`\#`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case '\x1b':
			b.WriteString(`\e`)
		case '\a':
			b.WriteString(`\a`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\v':
			b.WriteString(`\v`)
		default:
			if r < 0x20 || r == 0x7f {
				writeHexByte(b, byte(r))
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
}

func writeHexByte(b *bytes.Buffer, c byte) {
	b.WriteString(`\x`)
	b.WriteByte(hexDigits[c>>4])
	b.WriteByte(hexDigits[c&0xf])
}
