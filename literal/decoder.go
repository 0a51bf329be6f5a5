package literal

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/wippyai/rubybridge/errors"
	"github.com/wippyai/rubybridge/value"
)

// Safety limits for text received from the interpreter.
const (
	MaxLiteralSize = 64 << 20 // 64 MB
	MaxDepth       = 512
)

// Decode parses a Ruby literal into a Value. Anything outside the literal
// grammar, including trailing input, is an error of kind
// errors.KindInvalidData carrying the offending text.
func Decode(text string) (value.Value, error) {
	if len(text) > MaxLiteralSize {
		return value.Value{}, errors.DecodeFailed(text, 0,
			"literal exceeds "+strconv.Itoa(MaxLiteralSize)+" bytes", nil)
	}

	p := &parser{src: text}
	p.skipSpace()
	if p.eof() {
		return value.Value{}, p.fail("empty literal", nil)
	}

	v, err := p.parseValue(0)
	if err != nil {
		return value.Value{}, err
	}

	p.skipSpace()
	if !p.eof() {
		return value.Value{}, p.fail("unexpected trailing input", nil)
	}
	return v, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) rest() string {
	return p.src[p.pos:]
}

func (p *parser) fail(detail string, cause error) *errors.Error {
	return errors.DecodeFailed(p.src, p.pos, detail, cause)
}

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

// consume skips whitespace and then tok if present.
func (p *parser) consume(tok string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.rest(), tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

func (p *parser) expect(tok string) error {
	if !p.consume(tok) {
		if p.eof() {
			return p.fail("expected "+strconv.Quote(tok)+", got end of input", nil)
		}
		return p.fail("expected "+strconv.Quote(tok), nil)
	}
	return nil
}

func (p *parser) parseValue(depth int) (value.Value, error) {
	if depth > MaxDepth {
		return value.Value{}, p.fail("nesting exceeds "+strconv.Itoa(MaxDepth), nil)
	}

	p.skipSpace()
	if p.eof() {
		return value.Value{}, p.fail("unexpected end of input", nil)
	}

	c := p.peek()
	switch {
	case c == '"':
		s, err := p.parseDoubleQuoted()
		return value.Str(s), err
	case c == '\'':
		s, err := p.parseSingleQuoted()
		return value.Str(s), err
	case c == '[':
		p.pos++
		items, err := p.parseElements(']', depth)
		if err != nil {
			return value.Value{}, err
		}
		return value.List(items...), nil
	case c == '{':
		return p.parseHash(depth)
	case c == '(':
		p.pos++
		v, err := p.parseValue(depth + 1)
		if err != nil {
			return value.Value{}, err
		}
		if err := p.expect(")"); err != nil {
			return value.Value{}, err
		}
		return v, nil
	case c == '-' || c == '+' || isDigit(c):
		return p.parseNumberOrRange()
	case isIdentStart(c):
		return p.parseConstruct(depth)
	}
	return value.Value{}, p.fail("unexpected character "+strconv.QuoteRune(rune(c)), nil)
}

// parseElements reads comma-separated values up to close; the opening
// bracket has been consumed. A trailing comma is allowed.
func (p *parser) parseElements(close byte, depth int) ([]value.Value, error) {
	items := []value.Value{}
	for {
		if p.consume(string(close)) {
			return items, nil
		}
		v, err := p.parseValue(depth + 1)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		if p.consume(",") {
			continue
		}
		if err := p.expect(string(close)); err != nil {
			return nil, err
		}
		return items, nil
	}
}

func (p *parser) parseHash(depth int) (value.Value, error) {
	p.pos++ // '{'
	var entries []value.Entry
	for {
		if p.consume("}") {
			return value.Map(entries...), nil
		}
		key, err := p.parseKey()
		if err != nil {
			return value.Value{}, err
		}
		v, err := p.parseValue(depth + 1)
		if err != nil {
			return value.Value{}, err
		}
		entries = append(entries, value.Entry{Key: key, Value: v})
		if p.consume(",") {
			continue
		}
		if err := p.expect("}"); err != nil {
			return value.Value{}, err
		}
		return value.Map(entries...), nil
	}
}

// parseKey reads a hash key and its separator: "k" =>, "k":, :k =>, k:,
// or a number followed by =>.
func (p *parser) parseKey() (string, error) {
	p.skipSpace()
	c := p.peek()
	switch {
	case c == '"' || c == '\'':
		var key string
		var err error
		if c == '"' {
			key, err = p.parseDoubleQuoted()
		} else {
			key, err = p.parseSingleQuoted()
		}
		if err != nil {
			return "", err
		}
		if strings.HasPrefix(p.rest(), ":") && !strings.HasPrefix(p.rest(), "::") {
			p.pos++
			return key, nil
		}
		return key, p.expect("=>")

	case c == ':':
		p.pos++
		if p.peek() == '"' {
			key, err := p.parseDoubleQuoted()
			if err != nil {
				return "", err
			}
			return key, p.expect("=>")
		}
		key := p.ident()
		if key == "" {
			return "", p.fail("expected symbol name", nil)
		}
		return key, p.expect("=>")

	case isIdentStart(c):
		key := p.ident()
		if p.peek() != ':' {
			return "", p.fail("expected ':' after label "+strconv.Quote(key), nil)
		}
		p.pos++
		return key, nil

	case c == '-' || c == '+' || isDigit(c):
		start := p.pos
		if _, err := p.parseNumberOrRange(); err != nil {
			return "", err
		}
		key := p.src[start:p.pos]
		return key, p.expect("=>")
	}
	return "", p.fail("expected hash key", nil)
}

// ident reads [A-Za-z_][A-Za-z0-9_]* with an optional trailing ? or !.
func (p *parser) ident() string {
	start := p.pos
	if p.eof() || !isIdentStart(p.peek()) {
		return ""
	}
	for !p.eof() && isIdentChar(p.peek()) {
		p.pos++
	}
	if c := p.peek(); c == '?' || c == '!' {
		p.pos++
	}
	return p.src[start:p.pos]
}

// constName reads a constant path such as Daru::DataFrame.
func (p *parser) constName() string {
	start := p.pos
	for {
		if p.ident() == "" {
			break
		}
		if !strings.HasPrefix(p.rest(), "::") {
			break
		}
		p.pos += 2
	}
	return p.src[start:p.pos]
}

func (p *parser) parseConstruct(depth int) (value.Value, error) {
	start := p.pos
	name := p.constName()

	switch name {
	case "nil":
		return value.Null(), nil
	case "true":
		return value.Bool(true), nil
	case "false":
		return value.Bool(false), nil
	case "Float::NAN", "NaN":
		return value.Float(math.NaN()), nil
	case "Float::INFINITY", "Infinity":
		return value.Float(math.Inf(1)), nil

	case "Set":
		if p.consume("[") {
			items, err := p.parseElements(']', depth)
			if err != nil {
				return value.Value{}, err
			}
			return value.Set(items...), nil
		}
		if p.consume(".new") {
			if err := p.expect("("); err != nil {
				return value.Value{}, err
			}
			if p.consume(")") {
				return value.Set(), nil
			}
			argPos := p.pos
			inner, err := p.parseValue(depth + 1)
			if err != nil {
				return value.Value{}, err
			}
			if inner.Kind() != value.KindList && inner.Kind() != value.KindRange {
				return value.Value{}, p.fail("Set.new expects an array", nil)
			}
			items, err := p.expand(inner, argPos, "Set.new")
			if err != nil {
				return value.Value{}, err
			}
			if err := p.expect(")"); err != nil {
				return value.Value{}, err
			}
			return value.Set(items...), nil
		}
		return value.Value{}, p.fail("expected '[' after Set", nil)

	case "Complex":
		return p.parseComplex(depth)

	case "Matrix":
		return p.parseMatrix(depth)

	case "Daru::DataFrame":
		return p.parseTable(depth)
	}

	p.pos = start
	return value.Value{}, p.fail("unknown identifier "+strconv.Quote(name), nil)
}

func (p *parser) parseComplex(depth int) (value.Value, error) {
	if err := p.expect("("); err != nil {
		return value.Value{}, err
	}
	re, err := p.parseReal(depth)
	if err != nil {
		return value.Value{}, err
	}
	if err := p.expect(","); err != nil {
		return value.Value{}, err
	}
	im, err := p.parseReal(depth)
	if err != nil {
		return value.Value{}, err
	}
	if err := p.expect(")"); err != nil {
		return value.Value{}, err
	}
	return value.Complex(complex(re, im)), nil
}

func (p *parser) parseReal(depth int) (float64, error) {
	v, err := p.parseValue(depth + 1)
	if err != nil {
		return 0, err
	}
	switch v.Kind() {
	case value.KindInt:
		return float64(v.Int()), nil
	case value.KindFloat:
		return v.Float(), nil
	}
	return 0, p.fail("expected a real number, got "+v.Kind().String(), nil)
}

func (p *parser) parseMatrix(depth int) (value.Value, error) {
	if p.consume(".empty") {
		// Matrix.empty(rows, cols) has no cells to carry.
		if err := p.expect("("); err != nil {
			return value.Value{}, err
		}
		if _, err := p.parseElements(')', depth); err != nil {
			return value.Value{}, err
		}
		return value.Matrix(nil), nil
	}
	if err := p.expect("["); err != nil {
		return value.Value{}, err
	}
	rowVals, err := p.parseElements(']', depth)
	if err != nil {
		return value.Value{}, err
	}

	rows := make([][]value.Value, len(rowVals))
	for i, r := range rowVals {
		if r.Kind() != value.KindList {
			return value.Value{}, p.fail("matrix row "+strconv.Itoa(i)+" is not an array", nil)
		}
		rows[i] = r.Items()
		if len(rows[i]) != len(rows[0]) {
			return value.Value{}, p.fail("matrix rows differ in length", nil)
		}
	}
	return value.Matrix(rows), nil
}

// parseTable reads Daru::DataFrame.new({...}, order: [...], index: [...]).
func (p *parser) parseTable(depth int) (value.Value, error) {
	if err := p.expect(".new"); err != nil {
		return value.Value{}, err
	}
	if err := p.expect("("); err != nil {
		return value.Value{}, err
	}
	p.skipSpace()
	if p.peek() != '{' {
		return value.Value{}, p.fail("DataFrame expects a hash of columns", nil)
	}
	src, err := p.parseHash(depth + 1)
	if err != nil {
		return value.Value{}, err
	}

	var order, index []value.Value
	hasIndex := false
	for p.consume(",") {
		p.skipSpace()
		kw := p.ident()
		if kw == "" || !p.consume(":") {
			return value.Value{}, p.fail("expected keyword argument", nil)
		}
		argPos := p.pos
		arg, err := p.parseValue(depth + 1)
		if err != nil {
			return value.Value{}, err
		}
		if arg.Kind() != value.KindList && arg.Kind() != value.KindRange {
			return value.Value{}, p.fail(kw+": expects an array", nil)
		}
		items, err := p.expand(arg, argPos, kw+":")
		if err != nil {
			return value.Value{}, err
		}
		switch kw {
		case "order":
			order = items
		case "index":
			index = items
			hasIndex = true
		default:
			return value.Value{}, p.fail("unknown DataFrame option "+strconv.Quote(kw), nil)
		}
	}
	if err := p.expect(")"); err != nil {
		return value.Value{}, err
	}

	names := make([]string, 0, src.Len())
	if order != nil {
		for _, o := range order {
			if o.Kind() != value.KindString {
				return value.Value{}, p.fail("order: expects column names", nil)
			}
			names = append(names, o.Str())
		}
	} else {
		for _, e := range src.Entries() {
			names = append(names, e.Key)
		}
	}

	cols := make([]value.Column, 0, len(names))
	for _, n := range names {
		cv, ok := src.Get(n)
		if !ok {
			return value.Value{}, p.fail("order: names missing column "+strconv.Quote(n), nil)
		}
		if cv.Kind() != value.KindList {
			return value.Value{}, p.fail("column "+strconv.Quote(n)+" is not an array", nil)
		}
		cols = append(cols, value.Column{Name: n, Values: cv.Items()})
	}
	if !hasIndex {
		index = nil
	} else if index == nil {
		index = []value.Value{}
	}

	tv := value.NewTable(cols, index)
	if tv.Table().Ragged() {
		return value.Value{}, p.fail("table columns differ in length", nil)
	}
	return tv, nil
}

// expand returns the elements of an array or range argument that started at
// pos. Ranges longer than value.MaxRangeItems are refused.
func (p *parser) expand(v value.Value, pos int, what string) ([]value.Value, error) {
	if span := v.Span(); span > value.MaxRangeItems {
		p.pos = pos
		return nil, p.fail(what+" range of "+strconv.FormatUint(span, 10)+
			" elements exceeds the limit of "+strconv.Itoa(value.MaxRangeItems), nil)
	}
	return v.Items(), nil
}

func (p *parser) parseNumberOrRange() (value.Value, error) {
	start := p.pos
	sign := 1.0
	if c := p.peek(); c == '-' || c == '+' {
		if c == '-' {
			sign = -1
		}
		p.pos++
		rest := p.rest()
		switch {
		case strings.HasPrefix(rest, "Float::INFINITY"):
			p.pos += len("Float::INFINITY")
			return value.Float(math.Inf(int(sign))), nil
		case strings.HasPrefix(rest, "Infinity"):
			p.pos += len("Infinity")
			return value.Float(math.Inf(int(sign))), nil
		case strings.HasPrefix(rest, "Float::NAN"):
			p.pos += len("Float::NAN")
			return value.Float(math.NaN()), nil
		}
	}

	if !isDigit(p.peek()) {
		return value.Value{}, p.fail("expected digit", nil)
	}
	p.digits()
	isFloat := false
	if p.peek() == '.' && p.pos+1 < len(p.src) && isDigit(p.src[p.pos+1]) {
		isFloat = true
		p.pos++
		p.digits()
	}
	if c := p.peek(); c == 'e' || c == 'E' {
		save := p.pos
		p.pos++
		if c := p.peek(); c == '-' || c == '+' {
			p.pos++
		}
		if isDigit(p.peek()) {
			isFloat = true
			p.digits()
		} else {
			p.pos = save
		}
	}

	text := strings.ReplaceAll(p.src[start:p.pos], "_", "")
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return value.Value{}, errors.DecodeFailed(p.src, start, "invalid float "+strconv.Quote(text), err)
		}
		return value.Float(f), nil
	}

	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return value.Value{}, errors.DecodeFailed(p.src, start, "integer "+strconv.Quote(text)+" out of range", err)
	}

	// a..b is inclusive, a...b exclusive; both store an exclusive stop.
	if strings.HasPrefix(p.rest(), "..") {
		inclusive := !strings.HasPrefix(p.rest(), "...")
		if inclusive {
			p.pos += 2
		} else {
			p.pos += 3
		}
		endStart := p.pos
		end, err := p.parseNumberOrRange()
		if err != nil {
			return value.Value{}, err
		}
		if end.Kind() != value.KindInt {
			return value.Value{}, errors.DecodeFailed(p.src, endStart, "range end must be an integer", nil)
		}
		stop := end.Int()
		if inclusive {
			if stop == math.MaxInt64 {
				return value.Value{}, errors.DecodeFailed(p.src, endStart, "range end out of range", nil)
			}
			stop++
		}
		return value.Range(n, stop), nil
	}
	return value.Int(n), nil
}

func (p *parser) digits() {
	for !p.eof() {
		c := p.peek()
		if isDigit(c) || (c == '_' && p.pos+1 < len(p.src) && isDigit(p.src[p.pos+1])) {
			p.pos++
			continue
		}
		return
	}
}

func (p *parser) parseSingleQuoted() (string, error) {
	start := p.pos
	p.pos++ // opening quote
	var b strings.Builder
	for !p.eof() {
		c := p.src[p.pos]
		switch c {
		case '\'':
			p.pos++
			return b.String(), nil
		case '\\':
			if p.pos+1 < len(p.src) && (p.src[p.pos+1] == '\'' || p.src[p.pos+1] == '\\') {
				b.WriteByte(p.src[p.pos+1])
				p.pos += 2
				continue
			}
		}
		b.WriteByte(c)
		p.pos++
	}
	return "", errors.DecodeFailed(p.src, start, "unterminated string", nil)
}

func (p *parser) parseDoubleQuoted() (string, error) {
	start := p.pos
	p.pos++ // opening quote
	var b strings.Builder
	for !p.eof() {
		c := p.src[p.pos]
		switch c {
		case '"':
			p.pos++
			return b.String(), nil
		case '#':
			if p.pos+1 < len(p.src) && strings.IndexByte("{$@", p.src[p.pos+1]) >= 0 {
				return "", p.fail("string interpolation is not a literal", nil)
			}
			b.WriteByte(c)
			p.pos++
		case '\\':
			p.pos++
			if err := p.escape(&b); err != nil {
				return "", err
			}
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", errors.DecodeFailed(p.src, start, "unterminated string", nil)
}

// escape decodes one backslash escape; the backslash has been consumed.
func (p *parser) escape(b *strings.Builder) error {
	if p.eof() {
		return p.fail("unterminated escape", nil)
	}
	c := p.src[p.pos]
	p.pos++
	switch c {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'e':
		b.WriteByte('\x1b')
	case 's':
		b.WriteByte(' ')
	case 'a':
		b.WriteByte('\a')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'v':
		b.WriteByte('\v')
	case 'x':
		n, read := p.hexRun(2)
		if read == 0 {
			return p.fail(`invalid \x escape`, nil)
		}
		b.WriteByte(byte(n))
	case 'u':
		return p.unicodeEscape(b)
	case '0', '1', '2', '3', '4', '5', '6', '7':
		n := int(c - '0')
		for i := 0; i < 2 && !p.eof() && p.peek() >= '0' && p.peek() <= '7'; i++ {
			n = n*8 + int(p.peek()-'0')
			p.pos++
		}
		b.WriteByte(byte(n))
	default:
		// \" \\ \# and any other escaped character stand for themselves.
		p.pos--
		r, size := utf8.DecodeRuneInString(p.rest())
		p.pos += size
		b.WriteRune(r)
	}
	return nil
}

func (p *parser) unicodeEscape(b *strings.Builder) error {
	if p.peek() != '{' {
		n, read := p.hexRun(4)
		if read != 4 {
			return p.fail(`invalid \u escape`, nil)
		}
		b.WriteRune(rune(n))
		return nil
	}

	p.pos++ // '{'
	for {
		for p.peek() == ' ' {
			p.pos++
		}
		if p.peek() == '}' {
			p.pos++
			return nil
		}
		n, read := p.hexRun(6)
		if read == 0 || n > utf8.MaxRune {
			return p.fail(`invalid \u{} escape`, nil)
		}
		b.WriteRune(rune(n))
	}
}

// hexRun reads up to max hex digits and reports how many it read.
func (p *parser) hexRun(max int) (n, read int) {
	for read < max && !p.eof() {
		d := hexVal(p.peek())
		if d < 0 {
			break
		}
		n = n*16 + d
		p.pos++
		read++
	}
	return n, read
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
