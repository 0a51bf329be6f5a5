package preamble

import (
	_ "embed"
	"strings"

	"github.com/wippyai/rubybridge/errors"
	"github.com/wippyai/rubybridge/literal"
	"github.com/wippyai/rubybridge/value"
)

//go:embed preamble.rb
var source string

// Names defined by the preamble.
const (
	ReprFunc    = "__sos_repr"
	ListingFunc = "__sos_listing"
	ExportFunc  = "sos_export"
)

// Statements with no parameters.
const (
	// ListingCall writes the listing literal of the target's local bindings to stdout.
	ListingCall = "$stdout.write(" + ListingFunc + "(local_variables))"

	// VersionQuery evaluates to the interpreter's version banner.
	VersionQuery = "RUBY_DESCRIPTION"
)

// Source returns the Ruby code that must be evaluated once in the target
// before any transfer.
func Source() string {
	return source
}

// Assign returns the statement binding name to a literal.
func Assign(name, lit string) string {
	return name + " = " + lit
}

// SerializeCall returns the statement writing the literal of name to stdout.
func SerializeCall(name string) string {
	return "$stdout.write(" + ReprFunc + "(" + name + "))"
}

// ExportCall returns the statement registering names for pull.
func ExportCall(names ...string) string {
	syms := make([]string, len(names))
	for i, n := range names {
		syms[i] = ":" + n
	}
	return ExportFunc + "(" + strings.Join(syms, ", ") + ")"
}

// ParseAssign recognises a statement produced by Assign.
func ParseAssign(stmt string) (name, lit string, ok bool) {
	name, lit, ok = strings.Cut(strings.TrimSpace(stmt), " = ")
	if !ok || !ValidName(name) || lit == "" {
		return "", "", false
	}
	return name, lit, true
}

// ParseSerializeCall recognises a statement produced by SerializeCall.
func ParseSerializeCall(stmt string) (string, bool) {
	const prefix = "$stdout.write(" + ReprFunc + "("
	s := strings.TrimSpace(stmt)
	if !strings.HasPrefix(s, prefix) || !strings.HasSuffix(s, "))") {
		return "", false
	}
	name := s[len(prefix) : len(s)-2]
	if !ValidName(name) {
		return "", false
	}
	return name, true
}

// ParseExportCall recognises a statement produced by ExportCall. Symbols and
// string arguments are both accepted.
func ParseExportCall(stmt string) ([]string, bool) {
	s := strings.TrimSpace(stmt)
	if !strings.HasPrefix(s, ExportFunc+"(") || !strings.HasSuffix(s, ")") {
		return nil, false
	}
	args := strings.TrimSpace(s[len(ExportFunc)+1 : len(s)-1])
	if args == "" {
		return []string{}, true
	}
	var names []string
	for _, a := range strings.Split(args, ",") {
		a = strings.TrimSpace(a)
		switch {
		case strings.HasPrefix(a, ":"):
			a = a[1:]
		case len(a) >= 2 && (a[0] == '"' || a[0] == '\'') && a[len(a)-1] == a[0]:
			a = a[1 : len(a)-1]
		default:
			return nil, false
		}
		if !ValidName(a) {
			return nil, false
		}
		names = append(names, a)
	}
	return names, true
}

// Listing is the decoded reply to ListingCall.
type Listing struct {
	Bound    []string
	Exported []string
}

// EncodeListing renders a listing in the form __sos_listing produces.
func EncodeListing(l Listing) string {
	return literal.Encode(value.Map(
		value.Pair("bound", strList(l.Bound)),
		value.Pair("exported", strList(l.Exported)),
	))
}

// ParseListing decodes the reply to ListingCall.
func ParseListing(text string) (Listing, error) {
	v, err := literal.Decode(text)
	if err != nil {
		return Listing{}, err
	}
	if v.Kind() != value.KindMap {
		return Listing{}, errors.DecodeFailed(text, 0, "listing is a "+v.Kind().String()+", not a map", nil)
	}

	var l Listing
	for _, f := range []struct {
		key string
		dst *[]string
	}{{"bound", &l.Bound}, {"exported", &l.Exported}} {
		items, ok := v.Get(f.key)
		if !ok {
			continue
		}
		if items.Kind() != value.KindList {
			return Listing{}, errors.DecodeFailed(text, 0, "listing field "+f.key+" is not an array", nil)
		}
		for _, it := range items.Items() {
			if it.Kind() != value.KindString {
				return Listing{}, errors.DecodeFailed(text, 0, "listing field "+f.key+" holds a "+it.Kind().String(), nil)
			}
			*f.dst = append(*f.dst, it.Str())
		}
	}
	return l, nil
}

func strList(ss []string) value.Value {
	items := make([]value.Value, len(ss))
	for i, s := range ss {
		items[i] = value.Str(s)
	}
	return value.List(items...)
}

var keywords = map[string]struct{}{
	"__ENCODING__": {}, "__LINE__": {}, "__FILE__": {}, "BEGIN": {}, "END": {},
	"alias": {}, "and": {}, "begin": {}, "break": {}, "case": {}, "class": {},
	"def": {}, "defined?": {}, "do": {}, "else": {}, "elsif": {}, "end": {},
	"ensure": {}, "false": {}, "for": {}, "if": {}, "in": {}, "module": {},
	"next": {}, "nil": {}, "not": {}, "or": {}, "redo": {}, "rescue": {},
	"retry": {}, "return": {}, "self": {}, "super": {}, "then": {}, "true": {},
	"undef": {}, "unless": {}, "until": {}, "when": {}, "while": {}, "yield": {},
}

// ValidName reports whether name can be a Ruby local variable: a lowercase
// letter or underscore followed by letters, digits or underscores, and not
// a keyword.
func ValidName(name string) bool {
	if name == "" {
		return false
	}
	if _, kw := keywords[name]; kw {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z':
		case i > 0 && (c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'):
		default:
			return false
		}
	}
	return true
}
