package engine

import (
	"context"
	"fmt"
	"sync"

	rubybridge "github.com/wippyai/rubybridge"
	"github.com/wippyai/rubybridge/errors"
	"github.com/wippyai/rubybridge/literal"
	"github.com/wippyai/rubybridge/preamble"
	"github.com/wippyai/rubybridge/value"
)

// DefaultLoopbackVersion is what a Loopback reports for the version query.
const DefaultLoopbackVersion = "ruby 3.3.0 (loopback) [go]"

// binding is one target-side variable. Exactly one of the fields is used.
type binding struct {
	lit      string // literal written by the serializer
	errName  string // exception raised by the serializer
	errValue string
}

// Loopback is an in-process stand-in for a Ruby interpreter. It understands
// exactly the statements built by package preamble, keeps assigned values as
// literals, and answers anything else with a NoMethodError.
type Loopback struct {
	mu         sync.Mutex
	vars       map[string]binding
	order      []string
	exports    []string
	statements []string
	version    string
	injected   bool
	closed     bool
}

var _ rubybridge.Channel = (*Loopback)(nil)

func NewLoopback() *Loopback {
	return &Loopback{
		vars:    make(map[string]binding),
		version: DefaultLoopbackVersion,
	}
}

// Bind sets a target variable as if Ruby code had computed it.
func (l *Loopback) Bind(name string, v value.Value) {
	l.bind(name, binding{lit: literal.Encode(v)})
}

// BindRaw sets a target variable whose serializer output is text verbatim.
func (l *Loopback) BindRaw(name, text string) {
	l.bind(name, binding{lit: text})
}

// BindError sets a target variable whose serialization raises.
func (l *Loopback) BindError(name, errName, errValue string) {
	l.bind(name, binding{errName: errName, errValue: errValue})
}

// Export registers names as sos_export would.
func (l *Loopback) Export(names ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.export(names)
}

// SetVersion changes the version banner.
func (l *Loopback) SetVersion(v string) {
	l.mu.Lock()
	l.version = v
	l.mu.Unlock()
}

// Lookup decodes the current literal bound to name.
func (l *Loopback) Lookup(name string) (value.Value, bool) {
	l.mu.Lock()
	b, ok := l.vars[name]
	l.mu.Unlock()
	if !ok || b.errName != "" {
		return value.Value{}, false
	}
	v, err := literal.Decode(b.lit)
	if err != nil {
		return value.Value{}, false
	}
	return v, true
}

// Names lists bound variables in binding order.
func (l *Loopback) Names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.order...)
}

// Statements returns every statement evaluated so far.
func (l *Loopback) Statements() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.statements...)
}

// Injected reports whether the preamble has been evaluated.
func (l *Loopback) Injected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.injected
}

func (l *Loopback) Evaluate(ctx context.Context, req rubybridge.Request) (*rubybridge.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.ChannelFailed("context done before evaluation", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, errors.Closed("loopback")
	}

	l.statements = append(l.statements, req.Code)
	resp := l.eval(req.Code)
	if !req.Wants(resp) {
		return nil, errors.NoResponse(expectNames(req))
	}
	return resp, nil
}

func (l *Loopback) Close() error {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	return nil
}

func (l *Loopback) eval(code string) *rubybridge.Response {
	switch code {
	case preamble.Source():
		l.injected = true
		return result("nil")
	case preamble.VersionQuery:
		return result(literal.Encode(value.Str(l.version)))
	case preamble.ListingCall:
		if !l.injected {
			return undefinedMethod(preamble.ListingFunc)
		}
		return stdout(preamble.EncodeListing(preamble.Listing{
			Bound:    append([]string{}, l.order...),
			Exported: append([]string{}, l.exports...),
		}))
	}

	if name, ok := preamble.ParseSerializeCall(code); ok {
		if !l.injected {
			return undefinedMethod(preamble.ReprFunc)
		}
		b, ok := l.vars[name]
		if !ok {
			return raise("NameError", fmt.Sprintf("undefined local variable or method '%s' for main", name))
		}
		if b.errName != "" {
			return raise(b.errName, b.errValue)
		}
		return stdout(b.lit)
	}

	if names, ok := preamble.ParseExportCall(code); ok {
		if !l.injected {
			return undefinedMethod(preamble.ExportFunc)
		}
		l.export(names)
		return result("nil")
	}

	if name, lit, ok := preamble.ParseAssign(code); ok {
		v, err := literal.Decode(lit)
		if err != nil {
			return raise("SyntaxError", err.Error())
		}
		text := literal.Encode(v)
		l.setLocked(name, binding{lit: text})
		return result(text)
	}

	return raise("NoMethodError", "loopback cannot evaluate "+value.ShortRepr(value.Str(code), value.DescLimit))
}

func (l *Loopback) bind(name string, b binding) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setLocked(name, b)
}

func (l *Loopback) setLocked(name string, b binding) {
	if _, ok := l.vars[name]; !ok {
		l.order = append(l.order, name)
	}
	l.vars[name] = b
}

func (l *Loopback) export(names []string) {
outer:
	for _, n := range names {
		for _, e := range l.exports {
			if e == n {
				continue outer
			}
		}
		l.exports = append(l.exports, n)
	}
}

func result(text string) *rubybridge.Response {
	return &rubybridge.Response{Kind: rubybridge.ResponseExecuteResult, Text: text}
}

func stdout(text string) *rubybridge.Response {
	return &rubybridge.Response{Kind: rubybridge.ResponseStream, Stream: "stdout", Text: text}
}

func raise(name, msg string) *rubybridge.Response {
	return &rubybridge.Response{
		Kind:     rubybridge.ResponseError,
		Text:     name + ": " + msg,
		ErrName:  name,
		ErrValue: msg,
	}
}

func undefinedMethod(method string) *rubybridge.Response {
	return raise("NoMethodError", fmt.Sprintf("undefined method '%s' for main", method))
}
