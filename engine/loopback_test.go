package engine

import (
	"context"
	stderrors "errors"
	"testing"

	rubybridge "github.com/wippyai/rubybridge"
	"github.com/wippyai/rubybridge/errors"
	"github.com/wippyai/rubybridge/preamble"
	"github.com/wippyai/rubybridge/value"
)

func evalLoop(t *testing.T, l *Loopback, req rubybridge.Request, code string) *rubybridge.Response {
	t.Helper()
	resp, err := l.Evaluate(context.Background(), withCode(req, code))
	if err != nil {
		t.Fatalf("Evaluate(%q): %v", code, err)
	}
	return resp
}

func TestLoopback_AssignAndSerialize(t *testing.T) {
	l := NewLoopback()
	evalLoop(t, l, expectResult, preamble.Source())

	resp := evalLoop(t, l, expectResult, preamble.Assign("x", `{"a" => [1, 2.0, nil]}`))
	if resp.Failed() || resp.Text != `{"a" => [1, 2.0, nil]}` {
		t.Errorf("assign response %+v", resp)
	}

	resp = evalLoop(t, l, expectStdout, preamble.SerializeCall("x"))
	if resp.Kind != rubybridge.ResponseStream || resp.Text != `{"a" => [1, 2.0, nil]}` {
		t.Errorf("serialize response %+v", resp)
	}

	v, ok := l.Lookup("x")
	want := value.Map(value.Pair("a", value.List(value.Int(1), value.Float(2), value.Null())))
	if !ok || !value.Equal(v, want) {
		t.Errorf("Lookup = %v, %v", v, ok)
	}
}

func TestLoopback_RequiresPreamble(t *testing.T) {
	l := NewLoopback()
	l.Bind("x", value.Int(1))

	for _, code := range []string{preamble.SerializeCall("x"), preamble.ListingCall, preamble.ExportCall("x")} {
		resp := evalLoop(t, l, expectStdout, code)
		if !resp.Failed() || resp.ErrName != "NoMethodError" {
			t.Errorf("%s before preamble: %+v", code, resp)
		}
	}
	if l.Injected() {
		t.Error("Injected before preamble")
	}
}

func TestLoopback_Errors(t *testing.T) {
	l := NewLoopback()
	evalLoop(t, l, expectResult, preamble.Source())
	l.BindError("bad", "TypeError", "can't serialize")

	tests := []struct {
		name    string
		code    string
		errName string
	}{
		{"unknown variable", preamble.SerializeCall("missing"), "NameError"},
		{"raising serializer", preamble.SerializeCall("bad"), "TypeError"},
		{"bad literal", preamble.Assign("y", "File.read('x')"), "SyntaxError"},
		{"arbitrary code", "puts 1", "NoMethodError"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := evalLoop(t, l, expectStdout, tt.code)
			if !resp.Failed() || resp.ErrName != tt.errName {
				t.Errorf("got %+v, want %s", resp, tt.errName)
			}
		})
	}
	if _, ok := l.Lookup("y"); ok {
		t.Error("failed assignment must not bind")
	}
}

func TestLoopback_Listing(t *testing.T) {
	l := NewLoopback()
	evalLoop(t, l, expectResult, preamble.Source())
	l.Bind("sos_a", value.Int(1))
	l.Bind("b", value.Int(2))
	evalLoop(t, l, expectResult, preamble.ExportCall("b", "b"))

	resp := evalLoop(t, l, expectStdout, preamble.ListingCall)
	got, err := preamble.ParseListing(resp.Text)
	if err != nil {
		t.Fatalf("ParseListing(%s): %v", resp.Text, err)
	}
	if len(got.Bound) != 2 || got.Bound[0] != "sos_a" || got.Bound[1] != "b" {
		t.Errorf("bound = %v", got.Bound)
	}
	if len(got.Exported) != 1 || got.Exported[0] != "b" {
		t.Errorf("exported = %v", got.Exported)
	}
}

func TestLoopback_Version(t *testing.T) {
	l := NewLoopback()
	l.SetVersion("ruby 3.4.1")
	resp := evalLoop(t, l, expectResult, preamble.VersionQuery)
	if resp.Text != `"ruby 3.4.1"` {
		t.Errorf("got %q", resp.Text)
	}
}

func TestLoopback_ExpectMismatch(t *testing.T) {
	l := NewLoopback()
	_, err := l.Evaluate(context.Background(), withCode(expectStdout, preamble.Source()))
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindNoResponse {
		t.Errorf("want no_response, got %v", err)
	}
}

func TestLoopback_Statements(t *testing.T) {
	l := NewLoopback()
	evalLoop(t, l, expectResult, preamble.Source())
	evalLoop(t, l, expectResult, preamble.Assign("x", "1"))

	got := l.Statements()
	if len(got) != 2 || got[0] != preamble.Source() || got[1] != "x = 1" {
		t.Errorf("Statements = %q", got)
	}
	got[0] = "mutated"
	if l.Statements()[0] != preamble.Source() {
		t.Error("Statements must return a copy")
	}
}

func TestLoopback_Closed(t *testing.T) {
	l := NewLoopback()
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	_, err := l.Evaluate(context.Background(), withCode(expectResult, "nil"))
	if !stderrors.Is(err, errors.ErrClosed) {
		t.Errorf("want closed, got %v", err)
	}
}

func TestLoopback_CancelledContext(t *testing.T) {
	l := NewLoopback()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Evaluate(ctx, withCode(expectResult, "nil")); !stderrors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled, got %v", err)
	}
	if len(l.Statements()) != 0 {
		t.Error("cancelled call must not be recorded")
	}
}
