package main

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/wippyai/rubybridge/engine"
	"github.com/wippyai/rubybridge/errors"
	"github.com/wippyai/rubybridge/runtime"
	"github.com/wippyai/rubybridge/value"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want command
	}{
		{"", command{}},
		{"   ", command{}},
		{"# comment", command{}},
		{"puts 1", command{name: "ruby", text: "puts 1"}},
		{"%push a b", command{name: "push", args: []string{"a", "b"}}},
		{"%push a as sos_a", command{name: "push", args: []string{"a"}, rename: "sos_a"}},
		{"%pull", command{name: "pull"}},
		{"%pull sos_x as local", command{name: "pull", args: []string{"sos_x"}, rename: "local"}},
		{"%set x = [1, 2]", command{name: "set", args: []string{"x"}, text: "[1, 2]"}},
		{`%set s = {"a" => "b=c"}`, command{name: "set", args: []string{"s"}, text: `{"a" => "b=c"}`}},
		{"%get x", command{name: "get", args: []string{"x"}}},
		{"%whos", command{name: "whos"}},
		{"%emit mypkg", command{name: "emit", text: "mypkg"}},
		{"%version", command{name: "version"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseCommand(tt.line)
			if err != nil {
				t.Fatalf("parseCommand(%q): %v", tt.line, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseCommand(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseCommand_Errors(t *testing.T) {
	tests := []struct {
		line   string
		substr string
	}{
		{"%pus a", "did you mean %push"},
		{"%frobnicate", "unknown command"},
		{"%set x", "usage"},
		{"%set = 1", "usage"},
		{"%push", "usage"},
		{"%get a as b", "usage"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, err := parseCommand(tt.line)
			if err == nil {
				t.Fatalf("parseCommand(%q) succeeded", tt.line)
			}
			if !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("error %q does not mention %q", err, tt.substr)
			}
		})
	}
}

func newTestShell() (*shell, *engine.Loopback) {
	lb := engine.NewLoopback()
	sess := runtime.New(lb, nil, runtime.DefaultConfig())
	return newShell(sess, "fixtures"), lb
}

func TestShell_SetPushPull(t *testing.T) {
	ctx := context.Background()
	sh, lb := newTestShell()
	var out bytes.Buffer

	script := []string{
		"%set sos_nums = [1, 2, 3]",
		`%set greeting = "hi"`,
		"%push sos_nums greeting",
		"%del sos_nums greeting",
		"%pull greeting",
	}
	for _, line := range script {
		if err := sh.exec(ctx, line, &out); err != nil {
			t.Fatalf("%s: %v", line, err)
		}
	}

	if _, ok := lb.Lookup("sos_nums"); !ok {
		t.Error("sos_nums was not pushed")
	}
	got, ok := sh.scope().Get("sos_nums")
	if !ok || !value.Equal(got, value.List(value.Int(1), value.Int(2), value.Int(3))) {
		t.Errorf("sos_nums = %v, %v", got, ok)
	}
	if g, ok := sh.scope().Get("greeting"); !ok || g.Str() != "hi" {
		t.Errorf("greeting = %v, %v", g, ok)
	}
	if !strings.Contains(out.String(), "pulled sos_nums, greeting") {
		t.Errorf("output = %q", out.String())
	}
}

func TestShell_Get(t *testing.T) {
	sh, _ := newTestShell()
	sh.scope().Set("x", value.Map(value.Pair("a", value.Int(1))))
	var out bytes.Buffer

	if err := sh.exec(context.Background(), "%get x", &out); err != nil {
		t.Fatal(err)
	}
	if got, want := out.String(), "x = {\"a\" => 1}\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}

	err := sh.exec(context.Background(), "%get nope", &out)
	if !stderrors.Is(err, errors.ErrUnknownVariable) {
		t.Errorf("err = %v, want unknown variable", err)
	}
}

func TestShell_PushUnknown(t *testing.T) {
	sh, lb := newTestShell()
	sh.scope().Set("num_var", value.Int(1))

	err := sh.exec(context.Background(), "%push num", &bytes.Buffer{})
	if !stderrors.Is(err, errors.ErrUnknownVariable) {
		t.Fatalf("err = %v, want unknown variable", err)
	}
	if len(lb.Statements()) != 0 {
		t.Errorf("statements sent: %v", lb.Statements())
	}
}

func TestShell_Whos(t *testing.T) {
	sh, _ := newTestShell()
	var out bytes.Buffer
	if err := sh.exec(context.Background(), "%whos", &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "empty") {
		t.Errorf("output = %q", out.String())
	}

	sh.scope().Set("nums", value.List(value.Int(1), value.Int(2)))
	out.Reset()
	if err := sh.exec(context.Background(), "%whos", &out); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), out.String())
	}
	for _, w := range []string{"nums", "list", "list<s64>"} {
		if !strings.Contains(lines[1], w) {
			t.Errorf("row %q missing %q", lines[1], w)
		}
	}
}

func TestShell_VersionAndRuby(t *testing.T) {
	sh, lb := newTestShell()
	lb.SetVersion("ruby 3.3.0 test")
	var out bytes.Buffer

	if err := sh.exec(context.Background(), "%version", &out); err != nil {
		t.Fatal(err)
	}
	if out.String() != "ruby 3.3.0 test\n" {
		t.Errorf("version output = %q", out.String())
	}

	err := sh.exec(context.Background(), "no_such_method()", &out)
	if !stderrors.Is(err, errors.ErrTargetEvaluation) {
		t.Errorf("err = %v, want target evaluation", err)
	}
}

func TestShell_Emit(t *testing.T) {
	sh, _ := newTestShell()
	sh.scope().Set("num_var", value.Int(7))
	var out bytes.Buffer

	if err := sh.exec(context.Background(), "%emit", &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "package fixtures") {
		t.Errorf("missing default package:\n%s", out.String())
	}

	out.Reset()
	if err := sh.exec(context.Background(), "%emit other", &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "package other") {
		t.Errorf("missing package override:\n%s", out.String())
	}
}

func TestRunScript_LineNumbers(t *testing.T) {
	sh, _ := newTestShell()
	script := "%set a = 1\n\n%set b = (\n"

	err := runScript(context.Background(), sh, "t.rbx", strings.NewReader(script), &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.HasPrefix(err.Error(), "t.rbx:3:") {
		t.Errorf("err = %q, want t.rbx:3 prefix", err)
	}
	if !stderrors.Is(err, errors.ErrDecode) {
		t.Errorf("err = %v, want decode error", err)
	}
}

func TestRunScripts_Files(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.rbx")
	b := filepath.Join(dir, "b.rbx")
	if err := os.WriteFile(a, []byte("%set x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("%get x\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	sh, _ := newTestShell()
	var out bytes.Buffer
	if err := runScripts(context.Background(), sh, []string{a, b}, &out); err != nil {
		t.Fatal(err)
	}
	if out.String() != "x = 1\n" {
		t.Errorf("output = %q", out.String())
	}
}
