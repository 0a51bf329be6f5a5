package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"go.uber.org/multierr"

	"github.com/wippyai/rubybridge/codegen"
	"github.com/wippyai/rubybridge/errors"
	"github.com/wippyai/rubybridge/literal"
	"github.com/wippyai/rubybridge/runtime"
	"github.com/wippyai/rubybridge/value"
)

// command is one parsed input line. Lines not starting with % are Ruby code.
type command struct {
	name   string
	args   []string
	rename string
	text   string
}

var commandHelp = map[string]string{
	"push":    "%push NAME... [as TARGET]   assign Go variables in Ruby",
	"pull":    "%pull [NAME...] [as TARGET] read Ruby variables into the namespace",
	"set":     "%set NAME = LITERAL         bind a Go variable from a Ruby literal",
	"get":     "%get NAME                   print a Go variable as a Ruby literal",
	"del":     "%del NAME...                unbind Go variables",
	"whos":    "%whos                       list the Go namespace",
	"export":  "%export NAME...             mark Ruby variables for pull",
	"version": "%version                    interpreter version",
	"emit":    "%emit [PKG]                 print the namespace as Go source",
	"help":    "%help                       this text",
}

func commandNames() []string {
	names := make([]string, 0, len(commandHelp))
	for n := range commandHelp {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func parseCommand(line string) (command, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return command{}, nil
	}
	if !strings.HasPrefix(line, "%") {
		return command{name: "ruby", text: line}, nil
	}

	head, rest, _ := strings.Cut(line[1:], " ")
	rest = strings.TrimSpace(rest)
	if _, ok := commandHelp[head]; !ok {
		detail := fmt.Sprintf("unknown command %%%s", head)
		if ranks := fuzzy.RankFindFold(head, commandNames()); len(ranks) > 0 {
			sort.Sort(ranks)
			detail += fmt.Sprintf(" (did you mean %%%s?)", ranks[0].Target)
		}
		return command{}, errors.InvalidInput(errors.PhaseConfig, detail)
	}

	cmd := command{name: head}
	switch head {
	case "set":
		name, lit, ok := strings.Cut(rest, "=")
		name, lit = strings.TrimSpace(name), strings.TrimSpace(lit)
		if !ok || name == "" || lit == "" {
			return command{}, errors.InvalidInput(errors.PhaseConfig, "usage: "+commandHelp["set"])
		}
		cmd.args, cmd.text = []string{name}, lit
		return cmd, nil
	case "emit":
		cmd.text = rest
		return cmd, nil
	}

	args := strings.Fields(rest)
	if n := len(args); n >= 2 && args[n-2] == "as" {
		cmd.rename = args[n-1]
		args = args[:n-2]
	}
	if len(args) > 0 {
		cmd.args = args
	}

	switch head {
	case "push", "get", "del", "export":
		if len(cmd.args) == 0 {
			return command{}, errors.InvalidInput(errors.PhaseConfig, "usage: "+commandHelp[head])
		}
	}
	if cmd.rename != "" && head != "push" && head != "pull" {
		return command{}, errors.InvalidInput(errors.PhaseConfig, "usage: "+commandHelp[head])
	}
	return cmd, nil
}

// shell executes commands against one session and its namespace.
type shell struct {
	sess *runtime.Session
	pkg  string
}

func newShell(sess *runtime.Session, pkg string) *shell {
	return &shell{sess: sess, pkg: pkg}
}

func (sh *shell) scope() *value.Scope {
	return sh.sess.Scope()
}

// exec runs line and writes its output to out. Errors are returned, not
// printed.
func (sh *shell) exec(ctx context.Context, line string, out io.Writer) error {
	cmd, err := parseCommand(line)
	if err != nil || cmd.name == "" {
		return err
	}

	switch cmd.name {
	case "ruby":
		resp, err := sh.sess.Evaluate(ctx, cmd.text)
		if err != nil {
			return err
		}
		if resp.Failed() {
			return errors.TargetEvaluation(errors.PhaseSession, "", resp.ErrName, resp.ErrValue)
		}
		if resp.Text != "" {
			fmt.Fprintln(out, strings.TrimSuffix(resp.Text, "\n"))
		}
		return nil

	case "push":
		err := sh.sess.Push(ctx, cmd.args, cmd.rename)
		sh.printWarnings(out)
		return err

	case "pull":
		res, err := sh.sess.Pull(ctx, cmd.args, cmd.rename)
		for _, n := range res.Names {
			sh.scope().Set(n, res.Values[n])
		}
		if len(res.Names) > 0 {
			fmt.Fprintf(out, "pulled %s\n", strings.Join(res.Names, ", "))
		}
		sh.printWarnings(out)
		return err

	case "set":
		v, err := literal.Decode(cmd.text)
		if err != nil {
			return err
		}
		sh.scope().Set(cmd.args[0], v)
		return nil

	case "get":
		var errs error
		for _, n := range cmd.args {
			v, ok := sh.scope().Get(n)
			if !ok {
				errs = multierr.Append(errs, errors.UnknownVariable(n, ""))
				continue
			}
			fmt.Fprintf(out, "%s = %s\n", n, literal.Encode(v))
		}
		return errs

	case "del":
		for _, n := range cmd.args {
			sh.scope().Delete(n)
		}
		return nil

	case "whos":
		sh.whos(out)
		return nil

	case "export":
		return sh.sess.Export(ctx, cmd.args...)

	case "version":
		text, err := sh.sess.Version(ctx)
		if err != nil {
			return err
		}
		if v, err := literal.Decode(text); err == nil && v.Kind() == value.KindString {
			text = v.Str()
		}
		fmt.Fprintln(out, text)
		return nil

	case "emit":
		pkg := cmd.text
		if pkg == "" {
			pkg = sh.pkg
		}
		src, err := codegen.Generate(pkg, sh.scope())
		if err != nil {
			return err
		}
		_, err = out.Write(src)
		return err

	case "help":
		for _, n := range commandNames() {
			fmt.Fprintln(out, commandHelp[n])
		}
		fmt.Fprintln(out, "anything else is evaluated as Ruby")
		return nil
	}
	return nil
}

// whos lists the namespace: name, kind, WIT shape, length and a preview.
func (sh *shell) whos(out io.Writer) {
	names := sh.scope().Names()
	if len(names) == 0 {
		fmt.Fprintln(out, "namespace is empty")
		return
	}
	width := len("name")
	for _, n := range names {
		if len(n) > width {
			width = len(n)
		}
	}
	fmt.Fprintf(out, "%-*s  %-7s  %-5s  %s\n", width, "name", "kind", "len", "type / value")
	for _, n := range names {
		v, _ := sh.scope().Get(n)
		fmt.Fprintf(out, "%-*s  %-7s  %-5d  %s  %s\n", width, n, v.Kind(), v.Len(),
			witTypeStr(witType(v)), value.ShortRepr(v, value.DescLimit))
	}
}

func (sh *shell) printWarnings(out io.Writer) {
	for _, w := range sh.sess.Warnings() {
		fmt.Fprintf(out, "warning: %v\n", w)
	}
}
