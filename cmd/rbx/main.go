package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	rubybridge "github.com/wippyai/rubybridge"
	"github.com/wippyai/rubybridge/codegen"
	"github.com/wippyai/rubybridge/engine"
	"github.com/wippyai/rubybridge/runtime"
)

type options struct {
	ruby        string
	wasm        string
	loopback    bool
	prefix      string
	abortOnErr  bool
	debug       bool
	interactive bool
	emitGo      string
	pkg         string
}

func main() {
	var opts options
	flag.StringVar(&opts.ruby, "ruby", "", "Ruby interpreter to run (default: ruby on PATH)")
	flag.StringVar(&opts.wasm, "wasm", "", "Path to a WASI ruby.wasm to run instead of a native interpreter")
	flag.BoolVar(&opts.loopback, "loopback", false, "Use the in-process loopback interpreter (no Ruby needed)")
	flag.StringVar(&opts.prefix, "prefix", runtime.DefaultPrefix, "Name prefix that marks Ruby variables for pull")
	flag.BoolVar(&opts.abortOnErr, "abort-on-error", false, "Stop a pull at the first failing variable")
	flag.BoolVar(&opts.debug, "debug", false, "Log every statement and literal exchanged")
	flag.BoolVar(&opts.interactive, "i", false, "Interactive mode with TUI (default when stdin is a terminal)")
	flag.StringVar(&opts.emitGo, "emit-go", "", "Write the namespace as Go source to this file after the script")
	flag.StringVar(&opts.pkg, "pkg", "fixtures", "Package name for generated Go source")
	flag.Parse()

	if err := run(opts, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options, scripts []string) error {
	logger, err := newLogger(opts.debug)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	engine.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ch, err := openChannel(ctx, opts, logger)
	if err != nil {
		return err
	}
	defer ch.Close()

	cfg := runtime.DefaultConfig()
	cfg.Prefix = opts.prefix
	cfg.Debug = opts.debug
	cfg.Logger = logger
	if opts.abortOnErr {
		cfg.PullPolicy = runtime.PullAbort
	}
	sess := runtime.New(ch, nil, cfg)
	sh := newShell(sess, opts.pkg)

	interactive := opts.interactive || (len(scripts) == 0 && term.IsTerminal(int(os.Stdin.Fd())))
	if interactive {
		if err := runInteractive(ctx, sh, describeBackend(opts)); err != nil {
			return err
		}
	} else if err := runScripts(ctx, sh, scripts, os.Stdout); err != nil {
		return err
	}

	if opts.emitGo != "" {
		src, err := codegen.Generate(opts.pkg, sess.Scope())
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.emitGo, src, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", opts.emitGo, err)
		}
	}
	return nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	return cfg.Build()
}

func openChannel(ctx context.Context, opts options, logger *zap.Logger) (rubybridge.Channel, error) {
	switch {
	case opts.loopback:
		return engine.NewLoopback(), nil
	case opts.wasm != "":
		data, err := os.ReadFile(opts.wasm)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		return engine.NewWasm(ctx, engine.WasmConfig{Module: data, Logger: logger})
	default:
		return engine.NewProcess(ctx, engine.ProcessConfig{Ruby: opts.ruby, Logger: logger})
	}
}

func describeBackend(opts options) string {
	switch {
	case opts.loopback:
		return "loopback"
	case opts.wasm != "":
		return opts.wasm
	case opts.ruby != "":
		return opts.ruby
	default:
		return "ruby"
	}
}

// runScripts executes each script file in order, or stdin when none are
// given. The first failing line stops the run.
func runScripts(ctx context.Context, sh *shell, scripts []string, out io.Writer) error {
	if len(scripts) == 0 {
		return runScript(ctx, sh, "<stdin>", os.Stdin, out)
	}
	for _, path := range scripts {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open script: %w", err)
		}
		err = runScript(ctx, sh, path, f, out)
		f.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func runScript(ctx context.Context, sh *shell, name string, r io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if err := sh.exec(ctx, sc.Text(), out); err != nil {
			return fmt.Errorf("%s:%d: %w", name, line, err)
		}
	}
	return sc.Err()
}
