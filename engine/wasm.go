package engine

import (
	"context"
	"crypto/rand"
	stderrors "errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"

	rubybridge "github.com/wippyai/rubybridge"
	"github.com/wippyai/rubybridge/errors"
)

// WasmConfig configures a WASI build of Ruby run inside wazero.
type WasmConfig struct {
	// Module is the ruby.wasm binary. It must export _start.
	Module []byte

	// MemoryLimitPages sets the maximum guest memory in pages (64KB each).
	// 0 means the wazero default (65536 pages = 4GB).
	MemoryLimitPages uint32

	// Mounts maps guest paths to host directories, e.g. "/lib" -> "./rubylib".
	Mounts map[string]string

	// Args are passed to ruby before the driver program.
	Args []string

	// Env is the guest environment.
	Env map[string]string

	Logger *zap.Logger
}

// Wasm is a Channel backed by ruby.wasm. The guest runs the driver program
// in its own goroutine; stdin and stdout are in-memory pipes.
type Wasm struct {
	*conn

	runtime wazero.Runtime
	cancel  context.CancelFunc
	stdin   *io.PipeWriter
	logger  *zap.Logger

	exited  chan struct{}
	exitErr error

	closeOnce sync.Once
}

var _ rubybridge.Channel = (*Wasm)(nil)

// NewWasm compiles cfg.Module, starts it, and waits until the driver answers.
// ctx bounds compilation and startup only.
func NewWasm(ctx context.Context, cfg WasmConfig) (*Wasm, error) {
	if len(cfg.Module) == 0 {
		return nil, errors.InvalidInput(errors.PhaseConfig, "wasm module is empty")
	}
	logger := loggerOr(cfg.Logger).With(zap.String("backend", "wasm"))

	runtimeCfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}

	// The guest outlives ctx, so it runs under its own context.
	runCtx, cancel := context.WithCancel(context.Background())
	r := wazero.NewRuntimeWithConfig(runCtx, runtimeCfg)

	fail := func(err error) (*Wasm, error) {
		cancel()
		_ = r.Close(context.Background())
		return nil, err
	}

	if _, err := instantiateWASI(runCtx, r); err != nil {
		return fail(errors.ChannelFailed("instantiate wasi", err))
	}
	compiled, err := r.CompileModule(ctx, cfg.Module)
	if err != nil {
		return fail(errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "compile ruby.wasm"))
	}
	if _, ok := compiled.ExportedFunctions()["_start"]; !ok {
		return fail(errors.InvalidInput(errors.PhaseConfig, "ruby.wasm does not export _start"))
	}
	if missing := foreignImports(compiled); len(missing) > 0 {
		return fail(errors.InvalidInput(errors.PhaseConfig,
			"ruby.wasm imports host functions other than WASI: "+describeImports(missing)))
	}

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	fsCfg := wazero.NewFSConfig()
	guests := make([]string, 0, len(cfg.Mounts))
	for g := range cfg.Mounts {
		guests = append(guests, g)
	}
	sort.Strings(guests)
	for _, g := range guests {
		fsCfg = fsCfg.WithDirMount(cfg.Mounts[g], g)
	}

	args := append([]string{"ruby"}, cfg.Args...)
	args = append(args, "-e", driverSource)

	modCfg := wazero.NewModuleConfig().
		WithName("ruby").
		WithArgs(args...).
		WithStdin(inR).
		WithStdout(outW).
		WithStderr(&logWriter{logger: logger}).
		WithFSConfig(fsCfg).
		WithSysWalltime().
		WithSysNanotime().
		WithRandSource(rand.Reader)

	keys := make([]string, 0, len(cfg.Env))
	for k := range cfg.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		modCfg = modCfg.WithEnv(k, cfg.Env[k])
	}

	w := &Wasm{
		runtime: r,
		cancel:  cancel,
		stdin:   inW,
		logger:  logger,
		exited:  make(chan struct{}),
	}
	w.conn = newConn(inW, outR, logger, func() {
		cancel()
		_ = inW.Close()
	})

	go func() {
		_, err := r.InstantiateModule(runCtx, compiled, modCfg)
		var exit *sys.ExitError
		if stderrors.As(err, &exit) && exit.ExitCode() == 0 {
			err = nil
		}
		w.exitErr = err
		if err != nil {
			logger.Warn("ruby.wasm exited", zap.Error(err))
		}
		_ = outW.CloseWithError(io.EOF)
		_ = inR.Close()
		close(w.exited)
	}()

	logger.Info("ruby.wasm started", zap.Int("module_bytes", len(cfg.Module)))

	if err := ping(ctx, w); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}

// Close ends the driver loop, stops the guest and releases the runtime.
func (w *Wasm) Close() error {
	var err error
	w.closeOnce.Do(func() {
		_ = w.stdin.Close()
		select {
		case <-w.exited:
		case <-time.After(closeGrace):
			w.logger.Warn("ruby.wasm did not exit, cancelling")
			w.cancel()
			<-w.exited
		}

		w.conn.mu.Lock()
		w.conn.broken = errors.Closed("ruby.wasm")
		w.conn.mu.Unlock()

		w.cancel()
		if cerr := w.runtime.Close(context.Background()); cerr != nil {
			err = errors.ChannelFailed("close runtime", cerr)
		}
	})
	return err
}
