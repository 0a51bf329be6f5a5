package engine

import (
	"context"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"

	rubybridge "github.com/wippyai/rubybridge"
	"github.com/wippyai/rubybridge/errors"
)

// ProcessConfig configures a native ruby subprocess.
type ProcessConfig struct {
	// Ruby is the interpreter executable. Empty means "ruby" on PATH.
	Ruby string

	// Args are passed to the interpreter before the driver program,
	// for example "-I", "lib" or "-rdaru".
	Args []string

	// Env replaces the child environment when non-nil.
	Env []string

	// Dir is the child working directory. Empty means the current one.
	Dir string

	Logger *zap.Logger
}

// closeGrace is how long Close waits for the driver to exit on EOF.
const closeGrace = 2 * time.Second

// Process is a Channel backed by a ruby subprocess running the driver.
// It is safe for concurrent use; requests are serialized.
type Process struct {
	*conn

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *os.File
	logger *zap.Logger

	exited  chan struct{}
	waitErr error

	closeOnce sync.Once
}

var _ rubybridge.Channel = (*Process)(nil)

// NewProcess starts the interpreter and waits until the driver answers.
// ctx bounds startup only.
func NewProcess(ctx context.Context, cfg ProcessConfig) (*Process, error) {
	ruby := cfg.Ruby
	if ruby == "" {
		ruby = "ruby"
	}
	path, err := exec.LookPath(ruby)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "ruby interpreter not found")
	}

	logger := loggerOr(cfg.Logger).With(zap.String("backend", "process"))

	args := append(append([]string{}, cfg.Args...), "-e", driverSource)
	cmd := exec.Command(path, args...)
	cmd.Env = cfg.Env
	cmd.Dir = cfg.Dir
	cmd.Stderr = &logWriter{logger: logger}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.ChannelFailed("stdin pipe", err)
	}
	// cmd.Wait closes StdoutPipe readers, so stdout is an os.Pipe owned
	// here and closed only after the child is reaped.
	stdout, pw, err := os.Pipe()
	if err != nil {
		_ = stdin.Close()
		return nil, errors.ChannelFailed("stdout pipe", err)
	}
	cmd.Stdout = pw
	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		_ = stdout.Close()
		_ = pw.Close()
		return nil, errors.ChannelFailed("start "+path, err)
	}
	_ = pw.Close()

	p := &Process{
		cmd:    cmd,
		stdin:  stdin,
		stdout: stdout,
		logger: logger,
		exited: make(chan struct{}),
	}
	p.conn = newConn(stdin, stdout, logger, p.kill)
	go func() {
		p.waitErr = cmd.Wait()
		close(p.exited)
	}()

	logger.Info("ruby started", zap.String("path", path), zap.Int("pid", cmd.Process.Pid))

	if err := ping(ctx, p); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

// ping checks that the driver loop is answering.
func ping(ctx context.Context, ch rubybridge.Channel) error {
	resp, err := ch.Evaluate(ctx, rubybridge.Request{
		Code:   "nil",
		Expect: []rubybridge.ResponseKind{rubybridge.ResponseExecuteResult},
	})
	if err != nil {
		return err
	}
	if resp.Failed() || resp.Text != "nil" {
		return errors.New(errors.PhaseChannel, errors.KindChannel).
			Text(resp.Text).
			Detail("driver handshake failed").
			Build()
	}
	return nil
}

func (p *Process) kill() {
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
}

// Close ends the driver loop and reaps the interpreter. It is safe to call
// more than once.
func (p *Process) Close() error {
	var err error
	p.closeOnce.Do(func() {
		_ = p.stdin.Close()
		select {
		case <-p.exited:
		case <-time.After(closeGrace):
			p.logger.Warn("ruby did not exit, killing")
			p.kill()
			<-p.exited
		}

		p.conn.mu.Lock()
		p.conn.broken = errors.Closed("ruby process")
		p.conn.mu.Unlock()
		_ = p.stdout.Close()
		if p.waitErr != nil {
			if _, ok := p.waitErr.(*exec.ExitError); !ok {
				err = errors.ChannelFailed("wait", p.waitErr)
			}
		}
	})
	return err
}
