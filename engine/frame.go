package engine

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	rubybridge "github.com/wippyai/rubybridge"
	"github.com/wippyai/rubybridge/errors"
)

//go:embed driver.rb
var driverSource string

// DriverSource returns the Ruby program run by the Process and Wasm
// backends. It reads request frames on stdin and answers on stdout.
func DriverSource() string {
	return driverSource
}

const (
	frameMagic = "@@sos"

	// maxSection bounds a single response section.
	maxSection = 256 << 20
)

// Response sections written by the driver.
const (
	sectionStdout = "stdout"
	sectionStderr = "stderr"
	sectionResult = "result"
	sectionError  = "error"
	sectionDone   = "done"
)

type section struct {
	name string
	data string
}

// conn speaks the driver protocol over a byte stream pair. Requests are
// serialized; a request interrupted by its context breaks the conn for good
// because the reply stream can no longer be trusted.
type conn struct {
	w       io.Writer
	r       *bufio.Reader
	logger  *zap.Logger
	onBreak func()

	mu     sync.Mutex
	broken error
}

func newConn(w io.Writer, r io.Reader, logger *zap.Logger, onBreak func()) *conn {
	return &conn{
		w:       w,
		r:       bufio.NewReaderSize(r, 64<<10),
		logger:  logger,
		onBreak: onBreak,
	}
}

type reply struct {
	sections []section
	err      error
}

// Evaluate sends req to the driver and waits for its sections.
func (c *conn) Evaluate(ctx context.Context, req rubybridge.Request) (*rubybridge.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.broken != nil {
		return nil, c.broken
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.ChannelFailed("context done before evaluation", err)
	}

	id := uuid.NewString()
	c.logger.Debug("evaluate", zap.String("id", id), zap.Int("bytes", len(req.Code)))

	done := make(chan reply, 1)
	go func() {
		if err := writeFrame(c.w, id, req.Code); err != nil {
			done <- reply{err: err}
			return
		}
		secs, err := readReply(c.r, id, c.logger)
		done <- reply{sections: secs, err: err}
	}()

	select {
	case rep := <-done:
		if rep.err != nil {
			c.fail(errors.ChannelFailed("driver stream", rep.err))
			return nil, c.broken
		}
		resp := pick(req, rep.sections)
		if resp == nil {
			return nil, errors.NoResponse(expectNames(req))
		}
		return resp, nil
	case <-ctx.Done():
		c.fail(errors.ChannelFailed("evaluation interrupted", ctx.Err()))
		return nil, c.broken
	}
}

func (c *conn) fail(err *errors.Error) {
	c.broken = err
	c.logger.Warn("channel broken", zap.Error(err))
	if c.onBreak != nil {
		c.onBreak()
	}
}

func writeFrame(w io.Writer, id, code string) error {
	if _, err := fmt.Fprintf(w, "%s %s %d\n", frameMagic, id, len(code)); err != nil {
		return err
	}
	_, err := io.WriteString(w, code)
	return err
}

// readReply collects the sections of reply id up to its done marker.
// Lines that are not headers, and sections of other ids, are skipped.
func readReply(r *bufio.Reader, id string, logger *zap.Logger) ([]section, error) {
	var out []section
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}

		gotID, name, n, ok := parseHeader(line)
		if !ok {
			logger.Debug("skipping driver output", zap.String("line", strings.TrimRight(line, "\n")))
			continue
		}

		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("section %s of %s: %w", name, gotID, err)
		}
		if gotID != id {
			logger.Debug("skipping foreign section", zap.String("id", gotID), zap.String("section", name))
			continue
		}
		if name == sectionDone {
			return out, nil
		}
		out = append(out, section{name: name, data: string(buf)})
	}
}

// parseHeader splits "@@sos <id> <section> <nbytes>\n".
func parseHeader(line string) (id, name string, n int, ok bool) {
	fields := strings.Fields(line)
	if len(fields) != 4 || fields[0] != frameMagic {
		return "", "", 0, false
	}
	n, err := strconv.Atoi(fields[3])
	if err != nil || n < 0 || n > maxSection {
		return "", "", 0, false
	}
	return fields[1], fields[2], n, true
}

// pick turns reply sections into the response the request waits for. An
// error section wins over any output printed before the exception.
func pick(req rubybridge.Request, secs []section) *rubybridge.Response {
	for _, s := range secs {
		if s.name == sectionError {
			return errorResponse(s.data)
		}
	}
	for _, s := range secs {
		var resp *rubybridge.Response
		switch s.name {
		case sectionStdout, sectionStderr:
			resp = &rubybridge.Response{Kind: rubybridge.ResponseStream, Stream: s.name, Text: s.data}
		case sectionResult:
			resp = &rubybridge.Response{Kind: rubybridge.ResponseExecuteResult, Text: s.data}
		default:
			continue
		}
		if req.Wants(resp) {
			return resp
		}
	}
	return nil
}

// errorResponse splits the driver's "Class: message" text.
func errorResponse(text string) *rubybridge.Response {
	name, msg, ok := strings.Cut(text, ": ")
	if !ok {
		name, msg = text, ""
	}
	return &rubybridge.Response{
		Kind:     rubybridge.ResponseError,
		Text:     text,
		ErrName:  name,
		ErrValue: msg,
	}
}

func expectNames(req rubybridge.Request) []string {
	names := make([]string, len(req.Expect))
	for i, k := range req.Expect {
		names[i] = string(k)
		if k == rubybridge.ResponseStream && req.Stream != "" {
			names[i] += "/" + req.Stream
		}
	}
	return names
}

// logWriter forwards interpreter stderr to a logger line by line.
type logWriter struct {
	logger *zap.Logger
	mu     sync.Mutex
	buf    []byte
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.logger.Warn("interpreter stderr", zap.String("line", string(w.buf[:i])))
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}
