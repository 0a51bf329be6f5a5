package runtime

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	rubybridge "github.com/wippyai/rubybridge"
	"github.com/wippyai/rubybridge/engine"
	"github.com/wippyai/rubybridge/errors"
	"github.com/wippyai/rubybridge/literal"
	"github.com/wippyai/rubybridge/preamble"
	"github.com/wippyai/rubybridge/value"
)

// debugLimit caps statements and literals written to the debug log.
const debugLimit = 512

// Session moves values between a source Scope and the interpreter behind a
// Channel. Operations are serialized; the only state kept between them is
// whether the preamble has been injected.
type Session struct {
	ch     rubybridge.Channel
	scope  *value.Scope
	cfg    Config
	logger *zap.Logger

	mu       sync.Mutex
	injected bool
	warnings []*errors.Error
}

// New returns a session over ch. A nil scope gets a fresh empty one.
func New(ch rubybridge.Channel, scope *value.Scope, cfg Config) *Session {
	if scope == nil {
		scope = value.NewScope()
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	logger := cfg.Logger
	if logger == nil {
		logger = engine.Logger()
	}
	return &Session{
		ch:     ch,
		scope:  scope,
		cfg:    cfg,
		logger: logger.Named("session"),
	}
}

// Scope returns the source namespace.
func (s *Session) Scope() *value.Scope {
	return s.scope
}

// Config returns the effective configuration.
func (s *Session) Config() Config {
	return s.cfg
}

// Warnings returns the degradations reported by the last Push, and the
// unsupported placeholders received by the last Pull.
func (s *Session) Warnings() []*errors.Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*errors.Error(nil), s.warnings...)
}

// Init injects the preamble. Later calls are no-ops once it succeeded.
func (s *Session) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.init(ctx)
}

func (s *Session) init(ctx context.Context) error {
	if s.injected {
		return nil
	}
	resp, err := s.eval(ctx, preamble.Source(), "", rubybridge.ResponseExecuteResult)
	if err != nil {
		return err
	}
	if resp.Failed() {
		return errors.TargetEvaluation(errors.PhaseSession, "", resp.ErrName, resp.ErrValue)
	}
	s.injected = true
	s.logger.Info("preamble injected")
	return nil
}

// Push assigns each named source variable in the interpreter. rename gives
// the target name and is allowed with exactly one name.
//
// All names are checked before anything is sent. An interpreter exception
// for one name is recorded and the rest continue; the returned error then
// aggregates every failure (see multierr.Errors). A transport failure stops
// the call.
func (s *Session) Push(ctx context.Context, names []string, rename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnings = nil

	if rename != "" && len(names) != 1 {
		return errors.InvalidInput(errors.PhasePush,
			fmt.Sprintf("rename needs exactly one variable, got %d", len(names)))
	}

	type item struct {
		name, target string
		v            value.Value
	}
	items := make([]item, 0, len(names))
	var missing error
	for _, n := range names {
		v, ok := s.scope.Get(n)
		if !ok {
			missing = multierr.Append(missing, errors.UnknownVariable(n, closestName(n, s.scope.Names())))
			continue
		}
		target := n
		if rename != "" {
			target = rename
		}
		if !preamble.ValidName(target) {
			e := errors.InvalidInput(errors.PhasePush,
				fmt.Sprintf("%q is not a valid Ruby local variable name", target))
			e.Name = n
			return e
		}
		items = append(items, item{name: n, target: target, v: v})
	}
	if missing != nil {
		return missing
	}
	if len(items) == 0 {
		return nil
	}

	if err := s.init(ctx); err != nil {
		return err
	}

	var warnings []*errors.Error
	enc := literal.NewEncoder(
		literal.WithLogger(s.logger),
		literal.WithWarnFunc(func(e *errors.Error) { warnings = append(warnings, e) }),
	)
	defer func() { s.warnings = warnings }()

	var errs error
	for _, it := range items {
		lit := enc.EncodeNamed(it.name, it.v)
		resp, err := s.eval(ctx, preamble.Assign(it.target, lit), "", rubybridge.ResponseExecuteResult)
		if err != nil {
			return multierr.Append(errs, errors.WithName(err, errors.PhasePush, it.name))
		}
		if resp.Failed() {
			e := errors.TargetEvaluation(errors.PhasePush, it.name, resp.ErrName, resp.ErrValue)
			e.Text = lit
			s.logger.Warn("push failed", zap.String("name", it.name), zap.Error(e))
			errs = multierr.Append(errs, e)
			continue
		}
		s.logger.Debug("pushed", zap.String("name", it.name), zap.String("target", it.target))
	}
	return errs
}

// PullResult holds the values pulled from the interpreter in pull order.
type PullResult struct {
	Names  []string
	Values map[string]value.Value
}

// Single returns the value when exactly one name was pulled.
func (r *PullResult) Single() (value.Value, bool) {
	if r == nil || len(r.Names) != 1 {
		return value.Value{}, false
	}
	return r.Values[r.Names[0]], true
}

// Get returns a pulled value by name.
func (r *PullResult) Get(name string) (value.Value, bool) {
	if r == nil {
		return value.Value{}, false
	}
	v, ok := r.Values[name]
	return v, ok
}

func (r *PullResult) add(name string, v value.Value) {
	r.Names = append(r.Names, name)
	r.Values[name] = v
}

// Pull reads target variables back as values.
//
// Without rename, the interpreter's bindings are listed first: bound names
// carrying the configured prefix and names registered with sos_export are
// pulled, followed by any requested names not already covered. With rename,
// exactly one name is pulled, discovery is skipped, and the result is keyed
// by rename.
//
// Failures follow Config.PullPolicy. The result is never nil, and holds
// whatever decoded even when an error is returned.
func (s *Session) Pull(ctx context.Context, names []string, rename string) (*PullResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := &PullResult{Values: make(map[string]value.Value)}

	if rename != "" && len(names) != 1 {
		return res, errors.InvalidInput(errors.PhasePull,
			fmt.Sprintf("rename needs exactly one variable, got %d", len(names)))
	}
	for _, n := range names {
		if !preamble.ValidName(n) {
			e := errors.InvalidInput(errors.PhasePull,
				fmt.Sprintf("%q is not a valid Ruby local variable name", n))
			e.Name = n
			return res, e
		}
	}

	if err := s.init(ctx); err != nil {
		return res, err
	}

	var order []string
	seen := make(map[string]bool)
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			order = append(order, n)
		}
	}
	if rename == "" {
		listing, err := s.listing(ctx)
		if err != nil {
			return res, err
		}
		for _, n := range listing.Bound {
			if strings.HasPrefix(n, s.cfg.Prefix) {
				add(n)
			}
		}
		for _, n := range listing.Exported {
			add(n)
		}
	}
	for _, n := range names {
		add(n)
	}

	s.warnings = nil
	var errs error
	for _, n := range order {
		v, err := s.pullOne(ctx, n)
		if err != nil {
			errs = multierr.Append(errs, err)
			if isTransport(err) || s.cfg.PullPolicy == PullAbort {
				return res, errs
			}
			s.logger.Warn("pull failed", zap.String("name", n), zap.Error(err))
			continue
		}
		key := n
		if rename != "" {
			key = rename
		}
		res.add(key, v)
	}
	return res, errs
}

func (s *Session) listing(ctx context.Context) (preamble.Listing, error) {
	resp, err := s.eval(ctx, preamble.ListingCall, "stdout", rubybridge.ResponseStream)
	if err != nil {
		return preamble.Listing{}, err
	}
	if resp.Failed() {
		return preamble.Listing{}, errors.TargetEvaluation(errors.PhasePull, "", resp.ErrName, resp.ErrValue)
	}
	s.debugText("listing", resp.Text)
	return preamble.ParseListing(resp.Text)
}

func (s *Session) pullOne(ctx context.Context, name string) (value.Value, error) {
	resp, err := s.eval(ctx, preamble.SerializeCall(name), "stdout", rubybridge.ResponseStream)
	if err != nil {
		return value.Value{}, errors.WithName(err, errors.PhasePull, name)
	}
	if resp.Failed() {
		return value.Value{}, errors.TargetEvaluation(errors.PhasePull, name, resp.ErrName, resp.ErrValue)
	}
	s.debugText("literal", resp.Text, zap.String("name", name))

	v, err := literal.Decode(resp.Text)
	if err != nil {
		return value.Value{}, errors.WithName(err, errors.PhaseDecode, name)
	}
	if v.Kind() == value.KindString && strings.HasPrefix(v.Str(), literal.UnsupportedPrefix) {
		w := errors.Degraded([]string{name}, strings.ToLower(v.Str()[:1])+v.Str()[1:])
		w.Phase = errors.PhasePull
		s.warnings = append(s.warnings, w)
		s.logger.Warn("lossy conversion", zap.String("name", name), zap.String("detail", v.Str()))
	}
	return v, nil
}

// Version returns the interpreter's answer to the version query verbatim.
// That is the inspect of RUBY_DESCRIPTION, so it arrives quoted.
func (s *Session) Version(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp, err := s.eval(ctx, preamble.VersionQuery, "", rubybridge.ResponseExecuteResult)
	if err != nil {
		return "", err
	}
	if resp.Failed() {
		return "", errors.TargetEvaluation(errors.PhaseSession, "", resp.ErrName, resp.ErrValue)
	}
	return resp.Text, nil
}

// Export registers target names for discovery regardless of prefix.
func (s *Session) Export(ctx context.Context, names ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range names {
		if !preamble.ValidName(n) {
			return errors.InvalidInput(errors.PhaseSession,
				fmt.Sprintf("%q is not a valid Ruby local variable name", n))
		}
	}
	if len(names) == 0 {
		return nil
	}
	if err := s.init(ctx); err != nil {
		return err
	}
	resp, err := s.eval(ctx, preamble.ExportCall(names...), "", rubybridge.ResponseExecuteResult)
	if err != nil {
		return err
	}
	if resp.Failed() {
		return errors.TargetEvaluation(errors.PhaseSession, "", resp.ErrName, resp.ErrValue)
	}
	return nil
}

// Evaluate sends arbitrary code, for front ends that mix transfers with
// plain interpreter input. Stream output and results are both accepted.
func (s *Session) Evaluate(ctx context.Context, code string) (*rubybridge.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eval(ctx, code, "", rubybridge.ResponseStream, rubybridge.ResponseExecuteResult)
}

func (s *Session) eval(ctx context.Context, code, stream string, expect ...rubybridge.ResponseKind) (*rubybridge.Response, error) {
	s.debugText("send", code)
	return s.ch.Evaluate(ctx, rubybridge.Request{Code: code, Expect: expect, Stream: stream})
}

func (s *Session) debugText(msg, text string, fields ...zap.Field) {
	if !s.cfg.Debug {
		return
	}
	if len(text) > debugLimit {
		text = text[:debugLimit] + "..."
	}
	s.logger.Debug(msg, append(fields, zap.String("text", text))...)
}

// isTransport reports whether err leaves the channel unusable.
func isTransport(err error) bool {
	return stderrors.Is(err, errors.ErrChannel) || stderrors.Is(err, errors.ErrClosed)
}
