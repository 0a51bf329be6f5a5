package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseEncode  Phase = "encode"  // Go value to Ruby literal
	PhaseDecode  Phase = "decode"  // Ruby literal to Go value
	PhasePush    Phase = "push"    // source to target transfer
	PhasePull    Phase = "pull"    // target to source transfer
	PhaseChannel Phase = "channel" // request/response round trip
	PhaseSession Phase = "session" // preamble injection, version query
	PhaseConfig  Phase = "config"  // backend and session configuration
)

// Kind categorizes the error
type Kind string

const (
	KindUnknownVariable  Kind = "unknown_variable"
	KindDegraded         Kind = "degraded"
	KindTargetEvaluation Kind = "target_evaluation"
	KindInvalidData      Kind = "invalid_data"
	KindOverflow         Kind = "overflow"
	KindInvalidInput     Kind = "invalid_input"
	KindChannel          Kind = "channel"
	KindNoResponse       Kind = "no_response"
	KindNotInitialized   Kind = "not_initialized"
	KindClosed           Kind = "closed"
)

// Sentinels for errors.Is. They carry no Phase and so match any phase.
var (
	ErrUnknownVariable  = &Error{Kind: KindUnknownVariable}
	ErrDegraded         = &Error{Kind: KindDegraded}
	ErrTargetEvaluation = &Error{Kind: KindTargetEvaluation}
	ErrDecode           = &Error{Phase: PhaseDecode, Kind: KindInvalidData}
	ErrChannel          = &Error{Kind: KindChannel}
	ErrClosed           = &Error{Kind: KindClosed}
)

// Error is the structured error type used throughout rubybridge
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Name   string // variable involved, if any
	Text   string // raw literal or interpreter text, if any
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Name != "" {
		b.WriteString(": variable ")
		b.WriteString(e.Name)
	}

	if e.Detail != "" {
		if e.Name != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Text != "" {
		b.WriteString(" in ")
		b.WriteString(preview(e.Text))
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// An empty Phase on target matches every phase.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && e.Phase != t.Phase {
		return false
	}
	return e.Kind == t.Kind
}

const previewLimit = 64

func preview(s string) string {
	r := []rune(s)
	if len(r) <= previewLimit {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%q...", string(r[:previewLimit]))
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the value path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Name sets the variable name
func (b *Builder) Name(name string) *Builder {
	b.err.Name = name
	return b
}

// Text sets the raw text that could not be handled
func (b *Builder) Text(text string) *Builder {
	b.err.Text = text
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for the transfer taxonomy

// UnknownVariable reports a requested source name that is not bound.
// suggestion is the closest bound name, or empty.
func UnknownVariable(name, suggestion string) *Error {
	detail := "not defined in the source namespace"
	if suggestion != "" {
		detail += fmt.Sprintf(" (did you mean %q?)", suggestion)
	}
	return &Error{
		Phase:  PhasePush,
		Kind:   KindUnknownVariable,
		Name:   name,
		Detail: detail,
	}
}

// Degraded reports a value encoded as a placeholder or converted lossily.
// It is a warning, never returned from a transfer.
func Degraded(path []string, detail string) *Error {
	return &Error{
		Phase:  PhaseEncode,
		Kind:   KindDegraded,
		Path:   path,
		Detail: detail,
	}
}

// TargetEvaluation reports an exception raised by the interpreter.
func TargetEvaluation(phase Phase, name, errName, errValue string) *Error {
	detail := errName
	if errValue != "" {
		if detail != "" {
			detail += ": "
		}
		detail += errValue
	}
	return &Error{
		Phase:  phase,
		Kind:   KindTargetEvaluation,
		Name:   name,
		Detail: detail,
	}
}

// DecodeFailed reports literal text that could not be parsed.
func DecodeFailed(text string, offset int, detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindInvalidData,
		Text:   text,
		Detail: fmt.Sprintf("%s at offset %d", detail, offset),
		Cause:  cause,
		Value:  offset,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, text string, targetType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Text:   text,
		Detail: fmt.Sprintf("value overflows %s", targetType),
	}
}

// ChannelFailed reports a transport failure on the interpreter channel.
func ChannelFailed(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseChannel,
		Kind:   KindChannel,
		Detail: detail,
		Cause:  cause,
	}
}

// NoResponse reports a reply stream that ended without a matching response.
func NoResponse(expect []string) *Error {
	return &Error{
		Phase:  PhaseChannel,
		Kind:   KindNoResponse,
		Detail: fmt.Sprintf("no response of kind %s", strings.Join(expect, "|")),
	}
}

// Closed reports use of a closed channel or session.
func Closed(what string) *Error {
	return &Error{
		Phase:  PhaseChannel,
		Kind:   KindClosed,
		Detail: fmt.Sprintf("%s is closed", what),
	}
}

// NotInitialized creates a not-initialized error
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// WithName returns a copy of err tagged with a variable name.
// Non-structured errors are wrapped as channel failures.
func WithName(err error, phase Phase, name string) *Error {
	if e, ok := err.(*Error); ok {
		c := *e
		c.Name = name
		return &c
	}
	return &Error{
		Phase: phase,
		Kind:  KindChannel,
		Name:  name,
		Cause: err,
	}
}
