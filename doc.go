// Package rubybridge moves values between a Go process and a Ruby interpreter
// that share one interactive session.
//
// A value computed on one side can be inspected or continued on the other.
// Go values are rendered as Ruby literals and assigned in the interpreter
// (push); Ruby values are serialized by an injected preamble into the same
// literal grammar and parsed back into Go values (pull).
//
// # Architecture Overview
//
//	rubybridge/         Root package with the Channel contract
//	├── value/          Tagged Value union and the source namespace (Scope)
//	├── literal/        Ruby literal encoder and recursive-descent decoder
//	├── preamble/       Injected Ruby serializer and the statement forms sent to it
//	├── engine/         Channel backends: ruby subprocess, ruby.wasm on wazero, loopback
//	├── runtime/        Session: Init, Push, Pull, Version
//	├── codegen/        Go source export of values
//	├── errors/         Structured error types for debugging
//	└── cmd/rbx/        Command line and interactive front end
//
// # Quick Start
//
//	ch, err := engine.NewProcess(ctx, engine.ProcessConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ch.Close()
//
//	scope := value.NewScope()
//	scope.Set("sos_nums", value.List(value.Int(1), value.Int(2)))
//
//	sess := runtime.New(ch, scope, runtime.DefaultConfig())
//	if err := sess.Push(ctx, []string{"sos_nums"}, ""); err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := sess.Pull(ctx, nil, "")
//	fmt.Println(res.Values["sos_nums"]) // [1, 2]
//
// # Channel
//
// The interpreter is reached through a Channel: submit code, receive the first
// response of an expected kind. Channels serialize requests; at most one
// request is in flight. Timeouts are imposed by the context passed to
// Evaluate, never by the transfer layer itself.
//
// # Thread Safety
//
// Session serializes its own operations. Values are immutable once built and
// may be shared freely.
package rubybridge
