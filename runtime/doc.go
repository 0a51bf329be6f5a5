// Package runtime is the transfer layer between a Go namespace and a Ruby
// interpreter.
//
// # Quick Start
//
//	ch := engine.NewLoopback() // or engine.NewProcess / engine.NewWasm
//	scope := value.NewScope()
//	scope.Set("num_var", value.Int(123))
//
//	sess := runtime.New(ch, scope, runtime.DefaultConfig())
//	if err := sess.Push(ctx, []string{"num_var"}, ""); err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := sess.Pull(ctx, []string{"num_var"}, "")
//	v, _ := res.Get("num_var") // 123
//
// # Operations
//
//	Init     inject the preamble once; Push and Pull call it implicitly
//	Push     encode source values and assign them in the interpreter
//	Pull     list target bindings, serialize each eligible one, decode it
//	Version  interpreter version banner
//	Export   register target names for discovery (sos_export)
//
// # Errors
//
// Push checks every name before sending anything, so an unknown name leaves
// the interpreter untouched. Per-name interpreter exceptions are aggregated
// with go.uber.org/multierr; use multierr.Errors to split them and
// errors.Is with the sentinels in package errors to classify them.
//
// Pull follows Config.PullPolicy: PullPartial (default) keeps going and
// returns the partial result with the aggregated error, PullAbort stops at
// the first failure. A transport failure always stops the call.
//
// # Thread Safety
//
// A Session serializes its operations with a mutex.
package runtime
