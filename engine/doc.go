// Package engine provides the Channel backends that reach a Ruby interpreter.
//
// # Backends
//
//	Process   native ruby subprocess (os/exec)
//	Wasm      ruby.wasm running under wazero with WASI preview1
//	Loopback  in-process target that understands the preamble statements only
//
// Process and Wasm run the same driver program (DriverSource) inside Ruby.
// The driver evaluates every request in one persistent binding, captures
// $stdout and $stderr, and answers with framed sections.
//
// # Driver Protocol
//
// A request is a header line followed by the code bytes:
//
//	@@sos <id> <nbytes>\n<code>
//
// The reply is a series of sections ending with done:
//
//	@@sos <id> stdout <nbytes>\n<captured stdout>
//	@@sos <id> stderr <nbytes>\n<captured stderr>
//	@@sos <id> result <nbytes>\n<inspect of the value>
//	@@sos <id> error  <nbytes>\n<Class: message>
//	@@sos <id> done 0\n
//
// The id is a random UUID per request. The reader skips stray lines and
// sections carrying another id.
//
// # Cancellation
//
// Evaluate honours its context while waiting for the reply. An interrupted
// request leaves the reply stream in an unknown position, so the backend is
// killed and every later call fails with a channel error.
//
// # Logging
//
// Components take an optional *zap.Logger and fall back to Logger(), which
// is a no-op until SetLogger is called.
package engine
