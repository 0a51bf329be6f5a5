// Package errors provides structured error types for rubybridge.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the variable name, the raw literal text, a value path
// and the cause chain, so a failed transfer can be diagnosed without re-running it.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindInvalidData).
//		Name("sos_df").
//		Text(raw).
//		Detail("unexpected %q at offset %d", ch, pos).
//		Build()
//
// Or use convenience constructors for the transfer taxonomy:
//
//	err := errors.UnknownVariable("does_not_exist", "")
//	err := errors.TargetEvaluation(errors.PhasePush, "x", "NameError", "undefined local variable")
//
// All errors implement the standard error interface and support errors.Is/As.
// A sentinel with an empty Phase matches on Kind alone:
//
//	if errors.Is(err, errors.ErrTargetEvaluation) { ... }
package errors
