// Package literal converts between value.Value and Ruby literal source text.
//
// The encoder renders a Value as an expression Ruby can evaluate; the
// decoder parses the same grammar back without evaluating anything. The
// injected preamble serializes Ruby objects into this grammar, so text read
// back from the interpreter goes through the same parser.
//
// # Grammar
//
//	Value kind   Literal
//	──────────────────────────────────────────────────────────────
//	null         nil
//	bool         true / false
//	int          123, -7
//	float        1.5, 1.0e+21, Float::NAN, -Float::INFINITY
//	complex      Complex(1.0, -2.0)
//	string       "1\"23"  (\, " and # escaped; raw UTF-8)
//	range        (0...5)
//	list         [1, 2, "3"]            empty: []
//	map          {"a" => 1, "b" => 2}   empty: {}
//	set          Set[1, 2]              empty: Set[]
//	table        Daru::DataFrame.new({"a" => [1, 2]}, order: ["a"], index: [0, 1])
//	matrix       Matrix[[1, 2], [3, 4]] empty: Matrix[]
//	opaque       "Unsupported datatype <description>"
//
// The decoder additionally accepts the spellings Ruby's own inspect uses
// for the same values: single-quoted strings, symbol and label hash keys,
// inclusive ranges (a..b), NaN/Infinity and Set.new([...]).
//
// # Degradation
//
// Encoding never fails. Values with no Ruby form become the "Unsupported
// datatype" string, and table columns holding mixed types are converted to
// strings. Both are reported once per occurrence through the encoder's
// logger and WarnFunc as errors.KindDegraded.
//
// # Limits
//
// Decoding rejects input longer than MaxLiteralSize and nesting deeper than
// MaxDepth.
package literal
