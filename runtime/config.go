package runtime

import (
	"go.uber.org/zap"
)

// DefaultPrefix marks target variables that pull discovers on its own.
const DefaultPrefix = "sos"

// PullPolicy decides what Pull does after a per-name failure.
type PullPolicy int

const (
	// PullPartial logs the failure, omits the name, continues with the
	// rest and returns the aggregated error next to the partial result.
	PullPartial PullPolicy = iota

	// PullAbort stops at the first failure and returns what was decoded
	// so far together with the error.
	PullAbort
)

func (p PullPolicy) String() string {
	switch p {
	case PullPartial:
		return "partial"
	case PullAbort:
		return "abort"
	default:
		return "unknown"
	}
}

// Config holds Session settings. The zero value is usable; empty fields
// take their defaults in New.
type Config struct {
	// Prefix selects bound target names for discovery. Empty means DefaultPrefix.
	Prefix string

	PullPolicy PullPolicy

	// Debug logs every statement sent and every raw literal received.
	Debug bool

	// Logger defaults to engine.Logger().
	Logger *zap.Logger
}

// DefaultConfig returns the settings used by the command line tool.
func DefaultConfig() Config {
	return Config{
		Prefix:     DefaultPrefix,
		PullPolicy: PullPartial,
	}
}
