package contracts

import (
	"errors"
)

// ErrInvalidArgument marks malformed or missing required input.
// Failures in envelope construction and correlation encoding wrap it
// so callers can test with errors.Is. Missing optional fields are
// never errors; accessors report them as absent instead.
var ErrInvalidArgument = errors.New("invalid argument")
