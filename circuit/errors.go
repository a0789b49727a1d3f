package circuit

import (
	"errors"
	"fmt"
)

// Sentinel circuit semantic errors — surfaced to the caller rather than
// panicking, per the error-kind taxonomy: these indicate a problem with the
// circuit itself (as opposed to a calling-convention bug like an
// out-of-range bit index).
var (
	ErrInvalidTarget       = errors.New("circuit: invalid target for gate")
	ErrLookbackBeforeStart = errors.New("circuit: rec[] lookback references before the start of the record")
	ErrArgCount            = errors.New("circuit: wrong number of arguments for gate")
	ErrProbabilityRange    = errors.New("circuit: probability argument outside [0,1]")
)

// Error reports a circuit semantic error, naming the offending instruction
// and (when applicable) target so callers can point back at source.
type Error struct {
	InstructionIndex int
	Target           int
	Reason           string
	Err              error
}

func (e *Error) Error() string {
	return fmt.Sprintf("circuit: instruction %d: %s", e.InstructionIndex, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }
