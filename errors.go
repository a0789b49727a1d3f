package stabframe

import (
	"errors"
	"fmt"

	"github.com/hupe1980/stabframe/circuit"
	"github.com/hupe1980/stabframe/record"
)

// ErrClosed is returned by Simulator methods once Close has been called.
var ErrClosed = errors.New("stabframe: simulator is closed")

// ErrInvalidDimensions indicates a Simulator was constructed with a
// negative qubit or shot count — a programmer error, not a circuit
// semantic problem.
type ErrInvalidDimensions struct {
	NumQubits int
	NumShots  int
}

func (e *ErrInvalidDimensions) Error() string {
	return fmt.Sprintf("stabframe: invalid dimensions: %d qubits, %d shots", e.NumQubits, e.NumShots)
}

// translateError prefixes a circuit.Error or a record.ErrLookbackBeforeStart
// error with "stabframe:", keeping it matchable with errors.Is/errors.As
// against the circuit and record sentinels; any other error is returned
// unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var circErr *circuit.Error
	if errors.As(err, &circErr) {
		return fmt.Errorf("stabframe: %w", err)
	}
	if errors.Is(err, record.ErrLookbackBeforeStart) {
		return fmt.Errorf("stabframe: %w", err)
	}

	return err
}
