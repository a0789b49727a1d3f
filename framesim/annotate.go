package framesim

import (
	"fmt"

	"github.com/hupe1980/stabframe/circuit"
)

// handleDetector implements DETECTOR: XOR together the measurement rows its
// rec[-k] targets reference and append the result as one row of s.Detectors
// — a detector fires (records 1) for a shot iff an odd number of its
// constituent measurements came out 1, the parity check that flags a
// syndrome inconsistent with the noiseless reference trajectory.
func handleDetector(s *Simulator, in circuit.Instruction) error {
	acc := s.readRow.Ref()
	acc.Clear()
	for _, t := range in.Targets {
		row, err := s.Record.Lookback(t.Value)
		if err != nil {
			return fmt.Errorf("framesim: DETECTOR: %w", err)
		}
		acc.Xor(row)
	}
	s.Detectors.RecordResult(acc)
	return nil
}

// handleObservableInclude implements OBSERVABLE_INCLUDE(k): XOR the rows its
// rec[-k] targets reference into the accumulator for logical observable k,
// the running parity of every measurement declared part of that observable
// so far this shot.
func handleObservableInclude(s *Simulator, in circuit.Instruction) error {
	idx := int(in.Args[0])
	acc := s.Observable(idx)
	for _, t := range in.Targets {
		row, err := s.Record.Lookback(t.Value)
		if err != nil {
			return fmt.Errorf("framesim: OBSERVABLE_INCLUDE(%d): %w", idx, err)
		}
		acc.Xor(row)
	}
	return nil
}
