package framesim

import (
	"github.com/hupe1980/stabframe/circuit"
)

// plane identifies which frame table a measurement/reset basis reads or
// clears. A Z-basis (standard) outcome is flipped by an X-type frame error —
// X anticommutes with Z — so the standard basis reads x_table; symmetrically
// the X basis reads z_table. The Y basis is flipped by any error that
// anticommutes with Y (X or Z, but not the identity and not Y itself), which
// is exactly x_table XOR z_table, so it reads both.
type plane struct {
	readsX, readsZ bool
}

func planeOf(name string) plane {
	switch name {
	case "M", "MZ", "MR", "R", "RZ":
		return plane{readsX: true}
	case "MX", "RX":
		return plane{readsZ: true}
	case "MY", "RY":
		return plane{readsX: true, readsZ: true}
	default:
		return plane{readsX: true}
	}
}

// handleMeasurement implements M/MZ/MR/MX/MY: one record row per target, in
// target order. The recorded bit is the basis's plane value(s) at that
// qubit, optionally inverted for a "!q" target. MR additionally zeroes both
// planes for that qubit after recording; unlike handleReset, it does not
// re-randomize the z plane.
func handleMeasurement(s *Simulator, in circuit.Instruction) error {
	p := planeOf(in.Gate.Name)
	reset := in.Gate.Name == "MR"
	for _, t := range in.Targets {
		q := t.Qubit()
		row := s.readRow.Ref()
		switch {
		case p.readsX && p.readsZ:
			row.SetFrom(s.xTable.Row(q))
			row.Xor(s.zTable.Row(q))
		case p.readsX:
			row.SetFrom(s.xTable.Row(q))
		default:
			row.SetFrom(s.zTable.Row(q))
		}
		if t.Kind == circuit.TargetInvertedQubit {
			row.Xor(s.allOnes.Ref())
		}
		s.Record.RecordResult(row)
		if reset {
			s.xTable.Row(q).Clear()
			s.zTable.Row(q).Clear()
		}
	}
	return nil
}

// handleReset implements R/RZ/RX/RY: zero the plane(s) the gate's basis
// reads — a reset qubit's own-basis frame error is by definition zero
// relative to the now-current reference state — and re-randomize the
// conjugate plane(s) from the qubit's RNG stream, matching the fresh
// randomness NewSimulator seeds at construction: a qubit reset to a basis
// state is, from the conjugate basis, exactly as undetermined as a freshly
// allocated one.
func handleReset(s *Simulator, in circuit.Instruction) error {
	p := planeOf(in.Gate.Name)
	for _, t := range in.Targets {
		q := t.Qubit()
		if p.readsX {
			s.xTable.Row(q).Clear()
		} else {
			randomFillRow(s.xTable.Row(q), s.qubitRNG[q])
		}
		if p.readsZ {
			s.zTable.Row(q).Clear()
		} else {
			randomFillRow(s.zTable.Row(q), s.qubitRNG[q])
		}
	}
	return nil
}
