package framesim

import (
	"github.com/hupe1980/stabframe/circuit"
	"github.com/hupe1980/stabframe/gate"
	"github.com/hupe1980/stabframe/internal/simdbits"
)

// handlePauliGate applies I/X/Y/Z to every target qubit. A Pauli gate's
// Linear1Q is the identity map (gate.deriveLinear1Q only captures the
// bit-plane action; a Pauli's effect is entirely a sign flip, which frame
// simulation does not track), so routing it through applyLinear1Q would be a
// silent no-op. Instead X/Y/Z XOR the all-ones mask into the plane(s) that
// correspond to their own Pauli component directly: X sets x_table, Z sets
// z_table, Y sets both (Y = iXZ).
func handlePauliGate(s *Simulator, in circuit.Instruction) error {
	var xorX, xorZ bool
	switch in.Gate.Name {
	case "X":
		xorX = true
	case "Y":
		xorX, xorZ = true, true
	case "Z":
		xorZ = true
	case "I":
		return nil
	}
	if !xorX && !xorZ {
		return nil
	}
	for _, t := range in.Targets {
		q := t.Qubit()
		if xorX {
			s.xTable.Row(q).Xor(s.allOnes.Ref())
		}
		if xorZ {
			s.zTable.Row(q).Xor(s.allOnes.Ref())
		}
	}
	return nil
}

// handleSingleQubitClifford applies a unitary Clifford's GF2 linear map to
// every target qubit's (x, z) row pair.
func handleSingleQubitClifford(s *Simulator, in circuit.Instruction) error {
	lin := in.Gate.Linear1Q()
	for _, t := range in.Targets {
		applyLinear1Q(lin, s.xTable.Row(t.Qubit()), s.zTable.Row(t.Qubit()), s.scratch1Q[0], s.scratch1Q[1])
	}
	return nil
}

// handleTwoQubitClifford applies a two-qubit Clifford's 4x4 GF2 matrix to
// each consecutive target pair (CX 0 1 2 3 acts on (0,1) then (2,3)).
func handleTwoQubitClifford(s *Simulator, in circuit.Instruction) error {
	lin := in.Gate.Linear2Q()
	for i := 0; i+1 < len(in.Targets); i += 2 {
		a, b := in.Targets[i].Qubit(), in.Targets[i+1].Qubit()
		applyLinear2Q(lin, s.xTable.Row(a), s.zTable.Row(a), s.xTable.Row(b), s.zTable.Row(b), &s.scratch2Q)
	}
	return nil
}

// applyLinear1Q overwrites xRow/zRow in place with the image of lin applied
// to their current contents, using scratchX/scratchZ (each sized
// WordsPerRow) to hold the pre-image: both outputs can depend on both
// inputs, so the old values must survive until both new values are written.
func applyLinear1Q(lin gate.Linear1Q, xRow, zRow simdbits.Ref, scratchX, scratchZ []uint64) {
	copy(scratchX, xRow.Words())
	copy(scratchZ, zRow.Words())
	xRow.Clear()
	zRow.Clear()
	if lin.XFromX {
		simdbits.XorWords(xRow.Words(), scratchX)
	}
	if lin.XFromZ {
		simdbits.XorWords(xRow.Words(), scratchZ)
	}
	if lin.ZFromX {
		simdbits.XorWords(zRow.Words(), scratchX)
	}
	if lin.ZFromZ {
		simdbits.XorWords(zRow.Words(), scratchZ)
	}
}

// applyLinear2Q overwrites xa/za/xb/zb in place with the image of lin's 4x4
// GF2 matrix applied to their current contents, using scratch[0..3] (each
// sized WordsPerRow, indexed xa=0/za=1/xb=2/zb=3 matching gate.Linear2Q's
// M[output][input] convention) to hold the pre-image.
func applyLinear2Q(lin gate.Linear2Q, xa, za, xb, zb simdbits.Ref, scratch *[4][]uint64) {
	rows := [4]simdbits.Ref{xa, za, xb, zb}
	for i, r := range rows {
		copy(scratch[i], r.Words())
	}
	for _, r := range rows {
		r.Clear()
	}
	for out, r := range rows {
		for in := 0; in < 4; in++ {
			if lin.M[out][in] {
				simdbits.XorWords(r.Words(), scratch[in])
			}
		}
	}
}
