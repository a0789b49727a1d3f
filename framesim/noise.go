package framesim

import (
	"github.com/hupe1980/stabframe/circuit"
	"github.com/hupe1980/stabframe/internal/rng"
	"github.com/hupe1980/stabframe/internal/simdbits"
)

// handleSingleQubitError implements X_ERROR/Y_ERROR/Z_ERROR(p): for every
// shot, independently with probability p, XOR the gate's Pauli component(s)
// into the target qubit's plane(s). One Bernoulli draw per shot decides
// whether the (possibly two-plane, for Y_ERROR) error fires together, since
// it is a single error event, not two independent ones.
func handleSingleQubitError(s *Simulator, in circuit.Instruction) error {
	p := in.Args[0]
	var xorX, xorZ bool
	switch in.Gate.Name {
	case "X_ERROR":
		xorX = true
	case "Y_ERROR":
		xorX, xorZ = true, true
	case "Z_ERROR":
		xorZ = true
	}
	for _, t := range in.Targets {
		q := t.Qubit()
		mask := s.drawBernoulliMask(p, s.qubitRNG[q])
		if xorX {
			s.xTable.Row(q).Xor(mask)
		}
		if xorZ {
			s.zTable.Row(q).Xor(mask)
		}
	}
	return nil
}

// drawBernoulliMask fills s.noiseRow with an independent Bernoulli(p) bit
// per shot, drawn one shot at a time from source, and returns a Ref to it.
// The returned Ref aliases s.noiseRow and is only valid until the next call.
func (s *Simulator) drawBernoulliMask(p float64, source *rng.RNG) simdbits.Ref {
	row := s.noiseRow.Ref()
	row.Clear()
	for shot := 0; shot < s.numShots; shot++ {
		if source.Bernoulli(p) {
			row.Set(shot, true)
		}
	}
	return row
}

// handleDepolarize1 implements DEPOLARIZE1(p): per shot, with probability p
// an error fires; if it does, a uniformly random non-identity single-qubit
// Pauli is selected by rejection sampling on 2 bits (redraw on 00), taken as
// the Pauli's (x, z) components: 10 is X, 11 is Y, 01 is Z.
func handleDepolarize1(s *Simulator, in circuit.Instruction) error {
	p := in.Args[0]
	for _, t := range in.Targets {
		q := t.Qubit()
		source := s.qubitRNG[q]
		for shot := 0; shot < s.numShots; shot++ {
			if !source.Bernoulli(p) {
				continue
			}
			x, z := drawNonIdentityPauli(source)
			if x {
				s.xTable.Row(q).Flip(shot)
			}
			if z {
				s.zTable.Row(q).Flip(shot)
			}
		}
	}
	return nil
}

// drawNonIdentityPauli rejection-samples 2 bits until nonzero, returning the
// corresponding (x, z) component pair: 01->Z, 10->X, 11->Y.
func drawNonIdentityPauli(source *rng.RNG) (x, z bool) {
	for {
		b0, b1 := source.Bit(), source.Bit()
		if b0 || b1 {
			return b0, b1
		}
	}
}

// handleDepolarize2 implements DEPOLARIZE2(p): per shot pair of targets,
// with probability p an error fires; if it does, a uniformly random
// non-identity two-qubit Pauli is selected by rejection sampling on 4 bits
// (redraw on 0000), the bits read directly as (xa, za, xb, zb).
func handleDepolarize2(s *Simulator, in circuit.Instruction) error {
	p := in.Args[0]
	for i := 0; i+1 < len(in.Targets); i += 2 {
		a, b := in.Targets[i].Qubit(), in.Targets[i+1].Qubit()
		source := s.qubitRNG[a]
		for shot := 0; shot < s.numShots; shot++ {
			if !source.Bernoulli(p) {
				continue
			}
			xa, za, xb, zb := drawNonIdentityPauliPair(source)
			if xa {
				s.xTable.Row(a).Flip(shot)
			}
			if za {
				s.zTable.Row(a).Flip(shot)
			}
			if xb {
				s.xTable.Row(b).Flip(shot)
			}
			if zb {
				s.zTable.Row(b).Flip(shot)
			}
		}
	}
	return nil
}

func drawNonIdentityPauliPair(source *rng.RNG) (xa, za, xb, zb bool) {
	for {
		xa, za, xb, zb = source.Bit(), source.Bit(), source.Bit(), source.Bit()
		if xa || za || xb || zb {
			return
		}
	}
}

// handlePauliChannel1 implements PAULI_CHANNEL_1(pX, pY, pZ): per shot, draw
// one of {I, X, Y, Z} from an alias table built from the instruction's
// explicit probabilities (residual probability goes to I), then XOR the
// drawn component(s) into the target's planes.
func handlePauliChannel1(s *Simulator, in circuit.Instruction) error {
	px, py, pz := in.Args[0], in.Args[1], in.Args[2]
	pI := 1 - px - py - pz
	table := newAliasTable([]float64{pI, px, py, pz})
	for _, t := range in.Targets {
		q := t.Qubit()
		source := s.qubitRNG[q]
		for shot := 0; shot < s.numShots; shot++ {
			switch table.Sample(source) {
			case 1: // X
				s.xTable.Row(q).Flip(shot)
			case 2: // Y
				s.xTable.Row(q).Flip(shot)
				s.zTable.Row(q).Flip(shot)
			case 3: // Z
				s.zTable.Row(q).Flip(shot)
			}
		}
	}
	return nil
}

// pauliPairComponents decodes a PAULI_CHANNEL_2 outcome index in [0, 16)
// into the (xa, za, xb, zb) bits it XORs in, reading the index as a 4-bit
// binary number — an internal convention (index 0 is I⊗I) that the
// companion probability-vector ordering in Args must agree with.
func pauliPairComponents(idx int) (xa, za, xb, zb bool) {
	return idx&1 != 0, idx&2 != 0, idx&4 != 0, idx&8 != 0
}

// handlePauliChannel2 implements PAULI_CHANNEL_2: per shot pair of targets,
// draw one of the 16 two-qubit Paulis (index 0 is I⊗I) from an alias table
// built from the instruction's 15 explicit non-identity probabilities
// (Args, in pauliPairComponents index order 1..15; residual goes to I⊗I).
func handlePauliChannel2(s *Simulator, in circuit.Instruction) error {
	weights := make([]float64, 16)
	sum := 0.0
	for i, p := range in.Args {
		weights[i+1] = p
		sum += p
	}
	weights[0] = 1 - sum
	table := newAliasTable(weights)
	for i := 0; i+1 < len(in.Targets); i += 2 {
		a, b := in.Targets[i].Qubit(), in.Targets[i+1].Qubit()
		source := s.qubitRNG[a]
		for shot := 0; shot < s.numShots; shot++ {
			idx := table.Sample(source)
			if idx == 0 {
				continue
			}
			xa, za, xb, zb := pauliPairComponents(idx)
			if xa {
				s.xTable.Row(a).Flip(shot)
			}
			if za {
				s.zTable.Row(a).Flip(shot)
			}
			if xb {
				s.xTable.Row(b).Flip(shot)
			}
			if zb {
				s.zTable.Row(b).Flip(shot)
			}
		}
	}
	return nil
}

// handleCorrelatedError implements CORRELATED_ERROR(p): per shot, with
// probability p, apply the instruction's whole Pauli-product target list
// (X0 Y1 Z2 ...) as one joint error and record that this shot "took" the
// branch in s.lastCorrelated, for a following ELSE_CORRELATED_ERROR chain to
// consult.
func handleCorrelatedError(s *Simulator, in circuit.Instruction) error {
	s.lastCorrelated.Clear()
	return s.applyCorrelatedBranch(in, nil)
}

// handleElseCorrelatedError implements ELSE_CORRELATED_ERROR(p): per shot
// that did NOT take any earlier branch in this if/elseif chain, apply this
// branch's error with probability p and mark it taken; shots that already
// took an earlier branch are excluded via notYet.
func handleElseCorrelatedError(s *Simulator, in circuit.Instruction) error {
	notYet := simdbits.NewBits(s.numShots)
	notYetRef := notYet.Ref()
	notYetRef.SetFrom(s.lastCorrelated.Ref())
	notYetRef.Xor(s.allOnes.Ref()) // invert: shots not yet taken
	return s.applyCorrelatedBranch(in, &notYetRef)
}

// applyCorrelatedBranch draws a per-shot Bernoulli(p) firing mask, restricts
// it to the shots set in eligible when eligible is non-nil, and applies the
// joint Pauli product to every shot where the mask is set, XORing each
// target's x/z plane(s) according to the target's Pauli-component tag.
func (s *Simulator) applyCorrelatedBranch(in circuit.Instruction, eligible *simdbits.Ref) error {
	p := in.Args[0]
	fired := s.drawBernoulliMask(p, s.baseRNG).Clone()
	if eligible != nil {
		fired.Ref().And(*eligible)
	}
	for _, t := range in.Targets {
		q := t.Qubit()
		switch t.Kind {
		case circuit.TargetPauliX:
			s.xTable.Row(q).Xor(fired.Ref())
		case circuit.TargetPauliY:
			s.xTable.Row(q).Xor(fired.Ref())
			s.zTable.Row(q).Xor(fired.Ref())
		case circuit.TargetPauliZ:
			s.zTable.Row(q).Xor(fired.Ref())
		}
	}
	s.lastCorrelated.Ref().Or(fired.Ref())
	return nil
}
