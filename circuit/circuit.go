// Package circuit defines the parsed-circuit data model the frame simulator
// consumes: instructions, their targets, and REPEAT blocks. Parsing circuit
// text into this form is out of scope for this module — callers hand in an
// already-parsed Circuit.
package circuit

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/stabframe/gate"
)

// TargetKind tags what a Target's value means.
type TargetKind uint8

const (
	// TargetQubit is a plain qubit index.
	TargetQubit TargetKind = iota
	// TargetInvertedQubit is a qubit index for a measurement whose recorded
	// bit should be inverted ("!q").
	TargetInvertedQubit
	// TargetLookback is a measurement-record back-reference "rec[-k]", k>=1.
	TargetLookback
	// TargetSweepBit is a sweep-bit index "sweep[k]".
	TargetSweepBit
	// TargetPauliX/Y/Z tag a Pauli-product component for correlated-error
	// instructions ("X0", "Y1", "Z2").
	TargetPauliX
	TargetPauliY
	TargetPauliZ
)

// Target is one tagged target value in an instruction's target list.
type Target struct {
	Kind  TargetKind
	Value int // qubit index, lookback k, or sweep-bit index depending on Kind
}

// Qubit returns a plain qubit target.
func Qubit(q int) Target { return Target{Kind: TargetQubit, Value: q} }

// InvertedQubit returns a "!q" measurement target.
func InvertedQubit(q int) Target { return Target{Kind: TargetInvertedQubit, Value: q} }

// Lookback returns a "rec[-k]" target. k must be >= 1.
func Lookback(k int) Target { return Target{Kind: TargetLookback, Value: k} }

// SweepBit returns a "sweep[k]" target.
func SweepBit(k int) Target { return Target{Kind: TargetSweepBit, Value: k} }

// PauliTarget returns a Pauli-product component target ("Xq"/"Yq"/"Zq").
func PauliTarget(pauli byte, q int) Target {
	switch pauli {
	case 'X', 'x':
		return Target{Kind: TargetPauliX, Value: q}
	case 'Y', 'y':
		return Target{Kind: TargetPauliY, Value: q}
	case 'Z', 'z':
		return Target{Kind: TargetPauliZ, Value: q}
	default:
		panic(fmt.Sprintf("circuit: invalid Pauli target letter %q", pauli))
	}
}

// Qubit returns the target's qubit index. Panics if Kind doesn't carry one —
// callers must check Kind (or rely on prior validation against gate flags).
func (t Target) Qubit() int {
	switch t.Kind {
	case TargetQubit, TargetInvertedQubit, TargetPauliX, TargetPauliY, TargetPauliZ:
		return t.Value
	default:
		panic(fmt.Sprintf("circuit: target kind %d has no qubit index", t.Kind))
	}
}

// Instruction is one gate application: the gate, its parenthesized argument
// list, and its targets, in source order.
type Instruction struct {
	Gate    gate.Gate
	Args    []float64
	Targets []Target
}

// Validate checks the instruction's targets and argument count against the
// gate's flags, returning a descriptive error rather than panicking — this
// is the boundary where an upstream parser's output is checked before
// being handed to the executor.
func (in Instruction) Validate(instructionIndex int) error {
	if in.Gate.ArgCount != gate.ArgCountAny && len(in.Args) != in.Gate.ArgCount {
		return &Error{
			InstructionIndex: instructionIndex,
			Reason:           fmt.Sprintf("%s expects %d argument(s), got %d", in.Gate.Name, in.Gate.ArgCount, len(in.Args)),
			Err:              ErrArgCount,
		}
	}
	for _, arg := range in.Args {
		if in.Gate.Flags.Has(gate.FlagTakesParensArg|gate.FlagNoisy) && (arg < 0 || arg > 1) {
			return &Error{
				InstructionIndex: instructionIndex,
				Reason:           fmt.Sprintf("%s argument %v outside [0,1]", in.Gate.Name, arg),
				Err:              ErrProbabilityRange,
			}
		}
	}
	for _, tgt := range in.Targets {
		if err := validateTargetKind(in.Gate, tgt, instructionIndex); err != nil {
			return err
		}
	}
	return nil
}

func validateTargetKind(g gate.Gate, tgt Target, instructionIndex int) error {
	switch tgt.Kind {
	case TargetLookback:
		if !g.Flags.Has(gate.FlagTakesRecordTargets) {
			return &Error{InstructionIndex: instructionIndex, Target: tgt.Value, Reason: fmt.Sprintf("%s does not accept rec[] targets", g.Name), Err: ErrInvalidTarget}
		}
		if tgt.Value < 1 {
			return &Error{InstructionIndex: instructionIndex, Target: tgt.Value, Reason: "lookback index must be >= 1", Err: ErrInvalidTarget}
		}
	case TargetPauliX, TargetPauliY, TargetPauliZ:
		if !g.Flags.Has(gate.FlagTakesPauliTargets) {
			return &Error{InstructionIndex: instructionIndex, Target: tgt.Value, Reason: fmt.Sprintf("%s does not accept Pauli-component targets", g.Name), Err: ErrInvalidTarget}
		}
	case TargetSweepBit:
		if tgt.Value < 0 {
			return &Error{InstructionIndex: instructionIndex, Target: tgt.Value, Reason: "sweep bit index must be >= 0", Err: ErrInvalidTarget}
		}
	case TargetQubit, TargetInvertedQubit:
		if tgt.Value < 0 {
			return &Error{InstructionIndex: instructionIndex, Target: tgt.Value, Reason: "qubit index must be >= 0", Err: ErrInvalidTarget}
		}
		if tgt.Kind == TargetInvertedQubit && !g.Flags.Has(gate.FlagMeasurement) {
			return &Error{InstructionIndex: instructionIndex, Target: tgt.Value, Reason: fmt.Sprintf("%s is not a measurement, cannot invert a target", g.Name), Err: ErrInvalidTarget}
		}
	}
	return nil
}

// Block is either a flat sequence of instructions or a repeated sub-block.
// Exactly one of Instruction/Repeat is non-nil/non-zero-count, mirroring the
// source grammar's "flat sequence vs REPEAT" distinction.
type Block struct {
	Instruction *Instruction
	RepeatCount int     // > 0 iff this block is a REPEAT
	RepeatBody  []Block // non-empty iff this block is a REPEAT
}

// Flat wraps a single instruction as a Block.
func Flat(in Instruction) Block { return Block{Instruction: &in} }

// Repeat wraps body as a REPEAT block executed count times. Panics if
// count < 1 or body is empty — both are programmer errors in whatever built
// the Circuit (the parser, per spec, never emits these).
func Repeat(count int, body []Block) Block {
	if count < 1 {
		panic(fmt.Sprintf("circuit: REPEAT count must be >= 1, got %d", count))
	}
	if len(body) == 0 {
		panic("circuit: REPEAT body must be nonempty")
	}
	return Block{RepeatCount: count, RepeatBody: body}
}

// IsRepeat reports whether b is a REPEAT block.
func (b Block) IsRepeat() bool { return b.RepeatCount > 0 }

// Circuit is an ordered sequence of top-level blocks.
type Circuit struct {
	Blocks []Block
}

// NumInstructions counts instructions recursively, unrolling REPEAT bodies
// by their count — used for progress reporting and manifest digests, not on
// any hot path.
func (c Circuit) NumInstructions() int {
	var count func(bs []Block) int
	count = func(bs []Block) int {
		n := 0
		for _, b := range bs {
			if b.IsRepeat() {
				n += b.RepeatCount * count(b.RepeatBody)
			} else {
				n++
			}
		}
		return n
	}
	return count(c.Blocks)
}

// UsedQubits returns the sparse set of qubit indices referenced anywhere in
// c, across plain, inverted-measurement, and Pauli-component targets. A
// circuit's declared qubit count is usually a dense, contiguous range, but
// REPEAT-heavy or sparsely-addressed circuits (a large layout where only a
// handful of ancillas appear in any one sub-circuit) can leave most of that
// range untouched; a Roaring bitmap tracks the touched subset in compressed
// form rather than a dense bit_vector sized to the declared qubit count, a
// shape this module's own SIMD bit tables (qubit-count- or shot-count-dense,
// not id-sparse) aren't suited for. Used by SaveManifest to record which
// qubits a run actually touched, independent of its declared NumQubits.
func (c Circuit) UsedQubits() *roaring.Bitmap {
	bm := roaring.New()
	var walk func(bs []Block)
	walk = func(bs []Block) {
		for _, b := range bs {
			if b.IsRepeat() {
				walk(b.RepeatBody)
				continue
			}
			for _, tgt := range b.Instruction.Targets {
				switch tgt.Kind {
				case TargetQubit, TargetInvertedQubit, TargetPauliX, TargetPauliY, TargetPauliZ:
					bm.Add(uint32(tgt.Value))
				}
			}
		}
	}
	walk(c.Blocks)
	return bm
}
