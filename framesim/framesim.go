// Package framesim is the batched Pauli-frame simulator: the component that
// turns a parsed circuit.Circuit into measurement-record rows across many
// shots at once, by propagating an error frame through the circuit's
// Clifford gates and injecting noise, instead of tracking a full quantum
// state. Each bit position within a simdbits word is one independent shot,
// so a single-qubit Clifford gate updates every shot with one word-parallel
// XOR rather than a per-shot loop; only the stochastic noise channels and
// measurement bookkeeping fall back to per-shot iteration.
//
// The frame tables use the same (x, z) Pauli-component convention as
// package pauli: x_table's bit at (qubit, shot) is set iff the accumulated
// error at that qubit, for that shot, has an X factor; z_table symmetrically
// tracks the Z factor. A standard (Z-basis) measurement's outcome is
// flipped by an X-type error, so it reads x_table directly.
package framesim

import (
	"fmt"

	"github.com/hupe1980/stabframe/circuit"
	"github.com/hupe1980/stabframe/gate"
	"github.com/hupe1980/stabframe/internal/rng"
	"github.com/hupe1980/stabframe/internal/simdbits"
	"github.com/hupe1980/stabframe/record"
)

// Simulator holds one run's frame tables, RNG streams and measurement
// records. It is single-threaded: parallelism comes from shots packed into
// words within one instance, and from running multiple Simulator instances
// concurrently (see package pool), never from splitting one instance's
// work across goroutines.
type Simulator struct {
	numQubits int
	numShots  int

	xTable simdbits.Table
	zTable simdbits.Table

	baseRNG  *rng.RNG
	qubitRNG []*rng.RNG

	lastCorrelated simdbits.Bits
	allOnes        simdbits.Bits

	Record      *record.Batch
	Detectors   *record.Batch
	observables map[int]*simdbits.Bits

	tick int

	// Interrupt, if set, is polled before each instruction, including the
	// first one and those inside REPEAT bodies. When it returns true the executor stops
	// and Execute returns ErrInterrupted. Mid-instruction cancellation is
	// not supported; this is a cooperative checkpoint, not preemption.
	Interrupt func() bool

	scratch1Q [2][]uint64
	scratch2Q [4][]uint64
	noiseRow  simdbits.Bits
	readRow   simdbits.Bits
}

// NewSimulator returns a Simulator over numQubits qubits and numShots
// shots, seeded deterministically from seed (0 draws OS entropy, see
// rng.NewRNG). maxLookback bounds the measurement record's and the detector
// record's rec[-k] window, per record.NewBatch.
//
// Every qubit's z_table row is seeded with an independent random bit per
// shot, drawn from that qubit's own RNG stream: a freshly initialized
// qubit's conjugate (X-basis) value is physically undetermined, and
// propagating this one up-front seed through the same linear
// conjugation/XOR/reset mechanics used for everything else reproduces
// per-shot-independent measurement randomness without a second, auxiliary
// tableau-based reference-sample pass.
func NewSimulator(numQubits, numShots int, seed uint64, maxLookback int) *Simulator {
	if numQubits < 0 || numShots < 0 {
		panic(fmt.Sprintf("framesim: negative dimensions (%d qubits, %d shots)", numQubits, numShots))
	}
	s := &Simulator{
		numQubits:   numQubits,
		numShots:    numShots,
		xTable:      simdbits.NewTable(numQubits, numShots),
		zTable:      simdbits.NewTable(numQubits, numShots),
		baseRNG:     rng.NewRNG(seed),
		qubitRNG:    make([]*rng.RNG, numQubits),
		lastCorrelated: simdbits.NewBits(numShots),
		allOnes:     allOnesRow(numShots),
		Record:      record.NewBatch(numShots, maxLookback),
		Detectors:   record.NewBatch(numShots, maxLookback),
		observables: make(map[int]*simdbits.Bits),
		noiseRow:    simdbits.NewBits(numShots),
		readRow:     simdbits.NewBits(numShots),
	}
	wordsPerRow := s.xTable.WordsPerRow()
	for i := range s.scratch1Q {
		s.scratch1Q[i] = make([]uint64, wordsPerRow)
	}
	for i := range s.scratch2Q {
		s.scratch2Q[i] = make([]uint64, wordsPerRow)
	}
	for q := 0; q < numQubits; q++ {
		s.qubitRNG[q] = s.baseRNG.Stream(q)
		randomFillRow(s.zTable.Row(q), s.qubitRNG[q])
	}
	return s
}

// NumQubits returns the simulator's qubit count.
func (s *Simulator) NumQubits() int { return s.numQubits }

// NumShots returns the simulator's shot count.
func (s *Simulator) NumShots() int { return s.numShots }

// Observable returns the XOR accumulator for logical observable index idx,
// creating it (zeroed) on first reference.
func (s *Simulator) Observable(idx int) simdbits.Ref {
	b, ok := s.observables[idx]
	if !ok {
		nb := simdbits.NewBits(s.numShots)
		b = &nb
		s.observables[idx] = b
	}
	return b.Ref()
}

// maskTailBits clears bits at index >= n within words, which must be
// exactly wordsFor(n) long — the padding-is-always-zero invariant that lets
// whole-word XOR/random-fill ops skip a separate bounds check per bit.
func maskTailBits(words []uint64, n int) {
	rem := n % simdbits.WordBits
	if rem == 0 {
		return
	}
	last := len(words) - 1
	words[last] &= (uint64(1) << uint(rem)) - 1
}

// randomFillRow fills row with independent random bits drawn from source,
// one word at a time, then re-zeroes any padding bits the raw word draw set.
func randomFillRow(row simdbits.Ref, source *rng.RNG) {
	source.BitVector(row.Words())
	maskTailBits(row.Words(), row.Len())
}

// allOnesRow returns an owned Bits of logical length n with every valid bit
// set to 1 — the "XOR with the all-ones mask" operand the Pauli X/Y/Z and
// inverted-target handlers use.
func allOnesRow(n int) simdbits.Bits {
	b := simdbits.NewBits(n)
	words := b.Ref().Words()
	for i := range words {
		words[i] = ^uint64(0)
	}
	maskTailBits(words, n)
	return b
}

// ErrInterrupted is returned by Execute when Interrupt reports true between
// instructions.
var ErrInterrupted = fmt.Errorf("framesim: execution interrupted")

// Execute runs c against s in source order, dispatching each instruction to
// its gate-family handler via a gate-id-indexed jump table. REPEAT blocks
// are executed by iteration, not unrolled.
func (s *Simulator) Execute(c circuit.Circuit) error {
	return s.executeBlocks(c.Blocks)
}

func (s *Simulator) executeBlocks(blocks []circuit.Block) error {
	for _, b := range blocks {
		if s.Interrupt != nil && s.Interrupt() {
			return ErrInterrupted
		}
		if b.IsRepeat() {
			for i := 0; i < b.RepeatCount; i++ {
				if err := s.executeBlocks(b.RepeatBody); err != nil {
					return err
				}
			}
			continue
		}
		if err := s.executeInstruction(*b.Instruction); err != nil {
			return err
		}
	}
	return nil
}

func (s *Simulator) executeInstruction(in circuit.Instruction) error {
	h := dispatch[in.Gate.ID]
	if h == nil {
		return fmt.Errorf("framesim: gate %q has no frame-simulator handler", in.Gate.Name)
	}
	return h(s, in)
}

// handlerFunc is the jump-table entry shape: one function per gate family,
// selected once by gate id rather than re-branching on flags for every
// instruction.
type handlerFunc func(s *Simulator, in circuit.Instruction) error

var dispatch [256]handlerFunc

func init() {
	registerHandler("I", handlePauliGate)
	registerHandler("X", handlePauliGate)
	registerHandler("Y", handlePauliGate)
	registerHandler("Z", handlePauliGate)
	for _, name := range []string{"H", "S", "S_DAG", "SQRT_X", "SQRT_X_DAG", "SQRT_Y", "SQRT_Y_DAG", "C_XYZ"} {
		registerHandler(name, handleSingleQubitClifford)
	}
	for _, name := range []string{"CX", "CNOT", "CZ", "CY", "SWAP", "ISWAP", "ISWAP_DAG", "CXSWAP"} {
		registerHandler(name, handleTwoQubitClifford)
	}
	for _, name := range []string{"M", "MZ", "MR", "MX", "MY"} {
		registerHandler(name, handleMeasurement)
	}
	for _, name := range []string{"R", "RZ", "RX", "RY"} {
		registerHandler(name, handleReset)
	}
	registerHandler("X_ERROR", handleSingleQubitError)
	registerHandler("Y_ERROR", handleSingleQubitError)
	registerHandler("Z_ERROR", handleSingleQubitError)
	registerHandler("DEPOLARIZE1", handleDepolarize1)
	registerHandler("DEPOLARIZE2", handleDepolarize2)
	registerHandler("PAULI_CHANNEL_1", handlePauliChannel1)
	registerHandler("PAULI_CHANNEL_2", handlePauliChannel2)
	registerHandler("CORRELATED_ERROR", handleCorrelatedError)
	registerHandler("ELSE_CORRELATED_ERROR", handleElseCorrelatedError)
	registerHandler("DETECTOR", handleDetector)
	registerHandler("OBSERVABLE_INCLUDE", handleObservableInclude)
	registerHandler("TICK", handleTick)
}

func registerHandler(name string, h handlerFunc) {
	dispatch[gate.At(name).ID] = h
}

func handleTick(s *Simulator, _ circuit.Instruction) error {
	s.tick++
	return nil
}
