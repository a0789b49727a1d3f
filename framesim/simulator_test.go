package framesim

import (
	"testing"

	"github.com/hupe1980/stabframe/circuit"
	"github.com/hupe1980/stabframe/gate"
	"github.com/hupe1980/stabframe/internal/rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRNG(t *testing.T) *rng.RNG {
	t.Helper()
	return rng.NewRNG(987654321)
}

func flat(name string, args []float64, targets ...circuit.Target) circuit.Block {
	return circuit.Flat(circuit.Instruction{Gate: gate.At(name), Args: args, Targets: targets})
}

// S1: H;M on a freshly initialized qubit reports a roughly even mix of 0s
// and 1s across shots.
func TestScenario_HadamardThenMeasureIsRandom(t *testing.T) {
	const numShots = 4096
	s := NewSimulator(1, numShots, 42, 16)
	c := circuit.Circuit{Blocks: []circuit.Block{
		flat("H", nil, circuit.Qubit(0)),
		flat("M", nil, circuit.Qubit(0)),
	}}
	require.NoError(t, s.Execute(c))

	row, err := s.Record.Lookback(1)
	require.NoError(t, err)
	ones := row.Popcount()
	frac := float64(ones) / float64(numShots)
	assert.InDelta(t, 0.5, frac, 0.05)
}

// S2: R;M always reports 0.
func TestScenario_ResetThenMeasureIsDeterministicZero(t *testing.T) {
	const numShots = 256
	s := NewSimulator(1, numShots, 7, 16)
	c := circuit.Circuit{Blocks: []circuit.Block{
		flat("R", nil, circuit.Qubit(0)),
		flat("M", nil, circuit.Qubit(0)),
	}}
	require.NoError(t, s.Execute(c))

	row, err := s.Record.Lookback(1)
	require.NoError(t, err)
	assert.Equal(t, 0, row.Popcount())
}

// S3: X;M always reports 1.
func TestScenario_XThenMeasureIsDeterministicOne(t *testing.T) {
	const numShots = 256
	s := NewSimulator(1, numShots, 7, 16)
	c := circuit.Circuit{Blocks: []circuit.Block{
		flat("X", nil, circuit.Qubit(0)),
		flat("M", nil, circuit.Qubit(0)),
	}}
	require.NoError(t, s.Execute(c))

	row, err := s.Record.Lookback(1)
	require.NoError(t, err)
	assert.Equal(t, numShots, row.Popcount())
}

// S4: R;M;M;DETECTOR rec[-1] rec[-2] always reports 0 — two consecutive
// measurements of an undisturbed qubit agree.
func TestScenario_RepeatedMeasurementDetectorIsZero(t *testing.T) {
	const numShots = 256
	s := NewSimulator(1, numShots, 99, 16)
	c := circuit.Circuit{Blocks: []circuit.Block{
		flat("R", nil, circuit.Qubit(0)),
		flat("M", nil, circuit.Qubit(0)),
		flat("M", nil, circuit.Qubit(0)),
		flat("DETECTOR", nil, circuit.Lookback(1), circuit.Lookback(2)),
	}}
	require.NoError(t, s.Execute(c))

	row, err := s.Detectors.Lookback(1)
	require.NoError(t, err)
	assert.Equal(t, 0, row.Popcount())
}

// S6: X_ERROR(0.1);M fires at roughly a 10% rate.
func TestScenario_XErrorRateMatchesProbability(t *testing.T) {
	const numShots = 20000
	s := NewSimulator(1, numShots, 1234, 16)
	c := circuit.Circuit{Blocks: []circuit.Block{
		flat("X_ERROR", []float64{0.1}, circuit.Qubit(0)),
		flat("M", nil, circuit.Qubit(0)),
	}}
	require.NoError(t, s.Execute(c))

	row, err := s.Record.Lookback(1)
	require.NoError(t, err)
	frac := float64(row.Popcount()) / float64(numShots)
	assert.InDelta(t, 0.1, frac, 0.01)
}

func TestExecute_RepeatBlockUnrollsInOrder(t *testing.T) {
	const numShots = 32
	s := NewSimulator(1, numShots, 5, 16)
	c := circuit.Circuit{Blocks: []circuit.Block{
		flat("R", nil, circuit.Qubit(0)),
		circuit.Repeat(3, []circuit.Block{
			flat("X", nil, circuit.Qubit(0)),
			flat("M", nil, circuit.Qubit(0)),
		}),
	}}
	require.NoError(t, s.Execute(c))
	assert.Equal(t, 3, s.Record.Stored())

	// X flips the deterministic frame each iteration: 1, 0, 1.
	r1, err := s.Record.Lookback(3)
	require.NoError(t, err)
	r2, err := s.Record.Lookback(2)
	require.NoError(t, err)
	r3, err := s.Record.Lookback(1)
	require.NoError(t, err)
	assert.Equal(t, numShots, r1.Popcount())
	assert.Equal(t, 0, r2.Popcount())
	assert.Equal(t, numShots, r3.Popcount())
}

func TestExecute_InterruptStopsBetweenInstructions(t *testing.T) {
	s := NewSimulator(1, 8, 1, 16)
	calls := 0
	s.Interrupt = func() bool {
		calls++
		return calls > 1
	}
	c := circuit.Circuit{Blocks: []circuit.Block{
		flat("R", nil, circuit.Qubit(0)),
		flat("M", nil, circuit.Qubit(0)),
		flat("M", nil, circuit.Qubit(0)),
	}}
	err := s.Execute(c)
	assert.ErrorIs(t, err, ErrInterrupted)
	assert.Equal(t, 0, s.Record.Stored())
}

func TestHandleMeasurement_InvertedTargetFlipsOutcome(t *testing.T) {
	const numShots = 64
	s := NewSimulator(1, numShots, 3, 16)
	c := circuit.Circuit{Blocks: []circuit.Block{
		flat("R", nil, circuit.Qubit(0)),
		flat("M", nil, circuit.InvertedQubit(0)),
	}}
	require.NoError(t, s.Execute(c))
	row, err := s.Record.Lookback(1)
	require.NoError(t, err)
	assert.Equal(t, numShots, row.Popcount())
}

func TestHandleMeasurement_MRClearsFrameAfterRecording(t *testing.T) {
	const numShots = 64
	s := NewSimulator(1, numShots, 3, 16)
	c := circuit.Circuit{Blocks: []circuit.Block{
		flat("X", nil, circuit.Qubit(0)),
		flat("MR", nil, circuit.Qubit(0)),
		flat("M", nil, circuit.Qubit(0)),
	}}
	require.NoError(t, s.Execute(c))
	first, err := s.Record.Lookback(2)
	require.NoError(t, err)
	second, err := s.Record.Lookback(1)
	require.NoError(t, err)
	assert.Equal(t, numShots, first.Popcount())
	assert.Equal(t, 0, second.Popcount())
}

func TestTwoQubitClifford_CXPropagatesXFromControlToTarget(t *testing.T) {
	const numShots = 64
	s := NewSimulator(2, numShots, 11, 16)
	c := circuit.Circuit{Blocks: []circuit.Block{
		flat("R", nil, circuit.Qubit(0), circuit.Qubit(1)),
		flat("X", nil, circuit.Qubit(0)),
		flat("CX", nil, circuit.Qubit(0), circuit.Qubit(1)),
		flat("M", nil, circuit.Qubit(0), circuit.Qubit(1)),
	}}
	require.NoError(t, s.Execute(c))
	q0, err := s.Record.Lookback(2)
	require.NoError(t, err)
	q1, err := s.Record.Lookback(1)
	require.NoError(t, err)
	assert.Equal(t, numShots, q0.Popcount())
	assert.Equal(t, numShots, q1.Popcount())
}

func TestObservableInclude_AccumulatesParity(t *testing.T) {
	const numShots = 16
	s := NewSimulator(1, numShots, 21, 16)
	c := circuit.Circuit{Blocks: []circuit.Block{
		flat("R", nil, circuit.Qubit(0)),
		flat("X", nil, circuit.Qubit(0)),
		flat("M", nil, circuit.Qubit(0)),
		flat("OBSERVABLE_INCLUDE", []float64{0}, circuit.Lookback(1)),
	}}
	require.NoError(t, s.Execute(c))
	obs := s.Observable(0)
	assert.Equal(t, numShots, obs.Popcount())
}

func TestAliasTable_SamplesSkewedDistribution(t *testing.T) {
	table := newAliasTable([]float64{0.9, 0.1})
	r := testRNG(t)
	ones := 0
	const trials = 20000
	for i := 0; i < trials; i++ {
		if table.Sample(r) == 1 {
			ones++
		}
	}
	assert.InDelta(t, 0.1, float64(ones)/trials, 0.02)
}
