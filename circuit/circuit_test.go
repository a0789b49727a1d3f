package circuit

import (
	"errors"
	"testing"

	"github.com/hupe1980/stabframe/gate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ArgCountMismatch(t *testing.T) {
	in := Instruction{Gate: gate.At("H"), Args: []float64{0.1}}
	err := in.Validate(0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrArgCount))
}

func TestValidate_ProbabilityOutOfRange(t *testing.T) {
	in := Instruction{Gate: gate.At("X_ERROR"), Args: []float64{1.5}, Targets: []Target{Qubit(0)}}
	err := in.Validate(0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProbabilityRange))
}

func TestValidate_LookbackOnNonRecordGateRejected(t *testing.T) {
	in := Instruction{Gate: gate.At("H"), Targets: []Target{Lookback(1)}}
	err := in.Validate(0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTarget))
}

func TestValidate_WellFormedInstructionPasses(t *testing.T) {
	in := Instruction{Gate: gate.At("M"), Targets: []Target{Qubit(0), InvertedQubit(1)}}
	assert.NoError(t, in.Validate(0))
}

func TestValidate_InvertedQubitOnNonMeasurementRejected(t *testing.T) {
	in := Instruction{Gate: gate.At("H"), Targets: []Target{InvertedQubit(0)}}
	err := in.Validate(0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTarget))
}

func TestRepeat_PanicsOnInvalidCount(t *testing.T) {
	assert.Panics(t, func() { Repeat(0, []Block{Flat(Instruction{Gate: gate.At("H")})}) })
}

func TestRepeat_PanicsOnEmptyBody(t *testing.T) {
	assert.Panics(t, func() { Repeat(3, nil) })
}

func TestNumInstructions_UnrollsRepeat(t *testing.T) {
	c := Circuit{Blocks: []Block{
		Flat(Instruction{Gate: gate.At("H"), Targets: []Target{Qubit(0)}}),
		Repeat(5, []Block{
			Flat(Instruction{Gate: gate.At("M"), Targets: []Target{Qubit(0)}}),
			Flat(Instruction{Gate: gate.At("TICK")}),
		}),
	}}
	assert.Equal(t, 1+5*2, c.NumInstructions())
}

func TestUsedQubits_DeduplicatesAcrossRepeatAndTargetKinds(t *testing.T) {
	c := Circuit{Blocks: []Block{
		Flat(Instruction{Gate: gate.At("H"), Targets: []Target{Qubit(0)}}),
		Repeat(3, []Block{
			Flat(Instruction{Gate: gate.At("M"), Targets: []Target{Qubit(0), InvertedQubit(7)}}),
			Flat(Instruction{Gate: gate.At("CORRELATED_ERROR"), Args: []float64{0.1}, Targets: []Target{PauliTarget('X', 2), PauliTarget('Z', 7)}}),
		}),
	}}
	got := c.UsedQubits().ToArray()
	assert.Equal(t, []uint32{0, 2, 7}, got)
}
