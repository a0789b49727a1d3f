package stabframe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/stabframe/circuit"
	"github.com/hupe1980/stabframe/gate"
	"github.com/hupe1980/stabframe/internal/fs"
	"github.com/hupe1980/stabframe/manifest"
	"github.com/hupe1980/stabframe/record"
)

func flat(name string, args []float64, targets ...circuit.Target) circuit.Block {
	return circuit.Flat(circuit.Instruction{Gate: gate.At(name), Args: args, Targets: targets})
}

func TestSimulator_RunAndFlush(t *testing.T) {
	ctx := context.Background()
	w := record.NewMemoryWriter()

	sim, err := New(ctx, 1, 256, WithSeed(7), WithWriter(w))
	require.NoError(t, err)
	defer sim.Close()

	c := circuit.Circuit{Blocks: []circuit.Block{
		flat("R", nil, circuit.Qubit(0)),
		flat("M", nil, circuit.Qubit(0)),
	}}
	require.NoError(t, sim.Run(ctx, c))
	require.NoError(t, sim.FinalFlush(ctx))

	assert.True(t, w.Ended())
	require.Len(t, w.Rows(), 1)
	for shot := 0; shot < 256; shot++ {
		assert.False(t, w.Bit(0, shot), "R;M must always report 0")
	}
}

func TestSimulator_SeedIsDeterministic(t *testing.T) {
	ctx := context.Background()

	run := func() []byte {
		w := record.NewMemoryWriter()
		sim, err := New(ctx, 4, 64, WithSeed(123), WithWriter(w))
		require.NoError(t, err)
		defer sim.Close()

		c := circuit.Circuit{Blocks: []circuit.Block{
			flat("H", nil, circuit.Qubit(0)),
			flat("CX", nil, circuit.Qubit(0), circuit.Qubit(1)),
			flat("M", nil, circuit.Qubit(0)),
			flat("M", nil, circuit.Qubit(1)),
		}}
		require.NoError(t, sim.Run(ctx, c))
		require.NoError(t, sim.FinalFlush(ctx))

		var out []byte
		numRows := len(w.Rows())
		for row := 0; row < numRows; row++ {
			for shot := 0; shot < 64; shot++ {
				b := byte(0)
				if w.Bit(row, shot) {
					b = 1
				}
				out = append(out, b)
			}
		}
		return out
	}

	assert.Equal(t, run(), run())
}

func TestSimulator_RejectsNegativeDimensions(t *testing.T) {
	_, err := New(context.Background(), -1, 10)
	require.Error(t, err)
	var dimErr *ErrInvalidDimensions
	require.ErrorAs(t, err, &dimErr)
}

func TestSimulator_MethodsFailAfterClose(t *testing.T) {
	ctx := context.Background()
	sim, err := New(ctx, 1, 8)
	require.NoError(t, err)
	require.NoError(t, sim.Close())
	require.NoError(t, sim.Close()) // idempotent

	c := circuit.Circuit{Blocks: []circuit.Block{flat("M", nil, circuit.Qubit(0))}}
	assert.ErrorIs(t, sim.Run(ctx, c), ErrClosed)
	assert.ErrorIs(t, sim.Flush(ctx), ErrClosed)
}

func TestSimulator_WithoutWriterStillAdvancesBookkeeping(t *testing.T) {
	ctx := context.Background()
	sim, err := New(ctx, 1, 16)
	require.NoError(t, err)
	defer sim.Close()

	c := circuit.Circuit{Blocks: []circuit.Block{
		flat("R", nil, circuit.Qubit(0)),
		flat("M", nil, circuit.Qubit(0)),
	}}
	require.NoError(t, sim.Run(ctx, c))
	assert.Equal(t, 1, sim.Record().Unwritten())
	require.NoError(t, sim.Flush(ctx))
	assert.Equal(t, 0, sim.Record().Unwritten())
}

func TestSimulator_SaveManifestRecordsUsedQubits(t *testing.T) {
	ctx := context.Background()
	store := manifest.NewStore(fs.LocalFS{}, t.TempDir())

	sim, err := New(ctx, 8, 16, WithManifestStore(store))
	require.NoError(t, err)
	defer sim.Close()

	c := circuit.Circuit{Blocks: []circuit.Block{
		flat("H", nil, circuit.Qubit(3)),
		flat("M", nil, circuit.Qubit(3), circuit.InvertedQubit(5)),
	}}
	require.NoError(t, sim.Run(ctx, c))

	_, err = sim.SaveManifest(ctx, DigestCircuit(c))
	require.NoError(t, err)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []uint32{3, 5}, loaded.UsedQubits)
	assert.Equal(t, 8, loaded.NumQubits)
}

func TestDigestCircuit_StableForEquivalentCircuits(t *testing.T) {
	a := circuit.Circuit{Blocks: []circuit.Block{
		flat("H", nil, circuit.Qubit(0)),
		flat("M", nil, circuit.Qubit(0)),
	}}
	b := circuit.Circuit{Blocks: []circuit.Block{
		flat("H", nil, circuit.Qubit(0)),
		flat("M", nil, circuit.Qubit(0)),
	}}
	c := circuit.Circuit{Blocks: []circuit.Block{
		flat("H", nil, circuit.Qubit(0)),
		flat("M", nil, circuit.Qubit(1)),
	}}

	assert.Equal(t, DigestCircuit(a), DigestCircuit(b))
	assert.NotEqual(t, DigestCircuit(a), DigestCircuit(c))
}
