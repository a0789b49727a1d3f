package pauli

import (
	"testing"

	"github.com/hupe1980/stabframe/gate"
	"github.com/hupe1980/stabframe/internal/rng"
	"github.com/stretchr/testify/assert"
)

func TestNewIdentityTableau_PreservesSymplecticForm(t *testing.T) {
	tb := NewIdentityTableau(5)
	assert.True(t, tb.PreservesSymplecticForm())
}

func TestApply1Q_PreservesSymplecticForm(t *testing.T) {
	tb := NewIdentityTableau(3)
	for _, name := range []string{"H", "S", "SQRT_X", "H", "S"} {
		tb.Apply1Q(gate.At(name), 1)
	}
	assert.True(t, tb.PreservesSymplecticForm())
}

func TestApply2Q_PreservesSymplecticForm(t *testing.T) {
	tb := NewIdentityTableau(4)
	tb.Apply1Q(gate.At("H"), 0)
	tb.Apply2Q(gate.At("CX"), 0, 1)
	tb.Apply2Q(gate.At("CZ"), 1, 2)
	tb.Apply2Q(gate.At("SWAP"), 2, 3)
	assert.True(t, tb.PreservesSymplecticForm())
}

func TestApply1Q_HTwiceIsIdentity(t *testing.T) {
	tb := NewIdentityTableau(2)
	before := tb.XOutput(0).Clone().Text()
	tb.Apply1Q(gate.At("H"), 0)
	tb.Apply1Q(gate.At("H"), 0)
	assert.Equal(t, before, tb.XOutput(0).Clone().Text())
}

func TestRandomState_StaysSymplectic(t *testing.T) {
	tb := NewIdentityTableau(6)
	tb.RandomState(rng.NewRNG(123))
	assert.True(t, tb.PreservesSymplecticForm())
}

func TestApplyCX_MapsXControlToXX(t *testing.T) {
	tb := NewIdentityTableau(2)
	tb.Apply2Q(gate.At("CX"), 0, 1)
	x0 := tb.XOutput(0)
	xAtControl, _ := x0.At(0)
	xAtTarget, _ := x0.At(1)
	assert.True(t, xAtControl)
	assert.True(t, xAtTarget)
}
