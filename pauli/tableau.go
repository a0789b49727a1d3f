package pauli

import (
	"github.com/hupe1980/stabframe/internal/rng"
	"github.com/hupe1980/stabframe/internal/simdbits"
	"github.com/hupe1980/stabframe/gate"
)

// Tableau is an n-qubit Clifford tableau: the images of X_0..X_{n-1} and
// Z_0..Z_{n-1} under the Clifford, stored as 2n Pauli-string rows plus a
// sign plane. Row i < n is the image of X_i; row n+i is the image of Z_i.
// Rows are backed by four Tables (the X and Z planes of the X-image rows,
// and the X and Z planes of the Z-image rows). Apply1Q and Apply2Q update
// one row at a time with single-bit reads and writes; they are not
// word-parallel across rows.
type Tableau struct {
	n     int
	xsXs  simdbits.Table // row i's X-plane bits, for rows that are X-images
	xsZs  simdbits.Table // row i's Z-plane bits, for rows that are X-images
	zsXs  simdbits.Table // row i's X-plane bits, for rows that are Z-images
	zsZs  simdbits.Table // row i's Z-plane bits, for rows that are Z-images
	signX simdbits.Bits  // sign bit for each X-image row
	signZ simdbits.Bits  // sign bit for each Z-image row
}

// NewIdentityTableau returns the n-qubit identity tableau: X_i -> X_i,
// Z_i -> Z_i.
func NewIdentityTableau(n int) *Tableau {
	t := &Tableau{
		n:     n,
		xsXs:  simdbits.NewTable(n, n),
		xsZs:  simdbits.NewTable(n, n),
		zsXs:  simdbits.NewTable(n, n),
		zsZs:  simdbits.NewTable(n, n),
		signX: simdbits.NewBits(n),
		signZ: simdbits.NewBits(n),
	}
	for i := 0; i < n; i++ {
		t.xsXs.Row(i).Set(i, true)
		t.zsZs.Row(i).Set(i, true)
	}
	return t
}

// NumQubits returns n.
func (t *Tableau) NumQubits() int { return t.n }

// XOutput returns the image of X_q as a Ref (a row shared with t; mutating
// it mutates the tableau).
func (t *Tableau) XOutput(q int) Ref {
	return NewRef(t.signX.Get(q), t.xsXs.Row(q), t.xsZs.Row(q))
}

// ZOutput returns the image of Z_q.
func (t *Tableau) ZOutput(q int) Ref {
	return NewRef(t.signZ.Get(q), t.zsXs.Row(q), t.zsZs.Row(q))
}

// setSign stores the sign bit back after a Ref mutated it locally (Ref.Sign
// is a plain bool, not a pointer into the Bits plane, so writers must push
// it back explicitly — mirrors the split between the bit planes, which are
// shared storage, and the sign planes, which are separate Bits vectors).
func (t *Tableau) setXSign(q int, sign bool) { t.signX.Set(q, sign) }
func (t *Tableau) setZSign(q int, sign bool) { t.signZ.Set(q, sign) }

// Apply1Q applies a single-qubit Clifford gate's conjugation rule to qubit q
// across every row of the tableau (the 2n Pauli-string images), following
// the single-qubit tableau update algorithm: for each row, read (x_q, z_q),
// replace with the gate's image, and flip the row's sign if the gate's
// sign-flip table says so for that pair.
func (t *Tableau) Apply1Q(g gate.Gate, q int) {
	if g.Conjugate1Q == nil {
		panic("pauli: Apply1Q: gate has no single-qubit conjugation rule")
	}
	applyRow := func(xs, zs *simdbits.Table, signs *simdbits.Bits, row int) {
		xr, zr := xs.Row(row), zs.Row(row)
		x, z := xr.Get(q), zr.Get(q)
		x2, z2, flip := g.Conjugate1Q(x, z)
		xr.Set(q, x2)
		zr.Set(q, z2)
		if flip {
			signs.Set(row, !signs.Get(row))
		}
	}
	for i := 0; i < t.n; i++ {
		applyRow(&t.xsXs, &t.xsZs, &t.signX, i)
		applyRow(&t.zsXs, &t.zsZs, &t.signZ, i)
	}
}

// Apply2Q applies a two-qubit Clifford gate's conjugation rule to qubits
// (a, b) across every row of the tableau.
func (t *Tableau) Apply2Q(g gate.Gate, a, b int) {
	if g.Conjugate2Q == nil {
		panic("pauli: Apply2Q: gate has no two-qubit conjugation rule")
	}
	applyRow := func(xs, zs *simdbits.Table, signs *simdbits.Bits, row int) {
		xr, zr := xs.Row(row), zs.Row(row)
		xa, za := xr.Get(a), zr.Get(a)
		xb, zb := xr.Get(b), zr.Get(b)
		xa2, za2, xb2, zb2, flip := g.Conjugate2Q(xa, za, xb, zb)
		xr.Set(a, xa2)
		zr.Set(a, za2)
		xr.Set(b, xb2)
		zr.Set(b, zb2)
		if flip {
			signs.Set(row, !signs.Get(row))
		}
	}
	for i := 0; i < t.n; i++ {
		applyRow(&t.xsXs, &t.xsZs, &t.signX, i)
		applyRow(&t.zsXs, &t.zsZs, &t.signZ, i)
	}
}

// PreservesSymplecticForm reports whether the stored rows still form a
// valid symplectic basis: X_i must anticommute with Z_i and commute with
// every other generator. Intended for tests verifying invariant 5, not for
// use on a hot path.
func (t *Tableau) PreservesSymplecticForm() bool {
	for i := 0; i < t.n; i++ {
		xi, zi := t.XOutput(i), t.ZOutput(i)
		if xi.Commutes(zi) {
			return false // X_i and Z_i must anticommute
		}
		for j := i + 1; j < t.n; j++ {
			xj, zj := t.XOutput(j), t.ZOutput(j)
			if !xi.Commutes(xj) || !xi.Commutes(zj) || !zi.Commutes(xj) || !zi.Commutes(zj) {
				return false // every other cross pair must commute
			}
		}
	}
	return true
}

// RandomState reinitializes t to a uniformly random Clifford tableau,
// following Stim's approach of applying a long uniformly-random sequence of
// generating gates rather than sampling the symplectic group directly;
// sufficient for test fixtures, not claimed to be exactly uniform.
func (t *Tableau) RandomState(source *rng.RNG) {
	const mixingRounds = 8
	oneQubit := []string{"H", "S", "X", "Y", "Z", "SQRT_X"}
	for round := 0; round < mixingRounds; round++ {
		for q := 0; q < t.n; q++ {
			name := oneQubit[int(source.Uint64()%uint64(len(oneQubit)))]
			t.Apply1Q(gate.At(name), q)
		}
		if t.n >= 2 {
			for q := 0; q+1 < t.n; q += 2 {
				if source.Bit() {
					t.Apply2Q(gate.At("CX"), q, q+1)
				}
			}
		}
	}
}
