// Package pauli implements Pauli strings and Clifford tableaus as bit-packed
// X/Z plane pairs over internal/simdbits, following the ref/owning split
// described for the rest of this module: Ref is a borrowed view and the
// primary argument type for arithmetic; String owns its
// storage and backs long-lived values.
package pauli

import (
	"fmt"
	"strings"

	"github.com/hupe1980/stabframe/internal/rng"
	"github.com/hupe1980/stabframe/internal/simdbits"
)

// Ref is a borrowed view onto one Pauli string's X and Z bit planes plus its
// sign. It never owns storage — see String for the owning counterpart.
type Ref struct {
	Sign bool // true means the string carries an overall factor of -1
	Xs   simdbits.Ref
	Zs   simdbits.Ref
}

// NewRef wraps xs/zs (which must have equal logical length) and a sign into
// a Ref.
func NewRef(sign bool, xs, zs simdbits.Ref) Ref {
	if xs.Len() != zs.Len() {
		panic(fmt.Sprintf("pauli: xs/zs length mismatch: %d vs %d", xs.Len(), zs.Len()))
	}
	return Ref{Sign: sign, Xs: xs, Zs: zs}
}

// NumQubits returns the number of qubits the string acts on.
func (r Ref) NumQubits() int { return r.Xs.Len() }

// At returns the single-qubit Pauli at index q, encoded as (x, z):
// (0,0)=I (1,0)=X (1,1)=Y (0,1)=Z.
func (r Ref) At(q int) (x, z bool) {
	return r.Xs.Get(q), r.Zs.Get(q)
}

// SetAt sets the single-qubit Pauli at index q.
func (r Ref) SetAt(q int, x, z bool) {
	r.Xs.Set(q, x)
	r.Zs.Set(q, z)
}

// Commutes reports whether r and other commute, via the symplectic inner
// product sum_i (r.x_i * other.z_i + r.z_i * other.x_i) mod 2.
func (r Ref) Commutes(other Ref) bool {
	if r.NumQubits() != other.NumQubits() {
		panic(fmt.Sprintf("pauli: commutes: qubit count mismatch: %d vs %d", r.NumQubits(), other.NumQubits()))
	}
	parity := 0
	for i := 0; i < r.NumQubits(); i++ {
		xr, zr := r.At(i)
		xo, zo := other.At(i)
		if xr && zo {
			parity++
		}
		if zr && xo {
			parity++
		}
	}
	return parity%2 == 0
}

// logIScalar tracks the i^k phase accumulated per-qubit when multiplying two
// single-qubit Paulis represented as (x,z) pairs: returns k in {0,1,2,3}
// such that left*right = i^k * (product Pauli).
func logIScalar(xa, za, xb, zb bool) int {
	// Encode I,X,Y,Z as 0,1,2,3 so the cyclic order X->Y->Z->X below
	// matches the standard Pauli multiplication table's phase convention.
	type pair struct{ x, z bool }
	code := func(p pair) int {
		switch {
		case !p.x && !p.z:
			return 0 // I
		case p.x && !p.z:
			return 1 // X
		case p.x && p.z:
			return 2 // Y
		default:
			return 3 // Z
		}
	}
	a, b := code(pair{xa, za}), code(pair{xb, zb})
	if a == 0 || b == 0 || a == b {
		return 0
	}
	// Cyclic table X(1)->Y(2)->Z(3)->X(1): a*b is +i if b follows a cyclically.
	next := map[int]int{1: 2, 2: 3, 3: 1}
	if next[a] == b {
		return 1 // multiply by +i
	}
	return 3 // multiply by -i
}

// InplaceRightMulReturningLogIScalar multiplies r *= other in place
// (treating r as the left operand is not accurate for noncommuting terms in
// general, but matches the reference convention where this method computes
// r := r * other and reports the accumulated i^k scalar across all qubits,
// folding any net i^2 = -1 into r.Sign. It is the canonical multiply used by
// the tableau row update.
func (r Ref) InplaceRightMulReturningLogIScalar(other Ref) uint8 {
	if r.NumQubits() != other.NumQubits() {
		panic(fmt.Sprintf("pauli: multiply: qubit count mismatch: %d vs %d", r.NumQubits(), other.NumQubits()))
	}
	total := 0
	for i := 0; i < r.NumQubits(); i++ {
		xa, za := r.At(i)
		xb, zb := other.At(i)
		total += logIScalar(xa, za, xb, zb)
		r.SetAt(i, xa != xb, za != zb)
	}
	total %= 4
	if total%2 != 0 {
		panic("pauli: inplace_right_mul_returning_log_i_scalar: net imaginary phase is odd; caller must ensure accumulated products cancel to a real phase")
	}
	if total == 2 {
		r.Sign = !r.Sign
	}
	return uint8(total)
}

// MulAssign multiplies r *= other, discarding the phase scalar (panics, via
// InplaceRightMulReturningLogIScalar, if the net phase is imaginary).
func (r Ref) MulAssign(other Ref) {
	r.InplaceRightMulReturningLogIScalar(other)
}

// Clone returns an owned, independent copy of r.
func (r Ref) Clone() String {
	return String{
		Sign: r.Sign,
		Xs:   r.Xs.Clone(),
		Zs:   r.Zs.Clone(),
	}
}

// Text renders r in the conventional "-XYZI..." form: a leading '+' or '-'
// followed by one letter per qubit.
func (r Ref) Text() string {
	var b strings.Builder
	if r.Sign {
		b.WriteByte('-')
	} else {
		b.WriteByte('+')
	}
	for i := 0; i < r.NumQubits(); i++ {
		x, z := r.At(i)
		switch {
		case !x && !z:
			b.WriteByte('I')
		case x && !z:
			b.WriteByte('X')
		case x && z:
			b.WriteByte('Y')
		default:
			b.WriteByte('Z')
		}
	}
	return b.String()
}

// Random fills r with an independently uniform Pauli at every qubit and a
// uniform random sign, drawing from source.
func (r Ref) Random(source *rng.RNG) {
	for i := 0; i < r.NumQubits(); i++ {
		r.SetAt(i, source.Bit(), source.Bit())
	}
	r.Sign = source.Bit()
}

// String is an owned Pauli string; most call sites should work with Ref
// (via String.Ref()) and only construct a String to back
// independently-owned, long-lived data.
type String struct {
	Sign bool
	Xs   simdbits.Bits
	Zs   simdbits.Bits
}

// New allocates a freshly zeroed (all-identity, +1 sign) Pauli string over n
// qubits.
func New(n int) String {
	return String{Xs: simdbits.NewBits(n), Zs: simdbits.NewBits(n)}
}

// FromText parses a "+XYZI..."/"-XYZI..." string into an owned Pauli string.
func FromText(s string) (String, error) {
	sign := false
	switch {
	case strings.HasPrefix(s, "-"):
		sign = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	out := New(len(s))
	ref := out.Ref()
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'I':
			ref.SetAt(i, false, false)
		case 'X':
			ref.SetAt(i, true, false)
		case 'Y':
			ref.SetAt(i, true, true)
		case 'Z':
			ref.SetAt(i, false, true)
		default:
			return String{}, fmt.Errorf("pauli: invalid character %q at index %d", s[i], i)
		}
	}
	out.Sign = sign
	return out, nil
}

// Ref returns a borrowed view of s.
func (s *String) Ref() Ref {
	return Ref{Sign: s.Sign, Xs: s.Xs.Ref(), Zs: s.Zs.Ref()}
}

// NumQubits returns the number of qubits s acts on.
func (s *String) NumQubits() int { return s.Xs.Len() }

// Text renders s in "-XYZI..." form.
func (s String) Text() string {
	return s.Ref().Text()
}
