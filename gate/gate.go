// Package gate holds the static catalogue of instructions the frame
// simulator understands: their names, argument arity, target-kind flags,
// and (for unitary Cliffords) the Pauli-conjugation rule applied to tableau
// and frame rows. The catalogue is built once at package init and never
// mutated afterward, so every simulator instance shares it safely.
package gate

import "fmt"

// Flag is a bitset describing how an instruction of a given gate behaves
// and how its targets must be shaped.
type Flag uint16

const (
	// FlagUnitaryClifford marks gates that apply a Pauli-conjugation rule to
	// tableau/frame rows (H, S, CX, SWAP, ...).
	FlagUnitaryClifford Flag = 1 << iota
	// FlagReset marks gates that zero out frame rows rather than conjugate them.
	FlagReset
	// FlagMeasurement marks gates that append a row to the measurement record.
	FlagMeasurement
	// FlagProducesResults marks gates whose execution yields output consumed
	// by a detector/observable (measurement, detector, observable-include).
	FlagProducesResults
	// FlagTakesPauliTargets marks gates whose targets carry a Pauli-component
	// tag (CORRELATED_ERROR's "X0 Y1 Z2" syntax).
	FlagTakesPauliTargets
	// FlagTakesRecordTargets marks gates whose targets are measurement-record
	// lookbacks (DETECTOR, OBSERVABLE_INCLUDE).
	FlagTakesRecordTargets
	// FlagTakesParensArg marks gates with a parenthesized floating point
	// argument, e.g. X_ERROR(0.1).
	FlagTakesParensArg
	// FlagNoisy marks gates that draw from the RNG to decide whether an
	// error fires.
	FlagNoisy
	// FlagTwoQubit marks gates whose conjugation rule spans a qubit pair.
	FlagTwoQubit
)

// Has reports whether f has every bit set in mask.
func (f Flag) Has(mask Flag) bool { return f&mask == mask }

// ArgCountAny marks a gate whose argument list length is not fixed
// (PAULI_CHANNEL_1/2, DETECTOR).
const ArgCountAny = -1

// Conjugate1Q maps the (x, z) pair of one tableau/frame row through a
// single-qubit Clifford, returning the new pair and whether the row's sign
// bit flips (used by the tableau; frame simulation ignores the sign flip).
type Conjugate1Q func(x, z bool) (x2, z2, signFlip bool)

// Conjugate2Q maps the (xa, za, xb, zb) quadruple of one tableau/frame row
// pair through a two-qubit Clifford.
type Conjugate2Q func(xa, za, xb, zb bool) (xa2, za2, xb2, zb2, signFlip bool)

// Gate is the immutable descriptor for one catalogue entry.
type Gate struct {
	ID       uint8
	Name     string
	Flags    Flag
	ArgCount int // number of parenthesized args, or ArgCountAny

	Conjugate1Q Conjugate1Q // set iff Flags.Has(FlagUnitaryClifford) and not FlagTwoQubit
	Conjugate2Q Conjugate2Q // set iff Flags.Has(FlagUnitaryClifford | FlagTwoQubit)

	linear1Q Linear1Q // derived from Conjugate1Q at registration time
	linear2Q Linear2Q // derived from Conjugate2Q at registration time
}

// IsTwoQubit reports whether the gate acts on a pair of targets at a time.
func (g Gate) IsTwoQubit() bool { return g.Flags.Has(FlagTwoQubit) }

// Linear1Q is the GF2 linear map a single-qubit Clifford applies to the
// (x, z) bit-planes: x2 = (XFromX & x) ^ (XFromZ & z), and symmetrically
// for z2. Every unitary Clifford's bit-plane action (as opposed to its sign
// action) is linear, so this fully characterizes it and lets the frame
// simulator apply the gate as whole-row word ops instead of per-bit calls.
type Linear1Q struct {
	XFromX, XFromZ bool
	ZFromX, ZFromZ bool
}

// Linear1Q returns g's precomputed single-qubit linear map.
func (g Gate) Linear1Q() Linear1Q { return g.linear1Q }

// Linear2Q is the 4x4 GF2 matrix a two-qubit Clifford applies to
// (xa, za, xb, zb), indexed M[output][input] with 0=xa, 1=za, 2=xb, 3=zb.
type Linear2Q struct {
	M [4][4]bool
}

// Linear2Q returns g's precomputed two-qubit linear map.
func (g Gate) Linear2Q() Linear2Q { return g.linear2Q }

func deriveLinear1Q(f Conjugate1Q) Linear1Q {
	if f == nil {
		return Linear1Q{}
	}
	xFromX, zFromX, _ := f(true, false)
	xFromZ, zFromZ, _ := f(false, true)
	return Linear1Q{XFromX: xFromX, ZFromX: zFromX, XFromZ: xFromZ, ZFromZ: zFromZ}
}

func deriveLinear2Q(f Conjugate2Q) Linear2Q {
	var m [4][4]bool
	if f == nil {
		return Linear2Q{M: m}
	}
	basis := [4][4]bool{
		{true, false, false, false},
		{false, true, false, false},
		{false, false, true, false},
		{false, false, false, true},
	}
	for in, b := range basis {
		xa2, za2, xb2, zb2, _ := f(b[0], b[1], b[2], b[3])
		out := [4]bool{xa2, za2, xb2, zb2}
		for o := 0; o < 4; o++ {
			m[o][in] = out[o]
		}
	}
	return Linear2Q{M: m}
}

const tableSize = 128 // power of two, comfortably above len(catalogue)

var (
	byID   []Gate
	byHash [tableSize]*Gate
)

// register adds g to the catalogue, assigning it the next free id and
// inserting it into the name hash table. Panics on a hash collision with an
// existing entry — the catalogue is closed and built once at init, so a
// collision is a programming error in this package, not a runtime
// condition callers can hit.
func register(g Gate) Gate {
	g.ID = uint8(len(byID))
	g.linear1Q = deriveLinear1Q(g.Conjugate1Q)
	g.linear2Q = deriveLinear2Q(g.Conjugate2Q)
	byID = append(byID, g)

	h := nameHash(g.Name) % tableSize
	for byHash[h] != nil {
		if byHash[h].Name == g.Name {
			panic(fmt.Sprintf("gate: duplicate registration for %q", g.Name))
		}
		h = (h + 1) % tableSize
	}
	byHash[h] = &byID[len(byID)-1]
	return byID[len(byID)-1]
}

// nameHash is a small FNV-1a variant over the name with underscores
// stripped and case folded to upper, matching the catalogue's
// case-insensitive, "_"-agnostic lookup contract.
func nameHash(name string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '_' {
			continue
		}
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		h ^= uint32(c)
		h *= 16777619
	}
	return h
}

// TryAt looks up a gate by name (case-insensitive, underscore-agnostic).
// The second return is false if no such gate exists.
func TryAt(name string) (Gate, bool) {
	h := nameHash(name) % tableSize
	for byHash[h] != nil {
		if equalFold(byHash[h].Name, name) {
			return *byHash[h], true
		}
		h = (h + 1) % tableSize
	}
	return Gate{}, false
}

// At looks up a gate by name, panicking if it is not in the catalogue —
// callers that have already validated the name (e.g. a parser) should use
// this; callers taking untrusted input should use TryAt.
func At(name string) Gate {
	g, ok := TryAt(name)
	if !ok {
		panic(fmt.Sprintf("gate: unknown gate %q", name))
	}
	return g
}

// ByID returns the gate registered with the given id. Panics if id is out
// of range — ids are only ever produced by this package's own lookups.
func ByID(id uint8) Gate {
	return byID[id]
}

// Count returns the number of registered gates.
func Count() int { return len(byID) }

func equalFold(a, b string) bool {
	ai, bi := 0, 0
	for ai < len(a) || bi < len(b) {
		for ai < len(a) && a[ai] == '_' {
			ai++
		}
		for bi < len(b) && b[bi] == '_' {
			bi++
		}
		if ai >= len(a) || bi >= len(b) {
			return ai >= len(a) && bi >= len(b)
		}
		ca, cb := a[ai], b[bi]
		if ca >= 'a' && ca <= 'z' {
			ca -= 'a' - 'A'
		}
		if cb >= 'a' && cb <= 'z' {
			cb -= 'a' - 'A'
		}
		if ca != cb {
			return false
		}
		ai++
		bi++
	}
	return true
}
