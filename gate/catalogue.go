package gate

// The single-qubit conjugation rules below encode each Clifford's action on
// a Pauli operator: given the (x, z) bits of a row at the target qubit,
// return the transformed (x, z) and whether the row's sign flips. They are
// the same sixteen-entry-or-fewer case tables Stim hard-codes per gate;
// here each is written as a closure so the catalogue can stay data-driven
// without a 2D array literal per gate.

func conjI(x, z bool) (bool, bool, bool)        { return x, z, false }
func conjX(x, z bool) (bool, bool, bool)        { return x, z, z }               // X: Z -> -Z
func conjY(x, z bool) (bool, bool, bool)        { return x, z, x != z }          // Y: X -> -X, Z -> -Z
func conjZ(x, z bool) (bool, bool, bool)        { return x, z, x }               // Z: X -> -X
func conjH(x, z bool) (bool, bool, bool)        { return z, x, x && z }          // H: X<->Z, Y -> -Y
func conjS(x, z bool) (bool, bool, bool)        { return x, x != z, x && z }     // S: X->Y, Y->-X, Z->Z
func conjSDag(x, z bool) (bool, bool, bool)     { return x, x != z, x && !z }    // S_DAG: X->-Y
func conjSqrtX(x, z bool) (bool, bool, bool)    { return x != z, z, z && !x }    // SQRT_X: Z->-Y, Y->Z
func conjSqrtXDag(x, z bool) (bool, bool, bool) { return x != z, z, z && x }     // SQRT_X_DAG
func conjSqrtY(x, z bool) (bool, bool, bool)    { return z, x, x && !z }         // SQRT_Y: X->-Z, Z->X
func conjSqrtYDag(x, z bool) (bool, bool, bool) { return z, x, !x && z }         // SQRT_Y_DAG

// conjCXYZ implements C_XYZ: the 3-cycle X->Y->Z->X.
func conjCXYZ(x, z bool) (bool, bool, bool) {
	// X -> Y, Y -> Z, Z -> X, composed from S_DAG then H.
	x2, z2, f1 := conjSDag(x, z)
	x3, z3, f2 := conjH(x2, z2)
	return x3, z3, f1 != f2
}

func conjNone2(xa, za, xb, zb bool) (bool, bool, bool, bool, bool) { return xa, za, xb, zb, false }

// conjCX implements CNOT with control a, target b: Xa -> Xa Xb, Zb -> Za Zb.
func conjCX(xa, za, xb, zb bool) (bool, bool, bool, bool, bool) {
	signFlip := xa && zb && (xb == za)
	return xa, za != zb, xa != xb, zb, signFlip
}

// conjCZ implements CZ: Xa -> Xa Zb, Xb -> Za Xb.
func conjCZ(xa, za, xb, zb bool) (bool, bool, bool, bool, bool) {
	signFlip := (xa && xb) && (za != zb)
	return xa, za != xb, xb, zb != xa, signFlip
}

// conjCY implements controlled-Y: CX conjugated by S on the target (S_DAG,
// then CX, then S).
func conjCY(xa, za, xb, zb bool) (bool, bool, bool, bool, bool) {
	xb2, zb2, fbd := conjSDag(xb, zb)
	xa2, za2, xb3, zb3, fcx := conjCX(xa, za, xb2, zb2)
	xb4, zb4, fb := conjS(xb3, zb3)
	return xa2, za2, xb4, zb4, fbd != fcx != fb
}

// conjSWAP exchanges the two rows entirely.
func conjSWAP(xa, za, xb, zb bool) (bool, bool, bool, bool, bool) {
	return xb, zb, xa, za, false
}

// conjISWAP implements ISWAP = SWAP, then CZ, then S on both qubits (up to
// the phase Stim folds into the stabilizer sign, which frame simulation
// ignores and the tableau tracks via the combined sign flip).
func conjISWAP(xa, za, xb, zb bool) (bool, bool, bool, bool, bool) {
	xa1, za1, xb1, zb1, f1 := conjSWAP(xa, za, xb, zb)
	xa2, za2, xb2, zb2, fcz := conjCZ(xa1, za1, xb1, zb1)
	xa3, za3, f2 := conjS(xa2, za2)
	xb3, zb3, f3 := conjS(xb2, zb2)
	return xa3, za3, xb3, zb3, f1 != fcz != f2 != f3
}

func conjISWAPDag(xa, za, xb, zb bool) (bool, bool, bool, bool, bool) {
	xa1, za1, xb1, zb1, f1 := conjSWAP(xa, za, xb, zb)
	xa2, za2, xb2, zb2, fcz := conjCZ(xa1, za1, xb1, zb1)
	xa3, za3, f2 := conjSDag(xa2, za2)
	xb3, zb3, f3 := conjSDag(xb2, zb2)
	return xa3, za3, xb3, zb3, f1 != fcz != f2 != f3
}

// conjCXSWAP implements CX immediately followed by a SWAP of the two qubits
// (used in some lattice-surgery layouts to halve routing gates).
func conjCXSWAP(xa, za, xb, zb bool) (bool, bool, bool, bool, bool) {
	xa2, za2, xb2, zb2, f := conjCX(xa, za, xb, zb)
	xa3, za3, xb3, zb3, _ := conjSWAP(xa2, za2, xb2, zb2)
	return xa3, za3, xb3, zb3, f
}

func init() {
	// Pauli gates: XOR only, no sign tracking needed by the frame simulator,
	// but the conjugation rule is still exact for tableau use.
	register(Gate{Name: "I", Flags: FlagUnitaryClifford, ArgCount: 0, Conjugate1Q: conjI})
	register(Gate{Name: "X", Flags: FlagUnitaryClifford, ArgCount: 0, Conjugate1Q: conjX})
	register(Gate{Name: "Y", Flags: FlagUnitaryClifford, ArgCount: 0, Conjugate1Q: conjY})
	register(Gate{Name: "Z", Flags: FlagUnitaryClifford, ArgCount: 0, Conjugate1Q: conjZ})

	// Single-qubit Clifford gates.
	register(Gate{Name: "H", Flags: FlagUnitaryClifford, ArgCount: 0, Conjugate1Q: conjH})
	register(Gate{Name: "S", Flags: FlagUnitaryClifford, ArgCount: 0, Conjugate1Q: conjS})
	register(Gate{Name: "S_DAG", Flags: FlagUnitaryClifford, ArgCount: 0, Conjugate1Q: conjSDag})
	register(Gate{Name: "SQRT_X", Flags: FlagUnitaryClifford, ArgCount: 0, Conjugate1Q: conjSqrtX})
	register(Gate{Name: "SQRT_X_DAG", Flags: FlagUnitaryClifford, ArgCount: 0, Conjugate1Q: conjSqrtXDag})
	register(Gate{Name: "SQRT_Y", Flags: FlagUnitaryClifford, ArgCount: 0, Conjugate1Q: conjSqrtY})
	register(Gate{Name: "SQRT_Y_DAG", Flags: FlagUnitaryClifford, ArgCount: 0, Conjugate1Q: conjSqrtYDag})
	register(Gate{Name: "C_XYZ", Flags: FlagUnitaryClifford, ArgCount: 0, Conjugate1Q: conjCXYZ})

	// Two-qubit Clifford gates.
	register(Gate{Name: "CX", Flags: FlagUnitaryClifford | FlagTwoQubit, ArgCount: 0, Conjugate2Q: conjCX})
	register(Gate{Name: "CNOT", Flags: FlagUnitaryClifford | FlagTwoQubit, ArgCount: 0, Conjugate2Q: conjCX})
	register(Gate{Name: "CZ", Flags: FlagUnitaryClifford | FlagTwoQubit, ArgCount: 0, Conjugate2Q: conjCZ})
	register(Gate{Name: "CY", Flags: FlagUnitaryClifford | FlagTwoQubit, ArgCount: 0, Conjugate2Q: conjCY})
	register(Gate{Name: "SWAP", Flags: FlagUnitaryClifford | FlagTwoQubit, ArgCount: 0, Conjugate2Q: conjSWAP})
	register(Gate{Name: "ISWAP", Flags: FlagUnitaryClifford | FlagTwoQubit, ArgCount: 0, Conjugate2Q: conjISWAP})
	register(Gate{Name: "ISWAP_DAG", Flags: FlagUnitaryClifford | FlagTwoQubit, ArgCount: 0, Conjugate2Q: conjISWAPDag})
	register(Gate{Name: "CXSWAP", Flags: FlagUnitaryClifford | FlagTwoQubit, ArgCount: 0, Conjugate2Q: conjCXSWAP})

	// Measurement family.
	register(Gate{Name: "M", Flags: FlagMeasurement | FlagProducesResults, ArgCount: 0})
	register(Gate{Name: "MZ", Flags: FlagMeasurement | FlagProducesResults, ArgCount: 0})
	register(Gate{Name: "MR", Flags: FlagMeasurement | FlagProducesResults | FlagReset, ArgCount: 0})
	register(Gate{Name: "MX", Flags: FlagMeasurement | FlagProducesResults, ArgCount: 0})
	register(Gate{Name: "MY", Flags: FlagMeasurement | FlagProducesResults, ArgCount: 0})

	// Reset family.
	register(Gate{Name: "R", Flags: FlagReset, ArgCount: 0})
	register(Gate{Name: "RZ", Flags: FlagReset, ArgCount: 0})
	register(Gate{Name: "RX", Flags: FlagReset, ArgCount: 0})
	register(Gate{Name: "RY", Flags: FlagReset, ArgCount: 0})

	// Single-qubit Pauli noise channels.
	register(Gate{Name: "X_ERROR", Flags: FlagNoisy | FlagTakesParensArg, ArgCount: 1})
	register(Gate{Name: "Y_ERROR", Flags: FlagNoisy | FlagTakesParensArg, ArgCount: 1})
	register(Gate{Name: "Z_ERROR", Flags: FlagNoisy | FlagTakesParensArg, ArgCount: 1})
	register(Gate{Name: "DEPOLARIZE1", Flags: FlagNoisy | FlagTakesParensArg, ArgCount: 1})
	register(Gate{Name: "DEPOLARIZE2", Flags: FlagNoisy | FlagTakesParensArg | FlagTwoQubit, ArgCount: 1})
	register(Gate{Name: "PAULI_CHANNEL_1", Flags: FlagNoisy | FlagTakesParensArg, ArgCount: ArgCountAny})
	register(Gate{Name: "PAULI_CHANNEL_2", Flags: FlagNoisy | FlagTakesParensArg | FlagTwoQubit, ArgCount: ArgCountAny})

	// Correlated-error family.
	register(Gate{Name: "CORRELATED_ERROR", Flags: FlagNoisy | FlagTakesParensArg | FlagTakesPauliTargets, ArgCount: 1})
	register(Gate{Name: "ELSE_CORRELATED_ERROR", Flags: FlagNoisy | FlagTakesParensArg | FlagTakesPauliTargets, ArgCount: 1})

	// Annotation / bookkeeping instructions.
	register(Gate{Name: "DETECTOR", Flags: FlagTakesRecordTargets | FlagProducesResults, ArgCount: ArgCountAny})
	register(Gate{Name: "OBSERVABLE_INCLUDE", Flags: FlagTakesRecordTargets | FlagProducesResults | FlagTakesParensArg, ArgCount: 1})
	register(Gate{Name: "TICK", Flags: 0, ArgCount: 0})
}
