package symmetry

import (
	"math"
	"strconv"
	"strings"

	"github.com/roach88/t3ns/internal/ir"
)

// spin is SU(2). Labels are doubled total spins 2j: 0, 1, 2, ... for
// j = 0, 1/2, 1, ...
type spin struct{}

func (spin) Kind() Kind { return SU2 }

func (spin) Valid(l ir.Label) bool { return l >= 0 }

func (spin) Trivial() ir.Label { return 0 }

func (spin) MaxLabelBound(a, b []ir.Label) ir.Label {
	return maxOf(a) + maxOf(b) + 1
}

func (spin) Fuse(a, b ir.Label, sign int) Fusion {
	lo := a - b
	if lo < 0 {
		lo = -lo
	}
	return Fusion{Min: lo, Count: int(min(a, b)) + 1, Step: 2}
}

func (spin) LabelString(l ir.Label) string {
	if l < 0 {
		return "INVALID"
	}
	return strconv.Itoa(int(l))
}

func (spin) ParseLabel(s string) (ir.Label, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s[0] == '-' || s[0] == '+' {
		return 0, false
	}
	return parseInt(s)
}

// MirrorCoupling follows the Clebsch-Gordan symmetry
// <a ma b mb|c mc> = (-1)^(b+mb) sqrt((2c+1)/(2a+1)) <c -mc b mb|a -ma>.
func (spin) MirrorCoupling(v [3]ir.Label) float64 {
	a, b, c := int(v[0]), int(v[1]), int(v[2])
	if !triangle(a, b, c) {
		return 0
	}
	return phase(a+b-c) * math.Sqrt(float64(c+1)/float64(a+1))
}

// AppendPhysical is the recoupling coefficient
// <(a b)c, d; f | a, (b d)e; f> on the left and
// <(a b)c, d; f | (a d)e, b; f> on the right.
func (spin) AppendPhysical(v [6]ir.Label, isLeft bool) float64 {
	a, b, c, d, e, f := int(v[0]), int(v[1]), int(v[2]), int(v[3]), int(v[4]), int(v[5])
	norm := math.Sqrt(float64((c + 1) * (e + 1)))
	if isLeft {
		sixj := SixJ(a, b, c, d, f, e)
		if sixj == 0 {
			return 0
		}
		return phase(a+b+d+f) * norm * sixj
	}
	sixj := SixJ(b, a, c, d, f, e)
	if sixj == 0 {
		return 0
	}
	return phase(b+c+d+e) * norm * sixj
}

// MatVec couples the two operators of a Hamiltonian term through
// CombineMPOs. The adjoint case conjugates the first operator with
// <a'||T†||a> = (-1)^((a'-a+k1)/2) sqrt((2a+1)/(2a'+1)) <a||T||a'>.
func (s spin) MatVec(v [3][3]ir.Label, c MatVecCase) float64 {
	pref := s.CombineMPOs([2][3]ir.Label{v[0], v[1]}, v[2])
	if pref == 0 || c != MatVecAdjoint {
		return pref
	}
	ab, ak, k1 := int(v[0][0]), int(v[1][0]), int(v[2][0])
	return pref * phase(ab-ak+k1) * math.Sqrt(float64(ak+1)/float64(ab+1))
}

// AddPOperator is diagonal in the couplings; the fermionic parity of a leg
// equals the parity of its doubled spin.
func (spin) AddPOperator(v [2][3]ir.Label, isLeft bool) float64 {
	if v[0] != v[1] || !triangle(int(v[1][0]), int(v[1][1]), int(v[1][2])) {
		return 0
	}
	if isLeft {
		return sign(int(v[1][0]))
	}
	return sign(int(v[1][1]))
}

// CombineMPOs is the reduced matrix element of a coupled tensor operator:
// sqrt((2c'+1)(2c+1)(2k+1)) {a' a k1; b' b k2; c' c k}.
func (spin) CombineMPOs(v [2][3]ir.Label, mpo [3]ir.Label) float64 {
	bra, ket := v[0], v[1]
	ninej := NineJ(
		int(bra[0]), int(ket[0]), int(mpo[0]),
		int(bra[1]), int(ket[1]), int(mpo[1]),
		int(bra[2]), int(ket[2]), int(mpo[2]),
	)
	if ninej == 0 {
		return 0
	}
	return math.Sqrt(float64((bra[2]+1)*(ket[2]+1)*(mpo[2]+1))) * ninej
}

// UpdateBranch is the reduced matrix element of an operator acting on one
// leg of a coupled pair, or on both legs for BranchBoth.
func (s spin) UpdateBranch(v [3][3]ir.Label, c BranchCase) float64 {
	bra, ket, ops := v[0], v[1], v[2]
	j1, j2, J := int(bra[0]), int(bra[1]), int(bra[2])
	j1p, j2p, Jp := int(ket[0]), int(ket[1]), int(ket[2])
	norm := math.Sqrt(float64((J + 1) * (Jp + 1)))

	switch c {
	case BranchFirst:
		k := int(ops[0])
		if j2 != j2p {
			return 0
		}
		sixj := SixJ(j1, J, j2, Jp, j1p, k)
		if sixj == 0 {
			return 0
		}
		return phase(j1+j2+Jp+k) * norm * sixj
	case BranchSecond:
		k := int(ops[1])
		if j1 != j1p {
			return 0
		}
		sixj := SixJ(j2, J, j1, Jp, j2p, k)
		if sixj == 0 {
			return 0
		}
		return phase(j1+j2p+J+k) * norm * sixj
	default:
		return s.CombineMPOs([2][3]ir.Label{bra, ket}, ops)
	}
}
