package symmetry

import (
	"strings"

	"github.com/roach88/t3ns/internal/ir"
)

// parity is Z2, the fermionic parity group. Labels are 0 (even) and 1 (odd).
type parity struct{}

func (parity) Kind() Kind { return Z2 }

func (parity) Valid(l ir.Label) bool { return l == 0 || l == 1 }

func (parity) Trivial() ir.Label { return 0 }

func (parity) MaxLabelBound(a, b []ir.Label) ir.Label { return 2 }

func (parity) Fuse(a, b ir.Label, sign int) Fusion {
	return Fusion{Min: a ^ b, Count: 1, Step: 1}
}

func (parity) LabelString(l ir.Label) string {
	switch l {
	case 0:
		return "0"
	case 1:
		return "1"
	}
	return "INVALID"
}

func (parity) ParseLabel(s string) (ir.Label, bool) {
	switch strings.TrimSpace(s) {
	case "0":
		return 0, true
	case "1":
		return 1, true
	}
	return 0, false
}

// Z2 carries the fermionic exchange signs; every other recoupling is unity.

func (parity) MirrorCoupling(v [3]ir.Label) float64 {
	return sign(int(v[0]) * int(v[1]))
}

func (parity) AppendPhysical([6]ir.Label, bool) float64 { return 1 }

func (parity) MatVec([3][3]ir.Label, MatVecCase) float64 { return 1 }

func (parity) AddPOperator(v [2][3]ir.Label, isLeft bool) float64 {
	if isLeft {
		return sign(int(v[1][0]))
	}
	return sign(int(v[1][1]))
}

func (parity) CombineMPOs([2][3]ir.Label, [3]ir.Label) float64 { return 1 }

func (parity) UpdateBranch([3][3]ir.Label, BranchCase) float64 { return 1 }

// sign returns (-1)^n.
func sign(n int) float64 {
	if n%2 != 0 {
		return -1
	}
	return 1
}
