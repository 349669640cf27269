package symmetry

import (
	"strconv"

	"github.com/roach88/t3ns/internal/ir"
)

// seniority tracks the number of unpaired particles. Sector labels are
// non-negative seniorities that couple with the triangle rule.
//
// As a target label the value is interpreted as a range: t >= 0 allows every
// seniority s <= t with the parity of t, t < 0 pins the seniority at -t.
// Only ranges can be migrated to other ranges.
type seniority struct{ abelianCoupler }

func (seniority) Kind() Kind { return Seniority }

// Valid accepts negative values because target labels use them to pin a
// seniority.
func (seniority) Valid(ir.Label) bool { return true }

func (seniority) Trivial() ir.Label { return 0 }

func (seniority) MaxLabelBound(a, b []ir.Label) ir.Label {
	return maxOf(a) + maxOf(b) + 1
}

func (seniority) Fuse(a, b ir.Label, sign int) Fusion {
	lo := a - b
	if lo < 0 {
		lo = -lo
	}
	return Fusion{Min: lo, Count: int(min(a, b)) + 1, Step: 2}
}

func (seniority) LabelString(l ir.Label) string {
	return strconv.Itoa(int(l))
}

func (seniority) ParseLabel(s string) (ir.Label, bool) {
	return parseInt(s)
}

// SeniorityRange expands a seniority target label into the seniorities it
// allows, in increasing order.
func SeniorityRange(target ir.Label) []ir.Label {
	if target < 0 {
		return []ir.Label{-target}
	}
	out := make([]ir.Label, 0, target/2+1)
	for s := target % 2; s <= target; s += 2 {
		out = append(out, s)
	}
	return out
}

// IsPinnedSeniority reports whether a seniority target label is fixed and
// therefore cannot be migrated.
func IsPinnedSeniority(target ir.Label) bool {
	return target < 0
}
