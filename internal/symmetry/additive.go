package symmetry

import (
	"strconv"
	"strings"

	"github.com/roach88/t3ns/internal/ir"
)

// additive is U(1). Labels are signed integers (particle number, 2Sz, ...)
// and fusion is integer addition.
type additive struct{ abelianCoupler }

func (additive) Kind() Kind { return U1 }

func (additive) Valid(ir.Label) bool { return true }

func (additive) Trivial() ir.Label { return 0 }

// MaxLabelBound covers both signs of fusion: |a+-b| <= max|a| + max|b|.
func (additive) MaxLabelBound(a, b []ir.Label) ir.Label {
	return maxAbs(a) + maxAbs(b) + 1
}

func (additive) Fuse(a, b ir.Label, sign int) Fusion {
	if sign < 0 {
		return Fusion{Min: a - b, Count: 1, Step: 1}
	}
	return Fusion{Min: a + b, Count: 1, Step: 1}
}

func (additive) LabelString(l ir.Label) string {
	return strconv.Itoa(int(l))
}

func (additive) ParseLabel(s string) (ir.Label, bool) {
	return parseInt(s)
}

func parseInt(s string) (ir.Label, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return ir.Label(n), true
}

func maxAbs(ls []ir.Label) ir.Label {
	var m ir.Label
	for _, l := range ls {
		if l < 0 {
			l = -l
		}
		if l > m {
			m = l
		}
	}
	return m
}

func maxOf(ls []ir.Label) ir.Label {
	var m ir.Label
	for _, l := range ls {
		if l > m {
			m = l
		}
	}
	return m
}
