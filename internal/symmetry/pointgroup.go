package symmetry

import (
	"strconv"
	"strings"

	"github.com/roach88/t3ns/internal/ir"
)

// pointGroup is one of the abelian molecular point groups. Irreps are
// numbered so that the direct product is the bitwise XOR of the labels.
type pointGroup struct {
	abelianCoupler
	kind Kind
}

var pointGroupIrreps = map[Kind][]string{
	C1:  {"A"},
	Ci:  {"Ag", "Au"},
	C2:  {"A", "B"},
	Cs:  {"Ap", "App"},
	D2:  {"A", "B1", "B2", "B3"},
	C2v: {"A1", "A2", "B1", "B2"},
	C2h: {"Ag", "Bg", "Au", "Bu"},
	D2h: {"Ag", "B1g", "B2g", "B3g", "Au", "B1u", "B2u", "B3u"},
}

// Order returns the number of irreps of the point group.
func (p pointGroup) Order() int { return len(pointGroupIrreps[p.kind]) }

func (p pointGroup) Kind() Kind { return p.kind }

func (p pointGroup) Valid(l ir.Label) bool { return l >= 0 && int(l) < p.Order() }

func (pointGroup) Trivial() ir.Label { return 0 }

// MaxLabelBound is the group order: XOR never leaves the irrep table.
func (p pointGroup) MaxLabelBound(a, b []ir.Label) ir.Label {
	return ir.Label(p.Order())
}

func (pointGroup) Fuse(a, b ir.Label, sign int) Fusion {
	return Fusion{Min: a ^ b, Count: 1, Step: 1}
}

func (p pointGroup) LabelString(l ir.Label) string {
	if !p.Valid(l) {
		return "INVALID"
	}
	return pointGroupIrreps[p.kind][l]
}

// ParseLabel accepts the irrep name (case-insensitive) or its index.
func (p pointGroup) ParseLabel(s string) (ir.Label, bool) {
	s = strings.TrimSpace(s)
	for i, name := range pointGroupIrreps[p.kind] {
		if strings.EqualFold(name, s) {
			return ir.Label(i), true
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || !p.Valid(ir.Label(n)) {
		return 0, false
	}
	return ir.Label(n), true
}
