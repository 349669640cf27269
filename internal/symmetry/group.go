package symmetry

import (
	"fmt"
	"strings"

	"github.com/roach88/t3ns/internal/ir"
)

// Kind tags a symmetry group variant. The numeric values are persisted in
// snapshots and must not change.
type Kind int

const (
	Z2 Kind = iota
	U1
	SU2
	C1
	Ci
	C2
	Cs
	D2
	C2v
	C2h
	D2h
	Seniority
)

var kindNames = [...]string{
	Z2:        "Z2",
	U1:        "U1",
	SU2:       "SU2",
	C1:        "C1",
	Ci:        "Ci",
	C2:        "C2",
	Cs:        "Cs",
	D2:        "D2",
	C2v:       "C2v",
	C2h:       "C2h",
	D2h:       "D2h",
	Seniority: "SENIORITY",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// IsPointGroup reports whether k is one of the abelian point groups.
func (k Kind) IsPointGroup() bool {
	return k >= C1 && k <= D2h
}

// ParseKind resolves a group name, case-insensitively.
func ParseKind(name string) (Kind, bool) {
	name = strings.TrimSpace(name)
	for k, n := range kindNames {
		if strings.EqualFold(n, name) {
			return Kind(k), true
		}
	}
	return 0, false
}

// Fusion describes the labels produced by fusing two irreps without
// materializing them: Min, Min+Step, ..., Count terms.
type Fusion struct {
	Min   ir.Label
	Count int
	Step  int
}

// Labels expands the progression.
func (f Fusion) Labels() []ir.Label {
	out := make([]ir.Label, f.Count)
	for i := range out {
		out[i] = f.Min + ir.Label(i*f.Step)
	}
	return out
}

// Contains reports whether l is one of the fusion outcomes.
func (f Fusion) Contains(l ir.Label) bool {
	if f.Count <= 0 || l < f.Min {
		return false
	}
	d := int(l - f.Min)
	if f.Step <= 0 {
		return d == 0
	}
	return d%f.Step == 0 && d/f.Step < f.Count
}

// Group is the capability set every symmetry group variant implements.
type Group interface {
	Coupler

	// Kind returns the variant tag.
	Kind() Kind

	// Valid reports whether l is inside the label domain of the group.
	Valid(l ir.Label) bool

	// Trivial returns the label of the trivial (vacuum) irrep.
	Trivial() ir.Label

	// MaxLabelBound returns one past the largest label any fusion of a label
	// from a with a label from b can produce. Never an under-estimate.
	MaxLabelBound(a, b []ir.Label) ir.Label

	// Fuse enumerates the labels reachable by combining a with b. sign=-1
	// inverts b and is meaningful for the additive variant only.
	Fuse(a, b ir.Label, sign int) Fusion

	// LabelString renders l in the canonical textual encoding.
	LabelString(l ir.Label) string

	// ParseLabel parses the canonical textual encoding. ok is false on
	// malformed or out-of-domain text.
	ParseLabel(s string) (l ir.Label, ok bool)
}

// New returns the implementation of a group variant.
func New(k Kind) (Group, error) {
	switch {
	case k == Z2:
		return parity{}, nil
	case k == U1:
		return additive{}, nil
	case k == SU2:
		return spin{}, nil
	case k == Seniority:
		return seniority{}, nil
	case k.IsPointGroup():
		return pointGroup{kind: k}, nil
	}
	return nil, fmt.Errorf("unknown symmetry group tag %d", int(k))
}

// MustNew is New for statically known kinds.
func MustNew(k Kind) Group {
	g, err := New(k)
	if err != nil {
		panic(err)
	}
	return g
}
