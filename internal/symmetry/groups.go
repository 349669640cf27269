package symmetry

import (
	"fmt"
	"strings"

	"github.com/roach88/t3ns/internal/ir"
)

// Groups is the ordered list of symmetry groups of a run. Label tuples
// (ir.Labels) hold one label per entry, in the same order.
type Groups []Group

// Parse builds a group list from names such as "Z2", "U1", "SU2".
func Parse(names []string) (Groups, error) {
	gs := make(Groups, 0, len(names))
	for _, name := range names {
		k, ok := ParseKind(name)
		if !ok {
			return nil, fmt.Errorf("unknown symmetry group %q", name)
		}
		gs = append(gs, MustNew(k))
	}
	if err := gs.validate(); err != nil {
		return nil, err
	}
	return gs, nil
}

// FromTags builds a group list from persisted variant tags.
func FromTags(tags []int) (Groups, error) {
	gs := make(Groups, 0, len(tags))
	for _, tag := range tags {
		g, err := New(Kind(tag))
		if err != nil {
			return nil, err
		}
		gs = append(gs, g)
	}
	if err := gs.validate(); err != nil {
		return nil, err
	}
	return gs, nil
}

func (gs Groups) validate() error {
	if len(gs) > ir.MaxSymmetries {
		return ir.Errorf(ir.ErrCodeUnsupportedSymmetryCount,
			"%d symmetries specified, maximal allowed %d", len(gs), ir.MaxSymmetries)
	}
	seen := map[Kind]bool{}
	points := 0
	for _, g := range gs {
		k := g.Kind()
		if k.IsPointGroup() {
			points++
		} else if seen[k] && k != U1 {
			return fmt.Errorf("symmetry %s specified twice", k)
		}
		seen[k] = true
	}
	if points > 1 {
		return fmt.Errorf("at most one point group can be specified")
	}
	return nil
}

// Kinds returns the variant tag of each group.
func (gs Groups) Kinds() []Kind {
	out := make([]Kind, len(gs))
	for i, g := range gs {
		out[i] = g.Kind()
	}
	return out
}

// Tags returns the persisted integer tags.
func (gs Groups) Tags() []int {
	out := make([]int, len(gs))
	for i, g := range gs {
		out[i] = int(g.Kind())
	}
	return out
}

// Names returns the group names.
func (gs Groups) Names() []string {
	out := make([]string, len(gs))
	for i, g := range gs {
		out[i] = g.Kind().String()
	}
	return out
}

func (gs Groups) String() string {
	return strings.Join(gs.Names(), " ")
}

// Equal reports whether both lists hold the same variants in the same order.
func (gs Groups) Equal(other Groups) bool {
	if len(gs) != len(other) {
		return false
	}
	for i := range gs {
		if gs[i].Kind() != other[i].Kind() {
			return false
		}
	}
	return true
}

// Index returns the position of the first group of kind k, or -1.
func (gs Groups) Index(k Kind) int {
	for i, g := range gs {
		if g.Kind() == k {
			return i
		}
	}
	return -1
}

// PointGroup returns the configured point group, if any.
func (gs Groups) PointGroup() (Kind, bool) {
	for _, g := range gs {
		if g.Kind().IsPointGroup() {
			return g.Kind(), true
		}
	}
	return 0, false
}

// Trivial returns the trivial label tuple.
func (gs Groups) Trivial() ir.Labels {
	out := make(ir.Labels, len(gs))
	for i, g := range gs {
		out[i] = g.Trivial()
	}
	return out
}

// Valid reports whether every label of l is inside its group's domain.
func (gs Groups) Valid(l ir.Labels) bool {
	if len(l) != len(gs) {
		return false
	}
	for i, g := range gs {
		if !g.Valid(l[i]) {
			return false
		}
	}
	return true
}

// Fusable reports whether c is reachable from a and b under the fusion rule
// of every group.
func (gs Groups) Fusable(a, b, c ir.Labels) bool {
	if len(a) != len(gs) || len(b) != len(gs) || len(c) != len(gs) {
		return false
	}
	for i, g := range gs {
		if !g.Fuse(a[i], b[i], 1).Contains(c[i]) {
			return false
		}
	}
	return true
}

// FuseAll enumerates every label tuple reachable from a and b.
// Tuples are produced in lexicographic order of the per-group progressions.
func (gs Groups) FuseAll(a, b ir.Labels) []ir.Labels {
	out := []ir.Labels{{}}
	for i, g := range gs {
		labels := g.Fuse(a[i], b[i], 1).Labels()
		next := make([]ir.Labels, 0, len(out)*len(labels))
		for _, prefix := range out {
			for _, l := range labels {
				t := make(ir.Labels, len(prefix), len(prefix)+1)
				copy(t, prefix)
				next = append(next, append(t, l))
			}
		}
		out = next
	}
	return out
}

// LabelStrings renders a label tuple.
func (gs Groups) LabelStrings(l ir.Labels) []string {
	out := make([]string, len(l))
	for i := range l {
		if i < len(gs) {
			out[i] = gs[i].LabelString(l[i])
		} else {
			out[i] = fmt.Sprint(int(l[i]))
		}
	}
	return out
}

// FormatLabels renders a label tuple as "(a, b, c)".
func (gs Groups) FormatLabels(l ir.Labels) string {
	return "(" + strings.Join(gs.LabelStrings(l), ", ") + ")"
}

// ParseLabels parses one label per group.
func (gs Groups) ParseLabels(texts []string) (ir.Labels, error) {
	if len(texts) != len(gs) {
		return nil, ir.Errorf(ir.ErrCodeInvalidIrrepText,
			"expected %d labels, got %d", len(gs), len(texts))
	}
	out := make(ir.Labels, len(gs))
	for i, g := range gs {
		l, ok := g.ParseLabel(texts[i])
		if !ok {
			return nil, ir.Errorf(ir.ErrCodeInvalidIrrepText,
				"%q is not a valid %s irrep", texts[i], g.Kind())
		}
		out[i] = l
	}
	return out, nil
}
