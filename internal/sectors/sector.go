package sectors

import (
	"slices"

	"github.com/roach88/t3ns/internal/ir"
)

// Sector is one symmetry sector of a bond or physical site.
type Sector struct {
	// Irreps holds one label per configured symmetry group.
	Irreps ir.Labels
	// Dim is the retained multiplicity.
	Dim int
	// FCIDim is the untruncated multiplicity, kept for truncation heuristics.
	FCIDim float64
}

// List is an ordered sector list. Index i of the list is sector index i.
type List []Sector

// Len returns the number of sectors.
func (l List) Len() int { return len(l) }

// Dims returns the dimension of every sector.
func (l List) Dims() []int {
	out := make([]int, len(l))
	for i, s := range l {
		out[i] = s.Dim
	}
	return out
}

// TotalDims sums the sector dimensions.
func (l List) TotalDims() int {
	total := 0
	for _, s := range l {
		total += s.Dim
	}
	return total
}

// Find returns the index of the sector with exactly these irreps.
func (l List) Find(irreps ir.Labels) (int, bool) {
	for i, s := range l {
		if s.Irreps.Equal(irreps) {
			return i, true
		}
	}
	return -1, false
}

// Clone returns a deep copy.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	for i, s := range l {
		out[i] = Sector{Irreps: s.Irreps.Clone(), Dim: s.Dim, FCIDim: s.FCIDim}
	}
	return out
}

// Sort orders sectors lexicographically by irreps.
func (l List) Sort() {
	slices.SortStableFunc(l, func(a, b Sector) int {
		return compareLabels(a.Irreps, b.Irreps)
	})
}

func compareLabels(a, b ir.Labels) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}

// Trivial is the single-sector list of the vacuum.
func Trivial(trivial ir.Labels) List {
	return List{{Irreps: trivial.Clone(), Dim: 1, FCIDim: 1}}
}
