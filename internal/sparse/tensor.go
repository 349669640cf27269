package sparse

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/roach88/t3ns/internal/ir"
	"github.com/roach88/t3ns/internal/network"
	"github.com/roach88/t3ns/internal/sectors"
)

// SiteTensor is the block-sparse tensor at one network vertex.
// Triplets are kept sorted and len(Triplets) == Blocks.NrBlocks().
type SiteTensor struct {
	// Sites spanned by the tensor. Always one network site.
	Sites    []int
	Legs     [3]ir.Leg
	Triplets []ir.Triplet
	Blocks   Blocks
}

// NewSiteTensor returns an empty tensor for a network site.
func NewSiteTensor(net *network.Network, site int) *SiteTensor {
	return &SiteTensor{Sites: []int{site}, Legs: net.Legs(site)}
}

// NrBlocks returns the number of stored blocks.
func (st *SiteTensor) NrBlocks() int { return len(st.Triplets) }

func legLists(reg *sectors.Registry, legs [3]ir.Leg) ([3]sectors.List, error) {
	var lists [3]sectors.List
	for i, leg := range legs {
		l, err := reg.Leg(leg)
		if err != nil {
			return lists, err
		}
		lists[i] = l
	}
	return lists, nil
}

// blockSize validates a triplet against the leg lists and returns the size
// of its dense block. in0 ⊗ in1 -> out must fuse in every group.
func blockSize(reg *sectors.Registry, legs [3]ir.Leg, lists [3]sectors.List, t ir.Triplet) (int, error) {
	size := 1
	for i := range t {
		if t[i] < 0 || t[i] >= len(lists[i]) {
			return 0, ir.Errorf(ir.ErrCodeOutOfRange,
				"triplet %s: sector %d out of range on %s with %d sectors", t, t[i], legs[i], len(lists[i]))
		}
		size *= lists[i][t[i]].Dim
	}
	a, b, c := lists[0][t[0]].Irreps, lists[1][t[1]].Irreps, lists[2][t[2]].Irreps
	if !reg.Groups().Fusable(a, b, c) {
		g := reg.Groups()
		return 0, ir.Errorf(ir.ErrCodeFusionRuleViolation,
			"triplet %s: %s x %s does not fuse to %s", t, g.FormatLabels(a), g.FormatLabels(b), g.FormatLabels(c))
	}
	return size, nil
}

// AddBlock stores data as the block of triplet t, keeping triplets sorted.
func (st *SiteTensor) AddBlock(reg *sectors.Registry, t ir.Triplet, data []float64) error {
	lists, err := legLists(reg, st.Legs)
	if err != nil {
		return err
	}
	size, err := blockSize(reg, st.Legs, lists, t)
	if err != nil {
		return err
	}
	if len(data) != size {
		return ir.Errorf(ir.ErrCodeSizeMismatch,
			"triplet %s: block has %d elements, sectors imply %d", t, len(data), size)
	}
	pos, found := slices.BinarySearchFunc(st.Triplets, t, ir.Triplet.Compare)
	if found {
		return fmt.Errorf("triplet %s already stored", t)
	}
	st.Triplets = slices.Insert(st.Triplets, pos, t)
	st.Blocks.insert(pos, data)
	return nil
}

// BlockFor returns the block of triplet t. The slice aliases the tensor.
func (st *SiteTensor) BlockFor(t ir.Triplet) ([]float64, error) {
	pos, found := slices.BinarySearchFunc(st.Triplets, t, ir.Triplet.Compare)
	if !found {
		return nil, ir.Errorf(ir.ErrCodeNotFound, "no block for triplet %s", t)
	}
	return st.Blocks.Block(pos), nil
}

// Norm returns the Frobenius norm over all blocks.
func (st *SiteTensor) Norm() float64 {
	if len(st.Blocks.Tel) == 0 {
		return 0
	}
	return floats.Norm(st.Blocks.Tel, 2)
}

// Normalize scales the tensor to unit norm and returns the previous norm.
func (st *SiteTensor) Normalize() (float64, error) {
	norm := st.Norm()
	if norm == 0 {
		return 0, fmt.Errorf("site %v: cannot normalize a zero tensor", st.Sites)
	}
	floats.Scale(1/norm, st.Blocks.Tel)
	return norm, nil
}

// ValidTriplets enumerates, in sorted order, every triplet of non-empty
// sectors that satisfies the fusion rule on the given legs.
func ValidTriplets(reg *sectors.Registry, legs [3]ir.Leg) ([]ir.Triplet, error) {
	lists, err := legLists(reg, legs)
	if err != nil {
		return nil, err
	}
	groups := reg.Groups()
	var out []ir.Triplet
	for t2, s2 := range lists[2] {
		for t1, s1 := range lists[1] {
			for t0, s0 := range lists[0] {
				if s0.Dim == 0 || s1.Dim == 0 || s2.Dim == 0 {
					continue
				}
				if groups.Fusable(s0.Irreps, s1.Irreps, s2.Irreps) {
					out = append(out, ir.Triplet{t0, t1, t2})
				}
			}
		}
	}
	return out, nil
}

// BlockSizes returns the dense size of each triplet on the given legs.
func BlockSizes(reg *sectors.Registry, legs [3]ir.Leg, ts []ir.Triplet) ([]int, error) {
	lists, err := legLists(reg, legs)
	if err != nil {
		return nil, err
	}
	sizes := make([]int, len(ts))
	for k, t := range ts {
		if sizes[k], err = blockSize(reg, legs, lists, t); err != nil {
			return nil, err
		}
	}
	return sizes, nil
}

// Validate checks sector references, fusion and block layout.
func (st *SiteTensor) Validate(reg *sectors.Registry) error {
	if len(st.Sites) != 1 {
		return ir.Errorf(ir.ErrCodeSizeMismatch, "tensor spans %d sites, expected 1", len(st.Sites))
	}
	if err := st.Blocks.Validate(len(st.Triplets)); err != nil {
		return err
	}
	lists, err := legLists(reg, st.Legs)
	if err != nil {
		return err
	}
	for k, t := range st.Triplets {
		if k > 0 && !st.Triplets[k-1].Less(t) {
			return fmt.Errorf("triplets %s and %s out of order", st.Triplets[k-1], t)
		}
		size, err := blockSize(reg, st.Legs, lists, t)
		if err != nil {
			return err
		}
		if got := st.Blocks.Size(k); got != size {
			return ir.Errorf(ir.ErrCodeSizeMismatch,
				"triplet %s: block has %d elements, sectors imply %d", t, got, size)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (st *SiteTensor) Clone() *SiteTensor {
	return &SiteTensor{
		Sites:    slices.Clone(st.Sites),
		Legs:     st.Legs,
		Triplets: slices.Clone(st.Triplets),
		Blocks:   st.Blocks.Clone(),
	}
}
