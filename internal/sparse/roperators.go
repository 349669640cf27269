package sparse

import (
	"fmt"
	"slices"

	"github.com/roach88/t3ns/internal/ir"
	"github.com/roach88/t3ns/internal/sectors"
)

// ROperators is the set of renormalized operators living on one bond.
//
// Couplings are triplets (bra, ket, hss) with ket ⊗ hss -> bra, grouped by
// hss: the couplings of hss h are Triplets[BeginBlocksOfHSS[h]:BeginBlocksOfHSS[h+1]].
// Every operator belongs to one hss (HSSOfOps) and stores one block per
// coupling of its hss.
type ROperators struct {
	Bond      int
	Direction ir.Direction
	// POperator marks that the parity operator has been folded in.
	POperator        bool
	BeginBlocksOfHSS []int
	Triplets         []ir.Triplet
	HSSOfOps         []int
	Operators        []Blocks
}

// Unattached returns the sentinel for an operator set not yet bound to a
// bond. It is a valid value, not an error.
func Unattached() *ROperators {
	return &ROperators{Bond: -1, Direction: ir.Unattached}
}

// IsUnattached reports whether r is the unattached sentinel.
func (r *ROperators) IsUnattached() bool {
	return r.Bond == -1 || r.Direction == ir.Unattached
}

// NewROperators returns an empty operator set on a bond with one empty
// coupling run per Hamiltonian symmetry sector.
func NewROperators(reg *sectors.Registry, bond int, dir ir.Direction, pOperator bool) (*ROperators, error) {
	if bond < 0 || bond >= reg.NrBonds() {
		return nil, ir.Errorf(ir.ErrCodeOutOfRange, "bond %d out of range [0, %d)", bond, reg.NrBonds())
	}
	if dir != ir.FromLeft && dir != ir.FromRight {
		return nil, fmt.Errorf("bond %d: operators need a direction, got %s", bond, dir)
	}
	return &ROperators{
		Bond:             bond,
		Direction:        dir,
		POperator:        pOperator,
		BeginBlocksOfHSS: make([]int, reg.HSS().Len()+1),
	}, nil
}

// Vacuum returns the identity operator set on a bond: one coupling (i, i)
// per sector under the trivial hss and a single identity operator.
func Vacuum(reg *sectors.Registry, bond int, dir ir.Direction) (*ROperators, error) {
	r, err := NewROperators(reg, bond, dir, true)
	if err != nil {
		return nil, err
	}
	hss, err := reg.TrivialHSS()
	if err != nil {
		return nil, err
	}
	list, err := reg.Sectors(bond)
	if err != nil {
		return nil, err
	}
	for i, s := range list {
		if s.Dim == 0 {
			continue
		}
		if err := r.AddCoupling(reg, hss, i, i); err != nil {
			return nil, err
		}
	}

	ts := r.Couplings(hss)
	sizes := make([]int, len(ts))
	for k, t := range ts {
		sizes[k] = list[t[0]].Dim * list[t[0]].Dim
	}
	id := NewBlocks(sizes)
	for k, t := range ts {
		d := list[t[0]].Dim
		blk := id.Block(k)
		for i := 0; i < d; i++ {
			blk[i*d+i] = 1
		}
	}
	if _, err := r.AddOperator(reg, hss, id); err != nil {
		return nil, err
	}
	return r, nil
}

// NrHSS returns the number of Hamiltonian symmetry sectors.
func (r *ROperators) NrHSS() int {
	if len(r.BeginBlocksOfHSS) == 0 {
		return 0
	}
	return len(r.BeginBlocksOfHSS) - 1
}

// NrOps returns the number of operators.
func (r *ROperators) NrOps() int { return len(r.Operators) }

// NrBlocksForHSS returns the number of couplings of an hss.
func (r *ROperators) NrBlocksForHSS(hss int) int {
	return r.BeginBlocksOfHSS[hss+1] - r.BeginBlocksOfHSS[hss]
}

// NrBlocksForOperator returns the number of blocks of operator op.
func (r *ROperators) NrBlocksForOperator(op int) int {
	return r.NrBlocksForHSS(r.HSSOfOps[op])
}

// Couplings returns the couplings of an hss. The slice aliases r.
func (r *ROperators) Couplings(hss int) []ir.Triplet {
	return r.Triplets[r.BeginBlocksOfHSS[hss]:r.BeginBlocksOfHSS[hss+1]]
}

func (r *ROperators) legs() [3]ir.Leg {
	return [3]ir.Leg{ir.BondLeg(r.Bond), ir.BondLeg(r.Bond), ir.HSSLeg}
}

// couplingSize validates (bra, ket, hss) and returns the bra x ket size.
func couplingSize(reg *sectors.Registry, lists [3]sectors.List, legs [3]ir.Leg, t ir.Triplet) (int, error) {
	for i := range t {
		if t[i] < 0 || t[i] >= len(lists[i]) {
			return 0, ir.Errorf(ir.ErrCodeOutOfRange,
				"coupling %s: sector %d out of range on %s with %d sectors", t, t[i], legs[i], len(lists[i]))
		}
	}
	bra, ket, hss := lists[0][t[0]].Irreps, lists[1][t[1]].Irreps, lists[2][t[2]].Irreps
	if !reg.Groups().Fusable(ket, hss, bra) {
		g := reg.Groups()
		return 0, ir.Errorf(ir.ErrCodeFusionRuleViolation,
			"coupling %s: ket %s x hss %s does not reach bra %s", t,
			g.FormatLabels(ket), g.FormatLabels(hss), g.FormatLabels(bra))
	}
	return lists[0][t[0]].Dim * lists[1][t[1]].Dim, nil
}

// AddCoupling registers the block (bra, ket) under an hss. Couplings are
// frozen once the first operator is stored.
func (r *ROperators) AddCoupling(reg *sectors.Registry, hss, bra, ket int) error {
	if r.IsUnattached() {
		return fmt.Errorf("cannot add couplings to unattached operators")
	}
	if len(r.Operators) > 0 {
		return fmt.Errorf("bond %d: couplings are frozen once operators are stored", r.Bond)
	}
	if hss < 0 || hss >= r.NrHSS() {
		return ir.Errorf(ir.ErrCodeOutOfRange, "hss %d out of range [0, %d)", hss, r.NrHSS())
	}
	legs := r.legs()
	lists, err := legLists(reg, legs)
	if err != nil {
		return err
	}
	t := ir.Triplet{bra, ket, hss}
	if _, err := couplingSize(reg, lists, legs, t); err != nil {
		return err
	}
	lo := r.BeginBlocksOfHSS[hss]
	pos, found := slices.BinarySearchFunc(r.Couplings(hss), t, ir.Triplet.Compare)
	if found {
		return fmt.Errorf("bond %d: coupling %s already stored", r.Bond, t)
	}
	r.Triplets = slices.Insert(r.Triplets, lo+pos, t)
	for h := hss + 1; h < len(r.BeginBlocksOfHSS); h++ {
		r.BeginBlocksOfHSS[h]++
	}
	return nil
}

// AddOperator appends an operator of an hss and returns its index. blocks
// must hold one block per coupling of the hss.
func (r *ROperators) AddOperator(reg *sectors.Registry, hss int, blocks Blocks) (int, error) {
	if r.IsUnattached() {
		return -1, fmt.Errorf("cannot add operators to unattached operators")
	}
	if hss < 0 || hss >= r.NrHSS() {
		return -1, ir.Errorf(ir.ErrCodeOutOfRange, "hss %d out of range [0, %d)", hss, r.NrHSS())
	}
	if err := r.checkOperator(reg, hss, blocks); err != nil {
		return -1, err
	}
	r.HSSOfOps = append(r.HSSOfOps, hss)
	r.Operators = append(r.Operators, blocks)
	return len(r.Operators) - 1, nil
}

func (r *ROperators) checkOperator(reg *sectors.Registry, hss int, blocks Blocks) error {
	ts := r.Couplings(hss)
	if err := blocks.Validate(len(ts)); err != nil {
		return err
	}
	list, err := reg.Sectors(r.Bond)
	if err != nil {
		return err
	}
	for k, t := range ts {
		want := list[t[0]].Dim * list[t[1]].Dim
		if got := blocks.Size(k); got != want {
			return ir.Errorf(ir.ErrCodeSizeMismatch,
				"coupling %s: block has %d elements, sectors imply %d", t, got, want)
		}
	}
	return nil
}

// BlockFor returns the (bra, ket) block of operator op.
func (r *ROperators) BlockFor(op, bra, ket int) ([]float64, error) {
	if op < 0 || op >= len(r.Operators) {
		return nil, ir.Errorf(ir.ErrCodeOutOfRange, "operator %d out of range [0, %d)", op, len(r.Operators))
	}
	hss := r.HSSOfOps[op]
	t := ir.Triplet{bra, ket, hss}
	pos, found := slices.BinarySearchFunc(r.Couplings(hss), t, ir.Triplet.Compare)
	if !found {
		return nil, ir.Errorf(ir.ErrCodeNotFound, "operator %d has no block for coupling %s", op, t)
	}
	return r.Operators[op].Block(pos), nil
}

// Validate checks layout, sector references and fusion of every coupling.
func (r *ROperators) Validate(reg *sectors.Registry) error {
	if r.IsUnattached() {
		if r.BeginBlocksOfHSS != nil || r.Triplets != nil || r.HSSOfOps != nil || r.Operators != nil {
			return fmt.Errorf("unattached operators carry data")
		}
		return nil
	}
	if r.Bond >= reg.NrBonds() {
		return ir.Errorf(ir.ErrCodeOutOfRange, "bond %d out of range [0, %d)", r.Bond, reg.NrBonds())
	}
	if r.Direction != ir.FromLeft && r.Direction != ir.FromRight {
		return fmt.Errorf("bond %d: invalid direction %d", r.Bond, r.Direction)
	}
	if r.NrHSS() != reg.HSS().Len() {
		return ir.Errorf(ir.ErrCodeSizeMismatch,
			"bond %d: %d hss runs, hamiltonian has %d sectors", r.Bond, r.NrHSS(), reg.HSS().Len())
	}
	if err := r.checkRuns(); err != nil {
		return err
	}

	legs := r.legs()
	lists, err := legLists(reg, legs)
	if err != nil {
		return err
	}
	for h := 0; h < r.NrHSS(); h++ {
		ts := r.Couplings(h)
		for k, t := range ts {
			if t[2] != h {
				return fmt.Errorf("bond %d: coupling %s filed under hss %d", r.Bond, t, h)
			}
			if k > 0 && !ts[k-1].Less(t) {
				return fmt.Errorf("bond %d: couplings %s and %s out of order", r.Bond, ts[k-1], t)
			}
			if _, err := couplingSize(reg, lists, legs, t); err != nil {
				return err
			}
		}
	}

	if len(r.HSSOfOps) != len(r.Operators) {
		return ir.Errorf(ir.ErrCodeSizeMismatch,
			"bond %d: %d hss_of_ops for %d operators", r.Bond, len(r.HSSOfOps), len(r.Operators))
	}
	for op, hss := range r.HSSOfOps {
		if hss < 0 || hss >= r.NrHSS() {
			return ir.Errorf(ir.ErrCodeOutOfRange, "bond %d: operator %d has hss %d", r.Bond, op, hss)
		}
		if err := r.checkOperator(reg, hss, r.Operators[op]); err != nil {
			return fmt.Errorf("bond %d operator %d: %w", r.Bond, op, err)
		}
	}
	return nil
}

// checkRuns verifies that begin_blocks_of_hss starts at zero, never
// decreases and ends at the coupling count, so every run slices Triplets.
func (r *ROperators) checkRuns() error {
	begin := r.BeginBlocksOfHSS
	if len(begin) == 0 || begin[0] != 0 || begin[len(begin)-1] != len(r.Triplets) {
		return ir.Errorf(ir.ErrCodeSizeMismatch,
			"bond %d: begin_blocks_of_hss does not cover %d couplings", r.Bond, len(r.Triplets))
	}
	for h := 1; h < len(begin); h++ {
		if begin[h] < begin[h-1] || begin[h] > len(r.Triplets) {
			return ir.Errorf(ir.ErrCodeSizeMismatch,
				"bond %d: begin_blocks_of_hss entry %d is %d with %d couplings", r.Bond, h, begin[h], len(r.Triplets))
		}
	}
	return nil
}

// Clone returns a deep copy.
func (r *ROperators) Clone() *ROperators {
	c := &ROperators{
		Bond:             r.Bond,
		Direction:        r.Direction,
		POperator:        r.POperator,
		BeginBlocksOfHSS: slices.Clone(r.BeginBlocksOfHSS),
		Triplets:         slices.Clone(r.Triplets),
		HSSOfOps:         slices.Clone(r.HSSOfOps),
	}
	if r.Operators != nil {
		c.Operators = make([]Blocks, len(r.Operators))
		for i, b := range r.Operators {
			c.Operators[i] = b.Clone()
		}
	}
	return c
}
