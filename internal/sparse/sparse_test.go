package sparse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/t3ns/internal/ir"
	"github.com/roach88/t3ns/internal/network"
	"github.com/roach88/t3ns/internal/sectors"
	"github.com/roach88/t3ns/internal/symmetry"
)

// fixture is a two site chain with U1 x SU2, target (2, 0):
//
//	bond 0: (0,0)
//	bond 1: (0,0) (1,1)x2 (2,0)
//	bond 2: (2,0)
//	sites:  (0,0) (1,1) (2,0)
func fixture(t *testing.T) (*network.Network, *sectors.Registry) {
	t.Helper()
	net, err := network.Chain(2)
	require.NoError(t, err)
	gs, err := symmetry.Parse([]string{"U1", "SU2"})
	require.NoError(t, err)
	reg, err := sectors.New(gs, ir.Labels{2, 0}, net.NrBonds(), net.NrPhysical())
	require.NoError(t, err)

	phys, err := sectors.PhysicalSectors(gs, 0)
	require.NoError(t, err)
	for s := 0; s < net.NrPhysical(); s++ {
		require.NoError(t, reg.RegisterSiteSectors(s, phys))
	}
	require.NoError(t, reg.RegisterSectors(0, sectors.Trivial(gs.Trivial())))
	require.NoError(t, reg.RegisterSectors(1, sectors.List{
		{Irreps: ir.Labels{0, 0}, Dim: 1, FCIDim: 1},
		{Irreps: ir.Labels{1, 1}, Dim: 2, FCIDim: 2},
		{Irreps: ir.Labels{2, 0}, Dim: 1, FCIDim: 1},
	}))
	target, err := sectors.TargetSectors(gs, reg.TargetState())
	require.NoError(t, err)
	require.NoError(t, reg.RegisterSectors(2, target))
	return net, reg
}

func TestBlocksLayout(t *testing.T) {
	b := NewBlocks(nil)
	assert.Nil(t, b.BeginBlock)
	assert.Nil(t, b.Tel)
	assert.Equal(t, 0, b.NrBlocks())
	assert.NoError(t, b.Validate(0))

	b = NewBlocks([]int{2, 0, 3})
	assert.Equal(t, []int{0, 2, 2, 5}, b.BeginBlock)
	assert.Len(t, b.Tel, 5)
	assert.Equal(t, 3, b.Size(2))
	assert.Empty(t, b.Block(1))
	assert.NoError(t, b.Validate(3))
	assert.ErrorIs(t, b.Validate(2), ir.ErrStructuralSizeMismatch)

	assert.ErrorIs(t, Blocks{BeginBlock: []int{0}}.Validate(0), ir.ErrStructuralSizeMismatch)
	assert.ErrorIs(t, Blocks{BeginBlock: []int{1, 2}, Tel: []float64{1, 2}}.Validate(1), ir.ErrStructuralSizeMismatch)
	assert.ErrorIs(t, Blocks{BeginBlock: []int{0, 2, 1}, Tel: []float64{1}}.Validate(2), ir.ErrStructuralSizeMismatch)

	c := b.Clone()
	c.Tel[0] = 1
	assert.False(t, b.Equal(c))
	c.Tel[0] = 0
	assert.True(t, b.Equal(c))
}

func TestValidTriplets(t *testing.T) {
	net, reg := fixture(t)

	ts, err := ValidTriplets(reg, net.Legs(0))
	require.NoError(t, err)
	assert.Equal(t, []ir.Triplet{{0, 0, 0}, {0, 1, 1}, {0, 2, 2}}, ts)

	ts, err = ValidTriplets(reg, net.Legs(1))
	require.NoError(t, err)
	assert.Equal(t, []ir.Triplet{{2, 0, 0}, {1, 1, 0}, {0, 2, 0}}, ts)

	sizes, err := BlockSizes(reg, net.Legs(1), ts)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 1}, sizes)
}

func TestAddBlockKeepsTripletsSorted(t *testing.T) {
	net, reg := fixture(t)
	st := NewSiteTensor(net, 1)

	require.NoError(t, st.AddBlock(reg, ir.Triplet{0, 2, 0}, []float64{3}))
	require.NoError(t, st.AddBlock(reg, ir.Triplet{2, 0, 0}, []float64{1}))
	require.NoError(t, st.AddBlock(reg, ir.Triplet{1, 1, 0}, []float64{2, 2.5}))

	assert.Equal(t, []ir.Triplet{{2, 0, 0}, {1, 1, 0}, {0, 2, 0}}, st.Triplets)
	assert.Equal(t, []int{0, 1, 3, 4}, st.Blocks.BeginBlock)
	assert.Equal(t, []float64{1, 2, 2.5, 3}, st.Blocks.Tel)

	blk, err := st.BlockFor(ir.Triplet{1, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 2.5}, blk)

	require.NoError(t, st.Validate(reg))
}

func TestAddBlockRejections(t *testing.T) {
	net, reg := fixture(t)
	st := NewSiteTensor(net, 1)

	err := st.AddBlock(reg, ir.Triplet{0, 0, 0}, []float64{1})
	assert.ErrorIs(t, err, ir.ErrFusionRuleViolation)

	err = st.AddBlock(reg, ir.Triplet{5, 0, 0}, []float64{1})
	assert.ErrorIs(t, err, ir.ErrOutOfRange)

	err = st.AddBlock(reg, ir.Triplet{1, 1, 0}, []float64{1})
	assert.ErrorIs(t, err, ir.ErrStructuralSizeMismatch)

	require.NoError(t, st.AddBlock(reg, ir.Triplet{2, 0, 0}, []float64{1}))
	assert.Error(t, st.AddBlock(reg, ir.Triplet{2, 0, 0}, []float64{1}), "duplicate")

	assert.Equal(t, 1, st.NrBlocks(), "rejected blocks leave no trace")

	_, err = st.BlockFor(ir.Triplet{0, 2, 0})
	assert.ErrorIs(t, err, ir.ErrNotFound)
}

func TestNormalize(t *testing.T) {
	net, reg := fixture(t)
	st := NewSiteTensor(net, 1)

	_, err := st.Normalize()
	assert.Error(t, err)

	require.NoError(t, st.AddBlock(reg, ir.Triplet{2, 0, 0}, []float64{3}))
	require.NoError(t, st.AddBlock(reg, ir.Triplet{1, 1, 0}, []float64{0, 4}))
	assert.InDelta(t, 5, st.Norm(), 1e-12)

	prev, err := st.Normalize()
	require.NoError(t, err)
	assert.InDelta(t, 5, prev, 1e-12)
	assert.InDelta(t, 1, st.Norm(), 1e-12)
	assert.InDelta(t, 0.6, st.Blocks.Tel[0], 1e-12)
}

func TestValidateDetectsCorruption(t *testing.T) {
	net, reg := fixture(t)
	st := NewSiteTensor(net, 1)
	require.NoError(t, st.AddBlock(reg, ir.Triplet{2, 0, 0}, []float64{1}))
	require.NoError(t, st.AddBlock(reg, ir.Triplet{0, 2, 0}, []float64{1}))

	bad := st.Clone()
	bad.Triplets[0], bad.Triplets[1] = bad.Triplets[1], bad.Triplets[0]
	assert.Error(t, bad.Validate(reg))

	bad = st.Clone()
	bad.Triplets[1] = ir.Triplet{0, 0, 0}
	bad.Triplets[0], bad.Triplets[1] = bad.Triplets[1], bad.Triplets[0]
	assert.ErrorIs(t, bad.Validate(reg), ir.ErrFusionRuleViolation)

	bad = st.Clone()
	bad.Blocks.BeginBlock = []int{0, 2}
	assert.ErrorIs(t, bad.Validate(reg), ir.ErrStructuralSizeMismatch)

	assert.NoError(t, st.Validate(reg), "clones do not alias")
}

func TestUnattachedOperators(t *testing.T) {
	_, reg := fixture(t)
	r := Unattached()
	assert.True(t, r.IsUnattached())
	assert.Equal(t, -1, r.Bond)
	assert.Equal(t, ir.Unattached, r.Direction)
	assert.NoError(t, r.Validate(reg))
	assert.Error(t, r.AddCoupling(reg, 0, 0, 0))
	_, err := r.AddOperator(reg, 0, Blocks{})
	assert.Error(t, err)
}

func TestVacuumOperators(t *testing.T) {
	_, reg := fixture(t)
	r, err := Vacuum(reg, 1, ir.FromLeft)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 3}, r.BeginBlocksOfHSS)
	assert.Equal(t, []ir.Triplet{{0, 0, 0}, {1, 1, 0}, {2, 2, 0}}, r.Triplets)
	assert.Equal(t, []int{0}, r.HSSOfOps)
	assert.Equal(t, 3, r.NrBlocksForOperator(0))
	assert.True(t, r.POperator)

	blk, err := r.BlockFor(0, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 0, 1}, blk)

	_, err = r.BlockFor(0, 0, 1)
	assert.ErrorIs(t, err, ir.ErrNotFound)
	_, err = r.BlockFor(3, 0, 0)
	assert.ErrorIs(t, err, ir.ErrOutOfRange)

	require.NoError(t, r.Validate(reg))
}

func TestOperatorCouplings(t *testing.T) {
	_, reg := fixture(t)
	require.NoError(t, reg.RegisterHSS(sectors.List{
		{Irreps: ir.Labels{0, 0}, Dim: 1},
		{Irreps: ir.Labels{1, 1}, Dim: 1},
	}))
	r, err := NewROperators(reg, 1, ir.FromRight, false)
	require.NoError(t, err)
	assert.Equal(t, 2, r.NrHSS())

	// creator: ket (0,0) x (1,1) -> bra (1,1), ket (1,1) x (1,1) -> bra (2,0)
	require.NoError(t, r.AddCoupling(reg, 1, 2, 1))
	require.NoError(t, r.AddCoupling(reg, 1, 1, 0))
	assert.ErrorIs(t, r.AddCoupling(reg, 1, 0, 0), ir.ErrFusionRuleViolation)
	assert.ErrorIs(t, r.AddCoupling(reg, 1, 0, 1), ir.ErrFusionRuleViolation)
	assert.ErrorIs(t, r.AddCoupling(reg, 2, 0, 0), ir.ErrOutOfRange)
	assert.ErrorIs(t, r.AddCoupling(reg, 1, 7, 0), ir.ErrOutOfRange)
	require.NoError(t, r.AddCoupling(reg, 0, 0, 0))

	assert.Equal(t, []int{0, 1, 3}, r.BeginBlocksOfHSS)
	assert.Equal(t, []ir.Triplet{{0, 0, 0}, {1, 0, 1}, {2, 1, 1}}, r.Triplets)
	assert.Equal(t, 2, r.NrBlocksForHSS(1))

	_, err = r.AddOperator(reg, 1, NewBlocks([]int{2}))
	assert.ErrorIs(t, err, ir.ErrStructuralSizeMismatch)
	_, err = r.AddOperator(reg, 1, NewBlocks([]int{2, 1}))
	assert.ErrorIs(t, err, ir.ErrStructuralSizeMismatch)

	op := NewBlocks([]int{2, 2})
	copy(op.Tel, []float64{1, 2, 3, 4})
	idx, err := r.AddOperator(reg, 1, op)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 2, r.NrBlocksForOperator(0))

	blk, err := r.BlockFor(0, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4}, blk)

	assert.Error(t, r.AddCoupling(reg, 0, 2, 2), "frozen after operators")
	require.NoError(t, r.Validate(reg))

	c := r.Clone()
	c.Operators[0].Tel[0] = 9
	assert.Equal(t, 1.0, r.Operators[0].Tel[0])
}

func TestValidateRejectsRunsPastCouplings(t *testing.T) {
	_, reg := fixture(t)
	require.NoError(t, reg.RegisterHSS(sectors.List{
		{Irreps: ir.Labels{0, 0}, Dim: 1},
		{Irreps: ir.Labels{1, 1}, Dim: 1},
	}))
	r, err := NewROperators(reg, 1, ir.FromRight, false)
	require.NoError(t, err)
	require.NoError(t, r.AddCoupling(reg, 0, 0, 0))
	require.NoError(t, r.AddCoupling(reg, 1, 1, 0))
	require.NoError(t, r.AddCoupling(reg, 1, 2, 1))
	require.NoError(t, r.Validate(reg))

	bad := r.Clone()
	bad.BeginBlocksOfHSS = []int{0, len(bad.Triplets) + 2, len(bad.Triplets)}
	assert.ErrorIs(t, bad.Validate(reg), ir.ErrStructuralSizeMismatch)

	bad = r.Clone()
	bad.BeginBlocksOfHSS = []int{0, -1, len(bad.Triplets)}
	assert.ErrorIs(t, bad.Validate(reg), ir.ErrStructuralSizeMismatch)
}

func TestNewROperatorsRejects(t *testing.T) {
	_, reg := fixture(t)
	_, err := NewROperators(reg, 9, ir.FromLeft, false)
	assert.ErrorIs(t, err, ir.ErrOutOfRange)
	_, err = NewROperators(reg, 1, ir.Unattached, false)
	assert.Error(t, err)
}

func TestCheckIntegrity(t *testing.T) {
	net, reg := fixture(t)

	tensors := make([]*SiteTensor, net.NrSites())
	for site := range tensors {
		st := NewSiteTensor(net, site)
		ts, err := ValidTriplets(reg, st.Legs)
		require.NoError(t, err)
		sizes, err := BlockSizes(reg, st.Legs, ts)
		require.NoError(t, err)
		for k, trip := range ts {
			// leave the (1,1) sector of bond 1 unreferenced by the tensors
			if trip[1] == 1 || trip[0] == 1 {
				continue
			}
			require.NoError(t, st.AddBlock(reg, trip, make([]float64, sizes[k])))
		}
		tensors[site] = st
	}
	vac, err := Vacuum(reg, 0, ir.FromLeft)
	require.NoError(t, err)
	ops := []*ROperators{vac, Unattached(), Unattached()}

	report, err := CheckIntegrity(context.Background(), reg, tensors, ops)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Tensors)
	assert.Equal(t, 1, report.Operators)
	assert.Equal(t, 5, report.Blocks)
	assert.Equal(t, map[int][]int{1: {1}}, report.Unused(reg))

	tensors[1].Triplets[0] = ir.Triplet{0, 0, 0}
	_, err = CheckIntegrity(context.Background(), reg, tensors, ops)
	assert.ErrorIs(t, err, ir.ErrFusionRuleViolation)
}
