package state

import (
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/t3ns/internal/ir"
	"github.com/roach88/t3ns/internal/network"
	"github.com/roach88/t3ns/internal/sectors"
	"github.com/roach88/t3ns/internal/symmetry"
)

func groups(t *testing.T, names ...string) symmetry.Groups {
	t.Helper()
	gs, err := symmetry.Parse(names)
	require.NoError(t, err)
	return gs
}

func chain(t *testing.T, n int) *network.Network {
	t.Helper()
	net, err := network.Chain(n)
	require.NoError(t, err)
	return net
}

func fresh(t *testing.T, cfg Config) *State {
	t.Helper()
	s, err := Fresh(cfg, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	return s
}

func TestBuildRegistryChain(t *testing.T) {
	gs := groups(t, "U1", "SU2")
	net := chain(t, 2)
	reg, err := BuildRegistry(Config{Groups: gs, Target: ir.Labels{2, 0}, Network: net})
	require.NoError(t, err)

	b0, err := reg.Sectors(0)
	require.NoError(t, err)
	assert.Equal(t, sectors.Trivial(gs.Trivial()), b0)

	b1, err := reg.Sectors(1)
	require.NoError(t, err)
	assert.Equal(t, sectors.List{
		{Irreps: ir.Labels{0, 0}, Dim: 1, FCIDim: 1},
		{Irreps: ir.Labels{1, 1}, Dim: 1, FCIDim: 1},
		{Irreps: ir.Labels{2, 0}, Dim: 1, FCIDim: 1},
	}, b1)

	b2, err := reg.Sectors(2)
	require.NoError(t, err)
	require.Len(t, b2, 1)
	assert.Equal(t, ir.Labels{2, 0}, b2[0].Irreps)
}

func TestBuildRegistryPrunesUnreachableSectors(t *testing.T) {
	gs := groups(t, "U1")
	net := chain(t, 3)
	reg, err := BuildRegistry(Config{Groups: gs, Target: ir.Labels{6}, Network: net})
	require.NoError(t, err)

	// six particles on three orbitals: every bond is completely filled
	for b, want := range []ir.Label{0, 2, 4, 6} {
		list, err := reg.Sectors(b)
		require.NoError(t, err)
		require.Len(t, list, 1, "bond %d", b)
		assert.Equal(t, ir.Labels{want}, list[0].Irreps)
		assert.Equal(t, 1, list[0].Dim)
	}
}

func TestBuildRegistryMaxDim(t *testing.T) {
	gs := groups(t, "U1")
	net := chain(t, 4)
	reg, err := BuildRegistry(Config{Groups: gs, Target: ir.Labels{4}, Network: net, MaxDim: 2})
	require.NoError(t, err)
	for b := 0; b < net.NrBonds(); b++ {
		list, err := reg.Sectors(b)
		require.NoError(t, err)
		for _, s := range list {
			assert.LessOrEqual(t, s.Dim, 2)
		}
	}
}

func TestBuildRegistryRejectsUnreachableTarget(t *testing.T) {
	gs := groups(t, "U1")
	_, err := BuildRegistry(Config{Groups: gs, Target: ir.Labels{7}, Network: chain(t, 3)})
	assert.ErrorIs(t, err, ir.ErrTargetIncompatible)

	_, err = BuildRegistry(Config{Groups: gs, Target: ir.Labels{2}, Network: chain(t, 3), OrbIrreps: []ir.Label{0}})
	assert.ErrorIs(t, err, ir.ErrStructuralSizeMismatch)
}

func TestFreshTree(t *testing.T) {
	bonds, err := network.ParseBonds("-1>0, 0>1, 1>2, -1>3, 3>2, 2>4, 4>-1")
	require.NoError(t, err)
	net, err := network.New(bonds, []int{0, 1, -1, 2, 3})
	require.NoError(t, err)
	gs := groups(t, "Z2", "U1", "SU2")

	s := fresh(t, Config{Groups: gs, Target: ir.Labels{0, 4, 0}, Network: net})
	require.True(t, s.Configured())
	for site, st := range s.Tensors {
		require.NoError(t, st.Validate(s.Registry), "site %d", site)
		assert.NotZero(t, st.NrBlocks(), "site %d", site)
		assert.InDelta(t, 1, st.Norm(), 1e-12, "site %d", site)
	}
	for b, op := range s.Ops {
		if net.IsVacuum(b) || net.IsOpen(b) {
			require.False(t, op.IsUnattached(), "bond %d", b)
			assert.NoError(t, op.Validate(s.Registry), "bond %d", b)
			continue
		}
		assert.True(t, op.IsUnattached(), "bond %d", b)
	}
	assert.Equal(t, ir.FromRight, s.Ops[net.OpenBond()].Direction)
}

func TestFreshIsDeterministic(t *testing.T) {
	cfg := Config{Groups: groups(t, "U1", "SU2"), Target: ir.Labels{2, 0}, Network: chain(t, 3)}
	a := fresh(t, cfg)
	b := fresh(t, cfg)
	for i := range a.Tensors {
		assert.True(t, a.Tensors[i].Blocks.Equal(b.Tensors[i].Blocks))
	}
}

func TestExclusiveSerializes(t *testing.T) {
	s := Unconfigured()
	count := 0
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Exclusive(func(*State) error {
				count++
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 16, count)
}

func TestReleaseKeepsTopology(t *testing.T) {
	s := fresh(t, Config{Groups: groups(t, "U1"), Target: ir.Labels{2}, Network: chain(t, 2)})
	s.Release()
	assert.False(t, s.Configured())
	assert.Nil(t, s.Groups())
	assert.Nil(t, s.Tensors)
	assert.Nil(t, s.Ops)
	assert.NotNil(t, s.Network)
}

func TestCloneIsDeep(t *testing.T) {
	s := fresh(t, Config{Groups: groups(t, "U1"), Target: ir.Labels{2}, Network: chain(t, 2)})
	c, err := s.Clone()
	require.NoError(t, err)
	assert.True(t, c.Network.Equal(s.Network))

	c.Tensors[0].Blocks.Tel[0] += 1
	assert.False(t, c.Tensors[0].Blocks.Equal(s.Tensors[0].Blocks))
	require.NoError(t, c.Registry.SetTargetState(ir.Labels{4}))
	assert.Equal(t, ir.Labels{2}, s.Registry.TargetState())
}

func TestNewRejectsMismatchedRegistry(t *testing.T) {
	reg, err := sectors.New(groups(t, "U1"), ir.Labels{2}, 2, 2)
	require.NoError(t, err)
	_, err = New(reg, chain(t, 2))
	assert.Error(t, err)
}
