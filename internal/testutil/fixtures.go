package testutil

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/t3ns/internal/ir"
	"github.com/roach88/t3ns/internal/network"
	"github.com/roach88/t3ns/internal/sparse"
	"github.com/roach88/t3ns/internal/state"
	"github.com/roach88/t3ns/internal/symmetry"
)

// TreeBonds is a five site tree with one branching site (2):
//
//	0 - 1 - 2 - 4 - open
//	        |
//	        3
const TreeBonds = "-1>0, 0>1, 1>2, -1>3, 3>2, 2>4, 4>-1"

// TreeOrbitals maps the sites of TreeBonds to orbitals.
var TreeOrbitals = []int{0, 1, -1, 2, 3}

// Groups parses symmetry names.
func Groups(t testing.TB, names ...string) symmetry.Groups {
	t.Helper()
	gs, err := symmetry.Parse(names)
	require.NoError(t, err)
	return gs
}

// Chain returns a linear network of n physical sites.
func Chain(t testing.TB, n int) *network.Network {
	t.Helper()
	net, err := network.Chain(n)
	require.NoError(t, err)
	return net
}

// Tree returns the TreeBonds network.
func Tree(t testing.TB) *network.Network {
	t.Helper()
	bonds, err := network.ParseBonds(TreeBonds)
	require.NoError(t, err)
	net, err := network.New(bonds, TreeOrbitals)
	require.NoError(t, err)
	return net
}

// Fresh builds a fresh state seeded with 1.
func Fresh(t testing.TB, cfg state.Config) *state.State {
	t.Helper()
	st, err := state.Fresh(cfg, Rand(1))
	require.NoError(t, err)
	return st
}

// AttachOperators puts random operators on every bond that is neither a
// vacuum nor the open bond: one operator per Hamiltonian symmetry sector
// over every coupling the fusion rules allow.
func AttachOperators(t testing.TB, st *state.State, rng *rand.Rand) {
	t.Helper()
	reg, net := st.Registry, st.Network
	groups := reg.Groups()
	hss := reg.HSS()

	for b := 0; b < net.NrBonds(); b++ {
		if net.IsVacuum(b) || net.IsOpen(b) {
			continue
		}
		dir := ir.FromLeft
		if b%2 == 1 {
			dir = ir.FromRight
		}
		r, err := sparse.NewROperators(reg, b, dir, b%3 == 0)
		require.NoError(t, err)
		list, err := reg.Sectors(b)
		require.NoError(t, err)

		for h, op := range hss {
			for bra, x := range list {
				for ket, y := range list {
					if x.Dim == 0 || y.Dim == 0 || !groups.Fusable(y.Irreps, op.Irreps, x.Irreps) {
						continue
					}
					require.NoError(t, r.AddCoupling(reg, h, bra, ket))
				}
			}
		}
		for h := range hss {
			ts := r.Couplings(h)
			sizes := make([]int, len(ts))
			for k, c := range ts {
				sizes[k] = list[c[0]].Dim * list[c[1]].Dim
			}
			blocks := sparse.NewBlocks(sizes)
			for i := range blocks.Tel {
				blocks.Tel[i] = rng.NormFloat64()
			}
			_, err := r.AddOperator(reg, h, blocks)
			require.NoError(t, err)
		}
		st.Ops[b] = r
	}
}
