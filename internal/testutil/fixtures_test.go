package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/t3ns/internal/ir"
	"github.com/roach88/t3ns/internal/sectors"
	"github.com/roach88/t3ns/internal/sparse"
	"github.com/roach88/t3ns/internal/state"
)

func TestTree(t *testing.T) {
	net := Tree(t)
	assert.Equal(t, 5, net.NrSites())
	assert.Equal(t, 4, net.NrPhysical())
	assert.False(t, net.IsPhysical(2))
	assert.Equal(t, 6, net.OpenBond())
}

func TestAttachOperators(t *testing.T) {
	gs := Groups(t, "U1", "SU2")
	hss := sectors.List{
		{Irreps: ir.Labels{0, 0}, Dim: 1, FCIDim: 1},
		{Irreps: ir.Labels{1, 1}, Dim: 1, FCIDim: 1},
	}
	st := Fresh(t, state.Config{Groups: gs, Target: ir.Labels{4, 0}, Network: Tree(t), HSS: hss})
	AttachOperators(t, st, Rand(3))

	for b, r := range st.Ops {
		require.NoError(t, r.Validate(st.Registry), "bond %d", b)
		require.False(t, r.IsUnattached(), "bond %d", b)
		if st.Network.IsVacuum(b) || st.Network.IsOpen(b) {
			assert.Equal(t, 1, r.NrOps(), "bond %d", b)
			continue
		}
		assert.Equal(t, 2, r.NrOps(), "bond %d", b)
	}

	report, err := sparse.CheckIntegrity(context.Background(), st.Registry, st.Tensors, st.Ops)
	require.NoError(t, err)
	assert.NotZero(t, report.Blocks)
}
