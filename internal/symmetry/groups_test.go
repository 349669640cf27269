package symmetry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/t3ns/internal/ir"
)

func TestParseGroups(t *testing.T) {
	gs, err := Parse([]string{"Z2", "U1", "SU2"})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, gs.Tags())
	assert.Equal(t, "Z2 U1 SU2", gs.String())
	assert.Equal(t, 2, gs.Index(SU2))
	assert.Equal(t, -1, gs.Index(Seniority))

	back, err := FromTags(gs.Tags())
	require.NoError(t, err)
	assert.True(t, gs.Equal(back))
}

func TestParseGroupsRejectsBadLists(t *testing.T) {
	_, err := Parse([]string{"U1", "SU3"})
	assert.Error(t, err)

	_, err = Parse([]string{"SU2", "SU2"})
	assert.Error(t, err)

	_, err = Parse([]string{"C2v", "D2h"})
	assert.Error(t, err)

	_, err = Parse([]string{"U1", "U1"})
	assert.NoError(t, err, "particle number and 2Sz are both U1")

	_, err = FromTags([]int{1, 1, 1, 1, 1, 1})
	assert.True(t, errors.Is(err, ir.ErrUnsupportedSymmetries))
}

func TestGroupsFusable(t *testing.T) {
	gs, err := Parse([]string{"Z2", "U1", "SU2"})
	require.NoError(t, err)

	up := ir.Labels{1, 1, 1}
	assert.True(t, gs.Fusable(up, up, ir.Labels{0, 2, 0}))
	assert.True(t, gs.Fusable(up, up, ir.Labels{0, 2, 2}))
	assert.False(t, gs.Fusable(up, up, ir.Labels{1, 2, 0}))
	assert.False(t, gs.Fusable(up, up, ir.Labels{0, 2, 4}))
	assert.False(t, gs.Fusable(up, up, ir.Labels{0, 2}))
}

func TestGroupsFuseAll(t *testing.T) {
	gs, err := Parse([]string{"U1", "SU2"})
	require.NoError(t, err)

	out := gs.FuseAll(ir.Labels{1, 1}, ir.Labels{2, 2})
	assert.Equal(t, []ir.Labels{{3, 1}, {3, 3}}, out)
	for _, c := range out {
		assert.True(t, gs.Fusable(ir.Labels{1, 1}, ir.Labels{2, 2}, c))
	}
}

func TestGroupsParseLabels(t *testing.T) {
	gs, err := Parse([]string{"U1", "SU2", "C2v"})
	require.NoError(t, err)

	l, err := gs.ParseLabels([]string{"4", "0", "A1"})
	require.NoError(t, err)
	assert.Equal(t, ir.Labels{4, 0, 0}, l)
	assert.Equal(t, []string{"4", "0", "A1"}, gs.LabelStrings(l))
	assert.Equal(t, "(4, 0, A1)", gs.FormatLabels(l))

	_, err = gs.ParseLabels([]string{"4", "-1", "A1"})
	assert.True(t, errors.Is(err, ir.ErrInvalidIrrepText))

	_, err = gs.ParseLabels([]string{"4"})
	assert.True(t, errors.Is(err, ir.ErrInvalidIrrepText))
}

func TestGroupsTrivialAndValid(t *testing.T) {
	gs, err := Parse([]string{"Z2", "SU2", "D2h"})
	require.NoError(t, err)
	assert.Equal(t, ir.Labels{0, 0, 0}, gs.Trivial())
	assert.True(t, gs.Valid(ir.Labels{1, 3, 7}))
	assert.False(t, gs.Valid(ir.Labels{2, 3, 7}))
	assert.False(t, gs.Valid(ir.Labels{1, 3, 8}))
	assert.False(t, gs.Valid(ir.Labels{1, 3}))

	pg, ok := gs.PointGroup()
	require.True(t, ok)
	assert.Equal(t, D2h, pg)
}
