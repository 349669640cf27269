package ir

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackTripletRoundTrip(t *testing.T) {
	n := [3]int{3, 2, 4}
	seen := map[int64]bool{}
	for c := 0; c < n[2]; c++ {
		for b := 0; b < n[1]; b++ {
			for a := 0; a < n[0]; a++ {
				tr := Triplet{a, b, c}
				q := PackTriplet(tr, n)
				assert.False(t, seen[q], "packed value %d reused", q)
				seen[q] = true

				back, ok := UnpackTriplet(q, n)
				require.True(t, ok)
				assert.Equal(t, tr, back)
			}
		}
	}
	assert.Len(t, seen, 24)
}

func TestUnpackTripletRejectsOutOfRange(t *testing.T) {
	_, ok := UnpackTriplet(24, [3]int{3, 2, 4})
	assert.False(t, ok)
	_, ok = UnpackTriplet(-1, [3]int{3, 2, 4})
	assert.False(t, ok)
	_, ok = UnpackTriplet(0, [3]int{0, 2, 4})
	assert.False(t, ok)
}

func TestTripletOrderMatchesPackedOrder(t *testing.T) {
	n := [3]int{4, 4, 4}
	triplets := []Triplet{{3, 0, 1}, {0, 2, 0}, {1, 1, 1}, {0, 0, 2}, {2, 2, 0}}

	byTriplet := slices.Clone(triplets)
	slices.SortFunc(byTriplet, Triplet.Compare)

	byPacked := slices.Clone(triplets)
	slices.SortFunc(byPacked, func(a, b Triplet) int {
		qa, qb := PackTriplet(a, n), PackTriplet(b, n)
		switch {
		case qa < qb:
			return -1
		case qa > qb:
			return 1
		}
		return 0
	})

	assert.Equal(t, byPacked, byTriplet)
}

func TestLabelsEqualAndClone(t *testing.T) {
	a := Labels{1, 2, 3}
	b := a.Clone()
	assert.True(t, a.Equal(b))
	b[0] = 7
	assert.False(t, a.Equal(b))
	assert.False(t, a.Equal(Labels{1, 2}))
	assert.Nil(t, Labels(nil).Clone())
}
