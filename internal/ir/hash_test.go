package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructureDigestDeterminism(t *testing.T) {
	structure := map[string]any{
		"bonds":  []int{-1, 0, 0, -1},
		"groups": []string{"U1"},
	}

	d1, err := StructureDigest(structure)
	require.NoError(t, err)
	d2, err := StructureDigest(map[string]any{
		"groups": []string{"U1"},
		"bonds":  []int{-1, 0, 0, -1},
	})
	require.NoError(t, err)

	assert.Equal(t, d1, d2, "key order must not matter")
	assert.Len(t, d1, 64, "SHA-256 hex is 64 characters")
}

func TestStructureDigestChangesWithInput(t *testing.T) {
	d1, err := StructureDigest(map[string]any{"target": []int{2}})
	require.NoError(t, err)
	d2, err := StructureDigest(map[string]any{"target": []int{4}})
	require.NoError(t, err)
	assert.NotEqual(t, d1, d2)
}

func TestStructureDigestDomainSeparation(t *testing.T) {
	data := []byte(`{"a":1}`)
	assert.NotEqual(t, hashWithDomain(DomainStructure, data), hashWithDomain("other/v1", data))
}
