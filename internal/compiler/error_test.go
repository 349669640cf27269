package compiler

import (
	"errors"
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCUEErrorWithoutPosition(t *testing.T) {
	cause := errors.New("incompatible list lengths (0 and 1)")

	err := formatCUEError(cause)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "cue", ce.Field)
	assert.False(t, ce.Pos.IsValid())
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "incompatible list lengths")
}

func TestFormatCUEErrorWithPosition(t *testing.T) {
	v := cuecontext.New().CompileString("x: 1 & 2")
	require.Error(t, v.Err())

	err := formatCUEError(v.Err())

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Message, "conflicting values")
	assert.NotNil(t, ce.Unwrap())
}

func TestFormatCUEErrorNil(t *testing.T) {
	assert.NoError(t, formatCUEError(nil))
}
