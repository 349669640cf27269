package ir

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesCode(t *testing.T) {
	err := Errorf(ErrCodeFusionRuleViolation, "triplet %v", Triplet{0, 1, 2})
	wrapped := fmt.Errorf("add block: %w", err)

	assert.True(t, errors.Is(wrapped, ErrFusionRuleViolation))
	assert.False(t, errors.Is(wrapped, ErrOutOfRange))
	assert.Equal(t, ErrCodeFusionRuleViolation, CodeOf(wrapped))
}

func TestErrorMessageIncludesSortedDetails(t *testing.T) {
	err := Errorf(ErrCodeTargetIncompatible, "cannot change target").
		With("to", "4").
		With("from", "2")

	assert.Equal(t, "TARGET_STATE_INCOMPATIBLE: cannot change target (from=2, to=4)", err.Error())
}

func TestWithDoesNotMutateReceiver(t *testing.T) {
	base := Errorf(ErrCodeOutOfRange, "sector")
	_ = base.With("bond", "3")
	assert.Empty(t, base.Details)
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("disk gone")
	err := Wrap(ErrCodeNotFound, "open snapshot", cause)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "disk gone")
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(Errorf(ErrCodeUnsupportedSymmetryCount, "")))
	assert.True(t, IsFatal(fmt.Errorf("read: %w", Errorf(ErrCodeSymmetryMismatch, ""))))
	assert.False(t, IsFatal(Errorf(ErrCodeInvalidIrrepText, "")))
	assert.False(t, IsFatal(errors.New("plain")))
}
