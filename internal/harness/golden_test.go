package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Golden files hold the canonical trace and final structure. Regenerate with:
//
//	go test ./internal/harness -run TestRunWithGolden -update
func TestRunWithGolden(t *testing.T) {
	for _, name := range []string{"roundtrip", "seniority_migration"} {
		t.Run(name, func(t *testing.T) {
			result, err := RunWithGolden(t, loadTestScenario(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestGoldenDocument(t *testing.T) {
	result := NewResult()
	result.AddTrace(0, ActionLoad, "NOT_FOUND")

	doc := goldenDocument("missing", result)
	assert.Equal(t, "missing", doc["scenario"])
	assert.NotContains(t, doc, "state")
	assert.Equal(t, []any{map[string]any{"step": 0, "action": "load", "outcome": "NOT_FOUND"}}, doc["trace"])
}
