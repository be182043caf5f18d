package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/emend/internal/oracle"
)

func TestScriptedCorrector_ReplaysScriptInOrder(t *testing.T) {
	boom := errors.New("boom")
	c := NewScriptedCorrector(
		Reply{Corrections: []oracle.Correction{{ID: 1, Corrected: "uno"}}},
		Reply{Err: boom},
	)

	got, err := c.CorrectBatch(context.Background(), []oracle.Item{{ID: 1, Text: "uno"}})
	require.NoError(t, err)
	assert.Equal(t, []oracle.Correction{{ID: 1, Corrected: "uno"}}, got)

	_, err = c.CorrectBatch(context.Background(), []oracle.Item{{ID: 2, Text: "dos"}})
	assert.ErrorIs(t, err, boom)

	// Past the end of the script: empty success.
	got, err = c.CorrectBatch(context.Background(), []oracle.Item{{ID: 3, Text: "tres"}})
	require.NoError(t, err)
	assert.Empty(t, got)

	calls := c.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, []oracle.Item{{ID: 1, Text: "uno"}}, calls[0])
	assert.Equal(t, []oracle.Item{{ID: 3, Text: "tres"}}, calls[2])
}

func TestScriptedCorrector_CallsReturnsCopy(t *testing.T) {
	c := NewScriptedCorrector()
	_, err := c.CorrectBatch(context.Background(), []oracle.Item{{ID: 1, Text: "a"}})
	require.NoError(t, err)

	calls := c.Calls()
	calls[0][0].Text = "mutated"

	assert.Equal(t, "a", c.Calls()[0][0].Text)
}
