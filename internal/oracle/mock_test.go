package oracle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMock_CorrectBatch(t *testing.T) {
	corrections, err := NewMock().CorrectBatch(context.Background(), []Item{
		{ID: 1, Text: "Hola  mundo"},
		{ID: 2, Text: "buenos dias."},
		{ID: 3, Text: "  ya   puntuado!  "},
		{ID: 4, Text: "ñandú  corre"},
		{ID: 5, Text: "   "},
	})
	require.NoError(t, err)

	assert.Equal(t, []Correction{
		{ID: 1, Corrected: "Hola mundo."},
		{ID: 2, Corrected: "Buenos dias."},
		{ID: 3, Corrected: "Ya puntuado!"},
		{ID: 4, Corrected: "Ñandú corre."},
		{ID: 5, Corrected: ""},
	}, corrections)
}

func TestMock_EmptyBatch(t *testing.T) {
	corrections, err := NewMock().CorrectBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, corrections)
}
