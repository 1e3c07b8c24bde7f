package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecrementQuery_GuardsOnAvailableCopies(t *testing.T) {
	query, args, err := decrementQuery("item-1")
	require.NoError(t, err)

	assert.Contains(t, query, `UPDATE "items" SET "available_copies"=available_copies - 1`)
	assert.Contains(t, query, `("id" = $1)`)
	assert.Contains(t, query, `("available_copies" > $2)`)
	require.Len(t, args, 2)
	assert.Equal(t, "item-1", args[0])
	assert.EqualValues(t, 0, args[1])
}

func TestIncrementQuery_GuardsOnTotalCopies(t *testing.T) {
	query, args, err := incrementQuery("item-1")
	require.NoError(t, err)

	assert.Contains(t, query, `SET "available_copies"=available_copies + 1`)
	assert.Contains(t, query, `("available_copies" < "total_copies")`)
	assert.Equal(t, []any{"item-1"}, args)
}
