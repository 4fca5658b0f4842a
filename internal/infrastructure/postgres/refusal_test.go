package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dominv "github.com/subham007-coder/Supar-Admin-Backend/internal/domain/inventory"
)

func TestInsufficientStockClampsRestockedFigure(t *testing.T) {
	glue, err := dominv.NewSimpleProduct("glue-1", "Lash Glue", 8)
	require.NoError(t, err)

	e := insufficientStock(glue, dominv.Line{ProductID: "glue-1", Quantity: 5}, 8)
	assert.Equal(t, 4, e.Available)
	assert.Equal(t, 5, e.Requested)
	assert.Nil(t, e.Variant)

	e = insufficientStock(glue, dominv.Line{ProductID: "glue-1", Quantity: 5}, 2)
	assert.Equal(t, 2, e.Available)
}

func TestInsufficientStockCopiesVariant(t *testing.T) {
	lashes, err := dominv.NewCombinationProduct("lash-1", "Classic Lashes", []dominv.Variant{
		{Selector: dominv.Selector{Length: "10mm", Curl: "C"}, Stock: 1},
	})
	require.NoError(t, err)

	sel := &dominv.Selector{Length: "10mm", Curl: "C"}
	e := insufficientStock(lashes, dominv.Line{ProductID: "lash-1", Quantity: 3, Variant: sel}, 1)
	require.NotNil(t, e.Variant)
	assert.Equal(t, *sel, *e.Variant)
	assert.NotSame(t, sel, e.Variant)
	assert.Equal(t, 1, e.Available)
}
