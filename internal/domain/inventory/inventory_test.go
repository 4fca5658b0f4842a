package inventory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lashProduct(t *testing.T) *Product {
	t.Helper()
	p, err := NewCombinationProduct("lash-1", "Classic Lashes", []Variant{
		{Selector: Selector{Length: "10mm", Curl: "C"}, Stock: 4},
		{Selector: Selector{Length: "12mm", Curl: "D"}, Stock: 6},
	})
	require.NoError(t, err)
	return p
}

func TestNewCombinationProductDerivesTotal(t *testing.T) {
	p := lashProduct(t)
	assert.True(t, p.IsCombination())
	assert.Equal(t, 10, p.Stock.(CombinationStock).Total)

	_, err := NewCombinationProduct("x", "dup", []Variant{
		{Selector: Selector{Length: "10mm", Curl: "C"}, Stock: 1},
		{Selector: Selector{Length: "10mm", Curl: "C"}, Stock: 1},
	})
	assert.Error(t, err)
}

func TestDeductVariantKeepsTotalConsistent(t *testing.T) {
	p := lashProduct(t)

	require.NoError(t, p.Deduct(Line{ProductID: p.ID, Quantity: 3, Variant: &Selector{Length: "12mm", Curl: "D"}}))

	stock := p.Stock.(CombinationStock)
	assert.Equal(t, 7, stock.Total)
	v, ok := stock.Find(Selector{Length: "12mm", Curl: "D"})
	require.True(t, ok)
	assert.Equal(t, 3, v.Stock)
	assert.Equal(t, 3, v.Sales)
	assert.Equal(t, 3, p.Sales)

	sum := 0
	for _, v := range stock.Variants {
		sum += v.Stock
	}
	assert.Equal(t, stock.Total, sum)
}

func TestDeductRejectsWithoutPartialApplication(t *testing.T) {
	p := lashProduct(t)
	before := p.Clone()

	err := p.Deduct(Line{ProductID: p.ID, Quantity: 5, Variant: &Selector{Length: "10mm", Curl: "C"}})

	var insufficient *InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 4, insufficient.Available)
	assert.Equal(t, 5, insufficient.Requested)
	assert.Equal(t, "Insufficient stock for 10mm C variant. Available: 4, Requested: 5", err.Error())
	assert.Equal(t, before, p)
}

func TestDeductVariantErrors(t *testing.T) {
	p := lashProduct(t)

	err := p.Deduct(Line{ProductID: p.ID, Quantity: 1, Variant: &Selector{Length: "14mm", Curl: "C"}})
	assert.ErrorIs(t, err, ErrVariantNotFound)

	err = p.Deduct(Line{ProductID: p.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrVariantRequired)

	err = p.Deduct(Line{ProductID: p.ID, Quantity: 0, Variant: &Selector{Length: "10mm", Curl: "C"}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestDeductSimpleIgnoresSelector(t *testing.T) {
	p, err := NewSimpleProduct("glue-1", "Lash Glue", 5)
	require.NoError(t, err)

	require.NoError(t, p.Deduct(Line{ProductID: p.ID, Quantity: 5, Variant: &Selector{Length: "x", Curl: "y"}}))
	assert.Equal(t, SimpleStock{Quantity: 0}, p.Stock)
	assert.Equal(t, 5, p.Sales)

	err = p.Deduct(Line{ProductID: p.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, "Insufficient stock for product glue-1. Available: 0, Requested: 1", err.Error())
}

func TestIsStockError(t *testing.T) {
	assert.True(t, IsStockError(&InsufficientStockError{}))
	assert.True(t, IsStockError(&VariantNotFoundError{}))
	assert.True(t, IsStockError(ErrProductNotFound))
	assert.False(t, IsStockError(errors.New("connection refused")))
}
