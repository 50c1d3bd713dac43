package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_AddTwice(t *testing.T) {
	c := NewCart(0)
	c.Add("p1", "M", 1)
	c.Add("p1", "M", 1)
	assert.Equal(t, map[string]map[string]int{"p1": {"M": 2}}, c.Map())
}

func TestCart_SetZeroRemovesSizeAndItem(t *testing.T) {
	c := NewCart(0, CartLine{"p1", "M", 2}, CartLine{"p1", "L", 1}, CartLine{"p2", "S", 3})

	c.Set("p1", "M", 0)
	assert.Equal(t, 0, c.Quantity("p1", "M"))
	_, kept := c.Map()["p1"]["M"]
	assert.False(t, kept, "zero entry must not be stored")
	assert.Equal(t, 1, c.Quantity("p1", "L"))

	c.Set("p1", "L", 0)
	_, kept = c.Map()["p1"]
	assert.False(t, kept, "item without sizes must be removed")

	c.Set("missing", "M", 0)
	assert.Len(t, c.Lines(), 1)
}

func TestCart_LinesSorted(t *testing.T) {
	c := CartFromMap(3, map[string]map[string]int{
		"p2": {"L": 1},
		"p1": {"M": 2, "L": 1, "XL": 0},
	})
	require.Equal(t, int64(3), c.Version)
	assert.Equal(t, []CartLine{
		{ProductID: "p1", Size: "L", Quantity: 1},
		{ProductID: "p1", Size: "M", Quantity: 2},
		{ProductID: "p2", Size: "L", Quantity: 1},
	}, c.Lines())
}

func TestCart_CloneIsIndependent(t *testing.T) {
	c := NewCart(1, CartLine{"p1", "M", 1})
	cp := c.Clone()
	cp.Add("p1", "M", 4)
	assert.Equal(t, 1, c.Quantity("p1", "M"))
	assert.Equal(t, 5, cp.Quantity("p1", "M"))
	assert.Equal(t, int64(1), cp.Version)
}

func TestCart_NilIsEmpty(t *testing.T) {
	var c *Cart
	assert.True(t, c.IsEmpty())
	assert.Empty(t, c.Map())
	assert.Nil(t, c.Lines())
}

func TestValidateCartKey(t *testing.T) {
	for _, v := range []string{"", "  ", "a.b", "$set"} {
		err := ValidateCartKey("size", v)
		require.Error(t, err, v)
		assert.Equal(t, KindValidation, KindOf(err))
	}
	assert.NoError(t, ValidateCartKey("size", "XL"))
}

func TestCart_AddRefusesToPassMaxQuantity(t *testing.T) {
	c := NewCart(0)
	require.NoError(t, c.Set("p1", "M", MaxQuantity))

	err := c.Add("p1", "M", 1)
	require.ErrorIs(t, err, ErrQuantityLimit)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, MaxQuantity, c.Quantity("p1", "M"), "entry must survive a refused add")

	require.NoError(t, c.Add("p1", "M", -1))
	assert.Equal(t, MaxQuantity-1, c.Quantity("p1", "M"))
}

func TestCart_SetRefusesAboveMaxQuantity(t *testing.T) {
	c := NewCart(0, CartLine{"p1", "M", 2})
	require.ErrorIs(t, c.Set("p1", "M", MaxQuantity+1), ErrQuantityLimit)
	assert.Equal(t, 2, c.Quantity("p1", "M"))
}

func TestNewCart_CapsOversizedSums(t *testing.T) {
	c := NewCart(0, CartLine{"p1", "M", MaxQuantity}, CartLine{"p1", "M", 5})
	assert.Equal(t, MaxQuantity, c.Quantity("p1", "M"))
}
