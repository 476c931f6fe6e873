package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupByVendor_SplitsPerStore(t *testing.T) {
	items := []PricedItem{
		{ProductID: "p1", StoreID: "vendorA", PriceCents: 100000, Qty: 2, StoreOK: true},
		{ProductID: "p2", StoreID: "vendorB", PriceCents: 50000, Qty: 1, StoreOK: true},
		{ProductID: "p3", StoreID: "vendorA", PriceCents: 25000, Qty: 1, StoreOK: true},
	}

	groups, excluded := GroupByVendor(items)
	require.Len(t, groups, 2)
	assert.Empty(t, excluded)

	assert.Equal(t, "vendorA", groups[0].StoreID)
	assert.Equal(t, int64(225000), groups[0].SubtotalCents)
	assert.Len(t, groups[0].Items, 2)

	assert.Equal(t, "vendorB", groups[1].StoreID)
	assert.Equal(t, int64(50000), groups[1].SubtotalCents)
}

func TestGroupByVendor_ExcludesInactiveStores(t *testing.T) {
	items := []PricedItem{
		{ProductID: "p1", StoreID: "vendorA", PriceCents: 100000, Qty: 1, StoreOK: true},
		{ProductID: "p2", StoreID: "vendorX", PriceCents: 999999, Qty: 3, StoreOK: false},
	}

	groups, excluded := GroupByVendor(items)
	require.Len(t, groups, 1)
	require.Len(t, excluded, 1)

	assert.Equal(t, "p2", excluded[0].ProductID)
	// excluded items must never leak into totals
	assert.Equal(t, int64(100000), groups[0].SubtotalCents)
}

func TestGroupByVendor_Empty(t *testing.T) {
	groups, excluded := GroupByVendor(nil)
	assert.Empty(t, groups)
	assert.Empty(t, excluded)
}
