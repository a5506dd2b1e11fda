package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ayushchauha111/jewelpos/internal/billing"
)

func TestStockByIDsEmptySkipsQuery(t *testing.T) {
	repo := &repository{}
	items, err := repo.StockByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestAvailableOnly(t *testing.T) {
	sold := availableOnly(billing.StockItem{ID: 1, Quantity: 3, Status: "SOLD"})
	assert.Equal(t, 0, sold.Quantity)

	open := availableOnly(billing.StockItem{ID: 2, Quantity: 3, Status: StockStatusAvailable})
	assert.Equal(t, 3, open.Quantity)

	legacy := availableOnly(billing.StockItem{ID: 3, Quantity: 1})
	assert.Equal(t, 1, legacy.Quantity)
}
