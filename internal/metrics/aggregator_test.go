package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churn-feature-lab/internal/domain"
	"churn-feature-lab/internal/storage"
	"churn-feature-lab/internal/storage/memory"
)

func seedEnhanced(t *testing.T, store *memory.EnhancedClientStore) {
	t.Helper()
	require.NoError(t, store.InsertBulk(context.Background(), []*domain.EnhancedClientRecord{
		{ClientRecord: domain.ClientRecord{ID: "A", ChannelSales: "X", HasGas: "t", Churn: 0}},
		{ClientRecord: domain.ClientRecord{ID: "B", ChannelSales: "X", HasGas: "f", Churn: 1}},
		{ClientRecord: domain.ClientRecord{ID: "C", ChannelSales: "Y", HasGas: "f", Churn: 1}},
	}))
}

func TestAggregator_ComputeAndStore(t *testing.T) {
	ctx := context.Background()
	enhanced := memory.NewEnhancedClientStore()
	tables := memory.NewChurnTableStore()
	seedEnhanced(t, enhanced)

	agg := NewAggregator(enhanced, tables)
	table, err := agg.ComputeAndStore(ctx, "channel_sales", TableOptions{SortByOutcome: intPtr(1)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Y", "X"}, categories(table))

	stored, err := tables.GetByAttribute(ctx, "channel_sales")
	require.NoError(t, err)
	assert.Equal(t, table, stored)
}

func TestAggregator_ComputeAll(t *testing.T) {
	ctx := context.Background()
	enhanced := memory.NewEnhancedClientStore()
	tables := memory.NewChurnTableStore()
	seedEnhanced(t, enhanced)

	agg := NewAggregator(enhanced, tables)
	got, err := agg.ComputeAll(ctx, []string{"has_gas", "channel_sales"}, TableOptions{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "has_gas", got[0].Attribute)

	all, err := tables.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = agg.ComputeAll(ctx, []string{"bogus"}, TableOptions{})
	assert.ErrorIs(t, err, ErrUnknownAttribute)
}

func TestAggregator_EmptyStoreSkips(t *testing.T) {
	ctx := context.Background()
	tables := memory.NewChurnTableStore()
	agg := NewAggregator(memory.NewEnhancedClientStore(), tables)

	got, err := agg.ComputeAll(ctx, []string{"channel_sales"}, TableOptions{})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, []string{"churn table channel_sales skipped: no client records"}, agg.SkippedMessages())

	_, err = tables.GetByAttribute(ctx, "channel_sales")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
