package memory

import (
	"context"
	"errors"
	"testing"

	"churn-feature-lab/internal/domain"
	"churn-feature-lab/internal/storage"
)

func TestSeasonalDeltaStore(t *testing.T) {
	store := NewSeasonalDeltaStore()
	ctx := context.Background()

	deltas := []*domain.SeasonalDelta{
		{ClientID: "b", EnergyDelta: 0, Months: 1},
		{ClientID: "a", EnergyDelta: 2, PowerDelta: 4, Months: 2},
	}
	if err := store.InsertBulk(ctx, deltas); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 2 || all[0].ClientID != "a" {
		t.Fatalf("Expected ordering by client_id, got %v", all)
	}
	if all[0].EnergyDelta != 2 || all[0].PowerDelta != 4 {
		t.Errorf("Unexpected delta: %+v", all[0])
	}

	// Mutating the output must not affect the store
	all[0].EnergyDelta = 99
	again, _ := store.GetAll(ctx)
	if again[0].EnergyDelta != 2 {
		t.Errorf("Store returned aliased data")
	}

	if err := store.InsertBulk(ctx, deltas[:1]); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	if err := store.InsertBulk(ctx, []*domain.SeasonalDelta{{ClientID: ""}}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestEnhancedClientStore_InsertionOrder(t *testing.T) {
	store := NewEnhancedClientStore()
	ctx := context.Background()

	records := []*domain.EnhancedClientRecord{
		{ClientRecord: domain.ClientRecord{ID: "z"}, Flags: map[string]domain.BinaryFlag{"has_gas": domain.FlagTrue}},
		{ClientRecord: domain.ClientRecord{ID: "a"}, EnergyDelta: ptr(2)},
	}
	if err := store.InsertBulk(ctx, records); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	// Mutating input after insert must not leak
	records[0].Flags["has_gas"] = domain.FlagUnknown

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 2 || all[0].ID != "z" || all[1].ID != "a" {
		t.Fatalf("Expected insertion order [z a], got %v", all)
	}
	if all[0].Flags["has_gas"] != domain.FlagTrue {
		t.Errorf("Store aliased caller flags")
	}
	if all[1].EnergyDelta == nil || *all[1].EnergyDelta != 2 {
		t.Errorf("Expected energy delta 2, got %v", all[1].EnergyDelta)
	}

	err = store.InsertBulk(ctx, []*domain.EnhancedClientRecord{{ClientRecord: domain.ClientRecord{ID: "a"}}})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestChurnTableStore_Upsert(t *testing.T) {
	store := NewChurnTableStore()
	ctx := context.Background()

	first := &domain.ChurnAggregateTable{
		Attribute: "has_gas",
		Outcomes:  []int{0, 1},
		Rows:      []domain.ChurnAggregateRow{{Category: "t", Counts: []int{1, 1}, Percentages: []float64{50, 50}, Total: 2}},
	}
	second := &domain.ChurnAggregateTable{
		Attribute: "has_gas",
		Outcomes:  []int{0},
		Rows:      []domain.ChurnAggregateRow{{Category: "f", Counts: []int{1}, Percentages: []float64{100}, Total: 1}},
	}
	other := &domain.ChurnAggregateTable{Attribute: "channel_sales", Outcomes: []int{0}}

	for _, tbl := range []*domain.ChurnAggregateTable{first, second, other} {
		if err := store.Upsert(ctx, tbl); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	got, err := store.GetByAttribute(ctx, "has_gas")
	if err != nil {
		t.Fatalf("GetByAttribute failed: %v", err)
	}
	if len(got.Rows) != 1 || got.Rows[0].Category != "f" {
		t.Errorf("Expected replaced table, got %+v", got)
	}

	got.Rows[0].Percentages[0] = 0
	again, _ := store.GetByAttribute(ctx, "has_gas")
	if again.Rows[0].Percentages[0] != 100 {
		t.Errorf("Store returned aliased rows")
	}

	all, _ := store.GetAll(ctx)
	if len(all) != 2 || all[0].Attribute != "channel_sales" {
		t.Errorf("Expected ordering by attribute, got %v", all)
	}

	if _, err := store.GetByAttribute(ctx, "origin_up"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := store.Upsert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
