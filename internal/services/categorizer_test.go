package services

import (
	"context"
	"errors"
	"testing"

	"gazette-backend/internal/models"
)

func TestCategorizeBatch(t *testing.T) {
	llm := &fakeLLM{responses: []string{`[
		{"id":"g1","category":"TECHNOLOGY","category_description":"Chip design deep dive.","category_tags":["chips","silicon","hardware"],"shelf_life":"LONG","geography":""},
		{"id":"g2","category":"sports","category_description":"Match analysis.","category_tags":["football","tactics","league"],"shelf_life":"SHORT","geography":"GB"}
	]`}}
	svc := NewCategorizerService(llm)

	results, err := svc.CategorizeBatch(context.Background(), []CategorizeItem{
		{ID: "g1", Title: "How chips are made"},
		{ID: "g2", Title: "Derby day breakdown"},
	})
	if err != nil {
		t.Fatalf("CategorizeBatch failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Category.Name != models.CategoryTechnology {
		t.Errorf("g1 category = %s", results[0].Category.Name)
	}
	if results[1].Category.Name != models.CategorySports {
		t.Errorf("expected lowercase category to normalize, got %s", results[1].Category.Name)
	}
	if results[1].Category.Geography != "GB" {
		t.Errorf("geography not carried: %+v", results[1].Category)
	}
}

func TestCategorizeBatchSchemaViolations(t *testing.T) {
	items := []CategorizeItem{{ID: "g1"}, {ID: "g2"}}
	tests := []struct {
		name     string
		response string
	}{
		{"invalid category", `[{"id":"g1","category":"ASTROLOGY"},{"id":"g2","category":"NEWS"}]`},
		{"unknown id", `[{"id":"g1","category":"NEWS"},{"id":"g9","category":"NEWS"}]`},
		{"missing item", `[{"id":"g1","category":"NEWS"}]`},
		{"not an array", `{"id":"g1","category":"NEWS"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeLLM{responses: []string{tt.response}}
			svc := NewCategorizerService(llm)

			_, err := svc.CategorizeBatch(context.Background(), items)
			if !errors.Is(err, ErrSchemaInvalid) {
				t.Fatalf("expected ErrSchemaInvalid, got %v", err)
			}
		})
	}
}

func TestPartitionBatches(t *testing.T) {
	items := make([]CategorizeItem, 17)
	for i := range items {
		items[i].ID = string(rune('a' + i))
	}

	batches := PartitionBatches(items, CategorizeBatchSize)
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	if len(batches[0]) != 8 || len(batches[1]) != 8 || len(batches[2]) != 1 {
		t.Errorf("unexpected batch sizes: %d %d %d", len(batches[0]), len(batches[1]), len(batches[2]))
	}
}

func TestPartitionBatchesEmpty(t *testing.T) {
	if got := PartitionBatches(nil, 8); got != nil {
		t.Errorf("expected nil for no items, got %v", got)
	}
}
