package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gazette-backend/internal/models"
)

// CategorizeBatchSize is how many items share one model call.
const CategorizeBatchSize = 8

// CategorizeItem is one generated-content row awaiting a category.
type CategorizeItem struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// CategoryResult is the model's verdict for one item.
type CategoryResult struct {
	ID       string
	Category models.Category
}

type CategorizerService struct {
	llm TextGenerator
}

func NewCategorizerService(llm TextGenerator) *CategorizerService {
	return &CategorizerService{llm: llm}
}

const categorizerSystemPrompt = "You are a newspaper section editor assigning every story to exactly one section. " +
	"Return ONLY a valid JSON array, no preamble, no markdown, no backticks."

// CategorizeBatch assigns a category to every item in one call. Any schema
// violation fails the whole batch.
func (s *CategorizerService) CategorizeBatch(ctx context.Context, items []CategorizeItem) ([]CategoryResult, error) {
	if len(items) == 0 {
		return nil, nil
	}

	prompt, err := buildCategorizerPrompt(items)
	if err != nil {
		return nil, err
	}

	raw, err := s.llm.GenerateStructured(ctx, categorizerSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	var parsed []struct {
		ID          string   `json:"id"`
		Category    string   `json:"category"`
		Description string   `json:"category_description"`
		Tags        []string `json:"category_tags"`
		ShelfLife   string   `json:"shelf_life"`
		Geography   string   `json:"geography"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}

	known := make(map[string]bool, len(items))
	for _, item := range items {
		known[item.ID] = true
	}

	results := make([]CategoryResult, 0, len(parsed))
	for _, p := range parsed {
		if !known[p.ID] {
			return nil, fmt.Errorf("%w: category for unknown item %q", ErrSchemaInvalid, p.ID)
		}
		name := models.CategoryName(strings.ToUpper(strings.TrimSpace(p.Category)))
		if !name.IsValid() {
			return nil, fmt.Errorf("%w: %q is not a known category", ErrSchemaInvalid, p.Category)
		}
		results = append(results, CategoryResult{
			ID: p.ID,
			Category: models.Category{
				Name:        name,
				Description: p.Description,
				Tags:        capList(p.Tags, 5),
				ShelfLife:   p.ShelfLife,
				Geography:   p.Geography,
			},
		})
	}
	if len(results) != len(items) {
		return nil, fmt.Errorf("%w: expected %d categorized items, got %d", ErrSchemaInvalid, len(items), len(results))
	}
	return results, nil
}

// PartitionBatches splits items into model-call sized groups.
func PartitionBatches(items []CategorizeItem, size int) [][]CategorizeItem {
	if size < 1 {
		size = CategorizeBatchSize
	}
	var out [][]CategorizeItem
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}

func buildCategorizerPrompt(items []CategorizeItem) (string, error) {
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to encode categorizer items: %w", err)
	}

	var b strings.Builder
	b.WriteString("Assign each story exactly one category from this closed set:\n")
	for _, name := range models.CategoryNames() {
		b.WriteString(string(name))
		b.WriteString("\n")
	}
	b.WriteString("\nStories:\n")
	b.Write(itemsJSON)
	b.WriteString("\n\nFor every story return one object:\n")
	b.WriteString(`{"id":"<story id>","category":"<category>","category_description":"<one sentence>",` +
		`"category_tags":["3 to 5 tags"],"shelf_life":"<SHORT|MEDIUM|LONG>","geography":"<ISO-3166 country code or empty>"}`)
	b.WriteString("\nReturn a JSON array covering every story exactly once.")
	return b.String(), nil
}
