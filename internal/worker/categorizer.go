package worker

import (
	"context"
	"errors"
	"log"

	"gazette-backend/internal/metrics"
	"gazette-backend/internal/models"
	"gazette-backend/internal/repository"
	"gazette-backend/internal/services"
)

// Categorizer assigns every freshly generated item a newspaper category, in
// batches. A failed batch leaves its items untouched for the next run.
type Categorizer struct {
	generated GeneratedStore
	svc       *services.CategorizerService
}

func NewCategorizer(generated GeneratedStore, svc *services.CategorizerService) *Categorizer {
	return &Categorizer{generated: generated, svc: svc}
}

func (w *Categorizer) Run(ctx context.Context, m *metrics.Processor) error {
	items, err := w.generated.ListByStatus(ctx, models.GenStatusRequiredContentGenerated)
	if err != nil {
		return err
	}
	m.RecordConsidered(len(items))

	byID := make(map[string]models.GeneratedContent, len(items))
	catItems := make([]services.CategorizeItem, len(items))
	for i, g := range items {
		byID[g.ID] = g
		catItems[i] = services.CategorizeItem{
			ID:      g.ID,
			Title:   g.Generated[models.SizeVeryShort].Plain,
			Summary: g.Generated[models.SizeShort].Plain,
		}
	}

	for _, batch := range services.PartitionBatches(catItems, services.CategorizeBatchSize) {
		results, err := w.svc.CategorizeBatch(ctx, batch)
		if err != nil {
			log.Printf("[categorizer] batch of %d failed: %v", len(batch), err)
			for _, item := range batch {
				m.RecordFailure(item.ID, err.Error())
			}
			continue
		}

		for _, result := range results {
			g := byID[result.ID]
			category := result.Category
			g.Category = &category

			next, err := g.Transition(models.GenStatusCategorizationCompleted, "category assigned: "+string(category.Name))
			if err != nil {
				log.Printf("[categorizer] item %s: %v", g.ID, err)
				m.RecordFailure(g.ID, err.Error())
				continue
			}
			if err := w.generated.Replace(ctx, next, models.GenStatusRequiredContentGenerated); err != nil {
				if errors.Is(err, repository.ErrNotModified) {
					continue
				}
				log.Printf("[categorizer] item %s: %v", g.ID, err)
				m.RecordFailure(g.ID, err.Error())
				continue
			}
			m.RecordSuccess(g.ID)
		}
	}
	return nil
}
