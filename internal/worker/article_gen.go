package worker

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gazette-backend/internal/metrics"
	"gazette-backend/internal/models"
	"gazette-backend/internal/repository"
	"gazette-backend/internal/services"
	"gazette-backend/internal/subtitles"
)

// ArticleGen writes the long-form article for categorized items. Success is a
// paired write: the generated row advances to ARTICLE_GENERATED and the
// collected row to PROCESSED. A crash between the two leaves a recoverable
// half-state that the next run's recovery pass completes.
type ArticleGen struct {
	contents     ContentStore
	generated    GeneratedStore
	cache        *subtitles.Cache
	article      *services.ArticleService
	langPriority []string
	extPriority  []string
}

func NewArticleGen(contents ContentStore, generated GeneratedStore, cache *subtitles.Cache, article *services.ArticleService, langPriority, extPriority []string) *ArticleGen {
	return &ArticleGen{
		contents:     contents,
		generated:    generated,
		cache:        cache,
		article:      article,
		langPriority: langPriority,
		extPriority:  extPriority,
	}
}

// Run walks the user's own subtitled items and joins them to their generated
// rows. Items whose article already exists (written by an earlier run, or by
// another user's pipeline for the same video) only need the collected-side
// write finished.
func (w *ArticleGen) Run(ctx context.Context, user models.User, m *metrics.Processor) error {
	subtitled, err := w.contents.Find(ctx, repository.ContentFilter{
		UserID:      user.ID,
		Status:      models.StatusProcessing,
		SubStatus:   models.SubStatusSubtitlesStored,
		ContentType: models.ContentTypeYouTubeVideo,
	})
	if err != nil {
		return err
	}

	externalIDs := make([]string, len(subtitled))
	for i, c := range subtitled {
		externalIDs[i] = c.ExternalID
	}
	rows, err := w.generated.FindByExternalIDs(ctx, externalIDs)
	if err != nil {
		return err
	}
	byExternal := make(map[string]models.GeneratedContent, len(rows))
	for _, g := range rows {
		byExternal[g.ExternalID] = g
	}

	for _, c := range subtitled {
		g, ok := byExternal[c.ExternalID]
		if !ok {
			continue
		}
		switch g.Status {
		case models.GenStatusArticleGenerated:
			if err := w.finishCollected(ctx, c); err != nil {
				log.Printf("[article-gen] item %s (video %s): %v", c.ID, c.ExternalID, err)
				m.RecordFailure(c.ID, err.Error())
				continue
			}
			log.Printf("[article-gen] completed half-finished item %s", c.ID)
		case models.GenStatusCategorizationCompleted:
			m.RecordConsidered(1)
			if err := w.generateOne(ctx, c, g); err != nil {
				log.Printf("[article-gen] item %s (video %s): %v", g.ID, g.ExternalID, err)
				m.RecordFailure(g.ID, err.Error())
				continue
			}
			m.RecordSuccess(g.ID)
		}
	}
	return nil
}

// finishCollected performs the collected-side half of the paired write.
func (w *ArticleGen) finishCollected(ctx context.Context, collected models.CollectedContent) error {
	next, err := collected.Transition(models.StatusProcessed, "article generated")
	if err != nil {
		return err
	}
	if err := w.contents.Replace(ctx, next, models.StatusProcessing); err != nil && !errors.Is(err, repository.ErrNotModified) {
		return err
	}
	return nil
}

func (w *ArticleGen) generateOne(ctx context.Context, collected models.CollectedContent, g models.GeneratedContent) error {
	video := collected.Video()
	if video == nil {
		return fmt.Errorf("collected item has no video payload")
	}

	best, err := bestSubtitle(w.cache, video, w.langPriority, w.extPriority)
	if err != nil {
		return err
	}

	result, err := w.article.Generate(ctx, services.ArticleInput{
		ID:       g.ExternalID,
		Title:    video.Title,
		Language: best.Lang,
		Content:  best.Text,
	})
	if err != nil {
		return err
	}

	next := g.WithArtifact(result.Size, models.GeneratedText{Markdown: result.Markdown, Plain: result.Plain})
	next.ReadingTimeSeconds = result.ReadingTimeSeconds
	next, err = next.Transition(models.GenStatusArticleGenerated, "article generated")
	if err != nil {
		return err
	}
	if err := w.generated.Replace(ctx, next, models.GenStatusCategorizationCompleted); err != nil {
		if errors.Is(err, repository.ErrNotModified) {
			return nil
		}
		return err
	}

	if err := w.finishCollected(ctx, collected); err != nil {
		// The generated side is already ARTICLE_GENERATED; the next run
		// retries this write.
		return fmt.Errorf("collected-side write failed after article persisted: %w", err)
	}
	return nil
}
