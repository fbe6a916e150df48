package worker

import (
	"context"
	"fmt"
	"log"

	"gazette-backend/internal/metrics"
	"gazette-backend/internal/models"
	"gazette-backend/internal/repository"
	"gazette-backend/internal/services"
	"gazette-backend/internal/subtitles"
)

// RequiredGen produces the mandatory title and summary for items whose
// subtitles are stored, creating the GeneratedContent row. The collected item
// is not advanced here; it stays at SUBTITLES_STORED until the article stage
// completes.
type RequiredGen struct {
	contents     ContentStore
	generated    GeneratedStore
	cache        *subtitles.Cache
	required     *services.RequiredContentService
	langPriority []string
	extPriority  []string
}

func NewRequiredGen(contents ContentStore, generated GeneratedStore, cache *subtitles.Cache, required *services.RequiredContentService, langPriority, extPriority []string) *RequiredGen {
	return &RequiredGen{
		contents:     contents,
		generated:    generated,
		cache:        cache,
		required:     required,
		langPriority: langPriority,
		extPriority:  extPriority,
	}
}

func (w *RequiredGen) Run(ctx context.Context, user models.User, m *metrics.Processor) error {
	items, err := w.contents.Find(ctx, repository.ContentFilter{
		UserID:      user.ID,
		Status:      models.StatusProcessing,
		SubStatus:   models.SubStatusSubtitlesStored,
		ContentType: models.ContentTypeYouTubeVideo,
	})
	if err != nil {
		return err
	}
	m.RecordConsidered(len(items))

	for _, item := range items {
		if err := w.generateOne(ctx, item); err != nil {
			log.Printf("[required-gen] item %s (video %s): %v", item.ID, item.ExternalID, err)
			m.RecordFailure(item.ID, err.Error())
			continue
		}
		m.RecordSuccess(item.ID)
	}
	return nil
}

func (w *RequiredGen) generateOne(ctx context.Context, item models.CollectedContent) error {
	existing, err := w.generated.FindByExternalID(ctx, item.ExternalID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil // a previous run already produced the required content
	}

	video := item.Video()
	if video == nil {
		return fmt.Errorf("collected item has no video payload")
	}

	best, err := bestSubtitle(w.cache, video, w.langPriority, w.extPriority)
	if err != nil {
		return err
	}

	out, err := w.required.Generate(ctx, services.RequiredInput{
		ID:           item.ExternalID,
		Title:        video.Title,
		Tags:         video.Tags,
		Categories:   video.Categories,
		SubtitleText: best.Text,
		SubtitleLang: best.Lang,
	})
	if err != nil {
		return err
	}

	return w.generated.Create(ctx, models.NewGeneratedContent(
		item.ExternalID,
		models.GeneratedText{Markdown: out.Title, Plain: out.Title},
		models.GeneratedText{Markdown: out.Summary, Plain: out.Summary},
		video.ReleaseDate,
	))
}

// bestSubtitle loads the cleaned cache entries for a video and applies the
// shared selector.
func bestSubtitle(cache *subtitles.Cache, video *models.VideoDetails, langPriority, extPriority []string) (subtitles.CleanEntry, error) {
	entries, err := cache.CleanEntries(video.ID)
	if err != nil {
		return subtitles.CleanEntry{}, err
	}
	return subtitles.SelectBest(entries, video.Language, langPriority, extPriority)
}
