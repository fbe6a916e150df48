package worker

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gazette-backend/internal/metrics"
	"gazette-backend/internal/models"
	"gazette-backend/internal/repository"
	"gazette-backend/internal/subtitles"
)

// SubtitlePreparer downloads and cleans captions for items that passed
// moderation. At least one non-empty cleaned file is required to promote the
// item to SUBTITLES_STORED; anything less leaves it where it is for the next
// run.
type SubtitlePreparer struct {
	contents     ContentStore
	source       VideoSource
	cache        *subtitles.Cache
	langPriority []string
	extPriority  []string
}

func NewSubtitlePreparer(contents ContentStore, source VideoSource, cache *subtitles.Cache, langPriority, extPriority []string) *SubtitlePreparer {
	return &SubtitlePreparer{
		contents:     contents,
		source:       source,
		cache:        cache,
		langPriority: langPriority,
		extPriority:  extPriority,
	}
}

func (w *SubtitlePreparer) Run(ctx context.Context, user models.User, m *metrics.Processor) error {
	items, err := w.contents.Find(ctx, repository.ContentFilter{
		UserID:      user.ID,
		Status:      models.StatusProcessing,
		SubStatus:   models.SubStatusModerationPassed,
		ContentType: models.ContentTypeYouTubeVideo,
	})
	if err != nil {
		return err
	}
	m.RecordConsidered(len(items))

	for _, item := range items {
		if err := w.prepareOne(ctx, item); err != nil {
			log.Printf("[subtitles] item %s (video %s): %v", item.ID, item.ExternalID, err)
			m.RecordFailure(item.ID, err.Error())
			continue
		}
		m.RecordSuccess(item.ID)
	}
	return nil
}

func (w *SubtitlePreparer) prepareOne(ctx context.Context, item models.CollectedContent) error {
	video := item.Video()
	if video == nil {
		return fmt.Errorf("collected item has no video payload")
	}

	hasRaw, err := w.cache.HasRaw(video.ID)
	if err != nil {
		return err
	}
	if !hasRaw {
		w.downloadAll(ctx, video)
	}

	hasClean, err := w.cache.HasClean(video.ID)
	if err != nil {
		return err
	}
	if !hasClean {
		if err := w.cleanAll(video.ID); err != nil {
			return err
		}
	}

	hasClean, err = w.cache.HasClean(video.ID)
	if err != nil {
		return err
	}
	if !hasClean {
		if err := w.transcriptFallback(video); err != nil {
			return err
		}
	}

	next, err := item.TransitionSub(models.SubStatusSubtitlesStored, "cleaned subtitles cached")
	if err != nil {
		return err
	}
	if err := w.contents.Replace(ctx, next, models.StatusProcessing); err != nil {
		if errors.Is(err, repository.ErrNotModified) {
			return nil
		}
		return err
	}
	return nil
}

// downloadAll fetches every manifest slot in preference order. Individual
// failures are logged and skipped; siblings continue.
func (w *SubtitlePreparer) downloadAll(ctx context.Context, video *models.VideoDetails) {
	for _, lang := range w.langPriority {
		for _, kind := range []subtitles.Kind{subtitles.KindAutomatic, subtitles.KindManual} {
			branch := video.Subtitles.Automatic
			if kind == subtitles.KindManual {
				branch = video.Subtitles.Manual
			}
			for _, ext := range w.extPriority {
				url, ok := branch[lang][ext]
				if !ok || url == "" {
					continue
				}
				data, err := w.source.DownloadSubtitle(ctx, url)
				if err != nil {
					log.Printf("[subtitles] video %s %s/%s/%s download failed: %v", video.ID, kind, lang, ext, err)
					continue
				}
				entry := subtitles.Entry{Kind: kind, Lang: lang, Ext: ext}
				if err := w.cache.WriteRaw(video.ID, entry, data); err != nil {
					log.Printf("[subtitles] video %s %s/%s/%s write failed: %v", video.ID, kind, lang, ext, err)
				}
			}
		}
	}
}

// cleanAll runs the format cleaner over every cached raw file. An unknown
// extension fails only that file.
func (w *SubtitlePreparer) cleanAll(videoID string) error {
	entries, err := w.cache.RawEntries(videoID)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		raw, err := w.cache.ReadRaw(videoID, entry)
		if err != nil {
			log.Printf("[subtitles] video %s %s/%s/%s read failed: %v", videoID, entry.Kind, entry.Lang, entry.Ext, err)
			continue
		}
		text, err := subtitles.Clean(entry.Ext, string(raw))
		if err != nil {
			log.Printf("[subtitles] video %s %s/%s/%s clean failed: %v", videoID, entry.Kind, entry.Lang, entry.Ext, err)
			continue
		}
		if text == "" {
			continue
		}
		if err := w.cache.WriteClean(videoID, entry, text); err != nil {
			return err
		}
	}
	return nil
}

// transcriptFallback is the last resort when every manifest URL failed: pull
// the transcript through the caption API and store it as a cleaned entry.
func (w *SubtitlePreparer) transcriptFallback(video *models.VideoDetails) error {
	text, err := w.source.TranscriptFallback(video.ID, video.Language)
	if err != nil {
		return fmt.Errorf("%w: manifest downloads and transcript fallback both failed", subtitles.ErrNoSubtitles)
	}

	lang := video.Language
	if lang == "" {
		lang = "en"
	}
	entry := subtitles.Entry{Kind: subtitles.KindAutomatic, Lang: lang, Ext: "srt"}
	return w.cache.WriteClean(video.ID, entry, text)
}
