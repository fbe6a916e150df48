// Package worker holds one stage runner per pipeline stage. Runners consume
// store and source capabilities as interfaces, process items independently,
// and record per-item outcomes on the injected metrics processor. A failure
// on one item never aborts the batch, and a rerun with no external change is
// a no-op: every advance is guarded on the status the item was read at.
package worker

import (
	"context"

	"gazette-backend/internal/models"
	"gazette-backend/internal/repository"
	"gazette-backend/internal/services"
)

// ContentStore is the collected-content capability the stages consume.
type ContentStore interface {
	Create(ctx context.Context, c models.CollectedContent) error
	Find(ctx context.Context, f repository.ContentFilter) ([]models.CollectedContent, error)
	GetByID(ctx context.Context, id string) (*models.CollectedContent, error)
	GetByExternalID(ctx context.Context, userID, externalID string) (*models.CollectedContent, error)
	Replace(ctx context.Context, c models.CollectedContent, expected models.ContentStatus) error
}

// GeneratedStore is the generated-content capability.
type GeneratedStore interface {
	Create(ctx context.Context, g models.GeneratedContent) error
	ListByStatus(ctx context.Context, status models.GeneratedStatus) ([]models.GeneratedContent, error)
	FindByExternalID(ctx context.Context, externalID string) (*models.GeneratedContent, error)
	FindByExternalIDs(ctx context.Context, externalIDs []string) ([]models.GeneratedContent, error)
	Replace(ctx context.Context, g models.GeneratedContent, expected models.GeneratedStatus) error
}

// NewspaperStore is the newspaper capability.
type NewspaperStore interface {
	FindByUserDay(ctx context.Context, userID, day string) (*models.Newspaper, error)
	Upsert(ctx context.Context, n models.Newspaper) error
}

// VideoSource is the external video-source capability: discovery, enrichment,
// subtitle download.
type VideoSource interface {
	LatestVideos(ctx context.Context, channelID string, max int) ([]services.VideoSummary, error)
	Enrich(ctx context.Context, sum services.VideoSummary, channelID string) (*models.VideoDetails, error)
	DownloadSubtitle(ctx context.Context, url string) ([]byte, error)
	TranscriptFallback(videoID, lang string) (string, error)
}
