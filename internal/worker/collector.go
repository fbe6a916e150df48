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
)

// Collector discovers a user's latest channel uploads and persists them as
// COLLECTED items. Duplicate (user, video) pairs are detected before the
// enrichment call and skipped.
type Collector struct {
	source        VideoSource
	contents      ContentStore
	maxPerChannel int
}

func NewCollector(source VideoSource, contents ContentStore, maxPerChannel int) *Collector {
	return &Collector{source: source, contents: contents, maxPerChannel: maxPerChannel}
}

func (c *Collector) Run(ctx context.Context, user models.User, m *metrics.Processor) error {
	for _, channelID := range user.Channels {
		videos, err := c.source.LatestVideos(ctx, channelID, c.maxPerChannel)
		if err != nil {
			log.Printf("[collector] channel %s listing failed: %v", channelID, err)
			continue
		}
		m.RecordConsidered(len(videos))

		for _, sum := range videos {
			if err := c.collectOne(ctx, user.ID, channelID, sum); err != nil {
				log.Printf("[collector] video %s: %v", sum.VideoID, err)
				m.RecordFailure(sum.VideoID, err.Error())
				continue
			}
			m.RecordSuccess(sum.VideoID)
		}
	}
	return nil
}

func (c *Collector) collectOne(ctx context.Context, userID, channelID string, sum services.VideoSummary) error {
	if sum.VideoID == "" || sum.Title == "" {
		return fmt.Errorf("feed entry is missing id or title")
	}

	existing, err := c.contents.GetByExternalID(ctx, userID, sum.VideoID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	details, err := c.source.Enrich(ctx, sum, channelID)
	if err != nil {
		return fmt.Errorf("enrichment failed: %w", err)
	}
	if details.ID == "" || details.Title == "" || details.ReleaseDate == 0 {
		return fmt.Errorf("enriched video is missing id, title or release timestamp")
	}

	if err := c.contents.Create(ctx, models.NewCollectedContent(userID, details)); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil
		}
		return err
	}
	return nil
}
