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

// Moderator screens a user's COLLECTED items channel by channel against the
// effective not-interested rules. A schema-invalid model response fails the
// whole channel batch; nothing advances, the next run retries.
type Moderator struct {
	contents   ContentStore
	moderation *services.ModerationService
}

func NewModerator(contents ContentStore, moderation *services.ModerationService) *Moderator {
	return &Moderator{contents: contents, moderation: moderation}
}

func (w *Moderator) Run(ctx context.Context, user models.User, m *metrics.Processor) error {
	items, err := w.contents.Find(ctx, repository.ContentFilter{
		UserID:      user.ID,
		Status:      models.StatusCollected,
		ContentType: models.ContentTypeYouTubeVideo,
	})
	if err != nil {
		return err
	}
	m.RecordConsidered(len(items))

	byChannel := map[string][]models.CollectedContent{}
	for _, item := range items {
		channelID := ""
		if v := item.Video(); v != nil {
			channelID = v.ChannelID
		}
		byChannel[channelID] = append(byChannel[channelID], item)
	}

	for channelID, batch := range byChannel {
		w.moderateChannel(ctx, user, channelID, batch, m)
	}
	return nil
}

func (w *Moderator) moderateChannel(ctx context.Context, user models.User, channelID string, batch []models.CollectedContent, m *metrics.Processor) {
	rules := user.EffectiveNotInterested(channelID)

	var rejections []services.Rejection
	if len(rules) > 0 {
		modItems := make([]services.ModerationItem, len(batch))
		for i, item := range batch {
			mi := services.ModerationItem{ID: item.ExternalID}
			if v := item.Video(); v != nil {
				mi.Title = v.Title
				mi.Tags = v.Tags
				mi.Categories = v.Categories
			}
			modItems[i] = mi
		}

		var err error
		rejections, err = w.moderation.Moderate(ctx, rules, modItems)
		if err != nil {
			log.Printf("[moderator] channel %s batch failed: %v", channelID, err)
			for _, item := range batch {
				m.RecordFailure(item.ID, err.Error())
			}
			return
		}
	}

	reasons := map[string]string{}
	for _, r := range rejections {
		reasons[r.ID] = r.Reason
	}

	for _, item := range batch {
		var next models.CollectedContent
		var err error
		if reason, rejected := reasons[item.ExternalID]; rejected {
			next, err = item.Transition(models.StatusRejected, reason)
		} else {
			next, err = item.Transition(models.StatusProcessing, "moderation passed")
		}
		if err != nil {
			log.Printf("[moderator] item %s: %v", item.ID, err)
			m.RecordFailure(item.ID, err.Error())
			continue
		}

		if err := w.contents.Replace(ctx, next, models.StatusCollected); err != nil {
			if errors.Is(err, repository.ErrNotModified) {
				continue // another worker got here first
			}
			log.Printf("[moderator] item %s: %v", item.ID, err)
			m.RecordFailure(item.ID, err.Error())
			continue
		}
		m.RecordSuccess(item.ID)
	}
}
