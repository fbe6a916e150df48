package models

import "github.com/google/uuid"

// ContentType enumerates supported external sources. Only YouTube today.
type ContentType string

const ContentTypeYouTubeVideo ContentType = "YOUTUBE_VIDEO"

// Subtitles is the caption manifest embedded in VideoDetails: for each kind,
// language code -> file extension -> download URL.
type Subtitles struct {
	Manual    map[string]map[string]string `bson:"manual" json:"manual"`
	Automatic map[string]map[string]string `bson:"automatic" json:"automatic"`
}

// HasAny reports whether at least one manifest branch carries a usable URL.
func (s Subtitles) HasAny() bool {
	for _, byExt := range s.Manual {
		if len(byExt) > 0 {
			return true
		}
	}
	for _, byExt := range s.Automatic {
		if len(byExt) > 0 {
			return true
		}
	}
	return false
}

type VideoDetails struct {
	ID           string    `bson:"id" json:"id"`
	Title        string    `bson:"title" json:"title"`
	ChannelID    string    `bson:"channel_id" json:"channel_id"`
	ChannelName  string    `bson:"channel_name" json:"channel_name"`
	Description  string    `bson:"description" json:"description"`
	ViewCount    int64     `bson:"view_count" json:"view_count"`
	LikeCount    int64     `bson:"like_count" json:"like_count"`
	CommentCount int64     `bson:"comment_count" json:"comment_count"`
	DurationSec  int       `bson:"duration_seconds" json:"duration_seconds"`
	ReleaseDate  float64   `bson:"release_date" json:"release_date"`
	Language     string    `bson:"language" json:"language"`
	Tags         []string  `bson:"tags" json:"tags"`
	Categories   []string  `bson:"categories" json:"categories"`
	Thumbnail    string    `bson:"thumbnail" json:"thumbnail"`
	Subtitles    Subtitles `bson:"subtitles" json:"subtitles"`
}

// CollectedContent is one record of "we know of this video for this user".
// (user_id, external_id) is unique across the collection.
type CollectedContent struct {
	ID               string                        `bson:"_id" json:"id"`
	UserID           string                        `bson:"user_id" json:"user_id"`
	ExternalID       string                        `bson:"external_id" json:"external_id"`
	ContentType      ContentType                   `bson:"content_type" json:"content_type"`
	OutputType       string                        `bson:"output_type" json:"output_type"`
	Status           ContentStatus                 `bson:"status" json:"status"`
	StatusDetails    []StatusDetail                `bson:"status_details" json:"status_details"`
	SubStatus        ContentSubStatus              `bson:"sub_status,omitempty" json:"sub_status,omitempty"`
	SubStatusDetails []StatusDetail                `bson:"sub_status_details" json:"sub_status_details"`
	Data             map[ContentType]*VideoDetails `bson:"data" json:"data"`
	CreatedAt        float64                       `bson:"created_at" json:"created_at"`
	UpdatedAt        float64                       `bson:"updated_at" json:"updated_at"`
}

// NewCollectedContent builds a freshly collected record with its first
// history entry already appended.
func NewCollectedContent(userID string, details *VideoDetails) CollectedContent {
	now := EpochNow()
	return CollectedContent{
		ID:          uuid.NewString(),
		UserID:      userID,
		ExternalID:  details.ID,
		ContentType: ContentTypeYouTubeVideo,
		OutputType:  "ARTICLE",
		Status:      StatusCollected,
		StatusDetails: []StatusDetail{
			{Status: string(StatusCollected), CreatedAt: now, Reason: "collected from source"},
		},
		Data:      map[ContentType]*VideoDetails{ContentTypeYouTubeVideo: details},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Video returns the embedded payload for the record's content type.
func (c CollectedContent) Video() *VideoDetails {
	return c.Data[ContentTypeYouTubeVideo]
}

// Transition returns a copy of c advanced to the given status with a history
// entry appended. Moving into PROCESSING also seeds the MODERATION_PASSED
// sub status; leaving it for PROCESSED requires SUBTITLES_STORED. The sub
// status history is never rewritten, so the current sub_status always equals
// its last history entry.
func (c CollectedContent) Transition(to ContentStatus, reason string) (CollectedContent, error) {
	if !contentTransitionAllowed(c.Status, to) {
		return c, ErrInvalidTransition
	}
	if to == StatusProcessed && c.SubStatus != SubStatusSubtitlesStored {
		return c, ErrInvalidTransition
	}
	now := EpochNow()
	next := c
	next.Status = to
	next.StatusDetails = append(append([]StatusDetail{}, c.StatusDetails...), StatusDetail{
		Status: string(to), CreatedAt: now, Reason: reason,
	})
	next.UpdatedAt = now

	if to == StatusProcessing {
		next.SubStatus = SubStatusModerationPassed
		next.SubStatusDetails = append(append([]StatusDetail{}, c.SubStatusDetails...), StatusDetail{
			Status: string(SubStatusModerationPassed), CreatedAt: now, Reason: reason,
		})
	}
	return next, nil
}

// TransitionSub advances the sub status. Only valid while PROCESSING.
func (c CollectedContent) TransitionSub(to ContentSubStatus, reason string) (CollectedContent, error) {
	if c.Status != StatusProcessing {
		return c, ErrInvalidTransition
	}
	if !(c.SubStatus == SubStatusModerationPassed && to == SubStatusSubtitlesStored) {
		return c, ErrInvalidTransition
	}
	now := EpochNow()
	next := c
	next.SubStatus = to
	next.SubStatusDetails = append(append([]StatusDetail{}, c.SubStatusDetails...), StatusDetail{
		Status: string(to), CreatedAt: now, Reason: reason,
	})
	next.UpdatedAt = now
	return next, nil
}
