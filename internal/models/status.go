package models

import (
	"errors"
	"time"
)

// ContentStatus is the primary lifecycle state of a CollectedContent.
type ContentStatus string

const (
	StatusCollected           ContentStatus = "COLLECTED"
	StatusProcessing          ContentStatus = "PROCESSING"
	StatusProcessed           ContentStatus = "PROCESSED"
	StatusPickedForEvaluation ContentStatus = "PICKED_FOR_EVALUATION"
	StatusUsed                ContentStatus = "USED"
	StatusRejected            ContentStatus = "REJECTED"
)

// ContentSubStatus is only meaningful while the primary status is PROCESSING.
type ContentSubStatus string

const (
	SubStatusModerationPassed ContentSubStatus = "MODERATION_PASSED"
	SubStatusSubtitlesStored  ContentSubStatus = "SUBTITLES_STORED"
)

type GeneratedStatus string

const (
	GenStatusRequiredContentGenerated GeneratedStatus = "REQUIRED_CONTENT_GENERATED"
	GenStatusCategorizationCompleted  GeneratedStatus = "CATEGORIZATION_COMPLETED"
	GenStatusArticleGenerated         GeneratedStatus = "ARTICLE_GENERATED"
)

type NewspaperStatus string

const (
	PaperCollating         NewspaperStatus = "COLLATING"
	PaperCollationComplete NewspaperStatus = "COLLATION_COMPLETE"
	PaperCurated           NewspaperStatus = "CURATED"
	PaperDelivered         NewspaperStatus = "DELIVERED"
	PaperFailed            NewspaperStatus = "FAILED"
)

type ConsideredStatus string

const (
	ConsideredPending  ConsideredStatus = "PENDING"
	ConsideredAccepted ConsideredStatus = "ACCEPTED"
	ConsideredRejected ConsideredStatus = "REJECTED"
)

// ErrInvalidTransition is returned when a status change would move backwards
// or skip a step in the lifecycle lattice.
var ErrInvalidTransition = errors.New("invalid status transition")

// StatusDetail is one append-only history record. The current status field of
// the owning document must always equal the last entry of its history list.
type StatusDetail struct {
	Status    string  `bson:"status" json:"status"`
	CreatedAt float64 `bson:"created_at" json:"created_at"`
	Reason    string  `bson:"reason" json:"reason"`
}

// EpochNow returns the current time as epoch seconds, the timestamp format
// every persisted document uses.
func EpochNow() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

var contentTransitions = map[ContentStatus][]ContentStatus{
	StatusCollected:           {StatusProcessing, StatusRejected},
	StatusProcessing:          {StatusProcessed},
	StatusProcessed:           {StatusPickedForEvaluation},
	StatusPickedForEvaluation: {StatusUsed},
	StatusUsed:                {},
	StatusRejected:            {},
}

func contentTransitionAllowed(from, to ContentStatus) bool {
	for _, next := range contentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

var generatedTransitions = map[GeneratedStatus][]GeneratedStatus{
	GenStatusRequiredContentGenerated: {GenStatusCategorizationCompleted},
	GenStatusCategorizationCompleted:  {GenStatusArticleGenerated},
	GenStatusArticleGenerated:         {},
}

func generatedTransitionAllowed(from, to GeneratedStatus) bool {
	for _, next := range generatedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

var newspaperTransitions = map[NewspaperStatus][]NewspaperStatus{
	PaperCollating:         {PaperCollationComplete, PaperFailed},
	PaperCollationComplete: {PaperCurated, PaperFailed},
	PaperCurated:           {PaperDelivered, PaperFailed},
	PaperDelivered:         {},
	PaperFailed:            {},
}

func newspaperTransitionAllowed(from, to NewspaperStatus) bool {
	for _, next := range newspaperTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
