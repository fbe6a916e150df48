package models

import "github.com/google/uuid"

// ConsideredContent tracks one candidate item inside a newspaper.
type ConsideredContent struct {
	CollectedContentID string           `bson:"user_collected_content_id" json:"user_collected_content_id"`
	Status             ConsideredStatus `bson:"considered_content_status" json:"considered_content_status"`
	StatusDetails      []StatusDetail   `bson:"status_details" json:"status_details"`
}

// Newspaper is the per-user, per-day bundle of accepted content. Day is the
// calendar-day bucket in the user's timezone, formatted YYYY-MM-DD.
type Newspaper struct {
	ID                   string              `bson:"_id" json:"id"`
	UserID               string              `bson:"user_id" json:"user_id"`
	Day                  string              `bson:"day" json:"day"`
	Status               NewspaperStatus     `bson:"status" json:"status"`
	StatusDetails        []StatusDetail      `bson:"status_details" json:"status_details"`
	ConsideredContent    []ConsideredContent `bson:"considered_content_list" json:"considered_content_list"`
	FinalContentList     []string            `bson:"final_content_list" json:"final_content_list"`
	ReadingTimeInSeconds int                 `bson:"reading_time_in_seconds" json:"reading_time_in_seconds"`
	CreatedAt            float64             `bson:"created_at" json:"created_at"`
	UpdatedAt            float64             `bson:"updated_at" json:"updated_at"`
}

func NewNewspaper(userID, day string) Newspaper {
	now := EpochNow()
	return Newspaper{
		ID:     uuid.NewString(),
		UserID: userID,
		Day:    day,
		Status: PaperCollating,
		StatusDetails: []StatusDetail{
			{Status: string(PaperCollating), CreatedAt: now, Reason: "newspaper opened"},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Transition returns a copy advanced to the given newspaper status.
func (n Newspaper) Transition(to NewspaperStatus, reason string) (Newspaper, error) {
	if !newspaperTransitionAllowed(n.Status, to) {
		return n, ErrInvalidTransition
	}
	now := EpochNow()
	next := n
	next.Status = to
	next.StatusDetails = append(append([]StatusDetail{}, n.StatusDetails...), StatusDetail{
		Status: string(to), CreatedAt: now, Reason: reason,
	})
	next.UpdatedAt = now
	return next, nil
}

// Consider appends a new PENDING candidate.
func (n Newspaper) Consider(collectedContentID, reason string) Newspaper {
	now := EpochNow()
	next := n
	next.ConsideredContent = append(append([]ConsideredContent{}, n.ConsideredContent...), ConsideredContent{
		CollectedContentID: collectedContentID,
		Status:             ConsideredPending,
		StatusDetails: []StatusDetail{
			{Status: string(ConsideredPending), CreatedAt: now, Reason: reason},
		},
	})
	next.UpdatedAt = now
	return next
}

// HasConsidered reports whether the item is already on the considered list.
func (n Newspaper) HasConsidered(collectedContentID string) bool {
	for _, cc := range n.ConsideredContent {
		if cc.CollectedContentID == collectedContentID {
			return true
		}
	}
	return false
}

// ResolveConsidered flips one PENDING candidate to ACCEPTED or REJECTED.
// Resolving a non-PENDING candidate is an invariant violation.
func (n Newspaper) ResolveConsidered(collectedContentID string, to ConsideredStatus, reason string) (Newspaper, error) {
	now := EpochNow()
	next := n
	next.ConsideredContent = append([]ConsideredContent{}, n.ConsideredContent...)
	for i, cc := range next.ConsideredContent {
		if cc.CollectedContentID != collectedContentID {
			continue
		}
		if cc.Status != ConsideredPending {
			return n, ErrInvalidTransition
		}
		cc.Status = to
		cc.StatusDetails = append(append([]StatusDetail{}, cc.StatusDetails...), StatusDetail{
			Status: string(to), CreatedAt: now, Reason: reason,
		})
		next.ConsideredContent[i] = cc
		if to == ConsideredAccepted {
			next.FinalContentList = append(append([]string{}, n.FinalContentList...), collectedContentID)
		}
		next.UpdatedAt = now
		return next, nil
	}
	return n, ErrInvalidTransition
}
