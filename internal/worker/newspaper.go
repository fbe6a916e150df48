package worker

import (
	"context"
	"errors"
	"log"
	"time"

	"gazette-backend/internal/metrics"
	"gazette-backend/internal/models"
	"gazette-backend/internal/repository"
)

// Assembler builds the per-user, per-day newspaper: it reserves processed
// items whose category is live for the day, then finalises the pending list
// against the user's reading budget. A budget of zero accepts everything.
type Assembler struct {
	contents  ContentStore
	generated GeneratedStore
	papers    NewspaperStore
	loc       *time.Location
}

func NewAssembler(contents ContentStore, generated GeneratedStore, papers NewspaperStore, loc *time.Location) *Assembler {
	return &Assembler{contents: contents, generated: generated, papers: papers, loc: loc}
}

func (w *Assembler) Run(ctx context.Context, user models.User, day time.Time, m *metrics.Processor) error {
	local := day.In(w.loc)
	dayStr := local.Format("2006-01-02")
	startOfDay := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, w.loc)
	endOfDay := float64(startOfDay.Add(24 * time.Hour).Unix())

	paper, err := w.papers.FindByUserDay(ctx, user.ID, dayStr)
	if err != nil {
		return err
	}
	if paper == nil {
		created := models.NewNewspaper(user.ID, dayStr)
		paper = &created
		if err := w.papers.Upsert(ctx, *paper); err != nil {
			return err
		}
	}

	allowed := user.AllowedCategories(models.WeekdayOf(local))
	if len(allowed) == 0 {
		return w.closePaper(ctx, *paper)
	}

	collated, err := w.collate(ctx, user, *paper, allowed, endOfDay, m)
	if err != nil {
		return err
	}

	finalised, err := w.finalise(ctx, user, collated, m)
	if err != nil {
		return err
	}
	return w.papers.Upsert(ctx, finalised)
}

// collate reserves new candidates onto the considered list. The reservation
// is the PROCESSED -> PICKED_FOR_EVALUATION transition; losing that race
// means another newspaper owns the item. Items already sitting at
// PICKED_FOR_EVALUATION hold a reservation no paper has resolved, either
// rolled over an earlier day's budget or orphaned by a crash before the
// paper write, and are adopted without a new transition.
func (w *Assembler) collate(ctx context.Context, user models.User, paper models.Newspaper, allowed []models.CategoryName, endOfDay float64, m *metrics.Processor) (models.Newspaper, error) {
	processed, err := w.contents.Find(ctx, repository.ContentFilter{
		UserID:        user.ID,
		Status:        models.StatusProcessed,
		ContentType:   models.ContentTypeYouTubeVideo,
		CreatedBefore: endOfDay,
	})
	if err != nil {
		return paper, err
	}
	reserved, err := w.contents.Find(ctx, repository.ContentFilter{
		UserID:        user.ID,
		Status:        models.StatusPickedForEvaluation,
		ContentType:   models.ContentTypeYouTubeVideo,
		CreatedBefore: endOfDay,
	})
	if err != nil {
		return paper, err
	}
	candidates := append(processed, reserved...)

	externalIDs := make([]string, len(candidates))
	for i, c := range candidates {
		externalIDs[i] = c.ExternalID
	}
	generatedRows, err := w.generated.FindByExternalIDs(ctx, externalIDs)
	if err != nil {
		return paper, err
	}
	byExternal := make(map[string]models.GeneratedContent, len(generatedRows))
	for _, g := range generatedRows {
		byExternal[g.ExternalID] = g
	}

	allowedSet := make(map[models.CategoryName]bool, len(allowed))
	for _, cat := range allowed {
		allowedSet[cat] = true
	}

	for _, c := range candidates {
		g, ok := byExternal[c.ExternalID]
		if !ok || g.Category == nil || !allowedSet[g.Category.Name] {
			continue
		}
		if paper.HasConsidered(c.ID) {
			continue
		}
		m.RecordConsidered(1)

		if c.Status == models.StatusPickedForEvaluation {
			paper = paper.Consider(c.ID, "adopted held reservation")
			continue
		}

		next, err := c.Transition(models.StatusPickedForEvaluation, "picked for evaluation")
		if err != nil {
			log.Printf("[newspaper] item %s: %v", c.ID, err)
			m.RecordFailure(c.ID, err.Error())
			continue
		}
		if err := w.contents.Replace(ctx, next, models.StatusProcessed); err != nil {
			if errors.Is(err, repository.ErrNotModified) {
				continue
			}
			log.Printf("[newspaper] item %s: %v", c.ID, err)
			m.RecordFailure(c.ID, err.Error())
			continue
		}
		paper = paper.Consider(c.ID, "picked for evaluation")
	}

	if paper.Status == models.PaperCollating {
		paper, err = paper.Transition(models.PaperCollationComplete, "candidate collation finished")
		if err != nil {
			return paper, err
		}
	}
	if err := w.papers.Upsert(ctx, paper); err != nil {
		return paper, err
	}
	return paper, nil
}

// finalise accepts pending candidates in consideration order until the
// reading budget runs out, marks their sources USED, and recomputes the
// paper's total reading time. Items accepted on an earlier run keep their
// budget charge, so a rerun cannot accept past the budget.
func (w *Assembler) finalise(ctx context.Context, user models.User, paper models.Newspaper, m *metrics.Processor) (models.Newspaper, error) {
	budget := user.DailyReadingMinutes * 60
	used := 0
	for _, cc := range paper.ConsideredContent {
		if cc.Status != models.ConsideredAccepted {
			continue
		}
		rt, _, err := w.readingTime(ctx, cc.CollectedContentID)
		if err != nil {
			log.Printf("[newspaper] item %s: %v", cc.CollectedContentID, err)
			continue
		}
		used += rt
	}

	for _, cc := range paper.ConsideredContent {
		if cc.Status != models.ConsideredPending {
			continue
		}

		rt, collected, err := w.readingTime(ctx, cc.CollectedContentID)
		if err != nil {
			log.Printf("[newspaper] item %s: %v", cc.CollectedContentID, err)
			m.RecordFailure(cc.CollectedContentID, err.Error())
			continue
		}
		if collected.Status != models.StatusPickedForEvaluation {
			// another day's paper consumed the reservation
			paper, err = paper.ResolveConsidered(cc.CollectedContentID, models.ConsideredRejected, "reservation consumed elsewhere")
			if err != nil {
				return paper, err
			}
			continue
		}
		if budget > 0 && used+rt > budget {
			break // remaining pending items roll over to the next day
		}

		next, err := collected.Transition(models.StatusUsed, "accepted into newspaper")
		if err != nil {
			log.Printf("[newspaper] item %s: %v", cc.CollectedContentID, err)
			m.RecordFailure(cc.CollectedContentID, err.Error())
			continue
		}
		if err := w.contents.Replace(ctx, next, models.StatusPickedForEvaluation); err != nil {
			if errors.Is(err, repository.ErrNotModified) {
				continue
			}
			log.Printf("[newspaper] item %s: %v", cc.CollectedContentID, err)
			m.RecordFailure(cc.CollectedContentID, err.Error())
			continue
		}

		paper, err = paper.ResolveConsidered(cc.CollectedContentID, models.ConsideredAccepted, "accepted into newspaper")
		if err != nil {
			return paper, err
		}
		used += rt
		m.RecordSuccess(cc.CollectedContentID)
	}

	total := 0
	for _, cc := range paper.ConsideredContent {
		rt, _, err := w.readingTime(ctx, cc.CollectedContentID)
		if err != nil {
			log.Printf("[newspaper] item %s: %v", cc.CollectedContentID, err)
			continue
		}
		total += rt
	}
	paper.ReadingTimeInSeconds = total

	if paper.Status == models.PaperCollationComplete {
		var err error
		paper, err = paper.Transition(models.PaperCurated, "finalisation finished")
		if err != nil {
			return paper, err
		}
	}
	return paper, nil
}

// closePaper finalises an empty newspaper for a day with no live interests.
func (w *Assembler) closePaper(ctx context.Context, paper models.Newspaper) error {
	var err error
	if paper.Status == models.PaperCollating {
		paper, err = paper.Transition(models.PaperCollationComplete, "no categories allowed today")
		if err != nil {
			return err
		}
	}
	if paper.Status == models.PaperCollationComplete {
		paper, err = paper.Transition(models.PaperCurated, "closed empty")
		if err != nil {
			return err
		}
	}
	return w.papers.Upsert(ctx, paper)
}

// readingTime resolves the reading time of one considered item through its
// collected and generated rows.
func (w *Assembler) readingTime(ctx context.Context, collectedContentID string) (int, *models.CollectedContent, error) {
	collected, err := w.contents.GetByID(ctx, collectedContentID)
	if err != nil {
		return 0, nil, err
	}
	if collected == nil {
		return 0, nil, errors.New("considered item has no collected content row")
	}
	g, err := w.generated.FindByExternalID(ctx, collected.ExternalID)
	if err != nil {
		return 0, nil, err
	}
	if g == nil {
		return 0, nil, errors.New("considered item has no generated content row")
	}
	return g.ReadingTimeSeconds, collected, nil
}
