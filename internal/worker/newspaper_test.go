package worker

import (
	"context"
	"testing"
	"time"

	"gazette-backend/internal/metrics"
	"gazette-backend/internal/models"
)

var ist = time.FixedZone("IST", 5*3600+1800)

// monday is a fixed Monday noon in the user-day timezone.
var monday = time.Date(2024, 1, 1, 12, 0, 0, 0, ist)

func processedItem(t *testing.T, store *memContent, gen *memGenerated, videoID string, cat models.CategoryName, readingTime int) models.CollectedContent {
	t.Helper()
	c := models.NewCollectedContent("u1", testDetails(videoID, "ch1"))
	c, err := c.Transition(models.StatusProcessing, "moderation passed")
	if err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	c, err = c.TransitionSub(models.SubStatusSubtitlesStored, "subtitles cached")
	if err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	c, err = c.Transition(models.StatusProcessed, "article generated")
	if err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	c.CreatedAt = float64(monday.Unix())
	store.items[c.ID] = c

	g := categorizedRow(t, gen, videoID, cat)
	g = g.WithArtifact(models.SizeMedium, models.GeneratedText{Markdown: "# A", Plain: "A"})
	g.ReadingTimeSeconds = readingTime
	g, err = g.Transition(models.GenStatusArticleGenerated, "article generated")
	if err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	gen.items[g.ID] = g
	return c
}

func TestAssemblerPicksOnlyAllowedCategories(t *testing.T) {
	store := newMemContent()
	gen := newMemGenerated()
	papers := newMemPapers()

	tech1 := processedItem(t, store, gen, "vidA", models.CategoryTechnology, 120)
	tech2 := processedItem(t, store, gen, "vidB", models.CategoryTechnology, 180)
	sports := processedItem(t, store, gen, "vidC", models.CategorySports, 90)

	user := models.User{
		ID:         "u1",
		Interested: []models.InterestRule{{Category: models.CategoryTechnology, Weekdays: []models.Weekday{models.Monday}}},
	}
	asm := NewAssembler(store, gen, papers, ist)

	if err := asm.Run(context.Background(), user, monday, metrics.NewProcessor(nil, "run", "newspaper")); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	paper, _ := papers.FindByUserDay(context.Background(), "u1", "2024-01-01")
	if paper == nil {
		t.Fatal("no newspaper created")
	}
	if len(paper.ConsideredContent) != 2 {
		t.Fatalf("considered = %d, want 2", len(paper.ConsideredContent))
	}
	if len(paper.FinalContentList) != 2 {
		t.Fatalf("final = %d, want 2", len(paper.FinalContentList))
	}
	if paper.Status != models.PaperCurated {
		t.Errorf("paper status = %s", paper.Status)
	}
	if paper.ReadingTimeInSeconds != 300 {
		t.Errorf("reading time = %d, want 300", paper.ReadingTimeInSeconds)
	}

	if got := store.items[tech1.ID]; got.Status != models.StatusUsed {
		t.Errorf("vidA status = %s, want USED", got.Status)
	}
	if got := store.items[tech2.ID]; got.Status != models.StatusUsed {
		t.Errorf("vidB status = %s, want USED", got.Status)
	}
	if got := store.items[sports.ID]; got.Status != models.StatusProcessed {
		t.Errorf("vidC status = %s, want PROCESSED (category not live today)", got.Status)
	}

	// A weekday with no live interests closes its paper empty.
	tuesday := monday.Add(24 * time.Hour)
	if err := asm.Run(context.Background(), user, tuesday, metrics.NewProcessor(nil, "run", "newspaper")); err != nil {
		t.Fatalf("Tuesday run failed: %v", err)
	}
	tuePaper, _ := papers.FindByUserDay(context.Background(), "u1", "2024-01-02")
	if tuePaper == nil {
		t.Fatal("no Tuesday newspaper created")
	}
	if len(tuePaper.ConsideredContent) != 0 || tuePaper.ReadingTimeInSeconds != 0 {
		t.Errorf("Tuesday paper not empty: %d considered, %d seconds", len(tuePaper.ConsideredContent), tuePaper.ReadingTimeInSeconds)
	}
	if tuePaper.Status != models.PaperCurated {
		t.Errorf("Tuesday paper status = %s", tuePaper.Status)
	}
}

func TestAssemblerReadingBudgetRollsOver(t *testing.T) {
	store := newMemContent()
	gen := newMemGenerated()
	papers := newMemPapers()

	processedItem(t, store, gen, "vidA", models.CategoryTechnology, 50)
	processedItem(t, store, gen, "vidB", models.CategoryTechnology, 50)

	user := models.User{
		ID:                  "u1",
		DailyReadingMinutes: 1,
		Interested:          []models.InterestRule{{Category: models.CategoryTechnology, Weekdays: []models.Weekday{models.Monday}}},
	}
	asm := NewAssembler(store, gen, papers, ist)

	if err := asm.Run(context.Background(), user, monday, metrics.NewProcessor(nil, "run", "newspaper")); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	paper, _ := papers.FindByUserDay(context.Background(), "u1", "2024-01-01")
	if len(paper.ConsideredContent) != 2 {
		t.Fatalf("considered = %d, want 2", len(paper.ConsideredContent))
	}
	if len(paper.FinalContentList) != 1 {
		t.Fatalf("final = %d, want only the item that fits the budget", len(paper.FinalContentList))
	}

	pending := 0
	for _, cc := range paper.ConsideredContent {
		if cc.Status == models.ConsideredPending {
			pending++
		}
	}
	if pending != 1 {
		t.Errorf("pending = %d, want 1 rolled over", pending)
	}
}

func TestAssemblerRerunDoesNotOverspendBudget(t *testing.T) {
	store := newMemContent()
	gen := newMemGenerated()
	papers := newMemPapers()

	processedItem(t, store, gen, "vidA", models.CategoryTechnology, 50)
	processedItem(t, store, gen, "vidB", models.CategoryTechnology, 50)

	user := models.User{
		ID:                  "u1",
		DailyReadingMinutes: 1,
		Interested:          []models.InterestRule{{Category: models.CategoryTechnology, Weekdays: []models.Weekday{models.Monday}}},
	}
	asm := NewAssembler(store, gen, papers, ist)

	for i := 0; i < 2; i++ {
		if err := asm.Run(context.Background(), user, monday, metrics.NewProcessor(nil, "run", "newspaper")); err != nil {
			t.Fatalf("run %d failed: %v", i+1, err)
		}
	}

	paper, _ := papers.FindByUserDay(context.Background(), "u1", "2024-01-01")
	if len(paper.FinalContentList) != 1 {
		t.Fatalf("rerun accepted past the budget: %d final", len(paper.FinalContentList))
	}
	used := 0
	for _, c := range store.items {
		if c.Status == models.StatusUsed {
			used++
		}
	}
	if used != 1 {
		t.Errorf("%d items USED, want 1 within a 60s budget", used)
	}
}

func TestAssemblerRolledOverItemLandsNextDay(t *testing.T) {
	store := newMemContent()
	gen := newMemGenerated()
	papers := newMemPapers()

	processedItem(t, store, gen, "vidA", models.CategoryTechnology, 50)
	processedItem(t, store, gen, "vidB", models.CategoryTechnology, 50)

	user := models.User{
		ID:                  "u1",
		DailyReadingMinutes: 1,
		Interested: []models.InterestRule{
			{Category: models.CategoryTechnology, Weekdays: []models.Weekday{models.Monday, models.Tuesday}},
		},
	}
	asm := NewAssembler(store, gen, papers, ist)

	if err := asm.Run(context.Background(), user, monday, metrics.NewProcessor(nil, "run", "newspaper")); err != nil {
		t.Fatalf("Monday run failed: %v", err)
	}

	tuesday := monday.Add(24 * time.Hour)
	if err := asm.Run(context.Background(), user, tuesday, metrics.NewProcessor(nil, "run", "newspaper")); err != nil {
		t.Fatalf("Tuesday run failed: %v", err)
	}

	for id, c := range store.items {
		if c.Status != models.StatusUsed {
			t.Errorf("item %s stranded at %s", id, c.Status)
		}
	}
	tuePaper, _ := papers.FindByUserDay(context.Background(), "u1", "2024-01-02")
	if tuePaper == nil || len(tuePaper.FinalContentList) != 1 {
		t.Fatal("rolled-over item did not land on Tuesday's paper")
	}

	// a Monday rerun resolves its stale pending entry instead of re-accepting
	if err := asm.Run(context.Background(), user, monday, metrics.NewProcessor(nil, "run", "newspaper")); err != nil {
		t.Fatalf("Monday rerun failed: %v", err)
	}
	monPaper, _ := papers.FindByUserDay(context.Background(), "u1", "2024-01-01")
	if len(monPaper.FinalContentList) != 1 {
		t.Errorf("Monday rerun changed the final list: %d entries", len(monPaper.FinalContentList))
	}
	for _, cc := range monPaper.ConsideredContent {
		if cc.Status == models.ConsideredPending {
			t.Errorf("item %s still pending on Monday's paper", cc.CollectedContentID)
		}
	}
}

func TestAssemblerAdoptsOrphanedReservation(t *testing.T) {
	store := newMemContent()
	gen := newMemGenerated()
	papers := newMemPapers()

	// a reservation written just before a crash, before any paper recorded it
	c := processedItem(t, store, gen, "vidA", models.CategoryTechnology, 120)
	c, err := c.Transition(models.StatusPickedForEvaluation, "picked for evaluation")
	if err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	store.items[c.ID] = c

	user := models.User{
		ID:         "u1",
		Interested: []models.InterestRule{{Category: models.CategoryTechnology, Weekdays: []models.Weekday{models.Monday}}},
	}
	asm := NewAssembler(store, gen, papers, ist)

	if err := asm.Run(context.Background(), user, monday, metrics.NewProcessor(nil, "run", "newspaper")); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	paper, _ := papers.FindByUserDay(context.Background(), "u1", "2024-01-01")
	if paper == nil || len(paper.FinalContentList) != 1 {
		t.Fatal("orphaned reservation was not adopted")
	}
	if got := store.items[c.ID]; got.Status != models.StatusUsed {
		t.Errorf("adopted item at %s, want USED", got.Status)
	}
}

func TestAssemblerRerunIsIdempotent(t *testing.T) {
	store := newMemContent()
	gen := newMemGenerated()
	papers := newMemPapers()

	processedItem(t, store, gen, "vidA", models.CategoryTechnology, 120)

	user := models.User{
		ID:         "u1",
		Interested: []models.InterestRule{{Category: models.CategoryTechnology, Weekdays: []models.Weekday{models.Monday}}},
	}
	asm := NewAssembler(store, gen, papers, ist)

	for i := 0; i < 2; i++ {
		if err := asm.Run(context.Background(), user, monday, metrics.NewProcessor(nil, "run", "newspaper")); err != nil {
			t.Fatalf("run %d failed: %v", i+1, err)
		}
	}

	paper, _ := papers.FindByUserDay(context.Background(), "u1", "2024-01-01")
	if len(paper.ConsideredContent) != 1 || len(paper.FinalContentList) != 1 {
		t.Errorf("rerun duplicated entries: %d considered, %d final", len(paper.ConsideredContent), len(paper.FinalContentList))
	}
	if paper.ReadingTimeInSeconds != 120 {
		t.Errorf("reading time = %d, want 120", paper.ReadingTimeInSeconds)
	}
}
