package worker

import (
	"context"
	"strings"
	"testing"

	"gazette-backend/internal/metrics"
	"gazette-backend/internal/models"
	"gazette-backend/internal/services"
	"gazette-backend/internal/subtitles"
)

func subtitledItem(t *testing.T, store *memContent, cache *subtitles.Cache, details *models.VideoDetails, text string) models.CollectedContent {
	t.Helper()
	c := moderatedItem(t, store, details)
	c, err := c.TransitionSub(models.SubStatusSubtitlesStored, "cleaned subtitles cached")
	if err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	store.items[c.ID] = c
	entry := subtitles.Entry{Kind: subtitles.KindManual, Lang: "en", Ext: "srt"}
	if err := cache.WriteClean(details.ID, entry, text); err != nil {
		t.Fatalf("cache write failed: %v", err)
	}
	return c
}

func TestRequiredGenCreatesGeneratedContent(t *testing.T) {
	store := newMemContent()
	cache := subtitles.NewCache(t.TempDir())
	details := testDetails("vidA", "ch1")
	subtitledItem(t, store, cache, details, "a transcript about battery technology")

	gen := newMemGenerated()
	llm := &fakeLLM{responses: []string{`{"TITLE":"Battery tech shifts","SUMMARY":"Solid state cells are closer than they look."}`}}
	stage := NewRequiredGen(store, gen, cache, services.NewRequiredContentService(llm), testLangs, testExts)

	if err := stage.Run(context.Background(), models.User{ID: "u1"}, metrics.NewProcessor(nil, "run", "required-gen")); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(gen.items) != 1 {
		t.Fatalf("expected 1 generated row, got %d", len(gen.items))
	}
	for _, g := range gen.items {
		if g.Generated[models.SizeVeryShort].Plain != "Battery tech shifts" {
			t.Errorf("title artifact = %q", g.Generated[models.SizeVeryShort].Plain)
		}
		if g.Generated[models.SizeShort].Plain == "" {
			t.Error("summary artifact missing")
		}
		if g.ContentGeneratedAt != details.ReleaseDate {
			t.Errorf("content_generated_at = %v, want the video release timestamp", g.ContentGeneratedAt)
		}
		if g.Status != models.GenStatusRequiredContentGenerated {
			t.Errorf("status = %s", g.Status)
		}
	}

	// The collected item is not advanced here; the article stage owns that.
	for _, c := range store.items {
		if c.SubStatus != models.SubStatusSubtitlesStored {
			t.Errorf("collected sub status changed to %s", c.SubStatus)
		}
	}

	if err := stage.Run(context.Background(), models.User{ID: "u1"}, metrics.NewProcessor(nil, "run", "required-gen")); err != nil {
		t.Fatalf("rerun failed: %v", err)
	}
	if len(gen.items) != 1 || llm.calls != 1 {
		t.Errorf("rerun was not a no-op: %d rows, %d calls", len(gen.items), llm.calls)
	}
}

func TestCategorizerAssignsCategories(t *testing.T) {
	gen := newMemGenerated()
	g := models.NewGeneratedContent("vidA",
		models.GeneratedText{Plain: "Battery tech shifts"},
		models.GeneratedText{Plain: "Solid state cells."},
		1700000000)
	gen.items[g.ID] = g

	llm := &fakeLLM{responses: []string{
		`[{"id":"` + g.ID + `","category":"TECHNOLOGY","category_description":"Battery engineering.","category_tags":["batteries","energy","hardware"],"shelf_life":"LONG","geography":""}]`,
	}}
	stage := NewCategorizer(gen, services.NewCategorizerService(llm))

	if err := stage.Run(context.Background(), metrics.NewProcessor(nil, "run", "categorizer")); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got := gen.items[g.ID]
	if got.Status != models.GenStatusCategorizationCompleted {
		t.Errorf("status = %s", got.Status)
	}
	if got.Category == nil || got.Category.Name != models.CategoryTechnology {
		t.Errorf("category = %+v", got.Category)
	}
}

func categorizedRow(t *testing.T, gen *memGenerated, externalID string, cat models.CategoryName) models.GeneratedContent {
	t.Helper()
	g := models.NewGeneratedContent(externalID,
		models.GeneratedText{Plain: "Title"},
		models.GeneratedText{Plain: "Summary"},
		1700000000)
	g.Category = &models.Category{Name: cat, Description: "d", Tags: []string{"a", "b", "c"}}
	g, err := g.Transition(models.GenStatusCategorizationCompleted, "category assigned")
	if err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	gen.items[g.ID] = g
	return g
}

func TestArticleGenHappyPathAndIdempotentRerun(t *testing.T) {
	store := newMemContent()
	cache := subtitles.NewCache(t.TempDir())
	details := testDetails("vidA", "ch1")
	collected := subtitledItem(t, store, cache, details, strings.Repeat("battery chemistry keeps improving ", 40))

	gen := newMemGenerated()
	row := categorizedRow(t, gen, "vidA", models.CategoryTechnology)

	article := "# Battery Tech\n\n" + strings.Repeat("the cells improve year over year ", 40)
	llm := &fakeLLM{max: 1 << 20, responses: []string{article}}
	stage := NewArticleGen(store, gen, cache, services.NewArticleService(llm, 200), testLangs, testExts)

	if err := stage.Run(context.Background(), models.User{ID: "u1"}, metrics.NewProcessor(nil, "run", "article-gen")); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got := gen.items[row.ID]
	if got.Status != models.GenStatusArticleGenerated {
		t.Fatalf("generated status = %s", got.Status)
	}
	if _, ok := got.Generated[models.SizeMedium]; !ok {
		t.Error("one-shot article should land in MEDIUM")
	}
	if got.ReadingTimeSeconds < 1 {
		t.Errorf("reading time = %d", got.ReadingTimeSeconds)
	}
	gotCollected := store.items[collected.ID]
	if gotCollected.Status != models.StatusProcessed {
		t.Errorf("collected status = %s, want PROCESSED", gotCollected.Status)
	}

	histLen := len(gotCollected.StatusDetails)
	if err := stage.Run(context.Background(), models.User{ID: "u1"}, metrics.NewProcessor(nil, "run", "article-gen")); err != nil {
		t.Fatalf("rerun failed: %v", err)
	}
	if llm.calls != 1 {
		t.Errorf("rerun called the model again: %d calls", llm.calls)
	}
	if len(store.items[collected.ID].StatusDetails) != histLen {
		t.Error("rerun appended history to an already processed item")
	}
}

func TestArticleGenIgnoresOtherUsersItems(t *testing.T) {
	store := newMemContent()
	cache := subtitles.NewCache(t.TempDir())
	gen := newMemGenerated()

	// vidZ was collected by someone else; this user never saw it
	row := categorizedRow(t, gen, "vidZ", models.CategoryTechnology)

	llm := &fakeLLM{max: 1 << 20}
	stage := NewArticleGen(store, gen, cache, services.NewArticleService(llm, 200), testLangs, testExts)

	m := metrics.NewProcessor(nil, "run", "article-gen")
	if err := stage.Run(context.Background(), models.User{ID: "u1"}, m); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if _, _, failed := m.Snapshot(); failed != 0 {
		t.Errorf("foreign item recorded %d failures", failed)
	}
	if llm.calls != 0 {
		t.Errorf("foreign item reached the model: %d calls", llm.calls)
	}
	if got := gen.items[row.ID]; got.Status != models.GenStatusCategorizationCompleted {
		t.Errorf("foreign row advanced to %s", got.Status)
	}
}

func TestArticleGenLeavesUnsubtitledItemAlone(t *testing.T) {
	store := newMemContent()
	cache := subtitles.NewCache(t.TempDir())
	details := testDetails("vidA", "ch1")

	// moderation passed, but this user's subtitles are not stored yet;
	// another user's pipeline already wrote the shared article
	collected := moderatedItem(t, store, details)
	gen := newMemGenerated()
	g := categorizedRow(t, gen, "vidA", models.CategoryTechnology)
	g = g.WithArtifact(models.SizeMedium, models.GeneratedText{Markdown: "# A", Plain: "A"})
	g, err := g.Transition(models.GenStatusArticleGenerated, "article generated")
	if err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	gen.items[g.ID] = g

	llm := &fakeLLM{max: 1 << 20}
	stage := NewArticleGen(store, gen, cache, services.NewArticleService(llm, 200), testLangs, testExts)

	if err := stage.Run(context.Background(), models.User{ID: "u1"}, metrics.NewProcessor(nil, "run", "article-gen")); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	got := store.items[collected.ID]
	if got.Status != models.StatusProcessing || got.SubStatus != models.SubStatusModerationPassed {
		t.Errorf("unsubtitled item moved to %s/%s, want PROCESSING/MODERATION_PASSED", got.Status, got.SubStatus)
	}
}

func TestArticleGenRecoversHalfCompletedItem(t *testing.T) {
	store := newMemContent()
	cache := subtitles.NewCache(t.TempDir())
	details := testDetails("vidA", "ch1")
	collected := subtitledItem(t, store, cache, details, "text")

	gen := newMemGenerated()
	g := categorizedRow(t, gen, "vidA", models.CategoryTechnology)
	g = g.WithArtifact(models.SizeMedium, models.GeneratedText{Markdown: "# A", Plain: "A"})
	g.ReadingTimeSeconds = 60
	g, err := g.Transition(models.GenStatusArticleGenerated, "article generated")
	if err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	gen.items[g.ID] = g

	llm := &fakeLLM{max: 1 << 20}
	stage := NewArticleGen(store, gen, cache, services.NewArticleService(llm, 200), testLangs, testExts)

	if err := stage.Run(context.Background(), models.User{ID: "u1"}, metrics.NewProcessor(nil, "run", "article-gen")); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := store.items[collected.ID]; got.Status != models.StatusProcessed {
		t.Errorf("recovery left collected at %s", got.Status)
	}
	if llm.calls != 0 {
		t.Errorf("recovery should not call the model, got %d calls", llm.calls)
	}
}
