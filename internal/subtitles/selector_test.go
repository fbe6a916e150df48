package subtitles

import (
	"errors"
	"testing"
)

var (
	testLangPriority = []string{"en", "hi"}
	testExtPriority  = []string{"srt", "vtt", "json3"}
)

func TestSelectBestPriority(t *testing.T) {
	// language match beats manual-vs-automatic; within a language,
	// srt beats json3
	entries := []CleanEntry{
		{Entry: Entry{Kind: KindManual, Lang: "hi", Ext: "vtt"}, Text: "hindi manual"},
		{Entry: Entry{Kind: KindAutomatic, Lang: "en", Ext: "json3"}, Text: "english auto json3"},
		{Entry: Entry{Kind: KindAutomatic, Lang: "en", Ext: "srt"}, Text: "english auto srt"},
	}

	got, err := SelectBest(entries, "en", testLangPriority, testExtPriority)
	if err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if got.Kind != KindAutomatic || got.Lang != "en" || got.Ext != "srt" {
		t.Errorf("expected automatic/en/srt, got %s/%s/%s", got.Kind, got.Lang, got.Ext)
	}
}

func TestSelectBestManualWinsWithinLanguage(t *testing.T) {
	entries := []CleanEntry{
		{Entry: Entry{Kind: KindAutomatic, Lang: "en", Ext: "srt"}, Text: "auto"},
		{Entry: Entry{Kind: KindManual, Lang: "en", Ext: "json3"}, Text: "manual"},
	}
	got, err := SelectBest(entries, "en", testLangPriority, testExtPriority)
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != KindManual {
		t.Errorf("expected manual track for matching language, got %s", got.Kind)
	}
}

func TestSelectBestFallsBackToAnyLanguage(t *testing.T) {
	entries := []CleanEntry{
		{Entry: Entry{Kind: KindAutomatic, Lang: "hi", Ext: "vtt"}, Text: "hindi auto"},
	}
	got, err := SelectBest(entries, "en", testLangPriority, testExtPriority)
	if err != nil {
		t.Fatal(err)
	}
	if got.Lang != "hi" {
		t.Errorf("expected hi fallback, got %s", got.Lang)
	}
}

func TestSelectBestDefaultsLanguageToEnglish(t *testing.T) {
	entries := []CleanEntry{
		{Entry: Entry{Kind: KindManual, Lang: "en", Ext: "srt"}, Text: "english"},
		{Entry: Entry{Kind: KindManual, Lang: "hi", Ext: "srt"}, Text: "hindi"},
	}
	got, err := SelectBest(entries, "", testLangPriority, testExtPriority)
	if err != nil {
		t.Fatal(err)
	}
	if got.Lang != "en" {
		t.Errorf("expected en when video language is unset, got %s", got.Lang)
	}
}

func TestSelectBestNoSubtitles(t *testing.T) {
	if _, err := SelectBest(nil, "en", testLangPriority, testExtPriority); !errors.Is(err, ErrNoSubtitles) {
		t.Errorf("expected ErrNoSubtitles, got %v", err)
	}
}
