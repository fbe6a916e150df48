package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ModerationItem is one candidate presented to the moderation model.
type ModerationItem struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Tags       []string `json:"tags"`
	Categories []string `json:"categories"`
}

// Rejection names one item the model ruled out, with its reason.
type Rejection struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

type ModerationService struct {
	llm TextGenerator
}

func NewModerationService(llm TextGenerator) *ModerationService {
	return &ModerationService{llm: llm}
}

const moderationSystemPrompt = "You are a strict content moderator for a personal news digest. " +
	"You are given category definitions the reader does not want to see, and a list of candidate videos. " +
	"Return ONLY a valid JSON object, no preamble, no markdown, no backticks."

// Moderate asks the model which items match the not-interested rules.
// An empty rule list passes everything without a model call. A response that
// fails schema validation fails the whole batch.
func (s *ModerationService) Moderate(ctx context.Context, notInterested []string, items []ModerationItem) ([]Rejection, error) {
	if len(notInterested) == 0 || len(items) == 0 {
		return nil, nil
	}

	prompt, err := buildModerationPrompt(notInterested, items)
	if err != nil {
		return nil, err
	}

	raw, err := s.llm.GenerateStructured(ctx, moderationSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Rejected []Rejection `json:"rejected"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}

	known := make(map[string]bool, len(items))
	for _, item := range items {
		known[item.ID] = true
	}
	var out []Rejection
	for _, r := range parsed.Rejected {
		if !known[r.ID] {
			return nil, fmt.Errorf("%w: rejected unknown item %q", ErrSchemaInvalid, r.ID)
		}
		if r.Reason == "" {
			r.Reason = "matched a not-interested rule"
		}
		out = append(out, r)
	}
	return out, nil
}

func buildModerationPrompt(notInterested []string, items []ModerationItem) (string, error) {
	trimmed := make([]ModerationItem, len(items))
	for i, item := range items {
		item.Tags = capList(item.Tags, 5)
		item.Categories = capList(item.Categories, 5)
		trimmed[i] = item
	}
	itemsJSON, err := json.Marshal(trimmed)
	if err != nil {
		return "", fmt.Errorf("failed to encode moderation items: %w", err)
	}

	var b strings.Builder
	b.WriteString("The reader is NOT interested in content matching any of these definitions:\n")
	for _, rule := range notInterested {
		b.WriteString("- ")
		b.WriteString(rule)
		b.WriteString("\n")
	}
	b.WriteString("\nCandidate videos:\n")
	b.Write(itemsJSON)
	b.WriteString("\n\nReturn the subset that should be rejected as:\n")
	b.WriteString(`{"rejected":[{"id":"<video id>","reason":"<short reason>"}]}`)
	b.WriteString("\nAn empty list means nothing matches. Never reject an id that is not in the candidate list.")
	return b.String(), nil
}

func capList(list []string, max int) []string {
	if len(list) <= max {
		return list
	}
	return list[:max]
}
