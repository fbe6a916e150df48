package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// RequiredInput carries everything the title/summary prompt needs.
type RequiredInput struct {
	ID           string
	Title        string
	Tags         []string
	Categories   []string
	SubtitleText string
	SubtitleLang string
}

// RequiredOutput is the mandatory pair every video must yield before any
// further generation happens.
type RequiredOutput struct {
	Title   string `json:"TITLE"`
	Summary string `json:"SUMMARY"`
}

type RequiredContentService struct {
	llm TextGenerator
}

func NewRequiredContentService(llm TextGenerator) *RequiredContentService {
	return &RequiredContentService{llm: llm}
}

const requiredSystemPrompt = "You are a newspaper sub-editor writing headlines and standfirsts from video transcripts. " +
	"Return ONLY a valid JSON object, no preamble, no markdown, no backticks."

// Generate produces the one-line title and one-paragraph summary.
func (s *RequiredContentService) Generate(ctx context.Context, in RequiredInput) (RequiredOutput, error) {
	raw, err := s.llm.GenerateStructured(ctx, requiredSystemPrompt, buildRequiredPrompt(in))
	if err != nil {
		return RequiredOutput{}, err
	}

	var out RequiredOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return RequiredOutput{}, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	if strings.TrimSpace(out.Title) == "" || strings.TrimSpace(out.Summary) == "" {
		return RequiredOutput{}, fmt.Errorf("%w: TITLE and SUMMARY are both required", ErrSchemaInvalid)
	}
	return out, nil
}

func buildRequiredPrompt(in RequiredInput) string {
	meta := struct {
		ID         string   `json:"id"`
		Title      string   `json:"title"`
		Tags       []string `json:"tags"`
		Categories []string `json:"categories"`
	}{in.ID, in.Title, capList(in.Tags, 5), capList(in.Categories, 5)}
	metaJSON, _ := json.Marshal(meta)

	var b strings.Builder
	b.WriteString("Video metadata:\n")
	b.Write(metaJSON)
	b.WriteString(fmt.Sprintf("\n\nTranscript (language %s):\n", orDefault(in.SubtitleLang, "en")))
	b.WriteString("---TRANSCRIPT START---\n")
	b.WriteString(in.SubtitleText)
	b.WriteString("\n---TRANSCRIPT END---\n\n")
	b.WriteString("Return exactly:\n")
	b.WriteString(`{"TITLE":"<headline, at most 12 words>","SUMMARY":"<one paragraph, at most 175 words>"}`)
	return b.String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
