package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"gazette-backend/internal/models"
	"gazette-backend/internal/textutil"
)

// OutputTokenFactor scales input tokens into the article's length target.
const OutputTokenFactor = 1.3

// SnippetSeparator divides an article part from the continuation snippet the
// next call consumes.
const SnippetSeparator = "\n---SNIPPET---\n"

// TokenEstimator approximates token counts. The same estimator must be used
// for both input and output budgeting.
type TokenEstimator func(string) int

// EstimateTokens is the default estimator: roughly four characters per token.
func EstimateTokens(s string) int {
	return (len(s) + 3) / 4
}

// promptStage selects which multi-shot prompt variant a call uses. It is an
// explicit argument, never ambient state.
type promptStage int

const (
	stageBeginning promptStage = iota
	stageTransient
	stageFinal
)

type ArticleInput struct {
	ID       string
	Title    string
	Language string
	Content  string
}

type ArticleResult struct {
	Size               models.OutputSize
	Markdown           string
	Plain              string
	ReadingTimeSeconds int
}

type ArticleService struct {
	llm      TextGenerator
	estimate TokenEstimator
	wpm      int
}

func NewArticleService(llm TextGenerator, wpm int) *ArticleService {
	return &ArticleService{llm: llm, estimate: EstimateTokens, wpm: wpm}
}

const articleSystemPrompt = "You are a feature writer for a daily digital newspaper. " +
	"You turn video transcripts into engaging long-form articles that stand on their own, " +
	"never referring to the video, the speaker's delivery, or the transcript itself."

const outputFormatGuide = "Output format: well-structured markdown with a few section headings, " +
	"short paragraphs, and no preamble before the first heading. " +
	"The article length should be roughly 1.3 times the transcript length."

// Generate writes the long-form article: one model call when everything fits
// in the provider's context, the chunked multi-shot protocol otherwise.
func (s *ArticleService) Generate(ctx context.Context, in ArticleInput) (ArticleResult, error) {
	var markdown string
	var err error
	size := models.SizeMedium

	if s.fitsOneShot(in, in.Content) {
		markdown, err = s.generateOneShot(ctx, in)
	} else {
		size = models.SizeLong
		markdown, err = s.generateMultiShot(ctx, in)
	}
	if err != nil {
		return ArticleResult{}, err
	}
	if strings.TrimSpace(markdown) == "" {
		return ArticleResult{}, fmt.Errorf("%w: model produced an empty article", ErrSchemaInvalid)
	}

	plain := textutil.PlainText(markdown)
	return ArticleResult{
		Size:               size,
		Markdown:           markdown,
		Plain:              plain,
		ReadingTimeSeconds: textutil.ReadingTimeSeconds(plain, s.wpm),
	}, nil
}

func (s *ArticleService) generateOneShot(ctx context.Context, in ArticleInput) (string, error) {
	return s.llm.GenerateStructured(ctx, articleSystemPrompt, s.oneShotUserPrompt(in, in.Content))
}

func (s *ArticleService) generateMultiShot(ctx context.Context, in ArticleInput) (string, error) {
	chunks := s.chunkContent(in, in.Content)

	var parts []string
	snippet := ""
	for i, chunk := range chunks {
		stage := stageTransient
		switch {
		case i == 0:
			stage = stageBeginning
		case i == len(chunks)-1:
			stage = stageFinal
		}

		resp, err := s.llm.GenerateStructured(ctx, articleSystemPrompt, s.chunkUserPrompt(stage, snippet, in, chunk))
		if err != nil {
			return "", fmt.Errorf("chunk %d/%d failed: %w", i+1, len(chunks), err)
		}

		part, nextSnippet := splitSnippet(resp)
		parts = append(parts, part)
		snippet = nextSnippet
	}
	return strings.Join(parts, "\n"), nil
}

// splitSnippet divides a response on the first snippet separator. Without a
// separator the whole response is article text.
func splitSnippet(resp string) (article, snippet string) {
	if idx := strings.Index(resp, SnippetSeparator); idx >= 0 {
		return resp[:idx], strings.TrimSpace(resp[idx+len(SnippetSeparator):])
	}
	return resp, ""
}

// expectedOutput is the output budget a given input demands.
func (s *ArticleService) expectedOutput(content string) int {
	return int(math.Ceil(float64(s.estimate(content)) * OutputTokenFactor))
}

// fitsOneShot checks prompt plus expected output against the provider's
// per-request ceiling.
func (s *ArticleService) fitsOneShot(in ArticleInput, content string) bool {
	prompt := articleSystemPrompt + "\n\n" + outputFormatGuide + "\n\n" + s.oneShotUserPrompt(in, content)
	return s.estimate(prompt)+s.expectedOutput(content) <= s.llm.MaxTokens()
}

// chunkFits budgets one chunk against the transient prompt, the largest of
// the three multi-shot variants.
func (s *ArticleService) chunkFits(in ArticleInput, chunk string) bool {
	prompt := articleSystemPrompt + "\n\n" + outputFormatGuide + "\n\n" + s.chunkUserPrompt(stageTransient, "", in, chunk)
	return s.estimate(prompt)+s.expectedOutput(chunk) <= s.llm.MaxTokens()
}

// chunkContent cuts the content into maximal prompt-sized pieces whose
// concatenation reproduces the content exactly.
func (s *ArticleService) chunkContent(in ArticleInput, content string) []string {
	runes := []rune(content)
	var chunks []string
	for len(runes) > 0 {
		k := s.largestFit(in, runes)
		chunks = append(chunks, string(runes[:k]))
		runes = runes[k:]
	}
	return chunks
}

// largestFit binary-searches the longest prefix that still fits the chunk
// prompt. At least one rune always advances, so chunking terminates.
func (s *ArticleService) largestFit(in ArticleInput, runes []rune) int {
	if s.chunkFits(in, string(runes)) {
		return len(runes)
	}
	best := 1
	lo, hi := 1, len(runes)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		if s.chunkFits(in, string(runes[:mid])) {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return best
}

func (s *ArticleService) oneShotUserPrompt(in ArticleInput, content string) string {
	var b strings.Builder
	b.WriteString(outputFormatGuide)
	b.WriteString("\n\n")
	writeArticleHeader(&b, in)
	b.WriteString("---TRANSCRIPT START---\n")
	b.WriteString(content)
	b.WriteString("\n---TRANSCRIPT END---\n")
	return b.String()
}

func (s *ArticleService) chunkUserPrompt(stage promptStage, snippet string, in ArticleInput, chunk string) string {
	var b strings.Builder
	b.WriteString(outputFormatGuide)
	b.WriteString("\n\n")
	writeArticleHeader(&b, in)
	b.WriteString("The transcript arrives in parts; this call covers one part only.\n\n")

	switch stage {
	case stageBeginning:
		b.WriteString("Write the OPENING of the article for the part below. Do not wrap up.\n")
	case stageTransient:
		b.WriteString("Continuation snippet from the previous part:\n")
		b.WriteString(snippet)
		b.WriteString("\n\nContinue the article seamlessly for the part below. Do not repeat earlier prose and do not wrap up.\n")
	case stageFinal:
		b.WriteString("Continuation snippet from the previous part:\n")
		b.WriteString(snippet)
		b.WriteString("\n\nWrite the CLOSING prose of the article for the part below. Resolve open threads.\n")
	}

	b.WriteString("\n---TRANSCRIPT PART START---\n")
	b.WriteString(chunk)
	b.WriteString("\n---TRANSCRIPT PART END---\n")

	if stage != stageFinal {
		b.WriteString("\nAfter the article text, output the line\n---SNIPPET---\n")
		b.WriteString("followed by a short continuation snippet: the article's voice, unresolved threads, and your last paragraph.")
	} else {
		b.WriteString("\nOutput closing prose only. Do not output a snippet.")
	}
	return b.String()
}

func writeArticleHeader(b *strings.Builder, in ArticleInput) {
	b.WriteString(fmt.Sprintf("Video title: %s\n", in.Title))
	if in.Language != "" && in.Language != "en" {
		b.WriteString(fmt.Sprintf("Write the article in the transcript's language (%s).\n", in.Language))
	}
	b.WriteString("\n")
}
