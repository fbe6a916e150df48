package worker

import (
	"context"
	"fmt"

	"gazette-backend/internal/models"
	"gazette-backend/internal/repository"
	"gazette-backend/internal/services"
)

// memContent is an in-memory ContentStore with the same guard semantics as
// the mongo-backed repository.
type memContent struct {
	items map[string]models.CollectedContent
}

func newMemContent() *memContent {
	return &memContent{items: map[string]models.CollectedContent{}}
}

func (s *memContent) Create(_ context.Context, c models.CollectedContent) error {
	for _, existing := range s.items {
		if existing.UserID == c.UserID && existing.ExternalID == c.ExternalID {
			return repository.ErrDuplicate
		}
	}
	s.items[c.ID] = c
	return nil
}

func (s *memContent) Find(_ context.Context, f repository.ContentFilter) ([]models.CollectedContent, error) {
	var out []models.CollectedContent
	for _, c := range s.items {
		if f.UserID != "" && c.UserID != f.UserID {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.SubStatus != "" && c.SubStatus != f.SubStatus {
			continue
		}
		if f.ContentType != "" && c.ContentType != f.ContentType {
			continue
		}
		if f.CreatedBefore > 0 && c.CreatedAt > f.CreatedBefore {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *memContent) GetByID(_ context.Context, id string) (*models.CollectedContent, error) {
	if c, ok := s.items[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (s *memContent) GetByExternalID(_ context.Context, userID, externalID string) (*models.CollectedContent, error) {
	for _, c := range s.items {
		if c.UserID == userID && c.ExternalID == externalID {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (s *memContent) Replace(_ context.Context, c models.CollectedContent, expected models.ContentStatus) error {
	existing, ok := s.items[c.ID]
	if !ok || existing.Status != expected {
		return repository.ErrNotModified
	}
	s.items[c.ID] = c
	return nil
}

type memGenerated struct {
	items map[string]models.GeneratedContent
}

func newMemGenerated() *memGenerated {
	return &memGenerated{items: map[string]models.GeneratedContent{}}
}

func (s *memGenerated) Create(_ context.Context, g models.GeneratedContent) error {
	s.items[g.ID] = g
	return nil
}

func (s *memGenerated) ListByStatus(_ context.Context, status models.GeneratedStatus) ([]models.GeneratedContent, error) {
	var out []models.GeneratedContent
	for _, g := range s.items {
		if g.Status == status {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *memGenerated) FindByExternalID(_ context.Context, externalID string) (*models.GeneratedContent, error) {
	for _, g := range s.items {
		if g.ExternalID == externalID {
			g := g
			return &g, nil
		}
	}
	return nil, nil
}

func (s *memGenerated) FindByExternalIDs(_ context.Context, externalIDs []string) ([]models.GeneratedContent, error) {
	want := map[string]bool{}
	for _, id := range externalIDs {
		want[id] = true
	}
	var out []models.GeneratedContent
	for _, g := range s.items {
		if want[g.ExternalID] {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *memGenerated) Replace(_ context.Context, g models.GeneratedContent, expected models.GeneratedStatus) error {
	existing, ok := s.items[g.ID]
	if !ok || existing.Status != expected {
		return repository.ErrNotModified
	}
	s.items[g.ID] = g
	return nil
}

type memPapers struct {
	papers map[string]models.Newspaper
}

func newMemPapers() *memPapers {
	return &memPapers{papers: map[string]models.Newspaper{}}
}

func (s *memPapers) FindByUserDay(_ context.Context, userID, day string) (*models.Newspaper, error) {
	if n, ok := s.papers[userID+"|"+day]; ok {
		return &n, nil
	}
	return nil, nil
}

func (s *memPapers) Upsert(_ context.Context, n models.Newspaper) error {
	s.papers[n.UserID+"|"+n.Day] = n
	return nil
}

// fakeSource scripts the external video source.
type fakeSource struct {
	videos      map[string][]services.VideoSummary
	details     map[string]*models.VideoDetails
	files       map[string]string // url -> raw subtitle content
	transcripts map[string]string // video id -> fallback text
	enriched    int
}

func (s *fakeSource) LatestVideos(_ context.Context, channelID string, _ int) ([]services.VideoSummary, error) {
	return s.videos[channelID], nil
}

func (s *fakeSource) Enrich(_ context.Context, sum services.VideoSummary, _ string) (*models.VideoDetails, error) {
	s.enriched++
	if d, ok := s.details[sum.VideoID]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("no details for %s", sum.VideoID)
}

func (s *fakeSource) DownloadSubtitle(_ context.Context, url string) ([]byte, error) {
	if data, ok := s.files[url]; ok {
		return []byte(data), nil
	}
	return nil, fmt.Errorf("download failed for %s", url)
}

func (s *fakeSource) TranscriptFallback(videoID, _ string) (string, error) {
	if text, ok := s.transcripts[videoID]; ok {
		return text, nil
	}
	return "", fmt.Errorf("no transcript for %s", videoID)
}

// fakeLLM scripts model responses for stage tests.
type fakeLLM struct {
	responses   []string
	defaultResp string
	max         int
	calls       int
}

func (f *fakeLLM) GenerateStructured(_ context.Context, _, _ string) (string, error) {
	f.calls++
	if len(f.responses) > 0 {
		resp := f.responses[0]
		f.responses = f.responses[1:]
		return resp, nil
	}
	if f.defaultResp != "" {
		return f.defaultResp, nil
	}
	return "", fmt.Errorf("no scripted response for call %d", f.calls)
}

func (f *fakeLLM) MaxTokens() int { return f.max }
