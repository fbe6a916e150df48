package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	ytapi "github.com/hightemp/youtube-transcript-api-go/api"
	yt "github.com/kkdai/youtube/v2"
	"github.com/mmcdole/gofeed"

	"gazette-backend/internal/models"
	"gazette-backend/internal/retry"
	"gazette-backend/internal/subtitles"
)

const channelFeedURL = "https://www.youtube.com/feeds/videos.xml?channel_id=%s"

// VideoSummary is what the channel feed exposes before enrichment.
type VideoSummary struct {
	VideoID   string
	Title     string
	Published float64
	Tags      []string
}

// YouTubeService is the external video-source adapter: channel feeds for
// discovery, the player API for enrichment, caption URLs for subtitles.
type YouTubeService struct {
	httpClient      *http.Client
	feedParser      *gofeed.Parser
	ytClient        *yt.Client
	transcriptAPI   *ytapi.YouTubeTranscriptApi
	targetLanguages []string
	extPriority     []string
}

func NewYouTubeService(targetLanguages, extPriority []string) *YouTubeService {
	return &YouTubeService{
		httpClient:      &http.Client{Timeout: 30 * time.Second},
		feedParser:      gofeed.NewParser(),
		ytClient:        &yt.Client{},
		transcriptAPI:   ytapi.NewYouTubeTranscriptApi(),
		targetLanguages: targetLanguages,
		extPriority:     extPriority,
	}
}

// LatestVideos lists the channel's most recent uploads, newest first.
func (s *YouTubeService) LatestVideos(ctx context.Context, channelID string, max int) ([]VideoSummary, error) {
	feed, err := s.feedParser.ParseURLWithContext(fmt.Sprintf(channelFeedURL, channelID), ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse channel feed %s: %w", channelID, err)
	}

	var out []VideoSummary
	for _, item := range feed.Items {
		if max > 0 && len(out) >= max {
			break
		}
		videoID := feedVideoID(item)
		if videoID == "" {
			log.Printf("Skipping feed entry without a video id: %q", item.Title)
			continue
		}
		sum := VideoSummary{VideoID: videoID, Title: item.Title, Tags: item.Categories}
		if item.PublishedParsed != nil {
			sum.Published = float64(item.PublishedParsed.Unix())
		}
		out = append(out, sum)
	}
	return out, nil
}

// feedVideoID pulls the video id from a channel feed entry. YouTube carries
// it in the yt:videoId extension; the guid "yt:video:<id>" is the fallback.
func feedVideoID(item *gofeed.Item) string {
	if ext, ok := item.Extensions["yt"]; ok {
		if ids, ok := ext["videoId"]; ok && len(ids) > 0 {
			return ids[0].Value
		}
	}
	return strings.TrimPrefix(item.GUID, "yt:video:")
}

// Enrich resolves full video details, including the caption manifest.
func (s *YouTubeService) Enrich(ctx context.Context, sum VideoSummary, channelID string) (*models.VideoDetails, error) {
	video, err := s.ytClient.GetVideoContext(ctx, sum.VideoID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch video metadata for %s: %w", sum.VideoID, err)
	}

	details := &models.VideoDetails{
		ID:          sum.VideoID,
		Title:       video.Title,
		ChannelID:   channelID,
		ChannelName: video.Author,
		Description: video.Description,
		ViewCount:   int64(video.Views),
		DurationSec: int(video.Duration.Seconds()),
		Tags:        sum.Tags,
		Subtitles:   s.captionManifest(video.CaptionTracks),
	}
	if video.ChannelID != "" {
		details.ChannelID = video.ChannelID
	}
	if !video.PublishDate.IsZero() {
		details.ReleaseDate = float64(video.PublishDate.Unix())
	} else {
		details.ReleaseDate = sum.Published
	}
	if n := len(video.Thumbnails); n > 0 {
		details.Thumbnail = video.Thumbnails[n-1].URL
	}
	details.Language = s.languageHint(video.CaptionTracks)

	return details, nil
}

// captionManifest maps the player's caption tracks into the manifest shape,
// restricted to the configured target languages and extensions. The player
// serves each track's URL in any supported format via the fmt parameter.
func (s *YouTubeService) captionManifest(tracks []yt.CaptionTrack) models.Subtitles {
	manifest := models.Subtitles{
		Manual:    map[string]map[string]string{},
		Automatic: map[string]map[string]string{},
	}
	for _, track := range tracks {
		lang := primaryLanguage(track.LanguageCode)
		if !s.isTargetLanguage(lang) {
			continue
		}
		branch := manifest.Manual
		if track.Kind == "asr" {
			branch = manifest.Automatic
		}
		if branch[lang] == nil {
			branch[lang] = map[string]string{}
		}
		for _, ext := range s.extPriority {
			branch[lang][ext] = track.BaseURL + "&fmt=" + ext
		}
	}
	return manifest
}

// languageHint picks the language of the first manual track, else the first
// automatic one.
func (s *YouTubeService) languageHint(tracks []yt.CaptionTrack) string {
	for _, track := range tracks {
		if track.Kind != "asr" {
			return primaryLanguage(track.LanguageCode)
		}
	}
	for _, track := range tracks {
		return primaryLanguage(track.LanguageCode)
	}
	return ""
}

func (s *YouTubeService) isTargetLanguage(lang string) bool {
	for _, l := range s.targetLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

// primaryLanguage reduces a BCP-47 tag to its primary subtag (en-US -> en).
func primaryLanguage(code string) string {
	if i := strings.IndexByte(code, '-'); i > 0 {
		return code[:i]
	}
	return code
}

// DownloadSubtitle fetches one caption file from its manifest URL.
func (s *YouTubeService) DownloadSubtitle(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := retry.Do(ctx, 3, time.Second, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to fetch subtitle: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("subtitle fetch returned HTTP %d", resp.StatusCode)
		}
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read subtitle body: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// TranscriptFallback fetches captions through the transcript API when every
// manifest URL for a language failed. The result is already plain text.
func (s *YouTubeService) TranscriptFallback(videoID, lang string) (string, error) {
	languages := []string{lang}
	if lang == "" {
		languages = nil
	}
	transcript, err := s.transcriptAPI.GetTranscript(videoID, languages)
	if err != nil {
		transcript, err = s.transcriptAPI.GetTranscript(videoID, nil)
		if err != nil {
			return "", fmt.Errorf("no subtitles available via transcript API: %w", err)
		}
	}
	if len(transcript.Entries) == 0 {
		return "", subtitles.ErrNoSubtitles
	}

	var fullText strings.Builder
	for _, entry := range transcript.Entries {
		text := strings.TrimSpace(entry.Text)
		if text == "" {
			continue
		}
		fullText.WriteString(text)
		fullText.WriteString(" ")
	}

	cleaned := strings.TrimSpace(fullText.String())
	if cleaned == "" {
		return "", subtitles.ErrNoSubtitles
	}
	return cleaned, nil
}
