package subtitles

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	srtTimestampRe = regexp.MustCompile(`^\d{2}:\d{2}:\d{2},\d{3}\s*-->\s*\d{2}:\d{2}:\d{2},\d{3}`)
	vttTimestampRe = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{3}\s*-->\s*\d{2}:\d{2}:\d{2}\.\d{3}`)
	sequenceRe     = regexp.MustCompile(`^\d+$`)
	inlineTagRe    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

// Clean converts one raw subtitle file into plain text with all whitespace
// collapsed to single spaces. Unsupported extensions are an error.
func Clean(ext, raw string) (string, error) {
	switch strings.ToLower(ext) {
	case "srt":
		return cleanSRT(raw), nil
	case "vtt":
		return cleanVTT(raw), nil
	case "json3":
		return cleanJSON3(raw)
	default:
		return "", fmt.Errorf("unsupported subtitle format %q", ext)
	}
}

func cleanSRT(raw string) string {
	var kept []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || sequenceRe.MatchString(line) || srtTimestampRe.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return collapse(strings.Join(kept, " "))
}

func cleanVTT(raw string) string {
	lines := strings.Split(raw, "\n")

	// The WEBVTT header block runs to the first blank line.
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[0]), "WEBVTT") {
		for i, line := range lines {
			if strings.TrimSpace(line) == "" {
				lines = lines[i+1:]
				break
			}
		}
	}

	var kept []string
	prev := ""
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || vttTimestampRe.MatchString(line) {
			continue
		}
		line = strings.TrimSpace(inlineTagRe.ReplaceAllString(line, ""))
		if line == "" || sequenceRe.MatchString(line) {
			continue
		}
		// auto-generated tracks repeat each cue's text on the next cue
		if line == prev {
			continue
		}
		kept = append(kept, line)
		prev = line
	}
	return collapse(strings.Join(kept, " "))
}

type json3Doc struct {
	Events []struct {
		Segs []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

func cleanJSON3(raw string) (string, error) {
	var doc json3Doc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		// a failed caption download can leave an error page in the slot
		return "", fmt.Errorf("failed to parse json3 subtitle: %w", err)
	}
	var b strings.Builder
	for _, ev := range doc.Events {
		for _, seg := range ev.Segs {
			b.WriteString(seg.UTF8)
		}
	}
	return collapse(strings.ReplaceAll(b.String(), "\n", " ")), nil
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
