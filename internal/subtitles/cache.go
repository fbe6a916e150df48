// Package subtitles implements the content-addressed subtitle cache, the
// per-format cleaners, and the best-subtitle selector shared by the
// preparation and generation stages.
package subtitles

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Kind distinguishes creator-authored captions from speech-to-text ones.
type Kind string

const (
	KindManual    Kind = "manual"
	KindAutomatic Kind = "automatic"
)

// ErrNoSubtitles is returned when no usable subtitle exists for a video.
var ErrNoSubtitles = errors.New("no subtitles available")

const (
	rawFilePrefix   = "downloaded_subtitle"
	cleanFilePrefix = "clean_subtitles"
)

// Entry identifies one (kind, lang, ext) slot of a video's cache directory.
type Entry struct {
	Kind Kind
	Lang string
	Ext  string
}

// CleanEntry is an Entry with its cleaned plain text loaded.
type CleanEntry struct {
	Entry
	Text string
}

// Cache lays files out as
// <root>/<video_id>/<kind>/<lang>/<ext>/{downloaded_subtitle|clean_subtitles}.<ext>.
// The path grammar is stable; external scripts read it directly.
type Cache struct {
	root string
}

func NewCache(root string) *Cache {
	return &Cache{root: root}
}

func (c *Cache) RawPath(videoID string, e Entry) string {
	return filepath.Join(c.root, videoID, string(e.Kind), e.Lang, e.Ext, rawFilePrefix+"."+e.Ext)
}

func (c *Cache) CleanPath(videoID string, e Entry) string {
	return filepath.Join(c.root, videoID, string(e.Kind), e.Lang, e.Ext, cleanFilePrefix+"."+e.Ext)
}

func (c *Cache) WriteRaw(videoID string, e Entry, data []byte) error {
	return c.write(c.RawPath(videoID, e), data)
}

func (c *Cache) WriteClean(videoID string, e Entry, text string) error {
	return c.write(c.CleanPath(videoID, e), []byte(text))
}

func (c *Cache) write(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

// HasRaw reports whether any non-empty raw file exists for the video.
// Empty files are equivalent to absent and are deleted on discovery.
func (c *Cache) HasRaw(videoID string) (bool, error) {
	entries, err := c.scan(videoID, rawFilePrefix)
	if err != nil {
		return false, err
	}
	return len(entries) > 0, nil
}

// HasClean reports whether any non-empty cleaned file exists for the video.
func (c *Cache) HasClean(videoID string) (bool, error) {
	entries, err := c.scan(videoID, cleanFilePrefix)
	if err != nil {
		return false, err
	}
	return len(entries) > 0, nil
}

// RawEntries lists every slot holding a non-empty raw file.
func (c *Cache) RawEntries(videoID string) ([]Entry, error) {
	return c.scan(videoID, rawFilePrefix)
}

// ReadRaw loads the raw file for one slot.
func (c *Cache) ReadRaw(videoID string, e Entry) ([]byte, error) {
	return os.ReadFile(c.RawPath(videoID, e))
}

// CleanEntries loads every non-empty cleaned file for the video.
func (c *Cache) CleanEntries(videoID string) ([]CleanEntry, error) {
	entries, err := c.scan(videoID, cleanFilePrefix)
	if err != nil {
		return nil, err
	}
	out := make([]CleanEntry, 0, len(entries))
	for _, e := range entries {
		data, err := os.ReadFile(c.CleanPath(videoID, e))
		if err != nil {
			return nil, fmt.Errorf("failed to read cleaned subtitle: %w", err)
		}
		out = append(out, CleanEntry{Entry: e, Text: string(data)})
	}
	return out, nil
}

// scan walks <root>/<video_id> collecting slots whose file with the given
// prefix exists and is non-empty. Empty files are removed as it goes.
func (c *Cache) scan(videoID, prefix string) ([]Entry, error) {
	videoDir := filepath.Join(c.root, videoID)
	var found []Entry

	for _, kind := range []Kind{KindAutomatic, KindManual} {
		kindDir := filepath.Join(videoDir, string(kind))
		langs, err := os.ReadDir(kindDir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan cache: %w", err)
		}
		for _, langDir := range langs {
			if !langDir.IsDir() {
				continue
			}
			exts, err := os.ReadDir(filepath.Join(kindDir, langDir.Name()))
			if err != nil {
				return nil, fmt.Errorf("failed to scan cache: %w", err)
			}
			for _, extDir := range exts {
				if !extDir.IsDir() {
					continue
				}
				e := Entry{Kind: kind, Lang: langDir.Name(), Ext: extDir.Name()}
				path := filepath.Join(kindDir, langDir.Name(), extDir.Name(), prefix+"."+e.Ext)
				info, err := os.Stat(path)
				if os.IsNotExist(err) {
					continue
				}
				if err != nil {
					return nil, fmt.Errorf("failed to stat cache file: %w", err)
				}
				if info.Size() == 0 {
					os.Remove(path)
					continue
				}
				found = append(found, e)
			}
		}
	}
	return found, nil
}
