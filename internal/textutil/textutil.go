// Package textutil derives plain-text renderings and reading times from the
// markdown the language model produces.
package textutil

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// PlainText strips markdown structure and returns the readable text with
// blocks separated by newlines.
func PlainText(markdown string) string {
	src := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var b strings.Builder
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock {
				b.WriteString("\n")
			}
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteString(" ")
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})

	lines := strings.Split(b.String(), "\n")
	var kept []string
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func WordCount(s string) int {
	return len(strings.Fields(s))
}

// ReadingTimeSeconds estimates reading time at the given words-per-minute
// speed, floored at one second for any non-empty text.
func ReadingTimeSeconds(s string, wpm int) int {
	if wpm <= 0 {
		wpm = 200
	}
	seconds := WordCount(s) * 60 / wpm
	if seconds < 1 {
		return 1
	}
	return seconds
}
