// Package report assembles the digest message and splits it into
// transport-sized chunks.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/deusflow/maralert/internal/classify"
	"github.com/deusflow/maralert/internal/feed"
)

// DefaultChunkLimit stays under Slack's message ceiling.
const DefaultChunkLimit = 35000

// Section is one item's contribution to the digest.
type Section struct {
	Item    feed.Item
	Mode    classify.Mode
	Number  string // MARADMIN number, may be empty
	Bullets []string
}

// Build assembles the digest: a dated header with the item count, then one
// section per item with its label and bullets.
func Build(sections []Section, now time.Time) string {
	stamp := now.UTC().Format("2006-01-02")
	parts := []string{
		fmt.Sprintf("*New MARADMINS detected* (%d) — %s\n", len(sections), stamp),
	}

	for _, s := range sections {
		parts = append(parts, fmt.Sprintf("*<%s|%s>*  _(Published: %s)_\n_%s_",
			s.Item.Link, s.Item.Title, s.Item.Published, Label(s.Mode, s.Number)))
		for _, b := range s.Bullets {
			parts = append(parts, "• "+b)
		}
		parts = append(parts, "") // spacer line
	}

	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// Label renders the per-item classification line.
func Label(mode classify.Mode, number string) string {
	num := number
	if num == "" {
		num = "MARADMIN"
	}
	switch mode {
	case classify.ModeReadASAP:
		return fmt.Sprintf("🚨 [PROMOTION LIST — READ ASAP] %s", num)
	case classify.ModeDatesOnly:
		return fmt.Sprintf("[BOARD SCHEDULE] %s", num)
	case classify.ModeBriefResults:
		return fmt.Sprintf("[RESULTS — READ FOR NAMES] %s", num)
	case classify.ModeFullFocus:
		return fmt.Sprintf("[17XX] %s", num)
	case classify.ModeFYISecondary:
		return fmt.Sprintf("[FYI—Not 17XX] %s", num)
	}
	return fmt.Sprintf("[ADMIN/LOW RELEVANCE] %s", num)
}

// Chunk splits a message into pieces of at most limit characters, cutting
// only at line boundaries. Concatenating the chunks reproduces the message
// exactly.
func Chunk(msg string, limit int) []string {
	if limit < 1 {
		limit = DefaultChunkLimit
	}
	if len(msg) <= limit {
		return []string{msg}
	}

	lines := strings.SplitAfter(msg, "\n")
	var chunks []string
	var buf strings.Builder
	for _, line := range lines {
		if buf.Len()+len(line) > limit && buf.Len() > 0 {
			chunks = append(chunks, buf.String())
			buf.Reset()
		}
		buf.WriteString(line)
	}
	if buf.Len() > 0 {
		chunks = append(chunks, buf.String())
	}
	return chunks
}
