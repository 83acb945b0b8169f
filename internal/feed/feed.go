package feed

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/deusflow/maralert/internal/logger"
)

// Item is a normalized feed record. ID is stable across runs for the same
// logical message.
type Item struct {
	ID        string
	Title     string
	Link      string
	Published string // as published by the feed; parsing is best-effort
	Body      string // feed-provided summary/description, may be empty
}

// Fetch downloads and parses the feed, returning normalized items in feed
// order.
func Fetch(ctx context.Context, url string) ([]Item, error) {
	parser := gofeed.NewParser()
	parsed, err := parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", url, err)
	}

	items := Normalize(parsed.Items)
	logger.Info("feed fetched", "url", url, "records", len(parsed.Items), "items", len(items))
	return items, nil
}

// Normalize converts raw records into Items. Records lacking every identity
// field are dropped here, before any dedup comparison happens.
func Normalize(raw []*gofeed.Item) []Item {
	items := make([]Item, 0, len(raw))
	for _, e := range raw {
		if e == nil {
			continue
		}
		item := Item{
			ID:        normalizeID(e),
			Title:     strings.TrimSpace(e.Title),
			Link:      strings.TrimSpace(e.Link),
			Published: publishedStamp(e),
			Body:      bodyText(e),
		}
		if item.ID == "" {
			logger.Warn("dropping feed record without identity", "title", item.Title)
			continue
		}
		items = append(items, item)
	}
	return items
}

// normalizeID picks the first non-empty of guid, link, title.
func normalizeID(e *gofeed.Item) string {
	for _, candidate := range []string{e.GUID, e.Link, e.Title} {
		if id := strings.TrimSpace(candidate); id != "" {
			return id
		}
	}
	return ""
}

func publishedStamp(e *gofeed.Item) string {
	if p := strings.TrimSpace(e.Published); p != "" {
		return p
	}
	return strings.TrimSpace(e.Updated)
}

func bodyText(e *gofeed.Item) string {
	if d := strings.TrimSpace(e.Description); d != "" {
		return d
	}
	return strings.TrimSpace(e.Content)
}
