package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mmcdole/gofeed"
)

func TestNormalizeIDPriority(t *testing.T) {
	cases := []struct {
		name string
		item *gofeed.Item
		want string
	}{
		{"guid wins", &gofeed.Item{GUID: "g1", Link: "l1", Title: "t1"}, "g1"},
		{"link next", &gofeed.Item{Link: "l1", Title: "t1"}, "l1"},
		{"title last", &gofeed.Item{Title: "t1"}, "t1"},
		{"whitespace guid skipped", &gofeed.Item{GUID: "   ", Link: "l1"}, "l1"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			items := Normalize([]*gofeed.Item{c.item})
			if len(items) != 1 {
				t.Fatalf("got %d items, want 1", len(items))
			}
			if items[0].ID != c.want {
				t.Errorf("ID = %q, want %q", items[0].ID, c.want)
			}
		})
	}
}

func TestNormalizeDropsIdentitylessRecords(t *testing.T) {
	raw := []*gofeed.Item{
		{GUID: "keep-1", Title: "First"},
		{}, // no guid, link, or title
		nil,
		{GUID: "keep-2", Title: "Second"},
	}
	items := Normalize(raw)
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].ID != "keep-1" || items[1].ID != "keep-2" {
		t.Errorf("order not preserved: %v, %v", items[0].ID, items[1].ID)
	}
}

func TestNormalizeBodyPrefersDescription(t *testing.T) {
	items := Normalize([]*gofeed.Item{
		{GUID: "a", Description: "short desc", Content: "long content"},
		{GUID: "b", Content: "content only"},
	})
	if items[0].Body != "short desc" {
		t.Errorf("Body = %q, want description", items[0].Body)
	}
	if items[1].Body != "content only" {
		t.Errorf("Body = %q, want content fallback", items[1].Body)
	}
}

func TestNormalizeFallsBackToUpdatedStamp(t *testing.T) {
	items := Normalize([]*gofeed.Item{
		{GUID: "a", Updated: "Mon, 02 Jan 2026 15:04:05 GMT"},
	})
	if items[0].Published != "Mon, 02 Jan 2026 15:04:05 GMT" {
		t.Errorf("Published = %q", items[0].Published)
	}
}

func TestFetchParsesRSS(t *testing.T) {
	rss := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>Messages</title>
<item><guid>id-1</guid><title>MARADMIN 1/26</title><link>https://example.mil/1</link>
<description>first body</description></item>
<item><guid>id-2</guid><title>MARADMIN 2/26</title><link>https://example.mil/2</link>
<description>second body</description></item>
</channel></rss>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rss)
	}))
	defer srv.Close()

	items, err := Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].ID != "id-1" || items[0].Title != "MARADMIN 1/26" || items[0].Body != "first body" {
		t.Errorf("first item = %+v", items[0])
	}
}

func TestFetchBadURLFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected an error for a failing feed endpoint")
	}
}
