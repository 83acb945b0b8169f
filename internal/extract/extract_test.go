package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestLooksLikeFullMessage(t *testing.T) {
	cases := []struct {
		body string
		want bool
	}{
		{"MARADMIN 123/26 announces the following", true},
		{"MSGID/GENADMIN/CMC WASHINGTON DC", true},
		{"R 301230Z DEC 25\nFM CMC WASHINGTON DC", true},
		{"A short teaser sentence about the message.", false},
		{"", false},
		{"   ", false},
	}
	for _, c := range cases {
		if got := LooksLikeFullMessage(c.body); got != c.want {
			t.Errorf("LooksLikeFullMessage(%q) = %v, want %v", c.body, got, c.want)
		}
	}
}

func TestCleanFeedBody(t *testing.T) {
	in := "<p>First para</p><p>Second para</p><br>Tail"
	out := CleanFeedBody(in)
	if strings.Contains(out, "<") {
		t.Errorf("markup left in output: %q", out)
	}
	if !strings.Contains(out, "First para") || !strings.Contains(out, "Second para") {
		t.Errorf("content lost: %q", out)
	}
	if strings.Contains(out, "\n\n\n") {
		t.Errorf("blank runs not collapsed: %q", out)
	}
}

func TestSliceFromMarker(t *testing.T) {
	boilerplate := strings.Repeat("nav menu footer\n", 50)
	text := boilerplate + "MARADMINS : 123/26\nthe substantive message body"
	got := SliceFromMarker(text)
	if !strings.HasPrefix(got, "MARADMINS : 123/26") {
		t.Errorf("slice should start at the marker, got prefix %q", got[:40])
	}
}

func TestSliceFromMarkerPriorityOrder(t *testing.T) {
	text := "MSGID/GENADMIN later\n...\nMARADMIN 9/26 first pattern wins"
	got := SliceFromMarker(text)
	// The numbered-message patterns outrank MSGID; the first marker found in
	// priority order decides, not document order.
	if !strings.HasPrefix(got, "MARADMIN 9/26") {
		t.Errorf("got prefix %q", got[:30])
	}
}

func TestSliceWithoutMarkerTakesPrefix(t *testing.T) {
	text := strings.Repeat("b", 30000)
	got := SliceFromMarker(text)
	if len(got) != noMarkerWindow {
		t.Errorf("len = %d, want %d", len(got), noMarkerWindow)
	}
}

func TestResolvePrefersFullFeedBody(t *testing.T) {
	x := New(time.Second)
	body := "<p>MARADMIN 55/26</p><p>Full message text here</p>"
	out := x.Resolve(context.Background(), "http://unreachable.invalid/x", body)
	if !out.FromFeed {
		t.Fatalf("expected feed body to be used without fetching")
	}
	if !strings.Contains(out.Text, "Full message text here") {
		t.Errorf("text = %q", out.Text)
	}
}

func TestResolveFetchesPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Errorf("request sent without a user agent")
		}
		w.Write([]byte("<html><body><nav>menus</nav><div>MARADMIN 77/26 message body content</div></body></html>"))
	}))
	defer srv.Close()

	x := New(time.Second)
	out := x.Resolve(context.Background(), srv.URL, "teaser only")
	if out.FromFeed {
		t.Fatalf("expected page fetch, got feed body")
	}
	if !strings.Contains(out.Text, "MARADMIN 77/26") {
		t.Errorf("text = %q", out.Text)
	}
}

func TestResolveForbiddenFallsBackToFeedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	x := New(time.Second)
	out := x.Resolve(context.Background(), srv.URL, "<p>teaser text from the feed</p>")
	if !out.FromFeed || !out.Fallback {
		t.Fatalf("expected feed-body fallback, got %+v", out)
	}
	if !out.Blocked {
		t.Errorf("403 should be flagged as blocked")
	}
	if !strings.Contains(out.Text, "teaser text from the feed") {
		t.Errorf("text = %q", out.Text)
	}
}

func TestResolveForbiddenWithEmptyBodyIsSentinelOutcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	x := New(time.Second)
	out := x.Resolve(context.Background(), srv.URL, "")
	if out.Text != "" {
		t.Errorf("expected empty outcome, got %q", out.Text)
	}
	if !out.Blocked || !out.Fallback {
		t.Errorf("outcome flags = %+v", out)
	}
}

func TestResolveServerErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	x := New(time.Second)
	out := x.Resolve(context.Background(), srv.URL, "<p>body</p>")
	if !out.Fallback {
		t.Fatalf("expected fallback outcome")
	}
	if out.Blocked {
		t.Errorf("502 must not be flagged as a 403 denial")
	}
}
