// Package extract turns a feed item into the plain text worth summarizing:
// either the feed-provided body when it already carries the full message, or
// the linked Marines.mil page, cleaned and sliced down to the substantive
// part.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/deusflow/maralert/internal/logger"
)

const (
	// Character caps for page text. A found marker keeps a generous window;
	// without one the page is assumed to be mostly boilerplate.
	markerWindow   = 20000
	noMarkerWindow = 12000

	maxBodyBytes = 4 << 20
)

// HTTPError is a non-2xx page fetch. Marines.mil answers 403 to non-browser
// clients, which callers treat as "fall back to the feed body".
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d fetching %s", e.StatusCode, e.URL)
}

// Structural markers that denote the start of the message text, tried in
// priority order.
var markers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bMARADMINS?\s*:\s*\d+/\d+\b`),
	regexp.MustCompile(`(?i)\bMARADMIN\s+\d+/\d+\b`),
	regexp.MustCompile(`(?i)\bMSGID/GENADMIN\b`),
}

var (
	blankRunsRE = regexp.MustCompile(`\n{3,}`)
	// Leading military date-time-group, e.g. "R 301230Z DEC 25".
	dtgRE = regexp.MustCompile(`(?im)^r\s+\d{6}z\s+[a-z]{3}\s+\d{2}`)
)

// Outcome is the per-item extraction result. An empty Text means neither the
// page nor the feed body produced anything usable and the item should get
// the open-the-link sentinel.
type Outcome struct {
	Text     string
	FromFeed bool // feed body used (full-message heuristic or fallback)
	Fallback bool // feed body stood in because the page fetch failed
	Blocked  bool // the failed fetch was specifically a 403 denial
}

type Extractor struct {
	client *http.Client
}

func New(timeout time.Duration) *Extractor {
	return &Extractor{
		client: &http.Client{Timeout: timeout},
	}
}

// Resolve applies the decision policy: feed body when it looks complete,
// otherwise the fetched page, otherwise the feed body as fallback. Fetch
// failures are logged and degrade the item, never the run.
func (x *Extractor) Resolve(ctx context.Context, link, feedBody string) Outcome {
	if LooksLikeFullMessage(feedBody) {
		if text := CleanFeedBody(feedBody); text != "" {
			return Outcome{Text: text, FromFeed: true}
		}
	}

	pageText, err := x.fetchMessageText(ctx, link)
	if err == nil {
		return Outcome{Text: pageText}
	}

	var httpErr *HTTPError
	blocked := errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusForbidden
	logger.Warn("page fetch failed, falling back to feed body", "url", link, "error", err)

	if text := CleanFeedBody(feedBody); text != "" {
		return Outcome{Text: text, FromFeed: true, Fallback: true, Blocked: blocked}
	}
	return Outcome{Fallback: true, Blocked: blocked}
}

// LooksLikeFullMessage reports whether a feed body already contains the full
// message text, so no page fetch is needed.
func LooksLikeFullMessage(body string) bool {
	t := strings.ToLower(strings.TrimSpace(body))
	if t == "" {
		return false
	}
	return strings.Contains(t, "maradmin") ||
		strings.Contains(t, "msgid/genadmin") ||
		dtgRE.MatchString(t)
}

// CleanFeedBody converts an HTML feed body to normalized plain text.
func CleanFeedBody(body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}

	// Preserve line structure before tag stripping.
	replacer := strings.NewReplacer(
		"<br>", "\n", "<br/>", "\n", "<br />", "\n",
		"</p>", "\n\n", "</div>", "\n",
	)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(replacer.Replace(body)))
	if err != nil {
		return collapseBlankRuns(body)
	}
	return collapseBlankRuns(doc.Text())
}

// fetchMessageText downloads the linked page and extracts the message text.
func (x *Extractor) fetchMessageText(ctx context.Context, link string) (string, error) {
	html, err := x.get(ctx, link)
	if err != nil {
		return "", err
	}

	text := pageText(html, link)
	if text == "" {
		return "", fmt.Errorf("no visible text at %s", link)
	}
	return SliceFromMarker(text), nil
}

func (x *Extractor) get(ctx context.Context, link string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	setBrowserHeaders(req)

	resp, err := x.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", link, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &HTTPError{StatusCode: resp.StatusCode, URL: link}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", link, err)
	}
	return string(data), nil
}

// setBrowserHeaders sends a realistic desktop Chrome header set. Marines.mil
// fronts a WAF that 403s bare clients.
func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) "+
			"AppleWebKit/537.36 (KHTML, like Gecko) "+
			"Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Referer", "https://www.marines.mil/")
	req.Header.Set("DNT", "1")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "same-origin")
	req.Header.Set("Sec-Fetch-User", "?1")
}

// pageText extracts visible text: readability first, whole-document goquery
// text when readability finds no article.
func pageText(html, link string) string {
	if u, err := url.Parse(link); err == nil {
		if article, err := readability.FromReader(strings.NewReader(html), u); err == nil {
			if text := strings.TrimSpace(article.TextContent); text != "" {
				return collapseBlankRuns(text)
			}
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return collapseBlankRuns(doc.Text())
}

// SliceFromMarker cuts page text down to the substantive message: from the
// first structural marker forward, capped; or a short prefix when no marker
// is present.
func SliceFromMarker(text string) string {
	for _, re := range markers {
		if loc := re.FindStringIndex(text); loc != nil {
			end := loc[0] + markerWindow
			if end > len(text) {
				end = len(text)
			}
			return strings.TrimSpace(text[loc[0]:end])
		}
	}
	if len(text) > noMarkerWindow {
		return strings.TrimSpace(text[:noMarkerWindow])
	}
	return strings.TrimSpace(text)
}

func collapseBlankRuns(s string) string {
	return strings.TrimSpace(blankRunsRE.ReplaceAllString(s, "\n\n"))
}
