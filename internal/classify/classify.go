// Package classify maps message text to a category and a summarization mode.
// Classification is a pure function of (title, body): no state, no network.
package classify

import (
	"regexp"
	"sort"
	"strings"

	"github.com/deusflow/maralert/internal/rules"
)

type Category string

const (
	CategoryPromotionList Category = "promotion_list"
	CategoryBoardSchedule Category = "board_schedule"
	CategoryResults       Category = "results"
	CategoryGeneral       Category = "general"
)

type Mode string

const (
	ModeReadASAP     Mode = "read_asap"
	ModeDatesOnly    Mode = "dates_only"
	ModeBriefResults Mode = "brief_results"
	ModeFullFocus    Mode = "full_focus"
	ModeFYISecondary Mode = "fyi_secondary"
	ModeMinimal      Mode = "minimal"
)

// Budget returns the bullet ceiling for a mode.
func (m Mode) Budget() int {
	switch m {
	case ModeReadASAP:
		return 3
	case ModeDatesOnly:
		return 14
	case ModeBriefResults:
		return 2
	case ModeFullFocus:
		return 6
	case ModeFYISecondary:
		return 3
	default:
		return 1
	}
}

// Decision is the classification outcome for one message.
type Decision struct {
	Category Category
	Mode     Mode
	Bullets  int

	FocusHits        []string // focus MOS codes found in the text, sorted
	HasFocus         bool
	HasPriorityTopic bool
}

var (
	mosRE        = regexp.MustCompile(`\b(1[0-9]{3})\b`)
	messageNumRE = regexp.MustCompile(`(?i)\bMARADMIN\s+(\d{1,4}/\d{2})\b`)
)

// Keywords at or below this length match whole words only.
const shortWordMax = 3

type rule struct {
	category Category
	match    func(text string) bool
}

// Classifier evaluates an ordered rule list over lower-cased title+body.
// The order is a hard contract: promotion lists are a strict subset of
// results announcements, so the more specific rule must run first.
type Classifier struct {
	rules   *rules.Rules
	ordered []rule
}

func New(r *rules.Rules) *Classifier {
	c := &Classifier{rules: r}
	c.ordered = []rule{
		{CategoryPromotionList, func(t string) bool {
			return containsAny(t, r.PromotionKeywords) &&
				(containsAny(t, r.ResultsKeywords) || strings.Contains(t, "promot"))
		}},
		{CategoryBoardSchedule, func(t string) bool {
			return containsAny(t, r.ScheduleKeywords) &&
				(strings.Contains(t, "board") || strings.Contains(t, "selection"))
		}},
		{CategoryResults, func(t string) bool {
			return containsAny(t, r.ResultsKeywords)
		}},
	}
	return c
}

// Classify returns the category, mode and bullet budget for a message.
func (c *Classifier) Classify(title, body string) Decision {
	text := strings.ToLower(title + "\n" + body)

	category := CategoryGeneral
	for _, rl := range c.ordered {
		if rl.match(text) {
			category = rl.category
			break
		}
	}

	hits, hasFocus := c.focusRelevance(text)
	hasTopic := containsAny(text, c.rules.PriorityTopics)

	mode := modeFor(category, hasFocus, hasTopic)
	return Decision{
		Category:         category,
		Mode:             mode,
		Bullets:          mode.Budget(),
		FocusHits:        hits,
		HasFocus:         hasFocus,
		HasPriorityTopic: hasTopic,
	}
}

func modeFor(category Category, hasFocus, hasTopic bool) Mode {
	switch category {
	case CategoryPromotionList:
		return ModeReadASAP
	case CategoryBoardSchedule:
		return ModeDatesOnly
	case CategoryResults:
		return ModeBriefResults
	}
	if hasFocus {
		return ModeFullFocus
	}
	if hasTopic {
		return ModeFYISecondary
	}
	return ModeMinimal
}

// focusRelevance reports whether the text mentions a focus MOS code or any
// code in the focus family, and which focus codes it hit.
func (c *Classifier) focusRelevance(text string) ([]string, bool) {
	codes := map[string]bool{}
	for _, m := range mosRE.FindAllStringSubmatch(text, -1) {
		codes[m[1]] = true
	}

	var hits []string
	for _, focus := range c.rules.FocusMOS {
		if codes[focus] {
			hits = append(hits, focus)
		}
	}
	sort.Strings(hits)

	anyFamily := false
	if c.rules.FocusPrefix != "" {
		for code := range codes {
			if strings.HasPrefix(code, c.rules.FocusPrefix) {
				anyFamily = true
				break
			}
		}
	}
	return hits, len(hits) > 0 || anyFamily
}

// MessageNumber extracts the MARADMIN number ("123/26") from title or body,
// or returns "" when absent.
func MessageNumber(title, body string) string {
	if m := messageNumRE.FindStringSubmatch(title + "\n" + body); m != nil {
		return m[1]
	}
	return ""
}

// containsAny distinguishes phrases and short words so that a token like
// "ai" cannot match inside "said".
func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}

		if strings.Contains(k, " ") {
			if strings.Contains(text, k) {
				return true
			}
			continue
		}

		if len(k) <= shortWordMax {
			re := regexp.MustCompile(`\b` + regexp.QuoteMeta(k) + `\b`)
			if re.MatchString(text) {
				return true
			}
			continue
		}

		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
