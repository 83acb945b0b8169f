// Package prompt builds the generation instructions for each summarization
// mode. Directives can be overridden per deployment; a broken override falls
// back to the built-in text.
package prompt

import (
	"fmt"
	"strings"

	"github.com/deusflow/maralert/internal/classify"
	"github.com/deusflow/maralert/internal/logger"
)

const base = "You summarize USMC MARADMINS for a Cyberspace Officer.\n" +
	"Output ONLY bullet points (no headings, no intro).\n" +
	"Do NOT invent details; use only the provided text. If unknown, say 'Not stated'.\n" +
	"Keep bullets tight: 1 sentence where possible, max 2 sentences.\n" +
	"Prefer concrete dates/deadlines and required actions.\n"

// Build assembles the full instruction text for a mode: fixed framing plus
// the mode directive with the bullet budget interpolated. overrides maps
// mode name to a fmt format string carrying one %d verb.
func Build(mode classify.Mode, bullets int, overrides map[string]string) string {
	return base + directive(mode, bullets, overrides)
}

func directive(mode classify.Mode, bullets int, overrides map[string]string) string {
	if tmpl, ok := overrides[string(mode)]; ok && tmpl != "" {
		s := fmt.Sprintf(tmpl, bullets)
		// Sprintf reports verb mismatches inline rather than failing.
		if !strings.Contains(s, "%!") {
			return s
		}
		logger.Warn("directive override interpolation failed, using built-in", "mode", string(mode))
	}
	return builtin(mode, bullets)
}

func builtin(mode classify.Mode, bullets int) string {
	switch mode {
	case classify.ModeReadASAP:
		return fmt.Sprintf("Provide 1–%d bullets MAX.\n", bullets) +
			"This is a PROMOTION/SELECTION LIST with names.\n" +
			"- Do NOT summarize or list names.\n" +
			"- MUST include 'READ ASAP — name list inside.'\n" +
			"Focus on: what rank(s), what population (Active/AR/Reserve), what month/timeframe, and any admin notes.\n"

	case classify.ModeDatesOnly:
		return "This is a promotion selection board schedule / dates message.\n" +
			"- First bullet: a one-sentence summary.\n" +
			"- Remaining bullets: key dates only (board correspondence due dates and convening dates).\n" +
			fmt.Sprintf("Provide up to %d bullets total.\n", bullets) +
			"No extra commentary.\n"

	case classify.ModeBriefResults:
		return fmt.Sprintf("Provide 1–%d bullets MAX.\n", bullets) +
			"This is BOARD RESULTS.\n" +
			"- Do NOT summarize names.\n" +
			"- Tell the reader to open/read the MARADMIN for names.\n"

	case classify.ModeFYISecondary:
		return fmt.Sprintf("Provide 1–%d bullets MAX.\n", bullets) +
			"Tag the first bullet with 'FYI—Not 17XX'.\n" +
			"Focus on: what it is, who it applies to, and any deadline/timeline.\n"

	case classify.ModeMinimal:
		return "Provide exactly 1 bullet.\n"

	default: // full_focus
		return fmt.Sprintf("Provide 4–%d bullets.\n", bullets) +
			"This MARADMIN is relevant to 17XX / MOS 1701/1702/1710/1720/1721.\n" +
			"If the MARADMIN lists multiple MOSs, only include details relevant to 17XX / those MOSs.\n" +
			"Emphasize deadlines/timelines, eligibility, and required actions.\n"
	}
}

// Input formats the source material handed to the generator.
func Input(title, link, published, text string) string {
	return fmt.Sprintf("Title: %s\nLink: %s\nPublished: %s\n\nMARADMIN text:\n%s",
		title, link, published, text)
}
