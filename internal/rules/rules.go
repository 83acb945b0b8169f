// Package rules holds the keyword tables, focus MOS codes, prompt directive
// overrides and fallback strings that drive classification and summarization.
// Everything has a compiled-in default; a YAML file can override any field.
package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Rules struct {
	// Keyword buckets for classification. Matching is case-insensitive.
	PromotionKeywords []string `yaml:"promotion_keywords"`
	ResultsKeywords   []string `yaml:"results_keywords"`
	ScheduleKeywords  []string `yaml:"schedule_keywords"`

	// Interest topics that earn an FYI summary even without a focus MOS hit.
	PriorityTopics []string `yaml:"priority_topics"`

	// Four-digit MOS codes considered directly relevant, plus the prefix
	// that makes any code in that family relevant (the 17xx community).
	FocusMOS    []string `yaml:"focus_mos"`
	FocusPrefix string   `yaml:"focus_prefix"`

	// Per-mode directive overrides, keyed by mode name. Each value is a
	// fmt format string with a single %d verb for the bullet budget.
	Directives map[string]string `yaml:"directives"`

	Fallbacks Fallbacks `yaml:"fallbacks"`
}

// Fallbacks are the user-visible sentinel strings. They are configuration,
// not control flow, so deployments can reword them.
type Fallbacks struct {
	OpenLink     string `yaml:"open_link"`
	NoSummary    string `yaml:"no_summary"`
	BlockedFetch string `yaml:"blocked_fetch"`
}

// Default returns the built-in rule set.
func Default() *Rules {
	return &Rules{
		PromotionKeywords: []string{
			"officer promotions",
			"enlisted promotions",
			"promotion authority",
			"selected for promotion",
			"promotion selection",
			"promotion list",
			"approved for promotion",
			"to the grade of",
			"promotions for",
		},
		ResultsKeywords: []string{
			"results",
			"selection list",
			"selected list",
			"board results",
			"approved selection",
		},
		ScheduleKeywords: []string{
			"promotion selection boards",
			"selection boards",
			"board will convene",
			"convening date",
			"board correspondence",
			"selection board",
			"board schedule",
			"projected",
		},
		PriorityTopics: []string{
			// AI/ML
			"artificial intelligence",
			"ai",
			"machine learning",
			"ml",
			"llm",
			"data science",
			"data engineering",
			// Cyberspace
			"cyberspace",
			"cyber",
			"cybersecurity",
			"zero trust",
			"rmf",
			"ato",
			"dodin",
			"uscybercom",
			"marforcyber",
			"jfhq-dodin",
			"cmf",
			"oco",
			"dco",
			// Space
			"space",
			"satcom",
			"pnt",
			// Innovation
			"innovation",
			"experimentation",
			"pilot",
			"modernization",
			"software factory",
		},
		FocusMOS:    []string{"1701", "1702", "1710", "1720", "1721"},
		FocusPrefix: "17",
		Fallbacks: Fallbacks{
			OpenLink:     "Open the link to read this MARADMIN.",
			NoSummary:    "No extractable summary produced from the available text.",
			BlockedFetch: "(Note: full text fetch blocked; using RSS excerpt — open link for full details.)",
		},
	}
}

// Load reads a YAML override file and merges it over the defaults. Only
// non-empty fields replace their default counterparts.
func Load(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var override Rules
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}

	merged := Default()
	if len(override.PromotionKeywords) > 0 {
		merged.PromotionKeywords = override.PromotionKeywords
	}
	if len(override.ResultsKeywords) > 0 {
		merged.ResultsKeywords = override.ResultsKeywords
	}
	if len(override.ScheduleKeywords) > 0 {
		merged.ScheduleKeywords = override.ScheduleKeywords
	}
	if len(override.PriorityTopics) > 0 {
		merged.PriorityTopics = override.PriorityTopics
	}
	if len(override.FocusMOS) > 0 {
		merged.FocusMOS = override.FocusMOS
	}
	if override.FocusPrefix != "" {
		merged.FocusPrefix = override.FocusPrefix
	}
	if len(override.Directives) > 0 {
		merged.Directives = override.Directives
	}
	if override.Fallbacks.OpenLink != "" {
		merged.Fallbacks.OpenLink = override.Fallbacks.OpenLink
	}
	if override.Fallbacks.NoSummary != "" {
		merged.Fallbacks.NoSummary = override.Fallbacks.NoSummary
	}
	if override.Fallbacks.BlockedFetch != "" {
		merged.Fallbacks.BlockedFetch = override.Fallbacks.BlockedFetch
	}
	return merged, nil
}
