// Package app wires the pipeline: fetch feed, filter seen ids, extract text,
// classify, summarize, format, deliver, persist.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/deusflow/maralert/internal/classify"
	"github.com/deusflow/maralert/internal/config"
	"github.com/deusflow/maralert/internal/extract"
	"github.com/deusflow/maralert/internal/feed"
	"github.com/deusflow/maralert/internal/logger"
	"github.com/deusflow/maralert/internal/metrics"
	"github.com/deusflow/maralert/internal/prompt"
	"github.com/deusflow/maralert/internal/report"
	"github.com/deusflow/maralert/internal/rules"
	"github.com/deusflow/maralert/internal/summarize"
)

// SeenStore tracks which item ids have already been alerted. Load never
// fails; Save may, and that failure is worth surfacing.
type SeenStore interface {
	Load()
	IsNew(id string) bool
	MarkSeen(id string)
	Save(lastRun time.Time) error
}

// Deliverer posts one digest chunk to the chat transport.
type Deliverer interface {
	Deliver(ctx context.Context, text string) error
}

// TextResolver produces the text to summarize for one item.
type TextResolver interface {
	Resolve(ctx context.Context, link, feedBody string) extract.Outcome
}

// FetchFunc retrieves normalized feed items.
type FetchFunc func(ctx context.Context, url string) ([]feed.Item, error)

// Deps are the pipeline collaborators, injectable for tests.
type Deps struct {
	Rules      *rules.Rules
	Store      SeenStore
	Resolver   TextResolver
	Summarizer *summarize.Summarizer
	Deliverer  Deliverer
	Fetch      FetchFunc
	Out        io.Writer
	Now        func() time.Time
}

type Pipeline struct {
	cfg        *config.Config
	rules      *rules.Rules
	classifier *classify.Classifier
	store      SeenStore
	resolver   TextResolver
	summarizer *summarize.Summarizer
	deliverer  Deliverer
	fetch      FetchFunc
	out        io.Writer
	now        func() time.Time
}

func New(cfg *config.Config, deps Deps) *Pipeline {
	p := &Pipeline{
		cfg:        cfg,
		rules:      deps.Rules,
		classifier: classify.New(deps.Rules),
		store:      deps.Store,
		resolver:   deps.Resolver,
		summarizer: deps.Summarizer,
		deliverer:  deps.Deliverer,
		fetch:      deps.Fetch,
		out:        deps.Out,
		now:        deps.Now,
	}
	if p.fetch == nil {
		p.fetch = feed.Fetch
	}
	if p.out == nil {
		p.out = os.Stdout
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Run executes one full pipeline pass. Per-item failures degrade that item;
// only delivery and state-save failures are fatal.
func (p *Pipeline) Run(ctx context.Context) error {
	started := p.now()
	p.store.Load()

	items, err := p.fetch(ctx, p.cfg.FeedURL)
	if err != nil {
		// Feed-level failure: this feed contributes nothing, the run goes on.
		logger.Error("feed fetch failed", "error", err)
		items = nil
	}
	if len(items) > p.cfg.MaxItems {
		items = items[:p.cfg.MaxItems]
	}
	metrics.Global.AddItemsFetched(len(items))

	var fresh []feed.Item
	for _, item := range items {
		if p.cfg.Force || p.store.IsNew(item.ID) {
			fresh = append(fresh, item)
		} else {
			metrics.Global.IncrementDuplicatesSkipped()
		}
	}
	metrics.Global.AddNewItems(len(fresh))

	if len(fresh) == 0 {
		logger.Info("no new items this run")
		return p.finish(started)
	}
	logger.Info("processing new items", "count", len(fresh))

	sections := make([]report.Section, 0, len(fresh))
	for _, item := range fresh {
		sections = append(sections, p.process(ctx, item))
		// Seen once attempted, independent of the summarization outcome:
		// at-most-once alerting even when downstream fails.
		p.store.MarkSeen(item.ID)
	}

	message := report.Build(sections, p.now())
	chunks := report.Chunk(message, p.cfg.ChunkLimit)

	if p.cfg.DryRun || p.cfg.ShowRaw {
		for _, chunk := range chunks {
			fmt.Fprintln(p.out, chunk)
			fmt.Fprintln(p.out, "\n"+strings.Repeat("=", 80)+"\n")
		}
	} else {
		for _, chunk := range chunks {
			if err := p.deliverer.Deliver(ctx, chunk); err != nil {
				// The one failure that is not swallowed: a silently dropped
				// chunk is a permanently missed alert. State stays unsaved
				// so the whole batch re-alerts next run.
				metrics.Global.SetError(err.Error())
				return err
			}
			metrics.Global.IncrementChunksDelivered()
		}
	}

	return p.finish(started)
}

func (p *Pipeline) finish(started time.Time) error {
	now := p.now()
	if err := p.store.Save(now); err != nil {
		metrics.Global.SetError(err.Error())
		return fmt.Errorf("persist run state: %w", err)
	}
	metrics.Global.SetLastRun()
	metrics.Global.RecordRunDuration(now.Sub(started))
	return nil
}

// process resolves one item to a digest section. Every item resolves to
// displayable content; worst case is the open-the-link sentinel.
func (p *Pipeline) process(ctx context.Context, item feed.Item) report.Section {
	outcome := p.resolver.Resolve(ctx, item.Link, item.Body)
	if outcome.Fallback {
		metrics.Global.IncrementFetchFallbacks()
	}
	if outcome.Text == "" {
		return report.Section{
			Item:    item,
			Mode:    classify.ModeMinimal,
			Bullets: []string{p.rules.Fallbacks.OpenLink},
		}
	}

	number := classify.MessageNumber(item.Title, outcome.Text)
	decision := p.classifier.Classify(item.Title, outcome.Text)
	logger.Debug("classified item",
		"id", item.ID, "category", string(decision.Category), "mode", string(decision.Mode))

	if p.cfg.ShowRaw {
		p.printRaw(item, decision, number, outcome.Text)
		return report.Section{
			Item:   item,
			Mode:   decision.Mode,
			Number: number,
			Bullets: []string{
				"(show-raw enabled; not summarized)",
				"Mode: " + string(decision.Mode),
				"Open the link to read.",
			},
		}
	}

	instructions := prompt.Build(decision.Mode, decision.Bullets, p.rules.Directives)
	input := prompt.Input(item.Title, item.Link, item.Published, outcome.Text)
	result := p.summarizer.Summarize(ctx, summarize.Request{
		Instructions: instructions,
		Input:        input,
		Bullets:      decision.Bullets,
	})

	bullets := result.Bullets
	if outcome.Blocked && !result.Fallback {
		bullets = append(bullets[:len(bullets):len(bullets)], p.rules.Fallbacks.BlockedFetch)
	}
	return report.Section{Item: item, Mode: decision.Mode, Number: number, Bullets: bullets}
}

func (p *Pipeline) printRaw(item feed.Item, decision classify.Decision, number, text string) {
	num := number
	if num == "" {
		num = "Not stated"
	}
	fmt.Fprintf(p.out, "\n--- %s ---\n", item.Title)
	fmt.Fprintf(p.out, "Link: %s\n", item.Link)
	fmt.Fprintf(p.out, "Mode: %s | Category: %s | MARADMIN: %s\n",
		decision.Mode, decision.Category, num)
	if len(text) > 4000 {
		text = text[:4000]
	}
	fmt.Fprintln(p.out, text)
}
