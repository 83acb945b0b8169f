// Package summarize calls the configured generation providers and shapes
// their output into a bounded bullet list. One call per item, no retry: a
// failed or empty generation degrades to the sentinel line and is never
// surfaced to the delivery channel.
package summarize

import (
	"context"
	"strings"
	"time"

	"github.com/deusflow/maralert/internal/logger"
	"github.com/deusflow/maralert/internal/metrics"
)

// Generator produces raw bullet text from instructions and input. It may
// return empty text without error.
type Generator interface {
	Name() string
	Generate(ctx context.Context, instructions, input string) (string, error)
}

// Request carries everything needed to summarize one item.
type Request struct {
	Instructions string
	Input        string
	Bullets      int
}

// Result is a non-empty bullet list. Fallback is set when no provider
// produced usable output and the sentinel stands in.
type Result struct {
	Bullets  []string
	Fallback bool
}

type Summarizer struct {
	chain    []Generator
	budget   *Budget
	memo     *memoCache
	sentinel string
}

// New builds a summarizer over a provider chain. maxCalls caps generation
// calls per budget window; sentinel is the line used when nothing usable
// comes back.
func New(chain []Generator, maxCalls int, sentinel string) *Summarizer {
	return &Summarizer{
		chain:    chain,
		budget:   NewBudget(maxCalls),
		memo:     newMemoCache(6 * time.Hour),
		sentinel: sentinel,
	}
}

// Summarize runs the provider chain once and post-processes the first
// non-empty output. Identical requests within the memo TTL reuse the earlier
// bullets, which matters under --force and in daemon mode.
func (s *Summarizer) Summarize(ctx context.Context, req Request) Result {
	key := memoKey(req.Instructions, req.Input)
	if bullets, ok := s.memo.get(key); ok {
		logger.Debug("summary memo hit")
		return Result{Bullets: capBullets(bullets, req.Bullets)}
	}

	if !s.budget.Allow() {
		logger.Warn("generation budget exhausted, using sentinel")
		return s.fallback()
	}

	for _, g := range s.chain {
		out, err := g.Generate(ctx, req.Instructions, req.Input)
		if err != nil {
			logger.Warn("generation failed", "provider", g.Name(), "error", err)
			continue
		}
		bullets := ShapeBullets(out, req.Bullets)
		if len(bullets) == 0 {
			logger.Warn("generation produced no usable lines", "provider", g.Name())
			continue
		}
		s.memo.set(key, bullets)
		metrics.Global.IncrementSummariesOK()
		return Result{Bullets: bullets}
	}

	return s.fallback()
}

func (s *Summarizer) fallback() Result {
	metrics.Global.IncrementSummaryFallbacks()
	return Result{Bullets: []string{s.sentinel}, Fallback: true}
}

// ShapeBullets splits generator output into clean bullet lines: blank lines
// dropped, leading bullet glyphs stripped, count capped at the budget. Fewer
// bullets than budget is fine; the output is never padded.
func ShapeBullets(out string, budget int) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		s := strings.TrimSpace(line)
		s = strings.TrimLeft(s, "-•*")
		s = strings.TrimSpace(s)
		if s != "" {
			lines = append(lines, s)
		}
	}
	return capBullets(lines, budget)
}

func capBullets(lines []string, budget int) []string {
	if budget < 1 {
		budget = 1
	}
	if len(lines) > budget {
		return lines[:budget]
	}
	return lines
}
