package summarize

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
)

type stubGenerator struct {
	name  string
	out   string
	err   error
	calls int
}

func (g *stubGenerator) Name() string { return g.name }

func (g *stubGenerator) Generate(ctx context.Context, instructions, input string) (string, error) {
	g.calls++
	return g.out, g.err
}

const sentinel = "No extractable summary produced from the available text."

func TestShapeBulletsStripsGlyphs(t *testing.T) {
	out := "- first point\n• second point\n* third point\n\n   \n-- fourth"
	got := ShapeBullets(out, 10)
	want := []string{"first point", "second point", "third point", "fourth"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ShapeBullets = %v, want %v", got, want)
	}
}

func TestShapeBulletsCapsAtBudget(t *testing.T) {
	out := "a\nb\nc\nd\ne"
	got := ShapeBullets(out, 2)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0] != "a" || got[1] != "b" {
		t.Errorf("ShapeBullets = %v, want [a b]", got)
	}
}

func TestShapeBulletsNeverPads(t *testing.T) {
	got := ShapeBullets("only one", 6)
	if len(got) != 1 {
		t.Errorf("len = %d, want 1 (no padding to the budget)", len(got))
	}
}

func TestShapeBulletsBudgetInvariant(t *testing.T) {
	many := ""
	for i := 0; i < 50; i++ {
		many += fmt.Sprintf("- bullet %d\n", i)
	}
	for _, budget := range []int{1, 2, 3, 6, 14} {
		got := ShapeBullets(many, budget)
		if len(got) < 1 || len(got) > budget {
			t.Errorf("budget %d: got %d bullets", budget, len(got))
		}
	}
}

func TestSummarizeUsesFirstNonEmptyProvider(t *testing.T) {
	first := &stubGenerator{name: "first", err: errors.New("quota")}
	second := &stubGenerator{name: "second", out: "- the point"}
	s := New([]Generator{first, second}, 0, sentinel)

	res := s.Summarize(context.Background(), Request{Instructions: "i", Input: "x", Bullets: 3})
	if res.Fallback {
		t.Fatalf("unexpected fallback: %+v", res)
	}
	if len(res.Bullets) != 1 || res.Bullets[0] != "the point" {
		t.Errorf("bullets = %v", res.Bullets)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", first.calls, second.calls)
	}
}

func TestSummarizeSentinelWhenAllFail(t *testing.T) {
	s := New([]Generator{
		&stubGenerator{name: "a", err: errors.New("down")},
		&stubGenerator{name: "b", out: "   \n  "},
	}, 0, sentinel)

	res := s.Summarize(context.Background(), Request{Instructions: "i", Input: "x", Bullets: 2})
	if !res.Fallback {
		t.Fatalf("expected fallback result")
	}
	if len(res.Bullets) != 1 || res.Bullets[0] != sentinel {
		t.Errorf("bullets = %v, want single sentinel", res.Bullets)
	}
}

func TestSummarizeEmptyChainDegrades(t *testing.T) {
	s := New(nil, 0, sentinel)
	res := s.Summarize(context.Background(), Request{Instructions: "i", Input: "x", Bullets: 1})
	if !res.Fallback || len(res.Bullets) != 1 {
		t.Errorf("result = %+v, want sentinel fallback", res)
	}
}

func TestSummarizeMemoAvoidsSecondCall(t *testing.T) {
	g := &stubGenerator{name: "g", out: "- cached"}
	s := New([]Generator{g}, 0, sentinel)

	req := Request{Instructions: "same", Input: "same", Bullets: 3}
	s.Summarize(context.Background(), req)
	res := s.Summarize(context.Background(), req)

	if g.calls != 1 {
		t.Errorf("generator called %d times, want 1 (memo hit)", g.calls)
	}
	if len(res.Bullets) != 1 || res.Bullets[0] != "cached" {
		t.Errorf("bullets = %v", res.Bullets)
	}
}

func TestSummarizeBudgetExhaustion(t *testing.T) {
	g := &stubGenerator{name: "g", out: "- fine"}
	s := New([]Generator{g}, 1, sentinel)

	first := s.Summarize(context.Background(), Request{Instructions: "a", Input: "1", Bullets: 1})
	if first.Fallback {
		t.Fatalf("first call should succeed")
	}
	second := s.Summarize(context.Background(), Request{Instructions: "b", Input: "2", Bullets: 1})
	if !second.Fallback {
		t.Errorf("second call should hit the budget and degrade to sentinel")
	}
	if g.calls != 1 {
		t.Errorf("generator called %d times, want 1", g.calls)
	}
}

func TestBudgetUnlimitedWhenZero(t *testing.T) {
	b := NewBudget(0)
	for i := 0; i < 100; i++ {
		if !b.Allow() {
			t.Fatalf("unlimited budget refused call %d", i)
		}
	}
}
