package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/spreadlab/claimtrace/models"
	searchmodels "github.com/spreadlab/claimtrace/tools/web_search/models"
)

type fakeSearcher struct {
	hits  []searchmodels.Result
	err   error
	calls int
}

func (f *fakeSearcher) Discover(ctx context.Context, q string, k int, sites []string, recency int) ([]searchmodels.Result, error) {
	f.calls++
	return f.hits, f.err
}

func someHits() []searchmodels.Result {
	return []searchmodels.Result{
		{Title: "Fact check", URL: "https://check.example/a", Snippet: "claim first appeared on a parody account"},
		{Title: "Discussion", URL: "https://forum.example/b", Snippet: "spreading widely"},
	}
}

func TestTraceSuccess(t *testing.T) {
	r := quietRunner(Runner{
		Provider: fakeGenerator{fn: func(system, prompt string) (string, error) {
			return `{"origin": "parody account", "is_viral": true}`, nil
		}},
		Searcher: &fakeSearcher{hits: someHits()},
	})
	got := r.trace(context.Background(), models.Claim{ID: "c1", Text: "the moon is made of cheese"})
	if got.Origin != "parody account" {
		t.Fatalf("origin %q", got.Origin)
	}
	if !got.IsViral {
		t.Error("is_viral not carried over")
	}
	if len(got.Evidence) != 2 {
		t.Errorf("evidence %+v", got.Evidence)
	}
}

func TestTraceDegradesOnSearchFailure(t *testing.T) {
	r := quietRunner(Runner{
		Provider: fakeGenerator{fn: func(system, prompt string) (string, error) {
			t.Fatal("provider must not be called when search fails")
			return "", nil
		}},
		Searcher: &fakeSearcher{err: errors.New("search down")},
	})
	got := r.trace(context.Background(), models.Claim{ID: "c1", Text: "a claim"})
	if got.Origin != models.DegradedOrigin || got.IsViral || got.Evidence != nil {
		t.Errorf("expected degraded result, got %+v", got)
	}
}

func TestTraceDegradesOnEmptyHits(t *testing.T) {
	r := quietRunner(Runner{
		Provider: fakeGenerator{fn: func(system, prompt string) (string, error) { return "", nil }},
		Searcher: &fakeSearcher{},
	})
	got := r.trace(context.Background(), models.Claim{ID: "c1", Text: "a claim"})
	if got.Origin != models.DegradedOrigin {
		t.Errorf("origin %q, want %q", got.Origin, models.DegradedOrigin)
	}
}

func TestTraceDegradesOnUnparseableJudgment(t *testing.T) {
	r := quietRunner(Runner{
		Provider: fakeGenerator{fn: func(system, prompt string) (string, error) {
			return "the origin is probably a blog somewhere", nil
		}},
		Searcher: &fakeSearcher{hits: someHits()},
	})
	got := r.trace(context.Background(), models.Claim{ID: "c1", Text: "a claim"})
	if got.Origin != models.DegradedOrigin || len(got.Evidence) != 0 {
		t.Errorf("expected degraded result, got %+v", got)
	}
}

func TestTraceDegradesOnEmptyOrigin(t *testing.T) {
	r := quietRunner(Runner{
		Provider: fakeGenerator{fn: func(system, prompt string) (string, error) {
			return `{"origin": "", "is_viral": true}`, nil
		}},
		Searcher: &fakeSearcher{hits: someHits()},
	})
	got := r.trace(context.Background(), models.Claim{ID: "c1", Text: "a claim"})
	if got.Origin != models.DegradedOrigin || got.IsViral {
		t.Errorf("expected degraded result, got %+v", got)
	}
}

func TestSearchResultsAreCached(t *testing.T) {
	searcher := &fakeSearcher{hits: someHits()}
	r := quietRunner(Runner{Searcher: searcher})

	for i := 0; i < 3; i++ {
		hits, err := r.searchWithCache(context.Background(), "same query text")
		if err != nil {
			t.Fatalf("searchWithCache: %v", err)
		}
		if len(hits) != 2 {
			t.Fatalf("got %d hits", len(hits))
		}
	}
	if searcher.calls != 1 {
		t.Errorf("searcher called %d times, want 1", searcher.calls)
	}

	if _, err := r.searchWithCache(context.Background(), "a different query"); err != nil {
		t.Fatalf("searchWithCache: %v", err)
	}
	if searcher.calls != 2 {
		t.Errorf("searcher called %d times after new query, want 2", searcher.calls)
	}
}

func TestExtractJSONObject(t *testing.T) {
	if got := extractJSONObject(`prefix {"a": 1} suffix`); got != `{"a": 1}` {
		t.Errorf("got %q", got)
	}
	if got := extractJSONObject("no braces"); got != "no braces" {
		t.Errorf("got %q", got)
	}
}
