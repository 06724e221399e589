package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/spreadlab/claimtrace/internal/metrics"
	"github.com/spreadlab/claimtrace/models"
	searchmodels "github.com/spreadlab/claimtrace/tools/web_search/models"
)

const traceSystemPrompt = `You are an origin analysis assistant. Given a claim and web search results, judge where the claim most likely originated and whether it has spread virally.

RESPONSE FORMAT:
Respond ONLY with valid JSON in the following format:
{"origin": "short label for the most likely source", "is_viral": true_or_false}
Do not include any other text or explanation.`

// trace resolves the primary claim's likely source. Every internal failure
// is absorbed into the degraded Unknown result; this stage never aborts a
// run that got this far.
func (r *Runner) trace(ctx context.Context, primary models.Claim) models.PrimaryClaim {
	result := models.PrimaryClaim{
		Claim:   primary,
		Origin:  models.DegradedOrigin,
		IsViral: false,
	}

	hits, err := r.searchWithCache(ctx, primary.Text)
	if err != nil || len(hits) == 0 {
		if err != nil {
			r.Logger.Printf("[PIPELINE] origin search failed, trace degraded: %v", err)
		}
		metrics.DegradedTraces.Inc()
		return result
	}

	var sb strings.Builder
	sb.WriteString("CLAIM: " + primary.Text + "\n\nSEARCH RESULTS:\n")
	for _, h := range hits {
		sb.WriteString("- " + h.Title + " | " + h.URL + " | " + h.Snippet + "\n")
	}

	resp, err := r.Provider.Generate(ctx, traceSystemPrompt, sb.String())
	if err != nil {
		r.Logger.Printf("[PIPELINE] origin interpretation failed, trace degraded: %v", err)
		metrics.DegradedTraces.Inc()
		return result
	}

	var judgment struct {
		Origin  string `json:"origin"`
		IsViral bool   `json:"is_viral"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(resp)), &judgment); err != nil || judgment.Origin == "" {
		r.Logger.Printf("[PIPELINE] origin judgment unparseable, trace degraded: %v", err)
		metrics.DegradedTraces.Inc()
		return result
	}

	result.Origin = judgment.Origin
	result.IsViral = judgment.IsViral
	for _, h := range hits {
		result.Evidence = append(result.Evidence, models.SearchHit{URL: h.URL, Title: h.Title, Snippet: h.Snippet})
	}
	return result
}

// searchWithCache memoizes search responses by query hash so repeated runs
// over the same claim text do not burn search credits.
func (r *Runner) searchWithCache(ctx context.Context, query string) ([]searchmodels.Result, error) {
	sum := sha256.Sum256([]byte(query))
	key := "search:" + hex.EncodeToString(sum[:])

	if r.SearchCache != nil {
		if cached, ok := r.SearchCache.Get(key); ok {
			return cached.([]searchmodels.Result), nil
		}
	}

	hits, err := r.Searcher.Discover(ctx, query, r.MaxSearchResults, nil, 0)
	if err != nil {
		return nil, err
	}
	if r.SearchCache != nil {
		r.SearchCache.SetDefault(key, hits)
	}
	return hits, nil
}

func extractJSONObject(resp string) string {
	start := strings.Index(resp, "{")
	end := strings.LastIndex(resp, "}")
	if start < 0 || end <= start {
		return resp
	}
	return resp[start : end+1]
}
