package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/spreadlab/claimtrace/models"
)

// MaxClaims bounds how many candidate claims one run may carry.
const MaxClaims = 5

const extractSystemPrompt = `You are a claim extraction assistant. You read a piece of online content and identify the distinct factual assertions it makes or repeats.

RULES:
1. Return exactly 5 distinct assertions, one per line
2. Each assertion must be a single self-contained sentence
3. Do not editorialize or judge whether the assertions are true
4. Do not include any other text or explanation`

const rankSystemPrompt = `You are a claim ranking assistant. You score claims on how specific, verifiable and important they are.

RESPONSE FORMAT:
Respond ONLY with a JSON array of integer scores from 0 to 100, one per claim, in the same order as given.
Do not include any other text or explanation.`

var enumerationMarker = regexp.MustCompile(`^\s*(?:[-*\x{2022}]|\d+[.)])\s*`)

// extractClaims derives 1 to 5 candidate claims from the normalized blob and
// attaches embedding vectors. An empty reasoning response is a terminal
// failure; no placeholder claims are fabricated.
func (r *Runner) extractClaims(ctx context.Context, blob string) ([]models.Claim, error) {
	resp, err := r.Provider.Generate(ctx, extractSystemPrompt, "CONTENT:\n"+blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrExtractionFailed, err)
	}

	texts := splitClaimLines(resp)
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: empty reasoning response", models.ErrExtractionFailed)
	}

	claims := make([]models.Claim, len(texts))
	for i, text := range texts {
		claims[i] = models.Claim{ID: uuid.NewString(), Text: text}
	}

	vecs, err := r.Embedder.EmbedMany(ctx, texts)
	if err != nil {
		// claims stay usable without vectors; the annotation subsystem
		// backfills embeddings on its own schedule
		r.Logger.Printf("[PIPELINE] embedding failed, continuing without vectors: %v", err)
		return claims, nil
	}
	for i := range claims {
		if i < len(vecs) {
			claims[i].Embedding = vecs[i]
		}
	}
	return claims, nil
}

func splitClaimLines(resp string) []string {
	var texts []string
	for _, line := range strings.Split(resp, "\n") {
		line = strings.TrimSpace(enumerationMarker.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		texts = append(texts, line)
		if len(texts) == MaxClaims {
			break
		}
	}
	return texts
}

// rank orders claims by reasoning-service score, descending. When the score
// response cannot be parsed the stage keeps original extraction order: the
// first claim becomes primary. That degradation is deliberate and logged,
// never retried.
func (r *Runner) rank(ctx context.Context, claims []models.Claim) (models.Claim, []models.Claim) {
	var sb strings.Builder
	for i, c := range claims {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, c.Text)
	}

	resp, err := r.Provider.Generate(ctx, rankSystemPrompt, "CLAIMS:\n"+sb.String())
	if err == nil {
		if scores, ok := parseScores(resp, len(claims)); ok {
			ranked := append([]models.Claim(nil), claims...)
			for i := range ranked {
				ranked[i].Score = scores[i]
				ranked[i].Scored = true
			}
			sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].Score > ranked[b].Score })
			return ranked[0], ranked[1:]
		}
		err = fmt.Errorf("unparseable score response")
	}

	r.Logger.Printf("[PIPELINE] ranking degraded to extraction order: %v", err)
	return claims[0], claims[1:]
}

// parseScores pulls the first JSON array out of the response and requires
// one score per claim.
func parseScores(resp string, want int) ([]float64, bool) {
	start := strings.Index(resp, "[")
	end := strings.LastIndex(resp, "]")
	if start < 0 || end <= start {
		return nil, false
	}
	var scores []float64
	if err := json.Unmarshal([]byte(resp[start:end+1]), &scores); err != nil {
		return nil, false
	}
	if len(scores) != want {
		return nil, false
	}
	return scores, true
}
