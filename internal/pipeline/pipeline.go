package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/spreadlab/claimtrace/internal/lineage"
	"github.com/spreadlab/claimtrace/internal/metrics"
	"github.com/spreadlab/claimtrace/internal/quota"
	"github.com/spreadlab/claimtrace/models"
	"github.com/spreadlab/claimtrace/tools/web_search"
)

// ContentRouter selects and invokes an extractor chain for one URL.
type ContentRouter interface {
	Route(ctx context.Context, rawURL string) (models.ExtractedContent, error)
}

// Embedder computes embedding vectors for claim texts.
type Embedder interface {
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
}

// Runner composes the full run: quota gate, extraction chain, normalize,
// claim extraction, ranking, origin tracing, persistence.
type Runner struct {
	Router           ContentRouter
	Provider         Generator
	Embedder         Embedder
	Searcher         web_search.WebSearcher
	Quota            quota.Store
	Lineage          lineage.Store
	Logger           *log.Logger
	MaxSearchResults int
	SearchCache      *gocache.Cache
}

// Generator is the reasoning-service surface the stages need.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// NewRunner applies defaults for optional fields.
func NewRunner(r Runner) *Runner {
	if r.Logger == nil {
		r.Logger = log.New(log.Writer(), "[PIPELINE] ", log.LstdFlags)
	}
	if r.MaxSearchResults <= 0 {
		r.MaxSearchResults = 5
	}
	if r.SearchCache == nil {
		r.SearchCache = gocache.New(30*time.Minute, 10*time.Minute)
	}
	return &r
}

// Run executes one lineage run for a user. Input is either a URL (routed
// through the extractor chain) or raw text. Terminal failures are
// ErrQuotaExceeded, ErrUnsupportedInput and ErrExtractionFailed; tracing
// failures degrade instead of aborting.
func (r *Runner) Run(ctx context.Context, userID, input string) (models.LineageRecord, error) {
	granted, err := r.Quota.CheckAndConsume(ctx, userID)
	if err != nil {
		metrics.Runs.WithLabelValues("error").Inc()
		return models.LineageRecord{}, fmt.Errorf("quota check: %w", err)
	}
	if !granted {
		metrics.QuotaDenials.Inc()
		metrics.Runs.WithLabelValues("quota_exceeded").Inc()
		return models.LineageRecord{}, models.ErrQuotaExceeded
	}

	content, err := r.ingest(ctx, input)
	if err != nil {
		metrics.Runs.WithLabelValues("unsupported_input").Inc()
		return models.LineageRecord{}, err
	}

	blob := Normalize(content)

	claims, err := r.timedClaims(ctx, blob)
	if err != nil {
		metrics.Runs.WithLabelValues("extraction_failed").Inc()
		return models.LineageRecord{}, err
	}

	start := time.Now()
	primary, secondaries := r.rank(ctx, claims)
	metrics.StageDuration.WithLabelValues("rank").Observe(time.Since(start).Seconds())

	start = time.Now()
	traced := r.trace(ctx, primary)
	metrics.StageDuration.WithLabelValues("trace").Observe(time.Since(start).Seconds())

	if err := r.Lineage.SaveLineage(ctx, traced, secondaries); err != nil {
		metrics.Runs.WithLabelValues("error").Inc()
		return models.LineageRecord{}, fmt.Errorf("persist lineage: %w", err)
	}

	metrics.Runs.WithLabelValues("ok").Inc()
	return models.LineageRecord{Primary: traced, SecondaryCount: len(secondaries)}, nil
}

func (r *Runner) ingest(ctx context.Context, input string) (models.ExtractedContent, error) {
	if isURL(input) {
		start := time.Now()
		content, err := r.Router.Route(ctx, input)
		metrics.StageDuration.WithLabelValues("extract").Observe(time.Since(start).Seconds())
		return content, err
	}
	// raw text skips the extractor chain entirely
	return models.ExtractedContent{
		Platform: models.PlatformText,
		BodyText: input,
	}, nil
}

func (r *Runner) timedClaims(ctx context.Context, blob string) ([]models.Claim, error) {
	start := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues("claims").Observe(time.Since(start).Seconds())
	}()
	return r.extractClaims(ctx, blob)
}

func isURL(input string) bool {
	input = strings.TrimSpace(input)
	return strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://")
}
