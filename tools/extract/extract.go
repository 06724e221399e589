package extract

import (
	"context"
	"fmt"
	"log"

	"github.com/spreadlab/claimtrace/config"
	"github.com/spreadlab/claimtrace/models"
	"github.com/spreadlab/claimtrace/tools/extract/article"
	"github.com/spreadlab/claimtrace/tools/extract/headless"
	"github.com/spreadlab/claimtrace/tools/extract/reddit"
	"github.com/spreadlab/claimtrace/tools/extract/ytdlp"
)

// Extractor turns one source URL into a normalized content record.
// IsEligible must be cheap and must not touch the network.
type Extractor interface {
	Name() string
	IsEligible(rawURL string) bool
	Extract(ctx context.Context, rawURL string) (models.ExtractedContent, error)
}

// Router holds extractors in fixed priority order and tries them with
// fallback. The last entries are intentionally broad catch-alls.
type Router struct {
	extractors []Extractor
	logger     *log.Logger
}

func NewRouter(logger *log.Logger, extractors ...Extractor) *Router {
	if logger == nil {
		logger = log.Default()
	}
	return &Router{extractors: extractors, logger: logger}
}

// NewDefaultRouter wires the standard chain: reddit, video, article, headless.
func NewDefaultRouter(cfg config.ExtractConfig, logger *log.Logger) *Router {
	return NewRouter(logger,
		reddit.New(cfg.HTTPTimeout, cfg.UserAgent),
		ytdlp.New(cfg.YTDLPPath, cfg.HTTPTimeout),
		article.New(cfg.HTTPTimeout, cfg.UserAgent, cfg.MinHTMLBytes, cfg.MinBodyChars, cfg.MaxBodyChars),
		headless.New(cfg.RenderTimeout, cfg.UserAgent, cfg.MinHTMLBytes, cfg.MinBodyChars, cfg.MaxBodyChars),
	)
}

// Route tries each extractor in list order. An extraction failure moves on to
// the next extractor in the list, whatever its eligibility predicate says
// about specificity; exhaustion means the input is unsupported.
func (r *Router) Route(ctx context.Context, rawURL string) (models.ExtractedContent, error) {
	var lastErr error
	for _, ex := range r.extractors {
		if !ex.IsEligible(rawURL) {
			continue
		}
		content, err := ex.Extract(ctx, rawURL)
		if err != nil {
			r.logger.Printf("[ROUTER] %s extractor failed for %s: %v", ex.Name(), rawURL, err)
			lastErr = err
			continue
		}
		return content, nil
	}
	if lastErr != nil {
		return models.ExtractedContent{}, fmt.Errorf("%w (last attempt: %v)", models.ErrUnsupportedInput, lastErr)
	}
	return models.ExtractedContent{}, models.ErrUnsupportedInput
}
