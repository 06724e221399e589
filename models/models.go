package models

import (
	"errors"
	"time"
)

// ErrUnsupportedInput is returned when no extractor produced usable content.
var ErrUnsupportedInput = errors.New("unsupported input: no extractor produced content")

// ErrContentTooSmall signals the router to try the next extraction strategy.
// It is never surfaced to callers of the pipeline.
var ErrContentTooSmall = errors.New("content too small")

// ErrQuotaExceeded is returned before any extraction work when the user's
// daily budget is spent.
var ErrQuotaExceeded = errors.New("quota exceeded")

// ErrExtractionFailed is returned when no claims could be derived from the
// normalized content.
var ErrExtractionFailed = errors.New("claim extraction failed")

type Platform string

const (
	PlatformReddit  Platform = "reddit"
	PlatformVideo   Platform = "video"
	PlatformArticle Platform = "article"
	PlatformRender  Platform = "render"
	PlatformText    Platform = "text"
)

// ExtractedContent is the normalized record produced by an extractor for one
// source URL. It is created once per pipeline run and not mutated afterwards.
type ExtractedContent struct {
	Platform    Platform   `json:"platform"`
	SourceURL   string     `json:"url"`
	Author      string     `json:"author,omitempty"`
	PublishedAt *time.Time `json:"published_at"`
	Title       string     `json:"title,omitempty"`
	BodyText    string     `json:"body_text"`
	MediaRefs   []string   `json:"media_refs,omitempty"`
}

// Claim is a candidate assertion derived from ingested content.
type Claim struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding,omitempty"`
	Score     float64   `json:"score,omitempty"`
	Scored    bool      `json:"scored"`
}

// SearchHit is one evidence entry from the origin search.
type SearchHit struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// PrimaryClaim is the selected best claim of a run plus its traced origin.
// A degraded trace carries Origin "Unknown" with no evidence.
type PrimaryClaim struct {
	Claim
	Origin   string      `json:"origin"`
	IsViral  bool        `json:"is_viral"`
	Evidence []SearchHit `json:"evidence"`
}

// LineageRecord is the durable output of one pipeline run.
type LineageRecord struct {
	Primary        PrimaryClaim `json:"primary_claim"`
	SecondaryCount int          `json:"secondary_claim_count"`
}

// DegradedOrigin is the origin label used when tracing fails internally.
const DegradedOrigin = "Unknown"
