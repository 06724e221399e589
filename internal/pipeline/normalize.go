package pipeline

import (
	"strings"

	"github.com/spreadlab/claimtrace/models"
)

// Normalize merges an extracted record into the single text blob consumed by
// claim extraction: title and body joined, media references appended as
// trailing lines. Pure, no I/O.
func Normalize(content models.ExtractedContent) string {
	var parts []string
	if t := strings.TrimSpace(content.Title); t != "" {
		parts = append(parts, t)
	}
	if b := strings.TrimSpace(content.BodyText); b != "" {
		parts = append(parts, b)
	}
	if len(content.MediaRefs) > 0 {
		parts = append(parts, "Media: "+strings.Join(content.MediaRefs, " "))
	}
	return strings.Join(parts, "\n\n")
}
