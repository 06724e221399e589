package lineage

import (
	"context"
	"errors"

	"github.com/spreadlab/claimtrace/models"
)

// ErrNotFound is returned when no lineage record exists for a claim id.
var ErrNotFound = errors.New("lineage record not found")

// Store persists the outcome of one pipeline run. The primary claim lives
// under its own id; each secondary under a composite key; and an ordered
// list of those composite keys under the primary's id.
type Store interface {
	SaveLineage(ctx context.Context, primary models.PrimaryClaim, secondaries []models.Claim) error
	GetPrimary(ctx context.Context, id string) (models.PrimaryClaim, error)
	ListSecondaries(ctx context.Context, id string) ([]models.Claim, error)
}
