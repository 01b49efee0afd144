package engine

import (
	"context"

	"github.com/rishtahub/match-engine/internal/db"
)

// Refresher recomputes one user's match cache. The orchestrator only knows
// this interface; Pipeline is the production implementation.
type Refresher interface {
	RefreshUser(ctx context.Context, user db.User) error
}

// Pipeline is the scorer → materializer composition run once per user per
// refresh.
type Pipeline struct {
	scorer       *Scorer
	materializer *Materializer
}

// NewPipeline composes a scorer and materializer into a per-user refresh.
func NewPipeline(scorer *Scorer, materializer *Materializer) *Pipeline {
	return &Pipeline{scorer: scorer, materializer: materializer}
}

// RefreshUser scores the user's candidates and materializes the result.
// A user with no eligible candidates refreshes successfully to an absent
// cache entry.
func (p *Pipeline) RefreshUser(ctx context.Context, user db.User) error {
	scores, err := p.scorer.Score(ctx, user)
	if err != nil {
		return err
	}
	return p.materializer.Materialize(ctx, user, scores)
}
