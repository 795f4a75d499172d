package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"SlateBuilder/internal/domain"
	"SlateBuilder/internal/ports"
	"SlateBuilder/internal/scoring"
	"SlateBuilder/internal/selection"
)

// PipelineDeps wires the pipeline stages and their collaborators.
type PipelineDeps struct {
	Source    ports.CandidateSource
	Persistor *Persistor
	Deduper   ports.Deduper // optional
	Weights   scoring.Weights
	PoolLimit int
	Logger    *slog.Logger
}

// Pipeline runs one slate build: fetch candidates, score them, select under
// diversity constraints, persist. Each run is a single sequential flow; the
// caller owns cancellation through ctx.
type Pipeline struct {
	source    ports.CandidateSource
	persistor *Persistor
	deduper   ports.Deduper
	weights   scoring.Weights
	poolLimit int
	logger    *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	poolLimit := deps.PoolLimit
	if poolLimit <= 0 {
		poolLimit = 500
	}
	return &Pipeline{
		source:    deps.Source,
		persistor: deps.Persistor,
		deduper:   deps.Deduper,
		weights:   deps.Weights,
		poolLimit: poolLimit,
		logger:    deps.Logger,
	}
}

// BuildSlate executes the full run for one request and returns the persisted
// slate. An empty candidate pool is not an error: it bypasses scoring and
// selection and persists an item-less analytics slate.
func (p *Pipeline) BuildSlate(ctx context.Context, req domain.SlateRequest) (domain.SlateResult, error) {
	pool, err := p.source.Fetch(ctx, req.UserID, p.poolLimit)
	if err != nil {
		return domain.SlateResult{}, fmt.Errorf("fetch candidates: %w", err)
	}

	meta := domain.SlateMeta{WeightsVersion: p.weights.Version, Context: req.Context}

	if len(pool) == 0 {
		p.debug("empty candidate pool", "user", req.UserID)
		return p.persistor.PersistEmpty(ctx, req.UserID, meta)
	}

	scored := make([]domain.Scored, 0, len(pool))
	for _, c := range pool {
		score, reasons := scoring.Score(c, req.Context, p.weights)
		scored = append(scored, domain.Scored{Candidate: c, Score: score, Reasons: reasons})
	}

	// Score descending with recency as tie-break. The selector re-sorts by
	// score alone, so this ordering only decides how ties enter it.
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].SavedAt.After(scored[j].SavedAt)
	})

	opts := selection.DefaultOptions()
	opts.AllowSameDomain = req.Context.AllowSameDomain
	opts.NearDuplicate = p.buildPredicate(ctx, pool)

	selected := selection.Select(scored, req.K, opts)

	p.debug("selection done", "user", req.UserID, "pool", len(pool), "selected", len(selected))
	return p.persistor.Persist(ctx, req.UserID, selected, meta)
}

// buildPredicate asks the optional deduper for a near-duplicate predicate.
// Failures degrade to no predicate rather than failing the run.
func (p *Pipeline) buildPredicate(ctx context.Context, pool []domain.Candidate) ports.NearDuplicate {
	if p.deduper == nil {
		return nil
	}

	pred, err := p.deduper.BuildPredicate(ctx, pool)
	if err != nil {
		p.warn("near-duplicate predicate unavailable", "error", err)
		return nil
	}
	return pred
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
