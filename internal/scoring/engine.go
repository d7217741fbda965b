package scoring

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"edugrant-workers/internal/common/logger"
	"edugrant-workers/internal/common/metrics"
	"edugrant-workers/internal/models"
)

// Fusion weights.
const (
	ModelWeight = 0.7
	RuleWeight  = 0.3

	DefaultLimit = 10

	slowRankingThreshold = 500 * time.Millisecond
)

// RankedResult is one entry of the final ranking.
type RankedResult struct {
	OfferID    string       `json:"scholarship_id"`
	Score      float64      `json:"score"`
	Offer      models.Offer `json:"scholarship"`
	ModelScore float64      `json:"-"`
	RuleScore  float64      `json:"-"`
}

// Engine ranks a catalog against a profile. It holds no per-request state and is
// safe for concurrent use.
type Engine struct {
	artifacts ArtifactSource
	logger    logger.Logger
}

func NewEngine(artifacts ArtifactSource, log logger.Logger) *Engine {
	if artifacts == nil {
		artifacts = StaticArtifact{}
	}
	return &Engine{
		artifacts: artifacts,
		logger:    log.WithFields(map[string]interface{}{"component": "scoring"}),
	}
}

// SelectModelScorer picks the artifact scorer when the artifact loads, else the heuristic.
func (e *Engine) SelectModelScorer() ModelScorer {
	p, err := e.artifacts.Load()
	if err != nil || p == nil {
		e.recordFallback("unavailable", err)
		return HeuristicScorer{}
	}
	return NewArtifactScorer(p)
}

// ScoreModel returns the normalized learned-model score. Artifact failures fall back
// to the heuristic and are never surfaced.
func (e *Engine) ScoreModel(ctx context.Context, profile models.Profile, offers []models.Offer) ScoreSet {
	_, span := otel.Tracer("edugrant-workers/scoring").Start(ctx, "scoring.model")
	defer span.End()

	scorer := e.SelectModelScorer()
	scores, err := scorer.Score(profile, offers)
	if err != nil {
		e.recordFallback("inference_failed", err)
		scorer = HeuristicScorer{}
		scores = ScoreHeuristic(profile, offers)
	}

	metrics.ModelScorerSelected.WithLabelValues(scorer.Name()).Inc()
	span.SetAttributes(attribute.String("scorer", scorer.Name()))
	return scores
}

func (e *Engine) recordFallback(reason string, err error) {
	metrics.ModelFallback.WithLabelValues(reason).Inc()
	fields := map[string]interface{}{"reason": reason}
	if err != nil {
		fields["error"] = err.Error()
	}
	e.logger.Warn("model scorer unavailable, using heuristic", fields)
}

// Fuse combines the two score sets with the fixed 0.7/0.3 weighting.
func Fuse(model, rule ScoreSet) (ScoreSet, error) {
	if len(model) != len(rule) {
		return nil, fmt.Errorf("%w: model scored %d offers, rules scored %d", ErrScoringInternal, len(model), len(rule))
	}
	fused := make(ScoreSet, len(model))
	for i := range model {
		fused[i] = ModelWeight*model[i] + RuleWeight*rule[i]
	}
	return fused, nil
}

// RoundScore rounds to 4 decimal places.
func RoundScore(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// Rank validates its inputs, scores every offer, and returns at most limit results in
// descending score order. Offers with equal scores keep their catalog order.
func (e *Engine) Rank(ctx context.Context, profile models.Profile, offers []models.Offer, limit int) (results []RankedResult, err error) {
	if len(offers) == 0 {
		return nil, ErrCatalogEmpty
	}
	if profile.IsEmpty() {
		return nil, ErrProfileMissing
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must be >= 0, got %d", ErrInvalidLimit, limit)
	}

	ctx, span := otel.Tracer("edugrant-workers/scoring").Start(ctx, "scoring.rank")
	defer span.End()
	span.SetAttributes(attribute.Int("offers", len(offers)), attribute.Int("limit", limit))

	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = fmt.Errorf("%w: %v", ErrScoringInternal, r)
			span.SetStatus(codes.Error, "scoring panic")
			e.logger.Error("ranking panicked", map[string]interface{}{"panic": fmt.Sprint(r)})
		}
	}()

	start := time.Now()

	modelScores := e.ScoreModel(ctx, profile, offers)
	ruleScores := ScoreRules(profile, offers)
	if len(modelScores) != len(offers) {
		return nil, fmt.Errorf("%w: model scored %d of %d offers", ErrScoringInternal, len(modelScores), len(offers))
	}

	fused, err := Fuse(modelScores, ruleScores)
	if err != nil {
		return nil, err
	}

	ranked := make([]RankedResult, len(offers))
	for i, offer := range offers {
		ranked[i] = RankedResult{
			OfferID:    offer.ID(),
			Score:      fused[i],
			Offer:      offer,
			ModelScore: modelScores[i],
			RuleScore:  ruleScores[i],
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if limit < len(ranked) {
		ranked = ranked[:limit]
	}
	for i := range ranked {
		ranked[i].Score = RoundScore(ranked[i].Score)
	}

	duration := time.Since(start)
	fields := map[string]interface{}{
		"inputCount":  len(offers),
		"outputCount": len(ranked),
		"durationMs":  duration.Milliseconds(),
	}
	e.logger.Info("ranking completed", fields)
	if duration > slowRankingThreshold {
		e.logger.Warn("ranking exceeded latency budget", fields)
	}

	return ranked, nil
}
