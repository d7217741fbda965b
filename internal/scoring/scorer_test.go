package scoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edugrant-workers/internal/models"
)

// ==========================
// Fixtures
// ==========================

func fullProfile() models.Profile {
	return models.Profile{
		"nom_complet":      "Amina Benali",
		"pays_origine":     "Maroc",
		"pays_cible":       "France",
		"domaine_etude":    "Informatique",
		"niveau_etude":     "Master",
		"mention_scolaire": 14.0,
		"type_bourse":      "Excellence",
		"type_financement": "Complet",
		"age":              22.0,
	}
}

func sampleOffers() []models.Offer {
	return []models.Offer{
		{
			"id": "A", "pays": "France", "domaine": "Informatique et réseaux", "niveau_etudes": "Master",
			"mentions_min": 12.0, "type": "Excellence", "type_financement": "Complet", "montant": 8000.0,
			"age_min": 18.0, "age_max": 30.0,
		},
		{
			"id": "B", "pays": "Canada", "domaine": "Médecine", "niveau_etudes": "Licence",
			"mentions_min": 16.0, "type": "Mobilité", "type_financement": "Partiel", "montant": 200.0,
			"age_min": 18.0, "age_max": 20.0,
		},
		{
			"id": "C", "pays": "France, Belgique", "domaine": "", "mentions_min": "", "montant": "",
		},
	}
}

// ==========================
// Heuristic fallback
// ==========================

func TestHeuristicScore_HandComputed(t *testing.T) {
	profile := fullProfile()
	offers := sampleOffers()

	// A: target .1 + domain .2 + level .15 + grade .1 + type .1 + funding .1 + amount .05
	assert.InDelta(t, 0.8, heuristicScore(profile, offers[0]), 1e-9)
	// B: grade below minimum -.05 + amount .02 + too old -.1
	assert.InDelta(t, -0.13, heuristicScore(profile, offers[1]), 1e-9)
	// C: target .1 + grade against missing minimum .1
	assert.InDelta(t, 0.2, heuristicScore(profile, offers[2]), 1e-9)

	scores := ScoreHeuristic(profile, offers)
	assert.InDeltaSlice(t, []float64{1, 0, 0.33 / 0.93}, []float64(scores), 1e-9)
}

func TestHeuristicScore_AmountCapped(t *testing.T) {
	profile := models.Profile{"nom_complet": "x"}

	assert.InDelta(t, 0.1+0.03, heuristicScore(profile, models.Offer{"montant": 300.0}), 1e-9)
	assert.InDelta(t, 0.1+0.05, heuristicScore(profile, models.Offer{"montant": 1e6}), 1e-9)
	// unparsable amount skips the term; missing grade meets missing minimum
	assert.InDelta(t, 0.1, heuristicScore(profile, models.Offer{"montant": "élevé"}), 1e-9)
}

func TestHeuristicScore_UnparsableGradeSkipsTerm(t *testing.T) {
	profile := models.Profile{"mention_scolaire": "Très bien"}

	assert.InDelta(t, 0.0, heuristicScore(profile, models.Offer{"mentions_min": 12.0}), 1e-9)
	assert.InDelta(t, 0.0, heuristicScore(models.Profile{"mention_scolaire": 14.0}, models.Offer{"mentions_min": "bien"}), 1e-9)
}

func TestHeuristicScore_AgeWithoutBounds(t *testing.T) {
	profile := models.Profile{"age": 120.0, "pays_cible": "France"}

	// target .1 + grade against missing minimum .1
	assert.InDelta(t, 0.2, heuristicScore(profile, models.Offer{"pays": "France"}), 1e-9)
	// same, minus the age penalty against the default upper bound
	assert.InDelta(t, 0.1, heuristicScore(profile, models.Offer{"pays": "France", "age_min": 18.0}), 1e-9)
}

func TestHeuristicScore_NonFiniteAmountSkipsTerm(t *testing.T) {
	profile := models.Profile{"nom_complet": "x"}

	for _, amount := range []interface{}{"-Infinity", "inf", "+Inf"} {
		assert.InDelta(t, 0.1, heuristicScore(profile, models.Offer{"montant": amount}), 1e-9, "%v", amount)
	}
}

func TestHeuristicScorer_AllEqualYieldsZeros(t *testing.T) {
	offers := []models.Offer{{"id": "1"}, {"id": "2"}, {"id": "3"}}

	scores, err := HeuristicScorer{}.Score(models.Profile{"pays_cible": "Japon"}, offers)

	require.NoError(t, err)
	assert.Equal(t, ScoreSet{0, 0, 0}, scores)
}

// ==========================
// Rule scorer
// ==========================

func TestScoreRules_HandComputed(t *testing.T) {
	scores := ScoreRules(fullProfile(), sampleOffers())

	assert.InDeltaSlice(t, []float64{0.3, -0.2, 0.1}, []float64(scores), 1e-9)
}

func TestScoreRules_AgeWithoutBounds(t *testing.T) {
	profile := models.Profile{"age": 120.0, "pays_cible": "France"}
	offers := []models.Offer{
		{"pays": "France"},
		{"pays": "France", "age_max": 200.0},
		{"pays": "France", "age_min": 18.0, "age_max": 30.0},
	}

	scores := ScoreRules(profile, offers)

	assert.InDeltaSlice(t, []float64{0.1, 0.1, 0}, []float64(scores), 1e-9)
}

func TestScoreRules_NotNormalized(t *testing.T) {
	scores := ScoreRules(models.Profile{"pays_cible": "France"}, []models.Offer{{"pays": "France"}, {"pays": "France"}})

	assert.InDeltaSlice(t, []float64{0.1, 0.1}, []float64(scores), 1e-9)
}

// ==========================
// Artifact scorer
// ==========================

type rawPredictor struct {
	scores []float64
	err    error
	calls  int
}

func (p *rawPredictor) Predict(features [][]float64) ([]float64, error) {
	p.calls++
	return p.scores, p.err
}

type probaPredictor struct {
	rawPredictor
	probs []float64
}

func (p *probaPredictor) PredictProba(features [][]float64) ([]float64, error) {
	return p.probs, nil
}

type panickingPredictor struct{}

func (panickingPredictor) Predict([][]float64) ([]float64, error) {
	panic("corrupt weights")
}

func TestArtifactScorer_PrefersProbabilities(t *testing.T) {
	p := &probaPredictor{
		rawPredictor: rawPredictor{scores: []float64{1, 0, 0}},
		probs:        []float64{0.2, 0.9, 0.4},
	}

	scores, err := NewArtifactScorer(p).Score(fullProfile(), sampleOffers())

	require.NoError(t, err)
	assert.Equal(t, 0, p.calls)
	assert.InDeltaSlice(t, []float64{0, 1, 2.0 / 7.0}, []float64(scores), 1e-9)
}

func TestArtifactScorer_RawPredictions(t *testing.T) {
	p := &rawPredictor{scores: []float64{3, 1, 2}}

	scores, err := NewArtifactScorer(p).Score(fullProfile(), sampleOffers())

	require.NoError(t, err)
	assert.Equal(t, 1, p.calls)
	assert.InDeltaSlice(t, []float64{1, 0, 0.5}, []float64(scores), 1e-9)
}

func TestArtifactScorer_Failures(t *testing.T) {
	tests := []struct {
		name      string
		predictor Predictor
	}{
		{"predict error", &rawPredictor{err: errors.New("shape mismatch")}},
		{"short output", &rawPredictor{scores: []float64{0.5}}},
		{"non-finite output", &rawPredictor{scores: []float64{0.5, 0.1, nan()}}},
		{"panic", panickingPredictor{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores, err := NewArtifactScorer(tt.predictor).Score(fullProfile(), sampleOffers())
			assert.Error(t, err)
			assert.Nil(t, scores)
		})
	}
}
