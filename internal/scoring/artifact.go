package scoring

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sync"
)

// Predictor is the minimal capability of a predictive artifact: one raw score per row.
type Predictor interface {
	Predict(features [][]float64) ([]float64, error)
}

// ProbabilityPredictor is implemented by classifiers that expose the positive-class probability.
type ProbabilityPredictor interface {
	Predictor
	PredictProba(features [][]float64) ([]float64, error)
}

// ArtifactSource hands out the shared predictor. A load failure is reported on every call.
type ArtifactSource interface {
	Load() (Predictor, error)
}

const (
	KindLogistic = "logistic"
	KindLinear   = "linear"
)

// ArtifactFile is the on-disk artifact: per-feature coefficients plus an intercept.
type ArtifactFile struct {
	Version      string             `json:"version"`
	Kind         string             `json:"kind"`
	Coefficients map[string]float64 `json:"coefficients"`
	Intercept    float64            `json:"intercept"`
}

// LinearModel scores rows as intercept + w·x.
type LinearModel struct {
	Version   string
	Weights   [FeatureCount]float64
	Intercept float64
}

func (m *LinearModel) decision(row []float64) (float64, error) {
	if len(row) != FeatureCount {
		return 0, fmt.Errorf("feature row has %d columns, want %d", len(row), FeatureCount)
	}
	z := m.Intercept
	for i, x := range row {
		z += m.Weights[i] * x
	}
	return z, nil
}

func (m *LinearModel) Predict(features [][]float64) ([]float64, error) {
	out := make([]float64, len(features))
	for i, row := range features {
		z, err := m.decision(row)
		if err != nil {
			return nil, err
		}
		out[i] = z
	}
	return out, nil
}

// LogisticModel is a binary classifier; Predict returns class labels, PredictProba class-1 probabilities.
type LogisticModel struct {
	LinearModel
}

func (m *LogisticModel) PredictProba(features [][]float64) ([]float64, error) {
	out := make([]float64, len(features))
	for i, row := range features {
		z, err := m.decision(row)
		if err != nil {
			return nil, err
		}
		out[i] = 1 / (1 + math.Exp(-z))
	}
	return out, nil
}

func (m *LogisticModel) Predict(features [][]float64) ([]float64, error) {
	probs, err := m.PredictProba(features)
	if err != nil {
		return nil, err
	}
	for i, p := range probs {
		probs[i] = flag(p >= 0.5)
	}
	return probs, nil
}

// LoadArtifact reads and validates an artifact file.
func LoadArtifact(path string) (Predictor, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}

	var file ArtifactFile
	if err := json.Unmarshal(payload, &file); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	return file.Build()
}

// Build turns the decoded file into a predictor. Every feature needs a finite coefficient.
func (f ArtifactFile) Build() (Predictor, error) {
	if math.IsNaN(f.Intercept) || math.IsInf(f.Intercept, 0) {
		return nil, fmt.Errorf("model intercept is not finite")
	}

	lm := LinearModel{Version: f.Version, Intercept: f.Intercept}
	for i, name := range FeatureNames {
		w, ok := f.Coefficients[name]
		if !ok {
			return nil, fmt.Errorf("model is missing coefficient %q", name)
		}
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("model coefficient %q is not finite", name)
		}
		lm.Weights[i] = w
	}
	if len(f.Coefficients) != FeatureCount {
		return nil, fmt.Errorf("model has %d coefficients, want %d", len(f.Coefficients), FeatureCount)
	}

	switch f.Kind {
	case KindLogistic:
		return &LogisticModel{LinearModel: lm}, nil
	case KindLinear, "":
		return &lm, nil
	default:
		return nil, fmt.Errorf("unsupported model kind %q", f.Kind)
	}
}

// ArtifactLoader loads the artifact at most once per process and caches the outcome,
// success or failure. The returned predictor is never mutated and is safe to share.
type ArtifactLoader struct {
	path   string
	loadFn func(string) (Predictor, error)

	once      sync.Once
	predictor Predictor
	err       error
}

func NewArtifactLoader(path string) *ArtifactLoader {
	return &ArtifactLoader{path: path, loadFn: LoadArtifact}
}

func (l *ArtifactLoader) Load() (Predictor, error) {
	l.once.Do(func() {
		if l.path == "" {
			l.err = fmt.Errorf("%w: no model path configured", ErrModelUnavailable)
			return
		}
		p, err := l.loadFn(l.path)
		if err != nil {
			l.err = fmt.Errorf("%w: %v", ErrModelUnavailable, err)
			return
		}
		l.predictor = p
	})
	return l.predictor, l.err
}

// StaticArtifact serves a predictor that is already in memory.
type StaticArtifact struct {
	Predictor Predictor
}

func (s StaticArtifact) Load() (Predictor, error) {
	if s.Predictor == nil {
		return nil, ErrModelUnavailable
	}
	return s.Predictor, nil
}
