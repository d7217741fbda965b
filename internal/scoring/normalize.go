package scoring

// ScoreSet holds one score per offer, aligned with the catalog slice.
type ScoreSet []float64

// Normalize rescales scores to [0,1] with min-max. When every score is equal the
// result is all zeros.
func Normalize(scores []float64) ScoreSet {
	out := make(ScoreSet, len(scores))
	if len(scores) == 0 {
		return out
	}

	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}

	span := hi - lo
	if span == 0 {
		return out
	}
	for i, s := range scores {
		out[i] = (s - lo) / span
	}
	return out
}
