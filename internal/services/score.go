package services

type Band string

const (
	BandGood Band = "good"
	BandWarn Band = "warn"
	BandPoor Band = "poor"
)

// ScoreBand classifies a 0-100 score. The same thresholds apply to the
// overall, keyword and ATS scores.
func ScoreBand(score int) Band {
	switch {
	case score >= 80:
		return BandGood
	case score >= 60:
		return BandWarn
	default:
		return BandPoor
	}
}

// ScorePercent clamps a score for use as a progress bar width.
func ScorePercent(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
