package analysis

import (
	"math"

	"github.com/escalopa/arud-bot/internal/domain"
)

// CorrectScoreThreshold is the lowest score at which a verse counts as correct
const CorrectScoreThreshold = 0.7

const (
	VerdictCorrect = "Correct"
	VerdictBroken  = "Broken"
)

// Verdict decides whether a verse is correct. A score, when present, is
// authoritative; otherwise the service's validity flag and status are used.
func Verdict(v domain.VerseResult) bool {
	if score, ok := v.Score(); ok {
		return score >= CorrectScoreThreshold
	}
	return (v.IsValid != nil && *v.IsValid) || v.Status == domain.CorrectStatus
}

// VerdictLabel returns the report label for a verdict
func VerdictLabel(correct bool) string {
	if correct {
		return VerdictCorrect
	}
	return VerdictBroken
}

// ScorePercent returns the score as a rounded percentage, if the verse has one
func ScorePercent(v domain.VerseResult) (int, bool) {
	score, ok := v.Score()
	if !ok {
		return 0, false
	}
	return int(math.Round(score * 100)), true
}

// verseScore is the value a verse contributes to the confidence mean
func verseScore(v domain.VerseResult) float64 {
	if score, ok := v.Score(); ok {
		return score
	}
	if Verdict(v) {
		return 1
	}
	return 0
}
