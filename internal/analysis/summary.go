package analysis

import "github.com/escalopa/arud-bot/internal/domain"

// Confidence band lower bounds (inclusive)
const (
	HighConfidence   = 0.75
	MediumConfidence = 0.45
)

// ConfidenceLevel is the band a confidence value falls in
type ConfidenceLevel string

const (
	LevelHigh   ConfidenceLevel = "High"
	LevelMedium ConfidenceLevel = "Medium"
	LevelLow    ConfidenceLevel = "Low"
)

// ConfidenceLevelOf bands a confidence value
func ConfidenceLevelOf(confidence float64) ConfidenceLevel {
	switch {
	case confidence >= HighConfidence:
		return LevelHigh
	case confidence >= MediumConfidence:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Summary holds the aggregate statistics of one analysis
type Summary struct {
	Confidence      float64
	CorrectCount    int
	BrokenCount     int
	CorrectnessRate float64
}

// Summarize computes the aggregate statistics over verses.
// An empty slice yields the zero Summary.
func Summarize(verses []domain.VerseResult) Summary {
	if len(verses) == 0 {
		return Summary{}
	}

	var s Summary
	var total float64
	for _, v := range verses {
		total += verseScore(v)
		if Verdict(v) {
			s.CorrectCount++
		}
	}
	s.BrokenCount = len(verses) - s.CorrectCount
	s.Confidence = total / float64(len(verses))
	s.CorrectnessRate = float64(s.CorrectCount) / float64(len(verses))
	return s
}

// Total returns the number of verses summarised
func (s Summary) Total() int {
	return s.CorrectCount + s.BrokenCount
}

// Level returns the confidence band
func (s Summary) Level() ConfidenceLevel {
	return ConfidenceLevelOf(s.Confidence)
}

// LowConfidence reports whether users should be nudged to add diacritics
func (s Summary) LowConfidence() bool {
	return s.Confidence < MediumConfidence
}

// BrokenRate is the share of broken verses, 0 when there are none
func (s Summary) BrokenRate() float64 {
	if s.Total() == 0 {
		return 0
	}
	return float64(s.BrokenCount) / float64(s.Total())
}
