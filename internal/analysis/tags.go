package analysis

import (
	"strings"

	"github.com/escalopa/arud-bot/internal/domain"
)

// Tone groups status tags for colouring
type Tone int

const (
	ToneNeutral Tone = iota
	TonePositive
	ToneNegative
	ToneCaution
)

func (t Tone) String() string {
	switch t {
	case TonePositive:
		return "positive"
	case ToneNegative:
		return "negative"
	case ToneCaution:
		return "caution"
	default:
		return "neutral"
	}
}

// UnknownTag is counted for sub-results that carry no status
const UnknownTag = "unknown"

// tagTones maps lower-cased tags to tones. Tags not listed are neutral.
var tagTones = map[string]Tone{
	"ok":         TonePositive,
	"valid":      TonePositive,
	"correct":    TonePositive,
	"broken":     ToneNegative,
	"missing":    ToneNegative,
	"invalid":    ToneNegative,
	"extra_bits": ToneCaution,
	"extra":      ToneCaution,
	"warn":       ToneCaution,
	"warning":    ToneCaution,
}

// ClassifyTag returns the tone of a status tag, ignoring case
func ClassifyTag(tag string) Tone {
	if tone, ok := tagTones[strings.ToLower(tag)]; ok {
		return tone
	}
	return ToneNeutral
}

// TagCount is the number of sub-results carrying one tag
type TagCount struct {
	Tag   string
	Count int
	Tone  Tone
}

// SummarizeTags tallies sub-result tags in first-seen order.
// It returns nil when items is empty, which callers treat as "no summary".
func SummarizeTags(items []domain.SubResult) []TagCount {
	if len(items) == 0 {
		return nil
	}

	index := make(map[string]int)
	var counts []TagCount
	for _, item := range items {
		tag := item.Status
		if tag == "" {
			tag = UnknownTag
		}
		if i, ok := index[tag]; ok {
			counts[i].Count++
			continue
		}
		index[tag] = len(counts)
		counts = append(counts, TagCount{Tag: tag, Count: 1, Tone: ClassifyTag(tag)})
	}
	return counts
}

// FootBroken reports whether a tafʿīla should be highlighted as faulty
func FootBroken(f domain.Foot) bool {
	return ClassifyTag(f.Status) == ToneNegative
}
