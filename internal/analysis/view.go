package analysis

import "github.com/escalopa/arud-bot/internal/domain"

// View is everything a renderer needs to show one analysis
type View struct {
	Meter      MeterLabel
	Summary    Summary
	InputLines int // 0 when unknown
	Verses     []VerseView
}

// VerseView is the display form of one verse
type VerseView struct {
	Number      int
	Text        string
	Sadr        string
	Ajuz        string
	Status      string
	Correct     bool
	Score       int
	HasScore    bool
	SadrTags    []TagCount
	AjuzTags    []TagCount
	Feet        []domain.Foot
	Zihaf       []string
	MissingBits string
	ExtraBits   string
}

// NewView builds the presentation model of a. inputLines is the number of
// non-empty lines the user submitted; pass 0 to omit it.
func NewView(a *domain.Analysis, inputLines int) View {
	view := View{
		Meter:      ResolveMeter(a.Meter, a.MeterAr),
		Summary:    Summarize(a.Verses),
		InputLines: inputLines,
		Verses:     make([]VerseView, len(a.Verses)),
	}

	for i, v := range a.Verses {
		vv := VerseView{
			Number:      i + 1,
			Text:        v.Text(),
			Sadr:        v.Sadr,
			Ajuz:        v.Ajuz,
			Status:      v.Status,
			Correct:     Verdict(v),
			Feet:        v.Tafila,
			Zihaf:       v.Zihaf,
			MissingBits: v.MissingBits,
			ExtraBits:   v.ExtraBits,
		}
		vv.Score, vv.HasScore = ScorePercent(v)
		if v.Details != nil {
			vv.SadrTags = SummarizeTags(v.Details.SadrAnalysis)
			vv.AjuzTags = SummarizeTags(v.Details.AjuzAnalysis)
		}
		view.Verses[i] = vv
	}

	return view
}
