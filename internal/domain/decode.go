package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// analysisPayload lists every name the service has used for a field. The
// first present name wins; DecodeAnalysis resolves them once so consumers
// only ever see the canonical fields.
type analysisPayload struct {
	Bahr           string            `json:"bahr"`
	Meter          string            `json:"meter"`
	MeterAr        string            `json:"meter_ar"`
	MeterArAlt     string            `json:"meterAr"`
	VersesAnalysis []json.RawMessage `json:"verses_analysis"`
	VersesAlt      []json.RawMessage `json:"versesAnalysis"`
	Verses         []json.RawMessage `json:"verses"`
}

type versePayload struct {
	Input          string            `json:"input"`
	OriginalVerse  string            `json:"original_verse"`
	OriginalAlt    string            `json:"originalVerse"`
	Sadr           string            `json:"sadr"`
	Ajuz           string            `json:"ajuz"`
	Status         string            `json:"status"`
	IsValid        *bool             `json:"is_valid"`
	IsValidAlt     *bool             `json:"isValid"`
	Details        *detailsPayload   `json:"details"`
	Tafila         []Foot            `json:"tafila"`
	Tafeela        []Foot            `json:"tafeela"`
	Zihaaf         []json.RawMessage `json:"zihaaf"`
	Zihaf          []json.RawMessage `json:"zihaf"`
	MissingBits    string            `json:"missing_bits"`
	MissingBitsAlt string            `json:"missingBits"`
	ExtraBits      string            `json:"extra_bits"`
	ExtraBitsAlt   string            `json:"extraBits"`
}

type detailsPayload struct {
	Score           json.RawMessage `json:"score"`
	SadrAnalysis    []SubResult     `json:"sadr_analysis"`
	SadrAnalysisAlt []SubResult     `json:"sadrAnalysis"`
	AjuzAnalysis    []SubResult     `json:"ajuz_analysis"`
	AjuzAnalysisAlt []SubResult     `json:"ajuzAnalysis"`
}

// DecodeAnalysis parses the data block of an /analyze response
func DecodeAnalysis(data []byte) (*Analysis, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, fmt.Errorf("decode analysis: empty payload")
	}

	var p analysisPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}

	rawVerses := firstSlice(p.VersesAnalysis, p.VersesAlt, p.Verses)
	analysis := &Analysis{
		Meter:   firstString(p.Bahr, p.Meter),
		MeterAr: firstString(p.MeterAr, p.MeterArAlt),
		Verses:  make([]VerseResult, 0, len(rawVerses)),
		Raw:     append(json.RawMessage(nil), data...),
	}

	for i, raw := range rawVerses {
		verse, err := decodeVerse(raw)
		if err != nil {
			return nil, fmt.Errorf("decode verse %d: %w", i+1, err)
		}
		analysis.Verses = append(analysis.Verses, verse)
	}

	return analysis, nil
}

func decodeVerse(raw json.RawMessage) (VerseResult, error) {
	var p versePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return VerseResult{}, err
	}

	verse := VerseResult{
		Input:         p.Input,
		OriginalVerse: firstString(p.OriginalVerse, p.OriginalAlt),
		Sadr:          p.Sadr,
		Ajuz:          p.Ajuz,
		Status:        p.Status,
		IsValid:       p.IsValid,
		Tafila:        firstSlice(p.Tafila, p.Tafeela),
		MissingBits:   firstString(p.MissingBits, p.MissingBitsAlt),
		ExtraBits:     firstString(p.ExtraBits, p.ExtraBitsAlt),
		Raw:           append(json.RawMessage(nil), raw...),
	}
	if verse.IsValid == nil {
		verse.IsValid = p.IsValidAlt
	}

	if labels := firstSlice(p.Zihaaf, p.Zihaf); labels != nil {
		verse.Zihaf = make([]string, 0, len(labels))
		for _, label := range labels {
			verse.Zihaf = append(verse.Zihaf, jsonText(label))
		}
	}

	if p.Details != nil {
		verse.Details = &VerseDetails{
			Score:        parseScore(p.Details.Score),
			SadrAnalysis: firstSlice(p.Details.SadrAnalysis, p.Details.SadrAnalysisAlt),
			AjuzAnalysis: firstSlice(p.Details.AjuzAnalysis, p.Details.AjuzAnalysisAlt),
		}
	}

	return verse, nil
}

// parseScore accepts a JSON number or a string holding one; anything else
// means the verse has no score.
func parseScore(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var score float64
	if err := json.Unmarshal(raw, &score); err == nil {
		return &score
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil
	}
	score, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return nil
	}
	return &score
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstSlice[T any](values ...[]T) []T {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
