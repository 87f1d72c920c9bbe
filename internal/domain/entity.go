package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// CorrectStatus is the status the analysis service attaches to a verse that scans
const CorrectStatus = "صحيح"

// Analysis represents one analysis result for a submitted poem.
// Raw holds the payload exactly as it was received.
type Analysis struct {
	Meter   string // transliterated name (bahr or meter on the wire)
	MeterAr string // Arabic-script name
	Verses  []VerseResult
	Raw     json.RawMessage
}

// VerseResult represents the analysis of one verse (a sadr/ajuz pair or a single line)
type VerseResult struct {
	Input         string
	OriginalVerse string
	Sadr          string
	Ajuz          string
	Status        string
	IsValid       *bool
	Details       *VerseDetails
	Tafila        []Foot
	Zihaf         []string
	MissingBits   string
	ExtraBits     string
	Raw           json.RawMessage
}

// VerseDetails holds the nested details block of a verse result
type VerseDetails struct {
	Score        *float64
	SadrAnalysis []SubResult
	AjuzAnalysis []SubResult
}

// SubResult represents one entry of a hemistich analysis
type SubResult struct {
	Status string
}

// Foot represents a tafʿīla descriptor
type Foot struct {
	Label  string
	Status string
}

// Score returns the verse score when the service supplied one
func (v VerseResult) Score() (float64, bool) {
	if v.Details == nil || v.Details.Score == nil {
		return 0, false
	}
	return *v.Details.Score, true
}

// HasHalves reports whether the verse was split into sadr and ajuz
func (v VerseResult) HasHalves() bool {
	return v.Sadr != "" || v.Ajuz != ""
}

// Text returns the text the verse was analysed from
func (v VerseResult) Text() string {
	switch {
	case v.Input != "":
		return v.Input
	case v.OriginalVerse != "":
		return v.OriginalVerse
	case v.Sadr != "" && v.Ajuz != "":
		return v.Sadr + " *** " + v.Ajuz
	default:
		return v.Sadr + v.Ajuz
	}
}

// UnmarshalJSON accepts either {"status": "..."} or any other value, which
// leaves the status empty.
func (s *SubResult) UnmarshalJSON(data []byte) error {
	var obj struct {
		Status json.RawMessage `json:"status"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		*s = SubResult{}
		return nil
	}
	s.Status = jsonText(obj.Status)
	return nil
}

// UnmarshalJSON accepts a plain label or an object carrying pattern/text and status
func (f *Foot) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		*f = Foot{Label: label}
		return nil
	}

	var obj struct {
		Pattern json.RawMessage `json:"pattern"`
		Text    json.RawMessage `json:"text"`
		Status  json.RawMessage `json:"status"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		*f = Foot{Label: compactJSON(data)}
		return nil
	}

	f.Status = jsonText(obj.Status)
	switch {
	case jsonText(obj.Pattern) != "":
		f.Label = jsonText(obj.Pattern)
	case jsonText(obj.Text) != "":
		f.Label = jsonText(obj.Text)
	default:
		f.Label = compactJSON(data)
	}
	return nil
}

// jsonText renders a scalar JSON value as text. Strings are unquoted, null and
// absent values are empty.
func jsonText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b)
	}
	return compactJSON(raw)
}

func compactJSON(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// BahrInfo represents the metadata the service returns for a meter
type BahrInfo struct {
	Name    string `json:"name"`
	Pattern string `json:"pattern"`
}

// ServiceStatus represents the liveness report of the analysis service
type ServiceStatus struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Service   string            `json:"service"`
	Endpoints map[string]string `json:"endpoints,omitempty"`
}

// Language represents supported languages
type Language string

const (
	LangEnglish Language = "en"
	LangArabic  Language = "ar"
	LangFrench  Language = "fr"
)

// Languages lists every language with a locale file
var Languages = []Language{LangEnglish, LangArabic, LangFrench}

// ParseLanguage returns the language for code, or false when it is not supported
func ParseLanguage(code string) (Language, bool) {
	for _, lang := range Languages {
		if string(lang) == code {
			return lang, true
		}
	}
	return "", false
}
