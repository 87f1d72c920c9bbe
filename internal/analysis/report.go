package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/escalopa/arud-bot/internal/domain"
)

const reportTitle = "Arud Analysis Report"

// WriteJSON writes the payload exactly as received, indented by two spaces.
// Key order and number formatting are preserved.
func WriteJSON(w io.Writer, raw json.RawMessage) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return errors.New("write json: empty payload")
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("indent payload: %w", err)
	}
	buf.WriteByte('\n')

	_, err := w.Write(buf.Bytes())
	return err
}

// WriteReport writes the plain-text report of a. inputLines is omitted when 0.
func WriteReport(w io.Writer, a *domain.Analysis, s Summary, inputLines int) error {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n", reportTitle)
	fmt.Fprintf(&buf, "========================\n\n")
	fmt.Fprintf(&buf, "Baḥr: %s\n", ResolveMeter(a.Meter, a.MeterAr))
	fmt.Fprintf(&buf, "Confidence: %.1f%% (%s)\n", s.Confidence*100, s.Level())
	if inputLines > 0 {
		fmt.Fprintf(&buf, "Input lines: %d\n", inputLines)
	}
	fmt.Fprintf(&buf, "Total verses: %d\n", len(a.Verses))
	fmt.Fprintf(&buf, "✅ Correct: %d\n", s.CorrectCount)
	fmt.Fprintf(&buf, "❌ Broken: %d\n\n", s.BrokenCount)

	for i, v := range a.Verses {
		fmt.Fprintf(&buf, "Verse %d: %s\n", i+1, v.Text())
		status := VerdictLabel(Verdict(v))
		if v.Status != "" {
			status += " (" + v.Status + ")"
		}
		fmt.Fprintf(&buf, "Status: %s\n\n", status)
	}

	_, err := w.Write(buf.Bytes())
	return err
}
