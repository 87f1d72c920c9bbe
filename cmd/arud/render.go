package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/escalopa/arud-bot/internal/adapter/i18n"
	"github.com/escalopa/arud-bot/internal/analysis"
	"github.com/escalopa/arud-bot/internal/application"
	"github.com/escalopa/arud-bot/internal/domain"
)

const (
	formatText   = "text"
	formatTable  = "table"
	formatJSON   = "json"
	formatReport = "report"
)

func validateFormat(format string) error {
	switch format {
	case formatText, formatTable, formatJSON, formatReport:
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, table, json or report)", format)
	}
}

// writeResult prints res in the requested format to the command's stdout
func writeResult(cmd *cobra.Command, ctx *commandContext, res *application.Result, format string, debug bool) error {
	out := cmd.OutOrStdout()

	switch format {
	case formatJSON:
		return analysis.WriteJSON(out, res.Analysis.Raw)
	case formatReport:
		return analysis.WriteReport(out, res.Analysis, res.Summary(), res.InputLines)
	}

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	tr, err := i18n.NewI18n(cfg.App.LocalesDir)
	if err != nil {
		return err
	}
	lang := ctx.language()
	view := res.View()
	colorize := shouldColorize(out)

	var buf bytes.Buffer
	writeHeader(&buf, tr, lang, view, colorize)
	if format == formatTable {
		buf.WriteString(renderVerseTable(tr, lang, view))
		buf.WriteString("\n")
	} else {
		for _, v := range view.Verses {
			buf.WriteString("\n")
			writeVerse(&buf, tr, lang, v, colorize)
		}
	}

	if debug {
		for i, v := range res.Analysis.Verses {
			fmt.Fprintf(&buf, "\n-- %s --\n", tr.Get(lang, "verse.title", i+1))
			if err := analysis.WriteJSON(&buf, v.Raw); err != nil {
				buf.WriteString(tr.Get(lang, "verse.no_details") + "\n")
			}
		}
	}

	_, err = out.Write(buf.Bytes())
	return err
}

func writeHeader(w io.Writer, tr domain.I18nPort, lang domain.Language, view analysis.View, colorize bool) {
	s := view.Summary

	fmt.Fprintf(w, "%s: %s\n", tr.Get(lang, "analysis.meter"), paint(view.Meter.String(), colorize, text.Bold))
	level := fmt.Sprintf("%.1f%% (%s)", s.Confidence*100, tr.Get(lang, "level."+string(s.Level())))
	fmt.Fprintf(w, "%s: %s\n", tr.Get(lang, "analysis.confidence"), paint(level, colorize, levelColor(s.Level())))

	fmt.Fprintf(w, "%s: %d", tr.Get(lang, "analysis.verses"), s.Total())
	if view.InputLines > 0 {
		fmt.Fprintf(w, " (%d %s)", view.InputLines, tr.Get(lang, "analysis.input_lines"))
	}
	fmt.Fprintf(w, "   %s   %s\n",
		paint(fmt.Sprintf("✅ %s: %d", tr.Get(lang, "analysis.correct"), s.CorrectCount), colorize, text.FgGreen),
		paint(fmt.Sprintf("❌ %s: %d", tr.Get(lang, "analysis.broken"), s.BrokenCount), colorize, text.FgRed),
	)
	if s.LowConfidence() {
		fmt.Fprintln(w, paint(tr.Get(lang, "analysis.low_confidence"), colorize, text.FgYellow))
	}
}

func writeVerse(w io.Writer, tr domain.I18nPort, lang domain.Language, v analysis.VerseView, colorize bool) {
	verdict := paint("❌ "+tr.Get(lang, "verdict.broken"), colorize, text.FgRed)
	if v.Correct {
		verdict = paint("✅ "+tr.Get(lang, "verdict.correct"), colorize, text.FgGreen)
	}
	fmt.Fprintf(w, "%s  %s", paint(tr.Get(lang, "verse.title", v.Number), colorize, text.Bold), verdict)
	if v.HasScore {
		fmt.Fprintf(w, "  %d%%", v.Score)
	}
	fmt.Fprintln(w)

	if v.Sadr != "" || v.Ajuz != "" {
		fmt.Fprintf(w, "  %s\n  %s\n", v.Sadr, v.Ajuz)
	} else {
		fmt.Fprintf(w, "  %s\n", v.Text)
	}
	if v.Status != "" {
		fmt.Fprintf(w, "  %s: %s\n", tr.Get(lang, "verse.status"), v.Status)
	}
	if len(v.SadrTags) > 0 {
		fmt.Fprintf(w, "  %s: %s\n", tr.Get(lang, "verse.sadr"), tagsText(v.SadrTags, colorize))
	}
	if len(v.AjuzTags) > 0 {
		fmt.Fprintf(w, "  %s: %s\n", tr.Get(lang, "verse.ajuz"), tagsText(v.AjuzTags, colorize))
	}
	if len(v.Feet) > 0 {
		fmt.Fprintf(w, "  %s: %s\n", tr.Get(lang, "verse.feet"), feetText(v.Feet, colorize))
	}
	if len(v.Zihaf) > 0 {
		fmt.Fprintf(w, "  %s: %s\n", tr.Get(lang, "verse.zihaf"), strings.Join(v.Zihaf, "، "))
	}
	if v.MissingBits != "" {
		fmt.Fprintf(w, "  %s: %s\n", tr.Get(lang, "verse.missing"), paint(v.MissingBits, colorize, text.FgYellow))
	}
	if v.ExtraBits != "" {
		fmt.Fprintf(w, "  %s: %s\n", tr.Get(lang, "verse.extra"), paint(v.ExtraBits, colorize, text.FgYellow))
	}
}

func renderVerseTable(tr domain.I18nPort, lang domain.Language, view analysis.View) string {
	headers := []string{
		"#",
		tr.Get(lang, "analysis.verses"),
		tr.Get(lang, "verse.status"),
		tr.Get(lang, "verse.score"),
		tr.Get(lang, "verse.feet"),
		tr.Get(lang, "verse.zihaf"),
	}

	rows := make([][]string, len(view.Verses))
	for i, v := range view.Verses {
		verdict := tr.Get(lang, "verdict.broken")
		if v.Correct {
			verdict = tr.Get(lang, "verdict.correct")
		}
		score := "-"
		if v.HasScore {
			score = strconv.Itoa(v.Score) + "%"
		}
		rows[i] = []string{
			strconv.Itoa(v.Number),
			v.Text,
			verdict,
			score,
			feetText(v.Feet, false),
			strings.Join(v.Zihaf, "، "),
		}
	}

	return renderTable(headers, rows, []columnAlignment{alignRight, alignLeft, alignLeft, alignRight})
}

func tagsText(tags []analysis.TagCount, colorize bool) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = paint(fmt.Sprintf("%s×%d", t.Tag, t.Count), colorize, toneColor(t.Tone))
	}
	return strings.Join(parts, " ")
}

func feetText(feet []domain.Foot, colorize bool) string {
	parts := make([]string, len(feet))
	for i, f := range feet {
		if analysis.FootBroken(f) {
			parts[i] = paint("["+f.Label+"]", colorize, text.FgRed)
			continue
		}
		parts[i] = f.Label
	}
	return strings.Join(parts, " ")
}

func toneColor(tone analysis.Tone) text.Color {
	switch tone {
	case analysis.TonePositive:
		return text.FgGreen
	case analysis.ToneNegative:
		return text.FgRed
	case analysis.ToneCaution:
		return text.FgYellow
	default:
		return text.FgHiBlack
	}
}

func levelColor(level analysis.ConfidenceLevel) text.Color {
	switch level {
	case analysis.LevelHigh:
		return text.FgGreen
	case analysis.LevelMedium:
		return text.FgYellow
	default:
		return text.FgRed
	}
}

func paint(s string, colorize bool, colors ...text.Color) string {
	if !colorize {
		return s
	}
	return text.Colors(colors).Sprint(s)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
