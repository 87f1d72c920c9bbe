package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/escalopa/arud-bot/internal/adapter/i18n"
	"github.com/escalopa/arud-bot/internal/analysis"
	"github.com/escalopa/arud-bot/internal/domain"
)

// messageLimit stays under Telegram's 4096 UTF-16 unit cap. The cap applies
// to the text after entity parsing, so tags reopened across a cut fit.
const messageLimit = 4000

// formatResult renders the analysis summary followed by one card per verse.
// Blocks are separated by blank lines so splitMessage can cut between them.
func formatResult(tr domain.I18nPort, lang domain.Language, view analysis.View) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("<b>📜 %s</b>\n", tr.Get(lang, "analysis.title")))
	text.WriteString(fmt.Sprintf("<b>%s:</b> %s", tr.Get(lang, "analysis.meter"), html.EscapeString(view.Meter.Primary)))
	if view.Meter.Secondary != "" {
		text.WriteString(fmt.Sprintf(" (%s)", html.EscapeString(view.Meter.Secondary)))
	}
	text.WriteString("\n")

	s := view.Summary
	text.WriteString(fmt.Sprintf("📊 <b>%s:</b> %.1f%% (%s)\n",
		tr.Get(lang, "analysis.confidence"),
		s.Confidence*100,
		tr.Get(lang, "level."+string(s.Level())),
	))
	text.WriteString(fmt.Sprintf("<b>%s:</b> %d", tr.Get(lang, "analysis.verses"), s.Total()))
	if view.InputLines > 0 {
		text.WriteString(fmt.Sprintf(" (%d %s)", view.InputLines, tr.Get(lang, "analysis.input_lines")))
	}
	text.WriteString("\n")
	text.WriteString(fmt.Sprintf("✅ %s: %d   ❌ %s: %d",
		tr.Get(lang, "analysis.correct"), s.CorrectCount,
		tr.Get(lang, "analysis.broken"), s.BrokenCount,
	))
	if s.LowConfidence() {
		text.WriteString("\n\n" + tr.Get(lang, "analysis.low_confidence"))
	}

	for _, v := range view.Verses {
		text.WriteString("\n\n")
		text.WriteString(formatVerse(tr, lang, v))
	}

	return text.String()
}

func formatVerse(tr domain.I18nPort, lang domain.Language, v analysis.VerseView) string {
	var text strings.Builder

	verdict := "verdict.broken"
	mark := "❌"
	if v.Correct {
		verdict = "verdict.correct"
		mark = "✅"
	}
	text.WriteString(fmt.Sprintf("<b>%s</b> %s %s", tr.Get(lang, "verse.title", v.Number), mark, tr.Get(lang, verdict)))
	if v.HasScore {
		text.WriteString(fmt.Sprintf(" · %d%% %s", v.Score, scoreBar(v.Score)))
	}
	text.WriteString("\n")

	if v.Sadr != "" || v.Ajuz != "" {
		text.WriteString(fmt.Sprintf("<i>%s</i>\n<i>%s</i>\n", html.EscapeString(v.Sadr), html.EscapeString(v.Ajuz)))
	} else {
		text.WriteString(fmt.Sprintf("<i>%s</i>\n", html.EscapeString(v.Text)))
	}

	if v.Status != "" {
		text.WriteString(fmt.Sprintf("%s: %s\n", tr.Get(lang, "verse.status"), html.EscapeString(v.Status)))
	}
	if len(v.SadrTags) > 0 {
		text.WriteString(fmt.Sprintf("%s: %s\n", tr.Get(lang, "verse.sadr"), formatTags(v.SadrTags)))
	}
	if len(v.AjuzTags) > 0 {
		text.WriteString(fmt.Sprintf("%s: %s\n", tr.Get(lang, "verse.ajuz"), formatTags(v.AjuzTags)))
	}
	if len(v.Feet) > 0 {
		feet := make([]string, len(v.Feet))
		for i, f := range v.Feet {
			feet[i] = "<code>" + html.EscapeString(f.Label) + "</code>"
			if analysis.FootBroken(f) {
				feet[i] = "❌" + feet[i]
			}
		}
		text.WriteString(fmt.Sprintf("%s: %s\n", tr.Get(lang, "verse.feet"), strings.Join(feet, " ")))
	}
	if len(v.Zihaf) > 0 {
		text.WriteString(fmt.Sprintf("%s: %s\n", tr.Get(lang, "verse.zihaf"), html.EscapeString(strings.Join(v.Zihaf, "، "))))
	}
	if v.MissingBits != "" {
		text.WriteString(fmt.Sprintf("⚠️ %s: %s\n", tr.Get(lang, "verse.missing"), html.EscapeString(v.MissingBits)))
	}
	if v.ExtraBits != "" {
		text.WriteString(fmt.Sprintf("⚠️ %s: %s\n", tr.Get(lang, "verse.extra"), html.EscapeString(v.ExtraBits)))
	}

	return strings.TrimRight(text.String(), "\n")
}

func formatTags(tags []analysis.TagCount) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = fmt.Sprintf("%s %s×%d", toneEmoji(t.Tone), html.EscapeString(t.Tag), t.Count)
	}
	return strings.Join(parts, " · ")
}

// toneEmoji returns emoji for a tag tone
func toneEmoji(tone analysis.Tone) string {
	switch tone {
	case analysis.TonePositive:
		return "✅"
	case analysis.ToneNegative:
		return "❌"
	case analysis.ToneCaution:
		return "⚠️"
	default:
		return "▫️"
	}
}

// scoreBar draws a ten-cell bar for a percentage
func scoreBar(percent int) string {
	filled := (percent + 5) / 10
	if filled < 0 {
		filled = 0
	}
	if filled > 10 {
		filled = 10
	}
	return strings.Repeat("▰", filled) + strings.Repeat("▱", 10-filled)
}

// formatVerseJSON renders the raw payload of one verse as a code block
func formatVerseJSON(tr domain.I18nPort, lang domain.Language, number int, raw json.RawMessage) string {
	title := fmt.Sprintf("<b>%s</b>\n", tr.Get(lang, "verse.title", number))
	var buf bytes.Buffer
	if len(raw) == 0 || json.Indent(&buf, raw, "", "  ") != nil {
		return title + tr.Get(lang, "verse.no_details")
	}
	return title + `<pre><code class="language-json">` + html.EscapeString(buf.String()) + "</code></pre>"
}

// errorText is the HTML-safe user message for err
func errorText(tr domain.I18nPort, lang domain.Language, err error) string {
	return html.EscapeString(i18n.ErrorMessage(tr, lang, err))
}

// splitMessage cuts text into messages of at most limit UTF-16 units,
// preferring blank-line and then line boundaries. Tags open at a cut are
// closed at the end of the chunk and reopened at the start of the next.
func splitMessage(text string, limit int) []string {
	return balanceTags(splitText(text, limit))
}

func splitText(text string, limit int) []string {
	var (
		chunks  []string
		current strings.Builder
	)

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}
	add := func(piece, sep string) {
		if current.Len() > 0 && textLen(current.String())+textLen(sep)+textLen(piece) > limit {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(sep)
		}
		current.WriteString(piece)
	}

	for _, block := range strings.Split(text, "\n\n") {
		if textLen(block) <= limit {
			add(block, "\n\n")
			continue
		}
		flush()
		for _, line := range strings.Split(block, "\n") {
			for textLen(line) > limit {
				head, tail := cut(line, limit)
				add(head, "\n")
				flush()
				line = tail
			}
			add(line, "\n")
		}
		flush()
	}
	flush()

	return chunks
}

// textLen counts UTF-16 code units, the unit Telegram limits messages in
func textLen(s string) int {
	n := 0
	for _, r := range s {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// cut splits s after at most limit UTF-16 units, moving the cut back so it
// does not fall inside a tag or an entity.
func cut(s string, limit int) (string, string) {
	n := 0
	for i, r := range s {
		w := 1
		if r > 0xFFFF {
			w = 2
		}
		if n+w > limit {
			return s[:markupSafe(s, i)], s[markupSafe(s, i):]
		}
		n += w
	}
	return s, ""
}

func markupSafe(s string, i int) int {
	head := s[:i]
	j := i
	if lt := strings.LastIndexByte(head, '<'); lt > strings.LastIndexByte(head, '>') {
		j = lt
	}
	if amp := strings.LastIndexByte(head[:j], '&'); amp > strings.LastIndexByte(head[:j], ';') {
		j = amp
	}
	if j == 0 {
		return i
	}
	return j
}

// balanceTags closes the tags left open at the end of each chunk and
// reopens them at the start of the following one. A chunk with no visible
// text, such as a lone closing tag, is folded into the chunk before it.
func balanceTags(chunks []string) []string {
	merged := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if len(merged) > 0 && strings.TrimSpace(visibleText(chunk)) == "" {
			merged[len(merged)-1] += chunk
			continue
		}
		merged = append(merged, chunk)
	}

	var open []string
	out := make([]string, len(merged))
	for i, chunk := range merged {
		prefix := strings.Join(open, "")
		open = scanTags(open, chunk)

		var suffix strings.Builder
		for k := len(open) - 1; k >= 0; k-- {
			suffix.WriteString("</" + tagName(open[k]) + ">")
		}
		out[i] = prefix + chunk + suffix.String()
	}
	return out
}

// scanTags applies the tags of s to the stack of open tags
func scanTags(open []string, s string) []string {
	for {
		lt := strings.IndexByte(s, '<')
		if lt < 0 {
			return open
		}
		gt := strings.IndexByte(s[lt:], '>')
		if gt < 0 {
			return open
		}
		tag := s[lt : lt+gt+1]
		s = s[lt+gt+1:]

		if strings.HasPrefix(tag, "</") {
			if len(open) > 0 {
				open = open[:len(open)-1]
			}
			continue
		}
		open = append(open, tag)
	}
}

// visibleText drops the tags of s
func visibleText(s string) string {
	var b strings.Builder
	for {
		lt := strings.IndexByte(s, '<')
		if lt < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:lt])
		gt := strings.IndexByte(s[lt:], '>')
		if gt < 0 {
			return b.String()
		}
		s = s[lt+gt+1:]
	}
}

func tagName(tag string) string {
	name := strings.Trim(tag, "<>/")
	if i := strings.IndexByte(name, ' '); i >= 0 {
		name = name[:i]
	}
	return name
}
