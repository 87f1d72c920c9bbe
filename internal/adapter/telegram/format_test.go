package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escalopa/arud-bot/internal/adapter/i18n"
	"github.com/escalopa/arud-bot/internal/analysis"
	"github.com/escalopa/arud-bot/internal/domain"
)

const payload = `{
  "bahr": "taweel",
  "meter_ar": "الطويل",
  "verses_analysis": [
    {
      "input": "قفا نبك من ذكرى حبيب ومنزل",
      "sadr": "قفا نبك من ذكرى",
      "ajuz": "حبيب ومنزل",
      "status": "صحيح",
      "details": {"score": 0.92, "sadr_analysis": [{"status": "ok"}, {"status": "ok"}, {"status": "broken"}]},
      "tafila": ["فعولن", {"pattern": "مفاعيلن", "status": "missing"}],
      "zihaaf": ["قبض"]
    },
    {
      "input": "a < b & c",
      "is_valid": false,
      "missing_bits": "سبب خفيف"
    }
  ]
}`

func newTranslator(t *testing.T) *i18n.I18n {
	t.Helper()
	tr, err := i18n.NewI18n("")
	require.NoError(t, err)
	return tr
}

func TestFormatResult(t *testing.T) {
	tr := newTranslator(t)
	a, err := domain.DecodeAnalysis([]byte(payload))
	require.NoError(t, err)

	text := formatResult(tr, domain.LangEnglish, analysis.NewView(a, 2))

	assert.Contains(t, text, "<b>Baḥr:</b> الطويل (taweel)")
	assert.Contains(t, text, "Confidence:</b> 46.0% (Medium)")
	assert.Contains(t, text, "<b>Verses:</b> 2 (2 input lines)")
	assert.Contains(t, text, "✅ Correct: 1   ❌ Broken: 1")
	assert.Contains(t, text, "<b>Verse 1</b> ✅ Correct · 92% ▰▰▰▰▰▰▰▰▰▱")
	assert.Contains(t, text, "Sadr: ✅ ok×2 · ❌ broken×1")
	assert.Contains(t, text, "Tafāʿīl: <code>فعولن</code> ❌<code>مفاعيلن</code>")
	assert.Contains(t, text, "Ziḥāf: قبض")
	assert.Contains(t, text, "<i>a &lt; b &amp; c</i>")
	assert.Contains(t, text, "⚠️ Missing: سبب خفيف")
	assert.NotContains(t, text, "Low confidence")
}

func TestFormatResultLowConfidenceHint(t *testing.T) {
	tr := newTranslator(t)
	a, err := domain.DecodeAnalysis([]byte(`{"verses":[{"input":"x","details":{"score":0.1}}]}`))
	require.NoError(t, err)

	text := formatResult(tr, domain.LangEnglish, analysis.NewView(a, 0))
	assert.Contains(t, text, "<b>Baḥr:</b> "+analysis.UnknownMeter+"\n")
	assert.Contains(t, text, "Low confidence")
	assert.NotContains(t, text, "input lines")
}

func TestErrorText(t *testing.T) {
	tr := newTranslator(t)

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"empty", domain.ErrEmptyInput, "Please send at least one verse."},
		{"too many", &domain.TooManyVersesError{Count: 250}, "Too many verses: at most 200 lines are allowed, you sent 250."},
		{"in progress", domain.ErrAnalysisInProgress, "Your previous poem is still being analysed. Please wait."},
		{"transport", &domain.TransportError{Err: errors.New("refused")}, "Unable to connect to the analysis service. Please try again later."},
		{"api with message", &domain.APIError{StatusCode: 400, Message: "Invalid verse <1>"}, "Analysis failed: Invalid verse &lt;1&gt;"},
		{"api without message", &domain.APIError{StatusCode: 500}, "Analysis failed: Server error"},
		{"wrapped", errors.Join(errors.New("analyze"), &domain.TransportError{Err: errors.New("x")}), "Unable to connect to the analysis service. Please try again later."},
		{"other", errors.New("boom"), "Something went wrong. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorText(tr, domain.LangEnglish, tt.err))
		})
	}
}

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{"fits", "a\n\nb", 10, []string{"a\n\nb"}},
		{"block boundary", "aaaa\n\nbbbb\n\ncc", 10, []string{"aaaa\n\nbbbb", "cc"}},
		{"long block by lines", "aaaa\nbbbb\ncccc", 10, []string{"aaaa\nbbbb", "cccc"}},
		{"long line", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"surrogate pairs", "😀😀😀", 4, []string{"😀😀", "😀"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitMessage(tt.text, tt.limit))
		})
	}
}

func TestSplitMessageKeepsEverything(t *testing.T) {
	var blocks []string
	for i := 0; i < 300; i++ {
		blocks = append(blocks, strings.Repeat("بيت ", 20))
	}
	text := strings.Join(blocks, "\n\n")

	chunks := splitMessage(text, messageLimit)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, textLen(c), messageLimit)
	}
	assert.Equal(t, text, strings.Join(chunks, "\n\n"))
}

func TestFormatResultEmptyShowsLowConfidenceHint(t *testing.T) {
	tr := newTranslator(t)
	a, err := domain.DecodeAnalysis([]byte(`{"verses_analysis": []}`))
	require.NoError(t, err)

	text := formatResult(tr, domain.LangEnglish, analysis.NewView(a, 0))
	assert.Contains(t, text, "0.0% (Low)")
	assert.Contains(t, text, "Low confidence")
}

// assertBalanced checks that every tag opened in a chunk is closed in it
func assertBalanced(t *testing.T, chunks []string) {
	t.Helper()
	for i, c := range chunks {
		assert.Empty(t, scanTags(nil, c), "chunk %d leaves tags open", i)
		for _, tag := range []string{"pre", "code", "i", "b"} {
			opens := strings.Count(c, "<"+tag+">") + strings.Count(c, "<"+tag+" ")
			assert.Equal(t, opens, strings.Count(c, "</"+tag+">"), "chunk %d: <%s>", i, tag)
		}
	}
}

func TestSplitMessageKeepsVerseJSONBalanced(t *testing.T) {
	tr := newTranslator(t)
	items := make([]string, 200)
	for i := range items {
		items[i] = fmt.Sprintf(`{"status": "broken", "note": "<%d> & more"}`, i)
	}
	raw := `{"input": "بيت", "details": {"sadr_analysis": [` + strings.Join(items, ",") + `]}}`

	text := formatVerseJSON(tr, domain.LangEnglish, 1, []byte(raw))
	chunks := splitMessage(text, messageLimit)
	require.Greater(t, len(chunks), 1)
	assertBalanced(t, chunks)

	for i, c := range chunks {
		assert.True(t, strings.HasPrefix(c, "<pre>") || i == 0, "chunk %d", i)
		assert.True(t, strings.HasSuffix(c, "</code></pre>"), "chunk %d", i)
		assert.LessOrEqual(t, textLen(c), 4096, "chunk %d", i)
	}
	assert.True(t, strings.HasPrefix(chunks[0], "<b>Verse 1</b>\n<pre><code class=\"language-json\">"))
	assert.True(t, strings.HasPrefix(chunks[1], `<pre><code class="language-json">`))
}

func TestSplitMessageLongTaggedLine(t *testing.T) {
	line := "<i>" + strings.Repeat("بيت ", 2500) + "</i>"

	chunks := splitMessage(line, messageLimit)
	require.Len(t, chunks, 3)
	assertBalanced(t, chunks)

	var plain strings.Builder
	for _, c := range chunks {
		plain.WriteString(strings.TrimSuffix(strings.TrimPrefix(c, "<i>"), "</i>"))
	}
	assert.Equal(t, strings.Repeat("بيت ", 2500), plain.String())
}

func TestSplitMessageDoesNotCutMarkup(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{"entity", "xyz&amp;", 5, []string{"xyz", "&amp;"}},
		{"tag", "abc<b>de</b>", 5, []string{"abc", "<b>de</b>"}},
		{"reopened tag", "<b>abcdef</b>", 4, []string{"<b>a</b>", "<b>bcde</b>", "<b>f</b>"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitMessage(tt.text, tt.limit))
		})
	}
}

func TestParseResultCallback(t *testing.T) {
	tests := []struct {
		data       string
		wantAction string
		wantVerse  int
		wantID     string
		wantOK     bool
	}{
		{"json:abc", callbackJSON, 0, "abc", true},
		{"report:", callbackReport, 0, "", true},
		{"details:3:abc", callbackDetails, 3, "abc", true},
		{"details:3", callbackDetails, 3, "", true},
		{"details:x:abc", "", 0, "", false},
		{"lang:en", "", 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			action, verse, id, ok := parseResultCallback(tt.data)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantAction, action)
			assert.Equal(t, tt.wantVerse, verse)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestResultKeyboardCarriesAnalysisID(t *testing.T) {
	b := &Bot{i18n: newTranslator(t)}
	id := "0b7f6a52-3c1e-4f7a-9d55-2e8e6f0c1a9b"

	keyboard := b.resultKeyboard(domain.LangEnglish, 5, id)
	require.Len(t, keyboard.InlineKeyboard, 3)

	var data []string
	for _, row := range keyboard.InlineKeyboard {
		for _, button := range row {
			require.NotNil(t, button.CallbackData)
			assert.LessOrEqual(t, len(*button.CallbackData), 64)
			data = append(data, *button.CallbackData)
		}
	}
	assert.Equal(t, "json:"+id, data[0])
	assert.Equal(t, "report:"+id, data[1])
	assert.Equal(t, "details:5:"+id, data[len(data)-1])

	for _, d := range data {
		_, _, got, ok := parseResultCallback(d)
		assert.True(t, ok)
		assert.Equal(t, id, got)
	}
}

func TestFormatVerseJSON(t *testing.T) {
	tr := newTranslator(t)
	text := formatVerseJSON(tr, domain.LangEnglish, 3, []byte(`{"input":"<x>"}`))
	assert.Equal(t, "<b>Verse 3</b>\n<pre><code class=\"language-json\">{\n  &#34;input&#34;: &#34;&lt;x&gt;&#34;\n}</code></pre>", text)

	assert.Contains(t, formatVerseJSON(tr, domain.LangEnglish, 1, nil), "No further details")
}

func TestIsTextDocument(t *testing.T) {
	assert.True(t, isTextDocument(&tgbotapi.Document{FileName: "poem.TXT"}))
	assert.True(t, isTextDocument(&tgbotapi.Document{FileName: "poem", MimeType: "text/plain; charset=utf-8"}))
	assert.False(t, isTextDocument(&tgbotapi.Document{FileName: "poem.pdf", MimeType: "application/pdf"}))
	assert.False(t, isTextDocument(&tgbotapi.Document{FileName: "big.txt", FileSize: maxDocumentSize + 1}))
	assert.False(t, isTextDocument(nil))
}

func TestDownloadFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/big" {
			w.Write([]byte(strings.Repeat("x", maxDocumentSize+1)))
			return
		}
		w.Write([]byte("قفا نبك"))
	}))
	defer server.Close()

	data, err := downloadFile(context.Background(), server.URL+"/poem.txt")
	require.NoError(t, err)
	assert.Equal(t, "قفا نبك", string(data))

	_, err = downloadFile(context.Background(), server.URL+"/big")
	assert.Error(t, err)
}
