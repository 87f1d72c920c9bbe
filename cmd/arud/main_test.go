package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const analysisData = `{
  "bahr": "mutakareb",
  "meter_ar": "المتقارب",
  "verses_analysis": [
    {"input": "أخي جاوز الظالمون المدى", "status": "صحيح", "details": {"score": 0.92}, "tafila": ["فعولن", "فعولن"]},
    {"input": "فحق الجهاد وحق الفدا", "status": "مكسور", "is_valid": false, "missing_bits": "سبب"}
  ]
}`

type fakeBackend struct {
	server   *httptest.Server
	analyzed atomic.Int32
	fail     string
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/analyze", func(w http.ResponseWriter, r *http.Request) {
		b.analyzed.Add(1)
		if b.fail != "" {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprintf(w, `{"success": false, "error": %q}`, b.fail)
			return
		}
		fmt.Fprintf(w, `{"success": true, "data": %s}`, analysisData)
	})
	mux.HandleFunc("/api/bahr/", func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/api/bahr/")
		fmt.Fprintf(w, `{"success": true, "data": {"name": %q, "pattern": "فعولن مفاعيلن فعولن مفاعيلن"}}`, name)
	})
	mux.HandleFunc("/api/validate", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "is_valid": true}`))
	})
	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "running", "version": "1.0.0", "service": "PyArud API", "endpoints": {"analyze": "/api/analyze [POST]"}}`))
	})
	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)
	return b
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	path := filepath.Join(base, "config.yaml")
	body := fmt.Sprintf("session:\n  driver: sqlite\n  sqlite_path: %q\nlog:\n  level: error\n", filepath.Join(base, "cache", "session.db"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func runCLI(t *testing.T, args []string, stdin io.Reader, apiURL, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	flags := []string{"--api", apiURL + "/api", "--config", configPath}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writePoem(t *testing.T, poem string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "poem.txt")
	require.NoError(t, os.WriteFile(path, []byte(poem), 0o600))
	return path
}

func TestAnalyzeThenLastAndExport(t *testing.T) {
	backend := newFakeBackend(t)
	configPath := writeTestConfig(t)
	poem := writePoem(t, "أخي جاوز الظالمون المدى\n\nفحق الجهاد وحق الفدا\n")

	out, _, err := runCLI(t, []string{"analyze", poem}, nil, backend.server.URL, configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Baḥr: المتقارب (mutakareb)")
	assert.Contains(t, out, "Confidence: 46.0% (Medium)")
	assert.Contains(t, out, "Verses: 2 (2 input lines)")
	assert.Contains(t, out, "Verse 1  ✅ Correct  92%")
	assert.Contains(t, out, "Missing: سبب")
	assert.NotContains(t, out, "\x1b[")

	out, _, err = runCLI(t, []string{"last", "--format", "report"}, nil, backend.server.URL, configPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Arud Analysis Report\n"))
	assert.Contains(t, out, "Input lines: 2\n")
	assert.Contains(t, out, "Verse 2: فحق الجهاد وحق الفدا\nStatus: Broken (مكسور)\n")

	out, _, err = runCLI(t, []string{"last", "--format", "json"}, nil, backend.server.URL, configPath)
	require.NoError(t, err)
	assert.JSONEq(t, analysisData, out)

	out, _, err = runCLI(t, []string{"last", "--poem"}, nil, backend.server.URL, configPath)
	require.NoError(t, err)
	assert.Equal(t, "أخي جاوز الظالمون المدى\n\nفحق الجهاد وحق الفدا\n", out)

	exportPath := filepath.Join(t.TempDir(), "report.txt")
	_, stderr, err := runCLI(t, []string{"export", "report", "-o", exportPath}, nil, backend.server.URL, configPath)
	require.NoError(t, err)
	assert.Contains(t, stderr, exportPath)
	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "✅ Correct: 1\n❌ Broken: 1\n")

	assert.Equal(t, int32(1), backend.analyzed.Load())
}

func TestAnalyzeStdinTableAndDebug(t *testing.T) {
	backend := newFakeBackend(t)
	configPath := writeTestConfig(t)

	out, _, err := runCLI(t, []string{"analyze", "--format", "table", "--debug"}, strings.NewReader("بيت\nبيت\n"), backend.server.URL, configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "╭")
	assert.Contains(t, out, "فعولن فعولن")
	assert.Contains(t, out, "-- Verse 2 --")
	assert.Contains(t, out, `"missing_bits": "سبب"`)
}

func TestAnalyzeRejectsBeforeNetwork(t *testing.T) {
	backend := newFakeBackend(t)
	configPath := writeTestConfig(t)

	_, _, err := runCLI(t, []string{"analyze"}, strings.NewReader(strings.Repeat("بيت\n", 201)), backend.server.URL, configPath)
	require.Error(t, err)
	assert.Equal(t, "Too many verses: at most 200 lines are allowed, you sent 201.", err.Error())

	_, _, err = runCLI(t, []string{"analyze"}, strings.NewReader(" \n\n\t\n"), backend.server.URL, configPath)
	require.Error(t, err)
	assert.Equal(t, "Please send at least one verse.", err.Error())

	assert.Zero(t, backend.analyzed.Load())
}

func TestAnalyzeServerError(t *testing.T) {
	backend := newFakeBackend(t)
	backend.fail = "Analysis failed: engine crashed"
	configPath := writeTestConfig(t)

	_, _, err := runCLI(t, []string{"analyze", "--lang", "fr"}, strings.NewReader("بيت\n"), backend.server.URL, configPath)
	require.Error(t, err)
	assert.Equal(t, "Échec de l'analyse : Analysis failed: engine crashed", err.Error())

	_, _, err = runCLI(t, []string{"last"}, nil, backend.server.URL, configPath)
	assert.ErrorIs(t, err, errNoSession)
}

func TestAnalyzeConnectionError(t *testing.T) {
	backend := newFakeBackend(t)
	url := backend.server.URL
	backend.server.Close()

	_, _, err := runCLI(t, []string{"analyze"}, strings.NewReader("بيت\n"), url, writeTestConfig(t))
	require.Error(t, err)
	assert.Equal(t, "Unable to connect to the analysis service. Please try again later.", err.Error())
}

func TestAnalyzeExample(t *testing.T) {
	backend := newFakeBackend(t)
	configPath := writeTestConfig(t)

	_, _, err := runCLI(t, []string{"analyze", "--example", "taweel", "--format", "json"}, nil, backend.server.URL, configPath)
	require.NoError(t, err)

	_, _, err = runCLI(t, []string{"analyze", "--example", "nope"}, nil, backend.server.URL, configPath)
	assert.ErrorContains(t, err, "unknown example")
}

func TestInfoCommands(t *testing.T) {
	backend := newFakeBackend(t)
	configPath := writeTestConfig(t)

	out, _, err := runCLI(t, []string{"bahr", "taweel"}, nil, backend.server.URL, configPath)
	require.NoError(t, err)
	assert.Equal(t, "الطويل\nفعولن مفاعيلن فعولن مفاعيلن\n", out)

	out, _, err = runCLI(t, []string{"bahr", "--json", "الطويل"}, nil, backend.server.URL, configPath)
	require.NoError(t, err)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "الطويل", info["name"])

	out, _, err = runCLI(t, []string{"bahr"}, nil, backend.server.URL, configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "mutaqareb")
	assert.Contains(t, out, "المتدارك")

	out, _, err = runCLI(t, []string{"validate", "قفا", "نبك"}, nil, backend.server.URL, configPath)
	require.NoError(t, err)
	assert.Equal(t, "valid\n", out)

	out, _, err = runCLI(t, []string{"status"}, nil, backend.server.URL, configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "PyArud API 1.0.0: running")
	assert.Contains(t, out, "/api/analyze [POST]")
}

func TestExamplesSkipsConfig(t *testing.T) {
	out, _, err := runCLI(t, []string{"examples"}, nil, "http://unused", filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "taweel")
	assert.Contains(t, out, "mutakarib")

	out, _, err = runCLI(t, []string{"examples", "khafif"}, nil, "http://unused", filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(strings.TrimSpace(out), "\n")+1)
}

func TestInvalidFormat(t *testing.T) {
	backend := newFakeBackend(t)
	_, _, err := runCLI(t, []string{"analyze", "--format", "yaml"}, strings.NewReader("بيت"), backend.server.URL, writeTestConfig(t))
	assert.ErrorContains(t, err, "unknown format")
}
