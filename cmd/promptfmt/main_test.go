package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sant0-9/promptfmt/internal/formats"
	"github.com/sant0-9/promptfmt/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func names(specs []formats.Spec) []string {
	var out []string
	for _, s := range specs {
		out = append(out, s.Name)
	}
	return out
}

func TestParseCustom(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantName  string
		wantInstr string
		wantErr   bool
	}{
		{name: "simple", input: "Markdown Table=a GitHub table", wantName: "Markdown Table", wantInstr: "a GitHub table"},
		{name: "trims", input: "  INI =  sections and keys ", wantName: "INI", wantInstr: "sections and keys"},
		{name: "equals in instructions", input: "Env=KEY=value lines", wantName: "Env", wantInstr: "KEY=value lines"},
		{name: "missing separator", input: "Markdown", wantErr: true},
		{name: "empty name", input: "=rules", wantErr: true},
		{name: "empty instructions", input: "Name=  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, instr, err := parseCustom(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantInstr, instr)
		})
	}
}

func TestBuildRegistry(t *testing.T) {
	lib := []formats.Spec{{Name: "Markdown Table", Instructions: "GitHub table"}}

	t.Run("defaults to predefined", func(t *testing.T) {
		reg, err := buildRegistry(quiet, lib, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, formats.Predefined, names(reg.Active()))
		assert.True(t, reg.Exists("Markdown Table"))
	})

	t.Run("selection is case insensitive", func(t *testing.T) {
		reg, err := buildRegistry(quiet, lib, []string{"json", "markdown table"}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"JSON", "Markdown Table"}, names(reg.Active()))
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := buildRegistry(quiet, lib, []string{"json", "protobuf"}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "protobuf")
	})

	t.Run("custom only", func(t *testing.T) {
		reg, err := buildRegistry(quiet, nil, nil, []string{"INI=sections"})
		require.NoError(t, err)
		active := reg.Active()
		require.Len(t, active, 1)
		assert.Equal(t, "INI", active[0].Name)
		assert.Equal(t, "sections", active[0].Instructions)
	})

	t.Run("custom plus selection", func(t *testing.T) {
		reg, err := buildRegistry(quiet, nil, []string{"YAML"}, []string{"INI=sections"})
		require.NoError(t, err)
		assert.Equal(t, []string{"YAML", "INI"}, names(reg.Active()))
	})

	t.Run("library name clash is skipped", func(t *testing.T) {
		clash := []formats.Spec{
			{Name: "INI", Instructions: "sections"},
			{Name: "ini", Instructions: "other sections"},
		}
		reg, err := buildRegistry(quiet, clash, []string{"ini"}, nil)
		require.NoError(t, err)
		require.Len(t, reg.Custom(), 1)
		assert.Equal(t, "sections", reg.Custom()[0].Instructions)
		assert.Equal(t, []string{"INI"}, names(reg.Active()))
	})

	t.Run("custom duplicates predefined", func(t *testing.T) {
		_, err := buildRegistry(quiet, nil, nil, []string{"JSON=again"})
		assert.ErrorIs(t, err, formats.ErrDuplicate)
	})
}

func TestCanonicalStyle(t *testing.T) {
	assert.Equal(t, "Technical", canonicalStyle("technical"))
	assert.Equal(t, "Professional", canonicalStyle(""))
	assert.Equal(t, "Professional", canonicalStyle("whimsical"))
}

func TestReadPrompt(t *testing.T) {
	p, err := readPrompt([]string{"three", "users"}, strings.NewReader("ignored"), false)
	require.NoError(t, err)
	assert.Equal(t, "three users", p)

	p, err = readPrompt(nil, strings.NewReader("  from stdin\n"), false)
	require.NoError(t, err)
	assert.Equal(t, "from stdin", p)
}

var sampleRecords = []parser.Record{
	{Title: "JSON", Description: "Users as an array.", Language: "json", Code: "[1, 2]\n"},
	{Title: "CSV", Language: "csv", Code: "id\n1"},
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	writeText(&buf, sampleRecords)

	want := "== JSON ==\nUsers as an array.\n\n[1, 2]\n\n== CSV ==\n\nid\n1\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, sampleRecords))

	var got []parser.Record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sampleRecords, got)

	buf.Reset()
	require.NoError(t, writeJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestPrintStyles(t *testing.T) {
	var buf bytes.Buffer
	printStyles(&buf, "Technical")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 10)
	assert.Contains(t, lines, "* Technical")
	assert.Contains(t, lines, "  Professional")
}

func TestPrintFormats(t *testing.T) {
	var buf bytes.Buffer
	printFormats(&buf, nil)
	assert.Contains(t, buf.String(), "TOON (Token-Oriented Object Notation)")
	assert.NotContains(t, buf.String(), "Saved:")

	buf.Reset()
	printFormats(&buf, []formats.Spec{{Name: "INI", Instructions: "x"}})
	assert.Contains(t, buf.String(), "Saved:\n  INI\n")
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)

	assert.Contains(t, buf.String(), "promptfmt version dev")
	assert.Contains(t, buf.String(), "platform:")
}

func TestCommandsRegistered(t *testing.T) {
	var got []string
	for _, c := range rootCmd.Commands() {
		got = append(got, c.Name())
	}
	for _, want := range []string{"convert", "formats", "styles", "version"} {
		assert.Contains(t, got, want)
	}
	assert.NotNil(t, convertCmd.Flags().Lookup("format"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("debug"))
}

// slowProvider serves one JSON rendering from an OpenAI-compatible endpoint
// after delay.
func slowProvider(t *testing.T, delay time.Duration) *httptest.Server {
	t.Helper()
	content := "🧩 JSON (JavaScript Object Notation)\n💡 The greeting.\n```json\n{\"text\": \"hello\"}\n```"
	reply, err := json.Marshal(map[string]any{
		"id":     "1",
		"object": "chat.completion",
		"model":  "m",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	})
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, string(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// runCLI executes the root command with a fresh home directory and the
// custom provider pointed at baseURL.
func runCLI(t *testing.T, baseURL string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PROMPTFMT_PROVIDER", "custom")
	t.Setenv("PROMPTFMT_BASE_URL", baseURL)
	t.Setenv("PROMPTFMT_API_KEY", "k")
	t.Setenv("PROMPTFMT_MODEL", "m")

	formatFlags, customFlags = nil, nil
	styleFlag, providerFlag, modelFlag = "", "", ""
	jsonFlag, copyFlag = false, false
	timeoutFlag = 0

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestConvertTimeout(t *testing.T) {
	srv := slowProvider(t, 50*time.Millisecond)

	tests := []struct {
		name    string
		timeout string
		wantErr string
	}{
		{name: "zero waits for the provider", timeout: "0"},
		{name: "unset waits for the provider"},
		{name: "generous deadline", timeout: "5s"},
		{name: "deadline hit", timeout: "10ms", wantErr: "timed out after 10ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := []string{"convert", "--json", "-f", "json"}
			if tt.timeout != "" {
				args = append(args, "--timeout", tt.timeout)
			}
			out, err := runCLI(t, srv.URL, append(args, "hello")...)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)

			var records []parser.Record
			require.NoError(t, json.Unmarshal([]byte(out), &records))
			require.Len(t, records, 1)
			assert.Equal(t, "JSON (JavaScript Object Notation)", records[0].Title)
			assert.Equal(t, `{"text": "hello"}`, records[0].Code)
		})
	}
}

func TestConvertTimeoutDefaultsToNone(t *testing.T) {
	f := convertCmd.Flags().Lookup("timeout")
	require.NotNil(t, f)
	assert.Equal(t, "0s", f.DefValue)
}
