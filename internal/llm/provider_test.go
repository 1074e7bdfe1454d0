package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sant0-9/promptfmt/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, events <-chan StreamEvent) (string, bool) {
	t.Helper()
	var b strings.Builder
	done := false
	for ev := range events {
		require.NoError(t, ev.Error)
		b.WriteString(ev.Chunk)
		if ev.Done {
			done = true
		}
	}
	return b.String(), done
}

func TestSplitSystem(t *testing.T) {
	system, rest := splitSystem([]Message{
		{Role: "system", Content: "be terse"},
		{Role: "user", Content: "hi"},
	})
	assert.Equal(t, "be terse", system)
	assert.Equal(t, []Message{{Role: "user", Content: "hi"}}, rest)
}

func TestNewRequestDefaults(t *testing.T) {
	req := NewRequest("m", "sys", "user")
	assert.Equal(t, DefaultTemperature, req.Temperature)
	assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
	assert.Len(t, req.Messages, 2)
}

func TestGeminiComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "k123", r.URL.Query().Get("key"))

		var body geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.NotNil(t, body.SystemInstruction)
		assert.Equal(t, "sys", body.SystemInstruction.Parts[0].Text)
		require.Len(t, body.Contents, 1)
		assert.Equal(t, "user", body.Contents[0].Role)
		assert.Equal(t, 0.2, body.GenerationConfig.Temperature)

		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"hel"},{"text":"lo"}]},"finishReason":"STOP"}],
			"usageMetadata":{"promptTokenCount":3,"candidatesTokenCount":2,"totalTokenCount":5}}`)
	}))
	defer srv.Close()

	g := NewGeminiProvider("k123", "")
	g.baseURL = srv.URL

	resp, err := g.Complete(context.Background(), NewRequest("", "sys", "prompt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Content)
	assert.Equal(t, "STOP", resp.FinishReason)
	assert.Equal(t, 5, resp.Usage.TotalTokens)
}

func TestGeminiErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `quota`)
	}))
	defer srv.Close()

	g := NewGeminiProvider("k", "")
	g.baseURL = srv.URL

	_, err := g.Complete(context.Background(), NewRequest("", "s", "u"))
	require.Error(t, err)
	assert.Equal(t, "Gemini error (status 429): quota", err.Error())
}

func TestGeminiStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sse", r.URL.Query().Get("alt"))
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"a\"}]}}]}\n\n")
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"b\"}]}}],\"usageMetadata\":{\"totalTokenCount\":9}}\n\n")
	}))
	defer srv.Close()

	g := NewGeminiProvider("k", "")
	g.baseURL = srv.URL

	events, err := g.Stream(context.Background(), NewRequest("", "s", "u"))
	require.NoError(t, err)
	text, done := drain(t, events)
	assert.Equal(t, "ab", text)
	assert.True(t, done)
}

func TestGeminiPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "good" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"models":[]}`)
	}))
	defer srv.Close()

	g := NewGeminiProvider("good", "")
	g.baseURL = srv.URL
	assert.NoError(t, g.Ping(context.Background()))

	g.apiKey = "bad"
	assert.EqualError(t, g.Ping(context.Background()), "invalid API key")
}

func TestAnthropicComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var body anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "sys", body.System)
		require.Len(t, body.Messages, 1)
		assert.Equal(t, "user", body.Messages[0].Role)
		assert.Equal(t, DefaultMaxTokens, body.MaxTokens)

		fmt.Fprint(w, `{"content":[{"text":"out"}],"stop_reason":"end_turn","usage":{"input_tokens":4,"output_tokens":1}}`)
	}))
	defer srv.Close()

	a := NewAnthropicProvider("sk-ant", "")
	a.baseURL = srv.URL

	resp, err := a.Complete(context.Background(), NewRequest("", "sys", "prompt"))
	require.NoError(t, err)
	assert.Equal(t, "out", resp.Content)
	assert.Equal(t, 5, resp.Usage.TotalTokens)
}

func TestAnthropicStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "event: content_block_delta\n")
		fmt.Fprint(w, "data: {\"type\":\"content_block_delta\",\"delta\":{\"text\":\"x\"}}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"content_block_delta\",\"delta\":{\"text\":\"y\"}}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"message_stop\"}\n\n")
	}))
	defer srv.Close()

	a := NewAnthropicProvider("k", "")
	a.baseURL = srv.URL

	events, err := a.Stream(context.Background(), NewRequest("", "s", "u"))
	require.NoError(t, err)
	text, done := drain(t, events)
	assert.Equal(t, "xy", text)
	assert.True(t, done)
}

func TestOllamaCompleteAndStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var body ollamaRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "llama3.1:8b", body.Model)
		assert.Equal(t, DefaultMaxTokens, body.Options.NumPredict)

		if body.Stream {
			fmt.Fprintln(w, `{"message":{"role":"assistant","content":"he"},"done":false}`)
			fmt.Fprintln(w, `{"message":{"role":"assistant","content":"y"},"done":false}`)
			fmt.Fprintln(w, `{"done":true,"prompt_eval_count":3,"eval_count":2}`)
			return
		}
		fmt.Fprint(w, `{"model":"llama3.1:8b","message":{"role":"assistant","content":"hey"},"done":true,"done_reason":"stop","prompt_eval_count":3,"eval_count":2}`)
	}))
	defer srv.Close()

	o := NewOllamaProvider(srv.URL+"/", "")

	resp, err := o.Complete(context.Background(), NewRequest("", "s", "u"))
	require.NoError(t, err)
	assert.Equal(t, "hey", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 5, resp.Usage.TotalTokens)

	events, err := o.Stream(context.Background(), NewRequest("", "s", "u"))
	require.NoError(t, err)
	text, done := drain(t, events)
	assert.Equal(t, "hey", text)
	assert.True(t, done)
}

func TestOllamaErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"model 'nope' not found"}`)
	}))
	defer srv.Close()

	o := NewOllamaProvider(srv.URL, "nope")

	_, err := o.Complete(context.Background(), NewRequest("", "s", "u"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama error (status 404)")

	_, err = o.Stream(context.Background(), NewRequest("", "s", "u"))
	assert.Error(t, err)
}

// A zero temperature must reach the wire instead of being dropped, or the
// API falls back to its own default.
func TestZeroTemperatureIsSent(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		newProv func(url string) Provider
		extract func(body map[string]any) (any, bool)
	}{
		{
			name:  "anthropic",
			reply: `{"content":[{"text":"ok"}]}`,
			newProv: func(url string) Provider {
				a := NewAnthropicProvider("k", "")
				a.baseURL = url
				return a
			},
			extract: func(body map[string]any) (any, bool) {
				v, ok := body["temperature"]
				return v, ok
			},
		},
		{
			name:  "ollama",
			reply: `{"message":{"role":"assistant","content":"ok"},"done":true}`,
			newProv: func(url string) Provider {
				return NewOllamaProvider(url, "")
			},
			extract: func(body map[string]any) (any, bool) {
				opts, _ := body["options"].(map[string]any)
				v, ok := opts["temperature"]
				return v, ok
			},
		},
		{
			name: "openai compatible",
			reply: `{"id":"1","object":"chat.completion","model":"m",
				"choices":[{"index":0,"message":{"role":"assistant","content":"ok"},"finish_reason":"stop"}]}`,
			newProv: func(url string) Provider {
				return newOpenAICompatible("custom", url, "k", "m")
			},
			extract: func(body map[string]any) (any, bool) {
				v, ok := body["temperature"]
				return v, ok
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got any
			var present bool
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var body map[string]any
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				got, present = tt.extract(body)
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, tt.reply)
			}))
			defer srv.Close()

			req := NewRequest("", "s", "u")
			req.Temperature = 0
			_, err := tt.newProv(srv.URL).Complete(context.Background(), req)
			require.NoError(t, err)

			require.True(t, present, "temperature missing from request body")
			assert.InDelta(t, 0.0, got, 1e-6)
		})
	}
}

func TestOpenAICompatibleComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer gsk", r.Header.Get("Authorization"))

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "llama-3.3-70b-versatile", body.Model)
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "system", body.Messages[0].Role)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"1","object":"chat.completion","model":"llama-3.3-70b-versatile",
			"choices":[{"index":0,"message":{"role":"assistant","content":"done"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":7,"completion_tokens":1,"total_tokens":8}}`)
	}))
	defer srv.Close()

	p := newOpenAICompatible("groq", srv.URL, "gsk", "llama-3.3-70b-versatile")

	resp, err := p.Complete(context.Background(), NewRequest("", "s", "u"))
	require.NoError(t, err)
	assert.Equal(t, "done", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 8, resp.Usage.TotalTokens)
}

func TestOpenAICompatibleUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	p := newOpenAICompatible("openai", srv.URL, "nope", "gpt-4o-mini")

	_, err := p.Complete(context.Background(), NewRequest("", "s", "u"))
	require.Error(t, err)
	assert.Equal(t, "invalid API key for openai", err.Error())
}

func TestOpenAICompatibleStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"id\":\"1\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"fo\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"id\":\"1\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"o\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	p := newOpenAICompatible("custom", srv.URL, "", "local")

	events, err := p.Stream(context.Background(), NewRequest("", "s", "u"))
	require.NoError(t, err)
	text, done := drain(t, events)
	assert.Equal(t, "foo", text)
	assert.True(t, done)
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.Config
		wantName string
		wantErr  bool
	}{
		{"gemini", config.Config{Provider: "gemini", APIKey: "k"}, "gemini", false},
		{"gemini without key", config.Config{Provider: "gemini"}, "", true},
		{"ollama needs no key", config.Config{Provider: "ollama"}, "ollama", false},
		{"groq", config.Config{Provider: "groq", APIKey: "k"}, "groq", false},
		{"openai", config.Config{Provider: "openai", APIKey: "k"}, "openai", false},
		{"anthropic", config.Config{Provider: "anthropic", APIKey: "k"}, "anthropic", false},
		{"openrouter", config.Config{Provider: "openrouter", APIKey: "k"}, "openrouter", false},
		{"custom", config.Config{Provider: "custom", BaseURL: "http://localhost:8000/v1"}, "custom", false},
		{"custom without url", config.Config{Provider: "custom"}, "", true},
		{"unknown", config.Config{Provider: "bard"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			p, err := NewProvider(&cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
		})
	}
}
