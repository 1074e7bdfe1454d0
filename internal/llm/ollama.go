package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	ollamaHost         = "http://localhost:11434"
	ollamaDefaultModel = "llama3.1:8b"
)

// OllamaProvider talks to a local Ollama server over its native /api/chat
// endpoint. Streaming responses are newline-delimited JSON objects.
type OllamaProvider struct {
	host       string
	model      string
	httpClient *http.Client
}

func NewOllamaProvider(host, model string) *OllamaProvider {
	if host == "" {
		host = ollamaHost
	}
	if model == "" {
		model = ollamaDefaultModel
	}
	return &OllamaProvider{
		host:       strings.TrimRight(host, "/"),
		model:      model,
		httpClient: &http.Client{},
	}
}

func (o *OllamaProvider) Name() string {
	return "ollama"
}

// Ping lists local models, which only needs the server to be up.
func (o *OllamaProvider) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.host+"/api/tags", nil)
	if err != nil {
		return err
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cannot connect to Ollama at %s: %w", o.host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}
	return nil
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// ollamaReply is both the full response and one streamed line.
type ollamaReply struct {
	Model      string        `json:"model"`
	Message    ollamaMessage `json:"message"`
	Done       bool          `json:"done"`
	DoneReason string        `json:"done_reason,omitempty"`
	Error      string        `json:"error,omitempty"`

	PromptEvalCount int `json:"prompt_eval_count,omitempty"`
	EvalCount       int `json:"eval_count,omitempty"`
}

func (r ollamaReply) usage() Usage {
	return Usage{
		PromptTokens:     r.PromptEvalCount,
		CompletionTokens: r.EvalCount,
		TotalTokens:      r.PromptEvalCount + r.EvalCount,
	}
}

func (o *OllamaProvider) buildRequest(req *CompletionRequest, stream bool) ollamaRequest {
	model := req.Model
	if model == "" {
		model = o.model
	}

	messages := make([]ollamaMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = ollamaMessage{Role: m.Role, Content: m.Content}
	}

	return ollamaRequest{
		Model:    model,
		Messages: messages,
		Stream:   stream,
		Options: ollamaOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	}
}

// post sends a chat request. The caller owns the body of a successful response.
func (o *OllamaProvider) post(ctx context.Context, apiReq ollamaRequest) (*http.Response, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.host+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(msg))
	}
	return resp, nil
}

func (o *OllamaProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	apiReq := o.buildRequest(req, false)
	resp, err := o.post(ctx, apiReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var reply ollamaReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("failed to decode ollama response: %w", err)
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("ollama error: %s", reply.Error)
	}

	model := reply.Model
	if model == "" {
		model = apiReq.Model
	}
	return &CompletionResponse{
		Content:      reply.Message.Content,
		Model:        model,
		FinishReason: reply.DoneReason,
		Usage:        reply.usage(),
	}, nil
}

func (o *OllamaProvider) Stream(ctx context.Context, req *CompletionRequest) (<-chan StreamEvent, error) {
	resp, err := o.post(ctx, o.buildRequest(req, true))
	if err != nil {
		return nil, err
	}

	events := make(chan StreamEvent)
	go func() {
		defer close(events)
		defer resp.Body.Close()

		dec := json.NewDecoder(resp.Body)
		for {
			var reply ollamaReply
			err := dec.Decode(&reply)
			switch {
			case errors.Is(err, io.EOF):
				return
			case err != nil:
				events <- StreamEvent{Error: err}
				return
			case reply.Error != "":
				events <- StreamEvent{Error: fmt.Errorf("ollama error: %s", reply.Error)}
				return
			}

			if reply.Message.Content != "" {
				events <- StreamEvent{Chunk: reply.Message.Content}
			}
			if reply.Done {
				u := reply.usage()
				events <- StreamEvent{Done: true, Usage: &u}
				return
			}
		}
	}()

	return events, nil
}
