// Package convert runs one prompt conversion at a time against a provider.
package convert

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sant0-9/promptfmt/internal/formats"
	"github.com/sant0-9/promptfmt/internal/llm"
	"github.com/sant0-9/promptfmt/internal/parser"
	"github.com/sant0-9/promptfmt/internal/prompts"
)

var (
	// ErrNotReady means the prompt is blank or no format is selected.
	ErrNotReady = errors.New("enter a prompt and select at least one format")
	// ErrBusy means a conversion is already running.
	ErrBusy = errors.New("a conversion is already in progress")
)

// FallbackMessage is shown when a failure carries no text.
const FallbackMessage = "An unexpected error occurred."

// Request is a snapshot of the form at submit time.
type Request struct {
	Prompt  string
	Formats []formats.Spec
	Style   string
}

// Ready reports whether the request passes the submission gate.
func (r Request) Ready() bool {
	return strings.TrimSpace(r.Prompt) != "" && len(r.Formats) > 0
}

// Progress reports streamed output as it arrives.
type Progress struct {
	RequestID string
	Chars     int
}

// Options tune the requests a Session sends. Temperature is sent as given, so
// zero means deterministic sampling; defaults belong to the config layer.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Stream      bool
	Logger      *slog.Logger
}

// Session holds the state of the conversion form: whether a request is in
// flight, the last error message and the last parsed records.
type Session struct {
	provider llm.Provider
	opts     Options
	log      *slog.Logger

	onProgress func(Progress)

	mu      sync.Mutex
	pending bool
	errMsg  string
	results []parser.Record
}

func NewSession(provider llm.Provider, opts Options) *Session {
	if opts.MaxTokens == 0 {
		opts.MaxTokens = llm.DefaultMaxTokens
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		provider: provider,
		opts:     opts,
		log:      log.With("component", "convert"),
	}
}

// SetProgressCallback sets the streaming progress callback. It is called from
// the goroutine running Submit.
func (s *Session) SetProgressCallback(fn func(Progress)) {
	s.onProgress = fn
}

func (s *Session) Provider() llm.Provider {
	return s.provider
}

func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Error returns the message of the last failed conversion, or "".
func (s *Session) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// ClearError dismisses the error banner.
func (s *Session) ClearError() {
	s.mu.Lock()
	s.errMsg = ""
	s.mu.Unlock()
}

func (s *Session) Results() []parser.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]parser.Record, len(s.results))
	copy(out, s.results)
	return out
}

// Submit converts the request. A request that is not ready or arrives while
// another is pending leaves the session untouched.
func (s *Session) Submit(ctx context.Context, req Request) ([]parser.Record, error) {
	if !req.Ready() {
		return nil, ErrNotReady
	}

	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.pending = true
	s.errMsg = ""
	s.results = nil
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.pending = false
		s.mu.Unlock()
	}()

	id := uuid.NewString()
	log := s.log.With(
		"request_id", id,
		"provider", s.provider.Name(),
		"formats", len(req.Formats),
		"style", req.Style,
	)
	start := time.Now()

	records, err := s.run(ctx, id, req)
	if err != nil {
		msg := err.Error()
		if strings.TrimSpace(errors.Cause(err).Error()) == "" {
			msg = FallbackMessage
		}
		log.Error("conversion failed", "error", msg, "duration", time.Since(start))

		s.mu.Lock()
		s.errMsg = msg
		s.mu.Unlock()
		return nil, err
	}

	log.Info("conversion done", "records", len(records), "duration", time.Since(start))

	s.mu.Lock()
	s.results = records
	s.mu.Unlock()
	return records, nil
}

func (s *Session) run(ctx context.Context, id string, req Request) ([]parser.Record, error) {
	user, err := prompts.Assemble(req.Prompt, req.Formats, req.Style)
	if err != nil {
		return nil, err
	}

	llmReq := llm.NewRequest(s.opts.Model, prompts.SystemInstruction, user)
	llmReq.Temperature = s.opts.Temperature
	llmReq.MaxTokens = s.opts.MaxTokens

	var text string
	if s.opts.Stream {
		text, err = s.stream(ctx, id, llmReq)
	} else {
		var resp *llm.CompletionResponse
		resp, err = s.provider.Complete(ctx, llmReq)
		if resp != nil {
			text = resp.Content
		}
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert prompt")
	}

	return parser.Parse(text), nil
}

func (s *Session) stream(ctx context.Context, id string, req *llm.CompletionRequest) (string, error) {
	events, err := s.provider.Stream(ctx, req)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for {
		select {
		case <-ctx.Done():
			go discard(events)
			return "", ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return b.String(), nil
			}
			if ev.Error != nil {
				go discard(events)
				return "", ev.Error
			}
			if ev.Chunk != "" {
				b.WriteString(ev.Chunk)
				if s.onProgress != nil {
					s.onProgress(Progress{RequestID: id, Chars: b.Len()})
				}
			}
			if ev.Done {
				go discard(events)
				return b.String(), nil
			}
		}
	}
}

// discard drains a stream the session stopped reading so the producer can exit.
func discard(events <-chan llm.StreamEvent) {
	for range events {
	}
}
