// Package ollama phrases handler notes with a local Ollama model.
package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/claim-assessor/internal/core/domain"
	"github.com/kirillkom/claim-assessor/internal/infrastructure/resilience"
)

const maxNotesRunes = 1200

type Client struct {
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	Timeout time.Duration
	// MaxTokens caps generated tokens; zero leaves the model default.
	MaxTokens          int
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, model string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		maxTokens:  options.MaxTokens,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

// NotesWriter asks the model for handler notes. The decision fields are
// fixed by the time it runs; the model only phrases them.
type NotesWriter struct {
	client *Client
}

func NewNotesWriter(client *Client) *NotesWriter {
	return &NotesWriter{client: client}
}

func (w *NotesWriter) WriteNotes(ctx context.Context, brief domain.HandlerBrief) (string, error) {
	text, err := w.client.generateText(ctx, buildNotesPrompt(brief))
	if err != nil {
		return "", err
	}
	return truncateRunes(text, maxNotesRunes), nil
}

func (c *Client) generateText(ctx context.Context, prompt string) (string, error) {
	in := c.newGenerateRequest(prompt)

	var text string
	call := func(ctx context.Context) error {
		var err error
		text, err = c.callGenerate(ctx, in)
		return err
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "ollama.generate", call, classifyOllamaError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", resilience.WrapTemporary("ollama generate", err, classifyOllamaError)
	}
	return text, nil
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit]))
}
