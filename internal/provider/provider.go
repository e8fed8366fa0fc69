package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/vishrut/portfolio-chat/internal"
)

// Completion is one request to the upstream model.
type Completion struct {
	System      string
	Messages    []internal.Message
	Temperature float64
	MaxTokens   int
	// Schema constrains the reply to JSON when set; SchemaName labels it.
	Schema     *jsonschema.Schema
	SchemaName string
}

type ChatProvider interface {
	Model() string
	Complete(ctx context.Context, c Completion) (string, error)
	// Stream calls onDelta for each chunk of assistant text. Returning an
	// error from onDelta aborts the stream with that error.
	Stream(ctx context.Context, c Completion, onDelta func(string) error) error
}

// UpstreamError is a non-success answer from the completion API.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return "upstream: " + e.Message
	}
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Message)
}

// MockProvider answers without any external API, for offline development.
type MockProvider struct{}

func (MockProvider) Model() string { return "mock-portfolio-chat" }

func (MockProvider) Complete(_ context.Context, c Completion) (string, error) {
	text := mockText(c)
	if c.Schema == nil {
		return text, nil
	}
	b, err := json.Marshal(internal.ChatResponse{
		Content:    text,
		Sources:    []internal.Source{},
		Confidence: 0.5,
		IsRelevant: true,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (m MockProvider) Stream(ctx context.Context, c Completion, onDelta func(string) error) error {
	words := strings.SplitAfter(mockText(c), " ")
	for _, w := range words {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := onDelta(w); err != nil {
			return err
		}
	}
	return nil
}

func mockText(c Completion) string {
	return "Got it. (mock) You asked: \"" + internal.LastUserMessage(c.Messages) + "\""
}
