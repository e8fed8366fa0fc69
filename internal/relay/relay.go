// Package relay gates each chat turn through the relevance classifier and
// forwards relevant ones to the completion provider.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/sirupsen/logrus"

	"github.com/vishrut/portfolio-chat/internal"
	"github.com/vishrut/portfolio-chat/internal/prompt"
	"github.com/vishrut/portfolio-chat/internal/provider"
	"github.com/vishrut/portfolio-chat/internal/relevance"
)

// ErrUpstream wraps every completion failure: transport errors, non-success
// statuses and replies that do not match the response schema.
var ErrUpstream = errors.New("upstream completion failed")

// Sampling parameters are fixed, not tunable per request.
const (
	Temperature = 0.3
	MaxTokens   = 800
)

// KnowledgeSource hands out the current immutable knowledge snapshot.
type KnowledgeSource interface {
	Get() *internal.KnowledgeBase
}

type Relay struct {
	classifier atomic.Pointer[relevance.Classifier]
	composer   *prompt.Composer
	knowledge  KnowledgeSource
	provider   provider.ChatProvider
	log        logrus.FieldLogger

	schema   *jsonschema.Schema
	resolved *jsonschema.Resolved
}

func New(
	classifier *relevance.Classifier,
	composer *prompt.Composer,
	knowledge KnowledgeSource,
	chat provider.ChatProvider,
	log logrus.FieldLogger,
) (*Relay, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	schema := ResponseSchema()
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolving response schema: %w", err)
	}
	r := &Relay{
		composer:  composer,
		knowledge: knowledge,
		provider:  chat,
		log:       log,
		schema:    schema,
		resolved:  resolved,
	}
	r.classifier.Store(classifier)
	return r, nil
}

// SetClassifier swaps the classifier, e.g. after the knowledge base reloads
// with new company names.
func (r *Relay) SetClassifier(c *relevance.Classifier) {
	r.classifier.Store(c)
}

func (r *Relay) Model() string { return r.provider.Model() }

// Refusal is the canned answer for a rejected turn.
func Refusal(res relevance.Result) *internal.ChatResponse {
	content := res.Reason
	if !relevance.IsCannedRefusal(content) {
		content = relevance.OffTopicReason
	}
	return &internal.ChatResponse{
		Content:    content,
		Sources:    []internal.Source{},
		Confidence: 1,
		IsRelevant: false,
	}
}

// Check classifies the newest user turn against the conversation before it.
func (r *Relay) Check(messages []internal.Message) relevance.Result {
	query, prior := splitTurn(messages)
	return r.classifier.Load().Classify(query, prior)
}

// Respond answers the newest user turn. Off-topic turns get a refusal
// without contacting the provider. There is exactly one upstream attempt.
func (r *Relay) Respond(ctx context.Context, messages []internal.Message) (*internal.ChatResponse, error) {
	res := r.Check(messages)
	log := r.log.WithFields(logrus.Fields{
		"profile":    r.classifier.Load().Profile().Name,
		"relevant":   res.IsRelevant,
		"confidence": res.Confidence,
	})
	if !res.IsRelevant {
		log.Info("turn rejected")
		return Refusal(res), nil
	}

	raw, err := r.provider.Complete(ctx, r.completion(messages, true))
	if err != nil {
		log.WithError(err).Error("completion failed")
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	resp, err := r.decode(raw)
	if err != nil {
		log.WithError(err).Error("malformed completion")
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	log.WithField("sources", len(resp.Sources)).Info("turn answered")
	return resp, nil
}

// Stream is the plain-text variant of Respond. A rejected turn is written
// to onDelta as the refusal text in one piece.
func (r *Relay) Stream(ctx context.Context, messages []internal.Message, onDelta func(string) error) (relevance.Result, error) {
	res := r.Check(messages)
	if !res.IsRelevant {
		return res, onDelta(Refusal(res).Content)
	}
	if err := r.provider.Stream(ctx, r.completion(messages, false), onDelta); err != nil {
		r.log.WithError(err).Error("completion stream failed")
		return res, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return res, nil
}

// completion renders the turns before the newest user message into the
// system prompt and sends that message on its own.
func (r *Relay) completion(messages []internal.Message, structured bool) provider.Completion {
	query, prior := splitTurn(messages)
	c := provider.Completion{
		Messages:    []internal.Message{{Role: internal.RoleUser, Content: query}},
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
	}
	kb := r.knowledge.Get()
	if structured {
		c.System = r.composer.Compose(prior, kb)
		c.Schema = r.schema
		c.SchemaName = SchemaName
	} else {
		c.System = r.composer.ComposeText(prior, kb)
	}
	return c
}

func (r *Relay) decode(raw string) (*internal.ChatResponse, error) {
	var instance any
	if err := json.Unmarshal([]byte(raw), &instance); err != nil {
		return nil, fmt.Errorf("decoding completion: %w", err)
	}
	if err := r.resolved.Validate(instance); err != nil {
		return nil, fmt.Errorf("completion does not match schema: %w", err)
	}

	var resp internal.ChatResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("decoding completion: %w", err)
	}
	if !resp.IsRelevant {
		return Refusal(relevance.Result{Reason: relevance.OffTopicReason}), nil
	}
	if resp.Sources == nil {
		resp.Sources = []internal.Source{}
	}
	resp.Confidence = relevance.Clamp(resp.Confidence)
	return &resp, nil
}

// splitTurn separates the newest user message from the conversation before it.
func splitTurn(messages []internal.Message) (string, []internal.Message) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == internal.RoleUser {
			return messages[i].Content, messages[:i]
		}
	}
	return "", messages
}
