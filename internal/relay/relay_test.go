package relay

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/vishrut/portfolio-chat/internal"
	"github.com/vishrut/portfolio-chat/internal/knowledge"
	"github.com/vishrut/portfolio-chat/internal/prompt"
	"github.com/vishrut/portfolio-chat/internal/provider"
	"github.com/vishrut/portfolio-chat/internal/relevance"
)

// fakeProvider records every call so tests can assert on upstream traffic.
type fakeProvider struct {
	reply  string
	err    error
	deltas []string
	calls  []provider.Completion
}

func (f *fakeProvider) Model() string { return "fake" }

func (f *fakeProvider) Complete(_ context.Context, c provider.Completion) (string, error) {
	f.calls = append(f.calls, c)
	return f.reply, f.err
}

func (f *fakeProvider) Stream(_ context.Context, c provider.Completion, onDelta func(string) error) error {
	f.calls = append(f.calls, c)
	if f.err != nil {
		return f.err
	}
	for _, d := range f.deltas {
		if err := onDelta(d); err != nil {
			return err
		}
	}
	return nil
}

func testKB() *internal.KnowledgeBase {
	return &internal.KnowledgeBase{
		Timeline: []internal.TimelineEntry{
			{Role: "Backend Engineer", Company: "Company X", Duration: "2021 - 2023", Body: "Owned the payments API. Scaled it tenfold. Other details."},
		},
		Projects: []internal.Project{{Title: "Portfolio", Date: "2024", Description: "This site.", Tech: []string{"Go"}}},
	}
}

func newTestRelay(t *testing.T, p provider.ChatProvider) *Relay {
	t.Helper()
	kb := testKB()
	log := logrus.New()
	log.SetOutput(io.Discard)
	cls := relevance.New(relevance.Strict(), relevance.WithKnownCompanies(knowledge.Companies(kb)...))
	r, err := New(cls, prompt.NewComposer("Vishrut", 5), knowledge.Static(kb), p, log)
	if err != nil {
		t.Fatalf("creating relay: %v", err)
	}
	return r
}

func userTurn(content string) []internal.Message {
	return []internal.Message{{Role: internal.RoleUser, Content: content}}
}

func TestRespond_SalaryIsRefusedWithoutUpstreamCall(t *testing.T) {
	fake := &fakeProvider{}
	r := newTestRelay(t, fake)

	resp, err := r.Respond(context.Background(), userTurn("What's your salary?"))
	if err != nil {
		t.Fatalf("refusal is not an error: %v", err)
	}
	if resp.IsRelevant || resp.Confidence != 1.0 {
		t.Errorf("unexpected refusal: %+v", resp)
	}
	if resp.Sources == nil || len(resp.Sources) != 0 {
		t.Errorf("sources must be empty, not nil: %#v", resp.Sources)
	}
	if !relevance.IsCannedRefusal(resp.Content) {
		t.Errorf("content is not a canned refusal: %q", resp.Content)
	}
	if len(fake.calls) != 0 {
		t.Errorf("upstream called %d times, want 0", len(fake.calls))
	}
}

func TestRespond_CompanyQuestionReachesUpstream(t *testing.T) {
	upstream := `{"content":"At Company X he owned the payments API.","sources":[{"type":"timeline","title":"Backend Engineer @ Company X","date":"2021 - 2023"}],"confidence":0.9,"isRelevant":true}`
	fake := &fakeProvider{reply: upstream}
	r := newTestRelay(t, fake)

	query := "Tell me about Vishrut's work at Company X"
	if res := r.Check(userTurn(query)); !res.IsRelevant {
		t.Fatalf("classifier rejected %q", query)
	}

	resp, err := r.Respond(context.Background(), userTurn(query))
	if err != nil {
		t.Fatalf("respond failed: %v", err)
	}
	if len(fake.calls) != 1 {
		t.Fatalf("upstream called %d times, want 1", len(fake.calls))
	}

	call := fake.calls[0]
	if !strings.Contains(call.System, "- Backend Engineer @ Company X (2021 - 2023): Owned the payments API. Scaled it tenfold.") {
		t.Error("prompt is missing the timeline bullet")
	}
	if call.Schema == nil || call.SchemaName != SchemaName {
		t.Error("structured call must carry the response schema")
	}
	if call.Temperature != Temperature || call.MaxTokens != MaxTokens {
		t.Errorf("sampling parameters changed: %+v", call)
	}

	want := &internal.ChatResponse{
		Content: "At Company X he owned the payments API.",
		Sources: []internal.Source{
			{Type: "timeline", Title: "Backend Engineer @ Company X", Date: "2021 - 2023"},
		},
		Confidence: 0.9,
		IsRelevant: true,
	}
	if !reflect.DeepEqual(resp, want) {
		t.Errorf("response = %+v, want %+v", resp, want)
	}
}

func TestRespond_UpstreamFailure(t *testing.T) {
	fake := &fakeProvider{err: &provider.UpstreamError{Status: 500, Message: "boom"}}
	r := newTestRelay(t, fake)

	_, err := r.Respond(context.Background(), userTurn("what projects have you built?"))
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	var ue *provider.UpstreamError
	if !errors.As(err, &ue) || ue.Status != 500 {
		t.Errorf("provider error not preserved: %v", err)
	}
	if len(fake.calls) != 1 {
		t.Errorf("expected a single attempt, got %d", len(fake.calls))
	}
}

func TestRespond_MalformedPayload(t *testing.T) {
	for _, reply := range []string{
		`not json`,
		`{"content": 42}`,
		`{"content":"x","sources":[],"confidence":0.5}`,
	} {
		r := newTestRelay(t, &fakeProvider{reply: reply})
		if _, err := r.Respond(context.Background(), userTurn("what projects have you built?")); !errors.Is(err, ErrUpstream) {
			t.Errorf("reply %q: expected ErrUpstream, got %v", reply, err)
		}
	}
}

func TestRespond_NormalizesReply(t *testing.T) {
	fake := &fakeProvider{reply: `{"content":"ok","sources":[],"confidence":4.2,"isRelevant":true}`}
	resp, err := newTestRelay(t, fake).Respond(context.Background(), userTurn("what projects have you built?"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Confidence != 1 {
		t.Errorf("confidence not clamped: %v", resp.Confidence)
	}
}

func TestRespond_ModelRejectionBecomesCannedRefusal(t *testing.T) {
	fake := &fakeProvider{reply: `{"content":"I'd rather not.","sources":[{"type":"project","title":"Portfolio"}],"confidence":0.2,"isRelevant":false}`}
	resp, err := newTestRelay(t, fake).Respond(context.Background(), userTurn("what projects have you built?"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.IsRelevant || !relevance.IsCannedRefusal(resp.Content) || len(resp.Sources) != 0 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestRespond_SendsOnlyLatestTurnAlongsidePrompt(t *testing.T) {
	fake := &fakeProvider{reply: `{"content":"ok","sources":[],"confidence":0.5,"isRelevant":true}`}
	msgs := []internal.Message{
		{Role: internal.RoleUser, Content: "what projects have you built?"},
		{Role: internal.RoleAssistant, Content: "The portfolio site."},
		{Role: internal.RoleUser, Content: "tell me more"},
	}
	if _, err := newTestRelay(t, fake).Respond(context.Background(), msgs); err != nil {
		t.Fatal(err)
	}
	call := fake.calls[0]
	if len(call.Messages) != 1 || call.Messages[0].Content != "tell me more" {
		t.Errorf("unexpected upstream messages: %+v", call.Messages)
	}
	if !strings.Contains(call.System, "ASSISTANT: The portfolio site.") {
		t.Error("history should be rendered into the system prompt")
	}
	if strings.Contains(call.System, "USER: tell me more") {
		t.Error("the newest turn must only be sent as the user message")
	}
}

func TestCompletion_OutputInstructionsMatchMode(t *testing.T) {
	fake := &fakeProvider{
		reply:  `{"content":"ok","sources":[],"confidence":0.5,"isRelevant":true}`,
		deltas: []string{"ok"},
	}
	r := newTestRelay(t, fake)
	query := userTurn("what projects have you built?")

	if _, err := r.Respond(context.Background(), query); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Stream(context.Background(), query, func(string) error { return nil }); err != nil {
		t.Fatal(err)
	}

	structured, streamed := fake.calls[0], fake.calls[1]
	for _, marker := range []string{"JSON object", `"sources"`, `"isRelevant"`} {
		if !strings.Contains(structured.System, marker) {
			t.Errorf("structured prompt is missing %q", marker)
		}
		if strings.Contains(streamed.System, marker) {
			t.Errorf("plain-text prompt still asks for %q", marker)
		}
	}
	if streamed.Schema != nil {
		t.Error("plain-text stream must not request a schema")
	}
	if !strings.Contains(streamed.System, "answer text only") {
		t.Error("plain-text prompt is missing its output instructions")
	}
}

func TestStream_RelevantTurn(t *testing.T) {
	fake := &fakeProvider{deltas: []string{"He built ", "this site."}}
	var sb strings.Builder
	res, err := newTestRelay(t, fake).Stream(context.Background(), userTurn("what projects have you built?"), func(s string) error {
		sb.WriteString(s)
		return nil
	})
	if err != nil || !res.IsRelevant {
		t.Fatalf("res = %+v, err = %v", res, err)
	}
	if sb.String() != "He built this site." {
		t.Errorf("stream = %q", sb.String())
	}
	if fake.calls[0].Schema != nil {
		t.Error("plain-text stream must not request a schema")
	}
}

func TestStream_RefusalWrittenOnce(t *testing.T) {
	fake := &fakeProvider{}
	var chunks []string
	res, err := newTestRelay(t, fake).Stream(context.Background(), userTurn("tell me a joke"), func(s string) error {
		chunks = append(chunks, s)
		return nil
	})
	if err != nil || res.IsRelevant {
		t.Fatalf("res = %+v, err = %v", res, err)
	}
	if len(chunks) != 1 || chunks[0] != relevance.OffTopicReason {
		t.Errorf("chunks = %q", chunks)
	}
	if len(fake.calls) != 0 {
		t.Error("refused stream must not call upstream")
	}
}

func TestStream_UpstreamFailure(t *testing.T) {
	fake := &fakeProvider{err: errors.New("connection reset")}
	_, err := newTestRelay(t, fake).Stream(context.Background(), userTurn("what projects have you built?"), func(string) error { return nil })
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("expected ErrUpstream, got %v", err)
	}
}

func TestSetClassifier(t *testing.T) {
	r := newTestRelay(t, &fakeProvider{})
	if r.Check(userTurn("tell me a joke")).IsRelevant {
		t.Fatal("strict profile should reject")
	}
	r.SetClassifier(relevance.New(relevance.Advisory()))
	if !r.Check(userTurn("tell me a joke")).IsRelevant {
		t.Error("swapped classifier not used")
	}
}

func TestSplitTurn(t *testing.T) {
	msgs := []internal.Message{
		{Role: internal.RoleUser, Content: "a"},
		{Role: internal.RoleAssistant, Content: "b"},
		{Role: internal.RoleUser, Content: "c"},
		{Role: internal.RoleAssistant, Content: "d"},
	}
	q, prior := splitTurn(msgs)
	if q != "c" || len(prior) != 2 {
		t.Errorf("splitTurn = %q, %d prior", q, len(prior))
	}
	if q, prior := splitTurn(nil); q != "" || len(prior) != 0 {
		t.Errorf("empty conversation: %q, %v", q, prior)
	}
}
