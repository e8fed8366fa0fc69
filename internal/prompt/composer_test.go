package prompt

import (
	"fmt"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/vishrut/portfolio-chat/internal"
)

func sampleKB() *internal.KnowledgeBase {
	return &internal.KnowledgeBase{
		Projects: []internal.Project{
			{Title: "Portfolio Chat", Date: "2024", Description: "An AI chat widget.", Tech: []string{"Go", "Next.js"}},
		},
		Media: []internal.MediaAppearance{
			{Title: "Scaling Startups", Date: "2023-09", Type: "podcast"},
		},
		Timeline: []internal.TimelineEntry{
			{Role: "Software Engineer", Company: "Company X", Duration: "2022 - Present", Body: "Built the billing platform. Led the API redesign. Mentored three interns."},
		},
	}
}

func TestCompose_RendersKnowledgeBullets(t *testing.T) {
	out := NewComposer("Vishrut", 5).Compose(nil, sampleKB())

	wants := []string{
		"- Portfolio Chat (2024): An AI chat widget. [Technologies: Go, Next.js]",
		"- 🎙️ Scaling Startups (2023-09)",
		"- Software Engineer @ Company X (2022 - Present): Built the billing platform. Led the API redesign.",
	}
	for _, w := range wants {
		if !strings.Contains(out, w) {
			t.Errorf("prompt missing %q", w)
		}
	}
	if strings.Contains(out, "Mentored three interns") {
		t.Error("timeline body should be cut to two sentences")
	}
}

func TestCompose_SectionOrder(t *testing.T) {
	out := NewComposer("Vishrut", 5).Compose([]internal.Message{{Role: internal.RoleUser, Content: "hi"}}, sampleKB())

	order := []string{"You are the AI assistant", "PROJECTS:", "MEDIA APPEARANCES:", "CAREER TIMELINE:", "RECENT CONVERSATION:", "USER: hi", "OUTPUT INSTRUCTIONS:"}
	last := -1
	for _, marker := range order {
		i := strings.Index(out, marker)
		if i < 0 {
			t.Fatalf("missing %q", marker)
		}
		if i < last {
			t.Fatalf("%q out of order", marker)
		}
		last = i
	}
}

func TestCompose_UsesName(t *testing.T) {
	out := NewComposer("Ada", 5).Compose(nil, nil)
	if !strings.Contains(out, "Ada's personal portfolio") || strings.Contains(out, "{name}") {
		t.Error("persona name not substituted")
	}
}

func TestCompose_Deterministic(t *testing.T) {
	c := NewComposer("Vishrut", 5)
	msgs := []internal.Message{{Role: internal.RoleUser, Content: "projects?"}}
	if c.Compose(msgs, sampleKB()) != c.Compose(msgs, sampleKB()) {
		t.Error("compose must be deterministic")
	}
}

func TestComposeText_AsksForPlainText(t *testing.T) {
	c := NewComposer("Vishrut", 5)
	msgs := []internal.Message{{Role: internal.RoleUser, Content: "projects?"}}

	text := c.ComposeText(msgs, sampleKB())
	if strings.Contains(text, "JSON") || strings.Contains(text, `"sources"`) {
		t.Error("plain-text prompt must not ask for JSON")
	}
	structured := c.Compose(msgs, sampleKB())
	head := structured[:strings.Index(structured, "OUTPUT INSTRUCTIONS:")]
	if !strings.HasPrefix(text, head) {
		t.Error("both modes should share everything before the output instructions")
	}
}

func TestMediaIcon(t *testing.T) {
	if MediaIcon("Podcast") != "🎙️" {
		t.Error("type lookup should be case-insensitive")
	}
	if MediaIcon("newsletter") != "📌" {
		t.Error("unknown types fall back to the pin")
	}
}

func TestNewComposer_Defaults(t *testing.T) {
	c := NewComposer("", 0)
	if c.Window != DefaultWindow || c.Name == "" {
		t.Errorf("unexpected defaults: %+v", c)
	}
}

// TestProperty_HistoryWindow checks that exactly the last min(N, len)
// messages are rendered, in order.
func TestProperty_HistoryWindow(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 10).Draw(t, "window")
		count := rapid.IntRange(0, 25).Draw(t, "messages")

		msgs := make([]internal.Message, count)
		for i := range msgs {
			role := internal.RoleUser
			if i%2 == 1 {
				role = internal.RoleAssistant
			}
			msgs[i] = internal.Message{Role: role, Content: fmt.Sprintf("turn-%03d", i)}
		}

		out := NewComposer("Vishrut", n).Compose(msgs, nil)
		history := out[strings.Index(out, "RECENT CONVERSATION:"):]

		keep := count
		if n < keep {
			keep = n
		}
		first := count - keep
		last := -1
		for i := 0; i < count; i++ {
			marker := fmt.Sprintf("turn-%03d", i)
			idx := strings.Index(history, marker)
			if i < first {
				if idx >= 0 {
					t.Fatalf("message %d should be outside the window %d", i, n)
				}
				continue
			}
			if idx < 0 {
				t.Fatalf("message %d missing from window %d", i, n)
			}
			if idx < last {
				t.Fatalf("message %d out of order", i)
			}
			last = idx
		}
		if got := strings.Count(history, "turn-"); got != keep {
			t.Fatalf("rendered %d messages, want %d", got, keep)
		}
	})
}
