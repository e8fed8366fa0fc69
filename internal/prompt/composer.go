// Package prompt renders the system prompt sent to the completion API.
package prompt

import (
	"fmt"
	"strings"

	"github.com/vishrut/portfolio-chat/internal"
	"github.com/vishrut/portfolio-chat/internal/knowledge"
)

// DefaultWindow bounds how many conversation turns reach the prompt.
const DefaultWindow = 5

// personaTemplate is filled with the owner's name.
const personaTemplate = `You are the AI assistant on {name}'s personal portfolio website. You answer visitor questions about {name}'s professional background, projects, skills, education, and media appearances.

Rules:
- Use ONLY the information in the KNOWLEDGE BASE below. If the answer is not there, say you don't have that information and suggest contacting {name} directly.
- Never invent employers, dates, numbers, technologies, or links.
- Never share personal or sensitive information (salary, compensation, home address, phone number, age, health, relationships, religion, politics). Politely decline such questions.
- Politely decline questions unrelated to {name}'s professional life and steer the visitor back on topic.
- Speak about {name} in the third person. Be concise, friendly, and professional.
- Format answers as short paragraphs or bullet lists. No headings.`

const closingInstructions = `OUTPUT INSTRUCTIONS:
- Respond with a single JSON object: {"content": string, "sources": [{"type", "title", "description", "date", "url"}], "confidence": number between 0 and 1, "isRelevant": boolean}.
- "type" is one of "project", "media", "timeline".
- Cite every knowledge base item you used in "sources", using its exact title (for timeline entries use "{role} @ {company}"). Leave "sources" empty when nothing was used.
- Set "isRelevant" to false and keep "content" short if the question is outside the rules above.
- Base "confidence" on how directly the knowledge base answers the question.`

// plainInstructions close the prompt for streamed answers, which reach the
// visitor verbatim.
const plainInstructions = `OUTPUT INSTRUCTIONS:
- Reply with the answer text only, written as you would say it to the visitor.
- Do not wrap the answer in any data format, code block, or field names.
- Name the projects, media appearances, or roles you relied on in the text itself.
- If the question is outside the rules above, decline in one short sentence and steer the visitor back on topic.`

// mediaIcons maps a media type to the marker shown in the prompt.
var mediaIcons = map[string]string{
	"podcast":    "🎙️",
	"video":      "🎥",
	"youtube":    "🎥",
	"article":    "📰",
	"blog":       "📝",
	"talk":       "🎤",
	"conference": "🎤",
	"interview":  "💬",
	"award":      "🏆",
}

// MediaIcon returns the marker for a media type, "📌" when unknown.
func MediaIcon(kind string) string {
	if icon, ok := mediaIcons[strings.ToLower(strings.TrimSpace(kind))]; ok {
		return icon
	}
	return "📌"
}

type Composer struct {
	Window int
	Name   string
}

func NewComposer(name string, window int) *Composer {
	if window <= 0 {
		window = DefaultWindow
	}
	if name == "" {
		name = "Vishrut"
	}
	return &Composer{Window: window, Name: name}
}

// Compose renders preamble, knowledge base, the last Window turns of
// recent and the JSON output instructions, in that order. The output
// depends only on its inputs.
func (c *Composer) Compose(recent []internal.Message, kb *internal.KnowledgeBase) string {
	return c.compose(recent, kb, closingInstructions)
}

// ComposeText is Compose for streamed replies: the closing section asks for
// plain answer text instead of a JSON object.
func (c *Composer) ComposeText(recent []internal.Message, kb *internal.KnowledgeBase) string {
	return c.compose(recent, kb, plainInstructions)
}

func (c *Composer) compose(recent []internal.Message, kb *internal.KnowledgeBase, closing string) string {
	if kb == nil {
		kb = &internal.KnowledgeBase{}
	}
	var b strings.Builder

	b.WriteString(strings.ReplaceAll(personaTemplate, "{name}", c.Name))
	b.WriteString("\n\nKNOWLEDGE BASE\n\n")

	b.WriteString("PROJECTS:\n")
	for _, p := range kb.Projects {
		fmt.Fprintf(&b, "- %s (%s): %s [Technologies: %s]\n", p.Title, p.Date, p.Description, strings.Join(p.Tech, ", "))
	}

	b.WriteString("\nMEDIA APPEARANCES:\n")
	for _, m := range kb.Media {
		fmt.Fprintf(&b, "- %s %s (%s)\n", MediaIcon(m.Type), m.Title, m.Date)
	}

	b.WriteString("\nCAREER TIMELINE:\n")
	for _, e := range kb.Timeline {
		fmt.Fprintf(&b, "- %s @ %s (%s): %s\n", e.Role, e.Company, e.Duration, knowledge.TimelineExcerpt(e))
	}

	b.WriteString("\nRECENT CONVERSATION:\n")
	for _, m := range Window(recent, c.Window) {
		fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(string(m.Role)), m.Content)
	}

	b.WriteString("\n")
	b.WriteString(closing)
	return b.String()
}

// Window returns the last n messages of msgs without copying.
func Window(msgs []internal.Message, n int) []internal.Message {
	if n <= 0 {
		return nil
	}
	if len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}
