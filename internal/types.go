package internal

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// LastUserMessage returns the content of the newest user turn, or "".
func LastUserMessage(msgs []Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleUser {
			return msgs[i].Content
		}
	}
	return ""
}

// --- Knowledge base ---

type Project struct {
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Date        string   `json:"date" yaml:"date"`
	Tech        []string `json:"tech" yaml:"tech"`
	URL         string   `json:"url,omitempty" yaml:"url,omitempty"`
}

type MediaAppearance struct {
	Title       string `json:"title" yaml:"title"`
	Date        string `json:"date" yaml:"date"`
	Type        string `json:"type" yaml:"type"`
	URL         string `json:"url,omitempty" yaml:"url,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

type TimelineEntry struct {
	Role       string   `json:"role" yaml:"role"`
	Company    string   `json:"company" yaml:"company"`
	Duration   string   `json:"duration" yaml:"duration"`
	Body       string   `json:"body" yaml:"body"`
	Highlights []string `json:"highlights,omitempty" yaml:"highlights,omitempty"`
}

// KnowledgeBase is an immutable snapshot. Never mutate one after it has
// been handed out by the loader.
type KnowledgeBase struct {
	Projects []Project         `json:"projects"`
	Media    []MediaAppearance `json:"media"`
	Timeline []TimelineEntry   `json:"timeline"`
}

// --- Chat ---

type ChatRequest struct {
	Messages  []Message `json:"messages"`
	SessionID string    `json:"session_id,omitempty"`
}

type Source struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"`
	URL         string `json:"url,omitempty"`
}

// ChatResponse is the structured answer returned to the widget.
type ChatResponse struct {
	Content    string   `json:"content"`
	Sources    []Source `json:"sources"`
	Confidence float64  `json:"confidence"`
	IsRelevant bool     `json:"isRelevant"`
	SessionID  string   `json:"session_id,omitempty"`
}

type RelevanceCheckRequest struct {
	Query string `json:"query"`
}

type RelevanceCheckResponse struct {
	IsRelevant bool    `json:"isRelevant"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}

type KnowledgeSummary struct {
	Projects []string `json:"projects"`
	Media    []string `json:"media"`
	Timeline []string `json:"timeline"`
}
