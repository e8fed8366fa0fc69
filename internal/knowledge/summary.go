package knowledge

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/vishrut/portfolio-chat/internal"
)

// ProjectSummary renders title, description and tech on one line.
func ProjectSummary(p internal.Project) string {
	s := p.Title
	if p.Description != "" {
		s += ": " + p.Description
	}
	if len(p.Tech) > 0 {
		s += " [" + strings.Join(p.Tech, ", ") + "]"
	}
	return s
}

func MediaSummary(m internal.MediaAppearance) string {
	return fmt.Sprintf("%s (%s, %s)", m.Title, m.Date, m.Type)
}

func TimelineSummary(e internal.TimelineEntry) string {
	return fmt.Sprintf("%s @ %s (%s): %s", e.Role, e.Company, e.Duration, TimelineExcerpt(e))
}

// TimelineExcerpt is the first two sentences of the entry body, falling
// back to the highlights when the body is empty.
func TimelineExcerpt(e internal.TimelineEntry) string {
	text := e.Body
	if strings.TrimSpace(text) == "" && len(e.Highlights) > 0 {
		text = strings.Join(e.Highlights, ". ")
	}
	return FirstSentences(text, 2)
}

// FirstSentences returns the first n sentences of s. A sentence ends at
// '.', '!' or '?' followed by whitespace or the end of the text.
func FirstSentences(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	count := 0
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		count++
		if count == n {
			return string(runes[:i+1])
		}
	}
	return s
}

func Summarize(kb *internal.KnowledgeBase) internal.KnowledgeSummary {
	out := internal.KnowledgeSummary{
		Projects: make([]string, 0, len(kb.Projects)),
		Media:    make([]string, 0, len(kb.Media)),
		Timeline: make([]string, 0, len(kb.Timeline)),
	}
	for _, p := range kb.Projects {
		out.Projects = append(out.Projects, ProjectSummary(p))
	}
	for _, m := range kb.Media {
		out.Media = append(out.Media, MediaSummary(m))
	}
	for _, e := range kb.Timeline {
		out.Timeline = append(out.Timeline, TimelineSummary(e))
	}
	return out
}

// Companies lists the distinct employers on the timeline, in order.
func Companies(kb *internal.KnowledgeBase) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range kb.Timeline {
		key := strings.ToLower(strings.TrimSpace(e.Company))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e.Company)
	}
	return out
}

// Skills lists the distinct technologies used across projects.
func Skills(kb *internal.KnowledgeBase) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range kb.Projects {
		for _, t := range p.Tech {
			key := strings.ToLower(strings.TrimSpace(t))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, t)
		}
	}
	return out
}
