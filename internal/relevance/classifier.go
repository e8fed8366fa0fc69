// Package relevance decides whether a visitor's chat query is on topic.
//
// One pure classification routine serves every call site. What differs
// between the authoritative server check and the advisory pre-submit check
// is only the Profile: which deny and allow patterns apply, which taxonomy
// scores the query, and the threshold.
package relevance

import (
	"math"
	"regexp"
	"strings"

	"github.com/vishrut/portfolio-chat/internal"
)

// Result is computed fresh per query and never stored.
type Result struct {
	IsRelevant bool    `json:"isRelevant"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}

type Profile struct {
	Name      string
	Deny      []*regexp.Regexp
	Allow     []*regexp.Regexp
	Taxonomy  Taxonomy
	Threshold float64
	// DenyOnly stops after the deny check: anything not denied passes.
	DenyOnly bool
}

// Strict is the authoritative server profile.
func Strict() Profile {
	return Profile{
		Name:      "strict",
		Deny:      fullDeny,
		Allow:     baseAllow,
		Taxonomy:  StrictTaxonomy(),
		Threshold: 0.5,
	}
}

// Lenient shares the pattern lists with Strict but scores against a wider
// taxonomy with a lower threshold.
func Lenient() Profile {
	return Profile{
		Name:      "lenient",
		Deny:      fullDeny,
		Allow:     baseAllow,
		Taxonomy:  LenientTaxonomy(),
		Threshold: 0.2,
	}
}

// Advisory only runs the reduced deny list. Its answer is a UX hint; the
// server re-checks every submitted query.
func Advisory() Profile {
	return Profile{
		Name:     "advisory",
		Deny:     advisoryDeny,
		DenyOnly: true,
	}
}

// ProfileByName maps a config value onto a profile, defaulting to Strict.
func ProfileByName(name string) Profile {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "lenient":
		return Lenient()
	case "advisory":
		return Advisory()
	default:
		return Strict()
	}
}

type termMatcher struct {
	re *regexp.Regexp
}

type categoryMatcher struct {
	name   string
	weight float64
	terms  []termMatcher
}

// Classifier is safe for concurrent use; all state is fixed at construction.
type Classifier struct {
	profile    Profile
	allow      []*regexp.Regexp
	categories []categoryMatcher
	skills     []string
	companies  []string
}

type Option func(*Classifier)

// WithKnownCompanies allow-lists any query naming one of the companies.
func WithKnownCompanies(names ...string) Option {
	return func(c *Classifier) { c.companies = append(c.companies, names...) }
}

// WithKnownSkills extends the built-in skill list used by the
// "have you used X" allow pattern.
func WithKnownSkills(names ...string) Option {
	return func(c *Classifier) { c.skills = append(c.skills, names...) }
}

func New(p Profile, opts ...Option) *Classifier {
	c := &Classifier{profile: p, skills: append([]string(nil), defaultSkills...)}
	for _, opt := range opts {
		opt(c)
	}
	if p.DenyOnly {
		return c
	}

	c.allow = append(c.allow, p.Allow...)
	if re := anyOf(c.companies); re != nil {
		c.allow = append(c.allow, re)
	}
	if re := skillQuestion(c.skills); re != nil {
		c.allow = append(c.allow, re)
	}

	for _, cat := range p.Taxonomy {
		m := categoryMatcher{name: cat.Name, weight: cat.Weight}
		for _, term := range cat.Terms {
			term = strings.ToLower(strings.TrimSpace(term))
			if term == "" {
				continue
			}
			m.terms = append(m.terms, termMatcher{re: regexp.MustCompile(termPattern(term))})
		}
		c.categories = append(c.categories, m)
	}
	return c
}

func (c *Classifier) Profile() Profile { return c.profile }

// Classify scores query against the profile. recent is the conversation
// before query; it is only consulted for short follow-ups like "tell me more".
func (c *Classifier) Classify(query string, recent []internal.Message) Result {
	q := Normalize(query)

	for _, re := range c.profile.Deny {
		if re.MatchString(q) {
			return Result{IsRelevant: false, Confidence: 1, Reason: DenyReason}
		}
	}
	if c.profile.DenyOnly {
		return Result{IsRelevant: true, Confidence: 1}
	}
	if q == "" {
		return Result{IsRelevant: false, Confidence: 0, Reason: OffTopicReason}
	}

	for _, re := range c.allow {
		if re.MatchString(q) {
			return Result{IsRelevant: true, Confidence: 1}
		}
	}

	score, matches := c.score(q)
	if score >= c.profile.Threshold || matches >= 1 {
		return Result{IsRelevant: true, Confidence: Clamp(score / 3)}
	}

	if followUp.MatchString(q) {
		if prev := internal.LastUserMessage(recent); prev != "" {
			// nil history keeps follow-up chains from recursing.
			if r := c.Classify(prev, nil); r.IsRelevant {
				return r
			}
		}
	}

	return Result{IsRelevant: false, Confidence: Clamp(score / 3), Reason: OffTopicReason}
}

func (c *Classifier) score(q string) (float64, int) {
	var total float64
	var matches int
	for _, cat := range c.categories {
		n := 0
		for _, t := range cat.terms {
			if t.re.MatchString(q) {
				n++
			}
		}
		total += float64(n) * cat.weight
		matches += n
	}
	return total, matches
}

// Normalize lowercases, trims and collapses runs of whitespace.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Clamp pins x into [0,1]; NaN becomes 0.
func Clamp(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return math.Max(0, math.Min(1, x))
}
