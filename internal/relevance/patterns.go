package relevance

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	// DenyReason is returned for sensitive personal topics.
	DenyReason = "I'm sorry, but I can't share personal or sensitive information. Feel free to ask about Vishrut's projects, work experience, or technical skills!"
	// OffTopicReason is returned when nothing in the query is on topic.
	OffTopicReason = "I can only answer questions about Vishrut's professional background, projects, skills, and media appearances. Please stay on topic!"
)

// IsCannedRefusal reports whether s is one of the fixed refusal strings.
func IsCannedRefusal(s string) bool {
	return s == DenyReason || s == OffTopicReason
}

var (
	denySalary       = regexp.MustCompile(`\b(salary|salaries|compensation|income|net worth|paycheck|how much (do|did|does) (you|he|vishrut) (make|earn))\b`)
	denySSN          = regexp.MustCompile(`\b(ssn|social security( number)?)\b`)
	denyAddress      = regexp.MustCompile(`\b(home address|street address|where (do|does) (you|he|vishrut) live|(you|he|vishrut) lives? at)\b`)
	denyPhone        = regexp.MustCompile(`\b(phone number|cell number|mobile number|personal number)\b`)
	denyCredentials  = regexp.MustCompile(`\b(password|passwords|credit card|bank account|routing number)\b`)
	denyAge          = regexp.MustCompile(`\b(how old|your age|his age|date of birth|birthday|dob)\b`)
	denyBeliefs      = regexp.MustCompile(`\b(religion|religious|political|politics|voted|vote for)\b`)
	denyRelationship = regexp.MustCompile(`\b(girlfriend|boyfriend|married|dating|relationship status|wife|husband)\b`)
	denyHealth       = regexp.MustCompile(`\b(medical|health condition|disability|diagnosis|diagnosed|medication)\b`)
)

// fullDeny is the authoritative server-side deny list.
var fullDeny = []*regexp.Regexp{
	denySalary, denySSN, denyAddress, denyPhone, denyCredentials,
	denyAge, denyBeliefs, denyRelationship, denyHealth,
}

// advisoryDeny is the reduced list checked before the user submits.
var advisoryDeny = []*regexp.Regexp{
	denySalary, denySSN, denyAddress, denyPhone, denyCredentials,
}

var (
	allowWorkAuth = regexp.MustCompile(`\b(work authori[sz]ation|authori[sz]ed to work|visa|visas|sponsorship|sponsor|h-?1b|green card|work permit|(stem|f-?1) opt|(opt|cpt) (status|extension|eligibility))\b`)
	allowCounting = regexp.MustCompile(`\bhow (many|much)\b.*\b(projects?|years?|companies|company|jobs?|roles?|internships?|languages?|technologies|skills?|talks?|podcasts?|articles?|apps?|experience|hackathons?|certifications?|users?|customers?|interviews?|videos?)\b`)
)

// Questions naming an employer are allowed through WithKnownCompanies.
var baseAllow = []*regexp.Regexp{allowWorkAuth, allowCounting}

var defaultSkills = []string{
	"react", "next.js", "typescript", "javascript", "python", "golang",
	"rust", "java", "c++", "node.js", "aws", "gcp", "docker", "kubernetes",
	"sql", "postgres", "machine learning", "llm", "llms", "tensorflow", "pytorch",
}

// skillQuestion builds the "do you know / have you used <skill>" pattern.
func skillQuestion(skills []string) *regexp.Regexp {
	alts := make([]string, 0, len(skills))
	for _, s := range skills {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			alts = append(alts, termPattern(s))
		}
	}
	if len(alts) == 0 {
		return nil
	}
	return regexp.MustCompile(`\b(know|knows|used|use|uses|using|experience|experienced|proficient|familiar|skilled|worked|work|good at)\b.*(` + strings.Join(alts, "|") + `)`)
}

// anyOf matches any of names as a standalone term.
func anyOf(names []string) *regexp.Regexp {
	alts := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			alts = append(alts, termPattern(n))
		}
	}
	if len(alts) == 0 {
		return nil
	}
	return regexp.MustCompile(strings.Join(alts, "|"))
}

// termPattern escapes term and anchors it on word boundaries where the term
// itself starts or ends with a word character, so "c++" and "next.js" work.
func termPattern(term string) string {
	p := regexp.QuoteMeta(term)
	if strings.ContainsRune(term, ' ') {
		return p
	}
	r := []rune(term)
	if isWord(r[0]) {
		p = `\b` + p
	}
	if isWord(r[len(r)-1]) {
		p += `\b`
	}
	return p
}

func isWord(r rune) bool {
	return r < unicode.MaxASCII && (r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r))
}

var followUp = regexp.MustCompile(`^(tell me more|more|go on|continue|why|how so|and then|what else|what about (that|it|this|them)|can you elaborate|elaborate|really|interesting)[\s.!?]*$`)
