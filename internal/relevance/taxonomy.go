package relevance

// Category is one weighted group of topic terms. Terms containing a space
// are matched as literal phrases, everything else on word boundaries.
type Category struct {
	Name   string
	Weight float64
	Terms  []string
}

type Taxonomy []Category

var professional = Category{
	Name:   "professional",
	Weight: 1.0,
	Terms: []string{
		"experience", "work", "worked", "working", "job", "jobs", "role", "roles",
		"career", "company", "companies", "position", "intern", "internship",
		"internships", "employer", "team", "responsibilities", "resume", "cv",
		"hire", "hiring", "background", "work experience", "current role",
		"previous role", "day to day",
	},
}

var technical = Category{
	Name:   "technical",
	Weight: 0.8,
	Terms: []string{
		"skill", "skills", "tech", "technology", "technologies", "stack",
		"programming", "language", "languages", "framework", "frameworks",
		"react", "next.js", "typescript", "javascript", "python", "golang",
		"rust", "java", "c++", "aws", "docker", "kubernetes", "ai", "ml", "llm",
		"database", "sql", "backend", "frontend", "api", "cloud", "devops",
		"machine learning", "full stack", "system design", "distributed systems",
	},
}

var projects = Category{
	Name:   "projects",
	Weight: 1.0,
	Terms: []string{
		"project", "projects", "built", "build", "building", "portfolio", "app",
		"apps", "application", "github", "demo", "hackathon", "hackathons",
		"open source", "side project", "side projects",
	},
}

var education = Category{
	Name:   "education",
	Weight: 0.7,
	Terms: []string{
		"education", "degree", "university", "college", "school", "studied",
		"study", "major", "graduate", "graduated", "gpa", "course", "courses",
		"certification", "certifications", "research",
	},
}

var media = Category{
	Name:   "media",
	Weight: 0.6,
	Terms: []string{
		"podcast", "podcasts", "interview", "interviews", "talk", "talks",
		"article", "articles", "blog", "video", "videos", "media", "appearance",
		"appearances", "featured", "press", "conference", "youtube",
	},
}

var contact = Category{
	Name:   "contact",
	Weight: 0.5,
	Terms: []string{
		"contact", "linkedin", "connect", "collaborate", "collaboration",
		"get in touch", "reach out", "referral", "referrals",
	},
}

// interests only appears in the lenient taxonomy.
var interests = Category{
	Name:   "interests",
	Weight: 0.3,
	Terms: []string{
		"interests", "interested", "passion", "passionate", "goals", "motivation",
		"learning", "learn", "achievements", "achievement", "awards", "award",
		"fun fact", "inspiration", "mentor", "mentoring", "leadership",
	},
}

// StrictTaxonomy is the authoritative table used by the structured endpoint.
func StrictTaxonomy() Taxonomy {
	return Taxonomy{professional, technical, projects, education, media, contact}
}

// LenientTaxonomy widens StrictTaxonomy with softer personal-professional terms.
func LenientTaxonomy() Taxonomy {
	return append(StrictTaxonomy(), interests)
}
