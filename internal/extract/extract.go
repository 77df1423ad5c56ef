package extract

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	UnknownCompany = "Unknown Company"
	NoLocation     = "Location not specified"
	NoDate         = "Date not specified"
	NoSalary       = "Salary not specified"

	FullTime = "Full-time"
	PartTime = "Part-time"
	Contract = "Contract"
	Remote   = "Remote"

	DefaultExperienceYears = 3
)

var (
	majorCities = []string{
		"San Francisco", "New York", "Los Angeles", "Chicago",
		"Boston", "Seattle", "Austin", "Denver",
	}

	locationRules = []patternRule{
		{name: "city-state", pattern: regexp.MustCompile(`\b([A-Z][a-z]+(?: [A-Z][a-z]+)*,\s*[A-Z]{2})\b`), group: 1},
		{name: "city-country", pattern: regexp.MustCompile(`\b([A-Z][a-z]+(?: [A-Z][a-z]+)*, [A-Z][a-z]+)\b`), group: 1},
		{name: "remote", pattern: regexp.MustCompile(`(?i)\b(remote|work from home|wfh)\b`), group: 1},
		{name: "major-city", pattern: regexp.MustCompile(`(?i)\b(` + strings.Join(majorCities, "|") + `)\b`), group: 1},
	}

	dateRules = []patternRule{
		{name: "days-ago", pattern: regexp.MustCompile(`(?i)\b(\d{1,2} days? ago)`), group: 1},
		{name: "hours-ago", pattern: regexp.MustCompile(`(?i)\b(\d{1,2} hours? ago)`), group: 1},
		{name: "weeks-ago", pattern: regexp.MustCompile(`(?i)\b(\d{1,2} weeks? ago)`), group: 1},
		{name: "posted-us", pattern: regexp.MustCompile(`(?i)\b(Posted \d{1,2}/\d{1,2}/\d{4})`), group: 1},
		{name: "iso", pattern: regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`), group: 1},
	}

	amount      = `(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d+)?[kK]?`
	salaryRules = []patternRule{
		{name: "dollar-range", pattern: regexp.MustCompile(`(\$` + amount + `\s*(?:-|–|to)\s*\$?` + amount + `)`), group: 1},
		{name: "dollar", pattern: regexp.MustCompile(`(\$` + amount + `)`), group: 1},
	}

	// Priority order matters: a contract role advertised as remote is a Contract.
	jobTypeRules = []keywordRule{
		{value: FullTime, keywords: []string{"full-time", "full time", "permanent"}},
		{value: PartTime, keywords: []string{"part-time", "part time"}},
		{value: Contract, keywords: []string{"contract", "contractor"}},
		{value: Remote, keywords: []string{"remote", "work from home", "wfh"}},
	}

	experienceRules = []patternRule{
		{name: "years-of-experience", pattern: regexp.MustCompile(`(\d+)\+?\s*years?\s*of\s*(?:relevant\s*)?experience`), group: 1},
		{name: "years-in-field", pattern: regexp.MustCompile(`(\d+)\+?\s*years?\s*in\s*the\s*field`), group: 1},
		{name: "years-of-something-experience", pattern: regexp.MustCompile(`(\d+)\+?\s*years?\s+(?:of|in)\s+[a-z0-9 ,/.+#-]{0,40}?experience`), group: 1},
	}

	// SkillVocabulary is the fixed list of terms recognised in descriptions.
	SkillVocabulary = []string{
		"python", "javascript", "java", "react", "node.js", "aws", "docker",
		"kubernetes", "machine learning", "ai", "tensorflow", "pytorch",
		"sql", "mongodb", "postgresql", "git", "linux", "api", "rest",
		"graphql", "microservices", "agile", "scrum", "ci/cd", "jenkins",
		"terraform", "puppet", "ansible", "devops", "security", "hipaa",
		"hitrust", "finops", "azure", "gcp", "snowflake",
	}
)

// Company reads the employer out of a search result title.
// "Role at Acme" yields "Acme"; "Acme - Role" yields "Acme".
func Company(title string) string {
	if idx := strings.LastIndex(title, " at "); idx != -1 {
		if company := strings.TrimSpace(title[idx+len(" at "):]); company != "" {
			return company
		}
	}
	if before, _, ok := strings.Cut(title, " - "); ok {
		if company := strings.TrimSpace(before); company != "" {
			return company
		}
	}
	return UnknownCompany
}

func Location(snippet string) string {
	return firstMatch(locationRules, snippet, NoLocation)
}

func Date(snippet string) string {
	return firstMatch(dateRules, snippet, NoDate)
}

func SalaryRange(snippet string) string {
	return firstMatch(salaryRules, snippet, NoSalary)
}

// JobType defaults to full-time when no keyword is present.
func JobType(snippet string) string {
	return firstMatch(jobTypeRules, snippet, FullTime)
}

// Skills returns the vocabulary terms found in description, in vocabulary order.
// Matching is a case-insensitive substring test.
func Skills(description string) []string {
	lower := strings.ToLower(description)
	found := make([]string, 0)
	for _, skill := range SkillVocabulary {
		if strings.Contains(lower, skill) {
			found = append(found, skill)
		}
	}
	return found
}

// ExperienceYears returns the years of experience a description asks for.
func ExperienceYears(description string) int {
	value := firstMatch(experienceRules, strings.ToLower(description), "")
	if value == "" {
		return DefaultExperienceYears
	}
	years, err := strconv.Atoi(value)
	if err != nil {
		return DefaultExperienceYears
	}
	return years
}
