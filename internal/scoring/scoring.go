// Package scoring rates how well a posting fits a profile on a 0-100 scale.
package scoring

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/spigell/job-seeker/internal/extract"
	"github.com/spigell/job-seeker/internal/jobs"
	"github.com/spigell/job-seeker/internal/profile"
)

const (
	MaxScore = 100.0

	SkillsWeight         = 40.0
	ExperienceWeight     = 25.0
	ExperiencePenalty    = 5.0
	PreferredLocationFit = 15.0
	RemoteLocationFit    = 10.0
	SalaryWeight         = 10.0
	CompanyTypeWeight    = 10.0
)

var salaryNumber = regexp.MustCompile(`\$?(\d{1,3}(?:,\d{3})+|\d+)(?:\.\d+)?\s*([kK]\b)?`)

// Breakdown holds the individual components of a score.
type Breakdown struct {
	Skills     float64 `json:"skills"`
	Experience float64 `json:"experience"`
	Location   float64 `json:"location"`
	Salary     float64 `json:"salary"`
	Company    float64 `json:"company"`
	Total      float64 `json:"total"`
}

// Score returns the clamped match score of posting against p.
func Score(posting *jobs.Posting, p *profile.UserProfile) float64 {
	return Explain(posting, p).Total
}

// Explain computes every score component. The components are independent and
// their sum is clamped to [0, MaxScore].
func Explain(posting *jobs.Posting, p *profile.UserProfile) Breakdown {
	if posting == nil || p == nil {
		return Breakdown{}
	}

	b := Breakdown{
		Skills:     skillsScore(posting.Description, p.Skills),
		Experience: experienceScore(extract.ExperienceYears(posting.Description), p.YearsExperience),
		Location:   locationScore(posting.Location, p.PreferredLocations),
		Salary:     salaryScore(ParseSalary(posting.SalaryRange), p.ExpectedSalary),
		Company:    companyScore(posting.Company, p.PreferredCompanyType),
	}

	total := b.Skills + b.Experience + b.Location + b.Salary + b.Company
	b.Total = math.Max(0, math.Min(total, MaxScore))
	return b
}

// skillsScore is the share of skills mentioned by the posting that the profile has.
// A posting mentioning no known skill is treated as mentioning one.
func skillsScore(description string, userSkills []string) float64 {
	mentioned := extract.Skills(description)

	have := make(map[string]struct{}, len(userSkills))
	for _, s := range userSkills {
		have[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}

	matched := 0
	for _, s := range mentioned {
		if _, ok := have[s]; ok {
			matched++
		}
	}

	total := max(len(mentioned), 1)
	return float64(matched) / float64(total) * SkillsWeight
}

func experienceScore(required, actual int) float64 {
	if actual >= required {
		return ExperienceWeight
	}
	return math.Max(0, ExperienceWeight-float64(required-actual)*ExperiencePenalty)
}

// locationScore checks preferred locations before the remote bucket.
func locationScore(location string, preferred []string) float64 {
	lower := strings.ToLower(location)
	for _, loc := range preferred {
		loc = strings.ToLower(strings.TrimSpace(loc))
		if loc != "" && strings.Contains(lower, loc) {
			return PreferredLocationFit
		}
	}
	if strings.Contains(lower, "remote") || strings.Contains(lower, "anywhere") {
		return RemoteLocationFit
	}
	return 0
}

// salaryScore is skipped when either side is unknown (zero).
func salaryScore(actual, expected int) float64 {
	if actual == 0 || expected == 0 {
		return 0
	}
	if actual >= expected {
		return SalaryWeight
	}
	gap := float64(expected-actual) / float64(expected)
	return math.Max(0, SalaryWeight-gap*SalaryWeight)
}

func companyScore(company, preferredType string) float64 {
	preferredType = strings.ToLower(strings.TrimSpace(preferredType))
	if preferredType == "" {
		return 0
	}
	if strings.Contains(strings.ToLower(company), preferredType) {
		return CompanyTypeWeight
	}
	return 0
}

// ParseSalary averages every amount found in a salary range string.
// Thousands separators are dropped and a "k" suffix multiplies by 1000.
// Amounts too large for an int are skipped.
// Zero means unknown.
func ParseSalary(salaryRange string) int {
	matches := salaryNumber.FindAllStringSubmatch(salaryRange, -1)
	if len(matches) == 0 {
		return 0
	}

	sum, parsed := 0, 0
	for _, m := range matches {
		n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
		if err != nil {
			continue
		}
		if m[2] != "" {
			n *= 1000
		}
		sum += n
		parsed++
	}
	if parsed == 0 {
		return 0
	}

	return sum / parsed
}
