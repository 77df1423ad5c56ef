// Package report renders the markdown artifacts handed to the job seeker.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/spigell/job-seeker/internal/extract"
	"github.com/spigell/job-seeker/internal/jobs"
	"github.com/spigell/job-seeker/internal/profile"
	"github.com/spigell/job-seeker/internal/utils"
)

const (
	DefaultReportFile   = "job_search_report.md"
	DefaultStrategyFile = "application_strategy.md"

	// Threshold is the lowest score a posting needs to appear in the report.
	Threshold = 70
	// MaxPostings caps the number of cards in the report.
	MaxPostings = 10
	// DescriptionLimit caps each card's description, in characters.
	DescriptionLimit = 300

	profileSkills   = 10
	strategyEntries = 3
	timestampLayout = "2006-01-02 15:04:05"
	notAvailable    = "N/A"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.tmpl"))

type card struct {
	Index       int
	Title       string
	Company     string
	Score       string
	Location    string
	Salary      string
	JobType     string
	Posted      string
	Source      string
	Description string
	URL         string
	Lead        string
}

type document struct {
	Name           string
	Role           string
	Experience     int
	Skills         string
	Locations      string
	ExpectedSalary string
	GeneratedOn    string
	Count          int
	Threshold      int
	Cards          []card
}

// Select returns the postings that make it into the report:
// those scoring at least Threshold, best first, at most MaxPostings.
func Select(postings *jobs.Postings) *jobs.Postings {
	if postings == nil {
		return jobs.New()
	}
	return postings.AtLeast(Threshold).Top(MaxPostings)
}

// Render builds the job search report. The output depends only on its arguments.
func Render(postings *jobs.Postings, p *profile.UserProfile, generatedAt time.Time) (string, error) {
	if postings == nil {
		postings = jobs.New()
	}
	qualified := postings.AtLeast(Threshold)
	selected := qualified.Top(MaxPostings)

	doc := newDocument(p, generatedAt)
	doc.Count = qualified.Len()
	doc.Cards = cards(selected)

	return execute("report.md.tmpl", doc)
}

// RenderStrategy builds the static application strategy for the best postings.
func RenderStrategy(postings *jobs.Postings, p *profile.UserProfile, generatedAt time.Time) (string, error) {
	selected := Select(postings).Top(strategyEntries)

	doc := newDocument(p, generatedAt)
	doc.Count = selected.Len()
	doc.Cards = cards(selected)

	return execute("strategy.md.tmpl", doc)
}

func execute(name string, doc document) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, doc); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func newDocument(p *profile.UserProfile, generatedAt time.Time) document {
	if p == nil {
		p = &profile.UserProfile{}
	}

	return document{
		Name:           p.DisplayName(),
		Role:           orNA(p.CurrentRole),
		Experience:     p.YearsExperience,
		Skills:         orNA(strings.Join(p.TopSkills(profileSkills), ", ")),
		Locations:      orNA(strings.Join(p.PreferredLocations, ", ")),
		ExpectedSalary: FormatSalary(p.ExpectedSalary),
		GeneratedOn:    generatedAt.Format(timestampLayout),
		Threshold:      Threshold,
	}
}

func cards(postings *jobs.Postings) []card {
	out := make([]card, 0, postings.Len())
	for i, posting := range postings.Items {
		out = append(out, card{
			Index:       i + 1,
			Title:       orNA(posting.Title),
			Company:     orNA(posting.Company),
			Score:       fmt.Sprintf("%.1f", posting.Score()),
			Location:    orNA(posting.Location),
			Salary:      orNA(posting.SalaryRange),
			JobType:     orNA(posting.JobType),
			Posted:      orNA(posting.PostedDate),
			Source:      orNA(posting.Site),
			Description: orNA(utils.Truncate(posting.Description, DescriptionLimit)),
			URL:         orDefault(posting.URL, "#"),
			Lead:        lead(posting),
		})
	}
	return out
}

// lead names the skills a posting asks for, falling back to its title.
func lead(posting *jobs.Posting) string {
	skills := extract.Skills(posting.Description)
	if len(skills) == 0 {
		return "your experience as it relates to " + orNA(posting.Title)
	}
	if len(skills) > strategyEntries {
		skills = skills[:strategyEntries]
	}
	return strings.Join(skills, ", ")
}

// FormatSalary renders an annual salary with thousands separators, e.g. "$150,000".
func FormatSalary(amount int) string {
	if amount <= 0 {
		return notAvailable
	}
	return message.NewPrinter(language.English).Sprintf("$%d", amount)
}

func orNA(s string) string {
	return orDefault(s, notAvailable)
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
