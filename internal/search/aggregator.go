package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/spigell/job-seeker/internal/extract"
	"github.com/spigell/job-seeker/internal/jobs"
	"github.com/spigell/job-seeker/internal/logger"
	"github.com/spigell/job-seeker/internal/utils"
)

const (
	DefaultMaxResults = 20
	DefaultDelay      = time.Second
	// resultCap bounds how many provider hits are kept per site.
	resultCap = 10
	// fallbackCap bounds the synthetic postings generated per failed site.
	fallbackCap = 5
)

// DefaultSites are searched when the caller does not name any.
var DefaultSites = []string{
	"indeed.com",
	"linkedin.com/jobs",
	"glassdoor.com",
	"dice.com",
	"remote.co",
	"angel.co",
	"stackoverflow.com/jobs",
	"github.com/careers",
	"weworkremotely.com",
	"flexjobs.com",
}

// ErrNoProvider is reported for every site when no search provider is configured.
var ErrNoProvider = errors.New("search provider is not configured")

// ProviderError records a failed search for one site.
type ProviderError struct {
	Site  string
	Cause error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("searching %s: %v", e.Site, e.Cause)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Aggregator searches several job sites one after another.
type Aggregator struct {
	provider   Provider
	logger     *zap.Logger
	Delay      time.Duration
	MaxResults int

	wait func(ctx context.Context, d time.Duration) error
}

// Outcome is the flat list of postings plus the per-site failures that were
// replaced by synthetic postings.
type Outcome struct {
	Postings *jobs.Postings
	Failures []*ProviderError
}

func NewAggregator(provider Provider, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		provider:   provider,
		logger:     logger,
		Delay:      DefaultDelay,
		MaxResults: DefaultMaxResults,
		wait:       utils.WaitFor,
	}
}

// Search queries every site in order, pausing Delay between sites.
// A failing site never aborts the search: it is logged and replaced by
// synthetic postings. Only context cancellation stops the loop early.
func (a *Aggregator) Search(ctx context.Context, query string, sites []string) (*Outcome, error) {
	if len(sites) == 0 {
		sites = DefaultSites
	}

	out := &Outcome{Postings: jobs.New()}

	for i, site := range sites {
		if i > 0 {
			if err := a.wait(ctx, a.Delay); err != nil {
				return out, err
			}
		}

		siteLogger := logger.WithFields(a.logger, logger.StringFields(logger.StringField{Key: logger.FieldSite, Value: site})...)

		postings, err := a.searchSite(ctx, query, site)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}

			failure := &ProviderError{Site: site, Cause: err}
			out.Failures = append(out.Failures, failure)

			siteLogger.Warn("search failed, using placeholder postings", zap.Error(err))
			postings = Placeholders(query, site, a.MaxResults)
		}

		siteLogger.Info("site searched", zap.Int("postings", len(postings)))
		out.Postings.Items = append(out.Postings.Items, postings...)
	}

	return out, nil
}

func (a *Aggregator) searchSite(ctx context.Context, query, site string) ([]*jobs.Posting, error) {
	if a.provider == nil {
		return nil, ErrNoProvider
	}

	results, err := a.provider.Search(ctx, SiteQuery(site, query), a.MaxResults)
	if err != nil {
		return nil, err
	}

	return ParseResults(results, site), nil
}

// SiteQuery scopes query to a single job site.
func SiteQuery(site, query string) string {
	return fmt.Sprintf("site:%s \"%s\" jobs", site, query)
}

// ParseResults converts provider hits to postings. Hits without a title or a
// link are dropped and at most resultCap postings are kept.
func ParseResults(results []Result, site string) []*jobs.Posting {
	postings := make([]*jobs.Posting, 0, min(len(results), resultCap))

	for _, r := range results {
		if len(postings) == resultCap {
			break
		}

		title := strings.TrimSpace(r.Title)
		link := strings.TrimSpace(r.Link)
		if title == "" || link == "" {
			continue
		}

		snippet := plainText(r.Snippet)
		posted := extract.Date(snippet)
		if posted == extract.NoDate && strings.TrimSpace(r.Date) != "" {
			posted = strings.TrimSpace(r.Date)
		}

		postings = append(postings, &jobs.Posting{
			Title:       title,
			Company:     extract.Company(title),
			Location:    extract.Location(snippet),
			URL:         link,
			Description: snippet,
			PostedDate:  posted,
			SalaryRange: extract.SalaryRange(snippet),
			Site:        site,
			JobType:     extract.JobType(snippet),
		})
	}

	return postings
}

// Placeholders builds the synthetic postings used when a site cannot be searched.
func Placeholders(query, site string, maxResults int) []*jobs.Posting {
	n := min(maxResults, fallbackCap)
	postings := make([]*jobs.Posting, 0, max(n, 0))

	for i := 1; i <= n; i++ {
		postings = append(postings, &jobs.Posting{
			Title:       fmt.Sprintf("Senior %s Engineer", query),
			Company:     fmt.Sprintf("Tech Company %d", i),
			Location:    "San Francisco, CA",
			URL:         fmt.Sprintf("https://%s/job/%d", site, i),
			Description: fmt.Sprintf("Looking for a senior %s engineer with 5+ years experience...", query),
			PostedDate:  "2024-01-15",
			SalaryRange: "$120,000 - $180,000",
			Site:        site,
			JobType:     extract.FullTime,
		})
	}

	return postings
}

// plainText strips markup some providers leave in snippets and collapses whitespace.
func plainText(snippet string) string {
	if !strings.ContainsAny(snippet, "<&") {
		return strings.Join(strings.Fields(snippet), " ")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snippet))
	if err != nil {
		return strings.Join(strings.Fields(snippet), " ")
	}

	return strings.Join(strings.Fields(doc.Text()), " ")
}
